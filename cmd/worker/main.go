package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pharmetrix/careplan-service/internal/careplan"
	"github.com/pharmetrix/careplan-service/internal/db"
	"github.com/pharmetrix/careplan-service/internal/llm"
	"github.com/pharmetrix/careplan-service/internal/messaging"
	"github.com/pharmetrix/careplan-service/internal/order"
	"github.com/pharmetrix/careplan-service/internal/patient"
	"github.com/pharmetrix/careplan-service/internal/provider"
	"github.com/pharmetrix/careplan-service/internal/telemetry"
	"github.com/pharmetrix/careplan-service/internal/worker"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize OpenTelemetry
	otelCfg := telemetry.LoadConfig()
	otelCfg.ServiceName = otelCfg.ServiceName + "-worker"
	otelProvider, err := telemetry.InitProvider(ctx, otelCfg)
	if err != nil {
		log.Printf("Warning: OpenTelemetry initialization failed: %v", err)
	}
	if otelProvider != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			otelProvider.Shutdown(shutdownCtx)
		}()
	}

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		log.Printf("Warning: failed to initialize metrics: %v", err)
	}

	database, err := db.Connect()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	publisher, err := messaging.NewPublisher()
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer publisher.Close()

	backend, err := selectBackend()
	if err != nil {
		log.Fatalf("Failed to configure LLM backend: %v", err)
	}

	generator := worker.NewGenerator(
		order.NewRepository(database),
		patient.NewRepository(database),
		provider.NewRepository(database),
		careplan.NewRepository(database),
		backend,
		publisher,
	)
	generator.FileDir = os.Getenv("CAREPLAN_FILE_DIR")
	if metrics != nil {
		generator.WithMetrics(metrics)
	}

	workers, _ := strconv.Atoi(os.Getenv("WORKER_CONCURRENCY"))
	consumer, err := messaging.NewConsumer(workers)
	if err != nil {
		log.Fatalf("Failed to connect consumer to RabbitMQ: %v", err)
	}
	defer consumer.Close()

	log.Println("careplan-service worker consuming generation tasks")
	err = consumer.Consume(ctx, func(ctx context.Context, orderID uuid.UUID) error {
		_, err := generator.Process(ctx, orderID)
		return err
	})
	if err != nil {
		log.Fatalf("Consumer stopped: %v", err)
	}
	log.Println("Worker shut down")
}

// selectBackend picks the LLM backend: Gemini when an API key is configured,
// the canned mock otherwise so local stacks work without credentials.
func selectBackend() (llm.Backend, error) {
	if os.Getenv("GOOGLE_API_KEY") != "" {
		return llm.NewGeminiBackend()
	}
	log.Println("GOOGLE_API_KEY not set, using mock LLM backend")
	return llm.MockBackend{}, nil
}
