package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/pharmetrix/careplan-service/internal/db"
	apphttp "github.com/pharmetrix/careplan-service/internal/http"
	"github.com/pharmetrix/careplan-service/internal/intake"
	"github.com/pharmetrix/careplan-service/internal/messaging"
	"github.com/pharmetrix/careplan-service/internal/order"
	"github.com/pharmetrix/careplan-service/internal/storage"
	"github.com/pharmetrix/careplan-service/internal/telemetry"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize OpenTelemetry
	otelCfg := telemetry.LoadConfig()
	provider, err := telemetry.InitProvider(ctx, otelCfg)
	if err != nil {
		log.Printf("Warning: OpenTelemetry initialization failed: %v", err)
	}
	if provider != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			provider.Shutdown(shutdownCtx)
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

	registry, err := loadRegistry()
	if err != nil {
		log.Fatalf("Failed to load intake source registry: %v", err)
	}
	log.Printf("Intake sources enabled: %v", registry.Sources())

	orderService := order.NewService(registry, storage.NewPG(database), publisher, publisher)
	if metrics != nil {
		orderService.WithMetrics(metrics)
	}
	orderHandler := order.NewHandler(orderService)

	router := apphttp.SetupRouter(orderHandler)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      apphttp.CORSMiddleware(router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("careplan-service API listening on :%s", port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}

// loadRegistry builds the intake source registry, from SOURCE_REGISTRY_FILE
// when set or with every adapter enabled otherwise.
func loadRegistry() (*intake.Registry, error) {
	if path := os.Getenv("SOURCE_REGISTRY_FILE"); path != "" {
		return intake.LoadRegistryFile(path)
	}
	return intake.DefaultRegistry(), nil
}
