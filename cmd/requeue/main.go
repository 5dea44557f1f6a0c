package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/pharmetrix/careplan-service/internal/db"
	"github.com/pharmetrix/careplan-service/internal/messaging"
	"github.com/pharmetrix/careplan-service/internal/order"
)

// defaultMaxAge is how long an order may sit in processing before it is
// considered abandoned by a crashed worker.
const defaultMaxAge = 30 * time.Minute

func main() {
	log.Println("Stuck Order Requeue Job - Starting")

	maxAge := defaultMaxAge
	if v := os.Getenv("STUCK_ORDER_MAX_AGE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			log.Fatalf("Invalid STUCK_ORDER_MAX_AGE: %v", err)
		}
		maxAge = d
	}
	log.Printf("Releasing orders stuck in processing for more than %s", maxAge)

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

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	repo := order.NewRepository(database)
	ids, err := repo.ReleaseStuck(ctx, maxAge)
	if err != nil {
		log.Fatalf("Failed to release stuck orders: %v", err)
	}

	if len(ids) == 0 {
		log.Println("No stuck orders found. Exiting.")
		return
	}

	requeued := 0
	for _, id := range ids {
		if err := publisher.EnqueueGeneration(ctx, id); err != nil {
			log.Printf("Failed to re-enqueue order %s: %v", id, err)
			continue
		}
		requeued++
	}

	log.Printf("Requeue completed: %d released, %d re-enqueued", len(ids), requeued)
}
