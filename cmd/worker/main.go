package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nmehta6/aqi-server/internal/aggregation"
	"github.com/nmehta6/aqi-server/internal/database"
	"github.com/nmehta6/aqi-server/internal/queue"
	"github.com/nmehta6/aqi-server/internal/schedule"
	"github.com/nmehta6/aqi-server/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	fmt.Println("Starting AQI Worker...")

	// Connect to database
	db, err := database.Connect(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	fmt.Println("Connected to database")

	// Run migrations
	if err := db.RunMigrations("migrations"); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Consume served readings and batch-write them
	consumer := queue.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicReadings, cfg.Kafka.ConsumerGroup)
	defer consumer.Close()

	batchWriter := queue.NewBatchWriter(consumer, db, cfg.Worker.BatchSize, cfg.Worker.FlushInterval)
	if err := batchWriter.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start batch writer: %v", err)
	}
	defer batchWriter.Stop()
	fmt.Println("Batch writer started")

	// Schedule the daily rollup
	scheduler := schedule.NewScheduler()
	scheduler.Start()
	defer scheduler.Stop()

	dailyAgg := aggregation.NewDailyAggregator(db)
	scheduleDailyRollup(scheduler, dailyAgg, cfg.Aggregation.DailyTime)

	// Print consumer statistics periodically
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			stats := consumer.Stats()
			fmt.Printf("Consumer stats: topic=%s lag=%d messages=%d errors=%d\n",
				stats.Topic, stats.Lag, stats.Messages, stats.Errors)
		}
	}()

	fmt.Println("\n✓ AQI Worker is running")
	fmt.Println("✓ Press Ctrl+C to stop")

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	fmt.Println("\nShutting down gracefully...")
}

func scheduleDailyRollup(s *schedule.Scheduler, agg *aggregation.DailyAggregator, timeOfDay string) {
	jobID := "daily-rollup"

	var scheduleNext func()
	scheduleNext = func() {
		nextRun, err := agg.CalculateNextRunTime(timeOfDay)
		if err != nil {
			log.Fatalf("Failed to calculate daily rollup time: %v", err)
		}
		fmt.Printf("Next daily rollup scheduled for: %s\n", nextRun.Format("2006-01-02 15:04:05"))

		callback := func() {
			if err := agg.AggregatePreviousDay(); err != nil {
				log.Printf("Daily rollup failed: %v", err)
			}

			// Schedule next run
			scheduleNext()
		}

		if err := s.Schedule(jobID, nextRun, callback); err != nil {
			log.Printf("Failed to schedule daily rollup: %v", err)
		}
	}

	scheduleNext()
}
