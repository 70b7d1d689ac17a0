package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/redis/go-redis/v9"

	"github.com/nmehta6/aqi-server/internal/cache"
	"github.com/nmehta6/aqi-server/internal/database"
	"github.com/nmehta6/aqi-server/internal/geocode"
	"github.com/nmehta6/aqi-server/internal/httpapi"
	"github.com/nmehta6/aqi-server/internal/observability"
	"github.com/nmehta6/aqi-server/internal/pollution"
	"github.com/nmehta6/aqi-server/internal/queue"
	"github.com/nmehta6/aqi-server/internal/refresh"
	"github.com/nmehta6/aqi-server/internal/schedule"
	"github.com/nmehta6/aqi-server/internal/state"
	"github.com/nmehta6/aqi-server/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	fmt.Println("Starting AQI Server...")

	// Connect to database (backs the history endpoint)
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

	// Connect to Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	fmt.Println("Connected to Redis")

	// Create Kafka topic for served readings
	if err := queue.CreateTopic(
		cfg.Kafka.Brokers,
		cfg.Kafka.TopicReadings,
		cfg.Kafka.NumPartitions,
		1, // replication factor
	); err != nil {
		fmt.Printf("Note: Topic creation failed (may already exist): %v\n", err)
	}

	producer := queue.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicReadings)
	defer producer.Close()
	fmt.Println("Kafka producer initialized")

	// Upstream API clients
	geocoder := geocode.NewClient(cfg.OpenWeather.GeocodeURL, cfg.OpenWeather.APIKey, cfg.OpenWeather.Timeout)
	pollutionClient := pollution.NewClient(cfg.OpenWeather.PollutionURL, cfg.OpenWeather.APIKey, cfg.OpenWeather.Timeout)

	readingCache := cache.New(redisClient)
	states := state.NewContainer()
	metrics := observability.NewMetrics()

	// Keep the per-city AQI gauge in step with served lookups
	states.Subscribe(func(change state.Change) {
		metrics.SetCurrentAQI(change.New.CityName, float64(change.New.Result.AQI))
	})

	// Keep recently queried cities fresh between user lookups
	scheduler := schedule.NewScheduler()
	scheduler.Start()
	defer scheduler.Stop()

	refresher := refresh.New(scheduler, states, pollutionClient, readingCache,
		cfg.Cache.RefreshInterval, cfg.Cache.ReadingTTL)
	refresher.Start()
	fmt.Printf("Reading refresher started (every %s)\n", cfg.Cache.RefreshInterval)

	apiServer := httpapi.NewServer(
		geocoder,
		pollutionClient,
		readingCache,
		producer,
		db,
		states,
		metrics,
		cfg.Cache.ReadingTTL,
		cfg.OpenWeather.GeocodeLimit,
	)

	handler := handlers.CORS(
		handlers.AllowedMethods([]string{http.MethodGet}),
		handlers.AllowedOrigins([]string{"*"}),
	)(handlers.CombinedLoggingHandler(os.Stdout, apiServer.Routes()))

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	fmt.Println("\n✓ AQI Server is running")
	fmt.Printf("✓ HTTP API listening on port %d\n", cfg.HTTP.Port)
	fmt.Println("✓ Press Ctrl+C to stop")

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	fmt.Println("\nShutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}
}
