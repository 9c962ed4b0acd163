package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/kafka-go"

	"example.com/recipes/internal/catalog"
	"example.com/recipes/internal/config"
	"example.com/recipes/internal/consumer"
	"example.com/recipes/internal/engine"
	"example.com/recipes/internal/enrichment"
	persistence "example.com/recipes/internal/persistence/postgres"
	"example.com/recipes/internal/publisher"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	if err := persistence.Migrate(ctx, pool); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	repo := persistence.NewRepository(pool)
	recorder := persistence.NewStatsRecorder(repo)

	eng := engine.New(catalog.Default(), repo, recorder,
		engine.WithNearRadius(cfg.NearRadius),
		engine.WithWebhookClient(&http.Client{Timeout: cfg.WebhookTimeout}),
		engine.WithChecker("weather", enrichment.NewWeatherClient(cfg.WeatherBaseURL).Checker()),
		engine.WithChecker("garmin", enrichment.NewGarminClient(cfg.GarminBaseURL).Checker()),
		engine.WithChecker("music", enrichment.NewMusicClient(cfg.MusicBaseURL).Checker()),
		engine.WithChecker(catalog.PropertyCity, enrichment.NewGeocodeClient(cfg.GeocodeBaseURL).Checker()),
	)

	results := publisher.New(cfg.KafkaBrokers, cfg.ResultTopic)
	defer results.Close()

	handler := consumer.NewEvaluationHandler(eng, repo, results)

	metricsSrv := &http.Server{Addr: cfg.MetricsAddress, Handler: promhttp.Handler()}

	go func() {
		log.Printf("consumer metrics listening on %s", cfg.MetricsAddress)
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server error: %v", err)
		}
	}()

	var wg sync.WaitGroup
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	for _, topic := range cfg.ConsumerTopics {
		reader := kafka.NewReader(kafka.ReaderConfig{
			Brokers:         cfg.KafkaBrokers,
			GroupID:         cfg.ConsumerGroupID,
			Topic:           topic,
			MinBytes:        1e3,
			MaxBytes:        10e6,
			CommitInterval:  time.Second,
			RetentionTime:   24 * time.Hour,
			ReadLagInterval: -1,
		})

		proc := consumer.NewProcessor(reader, handler)

		wg.Add(1)
		go func(topic string, r *kafka.Reader) {
			defer wg.Done()
			defer r.Close()

			log.Printf("consumer started (topic=%s, group=%s)", topic, cfg.ConsumerGroupID)
			if err := proc.Run(ctx); err != nil && err != context.Canceled {
				log.Printf("consumer stopped with error (topic=%s): %v", topic, err)
			}
		}(topic, reader)
	}

	<-stop
	log.Println("consumer shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("metrics server shutdown error: %v", err)
	}

	wg.Wait()
}
