package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"example.com/recipes/internal/api"
	"example.com/recipes/internal/auth"
	"example.com/recipes/internal/catalog"
	"example.com/recipes/internal/config"
	"example.com/recipes/internal/engine"
	"example.com/recipes/internal/enrichment"
	persistence "example.com/recipes/internal/persistence/postgres"
	"example.com/recipes/internal/recipe"
	httptransport "example.com/recipes/internal/transport/http"
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

	cat := catalog.Default()
	service := recipe.NewService(repo, cat, recorder)

	eng := engine.New(cat, repo, recorder,
		engine.WithNearRadius(cfg.NearRadius),
		engine.WithWebhookClient(&http.Client{Timeout: cfg.WebhookTimeout}),
		engine.WithChecker("weather", enrichment.NewWeatherClient(cfg.WeatherBaseURL).Checker()),
		engine.WithChecker("garmin", enrichment.NewGarminClient(cfg.GarminBaseURL).Checker()),
		engine.WithChecker("music", enrichment.NewMusicClient(cfg.MusicBaseURL).Checker()),
		engine.WithChecker(catalog.PropertyCity, enrichment.NewGeocodeClient(cfg.GeocodeBaseURL).Checker()),
	)

	handler := api.NewHandler(service, eng)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	// Simple CORS middleware for local dev
	cors := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "http://localhost:5173")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}

	// Basic request logger
	logger := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Printf("%s %s", r.Method, r.URL.Path)
			next.ServeHTTP(w, r)
		})
	}

	authMiddleware := auth.NewMiddleware(auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer})

	server := httptransport.NewServer(httptransport.ServerConfig{
		Address:      cfg.HTTPAddress,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}, authMiddleware.Wrap(logger(cors(mux))))

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("recipe-service listening on %s", cfg.HTTPAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-shutdownCh
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}
