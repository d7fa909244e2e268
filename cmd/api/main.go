package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"payment-offers-api/internal/cache"
	"payment-offers-api/internal/config"
	"payment-offers-api/internal/events"
	"payment-offers-api/internal/extract"
	"payment-offers-api/internal/features"
	"payment-offers-api/internal/handler"
	"payment-offers-api/internal/middleware"
	"payment-offers-api/internal/service"
	"payment-offers-api/internal/store"
	"payment-offers-api/internal/tracing"
)

func main() {
	configFile := flag.String("config", "", "Path to JSON config file")
	port := flag.String("port", "", "Server port (overrides config)")
	dbPath := flag.String("db", "", "SQLite database file path (overrides config)")
	strategy := flag.String("extractor", "", "Term extraction strategy: regex or llm (overrides config)")
	flag.Parse()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.Store.Driver = "sqlite"
		cfg.Store.SQLitePath = *dbPath
	}
	if *strategy != "" {
		cfg.Extractor.Strategy = *strategy
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Initialize tracing
	if _, err := tracing.InitTracing(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.JaegerEndpoint,
		ServiceName: "payment-offers-api",
		Environment: cfg.Tracing.Environment,
	}); err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracing.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracing: %v", err)
		}
	}()

	// Initialize offer store
	st, err := newStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize offer store: %v", err)
	}
	defer st.Close()

	// Initialize feature flags
	flags := features.NewManager()
	flags.Register(features.FeatureCacheEnabled, cfg.Cache.Enabled, "discount result cache")
	flags.Register(features.FeatureEventHooksEnabled, cfg.Events.Enabled, "event-driven hooks")
	flags.Register(features.FeatureLLMExtraction, cfg.Extractor.Strategy == extract.StrategyLLM, "text-understanding term extraction")

	// Initialize term extractor. The extractor is constructed here and
	// injected into the pipeline; the pipeline never owns its lifecycle.
	extractor := newExtractor(cfg)

	// Initialize cache
	var resultCache cache.Cache
	if cfg.Cache.Enabled {
		resultCache, err = newCache(cfg)
		if err != nil {
			log.Fatalf("Failed to initialize cache: %v", err)
		}
	}

	// Initialize event manager
	eventManager := events.NewManager(cfg.Events.Enabled)
	defer eventManager.Shutdown()

	// Initialize service
	svc := service.NewServiceWithOptions(st, extractor, service.Options{
		Cache:    resultCache,
		CacheTTL: time.Duration(cfg.Cache.TTLSeconds) * time.Second,
		Events:   eventManager,
		Features: flags,
	})

	// Initialize handlers
	h := handler.NewHandlerWithOptions(svc, handler.NewHandlerOptions{
		MaxBodySize: cfg.Security.MaxRequestBodySize,
	})

	// Setup router
	r := chi.NewRouter()

	// Middleware (order matters)
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)

	if cfg.RateLimit.Enabled {
		rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.Rate, time.Duration(cfg.RateLimit.Window)*time.Second)
		defer rateLimiter.Stop()
		r.Use(middleware.RateLimitMiddleware(rateLimiter))
	}

	if cfg.Tracing.Enabled {
		r.Use(middleware.TracingMiddleware())
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   strings.Split(cfg.Security.AllowedOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Routes
	r.Post("/offer", h.SaveOffers)
	r.Get("/highest-discount", h.GetHighestDiscount)

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Starting server on %s", addr)
	log.Printf("Offer store: %s", cfg.Store.Driver)
	log.Printf("Extraction strategy: %s", cfg.Extractor.Strategy)

	server := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	// Graceful shutdown
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down server: %v", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server failed: %v", err)
	}
}

func newStore(cfg *config.Config) (store.OfferStore, error) {
	switch cfg.Store.Driver {
	case "mongo":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return store.NewMongoStore(ctx, cfg.Store.MongoURI, cfg.Store.MongoDatabase, cfg.Store.MongoCollection)
	default:
		return store.NewSQLiteStore(cfg.Store.SQLitePath)
	}
}

func newExtractor(cfg *config.Config) extract.Extractor {
	if cfg.Extractor.Strategy == extract.StrategyLLM {
		return extract.NewLLMExtractor(
			cfg.Extractor.OpenAIKey,
			cfg.Extractor.OpenAIModel,
			time.Duration(cfg.Extractor.TimeoutSeconds)*time.Second,
		)
	}
	return extract.NewRegexExtractor(cfg.Extractor.CurrencySymbol)
}

func newCache(cfg *config.Config) (cache.Cache, error) {
	if cfg.Cache.Backend == "redis" {
		return cache.NewRedisCache(cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
	}
	return cache.NewInMemoryCache(), nil
}
