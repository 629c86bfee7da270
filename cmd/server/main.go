package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"devassist.app/engine/common/id"
	"devassist.app/engine/common/logger"
	"devassist.app/engine/common/otel"
	"devassist.app/engine/core/config"
	"devassist.app/engine/core/db"
	"devassist.app/engine/internal/audit"
	"devassist.app/engine/internal/cache"
	"devassist.app/engine/internal/contexttrack"
	"devassist.app/engine/internal/controller"
	"devassist.app/engine/internal/engine"
	"devassist.app/engine/internal/generator"
	"devassist.app/engine/internal/http/handler"
	"devassist.app/engine/internal/http/middleware"
	httprouter "devassist.app/engine/internal/http/router"
	"devassist.app/engine/internal/queue"
	"devassist.app/engine/internal/ranker"
	"devassist.app/engine/internal/store"
	"devassist.app/engine/internal/validator"
	"devassist.app/engine/internal/worker"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeServer)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		// Can't use slog yet — OTel failed before logger setup
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "suggestion engine starting", "env", cfg.Env, "service", cfg.OTel.ServiceName)
	if err := id.Init(cfg.NodeID); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.InfoContext(ctx, "database connected")

	redisOpts, err := redis.ParseURL(cfg.Feedback.RedisURL)
	if err != nil {
		slog.ErrorContext(ctx, "failed to parse redis url", "error", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
		os.Exit(1)
	}
	slog.InfoContext(ctx, "redis connected", "stream", cfg.Feedback.Stream)

	producer := queue.NewRedisProducer(redisClient, cfg.Feedback.Stream, slog.Default())
	defer producer.Close()

	stores := store.NewStores(database)
	auditSink := audit.NewSlogSink()

	qualityController := controller.New(controller.Config{
		WindowSize:       cfg.Controller.WindowSize,
		MinSamples:       cfg.Controller.MinSamples,
		DropThreshold:    cfg.Controller.DropThreshold,
		RecoverThreshold: cfg.Controller.RecoverThreshold,
		Cooldown:         cfg.Controller.Cooldown,
		RecoverySustain:  cfg.Controller.RecoverySustain,
		LatencySLA:       cfg.Controller.LatencySLA,
		EvalInterval:     cfg.Controller.EvalInterval,
	}, auditSink)

	eng, err := buildEngine(cfg, qualityController, stores, producer, auditSink)
	if err != nil {
		slog.ErrorContext(ctx, "failed to build engine", "error", err)
		os.Exit(1)
	}

	// The controller re-evaluates on a wall clock so recovery can happen
	// without traffic.
	controllerCtx, stopController := context.WithCancel(ctx)
	go qualityController.Run(controllerCtx)

	// Feedback flows back into the controller through its own consumer group.
	applierConsumer, err := queue.NewRedisConsumer(redisClient, queue.ConsumerConfig{
		Stream:    cfg.Feedback.Stream,
		Group:     cfg.Feedback.ServerGroup,
		Consumer:  cfg.Feedback.Consumer,
		DLQStream: cfg.Feedback.DLQStream,
		BatchSize: 32,
		Block:     cfg.Feedback.ReadBlock,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create applier consumer", "error", err)
		os.Exit(1)
	}
	applier := worker.NewApplier(applierConsumer, qualityController)
	go func() {
		if err := applier.Run(controllerCtx); err != nil && err != context.Canceled {
			slog.ErrorContext(ctx, "feedback applier stopped", "error", err)
		}
	}()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(cfg, eng, stores)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	applier.Stop()
	stopController()

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

func buildEngine(cfg config.Config, qualityController *controller.Controller, stores *store.Stores, producer queue.Producer, auditSink audit.Sink) (*engine.Engine, error) {
	suggestionCache, err := cache.New(cache.Config{
		Capacity: cfg.Cache.Capacity,
		BaseTTL:  cfg.Cache.BaseTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating cache: %w", err)
	}

	capabilities := []generator.Capability{generator.NewHeuristicCapability()}
	if cfg.LLM.Enabled() {
		llm, err := generator.NewLLMCapability(generator.LLMConfig{
			APIKey:    cfg.LLM.APIKey,
			BaseURL:   cfg.LLM.BaseURL,
			Model:     cfg.LLM.Model,
			MaxTokens: cfg.LLM.MaxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("creating llm capability: %w", err)
		}
		capabilities = append(capabilities, llm)
	}

	return engine.New(engine.Config{
		Deadline:               cfg.Pipeline.Deadline,
		TopK:                   cfg.Pipeline.TopK,
		ProviderTimeout:        cfg.Pipeline.ProviderTimeout,
		StandardsCacheTTL:      cfg.Pipeline.StandardsCacheTTL,
		MinimalServesCacheOnly: cfg.Pipeline.MinimalCacheOnly,
	}, engine.Deps{
		Tracker:    contexttrack.New(contexttrack.Config{}),
		Cache:      suggestionCache,
		Gateway:    generator.NewGateway(capabilities, auditSink),
		Validator:  validator.New(),
		Ranker:     ranker.New(cfg.Pipeline.TopK),
		Controller: qualityController,
		Skills:     stores.Developers(),
		Standards:  stores.Standards(),
		Publisher:  producer,
		Audit:      auditSink,
	}), nil
}

func setupRouter(cfg config.Config, eng handler.SuggestionEngine, stores *store.Stores) *gin.Engine {
	router := gin.New()

	// Order matters: OTel creates span → Recovery catches panics → Logger logs with trace context
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	httprouter.SetupRoutes(router, eng,
		handler.NewDeveloperHandler(stores.Developers(), stores.Feedback()),
		handler.NewStandardsHandler(stores.Standards()))

	return router
}

const banner = `
███████╗███╗   ██╗ ██████╗ ██╗███╗   ██╗███████╗
██╔════╝████╗  ██║██╔════╝ ██║████╗  ██║██╔════╝
█████╗  ██╔██╗ ██║██║  ███╗██║██╔██╗ ██║█████╗
██╔══╝  ██║╚██╗██║██║   ██║██║██║╚██╗██║██╔══╝
███████╗██║ ╚████║╚██████╔╝██║██║ ╚████║███████╗
╚══════╝╚═╝  ╚═══╝ ╚═════╝ ╚═╝╚═╝  ╚═══╝╚══════╝
`
