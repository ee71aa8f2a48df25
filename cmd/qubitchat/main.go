package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kailas-cloud/qubitchat/internal/config"
	dbRedis "github.com/kailas-cloud/qubitchat/internal/db/redis"
	"github.com/kailas-cloud/qubitchat/internal/domain"
	logpkg "github.com/kailas-cloud/qubitchat/internal/logger"
	"github.com/kailas-cloud/qubitchat/internal/metrics"
	"github.com/kailas-cloud/qubitchat/internal/quantum/grover"
	"github.com/kailas-cloud/qubitchat/internal/quantum/statevector"
	budgetrepo "github.com/kailas-cloud/qubitchat/internal/repository/budget"
	documentrepo "github.com/kailas-cloud/qubitchat/internal/repository/document"
	"github.com/kailas-cloud/qubitchat/internal/repository/embcache"
	"github.com/kailas-cloud/qubitchat/internal/repository/history"
	chiTransport "github.com/kailas-cloud/qubitchat/internal/transport/chi"
	openaiTransport "github.com/kailas-cloud/qubitchat/internal/transport/openai"
	chatuc "github.com/kailas-cloud/qubitchat/internal/usecase/chat"
	documentuc "github.com/kailas-cloud/qubitchat/internal/usecase/document"
	embeddinguc "github.com/kailas-cloud/qubitchat/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/qubitchat/internal/usecase/health"
	quantumuc "github.com/kailas-cloud/qubitchat/internal/usecase/quantum"
	searchuc "github.com/kailas-cloud/qubitchat/internal/usecase/search"
	usageuc "github.com/kailas-cloud/qubitchat/internal/usecase/usage"
	"github.com/kailas-cloud/qubitchat/internal/version"
)

func main() {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting qubitchat API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterQuantumMetrics()
	metrics.RegisterChatMetrics()

	// Single BudgetTracker shared by the embedder chain and the usage service.
	var budget *embeddinguc.BudgetTracker
	budgetCfg := cfg.Embedding.Budget
	if budgetCfg.DailyTokenLimit > 0 || budgetCfg.MonthlyTokenLimit > 0 {
		action := embeddinguc.BudgetActionWarn
		if budgetCfg.Action == "reject" {
			action = embeddinguc.BudgetActionReject
		}
		budget = embeddinguc.NewBudgetTracker(
			cfg.Embedding.Provider, budgetCfg.DailyTokenLimit, budgetCfg.MonthlyTokenLimit, action, logger,
		)
		budget.WithStore(ctx, budgetrepo.New(store, 0, 0))
	}

	// Pass nil interface (not typed nil pointer!) if budget is not configured.
	var budgetChecker embeddinguc.BudgetChecker
	if budget != nil {
		budgetChecker = budget
	}

	base := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})
	docEmbedder := buildEmbedder(cfg, base, store, budgetChecker, logger)
	var queryEmbedder domain.Embedder = docEmbedder
	if cfg.Embedding.QueryInstruction != "" {
		queryEmbedder = domain.NewInstructionEmbedder(docEmbedder, cfg.Embedding.QueryInstruction)
	}
	logger.Info("Embedders created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	// Quantum core: simulator -> Grover runner -> ranking service.
	sim := statevector.New(cfg.Quantum.MaxQubits, uint64(cfg.Quantum.Seed)) //nolint:gosec // seed is a config value
	runner := grover.NewRunner(sim, grover.Config{
		MaxQubits:     cfg.Quantum.MaxQubits,
		Shots:         cfg.Quantum.Shots,
		MinIterations: cfg.Quantum.MinIterations,
		MaxIterations: cfg.Quantum.MaxIterations,
		MaxConcurrent: cfg.Quantum.MaxConcurrentSimulations,
		Timeout:       time.Duration(cfg.Quantum.SimulationTimeoutSec) * time.Second,
	})
	quantumSvc := quantumuc.New(runner, quantumuc.Config{
		Threshold:   cfg.Search.SimilarityThreshold,
		TopK:        cfg.Search.DefaultTopK,
		BoostFactor: cfg.Quantum.BoostFactor,
		Simulator:   sim.Name(),
	}, logger)

	docRepo := documentrepo.New(store)

	chunker, err := documentuc.NewChunker(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)
	if err != nil {
		logger.Fatal("Invalid chunker settings", zap.Error(err))
	}
	docSvc := documentuc.New(docRepo, docEmbedder, chunker).
		WithMaxTextBytes(cfg.Ingest.MaxTextBytes).
		WithDimensions(cfg.Embedding.Dimensions)
	searchSvc := searchuc.New(docRepo, queryEmbedder, quantumSvc, searchuc.Settings{
		Provider:     cfg.Embedding.Provider,
		Model:        cfg.Embedding.Model,
		ChunkSize:    cfg.Ingest.ChunkSize,
		ChunkOverlap: cfg.Ingest.ChunkOverlap,
		Threshold:    cfg.Search.SimilarityThreshold,
	})

	healthSvc := healthuc.New(store).WithEmbedding(base)

	// Chat is optional: without an API key the endpoints answer 503.
	var (
		completer domain.ChatCompleter
		turns     chatuc.History
	)
	if cfg.Chat.APIKey != "" {
		chatClient := openaiTransport.NewChatCompleter(&openaiTransport.ChatConfig{
			APIKey:  cfg.Chat.APIKey,
			BaseURL: cfg.Chat.BaseURL,
			Model:   cfg.Chat.Model,
			Logger:  logger,
		})
		completer = chatClient
		healthSvc.WithChat(chatClient)

		historyStore, err := history.Open(ctx, cfg.Chat.HistoryDSN)
		if err != nil {
			logger.Fatal("Failed to open chat history", zap.Error(err))
		}
		defer func() { _ = historyStore.Close() }()
		turns = historyStore
		healthSvc.WithHistory(historyStore)
		logger.Info("Chat enabled", zap.String("model", cfg.Chat.Model))
	} else {
		logger.Warn("Chat API key not configured, chat endpoints are disabled")
	}
	chatSvc := chatuc.New(docRepo, queryEmbedder, quantumSvc, completer, turns, chatuc.Config{
		Model:             cfg.Chat.Model,
		Temperature:       cfg.Chat.Temperature,
		MaxTokens:         cfg.Chat.MaxTokens,
		HistoryWindow:     cfg.Chat.HistoryWindow,
		ContextThreshold:  cfg.Chat.ContextThreshold,
		MaxContextResults: cfg.Chat.MaxContextResults,
	})

	// Usage service reads from the shared BudgetTracker.
	var budgetReader usageuc.BudgetReader
	if budget != nil {
		budgetReader = budget
	}
	usageSvc := usageuc.New(budgetReader)

	server := chiTransport.NewServer(docSvc, searchSvc, chatSvc, usageSvc, healthSvc, logger).
		WithMaxBodyBytes(int64(cfg.Ingest.MaxTextBytes) + chiTransport.DefaultMaxBodyBytes).
		WithTopK(cfg.Search.DefaultTopK, cfg.Search.MaxTopK).
		WithVersion(version.Version)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           server.Router(chiTransport.RouterConfig{APIKeys: cfg.Auth.APIKeys}),
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented.
func buildEmbedder(
	cfg config.Config,
	base *openaiTransport.Embedder,
	store *dbRedis.Store,
	budget embeddinguc.BudgetChecker,
	logger *zap.Logger,
) *embeddinguc.InstrumentedEmbedder {
	cached := embcache.New(
		base, store, cfg.Embedding.Model,
		time.Duration(cfg.Embedding.CacheTTLSec)*time.Second,
		metrics.EmbeddingCacheTotal, logger,
	)
	return embeddinguc.NewInstrumentedEmbedder(
		cached, cfg.Embedding.Provider, cfg.Embedding.Model, budget, logger,
	).WithMaxBatchSize(cfg.Ingest.MaxBatchSize)
}
