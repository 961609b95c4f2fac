package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/viabilidade/backend/internal/catalog"
	"github.com/viabilidade/backend/internal/config"
	"github.com/viabilidade/backend/internal/handler"
	"github.com/viabilidade/backend/internal/logging"
	"github.com/viabilidade/backend/internal/repository"
	"github.com/viabilidade/backend/internal/service"
	"github.com/viabilidade/backend/internal/session"
	"github.com/viabilidade/backend/internal/storage"
	"github.com/viabilidade/backend/pkg/gemini"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Setup("")
		logging.Fatal("invalid configuration", "error", err)
	}
	logging.Setup(cfg.LogLevel)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		logging.Fatal("failed to load catalog", "path", cfg.CatalogPath, "error", err)
	}

	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logging.Fatal("failed to connect to database", "error", err)
	}
	defer pool.Close()

	store := newSessionStore(ctx, cfg)

	// Gemini 設定（未設定の場合は分析機能を無効化）
	var analysisClient gemini.Client
	if cfg.GeminiAPIKey != "" {
		c, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logging.Fatal("failed to create gemini client", "error", err)
		}
		analysisClient = c
		slog.Info("analysis enabled", "model", c.Model())
	} else {
		slog.Warn("GEMINI_API_KEY not set, analysis disabled")
	}

	reportStorage := storage.NewLocalStorage(cfg.ReportDir, "/reports")

	projectRepo := repository.NewPgProjectRepository(pool)
	historyRepo := repository.NewPgHistoryRepository(pool)
	projectService := service.NewProjectService(projectRepo, cat)
	historyService := service.NewHistoryService(historyRepo)
	allocationService := service.NewAllocationService(store, projectRepo, historyService, cat)
	analysisService := service.NewAnalysisService(analysisClient)
	reportService := service.NewReportService(reportStorage)

	h := handler.New(pool, cfg.FrontendURL)
	mux := http.NewServeMux()
	handler.Routes(mux,
		h,
		handler.NewCatalogHandler(cat),
		handler.NewProjectHandler(projectService, analysisService, reportService),
		handler.NewSessionHandler(allocationService, analysisService, reportService),
		handler.NewHistoryHandler(historyService),
	)
	// 保存済みレポートの静的配信
	mux.Handle("GET /reports/", http.StripPrefix("/reports/", http.FileServer(http.Dir(reportStorage.BaseDir()))))

	limiter := handler.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	limiter.StartJanitor(ctx, 2*time.Minute)

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler.RequestLogger(handler.SecurityHeaders(limiter.Middleware(h.CORS(mux)))),
		ReadTimeout:  10 * time.Second,
		// AI 分析の生成待ちを含む
		WriteTimeout: 90 * time.Second,
	}

	go func() {
		slog.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

// newSessionStore は REDIS_URL があれば Redis、なければメモリのセッションストアを返す
func newSessionStore(ctx context.Context, cfg *config.Config) session.Store {
	if cfg.RedisURL == "" {
		mem := session.NewMemoryStore(session.WithMemoryTTL(cfg.SessionTTL))
		mem.StartJanitor(ctx, time.Minute)
		slog.Info("sessions kept in memory", "ttl", cfg.SessionTTL)
		return mem
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logging.Fatal("invalid REDIS_URL", "error", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		logging.Fatal("failed to connect to redis", "error", err)
	}
	slog.Info("sessions kept in redis", "addr", opts.Addr, "ttl", cfg.SessionTTL)
	return session.NewRedisStore(rdb, session.WithTTL(cfg.SessionTTL))
}
