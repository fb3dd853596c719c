package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"sportswire/internal/cache"
	"sportswire/internal/config"
	"sportswire/internal/infrastructure/articles"
	"sportswire/internal/infrastructure/inference"
	"sportswire/internal/infrastructure/llm"
	"sportswire/internal/infrastructure/rss"
	"sportswire/internal/infrastructure/social"
	"sportswire/internal/infrastructure/storage"
	"sportswire/internal/infrastructure/telegram"
	"sportswire/internal/logging"
	"sportswire/internal/ports"
	"sportswire/internal/server"
	"sportswire/internal/source"
	"sportswire/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg    config.Config
	logger *slog.Logger
	db     *sql.DB
	repo   *storage.PostgresRepository
	store  *cache.Store
	server *http.Server
}

// New builds a runnable application instance from configuration.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	repo := storage.NewPostgresRepository(db)

	registry := source.NewRegistry()
	registry.Register("social", social.New)
	registry.Register("rss", rss.New)

	adapters, err := registry.Build(cfg.Sources, baseLogger)
	if err != nil {
		return nil, fmt.Errorf("build sources: %w", err)
	}

	ranker := llm.NewClient(cfg.LLM)
	stylizer := inference.NewClient(cfg.Inference)

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Ingester: usecase.NewIngester(adapters, repo, baseLogger.With("component", "ingest")),
		Ranker:   ranker,
		Stylizer: stylizer,
		Logger:   baseLogger.With("component", "pipeline"),
	})

	var notifier ports.Notifier
	if tg := cfg.Notifications.Telegram; tg.BotToken != "" && tg.ChatID != "" {
		notifier = telegram.NewNotifier(tg.BotToken, tg.ChatID)
	}

	store := cache.New(cfg.Cache.TTLDuration())
	coordinator := usecase.NewCoordinator(pipeline, store, notifier, baseLogger.With("component", "coordinator"))
	articleSvc := usecase.NewArticleService(
		articles.NewExtractor(nil), ranker, stylizer, repo,
		baseLogger.With("component", "articles"))

	srv := server.New(coordinator, articleSvc, repo, repo, server.NewSessions(),
		baseLogger.With("component", "http"))

	return &Application{
		cfg:    cfg,
		logger: baseLogger,
		db:     db,
		repo:   repo,
		store:  store,
		server: &http.Server{Addr: cfg.Server.Addr, Handler: srv.Router()},
	}, nil
}

// Run serves HTTP until ctx is canceled, then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	if err := a.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	if err := a.repo.EnsureSchema(ctx); err != nil {
		return err
	}

	a.store.StartSweeper(a.cfg.Cache.SweepDuration())
	defer a.store.StopSweeper()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	return a.db.Close()
}
