// Package app wires configuration, adapters and the ingestion pipeline
// into a runnable service.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"LinkAnalyzer/internal/config"
	"LinkAnalyzer/internal/domain"
	"LinkAnalyzer/internal/infrastructure/bridge"
	"LinkAnalyzer/internal/infrastructure/ollama"
	"LinkAnalyzer/internal/infrastructure/scraper"
	"LinkAnalyzer/internal/infrastructure/social"
	"LinkAnalyzer/internal/infrastructure/storage"
	"LinkAnalyzer/internal/logging"
	"LinkAnalyzer/internal/queue"
	"LinkAnalyzer/internal/urldetect"
	"LinkAnalyzer/internal/usecase"
)

// taskDelay spaces out queue items so consecutive scrapes never overlap
// with target-site rate limits.
const taskDelay = 2 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	pipeline *usecase.Pipeline
	queue    *queue.Queue
	bridge   *bridge.Bridge
	closeDB  func() error
}

// New builds the full adapter graph and verifies external services.
// Database and model failures are fatal; social mirror outages are not.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	db, err := storage.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	repo := storage.NewPostgresRepository(db)
	if err := repo.Ping(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if err := storage.EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	baseLogger.Info("database ready", "host", cfg.Database.Host, "name", cfg.Database.Name)

	analyzer := ollama.NewClient(cfg.Ollama)
	if err := analyzer.CheckModel(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ollama model check: %w", err)
	}
	baseLogger.Info("inference model available", "model", cfg.Ollama.Model)

	socialScraper := social.NewScraper(nil, cfg.Social.Mirrors, baseLogger)
	if mirror, ok := socialScraper.CheckAvailability(ctx); ok {
		baseLogger.Info("social mirror reachable", "mirror", mirror)
	} else {
		baseLogger.Warn("no social mirrors reachable, tweets will use the generic extractor")
	}

	extractor := scraper.NewExtractor(cfg.Scraper.Timeout(), baseLogger)

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Repository: repo,
		Scraper:    extractor,
		Social:     socialScraper,
		Analyzer:   analyzer,
		Logger:     baseLogger,
		MaxRetries: cfg.Pipeline.MaxRetries,
	})

	chatBridge := bridge.New(cfg.Bridge.ListenAddr, cfg.Bridge.SendURL, baseLogger)

	a := &Application{
		cfg:      cfg,
		logger:   baseLogger.With("component", "app"),
		pipeline: pipeline,
		bridge:   chatBridge,
		closeDB:  db.Close,
	}
	a.queue = queue.New(a.handleTask, taskDelay, baseLogger)

	return a, nil
}

// Run serves the chat bridge and consumes inbound messages until the
// context is canceled.
func (a *Application) Run(ctx context.Context) error {
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- a.bridge.Start()
	}()

	a.logger.Info("link analyzer running")

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := a.bridge.Shutdown(shutdownCtx); err != nil {
				a.logger.Error("bridge shutdown", "error", err)
			}
			a.queue.Wait()
			if err := a.closeDB(); err != nil {
				a.logger.Error("close database", "error", err)
			}
			return ctx.Err()
		case err := <-serveErr:
			return err
		case msg, ok := <-a.bridge.Messages():
			if !ok {
				return nil
			}
			a.handleMessage(ctx, msg)
		}
	}
}

// handleMessage extracts URLs from one chat message and enqueues a task
// per URL. Messages without URLs are ignored.
func (a *Application) handleMessage(ctx context.Context, msg domain.InboundMessage) {
	urls := urldetect.ExtractURLs(msg.Text)
	if len(urls) == 0 {
		return
	}

	a.logger.Info("urls detected", "count", len(urls), "chat_id", msg.ChatID)

	if a.cfg.Notifications.SendConfirmations {
		text := fmt.Sprintf("🤖 Detecté %d URL(s). Procesando...", len(urls))
		if err := a.bridge.Send(ctx, msg.ChatID, text); err != nil {
			a.logger.Warn("confirmation send failed", "error", err)
		}
	}

	for _, u := range urls {
		a.queue.Enqueue(ctx, domain.LinkTask{
			URL:      u,
			Platform: urldetect.DetectPlatform(u),
			SenderID: msg.SenderID,
			ChatID:   msg.ChatID,
		})
	}
}

// handleTask is the queue worker: it runs the pipeline for one URL and
// reports the outcome back to the chat when enabled.
func (a *Application) handleTask(ctx context.Context, task domain.LinkTask) error {
	analysis, err := a.pipeline.ProcessURL(ctx, task)
	if err != nil {
		if errors.Is(err, usecase.ErrAlreadyProcessed) {
			return nil
		}
		if a.cfg.Notifications.SendErrors && task.ChatID != "" {
			text := fmt.Sprintf("❌ No pude procesar %s", task.URL)
			if sendErr := a.bridge.Send(ctx, task.ChatID, text); sendErr != nil {
				a.logger.Warn("error notification failed", "error", sendErr)
			}
		}
		return err
	}

	if a.cfg.Notifications.SendResults && task.ChatID != "" {
		text := fmt.Sprintf("✅ Analizado: %s\n📊 Relevancia: %d/5\n🏷️ %s · %s\n📝 %s",
			task.URL,
			analysis.Relevancia,
			analysis.Categoria,
			analysis.TipoContenido,
			analysis.ResumenEjecutivo,
		)
		if sendErr := a.bridge.Send(ctx, task.ChatID, text); sendErr != nil {
			a.logger.Warn("result notification failed", "error", sendErr)
		}
	}

	return nil
}
