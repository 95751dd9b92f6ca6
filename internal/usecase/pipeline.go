// Package usecase orchestrates the link-ingestion workflow: dedup check,
// scraping with bounded retry, AI analysis and persistence.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"LinkAnalyzer/internal/domain"
	"LinkAnalyzer/internal/ports"
	"LinkAnalyzer/internal/urldetect"
)

// minContentLength is the threshold below which scraped text is treated
// as a failed extraction rather than analyzable content.
const minContentLength = 50

// batchPause spaces out batch items to avoid hammering target sites.
const batchPause = time.Second

// ErrAlreadyProcessed signals that a URL has a stored row and the whole
// pipeline was skipped for it.
var ErrAlreadyProcessed = errors.New("url already processed")

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Repository ports.LinkRepository
	Scraper    ports.Scraper
	Social     ports.SocialScraper
	Analyzer   ports.Analyzer
	Logger     *slog.Logger
	MaxRetries int
}

// Pipeline implements the link-ingestion workflow.
type Pipeline struct {
	repository ports.LinkRepository
	scraper    ports.Scraper
	social     ports.SocialScraper
	analyzer   ports.Analyzer
	logger     *slog.Logger
	maxRetries int

	sleep func(time.Duration)
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	retries := deps.MaxRetries
	if retries < 1 {
		retries = 2
	}
	return &Pipeline{
		repository: deps.Repository,
		scraper:    deps.Scraper,
		social:     deps.Social,
		analyzer:   deps.Analyzer,
		logger:     deps.Logger.With("component", "pipeline"),
		maxRetries: retries,
		sleep:      time.Sleep,
	}
}

// ProcessURL runs one URL through the full pipeline. A stored row short-
// circuits everything; failures are logged to the store before returning
// a stage-typed error.
func (p *Pipeline) ProcessURL(ctx context.Context, task domain.LinkTask) (*domain.Analysis, error) {
	log := p.logger.With("url", task.URL, "platform", string(task.Platform))

	exists, err := p.repository.Exists(ctx, task.URL)
	if err != nil {
		return nil, fmt.Errorf("check existing: %w", err)
	}
	if exists {
		log.Info("url already processed, skipping")
		return nil, ErrAlreadyProcessed
	}

	if !urldetect.IsScrapeable(task.URL) {
		log.Warn("url requires authentication, skipping scrape")
		p.logStoreError(ctx, task, "URL requiere autenticación")
		return nil, &ScrapeError{URL: task.URL, Err: errors.New("url requires authentication")}
	}

	result, err := p.scrapeWithRetry(ctx, task, log)
	if err != nil {
		p.logStoreError(ctx, task, fmt.Sprintf("scraping falló tras %d intentos: %v", p.maxRetries, err))
		return nil, &ScrapeError{URL: task.URL, Err: err}
	}

	content := strings.TrimSpace(result.Content)
	if len(content) < minContentLength {
		log.Warn("content too short to analyze", "length", len(content))
		p.logStoreError(ctx, task, "contenido insuficiente para análisis")
		return nil, &ScrapeError{URL: task.URL, Err: errors.New("content too short")}
	}

	analysis, err := p.analyzer.Analyze(ctx, content, task.URL, task.Platform)
	if err != nil {
		log.Error("analysis failed", "error", err)
		p.logStoreError(ctx, task, fmt.Sprintf("análisis falló: %v", err))
		return nil, &AnalysisError{URL: task.URL, Err: err}
	}

	rec := domain.LinkRecord{
		URL:                   task.URL,
		Platform:              task.Platform,
		Author:                result.Author,
		Title:                 result.Title,
		ResumenEjecutivo:      analysis.ResumenEjecutivo,
		TemasPrincipales:      analysis.TemasPrincipales,
		InsightsClave:         analysis.InsightsClave,
		Relevancia:            analysis.Relevancia,
		Categoria:             analysis.Categoria,
		TipoContenido:         analysis.TipoContenido,
		ContenidoCompleto:     content,
		Sender:                task.SenderID,
		ProcessingTimeSeconds: analysis.ProcessingTimeSeconds,
	}

	id, err := p.repository.Save(ctx, rec)
	if err != nil {
		log.Error("save failed", "error", err)
		p.logStoreError(ctx, task, fmt.Sprintf("persistencia falló: %v", err))
		return nil, &PersistError{URL: task.URL, Err: err}
	}

	log.Info("url processed",
		"id", id,
		"method", string(result.Method),
		"relevancia", analysis.Relevancia,
		"categoria", analysis.Categoria,
	)

	return analysis, nil
}

// scrapeWithRetry tries up to maxRetries attempts with linear backoff.
// Twitter URLs go through the social scraper first on every attempt; an
// empty social result falls through to the generic extractor within the
// same attempt.
func (p *Pipeline) scrapeWithRetry(ctx context.Context, task domain.LinkTask, log *slog.Logger) (*domain.ScrapeResult, error) {
	var lastErr error

	for attempt := 1; attempt <= p.maxRetries; attempt++ {
		if attempt > 1 {
			// Linear backoff keyed to the attempt that just failed: 2s, 4s, …
			backoff := time.Duration(attempt-1) * 2 * time.Second
			log.Info("retrying scrape", "attempt", attempt, "backoff", backoff)
			p.sleep(backoff)
		}

		result, err := p.scrapeOnce(ctx, task, log)
		if err != nil {
			lastErr = err
			continue
		}
		if result == nil || strings.TrimSpace(result.Content) == "" {
			lastErr = errors.New("empty scrape result")
			continue
		}
		return result, nil
	}

	if lastErr == nil {
		lastErr = errors.New("no scrape attempts made")
	}
	return nil, lastErr
}

func (p *Pipeline) scrapeOnce(ctx context.Context, task domain.LinkTask, log *slog.Logger) (*domain.ScrapeResult, error) {
	if task.Platform == domain.PlatformTwitter && p.social != nil {
		result, err := p.social.Scrape(ctx, task.URL)
		if err != nil {
			log.Warn("social scrape failed, falling back", "error", err)
		} else if result != nil && strings.TrimSpace(result.Content) != "" {
			return result, nil
		}
	}

	return p.scraper.Extract(ctx, task.URL, task.Platform)
}

// ProcessBatch runs a list of URLs sequentially, detecting each URL's
// platform, and reports aggregate counts.
func (p *Pipeline) ProcessBatch(ctx context.Context, urls []string, senderID string) domain.BatchSummary {
	summary := domain.BatchSummary{Total: len(urls)}

	for i, raw := range urls {
		if i > 0 {
			p.sleep(batchPause)
		}

		task := domain.LinkTask{
			URL:      raw,
			Platform: urldetect.DetectPlatform(raw),
			SenderID: senderID,
		}

		_, err := p.ProcessURL(ctx, task)
		switch {
		case err == nil:
			summary.Succeeded++
		case errors.Is(err, ErrAlreadyProcessed):
			summary.Skipped++
		default:
			summary.Failed++
		}
	}

	p.logger.Info("batch complete",
		"total", summary.Total,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
	)

	return summary
}

func (p *Pipeline) logStoreError(ctx context.Context, task domain.LinkTask, message string) {
	if err := p.repository.LogError(ctx, task.URL, task.Platform, message); err != nil {
		p.logger.Error("failed to record error row", "url", task.URL, "error", err)
	}
}
