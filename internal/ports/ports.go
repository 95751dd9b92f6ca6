package ports

import (
	"context"

	"LinkAnalyzer/internal/domain"
)

// Scraper renders a URL and extracts its main text content.
// A nil result with a nil error means the page produced nothing usable.
type Scraper interface {
	Extract(ctx context.Context, url string, platform domain.Platform) (*domain.ScrapeResult, error)
}

// SocialScraper extracts a social post through alternative front-ends.
// A nil result without error signals "try the generic path instead".
type SocialScraper interface {
	Scrape(ctx context.Context, url string) (*domain.ScrapeResult, error)
}

// Analyzer sends extracted content to the inference endpoint and returns
// a validated analysis.
type Analyzer interface {
	Analyze(ctx context.Context, content, url string, platform domain.Platform) (*domain.Analysis, error)
}

// LinkRepository persists analyzed links with URL-level deduplication.
type LinkRepository interface {
	Exists(ctx context.Context, url string) (bool, error)
	Save(ctx context.Context, rec domain.LinkRecord) (int64, error)
	LogError(ctx context.Context, url string, platform domain.Platform, message string) error
	RecentStats(ctx context.Context) ([]domain.DailyStat, error)
}

// ChatTransport is the message-passing boundary to the chat collaborator.
// The core never touches a live socket; it consumes the channel and sends
// plain-text notifications back.
type ChatTransport interface {
	Messages() <-chan domain.InboundMessage
	Send(ctx context.Context, chatID, text string) error
}
