// Package social extracts posts from one social network through Nitter
// mirror instances, which serve the content without authentication.
package social

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"LinkAnalyzer/internal/domain"
	"LinkAnalyzer/internal/ports"
)

const (
	fetchTimeout = 15 * time.Second
	probeTimeout = 5 * time.Second

	// A shorter text than this on a 200 response is almost always an
	// error page disguised as success.
	minPostLength = 10

	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// defaultMirrors is the failover order; public instances rotate in and
// out of service, so config can override the list.
var defaultMirrors = []string{
	"nitter.poast.org",
	"nitter.privacydev.net",
	"nitter.net",
	"nitter.unixfox.eu",
}

// Scraper fetches a post through the first working mirror.
type Scraper struct {
	client  *http.Client
	mirrors []string
	logger  *slog.Logger
}

var _ ports.SocialScraper = (*Scraper)(nil)

// NewScraper wires an HTTP client and mirror list; nil/empty use defaults.
func NewScraper(client *http.Client, mirrors []string, logger *slog.Logger) *Scraper {
	if client == nil {
		client = &http.Client{Timeout: fetchTimeout}
	}
	if len(mirrors) == 0 {
		mirrors = defaultMirrors
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scraper{client: client, mirrors: mirrors, logger: logger}
}

// Scrape tries each mirror in order and returns the first valid post.
// A nil result without error means every mirror failed and the caller
// should fall back to the generic extractor.
func (s *Scraper) Scrape(ctx context.Context, postURL string) (*domain.ScrapeResult, error) {
	for _, mirror := range s.mirrors {
		mirrored, err := mirrorURL(postURL, mirror)
		if err != nil {
			return nil, fmt.Errorf("rewrite url for mirror %s: %w", mirror, err)
		}

		doc, err := s.fetchDocument(ctx, mirrored)
		if err != nil {
			s.logger.Warn("mirror failed", "mirror", mirror, "error", err)
			continue
		}

		result := parsePost(doc)
		if result == nil {
			s.logger.Warn("mirror returned no usable post", "mirror", mirror)
			continue
		}

		s.logger.Info("post extracted", "mirror", mirror,
			"replies", result.Metadata.Stats.Replies,
			"retweets", result.Metadata.Stats.Retweets,
			"likes", result.Metadata.Stats.Likes)
		return result, nil
	}

	s.logger.Warn("all mirrors failed", "url", postURL)
	return nil, nil
}

// CheckAvailability probes each mirror with a plain request and returns
// the first reachable one. Used for startup diagnostics only.
func (s *Scraper) CheckAvailability(ctx context.Context) (string, bool) {
	client := &http.Client{Timeout: probeTimeout}
	for _, mirror := range s.mirrors {
		base := mirror
		if !strings.Contains(base, "://") {
			base = "https://" + base
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, base, nil)
		if err != nil {
			continue
		}
		req.Header.Set("User-Agent", "Mozilla/5.0")

		resp, err := client.Do(req)
		if err != nil {
			continue
		}
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			return mirror, true
		}
	}
	return "", false
}

func (s *Scraper) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "es-ES,es;q=0.9")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mirror returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

// mirrorURL rewrites the post URL host to the mirror. Mirrors may carry
// an explicit scheme (handy for tests); otherwise https is assumed.
func mirrorURL(raw, mirror string) (string, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid post url %s: %w", raw, err)
	}

	base := mirror
	if !strings.Contains(base, "://") {
		base = "https://" + base
	}
	mirrorParsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid mirror %s: %w", mirror, err)
	}

	parsed.Scheme = mirrorParsed.Scheme
	parsed.Host = mirrorParsed.Host
	return parsed.String(), nil
}

func parsePost(doc *goquery.Document) *domain.ScrapeResult {
	text := strings.TrimSpace(doc.Find(".tweet-content").First().Text())
	if len(text) < minPostLength {
		return nil
	}

	fullName := strings.TrimSpace(doc.Find(".fullname").First().Text())
	username := strings.TrimSpace(doc.Find(".username").First().Text())
	timestamp, _ := doc.Find(".tweet-date a").First().Attr("title")

	author := fullName
	if author == "" {
		author = username
	}

	// Thread continuation: subsequent posts, skipping the one already
	// captured above.
	var thread []string
	doc.Find(".timeline-item .tweet-content").Each(func(i int, sel *goquery.Selection) {
		if i == 0 {
			return
		}
		if t := strings.TrimSpace(sel.Text()); t != "" {
			thread = append(thread, t)
		}
	})

	content := text
	if len(thread) > 0 {
		content += "\n\n" + strings.Join(thread, "\n\n")
	}

	return &domain.ScrapeResult{
		Title:   fmt.Sprintf("Tweet de %s", author),
		Content: content,
		Excerpt: excerpt(text, 200),
		Author:  author,
		Method:  domain.MethodSocial,
		Metadata: &domain.ScrapeMetadata{
			Username:     username,
			Timestamp:    timestamp,
			Stats:        parseStats(doc),
			IsThread:     len(thread) > 0,
			ThreadLength: len(thread) + 1,
		},
	}
}

func parseStats(doc *goquery.Document) domain.PostStats {
	var stats domain.PostStats

	doc.Find(".tweet-stats .icon-container").Each(func(_ int, sel *goquery.Selection) {
		raw := strings.ReplaceAll(strings.TrimSpace(sel.Text()), ",", "")
		value, err := strconv.Atoi(raw)
		if err != nil {
			return
		}

		switch {
		case sel.Find(".icon-comment").Length() > 0:
			stats.Replies = value
		case sel.Find(".icon-retweet").Length() > 0:
			stats.Retweets = value
		case sel.Find(".icon-heart").Length() > 0:
			stats.Likes = value
		}
	})

	return stats
}

func excerpt(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	return text[:limit]
}
