// Package scraper implements the generic browser-based content extractor:
// headless Chrome rendering, readability reduction with a raw-text
// fallback, and platform-aware wait policies.
package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"LinkAnalyzer/internal/domain"
	"LinkAnalyzer/internal/ports"
)

const chromeUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// waitPolicy describes how long to let a platform's page settle.
type waitPolicy struct {
	untilStable bool
	timeout     time.Duration
	extraWait   time.Duration
}

// Extractor renders URLs in headless Chrome and reduces them to text.
// Each extraction uses an isolated browser session torn down on every
// exit path.
type Extractor struct {
	defaultTimeout time.Duration
	logger         *slog.Logger
}

var _ ports.Scraper = (*Extractor)(nil)

// NewExtractor builds the extractor; defaultTimeout applies to platforms
// without a dedicated wait policy.
func NewExtractor(defaultTimeout time.Duration, logger *slog.Logger) *Extractor {
	if defaultTimeout <= 0 {
		defaultTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{defaultTimeout: defaultTimeout, logger: logger}
}

// Extract navigates to the URL and returns the reduced page content.
// Navigation timeouts and render errors surface as errors; the
// orchestrator treats them as a failed attempt.
func (e *Extractor) Extract(ctx context.Context, pageURL string, platform domain.Platform) (result *domain.ScrapeResult, err error) {
	start := time.Now()

	html, title, err := e.render(ctx, pageURL, platform)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", pageURL, err)
	}

	result, err = reducePage(html, pageURL, title, platform)
	if err != nil {
		return nil, fmt.Errorf("reduce %s: %w", pageURL, err)
	}

	e.logger.Info("content extracted",
		"platform", platform,
		"method", result.Method,
		"chars", len(result.Content),
		"elapsed", time.Since(start).Round(10*time.Millisecond))
	return result, nil
}

func (e *Extractor) render(ctx context.Context, pageURL string, platform domain.Platform) (string, string, error) {
	controlURL, err := launcher.New().
		Headless(true).
		Set("no-sandbox").
		Set("disable-setuid-sandbox").
		Set("disable-dev-shm-usage").
		Set("disable-gpu").
		Launch()
	if err != nil {
		return "", "", fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return "", "", fmt.Errorf("connect browser: %w", err)
	}
	defer browser.Close()

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return "", "", fmt.Errorf("open page: %w", err)
	}
	defer page.Close()

	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: chromeUserAgent}); err != nil {
		return "", "", fmt.Errorf("set user agent: %w", err)
	}
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width: 1920, Height: 1080, DeviceScaleFactor: 1,
	}); err != nil {
		return "", "", fmt.Errorf("set viewport: %w", err)
	}

	// Heavy static resources only slow rendering down; the text survives
	// without them.
	router := page.HijackRequests()
	router.MustAdd("*", func(hijack *rod.Hijack) {
		switch hijack.Request.Type() {
		case proto.NetworkResourceTypeImage,
			proto.NetworkResourceTypeStylesheet,
			proto.NetworkResourceTypeFont,
			proto.NetworkResourceTypeMedia:
			hijack.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
		default:
			hijack.ContinueRequest(&proto.FetchContinueRequest{})
		}
	})
	go router.Run()
	defer router.Stop()

	policy := policyFor(platform, e.defaultTimeout)
	page = page.Timeout(policy.timeout)

	e.logger.Debug("loading page", "url", pageURL, "timeout", policy.timeout)

	if err := page.Navigate(pageURL); err != nil {
		return "", "", fmt.Errorf("navigate: %w", err)
	}

	if policy.untilStable {
		if err := page.WaitStable(time.Second); err != nil {
			return "", "", fmt.Errorf("wait stable: %w", err)
		}
	} else {
		if err := page.WaitLoad(); err != nil {
			return "", "", fmt.Errorf("wait load: %w", err)
		}
	}

	// Dynamic content keeps arriving after the load event.
	time.Sleep(policy.extraWait)

	html, err := page.HTML()
	if err != nil {
		return "", "", fmt.Errorf("read html: %w", err)
	}

	title := ""
	if info, err := page.Info(); err == nil {
		title = info.Title
	}

	return html, title, nil
}

// policyFor resolves the per-platform wait policy; platforms that load
// content over late XHR calls need the stricter stability wait.
func policyFor(platform domain.Platform, defaultTimeout time.Duration) waitPolicy {
	switch platform {
	case domain.PlatformLinkedIn:
		return waitPolicy{untilStable: true, timeout: 60 * time.Second, extraWait: 3 * time.Second}
	case domain.PlatformTwitter:
		return waitPolicy{untilStable: false, timeout: 30 * time.Second, extraWait: 2 * time.Second}
	case domain.PlatformInstagram:
		return waitPolicy{untilStable: true, timeout: 45 * time.Second, extraWait: 2 * time.Second}
	case domain.PlatformMedium:
		return waitPolicy{untilStable: false, timeout: 30 * time.Second, extraWait: time.Second}
	default:
		return waitPolicy{untilStable: false, timeout: defaultTimeout, extraWait: 2 * time.Second}
	}
}
