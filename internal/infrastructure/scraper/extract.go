package scraper

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"LinkAnalyzer/internal/domain"
)

const (
	// maxContentLength bounds the persisted content; longer pages are cut
	// at a sentence boundary when one falls inside the tail window.
	maxContentLength = 15000

	// minArticleLength is the threshold under which a readability result
	// is considered noise and the raw-text fallback kicks in.
	minArticleLength = 100

	excerptLength = 300
)

var (
	spaceRuns   = regexp.MustCompile(`[^\S\n]+`)
	newlineRuns = regexp.MustCompile(`\n{3,}`)
)

// noiseSelectors are removed before reading visible body text.
const noiseSelectors = "script, style, nav, footer, header, aside, iframe"

var authorSelectors = map[domain.Platform][]string{
	domain.PlatformLinkedIn: {
		".feed-shared-actor__name",
		".update-components-actor__name",
		`[data-control-name="actor"]`,
	},
	domain.PlatformMedium: {
		`a[rel="author"]`,
		".author-name",
		`[data-testid="authorName"]`,
	},
	domain.PlatformTwitter: {
		`[data-testid="User-Name"]`,
	},
}

var genericAuthorSelectors = []string{
	`[rel="author"]`,
	".author",
	".by-author",
	`[itemprop="author"]`,
}

// reducePage turns rendered HTML into a ScrapeResult, preferring
// readability reduction and falling back to visible body text.
func reducePage(html, pageURL, pageTitle string, platform domain.Platform) (*domain.ScrapeResult, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	article, err := readability.FromReader(strings.NewReader(html), parsed)
	if err == nil && len(strings.TrimSpace(article.TextContent)) > minArticleLength {
		text := cleanText(article.TextContent)

		title := article.Title
		if title == "" {
			title = pageTitle
		}

		author := strings.TrimSpace(article.Byline)
		if author == "" {
			author = extractAuthor(doc, platform)
		}

		exc := strings.TrimSpace(article.Excerpt)
		if exc == "" {
			exc = headOf(text, excerptLength)
		}

		return &domain.ScrapeResult{
			Title:   title,
			Content: truncateContent(text),
			Excerpt: exc,
			Author:  author,
			Method:  domain.MethodReadability,
		}, nil
	}

	// Fallback: visible body text after dropping page chrome.
	doc.Find(noiseSelectors).Remove()
	text := cleanText(doc.Find("body").Text())

	return &domain.ScrapeResult{
		Title:   pageTitle,
		Content: truncateContent(text),
		Excerpt: headOf(text, excerptLength),
		Author:  extractAuthor(doc, platform),
		Method:  domain.MethodFallback,
	}, nil
}

// cleanText collapses runs of blanks into one space and caps consecutive
// newlines at two.
func cleanText(text string) string {
	text = spaceRuns.ReplaceAllString(text, " ")
	text = newlineRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// truncateContent cuts at the content budget, preferring the last sentence
// boundary inside the final 20% of the window.
func truncateContent(content string) string {
	if len(content) <= maxContentLength {
		return content
	}

	cut := content[:maxContentLength]
	if last := strings.LastIndex(cut, "."); last > maxContentLength*4/5 {
		return cut[:last+1] + "..."
	}
	return cut + "..."
}

// extractAuthor tries platform-specific selectors first, then the generic
// list, returning the first non-empty match.
func extractAuthor(doc *goquery.Document, platform domain.Platform) string {
	selectors := append(append([]string{}, authorSelectors[platform]...), genericAuthorSelectors...)

	for _, selector := range selectors {
		text := strings.TrimSpace(doc.Find(selector).First().Text())
		if text != "" {
			return text
		}
	}
	return ""
}

func headOf(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	return text[:limit]
}
