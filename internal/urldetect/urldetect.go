package urldetect

import (
	"net/url"
	"regexp"
	"strings"

	"LinkAnalyzer/internal/domain"
)

var urlPattern = regexp.MustCompile(`https?://[^\s<>"{}|\\^` + "`" + `\[\]]+`)

// platformHosts maps host substrings to platform tags, checked in order.
var platformHosts = []struct {
	host     string
	platform domain.Platform
}{
	{"linkedin.com", domain.PlatformLinkedIn},
	{"twitter.com", domain.PlatformTwitter},
	{"x.com", domain.PlatformTwitter},
	{"instagram.com", domain.PlatformInstagram},
	{"tiktok.com", domain.PlatformTikTok},
	{"facebook.com", domain.PlatformFacebook},
	{"youtube.com", domain.PlatformYouTube},
	{"youtu.be", domain.PlatformYouTube},
	{"medium.com", domain.PlatformMedium},
	{"substack.com", domain.PlatformSubstack},
	{"github.com", domain.PlatformGitHub},
}

// essentialParams lists the query parameters worth keeping per host.
// Everything not listed (tracking junk, session state) is dropped.
var essentialParams = []struct {
	host   string
	params []string
}{
	{"youtube.com", []string{"v"}},
	{"youtu.be", nil},
	{"linkedin.com", nil},
	{"twitter.com", []string{"status"}},
	{"x.com", []string{"status"}},
	{"instagram.com", []string{"p"}},
	{"tiktok.com", []string{"video"}},
	{"facebook.com", []string{"posts"}},
}

var blockedPathKeywords = []string{"login", "signin", "signup", "register", "auth", "private"}

// ExtractURLs scans free text for URLs, normalizes each one and drops
// candidates that cannot point at scrapeable content. Discovery order is
// preserved and duplicates are kept; deduplication happens later against
// the persisted store.
func ExtractURLs(text string) []string {
	if text == "" {
		return nil
	}

	var out []string
	for _, match := range urlPattern.FindAllString(text, -1) {
		cleaned, ok := cleanURL(match)
		if !ok {
			continue
		}
		out = append(out, cleaned)
	}
	return out
}

func cleanURL(raw string) (string, bool) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", false
	}

	host := strings.ToLower(parsed.Hostname())
	if !strings.Contains(host, ".") || len(parsed.Path) <= 1 {
		return "", false
	}

	keep := paramsFor(host)
	query := parsed.Query()
	filtered := url.Values{}
	for _, param := range keep {
		if query.Has(param) {
			filtered.Set(param, query.Get(param))
		}
	}
	parsed.RawQuery = filtered.Encode()

	// Hash fragments carry no content unless they address a post.
	if parsed.Fragment != "" && !strings.Contains(parsed.Fragment, "post") {
		parsed.Fragment = ""
	}

	return parsed.String(), true
}

func paramsFor(host string) []string {
	for _, entry := range essentialParams {
		if strings.Contains(host, entry.host) {
			return entry.params
		}
	}
	return nil
}

// DetectPlatform classifies the source platform of a URL. Unmatched hosts
// classify as generic.
func DetectPlatform(rawURL string) domain.Platform {
	lower := strings.ToLower(rawURL)
	for _, entry := range platformHosts {
		if strings.Contains(lower, entry.host) {
			return entry.platform
		}
	}
	return domain.PlatformGeneric
}

// IsScrapeable rejects URLs whose path points at authentication flows or
// private areas; scraping those only yields login walls.
func IsScrapeable(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	path := strings.ToLower(parsed.Path)
	for _, keyword := range blockedPathKeywords {
		if strings.Contains(path, keyword) {
			return false
		}
	}
	return true
}
