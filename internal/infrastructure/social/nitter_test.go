package social

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

const tweetPage = `
<html><body>
  <div class="main-tweet">
    <a class="fullname">Ada Dev</a>
    <a class="username">@adadev</a>
    <div class="tweet-content">Los agentes de IA cambian la forma de construir productos digitales.</div>
    <span class="tweet-date"><a title="Jan 5, 2026 · 10:00 AM UTC">5 ene</a></span>
    <div class="tweet-stats">
      <span class="icon-container"><span class="icon-comment"></span> 12</span>
      <span class="icon-container"><span class="icon-retweet"></span> 1,204</span>
      <span class="icon-container"><span class="icon-heart"></span> 89</span>
    </div>
  </div>
</body></html>`

const threadPage = `
<html><body>
  <div class="timeline-item"><div class="tweet-content">Primer tweet del hilo con el planteamiento.</div></div>
  <div class="timeline-item"><div class="tweet-content">Segundo tweet con mas detalle.</div></div>
  <div class="timeline-item"><div class="tweet-content">Tercer tweet con la conclusion.</div></div>
  <a class="fullname">Ada Dev</a>
  <a class="username">@adadev</a>
</body></html>`

func TestScrapeFailoverOrder(t *testing.T) {
	t.Parallel()

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer down.Close()

	ratelimited := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ratelimited.Close()

	working := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(tweetPage))
	}))
	defer working.Close()

	var neverCalled int32
	fourth := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&neverCalled, 1)
		_, _ = w.Write([]byte(tweetPage))
	}))
	defer fourth.Close()

	s := NewScraper(nil, []string{down.URL, ratelimited.URL, working.URL, fourth.URL}, nil)

	res, err := s.Scrape(context.Background(), "https://twitter.com/adadev/status/123")
	if err != nil {
		t.Fatalf("Scrape error: %v", err)
	}
	if res == nil {
		t.Fatal("expected a result from the third mirror")
	}
	if res.Author != "Ada Dev" {
		t.Fatalf("unexpected author: %s", res.Author)
	}
	if atomic.LoadInt32(&neverCalled) != 0 {
		t.Fatal("fourth mirror should never be contacted")
	}
}

func TestScrapeSkipsDisguisedErrorPages(t *testing.T) {
	t.Parallel()

	// 200 OK but the tweet text is too short to be real content.
	bogus := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<div class="tweet-content">Error</div>`))
	}))
	defer bogus.Close()

	working := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(tweetPage))
	}))
	defer working.Close()

	s := NewScraper(nil, []string{bogus.URL, working.URL}, nil)

	res, err := s.Scrape(context.Background(), "https://twitter.com/adadev/status/123")
	if err != nil {
		t.Fatalf("Scrape error: %v", err)
	}
	if res == nil || !strings.Contains(res.Content, "agentes de IA") {
		t.Fatalf("expected content from second mirror, got %+v", res)
	}
}

func TestScrapeAllMirrorsFailReturnsNil(t *testing.T) {
	t.Parallel()

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()

	s := NewScraper(nil, []string{down.URL}, nil)

	res, err := s.Scrape(context.Background(), "https://twitter.com/adadev/status/123")
	if err != nil {
		t.Fatalf("all-mirrors-down must not be an error, got %v", err)
	}
	if res != nil {
		t.Fatalf("expected nil result, got %+v", res)
	}
}

func TestParsePostStatsAndMetadata(t *testing.T) {
	t.Parallel()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(tweetPage))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}

	res := parsePost(doc)
	if res == nil {
		t.Fatal("expected a parsed post")
	}

	if res.Metadata.Stats.Replies != 12 {
		t.Errorf("replies = %d, want 12", res.Metadata.Stats.Replies)
	}
	if res.Metadata.Stats.Retweets != 1204 {
		t.Errorf("retweets = %d, want 1204", res.Metadata.Stats.Retweets)
	}
	if res.Metadata.Stats.Likes != 89 {
		t.Errorf("likes = %d, want 89", res.Metadata.Stats.Likes)
	}
	if res.Metadata.Username != "@adadev" {
		t.Errorf("username = %s", res.Metadata.Username)
	}
	if res.Metadata.Timestamp != "Jan 5, 2026 · 10:00 AM UTC" {
		t.Errorf("timestamp = %s", res.Metadata.Timestamp)
	}
	if res.Metadata.IsThread {
		t.Error("single tweet must not be flagged as thread")
	}
}

func TestParsePostThreadConcatenation(t *testing.T) {
	t.Parallel()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(threadPage))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}

	res := parsePost(doc)
	if res == nil {
		t.Fatal("expected a parsed post")
	}

	want := "Primer tweet del hilo con el planteamiento.\n\nSegundo tweet con mas detalle.\n\nTercer tweet con la conclusion."
	if res.Content != want {
		t.Fatalf("thread content mismatch:\n got: %q\nwant: %q", res.Content, want)
	}
	if !res.Metadata.IsThread {
		t.Error("expected is_thread")
	}
	if res.Metadata.ThreadLength != 3 {
		t.Errorf("thread length = %d, want 3", res.Metadata.ThreadLength)
	}
}
