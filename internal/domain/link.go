package domain

import "time"

// Platform classifies the source site of a URL.
type Platform string

const (
	PlatformGeneric   Platform = "generic"
	PlatformLinkedIn  Platform = "linkedin"
	PlatformTwitter   Platform = "twitter"
	PlatformInstagram Platform = "instagram"
	PlatformTikTok    Platform = "tiktok"
	PlatformFacebook  Platform = "facebook"
	PlatformYouTube   Platform = "youtube"
	PlatformMedium    Platform = "medium"
	PlatformSubstack  Platform = "substack"
	PlatformGitHub    Platform = "github"
)

// LinkTask is one unit of pipeline work for a single detected URL.
// Immutable once created; consumed and discarded by the queue.
type LinkTask struct {
	URL      string
	Platform Platform
	SenderID string
	ChatID   string
}

// InboundMessage is the tuple handed over by the chat transport.
type InboundMessage struct {
	Text     string
	SenderID string
	ChatID   string
	IsGroup  bool
}

// ScrapeMethod records which extraction path produced a result.
type ScrapeMethod string

const (
	MethodReadability ScrapeMethod = "readability"
	MethodFallback    ScrapeMethod = "fallback"
	MethodSocial      ScrapeMethod = "social"
)

// PostStats carries engagement counters extracted from a social post.
type PostStats struct {
	Replies  int
	Retweets int
	Likes    int
}

// ScrapeMetadata holds extra attributes only the social scraper produces.
type ScrapeMetadata struct {
	Username     string
	Timestamp    string
	Stats        PostStats
	IsThread     bool
	ThreadLength int
}

// ScrapeResult is the text extracted from a URL by exactly one scraper.
type ScrapeResult struct {
	Title    string
	Content  string
	Excerpt  string
	Author   string
	Method   ScrapeMethod
	Metadata *ScrapeMetadata
}

// Analysis is the validated structured output of the inference endpoint.
// Field names follow the prompt contract, which is Spanish.
type Analysis struct {
	ResumenEjecutivo      string   `json:"resumen_ejecutivo"`
	TemasPrincipales      []string `json:"temas_principales"`
	InsightsClave         []string `json:"insights_clave"`
	Relevancia            int      `json:"relevancia"`
	Categoria             string   `json:"categoria"`
	TipoContenido         string   `json:"tipo_contenido"`
	ProcessingTimeSeconds float64  `json:"processing_time_seconds"`
}

// LinkRecord is the durable row persisted per URL.
type LinkRecord struct {
	URL                   string
	Platform              Platform
	Author                string
	Title                 string
	ResumenEjecutivo      string
	TemasPrincipales      []string
	InsightsClave         []string
	Relevancia            int
	Categoria             string
	TipoContenido         string
	ContenidoCompleto     string
	Sender                string
	ProcessingTimeSeconds float64
}

// DailyStat is one row of the stats_daily aggregate view.
type DailyStat struct {
	Fecha              time.Time
	TotalProcesados    int
	RelevanciaPromedio float64
	TiempoPromedioSeg  float64
}

// OverallStats summarizes the whole store for reporting.
type OverallStats struct {
	Total         int
	Procesados    int
	Errores       int
	AvgRelevancia float64
	AvgSeconds    float64
}

// CategoryCount is a per-category aggregate used by the reporting CLI.
type CategoryCount struct {
	Categoria     string
	Total         int
	AvgRelevancia float64
}

// PlatformCount is a per-platform aggregate used by the reporting CLI.
type PlatformCount struct {
	Platform Platform
	Total    int
}

// SearchHit is a condensed record returned by the store search queries.
type SearchHit struct {
	ID               int64
	URL              string
	Title            string
	ResumenEjecutivo string
	Categoria        string
	Relevancia       int
	Platform         Platform
	CreatedAt        time.Time
}

// BatchSummary reports the outcome of a batch run over a URL list.
type BatchSummary struct {
	Total     int
	Succeeded int
	Failed    int
	Skipped   int
}
