// Package ollama talks to a local Ollama instance for structured content
// analysis.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"LinkAnalyzer/internal/config"
	"LinkAnalyzer/internal/domain"
	"LinkAnalyzer/internal/ports"
)

const (
	// maxPromptContent bounds what goes into the prompt, independent of
	// the scraper's own truncation.
	maxPromptContent = 5000

	inferenceTimeout = 5 * time.Minute
	checkTimeout     = 10 * time.Second
)

// Client implements ports.Analyzer against the Ollama generate API.
type Client struct {
	host       string
	model      string
	httpClient *http.Client
}

var _ ports.Analyzer = (*Client)(nil)

// NewClient builds a client from configuration.
func NewClient(cfg config.OllamaConfig) *Client {
	return &Client{
		host:  strings.TrimSuffix(cfg.Host, "/"),
		model: cfg.Model,
		httpClient: &http.Client{
			Timeout: inferenceTimeout,
		},
	}
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Format  string          `json:"format"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature   float64 `json:"temperature"`
	TopP          float64 `json:"top_p"`
	TopK          int     `json:"top_k"`
	NumCtx        int     `json:"num_ctx"`
	NumPredict    int     `json:"num_predict"`
	NumGPU        int     `json:"num_gpu"`
	NumThread     int     `json:"num_thread"`
	RepeatPenalty float64 `json:"repeat_penalty"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Analyze sends the content for structured analysis and returns a
// validated result with the measured inference time attached.
func (c *Client) Analyze(ctx context.Context, content, pageURL string, platform domain.Platform) (*domain.Analysis, error) {
	start := time.Now()

	body, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: buildPrompt(content, pageURL, platform),
		Stream: false,
		Format: "json",
		Options: generateOptions{
			Temperature:   0.4,
			TopP:          0.9,
			TopK:          40,
			NumCtx:        4096,
			NumPredict:    1024,
			NumGPU:        1,
			NumThread:     4,
			RepeatPenalty: 1.1,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal generate payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("ollama error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var generated generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&generated); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	analysis, err := parseAnalysis(generated.Response)
	if err != nil {
		return nil, err
	}

	analysis.ProcessingTimeSeconds = time.Since(start).Seconds()
	return analysis, nil
}

// CheckModel verifies the configured model is installed, via the tags
// endpoint. Meant as a startup gate.
func (c *Client) CheckModel(ctx context.Context) error {
	client := &http.Client{Timeout: checkTimeout}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.host+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("reach ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama tags returned %s", resp.Status)
	}

	var tags struct {
		Models []struct {
			Name string `json:"name"`
			Size int64  `json:"size"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return fmt.Errorf("decode tags: %w", err)
	}

	if len(tags.Models) == 0 {
		return fmt.Errorf("no models installed; run: ollama pull %s", c.model)
	}

	var available []string
	for _, m := range tags.Models {
		if m.Name == c.model {
			return nil
		}
		available = append(available, m.Name)
	}

	return fmt.Errorf("model %q not found (available: %s)", c.model, strings.Join(available, ", "))
}

// parseAnalysis decodes and strictly validates the model output. Anything
// that does not conform is rejected whole; there is no partial analysis.
func parseAnalysis(raw string) (*domain.Analysis, error) {
	var payload struct {
		ResumenEjecutivo *string   `json:"resumen_ejecutivo"`
		TemasPrincipales *[]string `json:"temas_principales"`
		InsightsClave    *[]string `json:"insights_clave"`
		Relevancia       *float64  `json:"relevancia"`
		Categoria        *string   `json:"categoria"`
		TipoContenido    *string   `json:"tipo_contenido"`
	}

	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		// The model sometimes wraps the object in stray text; retry on
		// the first brace-delimited substring.
		first := strings.Index(raw, "{")
		last := strings.LastIndex(raw, "}")
		if first < 0 || last <= first {
			return nil, fmt.Errorf("response is not JSON: %w", err)
		}
		if err := json.Unmarshal([]byte(raw[first:last+1]), &payload); err != nil {
			return nil, fmt.Errorf("response is not JSON: %w", err)
		}
	}

	missing := func(field string) error {
		return fmt.Errorf("required field missing: %s", field)
	}

	switch {
	case payload.ResumenEjecutivo == nil || *payload.ResumenEjecutivo == "":
		return nil, missing("resumen_ejecutivo")
	case payload.TemasPrincipales == nil:
		return nil, missing("temas_principales")
	case payload.InsightsClave == nil:
		return nil, missing("insights_clave")
	case payload.Relevancia == nil:
		return nil, missing("relevancia")
	case payload.Categoria == nil || *payload.Categoria == "":
		return nil, missing("categoria")
	case payload.TipoContenido == nil || *payload.TipoContenido == "":
		return nil, missing("tipo_contenido")
	}

	if *payload.Relevancia < 1 || *payload.Relevancia > 5 {
		return nil, fmt.Errorf("relevancia %v out of range [1,5]", *payload.Relevancia)
	}

	return &domain.Analysis{
		ResumenEjecutivo: *payload.ResumenEjecutivo,
		TemasPrincipales: *payload.TemasPrincipales,
		InsightsClave:    *payload.InsightsClave,
		Relevancia:       int(*payload.Relevancia),
		Categoria:        *payload.Categoria,
		TipoContenido:    *payload.TipoContenido,
	}, nil
}

func truncateForPrompt(content string) string {
	if len(content) <= maxPromptContent {
		return content
	}
	return content[:maxPromptContent] + "..."
}
