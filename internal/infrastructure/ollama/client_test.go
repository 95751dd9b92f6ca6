package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"LinkAnalyzer/internal/config"
	"LinkAnalyzer/internal/domain"
)

const validAnalysisJSON = `{
	"resumen_ejecutivo": "Un resumen ejecutivo completo del contenido analizado.",
	"temas_principales": ["AI Agents", "RAG", "LLMs", "Automatización"],
	"insights_clave": ["Insight uno con detalle", "Insight dos con detalle"],
	"relevancia": 4,
	"categoria": "AI Agents",
	"tipo_contenido": "Tutorial"
}`

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	client := NewClient(config.OllamaConfig{Host: server.URL, Model: "llama3.1:8b"})
	return client, server
}

func TestAnalyzeHappyPath(t *testing.T) {
	t.Parallel()

	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}

		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req["format"] != "json" {
			t.Errorf("expected format=json, got %v", req["format"])
		}
		if req["stream"] != false {
			t.Errorf("expected stream=false")
		}
		prompt, _ := req["prompt"].(string)
		if !strings.Contains(prompt, "https://example.com/post") {
			t.Error("prompt must embed the URL")
		}

		_ = json.NewEncoder(w).Encode(map[string]string{"response": validAnalysisJSON})
	})
	defer server.Close()

	analysis, err := client.Analyze(context.Background(), "contenido largo del articulo", "https://example.com/post", domain.PlatformGeneric)
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}

	if analysis.Relevancia != 4 {
		t.Errorf("relevancia = %d, want 4", analysis.Relevancia)
	}
	if analysis.Categoria != "AI Agents" {
		t.Errorf("categoria = %s", analysis.Categoria)
	}
	if len(analysis.TemasPrincipales) != 4 {
		t.Errorf("temas = %v", analysis.TemasPrincipales)
	}
	if analysis.ProcessingTimeSeconds <= 0 {
		t.Error("expected measured processing time")
	}
}

func TestAnalyzeExtractsEmbeddedJSON(t *testing.T) {
	t.Parallel()

	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		wrapped := "Aquí está el análisis:\n" + validAnalysisJSON + "\nEspero que sirva."
		_ = json.NewEncoder(w).Encode(map[string]string{"response": wrapped})
	})
	defer server.Close()

	analysis, err := client.Analyze(context.Background(), "contenido", "https://example.com/p", domain.PlatformGeneric)
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	if analysis.Relevancia != 4 {
		t.Errorf("relevancia = %d", analysis.Relevancia)
	}
}

func TestAnalyzeServerError(t *testing.T) {
	t.Parallel()

	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model crashed", http.StatusInternalServerError)
	})
	defer server.Close()

	if _, err := client.Analyze(context.Background(), "contenido", "https://example.com/p", domain.PlatformGeneric); err == nil {
		t.Fatal("expected error on HTTP 500")
	}
}

func TestParseAnalysisRejectsMissingFields(t *testing.T) {
	t.Parallel()

	fields := []string{
		"resumen_ejecutivo",
		"temas_principales",
		"insights_clave",
		"relevancia",
		"categoria",
		"tipo_contenido",
	}

	for _, field := range fields {
		var full map[string]any
		if err := json.Unmarshal([]byte(validAnalysisJSON), &full); err != nil {
			t.Fatalf("fixture broken: %v", err)
		}
		delete(full, field)
		raw, _ := json.Marshal(full)

		if _, err := parseAnalysis(string(raw)); err == nil {
			t.Errorf("missing %s must be rejected", field)
		}
	}
}

func TestParseAnalysisRejectsRelevanciaOutOfRange(t *testing.T) {
	t.Parallel()

	for _, relevancia := range []int{0, 6, -1} {
		raw := strings.Replace(validAnalysisJSON, `"relevancia": 4`, fmt.Sprintf(`"relevancia": %d`, relevancia), 1)
		if _, err := parseAnalysis(raw); err == nil {
			t.Errorf("relevancia %d must be rejected", relevancia)
		}
	}
}

func TestParseAnalysisRejectsNonSequenceTemas(t *testing.T) {
	t.Parallel()

	raw := strings.Replace(validAnalysisJSON,
		`"temas_principales": ["AI Agents", "RAG", "LLMs", "Automatización"]`,
		`"temas_principales": "no es una lista"`, 1)

	if _, err := parseAnalysis(raw); err == nil {
		t.Fatal("non-sequence temas_principales must be rejected")
	}
}

func TestParseAnalysisRejectsGarbage(t *testing.T) {
	t.Parallel()

	if _, err := parseAnalysis("lo siento, no puedo analizar esto"); err == nil {
		t.Fatal("plain text must be rejected")
	}
}

func TestCheckModel(t *testing.T) {
	t.Parallel()

	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"models":[{"name":"llama3.1:8b","size":4700000000},{"name":"mistral:7b","size":4100000000}]}`))
	})
	defer server.Close()

	if err := client.CheckModel(context.Background()); err != nil {
		t.Fatalf("CheckModel error: %v", err)
	}
}

func TestCheckModelMissingModel(t *testing.T) {
	t.Parallel()

	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"models":[{"name":"mistral:7b","size":4100000000}]}`))
	})
	defer server.Close()

	err := client.CheckModel(context.Background())
	if err == nil {
		t.Fatal("expected error for absent model")
	}
	if !strings.Contains(err.Error(), "mistral:7b") {
		t.Errorf("error should list available models, got %v", err)
	}
}
