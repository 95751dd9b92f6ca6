package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LinkAnalyzer/internal/domain"
)

func newMockRepo(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPostgresRepository(db), mock
}

func TestExists(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT id FROM link_analysis WHERE url = \$1`).
		WithArgs("https://example.com/a").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))

	exists, err := repo.Exists(context.Background(), "https://example.com/a")
	require.NoError(t, err)
	assert.True(t, exists)

	mock.ExpectQuery(`SELECT id FROM link_analysis WHERE url = \$1`).
		WithArgs("https://example.com/b").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	exists, err = repo.Exists(context.Background(), "https://example.com/b")
	require.NoError(t, err)
	assert.False(t, exists)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveUpsertsAndReturnsID(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)

	rec := domain.LinkRecord{
		URL:                   "https://example.com/post",
		Platform:              domain.PlatformMedium,
		Author:                "Jane Dev",
		Title:                 "Sobre agentes",
		ResumenEjecutivo:      "Un resumen.",
		TemasPrincipales:      []string{"agentes", "llms"},
		InsightsClave:         []string{"insight"},
		Relevancia:            4,
		Categoria:             "AI Agents",
		TipoContenido:         "Tutorial",
		ContenidoCompleto:     "cuerpo completo",
		Sender:                "34600111222@c.us",
		ProcessingTimeSeconds: 12.5,
	}

	mock.ExpectQuery(`INSERT INTO link_analysis`).
		WithArgs(
			rec.URL, "medium", rec.Author, rec.Title,
			rec.ResumenEjecutivo, pq.Array(rec.TemasPrincipales), pq.Array(rec.InsightsClave),
			rec.Relevancia, rec.Categoria, rec.TipoContenido,
			rec.ContenidoCompleto, rec.Sender, rec.ProcessingTimeSeconds,
		).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	id, err := repo.Save(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSavePropagatesError(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`INSERT INTO link_analysis`).
		WillReturnError(errors.New("connection reset"))

	_, err := repo.Save(context.Background(), domain.LinkRecord{URL: "https://example.com"})
	assert.ErrorContains(t, err, "connection reset")
}

func TestLogError(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)

	mock.ExpectExec(`INSERT INTO link_analysis \(url, platform, error_log, created_at\)`).
		WithArgs("https://example.com/broken", "twitter", "scraping falló tras 2 intentos").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.LogError(context.Background(), "https://example.com/broken", domain.PlatformTwitter, "scraping falló tras 2 intentos")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecentStats(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)

	today := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"fecha", "total_procesados", "relevancia_promedio", "tiempo_promedio_seg"}).
		AddRow(today, 5, 3.8, 21.4).
		AddRow(today.AddDate(0, 0, -1), 2, nil, nil)

	mock.ExpectQuery(`SELECT fecha, total_procesados, relevancia_promedio, tiempo_promedio_seg FROM stats_daily`).
		WillReturnRows(rows)

	stats, err := repo.RecentStats(context.Background())
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, 5, stats[0].TotalProcesados)
	assert.InDelta(t, 3.8, stats[0].RelevanciaPromedio, 0.001)
	assert.Zero(t, stats[1].RelevanciaPromedio)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFullTextSearch(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)

	rows := sqlmock.NewRows([]string{"id", "url", "title", "resumen_ejecutivo", "categoria", "relevancia", "platform", "created_at"}).
		AddRow(9, "https://example.com/rag", "Sobre RAG", "Resumen", "RAG", 5, "generic", time.Now())

	mock.ExpectQuery(`plainto_tsquery\('spanish', \$1\)`).
		WithArgs("agentes autónomos", 10).
		WillReturnRows(rows)

	hits, err := repo.FullTextSearch(context.Background(), "agentes autónomos", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Sobre RAG", hits[0].Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchByRelevance(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)

	rows := sqlmock.NewRows([]string{"id", "url", "title", "resumen_ejecutivo", "categoria", "relevancia", "platform", "created_at"}).
		AddRow(1, "https://example.com/top", "Top", "Resumen", "LLMs", 5, "generic", time.Now()).
		AddRow(2, "https://example.com/next", nil, nil, nil, 4, "twitter", time.Now())

	mock.ExpectQuery(`SELECT id, url, title, resumen_ejecutivo, categoria, relevancia, platform, created_at FROM link_analysis`).
		WithArgs(4).
		WillReturnRows(rows)

	hits, err := repo.SearchByRelevance(context.Background(), 4, 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "LLMs", hits[0].Categoria)
	assert.Empty(t, hits[1].Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}
