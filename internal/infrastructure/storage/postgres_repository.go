// Package storage persists analyzed links to Postgres. The url column is
// the natural key; every write is an upsert.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"LinkAnalyzer/internal/config"
	"LinkAnalyzer/internal/domain"
	"LinkAnalyzer/internal/ports"
)

// psql builds queries with Postgres placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresRepository implements ports.LinkRepository over database/sql.
type PostgresRepository struct {
	db *sql.DB
}

var _ ports.LinkRepository = (*PostgresRepository)(nil)

// Open dials Postgres with the pool limits the pipeline expects.
func Open(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetConnMaxIdleTime(30 * time.Second)
	return db, nil
}

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Ping verifies the connection, used as a startup gate.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

// Exists reports whether a URL already has a row, successful or not.
func (r *PostgresRepository) Exists(ctx context.Context, url string) (bool, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `SELECT id FROM link_analysis WHERE url = $1`, url).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query url: %w", err)
	}
	return true, nil
}

// Save upserts the full analyzed record. On conflict the processed
// timestamp, relevance, summary and category of the existing row are
// refreshed, so re-processing never duplicates a URL.
func (r *PostgresRepository) Save(ctx context.Context, rec domain.LinkRecord) (int64, error) {
	query := `INSERT INTO link_analysis (
	              url, platform, author, title,
	              resumen_ejecutivo, temas_principales, insights_clave,
	              relevancia, categoria, tipo_contenido,
	              contenido_completo, whatsapp_sender,
	              processing_time_seconds, processed_at
	          ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW())
	          ON CONFLICT (url) DO UPDATE SET
	              processed_at = NOW(),
	              relevancia = EXCLUDED.relevancia,
	              resumen_ejecutivo = EXCLUDED.resumen_ejecutivo,
	              categoria = EXCLUDED.categoria
	          RETURNING id`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		rec.URL,
		string(rec.Platform),
		rec.Author,
		rec.Title,
		rec.ResumenEjecutivo,
		pq.Array(rec.TemasPrincipales),
		pq.Array(rec.InsightsClave),
		rec.Relevancia,
		rec.Categoria,
		rec.TipoContenido,
		rec.ContenidoCompleto,
		rec.Sender,
		rec.ProcessingTimeSeconds,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert record: %w", err)
	}

	return id, nil
}

// LogError upserts an error-only row; a later success overwrites it.
func (r *PostgresRepository) LogError(ctx context.Context, url string, platform domain.Platform, message string) error {
	query := `INSERT INTO link_analysis (url, platform, error_log, created_at)
	          VALUES ($1, $2, $3, NOW())
	          ON CONFLICT (url) DO UPDATE SET
	              error_log = EXCLUDED.error_log,
	              created_at = NOW()`

	if _, err := r.db.ExecContext(ctx, query, url, string(platform), message); err != nil {
		return fmt.Errorf("log error row: %w", err)
	}
	return nil
}

// RecentStats reads the last week of daily aggregates.
func (r *PostgresRepository) RecentStats(ctx context.Context) ([]domain.DailyStat, error) {
	query, args, err := psql.
		Select("fecha", "total_procesados", "relevancia_promedio", "tiempo_promedio_seg").
		From("stats_daily").
		Limit(7).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build stats query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	var stats []domain.DailyStat
	for rows.Next() {
		var (
			s          domain.DailyStat
			relevancia sql.NullFloat64
			tiempo     sql.NullFloat64
		)
		if err := rows.Scan(&s.Fecha, &s.TotalProcesados, &relevancia, &tiempo); err != nil {
			return nil, fmt.Errorf("scan stat row: %w", err)
		}
		s.RelevanciaPromedio = relevancia.Float64
		s.TiempoPromedioSeg = tiempo.Float64
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return stats, nil
}

// OverallStats aggregates the whole table for the reporting CLI.
func (r *PostgresRepository) OverallStats(ctx context.Context) (domain.OverallStats, error) {
	query := `SELECT
	              COUNT(*),
	              COUNT(*) FILTER (WHERE processed_at IS NOT NULL),
	              COUNT(*) FILTER (WHERE error_log IS NOT NULL),
	              COALESCE(AVG(relevancia), 0),
	              COALESCE(AVG(processing_time_seconds), 0)
	          FROM link_analysis`

	var s domain.OverallStats
	err := r.db.QueryRowContext(ctx, query).Scan(&s.Total, &s.Procesados, &s.Errores, &s.AvgRelevancia, &s.AvgSeconds)
	if err != nil {
		return domain.OverallStats{}, fmt.Errorf("query overall stats: %w", err)
	}
	return s, nil
}

// TopCategories lists categories by volume among processed rows.
func (r *PostgresRepository) TopCategories(ctx context.Context, limit uint64) ([]domain.CategoryCount, error) {
	query, args, err := psql.
		Select("categoria", "COUNT(*) AS total", "ROUND(AVG(relevancia)::numeric, 2)").
		From("link_analysis").
		Where("processed_at IS NOT NULL").
		GroupBy("categoria").
		OrderBy("total DESC").
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build categories query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var out []domain.CategoryCount
	for rows.Next() {
		var c domain.CategoryCount
		if err := rows.Scan(&c.Categoria, &c.Total, &c.AvgRelevancia); err != nil {
			return nil, fmt.Errorf("scan category row: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// TopPlatforms lists source platforms by volume among processed rows.
func (r *PostgresRepository) TopPlatforms(ctx context.Context) ([]domain.PlatformCount, error) {
	query, args, err := psql.
		Select("platform", "COUNT(*) AS total").
		From("link_analysis").
		Where("processed_at IS NOT NULL").
		GroupBy("platform").
		OrderBy("total DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build platforms query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query platforms: %w", err)
	}
	defer rows.Close()

	var out []domain.PlatformCount
	for rows.Next() {
		var p domain.PlatformCount
		if err := rows.Scan(&p.Platform, &p.Total); err != nil {
			return nil, fmt.Errorf("scan platform row: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SearchByRelevance returns the most relevant processed records.
func (r *PostgresRepository) SearchByRelevance(ctx context.Context, minRelevancia int, limit uint64) ([]domain.SearchHit, error) {
	query, args, err := psql.
		Select("id", "url", "title", "resumen_ejecutivo", "categoria", "relevancia", "platform", "created_at").
		From("link_analysis").
		Where(sq.GtOrEq{"relevancia": minRelevancia}).
		OrderBy("relevancia DESC", "created_at DESC").
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build relevance query: %w", err)
	}

	return r.queryHits(ctx, query, args...)
}

// SearchByCategory returns records of one category, most relevant first.
func (r *PostgresRepository) SearchByCategory(ctx context.Context, categoria string, limit uint64) ([]domain.SearchHit, error) {
	query, args, err := psql.
		Select("id", "url", "title", "resumen_ejecutivo", "categoria", "relevancia", "platform", "created_at").
		From("link_analysis").
		Where(sq.Eq{"categoria": categoria}).
		OrderBy("relevancia DESC", "created_at DESC").
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build category query: %w", err)
	}

	return r.queryHits(ctx, query, args...)
}

// FullTextSearch ranks stored content against a free-form term using the
// Spanish text-search dictionary.
func (r *PostgresRepository) FullTextSearch(ctx context.Context, term string, limit uint64) ([]domain.SearchHit, error) {
	query := `SELECT id, url, title, resumen_ejecutivo, categoria, relevancia, platform, created_at
	          FROM link_analysis
	          WHERE to_tsvector('spanish', contenido_completo) @@ plainto_tsquery('spanish', $1)
	          ORDER BY ts_rank(to_tsvector('spanish', contenido_completo),
	                           plainto_tsquery('spanish', $1)) DESC,
	                   relevancia DESC
	          LIMIT $2`

	return r.queryHits(ctx, query, term, limit)
}

func (r *PostgresRepository) queryHits(ctx context.Context, query string, args ...any) ([]domain.SearchHit, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query hits: %w", err)
	}
	defer rows.Close()

	var hits []domain.SearchHit
	for rows.Next() {
		var (
			h        domain.SearchHit
			title    sql.NullString
			resumen  sql.NullString
			category sql.NullString
		)
		if err := rows.Scan(&h.ID, &h.URL, &title, &resumen, &category, &h.Relevancia, &h.Platform, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan hit: %w", err)
		}
		h.Title = title.String
		h.ResumenEjecutivo = resumen.String
		h.Categoria = category.String
		hits = append(hits, h)
	}
	return hits, rows.Err()
}
