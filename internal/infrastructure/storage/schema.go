package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaStatements are applied in order at startup. All statements are
// idempotent so repeated boots are safe.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS link_analysis (
	    id BIGSERIAL PRIMARY KEY,
	    url TEXT UNIQUE NOT NULL,
	    platform TEXT,
	    author TEXT,
	    title TEXT,
	    resumen_ejecutivo TEXT,
	    temas_principales TEXT[],
	    insights_clave TEXT[],
	    relevancia INTEGER,
	    categoria TEXT,
	    tipo_contenido TEXT,
	    contenido_completo TEXT,
	    whatsapp_sender TEXT,
	    processing_time_seconds DOUBLE PRECISION,
	    processed_at TIMESTAMPTZ,
	    error_log TEXT,
	    created_at TIMESTAMPTZ DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_link_analysis_platform ON link_analysis (platform)`,
	`CREATE INDEX IF NOT EXISTS idx_link_analysis_categoria ON link_analysis (categoria)`,
	`CREATE INDEX IF NOT EXISTS idx_link_analysis_relevancia ON link_analysis (relevancia DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_link_analysis_created_at ON link_analysis (created_at DESC)`,
	`CREATE OR REPLACE VIEW stats_daily AS
	    SELECT
	        DATE(created_at) AS fecha,
	        COUNT(*) AS total_procesados,
	        AVG(relevancia) AS relevancia_promedio,
	        AVG(processing_time_seconds) AS tiempo_promedio_seg
	    FROM link_analysis
	    WHERE created_at > NOW() - INTERVAL '7 days'
	    GROUP BY DATE(created_at)
	    ORDER BY fecha DESC`,
}

// EnsureSchema creates the table, indexes and reporting view if missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement: %w", err)
		}
	}
	return nil
}
