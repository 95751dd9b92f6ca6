// Command linkstats prints a short report over the stored link analyses.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"LinkAnalyzer/internal/config"
	"LinkAnalyzer/internal/infrastructure/storage"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}

	db, err := storage.Open(cfg.Database)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open database:", err)
		os.Exit(1)
	}
	defer db.Close()

	repo := storage.NewPostgresRepository(db)
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// With arguments the command switches to full-text search mode.
	if len(os.Args) > 1 {
		term := strings.Join(os.Args[1:], " ")
		if err := search(ctx, repo, term); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	if err := run(ctx, repo); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func search(ctx context.Context, repo *storage.PostgresRepository, term string) error {
	hits, err := repo.FullTextSearch(ctx, term, 10)
	if err != nil {
		return fmt.Errorf("full-text search: %w", err)
	}

	if len(hits) == 0 {
		fmt.Printf("🔍 Sin resultados para %q\n", term)
		return nil
	}

	fmt.Printf("🔍 RESULTADOS PARA %q\n", term)
	for _, h := range hits {
		title := h.Title
		if title == "" {
			title = h.URL
		}
		fmt.Printf("  [%d/5] %s\n        %s\n", h.Relevancia, title, h.URL)
		if h.ResumenEjecutivo != "" {
			fmt.Printf("        %s\n", h.ResumenEjecutivo)
		}
	}

	return nil
}

func run(ctx context.Context, repo *storage.PostgresRepository) error {
	overall, err := repo.OverallStats(ctx)
	if err != nil {
		return fmt.Errorf("overall stats: %w", err)
	}

	fmt.Println("📊 RESUMEN GENERAL")
	fmt.Printf("  Total registrado:   %d\n", overall.Total)
	fmt.Printf("  Procesados:         %d\n", overall.Procesados)
	fmt.Printf("  Con errores:        %d\n", overall.Errores)
	fmt.Printf("  Relevancia media:   %.2f\n", overall.AvgRelevancia)
	fmt.Printf("  Tiempo medio (s):   %.1f\n", overall.AvgSeconds)

	daily, err := repo.RecentStats(ctx)
	if err != nil {
		return fmt.Errorf("recent stats: %w", err)
	}
	if len(daily) > 0 {
		fmt.Println("\n📅 ÚLTIMOS 7 DÍAS")
		for _, d := range daily {
			fmt.Printf("  %s  %3d procesados  relevancia %.2f  %.1fs\n",
				d.Fecha.Format("2006-01-02"), d.TotalProcesados, d.RelevanciaPromedio, d.TiempoPromedioSeg)
		}
	}

	categories, err := repo.TopCategories(ctx, 10)
	if err != nil {
		return fmt.Errorf("top categories: %w", err)
	}
	if len(categories) > 0 {
		fmt.Println("\n🏷️ CATEGORÍAS")
		for _, c := range categories {
			fmt.Printf("  %-20s %3d  (relevancia %.2f)\n", c.Categoria, c.Total, c.AvgRelevancia)
		}
	}

	platforms, err := repo.TopPlatforms(ctx)
	if err != nil {
		return fmt.Errorf("top platforms: %w", err)
	}
	if len(platforms) > 0 {
		fmt.Println("\n🌐 PLATAFORMAS")
		for _, p := range platforms {
			fmt.Printf("  %-12s %3d\n", p.Platform, p.Total)
		}
	}

	hits, err := repo.SearchByRelevance(ctx, 4, 10)
	if err != nil {
		return fmt.Errorf("top links: %w", err)
	}
	if len(hits) > 0 {
		fmt.Println("\n⭐ MÁS RELEVANTES")
		for _, h := range hits {
			title := h.Title
			if title == "" {
				title = h.URL
			}
			fmt.Printf("  [%d/5] %s\n        %s\n", h.Relevancia, title, h.URL)
		}
	}

	return nil
}
