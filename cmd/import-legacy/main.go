// Command import-legacy loads the JSON stores of the previous tool
// (projects.json, historico_direto.json, historico_indireto.json) into Postgres.
package main

import (
	"context"
	"flag"
	"log/slog"
	"path/filepath"

	"github.com/viabilidade/backend/internal/catalog"
	"github.com/viabilidade/backend/internal/config"
	"github.com/viabilidade/backend/internal/logging"
	"github.com/viabilidade/backend/internal/repository"
	"github.com/viabilidade/backend/internal/service"
)

func main() {
	dir := flag.String("dir", ".", "directory holding the legacy JSON files")
	dryRun := flag.Bool("dry-run", false, "parse and validate without writing")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.Setup("")
		logging.Fatal("invalid configuration", "error", err)
	}
	logging.Setup(cfg.LogLevel)

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		logging.Fatal("failed to load catalog", "error", err)
	}

	ctx := context.Background()
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logging.Fatal("failed to connect to database", "error", err)
	}
	defer pool.Close()

	imp := &importer{
		projects: service.NewProjectService(repository.NewPgProjectRepository(pool), cat),
		history:  repository.NewPgHistoryRepository(pool),
		dryRun:   *dryRun,
	}
	stats, err := imp.Run(ctx, Files{
		Projects:        filepath.Join(*dir, "projects.json"),
		DirectHistory:   filepath.Join(*dir, "historico_direto.json"),
		IndirectHistory: filepath.Join(*dir, "historico_indireto.json"),
	})
	if err != nil {
		logging.Fatal("import failed", "error", err)
	}
	slog.Info("import completed",
		"projects", stats.Projects,
		"history", stats.History,
		"skipped", stats.Skipped,
		"dry_run", *dryRun,
	)
}
