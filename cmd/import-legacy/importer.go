package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	hjson "github.com/hjson/hjson-go/v4"

	"github.com/viabilidade/backend/internal/model"
	"github.com/viabilidade/backend/internal/repository"
	"github.com/viabilidade/backend/internal/service"
)

// Files は旧ツールの JSON ファイルのパス
type Files struct {
	Projects        string
	DirectHistory   string
	IndirectHistory string
}

// Stats は取り込み件数
type Stats struct {
	Projects int
	History  int
	Skipped  int
}

// legacyProject は旧 projects.json の 1 件。id は整数、created_at はタイムゾーンなしの ISO 文字列
type legacyProject struct {
	model.Project
	LegacyID  json.RawMessage `json:"id"`
	CreatedAt string          `json:"created_at"`
}

type legacyHistory struct {
	LegacyID    json.RawMessage    `json:"id"`
	Name        string             `json:"nome"`
	Date        string             `json:"data"`
	Percentages map[string]float64 `json:"percentuais"`
}

type importer struct {
	projects service.ProjectService
	history  repository.HistoryRepository
	dryRun   bool
}

// Run は 3 ファイルを順に取り込む。存在しないファイルは読み飛ばす。
// 検証に失敗したプロジェクトは警告を出してスキップする
func (im *importer) Run(ctx context.Context, files Files) (Stats, error) {
	var stats Stats

	var projects []legacyProject
	found, err := parseLegacyFile(files.Projects, &projects)
	if err != nil {
		return stats, err
	}
	if found {
		for i := range projects {
			p := projects[i].Project
			p.ID = ""
			if im.dryRun {
				stats.Projects++
				continue
			}
			if err := im.projects.Create(ctx, &p); err != nil {
				if errors.Is(err, service.ErrValidation) {
					slog.Warn("legacy project skipped", "legacy_id", string(projects[i].LegacyID), "nome", p.Name, "error", err)
					stats.Skipped++
					continue
				}
				return stats, fmt.Errorf("import project %q: %w", p.Name, err)
			}
			slog.Info("legacy project imported", "legacy_id", string(projects[i].LegacyID), "id", p.ID)
			stats.Projects++
		}
	}

	for kind, path := range map[model.Kind]string{
		model.KindDirect:   files.DirectHistory,
		model.KindIndirect: files.IndirectHistory,
	} {
		n, err := im.importHistory(ctx, kind, path)
		if err != nil {
			return stats, err
		}
		stats.History += n
	}
	return stats, nil
}

func (im *importer) importHistory(ctx context.Context, kind model.Kind, path string) (int, error) {
	var entries []legacyHistory
	found, err := parseLegacyFile(path, &entries)
	if err != nil || !found {
		return 0, err
	}
	n := 0
	for _, e := range entries {
		if e.Name == "" || len(e.Percentages) == 0 {
			slog.Warn("legacy history entry skipped", "kind", kind, "legacy_id", string(e.LegacyID))
			continue
		}
		entry := &model.HistoryEntry{
			Kind:        kind,
			ProjectName: e.Name,
			Date:        e.Date,
			Percentages: e.Percentages,
		}
		if !im.dryRun {
			if err := im.history.Create(ctx, entry); err != nil {
				return n, fmt.Errorf("import %s history %q: %w", kind, e.Name, err)
			}
		}
		n++
	}
	return n, nil
}

// parseLegacyFile は path を寛容に（コメントや末尾カンマを許して）読み込み v にデコードする。
// ファイルが無ければ found=false を返す
func parseLegacyFile(path string, v any) (found bool, err error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Warn("legacy file not found, skipping", "path", path)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := parseLegacy(data, v); err != nil {
		return false, fmt.Errorf("%s: %w", path, err)
	}
	return true, nil
}

// parseLegacy は hjson で読み、標準 JSON を経由して v にデコードする。
// 経由させることで allocation.Item の旧形式（数値のみ）も解釈される
func parseLegacy(data []byte, v any) error {
	var tree any
	if err := hjson.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("parse legacy json: %w", err)
	}
	normalized, err := json.Marshal(tree)
	if err != nil {
		return fmt.Errorf("normalize legacy json: %w", err)
	}
	return json.Unmarshal(normalized, v)
}
