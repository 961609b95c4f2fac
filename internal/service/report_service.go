package service

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path"
	"time"

	"github.com/viabilidade/backend/internal/feasibility"
	"github.com/viabilidade/backend/internal/model"
	"github.com/viabilidade/backend/internal/report"
	"github.com/viabilidade/backend/internal/storage"
)

// ReportService は印刷用 HTML レポートの生成と保管を行う
type ReportService interface {
	Render(ctx context.Context, project *model.Project, analysis string, w io.Writer) error
	// Archive はレポートを生成してストレージに保存し、公開 URL を返す
	Archive(ctx context.Context, project *model.Project, analysis string) (string, error)
	List(ctx context.Context, projectID string) ([]storage.Object, error)
}

// ReportServiceImpl は ReportService の実装
type ReportServiceImpl struct {
	store storage.Storage
	now   func() time.Time
}

// NewReportService は ReportServiceImpl を生成する
func NewReportService(store storage.Storage) ReportService {
	return &ReportServiceImpl{store: store, now: time.Now}
}

func (s *ReportServiceImpl) data(project *model.Project, analysis string) report.Data {
	return report.Data{
		Project:     project,
		Metrics:     feasibility.Compute(project),
		Analysis:    analysis,
		GeneratedAt: s.now(),
	}
}

func (s *ReportServiceImpl) Render(_ context.Context, project *model.Project, analysis string, w io.Writer) error {
	return report.Render(w, s.data(project, analysis))
}

func (s *ReportServiceImpl) Archive(ctx context.Context, project *model.Project, analysis string) (string, error) {
	if project.ID == "" {
		return "", invalid("id", "only saved projects can archive reports")
	}
	d := s.data(project, analysis)
	var buf bytes.Buffer
	if err := report.Render(&buf, d); err != nil {
		return "", err
	}
	key := path.Join(project.ID, report.FileName(project, d.GeneratedAt))
	url, err := s.store.Save(ctx, key, &buf, "text/html; charset=utf-8")
	if err != nil {
		return "", err
	}
	slog.Info("report archived", "project_id", project.ID, "url", url)
	return url, nil
}

func (s *ReportServiceImpl) List(ctx context.Context, projectID string) ([]storage.Object, error) {
	return s.store.List(ctx, projectID)
}
