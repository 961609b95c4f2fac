package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/viabilidade/backend/internal/storage"
)

func TestReportService_Render(t *testing.T) {
	svc := NewReportService(storage.NewLocalStorage(t.TempDir(), "/reports"))
	p := testCatalog(t).NewProject("Residencial Aurora")

	var buf bytes.Buffer
	if err := svc.Render(context.Background(), p, "", &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "Residencial Aurora") {
		t.Error("expected project name in report")
	}
}

func TestReportService_Archive(t *testing.T) {
	svc := &ReportServiceImpl{
		store: storage.NewLocalStorage(t.TempDir(), "/reports"),
		now:   func() time.Time { return time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC) },
	}
	p := testCatalog(t).NewProject("Residencial Aurora")
	p.ID = "p1"
	ctx := context.Background()

	url, err := svc.Archive(ctx, p, "## Análise")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "/reports/p1/relatorio_p1_20240501T093000Z.html" {
		t.Errorf("unexpected url %q", url)
	}

	objs, err := svc.List(ctx, "p1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(objs) != 1 || objs[0].Size == 0 {
		t.Errorf("expected one archived report, got %+v", objs)
	}
}

func TestReportService_Archive_RequiresSavedProject(t *testing.T) {
	svc := NewReportService(storage.NewLocalStorage(t.TempDir(), "/reports"))
	_, err := svc.Archive(context.Background(), testCatalog(t).NewProject("x"), "")
	if !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}
