package handler

import (
	"context"

	"github.com/viabilidade/backend/internal/feasibility"
	"github.com/viabilidade/backend/internal/model"
	"github.com/viabilidade/backend/internal/repository"
	"github.com/viabilidade/backend/internal/service"
)

// ---------------------------------------------------------------------------
// mockProjectService
// ---------------------------------------------------------------------------

type mockProjectService struct {
	listFunc    func(ctx context.Context, limit, offset int) ([]*model.Project, error)
	getByIDFunc func(ctx context.Context, id string) (*model.Project, error)
	createFunc  func(ctx context.Context, project *model.Project) error
	updateFunc  func(ctx context.Context, project *model.Project) error
	deleteFunc  func(ctx context.Context, id string) error
}

func (m *mockProjectService) List(ctx context.Context, limit, offset int) ([]*model.Project, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, limit, offset)
	}
	return nil, nil
}

func (m *mockProjectService) GetByID(ctx context.Context, id string) (*model.Project, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, repository.ErrNotFound
}

func (m *mockProjectService) Create(ctx context.Context, project *model.Project) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, project)
	}
	return nil
}

func (m *mockProjectService) Update(ctx context.Context, project *model.Project) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, project)
	}
	return nil
}

func (m *mockProjectService) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

// ---------------------------------------------------------------------------
// mockAllocationService
// ---------------------------------------------------------------------------

type mockAllocationService struct {
	openFunc           func(ctx context.Context, projectID string) (*service.SessionView, error)
	openNewFunc        func(ctx context.Context, name string) (*service.SessionView, error)
	getFunc            func(ctx context.Context, sessionID string) (*service.SessionView, error)
	editItemFunc       func(ctx context.Context, sessionID string, kind model.Kind, item string, percentual float64) (*service.EditResult, error)
	applyReferenceFunc func(ctx context.Context, sessionID string, kind model.Kind, item, historyID string) (*service.EditResult, error)
	resetDefaultsFunc  func(ctx context.Context, sessionID string, kind model.Kind) (*service.SessionView, error)
	updateDraftFunc    func(ctx context.Context, sessionID string, patch service.DraftPatch) (*service.SessionView, error)
	applyCUBFunc       func(ctx context.Context, sessionID, state, standard string) (*service.SessionView, error)
	saveFunc           func(ctx context.Context, sessionID string) (*model.Project, error)
	archiveFunc        func(ctx context.Context, sessionID string, kind model.Kind) (*model.HistoryEntry, error)
	resultsFunc        func(ctx context.Context, sessionID string) (*feasibility.Metrics, error)
	discardFunc        func(ctx context.Context, sessionID string) error
}

func (m *mockAllocationService) Open(ctx context.Context, projectID string) (*service.SessionView, error) {
	if m.openFunc != nil {
		return m.openFunc(ctx, projectID)
	}
	return nil, repository.ErrNotFound
}

func (m *mockAllocationService) OpenNew(ctx context.Context, name string) (*service.SessionView, error) {
	if m.openNewFunc != nil {
		return m.openNewFunc(ctx, name)
	}
	return &service.SessionView{ID: "s1", Project: &model.Project{Name: name}}, nil
}

func (m *mockAllocationService) Get(ctx context.Context, sessionID string) (*service.SessionView, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, sessionID)
	}
	return nil, service.ErrSessionNotFound
}

func (m *mockAllocationService) EditItem(ctx context.Context, sessionID string, kind model.Kind, item string, percentual float64) (*service.EditResult, error) {
	if m.editItemFunc != nil {
		return m.editItemFunc(ctx, sessionID, kind, item, percentual)
	}
	return &service.EditResult{Kind: kind}, nil
}

func (m *mockAllocationService) ApplyReference(ctx context.Context, sessionID string, kind model.Kind, item, historyID string) (*service.EditResult, error) {
	if m.applyReferenceFunc != nil {
		return m.applyReferenceFunc(ctx, sessionID, kind, item, historyID)
	}
	return &service.EditResult{Kind: kind}, nil
}

func (m *mockAllocationService) ResetDefaults(ctx context.Context, sessionID string, kind model.Kind) (*service.SessionView, error) {
	if m.resetDefaultsFunc != nil {
		return m.resetDefaultsFunc(ctx, sessionID, kind)
	}
	return &service.SessionView{ID: sessionID}, nil
}

func (m *mockAllocationService) UpdateDraft(ctx context.Context, sessionID string, patch service.DraftPatch) (*service.SessionView, error) {
	if m.updateDraftFunc != nil {
		return m.updateDraftFunc(ctx, sessionID, patch)
	}
	return &service.SessionView{ID: sessionID}, nil
}

func (m *mockAllocationService) ApplyCUB(ctx context.Context, sessionID, state, standard string) (*service.SessionView, error) {
	if m.applyCUBFunc != nil {
		return m.applyCUBFunc(ctx, sessionID, state, standard)
	}
	return &service.SessionView{ID: sessionID}, nil
}

func (m *mockAllocationService) Save(ctx context.Context, sessionID string) (*model.Project, error) {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, sessionID)
	}
	return &model.Project{ID: "p1"}, nil
}

func (m *mockAllocationService) Archive(ctx context.Context, sessionID string, kind model.Kind) (*model.HistoryEntry, error) {
	if m.archiveFunc != nil {
		return m.archiveFunc(ctx, sessionID, kind)
	}
	return &model.HistoryEntry{ID: "h1", Kind: kind}, nil
}

func (m *mockAllocationService) Results(ctx context.Context, sessionID string) (*feasibility.Metrics, error) {
	if m.resultsFunc != nil {
		return m.resultsFunc(ctx, sessionID)
	}
	return &feasibility.Metrics{}, nil
}

func (m *mockAllocationService) Discard(ctx context.Context, sessionID string) error {
	if m.discardFunc != nil {
		return m.discardFunc(ctx, sessionID)
	}
	return nil
}

// ---------------------------------------------------------------------------
// mockHistoryService
// ---------------------------------------------------------------------------

type mockHistoryService struct {
	listFunc    func(ctx context.Context, kind model.Kind) ([]*model.HistoryEntry, error)
	getByIDFunc func(ctx context.Context, id string) (*model.HistoryEntry, error)
	archiveFunc func(ctx context.Context, project *model.Project, kind model.Kind) (*model.HistoryEntry, error)
}

func (m *mockHistoryService) List(ctx context.Context, kind model.Kind) ([]*model.HistoryEntry, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, kind)
	}
	return nil, nil
}

func (m *mockHistoryService) GetByID(ctx context.Context, id string) (*model.HistoryEntry, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, repository.ErrNotFound
}

func (m *mockHistoryService) Archive(ctx context.Context, project *model.Project, kind model.Kind) (*model.HistoryEntry, error) {
	if m.archiveFunc != nil {
		return m.archiveFunc(ctx, project, kind)
	}
	return nil, nil
}

// ---------------------------------------------------------------------------
// mockAnalysisService
// ---------------------------------------------------------------------------

type mockAnalysisService struct {
	analyzeFunc func(ctx context.Context, project *model.Project) (*service.Analysis, error)
}

func (m *mockAnalysisService) Analyze(ctx context.Context, project *model.Project) (*service.Analysis, error) {
	if m.analyzeFunc != nil {
		return m.analyzeFunc(ctx, project)
	}
	return nil, service.ErrAnalysisUnavailable
}
