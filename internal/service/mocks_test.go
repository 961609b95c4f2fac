package service

import (
	"context"

	"github.com/viabilidade/backend/internal/model"
	"github.com/viabilidade/backend/internal/repository"
)

// ---------------------------------------------------------------------------
// Mock ProjectRepository
// ---------------------------------------------------------------------------

type mockProjectRepository struct {
	listFunc    func(ctx context.Context, limit, offset int) ([]*model.Project, error)
	getByIDFunc func(ctx context.Context, id string) (*model.Project, error)
	createFunc  func(ctx context.Context, project *model.Project) error
	updateFunc  func(ctx context.Context, project *model.Project) error
	deleteFunc  func(ctx context.Context, id string) error
}

func (m *mockProjectRepository) List(ctx context.Context, limit, offset int) ([]*model.Project, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, limit, offset)
	}
	return nil, nil
}
func (m *mockProjectRepository) GetByID(ctx context.Context, id string) (*model.Project, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, repository.ErrNotFound
}
func (m *mockProjectRepository) Create(ctx context.Context, project *model.Project) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, project)
	}
	return nil
}
func (m *mockProjectRepository) Update(ctx context.Context, project *model.Project) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, project)
	}
	return nil
}
func (m *mockProjectRepository) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Mock HistoryRepository
// ---------------------------------------------------------------------------

type mockHistoryRepository struct {
	listFunc    func(ctx context.Context, kind model.Kind) ([]*model.HistoryEntry, error)
	getByIDFunc func(ctx context.Context, id string) (*model.HistoryEntry, error)
	createFunc  func(ctx context.Context, entry *model.HistoryEntry) error
}

func (m *mockHistoryRepository) List(ctx context.Context, kind model.Kind) ([]*model.HistoryEntry, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, kind)
	}
	return nil, nil
}
func (m *mockHistoryRepository) GetByID(ctx context.Context, id string) (*model.HistoryEntry, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, repository.ErrNotFound
}
func (m *mockHistoryRepository) Create(ctx context.Context, entry *model.HistoryEntry) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, entry)
	}
	entry.ID = "h-new"
	return nil
}

// ---------------------------------------------------------------------------
// Mock gemini.Client
// ---------------------------------------------------------------------------

type mockGeminiClient struct {
	generateFunc func(ctx context.Context, prompt string) (string, error)
}

func (m *mockGeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	if m.generateFunc != nil {
		return m.generateFunc(ctx, prompt)
	}
	return "", nil
}
