package service

import (
	"context"

	"github.com/viabilidade/backend/internal/catalog"
	"github.com/viabilidade/backend/internal/model"
	"github.com/viabilidade/backend/internal/repository"
)

// ProjectServiceImpl は ProjectService の実装
type ProjectServiceImpl struct {
	repo    repository.ProjectRepository
	catalog *catalog.Catalog
}

// NewProjectService は ProjectServiceImpl を生成する
func NewProjectService(repo repository.ProjectRepository, cat *catalog.Catalog) ProjectService {
	return &ProjectServiceImpl{repo: repo, catalog: cat}
}

// List はプロジェクト一覧を返す
func (s *ProjectServiceImpl) List(ctx context.Context, limit, offset int) ([]*model.Project, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, limit, offset)
}

// GetByID はプロジェクトを取得し、カタログの項目で補完して返す
func (s *ProjectServiceImpl) GetByID(ctx context.Context, id string) (*model.Project, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.catalog.Normalize(p)
	return p, nil
}

// Create は未入力項目をデフォルトで補完してからプロジェクトを作成する
func (s *ProjectServiceImpl) Create(ctx context.Context, project *model.Project) error {
	if project.Floors == nil {
		project.Floors = []model.Pavimento{s.catalog.Defaults.Floor}
	}
	if project.Costs == (model.CostConfig{}) {
		project.Costs = s.catalog.Defaults.CostConfig
	}
	s.catalog.Normalize(project)
	if err := validateProject(s.catalog, project); err != nil {
		return err
	}
	return s.repo.Create(ctx, project)
}

// Update はプロジェクトを上書きする
func (s *ProjectServiceImpl) Update(ctx context.Context, project *model.Project) error {
	s.catalog.Normalize(project)
	if err := validateProject(s.catalog, project); err != nil {
		return err
	}
	return s.repo.Update(ctx, project)
}

// Delete はプロジェクトを削除する
func (s *ProjectServiceImpl) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
