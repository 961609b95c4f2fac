package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/viabilidade/backend/internal/model"
	"github.com/viabilidade/backend/internal/repository"
)

const historyDateLayout = "2006-01-02"

// HistoryService は配分履歴（参照プロジェクト）のビジネスロジック
type HistoryService interface {
	// List は kind の履歴を返す。kind が空なら全種別
	List(ctx context.Context, kind model.Kind) ([]*model.HistoryEntry, error)
	GetByID(ctx context.Context, id string) (*model.HistoryEntry, error)
	// Archive は project の kind の配分を履歴に保存する
	Archive(ctx context.Context, project *model.Project, kind model.Kind) (*model.HistoryEntry, error)
}

// HistoryServiceImpl は HistoryService の実装
type HistoryServiceImpl struct {
	repo repository.HistoryRepository
	now  func() time.Time
}

// NewHistoryService は HistoryServiceImpl を生成する
func NewHistoryService(repo repository.HistoryRepository) HistoryService {
	return &HistoryServiceImpl{repo: repo, now: time.Now}
}

func (s *HistoryServiceImpl) List(ctx context.Context, kind model.Kind) ([]*model.HistoryEntry, error) {
	if kind != "" && kind != model.KindDirect && kind != model.KindIndirect {
		return nil, ErrUnknownKind
	}
	return s.repo.List(ctx, kind)
}

func (s *HistoryServiceImpl) GetByID(ctx context.Context, id string) (*model.HistoryEntry, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *HistoryServiceImpl) Archive(ctx context.Context, project *model.Project, kind model.Kind) (*model.HistoryEntry, error) {
	if kind != model.KindDirect && kind != model.KindIndirect {
		return nil, ErrUnknownKind
	}
	if project.Name == "" {
		return nil, invalid("nome", "project must have a name to be archived")
	}
	set := project.Allocation(kind)
	if len(set) == 0 {
		return nil, invalid(string(kind), "allocation is empty")
	}
	entry := &model.HistoryEntry{
		Kind:        kind,
		ProjectName: project.Name,
		Date:        s.now().Format(historyDateLayout),
		Percentages: set.Percentages(),
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, err
	}
	slog.Info("allocation archived", "kind", kind, "project", project.Name, "history_id", entry.ID)
	return entry, nil
}
