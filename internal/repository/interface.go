package repository

import (
	"context"

	"github.com/viabilidade/backend/internal/model"
)

// DB は DB 接続の生存確認を行うインターフェース
type DB interface {
	Ping(ctx context.Context) error
}

// ProjectRepository はプロジェクト永続化のインターフェース
type ProjectRepository interface {
	List(ctx context.Context, limit, offset int) ([]*model.Project, error)
	GetByID(ctx context.Context, id string) (*model.Project, error)
	Create(ctx context.Context, project *model.Project) error
	Update(ctx context.Context, project *model.Project) error
	Delete(ctx context.Context, id string) error
}

// HistoryRepository は配分履歴の永続化インターフェース
type HistoryRepository interface {
	// List は kind の履歴を新しい順に返す。kind が空なら全件
	List(ctx context.Context, kind model.Kind) ([]*model.HistoryEntry, error)
	GetByID(ctx context.Context, id string) (*model.HistoryEntry, error)
	Create(ctx context.Context, entry *model.HistoryEntry) error
}
