package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/viabilidade/backend/internal/model"
)

const historyDateLayout = "2006-01-02"

// PgHistoryRepository は HistoryRepository の PostgreSQL 実装
type PgHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewPgHistoryRepository は PgHistoryRepository を生成する
func NewPgHistoryRepository(pool *pgxpool.Pool) *PgHistoryRepository {
	return &PgHistoryRepository{pool: pool}
}

// List は履歴を新しい順に返す
func (r *PgHistoryRepository) List(ctx context.Context, kind model.Kind) ([]*model.HistoryEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, kind, project_name, entry_date, percentages, created_at
		 FROM allocation_history
		 WHERE $1 = '' OR kind = $1
		 ORDER BY entry_date DESC, created_at DESC`,
		string(kind),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*model.HistoryEntry
	for rows.Next() {
		e, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetByID は ID で履歴を取得する
func (r *PgHistoryRepository) GetByID(ctx context.Context, id string) (*model.HistoryEntry, error) {
	e, err := scanHistory(r.pool.QueryRow(ctx,
		`SELECT id, kind, project_name, entry_date, percentages, created_at
		 FROM allocation_history WHERE id = $1`, id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Create は履歴を追加する。Date が空なら今日の日付を使う
func (r *PgHistoryRepository) Create(ctx context.Context, entry *model.HistoryEntry) error {
	date := time.Now()
	if entry.Date != "" {
		d, err := time.Parse(historyDateLayout, entry.Date)
		if err != nil {
			return fmt.Errorf("history date: %w", err)
		}
		date = d
	}
	pct, err := json.Marshal(emptyIfNil(entry.Percentages))
	if err != nil {
		return fmt.Errorf("encode percentages: %w", err)
	}
	if err := r.pool.QueryRow(ctx,
		`INSERT INTO allocation_history (kind, project_name, entry_date, percentages)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		string(entry.Kind), entry.ProjectName, date, pct,
	).Scan(&entry.ID, &entry.CreatedAt); err != nil {
		return err
	}
	entry.Date = date.Format(historyDateLayout)
	return nil
}

func scanHistory(row pgx.Row) (*model.HistoryEntry, error) {
	var e model.HistoryEntry
	var kind string
	var date time.Time
	var pct []byte
	if err := row.Scan(&e.ID, &kind, &e.ProjectName, &date, &pct, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.Kind = model.Kind(kind)
	e.Date = date.Format(historyDateLayout)
	if err := json.Unmarshal(pct, &e.Percentages); err != nil {
		return nil, fmt.Errorf("decode percentages: %w", err)
	}
	return &e, nil
}
