package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/viabilidade/backend/internal/model"
)

const projectColumns = `id, name, land_area, private_area, units,
	sale_price_m2, land_cost_m2, construction_cost_m2, duration_months,
	floors, direct_allocation, indirect_allocation, site_administration,
	created_at, updated_at`

// PgProjectRepository は ProjectRepository の PostgreSQL 実装
// 階・配分・現場管理費は JSONB 列に保存する
type PgProjectRepository struct {
	pool *pgxpool.Pool
}

// NewPgProjectRepository は PgProjectRepository を生成する
func NewPgProjectRepository(pool *pgxpool.Pool) *PgProjectRepository {
	return &PgProjectRepository{pool: pool}
}

// List はプロジェクト一覧を更新日時の新しい順に取得する
func (r *PgProjectRepository) List(ctx context.Context, limit, offset int) ([]*model.Project, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+projectColumns+` FROM projects ORDER BY updated_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []*model.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// GetByID は ID でプロジェクトを取得する
func (r *PgProjectRepository) GetByID(ctx context.Context, id string) (*model.Project, error) {
	p, err := scanProject(r.pool.QueryRow(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = $1`, id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Create はプロジェクトを作成し、ID とタイムスタンプを設定する
func (r *PgProjectRepository) Create(ctx context.Context, project *model.Project) error {
	doc, err := encodeProjectDocs(project)
	if err != nil {
		return err
	}
	return r.pool.QueryRow(ctx,
		`INSERT INTO projects (name, land_area, private_area, units,
			sale_price_m2, land_cost_m2, construction_cost_m2, duration_months,
			floors, direct_allocation, indirect_allocation, site_administration)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING id, created_at, updated_at`,
		project.Name, project.LandArea, project.PrivateArea, project.Units,
		project.Costs.SalePricePerM2, project.Costs.LandCostPerM2, project.Costs.ConstructionCostPerM2,
		project.DurationMonths, doc.floors, doc.direct, doc.indirect, doc.site,
	).Scan(&project.ID, &project.CreatedAt, &project.UpdatedAt)
}

// Update はプロジェクト全体を上書きする
func (r *PgProjectRepository) Update(ctx context.Context, project *model.Project) error {
	doc, err := encodeProjectDocs(project)
	if err != nil {
		return err
	}
	err = r.pool.QueryRow(ctx,
		`UPDATE projects SET name=$1, land_area=$2, private_area=$3, units=$4,
			sale_price_m2=$5, land_cost_m2=$6, construction_cost_m2=$7, duration_months=$8,
			floors=$9, direct_allocation=$10, indirect_allocation=$11, site_administration=$12,
			updated_at=NOW()
		 WHERE id=$13
		 RETURNING updated_at`,
		project.Name, project.LandArea, project.PrivateArea, project.Units,
		project.Costs.SalePricePerM2, project.Costs.LandCostPerM2, project.Costs.ConstructionCostPerM2,
		project.DurationMonths, doc.floors, doc.direct, doc.indirect, doc.site,
		project.ID,
	).Scan(&project.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// Delete はプロジェクトを削除する
func (r *PgProjectRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM projects WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type projectDocs struct {
	floors, direct, indirect, site []byte
}

func encodeProjectDocs(p *model.Project) (projectDocs, error) {
	var d projectDocs
	var err error
	floors := p.Floors
	if floors == nil {
		floors = []model.Pavimento{}
	}
	if d.floors, err = json.Marshal(floors); err != nil {
		return d, fmt.Errorf("encode floors: %w", err)
	}
	if d.direct, err = json.Marshal(emptyIfNil(p.DirectAllocation)); err != nil {
		return d, fmt.Errorf("encode direct allocation: %w", err)
	}
	if d.indirect, err = json.Marshal(emptyIfNil(p.IndirectAllocation)); err != nil {
		return d, fmt.Errorf("encode indirect allocation: %w", err)
	}
	site := p.SiteAdministration
	if site == nil {
		site = map[string]float64{}
	}
	if d.site, err = json.Marshal(site); err != nil {
		return d, fmt.Errorf("encode site administration: %w", err)
	}
	return d, nil
}

func emptyIfNil[M ~map[K]V, K comparable, V any](m M) M {
	if m == nil {
		return M{}
	}
	return m
}

func scanProject(row pgx.Row) (*model.Project, error) {
	var p model.Project
	var floors, direct, indirect, site []byte
	if err := row.Scan(
		&p.ID, &p.Name, &p.LandArea, &p.PrivateArea, &p.Units,
		&p.Costs.SalePricePerM2, &p.Costs.LandCostPerM2, &p.Costs.ConstructionCostPerM2, &p.DurationMonths,
		&floors, &direct, &indirect, &site,
		&p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	for _, doc := range []struct {
		raw  []byte
		dst  any
		name string
	}{
		{floors, &p.Floors, "floors"},
		{direct, &p.DirectAllocation, "direct allocation"},
		{indirect, &p.IndirectAllocation, "indirect allocation"},
		{site, &p.SiteAdministration, "site administration"},
	} {
		if len(doc.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(doc.raw, doc.dst); err != nil {
			return nil, fmt.Errorf("decode %s: %w", doc.name, err)
		}
	}
	return &p, nil
}
