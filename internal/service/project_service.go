package service

import (
	"context"
	"strings"

	"github.com/viabilidade/backend/internal/catalog"
	"github.com/viabilidade/backend/internal/model"
)

const (
	minDurationMonths = 1
	maxDurationMonths = 60
)

// ProjectService はプロジェクトに関するビジネスロジックのインターフェース
type ProjectService interface {
	List(ctx context.Context, limit, offset int) ([]*model.Project, error)
	GetByID(ctx context.Context, id string) (*model.Project, error)
	Create(ctx context.Context, project *model.Project) error
	Update(ctx context.Context, project *model.Project) error
	Delete(ctx context.Context, id string) error
}

// validateProject はプロジェクトの値を検証する
func validateProject(cat *catalog.Catalog, p *model.Project) error {
	if strings.TrimSpace(p.Name) == "" {
		return invalid("nome", "must not be empty")
	}
	for field, v := range map[string]float64{
		"area_terreno":         p.LandArea,
		"area_privativa":       p.PrivateArea,
		"preco_medio_venda_m2": p.Costs.SalePricePerM2,
		"custo_terreno_m2":     p.Costs.LandCostPerM2,
		"custo_area_privativa": p.Costs.ConstructionCostPerM2,
	} {
		if v < 0 {
			return invalid(field, "must not be negative")
		}
	}
	if p.Units < 0 {
		return invalid("num_unidades", "must not be negative")
	}
	if p.DurationMonths < minDurationMonths || p.DurationMonths > maxDurationMonths {
		return invalid("duracao_obra", "must be between %d and %d months", minDurationMonths, maxDurationMonths)
	}
	for i, f := range p.Floors {
		if f.Rep < 1 {
			return invalid("pavimentos", "floor %d: rep must be at least 1", i)
		}
		if f.Area < 0 || f.Coef < 0 {
			return invalid("pavimentos", "floor %d: area and coef must not be negative", i)
		}
		// 既知の種別は係数の範囲を確認する
		if ft, ok := cat.FloorType(f.Type); ok && (f.Coef < ft.Min || f.Coef > ft.Max) {
			return invalid("pavimentos", "floor %d: coef %g outside [%g, %g] for %q", i, f.Coef, ft.Min, ft.Max, f.Type)
		}
	}
	for name, v := range p.SiteAdministration {
		if v < 0 {
			return invalid("custos_indiretos_obra", "%q must not be negative", name)
		}
	}
	return nil
}
