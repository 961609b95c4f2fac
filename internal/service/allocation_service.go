package service

import (
	"context"
	"time"

	"github.com/viabilidade/backend/internal/allocation"
	"github.com/viabilidade/backend/internal/feasibility"
	"github.com/viabilidade/backend/internal/model"
)

// AllocationService は編集セッション（プロジェクトの下書き）を操作する。
// 配分の編集はセッション内のスナップショットとの差分から再配分する。
type AllocationService interface {
	// Open は保存済みプロジェクトの編集セッションを開く
	Open(ctx context.Context, projectID string) (*SessionView, error)
	// OpenNew は未保存の新規プロジェクトの編集セッションを開く
	OpenNew(ctx context.Context, name string) (*SessionView, error)
	Get(ctx context.Context, sessionID string) (*SessionView, error)
	// EditItem は 1 項目の割合を変更し、残りの項目に差分を按分する
	EditItem(ctx context.Context, sessionID string, kind model.Kind, item string, percentual float64) (*EditResult, error)
	// ApplyReference は履歴の参照プロジェクトの値を 1 項目に適用する
	ApplyReference(ctx context.Context, sessionID string, kind model.Kind, item, historyID string) (*EditResult, error)
	// ResetDefaults は kind の配分をカタログのデフォルトに戻す
	ResetDefaults(ctx context.Context, sessionID string, kind model.Kind) (*SessionView, error)
	UpdateDraft(ctx context.Context, sessionID string, patch DraftPatch) (*SessionView, error)
	// ApplyCUB は CUB の値を建設単価に設定する
	ApplyCUB(ctx context.Context, sessionID, state, standard string) (*SessionView, error)
	// Save は下書きをプロジェクトとして保存する
	Save(ctx context.Context, sessionID string) (*model.Project, error)
	// Archive は下書きの kind の配分を履歴に保存する
	Archive(ctx context.Context, sessionID string, kind model.Kind) (*model.HistoryEntry, error)
	Results(ctx context.Context, sessionID string) (*feasibility.Metrics, error)
	Discard(ctx context.Context, sessionID string) error
}

// Totals は配分の合計と 100% からのずれ
type Totals struct {
	Total float64 `json:"total"`
	Drift float64 `json:"drift"`
}

// SessionView はセッションの API 表現
type SessionView struct {
	ID        string                `json:"id"`
	ProjectID string                `json:"project_id,omitempty"`
	Project   *model.Project        `json:"project"`
	Totals    map[model.Kind]Totals `json:"totals"`
	UpdatedAt time.Time             `json:"updated_at"`
}

// EditResult は配分編集の結果
type EditResult struct {
	Session  *SessionView       `json:"session"`
	Kind     model.Kind         `json:"kind"`
	Edited   string             `json:"edited,omitempty"`
	Changed  bool               `json:"changed"`
	Delta    float64            `json:"delta"`
	Clamps   []allocation.Clamp `json:"clamps,omitempty"`
	Warnings []string           `json:"warnings,omitempty"`
}

// DraftPatch は下書きの部分更新。nil のフィールドは変更しない
type DraftPatch struct {
	Name                  *string            `json:"nome"`
	LandArea              *float64           `json:"area_terreno"`
	PrivateArea           *float64           `json:"area_privativa"`
	Units                 *int               `json:"num_unidades"`
	SalePricePerM2        *float64           `json:"preco_medio_venda_m2"`
	LandCostPerM2         *float64           `json:"custo_terreno_m2"`
	ConstructionCostPerM2 *float64           `json:"custo_area_privativa"`
	Floors                []model.Pavimento  `json:"pavimentos"`
	SiteAdministration    map[string]float64 `json:"custos_indiretos_obra"` // merged into the draft
	DurationMonths        *int               `json:"duracao_obra"`
}

// apply は patch を p に反映する
func (d DraftPatch) apply(p *model.Project) {
	if d.Name != nil {
		p.Name = *d.Name
	}
	if d.LandArea != nil {
		p.LandArea = *d.LandArea
	}
	if d.PrivateArea != nil {
		p.PrivateArea = *d.PrivateArea
	}
	if d.Units != nil {
		p.Units = *d.Units
	}
	if d.SalePricePerM2 != nil {
		p.Costs.SalePricePerM2 = *d.SalePricePerM2
	}
	if d.LandCostPerM2 != nil {
		p.Costs.LandCostPerM2 = *d.LandCostPerM2
	}
	if d.ConstructionCostPerM2 != nil {
		p.Costs.ConstructionCostPerM2 = *d.ConstructionCostPerM2
	}
	if d.Floors != nil {
		p.Floors = append([]model.Pavimento(nil), d.Floors...)
	}
	if len(d.SiteAdministration) > 0 {
		if p.SiteAdministration == nil {
			p.SiteAdministration = make(map[string]float64, len(d.SiteAdministration))
		}
		for k, v := range d.SiteAdministration {
			p.SiteAdministration[k] = v
		}
	}
	if d.DurationMonths != nil {
		p.DurationMonths = *d.DurationMonths
	}
}

func totalsOf(p *model.Project) map[model.Kind]Totals {
	out := make(map[model.Kind]Totals, len(model.Kinds))
	for _, kind := range model.Kinds {
		total := p.Allocation(kind).Total()
		out[kind] = Totals{Total: total, Drift: total - allocation.TargetTotal}
	}
	return out
}
