package model

import (
	"errors"
	"strings"
	"time"

	"github.com/viabilidade/backend/internal/allocation"
)

// ErrUnknownKind is returned for an allocation kind other than direct or indirect.
var ErrUnknownKind = errors.New("unknown allocation kind")

// Kind identifies one of the two allocation sets of a project.
type Kind string

const (
	// KindDirect は工程別の直接工事費配分（ETAPAS）
	KindDirect Kind = "direct"
	// KindIndirect は VGV に対する間接費配分
	KindIndirect Kind = "indirect"
)

// Kinds lists every allocation kind.
var Kinds = []Kind{KindDirect, KindIndirect}

// ParseKind accepts the English identifiers and the Portuguese ones used by the
// history files ("direto", "indireto").
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "direct", "direto":
		return KindDirect, nil
	case "indirect", "indireto":
		return KindIndirect, nil
	}
	return "", ErrUnknownKind
}

// Pavimento is one floor (or group of identical floors) of the building.
type Pavimento struct {
	Name   string  `json:"nome" yaml:"nome"`
	Type   string  `json:"tipo" yaml:"tipo"`
	Rep    int     `json:"rep" yaml:"rep"`       // repetitions of this floor
	Coef   float64 `json:"coef" yaml:"coef"`     // equivalence coefficient
	Area   float64 `json:"area" yaml:"area"`     // m² per repetition
	Constr bool    `json:"constr" yaml:"constr"` // counts as built area
}

// CostConfig holds the market and cost prices of a project.
type CostConfig struct {
	SalePricePerM2        float64 `json:"preco_medio_venda_m2" yaml:"preco_medio_venda_m2"`
	LandCostPerM2         float64 `json:"custo_terreno_m2" yaml:"custo_terreno_m2"`
	ConstructionCostPerM2 float64 `json:"custo_area_privativa" yaml:"custo_area_privativa"`
}

// Project is a feasibility study.
type Project struct {
	ID          string      `json:"id"`
	Name        string      `json:"nome"`
	LandArea    float64     `json:"area_terreno"`
	PrivateArea float64     `json:"area_privativa"`
	Units       int         `json:"num_unidades"`
	Costs       CostConfig  `json:"custos_config"`
	Floors      []Pavimento `json:"pavimentos"`

	DirectAllocation   allocation.Set     `json:"etapas_percentuais"`
	IndirectAllocation allocation.Set     `json:"custos_indiretos_percentuais"`
	SiteAdministration map[string]float64 `json:"custos_indiretos_obra"` // R$/month per item
	DurationMonths     int                `json:"duracao_obra"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Allocation returns the allocation set of the given kind.
func (p *Project) Allocation(kind Kind) allocation.Set {
	if kind == KindIndirect {
		return p.IndirectAllocation
	}
	return p.DirectAllocation
}

// SetAllocation replaces the allocation set of the given kind.
func (p *Project) SetAllocation(kind Kind, s allocation.Set) {
	if kind == KindIndirect {
		p.IndirectAllocation = s
		return
	}
	p.DirectAllocation = s
}

// MonthlySiteAdministration sums the monthly site administration items.
func (p *Project) MonthlySiteAdministration() float64 {
	total := 0.0
	for _, v := range p.SiteAdministration {
		total += v
	}
	return total
}

// Clone returns a deep copy of p.
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	c := *p
	if p.Floors != nil {
		c.Floors = append([]Pavimento(nil), p.Floors...)
	}
	c.DirectAllocation = p.DirectAllocation.Clone()
	c.IndirectAllocation = p.IndirectAllocation.Clone()
	if p.SiteAdministration != nil {
		c.SiteAdministration = make(map[string]float64, len(p.SiteAdministration))
		for k, v := range p.SiteAdministration {
			c.SiteAdministration[k] = v
		}
	}
	return &c
}
