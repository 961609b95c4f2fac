// Package feasibility computes the areas, costs and financial indicators of a project.
// Every ratio whose denominator is zero evaluates to 0.
package feasibility

import (
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/viabilidade/backend/internal/allocation"
	"github.com/viabilidade/backend/internal/model"
)

// FloorLine is the computed row of one floor.
type FloorLine struct {
	model.Pavimento
	TotalArea      float64 `json:"area_total"`
	EquivalentArea float64 `json:"area_eq"`
	BuiltArea      float64 `json:"area_constr"`
	DirectCost     float64 `json:"custo_direto"`
}

// TypeCost is the direct cost of every floor sharing a type.
type TypeCost struct {
	Type       string  `json:"tipo"`
	DirectCost float64 `json:"custo_direto"`
}

// AreaSummary is the result of Areas.
type AreaSummary struct {
	BuiltArea      float64     `json:"area_construida"`
	EquivalentArea float64     `json:"area_equivalente"`
	DirectCost     float64     `json:"custo_direto"`
	Floors         []FloorLine `json:"pavimentos"`
	ByType         []TypeCost  `json:"por_tipo"`
}

// Areas computes per-floor areas and the direct cost at costPerM2 of equivalent area.
func Areas(floors []model.Pavimento, costPerM2 float64) AreaSummary {
	var s AreaSummary
	byType := make(map[string]float64)
	built := make([]float64, 0, len(floors))
	eq := make([]float64, 0, len(floors))
	cost := make([]float64, 0, len(floors))

	for _, f := range floors {
		line := FloorLine{Pavimento: f}
		line.TotalArea = f.Area * float64(f.Rep)
		line.EquivalentArea = line.TotalArea * f.Coef
		if f.Constr {
			line.BuiltArea = line.TotalArea
		}
		line.DirectCost = line.EquivalentArea * costPerM2

		built = append(built, line.BuiltArea)
		eq = append(eq, line.EquivalentArea)
		cost = append(cost, line.DirectCost)
		byType[f.Type] += line.DirectCost
		s.Floors = append(s.Floors, line)
	}
	s.BuiltArea = floats.Sum(built)
	s.EquivalentArea = floats.Sum(eq)
	s.DirectCost = floats.Sum(cost)

	for t, c := range byType {
		s.ByType = append(s.ByType, TypeCost{Type: t, DirectCost: c})
	}
	sort.Slice(s.ByType, func(i, j int) bool { return s.ByType[i].Type < s.ByType[j].Type })
	return s
}

// ItemCost is the money value of one allocation item.
type ItemCost struct {
	Name       string  `json:"nome"`
	Percentual float64 `json:"percentual"`
	Fonte      string  `json:"fonte"`
	Value      float64 `json:"valor"`
}

// Breakdown spreads base over the items of set, in name order.
func Breakdown(base float64, set allocation.Set) ([]ItemCost, float64) {
	lines := make([]ItemCost, 0, len(set))
	values := make([]float64, 0, len(set))
	for _, name := range set.Names() {
		it := set[name]
		v := base * it.Percentual / 100
		lines = append(lines, ItemCost{Name: name, Percentual: it.Percentual, Fonte: it.Fonte, Value: v})
		values = append(values, v)
	}
	return lines, floats.Sum(values)
}

// PhaseCosts returns the cost of each construction phase and their adjusted total.
func PhaseCosts(baseDirect float64, phases allocation.Set) ([]ItemCost, float64) {
	return Breakdown(baseDirect, phases)
}

// Composition is the share of each cost group in the total, in percent.
type Composition struct {
	Direct        float64 `json:"custo_direto"`
	IndirectSales float64 `json:"custo_indireto_venda"`
	IndirectSite  float64 `json:"custo_indireto_obra"`
	Land          float64 `json:"custo_terreno"`
}

// Indicators are per-area and per-unit ratios.
type Indicators struct {
	LandShare          float64 `json:"terreno_custo_total"` // % of total cost
	DirectPerM2        float64 `json:"custo_direto_m2"`
	IndirectPerM2      float64 `json:"custo_indireto_m2"`
	TotalPerM2         float64 `json:"custo_total_m2"`
	BuiltToPrivate     float64 `json:"indice_ac_ap"`
	CostPerUnit        float64 `json:"custo_por_unidade"`
	IndirectShareOfVGV float64 `json:"indireto_vgv"` // %
}

// Metrics is the full financial result of a project.
type Metrics struct {
	ProjectName    string  `json:"nome"`
	PrivateArea    float64 `json:"area_privativa"`
	LandArea       float64 `json:"area_terreno"`
	Units          int     `json:"num_unidades"`
	BuiltArea      float64 `json:"area_construida"`
	EquivalentArea float64 `json:"area_equivalente"`

	VGV           float64 `json:"vgv_total"`
	DirectCost    float64 `json:"custo_direto"`
	IndirectSales float64 `json:"custo_indireto_venda"`
	IndirectSite  float64 `json:"custo_indireto_obra"`
	SiteMonthly   float64 `json:"custo_indireto_obra_mensal"`
	LandCost      float64 `json:"custo_terreno"`
	TotalCost     float64 `json:"custo_total"`
	Profit        float64 `json:"lucro_bruto"`
	Margin        float64 `json:"margem_lucro"` // % of VGV

	Composition Composition `json:"composicao"`
	Indicators  Indicators  `json:"indicadores"`

	Floors        []FloorLine `json:"pavimentos"`
	DirectByType  []TypeCost  `json:"custo_direto_por_tipo"`
	Phases        []ItemCost  `json:"etapas"`
	PhasesTotal   float64     `json:"etapas_total"`
	IndirectItems []ItemCost  `json:"custos_indiretos"`
}

// Compute derives every financial metric of p.
func Compute(p *model.Project) Metrics {
	areas := Areas(p.Floors, p.Costs.ConstructionCostPerM2)
	m := Metrics{
		ProjectName:    p.Name,
		PrivateArea:    p.PrivateArea,
		LandArea:       p.LandArea,
		Units:          p.Units,
		BuiltArea:      areas.BuiltArea,
		EquivalentArea: areas.EquivalentArea,
		DirectCost:     areas.DirectCost,
		Floors:         areas.Floors,
		DirectByType:   areas.ByType,
	}

	m.VGV = p.PrivateArea * p.Costs.SalePricePerM2
	m.IndirectItems, m.IndirectSales = Breakdown(m.VGV, p.IndirectAllocation)
	m.Phases, m.PhasesTotal = PhaseCosts(m.DirectCost, p.DirectAllocation)
	m.SiteMonthly = p.MonthlySiteAdministration()
	m.IndirectSite = m.SiteMonthly * float64(p.DurationMonths)
	m.LandCost = p.LandArea * p.Costs.LandCostPerM2

	m.TotalCost = floats.Sum([]float64{m.DirectCost, m.IndirectSales, m.IndirectSite, m.LandCost})
	m.Profit = m.VGV - m.TotalCost
	m.Margin = percent(m.Profit, m.VGV)

	m.Composition = Composition{
		Direct:        percent(m.DirectCost, m.TotalCost),
		IndirectSales: percent(m.IndirectSales, m.TotalCost),
		IndirectSite:  percent(m.IndirectSite, m.TotalCost),
		Land:          percent(m.LandCost, m.TotalCost),
	}
	m.Indicators = Indicators{
		LandShare:          m.Composition.Land,
		DirectPerM2:        ratio(m.DirectCost, m.BuiltArea),
		IndirectPerM2:      ratio(m.IndirectSales+m.IndirectSite, m.BuiltArea),
		TotalPerM2:         ratio(m.TotalCost, m.BuiltArea),
		BuiltToPrivate:     ratio(m.BuiltArea, m.PrivateArea),
		CostPerUnit:        ratio(m.TotalCost, float64(m.Units)),
		IndirectShareOfVGV: percent(m.IndirectSales, m.VGV),
	}
	return m
}

func ratio(num, den float64) float64 {
	if den <= 0 {
		return 0
	}
	return num / den
}

func percent(num, den float64) float64 {
	return ratio(num, den) * 100
}
