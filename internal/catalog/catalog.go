// Package catalog provides the static reference tables of a feasibility study:
// allocation bounds, floor equivalence coefficients, site administration items,
// CUB values and the defaults of a new project.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v2"

	"github.com/viabilidade/backend/internal/allocation"
	"github.com/viabilidade/backend/internal/model"
)

//go:embed catalog.yaml
var embedded []byte

// Entry is one allocation item with its bounds.
type Entry struct {
	Name    string  `yaml:"name" json:"name"`
	Min     float64 `yaml:"min" json:"min"`
	Default float64 `yaml:"default" json:"default"`
	Max     float64 `yaml:"max" json:"max"`
}

// FloorType is the range of the equivalence coefficient of a floor type (NBR 12721).
type FloorType struct {
	Name string  `yaml:"name" json:"name"`
	Min  float64 `yaml:"min" json:"min"`
	Max  float64 `yaml:"max" json:"max"`
}

// SiteItem is a monthly site administration expense.
type SiteItem struct {
	Name    string  `yaml:"name" json:"name"`
	Monthly float64 `yaml:"monthly" json:"monthly"`
}

// Defaults holds the values of a new project.
type Defaults struct {
	Floor            model.Pavimento `yaml:"floor" json:"floor"`
	model.CostConfig `yaml:",inline" json:"custos_config"`
	DurationMonths   int `yaml:"duracao_obra" json:"duracao_obra"`
}

// Catalog is the full set of reference tables.
type Catalog struct {
	Defaults           Defaults                      `yaml:"defaults" json:"defaults"`
	FloorTypes         []FloorType                   `yaml:"floor_types" json:"floor_types"`
	DirectPhases       []Entry                       `yaml:"direct_phases" json:"direct_phases"`
	IndirectCosts      []Entry                       `yaml:"indirect_costs" json:"indirect_costs"`
	SiteAdministration []SiteItem                    `yaml:"site_administration" json:"site_administration"`
	CUB                map[string]map[string]float64 `yaml:"cub" json:"cub"`
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return parse(embedded)
}

// Load reads a catalog from path. An empty path yields the embedded catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks every table for consistency.
func (c *Catalog) Validate() error {
	if len(c.DirectPhases) == 0 || len(c.IndirectCosts) == 0 {
		return errors.New("catalog: allocation tables must not be empty")
	}
	for _, kind := range model.Kinds {
		if err := c.checkUnique(kind); err != nil {
			return err
		}
		b, _ := c.Bounds(kind)
		if err := b.Validate(); err != nil {
			return fmt.Errorf("catalog %s: %w", kind, err)
		}
	}
	for _, ft := range c.FloorTypes {
		if ft.Min > ft.Max {
			return fmt.Errorf("catalog: floor type %q coefficient range out of order", ft.Name)
		}
	}
	if c.Defaults.DurationMonths < 1 {
		return errors.New("catalog: default duration must be at least one month")
	}
	return nil
}

func (c *Catalog) checkUnique(kind model.Kind) error {
	seen := make(map[string]bool)
	for _, e := range c.entries(kind) {
		if seen[e.Name] {
			return fmt.Errorf("catalog %s: duplicate item %q", kind, e.Name)
		}
		seen[e.Name] = true
	}
	return nil
}

func (c *Catalog) entries(kind model.Kind) []Entry {
	switch kind {
	case model.KindDirect:
		return c.DirectPhases
	case model.KindIndirect:
		return c.IndirectCosts
	}
	return nil
}

// Bounds returns the bounds table of an allocation kind.
func (c *Catalog) Bounds(kind model.Kind) (allocation.BoundsTable, error) {
	if kind != model.KindDirect && kind != model.KindIndirect {
		return nil, model.ErrUnknownKind
	}
	out := make(allocation.BoundsTable)
	for _, e := range c.entries(kind) {
		out[e.Name] = allocation.Bounds{Min: e.Min, Default: e.Default, Max: e.Max}
	}
	return out, nil
}

// Order returns the item names of a kind in display order.
func (c *Catalog) Order(kind model.Kind) []string {
	entries := c.entries(kind)
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names
}

// FloorType looks up a floor type by name.
func (c *Catalog) FloorType(name string) (FloorType, bool) {
	for _, ft := range c.FloorTypes {
		if ft.Name == name {
			return ft, true
		}
	}
	return FloorType{}, false
}

// SiteAdministrationDefaults returns the default monthly value of every site item.
func (c *Catalog) SiteAdministrationDefaults() map[string]float64 {
	out := make(map[string]float64, len(c.SiteAdministration))
	for _, it := range c.SiteAdministration {
		out[it.Name] = it.Monthly
	}
	return out
}

// CUBValue returns the CUB R$/m² for a state and construction standard.
func (c *Catalog) CUBValue(state, standard string) (float64, bool) {
	byStandard, ok := c.CUB[state]
	if !ok {
		return 0, false
	}
	v, ok := byStandard[standard]
	return v, ok
}

// CUBStates returns the states with CUB values, sorted.
func (c *Catalog) CUBStates() []string {
	states := make([]string, 0, len(c.CUB))
	for s := range c.CUB {
		states = append(states, s)
	}
	sort.Strings(states)
	return states
}

// NewProject returns a project filled with the default values.
func (c *Catalog) NewProject(name string) *model.Project {
	p := &model.Project{
		Name:           name,
		Costs:          c.Defaults.CostConfig,
		Floors:         []model.Pavimento{c.Defaults.Floor},
		DurationMonths: c.Defaults.DurationMonths,
	}
	c.Normalize(p)
	return p
}

// Normalize completes a project in place: allocation sets get every catalog item
// (missing ones at their default, unknown ones dropped), site administration gets
// the missing items and the duration falls back to the default.
func (c *Catalog) Normalize(p *model.Project) {
	for _, kind := range model.Kinds {
		b, _ := c.Bounds(kind)
		p.SetAllocation(kind, allocation.Complete(p.Allocation(kind), b))
	}
	if p.SiteAdministration == nil {
		p.SiteAdministration = make(map[string]float64, len(c.SiteAdministration))
	}
	for _, it := range c.SiteAdministration {
		if _, ok := p.SiteAdministration[it.Name]; !ok {
			p.SiteAdministration[it.Name] = it.Monthly
		}
	}
	if p.DurationMonths < 1 {
		p.DurationMonths = c.Defaults.DurationMonths
	}
}
