// Package allocation keeps a constrained percentage allocation across a fixed set of
// named cost categories and rebalances it when one category is edited.
package allocation

import (
	"encoding/json"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// FonteManual marks an item whose percentage was typed in by the user.
const FonteManual = "Manual"

// TargetTotal is the total every allocation set trends toward.
const TargetTotal = 100.0

// Item is one named category of an allocation set.
type Item struct {
	Percentual float64 `json:"percentual"`
	Fonte      string  `json:"fonte"` // "Manual" or the name of a reference project
}

// UnmarshalJSON accepts both the object form and a bare number. Older project
// records stored only the percentage; those are read as manual entries.
func (it *Item) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*it = Item{Percentual: n, Fonte: FonteManual}
		return nil
	}
	type plain Item
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("allocation item: %w", err)
	}
	if p.Fonte == "" {
		p.Fonte = FonteManual
	}
	*it = Item(p)
	return nil
}

// Set maps item names to their allocation.
type Set map[string]Item

// Names returns the item names in sorted order.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a copy that shares nothing with s.
func (s Set) Clone() Set {
	if s == nil {
		return nil
	}
	out := make(Set, len(s))
	for name, it := range s {
		out[name] = it
	}
	return out
}

// Total sums every percentage, in name order so the result is reproducible.
func (s Set) Total() float64 {
	vals := make([]float64, 0, len(s))
	for _, name := range s.Names() {
		vals = append(vals, s[name].Percentual)
	}
	return floats.Sum(vals)
}

// Percentages flattens the set to name -> percentage.
func (s Set) Percentages() map[string]float64 {
	out := make(map[string]float64, len(s))
	for name, it := range s {
		out[name] = it.Percentual
	}
	return out
}

// Equal reports whether both sets hold the same names with the same items.
func (s Set) Equal(other Set) bool {
	if len(s) != len(other) {
		return false
	}
	for name, it := range s {
		o, ok := other[name]
		if !ok || o != it {
			return false
		}
	}
	return true
}

// Bounds constrains the percentage of one item.
type Bounds struct {
	Min     float64 `json:"min" yaml:"min"`
	Default float64 `json:"default" yaml:"default"`
	Max     float64 `json:"max" yaml:"max"`
}

// Clamp forces v into [Min, Max].
func (b Bounds) Clamp(v float64) float64 {
	return max(b.Min, min(v, b.Max))
}

// Contains reports whether v lies within [Min, Max].
func (b Bounds) Contains(v float64) bool {
	return v >= b.Min && v <= b.Max
}

// BoundsTable is the static per-item bounds configuration of one allocation kind.
type BoundsTable map[string]Bounds

// Names returns the configured item names in sorted order.
func (t BoundsTable) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks min <= default <= max for every entry.
func (t BoundsTable) Validate() error {
	for _, name := range t.Names() {
		b := t[name]
		if b.Min > b.Default || b.Default > b.Max {
			return fmt.Errorf("allocation: bounds for %q out of order (min=%g default=%g max=%g)",
				name, b.Min, b.Default, b.Max)
		}
	}
	return nil
}

// Defaults builds a set holding every item at its default percentage.
func Defaults(t BoundsTable) Set {
	out := make(Set, len(t))
	for name, b := range t {
		out[name] = Item{Percentual: b.Default, Fonte: FonteManual}
	}
	return out
}

// Complete returns s restricted to the names of t, filling missing names with their
// default. Unknown names in s are dropped.
func Complete(s Set, t BoundsTable) Set {
	out := make(Set, len(t))
	for name, b := range t {
		if it, ok := s[name]; ok {
			out[name] = it
			continue
		}
		out[name] = Item{Percentual: b.Default, Fonte: FonteManual}
	}
	return out
}
