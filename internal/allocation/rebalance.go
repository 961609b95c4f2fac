package allocation

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrAmbiguousEdit is returned when more than one item changed since the snapshot.
	ErrAmbiguousEdit = errors.New("allocation: more than one item changed")
	// ErrItemSetMismatch is returned when current and previous hold different names.
	ErrItemSetMismatch = errors.New("allocation: current and previous hold different items")
)

// ConfigurationError reports items that have no entry in the bounds table.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("allocation: no bounds configured for %s", strings.Join(e.Missing, ", "))
}

// AmbiguousEditError lists the items that changed together.
type AmbiguousEditError struct {
	Items []string
}

func (e *AmbiguousEditError) Error() string {
	return fmt.Sprintf("%s: %s", ErrAmbiguousEdit.Error(), strings.Join(e.Items, ", "))
}

func (e *AmbiguousEditError) Unwrap() error { return ErrAmbiguousEdit }

// Clamp records an item whose redistributed value fell outside its bounds.
type Clamp struct {
	Item      string  `json:"item"`
	Requested float64 `json:"requested"`
	Applied   float64 `json:"applied"`
}

// Outcome is the full result of one rebalance.
type Outcome struct {
	Set     Set     `json:"set"`
	Changed bool    `json:"changed"`
	Edited  string  `json:"edited,omitempty"`
	Delta   float64 `json:"delta"`
	Clamps  []Clamp `json:"clamps,omitempty"`
}

// Rebalance spreads the edit of a single item over the others.
//
// The edited item is the one whose percentage differs between current and previous.
// Every other item absorbs the delta in proportion to its share of the previous total
// of the other items, then gets clamped into its own bounds. The edited item keeps the
// value found in current. When nothing changed, current is returned as is with
// changed=false. Inputs are never modified.
func Rebalance(current, previous Set, bounds BoundsTable) (Set, bool, error) {
	out, err := RebalanceDetailed(current, previous, bounds)
	if err != nil {
		return nil, false, err
	}
	return out.Set, out.Changed, nil
}

// RebalanceDetailed is Rebalance plus the edited item, the delta and the clamps applied.
func RebalanceDetailed(current, previous Set, bounds BoundsTable) (Outcome, error) {
	if err := checkBounds(current, previous, bounds); err != nil {
		return Outcome{}, err
	}
	if !sameNames(current, previous) {
		return Outcome{}, ErrItemSetMismatch
	}

	edited, err := editedItem(current, previous)
	if err != nil {
		return Outcome{}, err
	}
	if edited == "" {
		return Outcome{Set: current, Changed: false}, nil
	}

	delta := current[edited].Percentual - previous[edited].Percentual
	totalOthers := 0.0
	for _, name := range previous.Names() {
		if name != edited {
			totalOthers += previous[name].Percentual
		}
	}

	updated := current.Clone()
	out := Outcome{Set: updated, Changed: true, Edited: edited, Delta: delta}

	// Others keep their current values when there is nothing to take a share from.
	if totalOthers == 0 {
		return out, nil
	}

	for _, name := range current.Names() {
		if name == edited {
			continue
		}
		proportion := previous[name].Percentual / totalOthers
		requested := current[name].Percentual - delta*proportion
		b := bounds[name]
		applied := b.Clamp(requested)
		if applied != requested {
			out.Clamps = append(out.Clamps, Clamp{Item: name, Requested: requested, Applied: applied})
		}
		it := updated[name]
		it.Percentual = applied
		updated[name] = it
	}
	return out, nil
}

func checkBounds(current, previous Set, bounds BoundsTable) error {
	seen := make(map[string]bool)
	var missing []string
	for _, s := range []Set{current, previous} {
		for name := range s {
			if _, ok := bounds[name]; ok || seen[name] {
				continue
			}
			seen[name] = true
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return &ConfigurationError{Missing: missing}
}

func sameNames(a, b Set) bool {
	if len(a) != len(b) {
		return false
	}
	for name := range a {
		if _, ok := b[name]; !ok {
			return false
		}
	}
	return true
}

// editedItem returns "" when no percentage changed.
func editedItem(current, previous Set) (string, error) {
	var changed []string
	for _, name := range current.Names() {
		if current[name].Percentual != previous[name].Percentual {
			changed = append(changed, name)
		}
	}
	switch len(changed) {
	case 0:
		return "", nil
	case 1:
		return changed[0], nil
	default:
		return "", &AmbiguousEditError{Items: changed}
	}
}
