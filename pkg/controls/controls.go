// Package controls models the interactive parameter controls of a viewer and
// aggregates their current values into solver inputs.
package controls

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
	"sync"
)

// Kind is the declared kind of a control.
type Kind string

const (
	KindNumber   Kind = "number"
	KindRange    Kind = "range"
	KindCheckbox Kind = "checkbox"
)

// ErrUnknownControl is returned when setting a control that does not exist.
var ErrUnknownControl = errors.New("unknown control")

// Control is one input element. Value is a float64 for number and range
// controls and a bool for checkboxes.
type Control struct {
	ID    string   `yaml:"id" json:"id"`
	Kind  Kind     `yaml:"kind" json:"kind"`
	Label string   `yaml:"label,omitempty" json:"label,omitempty"`
	Min   *float64 `yaml:"min,omitempty" json:"min,omitempty"`
	Max   *float64 `yaml:"max,omitempty" json:"max,omitempty"`
	Step  *float64 `yaml:"step,omitempty" json:"step,omitempty"`
	Value any      `yaml:"value" json:"value"`
}

// Panel is the ordered set of controls currently present.
// Safe for concurrent use.
type Panel struct {
	mu       sync.RWMutex
	controls []Control
}

// NewPanel validates the definitions and normalizes their initial values.
func NewPanel(defs []Control) (*Panel, error) {
	p := &Panel{controls: make([]Control, 0, len(defs))}
	seen := make(map[string]bool)
	for _, c := range defs {
		if c.ID == "" {
			return nil, fmt.Errorf("control without id")
		}
		if seen[c.ID] {
			return nil, fmt.Errorf("duplicate control %q", c.ID)
		}
		seen[c.ID] = true

		v, err := coerce(c, c.Value)
		if err != nil {
			return nil, fmt.Errorf("control %q: %w", c.ID, err)
		}
		c.Value = v
		p.controls = append(p.controls, c)
	}
	return p, nil
}

// Add appends a control after validating it like NewPanel does.
func (p *Panel) Add(c Control) error {
	if c.ID == "" {
		return fmt.Errorf("control without id")
	}
	v, err := coerce(c, c.Value)
	if err != nil {
		return fmt.Errorf("control %q: %w", c.ID, err)
	}
	c.Value = v

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, existing := range p.controls {
		if existing.ID == c.ID {
			return fmt.Errorf("duplicate control %q", c.ID)
		}
	}
	p.controls = append(p.controls, c)
	return nil
}

// Has reports whether a control with the given id exists.
func (p *Panel) Has(id string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, c := range p.controls {
		if c.ID == id {
			return true
		}
	}
	return false
}

// Controls returns a snapshot of every control.
func (p *Panel) Controls() []Control {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Control, len(p.controls))
	copy(out, p.controls)
	return out
}

// Set changes the value of a control. Accepted values are numbers, bools and
// their string forms.
func (p *Panel) Set(id string, value any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.controls {
		if p.controls[i].ID != id {
			continue
		}
		v, err := coerce(p.controls[i], value)
		if err != nil {
			return fmt.Errorf("control %q: %w", id, err)
		}
		p.controls[i].Value = v
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownControl, id)
}

// SetAll changes several controls at once. Every value is validated first;
// on any error no control is changed.
func (p *Panel) SetAll(values map[string]any) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	staged := make(map[int]any, len(values))
	for _, id := range slices.Sorted(maps.Keys(values)) {
		i := p.index(id)
		if i < 0 {
			return fmt.Errorf("%w: %q", ErrUnknownControl, id)
		}
		v, err := coerce(p.controls[i], values[id])
		if err != nil {
			return fmt.Errorf("control %q: %w", id, err)
		}
		staged[i] = v
	}
	for i, v := range staged {
		p.controls[i].Value = v
	}
	return nil
}

func (p *Panel) index(id string) int {
	for i := range p.controls {
		if p.controls[i].ID == id {
			return i
		}
	}
	return -1
}

// Aggregate reads every control according to its kind and returns a fresh
// mapping keyed by control id.
func (p *Panel) Aggregate() map[string]any {
	p.mu.RLock()
	defer p.mu.RUnlock()
	inputs := make(map[string]any, len(p.controls))
	for _, c := range p.controls {
		switch c.Kind {
		case KindNumber, KindRange:
			inputs[c.ID] = c.Value.(float64)
		case KindCheckbox:
			inputs[c.ID] = c.Value.(bool)
		}
	}
	return inputs
}

func coerce(c Control, value any) (any, error) {
	switch c.Kind {
	case KindNumber, KindRange:
		f, err := toFloat(value)
		if err != nil {
			return nil, err
		}
		if c.Kind == KindRange {
			if c.Min != nil {
				f = math.Max(f, *c.Min)
			}
			if c.Max != nil {
				f = math.Min(f, *c.Max)
			}
		}
		return f, nil
	case KindCheckbox:
		return toBool(value)
	}
	return nil, fmt.Errorf("unsupported kind %q", c.Kind)
}

func toFloat(v any) (float64, error) {
	f, err := parseFloat(v)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a number: %v", v)
	}
	return f, nil
}

func parseFloat(v any) (float64, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", n)
		}
		return f, nil
	}
	return 0, fmt.Errorf("not a number: %T", v)
}

func toBool(v any) (bool, error) {
	switch b := v.(type) {
	case nil:
		return false, nil
	case bool:
		return b, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "on", "1", "yes", "checked":
			return true, nil
		case "false", "off", "0", "no", "":
			return false, nil
		}
		return false, fmt.Errorf("not a boolean: %q", b)
	}
	return false, fmt.Errorf("not a boolean: %T", v)
}
