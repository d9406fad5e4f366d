package domain

import (
	"encoding/json"
	"maps"
)

// Request is the payload posted to the solver.
//
// Geometry holds serialized objects per input name (each entry is a JSON
// document of its own). Params holds scalar and boolean values read from the
// controls. Both are flattened into a single "inputs" object on the wire.
type Request struct {
	Definition string
	Geometry   map[string][]string
	Params     map[string]any
}

// NewRequest creates an empty request for a definition.
func NewRequest(definition string) *Request {
	return &Request{
		Definition: definition,
		Geometry:   make(map[string][]string),
		Params:     make(map[string]any),
	}
}

// Inputs returns the flattened input mapping. Geometry wins on name clashes.
func (r *Request) Inputs() map[string]any {
	inputs := make(map[string]any, len(r.Geometry)+len(r.Params))
	for k, v := range r.Params {
		inputs[k] = v
	}
	for k, v := range r.Geometry {
		if v == nil {
			v = []string{}
		}
		inputs[k] = v
	}
	return inputs
}

// SetGeometry replaces the geometry buckets.
func (r *Request) SetGeometry(buckets map[string][]string) {
	r.Geometry = maps.Clone(buckets)
	if r.Geometry == nil {
		r.Geometry = make(map[string][]string)
	}
}

// SetParams replaces the scalar portion of the inputs. It never merges.
func (r *Request) SetParams(params map[string]any) {
	r.Params = maps.Clone(params)
	if r.Params == nil {
		r.Params = make(map[string]any)
	}
}

// Clone returns a deep enough copy to be sent while the original keeps changing.
func (r *Request) Clone() *Request {
	c := &Request{
		Definition: r.Definition,
		Geometry:   make(map[string][]string, len(r.Geometry)),
		Params:     maps.Clone(r.Params),
	}
	for k, v := range r.Geometry {
		c.Geometry[k] = append([]string(nil), v...)
	}
	if c.Params == nil {
		c.Params = make(map[string]any)
	}
	return c
}

type wireRequest struct {
	Definition string         `json:"definition"`
	Inputs     map[string]any `json:"inputs"`
}

// MarshalJSON implements json.Marshaler.
func (r *Request) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireRequest{Definition: r.Definition, Inputs: r.Inputs()})
}
