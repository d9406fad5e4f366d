package geometry

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// TypeKey is the discriminator field carried by every encoded object.
const TypeKey = "type"

var (
	// ErrUnknownKind is returned when the discriminator names no registered kind.
	ErrUnknownKind = errors.New("unknown geometry kind")

	// ErrMissingKind is returned when an encoded object carries no discriminator.
	ErrMissingKind = errors.New("missing geometry kind")
)

var registry = map[Kind]func() Object{
	KindPoint:         func() Object { return &Point{} },
	KindLineCurve:     func() Object { return &LineCurve{} },
	KindPolylineCurve: func() Object { return &PolylineCurve{} },
	KindMesh:          func() Object { return &Mesh{} },
	KindBrep:          func() Object { return &Brep{} },
	KindExtrusion:     func() Object { return &Extrusion{} },
}

// Encode converts obj to its generic map form, discriminator included.
func Encode(obj Object) (map[string]any, error) {
	body, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", obj.Kind(), err)
	}
	fields := make(map[string]any)
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", obj.Kind(), err)
	}
	fields[TypeKey] = string(obj.Kind())
	return fields, nil
}

// Marshal returns the JSON encoding of obj.
func Marshal(obj Object) ([]byte, error) {
	fields, err := Encode(obj)
	if err != nil {
		return nil, err
	}
	return json.Marshal(fields)
}

// Decode is the general-purpose decoder: it reads the discriminator from fields
// and fills the matching concrete type.
func Decode(fields map[string]any) (Object, error) {
	raw, ok := fields[TypeKey]
	if !ok {
		return nil, ErrMissingKind
	}
	name, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("%w: discriminator is %T", ErrMissingKind, raw)
	}
	factory, ok := registry[Kind(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, name)
	}

	obj := factory()
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      obj,
		ErrorUnused: false,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(fields); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", name, err)
	}
	if v, ok := obj.(validator); ok {
		if err := v.validate(); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", name, err)
		}
	}
	return obj, nil
}

// Unmarshal decodes a JSON-encoded object.
func Unmarshal(data []byte) (Object, error) {
	fields := make(map[string]any)
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("failed to parse geometry: %w", err)
	}
	return Decode(fields)
}
