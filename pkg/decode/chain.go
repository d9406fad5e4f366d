// Package decode turns solver response trees back into geometry documents.
package decode

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/geosolve/pkg/domain"
	"github.com/aretw0/geosolve/pkg/geometry"
)

// Result is the outcome of decoding one item. A nil Object means the item
// contributes nothing. Err records why a stage produced nothing; it is
// informational and never aborts a collection.
type Result struct {
	Object  geometry.Object
	Decoder string
	Err     error
}

// Stage is one decoder in a chain. The first stage whose Match accepts the
// item decides its outcome; later stages are not consulted.
type Stage struct {
	Name   string
	Match  func(item domain.Item, payload any) bool
	Decode func(payload any) (geometry.Object, error)
}

// Chain is an ordered list of stages.
type Chain []Stage

// CompressedMeshStage handles string-tagged items by attempting the compressed
// mesh decoder.
func CompressedMeshStage() Stage {
	return Stage{
		Name: "compressed-mesh",
		Match: func(item domain.Item, _ any) bool {
			return item.Type == domain.TypeString
		},
		Decode: func(payload any) (geometry.Object, error) {
			s, ok := payload.(string)
			if !ok {
				return nil, fmt.Errorf("%w: payload is %T", geometry.ErrNotCompressedMesh, payload)
			}
			return geometry.DecompressMesh(s)
		},
	}
}

// GeneralStage handles structured payloads with the discriminator-keyed decoder.
func GeneralStage() Stage {
	return Stage{
		Name: "general",
		Match: func(_ domain.Item, payload any) bool {
			_, ok := payload.(map[string]any)
			return ok
		},
		Decode: func(payload any) (geometry.Object, error) {
			return geometry.Decode(payload.(map[string]any))
		},
	}
}

// DefaultChain tries the compressed mesh decoder for string items and the
// general decoder for structured ones.
func DefaultChain() Chain {
	return Chain{CompressedMeshStage(), GeneralStage()}
}

// Decode parses the item payload and runs it through the chain.
func (c Chain) Decode(item domain.Item) Result {
	var payload any
	if err := json.Unmarshal([]byte(item.Data), &payload); err != nil {
		return Result{Err: fmt.Errorf("failed to parse item payload: %w", err)}
	}
	for _, st := range c {
		if !st.Match(item, payload) {
			continue
		}
		obj, err := st.Decode(payload)
		if err != nil {
			return Result{Decoder: st.Name, Err: err}
		}
		return Result{Object: obj, Decoder: st.Name}
	}
	return Result{}
}
