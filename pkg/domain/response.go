package domain

// TypeString is the type tag of string leaves. Compressed meshes travel as strings.
const TypeString = "System.String"

// Item is one leaf of an output tree.
type Item struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

// Output is one named output of a solve, grouped by tree path.
type Output struct {
	ParamName string            `json:"ParamName,omitempty"`
	InnerTree map[string][]Item `json:"InnerTree"`
}

// SolveResponse is the body returned by a successful solve.
type SolveResponse struct {
	Values []Output `json:"values"`
}

// ItemCount returns the number of leaves across all outputs and paths.
func (r *SolveResponse) ItemCount() int {
	n := 0
	for _, out := range r.Values {
		for _, branch := range out.InnerTree {
			n += len(branch)
		}
	}
	return n
}
