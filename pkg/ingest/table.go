package ingest

import (
	"fmt"
	"slices"

	"github.com/aretw0/geosolve/pkg/geometry"
)

// Rule routes objects into a named bucket. An object matches when its kind is
// listed in Kinds or its family is listed in Families. A rule with neither
// matches every object.
type Rule struct {
	Bucket   string            `yaml:"bucket" json:"bucket"`
	Kinds    []geometry.Kind   `yaml:"kinds,omitempty" json:"kinds,omitempty"`
	Families []geometry.Family `yaml:"families,omitempty" json:"families,omitempty"`
}

func (r Rule) matches(k geometry.Kind) bool {
	if len(r.Kinds) == 0 && len(r.Families) == 0 {
		return true
	}
	return slices.Contains(r.Kinds, k) || slices.Contains(r.Families, k.Family())
}

// Table is an ordered classification table. One object may land in several buckets.
type Table []Rule

// Buckets returns the bucket names in table order.
func (t Table) Buckets() []string {
	names := make([]string, 0, len(t))
	for _, r := range t {
		if !slices.Contains(names, r.Bucket) {
			names = append(names, r.Bucket)
		}
	}
	return names
}

// Match returns the buckets an object of kind k belongs to.
func (t Table) Match(k geometry.Kind) []string {
	var out []string
	for _, r := range t {
		if r.matches(k) && !slices.Contains(out, r.Bucket) {
			out = append(out, r.Bucket)
		}
	}
	return out
}

// Validate checks that every rule names a bucket and known kinds.
func (t Table) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("classification table is empty")
	}
	known := geometry.Kinds()
	for i, r := range t {
		if r.Bucket == "" {
			return fmt.Errorf("rule %d has no bucket", i)
		}
		for _, k := range r.Kinds {
			if !slices.Contains(known, k) {
				return fmt.Errorf("rule %d (%s): unknown kind %q", i, r.Bucket, k)
			}
		}
	}
	return nil
}

// GeoUploadTable splits uploads into curves, points and solids.
func GeoUploadTable() Table {
	return Table{
		{Bucket: "Lines", Families: []geometry.Family{geometry.FamilyCurve}},
		{Bucket: "Points", Kinds: []geometry.Kind{geometry.KindPoint}},
		{Bucket: "Breps", Kinds: []geometry.Kind{geometry.KindBrep, geometry.KindExtrusion}},
	}
}

// MeshParamTable sends every uploaded object as a mesh input.
func MeshParamTable() Table {
	return Table{{Bucket: "meshes"}}
}

// Preset returns a named built-in table.
func Preset(name string) (Table, error) {
	switch name {
	case "geo_upload":
		return GeoUploadTable(), nil
	case "uploadmeshparam":
		return MeshParamTable(), nil
	}
	return nil, fmt.Errorf("unknown classification preset %q", name)
}
