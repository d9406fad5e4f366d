package geometry

// Kind is the type discriminator of an encoded object.
type Kind string

const (
	KindPoint         Kind = "Point"
	KindLineCurve     Kind = "LineCurve"
	KindPolylineCurve Kind = "PolylineCurve"
	KindMesh          Kind = "Mesh"
	KindBrep          Kind = "Brep"
	KindExtrusion     Kind = "Extrusion"
)

// Family groups kinds the way classification tables refer to them.
type Family string

const (
	FamilyPoint Family = "point"
	FamilyCurve Family = "curve"
	FamilyMesh  Family = "mesh"
	FamilySolid Family = "solid"
)

// Family returns the family a kind belongs to.
func (k Kind) Family() Family {
	switch k {
	case KindPoint:
		return FamilyPoint
	case KindLineCurve, KindPolylineCurve:
		return FamilyCurve
	case KindMesh:
		return FamilyMesh
	case KindBrep, KindExtrusion:
		return FamilySolid
	}
	return ""
}

// Kinds lists every registered kind in a stable order.
func Kinds() []Kind {
	return []Kind{KindPoint, KindLineCurve, KindPolylineCurve, KindMesh, KindBrep, KindExtrusion}
}
