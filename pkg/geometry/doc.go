/*
Package geometry is the small geometry kernel used by geosolve.

It plays the role a CAD-kernel binding plays in a browser front-end: it knows how
to decode a model document from bytes, how to serialize individual objects to the
JSON form expected by the remote solver, and how to decode the objects that come
back.

# Object Encoding

Every object serializes to a JSON object carrying a "type" discriminator:

	{"type": "LineCurve", "from": [0, 0, 0], "to": [1, 0, 0]}

The general decoder (Decode) resolves the discriminator through a registry and
fills the concrete type. Meshes can also travel as a compressed string
(CompressMesh / DecompressMesh), which is how solvers return heavy meshes.

# Documents

A Document is a mutable collection of objects. It holds an explicit lifetime:
callers must Release it before discarding it. LiveDocuments reports how many
documents are currently unreleased, which makes leaks visible in tests.
*/
package geometry
