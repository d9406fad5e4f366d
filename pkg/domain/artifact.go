package domain

import "errors"

// ErrArtifactNotFound is returned when an exported artifact cannot be found.
var ErrArtifactNotFound = errors.New("artifact not found")

// Artifact is a downloadable file produced by the exporter.
type Artifact struct {
	Filename string
	MIME     string
	Data     []byte
}
