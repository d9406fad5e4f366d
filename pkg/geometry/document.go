package geometry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"cogentcore.org/core/math32"
)

// FileExtension is the extension used for saved documents.
const FileExtension = ".gdm"

var docMagic = [4]byte{'G', 'D', 'M', '1'}

var (
	// ErrNotDocument is returned by ReadDocument for bytes that are not a document.
	ErrNotDocument = errors.New("not a geometry document")

	// ErrReleased is returned when a released document is used.
	ErrReleased = errors.New("document released")
)

var live atomic.Int64

// LiveDocuments reports the number of documents created and not yet released.
func LiveDocuments() int64 {
	return live.Load()
}

// Mode controls object visibility.
type Mode string

const (
	ModeNormal Mode = "normal"
	ModeHidden Mode = "hidden"
)

// Attributes is per-object metadata stored in a document.
type Attributes struct {
	Name  string `json:"name,omitempty"`
	Layer string `json:"layer,omitempty"`
	Mode  Mode   `json:"mode,omitempty"`
	Color string `json:"color,omitempty"`
}

// Entry pairs an object with its attributes.
type Entry struct {
	Attributes Attributes
	Geometry   Object
}

// Document is a mutable collection of objects with an explicit lifetime.
type Document struct {
	mu       sync.RWMutex
	entries  []Entry
	released bool
}

// NewDocument creates an empty document. The caller owns it and must Release it.
func NewDocument() *Document {
	live.Add(1)
	return &Document{}
}

// Add appends obj. A nil attrs means no metadata.
func (d *Document) Add(obj Object, attrs *Attributes) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.released {
		return ErrReleased
	}
	e := Entry{Geometry: obj}
	if attrs != nil {
		e.Attributes = *attrs
	}
	d.entries = append(d.entries, e)
	return nil
}

// Count returns the number of objects.
func (d *Document) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entries)
}

// Entries returns a copy of the document contents. A released document has none.
func (d *Document) Entries() []Entry {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Entry, len(d.entries))
	copy(out, d.entries)
	return out
}

// Bounds is the union of the visible objects' bounds.
func (d *Document) Bounds() math32.Box3 {
	box := math32.B3Empty()
	for _, e := range d.Entries() {
		if e.Attributes.Mode == ModeHidden {
			continue
		}
		if b := e.Geometry.Bounds(); !b.IsEmpty() {
			box.ExpandByBox(b)
		}
	}
	return box
}

// Released reports whether Release has been called.
func (d *Document) Released() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.released
}

// Release frees the document. It is safe to call more than once.
func (d *Document) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.released {
		return
	}
	d.released = true
	d.entries = nil
	live.Add(-1)
}

type fileBody struct {
	Objects []fileObject `json:"objects"`
}

type fileObject struct {
	Attributes Attributes      `json:"attributes"`
	Geometry   json.RawMessage `json:"geometry"`
}

// Bytes serializes the document to its binary container form.
func (d *Document) Bytes() ([]byte, error) {
	d.mu.RLock()
	if d.released {
		d.mu.RUnlock()
		return nil, ErrReleased
	}
	entries := make([]Entry, len(d.entries))
	copy(entries, d.entries)
	d.mu.RUnlock()

	body := fileBody{Objects: make([]fileObject, 0, len(entries))}
	for _, e := range entries {
		g, err := Marshal(e.Geometry)
		if err != nil {
			return nil, err
		}
		body.Objects = append(body.Objects, fileObject{Attributes: e.Attributes, Geometry: g})
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}

	enc, _, err := codecs()
	if err != nil {
		return nil, err
	}
	out := append([]byte{}, docMagic[:]...)
	return enc.EncodeAll(raw, out), nil
}

// ReadDocument decodes a binary container. The returned document must be released.
func ReadDocument(data []byte) (*Document, error) {
	if len(data) < len(docMagic) || !bytes.Equal(data[:len(docMagic)], docMagic[:]) {
		return nil, ErrNotDocument
	}
	_, dec, err := codecs()
	if err != nil {
		return nil, err
	}
	raw, err := dec.DecodeAll(data[len(docMagic):], nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotDocument, err)
	}
	var body fileBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotDocument, err)
	}

	doc := NewDocument()
	for i, fo := range body.Objects {
		obj, err := Unmarshal(fo.Geometry)
		if err != nil {
			doc.Release()
			return nil, fmt.Errorf("%w: object %d: %v", ErrNotDocument, i, err)
		}
		attrs := fo.Attributes
		doc.Add(obj, &attrs)
	}
	return doc, nil
}
