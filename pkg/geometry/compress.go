package geometry

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/klauspost/compress/zstd"
)

var meshMagic = [4]byte{'G', 'M', 'S', 'H'}

// ErrNotCompressedMesh is returned when a string does not hold a compressed mesh.
var ErrNotCompressedMesh = errors.New("not a compressed mesh")

// MaxDecodedSize bounds the decompressed size of a document or a compressed
// mesh. Larger payloads are rejected before they are fully inflated.
const MaxDecodedSize = 64 << 20

var (
	zstdOnce sync.Once
	zstdEnc  *zstd.Encoder
	zstdDec  *zstd.Decoder
	zstdErr  error
)

// codecs returns the shared zstd encoder/decoder. EncodeAll and DecodeAll are
// safe for concurrent use.
func codecs() (*zstd.Encoder, *zstd.Decoder, error) {
	zstdOnce.Do(func() {
		zstdEnc, zstdErr = zstd.NewWriter(nil)
		if zstdErr != nil {
			return
		}
		zstdDec, zstdErr = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(MaxDecodedSize))
	})
	return zstdEnc, zstdDec, zstdErr
}

// CompressMesh packs m into a base64 string: a little-endian header and
// vertex/face arrays, zstd compressed.
func CompressMesh(m *Mesh) (string, error) {
	enc, _, err := codecs()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	buf.Write(meshMagic[:])
	binary.Write(&buf, binary.LittleEndian, uint32(len(m.Vertices)))
	binary.Write(&buf, binary.LittleEndian, uint32(len(m.Faces)))
	for _, v := range m.Vertices {
		for _, c := range v {
			binary.Write(&buf, binary.LittleEndian, math.Float64bits(c))
		}
	}
	for _, f := range m.Faces {
		for _, idx := range f {
			binary.Write(&buf, binary.LittleEndian, uint32(idx))
		}
	}

	packed := enc.EncodeAll(buf.Bytes(), nil)
	return base64.StdEncoding.EncodeToString(packed), nil
}

// DecompressMesh is the specialized decoder for compressed mesh strings.
// Any string that is not a valid encoding yields ErrNotCompressedMesh.
func DecompressMesh(s string) (*Mesh, error) {
	_, dec, err := codecs()
	if err != nil {
		return nil, err
	}

	packed, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotCompressedMesh, err)
	}
	raw, err := dec.DecodeAll(packed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotCompressedMesh, err)
	}
	if len(raw) < 12 || !bytes.Equal(raw[:4], meshMagic[:]) {
		return nil, ErrNotCompressedMesh
	}

	nv := binary.LittleEndian.Uint32(raw[4:8])
	nf := binary.LittleEndian.Uint32(raw[8:12])
	want := 12 + int(nv)*24 + int(nf)*12
	if len(raw) != want {
		return nil, fmt.Errorf("%w: size %d, expected %d", ErrNotCompressedMesh, len(raw), want)
	}

	m := &Mesh{
		Vertices: make([]Vec, nv),
		Faces:    make([][3]int, nf),
	}
	off := 12
	for i := range m.Vertices {
		for c := 0; c < 3; c++ {
			m.Vertices[i][c] = math.Float64frombits(binary.LittleEndian.Uint64(raw[off:]))
			off += 8
		}
	}
	for i := range m.Faces {
		for c := 0; c < 3; c++ {
			m.Faces[i][c] = int(binary.LittleEndian.Uint32(raw[off:]))
			off += 4
		}
	}
	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotCompressedMesh, err)
	}
	return m, nil
}
