package sqlite

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/latticekb/lattice/storage"
)

// encodeVector packs a float32 vector into a little-endian blob.
// A nil or empty vector encodes as nil so the column stays NULL.
func encodeVector(vector []float32) []byte {
	if len(vector) == 0 {
		return nil
	}
	blob := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}

// decodeVector unpacks a little-endian blob into a float32 vector.
func decodeVector(blob []byte) ([]float32, error) {
	if len(blob) == 0 {
		return nil, nil
	}
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("%w: %d bytes", storage.ErrInvalidVector, len(blob))
	}
	vector := make([]float32, len(blob)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vector, nil
}
