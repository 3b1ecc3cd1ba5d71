package vectorindex

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	"github.com/custodia-labs/contracta-cli/internal/core/domain"
)

// snapshot is the on-disk form of a built index. Vectors are stored as
// little-endian float32 blobs, which JSON base64-encodes.
type snapshot struct {
	DocumentID string         `json:"document_id"`
	Dims       int            `json:"dims"`
	Chunks     []domain.Chunk `json:"chunks"`
	Vectors    [][]byte       `json:"vectors"`
}

// Encode serialises the built index for persistence.
// Returns ErrIndexNotFound when the index has not been built.
func (x *Index) Encode() ([]byte, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if len(x.chunks) == 0 {
		return nil, domain.ErrIndexNotFound
	}

	snap := snapshot{
		DocumentID: x.docID,
		Dims:       x.dims,
		Chunks:     x.chunks,
		Vectors:    make([][]byte, len(x.vectors)),
	}
	for i, v := range x.vectors {
		snap.Vectors[i] = float32SliceToBytes(v)
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encoding index: %w", err)
	}
	return data, nil
}

// Decode rebuilds an index from its serialised form.
func Decode(data []byte) (*Index, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decoding index: %w", err)
	}
	if len(snap.Chunks) != len(snap.Vectors) {
		return nil, fmt.Errorf("decoding index: %d chunks but %d vectors",
			len(snap.Chunks), len(snap.Vectors))
	}

	vectors := make([][]float32, len(snap.Vectors))
	for i, blob := range snap.Vectors {
		vectors[i] = bytesToFloat32Slice(blob)
		if len(vectors[i]) != snap.Dims {
			return nil, fmt.Errorf("decoding index: vector %d has dimension %d, expected %d",
				i, len(vectors[i]), snap.Dims)
		}
	}

	idx := New()
	if err := idx.Build(snap.DocumentID, snap.Chunks, vectors); err != nil {
		return nil, err
	}
	return idx, nil
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
