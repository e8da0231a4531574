package flowio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/fxamacker/cbor/v2"

	"github.com/banshee-data/opticflow/internal/flow"
)

// RFC 8746 tags.
const (
	tagMultiDimArray = 40
	tagFloat32LE     = 85
	tagFloat64LE     = 86
)

// EncodeCBOR encodes f as an RFC 8746 row-major multi-dimensional array of
// shape [height, width, 2] holding little-endian float64 (u, v) pairs.
func EncodeCBOR(w io.Writer, f *flow.Field) error {
	data := make([]byte, 16*len(f.U.Pix))
	for i := range f.U.Pix {
		binary.LittleEndian.PutUint64(data[16*i:], math.Float64bits(f.U.Pix[i]))
		binary.LittleEndian.PutUint64(data[16*i+8:], math.Float64bits(f.V.Pix[i]))
	}
	doc := cbor.Tag{
		Number: tagMultiDimArray,
		Content: []any{
			[]int{f.Height(), f.Width(), 2},
			cbor.Tag{Number: tagFloat64LE, Content: data},
		},
	}
	if err := cbor.NewEncoder(w).Encode(doc); err != nil {
		return fmt.Errorf("failed to encode flow CBOR: %w", err)
	}
	return nil
}

// DecodeCBOR reads a field written by EncodeCBOR. float32 payloads
// (tag 85) are accepted as well.
func DecodeCBOR(r io.Reader) (*flow.Field, error) {
	var value any
	if err := cbor.NewDecoder(r).Decode(&value); err != nil {
		return nil, fmt.Errorf("failed to decode flow CBOR: %w", err)
	}

	tag, ok := value.(cbor.Tag)
	if !ok || tag.Number != tagMultiDimArray {
		return nil, fmt.Errorf("%w: expected multidim tag 40", ErrFormat)
	}
	items, ok := tag.Content.([]any)
	if !ok || len(items) != 2 {
		return nil, fmt.Errorf("%w: invalid multidim array content", ErrFormat)
	}
	dimsRaw, ok := items[0].([]any)
	if !ok || len(dimsRaw) != 3 {
		return nil, fmt.Errorf("%w: flow array must have 3 dimensions", ErrFormat)
	}
	var dims [3]int
	for i, d := range dimsRaw {
		n, err := toInt(d)
		if err != nil {
			return nil, err
		}
		dims[i] = n
	}
	rows, cols := dims[0], dims[1]
	if rows <= 0 || cols <= 0 || dims[2] != 2 {
		return nil, fmt.Errorf("%w: invalid flow shape %v", ErrFormat, dims)
	}

	flat, err := decodeTypedArray(items[1])
	if err != nil {
		return nil, err
	}
	if len(flat) != rows*cols*2 {
		return nil, fmt.Errorf("%w: %d values for shape %v", ErrFormat, len(flat), dims)
	}

	f := flow.NewField(cols, rows)
	for i := range f.U.Pix {
		f.U.Pix[i] = flat[2*i]
		f.V.Pix[i] = flat[2*i+1]
	}
	return f, nil
}

func decodeTypedArray(value any) ([]float64, error) {
	tag, ok := value.(cbor.Tag)
	if !ok {
		return nil, fmt.Errorf("%w: expected typed array tag", ErrFormat)
	}
	data, ok := tag.Content.([]byte)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported typed array content %T", ErrFormat, tag.Content)
	}

	switch tag.Number {
	case tagFloat64LE:
		if len(data)%8 != 0 {
			return nil, fmt.Errorf("%w: float64 array of %d bytes", ErrFormat, len(data))
		}
		out := make([]float64, len(data)/8)
		for i := range out {
			out[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
		}
		return out, nil
	case tagFloat32LE:
		if len(data)%4 != 0 {
			return nil, fmt.Errorf("%w: float32 array of %d bytes", ErrFormat, len(data))
		}
		out := make([]float64, len(data)/4)
		for i := range out {
			out[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:])))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: unsupported typed array tag %d", ErrFormat, tag.Number)
	}
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case uint64:
		if n > math.MaxInt32 {
			return 0, fmt.Errorf("%w: dimension %d too large", ErrFormat, n)
		}
		return int(n), nil
	case int64:
		if n < 0 || n > math.MaxInt32 {
			return 0, fmt.Errorf("%w: invalid dimension %d", ErrFormat, n)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("%w: unexpected dimension type %T", ErrFormat, v)
	}
}
