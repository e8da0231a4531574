package flowio

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/banshee-data/opticflow/internal/flow"
)

// floMagic is the float32 sanity value at the start of every .flo file
// ("PIEH" in ASCII).
const floMagic float32 = 202021.25

// maxFloPixels bounds the size read from an untrusted header.
const maxFloPixels = 1 << 26

// floChunkPixels is how many (u, v) pairs ReadFlo decodes per read, so memory
// grows with the payload actually present rather than the header's claim.
const floChunkPixels = 4096

// WriteFlo writes f in the Middlebury .flo format: magic, int32 width,
// int32 height, then row-major interleaved float32 (u, v), little-endian.
func WriteFlo(w io.Writer, f *flow.Field) error {
	bw := bufio.NewWriter(w)
	header := []any{floMagic, int32(f.Width()), int32(f.Height())}
	for _, v := range header {
		if err := binary.Write(bw, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("failed to write .flo header: %w", err)
		}
	}

	var buf [8]byte
	for i := range f.U.Pix {
		binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(float32(f.U.Pix[i])))
		binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(float32(f.V.Pix[i])))
		if _, err := bw.Write(buf[:]); err != nil {
			return fmt.Errorf("failed to write .flo data: %w", err)
		}
	}
	return bw.Flush()
}

// ReadFlo reads a Middlebury .flo stream.
func ReadFlo(r io.Reader) (*flow.Field, error) {
	br := bufio.NewReader(r)
	var header struct {
		Magic  float32
		Width  int32
		Height int32
	}
	if err := binary.Read(br, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read .flo header: %w", err)
	}
	if header.Magic != floMagic {
		return nil, fmt.Errorf("%w: bad .flo magic %v", ErrFormat, header.Magic)
	}
	w, h := int(header.Width), int(header.Height)
	if w <= 0 || h <= 0 || w*h > maxFloPixels {
		return nil, fmt.Errorf("%w: invalid .flo size %dx%d", ErrFormat, w, h)
	}

	n := w * h
	u := make([]float64, 0, min(n, floChunkPixels))
	v := make([]float64, 0, min(n, floChunkPixels))
	chunk := make([]byte, 8*min(n, floChunkPixels))
	for len(u) < n {
		buf := chunk[:8*min(n-len(u), floChunkPixels)]
		if _, err := io.ReadFull(br, buf); err != nil {
			return nil, fmt.Errorf("failed to read .flo data: %w", err)
		}
		for i := 0; i < len(buf); i += 8 {
			u = append(u, float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[i:]))))
			v = append(v, float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[i+4:]))))
		}
	}

	f := flow.NewField(w, h)
	copy(f.U.Pix, u)
	copy(f.V.Pix, v)
	return f, nil
}
