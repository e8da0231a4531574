// Package flowio reads and writes flow fields as Middlebury .flo files or
// RFC 8746 CBOR typed arrays.
package flowio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/banshee-data/opticflow/internal/flow"
	"github.com/banshee-data/opticflow/internal/fsutil"
)

// ErrFormat is wrapped by every error caused by malformed input.
var ErrFormat = errors.New("malformed flow file")

// Save writes f to path, choosing the format by extension (.flo or .cbor).
func Save(fsys fsutil.FileSystem, path string, f *flow.Field) error {
	var encode func(*flow.Field) ([]byte, error)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".flo":
		encode = bufferOf(WriteFlo)
	case ".cbor":
		encode = bufferOf(EncodeCBOR)
	default:
		return fmt.Errorf("unsupported flow file extension %q", ext)
	}

	data, err := encode(f)
	if err != nil {
		return err
	}
	if err := fsys.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Load reads a field from path, choosing the format by extension.
func Load(fsys fsutil.FileSystem, path string) (*flow.Field, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".flo" && ext != ".cbor" {
		return nil, fmt.Errorf("unsupported flow file extension %q", ext)
	}

	r, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer r.Close()

	if ext == ".flo" {
		return ReadFlo(r)
	}
	return DecodeCBOR(r)
}

func bufferOf(enc func(io.Writer, *flow.Field) error) func(*flow.Field) ([]byte, error) {
	return func(f *flow.Field) ([]byte, error) {
		var buf bytes.Buffer
		if err := enc(&buf, f); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
}
