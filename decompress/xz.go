package decompress

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/ulikunitz/xz"
)

// The ELF and PE compressors emit xz streams via liblzma's
// lzma_stream_buffer_encode, so the payload is a full .xz container,
// not a raw LZMA stream.

func decompressXZ(payload []byte, originalSize uint64) ([]byte, error) {
	r, err := xz.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: xz: %v", ErrDecompression, err)
	}
	return readExact(r, originalSize, "xz")
}

func compressXZ(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("xz compress: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("xz compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("xz compress: %w", err)
	}
	return buf.Bytes(), nil
}

// readExact drains a decompression stream into a buffer of exactly
// originalSize bytes. A stream that ends early or carries extra data is
// a size mismatch; any other read failure is a decompression failure.
func readExact(r io.Reader, originalSize uint64, name string) ([]byte, error) {
	out := make([]byte, originalSize)
	if _, err := io.ReadFull(r, out); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: %s stream ended before %d bytes", ErrSizeMismatch, name, originalSize)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrDecompression, name, err)
	}

	// One probe read past the declared size detects overrun.
	var scratch [1]byte
	if n, err := r.Read(scratch[:]); n > 0 {
		return nil, fmt.Errorf("%w: %s stream continues past %d bytes", ErrSizeMismatch, name, originalSize)
	} else if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecompression, name, err)
	}
	return out, nil
}
