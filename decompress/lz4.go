package decompress

import (
	"fmt"

	"github.com/pierrec/lz4/v4"
)

// LZ4 runs in block mode: the original size from the container header
// bounds the destination buffer, so no frame envelope is needed.

func decompressLZ4(payload []byte, originalSize uint64) ([]byte, error) {
	out := make([]byte, originalSize)
	n, err := lz4.UncompressBlock(payload, out)
	if err != nil {
		return nil, fmt.Errorf("%w: lz4: %v", ErrDecompression, err)
	}
	if uint64(n) != originalSize {
		return nil, fmt.Errorf("%w: lz4 produced %d bytes, expected %d", ErrSizeMismatch, n, originalSize)
	}
	return out, nil
}

func compressLZ4(data []byte) ([]byte, error) {
	bound := lz4.CompressBlockBound(len(data))
	dst := make([]byte, bound)
	n, err := lz4.CompressBlock(data, dst, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	// CompressBlock returns 0 for incompressible input. The container
	// format has no raw-passthrough mode, so that is a hard error here.
	if n == 0 {
		return nil, fmt.Errorf("lz4 compress: data is incompressible")
	}
	return dst[:n], nil
}
