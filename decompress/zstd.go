package decompress

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// zstdEncoder and zstdDecoder are shared across calls to avoid repeated
// initialization overhead. Both are safe for concurrent use.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		panic("decompress: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("decompress: zstd decoder initialization failed: " + err.Error())
	}
}

func decompressZstd(payload []byte, originalSize uint64) ([]byte, error) {
	out, err := zstdDecoder.DecodeAll(payload, make([]byte, 0, originalSize))
	if err != nil {
		return nil, fmt.Errorf("%w: zstd: %v", ErrDecompression, err)
	}
	if uint64(len(out)) != originalSize {
		return nil, fmt.Errorf("%w: zstd produced %d bytes, expected %d", ErrSizeMismatch, len(out), originalSize)
	}
	return out, nil
}

func compressZstd(data []byte) ([]byte, error) {
	return zstdEncoder.EncodeAll(data, nil), nil
}
