// Package decompress selects and runs the native decompression codec
// for a container's (family, algorithm id) pair.
//
// Algorithm numbering is scoped to the container family: the ELF and PE
// compressors count 1=xz 2=zstd 3=lz4, while the Mach-O compressor
// reuses Apple's compression_algorithm values. The registry here keys
// on both so a caller never has to know the per-family tables.
package decompress

import (
	"errors"
	"fmt"
	"math"

	"github.com/SocketDev/smolrun/container"
)

// maxOriginalSize bounds the output allocation. The header's declared
// original_size is untrusted input; a size beyond any plausible
// executable must fail like a refused malloc, not panic the runtime.
const maxOriginalSize = 16 << 30

// Sentinel errors for decompression.
var (
	// ErrUnsupportedAlgorithm is returned when the family has no codec
	// registered under the requested algorithm id.
	ErrUnsupportedAlgorithm = errors.New("decompress: unsupported algorithm")

	// ErrDecompression is returned when the codec rejects the payload.
	ErrDecompression = errors.New("decompress: decompression failed")

	// ErrSizeMismatch is returned when the decompressed length differs
	// from the declared original size. The artifact is about to be
	// executed; a truncated or overrun buffer must never reach launch.
	ErrSizeMismatch = errors.New("decompress: output size mismatch")
)

// Algorithm ids used by the ELF and PE container families.
const (
	AlgoXZ   uint32 = 1
	AlgoZstd uint32 = 2
	AlgoLZ4  uint32 = 3
)

// Algorithm ids used by the Mach-O container family. These mirror
// Apple's compression_algorithm constants, which the Mach-O compressor
// stamps into the header verbatim.
const (
	AlgoAppleLZ4   uint32 = 0x100
	AlgoAppleZlib  uint32 = 0x205
	AlgoAppleXZ    uint32 = 0x306
	AlgoAppleLZFSE uint32 = 0x801
)

// codec is one decompression capability. compress exists so tests and
// tooling can fabricate valid containers; the launch path never calls it.
type codec struct {
	name       string
	decompress func(payload []byte, originalSize uint64) ([]byte, error)
	compress   func(data []byte) ([]byte, error)
}

var registry = map[container.Family]map[uint32]codec{
	container.FamilyELF: {
		AlgoXZ:   {name: "xz", decompress: decompressXZ, compress: compressXZ},
		AlgoZstd: {name: "zstd", decompress: decompressZstd, compress: compressZstd},
		AlgoLZ4:  {name: "lz4", decompress: decompressLZ4, compress: compressLZ4},
	},
	container.FamilyPE: {
		AlgoXZ:   {name: "xz", decompress: decompressXZ, compress: compressXZ},
		AlgoZstd: {name: "zstd", decompress: decompressZstd, compress: compressZstd},
		AlgoLZ4:  {name: "lz4", decompress: decompressLZ4, compress: compressLZ4},
	},
	container.FamilyMachO: {
		AlgoAppleLZ4:  {name: "lz4", decompress: decompressLZ4, compress: compressLZ4},
		AlgoAppleZlib: {name: "zlib", decompress: decompressZlib, compress: compressZlib},
		AlgoAppleXZ:   {name: "xz", decompress: decompressXZ, compress: compressXZ},
		// AlgoAppleLZFSE is deliberately absent: no Go decoder exists.
	},
}

func lookup(family container.Family, algorithm uint32) (codec, error) {
	c, ok := registry[family][algorithm]
	if !ok {
		return codec{}, fmt.Errorf("%w: family %s, id 0x%x", ErrUnsupportedAlgorithm, family, algorithm)
	}
	return c, nil
}

// AlgorithmName returns the human-readable codec name for a
// (family, algorithm id) pair, or "unknown" if none is registered.
func AlgorithmName(family container.Family, algorithm uint32) string {
	c, err := lookup(family, algorithm)
	if err != nil {
		return "unknown"
	}
	return c.name
}

// Decompress inflates payload with the codec registered for the
// (family, algorithm id) pair. The result is exactly originalSize
// bytes; any deviation fails with ErrSizeMismatch. Failures are
// terminal — the caller must abort, never retry or launch a partial
// buffer.
func Decompress(family container.Family, algorithm uint32, payload []byte, originalSize uint64) ([]byte, error) {
	c, err := lookup(family, algorithm)
	if err != nil {
		return nil, err
	}

	if originalSize > maxOriginalSize || originalSize > uint64(math.MaxInt) {
		return nil, fmt.Errorf("%w: declared original size %d exceeds the %d-byte limit",
			ErrDecompression, originalSize, maxOriginalSize)
	}

	out, err := c.decompress(payload, originalSize)
	if err != nil {
		return nil, err
	}
	if uint64(len(out)) != originalSize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrSizeMismatch, originalSize, len(out))
	}
	return out, nil
}

// Compress deflates data with the codec registered for the
// (family, algorithm id) pair. This is the inverse of Decompress, used
// to build containers; the runtime launch path never compresses.
func Compress(family container.Family, algorithm uint32, data []byte) ([]byte, error) {
	c, err := lookup(family, algorithm)
	if err != nil {
		return nil, err
	}
	return c.compress(data)
}
