// Package testutil provides helpers for fabricating containers in tests.
package testutil

import (
	"encoding/binary"
	"testing"

	"github.com/SocketDev/smolrun/container"
	"github.com/SocketDev/smolrun/decompress"
)

// BuildContainer compresses original with the codec registered for
// (family, algorithm) and wraps it in a valid container.
func BuildContainer(t *testing.T, family container.Family, algorithm uint32, original []byte) []byte {
	t.Helper()

	payload, err := decompress.Compress(family, algorithm, original)
	if err != nil {
		t.Fatalf("Compress() error = %v", err)
	}

	c := &container.Container{
		Family:         family,
		Algorithm:      algorithm,
		OriginalSize:   uint64(len(original)),
		CompressedSize: uint64(len(payload)),
		Payload:        payload,
	}
	return c.Encode()
}

// BuildContainerWithSpec is BuildContainer with an embedded package
// identifier line appended to the compressed payload region. The extra
// bytes are accounted for in compressed_size so the container still
// parses; real compressors embed the spec inside the payload the same
// way.
func BuildContainerWithSpec(t *testing.T, family container.Family, algorithm uint32, original []byte, spec string) []byte {
	t.Helper()

	payload, err := decompress.Compress(family, algorithm, original)
	if err != nil {
		t.Fatalf("Compress() error = %v", err)
	}
	payload = append(payload, []byte(container.SpecMarker+spec+"\n")...)

	c := &container.Container{
		Family:         family,
		Algorithm:      algorithm,
		OriginalSize:   uint64(len(original)),
		CompressedSize: uint64(len(payload)),
		Payload:        payload,
	}
	return c.Encode()
}

// CorruptHeaderMagic returns a copy of data with the magic field
// overwritten.
func CorruptHeaderMagic(data []byte, magic uint32) []byte {
	out := append([]byte(nil), data...)
	binary.LittleEndian.PutUint32(out[0:4], magic)
	return out
}
