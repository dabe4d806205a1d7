// Package container implements the on-disk format shared by the Socket
// binary compressors: a fixed 24-byte little-endian header followed by
// an opaque compressed payload.
//
// Each platform family (ELF, Mach-O, PE) stamps its own magic into the
// header and uses its own algorithm numbering; the same numeric id means
// different algorithms in different families. Callers must therefore
// dispatch on [Container.Family] before interpreting the algorithm id.
package container

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// HeaderSize is the fixed size of the container header in bytes.
const HeaderSize = 24

// Sentinel errors for container parsing.
var (
	// ErrTooSmall is returned when the input is shorter than the header.
	ErrTooSmall = errors.New("container: input smaller than header")

	// ErrBadMagic is returned when the magic matches no known family.
	ErrBadMagic = errors.New("container: bad magic")

	// ErrSizeMismatch is returned when the header's compressed_size
	// disagrees with the actual input length.
	ErrSizeMismatch = errors.New("container: size mismatch")
)

// Family identifies the platform family a container was built for.
type Family uint8

const (
	FamilyELF Family = iota + 1
	FamilyMachO
	FamilyPE
)

// Magic constants, one per family. These are protocol constants shared
// with the compressors; changing them breaks format compatibility.
const (
	MagicELF   uint32 = 0x53454C46 // "SELF"
	MagicMachO uint32 = 0x504D4353 // "SCMP"
	MagicPE    uint32 = 0x53455045 // "SEPE"
)

var familyByMagic = map[uint32]Family{
	MagicELF:   FamilyELF,
	MagicMachO: FamilyMachO,
	MagicPE:    FamilyPE,
}

// Magic returns the family's magic constant.
func (f Family) Magic() uint32 {
	switch f {
	case FamilyELF:
		return MagicELF
	case FamilyMachO:
		return MagicMachO
	case FamilyPE:
		return MagicPE
	default:
		return 0
	}
}

func (f Family) String() string {
	switch f {
	case FamilyELF:
		return "elf"
	case FamilyMachO:
		return "macho"
	case FamilyPE:
		return "pe"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(f))
	}
}

// Container is a parsed compressed-executable container.
//
// Payload aliases the input passed to [Parse]; callers must not modify
// the input while the container is in use.
type Container struct {
	Family         Family
	Algorithm      uint32
	OriginalSize   uint64
	CompressedSize uint64
	Payload        []byte
}

// Parse validates and decodes a container from an in-memory byte
// buffer. It performs no size sanity checks on OriginalSize; that is
// the decompression backend's concern since it allocates the output.
func Parse(data []byte) (*Container, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooSmall, len(data))
	}

	magic := binary.LittleEndian.Uint32(data[0:4])
	family, ok := familyByMagic[magic]
	if !ok {
		return nil, fmt.Errorf("%w: 0x%08x", ErrBadMagic, magic)
	}

	c := &Container{
		Family:         family,
		Algorithm:      binary.LittleEndian.Uint32(data[4:8]),
		OriginalSize:   binary.LittleEndian.Uint64(data[8:16]),
		CompressedSize: binary.LittleEndian.Uint64(data[16:24]),
	}

	// The payload must fill the file exactly. A short or long file is a
	// format error, never silently truncated or padded.
	if c.CompressedSize != uint64(len(data)-HeaderSize) {
		return nil, fmt.Errorf("%w: header declares %d payload bytes, file carries %d",
			ErrSizeMismatch, c.CompressedSize, len(data)-HeaderSize)
	}

	c.Payload = data[HeaderSize:]
	return c, nil
}

// Encode serializes the container back to its on-disk form.
// Parse(Encode(c)) yields a container equal to c.
func (c *Container) Encode() []byte {
	out := make([]byte, HeaderSize+len(c.Payload))
	binary.LittleEndian.PutUint32(out[0:4], c.Family.Magic())
	binary.LittleEndian.PutUint32(out[4:8], c.Algorithm)
	binary.LittleEndian.PutUint64(out[8:16], c.OriginalSize)
	binary.LittleEndian.PutUint64(out[16:24], uint64(len(c.Payload)))
	copy(out[HeaderSize:], c.Payload)
	return out
}
