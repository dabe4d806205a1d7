package smolrun

import (
	"github.com/SocketDev/smolrun/container"
	"github.com/SocketDev/smolrun/decompress"
	"github.com/SocketDev/smolrun/launch"
)

// Errors re-exported from container.
var (
	// ErrTooSmall is returned when the input is shorter than the header.
	ErrTooSmall = container.ErrTooSmall

	// ErrBadMagic is returned when the magic matches no known family.
	ErrBadMagic = container.ErrBadMagic

	// ErrSizeMismatch is returned when the header's compressed_size
	// disagrees with the actual input length.
	ErrSizeMismatch = container.ErrSizeMismatch
)

// Errors re-exported from decompress.
var (
	// ErrUnsupportedAlgorithm is returned when the container family has
	// no codec registered under the requested algorithm id.
	ErrUnsupportedAlgorithm = decompress.ErrUnsupportedAlgorithm

	// ErrDecompression is returned when the codec rejects the payload.
	ErrDecompression = decompress.ErrDecompression

	// ErrOutputSizeMismatch is returned when the decompressed length
	// differs from the container's declared original size.
	ErrOutputSizeMismatch = decompress.ErrSizeMismatch
)

// Errors re-exported from launch.
var (
	// ErrLaunchFailed is returned when the resolved executable could
	// not be started.
	ErrLaunchFailed = launch.ErrLaunchFailed
)
