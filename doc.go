// Package smolrun decompresses a compressed-executable container,
// verifies its integrity, populates a content-addressed cache, and
// launches the result with the original invocation's arguments.
//
// Caching follows the npm/cacache pattern: the cache key (directory
// name) is a truncated SHA-256 — of an embedded package identifier when
// present, otherwise of the compressed container — while content
// verification uses a full-length SHA-512 recorded in a JSON metadata
// sidecar. The first run decompresses into <cache root>/<key>/; later
// runs verify the cached artifact and execute it directly, skipping
// decompression entirely.
//
// # Quick Start
//
//	err := smolrun.Run("./node.compressed", os.Args[2:])
//	// Run only returns on failure; on success the process image is
//	// replaced by the launched executable.
//
// The subpackages expose the individual pieces: [container] for the
// header format, [decompress] for the per-family codec tables, [cache]
// for key derivation and the store, and [launch] for process handoff.
package smolrun
