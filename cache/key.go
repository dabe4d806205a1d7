// Package cache implements the content-addressed store for decompressed
// executables: cache-key derivation, the lookup/verify/populate
// protocol, and the JSON sidecar metadata that records each entry's
// full-length content digest.
package cache

import (
	"github.com/opencontainers/go-digest"

	"github.com/SocketDev/smolrun/container"
)

// KeyLen is the length of a cache key in hex characters. Keys are a
// truncated sha256: short enough for friendly directory names, long
// enough that accidental collisions are negligible. Keys are never a
// trust decision on their own — the metadata's full sha512 checksum is
// what verification compares (see store.go).
const KeyLen = 16

// Key is a cache directory name: KeyLen lowercase hex characters.
type Key string

func (k Key) String() string { return string(k) }

// Valid reports whether k is exactly KeyLen lowercase hex characters.
func (k Key) Valid() bool {
	if len(k) != KeyLen {
		return false
	}
	for _, c := range k {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// DeriveKey computes the cache key for raw container bytes.
//
// A container carrying an embedded package identifier keys on the
// identifier, so logically identical artifacts collide to one entry
// even when repackaged with different bytes. Without an identifier the
// key falls back to content-addressing the container itself. The
// derivation is pure: same input, same key, always.
func DeriveKey(data []byte) Key {
	if id, ok := container.ExtractIdentifier(data); ok {
		return keyFrom([]byte(id))
	}
	return keyFrom(data)
}

func keyFrom(b []byte) Key {
	return Key(digest.SHA256.FromBytes(b).Encoded()[:KeyLen])
}
