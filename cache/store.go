package cache

import (
	// Register the sha512 hash for go-digest's digest.SHA512; without
	// this blank import Algorithm.Hash panics at runtime.
	_ "crypto/sha512"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/opencontainers/go-digest"
	"golang.org/x/sync/singleflight"
)

const (
	defaultArtifactName = "node"
	dirPerm             = 0o755
	artifactPerm        = 0o755
	metadataPerm        = 0o644
)

// checksumAlgorithm is the digest used for content verification.
// Distinct from the sha256-derived directory key on purpose.
const checksumAlgorithm = digest.SHA512

// Result classifies a cache lookup.
type Result int

const (
	// Miss: no usable entry; the caller must decompress and populate.
	// Covers both absence and a failed integrity check — a mismatched
	// entry is treated as absent and rebuilt, never patched.
	Miss Result = iota

	// VerifiedHit: the artifact's bytes match the checksum recorded in
	// metadata. Safe to launch directly.
	VerifiedHit

	// UnverifiedHit: the artifact exists but metadata is missing or
	// unparseable, so integrity was not checked. Still launched — the
	// file's presence at a content-derived path is a weaker but
	// non-zero signal — but recorded as degraded trust.
	UnverifiedHit
)

func (r Result) String() string {
	switch r {
	case Miss:
		return "miss"
	case VerifiedHit:
		return "verified hit"
	case UnverifiedHit:
		return "unverified hit"
	default:
		return fmt.Sprintf("unknown(%d)", int(r))
	}
}

// Store is a directory-based content-addressed cache of decompressed
// executables. Each entry lives at <root>/<key>/<artifact> with a JSON
// metadata sidecar.
//
// Multiple processes may race on the same key: no lock is held between
// lookup and populate. Every write therefore goes to a uniquely named
// temp sibling and is renamed into place only once fully written, so a
// file present at the canonical path is always completely written with
// its permission bits set. The rename is the sole synchronization point.
type Store struct {
	root         string
	artifactName string
	logger       *slog.Logger
	populating   singleflight.Group
}

// Option configures a Store.
type Option func(*Store)

// WithArtifactName overrides the artifact file name inside each entry
// directory. Defaults to "node", matching the existing compressor
// tooling's layout.
func WithArtifactName(name string) Option {
	return func(s *Store) {
		s.artifactName = name
	}
}

// WithLogger sets the logger used for degraded-trust and rebuild events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a store rooted at root. The root directory is not created
// until the first populate, so probing a container never touches the
// filesystem.
func New(root string, opts ...Option) (*Store, error) {
	if root == "" {
		return nil, errors.New("cache: root is empty")
	}
	s := &Store{
		root:         root,
		artifactName: defaultArtifactName,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s, nil
}

// Root returns the cache root directory.
func (s *Store) Root() string { return s.root }

// ArtifactPath returns the canonical artifact path for a key.
func (s *Store) ArtifactPath(key Key) string {
	return filepath.Join(s.root, key.String(), s.artifactName)
}

func (s *Store) metadataPath(key Key) string {
	return filepath.Join(s.root, key.String(), MetadataName)
}

// Lookup checks the store for key and classifies the outcome. For hits
// it returns the artifact path. Verification failures and unreadable
// entries downgrade to Miss so the caller rebuilds the entry.
func (s *Store) Lookup(key Key) (string, Result) {
	path := s.ArtifactPath(key)

	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", Miss
	}

	// Metadata first: without a recorded checksum there is nothing to
	// compare against, so the artifact is never hashed on this path.
	meta, err := s.readMetadata(key)
	if err != nil || meta.Checksum == "" {
		s.logger.Warn("cache hit without usable metadata, integrity unverified",
			"key", key.String(), "path", path)
		return path, UnverifiedHit
	}

	actual, err := digestFile(path)
	if err != nil {
		s.logger.Warn("cache entry unreadable, rebuilding",
			"key", key.String(), "error", err)
		return "", Miss
	}

	if meta.Checksum != actual {
		s.logger.Warn("cache entry failed verification, rebuilding",
			"key", key.String(),
			"expected", meta.Checksum,
			"actual", actual)
		return "", Miss
	}

	return path, VerifiedHit
}

func (s *Store) readMetadata(key Key) (*Metadata, error) {
	data, err := os.ReadFile(s.metadataPath(key))
	if err != nil {
		return nil, err
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("cache: parse metadata: %w", err)
	}
	return &meta, nil
}

// PopulateInfo carries the provenance and backend details recorded in a
// new entry's metadata.
type PopulateInfo struct {
	// SourcePath is the container the artifact was decompressed from.
	SourcePath string

	// CompressedSize is the container payload length in bytes.
	CompressedSize uint64

	// Algorithm is the backend codec name (e.g. "zstd").
	Algorithm string
}

// Populate writes artifact and its metadata under key and returns the
// canonical artifact path. The artifact lands with executable
// permission bits set, via temp-file-and-rename so concurrent
// invocations never observe a partial write. Concurrent populates for
// the same key within one process are collapsed to a single write.
//
// Any directory, write, or permission failure is terminal: the caller
// must abort rather than fall back to running from a temporary path.
func (s *Store) Populate(key Key, artifact []byte, info PopulateInfo) (string, error) {
	path, err, _ := s.populating.Do(key.String(), func() (any, error) {
		return s.populate(key, artifact, info)
	})
	if err != nil {
		return "", err
	}
	return path.(string), nil
}

func (s *Store) populate(key Key, artifact []byte, info PopulateInfo) (string, error) {
	dir := filepath.Join(s.root, key.String())
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return "", fmt.Errorf("cache: create entry dir: %w", err)
	}

	checksum := checksumAlgorithm.FromBytes(artifact).Encoded()

	path := s.ArtifactPath(key)
	if err := writeFileAtomic(dir, path, artifact, artifactPerm); err != nil {
		return "", fmt.Errorf("cache: write artifact: %w", err)
	}

	ratio := 0.0
	if len(artifact) > 0 {
		ratio = float64(info.CompressedSize) / float64(len(artifact))
	}
	meta := Metadata{
		Version:           MetadataVersion,
		CacheKey:          key.String(),
		Timestamp:         time.Now().UnixMilli(),
		Checksum:          checksum,
		ChecksumAlgorithm: string(checksumAlgorithm),
		Platform:          runtime.GOOS,
		Arch:              runtime.GOARCH,
		Size:              uint64(len(artifact)),
		Source: Source{
			Type: "container",
			Path: info.SourcePath,
		},
		Extra: Extra{
			CompressedSize:       info.CompressedSize,
			CompressionAlgorithm: info.Algorithm,
			CompressionRatio:     ratio,
		},
	}
	encoded, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return "", fmt.Errorf("cache: encode metadata: %w", err)
	}
	encoded = append(encoded, '\n')

	if err := writeFileAtomic(dir, s.metadataPath(key), encoded, metadataPerm); err != nil {
		return "", fmt.Errorf("cache: write metadata: %w", err)
	}

	return path, nil
}

// writeFileAtomic writes data to a uniquely named temp file in dir,
// sets perm, then renames it over path. Permission bits are set before
// the rename so the canonical path never holds a non-executable
// artifact. A rename loser tolerates the winner's file.
func writeFileAtomic(dir, path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(dir, ".smolrun-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		if _, statErr := os.Stat(path); statErr == nil {
			_ = os.Remove(tmpPath)
			return nil
		}
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

// digestFile streams the full-length content digest of the file at path.
func digestFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	digester := checksumAlgorithm.Digester()
	if _, err := io.Copy(digester.Hash(), f); err != nil {
		return "", err
	}
	return digester.Digest().Encoded(), nil
}
