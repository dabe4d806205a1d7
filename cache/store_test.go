package cache

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/opencontainers/go-digest"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir(), WithLogger(discardLogger()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

func populate(t *testing.T, s *Store, key Key, artifact []byte) string {
	t.Helper()
	path, err := s.Populate(key, artifact, PopulateInfo{
		SourcePath:     "/tmp/node.compressed",
		CompressedSize: uint64(len(artifact) / 2),
		Algorithm:      "zstd",
	})
	if err != nil {
		t.Fatalf("Populate() error = %v", err)
	}
	return path
}

func TestNewEmptyRoot(t *testing.T) {
	t.Parallel()

	if _, err := New(""); err == nil {
		t.Fatal("New(\"\") error = nil, want error")
	}
}

func TestNewDoesNotTouchFilesystem(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "never-created")
	s, err := New(root, WithLogger(discardLogger()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, res := s.Lookup(Key("0123456789abcdef")); res != Miss {
		t.Fatalf("Lookup() = %v, want Miss", res)
	}
	if _, err := os.Stat(root); !os.IsNotExist(err) {
		t.Fatalf("root was created before populate: %v", err)
	}
}

func TestLookupMissOnEmptyStore(t *testing.T) {
	t.Parallel()

	s := testStore(t)
	path, res := s.Lookup(Key("0123456789abcdef"))
	if res != Miss || path != "" {
		t.Fatalf("Lookup() = (%q, %v), want (\"\", Miss)", path, res)
	}
}

func TestPopulateThenVerifiedHit(t *testing.T) {
	t.Parallel()

	s := testStore(t)
	key := DeriveKey([]byte("container bytes"))
	artifact := bytes.Repeat([]byte("executable "), 100)

	path := populate(t, s, key, artifact)
	if path != s.ArtifactPath(key) {
		t.Fatalf("Populate() path = %q, want %q", path, s.ArtifactPath(key))
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if !bytes.Equal(got, artifact) {
		t.Fatal("artifact bytes do not round-trip")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat artifact: %v", err)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm()&0o111 == 0 {
		t.Fatalf("artifact mode = %v, want executable bits set", info.Mode())
	}

	hitPath, res := s.Lookup(key)
	if res != VerifiedHit {
		t.Fatalf("Lookup() = %v, want VerifiedHit", res)
	}
	if hitPath != path {
		t.Fatalf("Lookup() path = %q, want %q", hitPath, path)
	}
}

func TestPopulateMetadata(t *testing.T) {
	t.Parallel()

	s := testStore(t)
	key := DeriveKey([]byte("metadata test container"))
	artifact := bytes.Repeat([]byte{0x7F, 'E', 'L', 'F'}, 256)
	populate(t, s, key, artifact)

	raw, err := os.ReadFile(filepath.Join(s.Root(), key.String(), MetadataName))
	if err != nil {
		t.Fatalf("read metadata: %v", err)
	}
	var meta Metadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		t.Fatalf("parse metadata: %v", err)
	}

	if meta.Version != MetadataVersion {
		t.Errorf("Version = %d, want %d", meta.Version, MetadataVersion)
	}
	if meta.CacheKey != key.String() {
		t.Errorf("CacheKey = %q, want %q", meta.CacheKey, key)
	}
	if meta.ChecksumAlgorithm != "sha512" {
		t.Errorf("ChecksumAlgorithm = %q, want \"sha512\"", meta.ChecksumAlgorithm)
	}
	want := digest.SHA512.FromBytes(artifact).Encoded()
	if meta.Checksum != want {
		t.Errorf("Checksum = %q, want digest of written artifact", meta.Checksum)
	}
	if meta.Size != uint64(len(artifact)) {
		t.Errorf("Size = %d, want %d", meta.Size, len(artifact))
	}
	if meta.Platform != runtime.GOOS || meta.Arch != runtime.GOARCH {
		t.Errorf("Platform/Arch = %s/%s, want %s/%s", meta.Platform, meta.Arch, runtime.GOOS, runtime.GOARCH)
	}
	if meta.Source.Type != "container" || meta.Source.Path == "" {
		t.Errorf("Source = %+v, want container provenance", meta.Source)
	}
	if meta.Extra.CompressionAlgorithm != "zstd" {
		t.Errorf("Extra.CompressionAlgorithm = %q, want \"zstd\"", meta.Extra.CompressionAlgorithm)
	}
	if meta.Timestamp == 0 {
		t.Error("Timestamp = 0, want milliseconds since epoch")
	}
}

func TestPopulateIdempotent(t *testing.T) {
	t.Parallel()

	s := testStore(t)
	key := DeriveKey([]byte("idempotence"))
	artifact := bytes.Repeat([]byte("same bytes "), 64)

	populate(t, s, key, artifact)
	first, _ := os.ReadFile(s.ArtifactPath(key))

	populate(t, s, key, artifact)
	second, _ := os.ReadFile(s.ArtifactPath(key))

	if !bytes.Equal(first, second) {
		t.Fatal("second populate changed the artifact")
	}
	if _, res := s.Lookup(key); res != VerifiedHit {
		t.Fatalf("Lookup() after double populate = %v, want VerifiedHit", res)
	}

	// No temp files may survive population.
	entries, err := os.ReadDir(filepath.Join(s.Root(), key.String()))
	if err != nil {
		t.Fatalf("read entry dir: %v", err)
	}
	for _, e := range entries {
		if e.Name() != s.artifactName && e.Name() != MetadataName {
			t.Fatalf("unexpected file in entry dir: %q", e.Name())
		}
	}
}

func TestLookupVerificationFailure(t *testing.T) {
	t.Parallel()

	s := testStore(t)
	key := DeriveKey([]byte("verification failure"))
	populate(t, s, key, bytes.Repeat([]byte("trusted "), 128))

	// Flip one byte of the cached artifact after population.
	path := s.ArtifactPath(key)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	data[0] ^= 0xFF
	if err := os.WriteFile(path, data, 0o755); err != nil {
		t.Fatalf("mutate artifact: %v", err)
	}

	hitPath, res := s.Lookup(key)
	if res != Miss {
		t.Fatalf("Lookup() on mutated artifact = %v, want Miss", res)
	}
	if hitPath != "" {
		t.Fatalf("Lookup() returned path %q for an invalid entry", hitPath)
	}
}

func TestLookupUnverifiedHit(t *testing.T) {
	t.Parallel()

	s := testStore(t)
	key := DeriveKey([]byte("no metadata"))
	artifact := []byte("orphaned artifact")
	populate(t, s, key, artifact)

	tests := []struct {
		name string
		prep func(t *testing.T, metaPath string)
	}{
		{"metadata missing", func(t *testing.T, metaPath string) {
			if err := os.Remove(metaPath); err != nil {
				t.Fatal(err)
			}
		}},
		{"metadata unparseable", func(t *testing.T, metaPath string) {
			if err := os.WriteFile(metaPath, []byte("{not json"), 0o644); err != nil {
				t.Fatal(err)
			}
		}},
		{"metadata without checksum", func(t *testing.T, metaPath string) {
			if err := os.WriteFile(metaPath, []byte(`{"version":1}`), 0o644); err != nil {
				t.Fatal(err)
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			populate(t, s, key, artifact)
			tt.prep(t, filepath.Join(s.Root(), key.String(), MetadataName))

			path, res := s.Lookup(key)
			if res != UnverifiedHit {
				t.Fatalf("Lookup() = %v, want UnverifiedHit", res)
			}
			if path != s.ArtifactPath(key) {
				t.Fatalf("Lookup() path = %q, want artifact path", path)
			}
		})
	}
}

func TestLookupHashesOnlyWhenChecksumPresent(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("relies on unix permission denial")
	}

	s := testStore(t)
	key := DeriveKey([]byte("digest ordering"))
	populate(t, s, key, []byte("artifact bytes"))

	// An unreadable artifact makes any digest attempt fail, so the
	// outcome distinguishes the paths that hash from those that don't.
	path := s.ArtifactPath(key)
	if err := os.Chmod(path, 0o000); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(path, 0o755) })

	// With a checksum on record the store must hash, fail, and rebuild.
	if _, res := s.Lookup(key); res != Miss {
		t.Fatalf("Lookup() with checksum = %v, want Miss", res)
	}

	// Without usable metadata there is nothing to compare against: the
	// artifact is reported as an unverified hit without being read.
	metaPath := filepath.Join(s.Root(), key.String(), MetadataName)
	if err := os.Remove(metaPath); err != nil {
		t.Fatal(err)
	}
	if _, res := s.Lookup(key); res != UnverifiedHit {
		t.Fatalf("Lookup() without metadata = %v, want UnverifiedHit", res)
	}
}

func TestLookupIgnoresDirectoryAtArtifactPath(t *testing.T) {
	t.Parallel()

	s := testStore(t)
	key := Key("00112233aabbccdd")
	if err := os.MkdirAll(s.ArtifactPath(key), 0o755); err != nil {
		t.Fatal(err)
	}
	if _, res := s.Lookup(key); res != Miss {
		t.Fatalf("Lookup() on directory = %v, want Miss", res)
	}
}

func TestWithArtifactName(t *testing.T) {
	t.Parallel()

	s, err := New(t.TempDir(), WithArtifactName("bin"), WithLogger(discardLogger()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	key := DeriveKey([]byte("custom artifact name"))
	path := populate(t, s, key, []byte("artifact"))
	if filepath.Base(path) != "bin" {
		t.Fatalf("artifact name = %q, want %q", filepath.Base(path), "bin")
	}
}

func TestPopulateFailsOnUnwritableRoot(t *testing.T) {
	t.Parallel()

	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}

	root := filepath.Join(t.TempDir(), "ro")
	if err := os.MkdirAll(root, 0o555); err != nil {
		t.Fatal(err)
	}
	s, err := New(root, WithLogger(discardLogger()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = s.Populate(Key("0123456789abcdef"), []byte("x"), PopulateInfo{})
	if err == nil {
		t.Fatal("Populate() error = nil, want permission error")
	}
	var pathErr *fs.PathError
	if !errors.As(err, &pathErr) {
		t.Fatalf("Populate() error = %v, want *fs.PathError in chain", err)
	}
}
