package cache

// MetadataVersion is the schema version written to new metadata records.
const MetadataVersion = 1

// MetadataName is the sidecar file name inside a cache entry directory.
const MetadataName = ".dlx-metadata.json"

// Metadata is the JSON record stored next to a cached artifact. The
// checksum is the full-length digest of the artifact bytes; it uses a
// different algorithm than the truncated directory key so a key
// collision can never masquerade as a content match.
type Metadata struct {
	Version           int    `json:"version"`
	CacheKey          string `json:"cache_key"`
	Timestamp         int64  `json:"timestamp"` // milliseconds since epoch
	Checksum          string `json:"checksum"`
	ChecksumAlgorithm string `json:"checksum_algorithm"`
	Platform          string `json:"platform"`
	Arch              string `json:"arch"`
	Size              uint64 `json:"size"`
	Source            Source `json:"source"`
	Extra             Extra  `json:"extra"`
}

// Source records where the cached artifact came from.
type Source struct {
	Type string `json:"type"`
	Path string `json:"path"`
}

// Extra carries backend-specific fields.
type Extra struct {
	CompressedSize       uint64  `json:"compressed_size"`
	CompressionAlgorithm string  `json:"compression_algorithm"`
	CompressionRatio     float64 `json:"compression_ratio"`
}
