package container

import "bytes"

// SpecMarker precedes an embedded package identifier inside a
// container. The compressor embeds the marker followed by one line of
// text (a package/version spec) so that logically identical artifacts
// share a cache entry even when their compressed bytes differ.
const SpecMarker = "SOCKET_DLX_SPEC:"

// ExtractIdentifier scans raw container bytes for an embedded package
// identifier. It returns the identifier line (marker and surrounding
// whitespace stripped) and whether one was found.
func ExtractIdentifier(data []byte) (string, bool) {
	i := bytes.Index(data, []byte(SpecMarker))
	if i < 0 {
		return "", false
	}

	rest := data[i+len(SpecMarker):]

	// The identifier is a single line terminated by newline or NUL;
	// an unterminated marker at the end of the buffer takes the rest.
	end := len(rest)
	if j := bytes.IndexAny(rest, "\n\x00"); j >= 0 {
		end = j
	}

	id := string(bytes.TrimSpace(rest[:end]))
	if id == "" {
		return "", false
	}
	return id, true
}

// TrimIdentifier strips a trailing identifier line from a payload. The
// compressor appends the marker line after the compressed stream, so
// the decompression backends must not see it. Payloads without a
// trailing marker are returned unchanged.
func TrimIdentifier(payload []byte) []byte {
	i := bytes.LastIndex(payload, []byte(SpecMarker))
	if i < 0 {
		return payload
	}
	rest := payload[i+len(SpecMarker):]

	// Only a trailer counts: the line's terminator, if any, must be the
	// payload's final byte.
	if j := bytes.IndexAny(rest, "\n\x00"); j >= 0 && j != len(rest)-1 {
		return payload
	}
	return payload[:i]
}
