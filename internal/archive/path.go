// Package archive resolves classpath-element strings — possibly nested
// archive paths joined with `!` — into accessible byte sources, with
// at-most-once extraction per logical sub-archive and leak-checked
// handle/temp-file lifecycle management. It generalizes the file-walk
// half of the teacher's graph.Initialize (graph/construct.go): where
// that function only ever walks a plain directory tree for `.java`
// files, this resolver walks a classpath that can recurse through any
// number of nested ZIP-format archives.
package archive

import "strings"

// SplitPath splits a classpath-element string on `!` into its segments,
// normalizing each one per §4.2's path grammar: trailing `!`/`!/` and
// interior `/!`/`/!/` variants are stripped, and a leading `/` on an
// inner (non-first) segment is removed.
func SplitPath(raw string) []string {
	trimmed := strings.TrimRight(raw, "!/")
	if trimmed == "" {
		return nil
	}
	rawSegments := strings.Split(trimmed, "!")
	segments := make([]string, 0, len(rawSegments))
	for i, seg := range rawSegments {
		seg = strings.TrimSuffix(seg, "/")
		if i > 0 {
			seg = strings.TrimPrefix(seg, "/")
		}
		if seg == "" && i > 0 {
			continue
		}
		segments = append(segments, seg)
	}
	return segments
}

// IsRemote reports whether a path segment names a remote resource to
// fetch rather than a local path to open directly.
func IsRemote(segment string) bool {
	return strings.HasPrefix(segment, "http://") || strings.HasPrefix(segment, "https://")
}

// SanitizeURLForFilename turns a URL into a string safe to use as (part
// of) a temp file name, per §4.2's "derived by sanitizing the URL".
func SanitizeURLForFilename(url string) string {
	var b strings.Builder
	for _, r := range url {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
