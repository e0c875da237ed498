package archive

import "strings"

// Manifest holds the three MANIFEST.MF fields §4.2 extracts.
type Manifest struct {
	ClassPath         []string // space-delimited Class-Path entries
	SpringBootClasses string   // overrides the default BOOT-INF/classes root
	SpringBootLib     string   // overrides the default BOOT-INF/lib root
}

// systemJarMarkers are the two well-known manifest substrings used to
// detect a runtime's own archives, per §4.2's system-jar detection.
var systemJarMarkers = []string{
	"Implementation-Title: Java Runtime Environment",
	"Specification-Title: Java Platform API Specification",
}

// IsSystemJar reports whether raw manifest text contains either
// well-known system-jar marker.
func IsSystemJar(rawManifest string) bool {
	for _, marker := range systemJarMarkers {
		if strings.Contains(rawManifest, marker) {
			return true
		}
	}
	return false
}

// ParseManifest implements §4.2's "Manifest parsing": line-oriented with
// continuation, where any of CR, LF, CRLF followed by a single space
// continues the previous line. Only Class-Path, Spring-Boot-Classes, and
// Spring-Boot-Lib are extracted.
func ParseManifest(raw string) Manifest {
	lines := unfoldContinuations(raw)
	var m Manifest
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "Class-Path:"):
			value := strings.TrimSpace(strings.TrimPrefix(line, "Class-Path:"))
			if value != "" {
				m.ClassPath = strings.Fields(value)
			}
		case strings.HasPrefix(line, "Spring-Boot-Classes:"):
			m.SpringBootClasses = strings.TrimSpace(strings.TrimPrefix(line, "Spring-Boot-Classes:"))
		case strings.HasPrefix(line, "Spring-Boot-Lib:"):
			m.SpringBootLib = strings.TrimSpace(strings.TrimPrefix(line, "Spring-Boot-Lib:"))
		}
	}
	return m
}

// unfoldContinuations joins manifest continuation lines: a line
// terminator (CR, LF, or CRLF) immediately followed by a single space
// continues the previous logical line rather than starting a new one.
func unfoldContinuations(raw string) []string {
	normalized := strings.ReplaceAll(raw, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")

	rawLines := strings.Split(normalized, "\n")
	var logical []string
	for _, line := range rawLines {
		if strings.HasPrefix(line, " ") && len(logical) > 0 {
			logical[len(logical)-1] += strings.TrimPrefix(line, " ")
			continue
		}
		logical = append(logical, line)
	}
	return logical
}
