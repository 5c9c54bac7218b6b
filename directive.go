package plantuml

import "strings"

// Format selects the renderer output format.
type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

const (
	startMarker = "@startuml"
	endMarker   = "@enduml"
)

// Quality directives inserted after the start marker for raster output.
var pngQualityDirectives = []string{"skinparam dpi 400", "scale 2"}

// ParseFormat normalizes a user-supplied format string. Anything other than
// "svg" maps to PNG, mirroring the renderer URL convention.
func ParseFormat(s string) Format {
	if strings.EqualFold(s, string(FormatSVG)) {
		return FormatSVG
	}
	return FormatPNG
}

// MIMEType returns the MIME type of images rendered in this format.
func (f Format) MIMEType() string {
	if f == FormatSVG {
		return "image/svg+xml"
	}
	return "image/png"
}

// PrepareSource normalizes diagram text before encoding: it wraps the text
// in @startuml/@enduml markers when they are missing and, for PNG output,
// inserts quality directives right after the start marker line. The
// transformation is not idempotent — applying it twice duplicates the
// directives — so callers must invoke it exactly once per encode.
func PrepareSource(source string, format Format) string {
	if !strings.Contains(source, startMarker) {
		source = startMarker + "\n" + source
	}
	if !strings.Contains(source, endMarker) {
		source = source + "\n" + endMarker
	}

	if format != FormatPNG {
		return source
	}

	lines := strings.Split(source, "\n")
	at := 0
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), startMarker) {
			at = i + 1
			break
		}
	}
	for _, directive := range pngQualityDirectives {
		lines = append(lines, "")
		copy(lines[at+1:], lines[at:])
		lines[at] = directive
		at++
	}
	return strings.Join(lines, "\n")
}
