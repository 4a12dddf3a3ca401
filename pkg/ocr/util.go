package ocr

import "strings"

// Snippet shortens text for log lines.
func Snippet(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}

// clean normalizes OCR output but keeps line breaks, which the line-based
// rules depend on: CRLF to LF, tabs and repeated spaces collapsed, blank lines
// dropped.
func clean(t string) string {
	t = strings.ReplaceAll(t, "\r\n", "\n")
	t = strings.ReplaceAll(t, "\r", "\n")
	t = strings.ReplaceAll(t, "\t", " ")
	lines := strings.Split(t, "\n")
	out := lines[:0]
	for _, l := range lines {
		l = strings.Join(strings.Fields(l), " ")
		if l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}
