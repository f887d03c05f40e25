package vfs

import "strings"

// NormalizePath applies the kernel's lexical-only path normalization (spec
// section 4.4): backslashes become forward slashes, a leading slash is
// added if missing, runs of slashes collapse to one, and a trailing slash
// is stripped unless the whole path is the root. It never resolves "."  or
// "..", unlike path/filepath's Clean.
func NormalizePath(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}

	var b strings.Builder
	b.Grow(len(p))
	lastWasSlash := false
	for _, r := range p {
		if r == '/' {
			if lastWasSlash {
				continue
			}
			lastWasSlash = true
		} else {
			lastWasSlash = false
		}
		b.WriteRune(r)
	}
	out := b.String()

	if len(out) > 1 && strings.HasSuffix(out, "/") {
		out = strings.TrimSuffix(out, "/")
	}
	return out
}
