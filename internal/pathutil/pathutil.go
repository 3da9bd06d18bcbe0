// Package pathutil implements the URL-path helpers used to address remote
// content items: joining path segments, percent-encoding segments without
// touching separators, and serializing query parameters.
package pathutil

import (
	"sort"
	"strings"
)

// JoinPath concatenates path segments with exactly one "/" between non-empty
// segments. Empty segments are skipped, and slashes already present at a
// segment boundary are not duplicated.
func JoinPath(segments ...string) string {
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		if seg == "" {
			continue
		}
		parts = append(parts, seg)
	}
	if len(parts) == 0 {
		return ""
	}

	for i, part := range parts {
		if i > 0 {
			part = strings.TrimLeft(part, "/")
		}
		if i < len(parts)-1 {
			part = strings.TrimRight(part, "/")
		}
		parts[i] = part
	}
	return strings.Join(parts, "/")
}

// EncodeSegments percent-encodes each "/"-separated piece of path
// independently and rejoins them, so separators themselves are never
// encoded.
func EncodeSegments(path string) string {
	pieces := strings.Split(path, "/")
	for i, piece := range pieces {
		pieces[i] = escape(piece)
	}
	return strings.Join(pieces, "/")
}

// QueryString serializes params into a "?key=value&..." string with keys and
// values percent-encoded. An empty map yields a bare "?". Keys are emitted in
// sorted order so the output is deterministic.
func QueryString(params map[string]string) string {
	if len(params) == 0 {
		return "?"
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteByte('?')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(escape(k))
		b.WriteByte('=')
		b.WriteString(escape(params[k]))
	}
	return b.String()
}

const upperhex = "0123456789ABCDEF"

// escape percent-encodes s, leaving the unreserved characters
// A-Z a-z 0-9 - _ . ! ~ * ' ( ) intact. Spaces become %20, never "+".
func escape(s string) string {
	hexCount := 0
	for i := 0; i < len(s); i++ {
		if shouldEscape(s[i]) {
			hexCount++
		}
	}
	if hexCount == 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 2*hexCount)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if shouldEscape(c) {
			b.WriteByte('%')
			b.WriteByte(upperhex[c>>4])
			b.WriteByte(upperhex[c&0xf])
		} else {
			b.WriteByte(c)
		}
	}
	return b.String()
}

func shouldEscape(c byte) bool {
	switch {
	case 'A' <= c && c <= 'Z', 'a' <= c && c <= 'z', '0' <= c && c <= '9':
		return false
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return false
	}
	return true
}
