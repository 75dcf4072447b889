package mend

import "bytes"

// indexAny3 returns the position of the first occurrence of a, b, or c in p,
// or -1. Each later needle is only searched up to the best match so far, so
// the windows between consecutive matches are disjoint and a full transcode
// pass stays linear.
func indexAny3(p []byte, a, b, c byte) int {
	i := bytes.IndexByte(p, a)
	win := p
	if i >= 0 {
		win = p[:i]
	}
	if j := bytes.IndexByte(win, b); j >= 0 {
		i = j
		win = p[:i]
	}
	if k := bytes.IndexByte(win, c); k >= 0 {
		i = k
	}
	return i
}

// transcodeChunk rewrites one chunk of broken CSV, appending to out and
// returning the (possibly regrown) slice. Every sep becomes `","`, every eol
// becomes `"`+newline+`"`, and literal quotes are backslash-escaped so the
// synthetic quoting stays intact. A backslash immediately before a delimiter
// is doubled so downstream parsers do not eat the closing quote.
//
// The backslash look-back only sees the current chunk: a backslash that ends
// one chunk with its delimiter starting the next goes undetected. Callers
// that care must size chunks so that pairing cannot straddle a boundary.
func transcodeChunk(haystack, out []byte, sep, eol byte) []byte {
	idx := 0
	for {
		rel := indexAny3(haystack[idx:], sep, eol, '"')
		if rel < 0 {
			break
		}
		pos := idx + rel
		out = append(out, haystack[idx:pos]...)

		switch haystack[pos] {
		case sep:
			if pos > 0 && haystack[pos-1] == '\\' {
				out = append(out, '\\')
			}
			out = append(out, '"', ',', '"')
		case eol:
			if pos > 0 && haystack[pos-1] == '\\' {
				out = append(out, '\\')
			}
			out = append(out, '"', '\n', '"')
		default: // literal quote
			out = append(out, '\\', '"')
		}

		idx = pos + 1
	}
	return append(out, haystack[idx:]...)
}
