package text

import (
	"strings"
	"unicode/utf8"
)

// Split breaks input into ordered spans of at most size bytes. Boundaries are
// chosen hierarchically: paragraphs first, then sentences, then words, then a
// raw rune split as a last resort. Every span after the first starts with up
// to `overlap` trailing bytes of the previous span, so context crossing a
// split point survives on both sides. Dropping each span's overlap prefix
// reconstructs the input exactly.
//
// Identical (input, size, overlap) always produce identical output.
func Split(input string, size, overlap int) []string {
	if size <= 0 || strings.TrimSpace(input) == "" {
		return nil
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	// Fragments are capped below size so an overlap seed plus any single
	// fragment still fits in one span.
	frags := decompose(input, size-overlap, 0)

	var chunks []string
	var cur strings.Builder
	for _, f := range frags {
		if cur.Len() > 0 && cur.Len()+len(f) > size {
			chunks = append(chunks, cur.String())
			tail := suffix(cur.String(), overlap)
			// A multibyte rune can make a fragment bigger than size-overlap;
			// shrink the seed so the span stays within size.
			if len(tail)+len(f) > size {
				tail = suffix(tail, size-len(f))
			}
			cur.Reset()
			cur.WriteString(tail)
		}
		cur.WriteString(f)
	}
	if cur.Len() > 0 {
		chunks = append(chunks, cur.String())
	}

	return chunks
}

// decompose splits s into fragments of at most max bytes, descending the
// boundary hierarchy only as far as needed. Separators stay attached to the
// preceding fragment so concatenation is lossless.
func decompose(s string, max int, level int) []string {
	if len(s) <= max {
		return []string{s}
	}

	var parts []string
	switch level {
	case 0:
		parts = strings.SplitAfter(s, "\n\n")
	case 1:
		parts = sentences(s)
	case 2:
		parts = strings.SplitAfter(s, " ")
	default:
		return hardSplit(s, max)
	}

	var out []string
	for _, p := range parts {
		if len(p) <= max {
			out = append(out, p)
		} else {
			out = append(out, decompose(p, max, level+1)...)
		}
	}
	return out
}

// sentences cuts after '.', '!' or '?' when followed by a space or newline,
// keeping the boundary whitespace with the sentence.
func sentences(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s)-1; i++ {
		c := s[i]
		if (c == '.' || c == '!' || c == '?') && (s[i+1] == ' ' || s[i+1] == '\n') {
			out = append(out, s[start:i+2])
			i++
			start = i + 1
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

// hardSplit cuts on rune boundaries when no natural boundary exists.
func hardSplit(s string, max int) []string {
	var out []string
	var b strings.Builder
	for _, r := range s {
		if b.Len()+utf8.RuneLen(r) > max && b.Len() > 0 {
			out = append(out, b.String())
			b.Reset()
		}
		b.WriteRune(r)
	}
	if b.Len() > 0 {
		out = append(out, b.String())
	}
	return out
}

// suffix returns the last n bytes of s, snapped forward to a rune boundary.
func suffix(s string, n int) string {
	if n <= 0 || s == "" {
		return ""
	}
	if n >= len(s) {
		return s
	}
	i := len(s) - n
	for i < len(s) && !utf8.RuneStart(s[i]) {
		i++
	}
	return s[i:]
}
