package engine

import (
	"unicode"
	"unicode/utf8"
)

// wordSplitter is a bufio.SplitFunc source that splits on whitespace like
// bufio.ScanWords but never yields more than limit bytes per word. The rest of
// an over-long word is discarded up to the next whitespace, so the scanner
// buffer only ever needs to hold limit bytes plus one rune.
type wordSplitter struct {
	limit int

	skipping  bool // discarding the tail of an over-long word
	truncated bool // the last token returned was cut
}

func newWordSplitter(limit int) *wordSplitter {
	return &wordSplitter{limit: limit}
}

// bufferSize is the scanner buffer limit that fits any token this splitter returns.
func (w *wordSplitter) bufferSize() int {
	return w.limit + utf8.UTFMax
}

func (w *wordSplitter) split(data []byte, atEOF bool) (advance int, token []byte, err error) {
	w.truncated = false

	start := 0
	if w.skipping {
		for start < len(data) {
			r, width := utf8.DecodeRune(data[start:])
			if unicode.IsSpace(r) {
				w.skipping = false
				break
			}
			start += width
		}
		if w.skipping {
			return len(data), nil, nil
		}
	}

	for start < len(data) {
		r, width := utf8.DecodeRune(data[start:])
		if !unicode.IsSpace(r) {
			break
		}
		start += width
	}

	for i := start; i < len(data); {
		r, width := utf8.DecodeRune(data[i:])
		if unicode.IsSpace(r) {
			return i + width, data[start:i], nil
		}
		if i+width-start > w.limit {
			w.skipping = true
			w.truncated = true
			if i == start {
				// A single rune wider than limit; cut bytes.
				return start + w.limit, data[start : start+w.limit], nil
			}
			return i, data[start:i], nil
		}
		i += width
	}

	if atEOF && len(data) > start {
		return len(data), data[start:], nil
	}
	return start, nil, nil
}
