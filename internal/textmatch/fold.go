package textmatch

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold removes diacritical marks, e.g. "Crème brûlée" becomes
// "Creme brulee".
func Fold(s string) string {
	if isASCII(s) {
		return s
	}
	out, _, err := transform.String(newFolder(), s)
	if err != nil {
		return s
	}
	return out
}

func newFolder() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// foldWithOffsets folds s rune by rune and returns, for every byte offset
// of the folded string (plus its end), the matching offset in s.
func foldWithOffsets(s string) (string, []int) {
	var b strings.Builder
	offsets := make([]int, 0, len(s)+1)
	t := newFolder()

	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		piece := s[i : i+size]
		if r >= utf8.RuneSelf {
			t.Reset()
			if folded, _, err := transform.String(t, piece); err == nil {
				piece = folded
			}
		}
		for range len(piece) {
			offsets = append(offsets, i)
		}
		b.WriteString(piece)
		i += size
	}
	offsets = append(offsets, len(s))
	return b.String(), offsets
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
