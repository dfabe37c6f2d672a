package content

import (
	"context"
	"unicode/utf8"

	"github.com/custodia-labs/importer/internal/core/domain"
	"github.com/custodia-labs/importer/internal/textmatch"
	"github.com/custodia-labs/importer/internal/textsection"
)

// MaxHoldBack is the number of trailing characters kept back from a
// section so a marker cut by a section boundary is still found.
const MaxHoldBack = 256

// SpanMatch is text found between a start and an end marker.
type SpanMatch struct {
	Start string
	Inner string
	End   string
}

// Text returns the inner text, with markers when inclusive.
func (m SpanMatch) Text(inclusive bool) string {
	if inclusive {
		return m.Start + m.Inner + m.End
	}
	return m.Inner
}

// SpanScanner finds start/end marker spans in text delivered in sections.
// It is immutable; per-document state lives in a SpanStream.
type SpanScanner struct {
	start    *textmatch.Compiled
	end      *textmatch.Compiled
	maxCarry int
	holdBack int
}

// NewSpanScanner creates a scanner. maxReadSize bounds the text carried
// over from one section to the next.
func NewSpanScanner(start, end *textmatch.Compiled, maxReadSize int) *SpanScanner {
	if maxReadSize <= 0 {
		maxReadSize = textsection.DefaultMaxReadSize
	}
	return &SpanScanner{
		start:    start,
		end:      end,
		maxCarry: maxReadSize,
		holdBack: min(MaxHoldBack, maxReadSize),
	}
}

// FindAll returns every span of a complete text.
func (s *SpanScanner) FindAll(text string) []SpanMatch {
	var matches []SpanMatch
	st := s.NewStream(nil, func(m SpanMatch) error {
		matches = append(matches, m)
		return nil
	})
	_ = st.scan(text, true)
	return matches
}

// Scan streams the document content through the scanner.
func (s *SpanScanner) Scan(ctx context.Context, doc *domain.Document, maxReadSize int, outside func(string) error, match func(SpanMatch) error) error {
	st := s.NewStream(outside, match)
	if err := EachSection(ctx, doc, maxReadSize, func(text string, _ int) error {
		return st.Push(text)
	}); err != nil {
		return err
	}
	return st.Close()
}

// NewStream starts a scan. outside receives the text that is not part of
// a span, match receives spans. Either may be nil.
func (s *SpanScanner) NewStream(outside func(string) error, match func(SpanMatch) error) *SpanStream {
	if outside == nil {
		outside = func(string) error { return nil }
	}
	if match == nil {
		match = func(SpanMatch) error { return nil }
	}
	return &SpanStream{scanner: s, outside: outside, match: match}
}

// SpanStream is the state of one scan. Outside text and spans are
// delivered in stream order.
type SpanStream struct {
	scanner *SpanScanner
	outside func(string) error
	match   func(SpanMatch) error
	carry   string
	prefix  string
}

// Push feeds the next piece of text.
func (st *SpanStream) Push(text string) error {
	return st.scan(text, false)
}

// Close resolves the carried text at end of stream.
func (st *SpanStream) Close() error {
	return st.scan("", true)
}

func (st *SpanStream) scan(text string, last bool) error {
	s := st.scanner
	// prefix is the character before carry, kept as matching context
	buf := st.prefix + st.carry + text
	pos := len(st.prefix)
	st.carry, st.prefix = "", ""

	for pos < len(buf) {
		sloc := s.start.FindIndex(buf, pos)
		if sloc == nil {
			if last {
				return st.emitOutside(buf[pos:])
			}
			keep := tailOffset(buf[pos:], s.holdBack) + pos
			st.keep(buf, keep)
			return st.emitOutside(buf[pos:keep])
		}

		eloc := s.end.FindIndex(buf, sloc[1])
		carryLen := utf8.RuneCountInString(buf[sloc[0]:])

		if !last && carryLen < s.maxCarry {
			if eloc == nil || eloc[1] > tailOffset(buf, s.holdBack) {
				st.keep(buf, sloc[0])
				return st.emitOutside(buf[pos:sloc[0]])
			}
		}

		if eloc == nil {
			// unmatched start: give up on it and look for the next one
			next := max(sloc[1], pos+runeSize(buf[pos:]))
			if err := st.emitOutside(buf[pos:next]); err != nil {
				return err
			}
			pos = next
			continue
		}

		if err := st.emitOutside(buf[pos:sloc[0]]); err != nil {
			return err
		}
		if err := st.match(SpanMatch{
			Start: buf[sloc[0]:sloc[1]],
			Inner: buf[sloc[1]:eloc[0]],
			End:   buf[eloc[0]:eloc[1]],
		}); err != nil {
			return err
		}

		if eloc[1] > pos {
			pos = eloc[1]
		} else {
			next := pos + runeSize(buf[pos:])
			if err := st.emitOutside(buf[pos:next]); err != nil {
				return err
			}
			pos = next
		}
	}
	return nil
}

// keep carries buf[from:] over to the next scan.
func (st *SpanStream) keep(buf string, from int) {
	st.carry = buf[from:]
	if from > 0 {
		_, size := utf8.DecodeLastRuneInString(buf[:from])
		st.prefix = buf[from-size : from]
	}
}

func (st *SpanStream) emitOutside(text string) error {
	if text == "" {
		return nil
	}
	return st.outside(text)
}

// tailOffset returns the byte offset where the last n characters of s start.
func tailOffset(s string, n int) int {
	i := len(s)
	for ; n > 0 && i > 0; n-- {
		_, size := utf8.DecodeLastRuneInString(s[:i])
		i -= size
	}
	return i
}

func runeSize(s string) int {
	if s == "" {
		return 0
	}
	_, size := utf8.DecodeRuneInString(s)
	return size
}
