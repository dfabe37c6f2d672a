// Package textsection splits a character stream into bounded sections,
// preferring natural text boundaries as cut points.
package textsection

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/importer/internal/core/domain"
)

// DefaultMaxReadSize is the default maximum number of characters per section.
const DefaultMaxReadSize = 10000

var (
	paragraphBreak = regexp.MustCompile(`\n[ \t\r]*\n`)
	sentenceEnd    = regexp.MustCompile(`[.!?]["')\]]*\s`)
)

// Section is a contiguous slice of the stream.
type Section struct {
	// Index is the zero-based position of the section in the stream.
	Index int

	// Text holds at most maxReadSize characters.
	Text string
}

// Reader produces sections from a stream.
// Characters are Unicode code points; bytes that are not valid UTF-8 count
// as one character each and are passed through unchanged.
type Reader struct {
	src     *bufio.Reader
	max     int
	buf     []byte
	chars   int
	index   int
	eof     bool
	done    bool
	emitted bool
}

// NewReader creates a sectioning reader. A maxReadSize of zero selects
// DefaultMaxReadSize; a negative one is a configuration error.
func NewReader(r io.Reader, maxReadSize int) (*Reader, error) {
	if maxReadSize < 0 {
		return nil, &domain.ConfigurationError{Param: "max_read_size", Err: fmt.Errorf("must not be negative, got %d", maxReadSize)}
	}
	if maxReadSize == 0 {
		maxReadSize = DefaultMaxReadSize
	}
	return &Reader{
		src: bufio.NewReader(r),
		max: maxReadSize,
	}, nil
}

// MaxReadSize returns the section bound in characters.
func (r *Reader) MaxReadSize() int {
	return r.max
}

// Next returns the next section, or io.EOF once the stream is exhausted.
// An empty stream yields exactly one empty section. Read failures are
// returned as *domain.StreamReadError.
func (r *Reader) Next() (Section, error) {
	if r.done {
		return Section{}, io.EOF
	}
	if err := r.fill(); err != nil {
		r.done = true
		return Section{}, err
	}

	if len(r.buf) == 0 {
		r.done = true
		if r.emitted {
			return Section{}, io.EOF
		}
		return r.emit(0), nil
	}

	if r.eof {
		r.done = true
		return r.emit(len(r.buf)), nil
	}
	return r.emit(r.cut()), nil
}

// fill reads until the buffer holds max characters or the stream ends.
func (r *Reader) fill() error {
	for !r.eof && r.chars < r.max {
		c, size, err := r.src.ReadRune()
		if err != nil {
			if errors.Is(err, io.EOF) {
				r.eof = true
				return nil
			}
			return &domain.StreamReadError{Err: err}
		}

		if c == utf8.RuneError && size == 1 {
			_ = r.src.UnreadRune()
			b, err := r.src.ReadByte()
			if err != nil {
				return &domain.StreamReadError{Err: err}
			}
			r.buf = append(r.buf, b)
		} else {
			r.buf = utf8.AppendRune(r.buf, c)
		}
		r.chars++
	}

	if !r.eof {
		if _, err := r.src.Peek(1); err != nil {
			if !errors.Is(err, io.EOF) {
				return &domain.StreamReadError{Err: err}
			}
			r.eof = true
		}
	}
	return nil
}

// cut returns the byte length of the next section of a full buffer.
// The cut point lies right after the last paragraph break, else sentence
// end, else whitespace found in the second half of the buffer. Without
// any, the whole buffer is cut.
func (r *Reader) cut() int {
	start := byteOffset(r.buf, r.max/2)
	window := r.buf[start:]

	for _, re := range []*regexp.Regexp{paragraphBreak, sentenceEnd} {
		if locs := re.FindAllIndex(window, -1); len(locs) > 0 {
			return start + locs[len(locs)-1][1]
		}
	}

	for i := len(window); i > 0; {
		c, size := utf8.DecodeLastRune(window[:i])
		if unicode.IsSpace(c) {
			return start + i
		}
		i -= size
	}
	return len(r.buf)
}

func (r *Reader) emit(n int) Section {
	s := Section{Index: r.index, Text: string(r.buf[:n])}
	rest := len(r.buf) - n
	copy(r.buf, r.buf[n:])
	r.buf = r.buf[:rest]
	r.chars = utf8.RuneCount(r.buf)
	r.index++
	r.emitted = true
	return s
}

// byteOffset returns the byte offset of the n-th character of b.
func byteOffset(b []byte, n int) int {
	off := 0
	for i := 0; i < n && off < len(b); i++ {
		_, size := utf8.DecodeRune(b[off:])
		off += size
	}
	return off
}

// Each calls fn for every section of r in order and stops at the first
// error returned by fn or by the stream.
func Each(r io.Reader, maxReadSize int, fn func(Section) error) error {
	sr, err := NewReader(r, maxReadSize)
	if err != nil {
		return err
	}
	for {
		s, err := sr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(s); err != nil {
			return err
		}
	}
}

// Split reads the whole stream into sections.
func Split(r io.Reader, maxReadSize int) ([]Section, error) {
	var sections []Section
	err := Each(r, maxReadSize, func(s Section) error {
		sections = append(sections, s)
		return nil
	})
	return sections, err
}
