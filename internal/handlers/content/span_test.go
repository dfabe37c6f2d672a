package content

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/importer/internal/textmatch"
)

func scanner(start, end string, maxReadSize int) *SpanScanner {
	return NewSpanScanner(
		textmatch.Basic(start).MustCompile(),
		textmatch.Basic(end).MustCompile(),
		maxReadSize,
	)
}

type collector struct {
	outside strings.Builder
	spans   []SpanMatch
}

func (c *collector) stream(s *SpanScanner) *SpanStream {
	return s.NewStream(
		func(text string) error {
			c.outside.WriteString(text)
			return nil
		},
		func(m SpanMatch) error {
			c.spans = append(c.spans, m)
			return nil
		},
	)
}

func TestSpanScanner_FindAll(t *testing.T) {
	s := scanner("[", "]", 100)
	spans := s.FindAll("a [one] b [two] c [open")

	require.Len(t, spans, 2)
	assert.Equal(t, "one", spans[0].Text(false))
	assert.Equal(t, "[two]", spans[1].Text(true))
}

func TestSpanStream_MarkersSplitAcrossPushes(t *testing.T) {
	var c collector
	st := c.stream(scanner("<start>", "</end>", 100))

	require.NoError(t, st.Push("hello <st"))
	require.NoError(t, st.Push("art>world</e"))
	require.NoError(t, st.Push("nd> bye"))
	require.NoError(t, st.Close())

	require.Len(t, c.spans, 1)
	assert.Equal(t, SpanMatch{Start: "<start>", Inner: "world", End: "</end>"}, c.spans[0])
	assert.Equal(t, "hello  bye", c.outside.String())
}

func TestSpanStream_OverlongStartIsUnmatched(t *testing.T) {
	var c collector
	st := c.stream(scanner("<s>", "<e>", 10))

	first := "<s>" + strings.Repeat("z", 20)
	require.NoError(t, st.Push(first))
	require.NoError(t, st.Push("<e>"))
	require.NoError(t, st.Close())

	assert.Empty(t, c.spans)
	assert.Equal(t, first+"<e>", c.outside.String())
}

func TestSpanScanner_ScanAcrossSections(t *testing.T) {
	content := strings.Repeat("x", 15) + "<<abc>>" + strings.Repeat("y", 12)
	var c collector

	s := scanner("<<", ">>", 16)
	err := s.Scan(context.Background(), newDoc(content), 16,
		func(text string) error {
			c.outside.WriteString(text)
			return nil
		},
		func(m SpanMatch) error {
			c.spans = append(c.spans, m)
			return nil
		})

	require.NoError(t, err)
	require.Len(t, c.spans, 1)
	assert.Equal(t, "abc", c.spans[0].Inner)
	assert.Equal(t, strings.Repeat("x", 15)+strings.Repeat("y", 12), c.outside.String())
}

func TestSpanScanner_LosslessWithoutMatches(t *testing.T) {
	content := strings.Repeat("plain words only. ", 30)
	var c collector
	st := c.stream(scanner("{", "}", 20))

	for i := 0; i < len(content); i += 7 {
		require.NoError(t, st.Push(content[i:min(i+7, len(content))]))
	}
	require.NoError(t, st.Close())
	assert.Equal(t, content, c.outside.String())
}

func TestSpanStream_AnchoredStartMatchesOnce(t *testing.T) {
	for _, maxReadSize := range []int{4, 100} {
		var c collector
		s := NewSpanScanner(
			textmatch.Regex("^").MustCompile(),
			textmatch.Regex(".{0,5}").MustCompile(),
			maxReadSize,
		)
		st := c.stream(s)
		require.NoError(t, st.Push("abcdefgh"))
		require.NoError(t, st.Push("ijkl"))
		require.NoError(t, st.Close())

		require.Len(t, c.spans, 1, "max read size %d", maxReadSize)
		assert.Equal(t, "abcde", c.spans[0].Text(true))
		assert.Equal(t, "fghijkl", c.outside.String())
	}
}
