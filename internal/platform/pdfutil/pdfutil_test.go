package pdfutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numberedWords(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(words, " ")
}

func TestSlidingWindowChunks(t *testing.T) {
	t.Run("empty text yields no chunks", func(t *testing.T) {
		assert.Nil(t, SlidingWindowChunks("", 10, 5))
		assert.Nil(t, SlidingWindowChunks("   \n\t ", 10, 5))
	})

	t.Run("short text yields one chunk", func(t *testing.T) {
		chunks := SlidingWindowChunks("alpha beta gamma", 10, 5)
		require.Len(t, chunks, 1)
		assert.Equal(t, "alpha beta gamma", chunks[0])
	})

	t.Run("exact window size yields one chunk", func(t *testing.T) {
		chunks := SlidingWindowChunks(numberedWords(10), 10, 5)
		require.Len(t, chunks, 1)
	})

	t.Run("overlapping windows advance by step", func(t *testing.T) {
		chunks := SlidingWindowChunks(numberedWords(25), 10, 5)
		require.Len(t, chunks, 4)

		assert.True(t, strings.HasPrefix(chunks[0], "w0 "))
		assert.True(t, strings.HasPrefix(chunks[1], "w5 "))
		assert.True(t, strings.HasPrefix(chunks[2], "w10 "))
		assert.True(t, strings.HasPrefix(chunks[3], "w15 "))

		// Final chunk carries the trailing words.
		assert.True(t, strings.HasSuffix(chunks[3], "w24"))
	})

	t.Run("consecutive windows share the overlap", func(t *testing.T) {
		chunks := SlidingWindowChunks(numberedWords(20), 10, 5)
		first := strings.Fields(chunks[0])
		second := strings.Fields(chunks[1])
		assert.Equal(t, first[5:], second[:5])
	})

	t.Run("every word appears in some chunk", func(t *testing.T) {
		chunks := SlidingWindowChunks(numberedWords(23), 10, 5)
		seen := map[string]bool{}
		for _, c := range chunks {
			for _, w := range strings.Fields(c) {
				seen[w] = true
			}
		}
		assert.Len(t, seen, 23)
	})

	t.Run("degenerate sizes are clamped", func(t *testing.T) {
		chunks := SlidingWindowChunks("a b c", 0, 0)
		require.NotEmpty(t, chunks)
		assert.Equal(t, "a", chunks[0])
	})
}

func TestExtractText_MissingFile(t *testing.T) {
	e := NewExtractor()
	_, err := e.ExtractText("testdata/does-not-exist.pdf")
	assert.Error(t, err)
}
