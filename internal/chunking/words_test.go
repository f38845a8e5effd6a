package chunking

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWords(t *testing.T) {
	t.Run("default max size", func(t *testing.T) {
		assert.Equal(t, DefaultMaxChunkSize, NewWords().MaxSize())
	})

	t.Run("custom max size", func(t *testing.T) {
		assert.Equal(t, 50, NewWords(WithMaxSize(50)).MaxSize())
	})

	t.Run("non-positive size ignored", func(t *testing.T) {
		assert.Equal(t, DefaultMaxChunkSize, NewWords(WithMaxSize(0)).MaxSize())
		assert.Equal(t, DefaultMaxChunkSize, NewWords(WithMaxSize(-5)).MaxSize())
	})
}

func TestWords_Split(t *testing.T) {
	t.Run("empty and whitespace-only text", func(t *testing.T) {
		w := NewWords()
		assert.Empty(t, w.Split(""))
		assert.Empty(t, w.Split(" \n\t "))
	})

	t.Run("text under max size is one trimmed chunk", func(t *testing.T) {
		w := NewWords(WithMaxSize(100))
		chunks := w.Split("  hello   brave\nnew world  ")
		assert.Equal(t, []string{"hello brave new world"}, chunks)
	})

	t.Run("emits once threshold is reached", func(t *testing.T) {
		w := NewWords(WithMaxSize(10))
		// "aaaa bbbb" = 9, "aaaa bbbb cccc" = 14 >= 10 -> emit
		chunks := w.Split("aaaa bbbb cccc dddd")
		assert.Equal(t, []string{"aaaa bbbb cccc", "dddd"}, chunks)
	})

	t.Run("exact threshold emits", func(t *testing.T) {
		w := NewWords(WithMaxSize(9))
		chunks := w.Split("aaaa bbbb cccc")
		assert.Equal(t, []string{"aaaa bbbb", "cccc"}, chunks)
	})

	t.Run("word longer than max is its own chunk", func(t *testing.T) {
		w := NewWords(WithMaxSize(5))
		chunks := w.Split("abcdefghij xy")
		assert.Equal(t, []string{"abcdefghij", "xy"}, chunks)
	})

	t.Run("counts characters not bytes", func(t *testing.T) {
		w := NewWords(WithMaxSize(5))
		chunks := w.Split("äöü ßé x")
		// "äöü ßé" is 6 characters but 11 bytes.
		assert.Equal(t, []string{"äöü ßé", "x"}, chunks)
	})
}

func TestWords_Properties(t *testing.T) {
	text := strings.Repeat("lorem ipsum dolor sit amet consectetur adipiscing elit ", 80)
	normalised := strings.Join(strings.Fields(text), " ")

	for _, size := range []int{7, 50, 333, 1000} {
		w := NewWords(WithMaxSize(size))
		chunks := w.Split(text)
		require.NotEmpty(t, chunks)

		// Joining reproduces the whitespace-normalised text.
		assert.Equal(t, normalised, strings.Join(chunks, " "))

		for i, chunk := range chunks {
			n := utf8.RuneCountInString(chunk)
			words := strings.Fields(chunk)
			if i < len(chunks)-1 {
				// Every non-final chunk reached the threshold...
				assert.GreaterOrEqual(t, n, size)
				// ...and only with its last word.
				withoutLast := strings.Join(words[:len(words)-1], " ")
				assert.Less(t, utf8.RuneCountInString(withoutLast), size)
			} else {
				assert.NotEmpty(t, words)
			}
		}
	}
}
