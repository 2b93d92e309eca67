package ingestion

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSplitWindows(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		size     int
		expected []string
	}{
		{name: "empty text", text: "", size: 4, expected: nil},
		{name: "shorter than window", text: "abc", size: 4, expected: []string{"abc"}},
		{name: "exact multiple", text: "abcdefgh", size: 4, expected: []string{"abcd", "efgh"}},
		{name: "short last window", text: "AAAABB", size: 4, expected: []string{"AAAA", "BB"}},
		{name: "multibyte characters", text: "héllo wörld", size: 3, expected: []string{"hél", "lo ", "wör", "ld"}},
		{name: "invalid size uses default", text: "abc", size: 0, expected: []string{"abc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitWindows(tt.text, tt.size))
		})
	}
}

func TestSplitWindowsCoversText(t *testing.T) {
	text := strings.Repeat("the quick brown fox ünïcode ", 37)
	length := utf8.RuneCountInString(text)

	for _, size := range []int{1, 2, 7, 100, length, length + 1} {
		windows := SplitWindows(text, size)

		assert.Equal(t, text, strings.Join(windows, ""), "size %d", size)
		assert.Len(t, windows, (length+size-1)/size, "size %d", size)
		for _, window := range windows {
			assert.LessOrEqual(t, utf8.RuneCountInString(window), size)
		}
	}
}

func TestPrefix(t *testing.T) {
	assert.Equal(t, "", Prefix("abc", 0))
	assert.Equal(t, "ab", Prefix("abc", 2))
	assert.Equal(t, "abc", Prefix("abc", 5))
	assert.Equal(t, "hé", Prefix("héllo", 2))
	assert.Equal(t, "", Prefix("", 5))
}
