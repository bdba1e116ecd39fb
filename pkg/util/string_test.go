package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeStrings(t *testing.T) {
	tests := []struct {
		name   string
		input  []string
		expect []string
	}{
		{"nil", nil, nil},
		{"no duplicates", []string{"a", "b"}, []string{"a", "b"}},
		{"preserves first-seen order", []string{"b", "a", "b", "c", "a"}, []string{"b", "a", "c"}},
		{"all same", []string{"x", "x", "x"}, []string{"x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, DedupeStrings(tt.input))
		})
	}
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "abcd", ShortID("abcdefgh", 4))
	assert.Equal(t, "abc", ShortID("abc", 8))
	assert.Equal(t, "abc", ShortID("abc", 0))
	assert.Equal(t, "", ShortID("", 4))
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "b", FirstNonEmpty("", "  ", "b", "c"))
	assert.Equal(t, "", FirstNonEmpty("", "   "))
	assert.Equal(t, "a", FirstNonEmpty("a"))
}
