package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "blank", input: "   ", expected: nil},
		{name: "single element", input: "localhost:9092", expected: []string{"localhost:9092"}},
		{name: "trims whitespace", input: " a , b,c ", expected: []string{"a", "b", "c"}},
		{name: "drops empty elements", input: "a,,b,", expected: []string{"a", "b"}},
		{name: "removes duplicates preserving order", input: "b,a,b,a", expected: []string{"b", "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitList(tt.input))
		})
	}
}
