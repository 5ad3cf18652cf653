package listing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected []string
	}{
		{
			name:     "mixed lines",
			body:     "12345678901234567890\nabc\n1234567890123456789",
			expected: []string{"1234567890123456789"},
		},
		{
			name:     "digits recovered from decorated lines",
			body:     "id: 1234-5678-9012-3456-789\r\n(9876543210987654321)",
			expected: []string{"1234567890123456789", "9876543210987654321"},
		},
		{
			name:     "runs of line breaks",
			body:     "\r\n\r\n1111111111111111111\n\n\r2222222222222222222\r\n",
			expected: []string{"1111111111111111111", "2222222222222222222"},
		},
		{
			name:     "duplicates kept in order",
			body:     "3333333333333333333\n1111111111111111111\n3333333333333333333",
			expected: []string{"3333333333333333333", "1111111111111111111", "3333333333333333333"},
		},
		{
			name:     "too short and too long",
			body:     "123456789012345678\n12345678901234567890",
			expected: nil,
		},
		{
			name:     "empty body",
			body:     "",
			expected: nil,
		},
		{
			name:     "non-ascii digits are stripped",
			body:     "١٢٣1234567890123456789",
			expected: []string{"1234567890123456789"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.body))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	bodies := []string{
		"12345678901234567890\nabc\n1234567890123456789",
		"a1b2c3d4e5f6g7h8i9j0k1l2m3n4o5p6q7r8s9\n0000000000000000000",
		"",
	}

	for _, body := range bodies {
		once := Normalize(body)
		twice := Normalize(strings.Join(once, "\n"))
		assert.Equal(t, once, twice)
	}
}
