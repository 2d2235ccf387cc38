package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"650123456", "237650123456", true},
		{"237650123456", "237650123456", true},
		{"+237650123456", "237650123456", true},
		{"+237 650 123 456", "237650123456", true},
		{"237260123456", "237260123456", true},
		{"", "", false},
		{"123456", "", false},
		{"750123456", "", false},       // bad leading digit
		{"23765012345", "", false},     // too short
		{"2376501234567", "", false},   // too long
		{"abc650123456", "", false},
	}

	for _, c := range cases {
		got, ok := normalizePhone(c.in)
		assert.Equal(t, c.ok, ok, "input %q", c.in)
		if c.ok {
			assert.Equal(t, c.want, got, "input %q", c.in)
		}
	}
}
