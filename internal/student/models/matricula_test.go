package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRandomMatriculaStaysInRange(t *testing.T) {
	gen := RandomMatricula{}
	for range 10000 {
		m := gen.Next()
		assert.True(t, IsWellFormedMatricula(m), "out of range matricula %q", m)
	}
}

func TestIsWellFormedMatricula(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"100000", true},
		{"999999", true},
		{"482913", true},
		{"099999", false},
		{"12345", false},
		{"1234567", false},
		{"+12345", false},
		{"12a456", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, IsWellFormedMatricula(tt.in))
		})
	}
}

func TestFixedMatricula(t *testing.T) {
	gen := FixedMatricula("111111")
	assert.Equal(t, "111111", gen.Next())
	assert.Equal(t, "111111", gen.Next())
}
