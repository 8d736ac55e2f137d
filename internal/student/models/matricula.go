package models

import (
	"math/rand/v2"
	"strconv"
)

const (
	matriculaMin = 100000
	matriculaMax = 999999
)

// MatriculaGenerator produces enrollment numbers.
// Implementations are not required to avoid collisions.
type MatriculaGenerator interface {
	Next() string
}

// RandomMatricula draws uniformly from [100000, 999999].
type RandomMatricula struct{}

func (RandomMatricula) Next() string {
	return strconv.Itoa(matriculaMin + rand.IntN(matriculaMax-matriculaMin+1))
}

// FixedMatricula always returns the same value. Tests use it to force collisions.
type FixedMatricula string

func (f FixedMatricula) Next() string { return string(f) }

// IsWellFormedMatricula reports whether s is a 6 digit number in range.
func IsWellFormedMatricula(s string) bool {
	if len(s) != 6 {
		return false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return false
	}
	return n >= matriculaMin && n <= matriculaMax
}
