package models

import (
	"strings"

	id "registrar/pkg/domain"
	dErrors "registrar/pkg/domain-errors"
)

// MaxAge bounds idade so it always fits the INTEGER column.
const MaxAge = 150

// Student is the registry's only aggregate.
//
// Invariants:
//   - ID and matricula are assigned once, by NewStudent, and never change
//   - Name is non-empty after trimming and age is in 1..MaxAge (checked on creation)
//   - Email is optional; nil (absent) and "" (empty) are different values
//
// Fields are unexported so that only SetEmail can mutate a loaded student.
type Student struct {
	id        id.StudentID
	matricula string
	name      string
	age       int
	email     *string
}

// NewStudent validates the input and assigns a fresh ID and matricula.
// A nil gen falls back to RandomMatricula.
func NewStudent(name string, age int, email *string, gen MatriculaGenerator) (*Student, error) {
	if strings.TrimSpace(name) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if age <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "age must be a positive integer")
	}
	if age > MaxAge {
		return nil, dErrors.New(dErrors.CodeValidation, "age must be 150 or less")
	}
	if gen == nil {
		gen = RandomMatricula{}
	}
	return &Student{
		id:        id.NewStudentID(),
		matricula: gen.Next(),
		name:      name,
		age:       age,
		email:     cloneString(email),
	}, nil
}

// ReconstituteStudent rebuilds a student from stored fields verbatim.
// Stores use it when loading; nothing is generated or validated.
func ReconstituteStudent(studentID id.StudentID, matricula, name string, age int, email *string) *Student {
	return &Student{
		id:        studentID,
		matricula: matricula,
		name:      name,
		age:       age,
		email:     cloneString(email),
	}
}

func (s *Student) ID() id.StudentID  { return s.id }
func (s *Student) Matricula() string { return s.matricula }
func (s *Student) Name() string      { return s.name }
func (s *Student) Age() int          { return s.age }

// Email returns a copy of the email, or nil when the student has none.
func (s *Student) Email() *string { return cloneString(s.email) }

// HasEmail reports whether an email value is present, even an empty one.
func (s *Student) HasEmail() bool { return s.email != nil }

// SetEmail replaces the email in memory. Persisting it is the store's job.
func (s *Student) SetEmail(newEmail string) {
	s.email = &newEmail
}

// Clone returns a deep copy, used by stores to hand out snapshots.
func (s *Student) Clone() *Student {
	if s == nil {
		return nil
	}
	c := *s
	c.email = cloneString(s.email)
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
