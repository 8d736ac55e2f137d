package domain

import (
	"github.com/google/uuid"

	dErrors "registrar/pkg/domain-errors"
)

// StudentID identifies a student record. It is a distinct type so a raw UUID
// from another context cannot be passed where a student key is expected.
type StudentID uuid.UUID

// NewStudentID returns a fresh random (v4) identifier.
func NewStudentID() StudentID {
	return StudentID(uuid.New())
}

func (id StudentID) String() string {
	return uuid.UUID(id).String()
}

func (id StudentID) IsNil() bool {
	return uuid.UUID(id) == uuid.Nil
}

// ParseStudentID validates raw input at trust boundaries.
// Empty, malformed and nil UUIDs are rejected with CodeInvalidInput.
func ParseStudentID(s string) (StudentID, error) {
	parsed, err := parseUUID(s, "student ID")
	if err != nil {
		return StudentID{}, err
	}
	return StudentID(parsed), nil
}

func parseUUID(s, kind string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s is required", kind)
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s cannot be nil", kind)
	}
	return parsed, nil
}
