package models

import (
	"strings"

	dErrors "registrar/pkg/domain-errors"
)

const (
	maxNameLength  = 200
	maxEmailLength = 254
)

// CreateStudentRequest is the body of POST /students/create.
// Idade is a pointer so a missing age is told apart from zero.
type CreateStudentRequest struct {
	Nome  string  `json:"nome"`
	Idade *int    `json:"idade"`
	Email *string `json:"email,omitempty"`
}

func (r *CreateStudentRequest) Normalize() {
	if r == nil {
		return
	}
	r.Nome = strings.TrimSpace(r.Nome)
	if r.Email != nil {
		trimmed := strings.TrimSpace(*r.Email)
		r.Email = &trimmed
	}
}

// Follows validation order: Size -> Required -> Semantic.
func (r *CreateStudentRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}

	if len(r.Nome) > maxNameLength {
		return dErrors.New(dErrors.CodeValidation, "nome must be 200 characters or less")
	}
	if r.Email != nil && len(*r.Email) > maxEmailLength {
		return dErrors.New(dErrors.CodeValidation, "email must be 254 characters or less")
	}

	if r.Nome == "" {
		return dErrors.New(dErrors.CodeValidation, "nome is required")
	}
	if r.Idade == nil {
		return dErrors.New(dErrors.CodeValidation, "idade is required")
	}

	if *r.Idade <= 0 {
		return dErrors.New(dErrors.CodeValidation, "idade must be a positive integer")
	}
	if *r.Idade > MaxAge {
		return dErrors.New(dErrors.CodeValidation, "idade must be 150 or less")
	}
	return nil
}

// UpdateEmailRequest is the body of PUT /students/{id}/email.
type UpdateEmailRequest struct {
	Email *string `json:"email"`
}

func (r *UpdateEmailRequest) Normalize() {
	if r == nil || r.Email == nil {
		return
	}
	trimmed := strings.TrimSpace(*r.Email)
	r.Email = &trimmed
}

func (r *UpdateEmailRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.Email == nil {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if len(*r.Email) > maxEmailLength {
		return dErrors.New(dErrors.CodeValidation, "email must be 254 characters or less")
	}
	return nil
}
