package store

import (
	"context"
	"fmt"
	"sync"

	"registrar/internal/student/models"
	id "registrar/pkg/domain"
	"registrar/pkg/platform/sentinel"
)

// InMemory is a map-backed student store for development and tests.
// It hands out clones so callers never share state with the store.
type InMemory struct {
	mu          sync.RWMutex
	students    map[id.StudentID]*models.Student
	byMatricula map[string]id.StudentID
	order       []id.StudentID
}

func NewInMemory() *InMemory {
	return &InMemory{
		students:    make(map[id.StudentID]*models.Student),
		byMatricula: make(map[string]id.StudentID),
	}
}

// Save inserts a new student. A taken ID or matricula is a conflict.
func (s *InMemory) Save(_ context.Context, student *models.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.students[student.ID()]; ok {
		return fmt.Errorf("student %s: %w", student.ID(), sentinel.ErrConflict)
	}
	if _, ok := s.byMatricula[student.Matricula()]; ok {
		return fmt.Errorf("matricula %s: %w", student.Matricula(), sentinel.ErrConflict)
	}
	s.students[student.ID()] = student.Clone()
	s.byMatricula[student.Matricula()] = student.ID()
	s.order = append(s.order, student.ID())
	return nil
}

func (s *InMemory) FindByID(_ context.Context, studentID id.StudentID) (*models.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.students[studentID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return st.Clone(), nil
}

func (s *InMemory) FindByMatricula(_ context.Context, matricula string) (*models.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	studentID, ok := s.byMatricula[matricula]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.students[studentID].Clone(), nil
}

// FindAll returns a snapshot in insertion order.
func (s *InMemory) FindAll(_ context.Context) ([]*models.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Student, 0, len(s.order))
	for _, studentID := range s.order {
		out = append(out, s.students[studentID].Clone())
	}
	return out, nil
}

// Update replaces the stored student with the same ID.
func (s *InMemory) Update(_ context.Context, student *models.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.students[student.ID()]; !ok {
		return sentinel.ErrNotFound
	}
	s.students[student.ID()] = student.Clone()
	return nil
}
