package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"registrar/internal/student/models"
	id "registrar/pkg/domain"
	"registrar/pkg/platform/sentinel"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// PostgresStore persists students in the students table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed student store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, student *models.Student) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO students (id, matricula, nome, idade, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
	`, uuid.UUID(student.ID()), student.Matricula(), student.Name(), student.Age(), nullString(student.Email()))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("save student %s: %w", student.ID(), sentinel.ErrConflict)
		}
		return fmt.Errorf("save student: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, studentID id.StudentID) (*models.Student, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, matricula, nome, idade, email
		FROM students
		WHERE id = $1
	`, uuid.UUID(studentID))
	return scanStudent(row)
}

func (s *PostgresStore) FindByMatricula(ctx context.Context, matricula string) (*models.Student, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, matricula, nome, idade, email
		FROM students
		WHERE matricula = $1
	`, matricula)
	return scanStudent(row)
}

func (s *PostgresStore) FindAll(ctx context.Context) ([]*models.Student, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, matricula, nome, idade, email
		FROM students
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	defer rows.Close()

	students := make([]*models.Student, 0)
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate students: %w", err)
	}
	return students, nil
}

// Update writes the mutable fields. Only email changes after creation.
func (s *PostgresStore) Update(ctx context.Context, student *models.Student) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE students
		SET email = $2, updated_at = NOW()
		WHERE id = $1
	`, uuid.UUID(student.ID()), nullString(student.Email()))
	if err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update student rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStudent(row rowScanner) (*models.Student, error) {
	var (
		studentID uuid.UUID
		matricula string
		nome      string
		idade     int
		email     sql.NullString
	)
	if err := row.Scan(&studentID, &matricula, &nome, &idade, &email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan student: %w", err)
	}
	var emailPtr *string
	if email.Valid {
		emailPtr = &email.String
	}
	return models.ReconstituteStudent(id.StudentID(studentID), matricula, nome, idade, emailPtr), nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
