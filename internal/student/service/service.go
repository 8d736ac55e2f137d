package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"registrar/internal/audit"
	"registrar/internal/student/metrics"
	"registrar/internal/student/models"
	id "registrar/pkg/domain"
	dErrors "registrar/pkg/domain-errors"
	"registrar/pkg/platform/sentinel"
	"registrar/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,AuditPublisher

// Store is the persistence port for students.
// Lookups return sentinel.ErrNotFound when nothing matches.
type Store interface {
	Save(ctx context.Context, student *models.Student) error
	FindByID(ctx context.Context, studentID id.StudentID) (*models.Student, error)
	FindByMatricula(ctx context.Context, matricula string) (*models.Student, error)
	FindAll(ctx context.Context) ([]*models.Student, error)
	Update(ctx context.Context, student *models.Student) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

const tracerName = "registrar/internal/student/service"

// Service implements the student use cases. It holds no per-request state,
// so one instance is shared by all handlers.
type Service struct {
	store          Store
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	matriculas     models.MatriculaGenerator
	tracer         trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithMatriculaGenerator replaces the random generator, mainly for tests.
func WithMatriculaGenerator(gen models.MatriculaGenerator) Option {
	return func(s *Service) {
		s.matriculas = gen
	}
}

// New constructs a Service. The store is required.
func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("student store is required")
	}
	s := &Service{
		store:      store,
		matriculas: models.RandomMatricula{},
		tracer:     otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.matriculas == nil {
		s.matriculas = models.RandomMatricula{}
	}
	return s, nil
}

// CreateStudent registers a new student.
// A non-empty email must not belong to any existing student; the check is a
// full scan that runs before the write and is not atomic with it.
func (s *Service) CreateStudent(ctx context.Context, name string, age int, email *string) (*models.StudentView, error) {
	ctx, span := s.tracer.Start(ctx, "student.CreateStudent")
	defer span.End()
	defer s.observe("create_student", time.Now())

	if email != nil && *email != "" {
		taken, err := s.emailTaken(ctx, *email)
		if err != nil {
			return nil, s.fail(span, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check email uniqueness"))
		}
		if taken {
			s.incrementDuplicateEmail()
			return nil, s.fail(span, dErrors.Newf(dErrors.CodeConflict, "student with email %s already exists", *email))
		}
	}

	student, err := models.NewStudent(name, age, email, s.matriculas)
	if err != nil {
		return nil, s.fail(span, err)
	}

	if err := s.store.Save(ctx, student); err != nil {
		return nil, s.fail(span, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save student"))
	}

	span.SetAttributes(
		attribute.String("student.id", student.ID().String()),
		attribute.String("student.matricula", student.Matricula()),
	)
	s.logAudit(ctx, audit.EventStudentCreated, student)
	s.incrementStudentsCreated()

	view := models.ToView(student)
	return &view, nil
}

func (s *Service) emailTaken(ctx context.Context, email string) (bool, error) {
	students, err := s.store.FindAll(ctx)
	if err != nil {
		return false, err
	}
	for _, st := range students {
		if e := st.Email(); e != nil && *e == email {
			return true, nil
		}
	}
	return false, nil
}

// GetStudentByID returns nil, nil when no student matches, including when
// rawID is not a valid student ID.
func (s *Service) GetStudentByID(ctx context.Context, rawID string) (*models.StudentView, error) {
	ctx, span := s.tracer.Start(ctx, "student.GetStudentByID")
	defer span.End()
	defer s.observe("get_student_by_id", time.Now())

	studentID, err := id.ParseStudentID(rawID)
	if err != nil {
		return nil, nil
	}
	span.SetAttributes(attribute.String("student.id", studentID.String()))

	student, err := s.store.FindByID(ctx, studentID)
	return s.lookupResult(span, student, err)
}

// GetStudentByMatricula returns nil, nil when no student matches.
func (s *Service) GetStudentByMatricula(ctx context.Context, matricula string) (*models.StudentView, error) {
	ctx, span := s.tracer.Start(ctx, "student.GetStudentByMatricula",
		trace.WithAttributes(attribute.String("student.matricula", matricula)))
	defer span.End()
	defer s.observe("get_student_by_matricula", time.Now())

	student, err := s.store.FindByMatricula(ctx, matricula)
	return s.lookupResult(span, student, err)
}

func (s *Service) lookupResult(span trace.Span, student *models.Student, err error) (*models.StudentView, error) {
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, s.fail(span, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load student"))
	}
	if student == nil {
		return nil, nil
	}
	view := models.ToView(student)
	return &view, nil
}

// GetAllStudents lists every registered student.
func (s *Service) GetAllStudents(ctx context.Context) (*models.StudentList, error) {
	ctx, span := s.tracer.Start(ctx, "student.GetAllStudents")
	defer span.End()
	defer s.observe("get_all_students", time.Now())

	students, err := s.store.FindAll(ctx)
	if err != nil {
		return nil, s.fail(span, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list students"))
	}
	span.SetAttributes(attribute.Int("student.count", len(students)))
	return models.ToList(students), nil
}

// UpdateStudentEmail replaces a student's email.
// Unlike CreateStudent it does not check that the new email is unused.
func (s *Service) UpdateStudentEmail(ctx context.Context, rawID string, newEmail string) (*models.UpdateEmailResult, error) {
	ctx, span := s.tracer.Start(ctx, "student.UpdateStudentEmail")
	defer span.End()
	defer s.observe("update_student_email", time.Now())

	studentID, err := id.ParseStudentID(rawID)
	if err != nil {
		s.incrementEmailUpdate("not_found")
		return &models.UpdateEmailResult{Success: false}, nil
	}
	span.SetAttributes(attribute.String("student.id", studentID.String()))

	student, err := s.store.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.incrementEmailUpdate("not_found")
			return &models.UpdateEmailResult{Success: false}, nil
		}
		return nil, s.fail(span, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load student"))
	}
	if student == nil {
		s.incrementEmailUpdate("not_found")
		return &models.UpdateEmailResult{Success: false}, nil
	}

	student.SetEmail(newEmail)
	if err := s.store.Update(ctx, student); err != nil {
		return nil, s.fail(span, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update student"))
	}

	s.logAudit(ctx, audit.EventStudentEmailUpdated, student)
	s.incrementEmailUpdate("updated")
	return &models.UpdateEmailResult{Success: true}, nil
}

func (s *Service) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
	return err
}

// logAudit is best effort: a failed emit is logged, never returned.
func (s *Service) logAudit(ctx context.Context, event audit.AuditEvent, student *models.Student) {
	attributes := []any{
		"event", string(event),
		"log_type", "audit",
		"student_id", student.ID().String(),
		"matricula", student.Matricula(),
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(event), attributes...)
	}
	if s.auditPublisher == nil {
		return
	}
	err := s.auditPublisher.Emit(ctx, audit.Event{
		Action:    string(event),
		StudentID: student.ID().String(),
		Matricula: student.Matricula(),
	})
	if err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "audit emit failed", append(attributes, "error", err)...)
	}
}

func (s *Service) observe(op string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveOperation(op, start)
	}
}

func (s *Service) incrementStudentsCreated() {
	if s.metrics != nil {
		s.metrics.IncrementStudentsCreated()
	}
}

func (s *Service) incrementDuplicateEmail() {
	if s.metrics != nil {
		s.metrics.IncrementDuplicateEmail()
	}
}

func (s *Service) incrementEmailUpdate(outcome string) {
	if s.metrics != nil {
		s.metrics.IncrementEmailUpdate(outcome)
	}
}
