package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"registrar/internal/student/models"
	dErrors "registrar/pkg/domain-errors"
	"registrar/pkg/platform/httputil"
	"registrar/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the interface for student operations.
type Service interface {
	CreateStudent(ctx context.Context, name string, age int, email *string) (*models.StudentView, error)
	GetStudentByID(ctx context.Context, rawID string) (*models.StudentView, error)
	GetStudentByMatricula(ctx context.Context, matricula string) (*models.StudentView, error)
	GetAllStudents(ctx context.Context) (*models.StudentList, error)
	UpdateStudentEmail(ctx context.Context, rawID string, newEmail string) (*models.UpdateEmailResult, error)
}

const studentNotFound = "Student not found"

// Handler wires student endpoints to the student service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a student handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts student endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/students/create", h.HandleCreate)
	r.Get("/students", h.HandleList)
	r.Get("/students/matricula/{matricula}", h.HandleGetByMatricula)
	r.Get("/students/{id}", h.HandleGetByID)
	r.Put("/students/{id}/email", h.HandleUpdateEmail)
}

// HandleCreate handles POST /students/create.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[models.CreateStudentRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	view, err := h.service.CreateStudent(ctx, req.Nome, *req.Idade, req.Email)
	if err != nil {
		h.logFailure(ctx, "student creation failed", requestID, err)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "student created",
		"request_id", requestID,
		"student_id", view.ID,
		"matricula", view.Matricula,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, view)
}

// HandleList handles GET /students.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	list, err := h.service.GetAllStudents(ctx)
	if err != nil {
		h.logFailure(ctx, "list students failed", requestcontext.RequestID(ctx), err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

// HandleGetByID handles GET /students/{id}.
func (h *Handler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rawID := strings.TrimSpace(chi.URLParam(r, "id"))
	if rawID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "ID is required"))
		return
	}

	view, err := h.service.GetStudentByID(ctx, rawID)
	h.writeLookup(w, r, view, err)
}

// HandleGetByMatricula handles GET /students/matricula/{matricula}.
func (h *Handler) HandleGetByMatricula(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	matricula := strings.TrimSpace(chi.URLParam(r, "matricula"))
	if matricula == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Matricula is required"))
		return
	}

	view, err := h.service.GetStudentByMatricula(ctx, matricula)
	h.writeLookup(w, r, view, err)
}

func (h *Handler) writeLookup(w http.ResponseWriter, r *http.Request, view *models.StudentView, err error) {
	ctx := r.Context()
	if err != nil {
		h.logFailure(ctx, "student lookup failed", requestcontext.RequestID(ctx), err)
		httputil.WriteError(w, err)
		return
	}
	if view == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, studentNotFound))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

// HandleUpdateEmail handles PUT /students/{id}/email.
// An unknown student answers 404 with {"success": false}.
func (h *Handler) HandleUpdateEmail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	rawID := strings.TrimSpace(chi.URLParam(r, "id"))
	if rawID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "ID is required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[models.UpdateEmailRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.UpdateStudentEmail(ctx, rawID, *req.Email)
	if err != nil {
		h.logFailure(ctx, "student email update failed", requestID, err)
		httputil.WriteError(w, err)
		return
	}

	status := http.StatusOK
	if !result.Success {
		status = http.StatusNotFound
	}
	httputil.WriteJSON(w, status, result)
}

// logFailure logs server faults at error level and client faults at warn.
func (h *Handler) logFailure(ctx context.Context, msg, requestID string, err error) {
	if dErrors.ToHTTPStatus(dErrors.CodeOf(err)) >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, msg, "request_id", requestID, "error", err)
		return
	}
	h.logger.WarnContext(ctx, msg, "request_id", requestID, "error", err)
}
