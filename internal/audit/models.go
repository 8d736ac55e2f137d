package audit

import "time"

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	StudentID string    `json:"student_id,omitempty"`
	Matricula string    `json:"matricula,omitempty"`
	// RequestID correlates the event with the HTTP access log.
	RequestID string `json:"request_id,omitempty"`
	ClientIP  string `json:"client_ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}

type AuditEvent string

const (
	EventStudentCreated      AuditEvent = "student_created"
	EventStudentEmailUpdated AuditEvent = "student_email_updated"
)
