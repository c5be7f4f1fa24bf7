package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Audit actions emitted by the scheduling core.
const (
	AuditActionSessionCreate    = "SESSION_CREATE"
	AuditActionSessionUpdate    = "SESSION_UPDATE"
	AuditActionSessionCancel    = "SESSION_CANCEL"
	AuditActionEnroll           = "ENROLLMENT_CREATE"
	AuditActionEnrollmentCancel = "ENROLLMENT_CANCEL"
	AuditActionAttendanceRecord = "ATTENDANCE_RECORD"
	AuditActionAttendanceUpdate = "ATTENDANCE_UPDATE"
	AuditActionRoomCreate       = "ROOM_CREATE"
	AuditActionRoomUpdate       = "ROOM_UPDATE"
)

// Audit outcomes.
const (
	AuditOutcomeSuccess  = "success"
	AuditOutcomeRejected = "rejected"
)

// AuditEntry is a notification handed to the audit sink.
type AuditEntry struct {
	ActorID    string                 `json:"actor_id"`
	Action     string                 `json:"action"`
	EntityType string                 `json:"entity_type"`
	EntityID   string                 `json:"entity_id"`
	Outcome    string                 `json:"outcome"`
	Detail     map[string]interface{} `json:"detail,omitempty"`
}

// AuditLog represents a persisted audit trail record.
type AuditLog struct {
	ID         string         `db:"id" json:"id"`
	ActorID    string         `db:"actor_id" json:"actor_id"`
	Action     string         `db:"action" json:"action"`
	EntityType string         `db:"entity_type" json:"entity_type"`
	EntityID   string         `db:"entity_id" json:"entity_id"`
	Outcome    string         `db:"outcome" json:"outcome"`
	Detail     types.JSONText `db:"detail" json:"detail,omitempty"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}
