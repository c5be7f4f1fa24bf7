package repository

import (
	"errors"
	"strings"

	"github.com/lib/pq"

	"github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/internal/models"
)

const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
	pgExclusionViolation  = "23P01"
)

// ErrDuplicateRoomName is returned when a room name is already taken.
var ErrDuplicateRoomName = errors.New("room name already exists")

func pgError(err error) (*pq.Error, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr, true
	}
	return nil, false
}

// translateSessionWriteError maps storage constraint violations on class_sessions to domain errors.
func translateSessionWriteError(err error, session *models.ClassSession) error {
	pqErr, ok := pgError(err)
	if !ok {
		return nil
	}
	switch string(pqErr.Code) {
	case pgExclusionViolation:
		kind := models.ConflictKindRoom
		if strings.Contains(pqErr.Constraint, "instructor") {
			kind = models.ConflictKindInstructor
		}
		return &models.SessionConflictError{Kind: kind, Date: session.Date, Unspecified: true}
	case pgForeignKeyViolation:
		return foreignKeyNotFound(pqErr.Constraint, session)
	}
	return nil
}

func foreignKeyNotFound(constraint string, session *models.ClassSession) error {
	switch {
	case strings.Contains(constraint, "discipline"):
		return &models.NotFoundError{Entity: "discipline", ID: session.DisciplineID}
	case strings.Contains(constraint, "instructor"):
		return &models.NotFoundError{Entity: "instructor", ID: session.InstructorID}
	case strings.Contains(constraint, "room"):
		return &models.NotFoundError{Entity: "room", ID: session.RoomID}
	}
	return &models.NotFoundError{Entity: "reference", ID: constraint}
}
