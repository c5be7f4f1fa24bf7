package service

import (
	"errors"

	"github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/internal/models"
	appErrors "github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/pkg/errors"
)

// translateDomainError lifts a business rejection into the transport error carrying its details.
// ok is false for errors that are not business outcomes.
func translateDomainError(err error) (appErr *appErrors.Error, reason string, ok bool) {
	var (
		conflict        *models.SessionConflictError
		invalidInterval *models.InvalidIntervalError
		exceedsRoom     *models.CapacityExceedsRoomError
		belowEnrolled   *models.CapacityBelowEnrolledError
		roomInactive    *models.RoomInactiveError
		notOpen         *models.SessionNotOpenError
		full            *models.SessionFullError
		noMembership    *models.NoActiveMembershipError
		alreadyEnrolled *models.AlreadyEnrolledError
		notConfirmed    *models.EnrollmentNotConfirmedError
		duplicate       *models.DuplicateAttendanceError
		beforeSession   *models.AttendanceBeforeSessionError
		notFound        *models.NotFoundError
	)
	switch {
	case errors.As(err, &conflict):
		base := appErrors.ErrRoomConflict
		if conflict.Kind == models.ConflictKindInstructor {
			base = appErrors.ErrInstructorConflict
		}
		return appErrors.WithDetails(base, err, conflict.Error(), conflict), base.Code, true
	case errors.As(err, &invalidInterval):
		return appErrors.WithDetails(appErrors.ErrInvalidInterval, err, invalidInterval.Error(), invalidInterval), appErrors.ErrInvalidInterval.Code, true
	case errors.As(err, &exceedsRoom):
		return appErrors.WithDetails(appErrors.ErrCapacityExceedsRoom, err, exceedsRoom.Error(), exceedsRoom), appErrors.ErrCapacityExceedsRoom.Code, true
	case errors.As(err, &belowEnrolled):
		return appErrors.WithDetails(appErrors.ErrCapacityBelowEnrolled, err, belowEnrolled.Error(), belowEnrolled), appErrors.ErrCapacityBelowEnrolled.Code, true
	case errors.As(err, &roomInactive):
		return appErrors.WithDetails(appErrors.ErrRoomInactive, err, roomInactive.Error(), roomInactive), appErrors.ErrRoomInactive.Code, true
	case errors.As(err, &notOpen):
		return appErrors.WithDetails(appErrors.ErrSessionNotOpen, err, notOpen.Error(), notOpen), appErrors.ErrSessionNotOpen.Code, true
	case errors.As(err, &full):
		return appErrors.WithDetails(appErrors.ErrSessionFull, err, full.Error(), full), appErrors.ErrSessionFull.Code, true
	case errors.As(err, &noMembership):
		return appErrors.WithDetails(appErrors.ErrNoActiveMembership, err, noMembership.Error(), noMembership), appErrors.ErrNoActiveMembership.Code, true
	case errors.As(err, &alreadyEnrolled):
		return appErrors.WithDetails(appErrors.ErrAlreadyEnrolled, err, alreadyEnrolled.Error(), alreadyEnrolled), appErrors.ErrAlreadyEnrolled.Code, true
	case errors.As(err, &notConfirmed):
		return appErrors.WithDetails(appErrors.ErrEnrollmentNotConfirmed, err, notConfirmed.Error(), notConfirmed), appErrors.ErrEnrollmentNotConfirmed.Code, true
	case errors.As(err, &duplicate):
		return appErrors.WithDetails(appErrors.ErrDuplicateAttendance, err, duplicate.Error(), duplicate), appErrors.ErrDuplicateAttendance.Code, true
	case errors.As(err, &beforeSession):
		return appErrors.WithDetails(appErrors.ErrAttendanceBeforeSession, err, beforeSession.Error(), beforeSession), appErrors.ErrAttendanceBeforeSession.Code, true
	case errors.As(err, &notFound):
		return appErrors.WithDetails(appErrors.ErrNotFound, err, notFound.Error(), notFound), appErrors.ErrNotFound.Code, true
	}
	return nil, "", false
}

// wrapStorageError returns domain rejections as-is and wraps everything else as an internal failure.
func wrapStorageError(err error, message string) error {
	if appErr, _, ok := translateDomainError(err); ok {
		return appErr
	}
	var existing *appErrors.Error
	if errors.As(err, &existing) {
		return existing
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func notFoundError(entity, id string) *appErrors.Error {
	appErr, _, _ := translateDomainError(&models.NotFoundError{Entity: entity, ID: id})
	return appErr
}

func validationError(err error, message string) *appErrors.Error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}
