package service

import "github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/internal/models"

// Interval is a half-open [Start, End) span of a day.
type Interval struct {
	Start models.TimeOfDay
	End   models.TimeOfDay
}

// Overlaps reports whether two half-open intervals share any instant.
// Touching intervals do not overlap.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start < other.End && other.Start < i.End
}

// HasConflict reports whether candidate overlaps any of the bookings.
func HasConflict(bookings []Interval, candidate Interval) bool {
	for _, booking := range bookings {
		if booking.Overlaps(candidate) {
			return true
		}
	}
	return false
}

// FindConflict returns the earliest active session overlapping candidate, ignoring candidate itself.
func FindConflict(sessions []models.ClassSession, candidate models.ClassSession) *models.ClassSession {
	want := Interval{Start: candidate.StartTime, End: candidate.EndTime}
	var found *models.ClassSession
	for i := range sessions {
		existing := sessions[i]
		if existing.ID != "" && existing.ID == candidate.ID {
			continue
		}
		if !existing.Status.IsActive() || !existing.Date.Equal(candidate.Date) {
			continue
		}
		if !(Interval{Start: existing.StartTime, End: existing.EndTime}).Overlaps(want) {
			continue
		}
		if found == nil || existing.StartTime < found.StartTime {
			found = &sessions[i]
		}
	}
	return found
}

// checkSessionConflicts runs the room and instructor checks independently, room first.
func checkSessionConflicts(snapshot models.ScheduleSnapshot, candidate models.ClassSession) error {
	if !candidate.Status.IsActive() {
		return nil
	}
	if existing := FindConflict(snapshot.RoomSessions, candidate); existing != nil {
		return models.NewSessionConflictError(models.ConflictKindRoom, *existing)
	}
	if existing := FindConflict(snapshot.InstructorSessions, candidate); existing != nil {
		return models.NewSessionConflictError(models.ConflictKindInstructor, *existing)
	}
	return nil
}
