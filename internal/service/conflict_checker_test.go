package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/internal/models"
)

func hm(hour, minute int) models.TimeOfDay {
	return models.NewTimeOfDay(hour, minute, 0)
}

func TestHasConflictBoundaries(t *testing.T) {
	bookings := []Interval{{Start: hm(8, 0), End: hm(9, 0)}}

	cases := []struct {
		name      string
		candidate Interval
		want      bool
	}{
		{"starts when other ends", Interval{Start: hm(9, 0), End: hm(10, 0)}, false},
		{"ends when other starts", Interval{Start: hm(7, 0), End: hm(8, 0)}, false},
		{"starts one minute early", Interval{Start: hm(8, 59), End: hm(10, 0)}, true},
		{"contained", Interval{Start: hm(8, 15), End: hm(8, 45)}, true},
		{"contains", Interval{Start: hm(7, 0), End: hm(10, 0)}, true},
		{"identical", Interval{Start: hm(8, 0), End: hm(9, 0)}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, HasConflict(bookings, tc.candidate))
		})
	}
	assert.False(t, HasConflict(nil, Interval{Start: hm(8, 0), End: hm(9, 0)}))
}

func TestFindConflictFiltersCandidates(t *testing.T) {
	candidate := seededSession("self", hm(9, 0), hm(10, 0), 10)

	cancelled := seededSession("cancelled", hm(9, 0), hm(10, 0), 10)
	cancelled.Status = models.SessionStatusCancelled
	finished := seededSession("finished", hm(9, 30), hm(10, 30), 10)
	finished.Status = models.SessionStatusFinished
	otherDay := seededSession("other-day", hm(9, 0), hm(10, 0), 10)
	otherDay.Date = testDate().AddDays(1)
	late := seededSession("late", hm(9, 45), hm(11, 0), 10)
	early := seededSession("early", hm(8, 30), hm(9, 15), 10)
	early.Status = models.SessionStatusInProgress

	sessions := []models.ClassSession{candidate, cancelled, finished, otherDay, late, early}

	found := FindConflict(sessions, candidate)
	require.NotNil(t, found)
	assert.Equal(t, "early", found.ID)

	assert.Nil(t, FindConflict([]models.ClassSession{candidate, cancelled, finished, otherDay}, candidate))
}

func TestCheckSessionConflictsRoomBeforeInstructor(t *testing.T) {
	candidate := seededSession("", hm(9, 0), hm(10, 0), 10)
	roomBusy := seededSession("room-busy", hm(9, 30), hm(10, 30), 10)
	instructorBusy := seededSession("instructor-busy", hm(9, 0), hm(9, 30), 10)
	instructorBusy.RoomID = "room-b"

	err := checkSessionConflicts(models.ScheduleSnapshot{
		RoomSessions:       []models.ClassSession{roomBusy},
		InstructorSessions: []models.ClassSession{instructorBusy},
	}, candidate)
	var conflict *models.SessionConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, models.ConflictKindRoom, conflict.Kind)
	assert.Equal(t, "room-busy", conflict.SessionID)

	err = checkSessionConflicts(models.ScheduleSnapshot{InstructorSessions: []models.ClassSession{instructorBusy}}, candidate)
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, models.ConflictKindInstructor, conflict.Kind)
	assert.Equal(t, "inst-1", conflict.ResourceID)

	candidate.Status = models.SessionStatusCancelled
	assert.NoError(t, checkSessionConflicts(models.ScheduleSnapshot{RoomSessions: []models.ClassSession{roomBusy}}, candidate))
}
