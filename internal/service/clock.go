package service

import (
	"time"

	"github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/internal/models"
)

// Clock reads wall-clock time in the gym's local timezone.
type Clock struct {
	now func() time.Time
	loc *time.Location
}

// NewClock returns a clock backed by time.Now in loc.
func NewClock(loc *time.Location) Clock {
	return NewClockFunc(time.Now, loc)
}

// NewClockFunc returns a clock backed by now.
func NewClockFunc(now func() time.Time, loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return Clock{now: now, loc: loc}
}

// Now returns the current instant in the configured location.
func (c Clock) Now() time.Time {
	if c.now == nil {
		return time.Now().UTC()
	}
	loc := c.loc
	if loc == nil {
		loc = time.UTC
	}
	return c.now().In(loc)
}

// Today returns the current calendar day.
func (c Clock) Today() models.Date {
	return models.DateOf(c.Now())
}

// TimeOfDay returns the current clock reading.
func (c Clock) TimeOfDay() models.TimeOfDay {
	return models.TimeOfDayFrom(c.Now())
}
