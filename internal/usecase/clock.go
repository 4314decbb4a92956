package usecase

import (
	"time"

	"github.com/andrei73/pushup-counter/internal/domain/calendar"
)

// clock yields "today" in the configured time zone. Services embed it and tests replace now.
type clock struct {
	now      func() time.Time
	location *time.Location
}

func newClock(location *time.Location) clock {
	if location == nil {
		location = time.UTC
	}
	return clock{now: time.Now, location: location}
}

func (c clock) today() time.Time {
	return calendar.Today(c.now(), c.location)
}

func (c clock) currentMonth() (int, int) {
	t := c.today()
	return t.Year(), int(t.Month())
}
