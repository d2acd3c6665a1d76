package schedule

import (
	"time"

	"github.com/tasktaskrevolution/ttr/internal/domain"
)

// Calendar answers working-day questions for one project: weekends and the
// project's declared layoff windows are non-working.
type Calendar struct {
	layoffs []domain.LayoffPeriod
}

// NewCalendar builds a calendar over the given layoff windows.
func NewCalendar(layoffs []domain.LayoffPeriod) Calendar {
	return Calendar{layoffs: layoffs}
}

// IsWorkingDay reports whether d is neither a weekend nor inside a layoff
// window.
func (c Calendar) IsWorkingDay(d domain.Date) bool {
	switch d.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	for _, lo := range c.layoffs {
		if lo.Contains(d) {
			return false
		}
	}
	return true
}

// NextWorkingDay returns d when it is a working day, otherwise the first
// working day after it.
func (c Calendar) NextWorkingDay(d domain.Date) domain.Date {
	for !c.IsWorkingDay(d) {
		d = d.AddDays(1)
	}
	return d
}

// AddWorkingDays moves n working days from d. A lag that lands inside a
// layoff window keeps sliding until the next working day, the same as a
// weekend. n may be negative.
func (c Calendar) AddWorkingDays(d domain.Date, n int) domain.Date {
	step := 1
	if n < 0 {
		step = -1
		n = -n
	}
	for n > 0 {
		d = d.AddDays(step)
		if c.IsWorkingDay(d) {
			n--
		}
	}
	return d
}

// Shift advances d by the given lag, honouring the lag's own unit; when the
// scheduler runs in working-days mode calendar-day lags also skip
// non-working days.
func (c Calendar) Shift(d domain.Date, lag domain.Lag, workingDaysOnly bool) domain.Date {
	if lag.Days == 0 {
		return d
	}
	if lag.Unit == domain.LagWorkingDays || workingDaysOnly {
		return c.AddWorkingDays(d, lag.Days)
	}
	return d.AddDays(lag.Days)
}

// SpanEnd returns the inclusive end date of a task starting at start with the
// given duration in days. In working-days mode only working days consume
// duration.
func (c Calendar) SpanEnd(start domain.Date, duration int, workingDaysOnly bool) domain.Date {
	if duration < 1 {
		duration = 1
	}
	if !workingDaysOnly {
		return start.AddDays(duration - 1)
	}
	d := c.NextWorkingDay(start)
	for remaining := duration - 1; remaining > 0; remaining-- {
		d = c.AddWorkingDays(d, 1)
	}
	return d
}
