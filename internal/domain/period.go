package domain

import (
	"fmt"
	"time"
)

// Period is an inclusive calendar interval.
type Period struct {
	Start Date
	End   Date
}

func NewPeriod(start, end Date) (Period, error) {
	if end.Before(start) {
		return Period{}, &ValidationError{Entity: "period", Reason: fmt.Sprintf("end %s before start %s", end, start)}
	}
	return Period{Start: start, End: end}, nil
}

// Overlaps reports whether two inclusive intervals share at least one day.
func (p Period) Overlaps(o Period) bool {
	return !p.End.Before(o.Start) && !o.End.Before(p.Start)
}

// Contains reports whether d falls inside the interval.
func (p Period) Contains(d Date) bool {
	return !d.Before(p.Start) && !d.After(p.End)
}

// Days returns the inclusive length in days.
func (p Period) Days() int {
	return p.Start.DaysUntil(p.End) + 1
}

// Intersection returns the overlapping sub-interval, if any.
func (p Period) Intersection(o Period) (Period, bool) {
	if !p.Overlaps(o) {
		return Period{}, false
	}
	return Period{Start: MaxDate(p.Start, o.Start), End: MinDate(p.End, o.End)}, true
}

func (p Period) String() string {
	return fmt.Sprintf("[%s, %s]", p.Start, p.End)
}

// Vacation is a booked time-off interval for a resource. IsLayoff marks a
// vacation that overlaps a declared layoff window.
type Vacation struct {
	Period       Period
	IsLayoff     bool
	Compensated  bool
	Compensation string
}

// TimeOffEntry records a change to a resource's time-off balance.
type TimeOffEntry struct {
	Hours       int
	Date        Date
	Description string
	RecordedAt  time.Time
}

// ProjectAssignment binds a resource to a project for an interval at a
// percentage allocation.
type ProjectAssignment struct {
	ProjectID  string
	Start      time.Time
	End        time.Time
	Allocation int // percent, 0-100
}

func (a ProjectAssignment) validate() error {
	if a.ProjectID == "" {
		return &ValidationError{Entity: "assignment", Field: "projectId", Reason: "must not be empty"}
	}
	if a.Allocation < 0 || a.Allocation > 100 {
		return &ValidationError{Entity: "assignment", Field: "allocation", Reason: fmt.Sprintf("must be 0-100, got %d", a.Allocation)}
	}
	if a.End.Before(a.Start) {
		return &ValidationError{Entity: "assignment", Field: "end", Reason: "must not precede start"}
	}
	return nil
}

// overlaps reports whether two assignment intervals share any instant.
func (a ProjectAssignment) overlaps(b ProjectAssignment) bool {
	return !a.End.Before(b.Start) && !b.End.Before(a.Start)
}
