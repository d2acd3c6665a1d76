package domain

import (
	"testing"
	"time"
)

func buildResource(t *testing.T) Resource {
	t.Helper()
	r, err := NewResourceBuilder().
		Code("dev-1").
		CompanyCode("comp-1").
		Name("Ada").
		Type("developer").
		TimeOffBalance(40).
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return r
}

func assignment(projectID string, from, to string, allocation int) ProjectAssignment {
	start, _ := time.Parse(time.RFC3339, from)
	end, _ := time.Parse(time.RFC3339, to)
	return ProjectAssignment{ProjectID: projectID, Start: start, End: end, Allocation: allocation}
}

func TestResourceAssignmentLifecycle(t *testing.T) {
	t.Parallel()
	r := buildResource(t)
	if r.State != ResourceAvailable {
		t.Fatalf("initial state = %v, want Available", r.State)
	}

	assigned, err := r.AddAssignment(assignment("p1", "2024-01-01T00:00:00Z", "2024-03-31T00:00:00Z", 60))
	if err != nil {
		t.Fatalf("AddAssignment() error = %v", err)
	}
	if assigned.State != ResourceAssigned {
		t.Errorf("AddAssignment() state = %v, want Assigned", assigned.State)
	}

	back := assigned.RemoveAssignment("p1")
	if back.State != ResourceAvailable {
		t.Errorf("RemoveAssignment() state = %v, want Available", back.State)
	}
	// Idempotent on missing.
	back = back.RemoveAssignment("p1")
	if len(back.Assignments) != 0 {
		t.Errorf("RemoveAssignment() twice count = %d, want 0", len(back.Assignments))
	}
}

func TestResourceOverallocationRejected(t *testing.T) {
	t.Parallel()
	r := buildResource(t)
	r, err := r.AddAssignment(assignment("p1", "2024-01-01T00:00:00Z", "2024-03-31T00:00:00Z", 60))
	if err != nil {
		t.Fatalf("AddAssignment() error = %v", err)
	}
	// Overlapping window, cumulative 110%.
	if _, err := r.AddAssignment(assignment("p2", "2024-02-01T00:00:00Z", "2024-04-30T00:00:00Z", 50)); err == nil {
		t.Error("AddAssignment() above 100% should fail")
	}
	// Disjoint window is fine at any allocation.
	if _, err := r.AddAssignment(assignment("p2", "2024-04-01T00:00:00Z", "2024-06-30T00:00:00Z", 80)); err != nil {
		t.Errorf("AddAssignment() disjoint error = %v", err)
	}
}

func TestResourceInactiveRefusesWork(t *testing.T) {
	t.Parallel()
	r := buildResource(t).Deactivate()

	if _, err := r.AddAssignment(assignment("p1", "2024-01-01T00:00:00Z", "2024-03-31T00:00:00Z", 50)); err == nil {
		t.Error("AddAssignment() on an inactive resource should fail")
	}
	period, _ := NewPeriod(MustDate("2024-07-01"), MustDate("2024-07-10"))
	if _, err := r.AddVacation(period, nil); err == nil {
		t.Error("AddVacation() on an inactive resource should fail")
	}
}

func TestResourceVacationOverlapRejected(t *testing.T) {
	t.Parallel()
	r := buildResource(t)
	first, _ := NewPeriod(MustDate("2024-07-01"), MustDate("2024-07-10"))
	r, err := r.AddVacation(first, nil)
	if err != nil {
		t.Fatalf("AddVacation() error = %v", err)
	}
	overlapping, _ := NewPeriod(MustDate("2024-07-08"), MustDate("2024-07-15"))
	if _, err := r.AddVacation(overlapping, nil); err == nil {
		t.Error("AddVacation() overlapping should fail")
	}
}

func TestResourceVacationLayoffTagging(t *testing.T) {
	t.Parallel()
	r := buildResource(t)
	layoffs := []LayoffPeriod{{Start: MustDate("2024-12-23"), End: MustDate("2024-12-31")}}

	inside, _ := NewPeriod(MustDate("2024-12-27"), MustDate("2024-12-30"))
	r, err := r.AddVacation(inside, layoffs)
	if err != nil {
		t.Fatalf("AddVacation() error = %v", err)
	}
	if !r.Vacations[0].IsLayoff {
		t.Error("vacation overlapping a layoff window should be tagged IsLayoff")
	}

	outside, _ := NewPeriod(MustDate("2024-07-01"), MustDate("2024-07-05"))
	r, err = r.AddVacation(outside, layoffs)
	if err != nil {
		t.Fatalf("AddVacation() error = %v", err)
	}
	if r.Vacations[1].IsLayoff {
		t.Error("vacation outside layoff windows should not be tagged")
	}
}

func TestResourceTimeOffBookkeeping(t *testing.T) {
	t.Parallel()
	r := buildResource(t)

	r, err := r.RecordTimeOff(-8, MustDate("2024-03-01"), "doctor appointment")
	if err != nil {
		t.Fatalf("RecordTimeOff() error = %v", err)
	}
	if r.TimeOffBalance != 32 {
		t.Errorf("balance = %d, want 32", r.TimeOffBalance)
	}
	if len(r.TimeOffHistory) != 1 {
		t.Fatalf("history entries = %d, want 1", len(r.TimeOffHistory))
	}

	if _, err := r.RecordTimeOff(-40, MustDate("2024-03-02"), "too much"); err == nil {
		t.Error("RecordTimeOff() below zero should fail")
	}
}
