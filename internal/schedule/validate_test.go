package schedule

import (
	"testing"
	"time"

	"github.com/tasktaskrevolution/ttr/internal/domain"
	"github.com/tasktaskrevolution/ttr/internal/graph"
)

func projectWithTasks(t *testing.T, tasks ...domain.Task) domain.Project {
	t.Helper()
	p, err := domain.NewProjectBuilder().
		Code("proj-1").
		CompanyCode("comp-1").
		Name("Validation target").
		StartDate(domain.MustDate("2024-01-01")).
		EndDate(domain.MustDate("2024-01-31")).
		Build()
	if err != nil {
		t.Fatalf("project Build() error = %v", err)
	}
	for _, task := range tasks {
		p, err = p.AddTask(task)
		if err != nil {
			t.Fatalf("AddTask(%s) error = %v", task.Code, err)
		}
	}
	return p
}

func namedTask(t *testing.T, code, start, due string, resources ...string) domain.Task {
	t.Helper()
	b := domain.NewTaskBuilder().
		Code(code).Name(code).
		StartDate(domain.MustDate(start)).
		DueDate(domain.MustDate(due))
	for _, r := range resources {
		b = b.AssignResource(r)
	}
	task, err := b.Build()
	if err != nil {
		t.Fatalf("task Build() error = %v", err)
	}
	return task
}

func runOver(t *testing.T, p domain.Project) (*graph.Graph, map[string]Result) {
	t.Helper()
	g, err := BuildGraph(p)
	if err != nil {
		t.Fatalf("BuildGraph() error = %v", err)
	}
	cfg := Config{ProjectStart: *p.StartDate, DefaultDuration: 1}
	anchors := map[string]domain.Date{}
	for code, task := range p.Tasks {
		if len(task.Dependencies) == 0 {
			anchors[code] = task.StartDate
		}
	}
	results, err := NewScheduler(cfg, NewCalendar(nil)).Run(g, anchors)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return g, results
}

func TestValidateCleanProject(t *testing.T) {
	t.Parallel()
	p := projectWithTasks(t,
		namedTask(t, "task-1", "2024-01-01", "2024-01-05", "dev-1"),
		namedTask(t, "task-2", "2024-01-08", "2024-01-12", "dev-1"),
	)
	g, results := runOver(t, p)

	status := NewValidator(Config{}).Validate(g, results, p, nil)
	if !status.Valid {
		t.Errorf("Validate() = %+v, want valid", status.Conflicts)
	}
}

func TestValidateDateOverlap(t *testing.T) {
	t.Parallel()
	p := projectWithTasks(t,
		namedTask(t, "task-1", "2024-01-01", "2024-01-10", "dev-1"),
		namedTask(t, "task-2", "2024-01-08", "2024-01-12", "dev-1"),
	)
	g, results := runOver(t, p)

	status := NewValidator(Config{}).Validate(g, results, p, nil)
	if status.Valid {
		t.Fatal("Validate() should report the overlap")
	}
	found := false
	for _, c := range status.Conflicts {
		if c.Kind == ConflictDateOverlap && c.Resource == "dev-1" {
			found = true
			if !c.Interval.Start.Equal(domain.MustDate("2024-01-08")) {
				t.Errorf("overlap interval = %v", c.Interval)
			}
		}
	}
	if !found {
		t.Errorf("no DateOverlap conflict in %+v", status.Conflicts)
	}
}

func TestValidateNoOverlapAcrossResources(t *testing.T) {
	t.Parallel()
	p := projectWithTasks(t,
		namedTask(t, "task-1", "2024-01-01", "2024-01-10", "dev-1"),
		namedTask(t, "task-2", "2024-01-08", "2024-01-12", "dev-2"),
	)
	g, results := runOver(t, p)

	status := NewValidator(Config{}).Validate(g, results, p, nil)
	if !status.Valid {
		t.Errorf("distinct assignees may overlap, got %+v", status.Conflicts)
	}
}

func TestValidateWindowViolation(t *testing.T) {
	t.Parallel()
	// Due date beyond the project end window.
	p := projectWithTasks(t,
		namedTask(t, "task-1", "2024-01-25", "2024-02-10"),
	)
	g, results := runOver(t, p)

	status := NewValidator(Config{}).Validate(g, results, p, nil)
	if status.Valid {
		t.Fatal("Validate() should report the window violation")
	}
	if status.Conflicts[0].Kind != ConflictWindowViolation {
		t.Errorf("conflict kind = %v, want WindowViolation", status.Conflicts[0].Kind)
	}
}

func TestValidateOverallocation(t *testing.T) {
	t.Parallel()
	p := projectWithTasks(t, namedTask(t, "task-1", "2024-01-01", "2024-01-05"))
	g, results := runOver(t, p)

	start, _ := time.Parse(time.RFC3339, "2024-01-01T00:00:00Z")
	end, _ := time.Parse(time.RFC3339, "2024-03-31T00:00:00Z")
	res := domain.Resource{
		ID: domain.NewID(), Code: "dev-1", Name: "Ada", Type: "developer",
		State: domain.ResourceAssigned,
		Assignments: []domain.ProjectAssignment{
			{ProjectID: "p1", Start: start, End: end, Allocation: 70},
			{ProjectID: "p2", Start: start, End: end, Allocation: 60},
		},
	}

	status := NewValidator(Config{}).Validate(g, results, p, []domain.Resource{res})
	if status.Valid {
		t.Fatal("Validate() should report the overallocation")
	}
	found := false
	for _, c := range status.Conflicts {
		if c.Kind == ConflictOverallocation && c.Resource == "dev-1" && c.Percent == 130 {
			found = true
		}
	}
	if !found {
		t.Errorf("no Overallocation conflict in %+v", status.Conflicts)
	}
}
