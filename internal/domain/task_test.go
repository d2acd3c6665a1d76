package domain

import (
	"errors"
	"testing"
)

func buildTask(t *testing.T) Task {
	t.Helper()
	task, err := NewTaskBuilder().
		Code("task-1").
		ProjectCode("proj-1").
		Name("Implement API").
		StartDate(MustDate("2024-01-01")).
		DueDate(MustDate("2024-01-05")).
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return task
}

func TestTaskBuilderValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		build func() (*TaskBuilder, error)
	}{
		{"missing code", func() (*TaskBuilder, error) {
			b := NewTaskBuilder().Name("x").StartDate(MustDate("2024-01-01")).DueDate(MustDate("2024-01-02"))
			return b, nil
		}},
		{"missing name", func() (*TaskBuilder, error) {
			b := NewTaskBuilder().Code("task-1").StartDate(MustDate("2024-01-01")).DueDate(MustDate("2024-01-02"))
			return b, nil
		}},
		{"due before start", func() (*TaskBuilder, error) {
			b := NewTaskBuilder().Code("task-1").Name("x").StartDate(MustDate("2024-01-05")).DueDate(MustDate("2024-01-01"))
			return b, nil
		}},
		{"self dependency", func() (*TaskBuilder, error) {
			b := NewTaskBuilder().Code("task-1").Name("x").
				StartDate(MustDate("2024-01-01")).DueDate(MustDate("2024-01-02")).
				Dependencies([]Dependency{{Predecessor: "task-1"}})
			return b, nil
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			b, _ := tt.build()
			if _, err := b.Build(); err == nil {
				t.Error("Build() should fail")
			}
		})
	}
}

func TestTaskBuilderAssignsID(t *testing.T) {
	t.Parallel()
	task := buildTask(t)
	if task.ID == "" {
		t.Error("Build() should assign an id")
	}
	if !IsValidID(task.ID) {
		t.Errorf("Build() id %q is not a ULID", task.ID)
	}
}

func TestTaskLifecycle(t *testing.T) {
	t.Parallel()
	task := buildTask(t)

	started, err := task.Start()
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if started.Status.Kind != TaskInProgress {
		t.Errorf("Start() status = %v, want InProgress", started.Status.Kind)
	}
	if started.Status.Progress != 0 {
		t.Errorf("Start() progress = %d, want 0", started.Status.Progress)
	}

	half, err := started.UpdateProgress(50)
	if err != nil {
		t.Fatalf("UpdateProgress() error = %v", err)
	}
	if half.Status.Progress != 50 {
		t.Errorf("UpdateProgress() progress = %d, want 50", half.Status.Progress)
	}

	blocked, err := half.Block("waiting on review")
	if err != nil {
		t.Fatalf("Block() error = %v", err)
	}
	if blocked.Status.Kind != TaskBlocked || blocked.Status.Reason != "waiting on review" {
		t.Errorf("Block() status = %v", blocked.Status)
	}

	unblocked, err := blocked.Unblock()
	if err != nil {
		t.Fatalf("Unblock() error = %v", err)
	}
	if unblocked.Status.Kind != TaskInProgress {
		t.Errorf("Unblock() status = %v, want InProgress", unblocked.Status.Kind)
	}

	done, err := unblocked.Complete(MustDate("2024-01-04"))
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if done.Status.Kind != TaskCompleted {
		t.Errorf("Complete() status = %v, want Completed", done.Status.Kind)
	}
	if done.ActualEndDate == nil || !done.ActualEndDate.Equal(MustDate("2024-01-04")) {
		t.Errorf("Complete() actual end = %v, want 2024-01-04", done.ActualEndDate)
	}
}

func TestTaskInvalidTransitions(t *testing.T) {
	t.Parallel()
	task := buildTask(t)

	if _, err := task.Block("nope"); err == nil {
		t.Error("Block() on a planned task should fail")
	}
	if _, err := task.Complete(MustDate("2024-01-05")); err == nil {
		t.Error("Complete() on a planned task should fail")
	}
	if _, err := task.Unblock(); err == nil {
		t.Error("Unblock() on a planned task should fail")
	}

	started, _ := task.Start()
	if _, err := started.Start(); err == nil {
		t.Error("Start() on an in-progress task should fail")
	}
	if _, err := started.UpdateProgress(150); err == nil {
		t.Error("UpdateProgress(150) should fail")
	}
	if _, err := started.Complete(MustDate("2023-12-31")); err == nil {
		t.Error("Complete() before the start date should fail")
	}

	done, _ := started.Complete(MustDate("2024-01-05"))
	if _, err := done.Cancel(); err == nil {
		t.Error("Cancel() on a completed task should fail")
	}
	var verr *ValidationError
	_, err := done.Cancel()
	if !errors.As(err, &verr) {
		t.Errorf("Cancel() error = %T, want *ValidationError", err)
	}
}

func TestTaskCancelFromAnyNonTerminal(t *testing.T) {
	t.Parallel()
	task := buildTask(t)

	if _, err := task.Cancel(); err != nil {
		t.Errorf("Cancel() planned error = %v", err)
	}
	started, _ := task.Start()
	if _, err := started.Cancel(); err != nil {
		t.Errorf("Cancel() in-progress error = %v", err)
	}
	blocked, _ := started.Block("reason")
	if _, err := blocked.Cancel(); err != nil {
		t.Errorf("Cancel() blocked error = %v", err)
	}
}

func TestTaskDependencies(t *testing.T) {
	t.Parallel()
	task := buildTask(t)

	dep := Dependency{Predecessor: "task-0", Kind: FinishToStart, Lag: Lag{Days: 2}}
	withDep, err := task.AddDependency(dep)
	if err != nil {
		t.Fatalf("AddDependency() error = %v", err)
	}
	if len(withDep.Dependencies) != 1 {
		t.Fatalf("AddDependency() count = %d, want 1", len(withDep.Dependencies))
	}

	if _, err := withDep.AddDependency(dep); err == nil {
		t.Error("AddDependency() duplicate should fail")
	}
	var exists *AlreadyExistsError
	_, err = withDep.AddDependency(dep)
	if !errors.As(err, &exists) {
		t.Errorf("AddDependency() duplicate error = %T, want *AlreadyExistsError", err)
	}

	removed := withDep.RemoveDependency("task-0", FinishToStart)
	if len(removed.Dependencies) != 0 {
		t.Errorf("RemoveDependency() count = %d, want 0", len(removed.Dependencies))
	}
	// Removing again is idempotent.
	removed = removed.RemoveDependency("task-0", FinishToStart)
	if len(removed.Dependencies) != 0 {
		t.Errorf("RemoveDependency() twice count = %d, want 0", len(removed.Dependencies))
	}
}

func TestTaskDuration(t *testing.T) {
	t.Parallel()
	task := buildTask(t)
	if got := task.Duration(); got != 5 {
		t.Errorf("Duration() = %d, want 5", got)
	}
}
