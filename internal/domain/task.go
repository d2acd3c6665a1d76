package domain

import (
	"fmt"
	"time"
)

// TaskStatusKind discriminates the task lifecycle states.
type TaskStatusKind int

const (
	TaskPlanned TaskStatusKind = iota
	TaskInProgress
	TaskBlocked
	TaskCompleted
	TaskCancelled
)

var taskStatusNames = map[TaskStatusKind]string{
	TaskPlanned:    "Planned",
	TaskInProgress: "InProgress",
	TaskBlocked:    "Blocked",
	TaskCompleted:  "Completed",
	TaskCancelled:  "Cancelled",
}

func (k TaskStatusKind) String() string {
	if s, ok := taskStatusNames[k]; ok {
		return s
	}
	return fmt.Sprintf("TaskStatusKind(%d)", int(k))
}

func ParseTaskStatusKind(s string) (TaskStatusKind, error) {
	for k, name := range taskStatusNames {
		if name == s {
			return k, nil
		}
	}
	return 0, &ValidationError{Entity: "task", Field: "status", Reason: fmt.Sprintf("unknown status %q", s)}
}

// TaskStatus is a tagged state value. Progress is meaningful only for
// InProgress, Reason only for Blocked.
type TaskStatus struct {
	Kind     TaskStatusKind
	Progress int
	Reason   string
}

func (s TaskStatus) Terminal() bool {
	return s.Kind == TaskCompleted || s.Kind == TaskCancelled
}

func (s TaskStatus) String() string {
	switch s.Kind {
	case TaskInProgress:
		return fmt.Sprintf("InProgress(%d%%)", s.Progress)
	case TaskBlocked:
		return fmt.Sprintf("Blocked(%s)", s.Reason)
	default:
		return s.Kind.String()
	}
}

// Task is a unit of work inside a project.
type Task struct {
	ID                string
	ProjectCode       string
	Code              string
	Name              string
	Description       string
	Status            TaskStatus
	Priority          Priority
	StartDate         Date
	DueDate           Date
	ActualEndDate     *Date
	Dependencies      []Dependency
	AssignedResources []string
	// Unknown manifest keys, kept opaque so a load/save cycle loses nothing.
	Extra     map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
	CreatedBy string
}

// Duration is the task's effective length in whole days, derived from the
// inclusive start/due interval.
func (t Task) Duration() int {
	return t.StartDate.DaysUntil(t.DueDate) + 1
}

func (t Task) transitionErr(verb string) error {
	return &ValidationError{Entity: "task " + t.Code, Field: "status", Reason: fmt.Sprintf("cannot %s a %s task", verb, t.Status)}
}

// Start moves a planned task to in-progress at zero progress.
func (t Task) Start() (Task, error) {
	if t.Status.Kind != TaskPlanned {
		return Task{}, t.transitionErr("start")
	}
	t.Status = TaskStatus{Kind: TaskInProgress}
	t.UpdatedAt = time.Now().UTC()
	return t, nil
}

// UpdateProgress sets the completion percentage of an in-progress task.
func (t Task) UpdateProgress(progress int) (Task, error) {
	if t.Status.Kind != TaskInProgress {
		return Task{}, t.transitionErr("update progress on")
	}
	if progress < 0 || progress > 100 {
		return Task{}, &ValidationError{Entity: "task " + t.Code, Field: "progress", Reason: fmt.Sprintf("must be 0-100, got %d", progress)}
	}
	t.Status = TaskStatus{Kind: TaskInProgress, Progress: progress}
	t.UpdatedAt = time.Now().UTC()
	return t, nil
}

// Block suspends an in-progress task for a reason.
func (t Task) Block(reason string) (Task, error) {
	if t.Status.Kind != TaskInProgress {
		return Task{}, t.transitionErr("block")
	}
	if reason == "" {
		return Task{}, &ValidationError{Entity: "task " + t.Code, Field: "reason", Reason: "must not be empty"}
	}
	t.Status = TaskStatus{Kind: TaskBlocked, Reason: reason}
	t.UpdatedAt = time.Now().UTC()
	return t, nil
}

// Unblock returns a blocked task to in-progress. Progress restarts at zero.
func (t Task) Unblock() (Task, error) {
	if t.Status.Kind != TaskBlocked {
		return Task{}, t.transitionErr("unblock")
	}
	t.Status = TaskStatus{Kind: TaskInProgress}
	t.UpdatedAt = time.Now().UTC()
	return t, nil
}

// Complete finishes an in-progress task, stamping the actual end date.
func (t Task) Complete(on Date) (Task, error) {
	if t.Status.Kind != TaskInProgress {
		return Task{}, t.transitionErr("complete")
	}
	if on.Before(t.StartDate) {
		return Task{}, &ValidationError{Entity: "task " + t.Code, Field: "actualEndDate", Reason: "must not precede startDate"}
	}
	t.Status = TaskStatus{Kind: TaskCompleted}
	t.ActualEndDate = &on
	t.UpdatedAt = time.Now().UTC()
	return t, nil
}

// Cancel aborts any non-terminal task.
func (t Task) Cancel() (Task, error) {
	if t.Status.Terminal() {
		return Task{}, t.transitionErr("cancel")
	}
	t.Status = TaskStatus{Kind: TaskCancelled}
	t.UpdatedAt = time.Now().UTC()
	return t, nil
}

// Reschedule moves the start/due interval, preserving validity.
func (t Task) Reschedule(start, due Date) (Task, error) {
	if due.Before(start) {
		return Task{}, &ValidationError{Entity: "task " + t.Code, Field: "dueDate", Reason: "must not precede startDate"}
	}
	t.StartDate = start
	t.DueDate = due
	t.UpdatedAt = time.Now().UTC()
	return t, nil
}

// AddDependency records a predecessor edge on the task. Graph-level checks
// (existence, cycles) happen at insertion into the dependency graph.
func (t Task) AddDependency(d Dependency) (Task, error) {
	if d.Predecessor == "" {
		return Task{}, &ValidationError{Entity: "task " + t.Code, Field: "dependency.predecessor", Reason: "must not be empty"}
	}
	if d.Predecessor == t.Code {
		return Task{}, &ValidationError{Entity: "task " + t.Code, Field: "dependency.predecessor", Reason: "task cannot depend on itself"}
	}
	for _, existing := range t.Dependencies {
		if existing.Predecessor == d.Predecessor && existing.Kind == d.Kind {
			return Task{}, &AlreadyExistsError{Kind: "dependency", Code: fmt.Sprintf("%s -> %s (%s)", d.Predecessor, t.Code, d.Kind)}
		}
	}
	deps := make([]Dependency, len(t.Dependencies), len(t.Dependencies)+1)
	copy(deps, t.Dependencies)
	t.Dependencies = append(deps, d)
	t.UpdatedAt = time.Now().UTC()
	return t, nil
}

// RemoveDependency drops a predecessor edge. Idempotent on missing edges.
func (t Task) RemoveDependency(predecessor string, kind LinkKind) Task {
	deps := make([]Dependency, 0, len(t.Dependencies))
	for _, d := range t.Dependencies {
		if d.Predecessor == predecessor && d.Kind == kind {
			continue
		}
		deps = append(deps, d)
	}
	t.Dependencies = deps
	t.UpdatedAt = time.Now().UTC()
	return t
}

// TaskBuilder accumulates fields and validates the full record at Build.
type TaskBuilder struct {
	task Task
}

func NewTaskBuilder() *TaskBuilder {
	return &TaskBuilder{task: Task{
		Status:   TaskStatus{Kind: TaskPlanned},
		Priority: PriorityMedium,
	}}
}

func (b *TaskBuilder) Code(code string) *TaskBuilder { b.task.Code = code; return b }
func (b *TaskBuilder) ProjectCode(code string) *TaskBuilder {
	b.task.ProjectCode = code
	return b
}
func (b *TaskBuilder) Name(name string) *TaskBuilder { b.task.Name = name; return b }
func (b *TaskBuilder) Description(d string) *TaskBuilder {
	b.task.Description = d
	return b
}
func (b *TaskBuilder) StartDate(d Date) *TaskBuilder     { b.task.StartDate = d; return b }
func (b *TaskBuilder) DueDate(d Date) *TaskBuilder       { b.task.DueDate = d; return b }
func (b *TaskBuilder) Priority(p Priority) *TaskBuilder  { b.task.Priority = p; return b }
func (b *TaskBuilder) Status(s TaskStatus) *TaskBuilder  { b.task.Status = s; return b }
func (b *TaskBuilder) CreatedBy(who string) *TaskBuilder { b.task.CreatedBy = who; return b }
func (b *TaskBuilder) Dependencies(deps []Dependency) *TaskBuilder {
	b.task.Dependencies = deps
	return b
}
func (b *TaskBuilder) AssignResource(code string) *TaskBuilder {
	b.task.AssignedResources = append(b.task.AssignedResources, code)
	return b
}

// Build validates the accumulated record and materialises the task.
func (b *TaskBuilder) Build() (Task, error) {
	t := b.task
	if t.Code == "" {
		return Task{}, &ValidationError{Entity: "task", Field: "code", Reason: "must not be empty"}
	}
	if t.Name == "" {
		return Task{}, &ValidationError{Entity: "task", Field: "name", Reason: "must not be empty"}
	}
	if t.StartDate.IsZero() || t.DueDate.IsZero() {
		return Task{}, &ValidationError{Entity: "task", Field: "startDate", Reason: "start and due dates are required"}
	}
	if t.DueDate.Before(t.StartDate) {
		return Task{}, &ValidationError{Entity: "task", Field: "dueDate", Reason: "must not precede startDate"}
	}
	if !t.Priority.Valid() {
		return Task{}, &ValidationError{Entity: "task", Field: "priority", Reason: "unknown priority"}
	}
	if t.Status.Kind == TaskInProgress && (t.Status.Progress < 0 || t.Status.Progress > 100) {
		return Task{}, &ValidationError{Entity: "task", Field: "progress", Reason: "must be 0-100"}
	}
	for i, d := range t.Dependencies {
		if d.Predecessor == "" {
			return Task{}, &ValidationError{Entity: "task", Field: fmt.Sprintf("dependencies[%d]", i), Reason: "predecessor must not be empty"}
		}
		if d.Predecessor == t.Code {
			return Task{}, &ValidationError{Entity: "task", Field: fmt.Sprintf("dependencies[%d]", i), Reason: "task cannot depend on itself"}
		}
	}
	if t.ID == "" {
		t.ID = NewID()
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	return t, nil
}
