package domain

import (
	"fmt"
	"time"
)

// ProjectStatus is the lifecycle state of a project.
type ProjectStatus string

const (
	ProjectPlanned    ProjectStatus = "planned"
	ProjectInProgress ProjectStatus = "in-progress"
	ProjectOnHold     ProjectStatus = "on-hold"
	ProjectCompleted  ProjectStatus = "completed"
	ProjectCancelled  ProjectStatus = "cancelled"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectPlanned, ProjectInProgress, ProjectOnHold, ProjectCompleted, ProjectCancelled:
		return true
	}
	return false
}

// Terminal reports whether the status freezes the project: no task or
// dependency mutations and no resource reassignments are permitted.
func (s ProjectStatus) Terminal() bool {
	return s == ProjectCompleted || s == ProjectCancelled
}

// LayoffPeriod is a declared company shutdown window inside a project.
type LayoffPeriod struct {
	Start Date
	End   Date
}

func (l LayoffPeriod) Contains(d Date) bool {
	return !d.Before(l.Start) && !d.After(l.End)
}

// VacationRules configures time-off policy for a project.
type VacationRules struct {
	AllowedDaysPerYear int
	CarryOverDays      int
	AllowLayoff        bool
	LayoffPeriods      []LayoffPeriod
}

// Project owns a set of tasks keyed by task code and points to its company by
// code.
type Project struct {
	ID            string
	Code          string
	CompanyCode   string
	Name          string
	Description   string
	StartDate     *Date
	EndDate       *Date
	Timezone      string
	VacationRules *VacationRules
	Status        ProjectStatus
	Tasks         map[string]Task
	Labels        map[string]string
	Annotations   map[string]string
	Namespace     string
	// Unknown manifest keys, kept opaque so a load/save cycle loses nothing.
	MetaExtra map[string]any
	SpecExtra map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
	CreatedBy string
}

// Mutable reports whether tasks, dependencies and assignments may change.
func (p Project) Mutable() bool { return !p.Status.Terminal() }

// Window returns the project's start/end interval when both ends are set.
func (p Project) Window() (Period, bool) {
	if p.StartDate == nil || p.EndDate == nil {
		return Period{}, false
	}
	return Period{Start: *p.StartDate, End: *p.EndDate}, true
}

func (p Project) transitionErr(verb string) error {
	return &ValidationError{Entity: "project " + p.Code, Field: "status", Reason: fmt.Sprintf("cannot %s a %s project", verb, p.Status)}
}

// Start moves a planned project to in-progress.
func (p Project) Start() (Project, error) {
	if p.Status != ProjectPlanned {
		return Project{}, p.transitionErr("start")
	}
	p.Status = ProjectInProgress
	p.UpdatedAt = time.Now().UTC()
	return p, nil
}

// Hold pauses an in-progress project. On-hold is reachable only from
// in-progress.
func (p Project) Hold() (Project, error) {
	if p.Status != ProjectInProgress {
		return Project{}, p.transitionErr("hold")
	}
	p.Status = ProjectOnHold
	p.UpdatedAt = time.Now().UTC()
	return p, nil
}

// Resume returns an on-hold project to in-progress.
func (p Project) Resume() (Project, error) {
	if p.Status != ProjectOnHold {
		return Project{}, p.transitionErr("resume")
	}
	p.Status = ProjectInProgress
	p.UpdatedAt = time.Now().UTC()
	return p, nil
}

// Complete finishes an in-progress project.
func (p Project) Complete() (Project, error) {
	if p.Status != ProjectInProgress {
		return Project{}, p.transitionErr("complete")
	}
	p.Status = ProjectCompleted
	p.UpdatedAt = time.Now().UTC()
	return p, nil
}

// Cancel aborts a planned or in-progress project.
func (p Project) Cancel() (Project, error) {
	if p.Status != ProjectPlanned && p.Status != ProjectInProgress {
		return Project{}, p.transitionErr("cancel")
	}
	p.Status = ProjectCancelled
	p.UpdatedAt = time.Now().UTC()
	return p, nil
}

// AddTask inserts a task under the project. The task code must be unique
// within the project and the project must be mutable.
func (p Project) AddTask(t Task) (Project, error) {
	if !p.Mutable() {
		return Project{}, &ValidationError{Entity: "project " + p.Code, Reason: fmt.Sprintf("project is %s and frozen", p.Status)}
	}
	if _, exists := p.Tasks[t.Code]; exists {
		return Project{}, &AlreadyExistsError{Kind: "task", Code: t.Code}
	}
	tasks := make(map[string]Task, len(p.Tasks)+1)
	for k, v := range p.Tasks {
		tasks[k] = v
	}
	t.ProjectCode = p.Code
	tasks[t.Code] = t
	p.Tasks = tasks
	p.UpdatedAt = time.Now().UTC()
	return p, nil
}

// UpdateTask replaces an existing task.
func (p Project) UpdateTask(t Task) (Project, error) {
	if !p.Mutable() {
		return Project{}, &ValidationError{Entity: "project " + p.Code, Reason: fmt.Sprintf("project is %s and frozen", p.Status)}
	}
	if _, exists := p.Tasks[t.Code]; !exists {
		return Project{}, &NotFoundError{Kind: "task", Key: t.Code}
	}
	tasks := make(map[string]Task, len(p.Tasks))
	for k, v := range p.Tasks {
		tasks[k] = v
	}
	tasks[t.Code] = t
	p.Tasks = tasks
	p.UpdatedAt = time.Now().UTC()
	return p, nil
}

// RemoveTask deletes a task by code. Idempotent on missing tasks.
func (p Project) RemoveTask(code string) (Project, error) {
	if !p.Mutable() {
		return Project{}, &ValidationError{Entity: "project " + p.Code, Reason: fmt.Sprintf("project is %s and frozen", p.Status)}
	}
	if _, exists := p.Tasks[code]; !exists {
		return p, nil
	}
	tasks := make(map[string]Task, len(p.Tasks))
	for k, v := range p.Tasks {
		if k != code {
			tasks[k] = v
		}
	}
	p.Tasks = tasks
	p.UpdatedAt = time.Now().UTC()
	return p, nil
}

// ProjectBuilder accumulates fields and validates the full record at Build.
type ProjectBuilder struct {
	project Project
}

func NewProjectBuilder() *ProjectBuilder {
	return &ProjectBuilder{project: Project{
		Status:   ProjectPlanned,
		Timezone: "UTC",
		Tasks:    map[string]Task{},
	}}
}

func (b *ProjectBuilder) Code(code string) *ProjectBuilder { b.project.Code = code; return b }
func (b *ProjectBuilder) CompanyCode(code string) *ProjectBuilder {
	b.project.CompanyCode = code
	return b
}
func (b *ProjectBuilder) Name(name string) *ProjectBuilder { b.project.Name = name; return b }
func (b *ProjectBuilder) Description(d string) *ProjectBuilder {
	b.project.Description = d
	return b
}
func (b *ProjectBuilder) StartDate(d Date) *ProjectBuilder { b.project.StartDate = &d; return b }
func (b *ProjectBuilder) EndDate(d Date) *ProjectBuilder   { b.project.EndDate = &d; return b }
func (b *ProjectBuilder) Timezone(tz string) *ProjectBuilder {
	b.project.Timezone = tz
	return b
}
func (b *ProjectBuilder) VacationRules(vr VacationRules) *ProjectBuilder {
	b.project.VacationRules = &vr
	return b
}
func (b *ProjectBuilder) Status(s ProjectStatus) *ProjectBuilder {
	b.project.Status = s
	return b
}
func (b *ProjectBuilder) CreatedBy(who string) *ProjectBuilder {
	b.project.CreatedBy = who
	return b
}

// Build validates the accumulated record and materialises the project.
func (b *ProjectBuilder) Build() (Project, error) {
	p := b.project
	if p.Code == "" {
		return Project{}, &ValidationError{Entity: "project", Field: "code", Reason: "must not be empty"}
	}
	if p.Name == "" {
		return Project{}, &ValidationError{Entity: "project", Field: "name", Reason: "must not be empty"}
	}
	if p.CompanyCode == "" {
		return Project{}, &ValidationError{Entity: "project", Field: "companyCode", Reason: "must not be empty"}
	}
	if !p.Status.Valid() {
		return Project{}, &ValidationError{Entity: "project", Field: "status", Reason: fmt.Sprintf("unknown status %q", p.Status)}
	}
	if p.StartDate != nil && p.EndDate != nil && p.EndDate.Before(*p.StartDate) {
		return Project{}, &ValidationError{Entity: "project", Field: "endDate", Reason: "must not precede startDate"}
	}
	if p.VacationRules != nil {
		for i, lo := range p.VacationRules.LayoffPeriods {
			if lo.End.Before(lo.Start) {
				return Project{}, &ValidationError{Entity: "project", Field: fmt.Sprintf("vacationRules.layoffPeriods[%d]", i), Reason: "end precedes start"}
			}
		}
	}
	if p.Tasks == nil {
		p.Tasks = map[string]Task{}
	}
	if p.ID == "" {
		p.ID = NewID()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	return p, nil
}
