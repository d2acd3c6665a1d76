package domain

import (
	"fmt"
	"time"
)

// ResourceStateKind discriminates the resource lifecycle states.
type ResourceStateKind int

const (
	ResourceAvailable ResourceStateKind = iota
	ResourceAssigned
	ResourceInactive
)

var resourceStateNames = map[ResourceStateKind]string{
	ResourceAvailable: "Available",
	ResourceAssigned:  "Assigned",
	ResourceInactive:  "Inactive",
}

func (k ResourceStateKind) String() string {
	if s, ok := resourceStateNames[k]; ok {
		return s
	}
	return fmt.Sprintf("ResourceStateKind(%d)", int(k))
}

func ParseResourceStateKind(s string) (ResourceStateKind, error) {
	for k, name := range resourceStateNames {
		if name == s {
			return k, nil
		}
	}
	return 0, &ValidationError{Entity: "resource", Field: "state", Reason: fmt.Sprintf("unknown state %q", s)}
}

// Resource is a person or capacity owned by a company. The Assigned state
// carries the authoritative record of project assignments.
type Resource struct {
	ID             string
	Code           string
	CompanyCode    string
	Name           string
	Email          string
	Type           string // free-form tag: developer, qa, manager...
	State          ResourceStateKind
	Assignments    []ProjectAssignment
	Vacations      []Vacation
	TimeOffBalance int // hours
	TimeOffHistory []TimeOffEntry
	Labels         map[string]string
	Annotations    map[string]string
	Namespace      string
	// Unknown manifest keys, kept opaque so a load/save cycle loses nothing.
	MetaExtra map[string]any
	SpecExtra map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
	CreatedBy string
}

// AddAssignment binds the resource to a project, moving it to Assigned.
// Cumulative allocation across overlapping assignments must stay within 100%.
func (r Resource) AddAssignment(a ProjectAssignment) (Resource, error) {
	if r.State == ResourceInactive {
		return Resource{}, &ValidationError{Entity: "resource " + r.Code, Field: "state", Reason: "inactive resources cannot receive assignments"}
	}
	if err := a.validate(); err != nil {
		return Resource{}, err
	}
	for _, at := range append([]ProjectAssignment{a}, r.Assignments...) {
		if !at.overlaps(a) || at.Start.Before(a.Start) {
			continue // the load inside a peaks at a.Start or at a later start
		}
		total := a.Allocation
		for _, existing := range r.Assignments {
			if !at.Start.Before(existing.Start) && !at.Start.After(existing.End) {
				total += existing.Allocation
			}
		}
		if total > 100 {
			return Resource{}, &ValidationError{
				Entity: "resource " + r.Code,
				Field:  "allocation",
				Reason: fmt.Sprintf("overlapping assignments exceed 100%% (%d%%)", total),
			}
		}
	}
	assignments := make([]ProjectAssignment, len(r.Assignments), len(r.Assignments)+1)
	copy(assignments, r.Assignments)
	r.Assignments = append(assignments, a)
	r.State = ResourceAssigned
	r.UpdatedAt = time.Now().UTC()
	return r, nil
}

// RemoveAssignment drops the assignment for a project. Removing the last one
// returns the resource to Available. Idempotent on missing assignments.
func (r Resource) RemoveAssignment(projectID string) Resource {
	assignments := make([]ProjectAssignment, 0, len(r.Assignments))
	for _, a := range r.Assignments {
		if a.ProjectID != projectID {
			assignments = append(assignments, a)
		}
	}
	r.Assignments = assignments
	if len(assignments) == 0 && r.State == ResourceAssigned {
		r.State = ResourceAvailable
	}
	r.UpdatedAt = time.Now().UTC()
	return r
}

// Deactivate retires the resource. Inactive resources accept no new
// vacations or assignments.
func (r Resource) Deactivate() Resource {
	r.State = ResourceInactive
	r.UpdatedAt = time.Now().UTC()
	return r
}

// AddVacation books a time-off interval. Vacations must not overlap each
// other; a vacation overlapping a layoff window is tagged IsLayoff.
func (r Resource) AddVacation(p Period, layoffs []LayoffPeriod) (Resource, error) {
	if r.State == ResourceInactive {
		return Resource{}, &ValidationError{Entity: "resource " + r.Code, Field: "state", Reason: "inactive resources cannot receive vacations"}
	}
	for _, v := range r.Vacations {
		if v.Period.Overlaps(p) {
			return Resource{}, &ValidationError{
				Entity: "resource " + r.Code,
				Field:  "vacations",
				Reason: fmt.Sprintf("%s overlaps existing vacation %s", p, v.Period),
			}
		}
	}
	vac := Vacation{Period: p}
	for _, lo := range layoffs {
		window := Period{Start: lo.Start, End: lo.End}
		if window.Overlaps(p) {
			vac.IsLayoff = true
			break
		}
	}
	vacations := make([]Vacation, len(r.Vacations), len(r.Vacations)+1)
	copy(vacations, r.Vacations)
	r.Vacations = append(vacations, vac)
	r.UpdatedAt = time.Now().UTC()
	return r, nil
}

// RecordTimeOff adjusts the time-off balance and appends to the history log.
// Hours may be negative to spend balance.
func (r Resource) RecordTimeOff(hours int, on Date, description string) (Resource, error) {
	if r.TimeOffBalance+hours < 0 {
		return Resource{}, &ValidationError{
			Entity: "resource " + r.Code,
			Field:  "timeOffBalance",
			Reason: fmt.Sprintf("balance cannot go negative (%d%+d)", r.TimeOffBalance, hours),
		}
	}
	history := make([]TimeOffEntry, len(r.TimeOffHistory), len(r.TimeOffHistory)+1)
	copy(history, r.TimeOffHistory)
	r.TimeOffHistory = append(history, TimeOffEntry{
		Hours:       hours,
		Date:        on,
		Description: description,
		RecordedAt:  time.Now().UTC(),
	})
	r.TimeOffBalance += hours
	r.UpdatedAt = time.Now().UTC()
	return r, nil
}

// OnVacation reports whether the resource has a booked vacation covering d.
func (r Resource) OnVacation(d Date) bool {
	for _, v := range r.Vacations {
		if v.Period.Contains(d) {
			return true
		}
	}
	return false
}

// ResourceBuilder accumulates fields and validates the full record at Build.
type ResourceBuilder struct {
	resource Resource
}

func NewResourceBuilder() *ResourceBuilder {
	return &ResourceBuilder{resource: Resource{
		State: ResourceAvailable,
		Type:  "developer",
	}}
}

func (b *ResourceBuilder) Code(code string) *ResourceBuilder { b.resource.Code = code; return b }
func (b *ResourceBuilder) CompanyCode(code string) *ResourceBuilder {
	b.resource.CompanyCode = code
	return b
}
func (b *ResourceBuilder) Name(name string) *ResourceBuilder { b.resource.Name = name; return b }
func (b *ResourceBuilder) Email(e string) *ResourceBuilder   { b.resource.Email = e; return b }
func (b *ResourceBuilder) Type(t string) *ResourceBuilder    { b.resource.Type = t; return b }
func (b *ResourceBuilder) TimeOffBalance(hours int) *ResourceBuilder {
	b.resource.TimeOffBalance = hours
	return b
}
func (b *ResourceBuilder) CreatedBy(who string) *ResourceBuilder {
	b.resource.CreatedBy = who
	return b
}

// Build validates the accumulated record and materialises the resource.
func (b *ResourceBuilder) Build() (Resource, error) {
	r := b.resource
	if r.Code == "" {
		return Resource{}, &ValidationError{Entity: "resource", Field: "code", Reason: "must not be empty"}
	}
	if r.Name == "" {
		return Resource{}, &ValidationError{Entity: "resource", Field: "name", Reason: "must not be empty"}
	}
	if r.Type == "" {
		return Resource{}, &ValidationError{Entity: "resource", Field: "type", Reason: "must not be empty"}
	}
	if r.TimeOffBalance < 0 {
		return Resource{}, &ValidationError{Entity: "resource", Field: "timeOffBalance", Reason: "must not be negative"}
	}
	if r.ID == "" {
		r.ID = NewID()
	}
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now
	return r, nil
}
