package manifest

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/tasktaskrevolution/ttr/internal/domain"
)

// ProjectManifest is the on-disk form of a project. Tasks are embedded under
// spec.tasks, keyed by task code.
type ProjectManifest struct {
	APIVersion string      `yaml:"apiVersion"`
	Kind       string      `yaml:"kind"`
	Metadata   Metadata    `yaml:"metadata"`
	Spec       ProjectSpec `yaml:"spec"`
}

type ProjectSpec struct {
	CompanyCode   string                 `yaml:"companyCode"`
	Timezone      string                 `yaml:"timezone,omitempty"`
	StartDate     string                 `yaml:"startDate,omitempty"`
	EndDate       string                 `yaml:"endDate,omitempty"`
	Status        string                 `yaml:"status"`
	VacationRules *VacationRulesManifest `yaml:"vacationRules,omitempty"`
	Tasks         map[string]TaskSpec    `yaml:"tasks,omitempty"`

	Extra map[string]any `yaml:",inline"`
}

type VacationRulesManifest struct {
	AllowedDaysPerYear int                    `yaml:"allowedDaysPerYear"`
	CarryOverDays      int                    `yaml:"carryOverDays"`
	AllowLayoff        bool                   `yaml:"allowLayoff,omitempty"`
	LayoffPeriods      []LayoffPeriodManifest `yaml:"layoffPeriods,omitempty"`
}

type LayoffPeriodManifest struct {
	StartDate string `yaml:"startDate"`
	EndDate   string `yaml:"endDate"`
}

// TaskSpec is the embedded form of a task inside its project document.
type TaskSpec struct {
	ID                string               `yaml:"id"`
	Name              string               `yaml:"name"`
	Description       string               `yaml:"description,omitempty"`
	StartDate         string               `yaml:"startDate"`
	DueDate           string               `yaml:"dueDate"`
	ActualEndDate     string               `yaml:"actualEndDate,omitempty"`
	Status            string               `yaml:"status"`
	Progress          int                  `yaml:"progress,omitempty"`
	BlockedReason     string               `yaml:"blockedReason,omitempty"`
	Priority          string               `yaml:"priority"`
	Dependencies      []DependencyManifest `yaml:"dependencies,omitempty"`
	AssignedResources []string             `yaml:"assignedResources,omitempty"`
	CreatedAt         string               `yaml:"createdAt,omitempty"`
	UpdatedAt         string               `yaml:"updatedAt,omitempty"`
	CreatedBy         string               `yaml:"createdBy,omitempty"`

	Extra map[string]any `yaml:",inline"`
}

type DependencyManifest struct {
	Predecessor string `yaml:"predecessor"`
	Kind        string `yaml:"kind"`
	LagDays     int    `yaml:"lagDays,omitempty"`
	LagUnit     string `yaml:"lagUnit,omitempty"`
	AddedBy     string `yaml:"addedBy,omitempty"`
	Reason      string `yaml:"reason,omitempty"`
}

// FromProject renders a domain project as a manifest. Infallible.
func FromProject(p domain.Project) ProjectManifest {
	spec := ProjectSpec{
		CompanyCode: p.CompanyCode,
		Timezone:    p.Timezone,
		StartDate:   formatDateOpt(p.StartDate),
		EndDate:     formatDateOpt(p.EndDate),
		Status:      string(p.Status),
		Extra:       p.SpecExtra,
	}
	if p.VacationRules != nil {
		vr := VacationRulesManifest{
			AllowedDaysPerYear: p.VacationRules.AllowedDaysPerYear,
			CarryOverDays:      p.VacationRules.CarryOverDays,
			AllowLayoff:        p.VacationRules.AllowLayoff,
		}
		for _, lo := range p.VacationRules.LayoffPeriods {
			vr.LayoffPeriods = append(vr.LayoffPeriods, LayoffPeriodManifest{
				StartDate: lo.Start.String(),
				EndDate:   lo.End.String(),
			})
		}
		spec.VacationRules = &vr
	}
	if len(p.Tasks) > 0 {
		spec.Tasks = make(map[string]TaskSpec, len(p.Tasks))
		for code, t := range p.Tasks {
			spec.Tasks[code] = fromTask(t)
		}
	}
	return ProjectManifest{
		APIVersion: APIVersion,
		Kind:       KindProject,
		Metadata: Metadata{
			ID:          p.ID,
			Code:        p.Code,
			Name:        p.Name,
			Description: p.Description,
			CreatedAt:   formatTime(p.CreatedAt),
			UpdatedAt:   formatTime(p.UpdatedAt),
			CreatedBy:   p.CreatedBy,
			Labels:      p.Labels,
			Annotations: p.Annotations,
			Namespace:   p.Namespace,
			Extra:       p.MetaExtra,
		},
		Spec: spec,
	}
}

func fromTask(t domain.Task) TaskSpec {
	spec := TaskSpec{
		ID:                t.ID,
		Name:              t.Name,
		Description:       t.Description,
		StartDate:         t.StartDate.String(),
		DueDate:           t.DueDate.String(),
		ActualEndDate:     formatDateOpt(t.ActualEndDate),
		Status:            t.Status.Kind.String(),
		Progress:          t.Status.Progress,
		BlockedReason:     t.Status.Reason,
		Priority:          t.Priority.String(),
		AssignedResources: t.AssignedResources,
		CreatedAt:         formatTime(t.CreatedAt),
		UpdatedAt:         formatTime(t.UpdatedAt),
		CreatedBy:         t.CreatedBy,
		Extra:             t.Extra,
	}
	for _, d := range t.Dependencies {
		spec.Dependencies = append(spec.Dependencies, DependencyManifest{
			Predecessor: d.Predecessor,
			Kind:        d.Kind.String(),
			LagDays:     d.Lag.Days,
			LagUnit:     d.Lag.Unit.String(),
			AddedBy:     d.AddedBy,
			Reason:      d.Reason,
		})
	}
	return spec
}

// ToProject converts a manifest back into a domain project, naming the
// offending field on failure.
func (m ProjectManifest) ToProject() (domain.Project, error) {
	if err := checkEnvelope(m.APIVersion, m.Kind, KindProject); err != nil {
		return domain.Project{}, err
	}
	if err := m.Metadata.validate(KindProject); err != nil {
		return domain.Project{}, err
	}
	if m.Spec.CompanyCode == "" {
		return domain.Project{}, &MissingFieldError{Path: "spec.companyCode"}
	}

	status := domain.ProjectStatus(m.Spec.Status)
	if m.Spec.Status == "" {
		status = domain.ProjectPlanned
	} else if !status.Valid() {
		return domain.Project{}, &InvalidFieldError{Path: "spec.status", Reason: fmt.Sprintf("unknown status %q", m.Spec.Status)}
	}

	startDate, err := parseDateOpt("spec.startDate", m.Spec.StartDate)
	if err != nil {
		return domain.Project{}, err
	}
	endDate, err := parseDateOpt("spec.endDate", m.Spec.EndDate)
	if err != nil {
		return domain.Project{}, err
	}
	createdAt, err := parseTimeOpt("metadata.createdAt", m.Metadata.CreatedAt)
	if err != nil {
		return domain.Project{}, err
	}
	updatedAt, err := parseTimeOpt("metadata.updatedAt", m.Metadata.UpdatedAt)
	if err != nil {
		return domain.Project{}, err
	}

	var rules *domain.VacationRules
	if m.Spec.VacationRules != nil {
		vr := domain.VacationRules{
			AllowedDaysPerYear: m.Spec.VacationRules.AllowedDaysPerYear,
			CarryOverDays:      m.Spec.VacationRules.CarryOverDays,
			AllowLayoff:        m.Spec.VacationRules.AllowLayoff,
		}
		for i, lo := range m.Spec.VacationRules.LayoffPeriods {
			start, err := parseDate(fmt.Sprintf("spec.vacationRules.layoffPeriods[%d].startDate", i), lo.StartDate)
			if err != nil {
				return domain.Project{}, err
			}
			end, err := parseDate(fmt.Sprintf("spec.vacationRules.layoffPeriods[%d].endDate", i), lo.EndDate)
			if err != nil {
				return domain.Project{}, err
			}
			vr.LayoffPeriods = append(vr.LayoffPeriods, domain.LayoffPeriod{Start: start, End: end})
		}
		rules = &vr
	}

	tasks := make(map[string]domain.Task, len(m.Spec.Tasks))
	codes := make([]string, 0, len(m.Spec.Tasks))
	for code := range m.Spec.Tasks {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		t, err := m.Spec.Tasks[code].toTask(code, m.Metadata.Code)
		if err != nil {
			return domain.Project{}, err
		}
		tasks[code] = t
	}

	return domain.Project{
		ID:            m.Metadata.ID,
		Code:          m.Metadata.Code,
		CompanyCode:   m.Spec.CompanyCode,
		Name:          m.Metadata.Name,
		Description:   m.Metadata.Description,
		StartDate:     startDate,
		EndDate:       endDate,
		Timezone:      m.Spec.Timezone,
		VacationRules: rules,
		Status:        status,
		Tasks:         tasks,
		Labels:        m.Metadata.Labels,
		Annotations:   m.Metadata.Annotations,
		Namespace:     m.Metadata.Namespace,
		MetaExtra:     m.Metadata.Extra,
		SpecExtra:     m.Spec.Extra,
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
		CreatedBy:     m.Metadata.CreatedBy,
	}, nil
}

func (s TaskSpec) toTask(code, projectCode string) (domain.Task, error) {
	base := fmt.Sprintf("spec.tasks.%s", code)
	if s.ID == "" {
		return domain.Task{}, &MissingFieldError{Path: base + ".id"}
	}
	if s.Name == "" {
		return domain.Task{}, &MissingFieldError{Path: base + ".name"}
	}

	startDate, err := parseDate(base+".startDate", s.StartDate)
	if err != nil {
		return domain.Task{}, err
	}
	dueDate, err := parseDate(base+".dueDate", s.DueDate)
	if err != nil {
		return domain.Task{}, err
	}
	if dueDate.Before(startDate) {
		return domain.Task{}, &InvalidFieldError{Path: base + ".dueDate", Reason: "precedes startDate"}
	}
	actualEnd, err := parseDateOpt(base+".actualEndDate", s.ActualEndDate)
	if err != nil {
		return domain.Task{}, err
	}

	statusKind, err := domain.ParseTaskStatusKind(s.Status)
	if err != nil {
		return domain.Task{}, &InvalidFieldError{Path: base + ".status", Reason: fmt.Sprintf("unknown status %q", s.Status)}
	}
	if s.Progress < 0 || s.Progress > 100 {
		return domain.Task{}, &InvalidFieldError{Path: base + ".progress", Reason: fmt.Sprintf("must be 0-100, got %d", s.Progress)}
	}

	priority := domain.PriorityMedium
	if s.Priority != "" {
		priority, err = domain.ParsePriority(s.Priority)
		if err != nil {
			return domain.Task{}, &InvalidFieldError{Path: base + ".priority", Reason: fmt.Sprintf("unknown priority %q", s.Priority)}
		}
	}

	var deps []domain.Dependency
	for i, d := range s.Dependencies {
		depBase := fmt.Sprintf("%s.dependencies[%d]", base, i)
		if d.Predecessor == "" {
			return domain.Task{}, &MissingFieldError{Path: depBase + ".predecessor"}
		}
		kind := domain.FinishToStart
		if d.Kind != "" {
			kind, err = domain.ParseLinkKind(d.Kind)
			if err != nil {
				return domain.Task{}, &InvalidFieldError{Path: depBase + ".kind", Reason: fmt.Sprintf("unknown link kind %q", d.Kind)}
			}
		}
		unit, err := domain.ParseLagUnit(d.LagUnit)
		if err != nil {
			return domain.Task{}, &InvalidFieldError{Path: depBase + ".lagUnit", Reason: fmt.Sprintf("unknown lag unit %q", d.LagUnit)}
		}
		deps = append(deps, domain.Dependency{
			Predecessor: d.Predecessor,
			Kind:        kind,
			Lag:         domain.Lag{Days: d.LagDays, Unit: unit},
			AddedBy:     d.AddedBy,
			Reason:      d.Reason,
		})
	}

	createdAt, err := parseTimeOpt(base+".createdAt", s.CreatedAt)
	if err != nil {
		return domain.Task{}, err
	}
	updatedAt, err := parseTimeOpt(base+".updatedAt", s.UpdatedAt)
	if err != nil {
		return domain.Task{}, err
	}

	return domain.Task{
		ID:                s.ID,
		ProjectCode:       projectCode,
		Code:              code,
		Name:              s.Name,
		Description:       s.Description,
		Status:            domain.TaskStatus{Kind: statusKind, Progress: s.Progress, Reason: s.BlockedReason},
		Priority:          priority,
		StartDate:         startDate,
		DueDate:           dueDate,
		ActualEndDate:     actualEnd,
		Dependencies:      deps,
		AssignedResources: s.AssignedResources,
		Extra:             s.Extra,
		CreatedAt:         createdAt,
		UpdatedAt:         updatedAt,
		CreatedBy:         s.CreatedBy,
	}, nil
}

// DecodeProject parses a YAML document into a project manifest.
func DecodeProject(data []byte) (ProjectManifest, error) {
	var m ProjectManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return ProjectManifest{}, &domain.SerializationError{Format: "YAML", Reason: err.Error()}
	}
	return m, nil
}

// Encode renders the manifest as YAML.
func (m ProjectManifest) Encode() ([]byte, error) {
	data, err := yaml.Marshal(m)
	if err != nil {
		return nil, &domain.SerializationError{Format: "YAML", Reason: err.Error()}
	}
	return data, nil
}
