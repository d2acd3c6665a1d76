package manifest

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/tasktaskrevolution/ttr/internal/domain"
)

// ResourceManifest is the on-disk form of a resource.
type ResourceManifest struct {
	APIVersion string       `yaml:"apiVersion"`
	Kind       string       `yaml:"kind"`
	Metadata   Metadata     `yaml:"metadata"`
	Spec       ResourceSpec `yaml:"spec"`
}

type ResourceSpec struct {
	CompanyCode    string               `yaml:"companyCode"`
	Email          string               `yaml:"email,omitempty"`
	Type           string               `yaml:"type"`
	State          string               `yaml:"state"`
	TimeOffBalance int                  `yaml:"timeOffBalance"`
	Assignments    []AssignmentManifest `yaml:"projectAssignments,omitempty"`
	Vacations      []VacationManifest   `yaml:"vacations,omitempty"`
	TimeOffHistory []TimeOffManifest    `yaml:"timeOffHistory,omitempty"`

	Extra map[string]any `yaml:",inline"`
}

type AssignmentManifest struct {
	ProjectID  string `yaml:"projectId"`
	StartDate  string `yaml:"startDate"`
	EndDate    string `yaml:"endDate"`
	Allocation int    `yaml:"allocation"`
}

type VacationManifest struct {
	StartDate    string `yaml:"startDate"`
	EndDate      string `yaml:"endDate"`
	IsLayoff     bool   `yaml:"isLayoff,omitempty"`
	Compensated  bool   `yaml:"isTimeOffCompensation,omitempty"`
	Compensation string `yaml:"compensatedHours,omitempty"`
}

type TimeOffManifest struct {
	Hours       int    `yaml:"hours"`
	Date        string `yaml:"date"`
	Description string `yaml:"description,omitempty"`
	RecordedAt  string `yaml:"recordedAt,omitempty"`
}

// FromResource renders a domain resource as a manifest. Infallible.
func FromResource(r domain.Resource) ResourceManifest {
	spec := ResourceSpec{
		CompanyCode:    r.CompanyCode,
		Email:          r.Email,
		Type:           r.Type,
		State:          r.State.String(),
		TimeOffBalance: r.TimeOffBalance,
		Extra:          r.SpecExtra,
	}
	for _, a := range r.Assignments {
		spec.Assignments = append(spec.Assignments, AssignmentManifest{
			ProjectID:  a.ProjectID,
			StartDate:  formatTime(a.Start),
			EndDate:    formatTime(a.End),
			Allocation: a.Allocation,
		})
	}
	for _, v := range r.Vacations {
		spec.Vacations = append(spec.Vacations, VacationManifest{
			StartDate:    v.Period.Start.String(),
			EndDate:      v.Period.End.String(),
			IsLayoff:     v.IsLayoff,
			Compensated:  v.Compensated,
			Compensation: v.Compensation,
		})
	}
	for _, e := range r.TimeOffHistory {
		spec.TimeOffHistory = append(spec.TimeOffHistory, TimeOffManifest{
			Hours:       e.Hours,
			Date:        e.Date.String(),
			Description: e.Description,
			RecordedAt:  formatTime(e.RecordedAt),
		})
	}
	return ResourceManifest{
		APIVersion: APIVersion,
		Kind:       KindResource,
		Metadata: Metadata{
			ID:          r.ID,
			Code:        r.Code,
			Name:        r.Name,
			CreatedAt:   formatTime(r.CreatedAt),
			UpdatedAt:   formatTime(r.UpdatedAt),
			CreatedBy:   r.CreatedBy,
			Labels:      r.Labels,
			Annotations: r.Annotations,
			Namespace:   r.Namespace,
			Extra:       r.MetaExtra,
		},
		Spec: spec,
	}
}

// ToResource converts a manifest back into a domain resource, naming the
// offending field on failure.
func (m ResourceManifest) ToResource() (domain.Resource, error) {
	if err := checkEnvelope(m.APIVersion, m.Kind, KindResource); err != nil {
		return domain.Resource{}, err
	}
	if err := m.Metadata.validate(KindResource); err != nil {
		return domain.Resource{}, err
	}
	if m.Spec.Type == "" {
		return domain.Resource{}, &MissingFieldError{Path: "spec.type"}
	}

	state := domain.ResourceAvailable
	if m.Spec.State != "" {
		var err error
		state, err = domain.ParseResourceStateKind(m.Spec.State)
		if err != nil {
			return domain.Resource{}, &InvalidFieldError{Path: "spec.state", Reason: fmt.Sprintf("unknown state %q", m.Spec.State)}
		}
	}

	var assignments []domain.ProjectAssignment
	for i, a := range m.Spec.Assignments {
		base := fmt.Sprintf("spec.projectAssignments[%d]", i)
		if a.ProjectID == "" {
			return domain.Resource{}, &MissingFieldError{Path: base + ".projectId"}
		}
		if a.Allocation < 0 || a.Allocation > 100 {
			return domain.Resource{}, &InvalidFieldError{Path: base + ".allocation", Reason: fmt.Sprintf("must be 0-100, got %d", a.Allocation)}
		}
		start, err := parseTimeOpt(base+".startDate", a.StartDate)
		if err != nil {
			return domain.Resource{}, err
		}
		end, err := parseTimeOpt(base+".endDate", a.EndDate)
		if err != nil {
			return domain.Resource{}, err
		}
		assignments = append(assignments, domain.ProjectAssignment{
			ProjectID:  a.ProjectID,
			Start:      start,
			End:        end,
			Allocation: a.Allocation,
		})
	}
	if state == domain.ResourceAssigned && len(assignments) == 0 {
		return domain.Resource{}, &InvalidFieldError{Path: "spec.state", Reason: "Assigned state requires at least one project assignment"}
	}

	var vacations []domain.Vacation
	for i, v := range m.Spec.Vacations {
		base := fmt.Sprintf("spec.vacations[%d]", i)
		start, err := parseDate(base+".startDate", v.StartDate)
		if err != nil {
			return domain.Resource{}, err
		}
		end, err := parseDate(base+".endDate", v.EndDate)
		if err != nil {
			return domain.Resource{}, err
		}
		period, perr := domain.NewPeriod(start, end)
		if perr != nil {
			return domain.Resource{}, &InvalidFieldError{Path: base, Reason: perr.Error()}
		}
		vacations = append(vacations, domain.Vacation{
			Period:       period,
			IsLayoff:     v.IsLayoff,
			Compensated:  v.Compensated,
			Compensation: v.Compensation,
		})
	}

	var history []domain.TimeOffEntry
	for i, e := range m.Spec.TimeOffHistory {
		base := fmt.Sprintf("spec.timeOffHistory[%d]", i)
		on, err := parseDate(base+".date", e.Date)
		if err != nil {
			return domain.Resource{}, err
		}
		recordedAt, err := parseTimeOpt(base+".recordedAt", e.RecordedAt)
		if err != nil {
			return domain.Resource{}, err
		}
		history = append(history, domain.TimeOffEntry{
			Hours:       e.Hours,
			Date:        on,
			Description: e.Description,
			RecordedAt:  recordedAt,
		})
	}

	createdAt, err := parseTimeOpt("metadata.createdAt", m.Metadata.CreatedAt)
	if err != nil {
		return domain.Resource{}, err
	}
	updatedAt, err := parseTimeOpt("metadata.updatedAt", m.Metadata.UpdatedAt)
	if err != nil {
		return domain.Resource{}, err
	}

	return domain.Resource{
		ID:             m.Metadata.ID,
		Code:           m.Metadata.Code,
		CompanyCode:    m.Spec.CompanyCode,
		Name:           m.Metadata.Name,
		Email:          m.Spec.Email,
		Type:           m.Spec.Type,
		State:          state,
		Assignments:    assignments,
		Vacations:      vacations,
		TimeOffBalance: m.Spec.TimeOffBalance,
		TimeOffHistory: history,
		Labels:         m.Metadata.Labels,
		Annotations:    m.Metadata.Annotations,
		Namespace:      m.Metadata.Namespace,
		MetaExtra:      m.Metadata.Extra,
		SpecExtra:      m.Spec.Extra,
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
		CreatedBy:      m.Metadata.CreatedBy,
	}, nil
}

// DecodeResource parses a YAML document into a resource manifest.
func DecodeResource(data []byte) (ResourceManifest, error) {
	var m ResourceManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return ResourceManifest{}, &domain.SerializationError{Format: "YAML", Reason: err.Error()}
	}
	return m, nil
}

// Encode renders the manifest as YAML.
func (m ResourceManifest) Encode() ([]byte, error) {
	data, err := yaml.Marshal(m)
	if err != nil {
		return nil, &domain.SerializationError{Format: "YAML", Reason: err.Error()}
	}
	return data, nil
}
