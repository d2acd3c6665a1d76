package engine

import (
	"github.com/tasktaskrevolution/ttr/internal/domain"
	"github.com/tasktaskrevolution/ttr/internal/query"
)

// CompanyItem adapts a company to the query field-access capability.
type CompanyItem struct {
	Company domain.Company
}

func (c CompanyItem) Field(name string) (query.Value, bool) {
	switch name {
	case "id":
		return query.String(c.Company.ID), true
	case "code":
		return query.String(c.Company.Code), true
	case "name":
		return query.String(c.Company.Name), true
	case "description":
		return query.String(c.Company.Description), true
	case "tax_id":
		return query.String(c.Company.TaxID), true
	case "industry":
		return query.String(c.Company.Industry), true
	case "size":
		return query.String(string(c.Company.Size)), true
	case "status":
		return query.String(string(c.Company.Status)), true
	case "email":
		return query.String(c.Company.Email), true
	}
	return query.Value{}, false
}

// ProjectItem adapts a project to the query field-access capability.
type ProjectItem struct {
	Project domain.Project
}

func (p ProjectItem) Field(name string) (query.Value, bool) {
	switch name {
	case "id":
		return query.String(p.Project.ID), true
	case "code":
		return query.String(p.Project.Code), true
	case "name":
		return query.String(p.Project.Name), true
	case "description":
		return query.String(p.Project.Description), true
	case "company_code":
		return query.String(p.Project.CompanyCode), true
	case "status":
		return query.String(string(p.Project.Status)), true
	case "timezone":
		return query.String(p.Project.Timezone), true
	case "task_count":
		return query.Number(float64(len(p.Project.Tasks))), true
	case "start_date":
		if p.Project.StartDate == nil {
			return query.Value{}, false
		}
		return query.DateVal(*p.Project.StartDate), true
	case "end_date":
		if p.Project.EndDate == nil {
			return query.Value{}, false
		}
		return query.DateVal(*p.Project.EndDate), true
	}
	return query.Value{}, false
}

// TaskItem adapts a task to the query field-access capability.
type TaskItem struct {
	Task domain.Task
}

func (t TaskItem) Field(name string) (query.Value, bool) {
	switch name {
	case "id":
		return query.String(t.Task.ID), true
	case "code":
		return query.String(t.Task.Code), true
	case "name":
		return query.String(t.Task.Name), true
	case "description":
		return query.String(t.Task.Description), true
	case "project_code":
		return query.String(t.Task.ProjectCode), true
	case "status":
		return query.String(t.Task.Status.Kind.String()), true
	case "progress":
		return query.Number(float64(t.Task.Status.Progress)), true
	case "priority":
		return query.String(t.Task.Priority.String()), true
	case "start_date":
		return query.DateVal(t.Task.StartDate), true
	case "due_date":
		return query.DateVal(t.Task.DueDate), true
	case "duration":
		return query.Number(float64(t.Task.Duration())), true
	case "dependency_count":
		return query.Number(float64(len(t.Task.Dependencies))), true
	case "resource_count":
		return query.Number(float64(len(t.Task.AssignedResources))), true
	case "actual_end_date":
		if t.Task.ActualEndDate == nil {
			return query.Value{}, false
		}
		return query.DateVal(*t.Task.ActualEndDate), true
	}
	return query.Value{}, false
}

// ResourceItem adapts a resource to the query field-access capability.
type ResourceItem struct {
	Resource domain.Resource
}

func (r ResourceItem) Field(name string) (query.Value, bool) {
	switch name {
	case "id":
		return query.String(r.Resource.ID), true
	case "code":
		return query.String(r.Resource.Code), true
	case "name":
		return query.String(r.Resource.Name), true
	case "email":
		return query.String(r.Resource.Email), true
	case "type":
		return query.String(r.Resource.Type), true
	case "company_code":
		return query.String(r.Resource.CompanyCode), true
	case "state":
		return query.String(r.Resource.State.String()), true
	case "time_off_balance":
		return query.Number(float64(r.Resource.TimeOffBalance)), true
	case "assignment_count":
		return query.Number(float64(len(r.Resource.Assignments))), true
	case "vacation_count":
		return query.Number(float64(len(r.Resource.Vacations))), true
	}
	return query.Value{}, false
}
