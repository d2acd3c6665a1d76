package schedule

import (
	"fmt"
	"sort"

	"github.com/tasktaskrevolution/ttr/internal/domain"
	"github.com/tasktaskrevolution/ttr/internal/graph"
)

// ConflictKind tags the post-schedule checks.
type ConflictKind int

const (
	ConflictDateOverlap ConflictKind = iota
	ConflictWindowViolation
	ConflictDependencyUnsatisfied
	ConflictOverallocation
)

func (k ConflictKind) String() string {
	switch k {
	case ConflictDateOverlap:
		return "DateOverlap"
	case ConflictWindowViolation:
		return "WindowViolation"
	case ConflictDependencyUnsatisfied:
		return "DependencyUnsatisfied"
	case ConflictOverallocation:
		return "Overallocation"
	}
	return fmt.Sprintf("ConflictKind(%d)", int(k))
}

// Conflict carries enough context to locate the offending entities.
type Conflict struct {
	Kind     ConflictKind
	TaskA    string
	TaskB    string
	Resource string
	Interval domain.Period
	Day      domain.Date
	Percent  int
	Edge     *graph.Edge
	Message  string
}

// ValidationStatus is the validator's verdict. Conflicts is empty when Valid.
type ValidationStatus struct {
	Valid     bool
	Conflicts []Conflict
}

// Validator runs read-only conflict checks after scheduling.
type Validator struct {
	cfg Config
}

// NewValidator builds a validator for a scheduler configuration.
func NewValidator(cfg Config) *Validator {
	return &Validator{cfg: cfg}
}

// Validate inspects calculated results against the project window, the
// dependency constraints and the resource assignments. It never mutates
// state.
func (v *Validator) Validate(g *graph.Graph, results map[string]Result, p domain.Project, resources []domain.Resource) ValidationStatus {
	var conflicts []Conflict

	conflicts = append(conflicts, v.checkWindow(p, results)...)
	conflicts = append(conflicts, v.checkDependencies(g, results)...)
	conflicts = append(conflicts, v.checkDateOverlaps(p, results)...)
	conflicts = append(conflicts, v.checkAllocations(resources)...)

	return ValidationStatus{Valid: len(conflicts) == 0, Conflicts: conflicts}
}

// checkWindow flags tasks whose calculated interval escapes the project's
// start/end window.
func (v *Validator) checkWindow(p domain.Project, results map[string]Result) []Conflict {
	window, ok := p.Window()
	if !ok {
		return nil
	}
	var out []Conflict
	for _, code := range sortedResultCodes(results) {
		res := results[code]
		if res.Start.Before(window.Start) || res.End.After(window.End) {
			out = append(out, Conflict{
				Kind:     ConflictWindowViolation,
				TaskA:    code,
				Interval: domain.Period{Start: res.Start, End: res.End},
				Message:  fmt.Sprintf("task %s [%s, %s] falls outside project window %s", code, res.Start, res.End, window),
			})
		}
	}
	return out
}

// checkDependencies re-verifies every edge constraint at the computed dates.
// A violation indicates an externally anchored date (or a scheduler bug).
func (v *Validator) checkDependencies(g *graph.Graph, results map[string]Result) []Conflict {
	var out []Conflict
	for _, code := range sortedResultCodes(results) {
		res := results[code]
		if res.DependenciesSatisfied {
			continue
		}
		for _, e := range g.Predecessors(code) {
			edge := e
			out = append(out, Conflict{
				Kind:    ConflictDependencyUnsatisfied,
				TaskA:   e.Predecessor,
				TaskB:   code,
				Edge:    &edge,
				Message: fmt.Sprintf("dependency %s not satisfied at computed dates", e),
			})
		}
	}
	return out
}

// checkDateOverlaps flags two tasks sharing an assignee whose calculated
// intervals overlap. The default policy forbids overlap for single-assignee
// tasks.
func (v *Validator) checkDateOverlaps(p domain.Project, results map[string]Result) []Conflict {
	byResource := map[string][]string{}
	for _, code := range sortedResultCodes(results) {
		t, ok := p.Tasks[code]
		if !ok {
			continue
		}
		for _, rc := range t.AssignedResources {
			byResource[rc] = append(byResource[rc], code)
		}
	}

	resources := make([]string, 0, len(byResource))
	for rc := range byResource {
		resources = append(resources, rc)
	}
	sort.Strings(resources)

	var out []Conflict
	for _, rc := range resources {
		codes := byResource[rc]
		for i := 0; i < len(codes); i++ {
			for j := i + 1; j < len(codes); j++ {
				a, b := results[codes[i]], results[codes[j]]
				pa := domain.Period{Start: a.Start, End: a.End}
				pb := domain.Period{Start: b.Start, End: b.End}
				overlap, ok := pa.Intersection(pb)
				if !ok {
					continue
				}
				out = append(out, Conflict{
					Kind:     ConflictDateOverlap,
					TaskA:    codes[i],
					TaskB:    codes[j],
					Resource: rc,
					Interval: overlap,
					Message:  fmt.Sprintf("tasks %s and %s overlap on %s for resource %s", codes[i], codes[j], overlap, rc),
				})
			}
		}
	}
	return out
}

// checkAllocations flags any day where a resource's concurrent assignments
// sum above 100%.
func (v *Validator) checkAllocations(resources []domain.Resource) []Conflict {
	var out []Conflict
	for _, r := range resources {
		for i := 0; i < len(r.Assignments); i++ {
			for j := i + 1; j < len(r.Assignments); j++ {
				a, b := r.Assignments[i], r.Assignments[j]
				if a.End.Before(b.Start) || b.End.Before(a.Start) {
					continue
				}
				total := a.Allocation + b.Allocation
				if total <= 100 {
					continue
				}
				day := domain.MaxDate(domain.DateOf(a.Start), domain.DateOf(b.Start))
				out = append(out, Conflict{
					Kind:     ConflictOverallocation,
					Resource: r.Code,
					Day:      day,
					Percent:  total,
					Message:  fmt.Sprintf("resource %s allocated %d%% from %s", r.Code, total, day),
				})
			}
		}
	}
	return out
}

func sortedResultCodes(results map[string]Result) []string {
	out := make([]string, 0, len(results))
	for code := range results {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}
