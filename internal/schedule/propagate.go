package schedule

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tasktaskrevolution/ttr/internal/domain"
	"github.com/tasktaskrevolution/ttr/internal/graph"
)

// ChangeKind tags the mutation a propagation run reacts to.
type ChangeKind int

const (
	StartDateChanged ChangeKind = iota
	EndDateChanged
	DurationChanged
	DependencyAdded
	DependencyRemoved
	TaskAdded
	TaskRemoved
)

var changeKindNames = map[ChangeKind]string{
	StartDateChanged:  "StartDateChanged",
	EndDateChanged:    "EndDateChanged",
	DurationChanged:   "DurationChanged",
	DependencyAdded:   "DependencyAdded",
	DependencyRemoved: "DependencyRemoved",
	TaskAdded:         "TaskAdded",
	TaskRemoved:       "TaskRemoved",
}

func (k ChangeKind) String() string {
	if s, ok := changeKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("ChangeKind(%d)", int(k))
}

// Change is one recorded mutation. Exactly the fields relevant to its kind
// are set.
type Change struct {
	ID          uuid.UUID
	Kind        ChangeKind
	TaskCode    string
	OldDate     domain.Date
	NewDate     domain.Date
	OldDuration int
	NewDuration int
	Edge        *graph.Edge
	Node        *graph.Node
}

// NewStartDateChange records a moved task start.
func NewStartDateChange(taskCode string, oldDate, newDate domain.Date) Change {
	return Change{ID: uuid.New(), Kind: StartDateChanged, TaskCode: taskCode, OldDate: oldDate, NewDate: newDate}
}

// NewEndDateChange records a moved task end.
func NewEndDateChange(taskCode string, oldDate, newDate domain.Date) Change {
	return Change{ID: uuid.New(), Kind: EndDateChanged, TaskCode: taskCode, OldDate: oldDate, NewDate: newDate}
}

// NewDurationChange records a changed task duration.
func NewDurationChange(taskCode string, oldDuration, newDuration int) Change {
	return Change{ID: uuid.New(), Kind: DurationChanged, TaskCode: taskCode, OldDuration: oldDuration, NewDuration: newDuration}
}

// NewDependencyAdded records an edge insertion.
func NewDependencyAdded(e graph.Edge) Change {
	return Change{ID: uuid.New(), Kind: DependencyAdded, TaskCode: e.Successor, Edge: &e}
}

// NewDependencyRemoved records an edge removal.
func NewDependencyRemoved(e graph.Edge) Change {
	return Change{ID: uuid.New(), Kind: DependencyRemoved, TaskCode: e.Successor, Edge: &e}
}

// NewTaskAdded records a node insertion.
func NewTaskAdded(n graph.Node) Change {
	return Change{ID: uuid.New(), Kind: TaskAdded, TaskCode: n.Code, Node: &n}
}

// NewTaskRemoved records a node removal.
func NewTaskRemoved(taskCode string) Change {
	return Change{ID: uuid.New(), Kind: TaskRemoved, TaskCode: taskCode}
}

// PropagationStatus classifies the outcome of a propagation run.
type PropagationStatus int

const (
	PropagationNoOp PropagationStatus = iota
	PropagationPropagated
	PropagationRejected
)

func (s PropagationStatus) String() string {
	switch s {
	case PropagationNoOp:
		return "NoOp"
	case PropagationPropagated:
		return "Propagated"
	case PropagationRejected:
		return "Rejected"
	}
	return fmt.Sprintf("PropagationStatus(%d)", int(s))
}

// Delta is the per-task date movement caused by a propagation run.
type Delta struct {
	Code     string
	OldStart domain.Date
	OldEnd   domain.Date
	NewStart domain.Date
	NewEnd   domain.Date
}

// PropagationResult reports what a recorded change did.
type PropagationResult struct {
	ChangeID uuid.UUID
	Status   PropagationStatus
	Reason   string
	Affected []string
	Deltas   map[string]Delta
}

// Propagator applies recorded changes and recomputes only the affected
// sub-DAG, reusing previous results outside it.
type Propagator struct {
	sched *Scheduler
	log   *zap.Logger
}

// NewPropagator builds a propagator over a scheduler.
func NewPropagator(sched *Scheduler, log *zap.Logger) *Propagator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Propagator{sched: sched, log: log}
}

// Apply mutates the graph (or anchors) for one change and re-runs the
// forward pass restricted to the forward-reachable set of the origin. On
// rejection the graph, previous results and cache are left untouched.
func (p *Propagator) Apply(g *graph.Graph, prev map[string]Result, anchors map[string]domain.Date, ch Change) (PropagationResult, map[string]Result, error) {
	res := PropagationResult{ChangeID: ch.ID, Deltas: map[string]Delta{}}

	if anchors == nil {
		anchors = map[string]domain.Date{}
	}

	origin := ch.TaskCode
	switch ch.Kind {
	case StartDateChanged:
		if !g.HasTask(ch.TaskCode) {
			return p.reject(res, fmt.Sprintf("task %s not in graph", ch.TaskCode)), prev, nil
		}
		anchors[ch.TaskCode] = ch.NewDate
	case EndDateChanged:
		if !g.HasTask(ch.TaskCode) {
			return p.reject(res, fmt.Sprintf("task %s not in graph", ch.TaskCode)), prev, nil
		}
		prevRes, ok := prev[ch.TaskCode]
		if !ok {
			return p.reject(res, fmt.Sprintf("task %s has no prior schedule", ch.TaskCode)), prev, nil
		}
		duration := prevRes.Start.DaysUntil(ch.NewDate) + 1
		if duration < 1 {
			return p.reject(res, fmt.Sprintf("end date %s precedes start %s", ch.NewDate, prevRes.Start)), prev, nil
		}
		if err := g.SetDuration(ch.TaskCode, duration); err != nil {
			return p.reject(res, err.Error()), prev, nil
		}
	case DurationChanged:
		if ch.NewDuration < 1 {
			return p.reject(res, "duration must be at least 1 day"), prev, nil
		}
		if err := g.SetDuration(ch.TaskCode, ch.NewDuration); err != nil {
			return p.reject(res, err.Error()), prev, nil
		}
	case DependencyAdded:
		if ch.Edge == nil {
			return p.reject(res, "change carries no edge"), prev, nil
		}
		if err := g.AddDependency(*ch.Edge); err != nil {
			return p.reject(res, err.Error()), prev, nil
		}
		origin = ch.Edge.Predecessor
	case DependencyRemoved:
		if ch.Edge == nil {
			return p.reject(res, "change carries no edge"), prev, nil
		}
		g.RemoveDependency(*ch.Edge)
		origin = ch.Edge.Successor
	case TaskAdded:
		if ch.Node == nil {
			return p.reject(res, "change carries no node"), prev, nil
		}
		if err := g.AddTask(*ch.Node); err != nil {
			return p.reject(res, err.Error()), prev, nil
		}
	case TaskRemoved:
		if !g.HasTask(ch.TaskCode) {
			return p.reject(res, fmt.Sprintf("task %s not in graph", ch.TaskCode)), prev, nil
		}
	default:
		return p.reject(res, fmt.Sprintf("unknown change kind %v", ch.Kind)), prev, nil
	}

	affected := g.Reachable(origin)
	if ch.Kind == TaskRemoved {
		g.RemoveTask(ch.TaskCode)
		delete(anchors, ch.TaskCode)
	}

	next, err := p.sched.RunSubset(g, anchors, affected, prev)
	if err != nil {
		return p.reject(res, err.Error()), prev, err
	}

	// The run succeeded: replace the cached entries of every affected task
	// in one step. A failed run above retains all prior values.
	p.invalidate(affected)

	res.Affected = sortedCodes(affected)
	for code := range affected {
		old, hadOld := prev[code]
		now, hasNow := next[code]
		if !hasNow {
			continue
		}
		if hadOld && old.Start.Equal(now.Start) && old.End.Equal(now.End) {
			continue
		}
		res.Deltas[code] = Delta{
			Code:     code,
			OldStart: old.Start,
			OldEnd:   old.End,
			NewStart: now.Start,
			NewEnd:   now.End,
		}
	}
	if len(res.Deltas) == 0 && ch.Kind != TaskRemoved {
		res.Status = PropagationNoOp
	} else {
		res.Status = PropagationPropagated
	}
	p.log.Debug("change propagated",
		zap.String("change", ch.Kind.String()),
		zap.String("origin", ch.TaskCode),
		zap.Int("affected", len(res.Affected)),
		zap.Int("moved", len(res.Deltas)))
	return res, next, nil
}

// ApplyAll applies a batch of changes in order, carrying results forward.
// A rejected change stops the batch.
func (p *Propagator) ApplyAll(g *graph.Graph, prev map[string]Result, anchors map[string]domain.Date, changes []Change) ([]PropagationResult, map[string]Result, error) {
	out := make([]PropagationResult, 0, len(changes))
	current := prev
	for _, ch := range changes {
		res, next, err := p.Apply(g, current, anchors, ch)
		out = append(out, res)
		if err != nil {
			return out, current, err
		}
		if res.Status == PropagationRejected {
			return out, current, nil
		}
		current = next
	}
	return out, current, nil
}

func (p *Propagator) reject(res PropagationResult, reason string) PropagationResult {
	res.Status = PropagationRejected
	res.Reason = reason
	return res
}

// invalidate evicts every cache entry keyed by an affected task before new
// results land.
func (p *Propagator) invalidate(affected map[string]bool) {
	if p.sched.cache == nil {
		return
	}
	for code := range affected {
		p.sched.cache.DeleteByPrefix(CacheKeyPrefix(code))
	}
}

func sortedCodes(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for code := range set {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// RunSubset re-runs the forward pass restricted to the affected set, reusing
// previous results for every task outside it. Floats and satisfaction flags
// are refreshed for the whole graph.
func (s *Scheduler) RunSubset(g *graph.Graph, anchors map[string]domain.Date, affected map[string]bool, prev map[string]Result) (map[string]Result, error) {
	order, err := g.TopologicalOrder()
	if err != nil {
		var cyc *graph.CycleDetectedError
		if errors.As(err, &cyc) {
			return nil, &domain.SchedulingError{Reason: "circular dependency", Path: cyc.Remaining}
		}
		return nil, err
	}

	results := make(map[string]Result, len(order))
	for i, code := range order {
		if !affected[code] {
			if old, ok := prev[code]; ok {
				old.Order = i
				results[code] = old
				continue
			}
		}
		node, _ := g.Task(code)
		res := s.forwardOne(g, node, results, anchors)
		res.Order = i
		results[code] = res
	}

	s.backward(g, order, results)
	for code := range results {
		res := results[code]
		res.DependenciesSatisfied = s.satisfied(g, code, results)
		results[code] = res
	}
	return results, nil
}
