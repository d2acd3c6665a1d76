// Package schedule computes task schedules over a dependency graph: a
// forward pass for earliest dates, a backward pass for floats and the
// critical path, incremental propagation of changes, and post-schedule
// conflict validation.
package schedule

import (
	"errors"
	"fmt"

	"github.com/tasktaskrevolution/ttr/internal/cache"
	"github.com/tasktaskrevolution/ttr/internal/domain"
	"github.com/tasktaskrevolution/ttr/internal/graph"
)

// Config drives one scheduler invocation.
type Config struct {
	ProjectStart       domain.Date
	ProjectEnd         *domain.Date
	DefaultDuration    int
	WorkingDaysOnly    bool
	WorkingHoursPerDay int
	CacheEnabled       bool
}

// Result is the calculated schedule for one task.
type Result struct {
	Code                  string
	Start                 domain.Date
	End                   domain.Date
	Order                 int
	DependenciesSatisfied bool
	TotalFloat            int
	FreeFloat             int
	Critical              bool
}

// Scheduler runs forward and backward passes over a graph. The calculation
// cache is owned by the scheduler instance and is not shared across threads.
type Scheduler struct {
	cfg   Config
	cal   Calendar
	cache *cache.Cache[Result]
	ids   map[string]string // task code -> entity id, for fingerprint keys
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithCache attaches a calculation cache.
func WithCache(c *cache.Cache[Result]) Option {
	return func(s *Scheduler) { s.cache = c }
}

// WithTaskIDs supplies entity ids for fingerprint keys. Codes are used when
// no id is known.
func WithTaskIDs(ids map[string]string) Option {
	return func(s *Scheduler) { s.ids = ids }
}

// NewScheduler builds a scheduler for one configuration and calendar.
func NewScheduler(cfg Config, cal Calendar, opts ...Option) *Scheduler {
	if cfg.DefaultDuration < 1 {
		cfg.DefaultDuration = 1
	}
	if cfg.WorkingHoursPerDay < 1 {
		cfg.WorkingHoursPerDay = 8
	}
	s := &Scheduler{cfg: cfg, cal: cal}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CacheStats exposes the calculation cache counters for diagnostics.
func (s *Scheduler) CacheStats() cache.Stats {
	if s.cache == nil {
		return cache.Stats{}
	}
	return s.cache.Stats()
}

// Run executes the forward and backward passes. Anchors floor the computed
// start of individual tasks. The returned map is keyed by task code.
func (s *Scheduler) Run(g *graph.Graph, anchors map[string]domain.Date) (map[string]Result, error) {
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
		node, _ := g.Task(code)
		key := ""
		if s.useCache() {
			key = s.fingerprint(g, code, anchors)
			if cached, ok := s.cache.Get(key); ok {
				cached.Order = i
				results[code] = cached
				continue
			}
		}

		res := s.forwardOne(g, node, results, anchors)
		res.Order = i
		results[code] = res
		if s.useCache() {
			s.cache.Set(key, res)
		}
	}

	s.backward(g, order, results)

	for code := range results {
		res := results[code]
		res.DependenciesSatisfied = s.satisfied(g, code, results)
		results[code] = res
	}
	return results, nil
}

func (s *Scheduler) useCache() bool {
	return s.cfg.CacheEnabled && s.cache != nil
}

// forwardOne computes the earliest start and end of a single task from its
// incoming edges. Tasks with no predecessors start at the project start.
func (s *Scheduler) forwardOne(g *graph.Graph, node graph.Node, results map[string]Result, anchors map[string]domain.Date) Result {
	wd := s.cfg.WorkingDaysOnly
	duration := node.Duration
	if duration < 1 {
		duration = s.cfg.DefaultDuration
	}

	start := s.cfg.ProjectStart
	for _, e := range g.Predecessors(node.Code) {
		pred, ok := results[e.Predecessor]
		if !ok {
			continue
		}
		start = domain.MaxDate(start, s.candidateStart(pred, e, duration))
	}
	if anchor, ok := anchors[node.Code]; ok {
		start = domain.MaxDate(start, anchor)
	}
	if wd {
		start = s.cal.NextWorkingDay(start)
	}
	return Result{
		Code:  node.Code,
		Start: start,
		End:   s.cal.SpanEnd(start, duration, wd),
	}
}

// candidateStart derives the earliest start a single edge allows. A
// FinishToStart successor begins the day after the lagged predecessor finish;
// the other kinds bind their endpoints literally.
func (s *Scheduler) candidateStart(pred Result, e graph.Edge, duration int) domain.Date {
	wd := s.cfg.WorkingDaysOnly
	switch e.Kind {
	case domain.FinishToStart:
		return s.nextDay(s.cal.Shift(pred.End, e.Lag, wd))
	case domain.StartToStart:
		return s.cal.Shift(pred.Start, e.Lag, wd)
	case domain.FinishToFinish:
		return s.startFromEnd(s.cal.Shift(pred.End, e.Lag, wd), duration)
	case domain.StartToFinish:
		return s.startFromEnd(s.cal.Shift(pred.Start, e.Lag, wd), duration)
	}
	return pred.End
}

func (s *Scheduler) nextDay(d domain.Date) domain.Date {
	if s.cfg.WorkingDaysOnly {
		return s.cal.AddWorkingDays(d, 1)
	}
	return d.AddDays(1)
}

func (s *Scheduler) prevDay(d domain.Date) domain.Date {
	if s.cfg.WorkingDaysOnly {
		return s.cal.AddWorkingDays(d, -1)
	}
	return d.AddDays(-1)
}

// startFromEnd walks back duration-1 days from an inclusive end date.
func (s *Scheduler) startFromEnd(end domain.Date, duration int) domain.Date {
	if duration < 1 {
		duration = 1
	}
	if s.cfg.WorkingDaysOnly {
		return s.cal.AddWorkingDays(end, -(duration - 1))
	}
	return end.AddDays(-(duration - 1))
}

// backward computes latest dates against the project deadline and fills in
// floats and critical flags.
func (s *Scheduler) backward(g *graph.Graph, order []string, results map[string]Result) {
	if len(order) == 0 {
		return
	}

	deadline := s.projectDeadline(results)
	latestStart := make(map[string]domain.Date, len(order))
	latestEnd := make(map[string]domain.Date, len(order))

	for i := len(order) - 1; i >= 0; i-- {
		code := order[i]
		node, _ := g.Task(code)
		duration := node.Duration
		if duration < 1 {
			duration = s.cfg.DefaultDuration
		}

		le := deadline
		for _, e := range g.Successors(code) {
			succStart, okS := latestStart[e.Successor]
			succEnd, okE := latestEnd[e.Successor]
			if !okS || !okE {
				continue
			}
			var cand domain.Date
			switch e.Kind {
			case domain.FinishToStart:
				cand = s.cal.Shift(s.prevDay(succStart), negate(e.Lag), s.cfg.WorkingDaysOnly)
			case domain.StartToStart:
				cand = s.endFromStart(s.cal.Shift(succStart, negate(e.Lag), s.cfg.WorkingDaysOnly), duration)
			case domain.FinishToFinish:
				cand = s.cal.Shift(succEnd, negate(e.Lag), s.cfg.WorkingDaysOnly)
			case domain.StartToFinish:
				cand = s.endFromStart(s.cal.Shift(succEnd, negate(e.Lag), s.cfg.WorkingDaysOnly), duration)
			default:
				continue
			}
			le = domain.MinDate(le, cand)
		}
		ls := s.startFromEnd(le, duration)
		latestEnd[code] = le
		latestStart[code] = ls
	}

	for code, res := range results {
		total := res.Start.DaysUntil(latestStart[code])
		if total < 0 {
			total = 0
		}
		res.TotalFloat = total
		res.Critical = total == 0
		res.FreeFloat = s.freeFloat(g, code, results, deadline)
		results[code] = res
	}
}

func (s *Scheduler) endFromStart(start domain.Date, duration int) domain.Date {
	return s.cal.SpanEnd(start, duration, s.cfg.WorkingDaysOnly)
}

func (s *Scheduler) projectDeadline(results map[string]Result) domain.Date {
	if s.cfg.ProjectEnd != nil {
		return *s.cfg.ProjectEnd
	}
	var deadline domain.Date
	for _, res := range results {
		if deadline.IsZero() || res.End.After(deadline) {
			deadline = res.End
		}
	}
	return deadline
}

// freeFloat is the gap to the earliest successor constraint, or to the
// project deadline for tasks with no successors.
func (s *Scheduler) freeFloat(g *graph.Graph, code string, results map[string]Result, deadline domain.Date) int {
	res := results[code]
	succs := g.Successors(code)
	if len(succs) == 0 {
		gap := res.End.DaysUntil(deadline)
		if gap < 0 {
			return 0
		}
		return gap
	}
	free := -1
	for _, e := range succs {
		succ, ok := results[e.Successor]
		if !ok {
			continue
		}
		node, _ := g.Task(e.Successor)
		required := s.candidateStart(res, e, node.Duration)
		gap := required.DaysUntil(succ.Start)
		if gap < 0 {
			gap = 0
		}
		if free < 0 || gap < free {
			free = gap
		}
	}
	if free < 0 {
		return 0
	}
	return free
}

// satisfied verifies every incoming temporal constraint at the computed
// dates. False indicates an externally anchored date broke a constraint.
func (s *Scheduler) satisfied(g *graph.Graph, code string, results map[string]Result) bool {
	res := results[code]
	wd := s.cfg.WorkingDaysOnly
	for _, e := range g.Predecessors(code) {
		pred, ok := results[e.Predecessor]
		if !ok {
			return false
		}
		switch e.Kind {
		case domain.FinishToStart:
			if res.Start.Before(s.nextDay(s.cal.Shift(pred.End, e.Lag, wd))) {
				return false
			}
		case domain.StartToStart:
			if res.Start.Before(s.cal.Shift(pred.Start, e.Lag, wd)) {
				return false
			}
		case domain.FinishToFinish:
			if res.End.Before(s.cal.Shift(pred.End, e.Lag, wd)) {
				return false
			}
		case domain.StartToFinish:
			if res.End.Before(s.cal.Shift(pred.Start, e.Lag, wd)) {
				return false
			}
		}
	}
	return true
}

func negate(l domain.Lag) domain.Lag {
	return domain.Lag{Days: -l.Days, Unit: l.Unit}
}

// BuildGraph assembles a dependency graph from a project's tasks. Durations
// derive from the inclusive start/due interval.
func BuildGraph(p domain.Project) (*graph.Graph, error) {
	g := graph.New()
	for _, t := range p.Tasks {
		if err := g.AddTask(graph.Node{Code: t.Code, Duration: t.Duration()}); err != nil {
			return nil, err
		}
	}
	for _, code := range g.Codes() {
		t := p.Tasks[code]
		for _, d := range t.Dependencies {
			err := g.AddDependency(graph.Edge{
				Predecessor: d.Predecessor,
				Successor:   t.Code,
				Kind:        d.Kind,
				Lag:         d.Lag,
				AddedBy:     d.AddedBy,
				Reason:      d.Reason,
			})
			if err != nil {
				return nil, fmt.Errorf("task %s: %w", t.Code, err)
			}
		}
	}
	return g, nil
}
