// Package engine is the capability set the CLI front end consumes: store
// initialisation, scheduling, propagation, validation, queries and
// migration, each a thin composition over the core packages.
package engine

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/tasktaskrevolution/ttr/internal/cache"
	"github.com/tasktaskrevolution/ttr/internal/config"
	"github.com/tasktaskrevolution/ttr/internal/domain"
	"github.com/tasktaskrevolution/ttr/internal/migrate"
	"github.com/tasktaskrevolution/ttr/internal/query"
	"github.com/tasktaskrevolution/ttr/internal/schedule"
	"github.com/tasktaskrevolution/ttr/internal/store"
)

// Engine wires the core components over one store.
type Engine struct {
	store *store.Store
	cfg   *config.Config
	log   *zap.Logger
}

// New binds an engine to an opened store.
func New(st *store.Store, cfg *config.Config, log *zap.Logger) *Engine {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{store: st, cfg: cfg, log: log}
}

// Initialise creates the root layout and an initial config manifest, then
// returns an engine bound to the new store.
func Initialise(root string, cfg *config.Config, log *zap.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	st, err := store.Initialize(root, cfg, store.WithLogger(log))
	if err != nil {
		return nil, err
	}
	return New(st, cfg, log), nil
}

// Open binds an engine to an existing store root, loading its config.
func Open(root string, log *zap.Logger) (*Engine, error) {
	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(root, store.WithLogger(log))
	if err != nil {
		return nil, err
	}
	return New(st, cfg, log), nil
}

// Store exposes the per-kind repositories.
func (e *Engine) Store() *store.Store { return e.store }

// Config exposes the loaded configuration.
func (e *Engine) Config() *config.Config { return e.cfg }

// loadProject fetches a project or fails with a not-found error.
func (e *Engine) loadProject(code string) (domain.Project, error) {
	p, err := e.store.Projects().FindByCode(code)
	if err != nil {
		return domain.Project{}, err
	}
	if p == nil {
		return domain.Project{}, &domain.NotFoundError{Kind: "project", Key: code}
	}
	return *p, nil
}

// schedulerFor assembles a scheduler for one project: the project's layoff
// windows feed the calendar, the store config feeds the defaults, and each
// invocation owns a fresh calculation cache.
func (e *Engine) schedulerFor(p domain.Project) *schedule.Scheduler {
	var layoffs []domain.LayoffPeriod
	if p.VacationRules != nil {
		layoffs = p.VacationRules.LayoffPeriods
	}
	cal := schedule.NewCalendar(layoffs)

	cfg := schedule.Config{
		DefaultDuration:    e.cfg.Scheduling.DefaultDurationDays,
		WorkingDaysOnly:    e.cfg.Scheduling.WorkingDaysOnly,
		WorkingHoursPerDay: e.cfg.Scheduling.WorkingHoursPerDay,
		CacheEnabled:       true,
	}
	if p.StartDate != nil {
		cfg.ProjectStart = *p.StartDate
	}
	cfg.ProjectEnd = p.EndDate

	ids := make(map[string]string, len(p.Tasks))
	for code, t := range p.Tasks {
		ids[code] = t.ID
	}

	calcCache := cache.New[schedule.Result](e.cfg.Cache.TTL, e.cfg.Cache.MaxEntries)
	return schedule.NewScheduler(cfg, cal,
		schedule.WithCache(calcCache),
		schedule.WithTaskIDs(ids))
}

// Schedule runs the scheduler against a project's tasks and returns the
// calculation results keyed by task code.
func (e *Engine) Schedule(projectCode string) (map[string]schedule.Result, error) {
	p, err := e.loadProject(projectCode)
	if err != nil {
		return nil, err
	}
	g, err := schedule.BuildGraph(p)
	if err != nil {
		return nil, err
	}
	results, err := e.schedulerFor(p).Run(g, anchorsOf(p))
	if err != nil {
		return nil, err
	}
	e.log.Debug("project scheduled", zap.String("project", projectCode), zap.Int("tasks", len(results)))
	return results, nil
}

// anchorsOf pins tasks with no predecessors to their stored start date;
// dependent tasks take the computed start.
func anchorsOf(p domain.Project) map[string]domain.Date {
	anchors := map[string]domain.Date{}
	for code, t := range p.Tasks {
		if len(t.Dependencies) == 0 && !t.StartDate.IsZero() {
			anchors[code] = t.StartDate
		}
	}
	return anchors
}

// Propagate applies one recorded change to a project's schedule and reports
// the affected tasks and their deltas.
func (e *Engine) Propagate(projectCode string, ch schedule.Change) (schedule.PropagationResult, error) {
	p, err := e.loadProject(projectCode)
	if err != nil {
		return schedule.PropagationResult{}, err
	}
	g, err := schedule.BuildGraph(p)
	if err != nil {
		return schedule.PropagationResult{}, err
	}
	sched := e.schedulerFor(p)
	anchors := anchorsOf(p)
	prev, err := sched.Run(g, anchors)
	if err != nil {
		return schedule.PropagationResult{}, err
	}
	prop := schedule.NewPropagator(sched, e.log)
	res, _, err := prop.Apply(g, prev, anchors, ch)
	return res, err
}

// Validate schedules a project and runs the conflict validator over the
// results and the company's resources.
func (e *Engine) Validate(projectCode string) (schedule.ValidationStatus, error) {
	p, err := e.loadProject(projectCode)
	if err != nil {
		return schedule.ValidationStatus{}, err
	}
	g, err := schedule.BuildGraph(p)
	if err != nil {
		return schedule.ValidationStatus{}, err
	}
	results, err := e.schedulerFor(p).Run(g, anchorsOf(p))
	if err != nil {
		return schedule.ValidationStatus{}, err
	}
	resources, err := e.store.Resources().FindByCompany(p.CompanyCode)
	if err != nil {
		return schedule.ValidationStatus{}, err
	}

	validator := schedule.NewValidator(schedule.Config{
		DefaultDuration: e.cfg.Scheduling.DefaultDurationDays,
		WorkingDaysOnly: e.cfg.Scheduling.WorkingDaysOnly,
	})
	status := validator.Validate(g, results, p, resources)
	if !status.Valid {
		e.log.Debug("validation found conflicts",
			zap.String("project", projectCode),
			zap.Int("conflicts", len(status.Conflicts)))
	}
	return status, nil
}

// Query parses and executes a query string over one entity kind.
func (e *Engine) Query(kind, queryString string, opts query.Options) (query.Result, error) {
	expr, err := query.Parse(queryString)
	if err != nil {
		return query.Result{}, err
	}
	items, err := e.itemsOf(kind)
	if err != nil {
		return query.Result{}, err
	}
	return query.Execute(expr, items, opts)
}

// itemsOf loads every entity of a kind and wraps it for field access. Tasks
// aggregate across all projects, ordered by project then task code.
func (e *Engine) itemsOf(kind string) ([]query.Queryable, error) {
	switch kind {
	case "company", "companies":
		all, err := e.store.Companies().FindAll()
		if err != nil {
			return nil, err
		}
		sort.Slice(all, func(i, j int) bool { return all[i].Code < all[j].Code })
		items := make([]query.Queryable, len(all))
		for i, c := range all {
			items[i] = CompanyItem{Company: c}
		}
		return items, nil
	case "project", "projects":
		all, err := e.store.Projects().FindAll()
		if err != nil {
			return nil, err
		}
		sort.Slice(all, func(i, j int) bool { return all[i].Code < all[j].Code })
		items := make([]query.Queryable, len(all))
		for i, p := range all {
			items[i] = ProjectItem{Project: p}
		}
		return items, nil
	case "resource", "resources":
		all, err := e.store.Resources().FindAll()
		if err != nil {
			return nil, err
		}
		sort.Slice(all, func(i, j int) bool { return all[i].Code < all[j].Code })
		items := make([]query.Queryable, len(all))
		for i, r := range all {
			items[i] = ResourceItem{Resource: r}
		}
		return items, nil
	case "task", "tasks":
		projects, err := e.store.Projects().FindAll()
		if err != nil {
			return nil, err
		}
		sort.Slice(projects, func(i, j int) bool { return projects[i].Code < projects[j].Code })
		var items []query.Queryable
		for _, p := range projects {
			codes := make([]string, 0, len(p.Tasks))
			for code := range p.Tasks {
				codes = append(codes, code)
			}
			sort.Strings(codes)
			for _, code := range codes {
				items = append(items, TaskItem{Task: p.Tasks[code]})
			}
		}
		return items, nil
	}
	return nil, &domain.ValidationError{Entity: "query", Field: "kind", Reason: fmt.Sprintf("unknown entity kind %q", kind)}
}

// Migrate runs the store migration.
func (e *Engine) Migrate(opts migrate.Options) (*migrate.Summary, error) {
	if opts.Root == "" {
		opts.Root = e.store.Root()
	}
	return migrate.Run(opts, e.log)
}
