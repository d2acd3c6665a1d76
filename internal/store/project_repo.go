package store

import (
	"path/filepath"

	"go.uber.org/zap"

	"github.com/tasktaskrevolution/ttr/internal/domain"
	"github.com/tasktaskrevolution/ttr/internal/manifest"
)

// ProjectRepository serves CRUD operations for projects and per-task code
// lookup into the embedded task set.
type ProjectRepository struct {
	s *Store
}

func (r *ProjectRepository) path(id string) string {
	return filepath.Join(r.s.root, projectsDir, id+".yaml")
}

// Save writes the project document (tasks included) and refreshes the
// in-memory index.
func (r *ProjectRepository) Save(p domain.Project) error {
	data, err := manifest.FromProject(p).Encode()
	if err != nil {
		return err
	}
	if err := r.s.writeFile(r.path(p.ID), data); err != nil {
		return err
	}
	r.s.mu.Lock()
	r.s.projects[p.Code] = p
	r.s.mu.Unlock()
	r.s.log.Debug("project saved", zap.String("code", p.Code), zap.Int("tasks", len(p.Tasks)))
	return nil
}

// FindByCode returns the project with the given code, or nil.
func (r *ProjectRepository) FindByCode(code string) (*domain.Project, error) {
	if err := r.s.reload(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if p, ok := r.s.projects[code]; ok {
		return &p, nil
	}
	return nil, nil
}

// FindByID returns the project with the given id, or nil.
func (r *ProjectRepository) FindByID(id string) (*domain.Project, error) {
	if err := r.s.reload(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, p := range r.s.projects {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, nil
}

// FindAll returns every project, in unspecified order.
func (r *ProjectRepository) FindAll() ([]domain.Project, error) {
	if err := r.s.reload(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]domain.Project, 0, len(r.s.projects))
	for _, p := range r.s.projects {
		out = append(out, p)
	}
	return out, nil
}

// FindByCompany returns every project owned by a company code.
func (r *ProjectRepository) FindByCompany(companyCode string) ([]domain.Project, error) {
	all, err := r.FindAll()
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, p := range all {
		if p.CompanyCode == companyCode {
			out = append(out, p)
		}
	}
	return out, nil
}

// FindTask serves the per-task code lookup contract over the embedded task
// set. Returns nil when either the project or the task is missing.
func (r *ProjectRepository) FindTask(projectCode, taskCode string) (*domain.Task, error) {
	p, err := r.FindByCode(projectCode)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, nil
	}
	if t, ok := p.Tasks[taskCode]; ok {
		return &t, nil
	}
	return nil, nil
}

// Delete removes the document and the cached entry for a code.
func (r *ProjectRepository) Delete(code string) error {
	if err := r.s.reload(); err != nil {
		return err
	}
	r.s.mu.RLock()
	p, ok := r.s.projects[code]
	r.s.mu.RUnlock()
	if !ok {
		return &domain.NotFoundError{Kind: "project", Key: code}
	}
	if err := r.s.removeFile(r.path(p.ID)); err != nil {
		return err
	}
	r.s.mu.Lock()
	delete(r.s.projects, code)
	r.s.mu.Unlock()
	r.s.log.Debug("project deleted", zap.String("code", code))
	return nil
}

// NextCode returns the smallest free project code of the form proj-<N>.
func (r *ProjectRepository) NextCode() (string, error) {
	if err := r.s.reload(); err != nil {
		return "", err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	taken := make(map[string]bool, len(r.s.projects))
	for code := range r.s.projects {
		taken[code] = true
	}
	return nextCode("proj", taken), nil
}

// NextTaskCode returns the smallest free task code of the form task-<N>
// within a project.
func (r *ProjectRepository) NextTaskCode(projectCode string) (string, error) {
	p, err := r.FindByCode(projectCode)
	if err != nil {
		return "", err
	}
	if p == nil {
		return "", &domain.NotFoundError{Kind: "project", Key: projectCode}
	}
	taken := make(map[string]bool, len(p.Tasks))
	for code := range p.Tasks {
		taken[code] = true
	}
	return nextCode("task", taken), nil
}
