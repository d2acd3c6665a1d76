package store

import (
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/tasktaskrevolution/ttr/internal/domain"
	"github.com/tasktaskrevolution/ttr/internal/manifest"
)

// ResourceRepository serves CRUD operations for resources.
type ResourceRepository struct {
	s *Store
}

func (r *ResourceRepository) path(id string) string {
	return filepath.Join(r.s.root, resourcesDir, id+".yaml")
}

// Save writes the resource document and refreshes the in-memory index.
func (r *ResourceRepository) Save(res domain.Resource) error {
	data, err := manifest.FromResource(res).Encode()
	if err != nil {
		return err
	}
	if err := r.s.writeFile(r.path(res.ID), data); err != nil {
		return err
	}
	r.s.mu.Lock()
	r.s.resources[res.Code] = res
	r.s.mu.Unlock()
	r.s.log.Debug("resource saved", zap.String("code", res.Code), zap.String("type", res.Type))
	return nil
}

// FindByCode returns the resource with the given code, or nil.
func (r *ResourceRepository) FindByCode(code string) (*domain.Resource, error) {
	if err := r.s.reload(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if res, ok := r.s.resources[code]; ok {
		return &res, nil
	}
	return nil, nil
}

// FindByID returns the resource with the given id, or nil.
func (r *ResourceRepository) FindByID(id string) (*domain.Resource, error) {
	if err := r.s.reload(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, res := range r.s.resources {
		if res.ID == id {
			return &res, nil
		}
	}
	return nil, nil
}

// FindAll returns every resource, in unspecified order.
func (r *ResourceRepository) FindAll() ([]domain.Resource, error) {
	if err := r.s.reload(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]domain.Resource, 0, len(r.s.resources))
	for _, res := range r.s.resources {
		out = append(out, res)
	}
	return out, nil
}

// FindByCompany returns every resource owned by a company code.
func (r *ResourceRepository) FindByCompany(companyCode string) ([]domain.Resource, error) {
	all, err := r.FindAll()
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, res := range all {
		if res.CompanyCode == companyCode {
			out = append(out, res)
		}
	}
	return out, nil
}

// Delete removes the document and the cached entry for a code.
func (r *ResourceRepository) Delete(code string) error {
	if err := r.s.reload(); err != nil {
		return err
	}
	r.s.mu.RLock()
	res, ok := r.s.resources[code]
	r.s.mu.RUnlock()
	if !ok {
		return &domain.NotFoundError{Kind: "resource", Key: code}
	}
	if err := r.s.removeFile(r.path(res.ID)); err != nil {
		return err
	}
	r.s.mu.Lock()
	delete(r.s.resources, code)
	r.s.mu.Unlock()
	r.s.log.Debug("resource deleted", zap.String("code", code))
	return nil
}

// NextCode returns the smallest free resource code for a resource type, e.g.
// dev-1 for type "developer" shortened to its prefix.
func (r *ResourceRepository) NextCode(resourceType string) (string, error) {
	if err := r.s.reload(); err != nil {
		return "", err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	prefix := codePrefix(resourceType)
	taken := make(map[string]bool, len(r.s.resources))
	for code := range r.s.resources {
		taken[code] = true
	}
	return nextCode(prefix, taken), nil
}

// codePrefix derives a short code prefix from a resource type tag.
func codePrefix(resourceType string) string {
	t := strings.ToLower(strings.TrimSpace(resourceType))
	switch t {
	case "developer":
		return "dev"
	case "manager":
		return "mgr"
	case "":
		return "res"
	}
	if len(t) > 3 {
		return t[:3]
	}
	return t
}
