package store

import (
	"path/filepath"

	"go.uber.org/zap"

	"github.com/tasktaskrevolution/ttr/internal/domain"
	"github.com/tasktaskrevolution/ttr/internal/manifest"
)

// CompanyRepository serves CRUD operations for companies.
type CompanyRepository struct {
	s *Store
}

func (r *CompanyRepository) path(id string) string {
	return filepath.Join(r.s.root, companiesDir, id+".yaml")
}

// Save writes the company document and refreshes the in-memory index.
func (r *CompanyRepository) Save(c domain.Company) error {
	data, err := manifest.FromCompany(c).Encode()
	if err != nil {
		return err
	}
	if err := r.s.writeFile(r.path(c.ID), data); err != nil {
		return err
	}
	r.s.mu.Lock()
	r.s.companies[c.Code] = c
	r.s.mu.Unlock()
	r.s.log.Debug("company saved", zap.String("code", c.Code), zap.String("id", c.ID))
	return nil
}

// FindByCode returns the company with the given code, or nil.
func (r *CompanyRepository) FindByCode(code string) (*domain.Company, error) {
	if err := r.s.reload(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if c, ok := r.s.companies[code]; ok {
		return &c, nil
	}
	return nil, nil
}

// FindByID returns the company with the given id, or nil.
func (r *CompanyRepository) FindByID(id string) (*domain.Company, error) {
	if err := r.s.reload(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, c := range r.s.companies {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, nil
}

// FindAll returns every company, in unspecified order.
func (r *CompanyRepository) FindAll() ([]domain.Company, error) {
	if err := r.s.reload(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]domain.Company, 0, len(r.s.companies))
	for _, c := range r.s.companies {
		out = append(out, c)
	}
	return out, nil
}

// Delete removes the document and the cached entry for a code.
func (r *CompanyRepository) Delete(code string) error {
	if err := r.s.reload(); err != nil {
		return err
	}
	r.s.mu.RLock()
	c, ok := r.s.companies[code]
	r.s.mu.RUnlock()
	if !ok {
		return &domain.NotFoundError{Kind: "company", Key: code}
	}
	if err := r.s.removeFile(r.path(c.ID)); err != nil {
		return err
	}
	r.s.mu.Lock()
	delete(r.s.companies, code)
	r.s.mu.Unlock()
	r.s.log.Debug("company deleted", zap.String("code", code))
	return nil
}

// NextCode returns the smallest free company code of the form comp-<N>.
func (r *CompanyRepository) NextCode() (string, error) {
	if err := r.s.reload(); err != nil {
		return "", err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	taken := make(map[string]bool, len(r.s.companies))
	for code := range r.s.companies {
		taken[code] = true
	}
	return nextCode("comp", taken), nil
}
