// Package store persists entities as a directory tree of YAML manifests:
//
//	<root>/companies/<company-id>.yaml
//	<root>/projects/<project-id>.yaml   (tasks embedded)
//	<root>/resources/<resource-id>.yaml
//	<root>/config.yaml
//
// The store assumes a single writer within one process. Read paths reload the
// tree before answering so out-of-band edits are observed; the in-memory maps
// are only a hot-path accelerator. Disk I/O happens outside the internal
// lock: a load reads every file first and swaps the maps in under the write
// side afterwards.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/tasktaskrevolution/ttr/internal/config"
	"github.com/tasktaskrevolution/ttr/internal/domain"
	"github.com/tasktaskrevolution/ttr/internal/manifest"
)

const (
	companiesDir = "companies"
	projectsDir  = "projects"
	resourcesDir = "resources"
)

// Store owns one directory tree and hands out per-kind repositories.
type Store struct {
	root string
	log  *zap.Logger

	mu        sync.RWMutex
	companies map[string]domain.Company  // keyed by code
	projects  map[string]domain.Project  // keyed by code
	resources map[string]domain.Resource // keyed by code
}

// Option configures a Store.
type Option func(*Store)

// WithLogger routes store diagnostics through the given logger. A nil logger
// keeps the no-op default.
func WithLogger(log *zap.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// Open binds a store to an existing root directory.
func Open(root string, opts ...Option) (*Store, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, &domain.IOError{Op: "stat", Path: root, Err: err}
	}
	if !info.IsDir() {
		return nil, &domain.IOError{Op: "stat", Path: root, Err: errors.New("not a directory")}
	}
	s := &Store{
		root:      root,
		log:       zap.NewNop(),
		companies: map[string]domain.Company{},
		projects:  map[string]domain.Project{},
		resources: map[string]domain.Resource{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Initialize creates the root layout and an initial config manifest, then
// opens the store.
func Initialize(root string, cfg *config.Config, opts ...Option) (*Store, error) {
	for _, dir := range []string{root, filepath.Join(root, companiesDir), filepath.Join(root, projectsDir), filepath.Join(root, resourcesDir)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &domain.IOError{Op: "mkdir", Path: dir, Err: err}
		}
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Save(root); err != nil {
		return nil, err
	}
	s, err := Open(root, opts...)
	if err != nil {
		return nil, err
	}
	s.log.Info("store initialised", zap.String("root", root))
	return s, nil
}

// Root returns the store's directory.
func (s *Store) Root() string { return s.root }

// Companies returns the company repository.
func (s *Store) Companies() *CompanyRepository { return &CompanyRepository{s: s} }

// Projects returns the project repository.
func (s *Store) Projects() *ProjectRepository { return &ProjectRepository{s: s} }

// Resources returns the resource repository.
func (s *Store) Resources() *ResourceRepository { return &ResourceRepository{s: s} }

// reload reads the whole tree from disk and swaps the in-memory maps. The
// first failing document aborts the load; partial results are discarded.
func (s *Store) reload() error {
	companies := map[string]domain.Company{}
	if err := s.eachYAML(companiesDir, func(path string, data []byte) error {
		m, err := manifest.DecodeCompany(data)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		c, err := m.ToCompany()
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		companies[c.Code] = c
		return nil
	}); err != nil {
		return err
	}

	projects := map[string]domain.Project{}
	if err := s.eachYAML(projectsDir, func(path string, data []byte) error {
		m, err := manifest.DecodeProject(data)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		p, err := m.ToProject()
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		projects[p.Code] = p
		return nil
	}); err != nil {
		return err
	}

	resources := map[string]domain.Resource{}
	if err := s.eachYAML(resourcesDir, func(path string, data []byte) error {
		m, err := manifest.DecodeResource(data)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		r, err := m.ToResource()
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		resources[r.Code] = r
		return nil
	}); err != nil {
		return err
	}

	s.mu.Lock()
	s.companies = companies
	s.projects = projects
	s.resources = resources
	s.mu.Unlock()
	return nil
}

// eachYAML visits every .yaml file directly under a subdirectory. A missing
// subdirectory is an empty collection, not an error.
func (s *Store) eachYAML(dir string, visit func(path string, data []byte) error) error {
	full := filepath.Join(s.root, dir)
	entries, err := os.ReadDir(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return &domain.IOError{Op: "readdir", Path: full, Err: err}
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(full, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return &domain.IOError{Op: "read", Path: path, Err: err}
		}
		if err := visit(path, data); err != nil {
			return err
		}
	}
	return nil
}

// writeFile writes data next to the target and renames atomically into place.
// On failure the prior document is left untouched.
func (s *Store) writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &domain.IOError{Op: "mkdir", Path: dir, Err: err}
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return &domain.IOError{Op: "create", Path: dir, Err: err}
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &domain.IOError{Op: "write", Path: tmpName, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &domain.IOError{Op: "close", Path: tmpName, Err: err}
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return &domain.IOError{Op: "chmod", Path: tmpName, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return &domain.IOError{Op: "rename", Path: path, Err: err}
	}
	return nil
}

// removeFile deletes a document. Idempotent on missing files.
func (s *Store) removeFile(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &domain.IOError{Op: "remove", Path: path, Err: err}
	}
	return nil
}

// nextCode computes the smallest positive N such that <prefix>-<N> is not
// among the taken codes.
func nextCode(prefix string, taken map[string]bool) string {
	for n := 1; ; n++ {
		code := fmt.Sprintf("%s-%d", prefix, n)
		if !taken[code] {
			return code
		}
	}
}
