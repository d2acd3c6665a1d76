package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/tasktaskrevolution/ttr/internal/config"
	"github.com/tasktaskrevolution/ttr/internal/domain"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := Initialize(t.TempDir(), config.DefaultConfig())
	if err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	return s
}

func testCompany(t *testing.T, code, name string) domain.Company {
	t.Helper()
	c, err := domain.NewCompanyBuilder().Code(code).Name(name).Build()
	if err != nil {
		t.Fatalf("company Build() error = %v", err)
	}
	return c
}

func testProject(t *testing.T, code string) domain.Project {
	t.Helper()
	p, err := domain.NewProjectBuilder().
		Code(code).CompanyCode("comp-1").Name("Project " + code).
		StartDate(domain.MustDate("2024-01-01")).
		Build()
	if err != nil {
		t.Fatalf("project Build() error = %v", err)
	}
	return p
}

func TestInitializeCreatesLayout(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	if _, err := Initialize(root, config.DefaultConfig()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	for _, dir := range []string{"companies", "projects", "resources"} {
		if _, err := os.Stat(filepath.Join(root, dir)); err != nil {
			t.Errorf("missing %s: %v", dir, err)
		}
	}
	if _, err := os.Stat(filepath.Join(root, config.FileName)); err != nil {
		t.Errorf("missing config manifest: %v", err)
	}
}

func TestSaveAndFind(t *testing.T) {
	t.Parallel()
	s := newStore(t)
	c := testCompany(t, "comp-1", "Acme")

	if err := s.Companies().Save(c); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	byCode, err := s.Companies().FindByCode("comp-1")
	if err != nil {
		t.Fatalf("FindByCode() error = %v", err)
	}
	if byCode == nil || byCode.Name != "Acme" {
		t.Errorf("FindByCode() = %+v", byCode)
	}

	byID, err := s.Companies().FindByID(c.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if byID == nil || byID.Code != "comp-1" {
		t.Errorf("FindByID() = %+v", byID)
	}

	missing, err := s.Companies().FindByCode("comp-9")
	if err != nil {
		t.Fatalf("FindByCode(missing) error = %v", err)
	}
	if missing != nil {
		t.Errorf("FindByCode(missing) = %+v, want nil", missing)
	}
}

func TestSaveIsIdempotent(t *testing.T) {
	t.Parallel()
	s := newStore(t)
	c := testCompany(t, "comp-1", "Acme")

	if err := s.Companies().Save(c); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	first, err := os.ReadFile(filepath.Join(s.Root(), "companies", c.ID+".yaml"))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if err := s.Companies().Save(c); err != nil {
		t.Fatalf("Save() second error = %v", err)
	}
	second, err := os.ReadFile(filepath.Join(s.Root(), "companies", c.ID+".yaml"))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(first) != string(second) {
		t.Error("save(e); save(e) should leave the store unchanged")
	}

	all, err := s.Companies().FindAll()
	if err != nil {
		t.Fatalf("FindAll() error = %v", err)
	}
	if len(all) != 1 {
		t.Errorf("FindAll() = %d entries, want 1", len(all))
	}
}

func TestDelete(t *testing.T) {
	t.Parallel()
	s := newStore(t)
	c := testCompany(t, "comp-1", "Acme")
	if err := s.Companies().Save(c); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if err := s.Companies().Delete("comp-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(s.Root(), "companies", c.ID+".yaml")); !os.IsNotExist(err) {
		t.Error("Delete() should remove the document")
	}

	err := s.Companies().Delete("comp-1")
	var nf *domain.NotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("Delete() again error = %v, want *NotFoundError", err)
	}
}

func TestNextCodeSmallestFree(t *testing.T) {
	t.Parallel()
	s := newStore(t)

	code, err := s.Projects().NextCode()
	if err != nil {
		t.Fatalf("NextCode() error = %v", err)
	}
	if code != "proj-1" {
		t.Errorf("NextCode() = %q, want proj-1", code)
	}

	for _, c := range []string{"proj-1", "proj-2", "proj-4"} {
		if err := s.Projects().Save(testProject(t, c)); err != nil {
			t.Fatalf("Save(%s) error = %v", c, err)
		}
	}
	code, err = s.Projects().NextCode()
	if err != nil {
		t.Fatalf("NextCode() error = %v", err)
	}
	if code != "proj-3" {
		t.Errorf("NextCode() = %q, want proj-3 (smallest free)", code)
	}
}

func TestResourceNextCodeUsesTypePrefix(t *testing.T) {
	t.Parallel()
	s := newStore(t)

	r, err := domain.NewResourceBuilder().
		Code("dev-1").CompanyCode("comp-1").Name("Ada").Type("developer").
		Build()
	if err != nil {
		t.Fatalf("resource Build() error = %v", err)
	}
	if err := s.Resources().Save(r); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	code, err := s.Resources().NextCode("developer")
	if err != nil {
		t.Fatalf("NextCode() error = %v", err)
	}
	if code != "dev-2" {
		t.Errorf("NextCode(developer) = %q, want dev-2", code)
	}
	code, err = s.Resources().NextCode("qa")
	if err != nil {
		t.Fatalf("NextCode() error = %v", err)
	}
	if code != "qa-1" {
		t.Errorf("NextCode(qa) = %q, want qa-1", code)
	}
}

func TestFindTaskServesPerTaskLookup(t *testing.T) {
	t.Parallel()
	s := newStore(t)
	p := testProject(t, "proj-1")
	task, err := domain.NewTaskBuilder().
		Code("task-1").Name("Design").
		StartDate(domain.MustDate("2024-01-01")).
		DueDate(domain.MustDate("2024-01-10")).
		Build()
	if err != nil {
		t.Fatalf("task Build() error = %v", err)
	}
	p, err = p.AddTask(task)
	if err != nil {
		t.Fatalf("AddTask() error = %v", err)
	}
	if err := s.Projects().Save(p); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := s.Projects().FindTask("proj-1", "task-1")
	if err != nil {
		t.Fatalf("FindTask() error = %v", err)
	}
	if got == nil || got.Name != "Design" {
		t.Errorf("FindTask() = %+v", got)
	}

	missing, err := s.Projects().FindTask("proj-1", "task-9")
	if err != nil {
		t.Fatalf("FindTask(missing) error = %v", err)
	}
	if missing != nil {
		t.Errorf("FindTask(missing) = %+v, want nil", missing)
	}
}

// Read paths reload the tree, so out-of-band edits are observed.
func TestReadObservesOutOfBandEdits(t *testing.T) {
	t.Parallel()
	s := newStore(t)
	c := testCompany(t, "comp-1", "Acme")
	if err := s.Companies().Save(c); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// A second store instance writes to the same tree.
	other, err := Open(s.Root())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	c2 := testCompany(t, "comp-2", "Globex")
	if err := other.Companies().Save(c2); err != nil {
		t.Fatalf("Save() via second instance error = %v", err)
	}

	all, err := s.Companies().FindAll()
	if err != nil {
		t.Fatalf("FindAll() error = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("FindAll() = %d entries, want 2", len(all))
	}
}

func TestReloadSurfacesFirstFailingDocument(t *testing.T) {
	t.Parallel()
	s := newStore(t)
	bad := filepath.Join(s.Root(), "companies", "broken.yaml")
	if err := os.WriteFile(bad, []byte(":\tnot yaml"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if _, err := s.Companies().FindAll(); err == nil {
		t.Error("FindAll() over a broken document should fail")
	}
}
