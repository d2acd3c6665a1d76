package migrate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tasktaskrevolution/ttr/internal/manifest"
	"github.com/tasktaskrevolution/ttr/internal/store"
)

const legacyCompany = `apiVersion: tasktaskrevolution.io/v1alpha0
kind: Company
metadata:
  code: acme
  name: Acme
  created: "2023-06-01T10:00:00Z"
  legacyOwner: bob
spec:
  size: small
  status: active
`

const legacyProject = `apiVersion: tasktaskrevolution.io/v1alpha0
kind: Project
metadata:
  name: Relaunch
  updated: "2023-06-02T10:00:00Z"
spec:
  timeZone: UTC
  status: planned
  startDate: "2024-01-01"
`

const legacyResource = `apiVersion: tasktaskrevolution.io/v1alpha0
kind: Resource
metadata:
  code: dev-1
  name: Ada
spec:
  type: developer
  state: Available
  timeOffBalance: 40
`

func writeLegacyTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	companyDir := filepath.Join(root, "companies", "acme")
	projectDir := filepath.Join(companyDir, "projects", "relaunch")
	resourceDir := filepath.Join(companyDir, "resources")
	for _, dir := range []string{projectDir, resourceDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("MkdirAll() error = %v", err)
		}
	}
	files := map[string]string{
		filepath.Join(companyDir, "company.yaml"):  legacyCompany,
		filepath.Join(projectDir, "project.yaml"):  legacyProject,
		filepath.Join(resourceDir, "ada.yaml"):     legacyResource,
	}
	for path, content := range files {
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile(%s) error = %v", path, err)
		}
	}
	return root
}

func TestMigrateLegacyTree(t *testing.T) {
	t.Parallel()
	root := writeLegacyTree(t)

	summary, err := Run(Options{Root: root}, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.Companies != 1 || summary.Projects != 1 || summary.Resources != 1 {
		t.Errorf("summary = %+v, want one of each kind", summary)
	}

	// The migrated tree loads through the strict store: apiVersion rewritten,
	// ids assigned, links preserved.
	s, err := store.Open(root)
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	c, err := s.Companies().FindByCode("acme")
	if err != nil {
		t.Fatalf("FindByCode(acme) error = %v", err)
	}
	if c == nil {
		t.Fatal("company acme missing after migration")
	}
	if c.ID == "" {
		t.Error("migration should assign an id")
	}

	p, err := s.Projects().FindByCode("relaunch")
	if err != nil {
		t.Fatalf("FindByCode(relaunch) error = %v", err)
	}
	if p == nil {
		t.Fatal("project relaunch missing after migration")
	}
	if p.CompanyCode != "acme" {
		t.Errorf("project company link = %q, want acme", p.CompanyCode)
	}
	if p.Timezone != "UTC" {
		t.Errorf("timeZone rename not applied, timezone = %q", p.Timezone)
	}

	r, err := s.Resources().FindByCode("dev-1")
	if err != nil {
		t.Fatalf("FindByCode(dev-1) error = %v", err)
	}
	if r == nil {
		t.Fatal("resource dev-1 missing after migration")
	}
	if r.CompanyCode != "acme" {
		t.Errorf("resource company link = %q, want acme", r.CompanyCode)
	}

	// Legacy directories are gone.
	if _, err := os.Stat(filepath.Join(root, "companies", "acme")); !os.IsNotExist(err) {
		t.Error("legacy company directory should be removed")
	}
}

func TestMigrateUnknownMetadataKeptAsAnnotation(t *testing.T) {
	t.Parallel()
	root := writeLegacyTree(t)

	summary, err := Run(Options{Root: root}, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	var companyTarget string
	for _, a := range summary.Actions {
		if a.Kind == manifest.KindCompany {
			companyTarget = a.Target
		}
	}
	data, err := os.ReadFile(companyTarget)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), "legacy.tasktaskrevolution.io/legacyOwner") {
		t.Errorf("unknown metadata key should survive as annotation:\n%s", data)
	}
	if !strings.Contains(string(data), "bob") {
		t.Errorf("annotation value lost:\n%s", data)
	}
}

func TestMigrateDryRunWritesNothing(t *testing.T) {
	t.Parallel()
	root := writeLegacyTree(t)

	summary, err := Run(Options{Root: root, DryRun: true}, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(summary.Actions) != 3 {
		t.Errorf("plan size = %d, want 3", len(summary.Actions))
	}

	// Legacy tree untouched, no id-indexed files created.
	if _, err := os.Stat(filepath.Join(root, "companies", "acme", "company.yaml")); err != nil {
		t.Errorf("dry-run must not touch the legacy tree: %v", err)
	}
	migrated, err := hasIDIndexedData(root)
	if err != nil {
		t.Fatalf("hasIDIndexedData() error = %v", err)
	}
	if migrated {
		t.Error("dry-run must not write id-indexed files")
	}
}

func TestMigrateBackupAndRollback(t *testing.T) {
	t.Parallel()
	root := writeLegacyTree(t)

	summary, err := Run(Options{Root: root, Backup: true}, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.BackupBytes == 0 {
		t.Error("backup should report copied bytes")
	}
	backup := filepath.Join(root, BackupDirName, "companies", "acme", "company.yaml")
	if _, err := os.Stat(backup); err != nil {
		t.Fatalf("backup missing: %v", err)
	}

	if err := Rollback(root); err != nil {
		t.Fatalf("Rollback() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "companies", "acme", "company.yaml")); err != nil {
		t.Errorf("rollback should restore the legacy tree: %v", err)
	}

	// Idempotent: rolling back again converges on the same state.
	if err := Rollback(root); err != nil {
		t.Fatalf("Rollback() twice error = %v", err)
	}
}

func TestMigrateRefusesPartialTargetWithoutForce(t *testing.T) {
	t.Parallel()
	root := writeLegacyTree(t)

	if _, err := Run(Options{Root: root}, nil); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	// Re-introduce a legacy directory next to the migrated files.
	dir := filepath.Join(root, "companies", "globex")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	legacy := strings.ReplaceAll(legacyCompany, "acme", "globex")
	if err := os.WriteFile(filepath.Join(dir, "company.yaml"), []byte(legacy), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, err := Run(Options{Root: root}, nil); err == nil {
		t.Error("Run() should refuse a partially-migrated target without force")
	}
	if _, err := Run(Options{Root: root, Force: true}, nil); err != nil {
		t.Errorf("Run(force) error = %v", err)
	}
}

func TestMigrateNoLegacyIsNoOp(t *testing.T) {
	t.Parallel()
	summary, err := Run(Options{Root: t.TempDir()}, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(summary.Actions) != 0 {
		t.Errorf("actions = %d, want 0", len(summary.Actions))
	}
}
