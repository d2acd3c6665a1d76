// Package migrate converts a legacy code-indexed store tree into the current
// id-indexed layout and rewrites old manifest versions to the current schema.
//
// Legacy layout:
//
//	<root>/companies/<code>/company.yaml
//	<root>/companies/<code>/projects/<code>/project.yaml
//	<root>/companies/<code>/resources/<name>.yaml
//
// Current layout:
//
//	<root>/companies/<id>.yaml
//	<root>/projects/<id>.yaml
//	<root>/resources/<id>.yaml
package migrate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/tasktaskrevolution/ttr/internal/domain"
	"github.com/tasktaskrevolution/ttr/internal/manifest"
)

// BackupDirName is where the pre-migration tree is copied. Replacing the live
// tree with this directory is a safe, idempotent rollback.
const BackupDirName = "backup_before_migration"

// fieldRenames maps legacy manifest keys to their current names, per
// document section.
var fieldRenames = map[string]map[string]string{
	"metadata": {
		"created": "createdAt",
		"updated": "updatedAt",
		"author":  "createdBy",
	},
	"spec": {
		"timeZone": "timezone",
	},
}

// Options configures one migration run.
type Options struct {
	Root   string
	DryRun bool // no writes; produce a plan only
	Force  bool // overwrite an existing partially-migrated target
	Backup bool // copy the pre-migration tree aside first
}

// Action is one planned rewrite.
type Action struct {
	Kind   string // Company, Project, Resource
	Source string
	Target string
}

// Summary reports what a run did (or, under dry-run, would do).
type Summary struct {
	Actions     []Action
	Companies   int
	Projects    int
	Resources   int
	BackupBytes uint64
	DryRun      bool
}

// Describe renders a human-facing one-line summary.
func (s *Summary) Describe() string {
	verb := "migrated"
	if s.DryRun {
		verb = "would migrate"
	}
	line := fmt.Sprintf("%s %s companies, %s projects, %s resources",
		verb,
		humanize.Comma(int64(s.Companies)),
		humanize.Comma(int64(s.Projects)),
		humanize.Comma(int64(s.Resources)))
	if s.BackupBytes > 0 {
		line += fmt.Sprintf(" (backed up %s)", humanize.Bytes(s.BackupBytes))
	}
	return line
}

// Run migrates the tree at opts.Root. With DryRun it only plans. All logical
// relations (company/project/resource links by code) are preserved.
func Run(opts Options, log *zap.Logger) (*Summary, error) {
	if log == nil {
		log = zap.NewNop()
	}
	summary := &Summary{DryRun: opts.DryRun}

	legacy, err := discoverLegacy(opts.Root)
	if err != nil {
		return nil, err
	}
	if len(legacy) == 0 {
		log.Info("no legacy documents found, nothing to migrate", zap.String("root", opts.Root))
		return summary, nil
	}

	if !opts.Force {
		if migrated, err := hasIDIndexedData(opts.Root); err != nil {
			return nil, err
		} else if migrated {
			return nil, &domain.ValidationError{
				Entity: "store",
				Reason: "target already holds id-indexed documents; re-run with force to overwrite",
			}
		}
	}

	if opts.Backup && !opts.DryRun {
		n, err := createBackup(opts.Root)
		if err != nil {
			return nil, err
		}
		summary.BackupBytes = n
		log.Info("backup created",
			zap.String("dir", filepath.Join(opts.Root, BackupDirName)),
			zap.String("size", humanize.Bytes(n)))
	}

	for _, doc := range legacy {
		action, err := migrateDocument(opts, doc)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", doc.path, err)
		}
		summary.Actions = append(summary.Actions, action)
		switch action.Kind {
		case manifest.KindCompany:
			summary.Companies++
		case manifest.KindProject:
			summary.Projects++
		case manifest.KindResource:
			summary.Resources++
		}
	}

	if !opts.DryRun {
		if err := removeLegacyTree(opts.Root, legacy); err != nil {
			return nil, err
		}
	}
	log.Info("migration complete", zap.String("summary", summary.Describe()))
	return summary, nil
}

// Rollback restores the live tree from the backup directory. Idempotent:
// re-running it converges on the backup state.
func Rollback(root string) error {
	backup := filepath.Join(root, BackupDirName)
	if _, err := os.Stat(backup); err != nil {
		return &domain.IOError{Op: "stat", Path: backup, Err: err}
	}
	for _, dir := range []string{"companies", "projects", "resources"} {
		live := filepath.Join(root, dir)
		saved := filepath.Join(backup, dir)
		if err := os.RemoveAll(live); err != nil {
			return &domain.IOError{Op: "remove", Path: live, Err: err}
		}
		if _, err := os.Stat(saved); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := copyTree(saved, live); err != nil {
			return err
		}
	}
	return nil
}

// legacyDoc is one discovered legacy document plus the link context its
// directory position implies.
type legacyDoc struct {
	path        string
	kind        string
	companyCode string
	code        string // directory-derived code for projects/companies
}

func discoverLegacy(root string) ([]legacyDoc, error) {
	var docs []legacyDoc
	companiesRoot := filepath.Join(root, "companies")
	entries, err := os.ReadDir(companiesRoot)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, &domain.IOError{Op: "readdir", Path: companiesRoot, Err: err}
	}

	for _, e := range entries {
		if !e.IsDir() {
			continue // id-indexed files live directly under companies/
		}
		code := e.Name()
		companyDir := filepath.Join(companiesRoot, code)
		if _, err := os.Stat(filepath.Join(companyDir, "company.yaml")); err == nil {
			docs = append(docs, legacyDoc{
				path: filepath.Join(companyDir, "company.yaml"),
				kind: manifest.KindCompany,
				code: code,
			})
		}

		projectsDir := filepath.Join(companyDir, "projects")
		if projEntries, err := os.ReadDir(projectsDir); err == nil {
			for _, pe := range projEntries {
				if !pe.IsDir() {
					continue
				}
				path := filepath.Join(projectsDir, pe.Name(), "project.yaml")
				if _, err := os.Stat(path); err == nil {
					docs = append(docs, legacyDoc{
						path:        path,
						kind:        manifest.KindProject,
						companyCode: code,
						code:        pe.Name(),
					})
				}
			}
		}

		resourcesDir := filepath.Join(companyDir, "resources")
		if resEntries, err := os.ReadDir(resourcesDir); err == nil {
			for _, re := range resEntries {
				if re.IsDir() || !strings.HasSuffix(re.Name(), ".yaml") {
					continue
				}
				docs = append(docs, legacyDoc{
					path:        filepath.Join(resourcesDir, re.Name()),
					kind:        manifest.KindResource,
					companyCode: code,
				})
			}
		}
	}
	return docs, nil
}

func hasIDIndexedData(root string) (bool, error) {
	for _, dir := range []string{"companies", "projects", "resources"} {
		entries, err := os.ReadDir(filepath.Join(root, dir))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return false, &domain.IOError{Op: "readdir", Path: filepath.Join(root, dir), Err: err}
		}
		for _, e := range entries {
			if !e.IsDir() && strings.HasSuffix(e.Name(), ".yaml") {
				return true, nil
			}
		}
	}
	return false, nil
}

// migrateDocument upgrades one legacy document and writes it into the
// id-indexed tree (unless dry-run).
func migrateDocument(opts Options, doc legacyDoc) (Action, error) {
	data, err := os.ReadFile(doc.path)
	if err != nil {
		return Action{}, &domain.IOError{Op: "read", Path: doc.path, Err: err}
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Action{}, &domain.SerializationError{Format: "YAML", Reason: err.Error()}
	}
	if raw == nil {
		raw = map[string]any{}
	}

	upgradeEnvelope(raw, doc)

	upgraded, err := yaml.Marshal(raw)
	if err != nil {
		return Action{}, &domain.SerializationError{Format: "YAML", Reason: err.Error()}
	}

	// Validate through the strict codec before anything lands on disk.
	var id string
	var targetDir string
	switch doc.kind {
	case manifest.KindCompany:
		m, err := manifest.DecodeCompany(upgraded)
		if err != nil {
			return Action{}, err
		}
		if _, err := m.ToCompany(); err != nil {
			return Action{}, err
		}
		id = m.Metadata.ID
		targetDir = "companies"
	case manifest.KindProject:
		m, err := manifest.DecodeProject(upgraded)
		if err != nil {
			return Action{}, err
		}
		if _, err := m.ToProject(); err != nil {
			return Action{}, err
		}
		id = m.Metadata.ID
		targetDir = "projects"
	case manifest.KindResource:
		m, err := manifest.DecodeResource(upgraded)
		if err != nil {
			return Action{}, err
		}
		if _, err := m.ToResource(); err != nil {
			return Action{}, err
		}
		id = m.Metadata.ID
		targetDir = "resources"
	default:
		return Action{}, &domain.ValidationError{Entity: "manifest", Field: "kind", Reason: fmt.Sprintf("unknown kind %q", doc.kind)}
	}

	target := filepath.Join(opts.Root, targetDir, id+".yaml")
	action := Action{Kind: doc.kind, Source: doc.path, Target: target}
	if opts.DryRun {
		return action, nil
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return Action{}, &domain.IOError{Op: "mkdir", Path: filepath.Dir(target), Err: err}
	}
	if err := os.WriteFile(target, upgraded, 0o644); err != nil {
		return Action{}, &domain.IOError{Op: "write", Path: target, Err: err}
	}
	return action, nil
}

// knownMetadataKeys are the envelope fields the current schema understands;
// anything else in a legacy metadata section becomes an annotation.
var knownMetadataKeys = map[string]bool{
	"id": true, "code": true, "name": true, "description": true,
	"createdAt": true, "updatedAt": true, "createdBy": true,
	"labels": true, "annotations": true, "namespace": true,
}

// upgradeEnvelope rewrites the apiVersion, applies the field-rename table,
// fills directory-derived links, assigns missing ids and preserves unknown
// metadata keys as annotations.
func upgradeEnvelope(raw map[string]any, doc legacyDoc) {
	raw["apiVersion"] = manifest.APIVersion
	if _, ok := raw["kind"]; !ok {
		raw["kind"] = doc.kind
	}

	meta, _ := raw["metadata"].(map[string]any)
	if meta == nil {
		meta = map[string]any{}
	}
	spec, _ := raw["spec"].(map[string]any)
	if spec == nil {
		spec = map[string]any{}
	}

	for old, renamed := range fieldRenames["metadata"] {
		if v, ok := meta[old]; ok {
			if _, taken := meta[renamed]; !taken {
				meta[renamed] = v
			}
			delete(meta, old)
		}
	}
	for old, renamed := range fieldRenames["spec"] {
		if v, ok := spec[old]; ok {
			if _, taken := spec[renamed]; !taken {
				spec[renamed] = v
			}
			delete(spec, old)
		}
	}

	annotations, _ := meta["annotations"].(map[string]any)
	if annotations == nil {
		annotations = map[string]any{}
	}
	for key, v := range meta {
		if knownMetadataKeys[key] {
			continue
		}
		annotations["legacy.tasktaskrevolution.io/"+key] = fmt.Sprintf("%v", v)
		delete(meta, key)
	}
	if len(annotations) > 0 {
		meta["annotations"] = annotations
	}

	if _, ok := meta["id"]; !ok {
		meta["id"] = domain.NewID()
	}
	if _, ok := meta["code"]; !ok {
		if doc.code != "" {
			meta["code"] = doc.code
		} else if name, ok := meta["name"].(string); ok {
			meta["code"] = strings.ToLower(strings.ReplaceAll(name, " ", "-"))
		}
	}

	switch doc.kind {
	case manifest.KindProject, manifest.KindResource:
		if _, ok := spec["companyCode"]; !ok && doc.companyCode != "" {
			spec["companyCode"] = doc.companyCode
		}
	}

	raw["metadata"] = meta
	raw["spec"] = spec
}

// createBackup copies companies/, projects/ and resources/ under the backup
// directory, replacing any previous backup. Returns the copied byte count.
func createBackup(root string) (uint64, error) {
	backup := filepath.Join(root, BackupDirName)
	if err := os.RemoveAll(backup); err != nil {
		return 0, &domain.IOError{Op: "remove", Path: backup, Err: err}
	}
	var total uint64
	for _, dir := range []string{"companies", "projects", "resources"} {
		src := filepath.Join(root, dir)
		if _, err := os.Stat(src); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		n, err := copyTreeCount(src, filepath.Join(backup, dir))
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

func copyTree(src, dst string) error {
	_, err := copyTreeCount(src, dst)
	return err
}

func copyTreeCount(src, dst string) (uint64, error) {
	var total uint64
	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		total += uint64(len(data))
		return os.WriteFile(target, data, 0o644)
	})
	if err != nil {
		return 0, &domain.IOError{Op: "copy", Path: src, Err: err}
	}
	return total, nil
}

// removeLegacyTree deletes the migrated legacy directories, leaving the
// id-indexed files in place.
func removeLegacyTree(root string, docs []legacyDoc) error {
	companiesRoot := filepath.Join(root, "companies")
	seen := map[string]bool{}
	for _, doc := range docs {
		dir := doc.companyCode
		if doc.kind == manifest.KindCompany {
			dir = doc.code
		}
		if dir == "" || seen[dir] {
			continue
		}
		seen[dir] = true
		full := filepath.Join(companiesRoot, dir)
		if err := os.RemoveAll(full); err != nil {
			return &domain.IOError{Op: "remove", Path: full, Err: err}
		}
	}
	return nil
}
