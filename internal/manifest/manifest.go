// Package manifest translates between on-disk YAML documents and domain
// entities. Every document carries an apiVersion/kind/metadata/spec envelope;
// unknown keys survive a round-trip untouched so external tooling can attach
// metadata without data loss.
package manifest

import (
	"fmt"
	"time"

	"github.com/tasktaskrevolution/ttr/internal/domain"
)

// APIVersion is the only schema version the codec accepts. Foreign versions
// are refused at load time; the migration utility rewrites old documents.
const APIVersion = "tasktaskrevolution.io/v1alpha1"

// Document kinds.
const (
	KindCompany  = "Company"
	KindProject  = "Project"
	KindResource = "Resource"
	KindTask     = "Task"
)

// UnsupportedVersionError reports a document with a foreign apiVersion.
type UnsupportedVersionError struct {
	Found    string
	Expected string
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("unsupported apiVersion %q, expected %q", e.Found, e.Expected)
}

// MissingFieldError reports an absent required field.
type MissingFieldError struct {
	Path string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field %s", e.Path)
}

// InvalidFieldError reports a field whose value could not be interpreted.
type InvalidFieldError struct {
	Path   string
	Reason string
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("invalid field %s: %s", e.Path, e.Reason)
}

// Metadata is the common envelope section shared by every kind.
type Metadata struct {
	ID          string            `yaml:"id,omitempty"`
	Code        string            `yaml:"code,omitempty"`
	Name        string            `yaml:"name"`
	Description string            `yaml:"description,omitempty"`
	CreatedAt   string            `yaml:"createdAt,omitempty"`
	UpdatedAt   string            `yaml:"updatedAt,omitempty"`
	CreatedBy   string            `yaml:"createdBy,omitempty"`
	Labels      map[string]string `yaml:"labels,omitempty"`
	Annotations map[string]string `yaml:"annotations,omitempty"`
	Namespace   string            `yaml:"namespace,omitempty"`

	Extra map[string]any `yaml:",inline"`
}

func (m Metadata) validate(kind string) error {
	if m.ID == "" {
		return &MissingFieldError{Path: "metadata.id"}
	}
	if m.Code == "" {
		return &MissingFieldError{Path: "metadata.code"}
	}
	if m.Name == "" {
		return &MissingFieldError{Path: "metadata.name"}
	}
	return nil
}

func checkEnvelope(apiVersion, kind, wantKind string) error {
	if apiVersion != APIVersion {
		return &UnsupportedVersionError{Found: apiVersion, Expected: APIVersion}
	}
	if kind != wantKind {
		return &InvalidFieldError{Path: "kind", Reason: fmt.Sprintf("expected %s, got %q", wantKind, kind)}
	}
	return nil
}

// parseDate interprets a required YYYY-MM-DD field.
func parseDate(path, value string) (domain.Date, error) {
	if value == "" {
		return domain.Date{}, &MissingFieldError{Path: path}
	}
	d, err := domain.ParseDate(value)
	if err != nil {
		return domain.Date{}, &InvalidFieldError{Path: path, Reason: err.Error()}
	}
	return d, nil
}

// parseDateOpt interprets an optional YYYY-MM-DD field.
func parseDateOpt(path, value string) (*domain.Date, error) {
	if value == "" {
		return nil, nil
	}
	d, err := domain.ParseDate(value)
	if err != nil {
		return nil, &InvalidFieldError{Path: path, Reason: err.Error()}
	}
	return &d, nil
}

// parseTimeOpt interprets an optional RFC-3339 UTC timestamp.
func parseTimeOpt(path, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, &InvalidFieldError{Path: path, Reason: "expected RFC-3339 UTC timestamp"}
	}
	return t.UTC(), nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatDateOpt(d *domain.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}
