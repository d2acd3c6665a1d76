package manifest

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/tasktaskrevolution/ttr/internal/domain"
)

// CompanyManifest is the on-disk form of a company.
type CompanyManifest struct {
	APIVersion string      `yaml:"apiVersion"`
	Kind       string      `yaml:"kind"`
	Metadata   Metadata    `yaml:"metadata"`
	Spec       CompanySpec `yaml:"spec"`
}

type CompanySpec struct {
	TaxID    string `yaml:"taxId,omitempty"`
	Address  string `yaml:"address,omitempty"`
	Email    string `yaml:"email,omitempty"`
	Phone    string `yaml:"phone,omitempty"`
	Industry string `yaml:"industry,omitempty"`
	Size     string `yaml:"size"`
	Status   string `yaml:"status"`

	Extra map[string]any `yaml:",inline"`
}

// FromCompany renders a domain company as a manifest. Infallible.
func FromCompany(c domain.Company) CompanyManifest {
	return CompanyManifest{
		APIVersion: APIVersion,
		Kind:       KindCompany,
		Metadata: Metadata{
			ID:          c.ID,
			Code:        c.Code,
			Name:        c.Name,
			Description: c.Description,
			CreatedAt:   formatTime(c.CreatedAt),
			UpdatedAt:   formatTime(c.UpdatedAt),
			CreatedBy:   c.CreatedBy,
			Labels:      c.Labels,
			Annotations: c.Annotations,
			Namespace:   c.Namespace,
			Extra:       c.MetaExtra,
		},
		Spec: CompanySpec{
			TaxID:    c.TaxID,
			Address:  c.Address,
			Email:    c.Email,
			Phone:    c.Phone,
			Industry: c.Industry,
			Size:     string(c.Size),
			Status:   string(c.Status),
			Extra:    c.SpecExtra,
		},
	}
}

// ToCompany converts a manifest back into a domain company, naming the
// offending field on failure.
func (m CompanyManifest) ToCompany() (domain.Company, error) {
	if err := checkEnvelope(m.APIVersion, m.Kind, KindCompany); err != nil {
		return domain.Company{}, err
	}
	if err := m.Metadata.validate(KindCompany); err != nil {
		return domain.Company{}, err
	}

	size := domain.CompanySize(m.Spec.Size)
	if m.Spec.Size == "" {
		size = domain.SizeSmall
	} else if !size.Valid() {
		return domain.Company{}, &InvalidFieldError{Path: "spec.size", Reason: fmt.Sprintf("unknown size %q", m.Spec.Size)}
	}
	status := domain.CompanyStatus(m.Spec.Status)
	if m.Spec.Status == "" {
		status = domain.CompanyActive
	} else if !status.Valid() {
		return domain.Company{}, &InvalidFieldError{Path: "spec.status", Reason: fmt.Sprintf("unknown status %q", m.Spec.Status)}
	}

	createdAt, err := parseTimeOpt("metadata.createdAt", m.Metadata.CreatedAt)
	if err != nil {
		return domain.Company{}, err
	}
	updatedAt, err := parseTimeOpt("metadata.updatedAt", m.Metadata.UpdatedAt)
	if err != nil {
		return domain.Company{}, err
	}

	return domain.Company{
		ID:          m.Metadata.ID,
		Code:        m.Metadata.Code,
		Name:        m.Metadata.Name,
		Description: m.Metadata.Description,
		TaxID:       m.Spec.TaxID,
		Address:     m.Spec.Address,
		Email:       m.Spec.Email,
		Phone:       m.Spec.Phone,
		Industry:    m.Spec.Industry,
		Size:        size,
		Status:      status,
		Labels:      m.Metadata.Labels,
		Annotations: m.Metadata.Annotations,
		Namespace:   m.Metadata.Namespace,
		MetaExtra:   m.Metadata.Extra,
		SpecExtra:   m.Spec.Extra,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
		CreatedBy:   m.Metadata.CreatedBy,
	}, nil
}

// DecodeCompany parses a YAML document into a company manifest.
func DecodeCompany(data []byte) (CompanyManifest, error) {
	var m CompanyManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return CompanyManifest{}, &domain.SerializationError{Format: "YAML", Reason: err.Error()}
	}
	return m, nil
}

// Encode renders the manifest as YAML.
func (m CompanyManifest) Encode() ([]byte, error) {
	data, err := yaml.Marshal(m)
	if err != nil {
		return nil, &domain.SerializationError{Format: "YAML", Reason: err.Error()}
	}
	return data, nil
}
