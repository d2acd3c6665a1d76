package domain

import (
	"fmt"
	"time"
)

// CompanySize buckets a company as small, medium or large.
type CompanySize string

const (
	SizeSmall  CompanySize = "small"
	SizeMedium CompanySize = "medium"
	SizeLarge  CompanySize = "large"
)

func (s CompanySize) Valid() bool {
	switch s {
	case SizeSmall, SizeMedium, SizeLarge:
		return true
	}
	return false
}

// CompanyStatus is the lifecycle state of a company.
type CompanyStatus string

const (
	CompanyActive    CompanyStatus = "active"
	CompanyInactive  CompanyStatus = "inactive"
	CompanySuspended CompanyStatus = "suspended"
)

func (s CompanyStatus) Valid() bool {
	switch s {
	case CompanyActive, CompanyInactive, CompanySuspended:
		return true
	}
	return false
}

// Company is the root tenant. Projects and resources point back to it by code.
type Company struct {
	ID          string
	Code        string
	Name        string
	Description string
	TaxID       string
	Address     string
	Email       string
	Phone       string
	Industry    string
	Size        CompanySize
	Status      CompanyStatus
	Labels      map[string]string
	Annotations map[string]string
	Namespace   string
	// Unknown manifest keys, kept opaque so a load/save cycle loses nothing.
	MetaExtra map[string]any
	SpecExtra map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
	CreatedBy string
}

// Suspend moves an active company to suspended.
func (c Company) Suspend() (Company, error) {
	if c.Status != CompanyActive {
		return Company{}, &ValidationError{Entity: "company " + c.Code, Field: "status", Reason: fmt.Sprintf("cannot suspend a %s company", c.Status)}
	}
	c.Status = CompanySuspended
	c.UpdatedAt = time.Now().UTC()
	return c, nil
}

// Reactivate moves a suspended or inactive company back to active.
func (c Company) Reactivate() (Company, error) {
	if c.Status == CompanyActive {
		return Company{}, &ValidationError{Entity: "company " + c.Code, Field: "status", Reason: "already active"}
	}
	c.Status = CompanyActive
	c.UpdatedAt = time.Now().UTC()
	return c, nil
}

// Deactivate retires a company from any state. Idempotent on inactive.
func (c Company) Deactivate() Company {
	c.Status = CompanyInactive
	c.UpdatedAt = time.Now().UTC()
	return c
}

// CompanyBuilder accumulates fields and validates the full record at Build.
type CompanyBuilder struct {
	company Company
}

func NewCompanyBuilder() *CompanyBuilder {
	return &CompanyBuilder{company: Company{
		Size:   SizeSmall,
		Status: CompanyActive,
	}}
}

func (b *CompanyBuilder) Code(code string) *CompanyBuilder { b.company.Code = code; return b }
func (b *CompanyBuilder) Name(name string) *CompanyBuilder { b.company.Name = name; return b }
func (b *CompanyBuilder) Description(d string) *CompanyBuilder {
	b.company.Description = d
	return b
}
func (b *CompanyBuilder) TaxID(t string) *CompanyBuilder       { b.company.TaxID = t; return b }
func (b *CompanyBuilder) Address(a string) *CompanyBuilder     { b.company.Address = a; return b }
func (b *CompanyBuilder) Email(e string) *CompanyBuilder       { b.company.Email = e; return b }
func (b *CompanyBuilder) Phone(p string) *CompanyBuilder       { b.company.Phone = p; return b }
func (b *CompanyBuilder) Industry(i string) *CompanyBuilder    { b.company.Industry = i; return b }
func (b *CompanyBuilder) Size(s CompanySize) *CompanyBuilder   { b.company.Size = s; return b }
func (b *CompanyBuilder) Status(s CompanyStatus) *CompanyBuilder {
	b.company.Status = s
	return b
}
func (b *CompanyBuilder) CreatedBy(who string) *CompanyBuilder {
	b.company.CreatedBy = who
	return b
}

// Build validates the accumulated record and materialises the company.
func (b *CompanyBuilder) Build() (Company, error) {
	c := b.company
	if c.Code == "" {
		return Company{}, &ValidationError{Entity: "company", Field: "code", Reason: "must not be empty"}
	}
	if c.Name == "" {
		return Company{}, &ValidationError{Entity: "company", Field: "name", Reason: "must not be empty"}
	}
	if !c.Size.Valid() {
		return Company{}, &ValidationError{Entity: "company", Field: "size", Reason: fmt.Sprintf("unknown size %q", c.Size)}
	}
	if !c.Status.Valid() {
		return Company{}, &ValidationError{Entity: "company", Field: "status", Reason: fmt.Sprintf("unknown status %q", c.Status)}
	}
	if c.ID == "" {
		c.ID = NewID()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	return c, nil
}
