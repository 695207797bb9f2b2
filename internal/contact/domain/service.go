package domain

import (
	"context"
	"errors"
	"time"

	"github.com/orbitcrm/orbitcrm/pkg/db/pagination"
)

type CreateContactRequest struct {
	Name    string
	Email   string
	Phone   string
	Company string
	Tags    []string
}

type UpdateContactRequest struct {
	ID      string
	Name    *string
	Email   *string
	Phone   *string
	Company *string
}

type ListContactRequest struct {
	PageToken   string
	PageSize    int
	Email       string
	Company     string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

type ListContactFilter struct {
	Email       string
	Company     string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

type ListContactResponse struct {
	pagination.PageInfo
	Contacts []Contact `json:"contacts"`
}

type Service interface {
	Create(ctx context.Context, req CreateContactRequest) (Contact, error)
	Update(ctx context.Context, req UpdateContactRequest) (Contact, error)
	GetByID(ctx context.Context, id string) (Contact, error)
	List(ctx context.Context, req ListContactRequest) (ListContactResponse, error)
	SoftDelete(ctx context.Context, id string) error

	// ListAll returns every live contact for the active org in creation
	// order; used by the export endpoint.
	ListAll(ctx context.Context) ([]Contact, error)

	// HardDelete removes the contact and every row referencing it across
	// portal, project, task, invoice and notification tables, returning a
	// deletion certificate.
	HardDelete(ctx context.Context, id string) (DeletionCertificate, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidEmail        = errors.New("invalid_email")
	ErrInvalidID           = errors.New("invalid_id")
	ErrNotFound            = errors.New("contact_not_found")
)
