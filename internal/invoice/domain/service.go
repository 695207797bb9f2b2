package domain

import (
	"context"
	"errors"
	"io"
	"time"
)

type CreateInvoiceRequest struct {
	ContactID    string
	Number       string
	CurrencyCode string
	Items        []InvoiceItem
	Tax          int64
	DueAt        *time.Time
}

type UpdateInvoiceRequest struct {
	ID    string
	Items []InvoiceItem
	Tax   *int64
	DueAt *time.Time
}

type ListInvoiceRequest struct {
	ContactID string
	Status    InvoiceStatus
}

type Service interface {
	Create(ctx context.Context, req CreateInvoiceRequest) (Invoice, error)
	Update(ctx context.Context, req UpdateInvoiceRequest) (Invoice, error)
	GetByID(ctx context.Context, id string) (Invoice, error)
	List(ctx context.Context, req ListInvoiceRequest) ([]Invoice, error)

	// UpdateStatus applies one lifecycle transition. Moving to "sent"
	// stamps IssuedAt and emails the contact.
	UpdateStatus(ctx context.Context, id string, status InvoiceStatus) (Invoice, error)

	// Render produces the invoice PDF.
	Render(ctx context.Context, id string) (io.Reader, error)

	// ListForContact returns a contact's non-draft invoices; the portal
	// views use it.
	ListForContact(ctx context.Context, orgID, contactID string) ([]Invoice, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidContact      = errors.New("invalid_contact")
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidItems        = errors.New("invalid_items")
	ErrInvalidStatus       = errors.New("invalid_status")
	ErrInvalidTransition   = errors.New("invalid_status_transition")
	ErrNotDraft            = errors.New("invoice_not_draft")
	ErrNotFound            = errors.New("invoice_not_found")
)
