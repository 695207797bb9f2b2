package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	contactdomain "github.com/orbitcrm/orbitcrm/internal/contact/domain"
	"github.com/orbitcrm/orbitcrm/internal/invoice/domain"
	orgdomain "github.com/orbitcrm/orbitcrm/internal/organization/domain"
	"github.com/orbitcrm/orbitcrm/internal/orgcontext"
	"github.com/orbitcrm/orbitcrm/internal/providers/email"
	"github.com/orbitcrm/orbitcrm/internal/providers/pdf"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     domain.Repository
	Contacts contactdomain.Service
	Orgs     orgdomain.Service
	Email    email.Provider
	PDF      pdf.Provider
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	repo     domain.Repository
	contacts contactdomain.Service
	orgs     orgdomain.Service
	email    email.Provider
	pdf      pdf.Provider
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("invoice.service"),
		genID:    p.GenID,
		repo:     p.Repo,
		contacts: p.Contacts,
		orgs:     p.Orgs,
		email:    p.Email,
		pdf:      p.PDF,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateInvoiceRequest) (domain.Invoice, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.Invoice{}, domain.ErrInvalidOrganization
	}

	contactID, err := snowflake.ParseString(strings.TrimSpace(req.ContactID))
	if err != nil {
		return domain.Invoice{}, domain.ErrInvalidContact
	}
	if _, err := s.contacts.GetByID(ctx, contactID.String()); err != nil {
		return domain.Invoice{}, domain.ErrInvalidContact
	}

	items, subtotal, err := normalizeItems(req.Items)
	if err != nil {
		return domain.Invoice{}, err
	}

	currency := strings.ToUpper(strings.TrimSpace(req.CurrencyCode))
	if currency == "" {
		currency = "USD"
	}

	number := strings.TrimSpace(req.Number)
	if number == "" {
		count, err := s.repo.CountForOrg(ctx, s.db, orgID)
		if err != nil {
			return domain.Invoice{}, err
		}
		number = fmt.Sprintf("INV-%05d", count+1)
	}

	raw, err := json.Marshal(items)
	if err != nil {
		return domain.Invoice{}, err
	}

	now := time.Now().UTC()
	invoice := domain.Invoice{
		ID:           s.genID.Generate(),
		OrgID:        orgID,
		ContactID:    contactID,
		Number:       number,
		Status:       domain.InvoiceStatusDraft,
		CurrencyCode: currency,
		Items:        datatypes.JSON(raw),
		Subtotal:     subtotal,
		Tax:          req.Tax,
		Total:        subtotal + req.Tax,
		DueAt:        req.DueAt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Insert(ctx, s.db, &invoice); err != nil {
		return domain.Invoice{}, err
	}

	return invoice, nil
}

// Update replaces the line items of a draft invoice. Non-draft invoices are
// immutable apart from status transitions.
func (s *Service) Update(ctx context.Context, req domain.UpdateInvoiceRequest) (domain.Invoice, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.Invoice{}, domain.ErrInvalidOrganization
	}

	id, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil {
		return domain.Invoice{}, domain.ErrInvalidID
	}

	invoice, err := s.repo.FindByID(ctx, s.db, orgID, id)
	if err != nil {
		return domain.Invoice{}, err
	}
	if invoice == nil {
		return domain.Invoice{}, domain.ErrNotFound
	}
	if invoice.Status != domain.InvoiceStatusDraft {
		return domain.Invoice{}, domain.ErrNotDraft
	}

	if req.Items != nil {
		items, subtotal, err := normalizeItems(req.Items)
		if err != nil {
			return domain.Invoice{}, err
		}
		raw, err := json.Marshal(items)
		if err != nil {
			return domain.Invoice{}, err
		}
		invoice.Items = datatypes.JSON(raw)
		invoice.Subtotal = subtotal
	}
	if req.Tax != nil {
		invoice.Tax = *req.Tax
	}
	if req.DueAt != nil {
		invoice.DueAt = req.DueAt
	}
	invoice.Total = invoice.Subtotal + invoice.Tax
	invoice.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, s.db, invoice); err != nil {
		return domain.Invoice{}, err
	}

	return *invoice, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Invoice, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.Invoice{}, domain.ErrInvalidOrganization
	}

	invoiceID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return domain.Invoice{}, domain.ErrInvalidID
	}

	invoice, err := s.repo.FindByID(ctx, s.db, orgID, invoiceID)
	if err != nil {
		return domain.Invoice{}, err
	}
	if invoice == nil {
		return domain.Invoice{}, domain.ErrNotFound
	}
	return *invoice, nil
}

func (s *Service) List(ctx context.Context, req domain.ListInvoiceRequest) ([]domain.Invoice, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOrganization
	}

	filter := domain.ListInvoiceFilter{}
	if req.ContactID != "" {
		contactID, err := snowflake.ParseString(req.ContactID)
		if err != nil {
			return nil, domain.ErrInvalidContact
		}
		filter.ContactID = contactID
	}
	if req.Status != "" {
		if !req.Status.Valid() {
			return nil, domain.ErrInvalidStatus
		}
		filter.Status = req.Status
	}

	return s.repo.List(ctx, s.db, orgID, filter)
}

func (s *Service) UpdateStatus(ctx context.Context, id string, status domain.InvoiceStatus) (domain.Invoice, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.Invoice{}, domain.ErrInvalidOrganization
	}

	invoiceID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return domain.Invoice{}, domain.ErrInvalidID
	}
	if !status.Valid() {
		return domain.Invoice{}, domain.ErrInvalidStatus
	}

	invoice, err := s.repo.FindByID(ctx, s.db, orgID, invoiceID)
	if err != nil {
		return domain.Invoice{}, err
	}
	if invoice == nil {
		return domain.Invoice{}, domain.ErrNotFound
	}
	if !invoice.Status.CanTransitionTo(status) {
		return domain.Invoice{}, domain.ErrInvalidTransition
	}

	now := time.Now().UTC()
	invoice.Status = status
	invoice.UpdatedAt = now
	if status == domain.InvoiceStatusSent && invoice.IssuedAt == nil {
		invoice.IssuedAt = &now
	}

	if err := s.repo.Update(ctx, s.db, invoice); err != nil {
		return domain.Invoice{}, err
	}

	if status == domain.InvoiceStatusSent {
		s.notifySent(ctx, invoice)
	}

	return *invoice, nil
}

// notifySent emails the contact about a freshly sent invoice. The transition
// has already been committed, so delivery failures are logged only.
func (s *Service) notifySent(ctx context.Context, invoice *domain.Invoice) {
	contact, err := s.contacts.GetByID(ctx, invoice.ContactID.String())
	if err != nil {
		s.log.Warn("invoice sent but contact lookup failed",
			zap.Error(err),
			zap.String("invoice_id", invoice.ID.String()),
		)
		return
	}

	org, err := s.orgs.GetByID(ctx, invoice.OrgID)
	if err != nil {
		s.log.Warn("invoice sent but organization lookup failed", zap.Error(err))
		return
	}

	data := map[string]interface{}{
		"org_name":       org.Name,
		"contact_name":   contact.Name,
		"invoice_number": invoice.Number,
		"amount_due":     formatAmount(invoice.CurrencyCode, invoice.Total),
		"due_date":       formatDate(invoice.DueAt),
	}
	if err := s.email.SendTemplate(ctx, []string{contact.Email}, "invoice_sent", data); err != nil {
		s.log.Warn("invoice email delivery failed",
			zap.Error(err),
			zap.String("invoice_id", invoice.ID.String()),
		)
	}
}

func (s *Service) Render(ctx context.Context, id string) (io.Reader, error) {
	invoice, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	contact, err := s.contacts.GetByID(ctx, invoice.ContactID.String())
	if err != nil {
		return nil, err
	}
	org, err := s.orgs.GetByID(ctx, invoice.OrgID)
	if err != nil {
		return nil, err
	}

	var items []domain.InvoiceItem
	if len(invoice.Items) > 0 {
		if err := json.Unmarshal(invoice.Items, &items); err != nil {
			return nil, err
		}
	}

	data := pdf.InvoiceData{
		OrgName:       org.Name,
		InvoiceNumber: invoice.Number,
		Status:        string(invoice.Status),
		IssueDate:     formatDate(invoice.IssuedAt),
		DueDate:       formatDate(invoice.DueAt),
		BillToName:    contact.Name,
		BillToCompany: contact.Company,
		BillToEmail:   contact.Email,
		Subtotal:      formatAmount(invoice.CurrencyCode, invoice.Subtotal),
		Total:         formatAmount(invoice.CurrencyCode, invoice.Total),
		AmountDue:     formatAmount(invoice.CurrencyCode, invoice.Total),
	}
	for _, item := range items {
		data.Items = append(data.Items, pdf.InvoiceItem{
			Description: item.Description,
			Qty:         int(item.Quantity),
			UnitPrice:   formatAmount(invoice.CurrencyCode, item.UnitAmount),
			Amount:      formatAmount(invoice.CurrencyCode, item.Amount),
		})
	}

	return s.pdf.GenerateInvoice(ctx, data)
}

func (s *Service) ListForContact(ctx context.Context, orgID, contactID string) ([]domain.Invoice, error) {
	org, err := snowflake.ParseString(orgID)
	if err != nil {
		return nil, domain.ErrInvalidOrganization
	}
	contact, err := snowflake.ParseString(contactID)
	if err != nil {
		return nil, domain.ErrInvalidContact
	}

	return s.repo.List(ctx, s.db, org, domain.ListInvoiceFilter{
		ContactID:     contact,
		ExcludeDrafts: true,
	})
}

func normalizeItems(items []domain.InvoiceItem) ([]domain.InvoiceItem, int64, error) {
	if len(items) == 0 {
		return nil, 0, domain.ErrInvalidItems
	}

	out := make([]domain.InvoiceItem, 0, len(items))
	var subtotal int64
	for _, item := range items {
		desc := strings.TrimSpace(item.Description)
		if desc == "" || item.Quantity <= 0 || item.UnitAmount < 0 {
			return nil, 0, domain.ErrInvalidItems
		}
		item.Description = desc
		item.Amount = item.Quantity * item.UnitAmount
		subtotal += item.Amount
		out = append(out, item)
	}
	return out, subtotal, nil
}

func formatAmount(currency string, minor int64) string {
	return fmt.Sprintf("%s %.2f", currency, float64(minor)/100)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("Jan 2, 2006")
}
