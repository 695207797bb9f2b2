package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	contactdomain "github.com/orbitcrm/orbitcrm/internal/contact/domain"
	"github.com/orbitcrm/orbitcrm/internal/invoice/domain"
	"github.com/orbitcrm/orbitcrm/internal/invoice/repository"
	orgdomain "github.com/orbitcrm/orbitcrm/internal/organization/domain"
	"github.com/orbitcrm/orbitcrm/internal/orgcontext"
	"github.com/orbitcrm/orbitcrm/internal/providers/pdf"
)

type fakeContacts struct {
	contact contactdomain.Contact
	err     error
}

func (f *fakeContacts) Create(ctx context.Context, req contactdomain.CreateContactRequest) (contactdomain.Contact, error) {
	return contactdomain.Contact{}, errors.New("not implemented")
}
func (f *fakeContacts) Update(ctx context.Context, req contactdomain.UpdateContactRequest) (contactdomain.Contact, error) {
	return contactdomain.Contact{}, errors.New("not implemented")
}
func (f *fakeContacts) GetByID(ctx context.Context, id string) (contactdomain.Contact, error) {
	if f.err != nil {
		return contactdomain.Contact{}, f.err
	}
	return f.contact, nil
}
func (f *fakeContacts) List(ctx context.Context, req contactdomain.ListContactRequest) (contactdomain.ListContactResponse, error) {
	return contactdomain.ListContactResponse{}, errors.New("not implemented")
}
func (f *fakeContacts) SoftDelete(ctx context.Context, id string) error {
	return errors.New("not implemented")
}
func (f *fakeContacts) ListAll(ctx context.Context) ([]contactdomain.Contact, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeContacts) HardDelete(ctx context.Context, id string) (contactdomain.DeletionCertificate, error) {
	return contactdomain.DeletionCertificate{}, errors.New("not implemented")
}

type fakeOrgs struct {
	org orgdomain.Organization
}

func (f *fakeOrgs) Create(ctx context.Context, req orgdomain.CreateOrganizationRequest) (orgdomain.Organization, error) {
	return orgdomain.Organization{}, errors.New("not implemented")
}
func (f *fakeOrgs) GetByID(ctx context.Context, id snowflake.ID) (orgdomain.Organization, error) {
	return f.org, nil
}
func (f *fakeOrgs) GetMember(ctx context.Context, orgID, userID snowflake.ID) (orgdomain.Member, error) {
	return orgdomain.Member{}, errors.New("not implemented")
}
func (f *fakeOrgs) GetBalance(ctx context.Context, orgID snowflake.ID) (orgdomain.TokenBalance, error) {
	return orgdomain.TokenBalance{}, errors.New("not implemented")
}
func (f *fakeOrgs) CheckAndDeduct(ctx context.Context, orgID snowflake.ID, amount int64) (orgdomain.DeductResult, error) {
	return orgdomain.DeductResult{}, errors.New("not implemented")
}

type sentEmail struct {
	To       []string
	Template string
	Data     map[string]interface{}
}

type fakeEmail struct {
	sent []sentEmail
	err  error
}

func (f *fakeEmail) Send(ctx context.Context, to []string, subject string, htmlBody string) error {
	return nil
}
func (f *fakeEmail) SendTemplate(ctx context.Context, to []string, templateName string, data map[string]interface{}) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentEmail{To: to, Template: templateName, Data: data})
	return nil
}

type fakePDF struct {
	last *pdf.InvoiceData
}

func (f *fakePDF) GenerateInvoice(ctx context.Context, data pdf.InvoiceData) (io.Reader, error) {
	f.last = &data
	return strings.NewReader("%PDF-1.4"), nil
}

type fixture struct {
	svc      domain.Service
	ctx      context.Context
	orgID    snowflake.ID
	contacts *fakeContacts
	email    *fakeEmail
	pdf      *fakePDF
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Invoice{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	orgID := node.Generate()
	contactID := node.Generate()

	contacts := &fakeContacts{contact: contactdomain.Contact{
		ID:      contactID,
		OrgID:   orgID,
		Name:    "Ada Lovelace",
		Email:   "ada@example.com",
		Company: "Analytical Engines Ltd",
	}}
	emailProv := &fakeEmail{}
	pdfProv := &fakePDF{}

	svc := New(Params{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		Repo:     repository.Provide(),
		Contacts: contacts,
		Orgs:     &fakeOrgs{org: orgdomain.Organization{ID: orgID, Name: "Orbit Studio"}},
		Email:    emailProv,
		PDF:      pdfProv,
	})

	ctx := orgcontext.WithOrgID(context.Background(), orgID)
	return &fixture{svc: svc, ctx: ctx, orgID: orgID, contacts: contacts, email: emailProv, pdf: pdfProv}
}

func (f *fixture) create(t *testing.T) domain.Invoice {
	t.Helper()
	invoice, err := f.svc.Create(f.ctx, domain.CreateInvoiceRequest{
		ContactID:    f.contacts.contact.ID.String(),
		CurrencyCode: "usd",
		Items: []domain.InvoiceItem{
			{Description: "Design sprint", Quantity: 2, UnitAmount: 50000},
			{Description: "Hosting", Quantity: 1, UnitAmount: 2500},
		},
		Tax: 10250,
	})
	require.NoError(t, err)
	return invoice
}

func TestCreateInvoiceComputesTotals(t *testing.T) {
	f := newFixture(t)

	invoice := f.create(t)
	assert.Equal(t, domain.InvoiceStatusDraft, invoice.Status)
	assert.Equal(t, "USD", invoice.CurrencyCode)
	assert.Equal(t, "INV-00001", invoice.Number)
	assert.Equal(t, int64(102500), invoice.Subtotal)
	assert.Equal(t, int64(112750), invoice.Total)

	second := f.create(t)
	assert.Equal(t, "INV-00002", second.Number)
}

func TestCreateInvoiceRejectsEmptyItems(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(f.ctx, domain.CreateInvoiceRequest{
		ContactID: f.contacts.contact.ID.String(),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidItems)
}

func TestSendInvoiceEmailsContact(t *testing.T) {
	f := newFixture(t)
	invoice := f.create(t)

	sent, err := f.svc.UpdateStatus(f.ctx, invoice.ID.String(), domain.InvoiceStatusSent)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusSent, sent.Status)
	assert.NotNil(t, sent.IssuedAt)

	require.Len(t, f.email.sent, 1)
	assert.Equal(t, []string{"ada@example.com"}, f.email.sent[0].To)
	assert.Equal(t, "invoice_sent", f.email.sent[0].Template)
	assert.Equal(t, "USD 1127.50", f.email.sent[0].Data["amount_due"])
}

func TestSendSurvivesEmailFailure(t *testing.T) {
	f := newFixture(t)
	invoice := f.create(t)
	f.email.err = errors.New("smtp refused")

	sent, err := f.svc.UpdateStatus(f.ctx, invoice.ID.String(), domain.InvoiceStatusSent)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusSent, sent.Status)
}

func TestStatusTransitions(t *testing.T) {
	f := newFixture(t)

	// draft -> paid skips sent and is rejected
	invoice := f.create(t)
	_, err := f.svc.UpdateStatus(f.ctx, invoice.ID.String(), domain.InvoiceStatusPaid)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	// draft -> sent -> paid is the happy path
	_, err = f.svc.UpdateStatus(f.ctx, invoice.ID.String(), domain.InvoiceStatusSent)
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(f.ctx, invoice.ID.String(), domain.InvoiceStatusPaid)
	require.NoError(t, err)

	// paid is terminal
	_, err = f.svc.UpdateStatus(f.ctx, invoice.ID.String(), domain.InvoiceStatusVoid)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestUpdateRejectsNonDraft(t *testing.T) {
	f := newFixture(t)
	invoice := f.create(t)

	_, err := f.svc.UpdateStatus(f.ctx, invoice.ID.String(), domain.InvoiceStatusSent)
	require.NoError(t, err)

	_, err = f.svc.Update(f.ctx, domain.UpdateInvoiceRequest{
		ID:    invoice.ID.String(),
		Items: []domain.InvoiceItem{{Description: "x", Quantity: 1, UnitAmount: 100}},
	})
	assert.ErrorIs(t, err, domain.ErrNotDraft)
}

func TestRenderBuildsPDFData(t *testing.T) {
	f := newFixture(t)
	invoice := f.create(t)

	r, err := f.svc.Render(f.ctx, invoice.ID.String())
	require.NoError(t, err)
	require.NotNil(t, r)

	require.NotNil(t, f.pdf.last)
	assert.Equal(t, "Orbit Studio", f.pdf.last.OrgName)
	assert.Equal(t, "Ada Lovelace", f.pdf.last.BillToName)
	require.Len(t, f.pdf.last.Items, 2)
	assert.Equal(t, "USD 500.00", f.pdf.last.Items[0].UnitPrice)
}

func TestListForContactExcludesDrafts(t *testing.T) {
	f := newFixture(t)
	draft := f.create(t)
	other := f.create(t)

	_, err := f.svc.UpdateStatus(f.ctx, other.ID.String(), domain.InvoiceStatusSent)
	require.NoError(t, err)

	invoices, err := f.svc.ListForContact(context.Background(), f.orgID.String(), f.contacts.contact.ID.String())
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.Equal(t, other.ID, invoices[0].ID)
	assert.NotEqual(t, draft.ID, invoices[0].ID)
}
