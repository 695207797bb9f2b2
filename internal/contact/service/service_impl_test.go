package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/orbitcrm/orbitcrm/internal/contact/domain"
	"github.com/orbitcrm/orbitcrm/internal/contact/repository"
	invoicedomain "github.com/orbitcrm/orbitcrm/internal/invoice/domain"
	notificationdomain "github.com/orbitcrm/orbitcrm/internal/notification/domain"
	"github.com/orbitcrm/orbitcrm/internal/orgcontext"
	portaldomain "github.com/orbitcrm/orbitcrm/internal/portal/domain"
	projectdomain "github.com/orbitcrm/orbitcrm/internal/project/domain"
	taskdomain "github.com/orbitcrm/orbitcrm/internal/task/domain"
)

var testOrgID = snowflake.ID(7001)

type fixture struct {
	svc   domain.Service
	db    *gorm.DB
	genID *snowflake.Node
	ctx   context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.Contact{},
		&portaldomain.PortalAccess{},
		&portaldomain.PortalToken{},
		&projectdomain.Project{},
		&taskdomain.Task{},
		&invoicedomain.Invoice{},
		&notificationdomain.Notification{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
	})

	return &fixture{
		svc:   svc,
		db:    db,
		genID: node,
		ctx:   orgcontext.WithOrgID(context.Background(), testOrgID),
	}
}

func (f *fixture) createContact(t *testing.T, name, email string) domain.Contact {
	t.Helper()
	contact, err := f.svc.Create(f.ctx, domain.CreateContactRequest{Name: name, Email: email})
	require.NoError(t, err)
	return contact
}

func TestCreateAndGet(t *testing.T) {
	f := newFixture(t)

	created := f.createContact(t, "Ada Lovelace", "ada@example.com")

	found, err := f.svc.GetByID(f.ctx, created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", found.Name)
	assert.Equal(t, testOrgID, found.OrgID)
}

func TestCreateRequiresOrgContext(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), domain.CreateContactRequest{Name: "Ada", Email: "ada@example.com"})
	assert.ErrorIs(t, err, domain.ErrInvalidOrganization)
}

func TestCreateRejectsBadEmail(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(f.ctx, domain.CreateContactRequest{Name: "Ada", Email: "not-an-email"})
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)
}

func TestGetByIDScopedToOrg(t *testing.T) {
	f := newFixture(t)
	created := f.createContact(t, "Ada Lovelace", "ada@example.com")

	otherOrg := orgcontext.WithOrgID(context.Background(), snowflake.ID(9999))
	_, err := f.svc.GetByID(otherOrg, created.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSoftDeleteHidesContact(t *testing.T) {
	f := newFixture(t)
	created := f.createContact(t, "Ada Lovelace", "ada@example.com")

	require.NoError(t, f.svc.SoftDelete(f.ctx, created.ID.String()))

	_, err := f.svc.GetByID(f.ctx, created.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	all, err := f.svc.ListAll(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	// The row survives for audit purposes.
	var count int64
	require.NoError(t, f.db.Table("contacts").Where("id = ?", created.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestListFiltersByCompany(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(f.ctx, domain.CreateContactRequest{Name: "Ada", Email: "ada@example.com", Company: "Analytical"})
	require.NoError(t, err)
	f.createContact(t, "Grace", "grace@example.com")

	resp, err := f.svc.List(f.ctx, domain.ListContactRequest{Company: "Analytical"})
	require.NoError(t, err)
	require.Len(t, resp.Contacts, 1)
	assert.Equal(t, "Ada", resp.Contacts[0].Name)
}

func TestHardDeleteCascades(t *testing.T) {
	f := newFixture(t)
	contact := f.createContact(t, "Ada Lovelace", "ada@example.com")

	require.NoError(t, f.db.Create(&portaldomain.PortalAccess{
		ContactID: contact.ID, OrgID: testOrgID, Enabled: true,
	}).Error)
	require.NoError(t, f.db.Create(&projectdomain.Project{
		ID: f.genID.Generate(), OrgID: testOrgID, ContactID: contact.ID, Name: "Redesign",
	}).Error)
	require.NoError(t, f.db.Create(&taskdomain.Task{
		ID: f.genID.Generate(), OrgID: testOrgID, ContactID: contact.ID, Title: "Kickoff",
	}).Error)
	require.NoError(t, f.db.Create(&invoicedomain.Invoice{
		ID: f.genID.Generate(), OrgID: testOrgID, ContactID: contact.ID, Number: "INV-00001", CurrencyCode: "USD",
	}).Error)
	require.NoError(t, f.db.Create(&notificationdomain.Notification{
		ID: f.genID.Generate(), OrgID: testOrgID, ContactID: contact.ID, Title: "Portal invite sent",
	}).Error)

	cert, err := f.svc.HardDelete(f.ctx, contact.ID.String())
	require.NoError(t, err)
	assert.NotEmpty(t, cert.CertificateID)
	assert.Equal(t, contact.ID.String(), cert.ContactID)

	rows := make(map[string]int64, len(cert.Categories))
	for _, category := range cert.Categories {
		rows[category.Category] = category.Rows
	}
	assert.Equal(t, int64(1), rows["contact"])
	assert.Equal(t, int64(1), rows["portal_access"])
	assert.Equal(t, int64(1), rows["projects"])
	assert.Equal(t, int64(1), rows["tasks"])
	assert.Equal(t, int64(1), rows["invoices"])
	assert.Equal(t, int64(1), rows["notifications"])

	for _, table := range []string{"contacts", "portal_access", "projects", "tasks", "invoices", "notifications"} {
		var count int64
		require.NoError(t, f.db.Table(table).Where("org_id = ?", testOrgID).Count(&count).Error)
		assert.Zero(t, count, table)
	}
}

func TestHardDeleteUnknownContact(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.HardDelete(f.ctx, snowflake.ID(424242).String())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
