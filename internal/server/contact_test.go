package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authsession "github.com/orbitcrm/orbitcrm/internal/auth/session"
	contactdomain "github.com/orbitcrm/orbitcrm/internal/contact/domain"
	organizationdomain "github.com/orbitcrm/orbitcrm/internal/organization/domain"
)

func seedExportContacts(ts *testServer) {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	ts.contact.contacts = []contactdomain.Contact{
		{ID: snowflake.ID(1), OrgID: testOrgID, Name: "Ada Lovelace", Email: "ada@example.com", Company: "Analytical", CreatedAt: created},
		{ID: snowflake.ID(2), OrgID: testOrgID, Name: "Grace Hopper", Email: "grace@example.com", CreatedAt: created},
	}
}

func TestExportContactsCSV(t *testing.T) {
	ts := newTestServer(t)
	seedExportContacts(ts)

	rec := ts.request(t, http.MethodGet, "/api/contacts/export?format=csv&fields=name,email", nil, true)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "contacts.csv")

	body := rec.Body.String()
	assert.Contains(t, body, "name,email")
	assert.Contains(t, body, "Ada Lovelace,ada@example.com")
	assert.Contains(t, body, "Grace Hopper,grace@example.com")
	assert.NotContains(t, body, "Analytical")
}

func TestExportContactsDefaultsToCSVAllFields(t *testing.T) {
	ts := newTestServer(t)
	seedExportContacts(ts)

	rec := ts.request(t, http.MethodGet, "/api/contacts/export", nil, true)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "Analytical")
}

func TestExportContactsXLSX(t *testing.T) {
	ts := newTestServer(t)
	seedExportContacts(ts)

	rec := ts.request(t, http.MethodGet, "/api/contacts/export?format=xlsx", nil, true)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		rec.Header().Get("Content-Type"))
	assert.NotZero(t, rec.Body.Len())
}

func TestExportContactsRejectsUnknownFormat(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(t, http.MethodGet, "/api/contacts/export?format=pdf", nil, true)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportContactsRejectsUnknownField(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(t, http.MethodGet, "/api/contacts/export?fields=password", nil, true)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGDPRDeleteRequiresElevatedRole(t *testing.T) {
	ts := newTestServer(t)
	ts.org.role = organizationdomain.RoleMember

	rec := ts.request(t, http.MethodDelete, "/api/contacts/123/gdpr-delete", nil, true)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGDPRDeleteAllowsAdmin(t *testing.T) {
	ts := newTestServer(t)
	ts.org.role = organizationdomain.RoleAdmin

	rec := ts.request(t, http.MethodDelete, "/api/contacts/123/gdpr-delete", nil, true)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"contact_id":"123"`)
}

func TestAPIRequiresSession(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(t, http.MethodGet, "/api/contacts", nil, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPIRequiresOrgHeader(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/contacts", nil)
	req.AddCookie(&http.Cookie{Name: authsession.DefaultCookieName, Value: testSessionToken})
	rec := httptest.NewRecorder()
	ts.srv.engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "org_id")
}

func TestAPIRejectsNonMember(t *testing.T) {
	ts := newTestServer(t)
	ts.org.memberErr = organizationdomain.ErrMemberNotFound

	rec := ts.request(t, http.MethodGet, "/api/contacts", nil, true)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
