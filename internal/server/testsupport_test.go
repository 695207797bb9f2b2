package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	authdomain "github.com/orbitcrm/orbitcrm/internal/auth/domain"
	authsession "github.com/orbitcrm/orbitcrm/internal/auth/session"
	chatdomain "github.com/orbitcrm/orbitcrm/internal/chat/domain"
	"github.com/orbitcrm/orbitcrm/internal/config"
	contactdomain "github.com/orbitcrm/orbitcrm/internal/contact/domain"
	invoicedomain "github.com/orbitcrm/orbitcrm/internal/invoice/domain"
	notificationdomain "github.com/orbitcrm/orbitcrm/internal/notification/domain"
	organizationdomain "github.com/orbitcrm/orbitcrm/internal/organization/domain"
	portaldomain "github.com/orbitcrm/orbitcrm/internal/portal/domain"
	portalsession "github.com/orbitcrm/orbitcrm/internal/portal/session"
	projectdomain "github.com/orbitcrm/orbitcrm/internal/project/domain"
	taskdomain "github.com/orbitcrm/orbitcrm/internal/task/domain"
)

const (
	testSessionToken = "test-session-token"
	testUserID       = snowflake.ID(101)
	testOrgID        = snowflake.ID(202)
	testCookieSecret = "server-test-secret"
)

type fakeAuthService struct {
	authenticateErr error
}

func (f *fakeAuthService) CreateUser(ctx context.Context, req authdomain.CreateUserRequest) (*authdomain.User, error) {
	return &authdomain.User{ID: testUserID, Email: req.Email, DisplayName: req.DisplayName}, nil
}

func (f *fakeAuthService) Login(ctx context.Context, req authdomain.LoginRequest) (*authdomain.LoginResult, error) {
	return &authdomain.LoginResult{
		User:      &authdomain.User{ID: testUserID, Email: req.Email},
		RawToken:  testSessionToken,
		ExpiresAt: time.Now().Add(time.Hour),
		SessionID: snowflake.ID(301),
	}, nil
}

func (f *fakeAuthService) Logout(ctx context.Context, rawToken string) error { return nil }

func (f *fakeAuthService) Authenticate(ctx context.Context, rawToken string) (*authdomain.Session, error) {
	if f.authenticateErr != nil {
		return nil, f.authenticateErr
	}
	if rawToken != testSessionToken {
		return nil, authdomain.ErrInvalidSession
	}
	return &authdomain.Session{ID: snowflake.ID(301), UserID: testUserID}, nil
}

func (f *fakeAuthService) GetUser(ctx context.Context, id snowflake.ID) (*authdomain.User, error) {
	return &authdomain.User{ID: id, Email: "user@example.com"}, nil
}

type fakeOrgService struct {
	memberErr error
	role      string
}

func (f *fakeOrgService) Create(ctx context.Context, req organizationdomain.CreateOrganizationRequest) (organizationdomain.Organization, error) {
	return organizationdomain.Organization{ID: testOrgID, Name: req.Name, Slug: req.Slug, PlanTier: req.PlanTier}, nil
}

func (f *fakeOrgService) GetByID(ctx context.Context, id snowflake.ID) (organizationdomain.Organization, error) {
	return organizationdomain.Organization{ID: id, Name: "Acme", PlanTier: organizationdomain.TierPro}, nil
}

func (f *fakeOrgService) GetMember(ctx context.Context, orgID, userID snowflake.ID) (organizationdomain.Member, error) {
	if f.memberErr != nil {
		return organizationdomain.Member{}, f.memberErr
	}
	role := f.role
	if role == "" {
		role = organizationdomain.RoleOwner
	}
	return organizationdomain.Member{OrgID: orgID, UserID: userID, Role: role}, nil
}

func (f *fakeOrgService) GetBalance(ctx context.Context, orgID snowflake.ID) (organizationdomain.TokenBalance, error) {
	return organizationdomain.TokenBalance{OrgID: orgID, MonthlyTokens: 1000}, nil
}

func (f *fakeOrgService) CheckAndDeduct(ctx context.Context, orgID snowflake.ID, amount int64) (organizationdomain.DeductResult, error) {
	return organizationdomain.DeductResult{}, nil
}

type fakeContactService struct {
	contacts []contactdomain.Contact
}

func (f *fakeContactService) Create(ctx context.Context, req contactdomain.CreateContactRequest) (contactdomain.Contact, error) {
	return contactdomain.Contact{ID: snowflake.ID(1), OrgID: testOrgID, Name: req.Name, Email: req.Email}, nil
}

func (f *fakeContactService) Update(ctx context.Context, req contactdomain.UpdateContactRequest) (contactdomain.Contact, error) {
	return contactdomain.Contact{}, contactdomain.ErrNotFound
}

func (f *fakeContactService) GetByID(ctx context.Context, id string) (contactdomain.Contact, error) {
	return contactdomain.Contact{}, contactdomain.ErrNotFound
}

func (f *fakeContactService) List(ctx context.Context, req contactdomain.ListContactRequest) (contactdomain.ListContactResponse, error) {
	return contactdomain.ListContactResponse{Contacts: f.contacts}, nil
}

func (f *fakeContactService) SoftDelete(ctx context.Context, id string) error { return nil }

func (f *fakeContactService) ListAll(ctx context.Context) ([]contactdomain.Contact, error) {
	return f.contacts, nil
}

func (f *fakeContactService) HardDelete(ctx context.Context, id string) (contactdomain.DeletionCertificate, error) {
	return contactdomain.DeletionCertificate{ContactID: id}, nil
}

type fakeProjectService struct {
	forContact []projectdomain.Project
}

func (f *fakeProjectService) Create(ctx context.Context, req projectdomain.CreateProjectRequest) (projectdomain.Project, error) {
	return projectdomain.Project{}, nil
}

func (f *fakeProjectService) Update(ctx context.Context, req projectdomain.UpdateProjectRequest) (projectdomain.Project, error) {
	return projectdomain.Project{}, nil
}

func (f *fakeProjectService) GetByID(ctx context.Context, id string) (projectdomain.Project, error) {
	return projectdomain.Project{}, projectdomain.ErrNotFound
}

func (f *fakeProjectService) List(ctx context.Context, req projectdomain.ListProjectRequest) ([]projectdomain.Project, error) {
	return nil, nil
}

func (f *fakeProjectService) SoftDelete(ctx context.Context, id string) error { return nil }

func (f *fakeProjectService) CreateMilestone(ctx context.Context, req projectdomain.CreateMilestoneRequest) (projectdomain.Milestone, error) {
	return projectdomain.Milestone{}, nil
}

func (f *fakeProjectService) CompleteMilestone(ctx context.Context, id string) (projectdomain.Milestone, error) {
	return projectdomain.Milestone{}, nil
}

func (f *fakeProjectService) ListMilestones(ctx context.Context, projectID string) ([]projectdomain.Milestone, error) {
	return nil, nil
}

func (f *fakeProjectService) ListForContact(ctx context.Context, orgID, contactID string) ([]projectdomain.Project, error) {
	return f.forContact, nil
}

type fakeTaskService struct{}

func (f *fakeTaskService) Create(ctx context.Context, req taskdomain.CreateTaskRequest) (taskdomain.Task, error) {
	return taskdomain.Task{}, nil
}

func (f *fakeTaskService) Update(ctx context.Context, req taskdomain.UpdateTaskRequest) (taskdomain.Task, error) {
	return taskdomain.Task{}, nil
}

func (f *fakeTaskService) GetByID(ctx context.Context, id string) (taskdomain.Task, error) {
	return taskdomain.Task{}, taskdomain.ErrNotFound
}

func (f *fakeTaskService) List(ctx context.Context, req taskdomain.ListTaskRequest) ([]taskdomain.Task, error) {
	return nil, nil
}

func (f *fakeTaskService) SoftDelete(ctx context.Context, id string) error { return nil }

type fakeInvoiceService struct {
	forContact []invoicedomain.Invoice
}

func (f *fakeInvoiceService) Create(ctx context.Context, req invoicedomain.CreateInvoiceRequest) (invoicedomain.Invoice, error) {
	return invoicedomain.Invoice{}, nil
}

func (f *fakeInvoiceService) Update(ctx context.Context, req invoicedomain.UpdateInvoiceRequest) (invoicedomain.Invoice, error) {
	return invoicedomain.Invoice{}, nil
}

func (f *fakeInvoiceService) GetByID(ctx context.Context, id string) (invoicedomain.Invoice, error) {
	return invoicedomain.Invoice{}, invoicedomain.ErrNotFound
}

func (f *fakeInvoiceService) List(ctx context.Context, req invoicedomain.ListInvoiceRequest) ([]invoicedomain.Invoice, error) {
	return nil, nil
}

func (f *fakeInvoiceService) UpdateStatus(ctx context.Context, id string, status invoicedomain.InvoiceStatus) (invoicedomain.Invoice, error) {
	return invoicedomain.Invoice{Status: status}, nil
}

func (f *fakeInvoiceService) Render(ctx context.Context, id string) (io.Reader, error) {
	return nil, invoicedomain.ErrNotFound
}

func (f *fakeInvoiceService) ListForContact(ctx context.Context, orgID, contactID string) ([]invoicedomain.Invoice, error) {
	return f.forContact, nil
}

type fakePortalService struct {
	exchangeSession portaldomain.Session
	exchangeErr     error
}

func (f *fakePortalService) Invite(ctx context.Context, contactID string) (portaldomain.InviteResult, error) {
	return portaldomain.InviteResult{ContactID: contactID, MagicLink: "http://localhost/portal/auth/raw"}, nil
}

func (f *fakePortalService) Toggle(ctx context.Context, contactID string, enabled bool) (portaldomain.PortalAccess, error) {
	return portaldomain.PortalAccess{Enabled: enabled}, nil
}

func (f *fakePortalService) Exchange(ctx context.Context, rawToken string) (portaldomain.Session, error) {
	if f.exchangeErr != nil {
		return portaldomain.Session{}, f.exchangeErr
	}
	return f.exchangeSession, nil
}

type fakeNotificationService struct {
	created []notificationdomain.CreateNotificationRequest
}

func (f *fakeNotificationService) Create(ctx context.Context, req notificationdomain.CreateNotificationRequest) (notificationdomain.Notification, error) {
	f.created = append(f.created, req)
	return notificationdomain.Notification{Kind: req.Kind, Title: req.Title}, nil
}

func (f *fakeNotificationService) List(ctx context.Context, req notificationdomain.ListNotificationRequest) ([]notificationdomain.Notification, error) {
	return nil, nil
}

func (f *fakeNotificationService) MarkRead(ctx context.Context, id string) (notificationdomain.Notification, error) {
	return notificationdomain.Notification{}, notificationdomain.ErrNotFound
}

type fakeChatService struct {
	streamErr error
	chunks    []chatdomain.StreamChunk
	lastReq   chatdomain.CompletionRequest
}

func (f *fakeChatService) Stream(ctx context.Context, req chatdomain.CompletionRequest, onChunk func(chatdomain.StreamChunk) error) error {
	f.lastReq = req
	if f.streamErr != nil {
		return f.streamErr
	}
	for _, chunk := range f.chunks {
		if err := onChunk(chunk); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeChatService) ListModels(ctx context.Context) ([]chatdomain.ModelTier, error) {
	return chatdomain.DefaultModelTiers(), nil
}

type testServer struct {
	srv          *Server
	auth         *fakeAuthService
	org          *fakeOrgService
	contact      *fakeContactService
	project      *fakeProjectService
	invoice      *fakeInvoiceService
	portal       *fakePortalService
	notification *fakeNotificationService
	chat         *fakeChatService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{HTTPAddr: ":0"}
	cfg.Portal.CookieSecret = testCookieSecret
	cfg.Portal.SessionTTL = 7 * 24 * time.Hour

	ts := &testServer{
		auth:         &fakeAuthService{},
		org:          &fakeOrgService{},
		contact:      &fakeContactService{},
		project:      &fakeProjectService{},
		invoice:      &fakeInvoiceService{},
		portal:       &fakePortalService{},
		notification: &fakeNotificationService{},
		chat:         &fakeChatService{},
	}

	engine := NewEngine(zap.NewNop())
	ts.srv = NewServer(ServerParams{
		Gin:             engine,
		Cfg:             cfg,
		Log:             zap.NewNop(),
		AuthSvc:         ts.auth,
		Sessions:        authsession.NewManager(cfg),
		OrgSvc:          ts.org,
		ContactSvc:      ts.contact,
		ProjectSvc:      ts.project,
		TaskSvc:         &fakeTaskService{},
		InvoiceSvc:      ts.invoice,
		PortalSvc:       ts.portal,
		PortalSessions:  portalsession.NewManager(cfg),
		PortalCodec:     portalsession.NewCodec(cfg.Portal.CookieSecret, cfg.Portal.SessionTTL),
		NotificationSvc: ts.notification,
		ChatSvc:         ts.chat,
	})
	return ts
}

func (ts *testServer) request(t *testing.T, method, path string, body io.Reader, authed bool) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.AddCookie(&http.Cookie{Name: authsession.DefaultCookieName, Value: testSessionToken})
		req.Header.Set(HeaderOrg, testOrgID.String())
	}

	rec := httptest.NewRecorder()
	ts.srv.engine.ServeHTTP(rec, req)
	return rec
}
