package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/orbitcrm/orbitcrm/internal/auth"
	authdomain "github.com/orbitcrm/orbitcrm/internal/auth/domain"
	authsession "github.com/orbitcrm/orbitcrm/internal/auth/session"
	"github.com/orbitcrm/orbitcrm/internal/chat"
	chatdomain "github.com/orbitcrm/orbitcrm/internal/chat/domain"
	"github.com/orbitcrm/orbitcrm/internal/config"
	"github.com/orbitcrm/orbitcrm/internal/contact"
	contactdomain "github.com/orbitcrm/orbitcrm/internal/contact/domain"
	"github.com/orbitcrm/orbitcrm/internal/invoice"
	invoicedomain "github.com/orbitcrm/orbitcrm/internal/invoice/domain"
	"github.com/orbitcrm/orbitcrm/internal/notification"
	notificationdomain "github.com/orbitcrm/orbitcrm/internal/notification/domain"
	"github.com/orbitcrm/orbitcrm/internal/organization"
	organizationdomain "github.com/orbitcrm/orbitcrm/internal/organization/domain"
	"github.com/orbitcrm/orbitcrm/internal/portal"
	portaldomain "github.com/orbitcrm/orbitcrm/internal/portal/domain"
	portalsession "github.com/orbitcrm/orbitcrm/internal/portal/session"
	"github.com/orbitcrm/orbitcrm/internal/project"
	projectdomain "github.com/orbitcrm/orbitcrm/internal/project/domain"
	"github.com/orbitcrm/orbitcrm/internal/providers"
	"github.com/orbitcrm/orbitcrm/internal/ratelimit"
	"github.com/orbitcrm/orbitcrm/internal/task"
	taskdomain "github.com/orbitcrm/orbitcrm/internal/task/domain"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	authsession.Module,
	auth.Module,
	organization.Module,
	contact.Module,
	project.Module,
	task.Module,
	providers.Module,
	invoice.Module,
	portal.Module,
	notification.Module,
	ratelimit.Module,
	chat.Module,
	fx.Provide(NewServer),
	fx.Invoke(func(*Server) {}),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(log))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	db              *gorm.DB
	log             *zap.Logger
	genID           *snowflake.Node
	authSvc         authdomain.Service
	sessions        *authsession.Manager
	orgSvc          organizationdomain.Service
	contactSvc      contactdomain.Service
	projectSvc      projectdomain.Service
	taskSvc         taskdomain.Service
	invoiceSvc      invoicedomain.Service
	portalSvc       portaldomain.Service
	portalSessions  *portalsession.Manager
	portalCodec     *portalsession.Codec
	notificationSvc notificationdomain.Service
	chatSvc         chatdomain.Service
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	DB              *gorm.DB
	Log             *zap.Logger
	GenID           *snowflake.Node
	AuthSvc         authdomain.Service
	Sessions        *authsession.Manager
	OrgSvc          organizationdomain.Service
	ContactSvc      contactdomain.Service
	ProjectSvc      projectdomain.Service
	TaskSvc         taskdomain.Service
	InvoiceSvc      invoicedomain.Service
	PortalSvc       portaldomain.Service
	PortalSessions  *portalsession.Manager
	PortalCodec     *portalsession.Codec
	NotificationSvc notificationdomain.Service
	ChatSvc         chatdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		db:              p.DB,
		log:             p.Log.Named("server"),
		genID:           p.GenID,
		authSvc:         p.AuthSvc,
		sessions:        p.Sessions,
		orgSvc:          p.OrgSvc,
		contactSvc:      p.ContactSvc,
		projectSvc:      p.ProjectSvc,
		taskSvc:         p.TaskSvc,
		invoiceSvc:      p.InvoiceSvc,
		portalSvc:       p.PortalSvc,
		portalSessions:  p.PortalSessions,
		portalCodec:     p.PortalCodec,
		notificationSvc: p.NotificationSvc,
		chatSvc:         p.ChatSvc,
	}

	svc.registerAuthRoutes()
	svc.registerAPIRoutes()
	svc.registerPortalRoutes()

	return svc
}

func (s *Server) registerAuthRoutes() {
	grp := s.engine.Group("/auth")
	grp.POST("/signup", s.Signup)
	grp.POST("/login", s.Login)
	grp.POST("/logout", s.Logout)
	grp.GET("/me", s.AuthRequired(), s.Me)
}

func (s *Server) registerAPIRoutes() {
	// Organization creation happens before the caller has an org to name
	// in the X-Org-ID header.
	s.engine.POST("/api/organizations", s.AuthRequired(), s.CreateOrganization)

	api := s.engine.Group("/api", s.AuthRequired(), s.OrgContext())

	api.GET("/organizations/current", s.GetOrganization)
	api.GET("/organizations/balance", s.GetTokenBalance)

	api.POST("/contacts", s.CreateContact)
	api.GET("/contacts", s.ListContacts)
	api.GET("/contacts/export", s.ExportContacts)
	api.GET("/contacts/:id", s.GetContact)
	api.PATCH("/contacts/:id", s.UpdateContact)
	api.DELETE("/contacts/:id", s.DeleteContact)
	api.DELETE("/contacts/:id/gdpr-delete",
		RequireRole(organizationdomain.RoleOwner, organizationdomain.RoleAdmin),
		s.GDPRDeleteContact)

	api.POST("/portal/invite", s.InvitePortalContact)
	api.POST("/portal/toggle", s.TogglePortalAccess)

	api.POST("/projects", s.CreateProject)
	api.GET("/projects", s.ListProjects)
	api.GET("/projects/:id", s.GetProject)
	api.PATCH("/projects/:id", s.UpdateProject)
	api.DELETE("/projects/:id", s.DeleteProject)
	api.POST("/projects/:id/milestones", s.CreateMilestone)
	api.GET("/projects/:id/milestones", s.ListMilestones)
	api.POST("/milestones/:id/complete", s.CompleteMilestone)

	api.POST("/tasks", s.CreateTask)
	api.GET("/tasks", s.ListTasks)
	api.GET("/tasks/:id", s.GetTask)
	api.PATCH("/tasks/:id", s.UpdateTask)
	api.DELETE("/tasks/:id", s.DeleteTask)

	api.POST("/invoices", s.CreateInvoice)
	api.GET("/invoices", s.ListInvoices)
	api.GET("/invoices/:id", s.GetInvoice)
	api.PATCH("/invoices/:id", s.UpdateInvoice)
	api.POST("/invoices/:id/status", s.UpdateInvoiceStatus)

	admin := s.engine.Group("/admin", s.AuthRequired(), s.OrgContext(),
		RequireRole(organizationdomain.RoleOwner, organizationdomain.RoleAdmin))
	admin.GET("/invoices/:id/render", s.RenderInvoice)

	api.GET("/notifications", s.ListNotifications)
	api.POST("/notifications/:id/read", s.MarkNotificationRead)

	api.GET("/models", s.ListModels)
	api.POST("/chat", s.ChatCompletion)
}

func (s *Server) registerPortalRoutes() {
	s.engine.GET("/portal/auth/:token", s.PortalExchange)

	grp := s.engine.Group("/portal/api", s.PortalAuthRequired())
	grp.GET("/me", s.PortalMe)
	grp.GET("/projects", s.PortalProjects)
	grp.GET("/invoices", s.PortalInvoices)
	grp.POST("/logout", s.PortalLogout)
}
