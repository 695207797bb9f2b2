package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/orbitcrm/orbitcrm/internal/config"
	contactdomain "github.com/orbitcrm/orbitcrm/internal/contact/domain"
	orgdomain "github.com/orbitcrm/orbitcrm/internal/organization/domain"
	"github.com/orbitcrm/orbitcrm/internal/orgcontext"
	"github.com/orbitcrm/orbitcrm/internal/portal/domain"
	"github.com/orbitcrm/orbitcrm/internal/providers/email"
)

type Params struct {
	fx.In

	Config   config.Config
	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     domain.Repository
	Contacts contactdomain.Service
	Orgs     orgdomain.Service
	Email    email.Provider
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	repo     domain.Repository
	contacts contactdomain.Service
	orgs     orgdomain.Service
	email    email.Provider

	tokenTTL time.Duration
	baseURL  string
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("portal.service"),
		genID:    p.GenID,
		repo:     p.Repo,
		contacts: p.Contacts,
		orgs:     p.Orgs,
		email:    p.Email,
		tokenTTL: p.Config.Portal.TokenTTL,
		baseURL:  strings.TrimSuffix(p.Config.PublicBaseURL, "/"),
	}
}

func (s *Service) Invite(ctx context.Context, contactID string) (domain.InviteResult, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.InviteResult{}, domain.ErrInvalidOrganization
	}

	id, err := snowflake.ParseString(strings.TrimSpace(contactID))
	if err != nil {
		return domain.InviteResult{}, domain.ErrInvalidContact
	}

	contact, err := s.contacts.GetByID(ctx, id.String())
	if err != nil {
		return domain.InviteResult{}, domain.ErrInvalidContact
	}

	access, err := s.repo.FindAccess(ctx, s.db, orgID, id)
	if err != nil {
		return domain.InviteResult{}, err
	}
	if access == nil || !access.Enabled {
		return domain.InviteResult{}, domain.ErrPortalDisabled
	}

	rawToken, err := newPortalToken()
	if err != nil {
		return domain.InviteResult{}, err
	}

	now := time.Now().UTC()
	token := domain.PortalToken{
		ID:        s.genID.Generate(),
		ContactID: id,
		OrgID:     orgID,
		TokenHash: hashToken(rawToken),
		ExpiresAt: now.Add(s.tokenTTL),
		CreatedAt: now,
	}
	if err := s.repo.InsertToken(ctx, s.db, &token); err != nil {
		return domain.InviteResult{}, err
	}

	link := fmt.Sprintf("%s/portal/auth/%s", s.baseURL, rawToken)

	orgName := ""
	if org, err := s.orgs.GetByID(ctx, orgID); err == nil {
		orgName = org.Name
	}
	data := map[string]interface{}{
		"org_name":     orgName,
		"contact_name": contact.Name,
		"portal_url":   link,
	}
	if err := s.email.SendTemplate(ctx, []string{contact.Email}, "portal_invite", data); err != nil {
		s.log.Warn("portal invite email delivery failed",
			zap.Error(err),
			zap.String("contact_id", id.String()),
		)
	}

	return domain.InviteResult{ContactID: id.String(), MagicLink: link}, nil
}

func (s *Service) Toggle(ctx context.Context, contactID string, enabled bool) (domain.PortalAccess, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.PortalAccess{}, domain.ErrInvalidOrganization
	}

	id, err := snowflake.ParseString(strings.TrimSpace(contactID))
	if err != nil {
		return domain.PortalAccess{}, domain.ErrInvalidContact
	}
	if _, err := s.contacts.GetByID(ctx, id.String()); err != nil {
		return domain.PortalAccess{}, domain.ErrInvalidContact
	}

	now := time.Now().UTC()
	access := domain.PortalAccess{
		ContactID: id,
		OrgID:     orgID,
		Enabled:   enabled,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.UpsertAccess(ctx, s.db, &access); err != nil {
		return domain.PortalAccess{}, err
	}

	if !enabled {
		if err := s.repo.RevokeTokens(ctx, s.db, orgID, id, now); err != nil {
			return domain.PortalAccess{}, err
		}
	}

	return access, nil
}

// Exchange consumes the raw magic-link token exactly once. A token that is
// unknown, expired, already consumed, or belonging to a disabled contact
// all collapse into ErrInvalidToken.
func (s *Service) Exchange(ctx context.Context, rawToken string) (domain.Session, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return domain.Session{}, domain.ErrInvalidToken
	}

	now := time.Now().UTC()
	token, err := s.repo.ConsumeToken(ctx, s.db, hashToken(rawToken), now)
	if err != nil {
		return domain.Session{}, err
	}
	if token == nil {
		return domain.Session{}, domain.ErrInvalidToken
	}

	access, err := s.repo.FindAccess(ctx, s.db, token.OrgID, token.ContactID)
	if err != nil {
		return domain.Session{}, err
	}
	if access == nil || !access.Enabled {
		return domain.Session{}, domain.ErrInvalidToken
	}

	contactCtx := orgcontext.WithOrgID(ctx, token.OrgID)
	contact, err := s.contacts.GetByID(contactCtx, token.ContactID.String())
	if err != nil {
		return domain.Session{}, domain.ErrInvalidToken
	}

	return domain.Session{
		ContactID: contact.ID.String(),
		OrgID:     token.OrgID.String(),
		Name:      contact.Name,
		Email:     contact.Email,
		IssuedAt:  now,
	}, nil
}

func newPortalToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
