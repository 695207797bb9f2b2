package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/orbitcrm/orbitcrm/internal/notification/domain"
	"github.com/orbitcrm/orbitcrm/internal/orgcontext"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("notification.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateNotificationRequest) (domain.Notification, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.Notification{}, domain.ErrInvalidOrganization
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return domain.Notification{}, domain.ErrInvalidTitle
	}

	kind := req.Kind
	if kind == "" {
		kind = domain.KindGeneral
	}

	n := domain.Notification{
		ID:        s.genID.Generate(),
		OrgID:     orgID,
		UserID:    req.UserID,
		ContactID: req.ContactID,
		Kind:      kind,
		Title:     title,
		Body:      strings.TrimSpace(req.Body),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, s.db, &n); err != nil {
		return domain.Notification{}, err
	}
	return n, nil
}

func (s *Service) List(ctx context.Context, req domain.ListNotificationRequest) ([]domain.Notification, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOrganization
	}
	return s.repo.List(ctx, s.db, orgID, req)
}

func (s *Service) MarkRead(ctx context.Context, id string) (domain.Notification, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.Notification{}, domain.ErrInvalidOrganization
	}

	nID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return domain.Notification{}, domain.ErrInvalidID
	}

	n, err := s.repo.FindByID(ctx, s.db, orgID, nID)
	if err != nil {
		return domain.Notification{}, err
	}
	if n == nil {
		return domain.Notification{}, domain.ErrNotFound
	}
	if n.ReadAt == nil {
		now := time.Now().UTC()
		n.ReadAt = &now
		if err := s.repo.Update(ctx, s.db, n); err != nil {
			return domain.Notification{}, err
		}
	}
	return *n, nil
}
