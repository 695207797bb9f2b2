package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/orbitcrm/orbitcrm/internal/contact/domain"
	"github.com/orbitcrm/orbitcrm/internal/orgcontext"
	"github.com/orbitcrm/orbitcrm/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
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
		log:   p.Log.Named("contact.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateContactRequest) (domain.Contact, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.Contact{}, domain.ErrInvalidOrganization
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Contact{}, domain.ErrInvalidName
	}
	email := strings.TrimSpace(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return domain.Contact{}, domain.ErrInvalidEmail
	}

	tags := datatypes.JSON([]byte("[]"))
	if len(req.Tags) > 0 {
		raw, err := json.Marshal(req.Tags)
		if err == nil {
			tags = datatypes.JSON(raw)
		}
	}

	now := time.Now().UTC()
	contact := domain.Contact{
		ID:        s.genID.Generate(),
		OrgID:     orgID,
		Name:      name,
		Email:     email,
		Phone:     strings.TrimSpace(req.Phone),
		Company:   strings.TrimSpace(req.Company),
		Tags:      tags,
		Metadata:  datatypes.JSONMap{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Insert(ctx, s.db, &contact); err != nil {
		return domain.Contact{}, err
	}

	return contact, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateContactRequest) (domain.Contact, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.Contact{}, domain.ErrInvalidOrganization
	}

	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Contact{}, err
	}

	contact, err := s.repo.FindByID(ctx, s.db, orgID, id)
	if err != nil {
		return domain.Contact{}, err
	}
	if contact == nil {
		return domain.Contact{}, domain.ErrNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Contact{}, domain.ErrInvalidName
		}
		contact.Name = name
	}
	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if email == "" || !strings.Contains(email, "@") {
			return domain.Contact{}, domain.ErrInvalidEmail
		}
		contact.Email = email
	}
	if req.Phone != nil {
		contact.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Company != nil {
		contact.Company = strings.TrimSpace(*req.Company)
	}
	contact.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, s.db, contact); err != nil {
		return domain.Contact{}, err
	}

	return *contact, nil
}

func (s *Service) GetByID(ctx context.Context, rawID string) (domain.Contact, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.Contact{}, domain.ErrInvalidOrganization
	}

	id, err := s.parseID(rawID)
	if err != nil {
		return domain.Contact{}, err
	}

	contact, err := s.repo.FindByID(ctx, s.db, orgID, id)
	if err != nil {
		return domain.Contact{}, err
	}
	if contact == nil {
		return domain.Contact{}, domain.ErrNotFound
	}

	return *contact, nil
}

func (s *Service) List(ctx context.Context, req domain.ListContactRequest) (domain.ListContactResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.ListContactResponse{}, domain.ErrInvalidOrganization
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, orgID, domain.ListContactFilter{
		Email:       strings.TrimSpace(req.Email),
		Company:     strings.TrimSpace(req.Company),
		CreatedFrom: req.CreatedFrom,
		CreatedTo:   req.CreatedTo,
	}, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  pageSize,
	})
	if err != nil {
		return domain.ListContactResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(contact *domain.Contact) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        contact.ID.String(),
			CreatedAt: contact.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > pageSize {
		items = items[:pageSize]
	}

	contacts := make([]domain.Contact, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		contacts = append(contacts, *item)
	}

	resp := domain.ListContactResponse{Contacts: contacts}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}

	return resp, nil
}

func (s *Service) SoftDelete(ctx context.Context, rawID string) error {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.ErrInvalidOrganization
	}

	id, err := s.parseID(rawID)
	if err != nil {
		return err
	}

	contact, err := s.repo.FindByID(ctx, s.db, orgID, id)
	if err != nil {
		return err
	}
	if contact == nil {
		return domain.ErrNotFound
	}

	return s.repo.SoftDelete(ctx, s.db, orgID, id)
}

func (s *Service) ListAll(ctx context.Context) ([]domain.Contact, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOrganization
	}

	items, err := s.repo.ListAll(ctx, s.db, orgID)
	if err != nil {
		return nil, err
	}

	contacts := make([]domain.Contact, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		contacts = append(contacts, *item)
	}
	return contacts, nil
}

func (s *Service) HardDelete(ctx context.Context, rawID string) (domain.DeletionCertificate, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.DeletionCertificate{}, domain.ErrInvalidOrganization
	}

	id, err := s.parseID(rawID)
	if err != nil {
		return domain.DeletionCertificate{}, err
	}

	counts, err := s.repo.HardDeleteCascade(ctx, s.db, orgID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.DeletionCertificate{}, domain.ErrNotFound
		}
		return domain.DeletionCertificate{}, err
	}

	deletedAt := time.Now().UTC()
	cert := domain.DeletionCertificate{
		CertificateID: uuid.NewString(),
		ContactID:     id.String(),
		OrgID:         orgID.String(),
		DeletedAt:     deletedAt,
	}
	for _, category := range []string{"contact", "portal_access", "portal_tokens", "projects", "tasks", "invoices", "notifications"} {
		cert.Categories = append(cert.Categories, domain.DeletedCategory{
			Category: category,
			Rows:     counts[category],
		})
	}

	s.log.Info("contact hard deleted",
		zap.String("contact_id", id.String()),
		zap.String("certificate_id", cert.CertificateID),
	)

	return cert, nil
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
