package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/orbitcrm/orbitcrm/internal/organization/domain"
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
		log:   p.Log.Named("organization.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateOrganizationRequest) (domain.Organization, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Organization{}, domain.ErrInvalidName
	}

	orgSlug := strings.TrimSpace(req.Slug)
	if orgSlug == "" {
		orgSlug = slug.Make(name)
	}
	if orgSlug == "" {
		return domain.Organization{}, domain.ErrInvalidSlug
	}

	tier := req.PlanTier
	if tier == "" {
		tier = domain.TierFree
	}
	if tier.Rank() < 0 {
		return domain.Organization{}, domain.ErrInvalidTier
	}

	now := time.Now().UTC()
	org := domain.Organization{
		ID:        s.genID.Generate(),
		Name:      name,
		Slug:      orgSlug,
		PlanTier:  tier,
		Metadata:  datatypes.JSONMap{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, &org); err != nil {
			return err
		}
		if req.OwnerID != 0 {
			member := domain.Member{
				ID:        s.genID.Generate(),
				OrgID:     org.ID,
				UserID:    req.OwnerID,
				Role:      domain.RoleOwner,
				CreatedAt: now,
			}
			if err := s.repo.InsertMember(ctx, tx, &member); err != nil {
				return err
			}
		}
		balance := domain.TokenBalance{
			OrgID:     org.ID,
			UpdatedAt: now,
		}
		return s.repo.InsertBalance(ctx, tx, &balance)
	})
	if err != nil {
		return domain.Organization{}, err
	}

	return org, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (domain.Organization, error) {
	org, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Organization{}, err
	}
	if org == nil {
		return domain.Organization{}, domain.ErrNotFound
	}
	return *org, nil
}

func (s *Service) GetMember(ctx context.Context, orgID, userID snowflake.ID) (domain.Member, error) {
	member, err := s.repo.FindMember(ctx, s.db, orgID, userID)
	if err != nil {
		return domain.Member{}, err
	}
	if member == nil {
		return domain.Member{}, domain.ErrMemberNotFound
	}
	return *member, nil
}

func (s *Service) GetBalance(ctx context.Context, orgID snowflake.ID) (domain.TokenBalance, error) {
	balance, err := s.repo.FindBalance(ctx, s.db, orgID)
	if err != nil {
		return domain.TokenBalance{}, err
	}
	if balance == nil {
		return domain.TokenBalance{}, domain.ErrNotFound
	}
	return *balance, nil
}

// CheckAndDeduct settles an effective token amount against the org balance.
// The whole check-then-deduct runs in one row-locked transaction so that
// concurrent settlements against the same org cannot lose updates.
func (s *Service) CheckAndDeduct(ctx context.Context, orgID snowflake.ID, amount int64) (domain.DeductResult, error) {
	if amount < 0 {
		return domain.DeductResult{}, domain.ErrInvalidAmount
	}

	var result domain.DeductResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		balance, err := s.repo.FindBalanceForUpdate(ctx, tx, orgID)
		if err != nil {
			return err
		}
		if balance == nil {
			return domain.ErrNotFound
		}

		if balance.MonthlyTokens+balance.PackTokens < amount {
			return domain.ErrInsufficientTokens
		}

		fromMonthly := amount
		if fromMonthly > balance.MonthlyTokens {
			fromMonthly = balance.MonthlyTokens
		}
		balance.MonthlyTokens -= fromMonthly
		balance.PackTokens -= amount - fromMonthly
		balance.UpdatedAt = time.Now().UTC()

		if err := s.repo.UpdateBalance(ctx, tx, balance); err != nil {
			return err
		}

		result = domain.DeductResult{
			MonthlyTokens: balance.MonthlyTokens,
			PackTokens:    balance.PackTokens,
		}
		return nil
	})
	if err != nil {
		return domain.DeductResult{}, err
	}

	return result, nil
}
