package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/orbitcrm/orbitcrm/internal/chat/domain"
	"github.com/orbitcrm/orbitcrm/internal/config"
	orgdomain "github.com/orbitcrm/orbitcrm/internal/organization/domain"
	"github.com/orbitcrm/orbitcrm/internal/ratelimit"
)

// Limiter is the admission gate in front of the pipeline.
type Limiter interface {
	Check(ctx context.Context, identifier string) (*ratelimit.Result, error)
}

type Params struct {
	fx.In

	Config    config.Config
	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Repo      domain.Repository
	Orgs      orgdomain.Service
	Limiter   Limiter
	Completer domain.Completer
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	repo      domain.Repository
	orgs      orgdomain.Service
	limiter   Limiter
	completer domain.Completer

	preflightEstimate int64
}

func New(p Params) domain.Service {
	return &Service{
		db:                p.DB,
		log:               p.Log.Named("chat.service"),
		genID:             p.GenID,
		repo:              p.Repo,
		orgs:              p.Orgs,
		limiter:           p.Limiter,
		completer:         p.Completer,
		preflightEstimate: p.Config.Chat.PreflightEstimate,
	}
}

// Stream runs one chat turn through the gates and forwards deltas to
// onChunk. Gate failures return before the model is called and leave no
// side effects. Settlement failures after a delivered stream are logged
// and swallowed.
func (s *Service) Stream(ctx context.Context, req domain.CompletionRequest, onChunk func(domain.StreamChunk) error) error {
	if len(req.Messages) == 0 {
		return domain.ErrEmptyMessages
	}
	model := strings.TrimSpace(req.Model)
	if model == "" {
		return domain.ErrModelNotAvailable
	}

	limit, err := s.limiter.Check(ctx, req.UserID.String())
	if err != nil {
		s.log.Warn("rate limiter check failed", zap.Error(err))
		return domain.ErrLimiterUnavailable
	}
	if !limit.Success {
		return &domain.RateLimitError{
			Limit:      limit.Limit,
			RetryAfter: limit.RetryAfter,
			ResetAt:    limit.ResetAt,
		}
	}

	org, err := s.orgs.GetByID(ctx, req.OrgID)
	if err != nil {
		return err
	}

	tier, err := s.repo.FindModelTier(ctx, s.db, model)
	if err != nil {
		return err
	}
	if tier == nil || !domain.CanAccessModel(org.PlanTier, *tier) {
		return domain.ErrModelNotAvailable
	}

	balance, err := s.orgs.GetBalance(ctx, req.OrgID)
	if err != nil {
		return err
	}
	preflight := domain.CalculateEffectiveTokens(s.preflightEstimate, tier.Multiplier)
	if !domain.HasTokens(balance.MonthlyTokens, balance.PackTokens, preflight) {
		return orgdomain.ErrInsufficientTokens
	}

	usage, err := s.completer.StreamCompletion(ctx, model, req.Messages, onChunk)
	if err != nil {
		return err
	}

	s.settle(ctx, req, *tier, usage)
	return nil
}

// settle deducts effective tokens and appends the audit row. The completion
// has already been delivered, so failures here are logged, never returned.
func (s *Service) settle(ctx context.Context, req domain.CompletionRequest, tier domain.ModelTier, usage *domain.Usage) {
	if usage == nil {
		s.log.Warn("completion reported no usage, skipping settlement",
			zap.String("model", tier.Model),
			zap.String("org_id", req.OrgID.String()),
		)
		return
	}

	effective := domain.CalculateEffectiveTokens(usage.Total(), tier.Multiplier)
	if _, err := s.orgs.CheckAndDeduct(ctx, req.OrgID, effective); err != nil {
		s.log.Error("token settlement failed",
			zap.Error(err),
			zap.String("org_id", req.OrgID.String()),
			zap.Int64("effective_tokens", effective),
		)
	}

	record := domain.UsageRecord{
		ID:               s.genID.Generate(),
		OrgID:            req.OrgID,
		UserID:           req.UserID,
		ConversationID:   req.ConversationID,
		Model:            tier.Model,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		EffectiveTokens:  effective,
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.repo.InsertUsage(ctx, s.db, &record); err != nil {
		s.log.Error("usage audit insert failed",
			zap.Error(err),
			zap.String("org_id", req.OrgID.String()),
		)
	}
}

func (s *Service) ListModels(ctx context.Context) ([]domain.ModelTier, error) {
	return s.repo.ListModelTiers(ctx, s.db)
}
