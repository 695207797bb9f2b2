package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/orbitcrm/orbitcrm/internal/chat/domain"
	"github.com/orbitcrm/orbitcrm/internal/chat/repository"
	"github.com/orbitcrm/orbitcrm/internal/config"
	orgdomain "github.com/orbitcrm/orbitcrm/internal/organization/domain"
	"github.com/orbitcrm/orbitcrm/internal/ratelimit"
)

type fakeLimiter struct {
	result *ratelimit.Result
	err    error
	calls  int
}

func (f *fakeLimiter) Check(ctx context.Context, identifier string) (*ratelimit.Result, error) {
	f.calls++
	return f.result, f.err
}

type fakeOrgService struct {
	org       orgdomain.Organization
	balance   orgdomain.TokenBalance
	deductErr error

	deducted []int64
}

func (f *fakeOrgService) Create(ctx context.Context, req orgdomain.CreateOrganizationRequest) (orgdomain.Organization, error) {
	return orgdomain.Organization{}, errors.New("not implemented")
}

func (f *fakeOrgService) GetByID(ctx context.Context, id snowflake.ID) (orgdomain.Organization, error) {
	return f.org, nil
}

func (f *fakeOrgService) GetMember(ctx context.Context, orgID, userID snowflake.ID) (orgdomain.Member, error) {
	return orgdomain.Member{}, errors.New("not implemented")
}

func (f *fakeOrgService) GetBalance(ctx context.Context, orgID snowflake.ID) (orgdomain.TokenBalance, error) {
	return f.balance, nil
}

func (f *fakeOrgService) CheckAndDeduct(ctx context.Context, orgID snowflake.ID, amount int64) (orgdomain.DeductResult, error) {
	if f.deductErr != nil {
		return orgdomain.DeductResult{}, f.deductErr
	}
	f.deducted = append(f.deducted, amount)
	return orgdomain.DeductResult{}, nil
}

type fakeCompleter struct {
	chunks []domain.StreamChunk
	usage  *domain.Usage
	err    error
	calls  int
}

func (f *fakeCompleter) StreamCompletion(ctx context.Context, model string, messages []domain.Message, onChunk func(domain.StreamChunk) error) (*domain.Usage, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	for _, chunk := range f.chunks {
		if err := onChunk(chunk); err != nil {
			return nil, err
		}
	}
	return f.usage, nil
}

type fixture struct {
	svc       domain.Service
	db        *gorm.DB
	limiter   *fakeLimiter
	orgs      *fakeOrgService
	completer *fakeCompleter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.ModelTier{}, &domain.UsageRecord{}))
	for _, m := range domain.DefaultModelTiers() {
		require.NoError(t, db.Create(&m).Error)
	}

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	limiter := &fakeLimiter{result: &ratelimit.Result{Success: true, Limit: 20, Remaining: 19}}
	orgs := &fakeOrgService{
		org:     orgdomain.Organization{ID: node.Generate(), PlanTier: orgdomain.TierBusiness},
		balance: orgdomain.TokenBalance{MonthlyTokens: 100000, PackTokens: 0},
	}
	completer := &fakeCompleter{
		chunks: []domain.StreamChunk{
			{Content: "hel"},
			{Content: "lo"},
			{Done: true},
		},
		usage: &domain.Usage{PromptTokens: 120, CompletionTokens: 213},
	}

	cfg := config.Config{}
	cfg.Chat.PreflightEstimate = 2000

	svc := New(Params{
		Config:    cfg,
		DB:        db,
		Log:       zap.NewNop(),
		GenID:     node,
		Repo:      repository.Provide(),
		Orgs:      orgs,
		Limiter:   limiter,
		Completer: completer,
	})

	return &fixture{svc: svc, db: db, limiter: limiter, orgs: orgs, completer: completer}
}

func request(model string) domain.CompletionRequest {
	return domain.CompletionRequest{
		OrgID:          snowflake.ID(42),
		UserID:         snowflake.ID(7),
		ConversationID: "conv-1",
		Model:          model,
		Messages:       []domain.Message{{Role: domain.RoleUser, Content: "hi"}},
	}
}

func (f *fixture) usageRecords(t *testing.T) []domain.UsageRecord {
	t.Helper()
	var records []domain.UsageRecord
	require.NoError(t, f.db.Find(&records).Error)
	return records
}

func TestStreamSettlesWithEffectiveTokens(t *testing.T) {
	f := newFixture(t)

	var got []string
	err := f.svc.Stream(context.Background(), request("claude-opus-4"), func(chunk domain.StreamChunk) error {
		if chunk.Content != "" {
			got = append(got, chunk.Content)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"hel", "lo"}, got)

	// 333 real tokens at x10
	require.Len(t, f.orgs.deducted, 1)
	assert.Equal(t, int64(3330), f.orgs.deducted[0])

	records := f.usageRecords(t)
	require.Len(t, records, 1)
	assert.Equal(t, "claude-opus-4", records[0].Model)
	assert.Equal(t, int64(120), records[0].PromptTokens)
	assert.Equal(t, int64(213), records[0].CompletionTokens)
	assert.Equal(t, int64(3330), records[0].EffectiveTokens)
	assert.Equal(t, snowflake.ID(42), records[0].OrgID)
	assert.Equal(t, "conv-1", records[0].ConversationID)
}

func TestStreamRejectsEmptyMessages(t *testing.T) {
	f := newFixture(t)

	req := request("gpt-4o-mini")
	req.Messages = nil
	err := f.svc.Stream(context.Background(), req, func(domain.StreamChunk) error { return nil })
	assert.ErrorIs(t, err, domain.ErrEmptyMessages)
	assert.Equal(t, 0, f.limiter.calls)
}

func TestStreamRateLimited(t *testing.T) {
	f := newFixture(t)
	f.limiter.result = &ratelimit.Result{
		Success:    false,
		Limit:      20,
		RetryAfter: 30 * time.Second,
		ResetAt:    time.Now().Add(30 * time.Second),
	}

	err := f.svc.Stream(context.Background(), request("gpt-4o-mini"), func(domain.StreamChunk) error { return nil })

	var rle *domain.RateLimitError
	require.ErrorAs(t, err, &rle)
	assert.Equal(t, 20, rle.Limit)
	assert.Equal(t, 30*time.Second, rle.RetryAfter)

	assert.Equal(t, 0, f.completer.calls)
	assert.Empty(t, f.orgs.deducted)
	assert.Empty(t, f.usageRecords(t))
}

func TestStreamLimiterFailureIsUnavailable(t *testing.T) {
	f := newFixture(t)
	f.limiter.result = nil
	f.limiter.err = errors.New("redis down")

	err := f.svc.Stream(context.Background(), request("gpt-4o-mini"), func(domain.StreamChunk) error { return nil })
	assert.ErrorIs(t, err, domain.ErrLimiterUnavailable)
	assert.Equal(t, 0, f.completer.calls)
}

func TestStreamUnknownModel(t *testing.T) {
	f := newFixture(t)

	err := f.svc.Stream(context.Background(), request("gpt-5-ultra"), func(domain.StreamChunk) error { return nil })
	assert.ErrorIs(t, err, domain.ErrModelNotAvailable)
	assert.Equal(t, 0, f.completer.calls)
	assert.Empty(t, f.usageRecords(t))
}

func TestStreamTierBelowModelMinimum(t *testing.T) {
	f := newFixture(t)
	f.orgs.org.PlanTier = orgdomain.TierFree

	err := f.svc.Stream(context.Background(), request("claude-opus-4"), func(domain.StreamChunk) error { return nil })
	assert.ErrorIs(t, err, domain.ErrModelNotAvailable)
	assert.Equal(t, 0, f.completer.calls)
}

func TestStreamPreflightBlocksExhaustedBalance(t *testing.T) {
	f := newFixture(t)
	f.orgs.org.PlanTier = orgdomain.TierFree
	f.orgs.balance = orgdomain.TokenBalance{MonthlyTokens: 500, PackTokens: 0}

	// gpt-4o-mini at x1 still needs the 2000-token worst case up front.
	err := f.svc.Stream(context.Background(), request("gpt-4o-mini"), func(domain.StreamChunk) error { return nil })
	assert.ErrorIs(t, err, orgdomain.ErrInsufficientTokens)
	assert.Equal(t, 0, f.completer.calls)
	assert.Empty(t, f.orgs.deducted)
	assert.Empty(t, f.usageRecords(t))
}

func TestStreamPreflightCountsPackTokens(t *testing.T) {
	f := newFixture(t)
	f.orgs.org.PlanTier = orgdomain.TierFree
	f.orgs.balance = orgdomain.TokenBalance{MonthlyTokens: 500, PackTokens: 1500}

	err := f.svc.Stream(context.Background(), request("gpt-4o-mini"), func(domain.StreamChunk) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, 1, f.completer.calls)
}

func TestStreamUpstreamFailureSkipsSettlement(t *testing.T) {
	f := newFixture(t)
	f.completer.err = errors.New("upstream closed connection")

	err := f.svc.Stream(context.Background(), request("gpt-4o-mini"), func(domain.StreamChunk) error { return nil })
	require.Error(t, err)
	assert.Empty(t, f.orgs.deducted)
	assert.Empty(t, f.usageRecords(t))
}

func TestStreamSettlementFailureIsSwallowed(t *testing.T) {
	f := newFixture(t)
	f.orgs.deductErr = errors.New("deduct rpc failed")

	err := f.svc.Stream(context.Background(), request("gpt-4o-mini"), func(domain.StreamChunk) error { return nil })
	require.NoError(t, err)

	// The audit row is still written even when the deduction failed.
	assert.Len(t, f.usageRecords(t), 1)
}

func TestStreamMissingUsageSkipsDeduction(t *testing.T) {
	f := newFixture(t)
	f.completer.usage = nil

	err := f.svc.Stream(context.Background(), request("gpt-4o-mini"), func(domain.StreamChunk) error { return nil })
	require.NoError(t, err)
	assert.Empty(t, f.orgs.deducted)
	assert.Empty(t, f.usageRecords(t))
}
