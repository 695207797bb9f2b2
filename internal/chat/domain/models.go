package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"

	orgdomain "github.com/orbitcrm/orbitcrm/internal/organization/domain"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is one chat turn entering the pipeline. OrgID and
// UserID come from the authenticated session, never from the body.
type CompletionRequest struct {
	OrgID          snowflake.ID
	UserID         snowflake.ID
	ConversationID string
	Model          string
	Messages       []Message
}

// Usage holds the real token counters reported by the completion call.
type Usage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
}

func (u Usage) Total() int64 {
	return u.PromptTokens + u.CompletionTokens
}

// StreamChunk is one delta forwarded to the client. Usage is only set on
// the terminal chunk.
type StreamChunk struct {
	Content string
	Done    bool
	Usage   *Usage
}

// ModelTier maps a model identifier to the minimum subscription tier that
// may use it and the billing multiplier applied to its real token counts.
type ModelTier struct {
	Model      string         `gorm:"primaryKey" json:"model"`
	MinTier    orgdomain.Tier `gorm:"column:min_tier" json:"min_tier"`
	Multiplier float64        `json:"multiplier"`
}

func (ModelTier) TableName() string {
	return "model_tiers"
}

// DefaultModelTiers is the seed catalog.
func DefaultModelTiers() []ModelTier {
	return []ModelTier{
		{Model: "gpt-4o-mini", MinTier: orgdomain.TierFree, Multiplier: 1},
		{Model: "gpt-4o", MinTier: orgdomain.TierPro, Multiplier: 5},
		{Model: "claude-sonnet-4", MinTier: orgdomain.TierPro, Multiplier: 5},
		{Model: "claude-opus-4", MinTier: orgdomain.TierBusiness, Multiplier: 10},
	}
}

// UsageRecord is the append-only audit row written after a completed call.
// Never updated or deleted by the application.
type UsageRecord struct {
	ID               snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID            snowflake.ID `gorm:"index" json:"org_id"`
	UserID           snowflake.ID `json:"user_id"`
	ConversationID   string       `json:"conversation_id"`
	Model            string       `json:"model"`
	PromptTokens     int64        `json:"prompt_tokens"`
	CompletionTokens int64        `json:"completion_tokens"`
	EffectiveTokens  int64        `json:"effective_tokens"`
	CreatedAt        time.Time    `json:"created_at"`
}

func (UsageRecord) TableName() string {
	return "usage_records"
}
