package domain

import (
	"context"
	"errors"
)

type InviteResult struct {
	ContactID string `json:"contact_id"`
	// MagicLink is returned to the caller in addition to being emailed, so
	// staff can copy it manually.
	MagicLink string `json:"magic_link"`
}

type Service interface {
	// Invite generates a one-time magic-link token for a portal-enabled
	// contact and emails it.
	Invite(ctx context.Context, contactID string) (InviteResult, error)

	// Toggle enables or disables portal access. Disabling revokes every
	// outstanding token.
	Toggle(ctx context.Context, contactID string, enabled bool) (PortalAccess, error)

	// Exchange consumes a magic-link token exactly once and returns the
	// session snapshot to be sealed into the portal cookie.
	Exchange(ctx context.Context, rawToken string) (Session, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidContact      = errors.New("invalid_contact")
	ErrPortalDisabled      = errors.New("portal_disabled")
	ErrInvalidToken        = errors.New("invalid_token")
)
