package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/orbitcrm/orbitcrm/internal/portal/domain"
)

var (
	ErrInvalidCookie = errors.New("invalid portal cookie")
	ErrExpired       = errors.New("portal session expired")
)

// Codec seals the portal session snapshot into a signed cookie value:
// base64url(json payload) + "." + base64url(hmac-sha256 signature).
type Codec struct {
	secret []byte
	ttl    time.Duration
}

func NewCodec(secret string, ttl time.Duration) *Codec {
	return &Codec{secret: []byte(secret), ttl: ttl}
}

func (c *Codec) TTL() time.Duration {
	return c.ttl
}

func (c *Codec) Encode(sess domain.Session) (string, error) {
	if len(c.secret) == 0 {
		return "", errors.New("portal cookie secret not configured")
	}

	payload, err := json.Marshal(sess)
	if err != nil {
		return "", err
	}

	encoded := base64.RawURLEncoding.EncodeToString(payload)
	return encoded + "." + c.sign(encoded), nil
}

// Decode verifies the signature and the session age, then returns the
// snapshot. The token table is never consulted here.
func (c *Codec) Decode(value string, now time.Time) (domain.Session, error) {
	encoded, sig, ok := strings.Cut(value, ".")
	if !ok || encoded == "" || sig == "" {
		return domain.Session{}, ErrInvalidCookie
	}
	if !hmac.Equal([]byte(c.sign(encoded)), []byte(sig)) {
		return domain.Session{}, ErrInvalidCookie
	}

	payload, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return domain.Session{}, ErrInvalidCookie
	}

	var sess domain.Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return domain.Session{}, ErrInvalidCookie
	}
	if sess.IssuedAt.IsZero() || now.Sub(sess.IssuedAt) > c.ttl {
		return domain.Session{}, ErrExpired
	}

	return sess, nil
}

func (c *Codec) sign(encoded string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(encoded))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
