// Package identity keeps the session token issued by the external
// authentication provider. The client cannot verify the signature, so claims
// are read unverified and only used for local sign-in state.
package identity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"hotelstay/internal/domain"
)

var ErrMalformedToken = errors.New("identity: malformed session token")

type Provider struct {
	kv  domain.KV
	now domain.Clock

	mu     sync.RWMutex
	token  string
	claims jwt.RegisteredClaims
}

func New(kv domain.KV, now domain.Clock) *Provider {
	if now == nil {
		now = time.Now
	}
	return &Provider{kv: kv, now: now}
}

func parse(token string) (jwt.RegisteredClaims, error) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return jwt.RegisteredClaims{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if claims.Subject == "" {
		return jwt.RegisteredClaims{}, fmt.Errorf("%w: missing sub", ErrMalformedToken)
	}
	return claims, nil
}

// SignIn records a freshly issued token and persists it.
func (p *Provider) SignIn(ctx context.Context, token string) error {
	claims, err := parse(token)
	if err != nil {
		return err
	}
	if claims.ExpiresAt != nil && !p.now().Before(claims.ExpiresAt.Time) {
		return fmt.Errorf("sign in: %w", domain.ErrTokenExpired)
	}
	if err := p.kv.Set(ctx, domain.KeySessionToken, token); err != nil {
		return fmt.Errorf("persist session token: %w", err)
	}
	p.mu.Lock()
	p.token, p.claims = token, claims
	p.mu.Unlock()
	return nil
}

// Load restores a persisted token. Unreadable tokens are ignored.
func (p *Provider) Load(ctx context.Context) bool {
	raw, ok, err := p.kv.Get(ctx, domain.KeySessionToken)
	if err != nil {
		log.Warn().Err(err).Msg("identity: read session token failed")
		return false
	}
	if !ok {
		return false
	}
	claims, err := parse(raw)
	if err != nil {
		log.Warn().Err(err).Msg("identity: ignoring stored session token")
		return false
	}
	p.mu.Lock()
	p.token, p.claims = raw, claims
	p.mu.Unlock()
	return true
}

func (p *Provider) expired() bool {
	if p.claims.ExpiresAt == nil {
		return false
	}
	return !p.now().Before(p.claims.ExpiresAt.Time)
}

// Token returns the bearer token while it is present and unexpired.
func (p *Provider) Token(_ context.Context) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.token == "" || p.expired() {
		return "", false
	}
	return p.token, true
}

func (p *Provider) SignedIn(ctx context.Context) bool {
	_, ok := p.Token(ctx)
	return ok
}

// Subject is the provider's user id for the signed-in user.
func (p *Provider) Subject(ctx context.Context) (domain.FlexID, bool) {
	if !p.SignedIn(ctx) {
		return "", false
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return domain.FlexID(p.claims.Subject), true
}

// SignOut forgets the token locally and removes it from storage.
func (p *Provider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	p.token, p.claims = "", jwt.RegisteredClaims{}
	p.mu.Unlock()
	if err := p.kv.Delete(ctx, domain.KeySessionToken); err != nil {
		return fmt.Errorf("delete session token: %w", err)
	}
	return nil
}
