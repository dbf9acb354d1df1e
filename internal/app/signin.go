package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"hotelstay/internal/domain"
)

var (
	ErrSignInUnsupported = errors.New("identity provider does not accept session tokens")
	ErrTokenExpired      = domain.ErrTokenExpired
)

type tokenSignIn interface {
	SignIn(ctx context.Context, token string) error
	Subject(ctx context.Context) (domain.FlexID, bool)
}

// SignIn hands a freshly issued token to the identity provider and, when the
// API is reachable, seeds the session with the user's profile. A profile
// fetch failure does not undo the sign-in.
func (c *Container) SignIn(ctx context.Context, token string) (*domain.UserData, error) {
	idp, ok := c.Identity.(tokenSignIn)
	if !ok {
		return nil, ErrSignInUnsupported
	}
	if err := idp.SignIn(ctx, token); err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	sub, ok := idp.Subject(ctx)
	if !ok {
		return nil, ErrTokenExpired
	}
	if prev := c.Session.Get(ctx); prev != nil && prev.UserID != sub {
		log.Info().Str("user_id", sub.String()).Msg("sign-in: different user, dropping previous user's state")
		c.clearUserState(ctx)
	}
	if c.gw == nil {
		c.Session.Store(ctx, domain.ProfilePatch{UserID: &sub})
		return c.Session.Get(ctx), nil
	}

	u, found, err := c.gw.GetUser(ctx, sub)
	switch {
	case err != nil:
		log.Warn().Err(err).Str("user_id", sub.String()).Msg("sign-in: profile fetch failed")
		c.Session.Store(ctx, domain.ProfilePatch{UserID: &sub})
	case !found:
		log.Info().Str("user_id", sub.String()).Msg("sign-in: no profile on the API yet")
		c.Session.Store(ctx, domain.ProfilePatch{UserID: &sub})
	default:
		p := domain.PatchFrom(u)
		if p.UserID == nil {
			p.UserID = &sub
		}
		c.Session.Store(ctx, p)
	}
	return c.Session.Get(ctx), nil
}

// clearUserState removes the session record and every scoped selection.
// Failures are logged by the stores; the caller carries on regardless.
func (c *Container) clearUserState(ctx context.Context) {
	c.Session.Clear(ctx)
	for _, p := range []*Pending{
		c.Hotel.ClearCurrent(ctx),
		c.HotelID.ClearCurrent(ctx),
		c.Group.ClearCurrent(ctx),
		c.Booking.ClearCurrent(ctx),
	} {
		_ = p.Wait(ctx)
	}
}
