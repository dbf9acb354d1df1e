package app

import (
	"context"

	"github.com/rs/zerolog/log"
)

type SignOutReport struct {
	SessionCleared bool
	HotelCleared   bool
	OthersCleared  bool
	IdentityErr    error
	Navigated      bool
}

// SignOut clears local state, signs out of the identity provider and sends
// the UI to sign-in. Steps run in order and a failing step does not stop the
// ones after it; stores report failures instead of aborting. The identity
// provider's error, if any, is returned after navigation has happened.
func (c *Container) SignOut(ctx context.Context) (SignOutReport, error) {
	var rep SignOutReport

	rep.SessionCleared = c.Session.Clear(ctx)

	if err := c.Hotel.ClearCurrent(ctx).Wait(ctx); err != nil {
		log.Warn().Err(err).Msg("sign-out: hotel not cleared from storage")
	} else {
		rep.HotelCleared = true
	}

	// nothing from this user should be visible to the next one
	rep.OthersCleared = true
	for _, p := range []*Pending{
		c.HotelID.ClearCurrent(ctx),
		c.Group.ClearCurrent(ctx),
		c.Booking.ClearCurrent(ctx),
	} {
		if err := p.Wait(ctx); err != nil {
			rep.OthersCleared = false
			log.Warn().Err(err).Msg("sign-out: scoped store not cleared from storage")
		}
	}

	if c.Identity != nil {
		if err := c.Identity.SignOut(ctx); err != nil {
			rep.IdentityErr = err
			log.Error().Err(err).Msg("sign-out: identity provider sign-out failed")
		}
	}

	if c.Nav != nil {
		c.Nav.ToSignIn(ctx)
		rep.Navigated = true
	}
	return rep, rep.IdentityErr
}
