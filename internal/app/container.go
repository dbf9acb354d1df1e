package app

import (
	"context"
	"time"

	"hotelstay/internal/domain"
)

// Options wires a Container. Plain and Protected are the two storage flavors.
type Options struct {
	Plain          domain.KV
	Protected      domain.KV
	Gateway        domain.Gateway // optional
	Identity       domain.IdentityProvider
	Navigator      domain.Navigator
	Clock          domain.Clock
	PersistTimeout time.Duration
	Workers        int
}

// Container owns one instance of every store. It is created once per
// process and handed to whatever renders the UI.
type Container struct {
	Session  *SessionStore
	Hotel    *HotelStore
	HotelID  *HotelIDStore
	Group    *GroupStore
	Booking  *BookingStore
	Identity domain.IdentityProvider
	Nav      domain.Navigator

	gw      domain.Gateway
	workers int
}

func NewContainer(o Options) *Container {
	if o.Workers <= 0 {
		o.Workers = 4
	}
	return &Container{
		Session:  NewSessionStore(o.Protected, o.Clock),
		Hotel:    NewHotelStore(o.Plain, o.Gateway, o.PersistTimeout),
		HotelID:  NewHotelIDStore(o.Plain, o.PersistTimeout),
		Group:    NewGroupStore(o.Plain, o.PersistTimeout),
		Booking:  NewBookingStore(o.Plain, o.Gateway, o.PersistTimeout),
		Identity: o.Identity,
		Nav:      o.Navigator,
		gw:       o.Gateway,
		workers:  o.Workers,
	}
}

// Flush waits for all background persistence to finish.
func (c *Container) Flush(ctx context.Context) error {
	for _, f := range []func(context.Context) error{c.Hotel.Flush, c.HotelID.Flush, c.Group.Flush, c.Booking.Flush} {
		if err := f(ctx); err != nil {
			return err
		}
	}
	return nil
}
