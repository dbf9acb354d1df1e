package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"hotelstay/internal/domain"
)

type BootReport struct {
	Populated      map[string]bool // per store name
	SessionPresent bool
	IdentityLoaded bool
	MigratedHotel  bool
}

type identityLoader interface {
	Load(ctx context.Context) bool
}

// Bootstrap repopulates every store from durable storage before the first
// screen needs it, then moves a legacy id-only hotel selection over to the
// full hotel details when possible.
func (c *Container) Bootstrap(ctx context.Context) (BootReport, error) {
	rep := BootReport{Populated: map[string]bool{}}

	type initFn struct {
		name string
		fn   func(context.Context) bool
	}
	inits := []initFn{
		{c.Hotel.Name(), c.Hotel.InitializeFromStorage},
		{c.HotelID.Name(), c.HotelID.InitializeFromStorage},
		{c.Group.Name(), c.Group.InitializeFromStorage},
		{c.Booking.Name(), c.Booking.InitializeFromStorage},
		{"session", func(ctx context.Context) bool { return c.Session.Get(ctx) != nil }},
	}
	if l, ok := c.Identity.(identityLoader); ok {
		inits = append(inits, initFn{"identity", l.Load})
	}

	sem := semaphore.NewWeighted(int64(c.workers))
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, in := range inits {
		in := in

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return rep, err
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			ok := in.fn(ctx)
			mu.Lock()
			switch in.name {
			case "session":
				rep.SessionPresent = ok
			case "identity":
				rep.IdentityLoaded = ok
			default:
				rep.Populated[in.name] = ok
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	rep.MigratedHotel = c.migrateLegacyHotel(ctx)

	log.Info().
		Interface("populated", rep.Populated).
		Bool("session", rep.SessionPresent).
		Bool("identity", rep.IdentityLoaded).
		Bool("migrated_hotel", rep.MigratedHotel).
		Msg("stores initialized")
	return rep, nil
}

// migrateLegacyHotel fetches details for a hotel that only exists as a
// legacy id, then drops the id key. Any failure leaves both keys untouched.
func (c *Container) migrateLegacyHotel(ctx context.Context) bool {
	if c.gw == nil {
		return false
	}
	if _, ok := c.Hotel.Current(); ok {
		return false
	}
	id, ok := c.HotelID.Current()
	if !ok {
		return false
	}
	h, err := c.gw.GetHotel(ctx, domain.FlexID(id))
	if err != nil {
		log.Warn().Err(err).Str("hotel_id", id).Msg("legacy hotel migration skipped")
		return false
	}
	// only drop the legacy key once the details are durable
	if err := c.Hotel.SetCurrent(ctx, &h).Wait(ctx); err != nil {
		log.Warn().Err(err).Str("hotel_id", id).Msg("legacy hotel migration: details not persisted")
		return false
	}
	if err := c.HotelID.ClearCurrent(ctx).Wait(ctx); err != nil {
		log.Warn().Err(err).Msg("legacy hotel id not removed")
	}
	log.Info().Str("hotel_id", h.ID.String()).Msg("migrated legacy hotel selection")
	return true
}
