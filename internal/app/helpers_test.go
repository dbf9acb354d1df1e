package app_test

import (
	"context"
	"sync"
	"time"

	"hotelstay/internal/domain"
)

// ---- fakes ----

type fakeGateway struct {
	mu       sync.Mutex
	hotels   map[domain.FlexID]domain.Hotel
	bookings map[domain.FlexID]domain.Booking
	err      error
	calls    int
}

func (g *fakeGateway) GetUser(ctx context.Context, id domain.FlexID) (domain.UserData, bool, error) {
	return domain.UserData{}, false, nil
}

func (g *fakeGateway) GetHotel(ctx context.Context, id domain.FlexID) (domain.Hotel, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return domain.Hotel{}, g.err
	}
	h, ok := g.hotels[id]
	if !ok {
		return domain.Hotel{}, domain.ErrNotFound
	}
	return h, nil
}

func (g *fakeGateway) ListHotels(ctx context.Context, q domain.HotelsQuery) (domain.HotelsPage, error) {
	return domain.HotelsPage{}, nil
}

func (g *fakeGateway) GetBooking(ctx context.Context, id domain.FlexID) (domain.Booking, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return domain.Booking{}, g.err
	}
	b, ok := g.bookings[id]
	if !ok {
		return domain.Booking{}, domain.ErrNotFound
	}
	return b, nil
}

func (g *fakeGateway) CreateBooking(ctx context.Context, req domain.BookingRequest) (domain.Booking, error) {
	if g.err != nil {
		return domain.Booking{}, g.err
	}
	return domain.Booking{
		ID: "b-new", HotelID: req.HotelID, CheckIn: req.CheckIn, CheckOut: req.CheckOut,
		Guests: req.Guests, Status: domain.BookingPending,
	}, nil
}

// recorder collects an ordered trail of side effects across fakes.
type recorder struct {
	mu    sync.Mutex
	steps []string
}

func (r *recorder) add(s string) {
	r.mu.Lock()
	r.steps = append(r.steps, s)
	r.mu.Unlock()
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.steps...)
}

type fakeIdentity struct {
	rec *recorder
	err error
}

func (f *fakeIdentity) SignedIn(context.Context) bool { return true }

func (f *fakeIdentity) SignOut(context.Context) error {
	f.rec.add("identity.signout")
	return f.err
}

type fakeNav struct{ rec *recorder }

func (n *fakeNav) ToSignIn(context.Context) { n.rec.add("nav.signin") }

func fixedClock(t time.Time) domain.Clock { return func() time.Time { return t } }

func ptr[T any](v T) *T { return &v }

func waitCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 2*time.Second)
}
