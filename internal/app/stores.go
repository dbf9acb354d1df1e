package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hotelstay/internal/domain"
)

var (
	ErrNoGateway   = errors.New("remote API is not configured")
	ErrNoSelection = errors.New("nothing is selected")
)

// HotelStore holds the full details of the active hotel.
type HotelStore struct {
	*Cell[domain.Hotel]
	gw domain.Gateway
}

func NewHotelStore(kv domain.KV, gw domain.Gateway, timeout time.Duration) *HotelStore {
	return &HotelStore{
		Cell: NewCell[domain.Hotel]("hotel", domain.KeyHotelDetails, kv, JSONCodec[domain.Hotel]{}, timeout),
		gw:   gw,
	}
}

// Select fetches a hotel and makes it the active one.
func (s *HotelStore) Select(ctx context.Context, id domain.FlexID) (domain.Hotel, error) {
	if s.gw == nil {
		return domain.Hotel{}, ErrNoGateway
	}
	h, err := s.gw.GetHotel(ctx, id)
	if err != nil {
		return domain.Hotel{}, fmt.Errorf("select hotel %s: %w", id, err)
	}
	s.SetCurrent(ctx, &h)
	return h, nil
}

// Refresh re-fetches the active hotel from the API.
func (s *HotelStore) Refresh(ctx context.Context) (domain.Hotel, error) {
	cur, ok := s.Current()
	if !ok {
		return domain.Hotel{}, ErrNoSelection
	}
	return s.Select(ctx, cur.ID)
}

// HotelIDStore is the older id-only representation of the active hotel.
// Some screens still read it, so it lives next to HotelStore.
type HotelIDStore struct {
	*Cell[string]
}

func NewHotelIDStore(kv domain.KV, timeout time.Duration) *HotelIDStore {
	return &HotelIDStore{Cell: NewCell[string]("hotel_id", domain.KeyHotelID, kv, StringCodec{}, timeout)}
}

// GroupStore holds the current group id; nil means no selection and removes the key.
type GroupStore struct {
	*Cell[int]
}

func NewGroupStore(kv domain.KV, timeout time.Duration) *GroupStore {
	return &GroupStore{Cell: NewCell[int]("group", domain.KeyGroupID, kv, IntCodec{}, timeout)}
}

func (s *GroupStore) SetCurrentGroup(ctx context.Context, id *int) *Pending {
	return s.SetCurrent(ctx, id)
}

func (s *GroupStore) GetCurrentGroup() (int, bool) { return s.Current() }

// BookingStore holds the booking the user is working with.
type BookingStore struct {
	*Cell[domain.Booking]
	gw domain.Gateway
}

func NewBookingStore(kv domain.KV, gw domain.Gateway, timeout time.Duration) *BookingStore {
	return &BookingStore{
		Cell: NewCell[domain.Booking]("booking", domain.KeyBooking, kv, JSONCodec[domain.Booking]{}, timeout),
		gw:   gw,
	}
}

// Open reopens an existing booking.
func (s *BookingStore) Open(ctx context.Context, id domain.FlexID) (domain.Booking, error) {
	if s.gw == nil {
		return domain.Booking{}, ErrNoGateway
	}
	b, err := s.gw.GetBooking(ctx, id)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("open booking %s: %w", id, err)
	}
	s.SetCurrent(ctx, &b)
	return b, nil
}

// Create books a stay and makes the new booking current.
func (s *BookingStore) Create(ctx context.Context, req domain.BookingRequest) (domain.Booking, error) {
	if s.gw == nil {
		return domain.Booking{}, ErrNoGateway
	}
	b, err := s.gw.CreateBooking(ctx, req)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("create booking: %w", err)
	}
	s.SetCurrent(ctx, &b)
	return b, nil
}
