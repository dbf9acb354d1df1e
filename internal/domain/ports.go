package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// ErrCorrupt marks a stored value that exists but cannot be opened or
	// decoded. Callers treat it like an absent record, unlike an I/O failure.
	ErrCorrupt = errors.New("stored value is corrupt")
	// ErrTokenExpired is returned when a session token is already past exp.
	ErrTokenExpired = errors.New("session token is already expired")
)

// Durable storage keys. These are what earlier app versions wrote, keep them stable.
const (
	KeyUserData     = "user_data"              // protected
	KeySessionToken = "session_token"          // protected
	KeyHotelDetails = "@current_hotel_details" // plaintext, JSON
	KeyHotelID      = "@current_hotel"         // plaintext, raw string (legacy)
	KeyGroupID      = "currentGroupId"         // plaintext, decimal string
	KeyBooking      = "currentBooking"         // plaintext, JSON
)

// KV is an on-device durable key-value backend.
// A missing key is reported as ok=false with a nil error.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Gateway is the remote REST API.
type Gateway interface {
	// GetUser returns found=false for the soft "User not found" response.
	GetUser(ctx context.Context, id FlexID) (u UserData, found bool, err error)
	GetHotel(ctx context.Context, id FlexID) (Hotel, error)
	ListHotels(ctx context.Context, q HotelsQuery) (HotelsPage, error)
	GetBooking(ctx context.Context, id FlexID) (Booking, error)
	CreateBooking(ctx context.Context, req BookingRequest) (Booking, error)
}

// IdentityProvider is the external authentication provider.
type IdentityProvider interface {
	SignedIn(ctx context.Context) bool
	SignOut(ctx context.Context) error
}

// Navigator moves the UI to a route after flows like sign-out.
type Navigator interface {
	ToSignIn(ctx context.Context)
}

type Clock func() time.Time
