package domain

import "github.com/shopspring/decimal"

type BookingStatus string

const (
	BookingPending    BookingStatus = "PENDING"
	BookingConfirmed  BookingStatus = "CONFIRMED"
	BookingCancelled  BookingStatus = "CANCELLED"
	BookingCheckedIn  BookingStatus = "CHECKED_IN"
	BookingCheckedOut BookingStatus = "CHECKED_OUT"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPartial  PaymentStatus = "PARTIAL"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

// Booking is the CurrentBooking snapshot.
type Booking struct {
	ID       FlexID        `json:"id" validate:"required"`
	HotelID  FlexID        `json:"hotelId,omitempty"`
	CheckIn  string        `json:"checkIn" validate:"required"`
	CheckOut string        `json:"checkOut" validate:"required"`
	Guests   int           `json:"guests" validate:"min=1"`
	Status   BookingStatus `json:"status" validate:"required,oneof=PENDING CONFIRMED CANCELLED CHECKED_IN CHECKED_OUT"`
	Payment  Payment       `json:"payment"`
	Room     Room          `json:"room"`
}

type Payment struct {
	PaidAmount  decimal.Decimal `json:"paidAmount"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Status      PaymentStatus   `json:"status"`
}

// Outstanding is what is left to pay, never negative.
func (p Payment) Outstanding() decimal.Decimal {
	d := p.TotalAmount.Sub(p.PaidAmount)
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

type Room struct {
	RoomNumber string `json:"roomNumber"`
	Type       string `json:"type"`
}

type BookingRequest struct {
	HotelID  FlexID `json:"hotelId" validate:"required"`
	RoomType string `json:"roomType,omitempty"`
	CheckIn  string `json:"checkIn" validate:"required"`
	CheckOut string `json:"checkOut" validate:"required"`
	Guests   int    `json:"guests" validate:"min=1"`
}
