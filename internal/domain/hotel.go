package domain

// Hotel is the hotel-details object held as the session's active hotel.
type Hotel struct {
	ID          FlexID   `json:"id" validate:"required"`
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description,omitempty"`
	Address     string   `json:"address,omitempty"`
	City        string   `json:"city,omitempty"`
	Country     string   `json:"country,omitempty"`
	Stars       *int     `json:"stars,omitempty" validate:"omitempty,min=0,max=5"`
	Rating      *float64 `json:"rating,omitempty"`
	Amenities   []string `json:"amenities,omitempty"`
	Images      []string `json:"images,omitempty"`
	OwnerID     FlexID   `json:"ownerId,omitempty"`
}

type HotelsPage struct {
	Items      []Hotel `json:"items"`
	NextCursor *string `json:"nextCursor,omitempty"`
}

type HotelsQuery struct {
	City   string
	Limit  int
	Cursor *string
}
