package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotelstay/internal/adapters/api"
	"hotelstay/internal/domain"
)

type staticToken string

func (s staticToken) Token(context.Context) (string, bool) { return string(s), s != "" }

func newClient(t *testing.T, h http.Handler, tok api.TokenSource) *api.Client {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	cl, err := api.New(ts.URL, tok, 100, 2*time.Second) // high RPS for tests
	require.NoError(t, err)
	return cl
}

func TestClient_GetHotel_SendsHeaders(t *testing.T) {
	var got http.Header
	cl := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		assert.Equal(t, "/hotels/h-7", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"id": 7, "name": "Seaview"})
	}), staticToken("tok-123"))

	h, err := cl.GetHotel(context.Background(), "h-7")
	require.NoError(t, err)
	assert.Equal(t, domain.FlexID("7"), h.ID)
	assert.Equal(t, "Seaview", h.Name)
	assert.Equal(t, "Bearer tok-123", got.Get("Authorization"))
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Len(t, got.Get("X-Request-ID"), 26)
}

func TestClient_NoTokenNoAuthorization(t *testing.T) {
	cl := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"1","name":"A"},{"id":"2","name":"B"}]`))
	}), nil)

	page, err := cl.ListHotels(context.Background(), domain.HotelsQuery{City: "Lisbon", Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
}

func TestClient_NoRetryOnServerError(t *testing.T) {
	var hits int32
	cl := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(500)
		_, _ = w.Write([]byte(`{"message":"boom"}`))
	}), nil)

	_, err := cl.GetBooking(context.Background(), "b-1")
	require.EqualError(t, err, "boom")
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
}

func TestClient_GetUser_SoftNotFound(t *testing.T) {
	cl := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(404)
		_, _ = w.Write([]byte(`{"message":"User not found"}`))
	}), nil)

	_, found, err := cl.GetUser(context.Background(), "u-1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestClient_GetUser_NumericID(t *testing.T) {
	cl := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"userId":42,"role":"OWNER","nickname":"kit"}`))
	}), nil)

	u, found, err := cl.GetUser(context.Background(), "42")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, domain.FlexID("42"), u.UserID)
	assert.Equal(t, domain.RoleOwner, u.Role)
	assert.JSONEq(t, `"kit"`, string(u.Extra["nickname"]))
}

func TestClient_GetHotel_404(t *testing.T) {
	cl := newClient(t, http.NotFoundHandler(), nil)

	_, err := cl.GetHotel(context.Background(), "1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestClient_CreateBooking(t *testing.T) {
	cl := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var req domain.BookingRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, domain.FlexID("h-1"), req.HotelID)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"b-9","hotelId":"h-1","checkIn":"2026-11-01","checkOut":"2026-11-03","guests":2,"status":"PENDING",
			"payment":{"paidAmount":"0","totalAmount":240.5,"status":"PENDING"},"room":{"roomNumber":"12","type":"double"}}`))
	}), staticToken("t"))

	b, err := cl.CreateBooking(context.Background(), domain.BookingRequest{HotelID: "h-1", CheckIn: "2026-11-01", CheckOut: "2026-11-03", Guests: 2})
	require.NoError(t, err)
	assert.Equal(t, domain.FlexID("b-9"), b.ID)
	assert.Equal(t, domain.BookingPending, b.Status)
	assert.Equal(t, "240.5", b.Payment.Outstanding().String())
}

func TestNew_RequiresBase(t *testing.T) {
	_, err := api.New("", nil, 1, 0)
	require.Error(t, err)
}

func TestClient_ListHotels_PageAndQuery(t *testing.T) {
	cl := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Porto", r.URL.Query().Get("city"))
		assert.Equal(t, "c1", r.URL.Query().Get("cursor"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"id":3,"name":"C"}],"nextCursor":"c2"}`))
	}), nil)

	cur := "c1"
	page, err := cl.ListHotels(context.Background(), domain.HotelsQuery{City: "Porto", Cursor: &cur})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, domain.FlexID("3"), page.Items[0].ID)
	require.NotNil(t, page.NextCursor)
	assert.Equal(t, "c2", *page.NextCursor)
}

func TestClient_GetBooking(t *testing.T) {
	cl := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bookings/55", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":55,"hotelId":"h-1","checkIn":"a","checkOut":"b","guests":1,"status":"CHECKED_IN"}`))
	}), staticToken("t"))

	b, err := cl.GetBooking(context.Background(), "55")
	require.NoError(t, err)
	assert.Equal(t, domain.FlexID("55"), b.ID)
	assert.Equal(t, domain.BookingCheckedIn, b.Status)
}
