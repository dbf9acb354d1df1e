package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"

	"hotelstay/internal/adapters/observability"
	"hotelstay/internal/domain"
)

// TokenSource yields the bearer token for the signed-in user, if any.
type TokenSource interface {
	Token(ctx context.Context) (string, bool)
}

type Client struct {
	base   string
	hc     *http.Client
	tokens TokenSource
	rl     *rate.Limiter
}

func New(base string, tokens TokenSource, rps int, timeout time.Duration) (*Client, error) {
	if base == "" {
		return nil, fmt.Errorf("API base URL is required")
	}
	if rps <= 0 {
		rps = 5
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		base:   strings.TrimRight(base, "/"),
		hc:     &http.Client{Timeout: timeout},
		tokens: tokens,
		rl:     rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// ---- Public API ----

func (c *Client) GetUser(ctx context.Context, id domain.FlexID) (domain.UserData, bool, error) {
	res, err := c.do(ctx, http.MethodGet, "users.get", "/users/"+url.PathEscape(id.String()), nil)
	if err != nil {
		return domain.UserData{}, false, err
	}
	if res.SoftError != "" || res.IsNull() {
		return domain.UserData{}, false, nil
	}
	var u domain.UserData
	if err := res.Decode(&u); err != nil {
		return domain.UserData{}, false, err
	}
	return u, true, nil
}

func (c *Client) GetHotel(ctx context.Context, id domain.FlexID) (domain.Hotel, error) {
	var h domain.Hotel
	return h, c.getInto(ctx, "hotels.get", "/hotels/"+url.PathEscape(id.String()), &h)
}

func (c *Client) ListHotels(ctx context.Context, q domain.HotelsQuery) (domain.HotelsPage, error) {
	v := url.Values{}
	if q.City != "" {
		v.Set("city", q.City)
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Cursor != nil {
		v.Set("cursor", *q.Cursor)
	}
	path := "/hotels"
	if len(v) > 0 {
		path += "?" + v.Encode()
	}
	res, err := c.do(ctx, http.MethodGet, "hotels.list", path, nil)
	if err != nil {
		return domain.HotelsPage{}, err
	}
	if res.IsNull() {
		return domain.HotelsPage{}, nil
	}
	// older API versions answer with a bare array
	if bytes.HasPrefix(res.JSON, []byte("[")) {
		var items []domain.Hotel
		if err := res.Decode(&items); err != nil {
			return domain.HotelsPage{}, err
		}
		return domain.HotelsPage{Items: items}, nil
	}
	var page domain.HotelsPage
	return page, res.Decode(&page)
}

func (c *Client) GetBooking(ctx context.Context, id domain.FlexID) (domain.Booking, error) {
	var b domain.Booking
	return b, c.getInto(ctx, "bookings.get", "/bookings/"+url.PathEscape(id.String()), &b)
}

func (c *Client) CreateBooking(ctx context.Context, req domain.BookingRequest) (domain.Booking, error) {
	res, err := c.do(ctx, http.MethodPost, "bookings.create", "/bookings", req)
	if err != nil {
		return domain.Booking{}, err
	}
	var b domain.Booking
	if res.IsNull() {
		return b, fmt.Errorf("create booking: empty response")
	}
	return b, res.Decode(&b)
}

// ---- Internals ----

func (c *Client) getInto(ctx context.Context, endpoint, path string, out any) error {
	res, err := c.do(ctx, http.MethodGet, endpoint, path, nil)
	if err != nil {
		return err
	}
	if res.IsNull() || res.SoftError != "" {
		return fmt.Errorf("%s: %w", endpoint, domain.ErrNotFound)
	}
	return res.Decode(out)
}

// do sends one request and normalizes the response. There are no retries:
// a failed attempt is final for that call.
func (c *Client) do(ctx context.Context, method, endpoint, path string, body any) (Result, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return Result{}, err
	}

	var rdr *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return Result{}, fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(b)
	}
	var req *http.Request
	var err error
	if rdr != nil {
		req, err = http.NewRequestWithContext(ctx, method, c.base+path, rdr)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.base+path, nil)
	}
	if err != nil {
		return Result{}, err
	}
	for k, v := range c.headers(ctx) {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("api", endpoint, 0, time.Since(start))
		return Result{}, fmt.Errorf("%s: %w", endpoint, err)
	}
	observability.ObserveExternal("api", endpoint, resp.StatusCode, time.Since(start))
	return Normalize(resp)
}

// headers builds the standard request headers. Authorization is only set
// when a token is available.
func (c *Client) headers(ctx context.Context) map[string]string {
	h := map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
		"User-Agent":   "hotelstay/1.0",
		"X-Request-ID": ulid.Make().String(),
	}
	if c.tokens != nil {
		if tok, ok := c.tokens.Token(ctx); ok && tok != "" {
			h["Authorization"] = "Bearer " + tok
		}
	}
	return h
}
