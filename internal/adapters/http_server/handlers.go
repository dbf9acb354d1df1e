// internal/adapters/http_server/handlers.go
package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"hotelstay/internal/adapters/identity"
	"hotelstay/internal/app"
	"hotelstay/internal/domain"
)

const maxBody = 1 << 20

type Handlers struct {
	C   *app.Container
	Nav *Navigator
	v   *validator.Validate
}

func NewHandlers(c *app.Container, nav *Navigator) *Handlers {
	return &Handlers{C: c, Nav: nav, v: validator.New(validator.WithRequiredStructEnabled())}
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

type cellView struct {
	State string `json:"state"`
	Value any    `json:"value"`
}

type idBody struct {
	ID domain.FlexID `json:"id" validate:"required"`
}

type groupBody struct {
	ID *int `json:"id" validate:"required,min=0"`
}

type signInBody struct {
	Token string `json:"token" validate:"required,jwt"`
}

type signOutView struct {
	SessionCleared bool   `json:"sessionCleared"`
	HotelCleared   bool   `json:"hotelCleared"`
	OthersCleared  bool   `json:"othersCleared"`
	Navigated      bool   `json:"navigated"`
	Route          string `json:"route,omitempty"`
	IdentityError  string `json:"identityError,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Route("/v1", func(r chi.Router) {
		r.Get("/session", h.getSession)
		r.Put("/session", h.putSession)
		r.Patch("/session", h.patchSession)
		r.Delete("/session", h.deleteSession)
		r.Post("/signin", h.signIn)
		r.Post("/signout", h.signOut)

		r.Route("/current", func(r chi.Router) {
			r.Get("/hotel", getCell(h.C.Hotel.Cell))
			r.Put("/hotel", putCell(h.v, h.C.Hotel.Cell))
			r.Delete("/hotel", clearCell(h.C.Hotel.Cell))
			r.Post("/hotel/select", h.selectHotel)
			r.Post("/hotel/refresh", h.refreshHotel)

			r.Get("/hotel-id", getCell(h.C.HotelID.Cell))
			r.Put("/hotel-id", h.putHotelID)
			r.Delete("/hotel-id", clearCell(h.C.HotelID.Cell))

			r.Get("/group", getCell(h.C.Group.Cell))
			r.Put("/group", h.putGroup)
			r.Delete("/group", clearCell(h.C.Group.Cell))

			r.Get("/booking", getCell(h.C.Booking.Cell))
			r.Put("/booking", putCell(h.v, h.C.Booking.Cell))
			r.Post("/booking", h.createBooking)
			r.Delete("/booking", clearCell(h.C.Booking.Cell))
		})
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeErr maps domain and store errors onto problems.
func writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrNoGateway):
		writeProblem(w, http.StatusServiceUnavailable, "API Not Configured", err.Error())
	case errors.Is(err, app.ErrNoSelection):
		writeProblem(w, http.StatusConflict, "Nothing Selected", err.Error())
	case errors.Is(err, app.ErrSignInUnsupported):
		writeProblem(w, http.StatusNotImplemented, "Sign-In Unsupported", err.Error())
	case errors.Is(err, identity.ErrMalformedToken):
		writeProblem(w, http.StatusBadRequest, "Invalid Token", err.Error())
	case errors.Is(err, app.ErrTokenExpired), errors.Is(err, domain.ErrUnauthorized):
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeProblem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error())
	default:
		writeProblem(w, http.StatusBadGateway, "Upstream Error", err.Error())
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// writeJSON sends v with a weak ETag and honours If-None-Match on reads.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	etag, body := calcETagAndBody(v)
	if body == nil {
		writeProblem(w, http.StatusInternalServerError, "Encoding Failed", "")
		return
	}
	if r.Method == http.MethodGet {
		if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
			w.Header().Set("ETag", etag)
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("failed to write body")
	}
}

// decode reads a JSON body into dst and validates it when dst is a struct.
func decode(v *validator.Validate, w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			writeProblem(w, http.StatusBadRequest, "Invalid Body", "request body is empty")
			return false
		}
		writeProblem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return false
	}
	if err := v.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			writeProblem(w, http.StatusUnprocessableEntity, "Validation Failed", strings.Join(msgs, "; "))
			return false
		}
		writeProblem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return false
	}
	return true
}

// ---- session ----

func (h *Handlers) getSession(w http.ResponseWriter, r *http.Request) {
	u := h.C.Session.Get(r.Context())
	if u == nil {
		writeProblem(w, http.StatusNotFound, "Not Found", "no stored session")
		return
	}
	writeJSON(w, r, http.StatusOK, u)
}

func (h *Handlers) putSession(w http.ResponseWriter, r *http.Request) {
	var p domain.ProfilePatch
	if !decode(h.v, w, r, &p) {
		return
	}
	if !h.C.Session.Store(r.Context(), p) {
		writeProblem(w, http.StatusServiceUnavailable, "Storage Unavailable", "session was not stored")
		return
	}
	writeJSON(w, r, http.StatusOK, h.C.Session.Get(r.Context()))
}

func (h *Handlers) patchSession(w http.ResponseWriter, r *http.Request) {
	var p domain.ProfilePatch
	if !decode(h.v, w, r, &p) {
		return
	}
	if !h.C.Session.Update(r.Context(), p) {
		if h.C.Session.Get(r.Context()) == nil {
			writeProblem(w, http.StatusNotFound, "Not Found", "no stored session to update")
			return
		}
		writeProblem(w, http.StatusServiceUnavailable, "Storage Unavailable", "session was not updated")
		return
	}
	writeJSON(w, r, http.StatusOK, h.C.Session.Get(r.Context()))
}

func (h *Handlers) deleteSession(w http.ResponseWriter, r *http.Request) {
	if !h.C.Session.Clear(r.Context()) {
		writeProblem(w, http.StatusServiceUnavailable, "Storage Unavailable", "session was not cleared")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) signIn(w http.ResponseWriter, r *http.Request) {
	var b signInBody
	if !decode(h.v, w, r, &b) {
		return
	}
	u, err := h.C.SignIn(r.Context(), b.Token)
	if err != nil {
		writeErr(w, err)
		return
	}
	if u == nil {
		// signed in, but the profile could not be written
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, r, http.StatusOK, u)
}

func (h *Handlers) signOut(w http.ResponseWriter, r *http.Request) {
	rep, err := h.C.SignOut(r.Context())
	out := signOutView{
		SessionCleared: rep.SessionCleared,
		HotelCleared:   rep.HotelCleared,
		OthersCleared:  rep.OthersCleared,
		Navigated:      rep.Navigated,
	}
	if h.Nav != nil {
		out.Route = h.Nav.Route()
	}
	if err != nil {
		out.IdentityError = err.Error()
	}
	writeJSON(w, r, http.StatusOK, out)
}

// ---- current selections ----

func getCell[T any](c *app.Cell[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, ok := c.Current()
		if !ok {
			writeProblem(w, http.StatusNotFound, "Not Found", "no current "+c.Name())
			return
		}
		writeJSON(w, r, http.StatusOK, cellView{State: c.State().String(), Value: v})
	}
}

func putCell[T any](v *validator.Validate, c *app.Cell[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var val T
		if !decode(v, w, r, &val) {
			return
		}
		respondSet(w, r, c, c.SetCurrent(r.Context(), &val))
	}
}

func clearCell[T any](c *app.Cell[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := c.ClearCurrent(r.Context())
		w.Header().Set("X-Persisted", persisted(r, p))
		w.WriteHeader(http.StatusNoContent)
	}
}

// respondSet waits for the durable write so the caller learns whether it
// landed. The in-memory value is already live either way.
func respondSet[T any](w http.ResponseWriter, r *http.Request, c *app.Cell[T], p *app.Pending) {
	w.Header().Set("X-Persisted", persisted(r, p))
	v, ok := c.Current()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, r, http.StatusOK, cellView{State: c.State().String(), Value: v})
}

func persisted(r *http.Request, p *app.Pending) string {
	if err := p.Wait(r.Context()); err != nil {
		return "false"
	}
	return "true"
}

func (h *Handlers) putHotelID(w http.ResponseWriter, r *http.Request) {
	var b idBody
	if !decode(h.v, w, r, &b) {
		return
	}
	id := b.ID.String()
	respondSet(w, r, h.C.HotelID.Cell, h.C.HotelID.SetCurrent(r.Context(), &id))
}

func (h *Handlers) putGroup(w http.ResponseWriter, r *http.Request) {
	var b groupBody
	if !decode(h.v, w, r, &b) {
		return
	}
	respondSet(w, r, h.C.Group.Cell, h.C.Group.SetCurrentGroup(r.Context(), b.ID))
}

func (h *Handlers) selectHotel(w http.ResponseWriter, r *http.Request) {
	var b idBody
	if !decode(h.v, w, r, &b) {
		return
	}
	if _, err := h.C.Hotel.Select(r.Context(), b.ID); err != nil {
		writeErr(w, err)
		return
	}
	getCell(h.C.Hotel.Cell)(w, r)
}

func (h *Handlers) refreshHotel(w http.ResponseWriter, r *http.Request) {
	if _, err := h.C.Hotel.Refresh(r.Context()); err != nil {
		writeErr(w, err)
		return
	}
	getCell(h.C.Hotel.Cell)(w, r)
}

func (h *Handlers) createBooking(w http.ResponseWriter, r *http.Request) {
	var req domain.BookingRequest
	if !decode(h.v, w, r, &req) {
		return
	}
	if _, err := h.C.Booking.Create(r.Context(), req); err != nil {
		writeErr(w, err)
		return
	}
	w.Header().Set("Location", "/v1/current/booking")
	c := h.C.Booking.Cell
	v, _ := c.Current()
	writeJSON(w, r, http.StatusCreated, cellView{State: c.State().String(), Value: v})
}
