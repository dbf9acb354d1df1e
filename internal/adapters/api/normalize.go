package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"hotelstay/internal/domain"
)

// SoftNotFoundMessage is the one error body lookups treat as a normal result.
const SoftNotFoundMessage = "User not found"

const maxBody = 8 << 20

// ErrResponseTooLarge is returned for bodies over the read limit instead of
// handing back a truncated payload.
var ErrResponseTooLarge = fmt.Errorf("response body exceeds %d bytes", maxBody)

// Result is a normalized successful response. At most one of JSON, Text and
// SoftError is set; none set means the body was empty (null).
type Result struct {
	JSON      json.RawMessage
	Text      string
	SoftError string
}

func (r Result) IsNull() bool { return r.JSON == nil && r.Text == "" && r.SoftError == "" }

// Decode unmarshals the JSON payload into dst.
func (r Result) Decode(dst any) error {
	if r.JSON == nil {
		return fmt.Errorf("decode: response has no JSON payload")
	}
	return json.Unmarshal(r.JSON, dst)
}

// APIError is a non-2xx response turned into an error with a readable message.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string { return e.Message }

func (e *APIError) Is(target error) bool {
	switch target {
	case domain.ErrNotFound:
		return e.Status == http.StatusNotFound
	case domain.ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case domain.ErrForbidden:
		return e.Status == http.StatusForbidden
	}
	return false
}

func genericError(status int) *APIError {
	return &APIError{Status: status, Message: fmt.Sprintf("API error: %d", status)}
}

func isJSON(resp *http.Response) bool {
	ct := strings.ToLower(resp.Header.Get("Content-Type"))
	return strings.Contains(ct, "application/json") || strings.Contains(ct, "+json")
}

// Normalize reads and closes resp.Body and returns either the payload or an error.
func Normalize(resp *http.Response) (Result, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody+1))
	if err != nil {
		return Result{}, fmt.Errorf("read response body: %w", err)
	}
	if len(body) > maxBody {
		return Result{}, fmt.Errorf("status %d: %w", resp.StatusCode, ErrResponseTooLarge)
	}
	trimmed := bytes.TrimSpace(body)
	ok := resp.StatusCode >= 200 && resp.StatusCode < 300

	if ok {
		if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
			return Result{}, nil
		}
		if isJSON(resp) {
			if !json.Valid(trimmed) {
				return Result{}, fmt.Errorf("invalid JSON response (status %d)", resp.StatusCode)
			}
			return Result{JSON: json.RawMessage(trimmed)}, nil
		}
		// some endpoints answer JSON with a text/plain content type
		if json.Valid(trimmed) {
			return Result{JSON: json.RawMessage(trimmed)}, nil
		}
		return Result{Text: string(body)}, nil
	}

	if isJSON(resp) {
		var eb struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		if err := json.Unmarshal(trimmed, &eb); err == nil {
			if resp.StatusCode == http.StatusNotFound && eb.Message == SoftNotFoundMessage {
				return Result{SoftError: SoftNotFoundMessage}, nil
			}
			msg := eb.Message
			if msg == "" {
				msg = eb.Error
			}
			if msg == "" {
				return Result{}, genericError(resp.StatusCode)
			}
			return Result{}, &APIError{Status: resp.StatusCode, Message: msg}
		}
	}

	log.Error().
		Int("status", resp.StatusCode).
		Str("body", truncate(string(trimmed), 512)).
		Msg("non-JSON error response")
	return Result{}, genericError(resp.StatusCode)
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "…"
}
