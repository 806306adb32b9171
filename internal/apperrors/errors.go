package apperrors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	ErrTransport       = errors.New("storefront api is unreachable")
	ErrUnauthorized    = errors.New("authentication failed")
	ErrValidation      = errors.New("request was rejected")
	ErrNotFound        = errors.New("resource not found")
	ErrServer          = errors.New("storefront api error")
	ErrNoToken         = errors.New("not logged in")
	ErrCircuitOpen     = errors.New("storefront api is temporarily unavailable")
	ErrInvalidResponse = errors.New("unexpected response from storefront api")
)

var statusMap = map[int]error{
	http.StatusBadRequest:          ErrValidation,
	http.StatusUnprocessableEntity: ErrValidation,
	http.StatusUnauthorized:        ErrUnauthorized,
	http.StatusForbidden:           ErrUnauthorized,
	http.StatusNotFound:            ErrNotFound,
}

// APIError is a non-2xx response from the storefront API.
type APIError struct {
	Status  int
	Message string
	Body    []byte
	Fields  map[string][]string
}

// NewAPIError builds an APIError from a response status and raw body.
func NewAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status, Body: body}
	apiErr.Message, apiErr.Fields = parseErrorBody(body)
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

func (e *APIError) Error() string {
	return fmt.Sprintf("storefront api returned %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	if sentinel, ok := statusMap[e.Status]; ok {
		return sentinel
	}
	if e.Status >= 500 {
		return ErrServer
	}
	return ErrValidation
}

// Message returns the text stores keep in their Error field.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	for _, sentinel := range []error{ErrCircuitOpen, ErrNoToken, ErrInvalidResponse, ErrTransport} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}

// StatusCode returns the HTTP status of err, or 0 when err did not come from a response.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// parseErrorBody understands {"detail": ...}, {"message": ...}, {"error": ...}
// and field error maps like {"password": ["too short"]}.
func parseErrorBody(body []byte) (string, map[string][]string) {
	if len(body) == 0 {
		return "", nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		text := strings.TrimSpace(string(body))
		if len(text) > 200 || strings.HasPrefix(text, "<") {
			return "", nil
		}
		return text, nil
	}

	for _, key := range []string{"detail", "message", "error"} {
		if v, ok := raw[key]; ok {
			var s string
			if json.Unmarshal(v, &s) == nil && s != "" {
				return s, nil
			}
		}
	}

	fields := make(map[string][]string)
	for key, v := range raw {
		var list []string
		if json.Unmarshal(v, &list) == nil && len(list) > 0 {
			fields[key] = list
			continue
		}
		var s string
		if json.Unmarshal(v, &s) == nil && s != "" {
			fields[key] = []string{s}
		}
	}
	if len(fields) == 0 {
		return "", nil
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == "non_field_errors" {
			parts = append(parts, strings.Join(fields[k], " "))
			continue
		}
		parts = append(parts, k+": "+strings.Join(fields[k], " "))
	}
	return strings.Join(parts, "; "), fields
}
