package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewAPIError(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		message  string
		sentinel error
	}{
		{"detail", http.StatusUnauthorized, `{"detail":"Token is invalid or expired"}`, "Token is invalid or expired", ErrUnauthorized},
		{"message", http.StatusNotFound, `{"message":"No Product matches the given query."}`, "No Product matches the given query.", ErrNotFound},
		{"field errors", http.StatusBadRequest, `{"postal_code":["This field is required."],"city":["This field is required."]}`, "city: This field is required.; postal_code: This field is required.", ErrValidation},
		{"non field errors", http.StatusBadRequest, `{"non_field_errors":["Passwords do not match"]}`, "Passwords do not match", ErrValidation},
		{"empty body", http.StatusInternalServerError, ``, "Internal Server Error", ErrServer},
		{"html body", http.StatusBadGateway, `<html>bad gateway</html>`, "Bad Gateway", ErrServer},
		{"plain text", http.StatusConflict, `already in wishlist`, "already in wishlist", ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewAPIError(tt.status, []byte(tt.body))
			assert.Equal(t, tt.message, err.Message)
			assert.ErrorIs(t, err, tt.sentinel)
			assert.Equal(t, tt.status, StatusCode(fmt.Errorf("failed: %w", err)))
		})
	}
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "", Message(nil))
	assert.Equal(t, "bad input", Message(fmt.Errorf("failed to add to cart: %w", NewAPIError(400, []byte(`{"detail":"bad input"}`)))))
	assert.Equal(t, ErrTransport.Error(), Message(fmt.Errorf("%w: dial tcp: refused", ErrTransport)))
	assert.Equal(t, ErrNoToken.Error(), Message(ErrNoToken))
	assert.Equal(t, "boom", Message(errors.New("boom")))
}

func TestAPIErrorFields(t *testing.T) {
	err := NewAPIError(http.StatusBadRequest, []byte(`{"email":"already registered"}`))
	assert.Equal(t, []string{"already registered"}, err.Fields["email"])
	assert.Contains(t, err.Error(), "400")
}

func TestSentinelsAreLowercase(t *testing.T) {
	for _, err := range []error{ErrTransport, ErrUnauthorized, ErrValidation, ErrNotFound, ErrServer, ErrNoToken, ErrCircuitOpen, ErrInvalidResponse} {
		msg := err.Error()
		assert.Equal(t, strings.ToLower(msg[:1]), msg[:1], msg)
	}
}
