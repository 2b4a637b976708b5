package validation_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readingnook/readingnook-server/internal/errors"
	"github.com/readingnook/readingnook-server/internal/validation"
)

type signupRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=1024"`
}

type shelfRequest struct {
	Status *string `json:"status,omitempty" validate:"omitempty,reading_status"`
	Format string  `json:"format" validate:"omitempty,book_format"`
	Rating int     `json:"rating" validate:"gte=0,lte=5"`
}

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()

	assert.NoError(t, v.Validate(signupRequest{
		Username: "ada",
		Email:    "ada@example.com",
		Password: "password123",
	}))

	reading := "reading"
	assert.NoError(t, v.Validate(shelfRequest{Status: &reading, Format: "ebook", Rating: 5}))
	assert.NoError(t, v.Validate(shelfRequest{}))
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()
	unknown := "abandoned"

	tests := []struct {
		name      string
		req       any
		wantField string
	}{
		{"missing username", signupRequest{Email: "a@example.com", Password: "password123"}, "username"},
		{"invalid email", signupRequest{Username: "a", Email: "nope", Password: "password123"}, "email"},
		{"short password", signupRequest{Username: "a", Email: "a@example.com", Password: "short"}, "password"},
		{"long password", signupRequest{Username: "a", Email: "a@example.com", Password: strings.Repeat("x", 1025)}, "password"},
		{"unknown status", shelfRequest{Status: &unknown}, "status"},
		{"unknown format", shelfRequest{Format: "scroll"}, "format"},
		{"rating too high", shelfRequest{Rating: 6}, "rating"},
		{"rating negative", shelfRequest{Rating: -1}, "rating"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			require.Error(t, err)

			var domainErr *errors.Error
			require.True(t, errors.As(err, &domainErr))
			assert.Equal(t, http.StatusBadRequest, domainErr.HTTPStatus())
			assert.Contains(t, domainErr.Message, tt.wantField)

			details, ok := domainErr.Details.(map[string]string)
			require.True(t, ok)
			assert.Contains(t, details, tt.wantField)
		})
	}
}

func TestValidator_JSONFieldNames(t *testing.T) {
	v := validation.New()

	err := v.Validate(signupRequest{Password: "password123"})
	require.Error(t, err)

	assert.Equal(t, "invalid fields: email, username", err.Error())
	assert.NotContains(t, err.Error(), "Email")
}

func TestValidator_NonStruct(t *testing.T) {
	v := validation.New()
	err := v.Validate("not a struct")
	require.Error(t, err)
	assert.False(t, errors.Is(err, errors.ErrValidation))
}
