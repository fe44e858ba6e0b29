package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRequest struct {
	Name      *string `json:"name" validate:"required"`
	ErrorType string  `json:"error_type" validate:"omitempty,max=10"`
	Retries   int     `json:"retries" validate:"gte=0,lte=5"`
}

func strPtr(s string) *string { return &s }

func TestValidateStruct(t *testing.T) {
	t.Run("valid struct", func(t *testing.T) {
		err := ValidateStruct(&testRequest{Name: strPtr("widget"), ErrorType: "database"})
		assert.NoError(t, err)
	})

	t.Run("present but empty name passes presence check", func(t *testing.T) {
		err := ValidateStruct(&testRequest{Name: strPtr("")})
		assert.NoError(t, err)
	})

	t.Run("missing required field", func(t *testing.T) {
		err := ValidateStruct(&testRequest{})
		require.Error(t, err)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "Validation failed: name is required", err.Error())
	})

	t.Run("multiple failures use json names in order", func(t *testing.T) {
		err := ValidateStruct(&testRequest{Name: strPtr("x"), ErrorType: "way-too-long-type", Retries: 9})
		require.Error(t, err)
		assert.Equal(t,
			"Validation failed: error_type must be at most 10; retries must be less than or equal to 5",
			err.Error())
	})
}
