package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetAppErrorUnwraps(t *testing.T) {
	base := NewNotFoundError(ReasonProductNotFound, "Product")
	wrapped := fmt.Errorf("create recipe: %w", base)

	got := GetAppError(wrapped)
	assert.Equal(t, http.StatusNotFound, got.Code)
	assert.Equal(t, "Product not found", got.Message)
	assert.True(t, HasReason(wrapped, ReasonProductNotFound))
	assert.True(t, errors.Is(wrapped, &AppError{Reason: ReasonProductNotFound}))
}

func TestGetAppErrorFallsBackToInternal(t *testing.T) {
	got := GetAppError(errors.New("connection reset"))
	assert.Equal(t, http.StatusInternalServerError, got.Code)
	assert.False(t, HasReason(errors.New("x"), ReasonValidation))
}

func TestValidationErrorCarriesFields(t *testing.T) {
	err := NewValidationError(ReasonRecipeValidation, []FieldError{
		{Field: "ingredients[0].unit", Code: CodeUnsupportedUnit, Message: "unit cup is not supported"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, err.Code)
	assert.Len(t, err.Errors, 1)
}
