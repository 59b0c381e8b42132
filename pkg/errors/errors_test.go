package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataFor(t *testing.T) {
	meta := MetadataFor(CodeStateConflict)
	assert.Equal(t, http.StatusUnprocessableEntity, meta.HTTPStatus)
	assert.True(t, meta.DetailsAllowed)

	meta = MetadataFor(Code("SOMETHING_ELSE"))
	assert.Equal(t, http.StatusInternalServerError, meta.HTTPStatus)
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("row locked")
	err := Wrap(CodeDependency, cause, "update order")

	require.NotNil(t, err)
	assert.Equal(t, CodeDependency, err.Code())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "DEPENDENCY_ERROR: update order", err.Error())
}

func TestAsUnwrapsNested(t *testing.T) {
	inner := New(CodeConflict, "order is already paid")
	outer := fmt.Errorf("handler: %w", inner)

	typed := As(outer)
	require.NotNil(t, typed)
	assert.Equal(t, CodeConflict, typed.Code())
	assert.Equal(t, "order is already paid", typed.Message())
}

func TestAsNonTyped(t *testing.T) {
	assert.Nil(t, As(fmt.Errorf("plain")))
	assert.Nil(t, As(nil))
}

func TestWithDetails(t *testing.T) {
	err := New(CodeValidation, "bad items").WithDetails(map[string]string{"items": "must not be empty"})
	require.NotNil(t, err.Details())

	dump := Dump(err)
	assert.Equal(t, CodeValidation, dump.Code)
	assert.Len(t, dump.Chain, 1)
}
