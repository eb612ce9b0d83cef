package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_ErrorString(t *testing.T) {
	err := NewValidationError("query cannot be empty")
	assert.Equal(t, "VALIDATION: query cannot be empty", err.Error())

	wrapped := NewStoreFetchFailed("entities", errors.New("timeout"))
	assert.Contains(t, wrapped.Error(), "STORE")
	assert.Contains(t, wrapped.Error(), "caused by: timeout")
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewStoreFetchFailed("notes", cause)

	assert.ErrorIs(t, err, cause)
}

func TestTypePredicates(t *testing.T) {
	assert.True(t, IsValidation(NewValidationError("bad")))
	assert.True(t, IsNotFound(NewEntityNotFound("e1")))
	assert.True(t, IsNotFound(NewCognitiveNodeNotFound("n1")))
	assert.True(t, IsConflict(NewConflictError("exists")))
	assert.True(t, IsStore(NewStorePersistFailed("entities", errors.New("x"))))
	assert.True(t, IsType(NewUnavailableError("search"), ErrorTypeUnavailable))
	assert.True(t, IsValidation(NewInvalidLayerAssignment("fusion")))

	assert.False(t, IsNotFound(NewValidationError("bad")))
	assert.False(t, IsAppError(errors.New("plain")))
}

func TestHTTPStatusMapping(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, NewValidationError("x").HTTPStatus)
	assert.Equal(t, http.StatusNotFound, NewEntityNotFound("x").HTTPStatus)
	assert.Equal(t, http.StatusConflict, NewConflictError("x").HTTPStatus)
	assert.Equal(t, http.StatusServiceUnavailable, NewUnavailableError("x").HTTPStatus)
	assert.Equal(t, http.StatusInternalServerError, NewStoreFetchFailed("x", nil).HTTPStatus)
	assert.Equal(t, http.StatusBadGateway, NewExternalError("x", nil).HTTPStatus)
}

func TestDomainConstructorCodes(t *testing.T) {
	assert.Equal(t, CodeEntityNotFound, NewEntityNotFound("x").Code)
	assert.Equal(t, CodeCognitiveNodeNotFound, NewCognitiveNodeNotFound("x").Code)
	assert.Equal(t, CodeInvalidLayerAssignment, NewInvalidLayerAssignment("fusion").Code)
	assert.Equal(t, CodeStoreFetchFailed, NewStoreFetchFailed("x", nil).Code)
	assert.Equal(t, CodeStorePersistFailed, NewStorePersistFailed("x", nil).Code)

	// Reserved until threshold gating is switched on
	assert.Equal(t, "SYNC_THRESHOLD_NOT_MET", CodeSyncThresholdNotMet)
}

func TestGetAppError_ThroughWrapping(t *testing.T) {
	inner := NewEntityNotFound("e1")
	outer := fmt.Errorf("loading entity: %w", inner)

	got := GetAppError(outer)
	require.NotNil(t, got)
	assert.Equal(t, ErrorTypeNotFound, got.Type)

	assert.Nil(t, GetAppError(errors.New("plain")))
	assert.Nil(t, GetAppError(nil))
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, "ignored"))

	appErr := NewStoreFetchFailed("entities", errors.New("x"))
	wrapped := Wrap(appErr, "full sync")
	require.True(t, IsStore(wrapped), "wrapping keeps the classification")
	assert.Contains(t, wrapped.Error(), "full sync")

	plain := Wrap(errors.New("boom"), "stage failed")
	assert.True(t, IsType(plain, ErrorTypeInternal))
	assert.Contains(t, plain.Error(), "stage failed")
}

func TestWithHelpers(t *testing.T) {
	err := NewValidationError("bad").
		WithCode("QUERY_EMPTY").
		WithDetails(map[string]interface{}{"field": "query"})

	assert.Equal(t, "QUERY_EMPTY", err.Code)
	assert.Equal(t, "query", err.Details["field"])
}
