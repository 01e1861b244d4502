package cerr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
)

func serve(t *testing.T, h http.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	NewJSONResponseChiMiddleware()(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	return rec
}

func TestMiddleware_WritesResponse(t *testing.T) {
	rec := serve(t, func(w http.ResponseWriter, r *http.Request) {
		SetJSONResponse(r.Context(), map[string]string{"hello": "world"})
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"hello":"world"}`, rec.Body.String())
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
}

func TestMiddleware_NoContent(t *testing.T) {
	rec := serve(t, func(w http.ResponseWriter, r *http.Request) {
		SetJSONResponseWithStatus(r.Context(), http.StatusNoContent, nil)
	})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestMiddleware_WritesErrorWithDetails(t *testing.T) {
	underlying := errors.New("slot taken")
	rec := serve(t, func(w http.ResponseWriter, r *http.Request) {
		SetJSONError(r.Context(), NewError(AlreadyExists, "pick another time", underlying).
			AddDetailMessageWithCode("2024-03-01 10:00 is booked", "slot_conflict"))
	})
	require.Equal(t, http.StatusConflict, rec.Code)

	var body httpError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "AlreadyExists", body.Code)
	assert.Equal(t, "pick another time", body.Message)
	require.Len(t, body.Details, 1)
	assert.Equal(t, "slot_conflict", body.Details[0].RuleID)
}

func TestMiddleware_UnknownErrorIsHidden(t *testing.T) {
	rec := serve(t, func(w http.ResponseWriter, r *http.Request) {
		SetJSONError(r.Context(), errors.New("database password is hunter2"))
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "hunter2")
}

func TestIsCode(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewError(NotFound, "task not found", nil))
	assert.True(t, IsCode(err, NotFound))
	assert.False(t, IsCode(err, Internal))
	assert.False(t, IsCode(errors.New("plain"), NotFound))
}

func TestError_UnwrapsUnderlying(t *testing.T) {
	sentinel := errors.New("sentinel")
	err := NewError(AlreadyExists, "conflict", sentinel)
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, "[AlreadyExists] conflict: sentinel", err.Error())
}

func TestError_StackOnlyForServerErrors(t *testing.T) {
	assert.Empty(t, NewError(InvalidArgument, "bad", nil).Stack)
	assert.NotEmpty(t, NewError(Internal, "boom", nil).Stack)
}

func TestNewErrorWithDetails_RendersEveryViolation(t *testing.T) {
	rec := serve(t, func(w http.ResponseWriter, r *http.Request) {
		SetJSONError(r.Context(), NewErrorWithDetails(InvalidArgument, "invalid client", nil, []proto.Message{
			NewViolation("name is required", "required"),
			NewViolation("phone is required", "required"),
		}))
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body httpError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Details, 2)
	assert.Equal(t, httpErrorDetail{Message: "name is required", RuleID: "required"}, body.Details[0])
	assert.Equal(t, httpErrorDetail{Message: "phone is required", RuleID: "required"}, body.Details[1])
}
