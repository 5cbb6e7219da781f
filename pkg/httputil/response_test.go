package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/medilab/lab-api/pkg/errors"
)

func respond(t *testing.T, err error) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	RespondWithError(c, err)
	return w
}

func TestErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{apperrors.Validation("bad input", nil), http.StatusBadRequest},
		{apperrors.NotFound("record", nil), http.StatusNotFound},
		{apperrors.Precondition("not allowed yet"), http.StatusUnprocessableEntity},
		{apperrors.InvalidTransition("ordered", "reported"), http.StatusUnprocessableEntity},
		{apperrors.NewPaymentInsufficient(100, 40), http.StatusPaymentRequired},
		{apperrors.Conflict("record"), http.StatusConflict},
		{apperrors.Unauthorized("invalid token"), http.StatusUnauthorized},
		{apperrors.Forbidden("no access"), http.StatusForbidden},
		{apperrors.Internal(errors.New("boom")), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		w := respond(t, tc.err)
		assert.Equal(t, tc.status, w.Code, "error %v", tc.err)
	}
}

func TestInternalErrorsAreOpaque(t *testing.T) {
	w := respond(t, apperrors.Internal(errors.New("pq: connection refused")))

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "internal server error", resp.Message)
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestPaymentInsufficientCarriesDetails(t *testing.T) {
	w := respond(t, apperrors.NewPaymentInsufficient(50000, 40000))

	var resp struct {
		Error struct {
			Details struct {
				RequiredCents int64 `json:"required_cents"`
				PaidCents     int64 `json:"paid_cents"`
			} `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(50000), resp.Error.Details.RequiredCents)
	assert.Equal(t, int64(40000), resp.Error.Details.PaidCents)
}
