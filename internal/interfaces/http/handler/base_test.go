package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fixflow/backend/internal/domain/access"
	"github.com/fixflow/backend/internal/domain/shared"
	"github.com/fixflow/backend/internal/infrastructure/logger"
	"github.com/fixflow/backend/internal/interfaces/http/dto"
	"github.com/fixflow/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestContext(method, target string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, nil)
	return c, w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestBaseHandlerSuccess(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(http.MethodGet, "/")

	h.Success(c, map[string]string{"key": "value"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decodeResponse(t, w).Success)
}

func TestBaseHandlerSuccessWithMeta(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(http.MethodGet, "/")

	h.SuccessWithMeta(c, []string{"item1", "item2"}, 100, 0, 0)

	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(100), resp.Meta.Total)
	assert.Equal(t, 1, resp.Meta.Page, "unset page falls back to the first")
	assert.Equal(t, 20, resp.Meta.PageSize)
}

func TestBaseHandlerCreated(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(http.MethodPost, "/")

	h.Created(c, map[string]string{"id": "123"})

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestBaseHandlerHandleError_DomainKinds(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{shared.NotFound("work order"), http.StatusNotFound},
		{shared.PreconditionFailed("INVALID_TRANSITION", "order is not in progress"), http.StatusPreconditionFailed},
		{shared.Forbidden("ROLE_NOT_ALLOWED", "only the assigned technician may start"), http.StatusForbidden},
		{shared.Conflict("ACTIVE_ORDER_EXISTS", "request already has an active order"), http.StatusConflict},
		{shared.ValidationFailed("INVALID_CURRENCY", "unknown currency"), http.StatusUnprocessableEntity},
		{fmt.Errorf("accept: %w", shared.Conflict("STALE_STATE", "retry")), http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			h := &BaseHandler{}
			c, w := newTestContext(http.MethodPost, "/")
			c.Set(middleware.RequestIDKey, "req-1")

			h.HandleError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, string(shared.KindOf(tt.err)), resp.Error.Kind)
			assert.Equal(t, "req-1", resp.Error.RequestID)
			assert.Equal(t, string(shared.KindOf(tt.err)), c.GetString(middleware.ErrorKindKey))
		})
	}
}

func TestBaseHandlerHandleError_Internal(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	h := &BaseHandler{}
	c, w := newTestContext(http.MethodGet, "/")
	c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context(), zap.New(core)))

	h.HandleError(c, fmt.Errorf("find order: %w", assert.AnError))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, dto.ErrCodeInternal, resp.Error.Code)
	assert.Equal(t, "An unexpected error occurred", resp.Error.Message)
	assert.NotContains(t, w.Body.String(), assert.AnError.Error(), "internal detail stays out of the response")
	assert.Equal(t, 1, logs.FilterMessage("request failed").Len())
	assert.Empty(t, c.GetString(middleware.ErrorKindKey))
}

func TestBaseHandlerHandleError_Nil(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(http.MethodGet, "/")

	h.HandleError(c, nil)

	assert.Equal(t, 0, w.Body.Len())
}

func TestBaseHandlerPrincipal(t *testing.T) {
	h := &BaseHandler{}

	t.Run("missing principal answers 401", func(t *testing.T) {
		c, w := newTestContext(http.MethodGet, "/")
		_, ok := h.principal(c)
		assert.False(t, ok)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("attached principal is returned", func(t *testing.T) {
		c, _ := newTestContext(http.MethodGet, "/")
		want := access.NewAgencyPrincipal(uuid.New(), uuid.New())
		c.Request = c.Request.WithContext(access.WithPrincipal(c.Request.Context(), want))
		got, ok := h.principal(c)
		require.True(t, ok)
		assert.Equal(t, want.SubjectID, got.SubjectID)
	})
}

func TestBaseHandlerPathID(t *testing.T) {
	h := &BaseHandler{}

	c, w := newTestContext(http.MethodGet, "/")
	c.Params = gin.Params{{Key: "id", Value: "not-a-uuid"}}
	_, ok := h.pathID(c, "id")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	id := uuid.New()
	c, _ = newTestContext(http.MethodGet, "/")
	c.Params = gin.Params{{Key: "id", Value: id.String()}}
	got, ok := h.pathID(c, "id")
	require.True(t, ok)
	assert.Equal(t, id, got)
}
