package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fixflow/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type registerCompanyInput struct {
	Name     string `json:"name" binding:"required,min=1,max=200"`
	Email    string `json:"email" binding:"omitempty,email"`
	Currency string `json:"currency" binding:"omitempty,currency"`
	Mode     string `json:"mode" binding:"omitempty,oneof=BROADCAST RESTRICTED"`
}

func newValidationRouter(t *testing.T) *gin.Engine {
	t.Helper()
	require.NoError(t, SetupValidator())
	require.NoError(t, SetupValidator(), "setup is idempotent")

	router := gin.New()
	router.Use(RequestID())
	router.POST("/companies", func(c *gin.Context) {
		var in registerCompanyInput
		if err := c.ShouldBindJSON(&in); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusCreated, dto.NewSuccessResponse(in))
	})
	return router
}

func postJSON(router *gin.Engine, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/companies", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeValidation(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)

	byField := make(map[string]string, len(resp.Error.Details))
	for _, d := range resp.Error.Details {
		byField[d.Field] = d.Message
	}
	return byField
}

func TestValidation_ReportsJSONFieldNames(t *testing.T) {
	router := newValidationRouter(t)

	w := postJSON(router, `{"email":"not-an-email","currency":"EURO","mode":"everyone"}`, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	fields := decodeValidation(t, w)
	assert.Equal(t, "This field is required", fields["name"])
	assert.Equal(t, "Invalid email format", fields["email"])
	assert.Equal(t, "Must be an ISO 4217 currency code", fields["currency"])
	assert.Equal(t, "Must be one of: BROADCAST RESTRICTED", fields["mode"])
}

func TestValidation_CurrencyTag(t *testing.T) {
	router := newValidationRouter(t)

	tests := []struct {
		currency string
		status   int
	}{
		{"EUR", http.StatusCreated},
		{"eur", http.StatusCreated},
		{"", http.StatusCreated},
		{"EU", http.StatusBadRequest},
		{"QQQ", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.currency, func(t *testing.T) {
			w := postJSON(router, `{"name":"Acme","currency":"`+tt.currency+`"}`, nil)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestValidation_MalformedJSON(t *testing.T) {
	router := newValidationRouter(t)

	w := postJSON(router, `{"name":`, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, decodeValidation(t, w))
}

func TestValidation_EchoesRequestID(t *testing.T) {
	router := newValidationRouter(t)

	w := postJSON(router, `{}`, map[string]string{RequestIDHeader: "req-42"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "req-42", resp.Error.RequestID)
}

func TestValidationMessage(t *testing.T) {
	type input struct {
		Reason string `validate:"max=5"`
		Amount int    `validate:"gt=0"`
		Count  int    `validate:"min=2"`
	}
	err := validator.New().Struct(input{Reason: "far too long", Amount: 0, Count: 1})
	var fieldErrs validator.ValidationErrors
	require.ErrorAs(t, err, &fieldErrs)

	messages := make(map[string]string)
	for _, e := range fieldErrs {
		messages[e.Field()] = validationMessage(e)
	}
	assert.Equal(t, "Must be at most 5 characters", messages["Reason"])
	assert.Equal(t, "Must be greater than 0", messages["Amount"])
	assert.Equal(t, "Must be at least 2", messages["Count"])
}
