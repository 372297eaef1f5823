package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_UnwrapAndStatus(t *testing.T) {
	cause := stderrors.New("card_declined")
	err := fmt.Errorf("create intent: %w", ErrPaymentFailed.Wrap(cause))

	assert.True(t, stderrors.Is(err, cause))
	assert.Equal(t, http.StatusBadGateway, StatusCode(err))
	assert.Equal(t, http.StatusInternalServerError, StatusCode(cause))
	// sentinel is untouched
	assert.Nil(t, ErrPaymentFailed.Err)
}

func TestErrorMiddleware_RendersFailureShape(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorMiddleware())
	r.GET("/bad", func(c *gin.Context) {
		_ = c.Error(ErrValidation.Wrap(stderrors.New("amount is required")))
	})
	r.GET("/plain", func(c *gin.Context) {
		_ = c.Error(stderrors.New("boom"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/bad", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Invalid request", body["message"])
	assert.Equal(t, "amount is required", body["error"])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/plain", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Nil(t, ErrInternalServer.Err)
}
