package services_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"payment-gateway/models"
	"payment-gateway/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newBackendClient(url, statusPath string) *services.BackendClient {
	return services.NewBackendClient(services.BackendClientConfig{
		BaseURL:     url,
		ProfilePath: "/api/user",
		StatusPath:  statusPath,
		Timeout:     2 * time.Second,
	}, zap.NewNop())
}

func TestResolve_EmptyTokenMakesNoCall(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	res := newBackendClient(srv.URL, "").Resolve(testContext(t), "  ")

	assert.Equal(t, models.Anonymous, res)
	assert.Zero(t, atomic.LoadInt32(&hits))
}

func TestResolve_Authenticated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/user", r.URL.Path)
		assert.Equal(t, "Bearer sess-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"user":{"id":42,"email":"ada@example.com","name":"Ada","phone":"+15550100"}}`))
	}))
	defer srv.Close()

	res := newBackendClient(srv.URL, "").Resolve(testContext(t), "sess-token")

	require.True(t, res.Authenticated)
	require.NotNil(t, res.Identity)
	assert.Equal(t, "42", res.Identity.ID)
	assert.Equal(t, "ada@example.com", res.Identity.Email)
	assert.Equal(t, "Ada", res.Identity.Name)
	assert.Equal(t, "+15550100", res.Identity.Phone)
	assert.Equal(t, "42", res.UserID())
}

func TestResolve_StringID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"user":{"id":"u-7","email":"bob@example.com"}}`))
	}))
	defer srv.Close()

	res := newBackendClient(srv.URL, "").Resolve(testContext(t), "tok")

	require.True(t, res.Authenticated)
	assert.Equal(t, "u-7", res.Identity.ID)
}

func TestResolve_DegradesToAnonymous(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"rejected token": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Unauthenticated."}`))
		},
		"server error": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
		"missing user": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		},
		"empty user": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"user":{}}`))
		},
		"not json": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>login</html>`))
		},
	}

	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(handler)
			defer srv.Close()

			res := newBackendClient(srv.URL, "").Resolve(testContext(t), "tok")

			assert.False(t, res.Authenticated)
			assert.Nil(t, res.Identity)
		})
	}
}

func TestResolve_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	res := newBackendClient(url, "").Resolve(testContext(t), "tok")

	assert.Equal(t, models.Anonymous, res)
}

func TestNotifyPaymentStatus(t *testing.T) {
	var got models.PaymentStatusNotification
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/payments/status", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	err := newBackendClient(srv.URL, "/api/payments/status").NotifyPaymentStatus(testContext(t), models.PaymentStatusNotification{
		OrderID:         "1001",
		PaymentIntentID: "pi_1",
		Status:          "succeeded",
		Amount:          2500,
		Currency:        "usd",
	})

	require.NoError(t, err)
	assert.Equal(t, "1001", got.OrderID)
	assert.Equal(t, "pi_1", got.PaymentIntentID)
	assert.Equal(t, int64(2500), got.Amount)
}

func TestNotifyPaymentStatus_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	err := newBackendClient(srv.URL, "/api/payments/status").NotifyPaymentStatus(testContext(t), models.PaymentStatusNotification{OrderID: "1"})

	assert.ErrorContains(t, err, "status 422")
}

func TestNotifyPaymentStatus_DisabledWithoutPath(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	err := newBackendClient(srv.URL, "").NotifyPaymentStatus(testContext(t), models.PaymentStatusNotification{OrderID: "1"})

	assert.NoError(t, err)
	assert.Zero(t, atomic.LoadInt32(&hits))
}
