package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aisha-ai/aisha-crm/pkg/auth"
	"github.com/aisha-ai/aisha-crm/pkg/composables"
	"github.com/aisha-ai/aisha-crm/pkg/logging"
)

func TestAuthorize(t *testing.T) {
	t.Parallel()

	tm := auth.NewTokenManager("test-secret", time.Hour)
	tenantID := uuid.New()

	var seen *auth.Access
	handler := Authorize(tm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		access, err := composables.UseAccess(r.Context())
		require.NoError(t, err)
		seen = &access
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("missing token", func(t *testing.T) {
		seen = nil
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Nil(t, seen)
	})

	t.Run("garbage token", func(t *testing.T) {
		seen = nil
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Nil(t, seen)
	})

	t.Run("valid token", func(t *testing.T) {
		seen = nil
		token, err := tm.Issue(tenantID, auth.RoleMember)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		require.NotNil(t, seen)
		assert.Equal(t, tenantID, seen.TenantID)
		assert.Equal(t, auth.RoleMember, seen.Role)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		seen = nil
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Nil(t, seen)
	})
}

func TestWithLogger_RequestIDHeader(t *testing.T) {
	t.Parallel()

	log := logging.ConsoleLogger(logrus.PanicLevel)

	var seen string
	handler := WithLogger(log, "X-Correlation-ID")(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = composables.UseRequestID(r.Context())
			w.WriteHeader(http.StatusNoContent)
		}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Correlation-ID", "req-42")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "req-42", seen)

	// An empty header name falls back to the conventional one.
	handler = WithLogger(log, "")(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = composables.UseRequestID(r.Context())
			w.WriteHeader(http.StatusNoContent)
		}))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-43")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "req-43", seen)

	// Without an inbound id one is generated.
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	_, err := uuid.Parse(seen)
	require.NoError(t, err)
}
