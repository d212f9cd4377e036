package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"community-portal/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newIdempotencyStore(t *testing.T) repository.IdempotencyRepository {
	t.Helper()
	_, client := newLimiterRedis(t)
	return repository.NewIdempotencyRepository(client, time.Hour)
}

// countingHandler answers with a numbered body so replays are observable
func countingHandler(calls *int32, status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(calls, 1)
		RespondWithJSON(w, status, map[string]string{
			"call": fmt.Sprint(n),
			"key":  IdempotencyKey(r.Context()),
		})
	})
}

func mutating(key string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/members/m1/checkout", nil)
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	return withSession(req, &SessionClaims{SessionID: "sid-1", CSRF: "c"})
}

func TestIdempotencyReplaysCompletedRequest(t *testing.T) {
	var calls int32
	handler := IdempotencyMiddleware(newIdempotencyStore(t), zap.NewNop())(countingHandler(&calls, http.StatusCreated))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, mutating("key-1"))
	second := httptest.NewRecorder()
	handler.ServeHTTP(second, mutating("key-1"))

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get(ReplayedHeader))
	assert.Equal(t, "application/json", second.Header().Get("Content-Type"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Contains(t, first.Body.String(), `"key":"key-1"`)
}

func TestIdempotencyGeneratesMissingKey(t *testing.T) {
	var calls int32
	handler := IdempotencyMiddleware(newIdempotencyStore(t), zap.NewNop())(countingHandler(&calls, http.StatusOK))

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, mutating(""))
		assert.Empty(t, w.Header().Get(ReplayedHeader))
		assert.NotContains(t, w.Body.String(), `"key":""`)
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestIdempotencyReleasesOnServerError(t *testing.T) {
	var calls int32
	handler := IdempotencyMiddleware(newIdempotencyStore(t), zap.NewNop())(countingHandler(&calls, http.StatusBadGateway))

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, mutating("retry-me"))
		assert.Equal(t, http.StatusBadGateway, w.Code)
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestIdempotencyRetriesAfterClientError(t *testing.T) {
	statuses := []int{http.StatusUnprocessableEntity, http.StatusCreated}
	var calls int32
	handler := IdempotencyMiddleware(newIdempotencyStore(t), zap.NewNop())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			n := atomic.AddInt32(&calls, 1)
			RespondWithJSON(w, statuses[n-1], map[string]string{"call": fmt.Sprint(n)})
		}),
	)

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, mutating("k"))
	second := httptest.NewRecorder()
	handler.ServeHTTP(second, mutating("k"))
	third := httptest.NewRecorder()
	handler.ServeHTTP(third, mutating("k"))

	assert.Equal(t, http.StatusUnprocessableEntity, first.Code)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Empty(t, second.Header().Get(ReplayedHeader))
	assert.Equal(t, http.StatusCreated, third.Code)
	assert.Equal(t, "true", third.Header().Get(ReplayedHeader))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestIdempotencyRejectsInFlightKey(t *testing.T) {
	store := newIdempotencyStore(t)
	scope := "sid-1:" + http.MethodPost + ":/api/members/m1/checkout"
	_, err := store.Begin(context.Background(), scope, "busy")
	require.NoError(t, err)

	var calls int32
	handler := IdempotencyMiddleware(store, zap.NewNop())(countingHandler(&calls, http.StatusOK))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, mutating("busy"))

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestIdempotencyIgnoresSafeMethods(t *testing.T) {
	var calls int32
	handler := IdempotencyMiddleware(newIdempotencyStore(t), zap.NewNop())(countingHandler(&calls, http.StatusOK))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
		req.Header.Set(IdempotencyKeyHeader, "same")
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestIdempotencyScopesKeysPerSession(t *testing.T) {
	var calls int32
	handler := IdempotencyMiddleware(newIdempotencyStore(t), zap.NewNop())(countingHandler(&calls, http.StatusOK))

	handler.ServeHTTP(httptest.NewRecorder(), mutating("shared"))
	other := httptest.NewRequest(http.MethodPost, "/api/members/m1/checkout", nil)
	other.Header.Set(IdempotencyKeyHeader, "shared")
	other = withSession(other, &SessionClaims{SessionID: "sid-2", CSRF: "c"})
	handler.ServeHTTP(httptest.NewRecorder(), other)

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}
