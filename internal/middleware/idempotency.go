package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"

	"community-portal/internal/repository"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	IdempotencyKeyHeader = "Idempotency-Key"
	ReplayedHeader       = "Idempotent-Replayed"

	idempotencyKeyCtx contextKey = "idempotency_key"
)

// IdempotencyMiddleware makes mutating requests safe to retry. The first
// request with a key is executed and its response recorded; later requests
// with the same key get the recorded response. Requests without a key are
// assigned a fresh one. Must run after SessionMiddleware.
func IdempotencyMiddleware(store repository.IdempotencyRepository, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get(IdempotencyKeyHeader)
			if key == "" {
				key = uuid.NewString()
			}
			scope := SessionID(r.Context()) + ":" + r.Method + ":" + r.URL.Path

			stored, err := store.Begin(r.Context(), scope, key)
			switch {
			case errors.Is(err, repository.ErrRequestInFlight):
				RespondWithError(w, http.StatusConflict, "request with this idempotency key is in progress")
				return
			case err != nil:
				logger.Error("Failed to claim idempotency key", zap.Error(err), zap.String("key", key))
				RespondWithError(w, http.StatusInternalServerError, "internal server error")
				return
			case stored != nil:
				if stored.ContentType != "" {
					w.Header().Set("Content-Type", stored.ContentType)
				}
				w.Header().Set(ReplayedHeader, "true")
				w.WriteHeader(stored.StatusCode)
				_, _ = w.Write(stored.Body)
				return
			}

			var body bytes.Buffer
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			ww.Tee(&body)

			ctx := context.WithValue(r.Context(), idempotencyKeyCtx, key)
			next.ServeHTTP(ww, r.WithContext(ctx))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			// Detached from the request so a client disconnect still records the outcome.
			storeCtx := context.WithoutCancel(r.Context())
			// Only successful outcomes are kept; a rejected request can be
			// corrected and retried with the same key.
			if status >= http.StatusBadRequest {
				if err := store.Release(storeCtx, scope, key); err != nil {
					logger.Warn("Failed to release idempotency key", zap.Error(err), zap.String("key", key))
				}
				return
			}

			err = store.Complete(storeCtx, scope, key, repository.StoredResponse{
				StatusCode:  status,
				ContentType: ww.Header().Get("Content-Type"),
				Body:        body.Bytes(),
			})
			if err != nil {
				logger.Warn("Failed to record idempotent response", zap.Error(err), zap.String("key", key))
			}
		})
	}
}

// IdempotencyKey returns the key of the current mutating request
func IdempotencyKey(ctx context.Context) string {
	key, _ := ctx.Value(idempotencyKeyCtx).(string)
	return key
}
