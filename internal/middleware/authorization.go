package middleware

import (
	"context"
	"errors"
	"net/http"

	"community-portal/internal/domain"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// MemberParam is the route parameter holding the member identifier
const MemberParam = "member"

// VisitorAuthorizer resolves the verified visitor of a browser session for a member
type VisitorAuthorizer interface {
	Authorized(ctx context.Context, sessionID, memberID string) (*domain.VisitorInfo, error)
}

// RequireVisitor only lets verified visitors of the member in the path
// through and stores the visitor in the request context. The check is a
// convenience gate, the member API authorizes the proxied calls itself.
func RequireVisitor(authorizer VisitorAuthorizer, denied error, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			memberID := chi.URLParam(r, MemberParam)

			info, err := authorizer.Authorized(r.Context(), SessionID(r.Context()), memberID)
			if err != nil {
				if errors.Is(err, denied) {
					logger.Debug("Visitor not verified", zap.String("member_id", memberID))
					RespondWithError(w, http.StatusUnauthorized, "visitor verification required")
					return
				}
				logger.Error("Failed to resolve visitor session", zap.Error(err))
				RespondWithError(w, http.StatusInternalServerError, "internal server error")
				return
			}

			ctx := context.WithValue(r.Context(), visitorKey, info)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetVisitor extracts the verified visitor from request context
func GetVisitor(ctx context.Context) (*domain.VisitorInfo, bool) {
	info, ok := ctx.Value(visitorKey).(*domain.VisitorInfo)
	return info, ok && info != nil
}
