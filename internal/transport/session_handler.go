package transport

import (
	"net/http"

	"community-portal/internal/middleware"
)

// SessionResponse hands the CSRF token of the browser session to the UI
type SessionResponse struct {
	CSRFToken string `json:"csrf_token"`
}

// Session returns the CSRF token the UI must echo in X-CSRF-Token
func Session(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetSession(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusInternalServerError, "session unavailable")
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	middleware.RespondWithJSON(w, http.StatusOK, SessionResponse{CSRFToken: claims.CSRF})
}
