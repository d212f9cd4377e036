package transport

import (
	"net/http"

	"community-portal/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func memberID(r *http.Request) string {
	return chi.URLParam(r, middleware.MemberParam)
}

// uuidParam parses a UUID route parameter, answering 400 when it is malformed
func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// optionalUUID parses an optional UUID; empty input yields nil
func optionalUUID(raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
