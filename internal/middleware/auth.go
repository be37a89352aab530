package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/study-coach/backend/internal/auth"
	"github.com/study-coach/backend/internal/logger"
	"github.com/study-coach/backend/internal/models"
)

type Auth struct {
	tokens *auth.Tokens
	log    *logger.Logger
}

func NewAuth(tokens *auth.Tokens, log *logger.Logger) *Auth {
	return &Auth{tokens: tokens, log: log.With("middleware", "Auth")}
}

// RequireAuth rejects requests without a valid bearer token and stores the
// user id in the request context.
func (a *Auth) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := bearerToken(r)
		if tokenString == "" {
			writeError(w, http.StatusUnauthorized, "missing or invalid token")
			return
		}

		userID, err := a.tokens.Parse(tokenString)
		if err != nil {
			a.log.Debug("rejected token", "error", err)
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		setRequestUser(r.Context(), userID)
		next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), userID)))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(models.ErrorResponse{Error: msg})
}
