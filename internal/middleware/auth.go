package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/vikasavnish/parentportal/internal/services"
	"github.com/vikasavnish/parentportal/internal/utils"
)

// AuthMiddleware checks for a valid bearer token and adds its subject to the context
func AuthMiddleware(creds services.CredentialService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				unauthorized(w, "Not authenticated")
				return
			}

			claims, err := creds.ParseToken(tokenString)
			if err != nil {
				unauthorized(w, "Could not validate credentials")
				return
			}
			subject := services.TokenSubject(claims)
			if subject == "" {
				unauthorized(w, "Could not validate credentials")
				return
			}

			ctx := utils.SetCredentialsToContext(r.Context(), tokenString, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
