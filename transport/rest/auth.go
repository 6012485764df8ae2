package rest

import (
	"context"
	"net/http"

	"github.com/rocketscienceinc/tictactoe-server/internal/usecase"
)

type credentialsKey struct{}

// basicAuth extracts Basic credentials. Verification happens in the registry.
func basicAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, token, ok := r.BasicAuth()
		if !ok || username == "" || token == "" {
			w.Header().Set("WWW-Authenticate", `Basic realm="tictactoe"`)
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing credentials"})
			return
		}

		creds := usecase.Credentials{Username: username, Token: token}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), credentialsKey{}, creds)))
	})
}

func credentialsFrom(ctx context.Context) usecase.Credentials {
	creds, _ := ctx.Value(credentialsKey{}).(usecase.Credentials)
	return creds
}
