package httptransport

import (
	"context"
	"net/http"
	"strings"

	"copydesk/internal/user"
	dErrors "copydesk/pkg/domain-errors"
)

type contextKey string

const identityKey contextKey = "identity"

// TokenVerifier validates a bearer token and returns the identity it
// carries.
type TokenVerifier interface {
	VerifyToken(token string) (*user.Identity, error)
}

// requireAuth rejects requests without a valid bearer token and puts the
// verified identity on the request context.
func requireAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				writeError(w, dErrors.New(dErrors.CodeUnauthorized, "missing bearer token"))
				return
			}
			identity, err := verifier.VerifyToken(token)
			if err != nil {
				writeError(w, err)
				return
			}
			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func identityFrom(ctx context.Context) *user.Identity {
	identity, _ := ctx.Value(identityKey).(*user.Identity)
	return identity
}
