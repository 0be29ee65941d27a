package middleware

import (
	"errors"
	"net/http"
	"phishsim/pkg/errutil"
	"phishsim/pkg/goutil"
	"phishsim/pkg/httputil"
)

var ErrInvalidAPIKey = errors.New("invalid api key")

// Auth guards the admin surface with a bcrypt-hashed API key. Tracking
// routes never go through it; probe callers are anonymous.
type Auth struct {
	apiKeyHash string
}

func NewAuth(apiKeyHash string) *Auth {
	return &Auth{apiKeyHash: apiKeyHash}
}

func (m *Auth) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.apiKeyHash == "" {
			next.ServeHTTP(w, r)
			return
		}

		key := r.Header.Get("X-Api-Key")
		if key == "" || !goutil.CheckBCrypt(m.apiKeyHash, key) {
			httputil.ReturnServerResponse(w, nil, errutil.UnauthorizedError(ErrInvalidAPIKey))
			return
		}

		next.ServeHTTP(w, r)
	})
}
