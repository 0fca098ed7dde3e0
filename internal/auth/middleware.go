package auth

import (
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"

	"bookstore/package/logger"
)

// Accounts reports the current role of an account, so a token outliving a
// role change or a deletion does not keep its old rights.
type Accounts interface {
	CurrentRole(id string) (role string, found bool, err error)
}

type Middleware struct {
	authenticator Authenticator
	accounts      Accounts
}

func NewMiddleware(authenticator Authenticator) *Middleware {
	return &Middleware{authenticator: authenticator}
}

// WithAccounts makes Require take the caller's role from accounts instead
// of the token.
func (m *Middleware) WithAccounts(accounts Accounts) *Middleware {
	m.accounts = accounts
	return m
}

// Require authenticates the bearer token and lets the request through only
// when the caller has one of roles. The principal is stored in the request
// context.
func (m *Middleware) Require(next httprouter.Handle, roles ...string) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
		token, ok := bearerToken(r)
		if !ok {
			reject(w, r, http.StatusUnauthorized, "Missing bearer token")
			return
		}

		principal, err := m.authenticator.Authenticate(token)
		if err != nil {
			reject(w, r, http.StatusUnauthorized, "Invalid token")
			return
		}

		if m.accounts != nil {
			role, found, err := m.accounts.CurrentRole(principal.ID)
			if err != nil {
				reject(w, r, http.StatusInternalServerError, "Can not look up account: "+err.Error())
				return
			}
			if !found {
				reject(w, r, http.StatusUnauthorized, "Unknown account")
				return
			}
			principal.Role = role
		}

		if !Authorize(principal, roles) {
			reject(w, r, http.StatusForbidden, "Role "+principal.Role+" is not allowed")
			return
		}

		next(w, r.WithContext(WithPrincipal(r.Context(), principal)), params)
	}
}

// Throttle rejects requests with 429 once the calling client has run out of
// tokens. Every client address has its own bucket.
func Throttle(limiter *RateLimiter, next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
		if !limiter.Allow(clientKey(r)) {
			w.Header().Set("Retry-After", "1")
			reject(w, r, http.StatusTooManyRequests, "Too many requests")
			return
		}
		next(w, r, params)
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func reject(w http.ResponseWriter, r *http.Request, status int, message string) {
	http.Error(w, message, status)
	logger.Log.WithFields(logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
		"status": status,
	}).Info("Unauthorized: " + message)
}
