package user

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"bookstore/internal/apperror"
	"bookstore/internal/auth"
	"bookstore/internal/handlers"
)

const (
	LoginUrl = "/api/login"
	usersUrl = "/api/users"
	userUrl  = "/api/users/:id"

	// meID in place of an id addresses the caller's own account.
	meID = "me"
)

type TokenIssuer interface {
	Issue(p auth.Principal) (string, error)
}

type handler struct {
	service *Service
	auth    *auth.Middleware
	tokens  TokenIssuer
	limiter *auth.RateLimiter
}

func NewHandler(service *Service, mw *auth.Middleware, tokens TokenIssuer, limiter *auth.RateLimiter) handlers.Handler {
	return &handler{service: service, auth: mw, tokens: tokens, limiter: limiter}
}

func (h *handler) Register(router *httprouter.Router) {
	router.POST(LoginUrl, auth.Throttle(h.limiter, h.LoginUser))
	router.POST(usersUrl, h.RegisterUser)
	router.GET(usersUrl, h.auth.Require(h.ListUsers, auth.RoleAdministrator))
	router.GET(userUrl, h.auth.Require(h.GetUser, auth.RoleUser, auth.RoleAdministrator))
	router.PUT(userUrl, h.auth.Require(h.UpdateUser, auth.RoleUser, auth.RoleAdministrator))
	router.DELETE(userUrl, h.auth.Require(h.DeleteUser, auth.RoleAdministrator))
}

func (h *handler) LoginUser(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	var loginRequest LoginRequest
	if err := handlers.DecodeJSON(r, &loginRequest); err != nil {
		handlers.WriteError(w, r, err)
		return
	}

	u, err := h.service.Login(loginRequest.Email, loginRequest.Password)
	if err != nil {
		if apperror.IsUnknownEntity(err) {
			handlers.WriteStatus(w, r, http.StatusUnauthorized, err.Error())
			return
		}
		handlers.WriteError(w, r, err)
		return
	}

	token, err := h.tokens.Issue(auth.Principal{ID: u.ID, Role: u.Role})
	if err != nil {
		handlers.WriteError(w, r, err)
		return
	}
	handlers.WriteJSON(w, r, http.StatusOK, LoginResponse{User: u.Public(), AccessToken: token})
}

// RegisterUser is public; the account always gets the user role.
func (h *handler) RegisterUser(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	var requestUser CreateRequest
	if err := handlers.DecodeJSON(r, &requestUser); err != nil {
		handlers.WriteError(w, r, err)
		return
	}
	requestUser.Role = auth.RoleUser

	created, err := h.service.Create(requestUser)
	if err != nil {
		handlers.WriteError(w, r, err)
		return
	}
	handlers.WriteJSON(w, r, http.StatusOK, created.Public())
}

func (h *handler) ListUsers(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	users, err := h.service.List(handlers.Filter(r))
	if err != nil {
		handlers.WriteError(w, r, err)
		return
	}
	handlers.WriteJSON(w, r, http.StatusOK, publicUsers(users))
}

func (h *handler) GetUser(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	id, ok := h.target(w, r, params)
	if !ok {
		return
	}

	u, err := h.service.Get(id)
	if err != nil {
		handlers.WriteError(w, r, err)
		return
	}
	handlers.WriteJSON(w, r, http.StatusOK, u.Public())
}

func (h *handler) UpdateUser(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	id, ok := h.target(w, r, params)
	if !ok {
		return
	}

	var patch Patch
	if err := handlers.DecodeJSON(r, &patch); err != nil {
		handlers.WriteError(w, r, err)
		return
	}
	if patch.ID != "" && patch.ID != id {
		handlers.WriteError(w, r, apperror.Validation("id in path and id in request are different"))
		return
	}
	patch.ID = id

	principal, _ := auth.FromContext(r.Context())
	if patch.Role != nil && !principal.IsAdministrator() {
		handlers.WriteStatus(w, r, http.StatusForbidden, "Only administrators can change roles")
		return
	}

	updated, err := h.service.Update(patch)
	if err != nil {
		handlers.WriteError(w, r, err)
		return
	}
	handlers.WriteJSON(w, r, http.StatusOK, updated.Public())
}

func (h *handler) DeleteUser(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	principal, _ := auth.FromContext(r.Context())
	target, ok := h.target(w, r, params)
	if !ok {
		return
	}

	id, err := h.service.DeleteAsAdmin(target, principal.ID)
	if err != nil {
		handlers.WriteError(w, r, err)
		return
	}
	handlers.WriteJSON(w, r, http.StatusOK, DeleteResponse{ID: id})
}

// target resolves the :id parameter. "me" is the caller; any other id is
// reserved to administrators.
func (h *handler) target(w http.ResponseWriter, r *http.Request, params httprouter.Params) (string, bool) {
	principal, _ := auth.FromContext(r.Context())

	id := params.ByName("id")
	if id == meID || id == principal.ID {
		return principal.ID, true
	}
	if !principal.IsAdministrator() {
		handlers.WriteStatus(w, r, http.StatusForbidden, "Users can only access their own account")
		return "", false
	}
	return id, true
}
