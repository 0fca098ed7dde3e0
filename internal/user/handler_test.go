package user

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"bookstore/internal/auth"
)

type testServer struct {
	router  *httprouter.Router
	service *Service
	tokens  *auth.Tokens
	admin   User
	reader  User
}

func newTestServer(t *testing.T, limiter *auth.RateLimiter) *testServer {
	t.Helper()
	if limiter == nil {
		limiter = auth.NewRateLimiter(rate.Inf, 1)
	}

	service := newTestService(t)
	admin, err := service.Create(CreateRequest{Email: "admin@example.com", Password: "secret1", Role: auth.RoleAdministrator})
	require.NoError(t, err)
	reader, err := service.Create(CreateRequest{Email: "reader@example.com", Password: "secret1"})
	require.NoError(t, err)

	tokens := auth.NewTokens("secret", time.Hour)
	router := httprouter.New()
	NewHandler(service, auth.NewMiddleware(tokens).WithAccounts(service), tokens, limiter).Register(router)

	return &testServer{router: router, service: service, tokens: tokens, admin: admin, reader: reader}
}

func (s *testServer) token(t *testing.T, u User) string {
	t.Helper()
	token, err := s.tokens.Issue(auth.Principal{ID: u.ID, Role: u.Role})
	require.NoError(t, err)
	return token
}

func (s *testServer) do(method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func TestLoginEndpoint(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(http.MethodPost, "/api/login", "", `{"email":"reader@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "passwordHash")

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, s.reader.Public(), resp.User)

	principal, err := s.tokens.Authenticate(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, s.reader.ID, principal.ID)
	assert.Equal(t, auth.RoleUser, principal.Role)
}

func TestLoginRejected(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(http.MethodPost, "/api/login", "", `{"email":"reader@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/api/login", "", `{"email":"ghost@example.com","password":"secret1"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/api/login", "", `{"email":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginThrottled(t *testing.T) {
	s := newTestServer(t, auth.NewRateLimiter(rate.Every(time.Hour), 1))
	body := `{"email":"reader@example.com","password":"secret1"}`

	assert.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/login", "", body).Code)

	rec := s.do(http.MethodPost, "/api/login", "", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestRegisterForcesUserRole(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(http.MethodPost, "/api/users", "", `{"email":"new@example.com","password":"secret1","role":"administrator"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "passwordHash")

	var created PublicUser
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, auth.RoleUser, created.Role)

	rec = s.do(http.MethodPost, "/api/users", "", `{"email":"new@example.com","password":"secret1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListUsersRequiresAdministrator(t *testing.T) {
	s := newTestServer(t, nil)

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/users", s.token(t, s.reader), "").Code)

	rec := s.do(http.MethodGet, "/api/users?role=user", s.token(t, s.admin), "")
	require.Equal(t, http.StatusOK, rec.Code)

	var users []PublicUser
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	assert.Equal(t, []PublicUser{s.reader.Public()}, users)
}

func TestGetUserMe(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.token(t, s.reader)

	rec := s.do(http.MethodGet, "/api/users/me", token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var me PublicUser
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, s.reader.Public(), me)

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/users/"+s.reader.ID, token, "").Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/users/"+s.admin.ID, token, "").Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/users/me", "", "").Code)
}

func TestAdministratorGetsAnyUser(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.token(t, s.admin)

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/users/"+s.reader.ID, token, "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/users/missing", token, "").Code)
}

func TestUpdateUserEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.token(t, s.reader)

	rec := s.do(http.MethodPut, "/api/users/me", token, `{"email":"renamed@example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated PublicUser
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "renamed@example.com", updated.Email)
	assert.Equal(t, auth.RoleUser, updated.Role)

	rec = s.do(http.MethodPut, "/api/users/me", token, `{"role":"administrator"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodPut, "/api/users/me", token, `{"id":"other"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPut, "/api/users/"+s.reader.ID, s.token(t, s.admin), `{"role":"administrator"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, auth.RoleAdministrator, updated.Role)
}

func TestDeleteUserEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.token(t, s.admin)

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodDelete, "/api/users/"+s.reader.ID, s.token(t, s.reader), "").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodDelete, "/api/users/me", token, "").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodDelete, "/api/users/"+s.admin.ID, token, "").Code)

	rec := s.do(http.MethodDelete, "/api/users/"+s.reader.ID, token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp DeleteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, s.reader.ID, resp.ID)

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodDelete, "/api/users/"+s.reader.ID, token, "").Code)
}

func TestTokenFollowsStoredRole(t *testing.T) {
	s := newTestServer(t, nil)
	adminToken := s.token(t, s.admin)
	readerToken := s.token(t, s.reader)

	role := auth.RoleUser
	_, err := s.service.Update(Patch{ID: s.admin.ID, Role: &role})
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/users", adminToken, "").Code)

	_, err = s.service.Delete(s.reader.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/users/me", readerToken, "").Code)
}
