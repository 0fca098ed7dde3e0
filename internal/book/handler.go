package book

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"bookstore/internal/apperror"
	"bookstore/internal/auth"
	"bookstore/internal/handlers"
)

const (
	booksUrl    = "/api/books"
	bookUrl     = "/api/books/:id"
	commentsUrl = "/api/books/:id/comments"
)

type handler struct {
	service *Service
	auth    *auth.Middleware
}

func NewHandler(service *Service, mw *auth.Middleware) handlers.Handler {
	return &handler{service: service, auth: mw}
}

func (h *handler) Register(router *httprouter.Router) {
	router.GET(booksUrl, h.auth.Require(h.ListBooks, auth.RoleUser, auth.RoleAdministrator))
	router.GET(bookUrl, h.auth.Require(h.GetBook, auth.RoleUser, auth.RoleAdministrator))
	router.POST(booksUrl, h.auth.Require(h.CreateBook, auth.RoleAdministrator))
	router.PUT(bookUrl, h.auth.Require(h.UpdateBook, auth.RoleAdministrator))
	router.DELETE(bookUrl, h.auth.Require(h.DeleteBook, auth.RoleAdministrator))
	router.POST(commentsUrl, h.auth.Require(h.CreateComment, auth.RoleUser, auth.RoleAdministrator))
}

func (h *handler) ListBooks(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	books, err := h.service.List(handlers.Filter(r))
	if err != nil {
		handlers.WriteError(w, r, err)
		return
	}
	handlers.WriteJSON(w, r, http.StatusOK, books)
}

func (h *handler) GetBook(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	book, err := h.service.Get(params.ByName("id"))
	if err != nil {
		handlers.WriteError(w, r, err)
		return
	}
	handlers.WriteJSON(w, r, http.StatusOK, book)
}

func (h *handler) CreateBook(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	var requestBook Book
	if err := handlers.DecodeJSON(r, &requestBook); err != nil {
		handlers.WriteError(w, r, err)
		return
	}

	created, err := h.service.Create(requestBook)
	if err != nil {
		handlers.WriteError(w, r, err)
		return
	}
	handlers.WriteJSON(w, r, http.StatusOK, created)
}

func (h *handler) UpdateBook(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	var patch Patch
	if err := handlers.DecodeJSON(r, &patch); err != nil {
		handlers.WriteError(w, r, err)
		return
	}

	id := params.ByName("id")
	if patch.ID != "" && patch.ID != id {
		handlers.WriteError(w, r, apperror.Validation("id in path and id in request are different"))
		return
	}
	patch.ID = id

	updated, err := h.service.Update(patch)
	if err != nil {
		handlers.WriteError(w, r, err)
		return
	}
	handlers.WriteJSON(w, r, http.StatusOK, updated)
}

func (h *handler) DeleteBook(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	id, err := h.service.Delete(params.ByName("id"))
	if err != nil {
		handlers.WriteError(w, r, err)
		return
	}
	handlers.WriteJSON(w, r, http.StatusOK, DeleteResponse{ID: id})
}

func (h *handler) CreateComment(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	principal, _ := auth.FromContext(r.Context())

	var request CommentRequest
	if err := handlers.DecodeJSON(r, &request); err != nil {
		handlers.WriteError(w, r, err)
		return
	}

	updated, err := h.service.CreateComment(principal.ID, params.ByName("id"), request.Message)
	if err != nil {
		handlers.WriteError(w, r, err)
		return
	}
	handlers.WriteJSON(w, r, http.StatusOK, updated)
}
