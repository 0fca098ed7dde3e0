package order

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"bookstore/internal/apperror"
	"bookstore/internal/auth"
	"bookstore/internal/handlers"
)

const (
	ordersUrl = "/api/orders"
	orderUrl  = "/api/orders/:id"
)

type handler struct {
	service *Service
	auth    *auth.Middleware
}

func NewHandler(service *Service, mw *auth.Middleware) handlers.Handler {
	return &handler{service: service, auth: mw}
}

func (h *handler) Register(router *httprouter.Router) {
	router.GET(ordersUrl, h.auth.Require(h.ListOrders, auth.RoleUser, auth.RoleAdministrator))
	router.GET(orderUrl, h.auth.Require(h.GetOrder, auth.RoleUser, auth.RoleAdministrator))
	router.POST(ordersUrl, h.auth.Require(h.CreateOrder, auth.RoleUser, auth.RoleAdministrator))
	router.PUT(orderUrl, h.auth.Require(h.UpdateOrder, auth.RoleAdministrator))
	router.DELETE(orderUrl, h.auth.Require(h.DeleteOrder, auth.RoleUser, auth.RoleAdministrator))
}

// ListOrders returns every order to administrators and only their own
// orders to users.
func (h *handler) ListOrders(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	principal, _ := auth.FromContext(r.Context())

	var (
		orders []Order
		err    error
	)
	if principal.IsAdministrator() {
		orders, err = h.service.List(handlers.Filter(r))
	} else {
		orders, err = h.service.ListForUser(principal.ID, handlers.Filter(r))
	}
	if err != nil {
		handlers.WriteError(w, r, err)
		return
	}
	handlers.WriteJSON(w, r, http.StatusOK, orders)
}

func (h *handler) GetOrder(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	principal, _ := auth.FromContext(r.Context())

	var (
		order Order
		err   error
	)
	if principal.IsAdministrator() {
		order, err = h.service.Get(params.ByName("id"))
	} else {
		order, err = h.service.GetForUser(params.ByName("id"), principal.ID)
	}
	if err != nil {
		handlers.WriteError(w, r, err)
		return
	}
	handlers.WriteJSON(w, r, http.StatusOK, order)
}

// CreateOrder places the order for the caller unless the caller is an
// administrator, who may place it for any user.
func (h *handler) CreateOrder(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	principal, _ := auth.FromContext(r.Context())

	var requestOrder Order
	if err := handlers.DecodeJSON(r, &requestOrder); err != nil {
		handlers.WriteError(w, r, err)
		return
	}
	if !principal.IsAdministrator() {
		requestOrder.UserID = principal.ID
	}

	created, err := h.service.Create(requestOrder)
	if err != nil {
		handlers.WriteError(w, r, err)
		return
	}
	handlers.WriteJSON(w, r, http.StatusOK, created)
}

func (h *handler) UpdateOrder(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
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

func (h *handler) DeleteOrder(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	principal, _ := auth.FromContext(r.Context())

	var (
		id  string
		err error
	)
	if principal.IsAdministrator() {
		id, err = h.service.Delete(params.ByName("id"))
	} else {
		id, err = h.service.DeleteAsOwner(params.ByName("id"), principal.ID)
	}
	if err != nil {
		handlers.WriteError(w, r, err)
		return
	}
	handlers.WriteJSON(w, r, http.StatusOK, DeleteResponse{ID: id})
}
