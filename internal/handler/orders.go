package handler

import (
	"net/http"

	"github.com/mmeshcher/fashion-store/internal/model"
	"github.com/mmeshcher/fashion-store/internal/service"
)

type ordersResponse struct {
	Orders     []model.Order    `json:"orders"`
	Pagination model.Pagination `json:"pagination"`
}

type statusRequest struct {
	Status string `json:"status"`
}

// PlaceOrder оформляет заказ текущего пользователя.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req service.PlaceOrderInput
	if !decodeJSON(w, r, &req) {
		return
	}

	order, err := h.service.PlaceOrder(r.Context(), actor, req)
	if err != nil {
		h.writeError(w, r, "place order", err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

// ListMyOrders возвращает заказы текущего пользователя.
func (h *Handler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	orders, err := h.service.ListMyOrders(r.Context(), actor)
	if err != nil {
		h.writeError(w, r, "list orders", err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// GetOrder возвращает заказ текущего пользователя.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	order, err := h.service.GetOrder(r.Context(), actor, id)
	if err != nil {
		h.writeError(w, r, "get order", err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// ListAllOrders возвращает страницу всех заказов для администратора.
func (h *Handler) ListAllOrders(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	orders, p, err := h.service.ListAllOrders(r.Context(), actor,
		r.URL.Query().Get("status"), queryInt(r, "page"), queryInt(r, "limit"))
	if err != nil {
		h.writeError(w, r, "list all orders", err)
		return
	}
	writeJSON(w, http.StatusOK, ordersResponse{Orders: orders, Pagination: p})
}

// UpdateOrderStatus меняет статус заказа.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	var req statusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	order, err := h.service.UpdateOrderStatus(r.Context(), actor, id, req.Status)
	if err != nil {
		h.writeError(w, r, "update order status", err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}
