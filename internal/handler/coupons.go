package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mmeshcher/fashion-store/internal/service"
)

// ListActiveCoupons возвращает действующие купоны.
func (h *Handler) ListActiveCoupons(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.service.ListActiveCoupons(r.Context())
	if err != nil {
		h.writeError(w, r, "list active coupons", err)
		return
	}
	writeJSON(w, http.StatusOK, coupons)
}

// ValidateCoupon проверяет купон по коду.
func (h *Handler) ValidateCoupon(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.ValidateCoupon(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.writeError(w, r, "validate coupon", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// ListCoupons возвращает все купоны для администратора.
func (h *Handler) ListCoupons(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	coupons, err := h.service.ListCoupons(r.Context(), actor)
	if err != nil {
		h.writeError(w, r, "list coupons", err)
		return
	}
	writeJSON(w, http.StatusOK, coupons)
}

// CreateCoupon создаёт купон.
func (h *Handler) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req service.CouponInput
	if !decodeJSON(w, r, &req) {
		return
	}

	c, err := h.service.CreateCoupon(r.Context(), actor, req)
	if err != nil {
		h.writeError(w, r, "create coupon", err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// UpdateCoupon обновляет купон.
func (h *Handler) UpdateCoupon(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	var req service.CouponInput
	if !decodeJSON(w, r, &req) {
		return
	}

	c, err := h.service.UpdateCoupon(r.Context(), actor, id, req)
	if err != nil {
		h.writeError(w, r, "update coupon", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// DeleteCoupon удаляет купон.
func (h *Handler) DeleteCoupon(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteCoupon(r.Context(), actor, id); err != nil {
		h.writeError(w, r, "delete coupon", err)
		return
	}
	writeMessage(w, http.StatusOK, "coupon deleted")
}
