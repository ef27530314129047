package handler

import (
	"net/http"

	"github.com/mmeshcher/fashion-store/internal/model"
	"github.com/mmeshcher/fashion-store/internal/service"
)

// GetCart возвращает корзину текущего пользователя.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	cart, err := h.service.GetCart(r.Context(), actor)
	if err != nil {
		h.writeError(w, r, "get cart", err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

// AddToCart добавляет товар в корзину.
func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req model.OrderLine
	if !decodeJSON(w, r, &req) {
		return
	}

	item, err := h.service.AddToCart(r.Context(), actor, req)
	if err != nil {
		h.writeError(w, r, "add to cart", err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// UpdateCartItem меняет количество позиции корзины.
func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	var req service.CartQuantityInput
	if !decodeJSON(w, r, &req) {
		return
	}

	item, err := h.service.UpdateCartItem(r.Context(), actor, id, req)
	if err != nil {
		h.writeError(w, r, "update cart item", err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// RemoveCartItem удаляет позицию корзины.
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.RemoveCartItem(r.Context(), actor, id); err != nil {
		h.writeError(w, r, "remove cart item", err)
		return
	}
	writeMessage(w, http.StatusOK, "item removed from cart")
}

// ClearCart очищает корзину.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	if err := h.service.ClearCart(r.Context(), actor); err != nil {
		h.writeError(w, r, "clear cart", err)
		return
	}
	writeMessage(w, http.StatusOK, "cart cleared")
}

// ListWishlist возвращает избранное.
func (h *Handler) ListWishlist(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	items, err := h.service.ListWishlist(r.Context(), actor)
	if err != nil {
		h.writeError(w, r, "list wishlist", err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// AddToWishlist добавляет товар в избранное.
func (h *Handler) AddToWishlist(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req service.WishlistInput
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.AddToWishlist(r.Context(), actor, req); err != nil {
		h.writeError(w, r, "add to wishlist", err)
		return
	}
	writeMessage(w, http.StatusCreated, "added to wishlist")
}

// RemoveFromWishlist удаляет товар из избранного.
func (h *Handler) RemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	productID, ok := idParam(w, r, "productId")
	if !ok {
		return
	}

	if err := h.service.RemoveFromWishlist(r.Context(), actor, productID); err != nil {
		h.writeError(w, r, "remove from wishlist", err)
		return
	}
	writeMessage(w, http.StatusOK, "removed from wishlist")
}
