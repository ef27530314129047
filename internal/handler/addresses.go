package handler

import (
	"net/http"

	"github.com/mmeshcher/fashion-store/internal/service"
)

// ListAddresses возвращает адреса текущего пользователя.
func (h *Handler) ListAddresses(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	addresses, err := h.service.ListAddresses(r.Context(), actor)
	if err != nil {
		h.writeError(w, r, "list addresses", err)
		return
	}
	writeJSON(w, http.StatusOK, addresses)
}

// CreateAddress добавляет адрес.
func (h *Handler) CreateAddress(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req service.AddressInput
	if !decodeJSON(w, r, &req) {
		return
	}

	a, err := h.service.CreateAddress(r.Context(), actor, req)
	if err != nil {
		h.writeError(w, r, "create address", err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// UpdateAddress обновляет адрес.
func (h *Handler) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	var req service.AddressInput
	if !decodeJSON(w, r, &req) {
		return
	}

	a, err := h.service.UpdateAddress(r.Context(), actor, id, req)
	if err != nil {
		h.writeError(w, r, "update address", err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// DeleteAddress удаляет адрес.
func (h *Handler) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteAddress(r.Context(), actor, id); err != nil {
		h.writeError(w, r, "delete address", err)
		return
	}
	writeMessage(w, http.StatusOK, "address deleted")
}

// SetDefaultAddress делает адрес адресом по умолчанию.
func (h *Handler) SetDefaultAddress(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	a, err := h.service.SetDefaultAddress(r.Context(), actor, id)
	if err != nil {
		h.writeError(w, r, "set default address", err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}
