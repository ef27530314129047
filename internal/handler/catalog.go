package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mmeshcher/fashion-store/internal/model"
	"github.com/mmeshcher/fashion-store/internal/service"
)

type productsResponse struct {
	Products   []model.Product  `json:"products"`
	Pagination model.Pagination `json:"pagination"`
}

// ListCategories возвращает все категории.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		h.writeError(w, r, "list categories", err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

// GetCategory возвращает категорию по slug.
func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.GetCategory(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.writeError(w, r, "get category", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// CreateCategory создаёт категорию.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req service.CategoryInput
	if !decodeJSON(w, r, &req) {
		return
	}

	c, err := h.service.CreateCategory(r.Context(), actor, req)
	if err != nil {
		h.writeError(w, r, "create category", err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// UpdateCategory обновляет категорию.
func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	var req service.CategoryInput
	if !decodeJSON(w, r, &req) {
		return
	}

	c, err := h.service.UpdateCategory(r.Context(), actor, id, req)
	if err != nil {
		h.writeError(w, r, "update category", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// DeleteCategory удаляет категорию.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteCategory(r.Context(), actor, id); err != nil {
		h.writeError(w, r, "delete category", err)
		return
	}
	writeMessage(w, http.StatusOK, "category deleted")
}

// ListProducts возвращает страницу каталога.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	products, p, err := h.service.ListProducts(r.Context(), service.ProductQuery{
		Category: q.Get("category"),
		Search:   q.Get("search"),
		Featured: q.Get("featured"),
		MinPrice: q.Get("minPrice"),
		MaxPrice: q.Get("maxPrice"),
		Sort:     q.Get("sort"),
		Page:     queryInt(r, "page"),
		Limit:    queryInt(r, "limit"),
	})
	if err != nil {
		h.writeError(w, r, "list products", err)
		return
	}
	writeJSON(w, http.StatusOK, productsResponse{Products: products, Pagination: p})
}

// GetProduct возвращает товар по идентификатору или slug.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetProduct(r.Context(), chi.URLParam(r, "idOrSlug"))
	if err != nil {
		h.writeError(w, r, "get product", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// CreateProduct создаёт товар.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req service.ProductInput
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.service.CreateProduct(r.Context(), actor, req)
	if err != nil {
		h.writeError(w, r, "create product", err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// UpdateProduct обновляет товар.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	var req service.ProductInput
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.service.UpdateProduct(r.Context(), actor, id, req)
	if err != nil {
		h.writeError(w, r, "update product", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DeleteProduct удаляет товар.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteProduct(r.Context(), actor, id); err != nil {
		h.writeError(w, r, "delete product", err)
		return
	}
	writeMessage(w, http.StatusOK, "product deleted")
}
