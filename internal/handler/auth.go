package handler

import (
	"net/http"

	"github.com/mmeshcher/fashion-store/internal/model"
	"github.com/mmeshcher/fashion-store/internal/service"
)

type authResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

type usersResponse struct {
	Users      []model.User     `json:"users"`
	Pagination model.Pagination `json:"pagination"`
}

func (h *Handler) respondWithToken(w http.ResponseWriter, r *http.Request, status int, u *model.User) {
	token, err := h.authMiddleware.IssueToken(u)
	if err != nil {
		h.writeError(w, r, "issue token", err)
		return
	}
	writeJSON(w, status, authResponse{Token: token, User: u})
}

// Register обрабатывает регистрацию нового пользователя.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterInput
	if !decodeJSON(w, r, &req) {
		return
	}

	u, err := h.service.Register(r.Context(), req)
	if err != nil {
		h.writeError(w, r, "register user", err)
		return
	}

	h.respondWithToken(w, r, http.StatusCreated, u)
}

// Login выполняет аутентификацию пользователя и выдаёт токен.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginInput
	if !decodeJSON(w, r, &req) {
		return
	}

	u, err := h.service.Login(r.Context(), req)
	if err != nil {
		h.writeError(w, r, "login user", err)
		return
	}

	h.respondWithToken(w, r, http.StatusOK, u)
}

// Me возвращает профиль текущего пользователя.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	u, err := h.service.Me(r.Context(), actor)
	if err != nil {
		h.writeError(w, r, "get profile", err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// UpdateProfile меняет имя и телефон текущего пользователя.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req service.ProfileInput
	if !decodeJSON(w, r, &req) {
		return
	}

	u, err := h.service.UpdateProfile(r.Context(), actor, req)
	if err != nil {
		h.writeError(w, r, "update profile", err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// ChangePassword меняет пароль текущего пользователя.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req service.PasswordInput
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.ChangePassword(r.Context(), actor, req); err != nil {
		h.writeError(w, r, "change password", err)
		return
	}
	writeMessage(w, http.StatusOK, "password updated")
}

// ListUsers возвращает страницу пользователей для администратора.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	users, p, err := h.service.ListUsers(r.Context(), actor, queryInt(r, "page"), queryInt(r, "limit"))
	if err != nil {
		h.writeError(w, r, "list users", err)
		return
	}
	writeJSON(w, http.StatusOK, usersResponse{Users: users, Pagination: p})
}
