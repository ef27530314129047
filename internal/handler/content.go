package handler

import (
	"net/http"

	"github.com/mmeshcher/fashion-store/internal/service"
)

type notificationsCreatedResponse struct {
	Created int64 `json:"created"`
}

// ListBanners возвращает активные баннеры витрины.
func (h *Handler) ListBanners(w http.ResponseWriter, r *http.Request) {
	banners, err := h.service.ListBanners(r.Context())
	if err != nil {
		h.writeError(w, r, "list banners", err)
		return
	}
	writeJSON(w, http.StatusOK, banners)
}

// ListAllBanners возвращает все баннеры для администратора.
func (h *Handler) ListAllBanners(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	banners, err := h.service.ListAllBanners(r.Context(), actor)
	if err != nil {
		h.writeError(w, r, "list all banners", err)
		return
	}
	writeJSON(w, http.StatusOK, banners)
}

// CreateBanner создаёт баннер.
func (h *Handler) CreateBanner(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req service.BannerInput
	if !decodeJSON(w, r, &req) {
		return
	}

	b, err := h.service.CreateBanner(r.Context(), actor, req)
	if err != nil {
		h.writeError(w, r, "create banner", err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

// UpdateBanner обновляет баннер.
func (h *Handler) UpdateBanner(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	var req service.BannerInput
	if !decodeJSON(w, r, &req) {
		return
	}

	b, err := h.service.UpdateBanner(r.Context(), actor, id, req)
	if err != nil {
		h.writeError(w, r, "update banner", err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// DeleteBanner удаляет баннер.
func (h *Handler) DeleteBanner(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteBanner(r.Context(), actor, id); err != nil {
		h.writeError(w, r, "delete banner", err)
		return
	}
	writeMessage(w, http.StatusOK, "banner deleted")
}

// GetSettings возвращает настройки магазина.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.service.GetSettings(r.Context())
	if err != nil {
		h.writeError(w, r, "get settings", err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// UpdateSettings сохраняет переданные ключи настроек.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req map[string]string
	if !decodeJSON(w, r, &req) {
		return
	}

	settings, err := h.service.UpdateSettings(r.Context(), actor, req)
	if err != nil {
		h.writeError(w, r, "update settings", err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// ListNotifications возвращает уведомления пользователя.
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	list, err := h.service.ListNotifications(r.Context(), actor)
	if err != nil {
		h.writeError(w, r, "list notifications", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// MarkNotificationRead отмечает уведомление прочитанным.
func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.MarkNotificationRead(r.Context(), actor, id); err != nil {
		h.writeError(w, r, "mark notification read", err)
		return
	}
	writeMessage(w, http.StatusOK, "notification marked as read")
}

// MarkAllNotificationsRead отмечает все уведомления прочитанными.
func (h *Handler) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	if err := h.service.MarkAllNotificationsRead(r.Context(), actor); err != nil {
		h.writeError(w, r, "mark all notifications read", err)
		return
	}
	writeMessage(w, http.StatusOK, "all notifications marked as read")
}

// DeleteNotification удаляет уведомление.
func (h *Handler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteNotification(r.Context(), actor, id); err != nil {
		h.writeError(w, r, "delete notification", err)
		return
	}
	writeMessage(w, http.StatusOK, "notification deleted")
}

// SendNotification рассылает уведомление одному пользователю или всем.
func (h *Handler) SendNotification(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req service.NotificationInput
	if !decodeJSON(w, r, &req) {
		return
	}

	n, err := h.service.SendNotification(r.Context(), actor, req)
	if err != nil {
		h.writeError(w, r, "send notification", err)
		return
	}
	writeJSON(w, http.StatusCreated, notificationsCreatedResponse{Created: n})
}

// Subscribe подписывает адрес на рассылку.
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req service.SubscribeInput
	if !decodeJSON(w, r, &req) {
		return
	}

	sub, err := h.service.Subscribe(r.Context(), req)
	if err != nil {
		h.writeError(w, r, "subscribe", err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

// Unsubscribe отписывает адрес от рассылки.
func (h *Handler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req service.SubscribeInput
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.Unsubscribe(r.Context(), req); err != nil {
		h.writeError(w, r, "unsubscribe", err)
		return
	}
	writeMessage(w, http.StatusOK, "unsubscribed")
}

// ListSubscribers возвращает подписчиков для администратора.
func (h *Handler) ListSubscribers(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	subs, err := h.service.ListSubscribers(r.Context(), actor)
	if err != nil {
		h.writeError(w, r, "list subscribers", err)
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

// SendNewsletter ставит письма рассылки в очередь.
func (h *Handler) SendNewsletter(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req service.NewsletterInput
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.service.SendNewsletter(r.Context(), actor, req)
	if err != nil {
		h.writeError(w, r, "send newsletter", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
