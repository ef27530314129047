package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/mmeshcher/fashion-store/internal/model"
	"github.com/mmeshcher/fashion-store/internal/queue"
)

// BannerInput содержит поля баннера.
type BannerInput struct {
	Title    string `json:"title" validate:"required,max=200"`
	Subtitle string `json:"subtitle" validate:"max=500"`
	Image    string `json:"image" validate:"required,max=500"`
	Link     string `json:"link" validate:"max=500"`
	Position int    `json:"position" validate:"gte=0"`
	IsActive *bool  `json:"isActive"`
}

// NotificationInput содержит уведомление, отправляемое администратором.
type NotificationInput struct {
	UserID  *int64 `json:"userId" validate:"omitempty,gt=0"`
	Title   string `json:"title" validate:"required,max=200"`
	Message string `json:"message" validate:"required,max=2000"`
	Type    string `json:"type" validate:"max=30"`
}

// NewsletterInput содержит письмо рассылки.
type NewsletterInput struct {
	Subject string `json:"subject" validate:"required,max=200"`
	Content string `json:"content" validate:"required"`
}

// SubscribeInput содержит email подписчика.
type SubscribeInput struct {
	Email string `json:"email" validate:"required,email"`
}

// NewsletterResult содержит итог рассылки.
type NewsletterResult struct {
	Sent  int `json:"sent"`
	Total int `json:"total"`
}

func (in BannerInput) banner() model.Banner {
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	return model.Banner{
		Title:    strings.TrimSpace(in.Title),
		Subtitle: in.Subtitle,
		Image:    in.Image,
		Link:     in.Link,
		Position: in.Position,
		IsActive: active,
	}
}

// ListBanners возвращает активные баннеры по порядку показа.
func (s *Service) ListBanners(ctx context.Context) ([]model.Banner, error) {
	return s.repo.ListBanners(ctx, true)
}

// ListAllBanners возвращает все баннеры. Доступно только администратору.
func (s *Service) ListAllBanners(ctx context.Context, actor model.Actor) ([]model.Banner, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.repo.ListBanners(ctx, false)
}

// CreateBanner создаёт баннер.
func (s *Service) CreateBanner(ctx context.Context, actor model.Actor, in BannerInput) (*model.Banner, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validate(in); err != nil {
		return nil, err
	}
	return s.repo.CreateBanner(ctx, in.banner())
}

// UpdateBanner перезаписывает баннер.
func (s *Service) UpdateBanner(ctx context.Context, actor model.Actor, id int64, in BannerInput) (*model.Banner, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validate(in); err != nil {
		return nil, err
	}
	b := in.banner()
	b.ID = id
	return s.repo.UpdateBanner(ctx, b)
}

// DeleteBanner удаляет баннер.
func (s *Service) DeleteBanner(ctx context.Context, actor model.Actor, id int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	return s.repo.DeleteBanner(ctx, id)
}

// GetSettings возвращает настройки магазина.
func (s *Service) GetSettings(ctx context.Context) (map[string]string, error) {
	return s.repo.GetSettings(ctx)
}

// UpdateSettings сохраняет переданные настройки одной транзакцией и возвращает итоговый набор.
func (s *Service) UpdateSettings(ctx context.Context, actor model.Actor, values map[string]string) (map[string]string, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, invalid("settings must not be empty")
	}
	for k := range values {
		if strings.TrimSpace(k) == "" {
			return nil, invalid("setting key must not be empty")
		}
	}

	if err := s.repo.UpsertSettings(ctx, values); err != nil {
		return nil, err
	}
	return s.repo.GetSettings(ctx)
}

// NotificationList содержит уведомления пользователя и число непрочитанных.
type NotificationList struct {
	Notifications []model.Notification `json:"notifications"`
	UnreadCount   int                  `json:"unreadCount"`
}

// ListNotifications возвращает уведомления текущего пользователя.
func (s *Service) ListNotifications(ctx context.Context, actor model.Actor) (*NotificationList, error) {
	items, unread, err := s.repo.ListNotifications(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	return &NotificationList{Notifications: items, UnreadCount: unread}, nil
}

// MarkNotificationRead отмечает уведомление прочитанным.
func (s *Service) MarkNotificationRead(ctx context.Context, actor model.Actor, id int64) error {
	return s.repo.MarkNotificationRead(ctx, actor.UserID, id)
}

// MarkAllNotificationsRead отмечает прочитанными все уведомления пользователя.
func (s *Service) MarkAllNotificationsRead(ctx context.Context, actor model.Actor) error {
	return s.repo.MarkAllNotificationsRead(ctx, actor.UserID)
}

// DeleteNotification удаляет уведомление пользователя.
func (s *Service) DeleteNotification(ctx context.Context, actor model.Actor, id int64) error {
	return s.repo.DeleteNotification(ctx, actor.UserID, id)
}

// SendNotification создаёт уведомление одному пользователю или, без userId, всем пользователям.
// Возвращает число созданных уведомлений.
func (s *Service) SendNotification(ctx context.Context, actor model.Actor, in NotificationInput) (int64, error) {
	if err := requireAdmin(actor); err != nil {
		return 0, err
	}
	if err := validate(in); err != nil {
		return 0, err
	}

	typ := strings.TrimSpace(in.Type)
	if typ == "" {
		typ = "info"
	}

	return s.repo.CreateNotification(ctx, in.UserID, model.Notification{
		Title:   strings.TrimSpace(in.Title),
		Message: in.Message,
		Type:    typ,
	})
}

// Subscribe подписывает email на рассылку.
func (s *Service) Subscribe(ctx context.Context, in SubscribeInput) (*model.Subscriber, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validate(in); err != nil {
		return nil, err
	}
	return s.repo.Subscribe(ctx, in.Email)
}

// Unsubscribe отменяет подписку.
func (s *Service) Unsubscribe(ctx context.Context, in SubscribeInput) error {
	in.Email = normalizeEmail(in.Email)
	if err := validate(in); err != nil {
		return err
	}
	return s.repo.Unsubscribe(ctx, in.Email)
}

// ListSubscribers возвращает всех подписчиков. Доступно только администратору.
func (s *Service) ListSubscribers(ctx context.Context, actor model.Actor) ([]model.Subscriber, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.repo.ListSubscribers(ctx, false)
}

// SendNewsletter ставит письмо в очередь для каждого активного подписчика по очереди.
// При заполненной очереди ждёт свободного места, поэтому длинный список лишь удлиняет запрос.
// Сбой для одного подписчика не прерывает рассылку; в результате учитываются только успешные.
func (s *Service) SendNewsletter(ctx context.Context, actor model.Actor, in NewsletterInput) (*NewsletterResult, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	in.Subject = strings.TrimSpace(in.Subject)
	if err := validate(in); err != nil {
		return nil, err
	}

	subs, err := s.repo.ListSubscribers(ctx, true)
	if err != nil {
		return nil, err
	}

	res := &NewsletterResult{Total: len(subs)}
	if s.mail == nil {
		return res, nil
	}

	for _, sub := range subs {
		err := s.mail.EnqueueWait(ctx, queue.Message{
			To:      sub.Email,
			Subject: in.Subject,
			Body:    in.Content,
		})
		if err != nil {
			s.logger.Error("enqueue newsletter error", zap.Error(err), zap.String("to", sub.Email))
			if ctx.Err() != nil || errors.Is(err, queue.ErrQueueClosed) {
				break
			}
			continue
		}
		res.Sent++
	}

	s.logger.Info("newsletter queued", zap.Int("sent", res.Sent), zap.Int("total", res.Total))
	return res, nil
}
