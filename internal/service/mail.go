package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/fashion-store/internal/mailer"
	"github.com/mmeshcher/fashion-store/internal/model"
	"github.com/mmeshcher/fashion-store/internal/queue"
)

const mailDequeueTimeout = 2 * time.Second

func welcomeMail(u *model.User) queue.Message {
	return queue.Message{
		To:      u.Email,
		Subject: "Welcome to Fashion Store",
		Body: fmt.Sprintf("<h1>Hi, %s!</h1><p>Thank you for joining Fashion Store.</p>",
			html.EscapeString(u.Name)),
	}
}

func orderConfirmationMail(email string, o *model.Order) queue.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "<h1>Order #%d confirmed</h1><ul>", o.ID)
	for _, it := range o.Items {
		fmt.Fprintf(&b, "<li>%s &times; %d: %s</li>",
			html.EscapeString(it.ProductName), it.Quantity, it.Price.StringFixed(2))
	}
	fmt.Fprintf(&b, "</ul><p>Subtotal: %s</p>", o.Subtotal.StringFixed(2))
	if o.Discount.IsPositive() {
		fmt.Fprintf(&b, "<p>Discount: %s</p>", o.Discount.StringFixed(2))
	}
	fmt.Fprintf(&b, "<p><b>Total: %s</b></p>", o.Total.StringFixed(2))

	return queue.Message{
		To:      email,
		Subject: fmt.Sprintf("Order #%d confirmation", o.ID),
		Body:    b.String(),
	}
}

// enqueueMail ставит письмо в очередь. Ошибка только логируется: письма не влияют на исход операции.
func (s *Service) enqueueMail(ctx context.Context, msg queue.Message) {
	if s.mail == nil {
		return
	}
	if err := s.mail.Enqueue(ctx, msg); err != nil {
		s.logger.Error("enqueue mail error",
			zap.Error(err),
			zap.String("to", msg.To),
			zap.String("subject", msg.Subject),
		)
	}
}

// StartMailDelivery забирает письма из очереди и передаёт их отправителю, пока не отменён ctx
// или не закрыта очередь. Неудачная доставка логируется, письмо отбрасывается.
func (s *Service) StartMailDelivery(ctx context.Context) error {
	if s.mail == nil || s.sender == nil {
		return nil
	}

	s.logger.Info("mail delivery started")
	defer s.logger.Info("mail delivery stopped")

	for {
		if ctx.Err() != nil {
			return nil
		}

		msg, err := s.mail.Dequeue(ctx, mailDequeueTimeout)
		if err != nil {
			if errors.Is(err, queue.ErrQueueClosed) || ctx.Err() != nil {
				return nil
			}
			s.logger.Error("dequeue mail error", zap.Error(err))
			if !sleepCtx(ctx, time.Second) {
				return nil
			}
			continue
		}
		if msg == nil {
			continue
		}

		s.deliver(ctx, *msg)
	}
}

func (s *Service) deliver(ctx context.Context, msg queue.Message) {
	err := s.sender.Send(ctx, msg)
	if err == nil {
		return
	}

	// Письмо с ошибкой не повторяется; при ограничении частоты доставка следующих писем приостанавливается.
	if retryAfter, ok := mailer.IsRateLimited(err); ok {
		s.logger.Warn("mail service rate limited, message dropped",
			zap.Duration("retryAfter", retryAfter),
			zap.String("id", msg.ID),
			zap.String("to", msg.To),
		)
		sleepCtx(ctx, retryAfter)
		return
	}

	s.logger.Error("send mail error",
		zap.Error(err),
		zap.String("id", msg.ID),
		zap.String("to", msg.To),
	)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
