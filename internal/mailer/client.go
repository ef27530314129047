// Package mailer предоставляет отправку писем через внешний почтовый сервис.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/mmeshcher/fashion-store/internal/queue"
)

// RateLimitError возвращается, когда почтовый сервис просит повторить запрос позже.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("mail service rate limited, retry after %s", e.RetryAfter)
}

// IsRateLimited сообщает, вызвана ли ошибка ограничением частоты запросов, и через сколько повторить.
func IsRateLimited(err error) (time.Duration, bool) {
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return rl.RetryAfter, true
	}
	return 0, false
}

// Client инкапсулирует HTTP-взаимодействие с почтовым сервисом.
type Client struct {
	baseURL    string
	from       string
	httpClient *http.Client
}

type sendRequest struct {
	ID      string `json:"id"`
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// NewClient создаёт HTTP-клиент почтового сервиса по указанному адресу.
func NewClient(baseURL, from string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		from:    from,
		httpClient: &http.Client{
			Timeout:   5 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Send передаёт письмо почтовому сервису.
func (c *Client) Send(ctx context.Context, msg queue.Message) error {
	if c == nil || c.baseURL == "" {
		return fmt.Errorf("mail client not configured")
	}

	base := c.baseURL
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}

	body, err := json.Marshal(sendRequest{
		ID:      msg.ID,
		From:    c.from,
		To:      msg.To,
		Subject: msg.Subject,
		HTML:    msg.Body,
	})
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/api/messages", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := time.Duration(0)
		if v := resp.Header.Get("Retry-After"); v != "" {
			if seconds, parseErr := strconv.Atoi(v); parseErr == nil {
				retryAfter = time.Duration(seconds) * time.Second
			}
		}
		return &RateLimitError{RetryAfter: retryAfter}
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	return nil
}

// LogSender записывает письма в журнал вместо отправки. Используется, когда почтовый сервис не настроен.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender создаёт LogSender.
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send записывает письмо в журнал.
func (s *LogSender) Send(_ context.Context, msg queue.Message) error {
	s.logger.Info("mail delivery skipped, no mail service configured",
		zap.String("id", msg.ID),
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
	)
	return nil
}
