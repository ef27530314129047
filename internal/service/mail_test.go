package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/fashion-store/internal/mailer"
	"github.com/mmeshcher/fashion-store/internal/model"
	"github.com/mmeshcher/fashion-store/internal/queue"
)

type stubSender struct {
	mu    sync.Mutex
	sent  []queue.Message
	calls int
	errs  []error
}

func (s *stubSender) Send(_ context.Context, msg queue.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		if err != nil {
			return err
		}
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *stubSender) snapshot() (int, []queue.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls, append([]queue.Message(nil), s.sent...)
}

func TestStartMailDelivery_DrainsUntilClosed(t *testing.T) {
	mail := queue.NewMemoryQueue(4)
	sender := &stubSender{errs: []error{nil, errors.New("smtp down"), nil}}
	svc := NewService(&stubRepo{}, mail, sender, nil)

	ctx := context.Background()
	require.NoError(t, mail.Enqueue(ctx, queue.Message{To: "a@example.com"}))
	require.NoError(t, mail.Enqueue(ctx, queue.Message{To: "b@example.com"}))
	require.NoError(t, mail.Enqueue(ctx, queue.Message{To: "c@example.com"}))
	require.NoError(t, mail.Close())

	require.NoError(t, svc.StartMailDelivery(ctx))

	calls, sent := sender.snapshot()
	assert.Equal(t, 3, calls)
	require.Len(t, sent, 2)
	assert.Equal(t, "a@example.com", sent[0].To)
	assert.Equal(t, "c@example.com", sent[1].To)
}

func TestStartMailDelivery_RateLimitDropsAndPauses(t *testing.T) {
	mail := queue.NewMemoryQueue(4)
	sender := &stubSender{errs: []error{&mailer.RateLimitError{RetryAfter: 50 * time.Millisecond}}}
	svc := NewService(&stubRepo{}, mail, sender, nil)

	ctx := context.Background()
	require.NoError(t, mail.Enqueue(ctx, queue.Message{ID: "m1", To: "a@example.com"}))
	require.NoError(t, mail.Enqueue(ctx, queue.Message{ID: "m2", To: "b@example.com"}))
	require.NoError(t, mail.Close())

	start := time.Now()
	require.NoError(t, svc.StartMailDelivery(ctx))

	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)

	calls, sent := sender.snapshot()
	assert.Equal(t, 2, calls)
	require.Len(t, sent, 1)
	assert.Equal(t, "m2", sent[0].ID)
}

func TestStartMailDelivery_NoSender(t *testing.T) {
	svc := NewService(&stubRepo{}, nil, nil, nil)

	done := make(chan struct{})
	go func() {
		_ = svc.StartMailDelivery(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("StartMailDelivery did not return without a queue")
	}
}

func TestSendNewsletter_WaitsForQueueSpace(t *testing.T) {
	repo := &stubRepo{subscribers: []model.Subscriber{
		{ID: 1, Email: "a@example.com", IsActive: true},
		{ID: 2, Email: "b@example.com", IsActive: false},
		{ID: 3, Email: "c@example.com", IsActive: true},
		{ID: 4, Email: "d@example.com", IsActive: true},
		{ID: 5, Email: "e@example.com", IsActive: true},
	}}
	mail := queue.NewMemoryQueue(2)
	svc := newTestService(repo, mail)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	type result struct {
		res *NewsletterResult
		err error
	}
	done := make(chan result, 1)
	go func() {
		res, err := svc.SendNewsletter(ctx, admin, NewsletterInput{Subject: "Sale", Content: "<p>-20%</p>"})
		done <- result{res: res, err: err}
	}()

	var got []string
	for len(got) < 4 {
		msg, err := mail.Dequeue(ctx, time.Second)
		require.NoError(t, err)
		if msg == nil {
			continue
		}
		assert.Equal(t, "Sale", msg.Subject)
		got = append(got, msg.To)
	}

	r := <-done
	require.NoError(t, r.err)
	assert.Equal(t, 4, r.res.Total)
	assert.Equal(t, 4, r.res.Sent)
	assert.Equal(t, []string{"a@example.com", "c@example.com", "d@example.com", "e@example.com"}, got)
}

func TestSendNewsletter_StopsOnCancel(t *testing.T) {
	repo := &stubRepo{subscribers: []model.Subscriber{
		{ID: 1, Email: "a@example.com", IsActive: true},
		{ID: 2, Email: "b@example.com", IsActive: true},
		{ID: 3, Email: "c@example.com", IsActive: true},
	}}
	mail := queue.NewMemoryQueue(1)
	svc := newTestService(repo, mail)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	res, err := svc.SendNewsletter(ctx, admin, NewsletterInput{Subject: "Sale", Content: "<p>-20%</p>"})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 1, res.Sent)
}

func TestSendNotification(t *testing.T) {
	repo := &stubRepo{notifyCount: 3}
	svc := newTestService(repo, nil)

	n, err := svc.SendNotification(context.Background(), admin, NotificationInput{Title: "Hi", Message: "News"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Nil(t, repo.notifyUserID)

	uid := int64(7)
	_, err = svc.SendNotification(context.Background(), admin, NotificationInput{UserID: &uid, Title: "Hi", Message: "News"})
	require.NoError(t, err)
	require.NotNil(t, repo.notifyUserID)
	assert.Equal(t, uid, *repo.notifyUserID)
}

func TestUpdateSettings(t *testing.T) {
	repo := &stubRepo{settings: map[string]string{"currency": "USD"}}
	svc := newTestService(repo, nil)

	_, err := svc.UpdateSettings(context.Background(), admin, nil)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	res, err := svc.UpdateSettings(context.Background(), admin, map[string]string{"storeName": "Fashion"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"storeName": "Fashion"}, repo.upserted)
	assert.Equal(t, "USD", res["currency"])
	assert.Equal(t, "Fashion", res["storeName"])
}
