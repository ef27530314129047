// Package queue содержит очередь исходящих писем магазина.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

var (
	// ErrQueueFull возвращается, если в очереди в памяти не осталось места.
	ErrQueueFull = errors.New("mail queue is full")
	// ErrQueueClosed возвращается при работе с закрытой очередью.
	ErrQueueClosed = errors.New("mail queue is closed")
)

// Message описывает письмо, ожидающее отправки.
type Message struct {
	ID         string    `json:"id"`
	To         string    `json:"to"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body"`
	EnqueuedAt time.Time `json:"enqueuedAt"`
}

// Queue описывает очередь писем с явным жизненным циклом.
type Queue interface {
	// Enqueue ставит письмо в очередь, не дожидаясь свободного места; ошибка означает, что письмо не принято.
	Enqueue(ctx context.Context, msg Message) error
	// EnqueueWait ставит письмо в очередь, ожидая свободного места до отмены ctx или закрытия очереди.
	EnqueueWait(ctx context.Context, msg Message) error
	// Dequeue ждёт письмо не дольше timeout; при пустой очереди возвращает nil без ошибки.
	Dequeue(ctx context.Context, timeout time.Duration) (*Message, error)
	Close() error
}

func prepare(msg *Message) {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.EnqueuedAt.IsZero() {
		msg.EnqueuedAt = time.Now().UTC()
	}
}

// RedisQueue хранит письма в списке Redis.
type RedisQueue struct {
	client *redis.Client
	key    string
}

// NewRedisQueue подключается к Redis по URL и возвращает очередь, хранящую письма под ключом key.
func NewRedisQueue(ctx context.Context, redisURL, key string) (*RedisQueue, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return NewRedisQueueFromClient(client, key), nil
}

// NewRedisQueueFromClient создаёт очередь поверх готового клиента Redis.
func NewRedisQueueFromClient(client *redis.Client, key string) *RedisQueue {
	return &RedisQueue{client: client, key: key}
}

// Enqueue добавляет письмо в голову списка.
func (q *RedisQueue) Enqueue(ctx context.Context, msg Message) error {
	prepare(&msg)

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		if errors.Is(err, redis.ErrClosed) {
			return ErrQueueClosed
		}
		return fmt.Errorf("push message: %w", err)
	}
	return nil
}

// EnqueueWait совпадает с Enqueue: список Redis не ограничен по длине.
func (q *RedisQueue) EnqueueWait(ctx context.Context, msg Message) error {
	return q.Enqueue(ctx, msg)
}

// Dequeue забирает письмо из хвоста списка, ожидая не дольше timeout.
func (q *RedisQueue) Dequeue(ctx context.Context, timeout time.Duration) (*Message, error) {
	res, err := q.client.BRPop(ctx, timeout, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		if errors.Is(err, redis.ErrClosed) {
			return nil, ErrQueueClosed
		}
		return nil, fmt.Errorf("pop message: %w", err)
	}

	// BRPOP возвращает пару [ключ, значение].
	if len(res) != 2 {
		return nil, fmt.Errorf("unexpected reply length: %d", len(res))
	}

	var msg Message
	if err := json.Unmarshal([]byte(res[1]), &msg); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	return &msg, nil
}

// Len возвращает число писем в очереди.
func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}

// Close закрывает соединение с Redis.
func (q *RedisQueue) Close() error {
	return q.client.Close()
}

// MemoryQueue хранит письма в памяти процесса. Используется, когда Redis не настроен.
type MemoryQueue struct {
	ch        chan Message
	done      chan struct{}
	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

// NewMemoryQueue создаёт очередь в памяти ёмкостью size писем.
func NewMemoryQueue(size int) *MemoryQueue {
	return &MemoryQueue{
		ch:   make(chan Message, size),
		done: make(chan struct{}),
	}
}

// Enqueue добавляет письмо, не блокируясь; при заполненной очереди возвращает ErrQueueFull.
func (q *MemoryQueue) Enqueue(ctx context.Context, msg Message) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}

	prepare(&msg)

	select {
	case q.ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

// EnqueueWait добавляет письмо, ожидая освобождения места в буфере.
// Ожидание прерывается отменой ctx или закрытием очереди.
func (q *MemoryQueue) EnqueueWait(ctx context.Context, msg Message) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}

	prepare(&msg)

	select {
	case q.ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.done:
		return ErrQueueClosed
	}
}

// Dequeue ждёт письмо не дольше timeout.
func (q *MemoryQueue) Dequeue(ctx context.Context, timeout time.Duration) (*Message, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case msg, ok := <-q.ch:
		if !ok {
			return nil, ErrQueueClosed
		}
		return &msg, nil
	case <-timer.C:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close закрывает очередь; письма, оставшиеся в буфере, ещё можно забрать.
func (q *MemoryQueue) Close() error {
	q.closeOnce.Do(func() {
		// done освобождает EnqueueWait, удерживающие RLock, до захвата Lock.
		close(q.done)
		q.mu.Lock()
		q.closed = true
		close(q.ch)
		q.mu.Unlock()
	})
	return nil
}
