// Package redislock реализует распределённую блокировку фоновых задач на Redis,
// чтобы при нескольких репликах каждую задачу выполняла только одна.
package redislock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const defaultPrefix = "crm:lock:"

// ErrNotHeld — блокировка истекла или перехвачена другим владельцем.
var ErrNotHeld = errors.New("lock is not held")

// releaseScript удаляет ключ, только если в нём лежит токен владельца.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker выдаёт блокировки с TTL через SET NX.
type Locker struct {
	client   redis.UniversalClient
	prefix   string
	newToken func() string
}

// Option настраивает Locker.
type Option func(*Locker)

// WithPrefix задаёт префикс ключей блокировок.
func WithPrefix(prefix string) Option {
	return func(l *Locker) {
		if prefix != "" {
			l.prefix = prefix
		}
	}
}

func New(client redis.UniversalClient, opts ...Option) *Locker {
	l := &Locker{client: client, prefix: defaultPrefix, newToken: uuid.NewString}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Dial подключается к Redis по адресу host:port и проверяет соединение.
func Dial(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return client, nil
}

// TryLock пытается захватить блокировку name на ttl. При успехе возвращает функцию
// освобождения; false без ошибки означает, что блокировку держит кто-то другой.
func (l *Locker) TryLock(ctx context.Context, name string, ttl time.Duration) (func(context.Context) error, bool, error) {
	if ttl <= 0 {
		return nil, false, fmt.Errorf("lock %s: ttl must be positive", name)
	}

	key := l.prefix + name
	token := l.newToken()

	acquired, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire lock %s: %w", name, err)
	}
	if !acquired {
		return nil, false, nil
	}

	release := func(ctx context.Context) error {
		deleted, err := releaseScript.Run(ctx, l.client, []string{key}, token).Int64()
		if err != nil {
			return fmt.Errorf("release lock %s: %w", name, err)
		}
		if deleted == 0 {
			return fmt.Errorf("release lock %s: %w", name, ErrNotHeld)
		}
		return nil
	}
	return release, true, nil
}
