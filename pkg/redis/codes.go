package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// ErrCodeNotFound signals a missing or already-consumed one-time code.
var ErrCodeNotFound = errors.New("code not found")

// CodeStore keeps short-lived one-time values (staff confirmation codes,
// in-flight operation flags) in redis with an explicit TTL instead of
// process-global maps.
type CodeStore struct {
	client *Client
}

// NewCodeStore wraps the shared client.
func NewCodeStore(client *Client) *CodeStore {
	return &CodeStore{client: client}
}

// Put stores a code under purpose/id for the given TTL.
func (s *CodeStore) Put(ctx context.Context, purpose, id, value string, ttl time.Duration) error {
	if s == nil || s.client == nil {
		return errors.New("code store not initialized")
	}
	return s.client.Set(ctx, s.client.CodeKey(purpose, id), value, ttl)
}

// Take reads and deletes the code in one logical step. A missing or expired
// key yields ErrCodeNotFound.
func (s *CodeStore) Take(ctx context.Context, purpose, id string) (string, error) {
	if s == nil || s.client == nil {
		return "", errors.New("code store not initialized")
	}
	key := s.client.CodeKey(purpose, id)
	value, err := s.client.Get(ctx, key)
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", ErrCodeNotFound
		}
		return "", err
	}
	if err := s.client.Del(ctx, key); err != nil {
		return "", err
	}
	return value, nil
}
