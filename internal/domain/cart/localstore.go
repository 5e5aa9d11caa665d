// internal/domain/cart/localstore.go
package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LocalStore is the durable store for the anonymous cart of one
// session. Implementations must treat a missing or malformed payload
// as an empty cart, never as an error the caller has to handle.
type LocalStore interface {
	Read(ctx context.Context) ([]Line, error)
	Write(ctx context.Context, lines []Line) error
	Clear(ctx context.Context) error
}

// RedisStore keeps the anonymous cart as a JSON array under a
// session-scoped key with a sliding TTL.
type RedisStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisStore creates the durable store for one session.
func NewRedisStore(client *redis.Client, sessionID string, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		key:    fmt.Sprintf("cart:session:%s", sessionID),
		ttl:    ttl,
	}
}

// Read returns the stored lines. A missing key or a payload that does
// not decode yields an empty cart.
func (s *RedisStore) Read(ctx context.Context) ([]Line, error) {
	data, err := s.client.Get(ctx, s.key).Result()
	if err == redis.Nil {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	return decodeLines([]byte(data)), nil
}

// Write replaces the stored cart and refreshes the TTL.
func (s *RedisStore) Write(ctx context.Context, lines []Line) error {
	data, err := encodeLines(lines)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key, data, s.ttl).Err()
}

// Clear drops the stored cart.
func (s *RedisStore) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.key).Err()
}

func encodeLines(lines []Line) ([]byte, error) {
	if lines == nil {
		lines = []Line{}
	}
	return json.Marshal(lines)
}

// decodeLines tolerates corrupt storage: anything that does not parse
// comes back as an empty cart. Individual entries that violate the
// quantity floor are dropped rather than poisoning the whole cart.
func decodeLines(data []byte) []Line {
	var lines []Line
	if err := json.Unmarshal(data, &lines); err != nil {
		return nil
	}

	valid := lines[:0]
	for _, line := range lines {
		if line.ID == "" || line.Quantity < 1 {
			continue
		}
		valid = append(valid, line)
	}
	return valid
}
