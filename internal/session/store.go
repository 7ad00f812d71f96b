package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Data is the server-side state behind a session cookie.
type Data struct {
	IsLoggedIn bool   `json:"isLoggedIn"`
	UserID     string `json:"userId"`
}

// Store keeps sessions in Redis under <prefix>:<sid> with a TTL that is
// extended on every read.
type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewStore(client *redis.Client, prefix string, ttl time.Duration) *Store {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "thumblify:sess"
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Store{client: client, prefix: prefix, ttl: ttl}
}

func (s *Store) TTL() time.Duration { return s.ttl }

func (s *Store) key(sid string) string {
	return s.prefix + ":" + sid
}

// Create writes a new session and returns its id.
func (s *Store) Create(ctx context.Context, data Data) (string, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("encode session: %w", err)
	}
	sid := uuid.NewString()
	if err := s.client.Set(ctx, s.key(sid), payload, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}
	return sid, nil
}

// Get returns nil when the session does not exist or has expired.
func (s *Store) Get(ctx context.Context, sid string) (*Data, error) {
	if sid == "" {
		return nil, nil
	}
	raw, err := s.client.Get(ctx, s.key(sid)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if err := s.client.Expire(ctx, s.key(sid), s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("touch session: %w", err)
	}
	return &data, nil
}

func (s *Store) Destroy(ctx context.Context, sid string) error {
	if sid == "" {
		return nil
	}
	if err := s.client.Del(ctx, s.key(sid)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("destroy session: %w", err)
	}
	return nil
}
