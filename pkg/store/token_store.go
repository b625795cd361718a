package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenStore persists the access token between runs, the way a browser
// keeps it in local storage. Load returns "" when nothing is stored.
type TokenStore interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string, ttl time.Duration) error
	Clear(ctx context.Context) error
}

// MemoryTokenStore keeps the token in-memory (single process only).
type MemoryTokenStore struct {
	mu     sync.Mutex
	token  string
	expiry time.Time
}

// NewMemoryTokenStore builds an in-memory token store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

// Load returns the stored token unless its ttl elapsed.
func (s *MemoryTokenStore) Load(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.expiry.IsZero() && time.Now().After(s.expiry) {
		s.token = ""
		s.expiry = time.Time{}
	}
	return s.token, nil
}

// Save stores token; ttl <= 0 keeps it until cleared.
func (s *MemoryTokenStore) Save(_ context.Context, token string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.expiry = time.Time{}
	if ttl > 0 {
		s.expiry = time.Now().Add(ttl)
	}
	return nil
}

// Clear removes the token.
func (s *MemoryTokenStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.expiry = time.Time{}
	return nil
}

// FileTokenStore keeps the token in a file readable only by the owner.
// With a Sealer the file content is encrypted.
type FileTokenStore struct {
	path   string
	sealer *Sealer
}

// NewFileTokenStore builds a file-backed token store. sealer may be nil.
func NewFileTokenStore(path string, sealer *Sealer) (*FileTokenStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("token file path is required")
	}
	return &FileTokenStore{path: path, sealer: sealer}, nil
}

// Load reads the token file. A missing file means no token.
func (s *FileTokenStore) Load(_ context.Context) (string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read token file: %w", err)
	}
	content := strings.TrimSpace(string(data))
	if content == "" {
		return "", nil
	}
	if s.sealer == nil {
		return content, nil
	}
	token, err := s.sealer.Open(content)
	if err != nil {
		return "", fmt.Errorf("open token file: %w", err)
	}
	return token, nil
}

// Save writes the token file. The file does not expire on its own; callers
// check the token's exp claim on load.
func (s *FileTokenStore) Save(_ context.Context, token string, _ time.Duration) error {
	content := token
	if s.sealer != nil {
		sealed, err := s.sealer.Seal(token)
		if err != nil {
			return fmt.Errorf("seal token: %w", err)
		}
		content = sealed
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(content+"\n"), 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace token file: %w", err)
	}
	return nil
}

// Clear deletes the token file.
func (s *FileTokenStore) Clear(_ context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}

// RedisTokenStore keeps the token in Redis with the token's remaining
// lifetime as TTL, so several machines can share one login.
type RedisTokenStore struct {
	client *redis.Client
	key    string
	sealer *Sealer
}

// NewRedisTokenStore builds a Redis-backed token store under key.
func NewRedisTokenStore(addr, password, key string, sealer *Sealer) *RedisTokenStore {
	key = strings.TrimSpace(key)
	if key == "" {
		key = "jamsession:token:default"
	}
	return &RedisTokenStore{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		key:    key,
		sealer: sealer,
	}
}

// Load returns the stored token or "" when absent or expired.
func (s *RedisTokenStore) Load(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	val, err := s.client.Get(ctx, s.key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if s.sealer == nil {
		return val, nil
	}
	return s.sealer.Open(val)
}

// Save stores token; ttl <= 0 keeps it until cleared.
func (s *RedisTokenStore) Save(ctx context.Context, token string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	value := token
	if s.sealer != nil {
		sealed, err := s.sealer.Seal(token)
		if err != nil {
			return fmt.Errorf("seal token: %w", err)
		}
		value = sealed
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return s.client.Set(ctx, s.key, value, ttl).Err()
}

// Clear removes the token.
func (s *RedisTokenStore) Clear(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := s.client.Del(ctx, s.key).Err(); err != nil && err != redis.Nil {
		return err
	}
	return nil
}

// Close releases the Redis connection pool.
func (s *RedisTokenStore) Close() error {
	return s.client.Close()
}
