package throttle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// MemoryStore keeps records in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string][]Record
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string][]Record)}
}

func (s *MemoryStore) Load(_ context.Context, key string) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Record(nil), s.records[key]...), nil
}

func (s *MemoryStore) Save(_ context.Context, key string, records []Record, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(records) == 0 {
		delete(s.records, key)
		return nil
	}
	s.records[key] = append([]Record(nil), records...)
	return nil
}

// FileStore persists records as a JSON object on disk so they survive restarts.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore returns a store backed by the file at path. The file is created on first save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load(_ context.Context, key string) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.read()
	if err != nil {
		return nil, err
	}
	return all[key], nil
}

func (s *FileStore) Save(_ context.Context, key string, records []Record, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.read()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		delete(all, key)
	} else {
		all[key] = records
	}
	payload, err := json.Marshal(all)
	if err != nil {
		return fmt.Errorf("marshal throttle records: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create throttle dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o600); err != nil {
		return fmt.Errorf("write throttle records: %w", err)
	}
	return os.Rename(tmp, s.path)
}

func (s *FileStore) read() (map[string][]Record, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return make(map[string][]Record), nil
		}
		return nil, fmt.Errorf("read throttle records: %w", err)
	}
	all := make(map[string][]Record)
	if len(raw) == 0 {
		return all, nil
	}
	if err := json.Unmarshal(raw, &all); err != nil {
		return nil, fmt.Errorf("decode throttle records: %w", err)
	}
	return all, nil
}

// RedisStore keeps one JSON list per key, expiring with the cooldown.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore constructs a RedisStore. Keys are namespaced with prefix.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "throttle:submit:"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Load(ctx context.Context, key string) ([]Record, error) {
	raw, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get throttle %s: %w", key, err)
	}
	var records []Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode throttle %s: %w", key, err)
	}
	return records, nil
}

func (s *RedisStore) Save(ctx context.Context, key string, records []Record, ttl time.Duration) error {
	if len(records) == 0 {
		if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
			return fmt.Errorf("redis del throttle %s: %w", key, err)
		}
		return nil
	}
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode throttle %s: %w", key, err)
	}
	if err := s.client.Set(ctx, s.prefix+key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set throttle %s: %w", key, err)
	}
	return nil
}
