package outcome

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store holds the per-client checkout record. Writes overwrite the
// previous attempt; Take is read-once. Only the currently active
// verification session writes a given client's record.
type Store interface {
	Put(ctx context.Context, clientID string, rec Record) error
	// Peek returns the record without consuming it, or nil when absent.
	// Malformed or wrong-version blobs count as absent.
	Peek(ctx context.Context, clientID string) (*Record, error)
	// Take returns the record and deletes it in the same step.
	Take(ctx context.Context, clientID string) (*Record, error)
}

const keyPrefix = "payflow:checkout:"

type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to redis and returns the durable store; the
// error lets the caller fall back to the in-memory store when redis is
// unreachable.
func NewRedisStore(addr, pass string, db int, ttl time.Duration) (Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: pass,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &redisStore{client: client, ttl: ttl}, nil
}

func (s *redisStore) Put(ctx context.Context, clientID string, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, keyPrefix+clientID, data, s.ttl).Err()
}

func (s *redisStore) Peek(ctx context.Context, clientID string) (*Record, error) {
	data, err := s.client.Get(ctx, keyPrefix+clientID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeRecord(data), nil
}

func (s *redisStore) Take(ctx context.Context, clientID string) (*Record, error) {
	data, err := s.client.GetDel(ctx, keyPrefix+clientID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeRecord(data), nil
}

// decodeRecord treats anything that does not pass schema validation as
// absent. A stale or tampered blob must never reach the terminal page.
func decodeRecord(data []byte) *Record {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil
	}
	if err := rec.Validate(); err != nil {
		return nil
	}
	return &rec
}

type memoryEntry struct {
	data    []byte
	expires time.Time
}

type memoryStore struct {
	mu  sync.Mutex
	m   map[string]memoryEntry
	ttl time.Duration
}

// NewMemoryStore is the in-memory fallback used when redis is not
// available, and the store tests run against it.
func NewMemoryStore(ttl time.Duration) Store {
	return &memoryStore{m: make(map[string]memoryEntry), ttl: ttl}
}

func (s *memoryStore) Put(_ context.Context, clientID string, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[clientID] = memoryEntry{data: data, expires: time.Now().Add(s.ttl)}
	return nil
}

func (s *memoryStore) Peek(_ context.Context, clientID string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.m[clientID]
	if !ok || time.Now().After(entry.expires) {
		delete(s.m, clientID)
		return nil, nil
	}
	return decodeRecord(entry.data), nil
}

func (s *memoryStore) Take(_ context.Context, clientID string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.m[clientID]
	if !ok || time.Now().After(entry.expires) {
		delete(s.m, clientID)
		return nil, nil
	}
	delete(s.m, clientID)
	return decodeRecord(entry.data), nil
}

// PurgeExpired drops expired in-memory entries. Redis handles expiry on
// its own; this only matters for the fallback store.
func PurgeExpired(s Store) int {
	ms, ok := s.(*memoryStore)
	if !ok {
		return 0
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()
	now := time.Now()
	removed := 0
	for k, e := range ms.m {
		if now.After(e.expires) {
			delete(ms.m, k)
			removed++
		}
	}
	return removed
}
