package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/ministryofjustice/money-to-prisoners-noms-ops/pkg/facets"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrSessionNotFound is returned when a session does not exist or has expired
	ErrSessionNotFound = errors.New("session not found")
)

// Session is a page session. Options and Dataset are captured when the
// session is created and do not change for its lifetime. Selected holds the
// chosen prison identifiers; empty means all prisons.
type Session struct {
	ID            string               `json:"id"`
	Locale        string               `json:"locale"`
	Options       []Option             `json:"options"`
	Dataset       *facets.Dataset      `json:"dataset"`
	CatchAllLabel string               `json:"catch_all_label"`
	State         facets.SelectorState `json:"state"`
	Selected      []string             `json:"selected"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// Store persists sessions
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, sess *Session) error
	Delete(ctx context.Context, id string) error
}

type memoryEntry struct {
	session   Session
	expiresAt time.Time
}

// MemoryStore keeps sessions in process memory
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

// NewMemoryStore creates an in-memory store; sessions expire ttl after their last save
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

// Get implements Store
func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[id]
	if !ok {
		return nil, ErrSessionNotFound
	}

	if m.now().After(entry.expiresAt) {
		delete(m.entries, id)
		return nil, ErrSessionNotFound
	}

	sess := entry.session

	return &sess, nil
}

// Save implements Store
func (m *MemoryStore) Save(_ context.Context, sess *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.sweep(now)

	m.entries[sess.ID] = memoryEntry{
		session:   *sess,
		expiresAt: now.Add(m.ttl),
	}

	return nil
}

// Delete implements Store
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[id]; !ok {
		return ErrSessionNotFound
	}
	delete(m.entries, id)

	return nil
}

// Len returns the number of stored sessions, including expired ones not yet swept
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.entries)
}

func (m *MemoryStore) sweep(now time.Time) {
	for id, entry := range m.entries {
		if now.After(entry.expiresAt) {
			delete(m.entries, id)
		}
	}
}

// RedisStore keeps sessions in Redis as JSON
type RedisStore struct {
	redisClient *redis.Client
	keyPrefix   string
	ttl         time.Duration
}

// NewRedisStore creates a Redis-backed store
func NewRedisStore(redisClient *redis.Client, keyPrefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{
		redisClient: redisClient,
		keyPrefix:   keyPrefix,
		ttl:         ttl,
	}
}

func (r *RedisStore) key(id string) string {
	return r.keyPrefix + id
}

// Get implements Store
func (r *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	data, err := r.redisClient.Get(ctx, r.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, err
	}

	return &sess, nil
}

// Save implements Store
func (r *RedisStore) Save(ctx context.Context, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}

	return r.redisClient.Set(ctx, r.key(sess.ID), data, r.ttl).Err()
}

// Delete implements Store
func (r *RedisStore) Delete(ctx context.Context, id string) error {
	removed, err := r.redisClient.Del(ctx, r.key(id)).Result()
	if err != nil {
		return err
	}
	if removed == 0 {
		return ErrSessionNotFound
	}

	return nil
}
