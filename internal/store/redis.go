package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ashureev/skillpath/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "skillpath:session:"

// RedisConfig configures a RedisStore.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// RedisStore keeps sessions as JSON values whose expiry is refreshed on
// every write, so idle sessions are evicted by Redis itself.
type RedisStore struct {
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
}

var _ Store = (*RedisStore)(nil)

// NewRedis connects to Redis and verifies the connection.
func NewRedis(cfg RedisConfig) (*RedisStore, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, errors.New("missing redis address")
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = defaultRedisPrefix
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisStore{rdb: rdb, prefix: prefix, ttl: cfg.TTL}, nil
}

func (r *RedisStore) key(id string) string {
	return r.prefix + id
}

// Create allocates a new session.
func (r *RedisStore) Create(ctx context.Context) (*domain.Session, error) {
	sess := newSession()
	data, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}
	ok, err := r.rdb.SetNX(ctx, r.key(sess.ID), data, r.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis setnx: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("session id collision: %s", sess.ID)
	}
	return sess, nil
}

// Get retrieves a session by id.
func (r *RedisStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	data, err := r.rdb.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var sess domain.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &sess, nil
}

// Put overwrites an existing session and refreshes its expiry.
func (r *RedisStore) Put(ctx context.Context, sess *domain.Session) error {
	sess.UpdatedAt = timeNow().UTC()
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	ok, err := r.rdb.SetXX(ctx, r.key(sess.ID), data, r.ttl).Result()
	if err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	if !ok {
		return domain.ErrSessionNotFound
	}
	return nil
}

// Delete removes a session.
func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.rdb.Del(ctx, r.key(id)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// DeleteExpired is a no-op: Redis expires keys on its own. With no TTL
// configured it scans for sessions idle longer than ttl.
func (r *RedisStore) DeleteExpired(ctx context.Context, ttl time.Duration) ([]string, error) {
	if r.ttl > 0 {
		return nil, nil
	}

	cutoff := timeNow().Add(-ttl)
	var expired []string
	iter := r.rdb.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		id := strings.TrimPrefix(key, r.prefix)
		sess, err := r.Get(ctx, id)
		if err != nil {
			continue
		}
		if sess.UpdatedAt.Before(cutoff) {
			if err := r.rdb.Del(ctx, key).Err(); err != nil {
				return expired, fmt.Errorf("redis del: %w", err)
			}
			expired = append(expired, id)
		}
	}
	if err := iter.Err(); err != nil {
		return expired, fmt.Errorf("redis scan: %w", err)
	}
	return expired, nil
}

// Ping checks the connection.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

// Close closes the client.
func (r *RedisStore) Close() error {
	return r.rdb.Close()
}
