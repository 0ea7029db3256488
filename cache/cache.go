// Package cache implements the gateway's two-layer cache: an in-process
// LRU (L1) backed by a shared Redis instance (L2). Every integration
// envelope reads through L1 then L2 before calling an adapter, and writes
// through both layers on a cache-refreshing call.
//
// Grounded on agentflow's llm/cache.MultiLevelCache and LRUCache, adapted
// from caching a single ChatRequest/ChatResponse pair to caching a
// service's []types.Record search results under a namespaced key.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrMiss is returned by Get when the key is absent from both layers.
var ErrMiss = errors.New("cache: miss")

// Entry is the generic value stored in the cache. Value is kept as raw
// JSON so the cache package has no dependency on what's being cached.
type Entry struct {
	Value     json.RawMessage `json:"value"`
	CreatedAt time.Time       `json:"created_at"`
	ExpiresAt time.Time       `json:"expires_at"`
	HitCount  int             `json:"hit_count"`
}

// Config tunes the two layers independently.
type Config struct {
	LocalMaxSize int
	LocalTTL     time.Duration
	RedisTTL     time.Duration
	EnableLocal  bool
	EnableRedis  bool
}

// DefaultConfig returns sensible defaults: a 2000-entry L1 with a 30s TTL
// backing a Redis L2 with a 10-minute TTL.
func DefaultConfig() Config {
	return Config{
		LocalMaxSize: 2000,
		LocalTTL:     30 * time.Second,
		RedisTTL:     10 * time.Minute,
		EnableLocal:  true,
		EnableRedis:  true,
	}
}

// Cache is the two-layer read-through/write-through cache.
type Cache struct {
	local  *lru
	redis  *redis.Client
	cfg    Config
	logger *zap.Logger
}

// New builds a Cache. rdb may be nil, which disables the Redis layer
// regardless of cfg.EnableRedis.
func New(rdb *redis.Client, cfg Config, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	var l *lru
	if cfg.EnableLocal {
		l = newLRU(cfg.LocalMaxSize, cfg.LocalTTL)
	}
	return &Cache{local: l, redis: rdb, cfg: cfg, logger: logger}
}

// Get reads through L1 then L2, backfilling L1 on an L2 hit.
func (c *Cache) Get(ctx context.Context, key string) (*Entry, error) {
	if c.cfg.EnableLocal && c.local != nil {
		if entry, ok := c.local.get(key); ok {
			return entry, nil
		}
	}

	if c.cfg.EnableRedis && c.redis != nil {
		data, err := c.redis.Get(ctx, redisKey(key)).Bytes()
		if err == nil {
			var entry Entry
			if err := json.Unmarshal(data, &entry); err == nil {
				if c.cfg.EnableLocal && c.local != nil {
					c.local.set(key, &entry)
				}
				return &entry, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			c.logger.Warn("cache: redis get failed", zap.Error(err), zap.String("key", key))
		}
	}

	return nil, ErrMiss
}

// Set writes through both layers with the given TTL override; ttl <= 0
// uses the configured RedisTTL.
func (c *Cache) Set(ctx context.Context, key string, value json.RawMessage, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.cfg.RedisTTL
	}
	entry := &Entry{Value: value, CreatedAt: time.Now(), ExpiresAt: time.Now().Add(ttl)}

	if c.cfg.EnableLocal && c.local != nil {
		c.local.set(key, entry)
	}

	if c.cfg.EnableRedis && c.redis != nil {
		data, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		if err := c.redis.Set(ctx, redisKey(key), data, ttl).Err(); err != nil {
			c.logger.Warn("cache: redis set failed", zap.Error(err), zap.String("key", key))
		}
	}
	return nil
}

// Delete removes key from both layers.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if c.cfg.EnableLocal && c.local != nil {
		c.local.delete(key)
	}
	if c.cfg.EnableRedis && c.redis != nil {
		return c.redis.Del(ctx, redisKey(key)).Err()
	}
	return nil
}

// Flush clears the L1 cache entirely. Used by the admin surface when a
// service's data is known stale (e.g. after re-enabling it).
func (c *Cache) Flush() {
	if c.local != nil {
		c.local.clear()
	}
}

func redisKey(key string) string { return "fedquery:cache:" + key }

// lru is an O(1) get/set/evict LRU keyed by string, guarded by a mutex
// never held across a suspension point.
type lru struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	items    map[string]*node
	head     *node
	tail     *node
}

type node struct {
	key       string
	entry     *Entry
	expiresAt time.Time
	prev, next *node
}

func newLRU(capacity int, ttl time.Duration) *lru {
	if capacity <= 0 {
		capacity = 1
	}
	return &lru{capacity: capacity, ttl: ttl, items: make(map[string]*node)}
}

func (l *lru) get(key string) (*Entry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	n, ok := l.items[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(n.expiresAt) {
		l.remove(n)
		delete(l.items, key)
		return nil, false
	}
	l.moveToHead(n)
	n.entry.HitCount++
	return n.entry, true
}

func (l *lru) set(key string, entry *Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if n, ok := l.items[key]; ok {
		n.entry = entry
		n.expiresAt = time.Now().Add(l.ttl)
		l.moveToHead(n)
		return
	}
	if len(l.items) >= l.capacity {
		l.evictTail()
	}
	n := &node{key: key, entry: entry, expiresAt: time.Now().Add(l.ttl)}
	l.items[key] = n
	l.addToHead(n)
}

func (l *lru) delete(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n, ok := l.items[key]; ok {
		l.remove(n)
		delete(l.items, key)
	}
}

func (l *lru) clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = make(map[string]*node)
	l.head, l.tail = nil, nil
}

func (l *lru) addToHead(n *node) {
	n.prev = nil
	n.next = l.head
	if l.head != nil {
		l.head.prev = n
	}
	l.head = n
	if l.tail == nil {
		l.tail = n
	}
}

func (l *lru) remove(n *node) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		l.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		l.tail = n.prev
	}
}

func (l *lru) moveToHead(n *node) {
	if n == l.head {
		return
	}
	l.remove(n)
	l.addToHead(n)
}

func (l *lru) evictTail() {
	if l.tail == nil {
		return
	}
	delete(l.items, l.tail.key)
	l.remove(l.tail)
}
