package popup

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// HistoryStore persists view histories per campaign and visitor. Writes are
// last-write-wins; the data is advisory.
type HistoryStore interface {
	Load(ctx context.Context, campaignID, visitorID string) (History, error)
	Save(ctx context.Context, campaignID, visitorID string, h History) error
	// Subscribe calls fn after every Save until ctx is done.
	Subscribe(ctx context.Context, fn func(campaignID, visitorID string)) error
}

const (
	redisKeyPrefix = "popup:history:"
	redisChannel   = "popup:history:changes"
	fieldViewCount = "view_count"
	fieldLastSeen  = "last_seen"

	// HistoryTTL bounds how long an untouched history is kept.
	HistoryTTL = 400 * day
)

func historyKey(campaignID, visitorID string) string {
	return campaignID + "|" + visitorID
}

func splitKey(key string) (string, string, bool) {
	return strings.Cut(key, "|")
}

// RedisStore keeps each history in a hash and announces saves on a channel.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Load(ctx context.Context, campaignID, visitorID string) (History, error) {
	values, err := s.client.HGetAll(ctx, redisKeyPrefix+historyKey(campaignID, visitorID)).Result()
	if err != nil {
		return History{}, fmt.Errorf("load popup history: %w", err)
	}

	var h History
	if v, ok := values[fieldViewCount]; ok {
		if h.ViewCount, err = strconv.Atoi(v); err != nil {
			return History{}, fmt.Errorf("parse view count: %w", err)
		}
	}
	if v, ok := values[fieldLastSeen]; ok && v != "" {
		nanos, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return History{}, fmt.Errorf("parse last seen: %w", err)
		}
		seen := time.Unix(0, nanos).UTC()
		h.LastSeen = &seen
	}
	return h, nil
}

// Save writes count and timestamp with a single HSET inside a transaction
// that also refreshes the expiry, then publishes the change.
func (s *RedisStore) Save(ctx context.Context, campaignID, visitorID string, h History) error {
	key := historyKey(campaignID, visitorID)
	lastSeen := ""
	if h.LastSeen != nil {
		lastSeen = strconv.FormatInt(h.LastSeen.UnixNano(), 10)
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, redisKeyPrefix+key, fieldViewCount, h.ViewCount, fieldLastSeen, lastSeen)
		pipe.Expire(ctx, redisKeyPrefix+key, HistoryTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save popup history: %w", err)
	}

	if err := s.client.Publish(ctx, redisChannel, key).Err(); err != nil {
		return fmt.Errorf("publish popup history change: %w", err)
	}
	return nil
}

func (s *RedisStore) Subscribe(ctx context.Context, fn func(campaignID, visitorID string)) error {
	sub := s.client.Subscribe(ctx, redisChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe to popup history changes: %w", err)
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				if campaignID, visitorID, ok := splitKey(msg.Payload); ok {
					fn(campaignID, visitorID)
				}
			}
		}
	}()
	return nil
}

// MemoryStore keeps histories in process. It is used when Redis is not
// configured and in tests.
type MemoryStore struct {
	items *cache.Cache

	mu          sync.RWMutex
	subscribers map[int]func(campaignID, visitorID string)
	nextID      int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items:       cache.New(HistoryTTL, time.Hour),
		subscribers: make(map[int]func(campaignID, visitorID string)),
	}
}

func (s *MemoryStore) Load(ctx context.Context, campaignID, visitorID string) (History, error) {
	if v, ok := s.items.Get(historyKey(campaignID, visitorID)); ok {
		return v.(History), nil
	}
	return History{}, nil
}

func (s *MemoryStore) Save(ctx context.Context, campaignID, visitorID string, h History) error {
	s.items.Set(historyKey(campaignID, visitorID), h, cache.DefaultExpiration)

	s.mu.RLock()
	subs := make([]func(string, string), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.mu.RUnlock()

	for _, fn := range subs {
		fn(campaignID, visitorID)
	}
	return nil
}

func (s *MemoryStore) Subscribe(ctx context.Context, fn func(campaignID, visitorID string)) error {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}()
	return nil
}

// CachedStore serves reads from a short-lived local cache. Entries are
// dropped as soon as the underlying store reports a change, so staleness is
// bounded by the change feed and at worst by the cache TTL.
type CachedStore struct {
	inner HistoryStore
	cache *cache.Cache
}

// NewCachedStore wraps inner and subscribes to its changes until ctx is done.
func NewCachedStore(ctx context.Context, inner HistoryStore, ttl time.Duration) (*CachedStore, error) {
	s := &CachedStore{inner: inner, cache: cache.New(ttl, 2*ttl)}
	err := inner.Subscribe(ctx, func(campaignID, visitorID string) {
		s.cache.Delete(historyKey(campaignID, visitorID))
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *CachedStore) Load(ctx context.Context, campaignID, visitorID string) (History, error) {
	key := historyKey(campaignID, visitorID)
	if v, ok := s.cache.Get(key); ok {
		return v.(History), nil
	}
	h, err := s.inner.Load(ctx, campaignID, visitorID)
	if err != nil {
		return History{}, err
	}
	s.cache.Set(key, h, cache.DefaultExpiration)
	return h, nil
}

func (s *CachedStore) Save(ctx context.Context, campaignID, visitorID string, h History) error {
	if err := s.inner.Save(ctx, campaignID, visitorID, h); err != nil {
		s.cache.Delete(historyKey(campaignID, visitorID))
		return err
	}
	return nil
}

func (s *CachedStore) Subscribe(ctx context.Context, fn func(campaignID, visitorID string)) error {
	return s.inner.Subscribe(ctx, fn)
}
