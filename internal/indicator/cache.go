package indicator

import (
	"hash/fnv"
	"sync"
	"time"
)

const cacheShards = 16

// CacheKey 以 (symbol, indicator, timeframe) 唯一定位一条缓存。
type CacheKey struct {
	Symbol    string
	Indicator string
	Timeframe string
}

type cacheEntry struct {
	result    Result
	expiresAt time.Time
}

type cacheShard struct {
	mu      sync.RWMutex
	entries map[CacheKey]cacheEntry
}

// Cache 是分片的 TTL 结果缓存。条目写入后不可变，
// 覆盖写总是整条替换；过期条目在下次读写时惰性清除。
type Cache struct {
	shards [cacheShards]*cacheShard
	ttl    time.Duration
	nowFn  func() time.Time
}

// NewCache 创建缓存，ttl<=0 时回退到 5 分钟。
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	c := &Cache{ttl: ttl, nowFn: time.Now}
	for i := range c.shards {
		c.shards[i] = &cacheShard{entries: make(map[CacheKey]cacheEntry)}
	}
	return c
}

// SetNowFunc 注入时钟，仅测试使用。
func (c *Cache) SetNowFunc(fn func() time.Time) {
	if fn != nil {
		c.nowFn = fn
	}
}

// TTL 返回缓存条目存活时长。
func (c *Cache) TTL() time.Duration { return c.ttl }

func (c *Cache) shard(key CacheKey) *cacheShard {
	h := fnv.New32a()
	h.Write([]byte(key.Symbol))
	h.Write([]byte{0})
	h.Write([]byte(key.Indicator))
	h.Write([]byte{0})
	h.Write([]byte(key.Timeframe))
	return c.shards[h.Sum32()%cacheShards]
}

// Get 返回未过期的缓存结果；过期条目顺手删除并按 miss 处理。
func (c *Cache) Get(key CacheKey) (Result, bool) {
	s := c.shard(key)
	now := c.nowFn()
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return Result{}, false
	}
	if now.After(entry.expiresAt) {
		s.mu.Lock()
		if cur, still := s.entries[key]; still && now.After(cur.expiresAt) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return Result{}, false
	}
	return entry.result, true
}

// Set 写入新结果并顺带清掉同分片里已过期的条目。
func (c *Cache) Set(key CacheKey, res Result) {
	s := c.shard(key)
	now := c.nowFn()
	s.mu.Lock()
	for k, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, k)
		}
	}
	s.entries[key] = cacheEntry{result: res, expiresAt: now.Add(c.ttl)}
	s.mu.Unlock()
}

// Len 返回当前未清除的条目数（含可能已过期但尚未触达的）。
func (c *Cache) Len() int {
	total := 0
	for _, s := range c.shards {
		s.mu.RLock()
		total += len(s.entries)
		s.mu.RUnlock()
	}
	return total
}
