package indicator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheSetGet(t *testing.T) {
	cache := NewCache(time.Minute)
	key := CacheKey{Symbol: "BTCUSDT", Indicator: NameRSIOverbought, Timeframe: "1h"}

	_, ok := cache.Get(key)
	assert.False(t, ok)

	res := Result{Name: NameRSIOverbought, Value: 75, Confidence: 0.25, Signal: SignalBearish}
	cache.Set(key, res)

	got, ok := cache.Get(key)
	require.True(t, ok)
	assert.Equal(t, res.Value, got.Value)
	assert.Equal(t, res.Confidence, got.Confidence)

	// 不同 timeframe 是独立条目
	_, ok = cache.Get(CacheKey{Symbol: "BTCUSDT", Indicator: NameRSIOverbought, Timeframe: "4h"})
	assert.False(t, ok)
}

func TestCacheExpiry(t *testing.T) {
	cache := NewCache(time.Minute)
	now := time.Unix(1_700_000_000, 0)
	cache.SetNowFunc(func() time.Time { return now })

	key := CacheKey{Symbol: "ETHUSDT", Indicator: NameMACrossover, Timeframe: "1h"}
	cache.Set(key, Result{Name: NameMACrossover, Value: 0.03})

	_, ok := cache.Get(key)
	require.True(t, ok)

	now = now.Add(time.Minute + time.Second)
	_, ok = cache.Get(key)
	assert.False(t, ok, "expired entry must never be returned")
	assert.Equal(t, 0, cache.Len(), "expired entry is lazily evicted on lookup")
}

func TestCacheOverwriteAndSweep(t *testing.T) {
	cache := NewCache(time.Minute)
	now := time.Unix(1_700_000_000, 0)
	cache.SetNowFunc(func() time.Time { return now })

	key := CacheKey{Symbol: "BTCUSDT", Indicator: NameOBVTrend, Timeframe: "1h"}
	cache.Set(key, Result{Value: 1})
	cache.Set(key, Result{Value: 2})

	got, ok := cache.Get(key)
	require.True(t, ok)
	assert.Equal(t, 2.0, got.Value, "overwrite replaces the whole entry")

	// 过期后写同分片的其它 key 时顺带清扫
	now = now.Add(2 * time.Minute)
	cache.Set(key, Result{Value: 3})
	assert.Equal(t, 1, cache.Len())
}

func TestCacheConcurrentAccess(t *testing.T) {
	cache := NewCache(time.Minute)
	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func(n int) {
			defer func() { done <- struct{}{} }()
			key := CacheKey{Symbol: "BTCUSDT", Indicator: NameRSIOverbought, Timeframe: "1h"}
			for j := 0; j < 200; j++ {
				cache.Set(key, Result{Value: float64(n)})
				cache.Get(key)
			}
		}(i)
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}
