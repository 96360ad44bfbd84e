package indicator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"sigfuse/internal/logger"
	"sigfuse/internal/market"
)

// Observer 接收引擎内部事件，供指标埋点使用；实现可为 nil。
type Observer interface {
	CacheHit(unit string)
	CacheMiss(unit string)
	UnitFailed(unit, reason string)
	CalcObserved(symbol string, results int, elapsed time.Duration)
}

// EngineConfig 控制指标引擎的并发与超时行为。
type EngineConfig struct {
	MaxConcurrent int           // 同时运行的指标数上限
	UnitTimeout   time.Duration // 单个指标的计算超时
	CalcTimeout   time.Duration // 整次 Calculate 的总超时，0 表示不限制
}

// UnitStats 是单个指标的运行计数。
type UnitStats struct {
	Calls    uint64 `json:"calls"`
	Failures uint64 `json:"failures"`
}

// Stats 是引擎计数器快照，供外部观测方轮询。
type Stats struct {
	TotalCalculations uint64               `json:"total_calculations"`
	CacheLookups      uint64               `json:"cache_lookups"`
	CacheHits         uint64               `json:"cache_hits"`
	CacheHitRate      float64              `json:"cache_hit_rate"`
	AverageLatency    time.Duration        `json:"average_latency"`
	Units             map[string]UnitStats `json:"units"`
}

// Engine 对同一份快照并发执行全部启用指标，结果走 TTL 缓存。
// 单个指标失败/超时只记日志并剔除，绝不让整批计算失败。
type Engine struct {
	units []Unit
	cache *Cache
	cfg   EngineConfig
	obs   Observer

	mu           sync.Mutex
	calculations uint64
	cacheLookups uint64
	cacheHits    uint64
	totalElapsed time.Duration
	unitStats    map[string]*UnitStats
}

// NewEngine 构造引擎；units 为空会返回错误，obs 可为 nil。
func NewEngine(units []Unit, cache *Cache, cfg EngineConfig, obs Observer) (*Engine, error) {
	if len(units) == 0 {
		return nil, fmt.Errorf("indicator engine requires at least one unit")
	}
	if cache == nil {
		return nil, fmt.Errorf("indicator engine requires a cache")
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 4
	}
	if cfg.UnitTimeout <= 0 {
		cfg.UnitTimeout = 3 * time.Second
	}
	e := &Engine{
		units:     append([]Unit(nil), units...),
		cache:     cache,
		cfg:       cfg,
		obs:       obs,
		unitStats: make(map[string]*UnitStats, len(units)),
	}
	for _, u := range units {
		e.unitStats[u.Name()] = &UnitStats{}
	}
	return e, nil
}

// Units 返回启用的指标列表（只读用途）。
func (e *Engine) Units() []Unit { return e.units }

type unitOutcome struct {
	res Result
	err error
}

// Calculate 并发运行所有启用指标并合并缓存结果。
// 返回值永远非 nil；全部失败时为空切片。
func (e *Engine) Calculate(ctx context.Context, snap *market.Snapshot) []Result {
	results := make([]Result, 0, len(e.units))
	if snap == nil {
		return results
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if e.cfg.CalcTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.CalcTimeout)
		defer cancel()
	}
	start := time.Now()
	var resMu sync.Mutex
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(e.cfg.MaxConcurrent)
	for _, u := range e.units {
		u := u
		group.Go(func() error {
			res, ok := e.computeOne(groupCtx, u, snap)
			if !ok {
				return nil
			}
			resMu.Lock()
			results = append(results, res)
			resMu.Unlock()
			return nil
		})
	}
	// worker 不返回错误，Wait 只等待 fan-in 完成
	_ = group.Wait()
	elapsed := time.Since(start)

	e.mu.Lock()
	e.calculations++
	e.totalElapsed += elapsed
	e.mu.Unlock()
	if e.obs != nil {
		e.obs.CalcObserved(snap.Symbol, len(results), elapsed)
	}
	return results
}

// computeOne 先查缓存，miss 时在子 goroutine 计算并带单元超时。
func (e *Engine) computeOne(ctx context.Context, u Unit, snap *market.Snapshot) (Result, bool) {
	key := CacheKey{Symbol: snap.Symbol, Indicator: u.Name(), Timeframe: snap.Timeframe}
	e.mu.Lock()
	e.cacheLookups++
	e.mu.Unlock()
	if cached, ok := e.cache.Get(key); ok {
		e.mu.Lock()
		e.cacheHits++
		e.mu.Unlock()
		if e.obs != nil {
			e.obs.CacheHit(u.Name())
		}
		return cached, true
	}
	if e.obs != nil {
		e.obs.CacheMiss(u.Name())
	}

	unitCtx, cancel := context.WithTimeout(ctx, e.cfg.UnitTimeout)
	defer cancel()
	outCh := make(chan unitOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				outCh <- unitOutcome{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		res, err := u.Compute(unitCtx, snap)
		outCh <- unitOutcome{res: res, err: err}
	}()

	e.bumpUnit(u.Name(), false)
	select {
	case out := <-outCh:
		if out.err != nil {
			e.failUnit(u.Name(), out.err.Error())
			return Result{}, false
		}
		e.cache.Set(key, out.res)
		return out.res, true
	case <-unitCtx.Done():
		// 超时或上游取消都按计算失败处理，滞留的 goroutine 结果被丢弃
		e.failUnit(u.Name(), unitCtx.Err().Error())
		return Result{}, false
	}
}

func (e *Engine) bumpUnit(name string, _ bool) {
	e.mu.Lock()
	if st, ok := e.unitStats[name]; ok {
		st.Calls++
	}
	e.mu.Unlock()
}

func (e *Engine) failUnit(name, reason string) {
	e.mu.Lock()
	if st, ok := e.unitStats[name]; ok {
		st.Failures++
	}
	e.mu.Unlock()
	if e.obs != nil {
		e.obs.UnitFailed(name, reason)
	}
	logger.Warnf("[indicator] unit %s excluded: %s", name, reason)
}

// Stats 返回计数器快照。
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := Stats{
		TotalCalculations: e.calculations,
		CacheLookups:      e.cacheLookups,
		CacheHits:         e.cacheHits,
		Units:             make(map[string]UnitStats, len(e.unitStats)),
	}
	if e.cacheLookups > 0 {
		s.CacheHitRate = float64(e.cacheHits) / float64(e.cacheLookups)
	}
	if e.calculations > 0 {
		s.AverageLatency = e.totalElapsed / time.Duration(e.calculations)
	}
	for name, st := range e.unitStats {
		s.Units[name] = *st
	}
	return s
}
