package app

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"sigfuse/internal/config"
	"sigfuse/internal/fusion"
	"sigfuse/internal/indicator"
	"sigfuse/internal/logger"
	"sigfuse/internal/market"
	"sigfuse/internal/metrics"
	"sigfuse/internal/store/signallog"
	transporthttp "sigfuse/internal/transport/http"
)

// App 持有整条信号管线的全部组件，生命周期归调用方所有。
// 融合/过滤段在单个 symbol 内串行；不同 symbol 可由多个
// Analyze 调用并发进入，只共享指标缓存与历史缓冲。
type App struct {
	cfg     *config.Config
	metrics *metrics.Metrics
	engine  *indicator.Engine
	history *fusion.History
	store   *signallog.Store
	httpSrv *transporthttp.Server

	mu     sync.RWMutex
	fuser  *fusion.Engine
	ranker *fusion.FilterRanker
}

// NewApp 按配置组装管线；任何配置违规都在这里拦下。
func NewApp(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app requires config")
	}
	m := metrics.New()
	units, err := buildUnits(cfg.Indicators.Enabled)
	if err != nil {
		return nil, err
	}
	cache := indicator.NewCache(cfg.Engine.CacheTTL)
	engine, err := indicator.NewEngine(units, cache, indicator.EngineConfig{
		MaxConcurrent: cfg.Engine.MaxConcurrentIndicators,
		UnitTimeout:   cfg.Engine.UnitTimeout,
		CalcTimeout:   cfg.Engine.CalcTimeout,
	}, m)
	if err != nil {
		return nil, err
	}
	fuser, err := fusion.NewEngine(cfg.Fusion)
	if err != nil {
		return nil, err
	}
	a := &App{
		cfg:     cfg,
		metrics: m,
		engine:  engine,
		history: fusion.NewHistory(cfg.Ranking.HistoryCapacity),
		fuser:   fuser,
		ranker:  fusion.NewFilterRanker(cfg.Fusion, fusion.StaticWinRate{P: cfg.Ranking.WinRatePrior}),
	}
	if cfg.Store.Enabled {
		store, err := signallog.Open(cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		a.store = store
	}
	if cfg.HTTP.Enabled {
		srv, err := transporthttp.NewServer(transporthttp.ServerConfig{
			Addr:        cfg.HTTP.Addr,
			Analyzer:    a,
			History:     a.history,
			EngineStats: engine.Stats,
			Logs:        a.signalReader(),
			Metrics:     m.Handler(),
		})
		if err != nil {
			return nil, err
		}
		a.httpSrv = srv
	}
	return a, nil
}

func (a *App) signalReader() transporthttp.SignalReader {
	if a.store == nil {
		return nil
	}
	return a.store
}

// Analyze 执行一次完整管线：指标 fan-out → 融合 → 过滤排序 → 记录。
// 除快照本身非法外不返回错误；部分指标失败体现在结果里而不是错误里。
func (a *App) Analyze(ctx context.Context, snap *market.Snapshot) ([]fusion.Signal, error) {
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	results := a.engine.Calculate(ctx, snap)

	a.mu.RLock()
	fuser, ranker := a.fuser, a.ranker
	a.mu.RUnlock()

	signals := fuser.Fuse(snap, results)
	ranked := ranker.FilterAndRank(signals, a.cfg.Ranking.MaxPerSymbol)
	for _, sig := range ranked {
		a.history.Record(sig)
		a.metrics.SignalEmitted(string(sig.Type))
		if a.store != nil {
			if err := a.store.Append(ctx, sig); err != nil {
				logger.Warnf("[app] signal log append failed: %v", err)
			}
		}
	}
	logger.Infof("[app] %s %s: %d indicator results, %d fused, %d ranked",
		snap.Symbol, snap.Timeframe, len(results), len(signals), len(ranked))
	return ranked, nil
}

// ApplyConfig 热加载融合/过滤段配置，非法配置被拒绝并保留旧配置。
func (a *App) ApplyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	fuser, err := fusion.NewEngine(cfg.Fusion)
	if err != nil {
		logger.Warnf("[app] config swap rejected: %v", err)
		return
	}
	a.mu.Lock()
	a.fuser = fuser
	a.ranker = fusion.NewFilterRanker(cfg.Fusion, fusion.StaticWinRate{P: cfg.Ranking.WinRatePrior})
	a.mu.Unlock()
	logger.Infof("[app] fusion config applied (method=%s)", cfg.Fusion.Method)
}

// EngineStats 暴露指标引擎计数器快照。
func (a *App) EngineStats() indicator.Stats { return a.engine.Stats() }

// History 返回信号历史缓冲。
func (a *App) History() *fusion.History { return a.history }

// Run 启动常驻服务（HTTP），阻塞到 ctx 取消。
func (a *App) Run(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)
	if a.httpSrv != nil {
		group.Go(func() error { return a.httpSrv.Start(ctx) })
	} else {
		logger.Infof("[app] http disabled, nothing to serve")
	}
	return group.Wait()
}

// Close 释放持久化资源。
func (a *App) Close() error {
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}
