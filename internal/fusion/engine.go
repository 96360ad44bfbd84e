package fusion

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"sigfuse/internal/indicator"
	"sigfuse/internal/logger"
	"sigfuse/internal/market"
)

// Engine 把一批指标结果按方向分组后交给配置的策略融合，
// 再补齐风险分、支持/冲突集合与交易计划。单快照内串行执行。
type Engine struct {
	cfg      Config
	strategy Strategy
}

// NewEngine 校验配置并实例化策略；配置非法时拒绝构造。
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	strategy, err := newStrategy(cfg)
	if err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg, strategy: strategy}, nil
}

// Config 返回引擎当前配置的拷贝。
func (e *Engine) Config() Config { return e.cfg }

// Fuse 执行一次完整融合。无信号结果只进诊断日志，不参与分组；
// 不满足策略条件的分组被静默丢弃。返回值永远非 nil。
func (e *Engine) Fuse(snap *market.Snapshot, results []indicator.Result) []Signal {
	signals := make([]Signal, 0, 2)
	if len(results) == 0 {
		return signals
	}
	groups := make(map[indicator.SignalType][]Component)
	silent := 0
	allNames := make([]string, 0, len(results))
	for _, r := range results {
		if !r.HasSignal() {
			silent++
			continue
		}
		groups[r.Signal] = append(groups[r.Signal], componentFromResult(r, e.cfg.weightFor(r.Name)))
		allNames = append(allNames, r.Name)
	}
	if silent > 0 {
		logger.Debugf("[fusion] %s: %d/%d results carried no signal", snapSymbol(snap), silent, len(results))
	}
	if len(groups) == 0 {
		return signals
	}
	distinctTypes := len(groups)

	// 跨方向分歧时，本次参与融合的全部指标都记为冲突（保留源行为）
	var conflicting []string
	if distinctTypes > 1 {
		conflicting = append([]string(nil), allNames...)
		sort.Strings(conflicting)
	}

	// 按方向名排序保证同输入下输出顺序稳定
	types := make([]indicator.SignalType, 0, len(groups))
	for t := range groups {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	for _, t := range types {
		group := groups[t]
		out, ok := e.strategy.Fuse(group, len(results))
		if !ok {
			logger.Debugf("[fusion] %s: group %s rejected by %s strategy", snapSymbol(snap), t, e.strategy.Method())
			continue
		}
		supporting := make([]string, 0, len(out.Components))
		for _, c := range out.Components {
			supporting = append(supporting, c.Indicator)
		}
		sig := Signal{
			ID:               uuid.NewString(),
			Symbol:           snapSymbol(snap),
			Timeframe:        snapTimeframe(snap),
			Type:             out.Type,
			Strength:         out.Strength,
			Confidence:       clamp01(out.Confidence),
			Method:           e.strategy.Method(),
			Components:       out.Components,
			RiskScore:        riskScore(snap, out.Components, distinctTypes, e.cfg.RiskWeights),
			Supporting:       supporting,
			Conflicting:      append([]string(nil), conflicting...),
			ExpectedDuration: expectedDuration(snapTimeframe(snap)),
			Plan:             buildTradePlan(snap, out.Type),
			CreatedAt:        time.Now().UTC(),
		}
		signals = append(signals, sig)
	}
	return signals
}

func snapSymbol(snap *market.Snapshot) string {
	if snap == nil {
		return ""
	}
	return snap.Symbol
}

func snapTimeframe(snap *market.Snapshot) string {
	if snap == nil {
		return ""
	}
	return snap.Timeframe
}

// expectedDuration 把 K 线周期映射为建议持有窗口。
func expectedDuration(timeframe string) string {
	switch timeframe {
	case "1m", "3m", "5m", "15m", "30m":
		return "intraday"
	case "1h", "2h", "4h", "6h", "8h", "12h":
		return "1-3 days"
	case "1d", "3d":
		return "1-2 weeks"
	case "1w", "1M":
		return "1-2 months"
	default:
		return "unspecified"
	}
}
