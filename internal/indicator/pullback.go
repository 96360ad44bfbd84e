package indicator

import (
	"context"
	"time"

	talib "github.com/markcheno/go-talib"

	"sigfuse/internal/market"
)

const NamePullbackPattern = "PULLBACK_PATTERN"

// PullbackConfig 控制趋势回调形态检测参数。
type PullbackConfig struct {
	TrendPeriod int
	// MinDepth/MaxDepth 是可接受的回调深度区间，默认 1.5%~8%。
	MinDepth float64
	MaxDepth float64
}

// PullbackPattern 在确立趋势内寻找健康回调：
// 价格仍在慢速 EMA 之上（下）、但相对近期极值回撤落在区间内。
type PullbackPattern struct {
	trendPeriod int
	minDepth    float64
	maxDepth    float64
}

func NewPullbackPattern(cfg PullbackConfig) *PullbackPattern {
	if cfg.TrendPeriod <= 0 {
		cfg.TrendPeriod = 50
	}
	if cfg.MinDepth <= 0 {
		cfg.MinDepth = 0.015
	}
	if cfg.MaxDepth <= cfg.MinDepth {
		cfg.MaxDepth = 0.08
	}
	return &PullbackPattern{trendPeriod: cfg.TrendPeriod, minDepth: cfg.MinDepth, maxDepth: cfg.MaxDepth}
}

func (u *PullbackPattern) Name() string             { return NamePullbackPattern }
func (u *PullbackPattern) Category() Category       { return CategoryTrendReversal }
func (u *PullbackPattern) MinCandles() int          { return u.trendPeriod + 10 }
func (u *PullbackPattern) RequiredFields() []string { return []string{market.FieldClose, market.FieldHigh, market.FieldLow} }

func (u *PullbackPattern) Compute(_ context.Context, snap *market.Snapshot) (Result, error) {
	if res, ok := ready(u, snap); !ok {
		return res, nil
	}
	closes := market.Closes(snap.Candles)
	ema := lastValid(sanitize(talib.Ema(closes, u.trendPeriod)))
	if ema == 0 {
		return degraded(u.Name(), u.Category(), "ema series empty"), nil
	}
	price := closes[len(closes)-1]
	window := snap.Tail(10)
	hi, lo := window[0].High, window[0].Low
	for _, c := range window {
		if c.High > hi {
			hi = c.High
		}
		if c.Low < lo {
			lo = c.Low
		}
	}
	sig := SignalNone
	conf := 0.0
	depth := 0.0
	if price > ema && hi > 0 {
		// 上升趋势内自近期高点的回撤
		depth = (hi - price) / hi
		if depth >= u.minDepth && depth <= u.maxDepth {
			sig = SignalBullish
			conf = clamp01((depth - u.minDepth) / (u.maxDepth - u.minDepth))
		}
	} else if price < ema && lo > 0 {
		depth = (price - lo) / lo
		if depth >= u.minDepth && depth <= u.maxDepth {
			sig = SignalBearish
			conf = clamp01((depth - u.minDepth) / (u.maxDepth - u.minDepth))
		}
	}
	if conf == 0 {
		sig = SignalNone
	}
	return Result{
		Name:       u.Name(),
		Category:   u.Category(),
		Value:      depth,
		Signal:     sig,
		Strength:   quantize(conf, defaultBuckets),
		Confidence: conf,
		ComputedAt: time.Now().UTC(),
		Metadata: map[string]any{
			"trend_ema":   ema,
			"recent_high": hi,
			"recent_low":  lo,
		},
	}, nil
}
