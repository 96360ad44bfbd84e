package indicator

import (
	"context"
	"time"

	talib "github.com/markcheno/go-talib"

	"sigfuse/internal/market"
)

const NameResistanceBreakout = "RESISTANCE_BREAKOUT"

// BreakoutConfig 控制滚动高低点突破检测参数。
type BreakoutConfig struct {
	Lookback int
	// FullMargin 是突破幅度映射到满置信度的比例，默认 3%。
	FullMargin float64
}

// ResistanceBreakout 检测收盘价对前 N 根高点（阻力）/低点（支撑）的突破。
type ResistanceBreakout struct {
	lookback   int
	fullMargin float64
}

func NewResistanceBreakout(cfg BreakoutConfig) *ResistanceBreakout {
	if cfg.Lookback <= 0 {
		cfg.Lookback = 20
	}
	if cfg.FullMargin <= 0 {
		cfg.FullMargin = 0.03
	}
	return &ResistanceBreakout{lookback: cfg.Lookback, fullMargin: cfg.FullMargin}
}

func (u *ResistanceBreakout) Name() string       { return NameResistanceBreakout }
func (u *ResistanceBreakout) Category() Category { return CategoryResistance }
func (u *ResistanceBreakout) MinCandles() int    { return u.lookback + 2 }
func (u *ResistanceBreakout) RequiredFields() []string {
	return []string{market.FieldHigh, market.FieldLow, market.FieldClose}
}

func (u *ResistanceBreakout) Compute(_ context.Context, snap *market.Snapshot) (Result, error) {
	if res, ok := ready(u, snap); !ok {
		return res, nil
	}
	highs := market.Highs(snap.Candles)
	lows := market.Lows(snap.Candles)
	closes := market.Closes(snap.Candles)
	// 阻力/支撑取当前 K 线之前 lookback 根的极值
	maxSeries := talib.Max(highs[:len(highs)-1], u.lookback)
	minSeries := talib.Min(lows[:len(lows)-1], u.lookback)
	resistance := lastValid(sanitize(maxSeries))
	support := lastValid(sanitize(minSeries))
	price := closes[len(closes)-1]
	if resistance == 0 || support == 0 {
		return degraded(u.Name(), u.Category(), "extreme series empty"), nil
	}
	sig := SignalNone
	conf := 0.0
	margin := 0.0
	switch {
	case price > resistance:
		margin = (price - resistance) / resistance
		sig = SignalBullish
		conf = clamp01(margin / u.fullMargin)
	case price < support:
		margin = (support - price) / support
		sig = SignalBearish
		conf = clamp01(margin / u.fullMargin)
	}
	if conf == 0 {
		sig = SignalNone
	}
	return Result{
		Name:       u.Name(),
		Category:   u.Category(),
		Value:      margin,
		Signal:     sig,
		Strength:   quantize(conf, defaultBuckets),
		Confidence: conf,
		ComputedAt: time.Now().UTC(),
		Metadata: map[string]any{
			"resistance": resistance,
			"support":    support,
			"price":      price,
			"lookback":   u.lookback,
		},
	}, nil
}
