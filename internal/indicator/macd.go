package indicator

import (
	"context"
	"math"
	"time"

	talib "github.com/markcheno/go-talib"

	"sigfuse/internal/market"
)

const NameMACDMomentum = "MACD_MOMENTUM"

// MACDConfig 控制 MACD 动量背离检测参数。
type MACDConfig struct {
	FastPeriod   int
	SlowPeriod   int
	SignalPeriod int
	// FullHistRatio 是柱状图幅度相对价格的满置信度比例，默认 0.5%。
	FullHistRatio float64
}

// MACDMomentum 基于柱状图方向与变化判断动量（含背离削弱）。
type MACDMomentum struct {
	fast          int
	slow          int
	signal        int
	fullHistRatio float64
}

func NewMACDMomentum(cfg MACDConfig) *MACDMomentum {
	if cfg.FastPeriod <= 0 {
		cfg.FastPeriod = 12
	}
	if cfg.SlowPeriod <= cfg.FastPeriod {
		cfg.SlowPeriod = 26
	}
	if cfg.SignalPeriod <= 0 {
		cfg.SignalPeriod = 9
	}
	if cfg.FullHistRatio <= 0 {
		cfg.FullHistRatio = 0.005
	}
	return &MACDMomentum{
		fast:          cfg.FastPeriod,
		slow:          cfg.SlowPeriod,
		signal:        cfg.SignalPeriod,
		fullHistRatio: cfg.FullHistRatio,
	}
}

func (u *MACDMomentum) Name() string             { return NameMACDMomentum }
func (u *MACDMomentum) Category() Category       { return CategoryMomentum }
func (u *MACDMomentum) MinCandles() int          { return u.slow + u.signal + 1 }
func (u *MACDMomentum) RequiredFields() []string { return []string{market.FieldClose} }

func (u *MACDMomentum) Compute(_ context.Context, snap *market.Snapshot) (Result, error) {
	if res, ok := ready(u, snap); !ok {
		return res, nil
	}
	closes := market.Closes(snap.Candles)
	_, _, hist := talib.Macd(closes, u.fast, u.slow, u.signal)
	series := sanitize(hist)
	if len(series) < 2 {
		return degraded(u.Name(), u.Category(), "macd series empty"), nil
	}
	cur := series[len(series)-1]
	prev := series[len(series)-2]
	price := closes[len(closes)-1]
	if price <= 0 {
		return degraded(u.Name(), u.Category(), "invalid price"), nil
	}
	conf := clamp01(math.Abs(cur) / (price * u.fullHistRatio))
	sig := SignalNone
	switch {
	case cur > 0:
		sig = SignalBullish
	case cur < 0:
		sig = SignalBearish
	}
	// 柱状图幅度收缩视为动量衰减（背离迹象），削弱置信度
	diverging := (cur > 0 && cur < prev) || (cur < 0 && cur > prev)
	if diverging {
		conf *= 0.5
	}
	if conf == 0 {
		sig = SignalNone
	}
	return Result{
		Name:       u.Name(),
		Category:   u.Category(),
		Value:      cur,
		Signal:     sig,
		Strength:   quantize(conf, defaultBuckets),
		Confidence: conf,
		ComputedAt: time.Now().UTC(),
		Metadata: map[string]any{
			"hist_prev": prev,
			"diverging": diverging,
			"periods":   []int{u.fast, u.slow, u.signal},
		},
	}, nil
}
