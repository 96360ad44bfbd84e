package indicator

import (
	"context"
	"time"

	talib "github.com/markcheno/go-talib"

	"sigfuse/internal/market"
)

const NameWilliamsR = "WILLIAMS_R"

// WilliamsConfig 控制 Williams %R 检测参数。
type WilliamsConfig struct {
	Period     int
	Overbought float64 // 负值，默认 -20
	Oversold   float64 // 负值，默认 -80
}

// WilliamsR 用 %R 衡量收盘价在区间内的位置（动量类别）。
type WilliamsR struct {
	period     int
	overbought float64
	oversold   float64
}

func NewWilliamsR(cfg WilliamsConfig) *WilliamsR {
	if cfg.Period <= 0 {
		cfg.Period = 14
	}
	if cfg.Overbought >= 0 {
		cfg.Overbought = -20
	}
	if cfg.Oversold >= 0 || cfg.Oversold <= -100 {
		cfg.Oversold = -80
	}
	return &WilliamsR{period: cfg.Period, overbought: cfg.Overbought, oversold: cfg.Oversold}
}

func (u *WilliamsR) Name() string       { return NameWilliamsR }
func (u *WilliamsR) Category() Category { return CategoryMomentum }
func (u *WilliamsR) MinCandles() int    { return u.period + 1 }
func (u *WilliamsR) RequiredFields() []string {
	return []string{market.FieldHigh, market.FieldLow, market.FieldClose}
}

func (u *WilliamsR) Compute(_ context.Context, snap *market.Snapshot) (Result, error) {
	if res, ok := ready(u, snap); !ok {
		return res, nil
	}
	series := sanitize(talib.WillR(
		market.Highs(snap.Candles),
		market.Lows(snap.Candles),
		market.Closes(snap.Candles),
		u.period,
	))
	if len(series) == 0 {
		return degraded(u.Name(), u.Category(), "willr series empty"), nil
	}
	val := series[len(series)-1]
	sig := SignalNone
	conf := 0.0
	switch {
	case val >= u.overbought:
		sig = SignalBearish
		conf = clamp01((val - u.overbought) / -u.overbought)
	case val <= u.oversold:
		sig = SignalBullish
		conf = clamp01((u.oversold - val) / (100 + u.oversold))
	}
	if conf == 0 {
		sig = SignalNone
	}
	return Result{
		Name:       u.Name(),
		Category:   u.Category(),
		Value:      val,
		Signal:     sig,
		Strength:   quantize(conf, defaultBuckets),
		Confidence: conf,
		ComputedAt: time.Now().UTC(),
		Metadata:   map[string]any{"period": u.period},
	}, nil
}
