package indicator

import (
	"context"
	"time"

	talib "github.com/markcheno/go-talib"

	"sigfuse/internal/market"
)

const NameRSIOverbought = "RSI_OVERBOUGHT"

// RSIConfig 控制 RSI 超买/超卖检测参数。
type RSIConfig struct {
	Period     int
	Overbought float64
	Oversold   float64
	// FullExcess 是映射到满置信度的阈值外超额，默认 20 个 RSI 点。
	FullExcess float64
}

// RSIOverbought 在 RSI 穿越超买/超卖阈值时发出反向信号。
type RSIOverbought struct {
	period     int
	overbought float64
	oversold   float64
	fullExcess float64
}

func NewRSIOverbought(cfg RSIConfig) *RSIOverbought {
	if cfg.Period <= 0 {
		cfg.Period = 14
	}
	if cfg.Overbought <= 0 {
		cfg.Overbought = 70
	}
	if cfg.Oversold <= 0 {
		cfg.Oversold = 30
	}
	if cfg.FullExcess <= 0 {
		cfg.FullExcess = 20
	}
	return &RSIOverbought{
		period:     cfg.Period,
		overbought: cfg.Overbought,
		oversold:   cfg.Oversold,
		fullExcess: cfg.FullExcess,
	}
}

func (u *RSIOverbought) Name() string             { return NameRSIOverbought }
func (u *RSIOverbought) Category() Category       { return CategoryOverbought }
func (u *RSIOverbought) MinCandles() int          { return u.period + 1 }
func (u *RSIOverbought) RequiredFields() []string { return []string{market.FieldClose} }

func (u *RSIOverbought) Compute(_ context.Context, snap *market.Snapshot) (Result, error) {
	if res, ok := ready(u, snap); !ok {
		return res, nil
	}
	series := sanitize(talib.Rsi(market.Closes(snap.Candles), u.period))
	val := lastValid(series)
	if val == 0 {
		return degraded(u.Name(), u.Category(), "rsi series empty"), nil
	}
	sig := SignalNone
	conf := 0.0
	status := "neutral"
	switch {
	case val >= u.overbought:
		// 超买视为看空回落信号，超额越大置信度越高
		sig = SignalBearish
		conf = clamp01((val - u.overbought) / u.fullExcess)
		status = "overbought"
	case val <= u.oversold:
		sig = SignalBullish
		conf = clamp01((u.oversold - val) / u.fullExcess)
		status = "oversold"
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
		Metadata: map[string]any{
			"period":     u.period,
			"overbought": u.overbought,
			"oversold":   u.oversold,
			"status":     status,
		},
	}, nil
}
