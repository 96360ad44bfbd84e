package indicator

import (
	"context"
	"time"

	talib "github.com/markcheno/go-talib"

	"sigfuse/internal/market"
)

const NameATRVolatility = "ATR_VOLATILITY"

// ATRConfig 控制波动率扩张检测参数。
type ATRConfig struct {
	Period int
	// ExpansionThreshold 是 ATR 相对自身均值的扩张倍数阈值，默认 1.3。
	ExpansionThreshold float64
}

// ATRVolatility 检测波动率扩张。扩张伴随方向性 K 线时给出方向信号，
// 否则只输出数值观测（Signal 为空）。
type ATRVolatility struct {
	period    int
	threshold float64
}

func NewATRVolatility(cfg ATRConfig) *ATRVolatility {
	if cfg.Period <= 0 {
		cfg.Period = 14
	}
	if cfg.ExpansionThreshold <= 1 {
		cfg.ExpansionThreshold = 1.3
	}
	return &ATRVolatility{period: cfg.Period, threshold: cfg.ExpansionThreshold}
}

func (u *ATRVolatility) Name() string       { return NameATRVolatility }
func (u *ATRVolatility) Category() Category { return CategoryVolatility }
func (u *ATRVolatility) MinCandles() int    { return u.period * 3 }
func (u *ATRVolatility) RequiredFields() []string {
	return []string{market.FieldHigh, market.FieldLow, market.FieldClose}
}

func (u *ATRVolatility) Compute(_ context.Context, snap *market.Snapshot) (Result, error) {
	if res, ok := ready(u, snap); !ok {
		return res, nil
	}
	atr := sanitize(talib.Atr(
		market.Highs(snap.Candles),
		market.Lows(snap.Candles),
		market.Closes(snap.Candles),
		u.period,
	))
	if len(atr) < u.period {
		return degraded(u.Name(), u.Category(), "atr series too short"), nil
	}
	cur := atr[len(atr)-1]
	sum := 0.0
	for _, v := range atr[len(atr)-u.period:] {
		sum += v
	}
	mean := sum / float64(u.period)
	if mean <= 0 {
		return degraded(u.Name(), u.Category(), "flat atr baseline"), nil
	}
	ratio := cur / mean
	sig := SignalNone
	conf := 0.0
	if ratio >= u.threshold {
		conf = clamp01((ratio - 1) / (u.threshold - 1) / 2)
		last := snap.Candles[len(snap.Candles)-1]
		// 扩张发生在方向性 K 线上才给方向
		switch {
		case last.Close > last.Open:
			sig = SignalBullish
		case last.Close < last.Open:
			sig = SignalBearish
		}
	}
	if sig == SignalNone {
		conf = 0
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
			"atr_mean": mean,
			"ratio":    ratio,
			"period":   u.period,
		},
	}, nil
}
