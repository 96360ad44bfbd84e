package indicator

import (
	"context"
	"time"

	talib "github.com/markcheno/go-talib"

	"sigfuse/internal/market"
)

const NameStochReversal = "STOCH_REVERSAL"

// StochConfig 控制随机指标超买超卖检测参数。
type StochConfig struct {
	FastK      int
	SlowK      int
	SlowD      int
	Overbought float64
	Oversold   float64
}

// StochReversal 在 %K 进入极值区时发出反向信号。
type StochReversal struct {
	fastK      int
	slowK      int
	slowD      int
	overbought float64
	oversold   float64
}

func NewStochReversal(cfg StochConfig) *StochReversal {
	if cfg.FastK <= 0 {
		cfg.FastK = 14
	}
	if cfg.SlowK <= 0 {
		cfg.SlowK = 3
	}
	if cfg.SlowD <= 0 {
		cfg.SlowD = 3
	}
	if cfg.Overbought <= 0 {
		cfg.Overbought = 80
	}
	if cfg.Oversold <= 0 {
		cfg.Oversold = 20
	}
	return &StochReversal{
		fastK:      cfg.FastK,
		slowK:      cfg.SlowK,
		slowD:      cfg.SlowD,
		overbought: cfg.Overbought,
		oversold:   cfg.Oversold,
	}
}

func (u *StochReversal) Name() string       { return NameStochReversal }
func (u *StochReversal) Category() Category { return CategoryOverbought }
func (u *StochReversal) MinCandles() int    { return u.fastK + u.slowK + u.slowD + 1 }
func (u *StochReversal) RequiredFields() []string {
	return []string{market.FieldHigh, market.FieldLow, market.FieldClose}
}

func (u *StochReversal) Compute(_ context.Context, snap *market.Snapshot) (Result, error) {
	if res, ok := ready(u, snap); !ok {
		return res, nil
	}
	k, d := talib.Stoch(
		market.Highs(snap.Candles),
		market.Lows(snap.Candles),
		market.Closes(snap.Candles),
		u.fastK, u.slowK, talib.SMA, u.slowD, talib.SMA,
	)
	kv := lastValid(sanitize(k))
	dv := lastValid(sanitize(d))
	if kv == 0 && dv == 0 {
		return degraded(u.Name(), u.Category(), "stoch series empty"), nil
	}
	sig := SignalNone
	conf := 0.0
	switch {
	case kv >= u.overbought:
		sig = SignalBearish
		conf = clamp01((kv - u.overbought) / (100 - u.overbought))
	case kv <= u.oversold:
		sig = SignalBullish
		conf = clamp01((u.oversold - kv) / u.oversold)
	}
	if conf == 0 {
		sig = SignalNone
	}
	return Result{
		Name:       u.Name(),
		Category:   u.Category(),
		Value:      kv,
		Signal:     sig,
		Strength:   quantize(conf, defaultBuckets),
		Confidence: conf,
		ComputedAt: time.Now().UTC(),
		Metadata: map[string]any{
			"slow_d":     dv,
			"overbought": u.overbought,
			"oversold":   u.oversold,
		},
	}, nil
}
