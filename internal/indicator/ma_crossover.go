package indicator

import (
	"context"
	"math"
	"time"

	talib "github.com/markcheno/go-talib"

	"sigfuse/internal/market"
)

const NameMACrossover = "MA_CROSSOVER"

// MACrossoverConfig 控制快慢均线参数。
type MACrossoverConfig struct {
	FastPeriod int
	SlowPeriod int
	// FullSpread 是映射到满置信度的快慢线价差比例，默认 5%。
	FullSpread float64
}

// MACrossover 检测快慢 EMA 金叉/死叉（趋势反转）。
type MACrossover struct {
	fast       int
	slow       int
	fullSpread float64
}

func NewMACrossover(cfg MACrossoverConfig) *MACrossover {
	if cfg.FastPeriod <= 0 {
		cfg.FastPeriod = 10
	}
	if cfg.SlowPeriod <= cfg.FastPeriod {
		cfg.SlowPeriod = cfg.FastPeriod * 3
	}
	if cfg.FullSpread <= 0 {
		cfg.FullSpread = 0.05
	}
	return &MACrossover{fast: cfg.FastPeriod, slow: cfg.SlowPeriod, fullSpread: cfg.FullSpread}
}

func (u *MACrossover) Name() string             { return NameMACrossover }
func (u *MACrossover) Category() Category       { return CategoryTrendReversal }
func (u *MACrossover) MinCandles() int          { return u.slow + 1 }
func (u *MACrossover) RequiredFields() []string { return []string{market.FieldClose} }

func (u *MACrossover) Compute(_ context.Context, snap *market.Snapshot) (Result, error) {
	if res, ok := ready(u, snap); !ok {
		return res, nil
	}
	closes := market.Closes(snap.Candles)
	fast := talib.Ema(closes, u.fast)
	slow := talib.Ema(closes, u.slow)
	fv, sv := lastValid(sanitize(fast)), lastValid(sanitize(slow))
	if sv == 0 {
		return degraded(u.Name(), u.Category(), "ema series empty"), nil
	}
	spread := (fv - sv) / sv
	conf := clamp01(math.Abs(spread) / u.fullSpread)
	sig := SignalNone
	switch {
	case spread > 0:
		sig = SignalBullish
	case spread < 0:
		sig = SignalBearish
	}
	if conf == 0 {
		sig = SignalNone
	}
	return Result{
		Name:       u.Name(),
		Category:   u.Category(),
		Value:      spread,
		Signal:     sig,
		Strength:   quantize(conf, defaultBuckets),
		Confidence: conf,
		ComputedAt: time.Now().UTC(),
		Metadata: map[string]any{
			"ema_fast": fv,
			"ema_slow": sv,
			"periods":  []int{u.fast, u.slow},
		},
	}, nil
}
