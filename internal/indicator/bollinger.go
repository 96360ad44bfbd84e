package indicator

import (
	"context"
	"time"

	talib "github.com/markcheno/go-talib"

	"sigfuse/internal/market"
)

const NameBollingerBreakout = "BOLLINGER_BREAKOUT"

// BollingerConfig 控制布林带突破检测参数。
type BollingerConfig struct {
	Period int
	NbDev  float64
	// FullMargin 是映射到满置信度的带外突破比例，默认 2%。
	FullMargin float64
}

// BollingerBreakout 检测收盘价对布林带上/下轨的突破（阻力位类别）。
type BollingerBreakout struct {
	period     int
	nbDev      float64
	fullMargin float64
}

func NewBollingerBreakout(cfg BollingerConfig) *BollingerBreakout {
	if cfg.Period <= 0 {
		cfg.Period = 20
	}
	if cfg.NbDev <= 0 {
		cfg.NbDev = 2
	}
	if cfg.FullMargin <= 0 {
		cfg.FullMargin = 0.02
	}
	return &BollingerBreakout{period: cfg.Period, nbDev: cfg.NbDev, fullMargin: cfg.FullMargin}
}

func (u *BollingerBreakout) Name() string             { return NameBollingerBreakout }
func (u *BollingerBreakout) Category() Category       { return CategoryResistance }
func (u *BollingerBreakout) MinCandles() int          { return u.period + 1 }
func (u *BollingerBreakout) RequiredFields() []string { return []string{market.FieldClose} }

func (u *BollingerBreakout) Compute(_ context.Context, snap *market.Snapshot) (Result, error) {
	if res, ok := ready(u, snap); !ok {
		return res, nil
	}
	closes := market.Closes(snap.Candles)
	upper, _, lower := talib.BBands(closes, u.period, u.nbDev, u.nbDev, talib.SMA)
	up := lastValid(sanitize(upper))
	lo := lastValid(sanitize(lower))
	price := closes[len(closes)-1]
	if up == 0 || lo == 0 {
		return degraded(u.Name(), u.Category(), "bbands series empty"), nil
	}
	sig := SignalNone
	conf := 0.0
	margin := 0.0
	switch {
	case price > up:
		// 上轨外突破：突破幅度越大越可信
		margin = (price - up) / up
		sig = SignalBullish
		conf = clamp01(margin / u.fullMargin)
	case price < lo:
		margin = (lo - price) / lo
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
			"upper":  up,
			"lower":  lo,
			"price":  price,
			"period": u.period,
			"nb_dev": u.nbDev,
		},
	}, nil
}
