package indicator

import (
	"context"
	"math"
	"time"

	talib "github.com/markcheno/go-talib"

	"sigfuse/internal/market"
)

const NameVolumeDivergence = "VOLUME_DIVERGENCE"

// VolumeDivergenceConfig 控制量价背离检测参数。
type VolumeDivergenceConfig struct {
	Period int
	// FullRatio 是量价变化率差值映射到满置信度的比例，默认 0.3。
	FullRatio float64
}

// VolumeDivergence 比较价格动量与成交量动量的方向一致性。
// 价涨量缩视为上行乏力（看空），价跌量缩视为下行衰竭（看多）。
type VolumeDivergence struct {
	period    int
	fullRatio float64
}

func NewVolumeDivergence(cfg VolumeDivergenceConfig) *VolumeDivergence {
	if cfg.Period <= 0 {
		cfg.Period = 10
	}
	if cfg.FullRatio <= 0 {
		cfg.FullRatio = 0.3
	}
	return &VolumeDivergence{period: cfg.Period, fullRatio: cfg.FullRatio}
}

func (u *VolumeDivergence) Name() string       { return NameVolumeDivergence }
func (u *VolumeDivergence) Category() Category { return CategoryVolume }
func (u *VolumeDivergence) MinCandles() int    { return u.period*2 + 1 }
func (u *VolumeDivergence) RequiredFields() []string {
	return []string{market.FieldClose, market.FieldVolume}
}

func (u *VolumeDivergence) Compute(_ context.Context, snap *market.Snapshot) (Result, error) {
	if res, ok := ready(u, snap); !ok {
		return res, nil
	}
	closes := market.Closes(snap.Candles)
	volumes := market.Volumes(snap.Candles)
	priceRoc := lastValid(sanitize(talib.Roc(closes, u.period)))
	volSMA := sanitize(talib.Sma(volumes, u.period))
	if len(volSMA) < u.period+1 {
		return degraded(u.Name(), u.Category(), "volume series too short"), nil
	}
	volPrev := volSMA[len(volSMA)-1-u.period]
	volCur := volSMA[len(volSMA)-1]
	if volPrev <= 0 {
		return degraded(u.Name(), u.Category(), "zero baseline volume"), nil
	}
	volChange := (volCur - volPrev) / volPrev * 100
	divergence := 0.0
	sig := SignalNone
	if priceRoc > 0 && volChange < 0 {
		divergence = math.Min(priceRoc, -volChange) / 100
		sig = SignalBearish
	} else if priceRoc < 0 && volChange < 0 {
		divergence = math.Min(-priceRoc, -volChange) / 100
		sig = SignalBullish
	}
	conf := clamp01(divergence / u.fullRatio)
	if conf == 0 {
		sig = SignalNone
	}
	return Result{
		Name:       u.Name(),
		Category:   u.Category(),
		Value:      divergence,
		Signal:     sig,
		Strength:   quantize(conf, defaultBuckets),
		Confidence: conf,
		ComputedAt: time.Now().UTC(),
		Metadata: map[string]any{
			"price_roc_pct":  priceRoc,
			"volume_chg_pct": volChange,
			"period":         u.period,
		},
	}, nil
}
