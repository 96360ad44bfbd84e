package indicator

import (
	"context"
	"math"
	"time"

	talib "github.com/markcheno/go-talib"

	"sigfuse/internal/market"
)

const NameOBVTrend = "OBV_TREND"

// OBVConfig 控制 OBV 趋势确认检测参数。
type OBVConfig struct {
	Period int
	// FullSlope 是 OBV 相对变化映射到满置信度的比例，默认 10%。
	FullSlope float64
}

// OBVTrend 用能量潮斜率确认价格方向（成交量类别）。
type OBVTrend struct {
	period    int
	fullSlope float64
}

func NewOBVTrend(cfg OBVConfig) *OBVTrend {
	if cfg.Period <= 0 {
		cfg.Period = 20
	}
	if cfg.FullSlope <= 0 {
		cfg.FullSlope = 0.1
	}
	return &OBVTrend{period: cfg.Period, fullSlope: cfg.FullSlope}
}

func (u *OBVTrend) Name() string       { return NameOBVTrend }
func (u *OBVTrend) Category() Category { return CategoryVolume }
func (u *OBVTrend) MinCandles() int    { return u.period + 1 }
func (u *OBVTrend) RequiredFields() []string {
	return []string{market.FieldClose, market.FieldVolume}
}

func (u *OBVTrend) Compute(_ context.Context, snap *market.Snapshot) (Result, error) {
	if res, ok := ready(u, snap); !ok {
		return res, nil
	}
	closes := market.Closes(snap.Candles)
	obv := sanitize(talib.Obv(closes, market.Volumes(snap.Candles)))
	if len(obv) < u.period+1 {
		return degraded(u.Name(), u.Category(), "obv series too short"), nil
	}
	cur := obv[len(obv)-1]
	prev := obv[len(obv)-1-u.period]
	base := math.Abs(prev)
	if base == 0 {
		base = 1
	}
	slope := (cur - prev) / base
	priceUp := closes[len(closes)-1] > closes[len(closes)-1-u.period]
	sig := SignalNone
	conf := 0.0
	// OBV 与价格同向才视为确认信号
	if slope > 0 && priceUp {
		sig = SignalBullish
		conf = clamp01(slope / u.fullSlope)
	} else if slope < 0 && !priceUp {
		sig = SignalBearish
		conf = clamp01(-slope / u.fullSlope)
	}
	if conf == 0 {
		sig = SignalNone
	}
	return Result{
		Name:       u.Name(),
		Category:   u.Category(),
		Value:      slope,
		Signal:     sig,
		Strength:   quantize(conf, defaultBuckets),
		Confidence: conf,
		ComputedAt: time.Now().UTC(),
		Metadata: map[string]any{
			"obv":      cur,
			"obv_prev": prev,
			"period":   u.period,
		},
	}, nil
}
