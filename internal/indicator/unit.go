package indicator

import (
	"context"
	"math"
	"time"

	"sigfuse/internal/market"
)

// Unit 是单个指标计算器。实现必须满足：
//  1. 相同输入产生相同输出（确定性）；
//  2. Confidence 随检测幅度相对中性基线的偏离单调增长；
//  3. K 线数量不足 MinCandles 时返回零置信度结果而不是错误。
type Unit interface {
	Name() string
	Category() Category
	MinCandles() int
	RequiredFields() []string
	Compute(ctx context.Context, snap *market.Snapshot) (Result, error)
}

// degraded 构造数据不足/缺字段时的零置信度结果。
func degraded(name string, cat Category, reason string) Result {
	return Result{
		Name:       name,
		Category:   cat,
		Signal:     SignalNone,
		Confidence: 0,
		ComputedAt: time.Now().UTC(),
		Metadata:   map[string]any{"degraded": reason},
	}
}

// ready 检查快照长度与必需字段，不满足时返回降级结果。
func ready(u Unit, snap *market.Snapshot) (Result, bool) {
	if snap == nil || len(snap.Candles) < u.MinCandles() {
		return degraded(u.Name(), u.Category(), "insufficient candles"), false
	}
	for _, f := range u.RequiredFields() {
		if !snap.HasField(f) {
			return degraded(u.Name(), u.Category(), "missing field "+f), false
		}
	}
	return Result{}, true
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// quantize 按单元自带的三个阈值把置信度分档。
func quantize(confidence float64, thresholds [3]float64) Strength {
	switch {
	case confidence <= 0:
		return StrengthNone
	case confidence < thresholds[0]:
		return StrengthVeryWeak
	case confidence < thresholds[1]:
		return StrengthWeak
	case confidence < thresholds[2]:
		return StrengthModerate
	default:
		return StrengthStrong
	}
}

// defaultBuckets 是大多数单元共用的分档阈值。
var defaultBuckets = [3]float64{0.25, 0.5, 0.75}

func lastValid(series []float64) float64 {
	for i := len(series) - 1; i >= 0; i-- {
		if !math.IsNaN(series[i]) && !math.IsInf(series[i], 0) {
			return series[i]
		}
	}
	return 0
}

func sanitize(series []float64) []float64 {
	out := make([]float64, 0, len(series))
	for _, v := range series {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, v)
	}
	return out
}
