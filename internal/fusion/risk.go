package fusion

import (
	"math"

	"sigfuse/internal/market"
)

// 风险子分的归一化常量。
const (
	// volRiskWindow 是波动率风险取样的 K 线数量。
	volRiskWindow = 20
	// volRiskFullScale 是映射到满风险的收益率标准差。
	volRiskFullScale = 0.04
)

// riskScore 把三个独立子分按配置权重混合成 [0,1] 风险值。
func riskScore(snap *market.Snapshot, components []Component, distinctTypes int, w RiskWeights) float64 {
	total := w.Volatility + w.Consistency + w.Confirmation
	if total <= 0 {
		return 0
	}
	blended := w.Volatility*volatilityRisk(snap) +
		w.Consistency*consistencyRisk(components) +
		w.Confirmation*confirmationRisk(distinctTypes)
	return clamp01(blended / total)
}

// volatilityRisk 用近期收盘收益率的离散度衡量市况风险。
func volatilityRisk(snap *market.Snapshot) float64 {
	if snap == nil || len(snap.Candles) < 3 {
		return 0.5
	}
	window := snap.Tail(volRiskWindow + 1)
	returns := make([]float64, 0, len(window)-1)
	for i := 1; i < len(window); i++ {
		prev := window[i-1].Close
		if prev <= 0 {
			continue
		}
		returns = append(returns, (window[i].Close-prev)/prev)
	}
	if len(returns) < 2 {
		return 0.5
	}
	return clamp01(stddev(returns) / volRiskFullScale)
}

// consistencyRisk 用分量置信度的标准差衡量意见分裂：
// 分歧越大风险越高。置信度取值在 [0,1]，标准差上界 0.5。
func consistencyRisk(components []Component) float64 {
	if len(components) < 2 {
		return 0.5
	}
	confs := make([]float64, len(components))
	for i, c := range components {
		confs[i] = c.Confidence
	}
	return clamp01(stddev(confs) * 2)
}

// confirmationRisk 按本次融合出现的不同信号方向数量打分。
// 只有单一方向时缺乏旁证，风险最高；方向越多旁证越充分。
func confirmationRisk(distinctTypes int) float64 {
	switch {
	case distinctTypes <= 1:
		return 0.7
	case distinctTypes == 2:
		return 0.4
	default:
		return 0.25
	}
}

func stddev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	variance := 0.0
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))
	return math.Sqrt(variance)
}
