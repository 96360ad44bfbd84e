package fusion

import "sort"

// RiskCeiling 是硬性风险上限（源行为固定安全阈值，不可配置）。
const RiskCeiling = 0.8

// 综合排名分的固定配比。
const (
	rankStrengthWeight   = 0.4
	rankConfidenceWeight = 0.3
	rankWinRateWeight    = 0.3
)

// WinRateProvider 提供信号的历史胜率估计，由外部协作方实现。
type WinRateProvider interface {
	WinProbability(sig Signal) float64
}

// StaticWinRate 是缺省实现：所有信号用同一个先验胜率。
type StaticWinRate struct {
	P float64
}

func (s StaticWinRate) WinProbability(Signal) float64 {
	if s.P <= 0 || s.P > 1 {
		return 0.5
	}
	return s.P
}

// FilterRanker 先按质量阈值过滤，再按综合分排序并做单标的截断。
type FilterRanker struct {
	cfg     Config
	winRate WinRateProvider
}

// NewFilterRanker 构造过滤排序器，wr 为 nil 时使用 0.5 先验。
func NewFilterRanker(cfg Config, wr WinRateProvider) *FilterRanker {
	if wr == nil {
		wr = StaticWinRate{P: 0.5}
	}
	return &FilterRanker{cfg: cfg, winRate: wr}
}

// FilterAndRank 返回值永远非 nil，空切片表示无可操作信号。
// 排序稳定：同分信号保持输入相对顺序。
func (f *FilterRanker) FilterAndRank(signals []Signal, maxPerSymbol int) []Signal {
	kept := make([]Signal, 0, len(signals))
	for _, sig := range signals {
		if !f.accept(sig) {
			continue
		}
		kept = append(kept, sig)
	}
	scores := make(map[string]float64, len(kept))
	for _, sig := range kept {
		scores[sig.ID] = f.score(sig)
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return scores[kept[i].ID] > scores[kept[j].ID]
	})
	if maxPerSymbol <= 0 {
		return kept
	}
	perSymbol := make(map[string]int, 4)
	out := make([]Signal, 0, len(kept))
	for _, sig := range kept {
		if perSymbol[sig.Symbol] >= maxPerSymbol {
			continue
		}
		perSymbol[sig.Symbol]++
		out = append(out, sig)
	}
	return out
}

func (f *FilterRanker) accept(sig Signal) bool {
	if sig.Confidence < f.cfg.MinConfidence {
		return false
	}
	if len(sig.Supporting) < f.cfg.MinSupporting {
		return false
	}
	if len(sig.Conflicting) > f.cfg.MaxConflicting {
		return false
	}
	if sig.RiskScore > RiskCeiling {
		return false
	}
	return true
}

// score = 0.4*强度分 + 0.3*置信度 + 0.3*历史胜率。
func (f *FilterRanker) score(sig Signal) float64 {
	strengthScore := sig.Strength.Score() / 4
	return rankStrengthWeight*strengthScore +
		rankConfidenceWeight*sig.Confidence +
		rankWinRateWeight*f.winRate.WinProbability(sig)
}
