package fusion

import (
	"fmt"

	"sigfuse/internal/indicator"
)

// consensusThreshold 是共识策略的最低赞同率（源行为固定值）。
const consensusThreshold = 0.4

// Strategy 把一组同向指标意见融合成一个信号。
// 返回 false 表示该组不满足策略条件，被静默丢弃而非报错。
type Strategy interface {
	Method() Method
	Fuse(group []Component, totalResults int) (fused, bool)
}

// fused 是策略输出的中间结果，引擎在其上补齐风险与元数据。
type fused struct {
	Type       indicator.SignalType
	Strength   indicator.Strength
	Confidence float64
	Components []Component
}

// newStrategy 按配置实例化策略。
func newStrategy(cfg Config) (Strategy, error) {
	switch cfg.Method {
	case MethodWeightedSum:
		return &weightedSum{}, nil
	case MethodConsensus:
		return &consensus{}, nil
	case MethodHierarchical:
		return &hierarchical{tiers: cfg.Tiers}, nil
	default:
		return nil, fmt.Errorf("unknown fusion method %q", cfg.Method)
	}
}

// meanStrength 把各分量档位按 1..4 打分取平均再回量化。
func meanStrength(group []Component) indicator.Strength {
	sum, n := 0.0, 0
	for _, c := range group {
		if s := c.Strength.Score(); s > 0 {
			sum += s
			n++
		}
	}
	if n == 0 {
		return indicator.StrengthVeryWeak
	}
	return indicator.StrengthFromScore(sum / float64(n))
}

func meanConfidence(group []Component) float64 {
	if len(group) == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range group {
		sum += c.Confidence
	}
	return sum / float64(len(group))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// weightedSum 按配置权重做归一化加权平均。
type weightedSum struct{}

func (s *weightedSum) Method() Method { return MethodWeightedSum }

func (s *weightedSum) Fuse(group []Component, _ int) (fused, bool) {
	if len(group) == 0 {
		return fused{}, false
	}
	var weighted, total float64
	for _, c := range group {
		weighted += c.Weight * c.Confidence
		total += c.Weight
	}
	if total <= 0 {
		return fused{}, false
	}
	return fused{
		Type:       group[0].Signal,
		Strength:   meanStrength(group),
		Confidence: clamp01(weighted / total),
		Components: group,
	}, true
}

// consensus 只在足够多指标站队同一方向时发信号。
type consensus struct{}

func (s *consensus) Method() Method { return MethodConsensus }

func (s *consensus) Fuse(group []Component, totalResults int) (fused, bool) {
	if len(group) == 0 || totalResults <= 0 {
		return fused{}, false
	}
	score := float64(len(group)) / float64(totalResults)
	if score < consensusThreshold {
		return fused{}, false
	}
	return fused{
		Type:       group[0].Signal,
		Strength:   meanStrength(group),
		Confidence: clamp01(meanConfidence(group) * score),
		Components: group,
	}, true
}

// hierarchical 要求主层指标在场，置信度按 50/30/20 固定配比混合，
// 次层与确认层缺席时对应份额直接缺失（不做重归一）。
type hierarchical struct {
	tiers Tiers
}

func (s *hierarchical) Method() Method { return MethodHierarchical }

func (s *hierarchical) Fuse(group []Component, _ int) (fused, bool) {
	if len(group) == 0 {
		return fused{}, false
	}
	primary := pickTier(group, s.tiers.Primary)
	if len(primary) == 0 {
		return fused{}, false
	}
	secondary := pickTier(group, s.tiers.Secondary)
	confirmatory := pickTier(group, s.tiers.Confirmatory)

	conf := 0.5 * meanConfidence(primary)
	if len(secondary) > 0 {
		conf += 0.3 * meanConfidence(secondary)
	}
	if len(confirmatory) > 0 {
		conf += 0.2 * meanConfidence(confirmatory)
	}
	return fused{
		Type:       group[0].Signal,
		Strength:   meanStrength(group),
		Confidence: clamp01(conf),
		Components: group,
	}, true
}

func pickTier(group []Component, names []string) []Component {
	if len(names) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	out := make([]Component, 0, len(group))
	for _, c := range group {
		if _, ok := set[c.Indicator]; ok {
			out = append(out, c)
		}
	}
	return out
}
