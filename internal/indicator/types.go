package indicator

import "time"

// Category 标识指标所属的技术分析维度。
type Category string

const (
	CategoryTrendReversal Category = "trend_reversal"
	CategoryOverbought    Category = "overbought"
	CategoryResistance    Category = "resistance"
	CategoryVolume        Category = "volume"
	CategoryMomentum      Category = "momentum"
	CategoryVolatility    Category = "volatility"
)

// SignalType 是指标给出的方向判断，空值表示本次无信号。
type SignalType string

const (
	SignalNone    SignalType = ""
	SignalBullish SignalType = "bullish"
	SignalBearish SignalType = "bearish"
)

// Strength 对偏离幅度做 4 档粗量化。
type Strength int

const (
	StrengthNone Strength = iota
	StrengthVeryWeak
	StrengthWeak
	StrengthModerate
	StrengthStrong
)

func (s Strength) String() string {
	switch s {
	case StrengthVeryWeak:
		return "very_weak"
	case StrengthWeak:
		return "weak"
	case StrengthModerate:
		return "moderate"
	case StrengthStrong:
		return "strong"
	default:
		return "none"
	}
}

// Score 把档位映射为 1..4 数值（无档位为 0），供融合加权使用。
func (s Strength) Score() float64 {
	if s < StrengthVeryWeak || s > StrengthStrong {
		return 0
	}
	return float64(s)
}

// StrengthFromScore 把加权平均分四舍五入回档位。
func StrengthFromScore(score float64) Strength {
	switch {
	case score <= 0:
		return StrengthNone
	case score < 1.5:
		return StrengthVeryWeak
	case score < 2.5:
		return StrengthWeak
	case score < 3.5:
		return StrengthModerate
	default:
		return StrengthStrong
	}
}

// Result 是一次指标计算的不可变输出。
// Confidence 随偏离幅度单调增长，Signal 为空代表只提供数值观测。
type Result struct {
	Name       string         `json:"name"`
	Category   Category       `json:"category"`
	Value      float64        `json:"value"`
	Signal     SignalType     `json:"signal,omitempty"`
	Strength   Strength       `json:"strength,omitempty"`
	Confidence float64        `json:"confidence"`
	ComputedAt time.Time      `json:"computed_at"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// HasSignal 判断结果是否携带可融合的方向信号。
func (r Result) HasSignal() bool {
	return r.Signal != SignalNone && r.Confidence > 0
}
