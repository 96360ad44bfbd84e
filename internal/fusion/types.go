package fusion

import (
	"fmt"
	"strings"
	"time"

	"sigfuse/internal/indicator"
)

// Method 是信号融合策略标识。
type Method string

const (
	MethodWeightedSum  Method = "weighted_sum"
	MethodConsensus    Method = "consensus"
	MethodHierarchical Method = "hierarchical"
)

// defaultIndicatorWeight 是未在配置中列出的指标的加权和默认权重。
const defaultIndicatorWeight = 0.1

// Component 是进入融合的单个指标意见，字段自 indicator.Result 拷贝，
// 归属其所在的 Signal，不与其它信号共享。
type Component struct {
	Indicator  string               `json:"indicator"`
	Category   indicator.Category   `json:"category"`
	Signal     indicator.SignalType `json:"signal"`
	Strength   indicator.Strength   `json:"strength"`
	Value      float64              `json:"value"`
	Confidence float64              `json:"confidence"`
	Weight     float64              `json:"weight"`
}

// Signal 是融合后的交易信号。构造完成后只读，
// Confidence 与 RiskScore 永远由 Components 重算得出。
type Signal struct {
	ID               string               `json:"id"`
	Symbol           string               `json:"symbol"`
	Timeframe        string               `json:"timeframe"`
	Type             indicator.SignalType `json:"type"`
	Strength         indicator.Strength   `json:"strength"`
	Confidence       float64              `json:"confidence"`
	Method           Method               `json:"method"`
	Components       []Component          `json:"components"`
	RiskScore        float64              `json:"risk_score"`
	Supporting       []string             `json:"supporting"`
	Conflicting      []string             `json:"conflicting"`
	ExpectedDuration string               `json:"expected_duration"`
	Plan             *TradePlan           `json:"plan,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
}

// Tiers 描述分层融合的指标分层（按主/次/确认固定三层）。
type Tiers struct {
	Primary      []string `mapstructure:"primary" json:"primary"`
	Secondary    []string `mapstructure:"secondary" json:"secondary"`
	Confirmatory []string `mapstructure:"confirmatory" json:"confirmatory"`
}

// RiskWeights 是风险子分的混合权重。
type RiskWeights struct {
	Volatility   float64 `mapstructure:"volatility" json:"volatility"`
	Consistency  float64 `mapstructure:"consistency" json:"consistency"`
	Confirmation float64 `mapstructure:"confirmation" json:"confirmation"`
}

// Config 是融合与过滤共用的完整配置。
type Config struct {
	Method           Method             `mapstructure:"method" json:"method"`
	IndicatorWeights map[string]float64 `mapstructure:"indicator_weights" json:"indicator_weights"`
	MinConfidence    float64            `mapstructure:"min_confidence" json:"min_confidence"`
	MinSupporting    int                `mapstructure:"min_supporting" json:"min_supporting"`
	MaxConflicting   int                `mapstructure:"max_conflicting" json:"max_conflicting"`
	Tiers            Tiers              `mapstructure:"tiers" json:"tiers"`
	RiskWeights      RiskWeights        `mapstructure:"risk_weights" json:"risk_weights"`
}

// DefaultConfig 返回可直接运行的融合配置。
func DefaultConfig() Config {
	return Config{
		Method:         MethodWeightedSum,
		MinConfidence:  0.3,
		MinSupporting:  1,
		MaxConflicting: 11,
		RiskWeights:    RiskWeights{Volatility: 0.3, Consistency: 0.4, Confirmation: 0.3},
	}
}

// Validate 聚合所有违反项后一次性返回，引擎拒绝在非法配置下运行。
func (c *Config) Validate() error {
	var violations []string
	switch c.Method {
	case MethodWeightedSum, MethodConsensus, MethodHierarchical:
	default:
		violations = append(violations, fmt.Sprintf("method %q is not one of weighted_sum/consensus/hierarchical", c.Method))
	}
	for name, w := range c.IndicatorWeights {
		if w < 0 || w > 1 {
			violations = append(violations, fmt.Sprintf("indicator_weights[%s]=%.3f out of [0,1]", name, w))
		}
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		violations = append(violations, fmt.Sprintf("min_confidence %.3f out of [0,1]", c.MinConfidence))
	}
	if c.MinSupporting < 0 {
		violations = append(violations, fmt.Sprintf("min_supporting %d must be >= 0", c.MinSupporting))
	}
	if c.MaxConflicting < 0 {
		violations = append(violations, fmt.Sprintf("max_conflicting %d must be >= 0", c.MaxConflicting))
	}
	if c.Method == MethodHierarchical && len(c.Tiers.Primary) == 0 {
		violations = append(violations, "hierarchical method requires a non-empty primary tier")
	}
	rw := c.RiskWeights
	if rw.Volatility < 0 || rw.Consistency < 0 || rw.Confirmation < 0 {
		violations = append(violations, "risk weights must be non-negative")
	}
	if rw.Volatility+rw.Consistency+rw.Confirmation <= 0 {
		violations = append(violations, "risk weights must not all be zero")
	}
	if len(violations) == 0 {
		return nil
	}
	return fmt.Errorf("invalid fusion config: %s", strings.Join(violations, "; "))
}

// weightFor 返回指标的加权和权重，未配置时用默认值。
func (c *Config) weightFor(name string) float64 {
	if w, ok := c.IndicatorWeights[name]; ok {
		return w
	}
	return defaultIndicatorWeight
}

func componentFromResult(r indicator.Result, weight float64) Component {
	return Component{
		Indicator:  r.Name,
		Category:   r.Category,
		Signal:     r.Signal,
		Strength:   r.Strength,
		Value:      r.Value,
		Confidence: r.Confidence,
		Weight:     weight,
	}
}
