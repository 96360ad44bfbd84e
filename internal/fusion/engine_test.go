package fusion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sigfuse/internal/indicator"
	"sigfuse/internal/market"
)

func makeBars(n int, base, step float64) []market.Candle {
	out := make([]market.Candle, n)
	price := base
	for i := 0; i < n; i++ {
		o := price
		c := o + step
		hi, lo := o, c
		if hi < lo {
			hi, lo = lo, hi
		}
		out[i] = market.Candle{
			OpenTime:  int64(i+1) * 60_000,
			CloseTime: int64(i+2)*60_000 - 1,
			Open:      o,
			High:      hi * 1.001,
			Low:       lo * 0.999,
			Close:     c,
			Volume:    1000,
		}
		price = c
	}
	return out
}

func fusionSnap(t *testing.T) *market.Snapshot {
	t.Helper()
	snap, err := market.NewSnapshot("BTCUSDT", "1h", makeBars(80, 50000, -20), 1)
	require.NoError(t, err)
	return snap
}

func result(name string, cat indicator.Category, sig indicator.SignalType, conf float64) indicator.Result {
	return indicator.Result{
		Name:       name,
		Category:   cat,
		Value:      conf,
		Signal:     sig,
		Strength:   indicator.StrengthModerate,
		Confidence: conf,
		ComputedAt: time.Now().UTC(),
	}
}

func TestWeightedSumScenario(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Method = MethodWeightedSum
	cfg.IndicatorWeights = map[string]float64{
		indicator.NameMACrossover:   0.25,
		indicator.NameRSIOverbought: 0.20,
	}
	engine, err := NewEngine(cfg)
	require.NoError(t, err)

	confMA, confRSI := 1.0, 0.25
	results := []indicator.Result{
		result(indicator.NameMACrossover, indicator.CategoryTrendReversal, indicator.SignalBearish, confMA),
		result(indicator.NameRSIOverbought, indicator.CategoryOverbought, indicator.SignalBearish, confRSI),
	}
	signals := engine.Fuse(fusionSnap(t), results)
	require.Len(t, signals, 1)

	sig := signals[0]
	assert.Equal(t, indicator.SignalBearish, sig.Type)
	expected := (0.25*confMA + 0.20*confRSI) / (0.25 + 0.20)
	assert.InDelta(t, expected, sig.Confidence, 0.05)
	assert.Len(t, sig.Supporting, len(sig.Components))
	assert.Empty(t, sig.Conflicting, "single direction pass has no conflicts")
	assert.NotEmpty(t, sig.ID)
	assert.Equal(t, MethodWeightedSum, sig.Method)
}

func TestWeightedSumDefaultWeightForUnlisted(t *testing.T) {
	cfg := DefaultConfig()
	cfg.IndicatorWeights = map[string]float64{indicator.NameMACrossover: 0.5}
	engine, err := NewEngine(cfg)
	require.NoError(t, err)

	results := []indicator.Result{
		result(indicator.NameMACrossover, indicator.CategoryTrendReversal, indicator.SignalBullish, 0.8),
		result(indicator.NameOBVTrend, indicator.CategoryVolume, indicator.SignalBullish, 0.4),
	}
	signals := engine.Fuse(fusionSnap(t), results)
	require.Len(t, signals, 1)
	// 未列出的指标使用默认权重 0.1
	expected := (0.5*0.8 + 0.1*0.4) / 0.6
	assert.InDelta(t, expected, signals[0].Confidence, 1e-9)
}

func TestConsensusBelowThresholdEmitsNothing(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Method = MethodConsensus
	engine, err := NewEngine(cfg)
	require.NoError(t, err)

	// 5 个结果里只有 1 个站队：1/5 = 0.2 < 0.4
	results := []indicator.Result{
		result(indicator.NameMACrossover, indicator.CategoryTrendReversal, indicator.SignalBullish, 0.9),
		result(indicator.NameRSIOverbought, indicator.CategoryOverbought, indicator.SignalNone, 0),
		result(indicator.NameMACDMomentum, indicator.CategoryMomentum, indicator.SignalNone, 0),
		result(indicator.NameOBVTrend, indicator.CategoryVolume, indicator.SignalNone, 0),
		result(indicator.NameWilliamsR, indicator.CategoryMomentum, indicator.SignalNone, 0),
	}
	signals := engine.Fuse(fusionSnap(t), results)
	assert.Empty(t, signals)
}

func TestConsensusAboveThreshold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Method = MethodConsensus
	engine, err := NewEngine(cfg)
	require.NoError(t, err)

	results := []indicator.Result{
		result(indicator.NameMACrossover, indicator.CategoryTrendReversal, indicator.SignalBullish, 0.8),
		result(indicator.NameMACDMomentum, indicator.CategoryMomentum, indicator.SignalBullish, 0.6),
		result(indicator.NameOBVTrend, indicator.CategoryVolume, indicator.SignalNone, 0),
		result(indicator.NameWilliamsR, indicator.CategoryMomentum, indicator.SignalNone, 0),
	}
	signals := engine.Fuse(fusionSnap(t), results)
	require.Len(t, signals, 1)
	// consensusScore = 2/4，置信度 = mean * score
	assert.InDelta(t, 0.7*0.5, signals[0].Confidence, 1e-9)
}

func TestHierarchicalRequiresPrimaryTier(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Method = MethodHierarchical
	cfg.Tiers = Tiers{
		Primary:      []string{indicator.NameMACrossover},
		Secondary:    []string{indicator.NameRSIOverbought, indicator.NameBollingerBreakout},
		Confirmatory: []string{indicator.NameOBVTrend},
	}
	engine, err := NewEngine(cfg)
	require.NoError(t, err)

	// 两个次层指标有信号，但主层缺席 → 不发信号
	results := []indicator.Result{
		result(indicator.NameRSIOverbought, indicator.CategoryOverbought, indicator.SignalBearish, 0.9),
		result(indicator.NameBollingerBreakout, indicator.CategoryResistance, indicator.SignalBearish, 0.7),
	}
	signals := engine.Fuse(fusionSnap(t), results)
	assert.Empty(t, signals)
}

func TestHierarchicalBlend(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Method = MethodHierarchical
	cfg.Tiers = Tiers{
		Primary:      []string{indicator.NameMACrossover},
		Secondary:    []string{indicator.NameRSIOverbought},
		Confirmatory: []string{indicator.NameOBVTrend},
	}
	engine, err := NewEngine(cfg)
	require.NoError(t, err)

	results := []indicator.Result{
		result(indicator.NameMACrossover, indicator.CategoryTrendReversal, indicator.SignalBearish, 0.8),
		result(indicator.NameRSIOverbought, indicator.CategoryOverbought, indicator.SignalBearish, 0.6),
		result(indicator.NameOBVTrend, indicator.CategoryVolume, indicator.SignalBearish, 0.5),
	}
	signals := engine.Fuse(fusionSnap(t), results)
	require.Len(t, signals, 1)
	assert.InDelta(t, 0.5*0.8+0.3*0.6+0.2*0.5, signals[0].Confidence, 1e-9)
}

func TestCrossTypeDisagreementMarksAllConflicted(t *testing.T) {
	cfg := DefaultConfig()
	engine, err := NewEngine(cfg)
	require.NoError(t, err)

	results := []indicator.Result{
		result(indicator.NameMACrossover, indicator.CategoryTrendReversal, indicator.SignalBullish, 0.8),
		result(indicator.NameOBVTrend, indicator.CategoryVolume, indicator.SignalBullish, 0.6),
		result(indicator.NameRSIOverbought, indicator.CategoryOverbought, indicator.SignalBearish, 0.7),
	}
	signals := engine.Fuse(fusionSnap(t), results)
	require.Len(t, signals, 2)
	for _, sig := range signals {
		// 跨方向分歧时全部参与者都被记为冲突（保留源行为）
		assert.Len(t, sig.Conflicting, 3, sig.Type)
		assert.Len(t, sig.Supporting, len(sig.Components))
	}
}

func TestFusedSignalBounds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.IndicatorWeights = map[string]float64{indicator.NameMACrossover: 1, indicator.NameOBVTrend: 1}
	engine, err := NewEngine(cfg)
	require.NoError(t, err)

	results := []indicator.Result{
		result(indicator.NameMACrossover, indicator.CategoryTrendReversal, indicator.SignalBullish, 1),
		result(indicator.NameOBVTrend, indicator.CategoryVolume, indicator.SignalBullish, 1),
		result(indicator.NameRSIOverbought, indicator.CategoryOverbought, indicator.SignalBearish, 1),
	}
	for _, sig := range engine.Fuse(fusionSnap(t), results) {
		assert.GreaterOrEqual(t, sig.Confidence, 0.0)
		assert.LessOrEqual(t, sig.Confidence, 1.0)
		assert.GreaterOrEqual(t, sig.RiskScore, 0.0)
		assert.LessOrEqual(t, sig.RiskScore, 1.0)
	}
}

func TestTradePlanDirection(t *testing.T) {
	engine, err := NewEngine(DefaultConfig())
	require.NoError(t, err)
	snap := fusionSnap(t)

	results := []indicator.Result{
		result(indicator.NameMACrossover, indicator.CategoryTrendReversal, indicator.SignalBearish, 0.9),
		result(indicator.NameRSIOverbought, indicator.CategoryOverbought, indicator.SignalBearish, 0.8),
	}
	signals := engine.Fuse(snap, results)
	require.Len(t, signals, 1)
	plan := signals[0].Plan
	require.NotNil(t, plan)
	assert.Equal(t, snap.LastClose(), plan.Entry)
	assert.Greater(t, plan.StopLoss, plan.Entry, "bearish stop sits above entry")
	assert.Less(t, plan.TakeProfit, plan.Entry, "bearish target sits below entry")
}

func TestInvalidConfigRejectedAtConstruction(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Method = "majority_vote"
	cfg.MinConfidence = 1.7
	cfg.IndicatorWeights = map[string]float64{"X": -0.2}
	_, err := NewEngine(cfg)
	require.Error(t, err)
	// 聚合错误一次性列出全部违规
	assert.Contains(t, err.Error(), "method")
	assert.Contains(t, err.Error(), "min_confidence")
	assert.Contains(t, err.Error(), "indicator_weights[X]")
}
