package fusion

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sigfuse/internal/indicator"
)

func testSignal(id string, conf, risk float64, strength indicator.Strength, supporting, conflicting int) Signal {
	sup := make([]string, supporting)
	for i := range sup {
		sup[i] = fmt.Sprintf("IND_%d", i)
	}
	conf2 := make([]string, conflicting)
	for i := range conf2 {
		conf2[i] = fmt.Sprintf("IND_%d", i)
	}
	components := make([]Component, supporting)
	for i := range components {
		components[i] = Component{Indicator: sup[i], Confidence: conf, Weight: 0.1}
	}
	return Signal{
		ID:          id,
		Symbol:      "BTCUSDT",
		Type:        indicator.SignalBullish,
		Strength:    strength,
		Confidence:  conf,
		Components:  components,
		RiskScore:   risk,
		Supporting:  sup,
		Conflicting: conf2,
	}
}

func filterConfig() Config {
	cfg := DefaultConfig()
	cfg.MinConfidence = 0.5
	cfg.MinSupporting = 2
	cfg.MaxConflicting = 3
	return cfg
}

func TestFilterThresholds(t *testing.T) {
	ranker := NewFilterRanker(filterConfig(), nil)
	signals := []Signal{
		testSignal("ok", 0.8, 0.4, indicator.StrengthStrong, 3, 0),
		testSignal("low-conf", 0.4, 0.4, indicator.StrengthStrong, 3, 0),
		testSignal("few-support", 0.8, 0.4, indicator.StrengthStrong, 1, 0),
		testSignal("many-conflict", 0.8, 0.4, indicator.StrengthStrong, 3, 4),
		testSignal("risky", 0.8, 0.85, indicator.StrengthStrong, 3, 0),
	}
	out := ranker.FilterAndRank(signals, 0)
	require.Len(t, out, 1)
	assert.Equal(t, "ok", out[0].ID)

	for _, sig := range out {
		cfg := filterConfig()
		assert.GreaterOrEqual(t, sig.Confidence, cfg.MinConfidence)
		assert.GreaterOrEqual(t, len(sig.Supporting), cfg.MinSupporting)
		assert.LessOrEqual(t, len(sig.Conflicting), cfg.MaxConflicting)
		assert.LessOrEqual(t, sig.RiskScore, RiskCeiling)
	}
}

func TestFilterDropsSingleSupportWhenTwoRequired(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinSupporting = 2
	ranker := NewFilterRanker(cfg, nil)
	out := ranker.FilterAndRank([]Signal{
		testSignal("solo", 0.9, 0.2, indicator.StrengthStrong, 1, 0),
	}, 0)
	assert.Empty(t, out)
	assert.NotNil(t, out)
}

func TestRankingOrderAndStability(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinConfidence = 0
	cfg.MinSupporting = 0
	ranker := NewFilterRanker(cfg, nil)

	a := testSignal("a", 0.9, 0.2, indicator.StrengthStrong, 2, 0)   // 0.4*1 + 0.3*0.9 + 0.15 = 0.82
	b := testSignal("b", 0.9, 0.2, indicator.StrengthWeak, 2, 0)     // 0.4*0.5 + 0.27 + 0.15 = 0.62
	c := testSignal("c", 0.5, 0.2, indicator.StrengthModerate, 2, 0) // 0.3 + 0.15 + 0.15 = 0.60
	d := testSignal("d", 0.5, 0.2, indicator.StrengthModerate, 2, 0) // tie with c

	out := ranker.FilterAndRank([]Signal{c, d, b, a}, 0)
	require.Len(t, out, 4)
	assert.Equal(t, "a", out[0].ID)
	assert.Equal(t, "b", out[1].ID)
	// 同分信号保持输入相对顺序
	assert.Equal(t, "c", out[2].ID)
	assert.Equal(t, "d", out[3].ID)
}

func TestPerSymbolCap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinConfidence = 0
	cfg.MinSupporting = 0
	ranker := NewFilterRanker(cfg, nil)

	a := testSignal("a", 0.9, 0.2, indicator.StrengthStrong, 2, 0)
	b := testSignal("b", 0.8, 0.2, indicator.StrengthStrong, 2, 0)
	c := testSignal("c", 0.7, 0.2, indicator.StrengthStrong, 2, 0)
	other := testSignal("other", 0.6, 0.2, indicator.StrengthStrong, 2, 0)
	other.Symbol = "ETHUSDT"

	out := ranker.FilterAndRank([]Signal{a, b, c, other}, 2)
	require.Len(t, out, 3)
	assert.Equal(t, "a", out[0].ID)
	assert.Equal(t, "b", out[1].ID)
	assert.Equal(t, "other", out[2].ID)
}

func TestWinRateProviderInfluencesRank(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinConfidence = 0
	cfg.MinSupporting = 0

	a := testSignal("a", 0.5, 0.2, indicator.StrengthModerate, 2, 0)
	b := testSignal("b", 0.5, 0.2, indicator.StrengthModerate, 2, 0)

	ranker := NewFilterRanker(cfg, winRateByID{"b": 0.9, "a": 0.1})
	out := ranker.FilterAndRank([]Signal{a, b}, 0)
	require.Len(t, out, 2)
	assert.Equal(t, "b", out[0].ID)
}

type winRateByID map[string]float64

func (w winRateByID) WinProbability(sig Signal) float64 {
	if p, ok := w[sig.ID]; ok {
		return p
	}
	return 0.5
}
