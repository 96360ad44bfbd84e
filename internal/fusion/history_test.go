package fusion

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sigfuse/internal/indicator"
)

func historySignal(id string, sigType indicator.SignalType, conf float64) Signal {
	return Signal{ID: id, Symbol: "BTCUSDT", Type: sigType, Confidence: conf}
}

func TestHistoryRingEviction(t *testing.T) {
	h := NewHistory(3)
	for i := 1; i <= 5; i++ {
		h.Record(historySignal(fmt.Sprintf("s%d", i), indicator.SignalBullish, 0.5))
	}
	assert.Equal(t, 3, h.Len())

	recent := h.Recent(0)
	require.Len(t, recent, 3)
	assert.Equal(t, "s5", recent[0].ID)
	assert.Equal(t, "s4", recent[1].ID)
	assert.Equal(t, "s3", recent[2].ID)
}

func TestHistoryRecentLimit(t *testing.T) {
	h := NewHistory(10)
	for i := 1; i <= 4; i++ {
		h.Record(historySignal(fmt.Sprintf("s%d", i), indicator.SignalBearish, 0.5))
	}
	recent := h.Recent(2)
	require.Len(t, recent, 2)
	assert.Equal(t, "s4", recent[0].ID)
	assert.Equal(t, "s3", recent[1].ID)
}

func TestHistoryStatsIncremental(t *testing.T) {
	h := NewHistory(2)
	h.Record(historySignal("a", indicator.SignalBullish, 0.4))
	h.Record(historySignal("b", indicator.SignalBullish, 0.8))
	h.Record(historySignal("c", indicator.SignalBearish, 0.6))

	stats := h.Stats()
	// 统计覆盖全部发出过的信号，不随环形淘汰回退
	assert.Equal(t, uint64(3), stats.Total)
	assert.Equal(t, uint64(2), stats.PerType[indicator.SignalBullish])
	assert.Equal(t, uint64(1), stats.PerType[indicator.SignalBearish])
	assert.InDelta(t, (0.4+0.8+0.6)/3, stats.MeanConfidence, 1e-9)
}

func TestHistoryEmpty(t *testing.T) {
	h := NewHistory(5)
	assert.Empty(t, h.Recent(10))
	stats := h.Stats()
	assert.Zero(t, stats.Total)
	assert.Zero(t, stats.MeanConfidence)
}
