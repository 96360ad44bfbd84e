package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validBars(n int) []Candle {
	out := make([]Candle, n)
	price := 100.0
	for i := 0; i < n; i++ {
		out[i] = Candle{
			OpenTime:  int64(i+1) * 60_000,
			CloseTime: int64(i+2)*60_000 - 1,
			Open:      price,
			High:      price + 1,
			Low:       price - 1,
			Close:     price + 0.5,
			Volume:    500,
		}
		price += 0.5
	}
	return out
}

func TestNewSnapshotNormalizes(t *testing.T) {
	snap, err := NewSnapshot("btcusdt", "1H", validBars(5), 0.9)
	require.NoError(t, err)
	assert.Equal(t, "BTCUSDT", snap.Symbol)
	assert.Equal(t, "1h", snap.Timeframe)
	assert.InDelta(t, 0.9, snap.QualityScore, 1e-9)
	assert.False(t, snap.CapturedAt.IsZero())
}

func TestSnapshotValidateRejectsBadData(t *testing.T) {
	cases := map[string]func([]Candle) []Candle{
		"negative price": func(b []Candle) []Candle {
			b[2].Close = -1
			return b
		},
		"high below low": func(b []Candle) []Candle {
			b[1].High = b[1].Low - 5
			return b
		},
		"non-increasing times": func(b []Candle) []Candle {
			b[3].OpenTime = b[2].OpenTime
			return b
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewSnapshot("BTCUSDT", "1h", mutate(validBars(5)), 1)
			assert.Error(t, err)
		})
	}
}

func TestSnapshotRejectsQualityOutOfRange(t *testing.T) {
	_, err := NewSnapshot("BTCUSDT", "1h", validBars(3), 1.2)
	assert.Error(t, err)
	_, err = NewSnapshot("BTCUSDT", "1h", validBars(3), -0.1)
	assert.Error(t, err)
}

func TestSnapshotEmptyCandles(t *testing.T) {
	_, err := NewSnapshot("BTCUSDT", "1h", nil, 1)
	assert.Error(t, err)
}

func TestSnapshotTailAndLastClose(t *testing.T) {
	snap, err := NewSnapshot("BTCUSDT", "1h", validBars(10), 1)
	require.NoError(t, err)

	tail := snap.Tail(3)
	require.Len(t, tail, 3)
	assert.Equal(t, snap.Candles[7], tail[0])
	assert.Equal(t, snap.LastClose(), tail[2].Close)

	assert.Len(t, snap.Tail(100), 10)
}

func TestSnapshotHasField(t *testing.T) {
	snap, err := NewSnapshot("BTCUSDT", "1h", validBars(4), 1)
	require.NoError(t, err)
	assert.True(t, snap.HasField(FieldClose))
	assert.True(t, snap.HasField(FieldVolume))

	bars := validBars(4)
	for i := range bars {
		bars[i].Volume = 0
	}
	flat, err := NewSnapshot("BTCUSDT", "1h", bars, 1)
	require.NoError(t, err)
	assert.False(t, flat.HasField(FieldVolume))
}

func TestSeriesExtractors(t *testing.T) {
	bars := validBars(4)
	closes := Closes(bars)
	require.Len(t, closes, 4)
	assert.Equal(t, bars[0].Close, closes[0])
	assert.Equal(t, bars[3].High, Highs(bars)[3])
	assert.Equal(t, bars[2].Low, Lows(bars)[2])
	assert.Equal(t, bars[1].Volume, Volumes(bars)[1])
}
