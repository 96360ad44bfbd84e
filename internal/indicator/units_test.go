package indicator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sigfuse/internal/market"
)

// makeBars 合成等间隔 K 线，step 为每根的收盘变化。
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

func snapFromBars(t *testing.T, bars []market.Candle) *market.Snapshot {
	t.Helper()
	snap, err := market.NewSnapshot("TESTUSDT", "1h", bars, 1)
	require.NoError(t, err)
	return snap
}

func TestUnitInsufficientCandlesDegrades(t *testing.T) {
	units := []Unit{
		NewMACrossover(MACrossoverConfig{}),
		NewRSIOverbought(RSIConfig{}),
		NewBollingerBreakout(BollingerConfig{}),
		NewResistanceBreakout(BreakoutConfig{}),
		NewMACDMomentum(MACDConfig{}),
		NewVolumeDivergence(VolumeDivergenceConfig{}),
		NewStochReversal(StochConfig{}),
		NewWilliamsR(WilliamsConfig{}),
		NewATRVolatility(ATRConfig{}),
		NewOBVTrend(OBVConfig{}),
		NewPullbackPattern(PullbackConfig{}),
	}
	snap := snapFromBars(t, makeBars(3, 100, 0.1))
	for _, u := range units {
		res, err := u.Compute(context.Background(), snap)
		require.NoError(t, err, u.Name())
		assert.Zero(t, res.Confidence, "%s must degrade, not error", u.Name())
		assert.Equal(t, SignalNone, res.Signal, u.Name())
	}
}

func TestUnitDeterminism(t *testing.T) {
	snap := snapFromBars(t, makeBars(120, 100, 0.5))
	units := []Unit{
		NewMACrossover(MACrossoverConfig{}),
		NewRSIOverbought(RSIConfig{}),
		NewMACDMomentum(MACDConfig{}),
	}
	for _, u := range units {
		first, err := u.Compute(context.Background(), snap)
		require.NoError(t, err)
		second, err := u.Compute(context.Background(), snap)
		require.NoError(t, err)
		assert.Equal(t, first.Value, second.Value, u.Name())
		assert.Equal(t, first.Confidence, second.Confidence, u.Name())
		assert.Equal(t, first.Signal, second.Signal, u.Name())
	}
}

func TestRSIOverboughtSignalsBearish(t *testing.T) {
	// 持续上涨把 RSI 推满
	snap := snapFromBars(t, makeBars(60, 100, 1))
	unit := NewRSIOverbought(RSIConfig{})
	res, err := unit.Compute(context.Background(), snap)
	require.NoError(t, err)
	assert.Greater(t, res.Value, 70.0)
	assert.Equal(t, SignalBearish, res.Signal)
	assert.Greater(t, res.Confidence, 0.0)
	assert.LessOrEqual(t, res.Confidence, 1.0)
}

func TestMACrossoverConfidenceMonotone(t *testing.T) {
	unit := NewMACrossover(MACrossoverConfig{})
	mild := snapFromBars(t, makeBars(120, 100, -0.05))
	steep := snapFromBars(t, makeBars(120, 100, -0.4))

	mildRes, err := unit.Compute(context.Background(), mild)
	require.NoError(t, err)
	steepRes, err := unit.Compute(context.Background(), steep)
	require.NoError(t, err)

	assert.Equal(t, SignalBearish, steepRes.Signal)
	assert.Greater(t, steepRes.Confidence, mildRes.Confidence,
		"larger spread must yield higher confidence")
}

func TestMACrossoverBullishOnUptrend(t *testing.T) {
	unit := NewMACrossover(MACrossoverConfig{})
	snap := snapFromBars(t, makeBars(120, 100, 0.4))
	res, err := unit.Compute(context.Background(), snap)
	require.NoError(t, err)
	assert.Equal(t, SignalBullish, res.Signal)
	assert.Greater(t, res.Strength.Score(), 0.0)
}

func TestVolumeDivergenceRequiresVolume(t *testing.T) {
	bars := makeBars(60, 100, 0.5)
	for i := range bars {
		bars[i].Volume = 0
	}
	snap := snapFromBars(t, bars)
	unit := NewVolumeDivergence(VolumeDivergenceConfig{})
	res, err := unit.Compute(context.Background(), snap)
	require.NoError(t, err)
	assert.Zero(t, res.Confidence)
	assert.Equal(t, SignalNone, res.Signal)
}

func TestStrengthQuantization(t *testing.T) {
	assert.Equal(t, StrengthNone, quantize(0, defaultBuckets))
	assert.Equal(t, StrengthVeryWeak, quantize(0.1, defaultBuckets))
	assert.Equal(t, StrengthWeak, quantize(0.3, defaultBuckets))
	assert.Equal(t, StrengthModerate, quantize(0.6, defaultBuckets))
	assert.Equal(t, StrengthStrong, quantize(0.9, defaultBuckets))
}
