package fusion

import (
	talib "github.com/markcheno/go-talib"
	"github.com/shopspring/decimal"

	"sigfuse/internal/indicator"
	"sigfuse/internal/market"
)

// 交易计划的 ATR 倍数（止损收紧、目标放宽，盈亏比 >1）。
const (
	planATRPeriod  = 14
	planStopMult   = 1.5
	planTargetMult = 2.5
	planMinCandles = planATRPeriod*2 + 1
)

// TradePlan 是挂在融合信号上的参考价位，不参与融合数学。
type TradePlan struct {
	Entry      float64 `json:"entry"`
	StopLoss   float64 `json:"stop_loss"`
	TakeProfit float64 `json:"take_profit"`
}

// buildTradePlan 按最新收盘价 ± k·ATR 推导参考价位。
// K 线不足或 ATR 不可用时返回 nil，信号照常发出。
func buildTradePlan(snap *market.Snapshot, sigType indicator.SignalType) *TradePlan {
	if snap == nil || len(snap.Candles) < planMinCandles {
		return nil
	}
	atrSeries := talib.Atr(
		market.Highs(snap.Candles),
		market.Lows(snap.Candles),
		market.Closes(snap.Candles),
		planATRPeriod,
	)
	atr := 0.0
	for i := len(atrSeries) - 1; i >= 0; i-- {
		if atrSeries[i] > 0 {
			atr = atrSeries[i]
			break
		}
	}
	entry := snap.LastClose()
	if atr <= 0 || entry <= 0 {
		return nil
	}
	entryDec := decimal.NewFromFloat(entry)
	stopDelta := decimal.NewFromFloat(atr * planStopMult)
	targetDelta := decimal.NewFromFloat(atr * planTargetMult)
	var stop, target decimal.Decimal
	switch sigType {
	case indicator.SignalBullish:
		stop = entryDec.Sub(stopDelta)
		target = entryDec.Add(targetDelta)
	case indicator.SignalBearish:
		stop = entryDec.Add(stopDelta)
		target = entryDec.Sub(targetDelta)
	default:
		return nil
	}
	if stop.IsNegative() || target.IsNegative() {
		return nil
	}
	stopF, _ := stop.Round(8).Float64()
	targetF, _ := target.Round(8).Float64()
	return &TradePlan{Entry: entry, StopLoss: stopF, TakeProfit: targetF}
}
