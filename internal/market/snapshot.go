package market

import (
	"fmt"
	"strings"
	"time"
)

// 候选快照要求的字段名，供指标声明 RequiredFields 使用。
const (
	FieldOpen   = "open"
	FieldHigh   = "high"
	FieldLow    = "low"
	FieldClose  = "close"
	FieldVolume = "volume"
)

// Snapshot 是单个 symbol+timeframe 的一次性行情切片。
// 构造完成后视为只读，所有指标并发消费同一份数据。
type Snapshot struct {
	Symbol       string    `json:"symbol"`
	Timeframe    string    `json:"timeframe"`
	CapturedAt   time.Time `json:"captured_at"`
	Candles      []Candle  `json:"candles"`
	QualityScore float64   `json:"quality_score"`
}

// NewSnapshot 规范化并校验输入，返回可直接喂给引擎的快照。
func NewSnapshot(symbol, timeframe string, candles []Candle, quality float64) (*Snapshot, error) {
	s := &Snapshot{
		Symbol:       strings.ToUpper(strings.TrimSpace(symbol)),
		Timeframe:    strings.ToLower(strings.TrimSpace(timeframe)),
		CapturedAt:   time.Now().UTC(),
		Candles:      append([]Candle(nil), candles...),
		QualityScore: quality,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate 做最小一致性检查，时间必须递增、价格必须为正。
func (s *Snapshot) Validate() error {
	if s == nil {
		return fmt.Errorf("snapshot is nil")
	}
	if s.Symbol == "" {
		return fmt.Errorf("snapshot symbol cannot be empty")
	}
	if s.Timeframe == "" {
		return fmt.Errorf("snapshot timeframe cannot be empty")
	}
	if len(s.Candles) == 0 {
		return fmt.Errorf("snapshot %s has no candles", s.Symbol)
	}
	if s.QualityScore < 0 || s.QualityScore > 1 {
		return fmt.Errorf("snapshot quality score %.3f out of [0,1]", s.QualityScore)
	}
	prev := int64(-1)
	for i, c := range s.Candles {
		if c.Close <= 0 || c.High <= 0 || c.Low <= 0 {
			return fmt.Errorf("candle %d has non-positive price", i)
		}
		if c.High < c.Low {
			return fmt.Errorf("candle %d high %.8f below low %.8f", i, c.High, c.Low)
		}
		if c.OpenTime > 0 && c.OpenTime <= prev {
			return fmt.Errorf("candle %d open time not increasing", i)
		}
		if c.OpenTime > 0 {
			prev = c.OpenTime
		}
	}
	return nil
}

// LastClose 返回最近一根 K 线收盘价，空快照返回 0。
func (s *Snapshot) LastClose() float64 {
	if s == nil || len(s.Candles) == 0 {
		return 0
	}
	return s.Candles[len(s.Candles)-1].Close
}

// Tail 返回末尾 n 根 K 线（不复制整段时 n>=len 则返回全部）。
func (s *Snapshot) Tail(n int) []Candle {
	if s == nil || n <= 0 {
		return nil
	}
	if n >= len(s.Candles) {
		return s.Candles
	}
	return s.Candles[len(s.Candles)-n:]
}

// HasField 检查快照是否携带指标声明的字段。
// OHLC 永远存在，volume 需要序列里出现过非零成交量。
func (s *Snapshot) HasField(field string) bool {
	switch field {
	case FieldOpen, FieldHigh, FieldLow, FieldClose:
		return len(s.Candles) > 0
	case FieldVolume:
		for _, c := range s.Candles {
			if c.Volume > 0 {
				return true
			}
		}
		return false
	default:
		return false
	}
}
