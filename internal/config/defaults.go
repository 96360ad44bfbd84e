package config

import (
	"time"

	"sigfuse/internal/fusion"
)

// applyDefaults 在校验前补全未配置项。
func (c *Config) applyDefaults() {
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Engine.CacheTTL <= 0 {
		c.Engine.CacheTTL = 5 * time.Minute
	}
	if c.Engine.MaxConcurrentIndicators <= 0 {
		c.Engine.MaxConcurrentIndicators = 4
	}
	if c.Engine.UnitTimeout <= 0 {
		c.Engine.UnitTimeout = 3 * time.Second
	}
	if c.Fusion.Method == "" {
		c.Fusion.Method = fusion.MethodWeightedSum
	}
	if c.Fusion.MinConfidence == 0 {
		c.Fusion.MinConfidence = 0.3
	}
	if c.Fusion.MinSupporting == 0 {
		c.Fusion.MinSupporting = 1
	}
	if c.Fusion.MaxConflicting == 0 {
		c.Fusion.MaxConflicting = 11
	}
	rw := &c.Fusion.RiskWeights
	if rw.Volatility == 0 && rw.Consistency == 0 && rw.Confirmation == 0 {
		rw.Volatility = 0.3
		rw.Consistency = 0.4
		rw.Confirmation = 0.3
	}
	if c.Ranking.MaxPerSymbol <= 0 {
		c.Ranking.MaxPerSymbol = 3
	}
	if c.Ranking.WinRatePrior <= 0 || c.Ranking.WinRatePrior > 1 {
		c.Ranking.WinRatePrior = 0.5
	}
	if c.Ranking.HistoryCapacity <= 0 {
		c.Ranking.HistoryCapacity = fusion.DefaultHistoryCapacity
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":9985"
	}
	if c.Store.Path == "" {
		c.Store.Path = "data/signals.db"
	}
}
