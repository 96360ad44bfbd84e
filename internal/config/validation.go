package config

import (
	"fmt"
	"strings"
)

// validate 聚合所有配置违规后一次性返回，
// 引擎绝不在非法配置下启动。
func validate(c *Config) error {
	var violations []string
	switch strings.ToLower(c.App.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		violations = append(violations, fmt.Sprintf("app.log_level %q unknown", c.App.LogLevel))
	}
	if c.Engine.CacheTTL <= 0 {
		violations = append(violations, "engine.cache_ttl must be positive")
	}
	if c.Engine.MaxConcurrentIndicators <= 0 {
		violations = append(violations, "engine.max_concurrent_indicators must be positive")
	}
	if c.Engine.UnitTimeout <= 0 {
		violations = append(violations, "engine.unit_timeout must be positive")
	}
	if c.Engine.CalcTimeout < 0 {
		violations = append(violations, "engine.calc_timeout must be >= 0")
	}
	if err := c.Fusion.Validate(); err != nil {
		violations = append(violations, err.Error())
	}
	if c.Ranking.MaxPerSymbol <= 0 {
		violations = append(violations, "ranking.max_per_symbol must be positive")
	}
	if c.Ranking.WinRatePrior <= 0 || c.Ranking.WinRatePrior > 1 {
		violations = append(violations, "ranking.win_rate_prior must be in (0,1]")
	}
	if c.Ranking.HistoryCapacity <= 0 {
		violations = append(violations, "ranking.history_capacity must be positive")
	}
	if c.HTTP.Enabled && strings.TrimSpace(c.HTTP.Addr) == "" {
		violations = append(violations, "http.addr cannot be empty when http.enabled")
	}
	if c.Store.Enabled && strings.TrimSpace(c.Store.Path) == "" {
		violations = append(violations, "store.path cannot be empty when store.enabled")
	}
	if len(violations) == 0 {
		return nil
	}
	return fmt.Errorf("invalid config: %s", strings.Join(violations, "; "))
}
