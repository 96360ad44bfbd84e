package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"sigfuse/internal/fusion"
)

// Config 是进程级配置。核心引擎不直接读文件/环境变量，
// 由这里加载校验后按构造参数整体注入。
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Engine     EngineConfig     `mapstructure:"engine"`
	Indicators IndicatorsConfig `mapstructure:"indicators"`
	Fusion     fusion.Config    `mapstructure:"fusion"`
	Ranking    RankingConfig    `mapstructure:"ranking"`
	HTTP       HTTPConfig       `mapstructure:"http"`
	Store      StoreConfig      `mapstructure:"store"`
}

// AppConfig 是运行环境相关配置。
type AppConfig struct {
	LogLevel string `mapstructure:"log_level"`
}

// EngineConfig 控制指标引擎的缓存与并发。
type EngineConfig struct {
	CacheTTL                time.Duration `mapstructure:"cache_ttl"`
	MaxConcurrentIndicators int           `mapstructure:"max_concurrent_indicators"`
	UnitTimeout             time.Duration `mapstructure:"unit_timeout"`
	CalcTimeout             time.Duration `mapstructure:"calc_timeout"`
}

// IndicatorsConfig 控制启用哪些指标；Enabled 为空表示全部启用。
type IndicatorsConfig struct {
	Enabled []string `mapstructure:"enabled"`
}

// RankingConfig 控制过滤排序与历史缓冲。
type RankingConfig struct {
	MaxPerSymbol    int     `mapstructure:"max_per_symbol"`
	WinRatePrior    float64 `mapstructure:"win_rate_prior"`
	HistoryCapacity int     `mapstructure:"history_capacity"`
}

// HTTPConfig 控制只读诊断服务。
type HTTPConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// StoreConfig 控制信号落库。
type StoreConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load 读取 YAML 配置，应用默认值并做聚合校验。
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path cannot be empty")
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file failed (%s): %w", path, err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.WeaklyTypedInput = true
	}); err != nil {
		return nil, fmt.Errorf("parsing config failed: %w", err)
	}
	cfg.applyDefaults()
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
