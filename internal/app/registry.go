package app

import (
	"fmt"
	"sort"
	"strings"

	"sigfuse/internal/indicator"
)

// unitConstructors 是指标注册表：启动时按名字实例化，
// 取代运行期的类型分支判断。
var unitConstructors = map[string]func() indicator.Unit{
	indicator.NameMACrossover:        func() indicator.Unit { return indicator.NewMACrossover(indicator.MACrossoverConfig{}) },
	indicator.NameRSIOverbought:      func() indicator.Unit { return indicator.NewRSIOverbought(indicator.RSIConfig{}) },
	indicator.NameBollingerBreakout:  func() indicator.Unit { return indicator.NewBollingerBreakout(indicator.BollingerConfig{}) },
	indicator.NameResistanceBreakout: func() indicator.Unit { return indicator.NewResistanceBreakout(indicator.BreakoutConfig{}) },
	indicator.NameMACDMomentum:       func() indicator.Unit { return indicator.NewMACDMomentum(indicator.MACDConfig{}) },
	indicator.NameVolumeDivergence:   func() indicator.Unit { return indicator.NewVolumeDivergence(indicator.VolumeDivergenceConfig{}) },
	indicator.NameStochReversal:      func() indicator.Unit { return indicator.NewStochReversal(indicator.StochConfig{}) },
	indicator.NameWilliamsR:          func() indicator.Unit { return indicator.NewWilliamsR(indicator.WilliamsConfig{}) },
	indicator.NameATRVolatility:      func() indicator.Unit { return indicator.NewATRVolatility(indicator.ATRConfig{}) },
	indicator.NameOBVTrend:           func() indicator.Unit { return indicator.NewOBVTrend(indicator.OBVConfig{}) },
	indicator.NamePullbackPattern:    func() indicator.Unit { return indicator.NewPullbackPattern(indicator.PullbackConfig{}) },
}

// buildUnits 按启用列表实例化指标；列表为空表示全部启用。
func buildUnits(enabled []string) ([]indicator.Unit, error) {
	if len(enabled) == 0 {
		names := make([]string, 0, len(unitConstructors))
		for name := range unitConstructors {
			names = append(names, name)
		}
		sort.Strings(names)
		enabled = names
	}
	units := make([]indicator.Unit, 0, len(enabled))
	for _, raw := range enabled {
		name := strings.ToUpper(strings.TrimSpace(raw))
		ctor, ok := unitConstructors[name]
		if !ok {
			return nil, fmt.Errorf("unknown indicator %q", raw)
		}
		units = append(units, ctor())
	}
	return units, nil
}
