package signallog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"sigfuse/internal/fusion"
	"sigfuse/internal/indicator"
)

// signalModel 是落库的信号行，分量与支持/冲突集合存 JSON 列。
type signalModel struct {
	ID          uint           `gorm:"primaryKey;autoIncrement"`
	SignalID    string         `gorm:"column:signal_id;uniqueIndex;size:64"`
	Symbol      string         `gorm:"column:symbol;index;size:32"`
	Timeframe   string         `gorm:"column:timeframe;size:16"`
	SignalType  string         `gorm:"column:signal_type;size:16"`
	Strength    int            `gorm:"column:strength"`
	Confidence  float64        `gorm:"column:confidence"`
	RiskScore   float64        `gorm:"column:risk_score"`
	Method      string         `gorm:"column:method;size:32"`
	Components  datatypes.JSON `gorm:"column:components;type:TEXT"`
	Supporting  datatypes.JSON `gorm:"column:supporting;type:TEXT"`
	Conflicting datatypes.JSON `gorm:"column:conflicting;type:TEXT"`
	Plan        datatypes.JSON `gorm:"column:plan;type:TEXT"`
	CreatedAt   int64          `gorm:"column:created_at;index"`
}

func (signalModel) TableName() string { return "signal_log" }

// Store 用 Gorm + SQLite 持久化已发出的融合信号。
type Store struct {
	db *gorm.DB
}

// Open 打开（必要时创建）信号日志库并迁移表结构。
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("signal log: path cannot be empty")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("signal log: create dir failed: %w", err)
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("signal log: open failed: %w", err)
	}
	if err := db.AutoMigrate(&signalModel{}); err != nil {
		return nil, fmt.Errorf("signal log: migrate failed: %w", err)
	}
	return &Store{db: db}, nil
}

// Append 追加一条信号记录。
func (s *Store) Append(ctx context.Context, sig fusion.Signal) error {
	row, err := toModel(sig)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Create(row).Error
}

// Recent 返回某 symbol 最近 limit 条信号，新者在前；symbol 为空不过滤。
func (s *Store) Recent(ctx context.Context, symbol string, limit int) ([]fusion.Signal, error) {
	if limit <= 0 {
		limit = 50
	}
	q := s.db.WithContext(ctx).Model(&signalModel{}).Order("created_at DESC").Limit(limit)
	if sym := strings.ToUpper(strings.TrimSpace(symbol)); sym != "" {
		q = q.Where("symbol = ?", sym)
	}
	var rows []signalModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]fusion.Signal, 0, len(rows))
	for _, row := range rows {
		sig, err := fromModel(row)
		if err != nil {
			return nil, err
		}
		out = append(out, sig)
	}
	return out, nil
}

// Close 关闭底层连接。
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toModel(sig fusion.Signal) (*signalModel, error) {
	components, err := json.Marshal(sig.Components)
	if err != nil {
		return nil, fmt.Errorf("signal log: marshal components: %w", err)
	}
	supporting, err := json.Marshal(sig.Supporting)
	if err != nil {
		return nil, fmt.Errorf("signal log: marshal supporting: %w", err)
	}
	conflicting, err := json.Marshal(sig.Conflicting)
	if err != nil {
		return nil, fmt.Errorf("signal log: marshal conflicting: %w", err)
	}
	var plan datatypes.JSON
	if sig.Plan != nil {
		raw, err := json.Marshal(sig.Plan)
		if err != nil {
			return nil, fmt.Errorf("signal log: marshal plan: %w", err)
		}
		plan = raw
	}
	return &signalModel{
		SignalID:    sig.ID,
		Symbol:      sig.Symbol,
		Timeframe:   sig.Timeframe,
		SignalType:  string(sig.Type),
		Strength:    int(sig.Strength),
		Confidence:  sig.Confidence,
		RiskScore:   sig.RiskScore,
		Method:      string(sig.Method),
		Components:  components,
		Supporting:  supporting,
		Conflicting: conflicting,
		Plan:        plan,
		CreatedAt:   sig.CreatedAt.UnixMilli(),
	}, nil
}

func fromModel(row signalModel) (fusion.Signal, error) {
	sig := fusion.Signal{
		ID:         row.SignalID,
		Symbol:     row.Symbol,
		Timeframe:  row.Timeframe,
		Type:       indicator.SignalType(row.SignalType),
		Strength:   indicator.Strength(row.Strength),
		Confidence: row.Confidence,
		RiskScore:  row.RiskScore,
		Method:     fusion.Method(row.Method),
		CreatedAt:  time.UnixMilli(row.CreatedAt).UTC(),
	}
	if len(row.Components) > 0 {
		if err := json.Unmarshal(row.Components, &sig.Components); err != nil {
			return sig, fmt.Errorf("signal log: unmarshal components: %w", err)
		}
	}
	if len(row.Supporting) > 0 {
		if err := json.Unmarshal(row.Supporting, &sig.Supporting); err != nil {
			return sig, fmt.Errorf("signal log: unmarshal supporting: %w", err)
		}
	}
	if len(row.Conflicting) > 0 {
		if err := json.Unmarshal(row.Conflicting, &sig.Conflicting); err != nil {
			return sig, fmt.Errorf("signal log: unmarshal conflicting: %w", err)
		}
	}
	if len(row.Plan) > 0 {
		var plan fusion.TradePlan
		if err := json.Unmarshal(row.Plan, &plan); err != nil {
			return sig, fmt.Errorf("signal log: unmarshal plan: %w", err)
		}
		sig.Plan = &plan
	}
	return sig, nil
}
