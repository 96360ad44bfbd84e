package fusion

import (
	"sync"

	"sigfuse/internal/indicator"
)

// DefaultHistoryCapacity 是历史环形缓冲的默认容量。
const DefaultHistoryCapacity = 1000

// Statistics 是发出信号的累计统计，随 Record 增量更新，O(1) 每次。
type Statistics struct {
	Total          uint64                          `json:"total"`
	PerType        map[indicator.SignalType]uint64 `json:"per_type"`
	MeanConfidence float64                         `json:"mean_confidence"`
}

// History 保存最近发出的融合信号：固定容量环形缓冲，
// 写满后覆盖最旧条目；统计覆盖全部发出过的信号，不受淘汰影响。
type History struct {
	mu       sync.RWMutex
	buf      []Signal
	head     int
	size     int
	total    uint64
	perType  map[indicator.SignalType]uint64
	meanConf float64
}

// NewHistory 创建历史缓冲，capacity<=0 时用默认容量。
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &History{
		buf:     make([]Signal, capacity),
		perType: make(map[indicator.SignalType]uint64, 4),
	}
}

// Record 追加一个信号并增量更新统计。
func (h *History) Record(sig Signal) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.buf[h.head] = sig
	h.head = (h.head + 1) % len(h.buf)
	if h.size < len(h.buf) {
		h.size++
	}
	h.total++
	h.perType[sig.Type]++
	// 增量均值，避免全量重算
	h.meanConf += (sig.Confidence - h.meanConf) / float64(h.total)
}

// Recent 返回最近 limit 条信号，新者在前；limit<=0 返回全部留存条目。
func (h *History) Recent(limit int) []Signal {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := h.size
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Signal, 0, n)
	for i := 0; i < n; i++ {
		idx := (h.head - 1 - i + len(h.buf)) % len(h.buf)
		out = append(out, h.buf[idx])
	}
	return out
}

// Len 返回当前留存条目数。
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.size
}

// Stats 返回统计快照。
func (h *History) Stats() Statistics {
	h.mu.RLock()
	defer h.mu.RUnlock()
	perType := make(map[indicator.SignalType]uint64, len(h.perType))
	for t, c := range h.perType {
		perType[t] = c
	}
	return Statistics{Total: h.total, PerType: perType, MeanConfidence: h.meanConf}
}
