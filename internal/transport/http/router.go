package transporthttp

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"sigfuse/internal/fusion"
	"sigfuse/internal/indicator"
	"sigfuse/internal/market"
)

// Router 暴露信号相关的查询与分析接口。
type Router struct {
	Analyzer    Analyzer
	History     *fusion.History
	EngineStats func() indicator.Stats
	Logs        SignalReader
}

// Register 把 /api 路由挂载到给定分组下。
func (r *Router) Register(group *gin.RouterGroup) {
	if group == nil {
		return
	}
	group.POST("/signals/analyze", r.handleAnalyze)
	group.GET("/signals/recent", r.handleRecent)
	group.GET("/signals/stats", r.handleStats)
	group.GET("/engine/stats", r.handleEngineStats)
}

type analyzeRequest struct {
	Symbol       string          `json:"symbol"`
	Timeframe    string          `json:"timeframe"`
	QualityScore float64         `json:"quality_score"`
	Candles      []market.Candle `json:"candles"`
}

func (r *Router) handleAnalyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	snap, err := market.NewSnapshot(req.Symbol, req.Timeframe, req.Candles, req.QualityScore)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	signals, err := r.Analyzer.Analyze(c.Request.Context(), snap)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"symbol": snap.Symbol, "signals": signals})
}

func (r *Router) handleRecent(c *gin.Context) {
	symbol := strings.TrimSpace(c.Query("symbol"))
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	// 优先查持久层，没配置落库时回退到内存历史
	if r.Logs != nil {
		signals, err := r.Logs.Recent(c.Request.Context(), symbol, limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"signals": signals})
		return
	}
	if r.History == nil {
		c.JSON(http.StatusOK, gin.H{"signals": []fusion.Signal{}})
		return
	}
	signals := r.History.Recent(limit)
	if symbol != "" {
		filtered := make([]fusion.Signal, 0, len(signals))
		for _, sig := range signals {
			if strings.EqualFold(sig.Symbol, symbol) {
				filtered = append(filtered, sig)
			}
		}
		signals = filtered
	}
	c.JSON(http.StatusOK, gin.H{"signals": signals})
}

func (r *Router) handleStats(c *gin.Context) {
	if r.History == nil {
		c.JSON(http.StatusOK, fusion.Statistics{})
		return
	}
	c.JSON(http.StatusOK, r.History.Stats())
}

func (r *Router) handleEngineStats(c *gin.Context) {
	if r.EngineStats == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, r.EngineStats())
}
