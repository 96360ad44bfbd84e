package transporthttp

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"sigfuse/internal/fusion"
	"sigfuse/internal/indicator"
	"sigfuse/internal/logger"
	"sigfuse/internal/market"
)

// Analyzer 执行一次快照进、排序信号出的完整管线。
type Analyzer interface {
	Analyze(ctx context.Context, snap *market.Snapshot) ([]fusion.Signal, error)
}

// SignalReader 查询已持久化的信号（可选依赖）。
type SignalReader interface {
	Recent(ctx context.Context, symbol string, limit int) ([]fusion.Signal, error)
}

// ServerConfig 描述只读诊断服务的依赖。
type ServerConfig struct {
	Addr        string
	Analyzer    Analyzer
	History     *fusion.History
	EngineStats func() indicator.Stats
	Logs        SignalReader
	Metrics     http.Handler
}

// Server 提供最小化的信号查询/诊断 HTTP 服务。
type Server struct {
	addr   string
	router *gin.Engine
}

// NewServer 构建诊断 HTTP server。
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Analyzer == nil {
		return nil, errors.New("http server requires an analyzer")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":9985"
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics))
	}
	r := &Router{
		Analyzer:    cfg.Analyzer,
		History:     cfg.History,
		EngineStats: cfg.EngineStats,
		Logs:        cfg.Logs,
	}
	r.Register(router.Group("/api"))

	return &Server{addr: cfg.Addr, router: router}, nil
}

// Start 启动服务并在 ctx 取消时优雅退出。
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("[http] listening on %s", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Handler 暴露底层 handler，测试用。
func (s *Server) Handler() http.Handler { return s.router }

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debugf("[http] %s %s -> %d (%s)",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
