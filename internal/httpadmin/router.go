package httpadmin

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Leganyst/route-planner/internal/logger"
	"github.com/Leganyst/route-planner/internal/model"
)

const (
	ServiceName = "route-planner"

	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"

	pingTimeout = 2 * time.Second
)

// RunLister — последние отчёты материализации арендатора.
type RunLister interface {
	ListRecent(ctx context.Context, tenantID uuid.UUID, limit int) ([]model.MaterializationRun, error)
}

type Options struct {
	Version string
	// Ping проверяет доступность базы; при nil проверка не выполняется.
	Ping     func(ctx context.Context) error
	Runs     RunLister
	Gatherer prometheus.Gatherer
	Log      logger.Logger
}

type healthResponse struct {
	Status   string `json:"status"`
	Service  string `json:"service"`
	Version  string `json:"version"`
	Uptime   string `json:"uptime"`
	Database string `json:"database,omitempty"`
}

// NewRouter собирает gin-роутер админки.
func NewRouter(opts Options) *gin.Engine {
	started := time.Now()

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(opts.Log))

	router.GET("/health", func(c *gin.Context) {
		resp := healthResponse{
			Status:  statusHealthy,
			Service: ServiceName,
			Version: opts.Version,
			Uptime:  time.Since(started).Truncate(time.Second).String(),
		}
		code := http.StatusOK
		if opts.Ping != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
			defer cancel()
			if err := opts.Ping(ctx); err != nil {
				resp.Status = statusUnhealthy
				resp.Database = err.Error()
				code = http.StatusServiceUnavailable
			} else {
				resp.Database = statusHealthy
			}
		}
		c.JSON(code, resp)
	})
	router.HEAD("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	if opts.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	if opts.Runs != nil {
		router.GET("/tenants/:tenantID/runs", listRunsHandler(opts.Runs))
	}

	return router
}

func listRunsHandler(runs RunLister) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, err := uuid.Parse(c.Param("tenantID"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "tenant id must be a uuid"})
			return
		}
		limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
		if err != nil || limit < 1 || limit > 200 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 200"})
			return
		}

		list, err := runs.ListRecent(c.Request.Context(), tenantID, limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"runs": list})
	}
}

func requestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if log == nil {
			return
		}
		log.Debug("admin request",
			logger.String("method", c.Request.Method),
			logger.String("path", c.FullPath()),
			logger.Int("status", c.Writer.Status()),
			logger.Duration("latency", time.Since(start)),
		)
	}
}

// Server это HTTP-сервер админки с корректной остановкой.
type Server struct {
	srv *http.Server
	log logger.Logger
}

func NewServer(addr string, handler http.Handler, log logger.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: log,
	}
}

// Start запускает сервер в фоне.
func (s *Server) Start() {
	go func() {
		s.log.Info("admin http listening", logger.String("addr", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("admin http serve", logger.Error(err))
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
