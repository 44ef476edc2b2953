package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"chart-feed/src/interfaces"
	"chart-feed/src/logger"
	"chart-feed/src/models"
	"chart-feed/src/session"
	"chart-feed/src/zoom"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// FastAPIServer serves views to renderers over websocket and REST.
// -----------------------------------------------------------------------------

type FastAPIServer struct {
	Config   *models.MConfig
	Logger   *logger.Logger
	Sessions *session.Manager
	engine   *gin.Engine
	http     *http.Server

	// WebSocket clients, owned by the hub goroutine
	clients    map[*Client]struct{}
	broadcast  chan models.MViewState
	register   chan *Client
	unregister chan *Client
	direct     chan directMessage
	quit       chan struct{}
	hubOnce    sync.Once
	stopOnce   sync.Once

	connections atomic.Int64
	dropped     atomic.Int64

	// Last view published per session
	latest     map[string]models.MViewState
	stateMutex sync.RWMutex
}

var _ interfaces.IDataExchanger = (*FastAPIServer)(nil)

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

// NewFastAPIServer builds the server. Sessions may be attached later with
// SetSessionManager, since sessions publish into the server.
func NewFastAPIServer(cfg *models.MConfig, log *logger.Logger) *FastAPIServer {
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &FastAPIServer{
		Config:     cfg,
		Logger:     log,
		engine:     gin.New(),
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan models.MViewState, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		direct:     make(chan directMessage, 256),
		quit:       make(chan struct{}),
		latest:     make(map[string]models.MViewState),
	}

	s.engine.Use(gin.Recovery())
	s.engine.Use(s.requestLogger())

	// CORS for local renderers
	s.engine.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://127.0.0.1:") || strings.HasPrefix(origin, "http://localhost:") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	s.setupRoutes()

	s.http = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// SetSessionManager attaches the sessions the server exposes.
func (s *FastAPIServer) SetSessionManager(m *session.Manager) {
	s.Sessions = m
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *FastAPIServer) setupRoutes() {
	api := s.engine.Group("/api")
	api.GET("/health", s.getHealth)
	api.GET("/config", s.getConfig)
	api.GET("/sessions", s.getSessions)
	api.GET("/sessions/:name/view", s.getView)
	api.POST("/sessions/:name/zoom", s.postZoom)
	api.POST("/sessions/:name/reset", s.postReset)

	s.engine.GET("/ws", s.handleWebSocket)
}

// Handler exposes the routes (and starts the hub) for embedding and tests.
func (s *FastAPIServer) Handler() http.Handler {
	s.startHub()
	return s.engine
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

// Start serves until Stop is called.
func (s *FastAPIServer) Start() error {
	s.Logger.Info("Starting server on %s", s.http.Addr)
	s.startHub()

	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// -----------------------------------------------------------------------------

// Stop shuts the HTTP server down and disconnects every client.
func (s *FastAPIServer) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = s.http.Shutdown(ctx)
		close(s.quit)
		s.Logger.Info("Server stopped (%d views dropped for slow consumers)", s.dropped.Load())
	})
	return err
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.Logger.Debug("%s %s -> %d (%v)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *FastAPIServer) getHealth(c *gin.Context) {
	var latest int64
	s.stateMutex.RLock()
	for _, v := range s.latest {
		latest = max(latest, v.Timestamp)
	}
	s.stateMutex.RUnlock()

	sessions := 0
	if s.Sessions != nil {
		sessions = len(s.Sessions.GetAllSessions())
	}

	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"connections":   s.connections.Load(),
		"sessions":      sessions,
		"latest_update": latest,
	})
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) getConfig(c *gin.Context) {
	type sessionInfo struct {
		Name       string  `json:"name"`
		Symbol     string  `json:"symbol"`
		IntervalMs int     `json:"interval_ms"`
		Capacity   int     `json:"capacity"`
		MinVisible int     `json:"min_visible"`
		WheelScale float64 `json:"wheel_scale"`
	}

	// live sessions, the YAML block may be rewritten by the control service
	sessions := []sessionInfo{}
	if s.Sessions != nil {
		for _, sess := range s.Sessions.GetAllSessions() {
			cfg := sess.Config
			sessions = append(sessions, sessionInfo{
				Name:       cfg.Name,
				Symbol:     cfg.Symbol,
				IntervalMs: cfg.IntervalMs,
				Capacity:   cfg.Capacity,
				MinVisible: cfg.Zoom.MinVisible,
				WheelScale: cfg.Zoom.WheelScale,
			})
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"name":             s.Config.Name,
		"button_magnitude": zoom.ButtonMagnitude,
		"sessions":         sessions,
	})
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) getSessions(c *gin.Context) {
	if s.Sessions == nil {
		c.JSON(http.StatusOK, []models.MSessionStatus{})
		return
	}
	c.JSON(http.StatusOK, s.Sessions.Statuses())
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) getView(c *gin.Context) {
	sess, err := s.lookupSession(c.Param("name"))
	if err != nil {
		c.JSON(http.StatusNotFound, errorMessage(err))
		return
	}
	c.JSON(http.StatusOK, sess.View())
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) postZoom(c *gin.Context) {
	sess, err := s.lookupSession(c.Param("name"))
	if err != nil {
		c.JSON(http.StatusNotFound, errorMessage(err))
		return
	}

	var req models.MZoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorMessage(err))
		return
	}
	dir, err := zoom.ParseDirection(req.Direction)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorMessage(err))
		return
	}

	c.JSON(http.StatusOK, sess.Zoom(dir, commandMagnitude(req.Magnitude)))
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) postReset(c *gin.Context) {
	sess, err := s.lookupSession(c.Param("name"))
	if err != nil {
		c.JSON(http.StatusNotFound, errorMessage(err))
		return
	}
	c.JSON(http.StatusOK, sess.ResetZoom())
}
