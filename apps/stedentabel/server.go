package main

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	requestIDHeader         = "X-Request-ID"
	serverReadHeaderTimeout = 10 * time.Second
	serverShutdownTimeout   = 15 * time.Second
	trustedProxyLoopback    = "127.0.0.1"
	devCORSOriginLocalhost  = "http://localhost:5173"
	devCORSOriginLoopback   = "http://127.0.0.1:5173"
)

type apiError struct {
	Status  int
	Code    string
	Message string
}

func (e *apiError) Error() string { return e.Message }

func writeAPIError(c *gin.Context, err error) {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		c.JSON(apiErr.Status, gin.H{"error": apiErr.Code, "message": apiErr.Message})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": err.Error()})
}

func (a *App) router() *gin.Engine {
	r := gin.New()
	if err := r.SetTrustedProxies([]string{trustedProxyLoopback}); err != nil {
		panic(err)
	}
	r.Use(gin.Recovery())
	r.Use(a.requestIDMiddleware())
	r.Use(a.loggingMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(a.metrics.Handler()))

	a.registerPageRoutes(r)

	api := r.Group("/api/v1")
	api.Use(a.corsMiddleware())
	{
		api.GET("/cities", a.listCitiesHandler)
		api.POST("/search", a.searchCitiesHandler)
		api.POST("/sort", a.sortCitiesHandler)
		api.GET("/status", a.statusHandler)
		api.POST("/reload", a.reloadHandler)
		api.OPTIONS("/*path", func(c *gin.Context) {})
	}

	return r
}

func (a *App) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("requestID", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func (a *App) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		a.log.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", c.ClientIP(),
			"request_id", c.GetString("requestID"),
		)
	}
}

func (a *App) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := strings.TrimSpace(c.GetHeader("Origin"))
		if a.isAllowedCORSOrigin(origin) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Headers", "Content-Type")
			c.Header("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			c.Header("Vary", "Origin")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (a *App) isAllowedCORSOrigin(origin string) bool {
	if origin == "" {
		return false
	}
	if slices.Contains(a.cfg.CORSAllowedOrigins, origin) {
		return true
	}
	if !strings.EqualFold(a.cfg.Env, "development") {
		return false
	}
	return origin == devCORSOriginLocalhost || origin == devCORSOriginLoopback
}

// serve runs the HTTP server and the initial city load until ctx is done.
// A failed load is logged by the controller and does not stop the server.
func (a *App) serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.Addr,
		Handler:           a.router(),
		ReadHeaderTimeout: serverReadHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-a.cities.Start(gctx)
		return nil
	})
	g.Go(func() error {
		a.log.Info("starting gin server", "addr", a.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
		defer cancel()
		a.log.Info("shutting down gin server")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
