package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"NiftyLevels/internal/dashboard"
	"NiftyLevels/internal/model"
)

// Server exposes the dashboard over HTTP.
type Server struct {
	Engine *gin.Engine
	svc    *dashboard.Service
	log    logrus.FieldLogger
	http   *http.Server
}

// New builds the gin engine and registers all routes.
func New(addr string, allowedOrigins []string, svc *dashboard.Service, log logrus.FieldLogger) *Server {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), accessLog(log))
	if len(allowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:  allowedOrigins,
			AllowMethods:  []string{"GET", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", requestIDHeader},
			ExposeHeaders: []string{"Content-Length", requestIDHeader},
			MaxAge:        12 * time.Hour,
		}))
	}

	s := &Server{Engine: r, svc: svc, log: log}
	s.routes()
	s.http = &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	return s
}

func (s *Server) routes() {
	s.Engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := s.Engine.Group("/api")
	api.GET("/dates", s.getDates)
	api.GET("/dashboard", s.getDashboard)
	api.GET("/charts/index", s.getIndexChart)
	api.GET("/charts/options/:symbol", s.getOptionChart)
}

// ListenAndServe blocks until the server stops. http.ErrServerClosed is not an error.
func (s *Server) ListenAndServe() error {
	s.log.WithField("addr", s.http.Addr).Info("http server listening")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) getDates(c *gin.Context) {
	if err := s.svc.Catalog.Refresh(c.Request.Context()); err != nil {
		s.fail(c, err)
		return
	}
	dates := s.svc.Catalog.Dates()
	if len(dates) == 0 {
		s.fail(c, dashboard.ErrNoDates)
		return
	}
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.Format(model.DateLayout)
	}
	c.JSON(http.StatusOK, gin.H{
		"dates":        out,
		"latest":       out[0],
		"refreshed_at": s.svc.Catalog.RefreshedAt(),
	})
}

func (s *Server) getDashboard(c *gin.Context) {
	ctx := c.Request.Context()
	date, err := s.svc.ResolveDate(ctx, c.Query("date"))
	if err != nil {
		s.fail(c, err)
		return
	}
	view, err := s.svc.Build(ctx, date)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) getIndexChart(c *gin.Context) {
	ctx := c.Request.Context()
	date, err := s.svc.ResolveDate(ctx, c.Query("date"))
	if err != nil {
		s.fail(c, err)
		return
	}
	spec, err := s.svc.IndexChart(ctx, date)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, spec)
}

func (s *Server) getOptionChart(c *gin.Context) {
	ctx := c.Request.Context()
	date, err := s.svc.ResolveDate(ctx, c.Query("date"))
	if err != nil {
		s.fail(c, err)
		return
	}
	spec, err := s.svc.OptionChart(ctx, date, c.Param("symbol"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, spec)
}

// fail maps an error to one terminal response; nothing partial is rendered.
func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	msg := "database error: " + err.Error()
	switch {
	case errors.Is(err, dashboard.ErrInvalidDate):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, dashboard.ErrDateNotAvailable), errors.Is(err, dashboard.ErrNoData):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, dashboard.ErrNoDates):
		status, msg = http.StatusServiceUnavailable, "No data available in database"
	case errors.Is(err, dashboard.ErrDateDomain), c.FullPath() == "/api/dates":
		status = http.StatusServiceUnavailable
	}
	if status >= http.StatusInternalServerError {
		s.log.WithError(err).WithField("request_id", c.GetString(requestIDKey)).Error("request failed")
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
