package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/markusressel/fanhold/internal/configuration"
	"github.com/markusressel/fanhold/internal/engine"
	"github.com/markusressel/fanhold/internal/persistence"
	"github.com/markusressel/fanhold/internal/ui"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	urlParamId      = "id"
	indentationChar = "  "

	EndpointPathAlive = "/alive/"
)

type (
	Result struct {
		Name    string `json:"name"`
		Message string `json:"message"`
	}
)

// Engine is the part of the engine exposed by the api.
type Engine interface {
	Snapshot() *engine.Snapshot
	Config() *configuration.Configuration
	Changes() []engine.Change
	SetOverride(groupId string, enabled bool, tier int, persist bool) error
	ClearOverride(groupId string) error
	ReloadConfig(ctx context.Context, config *configuration.Configuration) error
}

type History interface {
	Query(rangeName string) ([]persistence.Sample, error)
}

type Server struct {
	engine  Engine
	store   configuration.Store
	history History
	echo    *echo.Echo
}

// NewServer creates the rest service. history may be nil if recording is disabled.
// Request metrics are registered with registry and served on /metrics.
func NewServer(e Engine, store configuration.Store, history History, registry *prometheus.Registry) *Server {
	s := &Server{
		engine:  e,
		store:   store,
		history: history,
	}
	s.echo = s.createRestService(registry)
	return s
}

func (s *Server) createRestService(registry *prometheus.Registry) *echo.Echo {
	echoRest := echo.New()
	echoRest.HideBanner = true
	echoRest.HidePort = true
	echoRest.Debug = ui.IsDebugEnabled()

	// Root level middleware
	echoRest.Pre(middleware.AddTrailingSlash())

	echoRest.Use(middleware.Secure())
	echoRest.Use(middleware.Recover())
	echoRest.Use(middleware.CORS())
	echoRest.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "fanhold",
		Subsystem:  "api",
		Registerer: registry,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics/"
		},
	}))

	echoRest.GET(EndpointPathAlive, isAlive)
	echoRest.GET("/metrics/", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: registry}))

	api := echoRest.Group("/api")
	s.registerStatusEndpoints(api)
	s.registerFanEndpoints(api)
	s.registerSensorEndpoints(api)
	s.registerHistoryEndpoints(api)
	s.registerConfigEndpoints(api)
	s.registerOverrideEndpoints(api)

	return echoRest
}

func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves the api on host:port until ctx is done.
func (s *Server) Run(ctx context.Context, host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	errs := make(chan error, 1)
	go func() {
		ui.Info("Serving api on %s", addr)
		errs <- s.echo.Start(addr)
	}()

	select {
	case err := <-errs:
		return fmt.Errorf("cannot start api server: %w", err)
	case <-ctx.Done():
		ui.Info("Stopping api server...")
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := s.echo.Shutdown(timeoutCtx)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// returns an empty "ok" answer
func isAlive(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

// return a "not found" message
func returnNotFound(c echo.Context, id string) (err error) {
	return c.JSONPretty(http.StatusNotFound, &Result{
		Name:    "Not found",
		Message: "No item with id '" + id + "' found",
	}, indentationChar)
}

func returnBadRequest(c echo.Context, e error) (err error) {
	return c.JSONPretty(http.StatusBadRequest, &Result{
		Name:    "Bad Request",
		Message: e.Error(),
	}, indentationChar)
}

func returnNotReady(c echo.Context) (err error) {
	return c.JSONPretty(http.StatusServiceUnavailable, &Result{
		Name:    "Not ready",
		Message: "The engine has not completed its first tick yet",
	}, indentationChar)
}

// return the error message of an error
func returnError(c echo.Context, e error) (err error) {
	return c.JSONPretty(http.StatusInternalServerError, &Result{
		Name:    "Unknown Error",
		Message: e.Error(),
	}, indentationChar)
}

func returnOk(c echo.Context, message string) (err error) {
	return c.JSONPretty(http.StatusOK, &Result{
		Name:    "OK",
		Message: message,
	}, indentationChar)
}
