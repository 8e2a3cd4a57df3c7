package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/markusressel/fanhold/internal/configuration"
	"github.com/markusressel/fanhold/internal/ui"
)

func (s *Server) registerConfigEndpoints(api *echo.Group) {
	api.GET("/config/", s.getConfig)
	api.POST("/config/", s.postConfig)
	api.POST("/reload/", s.reload)
}

func (s *Server) getConfig(c echo.Context) error {
	return c.JSONPretty(http.StatusOK, s.engine.Config(), indentationChar)
}

// validates and saves a new configuration, the engine applies it between two ticks
func (s *Server) postConfig(c echo.Context) error {
	config := &configuration.Configuration{}
	if err := c.Bind(config); err != nil {
		return returnBadRequest(c, err)
	}
	if err := configuration.Validate(config, ""); err != nil {
		return returnBadRequest(c, err)
	}
	if s.store == nil {
		return returnError(c, errors.New("no configuration store"))
	}
	if err := s.store.Save(config); err != nil {
		return returnError(c, err)
	}
	if err := s.engine.ReloadConfig(c.Request().Context(), config); err != nil {
		// saved, but the hardware could not be set up
		ui.Warning("Saved configuration could not be applied: %v", err)
		return returnError(c, err)
	}
	return returnOk(c, "Configuration saved and applied")
}

// re-reads the configuration from disk
func (s *Server) reload(c echo.Context) error {
	if s.store == nil {
		return returnError(c, errors.New("no configuration store"))
	}
	config, err := s.store.Load()
	if err != nil {
		return returnBadRequest(c, err)
	}
	if err = s.engine.ReloadConfig(c.Request().Context(), config); err != nil {
		return returnError(c, err)
	}
	return returnOk(c, "Configuration reloaded")
}
