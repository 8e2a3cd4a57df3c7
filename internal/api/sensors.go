package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (s *Server) registerSensorEndpoints(api *echo.Group) {
	group := api.Group("/sensor")

	group.GET("/", s.getSensors)
	group.GET("/:"+urlParamId+"/", s.getSensor)
}

// returns a list of all currently configured sensors with their sources
func (s *Server) getSensors(c echo.Context) error {
	snapshot := s.engine.Snapshot()
	if snapshot == nil {
		return returnNotReady(c)
	}
	return c.JSONPretty(http.StatusOK, snapshot.Sensors, indentationChar)
}

func (s *Server) getSensor(c echo.Context) error {
	id := c.Param(urlParamId)
	snapshot := s.engine.Snapshot()
	if snapshot == nil {
		return returnNotReady(c)
	}
	data := snapshot.FindSensor(id)
	if data == nil {
		return returnNotFound(c, id)
	}
	return c.JSONPretty(http.StatusOK, data, indentationChar)
}
