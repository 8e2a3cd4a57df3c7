package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (s *Server) registerFanEndpoints(api *echo.Group) {
	group := api.Group("/fan")

	group.GET("/", s.getFans)
	group.GET("/:"+urlParamId+"/", s.getFan)
}

// returns a list of all currently configured fans
func (s *Server) getFans(c echo.Context) error {
	snapshot := s.engine.Snapshot()
	if snapshot == nil {
		return returnNotReady(c)
	}
	return c.JSONPretty(http.StatusOK, snapshot.Fans, indentationChar)
}

func (s *Server) getFan(c echo.Context) error {
	id := c.Param(urlParamId)
	snapshot := s.engine.Snapshot()
	if snapshot == nil {
		return returnNotReady(c)
	}
	data := snapshot.FindFan(id)
	if data == nil {
		return returnNotFound(c, id)
	}
	return c.JSONPretty(http.StatusOK, data, indentationChar)
}
