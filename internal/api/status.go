package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (s *Server) registerStatusEndpoints(api *echo.Group) {
	api.GET("/status/", s.getStatus)
	api.GET("/changes/", s.getChanges)
}

// returns the snapshot of the last tick
func (s *Server) getStatus(c echo.Context) error {
	snapshot := s.engine.Snapshot()
	if snapshot == nil {
		return returnNotReady(c)
	}
	return c.JSONPretty(http.StatusOK, snapshot, indentationChar)
}

// returns the most recent tier changes
func (s *Server) getChanges(c echo.Context) error {
	return c.JSONPretty(http.StatusOK, s.engine.Changes(), indentationChar)
}
