package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/markusressel/fanhold/internal/history"
)

const queryParamRange = "range"

func (s *Server) registerHistoryEndpoints(api *echo.Group) {
	api.GET("/history/", s.getHistory)
}

// returns the recorded samples of the requested range, 1h by default
func (s *Server) getHistory(c echo.Context) error {
	if s.history == nil {
		return c.JSONPretty(http.StatusNotFound, &Result{
			Name:    "Not found",
			Message: "History recording is disabled",
		}, indentationChar)
	}

	rangeName := c.QueryParam(queryParamRange)
	if len(rangeName) <= 0 {
		rangeName = "1h"
	}
	samples, err := s.history.Query(rangeName)
	if errors.Is(err, history.ErrInvalidRange) {
		return returnBadRequest(c, err)
	}
	if err != nil {
		return returnError(c, err)
	}
	return c.JSONPretty(http.StatusOK, samples, indentationChar)
}
