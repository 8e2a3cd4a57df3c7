package api

import (
	"errors"

	"github.com/labstack/echo/v4"
	"github.com/markusressel/fanhold/internal/engine"
)

// OverrideRequest is the body of POST /api/override/
type OverrideRequest struct {
	Group   string `json:"group"`
	Enabled bool   `json:"enabled"`
	Tier    int    `json:"tier"`
	Persist bool   `json:"persist"`
}

func (s *Server) registerOverrideEndpoints(api *echo.Group) {
	group := api.Group("/override")

	group.POST("/", s.postOverride)
	group.DELETE("/:"+urlParamId+"/", s.deleteOverride)
}

func (s *Server) postOverride(c echo.Context) error {
	request := OverrideRequest{}
	if err := c.Bind(&request); err != nil {
		return returnBadRequest(c, err)
	}
	err := s.engine.SetOverride(request.Group, request.Enabled, request.Tier, request.Persist)
	if err != nil {
		return s.returnOverrideError(c, request.Group, err)
	}
	if request.Enabled {
		return returnOk(c, "Override enabled")
	}
	return returnOk(c, "Override disabled")
}

func (s *Server) deleteOverride(c echo.Context) error {
	id := c.Param(urlParamId)
	if err := s.engine.ClearOverride(id); err != nil {
		return s.returnOverrideError(c, id, err)
	}
	return returnOk(c, "Override disabled")
}

func (s *Server) returnOverrideError(c echo.Context, groupId string, err error) error {
	switch {
	case errors.Is(err, engine.ErrUnknownGroup):
		return returnNotFound(c, groupId)
	case errors.Is(err, engine.ErrInvalidTier):
		return returnBadRequest(c, err)
	default:
		return returnError(c, err)
	}
}
