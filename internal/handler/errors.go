// Package handler exposes the HTTP handlers of the film catalog. Handlers
// parse and validate input, call the service layer and translate service
// errors into status codes in one place, writeError.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/film-catalog/internal/logging"
	"github.com/iliyamo/film-catalog/internal/repository"
	"github.com/iliyamo/film-catalog/internal/service"
	"github.com/iliyamo/film-catalog/internal/validation"
)

// writeError maps err onto a JSON error response:
//
//	validation / invalid argument  400
//	not found                      404
//	integrity violation            409
//	store unavailable / timeout    503
//	anything else                  500
func writeError(c echo.Context, err error) error {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_error", "message": verr.Error(), "fields": verr.Fields})
	case errors.Is(err, service.ErrInvalidArgument):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_argument", "message": err.Error()})
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found", "message": err.Error()})
	case errors.Is(err, repository.ErrIntegrityViolation):
		return c.JSON(http.StatusConflict, echo.Map{"error": "integrity_violation", "message": err.Error()})
	case errors.Is(err, repository.ErrStoreUnavailable), errors.Is(err, context.DeadlineExceeded):
		logging.Ctx(c.Request().Context()).Warn().Err(err).Msg("store unavailable")
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "unavailable", "message": "store temporarily unavailable"})
	}
	logging.Ctx(c.Request().Context()).Error().Err(err).Msg("request failed")
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "internal error"})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "bad_request", "message": msg})
}

// pathID parses a positive integer path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

// queryInt parses an optional integer query parameter. present is false
// when the parameter is absent or empty.
func queryInt(c echo.Context, name string) (v int, present bool, err error) {
	s := c.QueryParam(name)
	if s == "" {
		return 0, false, nil
	}
	v, err = strconv.Atoi(s)
	return v, true, err
}

// bindAndValidate decodes the JSON body into dst and validates it.
func bindAndValidate(c echo.Context, dst any) error {
	if err := (&echo.DefaultBinder{}).BindBody(c, dst); err != nil {
		return &validation.Error{Fields: []validation.FieldError{{Field: "body", Tag: "json", Message: "malformed JSON body"}}}
	}
	return validation.Struct(dst)
}
