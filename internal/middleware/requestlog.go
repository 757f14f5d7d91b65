package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/film-catalog/internal/logging"
	"github.com/iliyamo/film-catalog/internal/metrics"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = echo.HeaderXRequestID

// RequestLogger assigns every request an id (reusing an incoming
// X-Request-ID), stores it in the request context for logging.Ctx, logs one
// line per request and records the latency histogram.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			id := req.Header.Get(RequestIDHeader)
			if id == "" {
				id = logging.GenerateRequestID()
			}
			c.SetRequest(req.WithContext(logging.ContextWithRequestID(req.Context(), id)))
			c.Response().Header().Set(RequestIDHeader, id)

			err := next(c)
			if err != nil {
				// Let Echo's error handler write the response so the status is final.
				c.Error(err)
			}

			status := c.Response().Status
			elapsed := time.Since(start)
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			metrics.HTTPRequestDuration.WithLabelValues(req.Method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())

			ev := logging.Ctx(c.Request().Context()).Info()
			if status >= 500 {
				ev = logging.Ctx(c.Request().Context()).Error().Err(err)
			}
			ev.Str("method", req.Method).
				Str("route", route).
				Str("uri", req.RequestURI).
				Int("status", status).
				Dur("latency", elapsed).
				Str("remote_ip", c.RealIP()).
				Msg("request")
			return nil
		}
	}
}
