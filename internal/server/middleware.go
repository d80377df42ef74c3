package server

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/zjrosen/cheds/internal/log"
	"github.com/zjrosen/cheds/internal/tracing"
)

// observe wraps every request in a span, counts it and logs it.
func (s *Server) observe(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		begin := time.Now()

		ctx, span := tracing.Tracer("cheds/server").Start(req.Context(), tracing.SpanHTTP)
		defer span.End()
		c.SetRequest(req.WithContext(ctx))

		err := next(c)

		status := c.Response().Status
		if err != nil {
			he, _ := toHTTPError(err)
			status = he.Code
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		route := c.Path()
		span.SetAttributes(
			attribute.String(tracing.AttrHTTPMethod, req.Method),
			attribute.String(tracing.AttrHTTPRoute, route),
			attribute.Int(tracing.AttrHTTPStatus, status),
		)
		s.deps.Metrics.ObserveHTTP(route, status)
		log.Debug(log.CatServer, "request", "method", req.Method, "route", route,
			"status", status, "elapsed", time.Since(begin))
		return err
	}
}
