package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/zjrosen/cheds/internal/aggregate"
	"github.com/zjrosen/cheds/internal/explorer"
	"github.com/zjrosen/cheds/internal/loader"
	"github.com/zjrosen/cheds/internal/log"
)

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Message ErrorMessage `json:"message"`
}

// ErrorMessage carries a reason and, when known, what to do about it.
type ErrorMessage struct {
	Reason string `json:"reason"`
	Advice string `json:"advice,omitempty"`
}

// adviceError attaches advice to an HTTP error.
type adviceError struct {
	*echo.HTTPError
	advice string
}

func withAdvice(he *echo.HTTPError, advice string) error {
	return &adviceError{HTTPError: he, advice: advice}
}

func (e *adviceError) Unwrap() error { return e.HTTPError }

// toHTTPError maps domain errors onto status codes: missing things are 404,
// bad request input is 400, unparseable uploads are 422.
func toHTTPError(err error) (*echo.HTTPError, string) {
	var ae *adviceError
	if errors.As(err, &ae) {
		return ae.HTTPError, ae.advice
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he, ""
	}

	var nf *loader.NotFoundError
	var pe *loader.ParseError
	switch {
	case errors.As(err, &nf):
		return echo.NewHTTPError(http.StatusNotFound, err.Error()),
			"Put the CSV data files in the data directory or set data_dir in the config."
	case errors.Is(err, aggregate.ErrUnknownProduct), errors.Is(err, aggregate.ErrUnknownDomain):
		return echo.NewHTTPError(http.StatusNotFound, err.Error()), ""
	case errors.Is(err, explorer.ErrUnknownColumn), errors.Is(err, explorer.ErrInvalidFilter):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error()), ""
	case errors.As(err, &pe):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error()), ""
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error()), ""
}

func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, advice := toHTTPError(err)

	reason := http.StatusText(he.Code)
	if msg, ok := he.Message.(string); ok && msg != "" {
		reason = msg
	}
	if he.Code >= http.StatusInternalServerError {
		log.ErrorErr(log.CatServer, "request failed", err, "path", c.Path())
	}

	body := ErrorResponse{Message: ErrorMessage{Reason: reason, Advice: advice}}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(he.Code)
		return
	}
	_ = c.JSON(he.Code, body)
}
