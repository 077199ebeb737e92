package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nursix/gims/internal/core/commission"
	"github.com/nursix/gims/internal/ports/primary"
	"github.com/nursix/gims/internal/ports/secondary"
)

// errorResponse maps service errors to HTTP errors.
func errorResponse(err error) error {
	var formErrors commission.FormErrors
	switch {
	case errors.As(err, &formErrors):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, echo.Map{"errors": formErrors})
	case errors.Is(err, primary.ErrNotPermitted):
		return echo.NewHTTPError(http.StatusForbidden, echo.Map{"message": err.Error()})
	case errors.Is(err, secondary.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, echo.Map{"message": err.Error()})
	}
	return echo.NewHTTPError(http.StatusInternalServerError, echo.Map{"message": http.StatusText(http.StatusInternalServerError)}).WithInternal(err)
}

func httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	he, ok := err.(*echo.HTTPError)
	if !ok {
		he = errorResponse(err).(*echo.HTTPError)
	}

	if he.Code >= http.StatusInternalServerError {
		slog.Error("request failed", "method", c.Request().Method, "path", c.Request().URL.Path, "err", err)
	}

	message := he.Message
	if s, ok := message.(string); ok {
		message = echo.Map{"message": s}
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(he.Code)
	} else {
		err = c.JSON(he.Code, message)
	}
	if err != nil {
		slog.Error("could not send error response", "err", err)
	}
}
