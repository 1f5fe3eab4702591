package httperrors

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	accept "github.com/timewasted/go-accept-headers"
	"github/chapool/go-txrelay/internal/util"
)

// HTTPError is the JSON body of every non-2xx API response.
type HTTPError struct {
	Code  int    `json:"status"`
	Type  string `json:"type"`
	Title string `json:"title"`
}

func NewHTTPError(code int, errorType string, title string) *HTTPError {
	return &HTTPError{Code: code, Type: errorType, Title: title}
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTPError %d (%s): %s", e.Code, e.Type, e.Title)
}

// HTTPErrorHandler renders *HTTPError and *echo.HTTPError as HTTPError JSON,
// or as a single text line for clients that only accept text/plain.
// Anything else becomes a 500 without leaking the error text.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var (
		httpErr *HTTPError
		echoErr *echo.HTTPError
	)

	switch {
	case errors.As(err, &httpErr):
	case errors.As(err, &echoErr):
		httpErr = NewHTTPError(echoErr.Code, "GENERIC", http.StatusText(echoErr.Code))
		if msg, ok := echoErr.Message.(string); ok {
			httpErr.Title = msg
		}
	default:
		util.LogFromContext(c.Request().Context()).Error().Err(err).Msg("Unhandled error in request")
		httpErr = NewHTTPError(http.StatusInternalServerError, "GENERIC", http.StatusText(http.StatusInternalServerError))
	}

	var writeErr error
	switch {
	case c.Request().Method == http.MethodHead:
		writeErr = c.NoContent(httpErr.Code)
	case negotiate(c.Request()) == echo.MIMETextPlain:
		writeErr = c.String(httpErr.Code, fmt.Sprintf("%s: %s\n", httpErr.Type, httpErr.Title))
	default:
		writeErr = c.JSON(httpErr.Code, httpErr)
	}
	if writeErr != nil {
		util.LogFromContext(c.Request().Context()).Error().Err(writeErr).Msg("Failed to write error response")
	}
}

// negotiate picks the error body type from the Accept header. JSON wins ties
// and is used when nothing matches.
func negotiate(req *http.Request) string {
	ctype, err := accept.Parse(req.Header.Get(echo.HeaderAccept)).Negotiate(echo.MIMEApplicationJSON, echo.MIMETextPlain)
	if err != nil || ctype == "" {
		return echo.MIMEApplicationJSON
	}

	return ctype
}
