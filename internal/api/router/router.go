package router

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
	"github/chapool/go-txrelay/internal/api"
	"github/chapool/go-txrelay/internal/api/handlers"
	"github/chapool/go-txrelay/internal/api/httperrors"
	"github/chapool/go-txrelay/internal/util"
)

// Init creates the echo instance, its middleware chain and attaches all routes to s.
func Init(s *api.Server) {
	s.Echo = echo.New()

	s.Echo.Debug = s.Config.Echo.Debug
	s.Echo.HideBanner = true
	s.Echo.HidePort = true
	s.Echo.Logger.SetOutput(&echoLogger{level: s.Config.Logger.Level})
	s.Echo.HTTPErrorHandler = httperrors.HTTPErrorHandler

	s.Echo.Pre(middleware.RemoveTrailingSlash())

	s.Echo.Use(middleware.Recover())
	s.Echo.Use(middleware.RequestID())
	s.Echo.Use(requestLogger())
	s.Echo.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "txrelay",
		Subsystem:  "http",
		Registerer: s.Metrics.Registry(),
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	s.Router = &api.Router{
		Routes:            nil, // will be populated by handlers.AttachAllRoutes(s)
		Root:              s.Echo.Group(""),
		Management:        s.Echo.Group("/-"),
		APIV1Transactions: s.Echo.Group("/api/v1/transactions"),
	}

	handlers.AttachAllRoutes(s)
}

// requestLogger puts a request scoped zerolog logger into the request context
// and logs every finished request.
func requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			start := time.Now()

			logger := log.With().
				Str("id", c.Response().Header().Get(echo.HeaderXRequestID)).
				Str("method", req.Method).
				Str("url", req.URL.String()).
				Logger()
			c.SetRequest(req.WithContext(util.WithLogger(req.Context(), logger)))

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			logger.Debug().
				Int("status", c.Response().Status).
				Dur("duration", time.Since(start)).
				Msg("Request handled")

			return nil
		}
	}
}
