package handlers

import (
	"github.com/labstack/echo/v4"
	"github/chapool/go-txrelay/internal/api"
	"github/chapool/go-txrelay/internal/api/handlers/common"
	"github/chapool/go-txrelay/internal/api/handlers/transactions"
)

func AttachAllRoutes(s *api.Server) {
	// attach our routes
	s.Router.Routes = []*echo.Route{
		common.GetHealthyRoute(s),
		common.GetReadyRoute(s),
		common.GetMetricsRoute(s),
		transactions.GetTransactionsRoute(s),
		transactions.GetTransactionRoute(s),
	}
}
