package transactions

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github/chapool/go-txrelay/internal/api"
	"github/chapool/go-txrelay/internal/api/httperrors"
)

func GetTransactionRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Transactions.GET("/:id", getTransactionHandler(s))
}

func getTransactionHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			return httperrors.ErrBadRequestInvalidTransactionID
		}

		summary, ok := s.Transaction(id)
		if !ok {
			return httperrors.ErrNotFoundTransaction
		}

		return c.JSON(http.StatusOK, summary)
	}
}
