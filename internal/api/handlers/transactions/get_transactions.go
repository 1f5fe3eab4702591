package transactions

import (
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/labstack/echo/v4"
	"github/chapool/go-txrelay/internal/api"
	"github/chapool/go-txrelay/internal/api/httperrors"
	"github/chapool/go-txrelay/internal/transactions"
)

type GetTransactionsResponse struct {
	Count        int                    `json:"count"`
	Transactions []transactions.Summary `json:"transactions"`
}

// GetTransactionsRoute lists queued transactions, oldest first.
// Optional filters: ?kind=meta|native and ?from=<address>.
func GetTransactionsRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Transactions.GET("", getTransactionsHandler(s))
}

func getTransactionsHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		kind := transactions.TransactionKind(strings.ToLower(c.QueryParam("kind")))

		var from *common.Address
		if raw := c.QueryParam("from"); raw != "" {
			if !common.IsHexAddress(raw) {
				return httperrors.ErrBadRequestInvalidAddress
			}
			addr := common.HexToAddress(raw)
			from = &addr
		}

		summaries := make([]transactions.Summary, 0)
		for _, summary := range s.Transactions() {
			if kind != "" && summary.Kind != kind {
				continue
			}
			if from != nil && summary.From != from.Hex() {
				continue
			}
			summaries = append(summaries, summary)
		}

		return c.JSON(http.StatusOK, &GetTransactionsResponse{
			Count:        len(summaries),
			Transactions: summaries,
		})
	}
}
