package httperrors

import (
	"net/http"
)

var (
	ErrBadRequestInvalidTransactionID = NewHTTPError(http.StatusBadRequest, "INVALID_TRANSACTION_ID", "The given transaction id is not a UUID.")
	ErrBadRequestInvalidAddress       = NewHTTPError(http.StatusBadRequest, "INVALID_ADDRESS", "The given address is not a hex encoded EVM address.")
	ErrNotFoundTransaction            = NewHTTPError(http.StatusNotFound, "TRANSACTION_NOT_FOUND", "No queued transaction with this id.")
)
