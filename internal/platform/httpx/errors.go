// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/YujeongSon/AccountSystem/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	var domainErr *shared.Error
	if !errors.As(err, &domainErr) {
		Problem(w, http.StatusInternalServerError, "Internal Error", "", "")
		return
	}

	switch domainErr.Code {
	case shared.CodeUserNotFound, shared.CodeAccountNotFound, shared.CodeTransactionNotFound:
		Problem(w, http.StatusNotFound, "Not Found", domainErr.Message, string(domainErr.Code))
	case shared.CodeLockUnavailable:
		Problem(w, http.StatusConflict, "Conflict", domainErr.Message, string(domainErr.Code))
	case shared.CodeLedgerInconsistency:
		Problem(w, http.StatusInternalServerError, "Internal Error", domainErr.Message, string(domainErr.Code))
	default:
		Problem(w, http.StatusBadRequest, "Validation Failed", domainErr.Message, string(domainErr.Code))
	}
}
