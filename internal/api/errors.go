package api

import (
	"errors"
	"net/http"
	"rentflow/internal/domain"
)

// errStatus maps core error kinds to HTTP statuses. Anything unrecognized is
// an internal error and must not leak detail to the caller.
func errStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrLeaseNotFound), errors.Is(err, domain.ErrWalletNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorizedSigner):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrAlreadySigned),
		errors.Is(err, domain.ErrDuplicateWallet),
		errors.Is(err, domain.ErrCannotRemovePrimary):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidAddress),
		errors.Is(err, domain.ErrInvalidLeaseState),
		errors.Is(err, domain.ErrInvalidRentAmount),
		errors.Is(err, domain.ErrInvalidDateRange):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// errBody is the JSON error payload for a core error.
func errBody(err error) map[string]any {
	if errStatus(err) == http.StatusInternalServerError {
		return map[string]any{"error": "Internal error"}
	}
	return map[string]any{"error": err.Error()}
}
