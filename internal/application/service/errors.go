package service

import (
	"errors"

	dErrors "barangaylink/pkg/domain-errors"
	"barangaylink/pkg/platform/sentinel"
)

// notFoundOr maps a store miss to a 404-coded error and anything else to an
// internal error, so storage details never leak to clients.
func notFoundOr(err error, msg string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, msg)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "storage failure")
}
