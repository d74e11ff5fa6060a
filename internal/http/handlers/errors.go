// Package handlers defines the error codes returned in API error envelopes.
//
// Codes are stable, lowercase and snake_case, and mirror the HTTP status
// family. Clients branch on the code; the accompanying "error" string gives
// the specific reason ("title required", "poll locked", ...).
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "conflict",
//	  "error": "poll locked"
//	}
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-meetmerge-backend/internal/services"
)

const (
	ErrCodeBadRequest  = "bad_request"
	ErrCodeForbidden   = "forbidden"
	ErrCodeNotFound    = "not_found"
	ErrCodeConflict    = "conflict"
	ErrCodeRateLimited = "too_many_requests"
	ErrCodeInternal    = "internal_error"

	ErrCodeMethodNotAllowed = "method_not_allowed"
)

// validationErrs are reported verbatim with 400.
var validationErrs = []error{
	services.ErrTitleRequired,
	services.ErrTitleTooLong,
	services.ErrDescriptionTooLong,
	services.ErrSlotCount,
	services.ErrSlotIDRequired,
	services.ErrInvalidChoice,
	services.ErrLockFieldsRequired,
	services.ErrSlotNotInPoll,
}

// failService maps a service error onto the envelope. Unknown errors become a
// generic 500 and the cause is attached to the context for the access log.
func failService(c *gin.Context, err error) {
	for _, target := range validationErrs {
		if errors.Is(err, target) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, target.Error())
			return
		}
	}
	switch {
	case errors.Is(err, services.ErrPollNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, services.ErrPollNotFound.Error())
	case errors.Is(err, services.ErrForbidden):
		fail(c, http.StatusForbidden, ErrCodeForbidden, services.ErrForbidden.Error())
	case errors.Is(err, services.ErrPollLocked):
		fail(c, http.StatusConflict, ErrCodeConflict, services.ErrPollLocked.Error())
	case errors.Is(err, services.ErrAlreadyLocked):
		fail(c, http.StatusConflict, ErrCodeConflict, services.ErrAlreadyLocked.Error())
	default:
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal error")
	}
}
