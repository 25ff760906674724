package http

import (
	"errors"
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// writeError maps service errors onto status codes. Anything unrecognized
// is logged with its cause and reported as a bare 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if ve, ok := core.AsValidation(err); ok {
		FieldErrorResponse(http.StatusUnprocessableEntity, ve.Field, ve.Message).Write(w)
		return
	}

	switch {
	case errors.Is(err, errBadRequest):
		BadRequestError("Invalid request body").Write(w)
	case errors.Is(err, core.ErrNotFound):
		NotFoundError("Not found").Write(w)
	case errors.Is(err, core.ErrInvalidCredentials):
		UnauthorizedError("Invalid email or password").Write(w)
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrInvalidMonthYear),
		errors.Is(err, core.ErrGoalExceeded):
		ErrorResponse(http.StatusUnprocessableEntity, err.Error()).Write(w)
	default:
		log.NewStructuredLogger(log.FromContext(r.Context())).LogError(r.Context(), "Request failed", err,
			log.ErrorTypeInternal, r.Method+" "+r.URL.Path,
			log.NewFields().WithUserID(userIDFrom(r.Context())))
		InternalServerError().Write(w)
	}
}
