package api

import (
	"errors"
	"net/http"

	service "github.com/okian/edurate/internal/app"
	"github.com/okian/edurate/internal/adapters/mq/queue"
	"github.com/okian/edurate/internal/adapters/standings"
	"github.com/okian/edurate/internal/domain/improvement"
	"github.com/okian/edurate/internal/domain/prediction"
	"github.com/okian/edurate/internal/domain/records"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrBackpressure = errors.New("backpressure")
)

// classify maps an upstream error to a status code and an error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, records.ErrEmptyInput),
		errors.Is(err, records.ErrMissingColumns),
		errors.Is(err, records.ErrInvalidValue),
		errors.Is(err, improvement.ErrInvalidTasks),
		errors.Is(err, prediction.ErrUnknownTimeline),
		errors.Is(err, service.ErrEmptyID),
		errors.Is(err, standings.ErrInvalidLimit):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, standings.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, ErrBackpressure), errors.Is(err, queue.ErrFull):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, service.ErrNotStarted), errors.Is(err, queue.ErrClosed):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
