package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Smalik1203/Classbridge-V1-sub001/internal/analytics"
	"github.com/Smalik1203/Classbridge-V1-sub001/internal/marking"
	"github.com/Smalik1203/Classbridge-V1-sub001/internal/repository"
	"github.com/Smalik1203/Classbridge-V1-sub001/internal/response"
	"github.com/Smalik1203/Classbridge-V1-sub001/internal/service"
)

// classify maps domain errors to an HTTP status and error code.
func classify(err error) (int, response.ErrCode) {
	var loadErr *marking.LoadError
	var commitErr *marking.CommitError

	switch {
	case errors.Is(err, marking.ErrIncomplete):
		return http.StatusUnprocessableEntity, response.ErrAttendanceIncomplete
	case errors.Is(err, marking.ErrUnknownStudent):
		return http.StatusUnprocessableEntity, response.ErrUnknownStudent
	case errors.Is(err, marking.ErrInvalidStatus):
		return http.StatusBadRequest, response.ErrValidation
	case errors.Is(err, marking.ErrBusy):
		return http.StatusConflict, response.ErrAttendanceBusy
	case errors.Is(err, marking.ErrNotLoaded):
		return http.StatusConflict, response.ErrAttendanceNotLoaded
	case errors.Is(err, marking.ErrNoPendingSubmit):
		return http.StatusConflict, response.ErrAttendanceNothingPending
	case errors.Is(err, service.ErrConfirmationRequired):
		return http.StatusConflict, response.ErrConfirmationRequired
	case errors.Is(err, service.ErrResubmitConfirmationRequired):
		return http.StatusConflict, response.ErrResubmitConfirmRequired
	case errors.Is(err, service.ErrWrongSchool):
		return http.StatusForbidden, response.ErrWrongSchool
	case errors.Is(err, service.ErrInvalidRange):
		return http.StatusBadRequest, response.ErrInvalidRange
	case errors.Is(err, service.ErrInvalidImport):
		return http.StatusUnprocessableEntity, response.ErrInvalidImport
	case errors.Is(err, analytics.ErrUnknownPeriod):
		return http.StatusBadRequest, response.ErrInvalidPeriod
	case errors.Is(err, repository.ErrClassNotFound), errors.Is(err, repository.ErrStudentNotFound):
		return http.StatusNotFound, response.ErrNotFound
	case errors.Is(err, repository.ErrDuplicateRecord):
		return http.StatusConflict, response.ErrConflict
	case errors.Is(err, service.ErrRevocationUnavailable):
		return http.StatusServiceUnavailable, response.ErrInternal
	case errors.As(err, &commitErr):
		return http.StatusServiceUnavailable, response.ErrAttendanceCommitFailed
	case errors.As(err, &loadErr):
		return http.StatusServiceUnavailable, response.ErrAttendanceLoadFailed
	default:
		return http.StatusInternalServerError, response.ErrInternal
	}
}

// failWith writes the response for err, logging anything unexpected.
func failWith(c *gin.Context, log zerolog.Logger, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).
			Str("request_id", c.GetString(response.ContextKeyRequestID)).
			Str("path", c.FullPath()).
			Msg("Request failed")
	}
	response.Fail(c, status, code)
}

// paramID parses a positive integer path parameter.
func paramID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return id, true
}
