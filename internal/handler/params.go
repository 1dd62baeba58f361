package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/unisphere/exam-backend/internal/response"
	"github.com/unisphere/exam-backend/internal/service"
)

// uuidParam parses a path parameter, answering 400 INVALID_ID when it is malformed.
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}

// failExam maps exam and session errors to their HTTP status and code.
func failExam(c *gin.Context, log zerolog.Logger, err error, msg string) {
	var fe *service.FieldErrors
	switch {
	case errors.Is(err, service.ErrExamNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrInvalidTime):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidTime)
	case errors.Is(err, service.ErrExamAlreadyTaken):
		response.Fail(c, http.StatusBadRequest, response.ErrExamAlreadyTaken)
	case errors.Is(err, service.ErrSessionExists):
		response.Fail(c, http.StatusBadRequest, response.ErrSessionExists)
	case errors.Is(err, service.ErrSessionNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
	case errors.Is(err, service.ErrResultsNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrResultsNotFound)
	case errors.As(err, &fe) && errors.Is(err, service.ErrInvalidAnswer):
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidAnswer, fe.Fields)
	case errors.As(err, &fe) && errors.Is(err, service.ErrInvalidCorrectOption):
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidCorrectOpt, fe.Fields)
	default:
		response.ServerError(c, log, err, msg)
	}
}
