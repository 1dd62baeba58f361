package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/unisphere/exam-backend/internal/middleware"
	"github.com/unisphere/exam-backend/internal/model"
	"github.com/unisphere/exam-backend/internal/response"
	"github.com/unisphere/exam-backend/internal/service"
	"github.com/unisphere/exam-backend/internal/validator"
)

// ExamHandler serves the user-facing exam endpoints.
type ExamHandler struct {
	examService    *service.ExamService
	sessionService *service.ExamSessionService
	log            zerolog.Logger
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(examService *service.ExamService, sessionService *service.ExamSessionService, log zerolog.Logger) *ExamHandler {
	return &ExamHandler{
		examService:    examService,
		sessionService: sessionService,
		log:            log.With().Str("component", "exam_handler").Logger(),
	}
}

// ListOpen godoc
// GET /api/exams
// Lists the exams whose window contains the current time.
func (h *ExamHandler) ListOpen(c *gin.Context) {
	exams, err := h.examService.ListOpen(c.Request.Context())
	if err != nil {
		response.ServerError(c, h.log, err, "List open exams failed")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exams": exams})
}

// GetPaper godoc
// GET /api/exams/:id
// Returns the exam with its questions and options, without correctness.
func (h *ExamHandler) GetPaper(c *gin.Context) {
	examID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	paper, err := h.examService.GetPaper(c.Request.Context(), examID)
	if err != nil {
		failExam(c, h.log, err, "Get exam paper failed")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exam": paper})
}

// Start godoc
// POST /api/exams/:id/start
// Opens a session for the caller.
func (h *ExamHandler) Start(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	examID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	session, err := h.sessionService.Start(c.Request.Context(), claims.UserID, examID)
	if err != nil {
		failExam(c, h.log, err, "Start exam failed")
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"session": session})
}

// Submit godoc
// POST /api/exams/:id/submit
// Records the caller's answers and completes the session.
func (h *ExamHandler) Submit(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	examID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req model.SubmitExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	session, err := h.sessionService.Submit(c.Request.Context(), claims.UserID, examID, req.Answers)
	if err != nil {
		failExam(c, h.log, err, "Submit exam failed")
		return
	}
	response.Success(c, http.StatusOK, model.SubmitExamResponse{
		Message: "Exam submitted",
		Session: *session,
	})
}

// Result godoc
// GET /api/exams/:id/results
// Returns the caller's score summary for one exam.
func (h *ExamHandler) Result(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	examID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	summary, err := h.sessionService.Result(c.Request.Context(), claims.UserID, examID)
	if err != nil {
		failExam(c, h.log, err, "Get result failed")
		return
	}
	response.Success(c, http.StatusOK, summary)
}

// ListResults godoc
// GET /api/exams/results
// Returns every completed result of the caller.
func (h *ExamHandler) ListResults(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	results, err := h.sessionService.ListResults(c.Request.Context(), claims.UserID)
	if err != nil {
		response.ServerError(c, h.log, err, "List results failed")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"results": results})
}
