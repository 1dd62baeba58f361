package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/unisphere/exam-backend/internal/model"
	"github.com/unisphere/exam-backend/internal/response"
	"github.com/unisphere/exam-backend/internal/service"
	"github.com/unisphere/exam-backend/internal/validator"
)

// AdminExamHandler handles exam authoring and result review.
type AdminExamHandler struct {
	examService    *service.ExamService
	sessionService *service.ExamSessionService
	log            zerolog.Logger
}

// NewAdminExamHandler creates a new AdminExamHandler.
func NewAdminExamHandler(examService *service.ExamService, sessionService *service.ExamSessionService, log zerolog.Logger) *AdminExamHandler {
	return &AdminExamHandler{
		examService:    examService,
		sessionService: sessionService,
		log:            log.With().Str("component", "admin_exam_handler").Logger(),
	}
}

// List godoc
// GET /api/admin/exams
func (h *AdminExamHandler) List(c *gin.Context) {
	exams, err := h.examService.ListAll(c.Request.Context())
	if err != nil {
		response.ServerError(c, h.log, err, "List exams failed")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exams": exams})
}

// Create godoc
// POST /api/admin/exams
// Creates an exam together with its questions and options in one transaction.
func (h *AdminExamHandler) Create(c *gin.Context) {
	var req model.CreateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	detail, err := h.examService.Create(c.Request.Context(), req)
	if err != nil {
		failExam(c, h.log, err, "Create exam failed")
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"exam": detail})
}

// Get godoc
// GET /api/admin/exams/:id
// Returns the exam including which option of each question is correct.
func (h *AdminExamHandler) Get(c *gin.Context) {
	examID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	detail, err := h.examService.GetDetail(c.Request.Context(), examID)
	if err != nil {
		failExam(c, h.log, err, "Get exam failed")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exam": detail})
}

// Results godoc
// GET /api/admin/exams/:id/results
func (h *AdminExamHandler) Results(c *gin.Context) {
	examID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	results, err := h.sessionService.ExamResults(c.Request.Context(), examID)
	if err != nil {
		failExam(c, h.log, err, "Get exam results failed")
		return
	}
	response.Success(c, http.StatusOK, results)
}

// UserResult godoc
// GET /api/admin/exams/:id/results/:userId
func (h *AdminExamHandler) UserResult(c *gin.Context) {
	examID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	userID, ok := uuidParam(c, "userId")
	if !ok {
		return
	}

	result, err := h.sessionService.UserResult(c.Request.Context(), examID, userID)
	if err != nil {
		failExam(c, h.log, err, "Get user result failed")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// Delete godoc
// DELETE /api/admin/exams/:id
// Removes the exam with its questions, options, sessions and answers.
func (h *AdminExamHandler) Delete(c *gin.Context) {
	examID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.examService.Delete(c.Request.Context(), examID); err != nil {
		failExam(c, h.log, err, "Delete exam failed")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "Exam deleted"})
}
