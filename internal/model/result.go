package model

import (
	"time"

	"github.com/google/uuid"
)

// ScoreReport is the full scoring output for one completed session.
type ScoreReport struct {
	Score            float64          `json:"score"`
	TotalQuestions   int              `json:"total_questions"`
	CorrectAnswers   int              `json:"correct_answers"`
	IncorrectAnswers int              `json:"incorrect_answers"`
	Questions        []QuestionResult `json:"questions"`
}

// Summary drops the per-question detail.
func (r ScoreReport) Summary() ResultSummary {
	return ResultSummary{
		Score:            r.Score,
		TotalQuestions:   r.TotalQuestions,
		CorrectAnswers:   r.CorrectAnswers,
		IncorrectAnswers: r.IncorrectAnswers,
	}
}

// QuestionResult is the per-question breakdown shown to admins.
type QuestionResult struct {
	QuestionID         uuid.UUID  `json:"question_id"`
	QuestionText       string     `json:"question_text"`
	SelectedOptionID   *uuid.UUID `json:"selected_option_id"`
	SelectedOptionText *string    `json:"selected_option_text"`
	CorrectOptionID    *uuid.UUID `json:"correct_option_id"`
	CorrectOptionText  *string    `json:"correct_option_text"`
	IsCorrect          bool       `json:"is_correct"`
}

// ResultSummary is the self-service view of a score.
type ResultSummary struct {
	Score            float64 `json:"score"`
	TotalQuestions   int     `json:"total_questions"`
	CorrectAnswers   int     `json:"correct_answers"`
	IncorrectAnswers int     `json:"incorrect_answers"`
}

// UserExamResult is one entry of GET /exams/results.
type UserExamResult struct {
	ExamID      uuid.UUID  `json:"exam_id"`
	ExamTitle   string     `json:"exam_title"`
	SessionID   uuid.UUID  `json:"session_id"`
	CompletedAt *time.Time `json:"completed_at"`
	ResultSummary
}

// SessionResult is one session in the admin results view. Score fields are
// nil while the session is still active.
type SessionResult struct {
	SessionID      uuid.UUID        `json:"session_id"`
	UserID         uuid.UUID        `json:"user_id"`
	UserEmail      string           `json:"user_email"`
	Username       string           `json:"username"`
	StartTime      time.Time        `json:"start_time"`
	EndTime        *time.Time       `json:"end_time"`
	Completed      bool             `json:"completed"`
	Score          *float64         `json:"score"`
	TotalQuestions int              `json:"total_questions"`
	CorrectAnswers *int             `json:"correct_answers"`
	Answers        []QuestionResult `json:"answers"`
}

// ExamResults groups every session of one exam.
type ExamResults struct {
	Exam     Exam            `json:"exam"`
	Sessions []SessionResult `json:"sessions"`
}
