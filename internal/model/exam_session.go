package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionState is the position of a (user, exam) pair in the attempt lifecycle.
type SessionState string

const (
	SessionStateNone      SessionState = "NO_SESSION"
	SessionStateActive    SessionState = "ACTIVE"
	SessionStateCompleted SessionState = "COMPLETED"
)

// ExamSession represents one user's attempt at one exam.
type ExamSession struct {
	ID        uuid.UUID  `json:"id"`
	ExamID    uuid.UUID  `json:"exam_id"`
	UserID    uuid.UUID  `json:"user_id"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
	Completed bool       `json:"completed"`
	CreatedAt time.Time  `json:"created_at"`
}

// State derives the lifecycle state of s. A nil session is NO_SESSION.
func (s *ExamSession) State() SessionState {
	switch {
	case s == nil:
		return SessionStateNone
	case s.Completed:
		return SessionStateCompleted
	default:
		return SessionStateActive
	}
}

// ExamAnswer is one selected option inside a submitted session.
type ExamAnswer struct {
	ID               uuid.UUID `json:"id"`
	SessionID        uuid.UUID `json:"session_id"`
	QuestionID       uuid.UUID `json:"question_id"`
	SelectedOptionID uuid.UUID `json:"selected_option_id"`
	CreatedAt        time.Time `json:"created_at"`
}

// AnswerInput is one answer in a submit request.
type AnswerInput struct {
	QuestionID       uuid.UUID `json:"question_id" binding:"required"`
	SelectedOptionID uuid.UUID `json:"selected_option_id" binding:"required"`
}

// SubmitExamRequest is the payload for completing a session. An empty list is allowed.
type SubmitExamRequest struct {
	Answers []AnswerInput `json:"answers" binding:"omitempty,max=1000,dive"`
}

// SubmitExamResponse confirms a completed session.
type SubmitExamResponse struct {
	Message string      `json:"message"`
	Session ExamSession `json:"session"`
}

// SessionWithUser joins a session with the identity of its owner for admin listings.
type SessionWithUser struct {
	ExamSession
	UserEmail string `json:"user_email"`
	Username  string `json:"username"`
}
