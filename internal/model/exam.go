package model

import (
	"time"

	"github.com/google/uuid"
)

// Exam represents an exam entity.
type Exam struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	DurationMinutes int       `json:"duration_minutes"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	CreatedAt       time.Time `json:"created_at"`
}

// IsOpenAt reports whether t falls inside the half-open window [StartTime, EndTime).
func (e *Exam) IsOpenAt(t time.Time) bool {
	return !t.Before(e.StartTime) && t.Before(e.EndTime)
}

// CreateExamRequest is the payload for authoring an exam with its questions.
type CreateExamRequest struct {
	Title           string                  `json:"title" binding:"required,min=1,max=255"`
	Description     string                  `json:"description" binding:"required,max=5000"`
	DurationMinutes int                     `json:"duration_minutes" binding:"required,min=1,max=1440"`
	StartTime       time.Time               `json:"start_time" binding:"required"`
	EndTime         time.Time               `json:"end_time" binding:"required,gtfield=StartTime"`
	Questions       []CreateQuestionRequest `json:"questions" binding:"required,min=1,dive"`
}

// CreateQuestionRequest is one question of an exam being authored.
type CreateQuestionRequest struct {
	Text    string                `json:"text" binding:"required,max=2000"`
	Options []CreateOptionRequest `json:"options" binding:"required,min=2,max=10,dive"`
}

// CreateOptionRequest is one answer option. Exactly one option per question must be correct.
type CreateOptionRequest struct {
	Text    string `json:"text" binding:"required,max=1000"`
	Correct bool   `json:"correct"`
}

// ExamPaper is what a user sees before and during an attempt. It never carries correctness.
type ExamPaper struct {
	Exam
	Questions []PaperQuestion `json:"questions"`
}

// PaperQuestion is a question without its correct option.
type PaperQuestion struct {
	ID      uuid.UUID     `json:"id"`
	Text    string        `json:"text"`
	Options []PaperOption `json:"options"`
}

// PaperOption is an answer option as shown to users.
type PaperOption struct {
	ID   uuid.UUID `json:"id"`
	Text string    `json:"text"`
}

// ExamDetail is the admin view of an exam, including correctness.
type ExamDetail struct {
	Exam
	Questions []Question `json:"questions"`
}
