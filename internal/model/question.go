package model

import (
	"time"

	"github.com/google/uuid"
)

// QuestionState tracks the two-phase construction of a question.
type QuestionState string

const (
	// QuestionStateDraft: the question exists but has no correct option yet.
	QuestionStateDraft QuestionState = "DRAFT"
	// QuestionStateSealed: the correct option is fixed and references one of the question's own options.
	QuestionStateSealed QuestionState = "SEALED"
)

// Question represents a single exam question with its options.
type Question struct {
	ID              uuid.UUID        `json:"id"`
	ExamID          uuid.UUID        `json:"exam_id"`
	Text            string           `json:"text"`
	State           QuestionState    `json:"state"`
	CorrectOptionID *uuid.UUID       `json:"correct_option_id"`
	CreatedAt       time.Time        `json:"created_at"`
	Options         []QuestionOption `json:"options"`
}

// IsSealed reports whether the question can be scored.
func (q *Question) IsSealed() bool {
	return q.State == QuestionStateSealed && q.CorrectOptionID != nil
}

// Option returns the option with the given id, if it belongs to q.
func (q *Question) Option(id uuid.UUID) (*QuestionOption, bool) {
	for i := range q.Options {
		if q.Options[i].ID == id {
			return &q.Options[i], true
		}
	}
	return nil, false
}

// Paper strips correctness from the question.
func (q *Question) Paper() PaperQuestion {
	opts := make([]PaperOption, len(q.Options))
	for i, o := range q.Options {
		opts[i] = PaperOption{ID: o.ID, Text: o.Text}
	}
	return PaperQuestion{ID: q.ID, Text: q.Text, Options: opts}
}

// QuestionOption is an answer option belonging to exactly one question.
type QuestionOption struct {
	ID         uuid.UUID `json:"id"`
	QuestionID uuid.UUID `json:"question_id"`
	Text       string    `json:"text"`
	Correct    bool      `json:"correct"`
	CreatedAt  time.Time `json:"created_at"`
}
