package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/unisphere/exam-backend/internal/model"
)

// QuestionRepository handles question and option reads.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// ListByExam retrieves all questions of an exam with their options, in
// authoring order. Option.Correct is derived from the sealed correct option.
func (r *QuestionRepository) ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT q.id, q.exam_id, q.text, q.state, q.correct_option_id, q.created_at,
		        o.id, o.text, o.created_at
		 FROM questions q
		 LEFT JOIN question_options o ON o.question_id = q.id
		 WHERE q.exam_id = $1
		 ORDER BY q.created_at, q.id, o.created_at, o.id`, examID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := make([]model.Question, 0)
	for rows.Next() {
		var (
			q       model.Question
			optID   *uuid.UUID
			optText *string
			optAt   pgtype.Timestamptz
		)
		if err := rows.Scan(&q.ID, &q.ExamID, &q.Text, &q.State, &q.CorrectOptionID, &q.CreatedAt,
			&optID, &optText, &optAt); err != nil {
			return nil, err
		}

		if n := len(questions); n == 0 || questions[n-1].ID != q.ID {
			q.Options = make([]model.QuestionOption, 0, 4)
			questions = append(questions, q)
		}
		if optID == nil {
			continue
		}

		last := &questions[len(questions)-1]
		last.Options = append(last.Options, model.QuestionOption{
			ID:         *optID,
			QuestionID: last.ID,
			Text:       *optText,
			Correct:    last.CorrectOptionID != nil && *last.CorrectOptionID == *optID,
			CreatedAt:  optAt.Time,
		})
	}
	return questions, rows.Err()
}
