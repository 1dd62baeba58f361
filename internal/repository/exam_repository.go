package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/unisphere/exam-backend/internal/model"
)

// ExamRepository handles exam data access, including authoring and cascade deletion.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

const examColumns = `id, title, description, duration_minutes, start_time, end_time, created_at`

func scanExam(row pgx.Row, e *model.Exam) error {
	return row.Scan(&e.ID, &e.Title, &e.Description, &e.DurationMinutes, &e.StartTime, &e.EndTime, &e.CreatedAt)
}

// GetByID retrieves an exam by its UUID.
func (r *ExamRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	e := &model.Exam{}
	if err := scanExam(r.pool.QueryRow(ctx,
		`SELECT `+examColumns+` FROM exams WHERE id = $1`, id), e); err != nil {
		return nil, err
	}
	return e, nil
}

// ListOpen retrieves exams whose window [start_time, end_time) contains now.
func (r *ExamRepository) ListOpen(ctx context.Context, now time.Time) ([]model.Exam, error) {
	return r.list(ctx,
		`SELECT `+examColumns+` FROM exams
		 WHERE start_time <= $1 AND end_time > $1
		 ORDER BY start_time, id`, now)
}

// ListAll retrieves every exam, newest first.
func (r *ExamRepository) ListAll(ctx context.Context) ([]model.Exam, error) {
	return r.list(ctx, `SELECT `+examColumns+` FROM exams ORDER BY created_at DESC, id`)
}

func (r *ExamRepository) list(ctx context.Context, query string, args ...interface{}) ([]model.Exam, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	exams := make([]model.Exam, 0)
	for rows.Next() {
		var e model.Exam
		if err := scanExam(rows, &e); err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}

// CreateWithQuestions inserts the exam and all of its questions and options in
// one transaction. Each question is inserted as DRAFT, its options follow, and
// the question is then sealed with the option flagged Correct. IDs and
// timestamps are written back into the arguments.
func (r *ExamRepository) CreateWithQuestions(ctx context.Context, e *model.Exam, questions []model.Question) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO exams (title, description, duration_minutes, start_time, end_time)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING id, created_at`,
			e.Title, e.Description, e.DurationMinutes, e.StartTime, e.EndTime,
		).Scan(&e.ID, &e.CreatedAt)
		if err != nil {
			return err
		}

		for i := range questions {
			q := &questions[i]
			q.ExamID = e.ID
			q.State = model.QuestionStateDraft
			if err := tx.QueryRow(ctx,
				`INSERT INTO questions (exam_id, text, state)
				 VALUES ($1, $2, $3)
				 RETURNING id, created_at`,
				q.ExamID, q.Text, q.State,
			).Scan(&q.ID, &q.CreatedAt); err != nil {
				return err
			}

			var correctID *uuid.UUID
			for j := range q.Options {
				o := &q.Options[j]
				o.QuestionID = q.ID
				if err := tx.QueryRow(ctx,
					`INSERT INTO question_options (question_id, text)
					 VALUES ($1, $2)
					 RETURNING id, created_at`,
					o.QuestionID, o.Text,
				).Scan(&o.ID, &o.CreatedAt); err != nil {
					return err
				}
				if o.Correct {
					id := o.ID
					correctID = &id
				}
			}

			if correctID == nil {
				continue
			}
			if _, err := tx.Exec(ctx,
				`UPDATE questions SET correct_option_id = $1, state = $2 WHERE id = $3`,
				*correctID, model.QuestionStateSealed, q.ID,
			); err != nil {
				return err
			}
			q.CorrectOptionID = correctID
			q.State = model.QuestionStateSealed
		}
		return nil
	})
}

// DeleteCascade removes the exam and everything that references it in one
// transaction, deepest dependents first. If the exam row is gone by the final
// step the whole transaction is rolled back and pgx.ErrNoRows is returned.
func (r *ExamRepository) DeleteCascade(ctx context.Context, id uuid.UUID) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		steps := []string{
			`DELETE FROM exam_answers
			 WHERE session_id IN (SELECT id FROM exam_sessions WHERE exam_id = $1)`,
			`DELETE FROM exam_sessions WHERE exam_id = $1`,
			`DELETE FROM question_options
			 WHERE question_id IN (SELECT id FROM questions WHERE exam_id = $1)`,
			`DELETE FROM questions WHERE exam_id = $1`,
		}
		for _, stmt := range steps {
			if _, err := tx.Exec(ctx, stmt, id); err != nil {
				return err
			}
		}

		tag, err := tx.Exec(ctx, `DELETE FROM exams WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		return nil
	})
}
