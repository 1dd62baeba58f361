package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/unisphere/exam-backend/internal/model"
)

// ExamSessionRepository handles exam session and answer data access.
type ExamSessionRepository struct {
	pool *pgxpool.Pool
}

// NewExamSessionRepository creates a new ExamSessionRepository.
func NewExamSessionRepository(pool *pgxpool.Pool) *ExamSessionRepository {
	return &ExamSessionRepository{pool: pool}
}

const sessionColumns = `id, exam_id, user_id, start_time, end_time, completed, created_at`

func scanSession(row pgx.Row, s *model.ExamSession) error {
	return row.Scan(&s.ID, &s.ExamID, &s.UserID, &s.StartTime, &s.EndTime, &s.Completed, &s.CreatedAt)
}

// GetByExamAndUser retrieves the session of a user for an exam, if any.
func (r *ExamSessionRepository) GetByExamAndUser(ctx context.Context, examID, userID uuid.UUID) (*model.ExamSession, error) {
	s := &model.ExamSession{}
	if err := scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM exam_sessions
		 WHERE exam_id = $1 AND user_id = $2`, examID, userID), s); err != nil {
		return nil, err
	}
	return s, nil
}

// Create inserts a new active session. The (exam_id, user_id) unique
// constraint makes concurrent starts race-free: the loser gets ErrSessionConflict.
func (r *ExamSessionRepository) Create(ctx context.Context, s *model.ExamSession) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO exam_sessions (exam_id, user_id, start_time, completed)
		 VALUES ($1, $2, $3, FALSE)
		 ON CONFLICT (exam_id, user_id) DO NOTHING
		 RETURNING id, created_at`,
		s.ExamID, s.UserID, s.StartTime,
	).Scan(&s.ID, &s.CreatedAt)
	if err == pgx.ErrNoRows {
		return ErrSessionConflict
	}
	return err
}

// Complete stores the answers and closes the session atomically. It locks the
// session row first; if the session is missing or already completed nothing
// is written and pgx.ErrNoRows is returned.
func (r *ExamSessionRepository) Complete(ctx context.Context, sessionID uuid.UUID, answers []model.ExamAnswer, endTime time.Time) (*model.ExamSession, error) {
	s := &model.ExamSession{}
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var id uuid.UUID
		if err := tx.QueryRow(ctx,
			`SELECT id FROM exam_sessions
			 WHERE id = $1 AND completed = FALSE
			 FOR UPDATE`, sessionID,
		).Scan(&id); err != nil {
			return err
		}

		if len(answers) > 0 {
			rows := make([][]interface{}, len(answers))
			for i, a := range answers {
				rows[i] = []interface{}{sessionID, a.QuestionID, a.SelectedOptionID}
			}
			if _, err := tx.CopyFrom(ctx,
				pgx.Identifier{"exam_answers"},
				[]string{"session_id", "question_id", "selected_option_id"},
				pgx.CopyFromRows(rows),
			); err != nil {
				return err
			}
		}

		return scanSession(tx.QueryRow(ctx,
			`UPDATE exam_sessions
			 SET completed = TRUE, end_time = $2
			 WHERE id = $1
			 RETURNING `+sessionColumns, sessionID, endTime), s)
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ListAnswers retrieves every answer of a session.
func (r *ExamSessionRepository) ListAnswers(ctx context.Context, sessionID uuid.UUID) ([]model.ExamAnswer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, session_id, question_id, selected_option_id, created_at
		 FROM exam_answers WHERE session_id = $1`, sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	answers := make([]model.ExamAnswer, 0)
	for rows.Next() {
		var a model.ExamAnswer
		if err := rows.Scan(&a.ID, &a.SessionID, &a.QuestionID, &a.SelectedOptionID, &a.CreatedAt); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

// ListAnswersByExam retrieves the answers of every session of an exam, keyed by session.
func (r *ExamSessionRepository) ListAnswersByExam(ctx context.Context, examID uuid.UUID) (map[uuid.UUID][]model.ExamAnswer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT a.id, a.session_id, a.question_id, a.selected_option_id, a.created_at
		 FROM exam_answers a
		 JOIN exam_sessions s ON s.id = a.session_id
		 WHERE s.exam_id = $1`, examID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bySession := make(map[uuid.UUID][]model.ExamAnswer)
	for rows.Next() {
		var a model.ExamAnswer
		if err := rows.Scan(&a.ID, &a.SessionID, &a.QuestionID, &a.SelectedOptionID, &a.CreatedAt); err != nil {
			return nil, err
		}
		bySession[a.SessionID] = append(bySession[a.SessionID], a)
	}
	return bySession, rows.Err()
}

// ListCompletedByUser retrieves the completed sessions of a user, most recent first.
func (r *ExamSessionRepository) ListCompletedByUser(ctx context.Context, userID uuid.UUID) ([]model.ExamSession, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+sessionColumns+` FROM exam_sessions
		 WHERE user_id = $1 AND completed = TRUE
		 ORDER BY end_time DESC, id`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]model.ExamSession, 0)
	for rows.Next() {
		var s model.ExamSession
		if err := scanSession(rows, &s); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// GetWithUser retrieves one user's session of an exam with the owner's identity.
func (r *ExamSessionRepository) GetWithUser(ctx context.Context, examID, userID uuid.UUID) (*model.SessionWithUser, error) {
	s := &model.SessionWithUser{}
	err := r.pool.QueryRow(ctx,
		`SELECT s.id, s.exam_id, s.user_id, s.start_time, s.end_time, s.completed, s.created_at,
		        u.email, u.username
		 FROM exam_sessions s
		 JOIN users u ON u.id = s.user_id
		 WHERE s.exam_id = $1 AND s.user_id = $2`, examID, userID,
	).Scan(&s.ID, &s.ExamID, &s.UserID, &s.StartTime, &s.EndTime, &s.Completed, &s.CreatedAt,
		&s.UserEmail, &s.Username)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ListByExam retrieves every session of an exam with its owner's identity.
func (r *ExamSessionRepository) ListByExam(ctx context.Context, examID uuid.UUID) ([]model.SessionWithUser, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT s.id, s.exam_id, s.user_id, s.start_time, s.end_time, s.completed, s.created_at,
		        u.email, u.username
		 FROM exam_sessions s
		 JOIN users u ON u.id = s.user_id
		 WHERE s.exam_id = $1
		 ORDER BY s.start_time, s.id`, examID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]model.SessionWithUser, 0)
	for rows.Next() {
		var s model.SessionWithUser
		if err := rows.Scan(&s.ID, &s.ExamID, &s.UserID, &s.StartTime, &s.EndTime, &s.Completed, &s.CreatedAt,
			&s.UserEmail, &s.Username); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}
