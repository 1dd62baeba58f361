package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/unisphere/exam-backend/internal/mailer"
	"github.com/unisphere/exam-backend/internal/model"
)

// The store interfaces below are satisfied by the pgx repositories in
// internal/repository. Absent rows are reported as pgx.ErrNoRows.

// UserStore persists exam takers.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	ExistingEmails(ctx context.Context, emails []string) (map[string]bool, error)
	ListPaginated(ctx context.Context, limit, offset int) ([]model.User, int, error)
	Create(ctx context.Context, u *model.User) error
}

// AdminStore persists administrators.
type AdminStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Admin, error)
	GetByEmail(ctx context.Context, email string) (*model.Admin, error)
	Create(ctx context.Context, a *model.Admin) error
}

// ExamStore persists exams.
type ExamStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error)
	ListOpen(ctx context.Context, now time.Time) ([]model.Exam, error)
	ListAll(ctx context.Context) ([]model.Exam, error)
	CreateWithQuestions(ctx context.Context, e *model.Exam, questions []model.Question) error
	DeleteCascade(ctx context.Context, id uuid.UUID) error
}

// QuestionStore reads the questions of an exam.
type QuestionStore interface {
	ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Question, error)
}

// SessionStore persists exam sessions and their answers.
type SessionStore interface {
	GetByExamAndUser(ctx context.Context, examID, userID uuid.UUID) (*model.ExamSession, error)
	Create(ctx context.Context, s *model.ExamSession) error
	Complete(ctx context.Context, sessionID uuid.UUID, answers []model.ExamAnswer, endTime time.Time) (*model.ExamSession, error)
	ListAnswers(ctx context.Context, sessionID uuid.UUID) ([]model.ExamAnswer, error)
	ListAnswersByExam(ctx context.Context, examID uuid.UUID) (map[uuid.UUID][]model.ExamAnswer, error)
	ListCompletedByUser(ctx context.Context, userID uuid.UUID) ([]model.ExamSession, error)
	ListByExam(ctx context.Context, examID uuid.UUID) ([]model.SessionWithUser, error)
	GetWithUser(ctx context.Context, examID, userID uuid.UUID) (*model.SessionWithUser, error)
}

// PaperCache keeps rendered exam papers close to the API.
type PaperCache interface {
	Get(ctx context.Context, examID uuid.UUID) (*model.ExamPaper, bool, error)
	Set(ctx context.Context, paper *model.ExamPaper) error
	Invalidate(ctx context.Context, examID uuid.UUID) error
}

// TokenBlocklist records logged-out token ids until they expire.
type TokenBlocklist interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// EventPublisher fans session changes out to live monitors.
type EventPublisher interface {
	Publish(ctx context.Context, event model.MonitorEvent) error
}

// WelcomeNotifier hands a welcome email off for asynchronous delivery. It must not block.
type WelcomeNotifier interface {
	NotifyWelcome(msg mailer.Welcome)
}
