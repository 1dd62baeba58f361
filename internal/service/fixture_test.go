package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/unisphere/exam-backend/internal/config"
	"github.com/unisphere/exam-backend/internal/model"
	"github.com/unisphere/exam-backend/internal/service/servicetest"
	"golang.org/x/crypto/bcrypt"
)

type fixture struct {
	db        *servicetest.DB
	cache     *servicetest.PaperCache
	events    *servicetest.Publisher
	notifier  *servicetest.Notifier
	blocklist *servicetest.Blocklist

	auth     *AuthService
	users    *UserService
	admins   *AdminService
	exams    *ExamService
	sessions *ExamSessionService

	now time.Time
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:  strings.Repeat("k", 32),
		JWTExpiry:  time.Hour,
		BcryptCost: bcrypt.MinCost,
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		db:        servicetest.NewDB(),
		cache:     servicetest.NewPaperCache(),
		events:    &servicetest.Publisher{},
		notifier:  &servicetest.Notifier{},
		blocklist: servicetest.NewBlocklist(),
		now:       time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return f.now }
	log := zerolog.Nop()

	f.auth = NewAuthService(testConfig(), f.blocklist)
	f.auth.now = clock
	f.users = NewUserService(f.db.Users(), f.auth, f.notifier, log)
	f.admins = NewAdminService(f.db.Admins(), f.auth)
	f.exams = NewExamService(f.db.Exams(), f.db.Questions(), f.cache, f.events, log)
	f.exams.now = clock
	f.sessions = NewExamSessionService(f.db.Exams(), f.db.Questions(), f.db.Sessions(), f.events, log)
	f.sessions.now = clock
	return f
}

// createExam authors an exam open over [start, end) whose questions each have
// two options, the first one correct.
func (f *fixture) createExam(t *testing.T, start, end time.Time, questions int) *model.ExamDetail {
	t.Helper()

	req := model.CreateExamRequest{
		Title:           "Quiz",
		Description:     "test exam",
		DurationMinutes: 30,
		StartTime:       start,
		EndTime:         end,
	}
	for i := 0; i < questions; i++ {
		req.Questions = append(req.Questions, model.CreateQuestionRequest{
			Text: "question",
			Options: []model.CreateOptionRequest{
				{Text: "right", Correct: true},
				{Text: "wrong"},
			},
		})
	}

	detail, err := f.exams.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("create exam: %v", err)
	}
	return detail
}

// openExam creates an exam whose window contains f.now.
func (f *fixture) openExam(t *testing.T, questions int) *model.ExamDetail {
	t.Helper()
	return f.createExam(t, f.now.Add(-time.Hour), f.now.Add(time.Hour), questions)
}

func (f *fixture) createUser(t *testing.T, email string) *model.User {
	t.Helper()
	u, err := f.users.Register(context.Background(), model.RegisterRequest{
		Email:    email,
		Username: strings.Split(email, "@")[0],
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return u
}

func correctAnswer(q model.Question) model.AnswerInput {
	return model.AnswerInput{QuestionID: q.ID, SelectedOptionID: *q.CorrectOptionID}
}

func wrongAnswer(q model.Question) model.AnswerInput {
	for _, o := range q.Options {
		if q.CorrectOptionID == nil || o.ID != *q.CorrectOptionID {
			return model.AnswerInput{QuestionID: q.ID, SelectedOptionID: o.ID}
		}
	}
	panic("question has no wrong option")
}

func eventTypes(events []model.MonitorEvent) []model.MonitorEventType {
	out := make([]model.MonitorEventType, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}
