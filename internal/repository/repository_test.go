package repository

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/unisphere/exam-backend/internal/model"
)

// testPool connects to EXAM_TEST_DATABASE_URL and migrates it to the latest
// schema. Tests are skipped when the variable is unset.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	url := os.Getenv("EXAM_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("EXAM_TEST_DATABASE_URL not set")
	}

	m, err := migrate.New("file://../../migrations", url)
	if err != nil {
		t.Fatalf("migrate init: %v", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		t.Fatalf("migrate up: %v", err)
	}
	m.Close()

	pool, err := pgxpool.New(context.Background(), url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func seedExam(t *testing.T, pool *pgxpool.Pool) (*model.Exam, []model.Question) {
	t.Helper()

	now := time.Now().UTC()
	exam := &model.Exam{
		Title:           "Repository test",
		Description:     "cascade",
		DurationMinutes: 10,
		StartTime:       now.Add(-time.Hour),
		EndTime:         now.Add(time.Hour),
	}
	questions := []model.Question{
		{Text: "Q1", Options: []model.QuestionOption{{Text: "a", Correct: true}, {Text: "b"}}},
		{Text: "Q2", Options: []model.QuestionOption{{Text: "c"}, {Text: "d", Correct: true}}},
	}
	if err := NewExamRepository(pool).CreateWithQuestions(context.Background(), exam, questions); err != nil {
		t.Fatalf("create exam: %v", err)
	}
	return exam, questions
}

func seedUser(t *testing.T, pool *pgxpool.Pool) *model.User {
	t.Helper()

	u := &model.User{Email: uuid.NewString() + "@example.com", Username: "repo", PasswordHash: "x"}
	if err := NewUserRepository(pool).Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func countRows(t *testing.T, pool *pgxpool.Pool, examID uuid.UUID) map[string]int {
	t.Helper()

	queries := map[string]string{
		"exams":            `SELECT COUNT(*) FROM exams WHERE id = $1`,
		"questions":        `SELECT COUNT(*) FROM questions WHERE exam_id = $1`,
		"question_options": `SELECT COUNT(*) FROM question_options o JOIN questions q ON q.id = o.question_id WHERE q.exam_id = $1`,
		"exam_sessions":    `SELECT COUNT(*) FROM exam_sessions WHERE exam_id = $1`,
		"exam_answers":     `SELECT COUNT(*) FROM exam_answers a JOIN exam_sessions s ON s.id = a.session_id WHERE s.exam_id = $1`,
	}
	counts := make(map[string]int, len(queries))
	for table, q := range queries {
		var n int
		if err := pool.QueryRow(context.Background(), q, examID).Scan(&n); err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		counts[table] = n
	}
	return counts
}

func TestExamRepository_CreateSealsQuestions(t *testing.T) {
	pool := testPool(t)
	exam, _ := seedExam(t, pool)

	got, err := NewQuestionRepository(pool).ListByExam(context.Background(), exam.ID)
	if err != nil {
		t.Fatalf("list questions: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d questions, want 2", len(got))
	}
	for _, q := range got {
		if !q.IsSealed() {
			t.Errorf("question %q not sealed", q.Text)
			continue
		}
		opt, ok := q.Option(*q.CorrectOptionID)
		if !ok || !opt.Correct {
			t.Errorf("question %q correct option not among its options", q.Text)
		}
	}
	if got[0].Text != "Q1" || got[0].Options[0].Text != "a" {
		t.Errorf("authoring order lost: %+v", got[0])
	}
}

func TestExamRepository_DeleteCascade(t *testing.T) {
	ctx := context.Background()
	pool := testPool(t)
	exams := NewExamRepository(pool)
	sessions := NewExamSessionRepository(pool)

	exam, questions := seedExam(t, pool)
	other, _ := seedExam(t, pool)
	user := seedUser(t, pool)

	s := &model.ExamSession{ExamID: exam.ID, UserID: user.ID, StartTime: time.Now()}
	if err := sessions.Create(ctx, s); err != nil {
		t.Fatalf("create session: %v", err)
	}
	answers := []model.ExamAnswer{{QuestionID: questions[0].ID, SelectedOptionID: *questions[0].CorrectOptionID}}
	if _, err := sessions.Complete(ctx, s.ID, answers, time.Now()); err != nil {
		t.Fatalf("complete: %v", err)
	}

	if err := exams.DeleteCascade(ctx, exam.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	for table, n := range countRows(t, pool, exam.ID) {
		if n != 0 {
			t.Errorf("%s: %d orphaned rows", table, n)
		}
	}
	if n := countRows(t, pool, other.ID)["questions"]; n != 2 {
		t.Errorf("unrelated exam lost questions: %d", n)
	}

	if err := exams.DeleteCascade(ctx, uuid.New()); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("unknown exam: err = %v, want pgx.ErrNoRows", err)
	}
}

func TestExamSessionRepository_ConcurrentStart(t *testing.T) {
	ctx := context.Background()
	pool := testPool(t)
	sessions := NewExamSessionRepository(pool)
	exam, _ := seedExam(t, pool)
	user := seedUser(t, pool)

	const racers = 8
	var wg sync.WaitGroup
	errs := make(chan error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- sessions.Create(ctx, &model.ExamSession{ExamID: exam.ID, UserID: user.ID, StartTime: time.Now()})
		}()
	}
	wg.Wait()
	close(errs)

	created := 0
	for err := range errs {
		switch {
		case err == nil:
			created++
		case !errors.Is(err, ErrSessionConflict):
			t.Errorf("unexpected error: %v", err)
		}
	}
	if created != 1 {
		t.Fatalf("created %d sessions, want 1", created)
	}

	if err := NewExamRepository(pool).DeleteCascade(ctx, exam.ID); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
}

func TestExamSessionRepository_CompleteOnce(t *testing.T) {
	ctx := context.Background()
	pool := testPool(t)
	sessions := NewExamSessionRepository(pool)
	exam, _ := seedExam(t, pool)
	user := seedUser(t, pool)

	s := &model.ExamSession{ExamID: exam.ID, UserID: user.ID, StartTime: time.Now()}
	if err := sessions.Create(ctx, s); err != nil {
		t.Fatalf("create: %v", err)
	}
	done, err := sessions.Complete(ctx, s.ID, nil, time.Now())
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if !done.Completed || done.EndTime == nil {
		t.Fatalf("session not completed: %+v", done)
	}
	if _, err := sessions.Complete(ctx, s.ID, nil, time.Now()); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("second complete: err = %v, want pgx.ErrNoRows", err)
	}

	got, err := sessions.GetWithUser(ctx, exam.ID, user.ID)
	if err != nil {
		t.Fatalf("get with user: %v", err)
	}
	if got.ID != s.ID || got.UserEmail != user.Email || !got.Completed {
		t.Errorf("unexpected session %+v", got)
	}
	if _, err := sessions.GetWithUser(ctx, exam.ID, uuid.New()); !errors.Is(err, pgx.ErrNoRows) {
		t.Errorf("unknown user: err = %v, want pgx.ErrNoRows", err)
	}
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	pool := testPool(t)
	users := NewUserRepository(pool)

	u := seedUser(t, pool)
	err := users.Create(ctx, &model.User{Email: u.Email, Username: "dup", PasswordHash: "x"})
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("err = %v, want ErrDuplicateEmail", err)
	}
}
