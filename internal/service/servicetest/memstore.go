// Package servicetest provides in-memory stand-ins for the stores and
// Redis-backed components the services depend on. They follow the same
// contracts as the pgx repositories: absent rows are pgx.ErrNoRows and
// unique conflicts are the repository sentinels.
package servicetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/unisphere/exam-backend/internal/model"
	"github.com/unisphere/exam-backend/internal/repository"
)

// DB is a shared in-memory database. Its stores see each other's rows, so a
// cascade through Exams is visible from Sessions.
type DB struct {
	mu        sync.Mutex
	users     map[uuid.UUID]*model.User
	admins    map[uuid.UUID]*model.Admin
	exams     map[uuid.UUID]*model.Exam
	questions map[uuid.UUID][]model.Question
	sessions  map[uuid.UUID]*model.ExamSession
	answers   map[uuid.UUID][]model.ExamAnswer
	tick      time.Time
}

// NewDB creates an empty database.
func NewDB() *DB {
	return &DB{
		users:     make(map[uuid.UUID]*model.User),
		admins:    make(map[uuid.UUID]*model.Admin),
		exams:     make(map[uuid.UUID]*model.Exam),
		questions: make(map[uuid.UUID][]model.Question),
		sessions:  make(map[uuid.UUID]*model.ExamSession),
		answers:   make(map[uuid.UUID][]model.ExamAnswer),
		tick:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// now returns strictly increasing creation timestamps. Callers hold mu.
func (db *DB) now() time.Time {
	db.tick = db.tick.Add(time.Millisecond)
	return db.tick
}

func (db *DB) Users() *Users         { return &Users{db} }
func (db *DB) Admins() *Admins       { return &Admins{db} }
func (db *DB) Exams() *Exams         { return &Exams{db} }
func (db *DB) Questions() *Questions { return &Questions{db} }
func (db *DB) Sessions() *Sessions   { return &Sessions{db} }

// Counts reports the number of rows that reference examID, by table.
func (db *DB) Counts(examID uuid.UUID) map[string]int {
	db.mu.Lock()
	defer db.mu.Unlock()

	counts := map[string]int{"exams": 0, "questions": 0, "question_options": 0, "exam_sessions": 0, "exam_answers": 0}
	if _, ok := db.exams[examID]; ok {
		counts["exams"] = 1
	}
	for _, q := range db.questions[examID] {
		counts["questions"]++
		counts["question_options"] += len(q.Options)
	}
	for id, s := range db.sessions {
		if s.ExamID == examID {
			counts["exam_sessions"]++
			counts["exam_answers"] += len(db.answers[id])
		}
	}
	return counts
}

// ─── Users ──────────────────────────────────────────────────────────

type Users struct{ db *DB }

func (r *Users) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (r *Users) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *Users) ExistingEmails(_ context.Context, emails []string) (map[string]bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	want := make(map[string]bool, len(emails))
	for _, e := range emails {
		want[e] = true
	}
	found := make(map[string]bool)
	for _, u := range r.db.users {
		if want[u.Email] {
			found[u.Email] = true
		}
	}
	return found, nil
}

func (r *Users) ListPaginated(_ context.Context, limit, offset int) ([]model.User, int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	all := make([]model.User, 0, len(r.db.users))
	for _, u := range r.db.users {
		all = append(all, *u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	total := len(all)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (r *Users) Create(_ context.Context, u *model.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.users {
		if existing.Email == u.Email {
			return repository.ErrDuplicateEmail
		}
	}
	u.ID = uuid.New()
	u.CreatedAt = r.db.now()
	cp := *u
	r.db.users[u.ID] = &cp
	return nil
}

// ─── Admins ─────────────────────────────────────────────────────────

type Admins struct{ db *DB }

func (r *Admins) GetByID(_ context.Context, id uuid.UUID) (*model.Admin, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	a, ok := r.db.admins[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *a
	return &cp, nil
}

func (r *Admins) GetByEmail(_ context.Context, email string) (*model.Admin, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, a := range r.db.admins {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *Admins) Create(_ context.Context, a *model.Admin) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.admins {
		if existing.Email == a.Email {
			return repository.ErrDuplicateEmail
		}
	}
	a.ID = uuid.New()
	a.CreatedAt = r.db.now()
	cp := *a
	r.db.admins[a.ID] = &cp
	return nil
}

// ─── Exams ──────────────────────────────────────────────────────────

type Exams struct{ db *DB }

func (r *Exams) GetByID(_ context.Context, id uuid.UUID) (*model.Exam, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	e, ok := r.db.exams[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *e
	return &cp, nil
}

func (r *Exams) ListOpen(_ context.Context, now time.Time) ([]model.Exam, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]model.Exam, 0)
	for _, e := range r.db.exams {
		if e.IsOpenAt(now) {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (r *Exams) ListAll(_ context.Context) ([]model.Exam, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]model.Exam, 0, len(r.db.exams))
	for _, e := range r.db.exams {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// CreateWithQuestions mirrors the repository: questions are sealed with the
// option flagged Correct and stay DRAFT when none is.
func (r *Exams) CreateWithQuestions(_ context.Context, e *model.Exam, questions []model.Question) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	e.ID = uuid.New()
	e.CreatedAt = r.db.now()
	for i := range questions {
		q := &questions[i]
		q.ID = uuid.New()
		q.ExamID = e.ID
		q.State = model.QuestionStateDraft
		q.CreatedAt = r.db.now()
		for j := range q.Options {
			o := &q.Options[j]
			o.ID = uuid.New()
			o.QuestionID = q.ID
			o.CreatedAt = r.db.now()
			if o.Correct {
				id := o.ID
				q.CorrectOptionID = &id
				q.State = model.QuestionStateSealed
			}
		}
	}

	cp := *e
	r.db.exams[e.ID] = &cp
	r.db.questions[e.ID] = cloneQuestions(questions)
	return nil
}

func (r *Exams) DeleteCascade(_ context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.exams[id]; !ok {
		return pgx.ErrNoRows
	}
	for sid, s := range r.db.sessions {
		if s.ExamID == id {
			delete(r.db.answers, sid)
			delete(r.db.sessions, sid)
		}
	}
	delete(r.db.questions, id)
	delete(r.db.exams, id)
	return nil
}

// ─── Questions ──────────────────────────────────────────────────────

type Questions struct{ db *DB }

func (r *Questions) ListByExam(_ context.Context, examID uuid.UUID) ([]model.Question, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return cloneQuestions(r.db.questions[examID]), nil
}

// AddDraft appends an unsealed question with the given option texts.
func (r *Questions) AddDraft(examID uuid.UUID, text string, options ...string) model.Question {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	q := model.Question{
		ID:        uuid.New(),
		ExamID:    examID,
		Text:      text,
		State:     model.QuestionStateDraft,
		CreatedAt: r.db.now(),
	}
	for _, o := range options {
		q.Options = append(q.Options, model.QuestionOption{ID: uuid.New(), QuestionID: q.ID, Text: o, CreatedAt: r.db.now()})
	}
	r.db.questions[examID] = append(r.db.questions[examID], q)
	return cloneQuestions([]model.Question{q})[0]
}

func cloneQuestions(in []model.Question) []model.Question {
	out := make([]model.Question, len(in))
	for i, q := range in {
		q.Options = append([]model.QuestionOption(nil), q.Options...)
		if q.CorrectOptionID != nil {
			id := *q.CorrectOptionID
			q.CorrectOptionID = &id
		}
		out[i] = q
	}
	return out
}

// ─── Sessions ───────────────────────────────────────────────────────

type Sessions struct{ db *DB }

func (r *Sessions) GetByExamAndUser(_ context.Context, examID, userID uuid.UUID) (*model.ExamSession, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, s := range r.db.sessions {
		if s.ExamID == examID && s.UserID == userID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *Sessions) Create(_ context.Context, s *model.ExamSession) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.sessions {
		if existing.ExamID == s.ExamID && existing.UserID == s.UserID {
			return repository.ErrSessionConflict
		}
	}
	s.ID = uuid.New()
	s.CreatedAt = r.db.now()
	s.Completed = false
	s.EndTime = nil
	cp := *s
	r.db.sessions[s.ID] = &cp
	return nil
}

func (r *Sessions) Complete(_ context.Context, sessionID uuid.UUID, answers []model.ExamAnswer, endTime time.Time) (*model.ExamSession, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s, ok := r.db.sessions[sessionID]
	if !ok || s.Completed {
		return nil, pgx.ErrNoRows
	}

	stored := make([]model.ExamAnswer, len(answers))
	for i, a := range answers {
		a.ID = uuid.New()
		a.SessionID = sessionID
		a.CreatedAt = r.db.now()
		stored[i] = a
	}
	r.db.answers[sessionID] = stored

	end := endTime
	s.EndTime = &end
	s.Completed = true
	cp := *s
	return &cp, nil
}

func (r *Sessions) ListAnswers(_ context.Context, sessionID uuid.UUID) ([]model.ExamAnswer, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return append([]model.ExamAnswer{}, r.db.answers[sessionID]...), nil
}

func (r *Sessions) ListAnswersByExam(_ context.Context, examID uuid.UUID) (map[uuid.UUID][]model.ExamAnswer, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make(map[uuid.UUID][]model.ExamAnswer)
	for id, s := range r.db.sessions {
		if s.ExamID == examID && len(r.db.answers[id]) > 0 {
			out[id] = append([]model.ExamAnswer(nil), r.db.answers[id]...)
		}
	}
	return out, nil
}

func (r *Sessions) ListCompletedByUser(_ context.Context, userID uuid.UUID) ([]model.ExamSession, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]model.ExamSession, 0)
	for _, s := range r.db.sessions {
		if s.UserID == userID && s.Completed {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndTime.After(*out[j].EndTime) })
	return out, nil
}

func (r *Sessions) GetWithUser(_ context.Context, examID, userID uuid.UUID) (*model.SessionWithUser, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, s := range r.db.sessions {
		if s.ExamID != examID || s.UserID != userID {
			continue
		}
		u, ok := r.db.users[s.UserID]
		if !ok {
			return nil, pgx.ErrNoRows
		}
		return &model.SessionWithUser{ExamSession: *s, UserEmail: u.Email, Username: u.Username}, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *Sessions) ListByExam(_ context.Context, examID uuid.UUID) ([]model.SessionWithUser, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]model.SessionWithUser, 0)
	for _, s := range r.db.sessions {
		if s.ExamID != examID {
			continue
		}
		row := model.SessionWithUser{ExamSession: *s}
		if u, ok := r.db.users[s.UserID]; ok {
			row.UserEmail = u.Email
			row.Username = u.Username
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
