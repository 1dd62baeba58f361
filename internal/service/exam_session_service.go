package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/unisphere/exam-backend/internal/model"
	"github.com/unisphere/exam-backend/internal/repository"
)

// ExamSessionService drives the attempt lifecycle of a (user, exam) pair:
// NO_SESSION -> ACTIVE -> COMPLETED. COMPLETED is terminal.
type ExamSessionService struct {
	exams     ExamStore
	questions QuestionStore
	sessions  SessionStore
	events    EventPublisher
	log       zerolog.Logger
	now       func() time.Time
}

// NewExamSessionService creates a new ExamSessionService.
func NewExamSessionService(
	exams ExamStore,
	questions QuestionStore,
	sessions SessionStore,
	events EventPublisher,
	log zerolog.Logger,
) *ExamSessionService {
	return &ExamSessionService{
		exams:     exams,
		questions: questions,
		sessions:  sessions,
		events:    events,
		log:       log.With().Str("component", "exam_session_service").Logger(),
		now:       time.Now,
	}
}

// stateError maps an existing session to the error a second start receives.
func stateError(s *model.ExamSession) error {
	if s.State() == model.SessionStateCompleted {
		return ErrExamAlreadyTaken
	}
	return ErrSessionExists
}

// Start opens a session for the user. The exam must exist and the current
// time must fall inside [start_time, end_time). Each user gets one attempt.
func (s *ExamSessionService) Start(ctx context.Context, userID, examID uuid.UUID) (*model.ExamSession, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("get exam: %w", err)
	}

	now := s.now()
	if !exam.IsOpenAt(now) {
		return nil, ErrInvalidTime
	}

	existing, err := s.sessions.GetByExamAndUser(ctx, examID, userID)
	switch {
	case err == nil:
		return nil, stateError(existing)
	case !errors.Is(err, pgx.ErrNoRows):
		return nil, fmt.Errorf("get session: %w", err)
	}

	session := &model.ExamSession{ExamID: examID, UserID: userID, StartTime: now}
	if err := s.sessions.Create(ctx, session); err != nil {
		if !errors.Is(err, repository.ErrSessionConflict) {
			return nil, fmt.Errorf("create session: %w", err)
		}
		// A concurrent start won the insert; report what it created.
		existing, gerr := s.sessions.GetByExamAndUser(ctx, examID, userID)
		if gerr != nil {
			return nil, fmt.Errorf("get session after conflict: %w", gerr)
		}
		return nil, stateError(existing)
	}

	s.publish(ctx, model.MonitorSessionStarted, session)
	s.log.Info().
		Str("exam_id", examID.String()).
		Str("user_id", userID.String()).
		Msg("Exam session started")

	return session, nil
}

// Submit stores the answers and completes the active session in one unit.
// Answers must reference questions of this exam and options of those
// questions; for repeated questions the last answer wins. An empty list
// is valid and still completes the session.
func (s *ExamSessionService) Submit(ctx context.Context, userID, examID uuid.UUID, answers []model.AnswerInput) (*model.ExamSession, error) {
	session, err := s.sessions.GetByExamAndUser(ctx, examID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session.State() != model.SessionStateActive {
		return nil, ErrSessionNotFound
	}

	questions, err := s.questions.ListByExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	normalized, err := normalizeAnswers(questions, answers)
	if err != nil {
		return nil, err
	}

	completed, err := s.sessions.Complete(ctx, session.ID, normalized, s.now())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("complete session: %w", err)
	}

	s.publish(ctx, model.MonitorSessionSubmitted, completed)
	s.log.Info().
		Str("exam_id", examID.String()).
		Str("user_id", userID.String()).
		Int("answers", len(normalized)).
		Msg("Exam session submitted")

	return completed, nil
}

// normalizeAnswers rejects answers outside the exam and keeps the last
// answer per question, preserving first-seen question order.
func normalizeAnswers(questions []model.Question, answers []model.AnswerInput) ([]model.ExamAnswer, error) {
	byID := make(map[uuid.UUID]*model.Question, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}

	fields := make(map[string]string)
	index := make(map[uuid.UUID]int, len(answers))
	out := make([]model.ExamAnswer, 0, len(answers))
	for i, a := range answers {
		q, ok := byID[a.QuestionID]
		if !ok {
			fields["answers["+strconv.Itoa(i)+"].question_id"] = "question does not belong to this exam"
			continue
		}
		if _, ok := q.Option(a.SelectedOptionID); !ok {
			fields["answers["+strconv.Itoa(i)+"].selected_option_id"] = "option does not belong to this question"
			continue
		}

		ans := model.ExamAnswer{QuestionID: a.QuestionID, SelectedOptionID: a.SelectedOptionID}
		if pos, seen := index[a.QuestionID]; seen {
			out[pos] = ans
			continue
		}
		index[a.QuestionID] = len(out)
		out = append(out, ans)
	}

	if len(fields) > 0 {
		return nil, &FieldErrors{Err: ErrInvalidAnswer, Fields: fields}
	}
	return out, nil
}

func (s *ExamSessionService) publish(ctx context.Context, t model.MonitorEventType, session *model.ExamSession) {
	userID, sessionID := session.UserID, session.ID
	ev := model.MonitorEvent{Type: t, ExamID: session.ExamID, UserID: &userID, SessionID: &sessionID, At: s.now()}
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.Warn().Err(err).Str("exam_id", session.ExamID.String()).Msg("Publish monitor event failed")
	}
}

// score loads the exam questions and session answers and grades them.
func (s *ExamSessionService) score(ctx context.Context, session *model.ExamSession) (model.ScoreReport, error) {
	questions, err := s.questions.ListByExam(ctx, session.ExamID)
	if err != nil {
		return model.ScoreReport{}, fmt.Errorf("list questions: %w", err)
	}
	answers, err := s.sessions.ListAnswers(ctx, session.ID)
	if err != nil {
		return model.ScoreReport{}, fmt.Errorf("list answers: %w", err)
	}
	return ScoreSession(questions, answers), nil
}

// Result returns the caller's own score summary for an exam.
func (s *ExamSessionService) Result(ctx context.Context, userID, examID uuid.UUID) (*model.ResultSummary, error) {
	session, err := s.sessions.GetByExamAndUser(ctx, examID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrResultsNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session.State() != model.SessionStateCompleted {
		return nil, ErrResultsNotFound
	}

	report, err := s.score(ctx, session)
	if err != nil {
		return nil, err
	}
	summary := report.Summary()
	return &summary, nil
}

// ListResults returns every completed result of the caller.
func (s *ExamSessionService) ListResults(ctx context.Context, userID uuid.UUID) ([]model.UserExamResult, error) {
	sessions, err := s.sessions.ListCompletedByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	results := make([]model.UserExamResult, 0, len(sessions))
	for i := range sessions {
		session := &sessions[i]
		exam, err := s.exams.GetByID(ctx, session.ExamID)
		if err != nil {
			return nil, fmt.Errorf("get exam %s: %w", session.ExamID, err)
		}
		report, err := s.score(ctx, session)
		if err != nil {
			return nil, err
		}
		results = append(results, model.UserExamResult{
			ExamID:        exam.ID,
			ExamTitle:     exam.Title,
			SessionID:     session.ID,
			CompletedAt:   session.EndTime,
			ResultSummary: report.Summary(),
		})
	}
	return results, nil
}

// ExamResults returns all sessions of an exam with per-question detail.
func (s *ExamSessionService) ExamResults(ctx context.Context, examID uuid.UUID) (*model.ExamResults, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("get exam: %w", err)
	}

	questions, err := s.questions.ListByExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	sessions, err := s.sessions.ListByExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	answers, err := s.sessions.ListAnswersByExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}

	out := &model.ExamResults{Exam: *exam, Sessions: make([]model.SessionResult, 0, len(sessions))}
	for i := range sessions {
		out.Sessions = append(out.Sessions, sessionResult(&sessions[i], questions, answers[sessions[i].ID]))
	}
	return out, nil
}

// UserResult returns one user's detailed result for an exam.
func (s *ExamSessionService) UserResult(ctx context.Context, examID, userID uuid.UUID) (*model.SessionResult, error) {
	if _, err := s.exams.GetByID(ctx, examID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("get exam: %w", err)
	}

	session, err := s.sessions.GetWithUser(ctx, examID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrResultsNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	questions, err := s.questions.ListByExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	answers, err := s.sessions.ListAnswers(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}

	result := sessionResult(session, questions, answers)
	return &result, nil
}

// sessionResult builds the admin view of one session. Score fields stay nil
// until the session is completed.
func sessionResult(s *model.SessionWithUser, questions []model.Question, answers []model.ExamAnswer) model.SessionResult {
	res := model.SessionResult{
		SessionID:      s.ID,
		UserID:         s.UserID,
		UserEmail:      s.UserEmail,
		Username:       s.Username,
		StartTime:      s.StartTime,
		EndTime:        s.EndTime,
		Completed:      s.Completed,
		TotalQuestions: len(questions),
		Answers:        []model.QuestionResult{},
	}
	if !s.Completed {
		return res
	}

	report := ScoreSession(questions, answers)
	score, correct := report.Score, report.CorrectAnswers
	res.Score = &score
	res.CorrectAnswers = &correct
	res.Answers = report.Questions
	return res
}
