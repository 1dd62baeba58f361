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
)

// ExamService handles the exam catalog: authoring, listing, papers and deletion.
type ExamService struct {
	exams     ExamStore
	questions QuestionStore
	cache     PaperCache
	events    EventPublisher
	log       zerolog.Logger
	now       func() time.Time
}

// NewExamService creates a new ExamService.
func NewExamService(
	exams ExamStore,
	questions QuestionStore,
	cache PaperCache,
	events EventPublisher,
	log zerolog.Logger,
) *ExamService {
	return &ExamService{
		exams:     exams,
		questions: questions,
		cache:     cache,
		events:    events,
		log:       log.With().Str("component", "exam_service").Logger(),
		now:       time.Now,
	}
}

// GetByID retrieves an exam.
func (s *ExamService) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	e, err := s.exams.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExamNotFound
		}
		return nil, err
	}
	return e, nil
}

// ListOpen lists exams whose window contains the current time.
func (s *ExamService) ListOpen(ctx context.Context) ([]model.Exam, error) {
	return s.exams.ListOpen(ctx, s.now())
}

// ListAll lists every exam, newest first.
func (s *ExamService) ListAll(ctx context.Context) ([]model.Exam, error) {
	return s.exams.ListAll(ctx)
}

// Create authors an exam with its questions and options in one unit.
// Every question must flag exactly one option as correct.
func (s *ExamService) Create(ctx context.Context, req model.CreateExamRequest) (*model.ExamDetail, error) {
	fields := make(map[string]string)
	questions := make([]model.Question, len(req.Questions))
	for i, rq := range req.Questions {
		correct := 0
		opts := make([]model.QuestionOption, len(rq.Options))
		for j, ro := range rq.Options {
			opts[j] = model.QuestionOption{Text: ro.Text, Correct: ro.Correct}
			if ro.Correct {
				correct++
			}
		}
		if correct != 1 {
			fields["questions["+strconv.Itoa(i)+"].options"] = fmt.Sprintf("exactly one option must be correct, got %d", correct)
		}
		questions[i] = model.Question{Text: rq.Text, Options: opts}
	}
	if len(fields) > 0 {
		return nil, &FieldErrors{Err: ErrInvalidCorrectOption, Fields: fields}
	}

	exam := &model.Exam{
		Title:           req.Title,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		StartTime:       req.StartTime.UTC(),
		EndTime:         req.EndTime.UTC(),
	}
	if err := s.exams.CreateWithQuestions(ctx, exam, questions); err != nil {
		return nil, fmt.Errorf("create exam: %w", err)
	}

	s.log.Info().
		Str("exam_id", exam.ID.String()).
		Int("questions", len(questions)).
		Msg("Exam created")

	return &model.ExamDetail{Exam: *exam, Questions: questions}, nil
}

// GetDetail returns the admin view of an exam, including correctness.
func (s *ExamService) GetDetail(ctx context.Context, id uuid.UUID) (*model.ExamDetail, error) {
	exam, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	questions, err := s.questions.ListByExam(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return &model.ExamDetail{Exam: *exam, Questions: questions}, nil
}

// GetPaper returns the user-facing exam paper. Redis is consulted first;
// any cache failure falls back to PostgreSQL and is only logged.
func (s *ExamService) GetPaper(ctx context.Context, id uuid.UUID) (*model.ExamPaper, error) {
	paper, ok, err := s.cache.Get(ctx, id)
	if err != nil {
		s.log.Warn().Err(err).Str("exam_id", id.String()).Msg("Paper cache read failed, falling back to DB")
	}
	if ok {
		return paper, nil
	}

	paper, err = s.buildPaper(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, paper); err != nil {
		s.log.Warn().Err(err).Str("exam_id", id.String()).Msg("Paper cache write failed")
	}
	return paper, nil
}

func (s *ExamService) buildPaper(ctx context.Context, id uuid.UUID) (*model.ExamPaper, error) {
	exam, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	questions, err := s.questions.ListByExam(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	paper := &model.ExamPaper{Exam: *exam, Questions: make([]model.PaperQuestion, len(questions))}
	for i := range questions {
		paper.Questions[i] = questions[i].Paper()
	}
	return paper, nil
}

// PrewarmOpenPapers loads the papers of all currently open exams into Redis.
// Failures are logged per exam and never abort startup.
func (s *ExamService) PrewarmOpenPapers(ctx context.Context) error {
	exams, err := s.ListOpen(ctx)
	if err != nil {
		return fmt.Errorf("list open exams: %w", err)
	}
	if len(exams) == 0 {
		s.log.Info().Msg("No open exams to prewarm")
		return nil
	}

	warmed := 0
	for i := range exams {
		paper, err := s.buildPaper(ctx, exams[i].ID)
		if err == nil {
			err = s.cache.Set(ctx, paper)
		}
		if err != nil {
			s.log.Warn().
				Err(err).
				Str("exam_id", exams[i].ID.String()).
				Msg("Failed to warm exam paper, skipping")
			continue
		}
		warmed++
	}

	s.log.Info().
		Int("warmed", warmed).
		Int("total", len(exams)).
		Msg("Prewarming complete")
	return nil
}

// Delete removes the exam and all dependent rows atomically.
func (s *ExamService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.exams.DeleteCascade(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrExamNotFound
		}
		return fmt.Errorf("delete exam: %w", err)
	}

	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.log.Warn().Err(err).Str("exam_id", id.String()).Msg("Paper cache invalidation failed")
	}
	if err := s.events.Publish(ctx, model.MonitorEvent{Type: model.MonitorExamDeleted, ExamID: id, At: s.now()}); err != nil {
		s.log.Warn().Err(err).Str("exam_id", id.String()).Msg("Publish monitor event failed")
	}

	s.log.Info().Str("exam_id", id.String()).Msg("Exam deleted")
	return nil
}
