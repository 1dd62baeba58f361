package service

import (
	"github.com/google/uuid"
	"github.com/unisphere/exam-backend/internal/model"
)

// ScoreSession grades a completed session. A question counts as correct only
// when it is sealed and the selected option equals its correct option.
// Missing answers are incorrect. With no questions the score is 0.
func ScoreSession(questions []model.Question, answers []model.ExamAnswer) model.ScoreReport {
	selected := make(map[uuid.UUID]uuid.UUID, len(answers))
	for _, a := range answers {
		selected[a.QuestionID] = a.SelectedOptionID
	}

	report := model.ScoreReport{
		TotalQuestions: len(questions),
		Questions:      make([]model.QuestionResult, 0, len(questions)),
	}

	for i := range questions {
		q := &questions[i]
		qr := model.QuestionResult{
			QuestionID:      q.ID,
			QuestionText:    q.Text,
			CorrectOptionID: q.CorrectOptionID,
		}

		if q.CorrectOptionID != nil {
			if opt, ok := q.Option(*q.CorrectOptionID); ok {
				text := opt.Text
				qr.CorrectOptionText = &text
			}
		}

		if optID, ok := selected[q.ID]; ok {
			id := optID
			qr.SelectedOptionID = &id
			if opt, ok := q.Option(optID); ok {
				text := opt.Text
				qr.SelectedOptionText = &text
			}
			qr.IsCorrect = q.IsSealed() && *q.CorrectOptionID == optID
		}

		if qr.IsCorrect {
			report.CorrectAnswers++
		}
		report.Questions = append(report.Questions, qr)
	}

	report.IncorrectAnswers = report.TotalQuestions - report.CorrectAnswers
	if report.TotalQuestions > 0 {
		report.Score = 100 * float64(report.CorrectAnswers) / float64(report.TotalQuestions)
	}
	return report
}
