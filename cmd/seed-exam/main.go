package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/unisphere/exam-backend/internal/config"
	"github.com/unisphere/exam-backend/internal/database"
	"github.com/unisphere/exam-backend/internal/logger"
	"github.com/unisphere/exam-backend/internal/model"
	"github.com/unisphere/exam-backend/internal/repository"
	"github.com/unisphere/exam-backend/internal/service"
)

func sampleExam(start time.Time, window time.Duration) model.CreateExamRequest {
	return model.CreateExamRequest{
		Title:           "General Knowledge Quiz",
		Description:     "A short quiz to try the exam flow end to end",
		DurationMinutes: 30,
		StartTime:       start,
		EndTime:         start.Add(window),
		Questions: []model.CreateQuestionRequest{
			{
				Text: "Which planet is closest to the Sun?",
				Options: []model.CreateOptionRequest{
					{Text: "Venus"},
					{Text: "Mercury", Correct: true},
					{Text: "Mars"},
					{Text: "Earth"},
				},
			},
			{
				Text: "What is the chemical symbol for gold?",
				Options: []model.CreateOptionRequest{
					{Text: "Ag"},
					{Text: "Gd"},
					{Text: "Au", Correct: true},
					{Text: "Go"},
				},
			},
			{
				Text: "How many continents are there?",
				Options: []model.CreateOptionRequest{
					{Text: "5"},
					{Text: "6"},
					{Text: "7", Correct: true},
					{Text: "8"},
				},
			},
		},
	}
}

func main() {
	days := flag.Int("days", 7, "Number of days the exam stays open")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// Authoring needs neither the paper cache nor the monitor feed.
	examService := service.NewExamService(
		repository.NewExamRepository(pool),
		repository.NewQuestionRepository(pool),
		nil, nil, log,
	)

	fmt.Println("=== Seeding sample exam ===")

	req := sampleExam(time.Now().UTC(), time.Duration(*days)*24*time.Hour)
	detail, err := examService.Create(ctx, req)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create sample exam")
	}

	fmt.Printf("Created exam %q with ID %s (%d questions, open until %s)\n",
		detail.Title, detail.ID, len(detail.Questions), detail.EndTime.Format(time.RFC3339))
}
