package coach

import (
	"time"

	"github.com/study-coach/backend/internal/models"
)

var baseTime = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func mcQuestion(id, topic string, correctIndex int) models.Question {
	return models.Question{
		ID:          id,
		Prompt:      "Pick one for " + id,
		Explanation: "Because.",
		Topic:       topic,
		Difficulty:  1,
		Variant: models.MultipleChoice{
			Choices:      []string{"a", "b", "c", "d"},
			CorrectIndex: correctIndex,
		},
	}
}

func attemptAt(q models.Question, correct bool, minutes int) models.Attempt {
	return models.Attempt{
		Question:   q,
		UserAnswer: models.ChoiceAnswer(0),
		IsCorrect:  correct,
		AskedAt:    baseTime.Add(time.Duration(minutes) * time.Minute).Format(time.RFC3339Nano),
	}
}

func ids(qs []models.Question) []string {
	out := make([]string, 0, len(qs))
	for _, q := range qs {
		out = append(out, q.ID)
	}
	return out
}
