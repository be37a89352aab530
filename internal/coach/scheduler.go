package coach

import (
	"fmt"
	"sort"
	"strings"

	"github.com/study-coach/backend/internal/models"
)

const (
	// DefaultSuggestedTopic is recommended before any attempt is recorded.
	DefaultSuggestedTopic = "javascript"

	// LowAccuracyThreshold marks a topic's accuracy as worth mentioning.
	LowAccuracyThreshold = 70
)

// NextQuestion returns the least-asked question in the bank. Among equally
// asked questions the one cataloged first wins, so untouched questions are
// always served before repeats.
func NextQuestion(bank []models.Question, history []models.Attempt) (models.Question, error) {
	if len(bank) == 0 {
		return models.Question{}, ErrEmptyBank
	}

	asked := make(map[string]int, len(bank))
	for _, attempt := range history {
		asked[attempt.ID()]++
	}

	sorted := make([]models.Question, len(bank))
	copy(sorted, bank)
	sort.SliceStable(sorted, func(i, j int) bool {
		return asked[sorted[i].ID] < asked[sorted[j].ID]
	})
	return sorted[0], nil
}

// SuggestTopic recommends the weakest topic: most wrong answers first, then
// lowest accuracy, then the topic seen least recently.
func SuggestTopic(history []models.Attempt) models.LearningSuggestion {
	if len(history) == 0 {
		return models.LearningSuggestion{
			Topic:  DefaultSuggestedTopic,
			Reason: "There is no answer history yet, so start with the JavaScript basics.",
		}
	}

	ranked := AggregateTopics(history)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.WrongCount != b.WrongCount {
			return a.WrongCount > b.WrongCount
		}
		if a.Accuracy != b.Accuracy {
			return a.Accuracy < b.Accuracy
		}
		return a.LastAsked < b.LastAsked
	})

	pick := ranked[0]
	var reasons []string
	if pick.WrongCount > 0 {
		reasons = append(reasons, fmt.Sprintf("Missed %d times recently", pick.WrongCount))
	}
	if pick.Accuracy < LowAccuracyThreshold {
		reasons = append(reasons, fmt.Sprintf("Accuracy is low at %d%%", pick.Accuracy))
	}
	if len(reasons) == 0 {
		reasons = append(reasons, "A short review will help it stick")
	}

	return models.LearningSuggestion{
		Topic:  pick.Topic,
		Reason: strings.Join(reasons, " / "),
	}
}
