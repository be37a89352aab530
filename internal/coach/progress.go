package coach

import (
	"sort"

	"github.com/study-coach/backend/internal/models"
)

const topMistakeLimit = 3

// Summarize builds the progress view: overall accuracy, per-topic accuracy
// (most answered first) and the topics with the most wrong answers.
func Summarize(history []models.Attempt) models.Progress {
	var correct int
	for _, attempt := range history {
		if attempt.IsCorrect {
			correct++
		}
	}

	aggregates := AggregateTopics(history)

	topics := make([]models.TopicStat, 0, len(aggregates))
	mistakes := make([]models.MistakeStat, 0, len(aggregates))
	for _, agg := range aggregates {
		topics = append(topics, models.TopicStat{
			Topic:    agg.Topic,
			Total:    agg.Total,
			Correct:  agg.Correct,
			Accuracy: agg.Accuracy,
		})
		if agg.WrongCount > 0 {
			mistakes = append(mistakes, models.MistakeStat{Topic: agg.Topic, Count: agg.WrongCount})
		}
	}

	sort.SliceStable(topics, func(i, j int) bool {
		if topics[i].Total != topics[j].Total {
			return topics[i].Total > topics[j].Total
		}
		return topics[i].Accuracy > topics[j].Accuracy
	})
	sort.SliceStable(mistakes, func(i, j int) bool {
		return mistakes[i].Count > mistakes[j].Count
	})
	if len(mistakes) > topMistakeLimit {
		mistakes = mistakes[:topMistakeLimit]
	}

	return models.Progress{
		Overall: models.OverallStat{
			Total:    len(history),
			Correct:  correct,
			Accuracy: Accuracy(correct, len(history)),
		},
		Topics:      topics,
		TopMistakes: mistakes,
	}
}
