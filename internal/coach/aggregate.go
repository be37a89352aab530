package coach

import (
	"math"
	"time"

	"github.com/study-coach/backend/internal/models"
)

// AggregateTopics folds the history into one aggregate per topic, in the
// order topics are first seen. It is recomputed from scratch on every call.
func AggregateTopics(history []models.Attempt) []models.TopicAggregate {
	index := make(map[string]int)
	var out []models.TopicAggregate

	for _, attempt := range history {
		topic := attempt.Topic()
		i, ok := index[topic]
		if !ok {
			i = len(out)
			index[topic] = i
			out = append(out, models.TopicAggregate{Topic: topic})
		}

		agg := &out[i]
		agg.Total++
		if attempt.IsCorrect {
			agg.Correct++
		} else {
			agg.WrongCount++
		}
		if askedAt := AskedAtMillis(attempt.AskedAt); askedAt > agg.LastAsked {
			agg.LastAsked = askedAt
		}
	}

	for i := range out {
		out[i].Accuracy = Accuracy(out[i].Correct, out[i].Total)
	}
	return out
}

// AskedAtMillis parses an RFC 3339 timestamp into unix milliseconds.
// Unparseable values yield 0.
func AskedAtMillis(askedAt string) int64 {
	t, err := time.Parse(time.RFC3339Nano, askedAt)
	if err != nil {
		return 0
	}
	return t.UnixMilli()
}

// Accuracy returns correct/total as a rounded percentage, 0 when total is 0.
func Accuracy(correct, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(total) * 100))
}
