package coach

import (
	"sort"

	"github.com/study-coach/backend/internal/models"
)

// CountMistakes returns the number of incorrect attempts per question id.
func CountMistakes(history []models.Attempt) map[string]int {
	counts := make(map[string]int)
	for _, attempt := range history {
		if !attempt.IsCorrect {
			counts[attempt.ID()]++
		}
	}
	return counts
}

// SortQueue returns a copy of the queue ordered by descending mistake count.
// Entries with equal counts keep their relative order.
func SortQueue(queue []models.Question, history []models.Attempt) []models.Question {
	mistakes := CountMistakes(history)
	sorted := make([]models.Question, len(queue))
	copy(sorted, queue)
	sort.SliceStable(sorted, func(i, j int) bool {
		return mistakes[sorted[i].ID] > mistakes[sorted[j].ID]
	})
	return sorted
}

// RecordAttempt appends the attempt to the history and applies the queue
// rules, returning new slices:
//
//   - a missed question from a regular quiz joins the queue once;
//   - a question answered from the queue leaves it, and goes back to the
//     tail if it was missed again.
//
// The returned queue is sorted against the updated history.
func RecordAttempt(queue []models.Question, history []models.Attempt, attempt models.Attempt, fromReview bool) ([]models.Question, []models.Attempt) {
	nextHistory := make([]models.Attempt, len(history), len(history)+1)
	copy(nextHistory, history)
	nextHistory = append(nextHistory, attempt)

	var nextQueue []models.Question
	if fromReview {
		nextQueue = withoutID(queue, attempt.ID())
		if !attempt.IsCorrect {
			nextQueue = append(nextQueue, attempt.Question)
		}
	} else {
		nextQueue = make([]models.Question, len(queue), len(queue)+1)
		copy(nextQueue, queue)
		if !attempt.IsCorrect && !containsID(queue, attempt.ID()) {
			nextQueue = append(nextQueue, attempt.Question)
		}
	}

	return SortQueue(nextQueue, nextHistory), nextHistory
}

// NextInQueue re-sorts the queue and returns its head together with the
// sorted queue. The head stays queued until it is answered. A nil question
// means the queue is empty.
func NextInQueue(queue []models.Question, history []models.Attempt) (*models.Question, []models.Question) {
	if len(queue) == 0 {
		return nil, []models.Question{}
	}
	sorted := SortQueue(queue, history)
	head := sorted[0]
	return &head, sorted
}

func containsID(queue []models.Question, id string) bool {
	for _, q := range queue {
		if q.ID == id {
			return true
		}
	}
	return false
}

func withoutID(queue []models.Question, id string) []models.Question {
	out := make([]models.Question, 0, len(queue))
	for _, q := range queue {
		if q.ID != id {
			out = append(out, q)
		}
	}
	return out
}
