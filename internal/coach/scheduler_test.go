package coach

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/study-coach/backend/internal/models"
)

func TestNextQuestion_LeastAskedFirst(t *testing.T) {
	q1 := mcQuestion("q1", "javascript", 0)
	q2 := mcQuestion("q2", "javascript", 0)
	q3 := mcQuestion("q3", "css", 0)
	bank := []models.Question{q1, q2, q3}

	history := []models.Attempt{
		attemptAt(q1, true, 0),
		attemptAt(q2, false, 1),
		attemptAt(q1, true, 2),
	}

	next, err := NextQuestion(bank, history)
	require.NoError(t, err)
	assert.Equal(t, "q3", next.ID)
}

func TestNextQuestion_TieBreakByBankOrder(t *testing.T) {
	q1 := mcQuestion("q1", "javascript", 0)
	q2 := mcQuestion("q2", "javascript", 0)
	q3 := mcQuestion("q3", "css", 0)
	bank := []models.Question{q1, q2, q3}

	next, err := NextQuestion(bank, nil)
	require.NoError(t, err)
	assert.Equal(t, "q1", next.ID)

	next, err = NextQuestion(bank, []models.Attempt{attemptAt(q1, true, 0)})
	require.NoError(t, err)
	assert.Equal(t, "q2", next.ID)
}

func TestNextQuestion_IgnoresUnknownIDs(t *testing.T) {
	q1 := mcQuestion("q1", "javascript", 0)
	stray := mcQuestion("gone", "javascript", 0)

	next, err := NextQuestion([]models.Question{q1}, []models.Attempt{attemptAt(stray, false, 0)})
	require.NoError(t, err)
	assert.Equal(t, "q1", next.ID)
}

func TestNextQuestion_EmptyBank(t *testing.T) {
	_, err := NextQuestion(nil, nil)
	assert.ErrorIs(t, err, ErrEmptyBank)
}

func TestNextQuestion_DoesNotReorderBank(t *testing.T) {
	q1 := mcQuestion("q1", "javascript", 0)
	q2 := mcQuestion("q2", "javascript", 0)
	bank := []models.Question{q1, q2}

	_, err := NextQuestion(bank, []models.Attempt{attemptAt(q1, true, 0)})
	require.NoError(t, err)
	assert.Equal(t, []string{"q1", "q2"}, ids(bank))
}

func TestSuggestTopic_EmptyHistory(t *testing.T) {
	s := SuggestTopic(nil)
	assert.Equal(t, DefaultSuggestedTopic, s.Topic)
	assert.NotEmpty(t, s.Reason)
}

func TestSuggestTopic_MostMistakesWins(t *testing.T) {
	css := mcQuestion("css-1", "css", 0)
	js := mcQuestion("js-1", "javascript", 0)

	history := []models.Attempt{
		attemptAt(css, false, 0),
		attemptAt(js, true, 1),
		attemptAt(js, true, 2),
	}

	s := SuggestTopic(history)
	assert.Equal(t, "css", s.Topic)
	assert.Equal(t, "Missed 1 times recently / Accuracy is low at 0%", s.Reason)
}

func TestSuggestTopic_AccuracyBreaksWrongCountTie(t *testing.T) {
	css := mcQuestion("css-1", "css", 0)
	js := mcQuestion("js-1", "javascript", 0)

	// css: 1 wrong of 3 (67%), javascript: 1 wrong of 1 (0%).
	history := []models.Attempt{
		attemptAt(css, false, 0),
		attemptAt(css, true, 1),
		attemptAt(css, true, 2),
		attemptAt(js, false, 3),
	}

	s := SuggestTopic(history)
	assert.Equal(t, "javascript", s.Topic)
}

func TestSuggestTopic_StalestTopicBreaksFullTie(t *testing.T) {
	css := mcQuestion("css-1", "css", 0)
	js := mcQuestion("js-1", "javascript", 0)

	history := []models.Attempt{
		attemptAt(js, true, 10),
		attemptAt(css, true, 5),
	}

	s := SuggestTopic(history)
	assert.Equal(t, "css", s.Topic)
	assert.Equal(t, "A short review will help it stick", s.Reason)
}

func TestSuggestTopic_CombinesReasons(t *testing.T) {
	web := mcQuestion("web-1", "web", 0)

	// 2 of 3 correct is 67%, below the threshold, with one miss.
	history := []models.Attempt{
		attemptAt(web, true, 0),
		attemptAt(web, true, 1),
		attemptAt(web, false, 2),
	}

	s := SuggestTopic(history)
	assert.Equal(t, "web", s.Topic)
	assert.Equal(t, "Missed 1 times recently / Accuracy is low at 67%", s.Reason)
}

func TestAggregateTopics(t *testing.T) {
	js := mcQuestion("js-1", "javascript", 0)
	untitled := mcQuestion("untitled", "", 0)

	history := []models.Attempt{
		attemptAt(js, true, 0),
		attemptAt(untitled, false, 1),
		attemptAt(js, false, 7),
		attemptAt(js, true, 3),
	}

	aggs := AggregateTopics(history)
	require.Len(t, aggs, 2)

	assert.Equal(t, "javascript", aggs[0].Topic)
	assert.Equal(t, 3, aggs[0].Total)
	assert.Equal(t, 2, aggs[0].Correct)
	assert.Equal(t, 1, aggs[0].WrongCount)
	assert.Equal(t, 67, aggs[0].Accuracy)
	assert.Equal(t, baseTime.Add(7*time.Minute).UnixMilli(), aggs[0].LastAsked)

	assert.Equal(t, models.DefaultTopic, aggs[1].Topic)
	assert.Equal(t, 0, aggs[1].Accuracy)

	assert.Equal(t, aggs, AggregateTopics(history))
}

func TestAggregateTopics_UnparseableAskedAt(t *testing.T) {
	js := mcQuestion("js-1", "javascript", 0)
	a := attemptAt(js, true, 0)
	a.AskedAt = "yesterday"

	aggs := AggregateTopics([]models.Attempt{a})
	require.Len(t, aggs, 1)
	assert.Equal(t, int64(0), aggs[0].LastAsked)
	assert.Equal(t, 100, aggs[0].Accuracy)
}

func TestAccuracy(t *testing.T) {
	assert.Equal(t, 0, Accuracy(0, 0))
	assert.Equal(t, 33, Accuracy(1, 3))
	assert.Equal(t, 67, Accuracy(2, 3))
	assert.Equal(t, 50, Accuracy(1, 2))
	assert.Equal(t, 100, Accuracy(4, 4))
}
