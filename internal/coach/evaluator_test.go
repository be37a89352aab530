package coach

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/study-coach/backend/internal/models"
)

func TestEvaluate_MultipleChoice(t *testing.T) {
	q, ok := DefaultBank().Lookup("arrays-basics")
	if !ok {
		t.Fatal("arrays-basics missing from default bank")
	}

	right := Evaluate(q, models.ChoiceAnswer(1))
	assert.True(t, right.IsCorrect)
	assert.Contains(t, right.Explanation, "Correct.")
	assert.Contains(t, right.Explanation, q.Explanation)

	wrong := Evaluate(q, models.ChoiceAnswer(0))
	assert.False(t, wrong.IsCorrect)
	assert.Contains(t, wrong.Explanation, `"length"`)
}

func TestEvaluate_MultipleChoiceTextAnswer(t *testing.T) {
	q := mcQuestion("mc", "web", 1)

	res := Evaluate(q, models.TextAnswer("1"))
	assert.False(t, res.IsCorrect)
}

func TestEvaluate_MissingVariantNeverCorrect(t *testing.T) {
	q := models.Question{ID: "bare", Prompt: "?", Explanation: "none"}

	for _, idx := range []int{-1, 0, 1} {
		assert.False(t, Evaluate(q, models.ChoiceAnswer(idx)).IsCorrect, "index %d", idx)
	}
}

func TestEvaluate_ShortAnswerContainsExpected(t *testing.T) {
	q := models.Question{
		ID:          "closure",
		Explanation: "Closures capture scope.",
		Rubric:      "Mentions scope",
		Variant:     models.ShortAnswer{ExpectedAnswer: "scope"},
	}

	res := Evaluate(q, models.TextAnswer("It holds the outer SCOPE variables"))
	assert.True(t, res.IsCorrect)
	assert.Equal(t, "The key points are covered. Closures capture scope. Rubric: Mentions scope", res.Explanation)

	miss := Evaluate(q, models.TextAnswer("it is a loop"))
	assert.False(t, miss.IsCorrect)
}

func TestEvaluate_ShortAnswerAcceptableAnswers(t *testing.T) {
	q, _ := DefaultBank().Lookup("shortanswer-scope")

	res := Evaluate(q, models.TextAnswer("A closure is a function bundled with its lexical environment."))
	assert.True(t, res.IsCorrect)

	res = Evaluate(q, models.TextAnswer("a function"))
	assert.False(t, res.IsCorrect)
}

func TestEvaluate_CodeFillExactMatch(t *testing.T) {
	q, _ := DefaultBank().Lookup("codefill-map")

	assert.True(t, Evaluate(q, models.TextAnswer(" Map ")).IsCorrect)
	assert.False(t, Evaluate(q, models.TextAnswer("filter")).IsCorrect)
	assert.False(t, Evaluate(q, models.TextAnswer("map(n => n * 2)")).IsCorrect)
}

func TestEvaluate_CodeDebugContainsFix(t *testing.T) {
	q, _ := DefaultBank().Lookup("codedebug-offbyone")

	assert.True(t, Evaluate(q, models.TextAnswer("change it to for (let i = 0; I < ARR.LENGTH; i++)")).IsCorrect)
	assert.False(t, Evaluate(q, models.TextAnswer("i <= arr.length - 1")).IsCorrect)
}

func TestEvaluate_FormatMismatch(t *testing.T) {
	tests := []struct {
		name string
		id   string
	}{
		{"short answer", "shortanswer-scope"},
		{"code fill", "codefill-map"},
		{"code debug", "codedebug-offbyone"},
	}

	bank := DefaultBank()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, _ := bank.Lookup(tt.id)
			res := Evaluate(q, models.ChoiceAnswer(0))
			assert.False(t, res.IsCorrect)
			assert.NotEmpty(t, res.Explanation)
			assert.NotContains(t, res.Explanation, q.Explanation)
		})
	}
}

func TestEvaluate_UnsupportedVariant(t *testing.T) {
	q := models.Question{ID: "essay", Variant: models.Unsupported{Tag: "essay"}}

	res := Evaluate(q, models.TextAnswer("anything"))
	assert.False(t, res.IsCorrect)
	assert.Equal(t, "This question type is not supported yet.", res.Explanation)
}
