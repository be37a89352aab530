package coach

import (
	"fmt"
	"strings"

	"github.com/study-coach/backend/internal/models"
)

// Evaluate grades an answer against the question's variant. It never fails:
// an answer of the wrong shape or an unknown variant is graded incorrect
// with an explanation.
func Evaluate(q models.Question, answer models.Answer) models.EvaluationResult {
	switch v := q.Variant.(type) {
	case nil:
		// No payload means no answer key: nothing can match.
		return evaluateMultipleChoice(q, models.MultipleChoice{CorrectIndex: -1}, answer)
	case models.MultipleChoice:
		return evaluateMultipleChoice(q, v, answer)
	case models.ShortAnswer:
		return evaluateShortAnswer(q, v, answer)
	case models.CodeFill:
		return evaluateCodeFill(q, v, answer)
	case models.CodeDebug:
		return evaluateCodeDebug(q, v, answer)
	default:
		return models.EvaluationResult{
			IsCorrect:   false,
			Explanation: "This question type is not supported yet.",
		}
	}
}

func evaluateMultipleChoice(q models.Question, mc models.MultipleChoice, answer models.Answer) models.EvaluationResult {
	idx, ok := answer.Index()
	isCorrect := ok && mc.CorrectIndex >= 0 && idx == mc.CorrectIndex

	var detail string
	if isCorrect {
		detail = "Correct. Putting the reasoning into your own words will make it stick."
	} else {
		var correctText string
		if mc.CorrectIndex >= 0 && mc.CorrectIndex < len(mc.Choices) {
			correctText = mc.Choices[mc.CorrectIndex]
		}
		detail = fmt.Sprintf("Close! The correct answer is %q.", correctText)
	}

	return models.EvaluationResult{
		IsCorrect:   isCorrect,
		Explanation: detail + " " + q.Explanation,
	}
}

func evaluateShortAnswer(q models.Question, sa models.ShortAnswer, answer models.Answer) models.EvaluationResult {
	text, ok := answer.Text()
	if !ok {
		return formatMismatch("The answer format does not match. Try answering in text.")
	}

	submitted := normalize(text)
	isCorrect := false
	for _, expected := range append([]string{sa.ExpectedAnswer}, sa.AcceptableAnswers...) {
		if strings.Contains(submitted, normalize(expected)) {
			isCorrect = true
			break
		}
	}

	feedback := "Some key points are missing. Compare your answer with the explanation."
	if isCorrect {
		feedback = "The key points are covered."
	}
	return models.EvaluationResult{
		IsCorrect:   isCorrect,
		Explanation: composeExplanation(feedback, q),
	}
}

// evaluateCodeFill requires an exact token match, unlike short answers
// which accept any text containing an expected phrase.
func evaluateCodeFill(q models.Question, cf models.CodeFill, answer models.Answer) models.EvaluationResult {
	text, ok := answer.Text()
	if !ok {
		return formatMismatch("The answer format does not match. Enter the code fragment as text.")
	}

	isCorrect := normalize(text) == normalize(cf.ExpectedAnswer)

	feedback := fmt.Sprintf("The expected word is %q.", cf.ExpectedAnswer)
	if isCorrect {
		feedback = "The blank is filled in correctly."
	}
	return models.EvaluationResult{
		IsCorrect:   isCorrect,
		Explanation: composeExplanation(feedback, q),
	}
}

func evaluateCodeDebug(q models.Question, cd models.CodeDebug, answer models.Answer) models.EvaluationResult {
	text, ok := answer.Text()
	if !ok {
		return formatMismatch("Describe the fix as text.")
	}

	isCorrect := strings.Contains(normalize(text), normalize(cd.ExpectedFix))

	feedback := "Check the failing condition again."
	if isCorrect {
		feedback = "The fix is on the right track."
	}
	return models.EvaluationResult{
		IsCorrect:   isCorrect,
		Explanation: composeExplanation(feedback, q),
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func formatMismatch(explanation string) models.EvaluationResult {
	return models.EvaluationResult{IsCorrect: false, Explanation: explanation}
}

func composeExplanation(feedback string, q models.Question) string {
	var rubric string
	if q.Rubric != "" {
		rubric = "Rubric: " + q.Rubric
	}
	return strings.TrimSpace(feedback + " " + q.Explanation + " " + rubric)
}
