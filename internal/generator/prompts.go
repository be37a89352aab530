package generator

import (
	"fmt"
	"strings"

	"github.com/study-coach/backend/internal/models"
)

const tutorSystemPrompt = `You are a patient programming tutor for a self-study learner.

RULES:
- Answer in at most 6 short sentences.
- Prefer one small code example over long prose.
- End with a single comprehension-check question the learner can answer in one word.
- Never give the answer to a quiz question the learner is currently working on.`

// TutorSystemPrompt returns the system prompt for chat replies.
func TutorSystemPrompt() string {
	return tutorSystemPrompt
}

// BuildChatUserPrompt wraps the learner's message with what is known about
// their progress so the model can focus the reply.
func BuildChatUserPrompt(message string, suggestion *models.LearningSuggestion, progress *models.Progress) string {
	var sb strings.Builder

	if progress != nil && progress.Overall.Total > 0 {
		sb.WriteString("LEARNER PROGRESS:\n")
		sb.WriteString(fmt.Sprintf("- answered %d, correct %d (%d%%)\n",
			progress.Overall.Total, progress.Overall.Correct, progress.Overall.Accuracy))
		for _, m := range progress.TopMistakes {
			sb.WriteString(fmt.Sprintf("- %s: %d wrong\n", m.Topic, m.Count))
		}
		sb.WriteString("\n")
	}

	if suggestion != nil {
		sb.WriteString(fmt.Sprintf("SUGGESTED FOCUS: %s (%s)\n\n", suggestion.Topic, suggestion.Reason))
	}

	sb.WriteString("LEARNER MESSAGE:\n")
	sb.WriteString(strings.TrimSpace(message))
	return sb.String()
}
