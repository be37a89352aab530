package coach

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/study-coach/backend/internal/generator"
	"github.com/study-coach/backend/internal/logger"
	"github.com/study-coach/backend/internal/models"
)

// Coach is what a session needs from a tutor: chat, scheduling and grading.
type Coach interface {
	Name() string
	ChatReply(ctx context.Context, message string, history []models.Attempt) string
	NextQuestion(history []models.Attempt) (models.Question, error)
	Evaluate(q models.Question, answer models.Answer) models.EvaluationResult
	Suggest(history []models.Attempt) models.LearningSuggestion
}

// shortMessageRunes is the length under which a chat message is considered
// too terse to answer well.
const shortMessageRunes = 20

// RuleTutor is the deterministic coach backed by a fixed bank.
type RuleTutor struct {
	bank *Bank
}

func NewRuleTutor(bank *Bank) *RuleTutor {
	return &RuleTutor{bank: bank}
}

func (t *RuleTutor) Name() string { return "RuleTutor" }

func (t *RuleTutor) Bank() *Bank { return t.bank }

func (t *RuleTutor) ChatReply(_ context.Context, message string, _ []models.Attempt) string {
	summary := "Good question. Keep digging into the parts you are unsure about."
	if utf8.RuneCountInString(message) < shortMessageRunes {
		summary = "Try describing your question in a bit more detail."
	}
	body := "Key point: the more specific the topic, the more focused the explanation. " +
		"A short code sample or what you already know helps too."
	check := "Comprehension check: in one word, which property gives the length of a JavaScript array?"

	return strings.Join([]string{summary, body, check}, "\n")
}

func (t *RuleTutor) NextQuestion(history []models.Attempt) (models.Question, error) {
	return NextQuestion(t.bank.questions, history)
}

func (t *RuleTutor) Evaluate(q models.Question, answer models.Answer) models.EvaluationResult {
	return Evaluate(q, answer)
}

func (t *RuleTutor) Suggest(history []models.Attempt) models.LearningSuggestion {
	return SuggestTopic(history)
}

// LLMTutor answers chat through a language model and falls back to a fixed
// message when the model is unavailable. Quiz scheduling and grading stay
// rule based.
type LLMTutor struct {
	*RuleTutor
	llm generator.LLMClient
	log *logger.Logger
}

const llmFallbackReply = "The language model is not available right now. Switch to the rule-based tutor or try again later."

func NewLLMTutor(bank *Bank, llm generator.LLMClient, log *logger.Logger) *LLMTutor {
	return &LLMTutor{RuleTutor: NewRuleTutor(bank), llm: llm, log: log}
}

func (t *LLMTutor) Name() string { return "LlmTutor" }

func (t *LLMTutor) ChatReply(ctx context.Context, message string, history []models.Attempt) string {
	if t.llm == nil {
		return llmFallbackReply
	}

	suggestion := t.Suggest(history)
	progress := Summarize(history)
	prompt := generator.BuildChatUserPrompt(message, &suggestion, &progress)

	resp, err := t.llm.Generate(ctx, generator.TutorSystemPrompt(), prompt)
	if err != nil {
		t.log.Warn("chat reply generation failed", "error", err)
		return llmFallbackReply
	}
	t.log.Debug("chat reply generated", "prompt_tokens", resp.PromptTokens, "output_tokens", resp.OutputTokens)
	return strings.TrimSpace(resp.Content)
}
