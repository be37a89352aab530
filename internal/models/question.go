package models

import (
	"encoding/json"
	"fmt"
)

type QuestionType string

const (
	TypeMultipleChoice QuestionType = "multipleChoice"
	TypeShortAnswer    QuestionType = "shortAnswer"
	TypeCodeFill       QuestionType = "codeFill"
	TypeCodeDebug      QuestionType = "codeDebug"
)

// DefaultTopic is used for questions and attempts that carry no topic.
const DefaultTopic = "general"

// ── Variants ────────────────────────────────────────────

// Variant is the type-specific payload of a Question. The set of
// implementations is closed; graders switch over the concrete types.
type Variant interface {
	Type() QuestionType
	isVariant()
}

type MultipleChoice struct {
	Choices      []string
	CorrectIndex int
}

type ShortAnswer struct {
	ExpectedAnswer    string
	AcceptableAnswers []string
}

type CodeFill struct {
	CodeTemplate   string
	ExpectedAnswer string
	ExpectedOutput string
}

type CodeDebug struct {
	BuggySnippet   string
	ExpectedFix    string
	ExpectedOutput string
}

// Unsupported holds a question whose type tag is not recognized, so it can
// still be stored and replayed without being dropped.
type Unsupported struct {
	Tag string
}

func (MultipleChoice) Type() QuestionType { return TypeMultipleChoice }
func (ShortAnswer) Type() QuestionType    { return TypeShortAnswer }
func (CodeFill) Type() QuestionType       { return TypeCodeFill }
func (CodeDebug) Type() QuestionType      { return TypeCodeDebug }
func (u Unsupported) Type() QuestionType  { return QuestionType(u.Tag) }

func (MultipleChoice) isVariant() {}
func (ShortAnswer) isVariant()    {}
func (CodeFill) isVariant()       {}
func (CodeDebug) isVariant()      {}
func (Unsupported) isVariant()    {}

// ── Question ────────────────────────────────────────────

type Question struct {
	ID          string
	Prompt      string
	Explanation string
	Topic       string
	Difficulty  int // 1-5, 0 when unset
	Hints       []string
	Rubric      string
	Variant     Variant
}

// TopicOrDefault returns the question topic, falling back to DefaultTopic.
func (q Question) TopicOrDefault() string {
	if q.Topic == "" {
		return DefaultTopic
	}
	return q.Topic
}

// Type returns the variant tag, treating a missing variant as multiple choice.
func (q Question) Type() QuestionType {
	if q.Variant == nil {
		return TypeMultipleChoice
	}
	return q.Variant.Type()
}

// CorrectAnswer returns the display text of the expected answer.
func (q Question) CorrectAnswer() string {
	switch v := q.Variant.(type) {
	case MultipleChoice:
		if v.CorrectIndex >= 0 && v.CorrectIndex < len(v.Choices) {
			return v.Choices[v.CorrectIndex]
		}
	case ShortAnswer:
		return v.ExpectedAnswer
	case CodeFill:
		return v.ExpectedAnswer
	case CodeDebug:
		return v.ExpectedFix
	}
	return ""
}

// Public strips answer keys so the question can be shown before grading.
func (q Question) Public() PublicQuestion {
	pq := PublicQuestion{
		ID:         q.ID,
		Type:       q.Type(),
		Prompt:     q.Prompt,
		Topic:      q.TopicOrDefault(),
		Difficulty: q.Difficulty,
		Hints:      q.Hints,
	}
	switch v := q.Variant.(type) {
	case MultipleChoice:
		pq.Choices = v.Choices
	case CodeFill:
		pq.CodeTemplate = v.CodeTemplate
	case CodeDebug:
		pq.BuggySnippet = v.BuggySnippet
	}
	return pq
}

// PublicQuestion is the learner-facing view of a Question.
type PublicQuestion struct {
	ID           string       `json:"id"`
	Type         QuestionType `json:"type"`
	Prompt       string       `json:"prompt"`
	Topic        string       `json:"topic"`
	Difficulty   int          `json:"difficulty,omitempty"`
	Hints        []string     `json:"hints,omitempty"`
	Choices      []string     `json:"choices,omitempty"`
	CodeTemplate string       `json:"codeTemplate,omitempty"`
	BuggySnippet string       `json:"buggySnippet,omitempty"`
}

// questionJSON is the flat wire form: one object with a "type" tag and the
// union of all variant fields.
type questionJSON struct {
	ID                string       `json:"id"`
	Type              QuestionType `json:"type,omitempty"`
	Prompt            string       `json:"prompt"`
	Explanation       string       `json:"explanation"`
	Topic             string       `json:"topic,omitempty"`
	Difficulty        int          `json:"difficulty,omitempty"`
	Hints             []string     `json:"hints,omitempty"`
	Rubric            string       `json:"rubric,omitempty"`
	Choices           []string     `json:"choices,omitempty"`
	CorrectIndex      *int         `json:"correctIndex,omitempty"`
	ExpectedAnswer    string       `json:"expectedAnswer,omitempty"`
	AcceptableAnswers []string     `json:"acceptableAnswers,omitempty"`
	CodeTemplate      string       `json:"codeTemplate,omitempty"`
	ExpectedOutput    string       `json:"expectedOutput,omitempty"`
	BuggySnippet      string       `json:"buggySnippet,omitempty"`
	ExpectedFix       string       `json:"expectedFix,omitempty"`
}

func (q Question) MarshalJSON() ([]byte, error) {
	out := questionJSON{
		ID:          q.ID,
		Type:        q.Type(),
		Prompt:      q.Prompt,
		Explanation: q.Explanation,
		Topic:       q.Topic,
		Difficulty:  q.Difficulty,
		Hints:       q.Hints,
		Rubric:      q.Rubric,
	}
	switch v := q.Variant.(type) {
	case MultipleChoice:
		idx := v.CorrectIndex
		out.Choices = v.Choices
		out.CorrectIndex = &idx
	case ShortAnswer:
		out.ExpectedAnswer = v.ExpectedAnswer
		out.AcceptableAnswers = v.AcceptableAnswers
	case CodeFill:
		out.CodeTemplate = v.CodeTemplate
		out.ExpectedAnswer = v.ExpectedAnswer
		out.ExpectedOutput = v.ExpectedOutput
	case CodeDebug:
		out.BuggySnippet = v.BuggySnippet
		out.ExpectedFix = v.ExpectedFix
		out.ExpectedOutput = v.ExpectedOutput
	}
	return json.Marshal(out)
}

func (q *Question) UnmarshalJSON(data []byte) error {
	var in questionJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("decode question: %w", err)
	}

	*q = Question{
		ID:          in.ID,
		Prompt:      in.Prompt,
		Explanation: in.Explanation,
		Topic:       in.Topic,
		Difficulty:  in.Difficulty,
		Hints:       in.Hints,
		Rubric:      in.Rubric,
	}

	switch in.Type {
	case "", TypeMultipleChoice:
		mc := MultipleChoice{Choices: in.Choices}
		if in.CorrectIndex != nil {
			mc.CorrectIndex = *in.CorrectIndex
		}
		q.Variant = mc
	case TypeShortAnswer:
		q.Variant = ShortAnswer{ExpectedAnswer: in.ExpectedAnswer, AcceptableAnswers: in.AcceptableAnswers}
	case TypeCodeFill:
		q.Variant = CodeFill{CodeTemplate: in.CodeTemplate, ExpectedAnswer: in.ExpectedAnswer, ExpectedOutput: in.ExpectedOutput}
	case TypeCodeDebug:
		q.Variant = CodeDebug{BuggySnippet: in.BuggySnippet, ExpectedFix: in.ExpectedFix, ExpectedOutput: in.ExpectedOutput}
	default:
		q.Variant = Unsupported{Tag: string(in.Type)}
	}
	return nil
}
