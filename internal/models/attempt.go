package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Answer is a submitted answer: a choice index for multiple choice
// questions, free text for everything else.
type Answer struct {
	index  int
	text   string
	isText bool
}

func ChoiceAnswer(index int) Answer { return Answer{index: index} }
func TextAnswer(text string) Answer { return Answer{text: text, isText: true} }

// Index returns the choice index and whether the answer is an index.
func (a Answer) Index() (int, bool) { return a.index, !a.isText }

// Text returns the free text and whether the answer is text.
func (a Answer) Text() (string, bool) { return a.text, a.isText }

func (a Answer) String() string {
	if a.isText {
		return a.text
	}
	return strconv.Itoa(a.index)
}

func (a Answer) MarshalJSON() ([]byte, error) {
	if a.isText {
		return json.Marshal(a.text)
	}
	return json.Marshal(a.index)
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = TextAnswer(s)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("answer must be a number or a string: %w", err)
	}
	*a = ChoiceAnswer(n)
	return nil
}

// ── Attempt ─────────────────────────────────────────────

// Attempt is one graded answer. Attempts are appended to the history log
// and never modified afterwards.
type Attempt struct {
	Question    Question `json:"question"`
	UserAnswer  Answer   `json:"userAnswer"`
	IsCorrect   bool     `json:"isCorrect"`
	AskedAt     string   `json:"askedAt"`
	Explanation string   `json:"explanation"`
}

// ID is the id of the answered question.
func (a Attempt) ID() string { return a.Question.ID }

// Topic is the answered question's topic with the default applied.
func (a Attempt) Topic() string { return a.Question.TopicOrDefault() }

// UserAnswerText renders the submitted answer for display, resolving
// choice indexes to their text where possible.
func (a Attempt) UserAnswerText() string {
	if idx, ok := a.UserAnswer.Index(); ok {
		if mc, isMC := a.Question.Variant.(MultipleChoice); isMC && idx >= 0 && idx < len(mc.Choices) {
			return mc.Choices[idx]
		}
	}
	return a.UserAnswer.String()
}

type EvaluationResult struct {
	IsCorrect   bool   `json:"isCorrect"`
	Explanation string `json:"explanation"`
}

// TopicAggregate is a per-topic rollup derived from the history.
type TopicAggregate struct {
	Topic      string `json:"topic"`
	Total      int    `json:"total"`
	Correct    int    `json:"correct"`
	WrongCount int    `json:"wrongCount"`
	LastAsked  int64  `json:"lastAsked"` // unix millis, 0 when unknown
	Accuracy   int    `json:"accuracy"`  // rounded percent
}

type LearningSuggestion struct {
	Topic  string `json:"topic"`
	Reason string `json:"reason"`
}

// ── Progress ────────────────────────────────────────────

type OverallStat struct {
	Total    int `json:"total"`
	Correct  int `json:"correct"`
	Accuracy int `json:"accuracy"`
}

type TopicStat struct {
	Topic    string `json:"topic"`
	Total    int    `json:"total"`
	Correct  int    `json:"correct"`
	Accuracy int    `json:"accuracy"`
}

type MistakeStat struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
}

type Progress struct {
	Overall     OverallStat   `json:"overall"`
	Topics      []TopicStat   `json:"topics"`
	TopMistakes []MistakeStat `json:"topMistakes"`
}

// View renders the attempt for the result panel.
func (a Attempt) View() AttemptView {
	v := AttemptView{
		QuestionID:    a.ID(),
		UserAnswer:    a.UserAnswerText(),
		CorrectAnswer: a.Question.CorrectAnswer(),
		IsCorrect:     a.IsCorrect,
		Explanation:   a.Explanation,
		Rubric:        a.Question.Rubric,
		AskedAt:       a.AskedAt,
	}
	switch q := a.Question.Variant.(type) {
	case CodeFill:
		v.ExpectedOutput = q.ExpectedOutput
	case CodeDebug:
		v.ExpectedOutput = q.ExpectedOutput
	}
	return v
}
