package coach

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/study-coach/backend/internal/models"
)

// Bank is a validated, non-empty, read-only question catalog.
type Bank struct {
	questions []models.Question
	byID      map[string]int
}

// NewBank validates the questions and builds a bank. Order is preserved and
// acts as the scheduler's tie-break.
func NewBank(questions []models.Question) (*Bank, error) {
	if len(questions) == 0 {
		return nil, ErrEmptyBank
	}

	b := &Bank{
		questions: make([]models.Question, len(questions)),
		byID:      make(map[string]int, len(questions)),
	}
	copy(b.questions, questions)

	for i, q := range b.questions {
		if err := validateQuestion(q); err != nil {
			return nil, err
		}
		if _, dup := b.byID[q.ID]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateID, q.ID)
		}
		b.byID[q.ID] = i
	}
	return b, nil
}

// LoadBankFile reads a JSON array of questions from path.
func LoadBankFile(path string) (*Bank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bank file: %w", err)
	}
	var questions []models.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("parse bank file: %w", err)
	}
	return NewBank(questions)
}

func validateQuestion(q models.Question) error {
	if q.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidQuestion)
	}
	if q.Difficulty < 0 || q.Difficulty > 5 {
		return fmt.Errorf("%w: %s: difficulty %d outside [1, 5]", ErrInvalidQuestion, q.ID, q.Difficulty)
	}
	switch v := q.Variant.(type) {
	case models.MultipleChoice:
		if len(v.Choices) < 2 {
			return fmt.Errorf("%w: %s: expected at least 2 choices, got %d", ErrInvalidQuestion, q.ID, len(v.Choices))
		}
		if v.CorrectIndex < 0 || v.CorrectIndex >= len(v.Choices) {
			return fmt.Errorf("%w: %s: correctIndex %d out of range", ErrInvalidQuestion, q.ID, v.CorrectIndex)
		}
	// Substring grading treats an empty key as matching every answer.
	case models.ShortAnswer:
		if blank(v.ExpectedAnswer) {
			return fmt.Errorf("%w: %s: empty expectedAnswer", ErrInvalidQuestion, q.ID)
		}
		for _, alt := range v.AcceptableAnswers {
			if blank(alt) {
				return fmt.Errorf("%w: %s: empty entry in acceptableAnswers", ErrInvalidQuestion, q.ID)
			}
		}
	case models.CodeFill:
		if blank(v.ExpectedAnswer) {
			return fmt.Errorf("%w: %s: empty expectedAnswer", ErrInvalidQuestion, q.ID)
		}
	case models.CodeDebug:
		if blank(v.ExpectedFix) {
			return fmt.Errorf("%w: %s: empty expectedFix", ErrInvalidQuestion, q.ID)
		}
	case nil:
		return fmt.Errorf("%w: %s: no variant", ErrInvalidQuestion, q.ID)
	default:
		return fmt.Errorf("%w: %s: unsupported type %q", ErrInvalidQuestion, q.ID, q.Variant.Type())
	}
	return nil
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }

// Questions returns a copy of the catalog in bank order.
func (b *Bank) Questions() []models.Question {
	out := make([]models.Question, len(b.questions))
	copy(out, b.questions)
	return out
}

func (b *Bank) Len() int { return len(b.questions) }

func (b *Bank) Lookup(id string) (models.Question, bool) {
	i, ok := b.byID[id]
	if !ok {
		return models.Question{}, false
	}
	return b.questions[i], true
}

// DefaultBank returns the built-in catalog.
func DefaultBank() *Bank {
	b, err := NewBank(defaultQuestions())
	if err != nil {
		panic(err)
	}
	return b
}

func defaultQuestions() []models.Question {
	return []models.Question{
		{
			ID:          "arrays-basics",
			Prompt:      "Which property gives the number of elements in an array?",
			Explanation: "In JavaScript the Array.length property returns the number of elements.",
			Topic:       "javascript",
			Difficulty:  1,
			Hints:       []string{"The property name is a single word meaning \"how long\"."},
			Rubric:      "Picks the correct property name",
			Variant: models.MultipleChoice{
				Choices:      []string{"count", "length", "size", "items"},
				CorrectIndex: 1,
			},
		},
		{
			ID:          "promise-state",
			Prompt:      "Which of these is NOT a Promise state?",
			Explanation: "A Promise moves from pending to either fulfilled or rejected. There is no cancelled state.",
			Topic:       "javascript",
			Difficulty:  2,
			Hints:       []string{"A Promise lifecycle has three states."},
			Rubric:      "Identifies the state that does not exist",
			Variant: models.MultipleChoice{
				Choices:      []string{"pending", "rejected", "fulfilled", "cancelled"},
				CorrectIndex: 3,
			},
		},
		{
			ID:          "ts-type-assertion",
			Prompt:      "Which statement about TypeScript type assertions is correct?",
			Explanation: "A type assertion tells the compiler how to treat a value. Runtime behavior does not change.",
			Topic:       "typescript",
			Difficulty:  2,
			Hints:       []string{"The as keyword overrides the type."},
			Rubric:      "Explains what a type assertion is for",
			Variant: models.MultipleChoice{
				Choices: []string{
					"It adds runtime type checks",
					"It tells the compiler to treat the value as a given type",
					"It disables type inference",
					"It generates a type declaration file",
				},
				CorrectIndex: 1,
			},
		},
		{
			ID:          "css-specificity",
			Prompt:      "Which selector has the highest CSS specificity?",
			Explanation: "Specificity ranks ID over class over type. Descendant selectors add up their parts.",
			Topic:       "css",
			Difficulty:  1,
			Hints:       []string{"The selector written with # wins."},
			Rubric:      "Understands the specificity order",
			Variant: models.MultipleChoice{
				Choices:      []string{"type selector", "class selector", "ID selector", "descendant selector"},
				CorrectIndex: 2,
			},
		},
		{
			ID:          "http-method",
			Prompt:      "Which HTTP method is used for a partial update of a resource?",
			Explanation: "PATCH suits partial updates. PUT assumes the whole resource is replaced.",
			Topic:       "web",
			Difficulty:  1,
			Hints:       []string{"Pick the method that sends a diff."},
			Rubric:      "Chooses the appropriate HTTP method",
			Variant: models.MultipleChoice{
				Choices:      []string{"GET", "POST", "PUT", "PATCH"},
				CorrectIndex: 3,
			},
		},
		{
			ID:          "shortanswer-scope",
			Prompt:      "Explain a JavaScript closure in one sentence.",
			Explanation: "A closure captures the scope a function was created in so it can still be referenced later.",
			Topic:       "javascript",
			Difficulty:  3,
			Hints:       []string{"Mention the words \"scope\" and \"keeps\"."},
			Rubric:      "Mentions both the outer scope and that it is kept",
			Variant: models.ShortAnswer{
				ExpectedAnswer: "a function that keeps access to variables in its outer scope",
				AcceptableAnswers: []string{
					"keeps a reference to the outer scope",
					"function bundled with its lexical environment",
				},
			},
		},
		{
			ID:          "codefill-map",
			Prompt:      "Complete the code so it builds a new array with every element of [1,2,3] doubled.",
			Explanation: "Array.prototype.map returns a new array and leaves the original untouched.",
			Topic:       "javascript",
			Difficulty:  2,
			Hints:       []string{"It is the array method that transforms into a new array."},
			Rubric:      "Uses map as a non-mutating operation",
			Variant: models.CodeFill{
				CodeTemplate:   "const nums = [1, 2, 3];\nconst doubled = nums._____(n => n * 2);",
				ExpectedAnswer: "map",
				ExpectedOutput: "[2,4,6]",
			},
		},
		{
			ID:          "codedebug-offbyone",
			Prompt:      "Fix the off-by-one error in this for loop.",
			Explanation: "Indexes run from 0 to length-1, so the condition must be i < arr.length. With <= the loop reads undefined.",
			Topic:       "javascript",
			Difficulty:  2,
			Hints:       []string{"Look at the loop's end condition."},
			Rubric:      "Changes the loop condition to stop at length-1",
			Variant: models.CodeDebug{
				BuggySnippet:   "const arr = [\"a\", \"b\", \"c\"];\nfor (let i = 0; i <= arr.length; i++) {\n  console.log(arr[i]);\n}",
				ExpectedFix:    "i < arr.length",
				ExpectedOutput: "prints a b c",
			},
		},
	}
}
