package coach

import "errors"

var (
	ErrEmptyBank         = errors.New("coach: question bank is empty")
	ErrInvalidQuestion   = errors.New("coach: invalid question")
	ErrDuplicateID       = errors.New("coach: duplicate question id")
	ErrNotAwaitingAnswer = errors.New("coach: no question is awaiting an answer")
	ErrNoCurrentQuestion = errors.New("coach: no current question")
	ErrWrongAnswerPath   = errors.New("coach: answer submitted for a question from the other panel")
)
