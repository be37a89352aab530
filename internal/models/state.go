package models

import "time"

type Mode string

const (
	ModeChat     Mode = "chat"
	ModeQuiz     Mode = "quiz"
	ModeReview   Mode = "review"
	ModeProgress Mode = "progress"
)

var ValidModes = map[Mode]bool{
	ModeChat:     true,
	ModeQuiz:     true,
	ModeReview:   true,
	ModeProgress: true,
}

type QuizStatus string

const (
	StatusIdle           QuizStatus = "idle"
	StatusAwaitingAnswer QuizStatus = "awaitingAnswer"
	StatusResult         QuizStatus = "result"
)

type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

type Message struct {
	ID        string    `json:"id"`
	Sender    Sender    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// State is the whole learner snapshot threaded through session transitions.
// It is persisted as one opaque blob.
type State struct {
	Mode            Mode       `json:"mode"`
	Messages        []Message  `json:"messages"`
	Log             []Attempt  `json:"log"`
	ReviewQueue     []Question `json:"reviewQueue"`
	CurrentQuestion *Question  `json:"currentQuestion,omitempty"`
	LastAttempt     *Attempt   `json:"lastAttempt,omitempty"`
	QuizStatus      QuizStatus `json:"quizStatus"`

	// CurrentFromReview is set when CurrentQuestion was taken from the
	// review queue rather than served fresh by the scheduler.
	CurrentFromReview bool `json:"currentFromReview,omitempty"`
}

// ── Request / Response Types ────────────────────────────

type SubmitAnswerRequest struct {
	Answer *Answer `json:"answer"`
}

type SetModeRequest struct {
	Mode Mode `json:"mode"`
}

type ChatRequest struct {
	Message string `json:"message"`
}

type AttemptView struct {
	QuestionID     string `json:"questionId"`
	UserAnswer     string `json:"userAnswer"`
	CorrectAnswer  string `json:"correctAnswer"`
	IsCorrect      bool   `json:"isCorrect"`
	Explanation    string `json:"explanation"`
	Rubric         string `json:"rubric,omitempty"`
	ExpectedOutput string `json:"expectedOutput,omitempty"`
	AskedAt        string `json:"askedAt"`
}

type StateResponse struct {
	Mode            Mode            `json:"mode"`
	QuizStatus      QuizStatus      `json:"quizStatus"`
	CurrentQuestion *PublicQuestion `json:"currentQuestion,omitempty"`
	LastAttempt     *AttemptView    `json:"lastAttempt,omitempty"`
	ReviewQueueSize int             `json:"reviewQueueSize"`
	Messages        []Message       `json:"messages"`
}

type ReviewQueueResponse struct {
	Questions []PublicQuestion `json:"questions"`
	Total     int              `json:"total"`
}
