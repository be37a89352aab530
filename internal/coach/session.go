package coach

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/study-coach/backend/internal/models"
)

const welcomeMessage = "Welcome! Ask anything in chat mode. Quiz mode serves practice questions and review mode replays the ones you missed."

// Session applies learner actions to a State. Every transition takes the
// current snapshot and returns a new one; the caller persists it and must
// apply transitions for one learner in order.
type Session struct {
	coach Coach
	now   func() time.Time
	newID func() string
}

type SessionOption func(*Session)

// WithClock overrides the time source used for askedAt and message stamps.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

// WithIDGenerator overrides how message ids are generated.
func WithIDGenerator(newID func() string) SessionOption {
	return func(s *Session) { s.newID = newID }
}

func NewSession(c Coach, opts ...SessionOption) *Session {
	s := &Session{
		coach: c,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) Coach() Coach { return s.coach }

// Initial returns the state of a learner with no stored data.
func (s *Session) Initial() models.State {
	return models.State{
		Mode: models.ModeChat,
		Messages: []models.Message{{
			ID:        "welcome",
			Sender:    models.SenderAssistant,
			Content:   welcomeMessage,
			Timestamp: s.now().UTC(),
		}},
		Log:         []models.Attempt{},
		ReviewQueue: []models.Question{},
		QuizStatus:  models.StatusIdle,
	}
}

// Restore fills the gaps of a stored state with initial defaults. A nil
// state yields Initial.
func (s *Session) Restore(stored *models.State) models.State {
	initial := s.Initial()
	if stored == nil {
		return initial
	}

	st := *stored
	if len(st.Messages) == 0 {
		st.Messages = initial.Messages
	}
	if st.Log == nil {
		st.Log = []models.Attempt{}
	}
	if st.ReviewQueue == nil {
		st.ReviewQueue = []models.Question{}
	}
	if !models.ValidModes[st.Mode] {
		st.Mode = models.ModeChat
	}
	if st.CurrentQuestion == nil {
		st.CurrentFromReview = false
	}
	switch st.QuizStatus {
	case models.StatusAwaitingAnswer, models.StatusResult:
		if st.CurrentQuestion == nil {
			st.QuizStatus = models.StatusIdle
		}
	default:
		st.QuizStatus = models.StatusIdle
	}
	return st
}

// SetMode switches the active panel. Entering review while idle with a
// non-empty queue presents the head of the queue right away.
func (s *Session) SetMode(st models.State, mode models.Mode) models.State {
	st.Mode = mode
	if mode == models.ModeReview && st.QuizStatus == models.StatusIdle && len(st.ReviewQueue) > 0 {
		return s.NextReview(st)
	}
	return st
}

// StartQuiz presents the least-asked question from the bank.
func (s *Session) StartQuiz(st models.State) (models.State, error) {
	q, err := s.coach.NextQuestion(st.Log)
	if err != nil {
		return st, err
	}
	st.CurrentQuestion = &q
	st.CurrentFromReview = false
	st.QuizStatus = models.StatusAwaitingAnswer
	return st, nil
}

// SubmitQuiz grades a question served by StartQuiz.
func (s *Session) SubmitQuiz(st models.State, answer models.Answer) (models.State, error) {
	return s.submit(st, answer, false)
}

// SubmitReview grades a question presented by NextReview.
func (s *Session) SubmitReview(st models.State, answer models.Answer) (models.State, error) {
	return s.submit(st, answer, true)
}

func (s *Session) submit(st models.State, answer models.Answer, fromReview bool) (models.State, error) {
	if st.CurrentQuestion == nil {
		return st, ErrNoCurrentQuestion
	}
	if st.QuizStatus != models.StatusAwaitingAnswer {
		return st, ErrNotAwaitingAnswer
	}
	// The queue rule depends on where the question came from, not on
	// which submit the caller picked.
	if st.CurrentFromReview != fromReview {
		return st, ErrWrongAnswerPath
	}

	attempt := s.grade(*st.CurrentQuestion, answer)
	st.ReviewQueue, st.Log = RecordAttempt(st.ReviewQueue, st.Log, attempt, fromReview)
	st.LastAttempt = &attempt
	st.QuizStatus = models.StatusResult
	return st, nil
}

func (s *Session) grade(q models.Question, answer models.Answer) models.Attempt {
	result := s.coach.Evaluate(q, answer)
	return models.Attempt{
		Question:    q,
		UserAnswer:  answer,
		IsCorrect:   result.IsCorrect,
		AskedAt:     s.now().UTC().Format(time.RFC3339Nano),
		Explanation: result.Explanation,
	}
}

// NextReview presents the head of the freshly sorted review queue, or goes
// idle when the queue is empty.
func (s *Session) NextReview(st models.State) models.State {
	head, sorted := NextInQueue(st.ReviewQueue, st.Log)
	st.ReviewQueue = sorted
	st.CurrentQuestion = head
	st.CurrentFromReview = head != nil
	if head == nil {
		st.QuizStatus = models.StatusIdle
		return st
	}
	st.QuizStatus = models.StatusAwaitingAnswer
	return st
}

// Chat appends the learner's message and the coach's reply. Blank messages
// are ignored.
func (s *Session) Chat(ctx context.Context, st models.State, text string) models.State {
	text = strings.TrimSpace(text)
	if text == "" {
		return st
	}

	messages := make([]models.Message, len(st.Messages), len(st.Messages)+2)
	copy(messages, st.Messages)
	messages = append(messages, s.message(models.SenderUser, text))

	reply := s.coach.ChatReply(ctx, text, st.Log)
	messages = append(messages, s.message(models.SenderAssistant, reply))

	st.Messages = messages
	return st
}

func (s *Session) message(sender models.Sender, content string) models.Message {
	return models.Message{
		ID:        string(sender) + "-" + s.newID(),
		Sender:    sender,
		Content:   content,
		Timestamp: s.now().UTC(),
	}
}
