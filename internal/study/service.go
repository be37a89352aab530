package study

import (
	"context"
	"strconv"
	"sync"

	"github.com/pkg/errors"

	"github.com/study-coach/backend/internal/coach"
	"github.com/study-coach/backend/internal/logger"
	"github.com/study-coach/backend/internal/models"
	"github.com/study-coach/backend/internal/storage"
)

var ErrInvalidMode = errors.New("study: invalid mode")

// Service loads a learner's state, applies one session transition and saves
// the result. Requests for the same learner are serialized.
type Service struct {
	repo    *storage.Repository
	session *coach.Session
	bank    *coach.Bank
	log     *logger.Logger

	mu    sync.Mutex
	locks map[int64]*learnerLock
}

// learnerLock is dropped from the map once no request holds or waits on it.
type learnerLock struct {
	mu   sync.Mutex
	refs int
}

func NewService(repo *storage.Repository, session *coach.Session, bank *coach.Bank, log *logger.Logger) *Service {
	return &Service{
		repo:    repo,
		session: session,
		bank:    bank,
		log:     log.With("service", "study"),
		locks:   make(map[int64]*learnerLock),
	}
}

func (s *Service) lock(userID int64) func() {
	s.mu.Lock()
	l, ok := s.locks[userID]
	if !ok {
		l = &learnerLock{}
		s.locks[userID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, userID)
		}
		s.mu.Unlock()
	}
}

func learnerKey(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

func (s *Service) load(ctx context.Context, userID int64) (models.State, error) {
	stored, err := s.repo.Load(ctx, learnerKey(userID))
	if err != nil {
		return models.State{}, errors.Wrap(err, "load learner state")
	}
	return s.session.Restore(stored), nil
}

// update runs fn on the learner's current state and persists what it
// returns. Nothing is saved when fn fails.
func (s *Service) update(ctx context.Context, userID int64, fn func(models.State) (models.State, error)) (models.State, error) {
	unlock := s.lock(userID)
	defer unlock()

	st, err := s.load(ctx, userID)
	if err != nil {
		return models.State{}, err
	}

	next, err := fn(st)
	if err != nil {
		return st, err
	}

	if err := s.repo.Save(ctx, learnerKey(userID), next); err != nil {
		return st, errors.Wrap(err, "save learner state")
	}
	return next, nil
}

// State returns the learner's state without modifying it.
func (s *Service) State(ctx context.Context, userID int64) (models.State, error) {
	unlock := s.lock(userID)
	defer unlock()
	return s.load(ctx, userID)
}

func (s *Service) SetMode(ctx context.Context, userID int64, mode models.Mode) (models.State, error) {
	if !models.ValidModes[mode] {
		return models.State{}, errors.Wrapf(ErrInvalidMode, "%q", mode)
	}
	return s.update(ctx, userID, func(st models.State) (models.State, error) {
		return s.session.SetMode(st, mode), nil
	})
}

func (s *Service) StartQuiz(ctx context.Context, userID int64) (models.State, error) {
	return s.update(ctx, userID, s.session.StartQuiz)
}

func (s *Service) SubmitQuiz(ctx context.Context, userID int64, answer models.Answer) (models.State, error) {
	st, err := s.update(ctx, userID, func(st models.State) (models.State, error) {
		return s.session.SubmitQuiz(st, answer)
	})
	if err == nil {
		s.logAttempt(userID, st.LastAttempt, false)
	}
	return st, err
}

func (s *Service) NextReview(ctx context.Context, userID int64) (models.State, error) {
	return s.update(ctx, userID, func(st models.State) (models.State, error) {
		return s.session.NextReview(st), nil
	})
}

func (s *Service) SubmitReview(ctx context.Context, userID int64, answer models.Answer) (models.State, error) {
	st, err := s.update(ctx, userID, func(st models.State) (models.State, error) {
		return s.session.SubmitReview(st, answer)
	})
	if err == nil {
		s.logAttempt(userID, st.LastAttempt, true)
	}
	return st, err
}

func (s *Service) Chat(ctx context.Context, userID int64, message string) (models.State, error) {
	return s.update(ctx, userID, func(st models.State) (models.State, error) {
		return s.session.Chat(ctx, st, message), nil
	})
}

// Reset drops everything stored for the learner.
func (s *Service) Reset(ctx context.Context, userID int64) error {
	unlock := s.lock(userID)
	defer unlock()
	return s.repo.Reset(ctx, learnerKey(userID))
}

func (s *Service) Progress(ctx context.Context, userID int64) (models.Progress, error) {
	st, err := s.State(ctx, userID)
	if err != nil {
		return models.Progress{}, err
	}
	return coach.Summarize(st.Log), nil
}

func (s *Service) TopicAggregates(ctx context.Context, userID int64) ([]models.TopicAggregate, error) {
	st, err := s.State(ctx, userID)
	if err != nil {
		return nil, err
	}
	aggs := coach.AggregateTopics(st.Log)
	if aggs == nil {
		aggs = []models.TopicAggregate{}
	}
	return aggs, nil
}

func (s *Service) Suggestion(ctx context.Context, userID int64) (models.LearningSuggestion, error) {
	st, err := s.State(ctx, userID)
	if err != nil {
		return models.LearningSuggestion{}, err
	}
	return s.session.Coach().Suggest(st.Log), nil
}

func (s *Service) ReviewQueue(ctx context.Context, userID int64) ([]models.Question, error) {
	st, err := s.State(ctx, userID)
	if err != nil {
		return nil, err
	}
	return st.ReviewQueue, nil
}

// Questions lists the bank without answer keys.
func (s *Service) Questions() []models.PublicQuestion {
	qs := s.bank.Questions()
	out := make([]models.PublicQuestion, 0, len(qs))
	for _, q := range qs {
		out = append(out, q.Public())
	}
	return out
}

func (s *Service) logAttempt(userID int64, attempt *models.Attempt, fromReview bool) {
	if attempt == nil {
		return
	}
	s.log.Info("answer graded",
		"user_id", userID,
		"question_id", attempt.ID(),
		"topic", attempt.Topic(),
		"correct", attempt.IsCorrect,
		"review", fromReview,
	)
}
