package study

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/study-coach/backend/internal/coach"
	"github.com/study-coach/backend/internal/models"
)

func TestService_ConcurrentChatIsSerialized(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	var g errgroup.Group
	for i := 0; i < 20; i++ {
		g.Go(func() error {
			_, err := svc.Chat(ctx, testUser, "what should I study next?")
			return err
		})
	}
	require.NoError(t, g.Wait())

	st, err := svc.State(ctx, testUser)
	require.NoError(t, err)
	assert.Len(t, st.Messages, 1+2*20)
}

func TestService_ReleasesIdleLearnerLocks(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	var g errgroup.Group
	for i := int64(0); i < 50; i++ {
		g.Go(func() error {
			_, err := svc.Chat(ctx, testUser+i%5, "tell me about closures please")
			return err
		})
	}
	require.NoError(t, g.Wait())

	_, err := svc.Progress(ctx, testUser)
	require.NoError(t, err)

	svc.mu.Lock()
	defer svc.mu.Unlock()
	assert.Empty(t, svc.locks)
}

func TestService_FailedTransitionIsNotSaved(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.SubmitQuiz(ctx, testUser, models.ChoiceAnswer(1))
	assert.True(t, errors.Is(err, coach.ErrNoCurrentQuestion))

	st, err := svc.State(ctx, testUser)
	require.NoError(t, err)
	assert.Empty(t, st.Log)
}

func TestService_LearnersAreIsolated(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.StartQuiz(ctx, testUser)
	require.NoError(t, err)
	_, err = svc.SubmitQuiz(ctx, testUser, models.ChoiceAnswer(0))
	require.NoError(t, err)

	other, err := svc.State(ctx, testUser+1)
	require.NoError(t, err)
	assert.Empty(t, other.Log)
	assert.Empty(t, other.ReviewQueue)

	queue, err := svc.ReviewQueue(ctx, testUser)
	require.NoError(t, err)
	assert.Len(t, queue, 1)
}

func TestService_SetModeRejectsUnknown(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.SetMode(context.Background(), testUser, models.Mode("dashboard"))
	assert.True(t, errors.Is(err, ErrInvalidMode))
}

func TestService_QuestionsHideAnswers(t *testing.T) {
	svc := newTestService(t)

	qs := svc.Questions()
	require.Len(t, qs, 1)
	assert.Equal(t, []string{"count", "length", "size"}, qs[0].Choices)
}
