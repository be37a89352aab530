package study

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/study-coach/backend/internal/auth"
	"github.com/study-coach/backend/internal/coach"
	"github.com/study-coach/backend/internal/logger"
	"github.com/study-coach/backend/internal/models"
	"github.com/study-coach/backend/internal/storage"
)

const testUser int64 = 7

func testBank(t *testing.T) *coach.Bank {
	t.Helper()
	bank, err := coach.NewBank([]models.Question{{
		ID:          "arrays-length",
		Prompt:      "Which property gives the number of elements in an array?",
		Explanation: "Array.length returns the element count.",
		Topic:       "javascript",
		Difficulty:  1,
		Variant: models.MultipleChoice{
			Choices:      []string{"count", "length", "size"},
			CorrectIndex: 1,
		},
	}})
	require.NoError(t, err)
	return bank
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	bank := testBank(t)
	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	n := 0
	session := coach.NewSession(coach.NewRuleTutor(bank),
		coach.WithClock(func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		}),
		coach.WithIDGenerator(func() string {
			n++
			return strconv.Itoa(n)
		}),
	)
	repo := storage.NewRepository(storage.NewMemoryStore(), logger.Nop())
	return NewService(repo, session, bank, logger.Nop())
}

func newTestRouter(t *testing.T, svc *Service) *mux.Router {
	t.Helper()
	r := mux.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(auth.WithUserID(req.Context(), testUser)))
		})
	})
	NewHandler(svc, logger.Nop()).Routes(r, nil)
	return r
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeState(t *testing.T, rec *httptest.ResponseRecorder) models.StateResponse {
	t.Helper()
	var resp models.StateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHandler_InitialState(t *testing.T) {
	r := newTestRouter(t, newTestService(t))

	rec := do(t, r, "GET", "/state", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeState(t, rec)
	assert.Equal(t, models.ModeChat, resp.Mode)
	assert.Equal(t, models.StatusIdle, resp.QuizStatus)
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, models.SenderAssistant, resp.Messages[0].Sender)
	assert.Nil(t, resp.CurrentQuestion)
}

func TestHandler_QuizFlow(t *testing.T) {
	r := newTestRouter(t, newTestService(t))

	rec := do(t, r, "POST", "/quiz/start", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeState(t, rec)
	require.NotNil(t, resp.CurrentQuestion)
	assert.Equal(t, "arrays-length", resp.CurrentQuestion.ID)
	assert.Equal(t, models.StatusAwaitingAnswer, resp.QuizStatus)
	assert.NotContains(t, rec.Body.String(), "correctIndex")

	rec = do(t, r, "POST", "/quiz/answer", `{"answer": 0}`)
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decodeState(t, rec)
	assert.Equal(t, models.StatusResult, resp.QuizStatus)
	require.NotNil(t, resp.LastAttempt)
	assert.False(t, resp.LastAttempt.IsCorrect)
	assert.Equal(t, "count", resp.LastAttempt.UserAnswer)
	assert.Equal(t, "length", resp.LastAttempt.CorrectAnswer)
	assert.Equal(t, 1, resp.ReviewQueueSize)

	// A second answer for the same question is rejected.
	rec = do(t, r, "POST", "/quiz/answer", `{"answer": 1}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandler_AnswerWithoutQuestion(t *testing.T) {
	r := newTestRouter(t, newTestService(t))

	rec := do(t, r, "POST", "/quiz/answer", `{"answer": 1}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandler_AnswerFromOtherPanel(t *testing.T) {
	r := newTestRouter(t, newTestService(t))

	do(t, r, "POST", "/quiz/start", nil)
	rec := do(t, r, "POST", "/review/answer", `{"answer": 0}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, r, "GET", "/review/queue", nil)
	var queue models.ReviewQueueResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &queue))
	assert.Equal(t, 0, queue.Total)

	do(t, r, "POST", "/quiz/answer", `{"answer": 0}`)
	do(t, r, "POST", "/review/next", nil)
	rec = do(t, r, "POST", "/quiz/answer", `{"answer": 1}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, r, "POST", "/review/answer", `{"answer": 1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, decodeState(t, rec).ReviewQueueSize)
}

func TestHandler_AnswerValidation(t *testing.T) {
	r := newTestRouter(t, newTestService(t))
	require.Equal(t, http.StatusOK, do(t, r, "POST", "/quiz/start", nil).Code)

	assert.Equal(t, http.StatusBadRequest, do(t, r, "POST", "/quiz/answer", `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, r, "POST", "/quiz/answer", `{"answer": [1]}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, r, "POST", "/quiz/answer", `not json`).Code)
}

func TestHandler_ReviewFlow(t *testing.T) {
	r := newTestRouter(t, newTestService(t))

	do(t, r, "POST", "/quiz/start", nil)
	do(t, r, "POST", "/quiz/answer", `{"answer": 2}`)

	rec := do(t, r, "GET", "/review/queue", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var queue models.ReviewQueueResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &queue))
	assert.Equal(t, 1, queue.Total)
	require.Len(t, queue.Questions, 1)
	assert.Equal(t, "arrays-length", queue.Questions[0].ID)

	// Entering review mode while the result is shown does not advance.
	rec = do(t, r, "PUT", "/mode", models.SetModeRequest{Mode: models.ModeReview})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.StatusResult, decodeState(t, rec).QuizStatus)

	rec = do(t, r, "POST", "/review/next", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeState(t, rec)
	require.NotNil(t, resp.CurrentQuestion)
	assert.Equal(t, models.StatusAwaitingAnswer, resp.QuizStatus)

	rec = do(t, r, "POST", "/review/answer", `{"answer": 1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decodeState(t, rec)
	require.NotNil(t, resp.LastAttempt)
	assert.True(t, resp.LastAttempt.IsCorrect)
	assert.Equal(t, 0, resp.ReviewQueueSize)

	rec = do(t, r, "POST", "/review/next", nil)
	resp = decodeState(t, rec)
	assert.Equal(t, models.StatusIdle, resp.QuizStatus)
	assert.Nil(t, resp.CurrentQuestion)
}

func TestHandler_SetModeInvalid(t *testing.T) {
	r := newTestRouter(t, newTestService(t))

	rec := do(t, r, "PUT", "/mode", `{"mode": "dashboard"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_Chat(t *testing.T) {
	r := newTestRouter(t, newTestService(t))

	rec := do(t, r, "POST", "/chat", models.ChatRequest{Message: "  how am I doing?  "})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeState(t, rec)
	require.Len(t, resp.Messages, 3)
	assert.Equal(t, models.SenderUser, resp.Messages[1].Sender)
	assert.Equal(t, "how am I doing?", resp.Messages[1].Content)
	assert.Equal(t, models.SenderAssistant, resp.Messages[2].Sender)
	assert.NotEmpty(t, resp.Messages[2].Content)

	rec = do(t, r, "POST", "/chat", models.ChatRequest{Message: "   "})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeState(t, rec).Messages, 3)
}

func TestHandler_ChatLimited(t *testing.T) {
	svc := newTestService(t)
	r := mux.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(auth.WithUserID(req.Context(), testUser)))
		})
	})
	deny := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})
	}
	NewHandler(svc, logger.Nop()).Routes(r, deny)

	assert.Equal(t, http.StatusTooManyRequests, do(t, r, "POST", "/chat", models.ChatRequest{Message: "hi"}).Code)
	assert.Equal(t, http.StatusOK, do(t, r, "GET", "/state", nil).Code)
}

func TestHandler_ProgressAndTopics(t *testing.T) {
	r := newTestRouter(t, newTestService(t))

	rec := do(t, r, "GET", "/progress/topics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	do(t, r, "POST", "/quiz/start", nil)
	do(t, r, "POST", "/quiz/answer", `{"answer": 1}`)

	rec = do(t, r, "GET", "/progress", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var progress models.Progress
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &progress))
	assert.Equal(t, 1, progress.Overall.Total)
	assert.Equal(t, 1, progress.Overall.Correct)

	rec = do(t, r, "GET", "/progress/topics", nil)
	var aggs []models.TopicAggregate
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &aggs))
	require.Len(t, aggs, 1)
	assert.Equal(t, "javascript", aggs[0].Topic)

	rec = do(t, r, "GET", "/suggestion", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var suggestion models.LearningSuggestion
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &suggestion))
	assert.Equal(t, "javascript", suggestion.Topic)
}

func TestHandler_ResetState(t *testing.T) {
	svc := newTestService(t)
	r := newTestRouter(t, svc)

	do(t, r, "POST", "/quiz/start", nil)
	do(t, r, "POST", "/quiz/answer", `{"answer": 0}`)

	rec := do(t, r, "DELETE", "/state", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	st, err := svc.State(context.Background(), testUser)
	require.NoError(t, err)
	assert.Empty(t, st.Log)
	assert.Empty(t, st.ReviewQueue)
	assert.Equal(t, models.StatusIdle, st.QuizStatus)
}

func TestHandler_ListQuestionsHidesAnswers(t *testing.T) {
	r := newTestRouter(t, newTestService(t))

	rec := do(t, r, "GET", "/questions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "arrays-length")
	assert.NotContains(t, rec.Body.String(), "correctIndex")
	assert.NotContains(t, rec.Body.String(), "explanation")
}

func TestHandler_Unauthorized(t *testing.T) {
	r := mux.NewRouter()
	NewHandler(newTestService(t), logger.Nop()).Routes(r, nil)

	assert.Equal(t, http.StatusUnauthorized, do(t, r, "GET", "/state", nil).Code)
}
