package study

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/study-coach/backend/internal/auth"
	"github.com/study-coach/backend/internal/coach"
	"github.com/study-coach/backend/internal/logger"
	"github.com/study-coach/backend/internal/models"
)

type Handler struct {
	service *Service
	log     *logger.Logger
}

func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{service: service, log: log.With("handler", "study")}
}

// Routes mounts the learner routes on r, which must already require auth.
// chatLimit wraps the chat route.
func (h *Handler) Routes(r *mux.Router, chatLimit mux.MiddlewareFunc) {
	r.HandleFunc("/state", h.GetState).Methods("GET")
	r.HandleFunc("/state", h.ResetState).Methods("DELETE")
	r.HandleFunc("/mode", h.SetMode).Methods("PUT")

	r.HandleFunc("/quiz/start", h.StartQuiz).Methods("POST")
	r.HandleFunc("/quiz/answer", h.SubmitQuiz).Methods("POST")

	r.HandleFunc("/review/next", h.NextReview).Methods("POST")
	r.HandleFunc("/review/answer", h.SubmitReview).Methods("POST")
	r.HandleFunc("/review/queue", h.GetReviewQueue).Methods("GET")

	r.HandleFunc("/progress", h.GetProgress).Methods("GET")
	r.HandleFunc("/progress/topics", h.GetTopics).Methods("GET")
	r.HandleFunc("/suggestion", h.GetSuggestion).Methods("GET")

	r.HandleFunc("/questions", h.ListQuestions).Methods("GET")

	chat := http.Handler(http.HandlerFunc(h.Chat))
	if chatLimit != nil {
		chat = chatLimit(chat)
	}
	r.Handle("/chat", chat).Methods("POST")
}

func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	st, err := h.service.State(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStateResponse(st))
}

func (h *Handler) ResetState(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	if err := h.service.Reset(r.Context(), userID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SetMode(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req models.SetModeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	st, err := h.service.SetMode(r.Context(), userID, req.Mode)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStateResponse(st))
}

func (h *Handler) StartQuiz(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.StartQuiz)
}

func (h *Handler) NextReview(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.NextReview)
}

func (h *Handler) SubmitQuiz(w http.ResponseWriter, r *http.Request) {
	h.answer(w, r, h.service.SubmitQuiz)
}

func (h *Handler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	h.answer(w, r, h.service.SubmitReview)
}

func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	st, err := h.service.Chat(r.Context(), userID, req.Message)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStateResponse(st))
}

func (h *Handler) GetReviewQueue(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	queue, err := h.service.ReviewQueue(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := models.ReviewQueueResponse{Questions: make([]models.PublicQuestion, 0, len(queue)), Total: len(queue)}
	for _, q := range queue {
		resp.Questions = append(resp.Questions, q.Public())
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	progress, err := h.service.Progress(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

func (h *Handler) GetTopics(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	aggs, err := h.service.TopicAggregates(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, aggs)
}

func (h *Handler) GetSuggestion(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	suggestion, err := h.service.Suggestion(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, suggestion)
}

func (h *Handler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Questions())
}

// ── Helpers ─────────────────────────────────────────────

type transitionFunc func(ctx context.Context, userID int64) (models.State, error)

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn transitionFunc) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	st, err := fn(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStateResponse(st))
}

type answerFunc func(ctx context.Context, userID int64, answer models.Answer) (models.State, error)

func (h *Handler) answer(w http.ResponseWriter, r *http.Request, fn answerFunc) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req models.SubmitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if req.Answer == nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "answer is required"})
		return
	}

	st, err := fn(r.Context(), userID, *req.Answer)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStateResponse(st))
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidMode):
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "mode must be one of chat, quiz, review, progress"})
	case errors.Is(err, coach.ErrNotAwaitingAnswer):
		writeJSON(w, http.StatusConflict, models.ErrorResponse{Error: "No question is awaiting an answer"})
	case errors.Is(err, coach.ErrWrongAnswerPath):
		writeJSON(w, http.StatusConflict, models.ErrorResponse{Error: "Answer this question from the panel that presented it"})
	case errors.Is(err, coach.ErrNoCurrentQuestion):
		writeJSON(w, http.StatusConflict, models.ErrorResponse{Error: "There is no current question"})
	default:
		h.log.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Internal server error"})
	}
}

func toStateResponse(st models.State) models.StateResponse {
	resp := models.StateResponse{
		Mode:            st.Mode,
		QuizStatus:      st.QuizStatus,
		ReviewQueueSize: len(st.ReviewQueue),
		Messages:        st.Messages,
	}
	if st.CurrentQuestion != nil {
		pq := st.CurrentQuestion.Public()
		resp.CurrentQuestion = &pq
	}
	// The result panel only shows while the answer is fresh.
	if st.LastAttempt != nil && st.QuizStatus == models.StatusResult {
		view := st.LastAttempt.View()
		resp.LastAttempt = &view
	}
	if resp.Messages == nil {
		resp.Messages = []models.Message{}
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
