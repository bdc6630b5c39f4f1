package quiz

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/smartquiz/backend/internal/generator"
	"github.com/smartquiz/backend/internal/models"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// getUserID extracts the authenticated user ID from the request context.
func getUserID(r *http.Request) (int64, bool) {
	uid, ok := r.Context().Value("user_id").(int64)
	return uid, ok
}

func (h *Handler) GenerateQuestions(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	var req models.GenerateQuestionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if !models.ValidSubjects[req.Subject] {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid subject. Must be one of: math, physics, chemistry, biology, history, geography, literature, english"})
		return
	}
	if !models.ValidDifficulties[req.Difficulty] {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "difficulty must be 'easy', 'medium', or 'hard'"})
		return
	}

	resp, err := h.service.GenerateQuestions(r.Context(), userID, req)
	if err != nil {
		h.writeServiceError(w, "Failed to generate questions", err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) GenerateFeedback(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	var req models.FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if !models.ValidSubjects[req.QuizData.Subject] {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid subject in quiz_data"})
		return
	}
	if !models.ValidDifficulties[req.QuizData.Difficulty] {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid difficulty in quiz_data"})
		return
	}
	if len(req.Answers) == 0 {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "answers must not be empty"})
		return
	}

	feedback, err := h.service.GenerateFeedback(r.Context(), userID, req)
	if err != nil {
		h.writeServiceError(w, "Failed to generate feedback", err)
		return
	}

	writeJSON(w, http.StatusOK, feedback)
}

// writeServiceError maps pipeline errors onto the response taxonomy:
// 429 for exhausted budgets, 503 when no provider is configured, 500 for
// provider/validation/persistence failures (details stay in the server log).
func (h *Handler) writeServiceError(w http.ResponseWriter, msg string, err error) {
	var rle *RateLimitError
	if errors.As(err, &rle) {
		writeJSON(w, http.StatusTooManyRequests, models.ErrorResponse{
			Error:      "Rate limit exceeded",
			RetryAfter: int(rle.RetryAfter.Seconds()),
		})
		return
	}

	if errors.Is(err, generator.ErrProviderUnavailable) {
		writeJSON(w, http.StatusServiceUnavailable, models.ErrorResponse{Error: "AI service not available"})
		return
	}

	log.Printf("[handler] %s: %v", msg, err)
	writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
