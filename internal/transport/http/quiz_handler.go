package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"quiz-arena-service/internal/domain"
)

type startQuizResponse struct {
	AttemptID   int64   `json:"attemptId"`
	QuestionIDs []int64 `json:"questionIds"`
}

type submitAnswersRequest struct {
	AttemptID int64            `json:"attemptId" validate:"required,gt=0"`
	Answers   map[int64]string `json:"answers"`
}

func (h *Handler) startQuiz(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFrom(r.Context())
	attempt, err := h.quiz.StartQuiz(r.Context(), session.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, startQuizResponse{
		AttemptID:   attempt.ID,
		QuestionIDs: attempt.QuestionIDs,
	})
}

// getQuestions serves ?ids=3,1,2 in exactly that order.
func (h *Handler) getQuestions(w http.ResponseWriter, r *http.Request) {
	ids, err := parseIDList(r.URL.Query().Get("ids"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	questions, err := h.quiz.GetQuestions(r.Context(), ids)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

// submitAnswers never reports the score back to the caller.
func (h *Handler) submitAnswers(w http.ResponseWriter, r *http.Request) {
	var req submitAnswersRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	session, _ := sessionFrom(r.Context())
	if err := h.quiz.SubmitAnswers(r.Context(), req.AttemptID, session.UserID, req.Answers); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "answers submitted")
}

func parseIDList(raw string) ([]int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []int64{}, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid question id %q", domain.ErrInvalidInput, p)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
