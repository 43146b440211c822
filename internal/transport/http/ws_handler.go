package http

import (
	"net/http"
	"time"

	"quiz-arena-service/internal/domain"
)

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// leaderboardWS upgrades an admin connection and streams leaderboard
// snapshots: one on connect, then one after every completed attempt.
func (h *Handler) leaderboardWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", "request_id", requestID(r.Context()), "error", err)
		return
	}
	defer conn.Close()

	updates, cancel, err := h.admin.Feed().Subscribe(r.Context())
	if err != nil {
		h.log.Error("leaderboard subscribe failed", "request_id", requestID(r.Context()), "error", err)
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: "internal server error"}})
		return
	}
	defer cancel()

	// The read loop only watches for the client going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case lb, ok := <-updates:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(outboundMessage[domain.Leaderboard]{Type: "leaderboard", Payload: lb}); err != nil {
				h.log.Warn("ws write error", "error", err)
				return
			}
		case <-closed:
			return
		}
	}
}
