package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/neuroquiz/internal/logger"
	"github.com/abhisek/neuroquiz/internal/orchestrator"
	"github.com/abhisek/neuroquiz/internal/store"
)

const maxPayloadBytes = 1 << 20

// AnswerHandler turns an answer into the learner's next step.
type AnswerHandler interface {
	HandleAnswer(ctx context.Context, ev orchestrator.AnswerEvent) orchestrator.Result
}

// Resetter wipes all learner data.
type Resetter interface {
	Reset(ctx context.Context) error
}

// mnemonicPlaceholders stand in for generated images.
var mnemonicPlaceholders = []string{
	"https://images.unsplash.com/photo-1559757175-5700dde675bc?w=800",
	"https://images.unsplash.com/photo-1532094349884-543bc11b234d?w=800",
	"https://images.unsplash.com/photo-1576086213369-97a306d36557?w=800",
	"https://images.unsplash.com/photo-1530026405186-ed1f139a004c?w=800",
}

type handlers struct {
	answers  AnswerHandler
	mistakes store.MistakeLog
	resetter Resetter
	log      *logger.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

func (h *handlers) health(c *gin.Context) {
	respondOK(c, gin.H{"status": "ok"})
}

func (h *handlers) next(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxPayloadBytes))
	if err != nil {
		respondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("read body: %w", err))
		return
	}
	ev, err := orchestrator.ParsePayload(raw, h.log)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid_payload", err)
		return
	}
	respondOK(c, h.answers.HandleAnswer(c.Request.Context(), ev))
}

type mistakeRequest struct {
	UserID        *int64 `json:"user_id"`
	QuestionID    string `json:"question_id" binding:"required"`
	Topic         string `json:"topic"`
	QuestionText  string `json:"question_text"`
	UserAnswer    string `json:"user_answer" binding:"required"`
	CorrectAnswer string `json:"correct_answer"`
}

func (h *handlers) logMistake(c *gin.Context) {
	if h.mistakes == nil {
		respondError(c, http.StatusServiceUnavailable, "unavailable", errors.New("mistake log is not configured"))
		return
	}
	var req mistakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_payload", err)
		return
	}

	userID := orchestrator.DefaultUserID
	if req.UserID != nil {
		userID = *req.UserID
	}
	m := &store.Mistake{
		UserID:        userID,
		QuestionID:    req.QuestionID,
		Topic:         req.Topic,
		QuestionText:  req.QuestionText,
		UserAnswer:    req.UserAnswer,
		CorrectAnswer: req.CorrectAnswer,
	}
	if err := h.mistakes.AppendMistake(c.Request.Context(), m); err != nil {
		h.log.Error("failed to save mistake", "user_id", userID, "question_id", req.QuestionID, "error", err)
		respondError(c, http.StatusInternalServerError, "store_error", errors.New("could not save mistake"))
		return
	}
	respondOK(c, gin.H{"status": "saved", "id": m.ID})
}

type mnemonicRequest struct {
	Topic string `json:"topic" binding:"required"`
	Fact  string `json:"fact" binding:"required"`
}

// MnemonicPrompt is the image prompt for a topic and fact.
func MnemonicPrompt(topic, fact string) string {
	return fmt.Sprintf("A surreal, memorable, cartoon mnemonics image to remember that %s involves %s. Use visual puns.", topic, fact)
}

func (h *handlers) mnemonic(c *gin.Context) {
	var req mnemonicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_payload", err)
		return
	}

	h.mu.Lock()
	url := mnemonicPlaceholders[h.rng.IntN(len(mnemonicPlaceholders))]
	h.mu.Unlock()

	respondOK(c, gin.H{"image_url": url, "alt_text": MnemonicPrompt(req.Topic, req.Fact)})
}

func (h *handlers) reset(c *gin.Context) {
	if h.resetter == nil {
		respondError(c, http.StatusServiceUnavailable, "unavailable", errors.New("reset is not supported by this store"))
		return
	}
	if err := h.resetter.Reset(c.Request.Context()); err != nil {
		h.log.Error("reset failed", "error", err)
		respondError(c, http.StatusInternalServerError, "store_error", errors.New("reset failed"))
		return
	}
	h.log.Info("learner data reset")
	respondOK(c, gin.H{"status": "reset"})
}
