package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"propmatch/internal/chat"
	"propmatch/internal/model"
	"propmatch/internal/quota"
)

// ChatHandler handles the streaming chat endpoints
type ChatHandler struct {
	runner       *chat.TurnRunner
	registry     *chat.Registry
	quota        *quota.Tracker
	enforceQuota bool
}

// NewChatHandler creates a new chat handler
func NewChatHandler(runner *chat.TurnRunner, registry *chat.Registry, tracker *quota.Tracker, enforceQuota bool) *ChatHandler {
	return &ChatHandler{
		runner:       runner,
		registry:     registry,
		quota:        tracker,
		enforceQuota: enforceQuota,
	}
}

// chatRequest is the POST /api/v1/chat body
type chatRequest struct {
	Message string `json:"message" binding:"required"`
}

// checkoutRequest is the POST /api/v1/checkout body
type checkoutRequest struct {
	TicketID string    `json:"ticketId" binding:"required"`
	IssuedAt time.Time `json:"issuedAt" binding:"required"`
}

// sseEmitter forwards turn events to the client as Server-Sent Events.
type sseEmitter struct {
	c       *gin.Context
	flusher http.Flusher
}

func (e *sseEmitter) send(event string, data any) error {
	if data == nil {
		_, err := fmt.Fprintf(e.c.Writer, "event: %s\ndata: {}\n\n", event)
		e.flusher.Flush()
		return err
	}
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(e.c.Writer, "event: %s\ndata: %s\n\n", event, string(jsonData)); err != nil {
		return err
	}
	e.flusher.Flush()
	return nil
}

func (e *sseEmitter) Reply(text string) error {
	return e.send("reply", gin.H{"text": text})
}

func (e *sseEmitter) Stream(text string) error {
	return e.send("stream", gin.H{"text": text})
}

func (e *sseEmitter) Searching() error {
	return e.send("searching", nil)
}

func (e *sseEmitter) Recommend(results []model.EvaluatedResult) error {
	if results == nil {
		results = []model.EvaluatedResult{}
	}
	return e.send("recommend", gin.H{"results": results})
}

// Chat handles POST /api/v1/chat - one streamed conversation turn
func (h *ChatHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	session := h.registry.GetOrCreate(c.GetHeader("X-Session-ID"))

	// Set SSE headers
	c.Header("Content-Type", "text/event-stream; charset=utf-8")
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Header("X-Session-ID", session.ID)

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Streaming not supported"})
		return
	}
	emitter := &sseEmitter{c: c, flusher: flusher}

	// The terminal signal is sent exactly once per turn, whatever happens
	// in between.
	defer emitter.send("end-stream", nil)

	identity := c.ClientIP()
	count, _ := h.quota.Count(identity)
	_ = emitter.send("count-tick", gin.H{"count": count, "ceiling": h.quota.Ceiling()})

	if h.enforceQuota {
		if err := h.quota.Check(identity); err != nil {
			if err == quota.ErrQuotaExceeded {
				_ = emitter.send("rate-limit", gin.H{"ceiling": h.quota.Ceiling()})
			} else {
				_ = emitter.send("error", gin.H{"error": "Quota check failed: " + err.Error()})
			}
			return
		}
	}

	if err := h.runner.RunTurn(c.Request.Context(), session, req.Message, emitter); err != nil {
		_ = emitter.send("error", gin.H{"error": err.Error()})
		return
	}

	if err := h.quota.Increment(identity); err == nil {
		count++
		_ = emitter.send("count-tick", gin.H{"count": count, "ceiling": h.quota.Ceiling()})
	}
}

// Checkout handles POST /api/v1/checkout - redeem a quota reset ticket
func (h *ChatHandler) Checkout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	identity := c.ClientIP()
	ticket := quota.Ticket{ID: req.TicketID, IssuedAt: req.IssuedAt}
	if err := h.quota.Redeem(identity, ticket); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Redeem failed: " + err.Error()})
		return
	}

	count, err := h.quota.Count(identity)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read quota: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count, "ceiling": h.quota.Ceiling()})
}
