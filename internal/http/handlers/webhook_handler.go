// Package handlers provides HTTP handler implementations for the public API.
//
// This file implements the inbound-transport webhook. A transport bridge (the
// process that actually speaks to the messaging network) delivers every
// message it observes as a JSON event:
//
//	POST /webhook/events
//	{
//	  "sender_id":       "5521999998888",
//	  "conversation_id": "5521999998888@c.us",
//	  "text":            "MENU",
//	  "from_self":       false
//	}
//
// The handler validates the payload, records the Idempotency-Key (when the
// transport supplies one) so redeliveries are dropped, and hands the event to
// the bot router. Replies travel back through the Replier the router was
// built with, not through this HTTP response: the webhook always answers with
// a small status envelope.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/arenalk/bookingbot/internal/bot"
	"github.com/arenalk/bookingbot/internal/domain"
	"github.com/arenalk/bookingbot/internal/http/middleware"
	"github.com/arenalk/bookingbot/internal/repo"
)

// WebhookHandler receives transport events and dispatches them to the bot.
type WebhookHandler struct {
	DB      *gorm.DB
	Bot     *bot.Router
	IdemTTL time.Duration
}

// NewWebhookHandler wires the webhook endpoint. db may be nil in tests that
// do not exercise redelivery protection.
func NewWebhookHandler(db *gorm.DB, router *bot.Router, idemTTL time.Duration) *WebhookHandler {
	return &WebhookHandler{DB: db, Bot: router, IdemTTL: idemTTL}
}

// HandleEvent processes one inbound transport event.
//
// Responses:
//   - 202 {"status":"accepted"}  event was dispatched to the bot
//   - 200 {"status":"duplicate"} the Idempotency-Key was seen before; the
//     event is dropped without reaching the bot
//   - 400 invalid JSON or missing sender_id/conversation_id
//
// Dispatch is synchronous so the transport's delivery order is preserved per
// conversation. Lookup failures on the idempotency store are logged and the
// event is processed anyway; dropping real messages is worse than the rare
// duplicate reply.
func (h *WebhookHandler) HandleEvent(c *gin.Context) {
	var ev domain.Event
	if err := c.ShouldBindJSON(&ev); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeInvalidEvent, "malformed event payload")
		return
	}
	if ev.SenderID == "" || ev.ConversationID == "" {
		fail(c, http.StatusBadRequest, ErrCodeInvalidEvent, "sender_id and conversation_id are required")
		return
	}

	if middleware.IsReplay(c) {
		ok(c, http.StatusOK, gin.H{"status": "duplicate"})
		return
	}
	if key, present := middleware.GetIdempotencyKey(c); present && h.DB != nil {
		_, err := repo.CreateIdempotency(c.Request.Context(), h.DB, key, ev.ConversationID, ev.SenderID, h.IdemTTL)
		switch {
		case errors.Is(err, repo.ErrDuplicate):
			ok(c, http.StatusOK, gin.H{"status": "duplicate"})
			return
		case err != nil:
			middleware.LoggerFrom(c).Warn().
				Err(err).
				Str("idempotency_key", key).
				Msg("idempotency record failed; processing event anyway")
		}
	}

	h.Bot.HandleInbound(c.Request.Context(), ev)
	ok(c, http.StatusAccepted, gin.H{"status": "accepted"})
}
