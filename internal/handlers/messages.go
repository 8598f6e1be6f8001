package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"lxrose/internal/middleware"
	"lxrose/internal/models"
)

/*
GET /api/messages/conversations/:userId
- One entry per partner, most recent conversation first
*/
func ListConversations(store MessageStore) gin.HandlerFunc {
	const route = "ListConversations"
	return func(c *gin.Context) {
		defer handlePanic(c, route)

		userID := c.Param("userId")

		ctx, cancel := storeContext(c)
		defer cancel()

		msgs, err := store.MessagesInvolving(ctx, userID)
		if err != nil {
			respondStoreError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, models.SummarizeConversations(userID, msgs))
	}
}

// GET /api/messages/conversation/:userId1/:userId2
func ConversationHistory(store MessageStore) gin.HandlerFunc {
	const route = "ConversationHistory"
	return func(c *gin.Context) {
		defer handlePanic(c, route)

		ctx, cancel := storeContext(c)
		defer cancel()

		msgs, err := store.MessagesBetween(ctx, c.Param("userId1"), c.Param("userId2"))
		if err != nil {
			respondStoreError(c, route, err)
			return
		}

		models.SortChronologically(msgs)
		c.JSON(http.StatusOK, msgs)
	}
}

type sendMessageRequest struct {
	FromUserID string `json:"fromUserId" validate:"required"`
	ToUserID   string `json:"toUserId" validate:"required"`
	Message    string `json:"message" validate:"required,max=5000"`
}

/*
POST /api/messages/send
- fromUserId defaults to the caller
- messages collection is authoritative; the embedded copies are best-effort
*/
func SendMessage(users UserStore, store MessageStore) gin.HandlerFunc {
	const route = "SendMessage"
	return func(c *gin.Context) {
		defer handlePanic(c, route)

		var req sendMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		if req.FromUserID == "" {
			req.FromUserID = middleware.UserID(c)
		}
		if !checkRequest(c, &req) {
			return
		}
		body := strings.TrimSpace(req.Message)
		if body == "" {
			respondWithError(c, http.StatusBadRequest, route, "message is required")
			return
		}

		ctx, cancel := storeContext(c)
		defer cancel()

		g, gctx := errgroup.WithContext(ctx)
		for _, id := range []string{req.FromUserID, req.ToUserID} {
			g.Go(func() error {
				_, err := users.FindUserByID(gctx, id)
				return err
			})
		}
		if err := g.Wait(); err != nil {
			respondStoreError(c, route, err)
			return
		}

		msg, err := store.InsertMessage(ctx, req.FromUserID, req.ToUserID, body)
		if err != nil {
			respondStoreError(c, route, err)
			return
		}

		if err := store.PushMailboxCopies(ctx, msg); err != nil {
			slog.Warn("mailbox copy failed", "route", route, "messageId", msg.ID, "error", err)
		}

		c.JSON(http.StatusOK, gin.H{
			"success":   true,
			"messageId": msg.ID,
		})
	}
}

// PUT /api/messages/:messageId/mark-read
func MarkMessageRead(store MessageStore) gin.HandlerFunc {
	const route = "MarkMessageRead"
	return func(c *gin.Context) {
		defer handlePanic(c, route)

		ctx, cancel := storeContext(c)
		defer cancel()

		if err := store.MarkMessageRead(ctx, c.Param("messageId")); err != nil {
			respondStoreError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

/*
PUT /api/messages/conversation/:userId1/:userId2/mark-read
- userId1 is the reader; only messages from userId2 are touched
*/
func MarkConversationRead(store MessageStore) gin.HandlerFunc {
	const route = "MarkConversationRead"
	return func(c *gin.Context) {
		defer handlePanic(c, route)

		ctx, cancel := storeContext(c)
		defer cancel()

		updated, err := store.MarkConversationRead(ctx, c.Param("userId1"), c.Param("userId2"))
		if err != nil {
			respondStoreError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"updated": updated,
		})
	}
}

type legacySendRequest struct {
	FromID     string         `json:"fromId" validate:"required"`
	ToID       string         `json:"toId" validate:"required"`
	MessageObj map[string]any `json:"messageObj" validate:"required"`
}

/*
POST /sendMessage
- Older console path: writes only the embedded arrays
*/
func LegacySendMessage(users UserStore) gin.HandlerFunc {
	const route = "LegacySendMessage"
	return func(c *gin.Context) {
		defer handlePanic(c, route)

		var req legacySendRequest
		if !bindAndValidate(c, &req) {
			return
		}

		ctx, cancel := storeContext(c)
		defer cancel()

		if err := users.AppendLegacyMessage(ctx, req.FromID, req.ToID, req.MessageObj); err != nil {
			respondStoreError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Message sent successfully"})
	}
}
