package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/gartstein/tradehub/internal/exchange/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type chatListResponse struct {
	PageResponse[models.Chat]
	TotalUnreadCount int64 `json:"total_unread_count"`
}

type messageRequest struct {
	Text string `json:"text"`
}

func (h *Handler) registerChatRoutes(api *gin.RouterGroup) {
	g := api.Group("/chats")
	g.GET("", h.listChats)
	g.GET("/:id/messages", h.listMessages)
	g.POST("/:id/messages", h.postMessage)
	g.GET("/:id/stream", h.streamMessages)
}

func (h *Handler) listChats(c *gin.Context) {
	p, err := pageFromQuery(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	list, err := h.svc.Chats.ListChats(c.Request.Context(), actor(c), p)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, chatListResponse{
		PageResponse:     toPageResponse(c, list.Page, p),
		TotalUnreadCount: list.TotalUnread,
	})
}

func (h *Handler) listMessages(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	p, err := pageFromQuery(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	page, err := h.svc.Chats.ListMessages(c.Request.Context(), actor(c), id, p)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toPageResponse(c, page, p))
}

func (h *Handler) postMessage(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	msg, err := h.svc.Chats.PostMessage(c.Request.Context(), actor(c), id, req.Text)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// streamMessages pushes new chat messages as server-sent events until the
// client goes away. A ping event keeps idle connections open.
func (h *Handler) streamMessages(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	ctx := c.Request.Context()
	sub, err := h.svc.Chats.Subscribe(ctx, actor(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	defer sub.Close()

	h.logger.Debug("Chat stream opened", zap.String("chat_id", id.String()))
	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case msg, ok := <-sub.Messages:
			if !ok {
				return false
			}
			c.SSEvent("message", msg)
			return true
		case <-ticker.C:
			c.SSEvent("ping", time.Now().Unix())
			return true
		}
	})
}
