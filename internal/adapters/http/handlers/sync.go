package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotekeeper/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotekeeper/internal/app"
)

// SyncHandler handles manual sync and the notifications it raises.
type SyncHandler struct {
	sync          *app.SyncService
	quotes        *app.QuoteService
	notifications *app.Notifications
}

// NewSyncHandler creates a new sync handler.
// Panics if any dependency is nil.
func NewSyncHandler(sync *app.SyncService, quotes *app.QuoteService, notifications *app.Notifications) *SyncHandler {
	if sync == nil || quotes == nil || notifications == nil {
		panic("SyncHandler: sync, quotes and notifications are required")
	}

	return &SyncHandler{sync: sync, quotes: quotes, notifications: notifications}
}

// Sync handles POST /api/v1/sync. A sync that finds another one running
// reports skipped rather than waiting.
//
// @Summary Reconcile with the remote now
// @Tags sync
// @Success 200 {object} dto.SyncResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /api/v1/sync [post]
func (h *SyncHandler) Sync(c *gin.Context) {
	outcome, err := h.sync.Sync(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromSyncOutcome(outcome))
}

// ListNotifications handles GET /api/v1/notifications.
//
// @Summary List active notifications
// @Tags sync
// @Success 200 {object} dto.NotificationsResponse
// @Router /api/v1/notifications [get]
func (h *SyncHandler) ListNotifications(c *gin.Context) {
	active := h.notifications.Active()

	resp := dto.NotificationsResponse{Items: make([]dto.Notification, 0, len(active))}
	for _, n := range active {
		resp.Items = append(resp.Items, dto.FromNotification(n))
	}

	c.JSON(http.StatusOK, resp)
}

// Redisplay handles POST /api/v1/notifications/:id/redisplay.
//
// @Summary Show a fresh quote and dismiss the notification
// @Tags sync
// @Param id path string true "Notification ID"
// @Success 200 {object} dto.RandomQuoteResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/notifications/{id}/redisplay [post]
func (h *SyncHandler) Redisplay(c *gin.Context) {
	sel, err := h.notifications.Redisplay(c.Request.Context(), c.Param("id"), h.quotes)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromSelection(sel))
}

// Dismiss handles DELETE /api/v1/notifications/:id.
//
// @Summary Dismiss a notification
// @Tags sync
// @Param id path string true "Notification ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/notifications/{id} [delete]
func (h *SyncHandler) Dismiss(c *gin.Context) {
	if err := h.notifications.Dismiss(c.Request.Context(), c.Param("id")); err != nil {
		dto.HandleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// RegisterSyncRoutes registers sync and notification routes.
func (h *SyncHandler) RegisterSyncRoutes(rg *gin.RouterGroup) {
	rg.POST("/sync", h.Sync)

	notifications := rg.Group("/notifications")
	notifications.GET("", h.ListNotifications)
	notifications.POST("/:id/redisplay", h.Redisplay)
	notifications.DELETE("/:id", h.Dismiss)
}
