package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/teamkb/teamkb/internal/activity"
)

type ActivityHandler struct {
	svc *activity.Service
}

func NewActivityHandler(svc *activity.Service) *ActivityHandler {
	return &ActivityHandler{svc: svc}
}

// Register routes under /activities. The group must already be authenticated.
func (h *ActivityHandler) Register(rg *gin.RouterGroup) {
	g := rg.Group("/activities")
	g.GET("/team-feed", h.TeamFeed)
	g.GET("/user/:userId", h.ForUser)
	g.GET("/document/:documentId", h.ForDocument)
	g.GET("/recent-edits", h.RecentEdits)
}

func (h *ActivityHandler) TeamFeed(c *gin.Context) {
	list, err := h.svc.TeamFeed(c.Request.Context(), activity.DefaultLimit)
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, "activities", list)
}

func (h *ActivityHandler) ForUser(c *gin.Context) {
	list, err := h.svc.ForUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, "activities", list)
}

func (h *ActivityHandler) ForDocument(c *gin.Context) {
	list, err := h.svc.ForDocument(c.Request.Context(), c.Param("documentId"))
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, "activities", list)
}

func (h *ActivityHandler) RecentEdits(c *gin.Context) {
	docs, err := h.svc.RecentlyEdited(c.Request.Context(), activity.DefaultLimit)
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, "documents", docs)
}
