package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/teamkb/teamkb/internal/revision"
	"github.com/teamkb/teamkb/internal/versions"
	"github.com/teamkb/teamkb/pkg/middleware"
)

type VersionHandler struct {
	ledger *versions.Ledger
	coord  *revision.Coordinator
}

func NewVersionHandler(ledger *versions.Ledger, coord *revision.Coordinator) *VersionHandler {
	return &VersionHandler{ledger: ledger, coord: coord}
}

// Register routes under /versions. The group must already be authenticated.
func (h *VersionHandler) Register(rg *gin.RouterGroup) {
	g := rg.Group("/versions")
	g.GET("/history/:documentId", h.History)
	g.GET("/:versionId", h.Get)
	g.POST("/restore/:versionId", h.Restore)
}

func (h *VersionHandler) History(c *gin.Context) {
	list, err := h.ledger.History(c.Request.Context(), c.Param("documentId"))
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, "versions", list)
}

func (h *VersionHandler) Get(c *gin.Context) {
	v, err := h.ledger.View(c.Request.Context(), c.Param("versionId"))
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, "version", v)
}

func (h *VersionHandler) Restore(c *gin.Context) {
	actor, _ := middleware.IdentityFrom(c)
	d, err := h.coord.Restore(c.Request.Context(), actor, c.Param("versionId"))
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, "doc", d)
}
