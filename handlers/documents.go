package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/teamkb/teamkb/internal/document"
	"github.com/teamkb/teamkb/internal/document/service"
	"github.com/teamkb/teamkb/internal/revision"
	"github.com/teamkb/teamkb/pkg/middleware"
)

type createDocumentRequest struct {
	Title   string `json:"title" binding:"required,notblank"`
	Content string `json:"content" binding:"required,notblank"`
}

type semanticSearchRequest struct {
	Query string `json:"query" binding:"required,notblank"`
}

type answerRequest struct {
	Question string `json:"question" binding:"required,notblank"`
}

// DocumentHandler serves /documents. Mutations go through the revision
// coordinator, reads through the document service.
type DocumentHandler struct {
	coord *revision.Coordinator
	docs  *service.Service
}

func NewDocumentHandler(coord *revision.Coordinator, docs *service.Service) *DocumentHandler {
	registerValidators()
	return &DocumentHandler{coord: coord, docs: docs}
}

// Register routes under /documents. The group must already be authenticated.
func (h *DocumentHandler) Register(rg *gin.RouterGroup) {
	g := rg.Group("/documents")
	g.POST("/create", h.Create)
	g.GET("/all", h.List)
	g.GET("/search", h.Search)
	g.POST("/semantic-search", h.SemanticSearch)
	g.POST("/answer-question", h.AnswerQuestion)
	g.GET("/:id", h.Get)
	g.PUT("/update/:id", h.Update)
	g.DELETE("/delete/:id", h.Delete)
}

func (h *DocumentHandler) Create(c *gin.Context) {
	var req createDocumentRequest
	if !bindJSON(c, &req) {
		return
	}
	actor, _ := middleware.IdentityFrom(c)
	d, err := h.coord.Create(c.Request.Context(), actor, req.Title, req.Content)
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusCreated, "doc", d)
}

func (h *DocumentHandler) List(c *gin.Context) {
	docs, err := h.docs.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, "docs", docs)
}

func (h *DocumentHandler) Get(c *gin.Context) {
	d, err := h.docs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, "doc", d)
}

func (h *DocumentHandler) Search(c *gin.Context) {
	docs, err := h.docs.Search(c.Request.Context(), c.Query("query"))
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, "docs", docs)
}

func (h *DocumentHandler) SemanticSearch(c *gin.Context) {
	var req semanticSearchRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.docs.SemanticSearch(c.Request.Context(), req.Query)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"query":        res.Query,
		"totalResults": res.TotalResults,
		"results":      res.Results,
		"fallback":     res.Fallback,
	})
}

func (h *DocumentHandler) AnswerQuestion(c *gin.Context) {
	var req answerRequest
	if !bindJSON(c, &req) {
		return
	}
	ans, err := h.docs.Answer(c.Request.Context(), req.Question)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"question":      ans.Question,
		"answer":        ans.Answer,
		"documentsUsed": ans.DocumentsUsed,
		"fallback":      ans.Fallback,
	})
}

// Update applies a partial update; absent fields are left untouched.
func (h *DocumentHandler) Update(c *gin.Context) {
	var patch document.Patch
	if !bindJSON(c, &patch) {
		return
	}
	actor, _ := middleware.IdentityFrom(c)
	d, err := h.coord.Update(c.Request.Context(), actor, c.Param("id"), patch)
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, "doc", d)
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	actor, _ := middleware.IdentityFrom(c)
	if err := h.coord.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, "message", "Document deleted successfully")
}
