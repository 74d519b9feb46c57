package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	appnotebook "github.com/JupyterEverywhere/sharing-service-sub000/internal/application/notebook"

	"github.com/gin-gonic/gin"
)

type notebookRequest struct {
	Notebook json.RawMessage `json:"notebook"`
	Password string          `json:"password"`
}

func savedResponse(saved appnotebook.Saved) gin.H {
	return gin.H{
		"id":          saved.ID,
		"domain_id":   saved.Domain,
		"readable_id": saved.ReadableID,
	}
}

func bindNotebookRequest(c *gin.Context) (notebookRequest, bool) {
	var body notebookRequest
	if err := decodeNotebookRequest(c, &body); err != nil {
		respondError(c, http.StatusBadRequest, errCodeBadRequest, "invalid body")
		return body, false
	}
	if len(body.Notebook) == 0 {
		respondError(c, http.StatusBadRequest, errCodeBadRequest, "notebook field is required")
		return body, false
	}
	return body, true
}

// decodeNotebookRequest 優先使用中介層快取的 body。
func decodeNotebookRequest(c *gin.Context, body *notebookRequest) error {
	if v, ok := c.Get(cachedBodyKey); ok {
		if raw, ok := v.([]byte); ok {
			return json.Unmarshal(raw, body)
		}
	}
	return c.ShouldBindJSON(body)
}

func (s *Server) handleCreateNotebook(c *gin.Context) {
	body, ok := bindNotebookRequest(c)
	if !ok {
		return
	}

	saved, err := s.notebooks.Create(c.Request.Context(), appnotebook.CreateInput{
		Document:  body.Notebook,
		Password:  body.Password,
		SessionID: currentSessionID(c),
		Domain:    s.requestDomain(c),
	})
	if err != nil {
		respondNotebookError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"message":  "Notebook uploaded, validated, and metadata stored successfully",
		"notebook": savedResponse(saved),
	})
}

func (s *Server) handleUpdateNotebook(c *gin.Context) {
	s.updateNotebook(c, func(in appnotebook.UpdateInput) (appnotebook.Saved, error) {
		return s.notebooks.Update(c.Request.Context(), c.Param("id"), in)
	})
}

func (s *Server) handleUpdateNotebookByReadableID(c *gin.Context) {
	s.updateNotebook(c, func(in appnotebook.UpdateInput) (appnotebook.Saved, error) {
		return s.notebooks.UpdateByReadableID(c.Request.Context(), c.Param("readableId"), in)
	})
}

func (s *Server) updateNotebook(c *gin.Context, update func(appnotebook.UpdateInput) (appnotebook.Saved, error)) {
	body, ok := bindNotebookRequest(c)
	if !ok {
		return
	}

	saved, err := update(appnotebook.UpdateInput{
		Document:        body.Notebook,
		SessionID:       currentSessionID(c),
		CapabilityToken: requestToken(c),
	})
	if err != nil {
		respondNotebookError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  "Notebook updated successfully",
		"notebook": savedResponse(saved),
	})
}

func (s *Server) handleGetNotebook(c *gin.Context) {
	nb, err := s.notebooks.Get(c.Request.Context(), c.Param("id"), currentToken(c))
	if err != nil {
		respondNotebookError(c, err)
		return
	}
	c.JSON(http.StatusOK, retrievedResponse(nb))
}

func (s *Server) handleGetNotebookByReadableID(c *gin.Context) {
	nb, err := s.notebooks.GetByReadableID(c.Request.Context(), c.Param("readableId"), currentToken(c))
	if err != nil {
		respondNotebookError(c, err)
		return
	}
	c.JSON(http.StatusOK, retrievedResponse(nb))
}

func retrievedResponse(nb appnotebook.Retrieved) gin.H {
	return gin.H{
		"success":     true,
		"id":          nb.ID,
		"domain_id":   nb.Domain,
		"readable_id": nb.ReadableID,
		"content":     nb.Content,
	}
}

func (s *Server) handleListNotebooks(c *gin.Context) {
	list, err := s.notebooks.ListBySession(c.Request.Context(), currentSessionID(c))
	if err != nil {
		respondNotebookError(c, err)
		return
	}

	items := make([]gin.H, 0, len(list))
	for _, nb := range list {
		items = append(items, gin.H{
			"id":          nb.ID,
			"readable_id": nb.ReadableID,
			"domain_id":   nb.Domain,
			"kernel_name": nb.KernelName,
			"language":    nb.Language,
			"protected":   nb.Protected(),
			"created_at":  nb.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "notebooks": items})
}
