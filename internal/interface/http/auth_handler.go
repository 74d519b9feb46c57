package httpapi

import (
	"errors"
	"io"
	"log"
	"net/http"

	appauth "github.com/JupyterEverywhere/sharing-service-sub000/internal/application/auth"
	"github.com/JupyterEverywhere/sharing-service-sub000/internal/domain/auth"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleIssueToken(c *gin.Context) {
	var body struct {
		NotebookID string `json:"notebook_id"`
		Password   string `json:"password"`
	}
	// body 可省略，省略時簽發未綁定 notebook 的 token
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, http.StatusBadRequest, errCodeBadRequest, "invalid body")
		return
	}

	token, err := s.tokens.IssueInitial(c.Request.Context(), &appauth.IssueInput{
		NotebookID: body.NotebookID,
		Password:   body.Password,
	})
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			log.Printf("[Auth] issue rejected notebook_id=%s ip=%s", body.NotebookID, clientIP(c.Request))
			respondError(c, http.StatusUnauthorized, errCodeInvalidCredentials, err.Error())
			return
		}
		log.Printf("[Auth] issue failed: %v", err)
		respondError(c, http.StatusInternalServerError, errCodeInternal, "failed to issue token")
		return
	}

	c.Header("Authorization", "Bearer "+token)
	c.JSON(http.StatusOK, gin.H{"success": true, "token": token})
}

func (s *Server) handleRefreshToken(c *gin.Context) {
	var body struct {
		Token string `json:"token"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Token == "" {
		respondError(c, http.StatusBadRequest, errCodeBadRequest, "token is required")
		return
	}

	token, err := s.tokens.Refresh(c.Request.Context(), body.Token)
	if err != nil {
		log.Printf("[Auth] refresh rejected: %v", err)
		respondError(c, http.StatusUnauthorized, errCodeRefreshFailed, "token refresh failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "token": token})
}
