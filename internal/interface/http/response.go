package httpapi

import (
	"errors"
	"log"
	"math"
	"net/http"

	"github.com/JupyterEverywhere/sharing-service-sub000/internal/domain/notebook"

	"github.com/gin-gonic/gin"
)

const (
	errCodeBadRequest         = "BAD_REQUEST"
	errCodeInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	errCodeInvalidToken       = "AUTH_INVALID_TOKEN"
	errCodeRefreshFailed      = "AUTH_REFRESH_FAILED"
	errCodeUnauthorized       = "AUTH_UNAUTHORIZED"
	errCodeInvalidNotebook    = "INVALID_NOTEBOOK"
	errCodeNotebookTooLarge   = "NOTEBOOK_TOO_LARGE"
	errCodePayloadTooLarge    = "PAYLOAD_TOO_LARGE"
	errCodeNotFound           = "NOT_FOUND"
	errCodeStorageFailure     = "STORAGE_FAILURE"
	errCodeInternal           = "INTERNAL_ERROR"
)

func respondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, gin.H{"success": false, "error": msg, "error_code": code})
}

// respondNotebookError 將 notebook 服務錯誤轉為 HTTP 回應。
func respondNotebookError(c *gin.Context, err error) {
	var tooLarge *notebook.TooLargeError
	var invalid *notebook.InvalidNotebookError
	var storageErr *notebook.StorageError

	switch {
	case errors.As(err, &tooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"success":    false,
			"error":      tooLarge.Error(),
			"error_code": errCodeNotebookTooLarge,
			"details": gin.H{
				"maxSizeBytes":      tooLarge.Limit,
				"maxSizeMB":         tooLarge.LimitMB(),
				"notebookSizeBytes": tooLarge.Size,
				"notebookSizeMB":    math.Round(tooLarge.SizeMB()*100) / 100,
			},
		})
	case errors.As(err, &invalid):
		body := gin.H{"success": false, "error": invalid.Reason, "error_code": errCodeInvalidNotebook}
		if len(invalid.Violations) > 0 {
			body["violations"] = invalid.Violations
		}
		c.JSON(http.StatusBadRequest, body)
	case errors.Is(err, notebook.ErrNotFound):
		respondError(c, http.StatusNotFound, errCodeNotFound, "notebook not found")
	case errors.Is(err, notebook.ErrUnauthorized):
		respondError(c, http.StatusUnauthorized, errCodeUnauthorized, err.Error())
	case errors.As(err, &storageErr):
		log.Printf("[HTTP] storage failure path=%s: %v", c.Request.URL.Path, err)
		respondError(c, http.StatusInternalServerError, errCodeStorageFailure, "notebook storage failed")
	default:
		log.Printf("[HTTP] unexpected error path=%s: %v", c.Request.URL.Path, err)
		respondError(c, http.StatusInternalServerError, errCodeInternal, "internal error")
	}
}
