package httpapi

import (
	"bytes"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/JupyterEverywhere/sharing-service-sub000/internal/domain/auth"

	"github.com/gin-gonic/gin"
)

const cachedBodyKey = "cachedBody"

func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.extraHeaderName != "" && s.extraHeaderSecret != "" {
			got := c.GetHeader(s.extraHeaderName)
			if subtle.ConstantTimeCompare([]byte(got), []byte(s.extraHeaderSecret)) != 1 {
				log.Printf("[Auth] missing or invalid %s header path=%s", s.extraHeaderName, c.Request.URL.Path)
				respondError(c, http.StatusUnauthorized, errCodeUnauthorized, "unauthorized")
				c.Abort()
				return
			}
		}

		token := requestToken(c)
		if token == "" {
			respondError(c, http.StatusUnauthorized, errCodeUnauthorized, "unauthorized")
			c.Abort()
			return
		}

		claims, err := s.tokens.Authenticate(token)
		if err != nil {
			msg := "invalid or expired token"
			if errors.Is(err, auth.ErrTokenExpired) {
				msg = "token has expired"
			}
			log.Printf("[Auth] token rejected path=%s: %v", c.Request.URL.Path, err)
			respondError(c, http.StatusForbidden, errCodeInvalidToken, msg)
			c.Abort()
			return
		}

		c.Set(sessionIDKey, claims.SessionID)
		c.Set(authTokenKey, token)
		c.Next()
	}
}

// limitRequestSize 以 Content-Length 預先拒絕超過上限乘上緩衝係數的請求；無法解析時放行。
func (s *Server) limitRequestSize() gin.HandlerFunc {
	return func(c *gin.Context) {
		size, ok := declaredLength(c.Request)
		if ok && size > s.maxRequestBytes() {
			msg := fmt.Sprintf("Request size (%d bytes) exceeds maximum allowed size of %d MB", size, s.maxNotebookBytes/(1024*1024))
			log.Printf("[HTTP] %s method=%s path=%s", msg, c.Request.Method, c.Request.URL.Path)
			respondError(c, http.StatusRequestEntityTooLarge, errCodePayloadTooLarge, msg)
			c.Abort()
			return
		}
		c.Next()
	}
}

func (s *Server) maxRequestBytes() int64 {
	return int64(float64(s.maxNotebookBytes) * s.sizeBufferFactor)
}

func declaredLength(r *http.Request) (int64, bool) {
	if h := strings.TrimSpace(r.Header.Get("Content-Length")); h != "" {
		n, err := strconv.ParseInt(h, 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	if r.ContentLength >= 0 {
		return r.ContentLength, true
	}
	return 0, false
}

// cacheNotebookBody 將 notebook 的 POST/PUT JSON 內容讀入記憶體，讓後續處理可重複讀取；讀取量同樣受大小上限限制。
func (s *Server) cacheNotebookBody() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !shouldCacheBody(c.Request) {
			c.Next()
			return
		}
		limit := s.maxRequestBytes()
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, limit+1))
		_ = c.Request.Body.Close()
		if err != nil {
			respondError(c, http.StatusBadRequest, errCodeBadRequest, "failed to read request body")
			c.Abort()
			return
		}
		if int64(len(body)) > limit {
			log.Printf("[HTTP] request body exceeds %d bytes path=%s", limit, c.Request.URL.Path)
			respondError(c, http.StatusRequestEntityTooLarge, errCodePayloadTooLarge, "request body too large")
			c.Abort()
			return
		}
		c.Set(cachedBodyKey, body)
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		c.Next()
	}
}

func shouldCacheBody(r *http.Request) bool {
	if r.Method != http.MethodPost && r.Method != http.MethodPut {
		return false
	}
	if !strings.Contains(r.URL.Path, "/notebooks") {
		return false
	}
	return strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json")
}

func (s *Server) ginLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		log.Printf("[GIN] %v | %3d | %13v | %-7s %s",
			start.Format("2006/01/02 - 15:04:05"),
			c.Writer.Status(),
			time.Since(start),
			c.Request.Method,
			path,
		)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Header("Access-Control-Expose-Headers", "Authorization")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
