package httpapi

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	sessionIDKey  = "sessionID"
	authTokenKey  = "authToken"
	unknownDomain = "Unknown"
	lookupTimeout = 2 * time.Second
)

// clientIP 依序取 X-Forwarded-For 第一段、X-Real-IP、RemoteAddr；值為 unknown 視同未帶。
func clientIP(r *http.Request) string {
	if ip := headerValue(r, "X-Forwarded-For"); ip != "" {
		return strings.TrimSpace(strings.Split(ip, ",")[0])
	}
	if ip := headerValue(r, "X-Real-IP"); ip != "" {
		return strings.TrimSpace(ip)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func headerValue(r *http.Request, name string) string {
	v := strings.TrimSpace(r.Header.Get(name))
	if strings.EqualFold(v, "unknown") {
		return ""
	}
	return v
}

// lookupHost 反查 DNS；查無名稱時回傳 IP 本身，非 IP 字串回傳 Unknown。
func lookupHost(ctx context.Context, ip string) string {
	if net.ParseIP(ip) == nil {
		return unknownDomain
	}
	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()
	names, err := net.DefaultResolver.LookupAddr(ctx, ip)
	if err != nil || len(names) == 0 {
		return ip
	}
	return strings.TrimSuffix(names[0], ".")
}

func (s *Server) requestDomain(c *gin.Context) string {
	ip := clientIP(c.Request)
	if ip == "" {
		return unknownDomain
	}
	domain := s.resolveHost(c.Request.Context(), ip)
	if domain == "" {
		return unknownDomain
	}
	return domain
}

func parseBearer(h string) string {
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// requestToken 先取 Authorization bearer，再取 token query 參數。
func requestToken(c *gin.Context) string {
	if token := parseBearer(c.GetHeader("Authorization")); token != "" {
		return token
	}
	return strings.TrimSpace(c.Query("token"))
}

func currentSessionID(c *gin.Context) string {
	if v, ok := c.Get(sessionIDKey); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

func currentToken(c *gin.Context) string {
	return c.GetString(authTokenKey)
}
