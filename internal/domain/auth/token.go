package auth

import (
	"errors"
	"time"
)

var (
	// ErrMalformedToken 表示 token 無法解析或簽章驗證失敗。
	ErrMalformedToken = errors.New("malformed token")
	// ErrInvalidCredentials 表示 notebook 密碼比對失敗。
	ErrInvalidCredentials = errors.New("invalid notebook ID or password")
	// ErrTokenExpired 表示 token 簽章正確但已過期。
	ErrTokenExpired = errors.New("token expired")
	// ErrRefreshFailed 表示 token 已過期、被取代或無效，無法換發。
	ErrRefreshFailed = errors.New("token refresh failed")
)

// Claims 定義分享 token 的 payload，時間欄位皆為 epoch 毫秒。
// TokenID 每次簽發皆不同，同一毫秒內換發的 token 也不會與舊 token 相同。
type Claims struct {
	TokenID    string `json:"jti"`
	SessionID  string `json:"session_id"`
	NotebookID string `json:"notebook_id,omitempty"`
	IssuedAt   int64  `json:"issued_at"`
	ExpiresAt  int64  `json:"expires_at"`
}

// Expired 以嚴格小於判斷是否過期。
func (c Claims) Expired(now time.Time) bool {
	return c.ExpiresAt < now.UnixMilli()
}

// Bound 判斷 token 是否綁定於指定 notebook。
func (c Claims) Bound(notebookID string) bool {
	return c.NotebookID != "" && c.NotebookID == notebookID
}

// TokenStatus 區分仍有效與已過期（但簽章正確）的 token。
type TokenStatus int

const (
	TokenActive TokenStatus = iota
	TokenExpired
)

func (s TokenStatus) String() string {
	if s == TokenExpired {
		return "expired"
	}
	return "active"
}

// ParsedToken 為解析後的 claims 與狀態；過期 token 仍可取得 claims 供 refresh 使用。
type ParsedToken struct {
	Claims Claims
	Status TokenStatus
}

// Active 回傳 token 是否未過期。
func (p ParsedToken) Active() bool {
	return p.Status == TokenActive
}
