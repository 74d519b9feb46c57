package auth

import "context"

// ActiveSessionStore 保存每個 session 最後簽發的 token，同一 session 僅一組有效 token。
// 實作必須可被多個 request 併發呼叫，呼叫端不需額外加鎖。
type ActiveSessionStore interface {
	Put(ctx context.Context, sessionID, token string) error
	Get(ctx context.Context, sessionID string) (string, bool, error)
	Remove(ctx context.Context, sessionID string) error
}
