package authinfra

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/JupyterEverywhere/sharing-service-sub000/internal/domain/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultClockSkew 為 issued_at 允許超前伺服器時間的範圍。
const DefaultClockSkew = 60 * time.Second

// TokenCodec 以 HS256 簽發與解析分享 token，本身不保存任何狀態。
type TokenCodec struct {
	secret []byte
	skew   time.Duration
	now    func() time.Time
}

// NewTokenCodec 建立 token 編解碼器。
func NewTokenCodec(secret string, skew time.Duration) *TokenCodec {
	if skew <= 0 {
		skew = DefaultClockSkew
	}
	return &TokenCodec{
		secret: []byte(secret),
		skew:   skew,
		now:    time.Now,
	}
}

// tokenClaims 讓 auth.Claims 滿足 jwt.Claims；到期判斷由 ExtractClaims 自行處理。
type tokenClaims struct {
	auth.Claims
}

func (tokenClaims) GetExpirationTime() (*jwt.NumericDate, error) { return nil, nil }
func (tokenClaims) GetIssuedAt() (*jwt.NumericDate, error)       { return nil, nil }
func (tokenClaims) GetNotBefore() (*jwt.NumericDate, error)      { return nil, nil }
func (tokenClaims) GetIssuer() (string, error)                   { return "", nil }
func (tokenClaims) GetSubject() (string, error)                  { return "", nil }
func (tokenClaims) GetAudience() (jwt.ClaimStrings, error)       { return nil, nil }

// Issue 簽發 token；notebookID 可為空代表未綁定。
func (c *TokenCodec) Issue(sessionID, notebookID string, ttl time.Duration) (string, error) {
	if strings.TrimSpace(sessionID) == "" {
		return "", errors.New("session id required")
	}
	now := c.now()
	claims := tokenClaims{Claims: auth.Claims{
		TokenID:    uuid.NewString(),
		SessionID:  sessionID,
		NotebookID: notebookID,
		IssuedAt:   now.UnixMilli(),
		ExpiresAt:  now.Add(ttl).UnixMilli(),
	}}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ExtractClaims 驗證簽章並回傳 claims；過期 token 仍回傳 claims，狀態為 TokenExpired。
func (c *TokenCodec) ExtractClaims(token string) (auth.ParsedToken, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.ParsedToken{}, auth.ErrMalformedToken
	}
	var claims tokenClaims
	tkn, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tkn.Valid {
		return auth.ParsedToken{}, fmt.Errorf("%w: %v", auth.ErrMalformedToken, err)
	}
	if claims.SessionID == "" || claims.ExpiresAt == 0 {
		return auth.ParsedToken{}, fmt.Errorf("%w: missing claims", auth.ErrMalformedToken)
	}

	now := c.now()
	if claims.IssuedAt > now.Add(c.skew).UnixMilli() {
		return auth.ParsedToken{}, fmt.Errorf("%w: issued in the future", auth.ErrMalformedToken)
	}
	status := auth.TokenActive
	if claims.Expired(now) {
		status = auth.TokenExpired
	}
	return auth.ParsedToken{Claims: claims.Claims, Status: status}, nil
}

// IsSignatureValid 僅檢查 token 是否由本服務簽發。
func (c *TokenCodec) IsSignatureValid(token string) bool {
	_, err := c.ExtractClaims(token)
	return err == nil
}
