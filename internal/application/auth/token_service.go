package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/JupyterEverywhere/sharing-service-sub000/internal/domain/auth"
	"github.com/JupyterEverywhere/sharing-service-sub000/internal/domain/notebook"

	"github.com/google/uuid"
)

// TokenCodec 簽發/解析 token。
type TokenCodec interface {
	Issue(sessionID, notebookID string, ttl time.Duration) (string, error)
	ExtractClaims(token string) (auth.ParsedToken, error)
}

// PasswordHasher 驗證密碼。
type PasswordHasher interface {
	Compare(hashed, plain string) bool
}

// NotebookFinder 簡化 notebook repo 需求，僅用於簽發時比對密碼。
type NotebookFinder interface {
	FindByID(ctx context.Context, id string) (notebook.Notebook, error)
}

// IssueInput 為簽發 token 的選填參數；兩者皆有值才會綁定 notebook。
type IssueInput struct {
	NotebookID string
	Password   string
}

// TokenService 管理 token 簽發、換發與驗證，並維護每個 session 唯一有效的 token。
type TokenService struct {
	codec     TokenCodec
	sessions  auth.ActiveSessionStore
	notebooks NotebookFinder
	hasher    PasswordHasher
	ttl       time.Duration
	newID     func() string
}

// NewTokenService 建立 token 生命週期管理器。
func NewTokenService(codec TokenCodec, sessions auth.ActiveSessionStore, notebooks NotebookFinder, hasher PasswordHasher, ttl time.Duration) *TokenService {
	return &TokenService{
		codec:     codec,
		sessions:  sessions,
		notebooks: notebooks,
		hasher:    hasher,
		ttl:       ttl,
		newID:     uuid.NewString,
	}
}

// IssueInitial 建立新 session 並簽發 token；帶 notebook 與密碼時需通過密碼比對。
func (s *TokenService) IssueInitial(ctx context.Context, input *IssueInput) (string, error) {
	notebookID := ""
	if input != nil && strings.TrimSpace(input.NotebookID) != "" && input.Password != "" {
		nb, err := s.notebooks.FindByID(ctx, strings.TrimSpace(input.NotebookID))
		if err != nil {
			if errors.Is(err, notebook.ErrNotFound) {
				return "", auth.ErrInvalidCredentials
			}
			return "", fmt.Errorf("find notebook: %w", err)
		}
		if !nb.Protected() || !s.hasher.Compare(nb.PasswordHash, input.Password) {
			log.Printf("[Auth] password verification failed notebook_id=%s", nb.ID)
			return "", auth.ErrInvalidCredentials
		}
		notebookID = nb.ID
	}

	sessionID := s.newID()
	token, err := s.codec.Issue(sessionID, notebookID, s.ttl)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	if err := s.sessions.Put(ctx, sessionID, token); err != nil {
		return "", fmt.Errorf("store active token: %w", err)
	}
	log.Printf("[Auth] token issued session_id=%s bound=%t", sessionID, notebookID != "")
	return token, nil
}

// Refresh 以目前有效的 token 換發新 token，session 與 notebook 綁定保持不變。
// 只比對 store 內的字串是否相同，被取代但尚未過期的 token 在併發換發時仍可能通過。
func (s *TokenService) Refresh(ctx context.Context, oldToken string) (string, error) {
	parsed, err := s.codec.ExtractClaims(oldToken)
	if err != nil {
		return "", fmt.Errorf("%w: %v", auth.ErrRefreshFailed, err)
	}
	sessionID := parsed.Claims.SessionID
	current, ok, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("load active token: %w", err)
	}
	if !ok || current != oldToken {
		return "", fmt.Errorf("%w: token superseded or unknown session", auth.ErrRefreshFailed)
	}
	if !parsed.Active() {
		return "", fmt.Errorf("%w: token expired", auth.ErrRefreshFailed)
	}

	if err := s.sessions.Remove(ctx, sessionID); err != nil {
		return "", fmt.Errorf("remove active token: %w", err)
	}
	token, err := s.codec.Issue(sessionID, parsed.Claims.NotebookID, s.ttl)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	if err := s.sessions.Put(ctx, sessionID, token); err != nil {
		return "", fmt.Errorf("store active token: %w", err)
	}
	return token, nil
}

// Validate 簽章正確且未過期才回傳 true。
func (s *TokenService) Validate(token string) bool {
	parsed, err := s.codec.ExtractClaims(token)
	return err == nil && parsed.Active()
}

// Authenticate 驗證 token 後回傳 claims，供 HTTP 中介層取得 session。
func (s *TokenService) Authenticate(token string) (auth.Claims, error) {
	parsed, err := s.codec.ExtractClaims(token)
	if err != nil {
		return auth.Claims{}, err
	}
	if !parsed.Active() {
		return auth.Claims{}, auth.ErrTokenExpired
	}
	return parsed.Claims, nil
}
