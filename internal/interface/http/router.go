package httpapi

import (
	"context"
	"net/http"

	"github.com/JupyterEverywhere/sharing-service-sub000/internal"
	appauth "github.com/JupyterEverywhere/sharing-service-sub000/internal/application/auth"
	appnotebook "github.com/JupyterEverywhere/sharing-service-sub000/internal/application/notebook"
	"github.com/JupyterEverywhere/sharing-service-sub000/internal/domain/auth"
	"github.com/JupyterEverywhere/sharing-service-sub000/internal/domain/notebook"
	"github.com/JupyterEverywhere/sharing-service-sub000/internal/infrastructure/config"

	"github.com/gin-gonic/gin"
)

const (
	serviceName    = "sharing-service"
	serviceVersion = "0.1.1"

	defaultMaxNotebookBytes = 10 * 1024 * 1024
	defaultSizeBuffer       = 1.5
)

// TokenService 為 HTTP 層使用的 token 操作。
type TokenService interface {
	IssueInitial(ctx context.Context, input *appauth.IssueInput) (string, error)
	Refresh(ctx context.Context, oldToken string) (string, error)
	Authenticate(token string) (auth.Claims, error)
}

// NotebookService 為 HTTP 層使用的 notebook 操作。
type NotebookService interface {
	Create(ctx context.Context, in appnotebook.CreateInput) (appnotebook.Saved, error)
	Update(ctx context.Context, notebookID string, in appnotebook.UpdateInput) (appnotebook.Saved, error)
	UpdateByReadableID(ctx context.Context, readableID string, in appnotebook.UpdateInput) (appnotebook.Saved, error)
	Get(ctx context.Context, id, token string) (appnotebook.Retrieved, error)
	GetByReadableID(ctx context.Context, readableID, token string) (appnotebook.Retrieved, error)
	ListBySession(ctx context.Context, sessionID string) ([]notebook.Notebook, error)
}

// Pinger 供健康檢查回報資料庫狀態，*sql.DB 即符合。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HostResolver 將 client IP 轉為網域字串。
type HostResolver func(ctx context.Context, ip string) string

// Deps 為 Server 的外部相依；DB 與 ResolveHost 可省略。
type Deps struct {
	Tokens      TokenService
	Notebooks   NotebookService
	DB          Pinger
	ResolveHost HostResolver
}

// Server 封裝 HTTP 路由與依賴。
type Server struct {
	engine            *gin.Engine
	tokens            TokenService
	notebooks         NotebookService
	db                Pinger
	resolveHost       HostResolver
	maxNotebookBytes  int64
	sizeBufferFactor  float64
	extraHeaderName   string
	extraHeaderSecret string
}

// NewServer 建立 API 伺服器並註冊路由。
func NewServer(cfg config.Config, deps Deps) *Server {
	maxBytes := cfg.Notebook.MaxSizeBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxNotebookBytes
	}
	factor := cfg.Notebook.SizeBufferFactor
	if factor <= 0 {
		factor = defaultSizeBuffer
	}

	s := &Server{
		engine:            gin.New(),
		tokens:            deps.Tokens,
		notebooks:         deps.Notebooks,
		resolveHost:       deps.ResolveHost,
		maxNotebookBytes:  maxBytes,
		sizeBufferFactor:  factor,
		extraHeaderName:   cfg.Auth.ExtraHeaderName,
		extraHeaderSecret: cfg.Auth.ExtraHeaderSecret,
	}
	// main 可能傳入 nil 的 *sql.DB
	if !internal.IsNil(deps.DB) {
		s.db = deps.DB
	}
	if s.resolveHost == nil {
		s.resolveHost = lookupHost
	}
	s.registerRoutes()
	return s
}

// Handler 回傳路由處理器，供 HTTP server 掛載。
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) registerRoutes() {
	s.engine.Use(gin.Recovery(), s.ginLogger(), corsMiddleware(), s.limitRequestSize(), s.cacheNotebookBody())

	api := s.engine.Group("/api")
	api.GET("/health", s.handleHealth)
	api.POST("/auth/issue", s.handleIssueToken)
	api.POST("/auth/refresh", s.handleRefreshToken)

	notebooks := api.Group("/notebooks", s.requireAuth())
	notebooks.POST("", s.handleCreateNotebook)
	notebooks.GET("", s.handleListNotebooks)
	notebooks.GET("/:id", s.handleGetNotebook)
	notebooks.GET("/get-by-readable-id/:readableId", s.handleGetNotebookByReadableID)
	notebooks.PUT("/:id", s.handleUpdateNotebook)
	notebooks.PUT("/update-by-readable-id/:readableId", s.handleUpdateNotebookByReadableID)
}
