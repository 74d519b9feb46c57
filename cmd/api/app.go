package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	appauth "github.com/JupyterEverywhere/sharing-service-sub000/internal/application/auth"
	appnotebook "github.com/JupyterEverywhere/sharing-service-sub000/internal/application/notebook"
	"github.com/JupyterEverywhere/sharing-service-sub000/internal/domain/auth"
	"github.com/JupyterEverywhere/sharing-service-sub000/internal/domain/notebook"
	"github.com/JupyterEverywhere/sharing-service-sub000/internal/infra/memory"
	authinfra "github.com/JupyterEverywhere/sharing-service-sub000/internal/infrastructure/auth"
	"github.com/JupyterEverywhere/sharing-service-sub000/internal/infrastructure/cache"
	"github.com/JupyterEverywhere/sharing-service-sub000/internal/infrastructure/config"
	"github.com/JupyterEverywhere/sharing-service-sub000/internal/infrastructure/db"
	"github.com/JupyterEverywhere/sharing-service-sub000/internal/infrastructure/persistence/postgres"
	"github.com/JupyterEverywhere/sharing-service-sub000/internal/infrastructure/secrets"
	"github.com/JupyterEverywhere/sharing-service-sub000/internal/infrastructure/storage"
	httpapi "github.com/JupyterEverywhere/sharing-service-sub000/internal/interface/http"

	"golang.org/x/crypto/bcrypt"
)

// app 持有啟動時建立、結束時需要關閉的資源。
type app struct {
	server  *httpapi.Server
	closers []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Printf("close resource: %v", err)
		}
	}
}

// buildApp 依組態選擇 metadata、session、secret 與內容儲存實作並組裝 HTTP 伺服器。
func buildApp(ctx context.Context, cfg config.Config) (*app, error) {
	a := &app{}

	pool, err := db.Connect(ctx, cfg.DB)
	if err != nil {
		log.Printf("warning: database connection failed, falling back to in-memory store: %v", err)
		pool = nil
	}
	store := metadataStore(pool)
	if pool != nil {
		a.closers = append(a.closers, pool.Close)
	}

	sessions, closeSessions, err := sessionStore(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	if closeSessions != nil {
		a.closers = append(a.closers, closeSessions)
	}

	blobs, err := blobStore(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	schema, err := appnotebook.NewSchemaValidator()
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("compile notebook schema: %w", err)
	}

	codec := authinfra.NewTokenCodec(cfg.Auth.Secret, cfg.Auth.ClockSkew)
	hasher := authinfra.BcryptHasher{Cost: bcrypt.DefaultCost}
	pipeline := appnotebook.NewPipeline(schema, cfg.Notebook.MaxSizeBytes)
	notebooks := appnotebook.NewService(store, blobs, pipeline, codec, hasher)
	tokens := appauth.NewTokenService(codec, sessions, notebooks, hasher, cfg.Auth.TokenTTL)

	a.server = httpapi.NewServer(cfg, httpapi.Deps{
		Tokens:    tokens,
		Notebooks: notebooks,
		DB:        pool,
	})
	return a, nil
}

func metadataStore(pool *sql.DB) notebook.MetadataStore {
	if pool == nil {
		log.Printf("no DB_DSN provided; notebook metadata kept in memory")
		return memory.NewStore()
	}
	log.Printf("database connected successfully")
	return postgres.NewNotebookRepo(pool)
}

func sessionStore(ctx context.Context, cfg config.Config) (auth.ActiveSessionStore, func() error, error) {
	if cfg.Session.Backend != "redis" {
		return memory.NewSessionStore(), nil, nil
	}
	store, err := cache.NewRedisSessionStore(ctx, cfg.Session.Redis)
	if err != nil {
		return nil, nil, fmt.Errorf("connect redis session store: %w", err)
	}
	log.Printf("[Session] using redis at %s", cfg.Session.Redis.Addr)
	return store, store.Close, nil
}

func secretSource(ctx context.Context, cfg config.Config) (notebook.SecretSource, error) {
	if cfg.Secrets.Provider != "aws" {
		return secrets.NewEnvSource(cfg.Secrets.Prefix), nil
	}
	region := cfg.Secrets.Region
	if region == "" {
		region = cfg.Storage.S3.Region
	}
	return secrets.NewAWSSource(ctx, region, cfg.Secrets.Prefix)
}

func blobStore(ctx context.Context, cfg config.Config) (notebook.BlobStore, error) {
	if cfg.Storage.Type != "s3" {
		log.Printf("[Storage] using local files under %s", cfg.Storage.LocalPath)
		return storage.NewFileStore(cfg.Storage.LocalPath)
	}

	source, err := secretSource(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create secret source: %w", err)
	}
	secret, err := source.Get(ctx, cfg.Storage.S3.SecretName)
	if err != nil {
		return nil, fmt.Errorf("load s3 secret: %w", err)
	}
	settings, err := storage.S3SettingsFromSecret(secret, cfg.Storage.S3.Region, cfg.Storage.S3.Endpoint)
	if err != nil {
		return nil, err
	}
	client, err := storage.NewS3Client(ctx, settings)
	if err != nil {
		return nil, err
	}
	log.Printf("[Storage] using s3 bucket %s", settings.Bucket)
	return storage.NewS3Store(client, settings.Bucket), nil
}
