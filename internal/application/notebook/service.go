package notebook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/JupyterEverywhere/sharing-service-sub000/internal/domain/notebook"

	"github.com/google/uuid"
)

// PasswordHasher 產生密碼雜湊。
type PasswordHasher interface {
	Hash(plain string) (string, error)
}

// CreateInput 為新增 notebook 的輸入；Password 為空代表不設密碼。
type CreateInput struct {
	Document  []byte
	Password  string
	SessionID string
	Domain    string
}

// UpdateInput 為更新 notebook 的輸入；CapabilityToken 只在更新者不是擁有者時使用。
type UpdateInput struct {
	Document        []byte
	SessionID       string
	CapabilityToken string
}

// Saved 為寫入成功後回傳給呼叫端的資訊。
type Saved struct {
	ID         string
	SessionID  string
	Domain     string
	ReadableID string
}

// Retrieved 為讀取 notebook 的結果。
type Retrieved struct {
	ID         string
	Domain     string
	ReadableID string
	Content    json.RawMessage
}

// Service 串接檢查流程、權限判斷與 metadata/內容儲存。
type Service struct {
	store    notebook.MetadataStore
	blobs    notebook.BlobStore
	pipeline *Pipeline
	authz    *UpdateAuthorizer
	tokens   ClaimsExtractor
	hasher   PasswordHasher
	newID    func() string
	now      func() time.Time
}

func NewService(store notebook.MetadataStore, blobs notebook.BlobStore, pipeline *Pipeline, tokens ClaimsExtractor, hasher PasswordHasher) *Service {
	return &Service{
		store:    store,
		blobs:    blobs,
		pipeline: pipeline,
		authz:    NewUpdateAuthorizer(tokens),
		tokens:   tokens,
		hasher:   hasher,
		newID:    uuid.NewString,
		now:      time.Now,
	}
}

// Create 檢查後先寫 metadata（storage 位置為空），再存內容並回填位置；存內容失敗時刪除 metadata。
func (s *Service) Create(ctx context.Context, in CreateInput) (Saved, error) {
	checked, err := s.pipeline.Check(in.Document)
	if err != nil {
		return Saved{}, err
	}

	nb := notebook.Notebook{
		ID:        s.newID(),
		SessionID: in.SessionID,
		Domain:    in.Domain,
		CreatedAt: s.now(),
	}
	nb.ApplyMetadata(checked.Metadata)
	if in.Password != "" {
		hash, err := s.hasher.Hash(in.Password)
		if err != nil {
			return Saved{}, fmt.Errorf("hash notebook password: %w", err)
		}
		nb.PasswordHash = hash
	}

	inserted, err := s.store.Insert(ctx, nb)
	if err != nil {
		return Saved{}, &notebook.StorageError{Op: "insert metadata", Err: err}
	}

	location, err := s.blobs.Put(ctx, notebook.BlobKey(inserted.ID), checked.Canonical)
	if err != nil {
		s.rollbackInsert(ctx, inserted.ID, "")
		return Saved{}, &notebook.StorageError{Op: "store notebook", Err: err}
	}
	inserted.StorageURL = location
	if err := s.store.Update(ctx, inserted); err != nil {
		s.rollbackInsert(ctx, inserted.ID, location)
		return Saved{}, &notebook.StorageError{Op: "record storage location", Err: err}
	}

	log.Printf("[Notebook] created id=%s readable_id=%s session_id=%s size=%d", inserted.ID, inserted.ReadableID, inserted.SessionID, len(checked.Canonical))
	return savedFrom(inserted), nil
}

// Update 依 ID 更新 notebook。
func (s *Service) Update(ctx context.Context, notebookID string, in UpdateInput) (Saved, error) {
	current, err := s.store.FindByID(ctx, notebookID)
	if err != nil {
		return Saved{}, lookupError(err)
	}
	return s.update(ctx, current, in)
}

// UpdateByReadableID 依別名更新 notebook。
func (s *Service) UpdateByReadableID(ctx context.Context, readableID string, in UpdateInput) (Saved, error) {
	current, err := s.store.FindByReadableID(ctx, readableID)
	if err != nil {
		return Saved{}, lookupError(err)
	}
	return s.update(ctx, current, in)
}

func (s *Service) update(ctx context.Context, current notebook.Notebook, in UpdateInput) (Saved, error) {
	checked, err := s.pipeline.Check(in.Document)
	if err != nil {
		return Saved{}, err
	}
	if current.SessionID != in.SessionID {
		if err := s.authz.Authorize(current.ID, in.CapabilityToken); err != nil {
			log.Printf("[Notebook] update rejected id=%s session_id=%s", current.ID, in.SessionID)
			return Saved{}, err
		}
	}

	next := current
	next.SessionID = in.SessionID
	next.ApplyMetadata(checked.Metadata)
	if err := s.store.Update(ctx, next); err != nil {
		return Saved{}, &notebook.StorageError{Op: "update metadata", Err: err}
	}

	location, err := s.blobs.Put(ctx, notebook.BlobKey(next.ID), checked.Canonical)
	if err != nil {
		if rerr := s.store.Update(ctx, current); rerr != nil {
			log.Printf("[Notebook] restore metadata failed id=%s: %v", current.ID, rerr)
		}
		return Saved{}, &notebook.StorageError{Op: "store notebook", Err: err}
	}
	if location != next.StorageURL {
		next.StorageURL = location
		if err := s.store.Update(ctx, next); err != nil {
			return Saved{}, &notebook.StorageError{Op: "record storage location", Err: err}
		}
	}

	if current.SessionID != next.SessionID {
		log.Printf("[Notebook] owner reassigned id=%s from=%s to=%s", next.ID, current.SessionID, next.SessionID)
	}
	log.Printf("[Notebook] updated id=%s size=%d", next.ID, len(checked.Canonical))
	return savedFrom(next), nil
}

// Get 依 ID 讀取；設有密碼的 notebook 需帶有效且綁定的 token 或為擁有者。
func (s *Service) Get(ctx context.Context, id, token string) (Retrieved, error) {
	nb, err := s.store.FindByID(ctx, id)
	if err != nil {
		return Retrieved{}, lookupError(err)
	}
	return s.retrieve(ctx, nb, token)
}

// GetByReadableID 依別名讀取。
func (s *Service) GetByReadableID(ctx context.Context, readableID, token string) (Retrieved, error) {
	nb, err := s.store.FindByReadableID(ctx, readableID)
	if err != nil {
		return Retrieved{}, lookupError(err)
	}
	return s.retrieve(ctx, nb, token)
}

// ListBySession 回傳 session 擁有的 notebook metadata。
func (s *Service) ListBySession(ctx context.Context, sessionID string) ([]notebook.Notebook, error) {
	list, err := s.store.FindAllBySession(ctx, sessionID)
	if err != nil {
		return nil, &notebook.StorageError{Op: "list notebooks", Err: err}
	}
	return list, nil
}

// FindByID 供簽發 token 時比對密碼。
func (s *Service) FindByID(ctx context.Context, id string) (notebook.Notebook, error) {
	return s.store.FindByID(ctx, id)
}

func (s *Service) retrieve(ctx context.Context, nb notebook.Notebook, token string) (Retrieved, error) {
	if nb.Protected() && !s.canRead(nb, token) {
		return Retrieved{}, notebook.ErrUnauthorized
	}
	if nb.StorageURL == "" {
		return Retrieved{}, notebook.ErrNotFound
	}
	content, err := s.blobs.Get(ctx, nb.StorageURL)
	if err != nil {
		return Retrieved{}, &notebook.StorageError{Op: "load notebook", Err: err}
	}
	return Retrieved{
		ID:         nb.ID,
		Domain:     nb.Domain,
		ReadableID: nb.ReadableID,
		Content:    json.RawMessage(content),
	}, nil
}

func (s *Service) canRead(nb notebook.Notebook, token string) bool {
	if token == "" {
		return false
	}
	parsed, err := s.tokens.ExtractClaims(token)
	if err != nil || !parsed.Active() {
		return false
	}
	return parsed.Claims.Bound(nb.ID) || parsed.Claims.SessionID == nb.SessionID
}

func (s *Service) rollbackInsert(ctx context.Context, id, location string) {
	if location != "" {
		if err := s.blobs.Delete(ctx, location); err != nil {
			log.Printf("[Notebook] rollback blob failed id=%s: %v", id, err)
		}
	}
	if err := s.store.Delete(ctx, id); err != nil {
		log.Printf("[Notebook] rollback metadata failed id=%s: %v", id, err)
	}
}

func lookupError(err error) error {
	if errors.Is(err, notebook.ErrNotFound) {
		return notebook.ErrNotFound
	}
	return &notebook.StorageError{Op: "find notebook", Err: err}
}

func savedFrom(n notebook.Notebook) Saved {
	return Saved{
		ID:         n.ID,
		SessionID:  n.SessionID,
		Domain:     n.Domain,
		ReadableID: n.ReadableID,
	}
}
