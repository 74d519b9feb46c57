package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/JupyterEverywhere/sharing-service-sub000/internal/domain/notebook"
)

var errDuplicateID = errors.New("notebook id already exists")

// Store 為未設定資料庫時使用的記憶體 notebook metadata 儲存，併發安全。
type Store struct {
	mu         sync.RWMutex
	notebooks  map[string]notebook.Notebook // id -> record
	byReadable map[string]string            // readable id -> id
	readSeq    uint64
	now        func() time.Time
}

// NewStore 建立新的記憶體 Store 實例。
func NewStore() *Store {
	return &Store{
		notebooks:  make(map[string]notebook.Notebook),
		byReadable: make(map[string]string),
		now:        time.Now,
	}
}

// Insert 新增紀錄並配置 readable id；id 重複時視為錯誤。
func (s *Store) Insert(ctx context.Context, n notebook.Notebook) (notebook.Notebook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.notebooks[n.ID]; exists {
		return notebook.Notebook{}, errDuplicateID
	}
	s.readSeq++
	n.ReadableID = notebook.ReadableIDFromSequence(s.readSeq)
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now()
	}
	s.notebooks[n.ID] = n
	s.byReadable[n.ReadableID] = n.ID
	return n, nil
}

// FindByID 依 ID 查詢 notebook。
func (s *Store) FindByID(ctx context.Context, id string) (notebook.Notebook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.notebooks[id]
	if !ok {
		return notebook.Notebook{}, notebook.ErrNotFound
	}
	return n, nil
}

// FindByReadableID 依別名查詢 notebook。
func (s *Store) FindByReadableID(ctx context.Context, readableID string) (notebook.Notebook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byReadable[readableID]
	if !ok {
		return notebook.Notebook{}, notebook.ErrNotFound
	}
	return s.notebooks[id], nil
}

// FindAllBySession 回傳 session 擁有的 notebook，依建立時間排序。
func (s *Store) FindAllBySession(ctx context.Context, sessionID string) ([]notebook.Notebook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]notebook.Notebook, 0)
	for _, n := range s.notebooks {
		if n.SessionID == sessionID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// Update 覆寫可變欄位；id、readable id 與建立時間不可變更。
func (s *Store) Update(ctx context.Context, n notebook.Notebook) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.notebooks[n.ID]
	if !ok {
		return notebook.ErrNotFound
	}
	n.ReadableID = cur.ReadableID
	n.CreatedAt = cur.CreatedAt
	s.notebooks[n.ID] = n
	return nil
}

// Delete 移除紀錄，僅在寫入內容失敗時用於回滾。
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notebooks[id]
	if !ok {
		return nil
	}
	delete(s.byReadable, n.ReadableID)
	delete(s.notebooks, id)
	return nil
}
