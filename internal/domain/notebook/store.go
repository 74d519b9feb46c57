package notebook

import "context"

// MetadataStore 存取 notebook metadata；找不到時回傳 ErrNotFound。
// Insert 負責配置不會碰撞的 ReadableID。
type MetadataStore interface {
	Insert(ctx context.Context, n Notebook) (Notebook, error)
	FindByID(ctx context.Context, id string) (Notebook, error)
	FindByReadableID(ctx context.Context, readableID string) (Notebook, error)
	FindAllBySession(ctx context.Context, sessionID string) ([]Notebook, error)
	Update(ctx context.Context, n Notebook) error
	Delete(ctx context.Context, id string) error
}

// BlobStore 存放 notebook 內容；Put 回傳之後 Get/Delete 使用的位置。
// 覆寫同一 key 必須是原子的，讀者不會看到寫到一半的內容。
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte) (string, error)
	Get(ctx context.Context, location string) ([]byte, error)
	Delete(ctx context.Context, location string) error
}

// SecretSource 取得以 JSON 物件存放的機密設定。
type SecretSource interface {
	Get(ctx context.Context, name string) (map[string]string, error)
}
