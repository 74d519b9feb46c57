package notebook

import (
	"errors"
	"fmt"
	"strings"
)

const bytesPerMB = 1024 * 1024

var (
	ErrNotFound     = errors.New("notebook not found")
	ErrUnauthorized = errors.New("not authorized to modify notebook")
)

// InvalidNotebookError 為結構或 schema 檢查失敗，Violations 列出 schema 錯誤。
type InvalidNotebookError struct {
	Reason     string
	Violations []string
}

func (e *InvalidNotebookError) Error() string {
	if len(e.Violations) == 0 {
		return e.Reason
	}
	return e.Reason + ": " + strings.Join(e.Violations, "; ")
}

// TooLargeError 為序列化後大小超過上限。
type TooLargeError struct {
	Limit int64
	Size  int64
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("Notebook size (%d bytes) exceeds maximum allowed size of %d MB", e.Size, e.LimitMB())
}

func (e *TooLargeError) LimitMB() int64 { return e.Limit / bytesPerMB }

func (e *TooLargeError) SizeMB() float64 { return float64(e.Size) / bytesPerMB }

// StorageError 包裝 metadata/blob 儲存失敗。
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
