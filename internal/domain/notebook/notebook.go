package notebook

import (
	"fmt"
	"strings"
	"time"
)

// Notebook 為 notebook 的 metadata 紀錄，內容本體存放於 BlobStore。
type Notebook struct {
	ID                string
	SessionID         string
	Domain            string
	ReadableID        string
	KernelName        string
	KernelDisplayName string
	Language          string
	LanguageVersion   string
	FileExtension     string
	StorageURL        string
	PasswordHash      string
	CreatedAt         time.Time
}

// Protected 表示 notebook 是否設定密碼。
func (n Notebook) Protected() bool {
	return n.PasswordHash != ""
}

// ApplyMetadata 依文件 metadata 更新衍生欄位，缺少的欄位清空。
func (n *Notebook) ApplyMetadata(m Metadata) {
	n.KernelName, n.KernelDisplayName = "", ""
	n.Language, n.LanguageVersion, n.FileExtension = "", "", ""
	if m.Kernelspec != nil {
		n.KernelName = m.Kernelspec.Name
		n.KernelDisplayName = m.Kernelspec.DisplayName
	}
	if m.LanguageInfo != nil {
		n.Language = strings.TrimSpace(m.LanguageInfo.Name)
		n.LanguageVersion = m.LanguageInfo.Version
		n.FileExtension = m.LanguageInfo.FileExtension
	}
}

// BlobKey 回傳 notebook 內容在 BlobStore 中的物件名稱。
func BlobKey(id string) string {
	return id + ".ipynb"
}

// readableMultiplier 為奇數，乘上後取 2^40 的餘數在序號空間內是一對一映射。
const (
	readableMultiplier = 2654435761
	readableSpace      = 1 << 40
)

// ReadableIDFromSequence 將遞增序號轉為不連續但不會碰撞的別名。
func ReadableIDFromSequence(seq uint64) string {
	return fmt.Sprintf("nb-%010x", (seq*readableMultiplier)%readableSpace)
}
