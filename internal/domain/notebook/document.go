package notebook

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Kernelspec 對應 notebook metadata.kernelspec。
type Kernelspec struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

// LanguageInfo 對應 notebook metadata.language_info。
type LanguageInfo struct {
	Name          string `json:"name"`
	Version       string `json:"version,omitempty"`
	FileExtension string `json:"file_extension,omitempty"`
}

// Metadata 只保留推導 metadata 紀錄所需的欄位。
type Metadata struct {
	Kernelspec   *Kernelspec   `json:"kernelspec,omitempty"`
	LanguageInfo *LanguageInfo `json:"language_info,omitempty"`
}

// Document 為上傳的 notebook 原始 JSON 及其結構化檢視。
type Document struct {
	Raw      []byte
	Metadata *Metadata
}

// ParseDocument 解析 notebook 頂層物件與 metadata 區塊。
func ParseDocument(raw []byte) (Document, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return Document{}, &InvalidNotebookError{Reason: "notebook content is required"}
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &top); err != nil {
		return Document{}, &InvalidNotebookError{Reason: "notebook must be a JSON object"}
	}

	doc := Document{Raw: trimmed}
	rawMeta, ok := top["metadata"]
	if !ok || string(bytes.TrimSpace(rawMeta)) == "null" {
		return doc, nil
	}
	var meta Metadata
	if err := json.Unmarshal(rawMeta, &meta); err != nil {
		return Document{}, &InvalidNotebookError{Reason: "notebook metadata is malformed"}
	}
	doc.Metadata = &meta
	return doc, nil
}

// CheckStructure 檢查 schema 之前的必要結構。
func (d Document) CheckStructure() error {
	if d.Metadata == nil {
		return &InvalidNotebookError{Reason: "notebook metadata is missing"}
	}
	if li := d.Metadata.LanguageInfo; li != nil && strings.TrimSpace(li.Name) == "" {
		return &InvalidNotebookError{Reason: "notebook language_info.name is required"}
	}
	return nil
}
