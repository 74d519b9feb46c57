package notebook

import (
	"github.com/JupyterEverywhere/sharing-service-sub000/internal/domain/notebook"

	"github.com/gowebpki/jcs"
)

// Checked 為通過檢查的 notebook：Canonical 只序列化一次，大小檢查、schema 與儲存都用它。
type Checked struct {
	Canonical []byte
	Metadata  notebook.Metadata
}

// Pipeline 依序執行結構檢查、序列化、大小與 schema 檢查。
type Pipeline struct {
	schema   *SchemaValidator
	maxBytes int64
}

func NewPipeline(schema *SchemaValidator, maxBytes int64) *Pipeline {
	return &Pipeline{schema: schema, maxBytes: maxBytes}
}

// MaxBytes 回傳序列化後允許的最大位元組數。
func (p *Pipeline) MaxBytes() int64 {
	return p.maxBytes
}

// Check 任一步驟失敗即停止，不會有部分結果。
func (p *Pipeline) Check(raw []byte) (Checked, error) {
	doc, err := notebook.ParseDocument(raw)
	if err != nil {
		return Checked{}, err
	}
	if err := doc.CheckStructure(); err != nil {
		return Checked{}, err
	}

	canonical, err := jcs.Transform(doc.Raw)
	if err != nil {
		return Checked{}, &notebook.InvalidNotebookError{Reason: "notebook could not be serialized"}
	}

	if size := int64(len(canonical)); size > p.maxBytes {
		return Checked{}, &notebook.TooLargeError{Limit: p.maxBytes, Size: size}
	}

	if violations := p.schema.Validate(canonical); len(violations) > 0 {
		return Checked{}, &notebook.InvalidNotebookError{
			Reason:     "notebook does not match nbformat v4 schema",
			Violations: violations,
		}
	}
	return Checked{Canonical: canonical, Metadata: *doc.Metadata}, nil
}
