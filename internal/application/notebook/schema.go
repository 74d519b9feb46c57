package notebook

import (
	_ "embed"
	"fmt"
	"sort"

	"github.com/kaptinlin/jsonschema"
)

//go:embed nbformat.v4.schema.json
var nbformatSchema []byte

// SchemaValidator 以 nbformat v4 JSON Schema 檢查 notebook，編譯一次後可併發使用。
type SchemaValidator struct {
	schema *jsonschema.Schema
}

func NewSchemaValidator() (*SchemaValidator, error) {
	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile(nbformatSchema)
	if err != nil {
		return nil, fmt.Errorf("compile nbformat schema: %w", err)
	}
	return &SchemaValidator{schema: schema}, nil
}

// Validate 回傳排序後的違規清單，每筆為「instance 位置: 原因」；符合 schema 時回傳 nil。
func (v *SchemaValidator) Validate(doc []byte) []string {
	result := v.schema.ValidateJSON(doc)
	if result.IsValid() {
		return nil
	}
	var violations []string
	collectViolations(result, "", &violations)
	sort.Strings(violations)
	if len(violations) == 0 {
		violations = append(violations, "document does not match nbformat v4 schema")
	}
	return violations
}

// aggregateKeywords 只彙總子節點結果，子節點已回報原因時略過。
var aggregateKeywords = map[string]bool{
	"properties":           true,
	"items":                true,
	"prefixItems":          true,
	"additionalProperties": true,
	"patternProperties":    true,
	"allOf":                true,
	"anyOf":                true,
	"oneOf":                true,
	"$ref":                 true,
}

func collectViolations(r *jsonschema.EvaluationResult, base string, out *[]string) {
	location := base + r.InstanceLocation
	childFailed := false
	for _, d := range r.Details {
		if !d.IsValid() {
			childFailed = true
			collectViolations(d, location, out)
		}
	}
	for keyword, evalErr := range r.Errors {
		if childFailed && aggregateKeywords[keyword] {
			continue
		}
		at := location
		if at == "" {
			at = "/"
		}
		*out = append(*out, fmt.Sprintf("%s: %s", at, evalErr.Error()))
	}
}
