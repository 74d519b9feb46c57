package notebook

import (
	"log"
	"strings"

	"github.com/JupyterEverywhere/sharing-service-sub000/internal/domain/auth"
	"github.com/JupyterEverywhere/sharing-service-sub000/internal/domain/notebook"
)

// ClaimsExtractor 解析 token claims，過期但簽章正確的 token 仍回傳 claims。
type ClaimsExtractor interface {
	ExtractClaims(token string) (auth.ParsedToken, error)
}

// UpdateAuthorizer 在更新者不是 notebook 擁有者時，以 capability token 的 notebook_id 判斷是否放行。
// 密碼只在簽發 token 時驗證一次，之後持有綁定的 token 即代表有權限。
type UpdateAuthorizer struct {
	tokens ClaimsExtractor
}

func NewUpdateAuthorizer(tokens ClaimsExtractor) *UpdateAuthorizer {
	return &UpdateAuthorizer{tokens: tokens}
}

// Authorize 檢查 capability token 是否綁定 notebookID。
func (a *UpdateAuthorizer) Authorize(notebookID, capabilityToken string) error {
	if strings.TrimSpace(capabilityToken) == "" {
		return notebook.ErrUnauthorized
	}
	parsed, err := a.tokens.ExtractClaims(capabilityToken)
	if err != nil {
		log.Printf("[Notebook] capability token rejected notebook_id=%s: %v", notebookID, err)
		return notebook.ErrUnauthorized
	}
	if !parsed.Claims.Bound(notebookID) {
		return notebook.ErrUnauthorized
	}
	return nil
}
