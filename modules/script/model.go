package script

import (
	"fmt"
	"strings"

	"fashion-ai-server/modules/common/apperr"
	"fashion-ai-server/modules/common/model"
)

// Description length bounds
const (
	DescriptionMinLength = 10
	DescriptionMaxLength = 2000
)

// GenerateRequest - marketing script request
type GenerateRequest struct {
	ProductDescription string `json:"productDescription"`
	Platform           string `json:"platform"`
}

// GenerateResponse - marketing script response
type GenerateResponse struct {
	Success    bool          `json:"success"`
	Data       *model.Script `json:"data,omitempty"`
	CampaignID string        `json:"campaignId,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// ValidateRequest - input validation before any provider call. Returns
// the trimmed description and the platform defaulted to douyin.
func ValidateRequest(req *GenerateRequest) (string, string, error) {
	if req == nil || strings.TrimSpace(req.ProductDescription) == "" {
		return "", "", apperr.NewMessage(apperr.TypeValidation, "产品描述不能为空")
	}

	trimmed := strings.TrimSpace(req.ProductDescription)

	if len([]rune(trimmed)) < DescriptionMinLength {
		return "", "", apperr.NewMessage(apperr.TypeValidation,
			fmt.Sprintf("产品描述至少需要 %d 个字符", DescriptionMinLength))
	}
	if len([]rune(trimmed)) > DescriptionMaxLength {
		return "", "", apperr.NewMessage(apperr.TypeValidation,
			fmt.Sprintf("产品描述不能超过 %d 个字符", DescriptionMaxLength))
	}

	platform := req.Platform
	if platform == "" {
		platform = "douyin"
	}
	if !model.IsValidPlatform(platform) {
		return "", "", apperr.NewMessage(apperr.TypeValidation,
			fmt.Sprintf("无效的平台，支持: %s", strings.Join(model.Platforms, ", ")))
	}

	return trimmed, platform, nil
}
