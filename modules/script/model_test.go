package script

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fashion-ai-server/modules/common/apperr"
)

func TestValidateRequestDefaultsPlatform(t *testing.T) {
	desc, platform, err := ValidateRequest(&GenerateRequest{
		ProductDescription: "一款轻薄透气的夏季白色连衣裙，适合日常通勤和约会场景",
	})
	require.NoError(t, err)

	assert.Equal(t, "douyin", platform)
	assert.NotEmpty(t, desc)
}

func TestValidateRequestTrimsDescription(t *testing.T) {
	desc, _, err := ValidateRequest(&GenerateRequest{
		ProductDescription: "  这是一款非常好看的秋季针织开衫毛衣  ",
		Platform:           "red",
	})
	require.NoError(t, err)
	assert.Equal(t, "这是一款非常好看的秋季针织开衫毛衣", desc)
}

func TestValidateRequestRejections(t *testing.T) {
	cases := []struct {
		name    string
		req     *GenerateRequest
		wantMsg string
	}{
		{
			name:    "empty description",
			req:     &GenerateRequest{ProductDescription: "   "},
			wantMsg: "产品描述不能为空",
		},
		{
			name:    "too short",
			req:     &GenerateRequest{ProductDescription: "太短了"},
			wantMsg: "产品描述至少需要 10 个字符",
		},
		{
			name:    "too long",
			req:     &GenerateRequest{ProductDescription: strings.Repeat("长", DescriptionMaxLength+1)},
			wantMsg: "产品描述不能超过 2000 个字符",
		},
		{
			name: "unknown platform",
			req: &GenerateRequest{
				ProductDescription: "一款轻薄透气的夏季白色连衣裙，适合日常通勤",
				Platform:           "kuaishou",
			},
			wantMsg: "无效的平台，支持: douyin, red, tiktok",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := ValidateRequest(tc.req)
			require.Error(t, err)
			assert.Equal(t, apperr.TypeValidation, apperr.TypeOf(err))
			assert.Equal(t, tc.wantMsg, apperr.Message(err))
		})
	}
}

func TestValidateRequestCountsRunesNotBytes(t *testing.T) {
	// Ten CJK characters are 30 bytes but exactly the minimum length.
	_, _, err := ValidateRequest(&GenerateRequest{ProductDescription: "红色针织衫保暖又时尚"})
	assert.NoError(t, err)
}
