package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"fashion-ai-server/modules/common/apperr"
	"fashion-ai-server/modules/common/config"
	"fashion-ai-server/modules/common/utils"
)

// Upload limits
const (
	MaxFileSize = 10 * 1024 * 1024 // 10MB
)

var allowedTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

type Client struct {
	cfg        *config.Config
	httpClient *http.Client
}

// NewClient - Storage client over the Supabase Storage HTTP API
func NewClient(cfg *config.Config) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// UploadProductImage - validate and store an uploaded product photo,
// returning its public URL. The content type is sniffed from the bytes,
// not trusted from the request.
func (c *Client) UploadProductImage(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", apperr.NewMessage(apperr.TypeValidation, "请选择文件")
	}
	if len(data) > MaxFileSize {
		return "", apperr.NewMessage(apperr.TypeValidation, "文件大小不能超过 10MB")
	}

	contentType := http.DetectContentType(data)
	ext, ok := allowedTypes[contentType]
	if !ok {
		return "", apperr.NewMessage(apperr.TypeValidation, "只支持 JPG、PNG、WebP 格式")
	}

	fileName := fmt.Sprintf("%d-%s.%s", time.Now().UnixMilli(), uuid.New().String()[:8], ext)
	filePath := "products/" + fileName

	if err := c.upload(ctx, filePath, contentType, data); err != nil {
		log.Printf("❌ [Storage] Upload error: %v", err)
		return "", apperr.NewMessage(apperr.TypeDBError, "上传失败，请重试")
	}

	log.Printf("✅ [Storage] Product image uploaded: %s (%d bytes)", filePath, len(data))
	return c.PublicURL(filePath), nil
}

// ArchiveResultImage - download a completed try-on result, re-encode it
// as WebP and store a copy in our own bucket. Best-effort: any failure
// falls back to the provider URL so a finished generation is never lost
// to archiving problems.
func (c *Client) ArchiveResultImage(ctx context.Context, resultURL, generationID string) string {
	imageData, err := c.download(ctx, resultURL)
	if err != nil {
		log.Printf("⚠️  [Storage] Failed to download result, keeping provider URL: %v", err)
		return resultURL
	}

	webpData, err := utils.ConvertToWebP(imageData, 90.0)
	if err != nil {
		log.Printf("⚠️  [Storage] WebP conversion failed, keeping provider URL: %v", err)
		return resultURL
	}

	filePath := fmt.Sprintf("generated/%s.webp", generationID)
	if err := c.upload(ctx, filePath, "image/webp", webpData); err != nil {
		log.Printf("⚠️  [Storage] Archive upload failed, keeping provider URL: %v", err)
		return resultURL
	}

	log.Printf("✅ [Storage] Result archived: %s (%d bytes)", filePath, len(webpData))
	return c.PublicURL(filePath)
}

// PublicURL - publicly resolvable URL for a stored object
func (c *Client) PublicURL(filePath string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", c.cfg.SupabaseURL, c.cfg.StorageBucket, filePath)
}

func (c *Client) upload(ctx context.Context, filePath, contentType string, data []byte) error {
	uploadURL := fmt.Sprintf("%s/storage/v1/object/%s/%s", c.cfg.SupabaseURL, c.cfg.StorageBucket, filePath)

	req, err := http.NewRequestWithContext(ctx, "POST", uploadURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.SupabaseServiceKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to upload image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

func (c *Client) download(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", imageURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
