package model

import "time"

// Task/campaign status values
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"

	CampaignStatusDraft           = "draft"
	CampaignStatusScriptGenerated = "script_generated"
	CampaignStatusImageGenerated  = "image_generated"

	GenerationTypeImageModel = "image_model"
)

// IsTerminal - completed and failed are final; a terminal record is
// never transitioned again.
func IsTerminal(status string) bool {
	return status == StatusCompleted || status == StatusFailed
}

// Supported target platforms
var Platforms = []string{"douyin", "red", "tiktok"}

// IsValidPlatform - platform whitelist check
func IsValidPlatform(platform string) bool {
	for _, p := range Platforms {
		if p == platform {
			return true
		}
	}
	return false
}

// Script - structured marketing script produced by the LLM
type Script struct {
	Title        string   `json:"title"`
	Hook         string   `json:"hook"`
	Body         string   `json:"body"`
	CallToAction string   `json:"callToAction"`
	Hashtags     []string `json:"hashtags"`
}

// Campaign - campaigns table row
type Campaign struct {
	ID                 string    `json:"id,omitempty"`
	CreatedAt          time.Time `json:"created_at,omitempty"`
	UserID             string    `json:"user_id"`
	ProductDescription string    `json:"product_description"`
	Platform           string    `json:"platform"`
	ScriptData         *Script   `json:"script_data,omitempty"`
	Status             string    `json:"status"`
}

// Generation - generations table row.
//
// ProviderID is set if and only if the provider accepted the task
// asynchronously. ResultURL is set if and only if the status is
// completed. ErrorMessage is set if and only if the status is failed.
type Generation struct {
	ID            string     `json:"id,omitempty"`
	CreatedAt     time.Time  `json:"created_at,omitempty"`
	UserID        string     `json:"user_id"`
	CampaignID    *string    `json:"campaign_id"`
	Type          string     `json:"type"`
	Status        string     `json:"status"`
	InputImageURL string     `json:"input_image_url"`
	ResultURL     *string    `json:"result_url,omitempty"`
	ProviderID    *string    `json:"provider_id,omitempty"`
	Progress      int        `json:"progress"`
	ErrorMessage  *string    `json:"error_message,omitempty"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// QuotaRow - user_quotas table row, one per (user, calendar day).
// Absence means zero usage; rows are created lazily on first increment.
type QuotaRow struct {
	UserID      string `json:"user_id"`
	Date        string `json:"date"`
	ScriptCount int    `json:"script_count"`
	ImageCount  int    `json:"image_count"`
}
