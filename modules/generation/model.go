package generation

// SubmitRequest - model-image generation request
type SubmitRequest struct {
	ProductImageURL string  `json:"productImageUrl"`
	CampaignID      *string `json:"campaignId,omitempty"`
}

// SubmitResponse - submission outcome carrying the generation id the
// client polls with
type SubmitResponse struct {
	Success      bool   `json:"success"`
	TaskID       string `json:"taskId,omitempty"`
	GenerationID string `json:"generationId,omitempty"`
	Error        string `json:"error,omitempty"`
}

// StatusData - normalized task status for polling clients
type StatusData struct {
	Status    string `json:"status"`
	Progress  int    `json:"progress"`
	ResultURL string `json:"resultUrl,omitempty"`
}

// StatusResponse - status query envelope
type StatusResponse struct {
	Success bool        `json:"success"`
	Data    *StatusData `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// UploadResponse - product image upload outcome
type UploadResponse struct {
	Success bool   `json:"success"`
	URL     string `json:"url,omitempty"`
	Error   string `json:"error,omitempty"`
}
