package vton

import "context"

// Garment categories accepted by the try-on model
const (
	CategoryUpperBody = "upper_body"
	CategoryLowerBody = "lower_body"
	CategoryDresses   = "dresses"
	CategoryFullBody  = "full_body"
)

// Request - try-on submission. ModelImageURL is optional; a default
// stand-in model image is used when absent.
type Request struct {
	ProductImageURL string `json:"productImageUrl"`
	ModelImageURL   string `json:"modelImageUrl,omitempty"`
	Category        string `json:"category,omitempty"`
}

// Response - submission outcome. Exactly one of TaskID (asynchronous
// acceptance) or ImageURL (synchronous result) is set on success.
type Response struct {
	Success  bool   `json:"success"`
	TaskID   string `json:"taskId,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
	Error    string `json:"error,omitempty"`
}

// TaskStatus - normalized provider status: pending, processing,
// completed or failed.
type TaskStatus struct {
	Status   string `json:"status"`
	Progress int    `json:"progress,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Provider - normalized try-on contract implemented by the SiliconFlow
// service and the offline mock.
type Provider interface {
	Submit(ctx context.Context, req *Request) (*Response, error)
	PollStatus(ctx context.Context, taskID string) (*TaskStatus, error)
}

// submitPayload - SiliconFlow Kolors try-on request body
type submitPayload struct {
	Model             string  `json:"model"`
	HumanImage        string  `json:"human_image"`
	ClothImage        string  `json:"cloth_image"`
	NumInferenceSteps int     `json:"num_inference_steps"`
	GuidanceScale     float64 `json:"guidance_scale"`
}

// submitResult - the provider answers with either an inline image list
// (synchronous) or a task id (asynchronous).
type submitResult struct {
	Images []struct {
		URL string `json:"url"`
	} `json:"images"`
	TaskID  string `json:"task_id"`
	Message string `json:"message"`
}

// statusResult - raw async-task status body
type statusResult struct {
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	Error    string `json:"error"`
	Result   struct {
		Images []struct {
			URL string `json:"url"`
		} `json:"images"`
	} `json:"result"`
	OutputURL string `json:"output_url"`
}
