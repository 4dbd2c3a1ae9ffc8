package vton

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"fashion-ai-server/modules/common/config"
	"fashion-ai-server/modules/common/httpretry"
	"fashion-ai-server/modules/common/model"
)

// Kuaishou Kolors virtual try-on model on SiliconFlow
const kolorsModelID = "Kolors-Virtual-Try-On"

// Stand-in model image used when the request carries none
const defaultModelImageURL = "https://images.unsplash.com/photo-1534528741775-53994a69daeb?w=512&h=768&fit=crop"

// Service - SiliconFlow try-on adapter. All outbound calls go through
// the retry/timeout wrapper.
type Service struct {
	baseURL  string
	apiKey   string
	retryCfg httpretry.Config
}

func NewService(cfg *config.Config) *Service {
	log.Println("✅ [VTON] SiliconFlow service initialized")
	return &Service{
		baseURL:  cfg.SiliconFlowBaseURL,
		apiKey:   cfg.SiliconFlowAPIKey,
		retryCfg: httpretry.DefaultConfig(),
	}
}

// Submit - create a try-on generation. The provider may answer with an
// inline result (synchronous) or a task id (asynchronous); either is a
// success. Neither present is an unexpected-format failure.
func (s *Service) Submit(ctx context.Context, req *Request) (*Response, error) {
	humanImage := req.ModelImageURL
	if humanImage == "" {
		humanImage = defaultModelImageURL
	}

	payload := submitPayload{
		Model:             kolorsModelID,
		HumanImage:        humanImage,
		ClothImage:        req.ProductImageURL,
		NumInferenceSteps: 50,
		GuidanceScale:     2.5,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := httpretry.Do(ctx, s.retryCfg, func(ctx context.Context) (*http.Request, error) {
		httpReq, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/images/generations", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)
		return httpReq, nil
	})
	if err != nil {
		log.Printf("❌ [VTON] Submit request failed: %v", err)
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResult submitResult
		json.Unmarshal(respBody, &errResult)
		message := errResult.Message
		if message == "" {
			message = "Unknown error"
		}
		log.Printf("❌ [VTON] API error: status=%d, message=%s", resp.StatusCode, message)
		return &Response{
			Success: false,
			Error:   fmt.Sprintf("API Error: %d - %s", resp.StatusCode, message),
		}, nil
	}

	var result submitResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(result.Images) > 0 && result.Images[0].URL != "" {
		log.Printf("✅ [VTON] Synchronous result received")
		return &Response{Success: true, ImageURL: result.Images[0].URL}, nil
	}

	if result.TaskID != "" {
		log.Printf("✅ [VTON] Task accepted: %s", result.TaskID)
		return &Response{Success: true, TaskID: result.TaskID}, nil
	}

	return &Response{Success: false, Error: "Unexpected API response format"}, nil
}

// PollStatus - query an asynchronous task and map the provider's status
// vocabulary onto the fixed pending/processing/completed/failed domain.
func (s *Service) PollStatus(ctx context.Context, taskID string) (*TaskStatus, error) {
	resp, err := httpretry.Do(ctx, s.retryCfg, func(ctx context.Context) (*http.Request, error) {
		httpReq, err := http.NewRequestWithContext(ctx, "GET", s.baseURL+"/async-tasks/"+taskID, nil)
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)
		return httpReq, nil
	})
	if err != nil {
		log.Printf("❌ [VTON] Status request failed: %v", err)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return &TaskStatus{
			Status: model.StatusFailed,
			Error:  fmt.Sprintf("Failed to get task status: %d", resp.StatusCode),
		}, nil
	}

	var result statusResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse status response: %w", err)
	}

	switch result.Status {
	case "SUCCESS", "completed":
		imageURL := result.OutputURL
		if len(result.Result.Images) > 0 && result.Result.Images[0].URL != "" {
			imageURL = result.Result.Images[0].URL
		}
		return &TaskStatus{Status: model.StatusCompleted, Progress: 100, ImageURL: imageURL}, nil

	case "FAILED", "failed":
		errMsg := result.Error
		if errMsg == "" {
			errMsg = "Task failed"
		}
		return &TaskStatus{Status: model.StatusFailed, Error: errMsg}, nil

	case "PENDING":
		return &TaskStatus{Status: model.StatusPending, Progress: 0}, nil

	default:
		// Unrecognized vocabulary defaults to processing; log it so a
		// renamed provider state does not vanish silently.
		if result.Status != "processing" && result.Status != "InProgress" {
			log.Printf("⚠️  [VTON] Unrecognized provider status %q for task %s, treating as processing", result.Status, taskID)
		}
		progress := result.Progress
		if progress <= 0 {
			progress = 50
		}
		return &TaskStatus{Status: model.StatusProcessing, Progress: progress}, nil
	}
}
