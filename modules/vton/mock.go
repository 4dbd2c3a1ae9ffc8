package vton

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"fashion-ai-server/modules/common/model"
)

// Mock processing window and canned result
const (
	mockProcessingTime = 5 * time.Second
	mockResultURL      = "https://images.unsplash.com/photo-1515886657613-9f3515b0c78f?w=512&h=768&fit=crop"
)

// Mock - deterministic offline provider. Submit always answers
// asynchronously with a task id that embeds the submission time; status
// checks derive progress from the elapsed time, so the whole lifecycle
// works without credentials.
type Mock struct {
	now func() time.Time
}

func NewMock() *Mock {
	log.Println("✅ [VTON] Mock provider initialized")
	return &Mock{now: time.Now}
}

// NewMockWithClock - clock injection for tests
func NewMockWithClock(now func() time.Time) *Mock {
	return &Mock{now: now}
}

func (m *Mock) Submit(ctx context.Context, req *Request) (*Response, error) {
	taskID := fmt.Sprintf("mock-task-%d", m.now().UnixMilli())
	log.Printf("🎭 [VTON Mock] Task created: %s", taskID)
	return &Response{Success: true, TaskID: taskID}, nil
}

func (m *Mock) PollStatus(ctx context.Context, taskID string) (*TaskStatus, error) {
	parts := strings.Split(taskID, "-")
	submittedMilli, err := strconv.ParseInt(parts[len(parts)-1], 10, 64)
	if err != nil {
		return &TaskStatus{Status: model.StatusFailed, Error: "invalid mock task id"}, nil
	}

	elapsed := m.now().Sub(time.UnixMilli(submittedMilli))

	if elapsed < mockProcessingTime {
		progress := int(elapsed * 100 / mockProcessingTime)
		if progress > 90 {
			progress = 90
		}
		return &TaskStatus{Status: model.StatusProcessing, Progress: progress}, nil
	}

	return &TaskStatus{Status: model.StatusCompleted, Progress: 100, ImageURL: mockResultURL}, nil
}
