package generation

import (
	"context"
	"encoding/json"
	"log"

	"fashion-ai-server/modules/common/apperr"
	"fashion-ai-server/modules/common/cache"
	"fashion-ai-server/modules/common/model"
	"fashion-ai-server/modules/common/quota"
	"fashion-ai-server/modules/vton"
)

// Store - generation persistence (satisfied by database.Client)
type Store interface {
	CreateGeneration(ctx context.Context, gen *model.Generation) (*model.Generation, error)
	FetchGeneration(ctx context.Context, id string) (*model.Generation, error)
	MarkGenerationProcessing(ctx context.Context, id, providerID string, progress int) error
	MarkGenerationCompleted(ctx context.Context, id, resultURL string) error
	MarkGenerationFailed(ctx context.Context, id, errorMessage string) error
	UpdateGenerationProgress(ctx context.Context, id string, progress int) error
}

// Archiver - best-effort result archiving (satisfied by storage.Client).
// Implementations return a usable URL even on failure.
type Archiver interface {
	ArchiveResultImage(ctx context.Context, resultURL, generationID string) string
}

// Service - generation task orchestrator. Creates the persisted record,
// hands the work to the try-on provider and refreshes the record
// lazily on status reads; there is no background worker.
type Service struct {
	store    Store
	provider vton.Provider
	quotas   *quota.Manager
	archiver Archiver
	statuses *cache.StatusCache
}

func NewService(store Store, provider vton.Provider, quotas *quota.Manager, archiver Archiver, statuses *cache.StatusCache) *Service {
	return &Service{
		store:    store,
		provider: provider,
		quotas:   quotas,
		archiver: archiver,
		statuses: statuses,
	}
}

// Submit - create and dispatch a generation task.
//
// Quota is checked before the provider call and incremented only after
// the provider accepts, so a failed call never consumes quota. A
// synchronous provider result moves pending→completed in one step; an
// asynchronous acceptance moves pending→processing with the provider
// task id recorded.
func (s *Service) Submit(ctx context.Context, userID, productImageURL string, campaignID *string) (*model.Generation, error) {
	if productImageURL == "" {
		return nil, apperr.NewMessage(apperr.TypeValidation, "商品图片 URL 不能为空")
	}

	status, err := s.quotas.Check(ctx, userID, quota.KindImage)
	if err != nil {
		return nil, apperr.NewMessage(apperr.TypeDBError, "配额检查失败")
	}
	if !status.CanUse {
		return nil, apperr.NewMessage(apperr.TypeQuota, quota.ExceededMessage(quota.KindImage, status))
	}

	gen, err := s.store.CreateGeneration(ctx, &model.Generation{
		UserID:        userID,
		CampaignID:    campaignID,
		Type:          model.GenerationTypeImageModel,
		Status:        model.StatusPending,
		InputImageURL: productImageURL,
		Progress:      0,
	})
	if err != nil {
		log.Printf("❌ [Generation] Failed to create record: %v", err)
		return nil, apperr.NewMessage(apperr.TypeDBError, "创建任务失败")
	}

	result, err := s.provider.Submit(ctx, &vton.Request{
		ProductImageURL: productImageURL,
		Category:        vton.CategoryUpperBody,
	})
	if err != nil {
		s.markFailed(ctx, gen.ID, err.Error())
		return nil, apperr.Wrap(apperr.TypeAPIError, err)
	}
	if !result.Success {
		s.markFailed(ctx, gen.ID, result.Error)
		return nil, apperr.NewMessage(apperr.TypeAPIError, result.Error)
	}

	// The provider accepted: count the use exactly once, whether the
	// answer was synchronous or asynchronous.
	if err := s.quotas.Increment(ctx, userID, quota.KindImage); err != nil {
		log.Printf("⚠️  [Generation] Quota increment failed: %v", err)
	}

	if result.ImageURL != "" {
		resultURL := s.archive(ctx, result.ImageURL, gen.ID)
		if err := s.store.MarkGenerationCompleted(ctx, gen.ID, resultURL); err != nil {
			log.Printf("⚠️  [Generation] Failed to persist completion: %v", err)
		}
		gen.Status = model.StatusCompleted
		gen.Progress = 100
		gen.ResultURL = &resultURL
		return gen, nil
	}

	if err := s.store.MarkGenerationProcessing(ctx, gen.ID, result.TaskID, 10); err != nil {
		log.Printf("⚠️  [Generation] Failed to persist processing state: %v", err)
	}
	gen.Status = model.StatusProcessing
	gen.Progress = 10
	gen.ProviderID = &result.TaskID
	return gen, nil
}

// GetStatus - current task status, refreshing non-terminal records
// against the provider (pull-based; the read is the refresh trigger).
// Terminal records are returned as stored and never re-checked.
func (s *Service) GetStatus(ctx context.Context, generationID string) (*StatusData, error) {
	if generationID == "" {
		return nil, apperr.NewMessage(apperr.TypeValidation, "任务 ID 不能为空")
	}

	if payload, ok := s.statuses.Get(ctx, generationID); ok {
		var data StatusData
		if err := json.Unmarshal(payload, &data); err == nil {
			return &data, nil
		}
	}

	gen, err := s.store.FetchGeneration(ctx, generationID)
	if err != nil {
		return nil, apperr.NewMessage(apperr.TypeDBError, "任务不存在")
	}

	if model.IsTerminal(gen.Status) {
		return s.finishStatus(ctx, gen.ID, storedStatus(gen)), nil
	}

	// Should not happen for a non-terminal record, but without a
	// provider task id there is nothing to refresh against.
	if gen.ProviderID == nil || *gen.ProviderID == "" {
		return &StatusData{Status: gen.Status, Progress: gen.Progress}, nil
	}

	external, err := s.provider.PollStatus(ctx, *gen.ProviderID)
	if err != nil {
		log.Printf("❌ [Generation] Status check failed for %s: %v", generationID, err)
		return nil, apperr.Wrap(apperr.TypeAPIError, err)
	}

	switch external.Status {
	case model.StatusCompleted:
		resultURL := s.archive(ctx, external.ImageURL, gen.ID)
		if err := s.store.MarkGenerationCompleted(ctx, gen.ID, resultURL); err != nil {
			log.Printf("⚠️  [Generation] Failed to persist completion: %v", err)
		}
		return s.finishStatus(ctx, gen.ID, &StatusData{
			Status:    model.StatusCompleted,
			Progress:  100,
			ResultURL: resultURL,
		}), nil

	case model.StatusFailed:
		if err := s.store.MarkGenerationFailed(ctx, gen.ID, external.Error); err != nil {
			log.Printf("⚠️  [Generation] Failed to persist failure: %v", err)
		}
		return s.finishStatus(ctx, gen.ID, &StatusData{
			Status:   model.StatusFailed,
			Progress: 0,
		}), nil

	default:
		// Progress never regresses below what is already stored.
		progress := external.Progress
		if progress < gen.Progress {
			progress = gen.Progress
		}
		if progress != gen.Progress {
			if err := s.store.UpdateGenerationProgress(ctx, gen.ID, progress); err != nil {
				log.Printf("⚠️  [Generation] Failed to persist progress: %v", err)
			}
		}
		return &StatusData{Status: external.Status, Progress: progress}, nil
	}
}

func (s *Service) markFailed(ctx context.Context, id, message string) {
	if err := s.store.MarkGenerationFailed(ctx, id, message); err != nil {
		log.Printf("⚠️  [Generation] Failed to persist failure: %v", err)
	}
}

func (s *Service) archive(ctx context.Context, resultURL, generationID string) string {
	if s.archiver == nil || resultURL == "" {
		return resultURL
	}
	return s.archiver.ArchiveResultImage(ctx, resultURL, generationID)
}

// finishStatus - cache a terminal status so later polls skip the DB
func (s *Service) finishStatus(ctx context.Context, generationID string, data *StatusData) *StatusData {
	if payload, err := json.Marshal(data); err == nil {
		s.statuses.Set(ctx, generationID, payload)
	}
	return data
}

func storedStatus(gen *model.Generation) *StatusData {
	data := &StatusData{Status: gen.Status, Progress: gen.Progress}
	if gen.Status == model.StatusCompleted {
		data.Progress = 100
		if gen.ResultURL != nil {
			data.ResultURL = *gen.ResultURL
		}
	}
	if gen.Status == model.StatusFailed {
		data.Progress = 0
	}
	return data
}
