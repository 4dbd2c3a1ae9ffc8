package generation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fashion-ai-server/modules/common/apperr"
	"fashion-ai-server/modules/common/cache"
	"fashion-ai-server/modules/common/model"
	"fashion-ai-server/modules/common/quota"
	"fashion-ai-server/modules/vton"
)

// fakeStore - in-memory generations table
type fakeStore struct {
	gens            map[string]*model.Generation
	created         int
	progressUpdates []int
	fetchErr        error
}

func newFakeStore() *fakeStore {
	return &fakeStore{gens: map[string]*model.Generation{}}
}

func (s *fakeStore) CreateGeneration(ctx context.Context, gen *model.Generation) (*model.Generation, error) {
	s.created++
	copied := *gen
	copied.ID = "gen-1"
	s.gens[copied.ID] = &copied
	out := copied
	return &out, nil
}

func (s *fakeStore) FetchGeneration(ctx context.Context, id string) (*model.Generation, error) {
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	gen, ok := s.gens[id]
	if !ok {
		return nil, errors.New("not found")
	}
	out := *gen
	return &out, nil
}

func (s *fakeStore) MarkGenerationProcessing(ctx context.Context, id, providerID string, progress int) error {
	gen := s.gens[id]
	gen.Status = model.StatusProcessing
	gen.ProviderID = &providerID
	gen.Progress = progress
	return nil
}

func (s *fakeStore) MarkGenerationCompleted(ctx context.Context, id, resultURL string) error {
	gen := s.gens[id]
	gen.Status = model.StatusCompleted
	gen.ResultURL = &resultURL
	gen.Progress = 100
	return nil
}

func (s *fakeStore) MarkGenerationFailed(ctx context.Context, id, errorMessage string) error {
	gen := s.gens[id]
	gen.Status = model.StatusFailed
	gen.ErrorMessage = &errorMessage
	return nil
}

func (s *fakeStore) UpdateGenerationProgress(ctx context.Context, id string, progress int) error {
	s.progressUpdates = append(s.progressUpdates, progress)
	s.gens[id].Progress = progress
	return nil
}

// fakeProvider - scripted try-on provider
type fakeProvider struct {
	submitResp  *vton.Response
	submitErr   error
	statusResp  *vton.TaskStatus
	statusErr   error
	submitCalls int
	pollCalls   int
}

func (p *fakeProvider) Submit(ctx context.Context, req *vton.Request) (*vton.Response, error) {
	p.submitCalls++
	return p.submitResp, p.submitErr
}

func (p *fakeProvider) PollStatus(ctx context.Context, taskID string) (*vton.TaskStatus, error) {
	p.pollCalls++
	return p.statusResp, p.statusErr
}

// fakeQuotaStore - in-memory quota ledger
type fakeQuotaStore struct {
	imageCount int
	increments int
}

func (s *fakeQuotaStore) FetchQuotaRow(ctx context.Context, userID, date string) (*model.QuotaRow, error) {
	return &model.QuotaRow{UserID: userID, Date: date, ImageCount: s.imageCount}, nil
}

func (s *fakeQuotaStore) IncrementQuota(ctx context.Context, userID, date, kind string) error {
	s.increments++
	s.imageCount++
	return nil
}

func newTestService(store *fakeStore, provider *fakeProvider, quotaStore *fakeQuotaStore) *Service {
	return NewService(store, provider, quota.NewManager(quotaStore), nil, cache.NewStatusCache(nil))
}

func TestSubmitSynchronousCompletion(t *testing.T) {
	store := newFakeStore()
	provider := &fakeProvider{submitResp: &vton.Response{Success: true, ImageURL: "https://cdn.example.com/done.png"}}
	quotaStore := &fakeQuotaStore{}
	svc := newTestService(store, provider, quotaStore)

	gen, err := svc.Submit(context.Background(), "user-1", "https://example.com/shirt.jpg", nil)
	require.NoError(t, err)

	assert.Equal(t, model.StatusCompleted, gen.Status)
	assert.Equal(t, 100, gen.Progress)
	require.NotNil(t, gen.ResultURL)
	assert.Equal(t, "https://cdn.example.com/done.png", *gen.ResultURL)

	assert.Equal(t, 1, quotaStore.increments)
	assert.Equal(t, model.StatusCompleted, store.gens["gen-1"].Status)
}

func TestSubmitAsynchronousAcceptance(t *testing.T) {
	store := newFakeStore()
	provider := &fakeProvider{submitResp: &vton.Response{Success: true, TaskID: "task-9"}}
	quotaStore := &fakeQuotaStore{}
	svc := newTestService(store, provider, quotaStore)

	gen, err := svc.Submit(context.Background(), "user-1", "https://example.com/shirt.jpg", nil)
	require.NoError(t, err)

	assert.Equal(t, model.StatusProcessing, gen.Status)
	assert.Equal(t, 10, gen.Progress)
	require.NotNil(t, gen.ProviderID)
	assert.Equal(t, "task-9", *gen.ProviderID)
	assert.Equal(t, 1, quotaStore.increments)
}

func TestSubmitProviderErrorConsumesNoQuota(t *testing.T) {
	store := newFakeStore()
	provider := &fakeProvider{submitErr: errors.New("boom")}
	quotaStore := &fakeQuotaStore{}
	svc := newTestService(store, provider, quotaStore)

	_, err := svc.Submit(context.Background(), "user-1", "https://example.com/shirt.jpg", nil)
	require.Error(t, err)

	assert.Equal(t, apperr.TypeAPIError, apperr.TypeOf(err))
	assert.Equal(t, 0, quotaStore.increments)
	assert.Equal(t, model.StatusFailed, store.gens["gen-1"].Status)
}

func TestSubmitProviderRejectionConsumesNoQuota(t *testing.T) {
	store := newFakeStore()
	provider := &fakeProvider{submitResp: &vton.Response{Success: false, Error: "API Error: 400 - bad image"}}
	quotaStore := &fakeQuotaStore{}
	svc := newTestService(store, provider, quotaStore)

	_, err := svc.Submit(context.Background(), "user-1", "https://example.com/shirt.jpg", nil)
	require.Error(t, err)

	assert.Equal(t, apperr.TypeAPIError, apperr.TypeOf(err))
	assert.Equal(t, 0, quotaStore.increments)
	require.NotNil(t, store.gens["gen-1"].ErrorMessage)
	assert.Equal(t, "API Error: 400 - bad image", *store.gens["gen-1"].ErrorMessage)
}

func TestSubmitQuotaExhausted(t *testing.T) {
	store := newFakeStore()
	provider := &fakeProvider{}
	quotaStore := &fakeQuotaStore{imageCount: quota.DailyImageLimit}
	svc := newTestService(store, provider, quotaStore)

	_, err := svc.Submit(context.Background(), "user-1", "https://example.com/shirt.jpg", nil)
	require.Error(t, err)

	assert.Equal(t, apperr.TypeQuota, apperr.TypeOf(err))
	assert.Equal(t, 0, provider.submitCalls)
	assert.Equal(t, 0, store.created)
}

func TestSubmitEmptyImageURL(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeProvider{}, &fakeQuotaStore{})

	_, err := svc.Submit(context.Background(), "user-1", "", nil)
	require.Error(t, err)
	assert.Equal(t, apperr.TypeValidation, apperr.TypeOf(err))
}

func TestGetStatusTerminalRecordSkipsProvider(t *testing.T) {
	store := newFakeStore()
	resultURL := "https://cdn.example.com/done.png"
	store.gens["gen-1"] = &model.Generation{
		ID:        "gen-1",
		Status:    model.StatusCompleted,
		Progress:  100,
		ResultURL: &resultURL,
	}
	provider := &fakeProvider{}
	svc := newTestService(store, provider, &fakeQuotaStore{})

	data, err := svc.GetStatus(context.Background(), "gen-1")
	require.NoError(t, err)

	assert.Equal(t, model.StatusCompleted, data.Status)
	assert.Equal(t, 100, data.Progress)
	assert.Equal(t, resultURL, data.ResultURL)
	assert.Equal(t, 0, provider.pollCalls)
}

func TestGetStatusRefreshesProcessingRecord(t *testing.T) {
	store := newFakeStore()
	taskID := "task-9"
	store.gens["gen-1"] = &model.Generation{
		ID:         "gen-1",
		Status:     model.StatusProcessing,
		Progress:   10,
		ProviderID: &taskID,
	}
	provider := &fakeProvider{statusResp: &vton.TaskStatus{Status: model.StatusProcessing, Progress: 45}}
	svc := newTestService(store, provider, &fakeQuotaStore{})

	data, err := svc.GetStatus(context.Background(), "gen-1")
	require.NoError(t, err)

	assert.Equal(t, model.StatusProcessing, data.Status)
	assert.Equal(t, 45, data.Progress)
	assert.Equal(t, []int{45}, store.progressUpdates)
}

func TestGetStatusProgressNeverRegresses(t *testing.T) {
	store := newFakeStore()
	taskID := "task-9"
	store.gens["gen-1"] = &model.Generation{
		ID:         "gen-1",
		Status:     model.StatusProcessing,
		Progress:   60,
		ProviderID: &taskID,
	}
	provider := &fakeProvider{statusResp: &vton.TaskStatus{Status: model.StatusProcessing, Progress: 30}}
	svc := newTestService(store, provider, &fakeQuotaStore{})

	data, err := svc.GetStatus(context.Background(), "gen-1")
	require.NoError(t, err)

	assert.Equal(t, 60, data.Progress)
	assert.Empty(t, store.progressUpdates)
}

func TestGetStatusCompletionPersistsResult(t *testing.T) {
	store := newFakeStore()
	taskID := "task-9"
	store.gens["gen-1"] = &model.Generation{
		ID:         "gen-1",
		Status:     model.StatusProcessing,
		Progress:   50,
		ProviderID: &taskID,
	}
	provider := &fakeProvider{statusResp: &vton.TaskStatus{
		Status:   model.StatusCompleted,
		Progress: 100,
		ImageURL: "https://cdn.example.com/done.png",
	}}
	svc := newTestService(store, provider, &fakeQuotaStore{})

	data, err := svc.GetStatus(context.Background(), "gen-1")
	require.NoError(t, err)

	assert.Equal(t, model.StatusCompleted, data.Status)
	assert.Equal(t, 100, data.Progress)
	assert.Equal(t, "https://cdn.example.com/done.png", data.ResultURL)

	stored := store.gens["gen-1"]
	assert.Equal(t, model.StatusCompleted, stored.Status)
	require.NotNil(t, stored.ResultURL)
	assert.Equal(t, "https://cdn.example.com/done.png", *stored.ResultURL)
}

func TestGetStatusFailurePersists(t *testing.T) {
	store := newFakeStore()
	taskID := "task-9"
	store.gens["gen-1"] = &model.Generation{
		ID:         "gen-1",
		Status:     model.StatusProcessing,
		Progress:   50,
		ProviderID: &taskID,
	}
	provider := &fakeProvider{statusResp: &vton.TaskStatus{Status: model.StatusFailed, Error: "nsfw content"}}
	svc := newTestService(store, provider, &fakeQuotaStore{})

	data, err := svc.GetStatus(context.Background(), "gen-1")
	require.NoError(t, err)

	assert.Equal(t, model.StatusFailed, data.Status)
	assert.Equal(t, 0, data.Progress)
	assert.Equal(t, model.StatusFailed, store.gens["gen-1"].Status)
}

func TestGetStatusUnknownGeneration(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeProvider{}, &fakeQuotaStore{})

	_, err := svc.GetStatus(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, apperr.TypeDBError, apperr.TypeOf(err))
}

func TestGetStatusEmptyID(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeProvider{}, &fakeQuotaStore{})

	_, err := svc.GetStatus(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, apperr.TypeValidation, apperr.TypeOf(err))
}
