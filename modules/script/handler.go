package script

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"fashion-ai-server/modules/common/apperr"
	"fashion-ai-server/modules/common/model"
	"fashion-ai-server/modules/common/quota"
	"fashion-ai-server/modules/common/session"
)

// Generator - script generation contract (satisfied by Service)
type Generator interface {
	Generate(ctx context.Context, productDescription, platform string) (*model.Script, error)
}

// CampaignStore - best-effort campaign persistence
type CampaignStore interface {
	CreateCampaign(ctx context.Context, campaign *model.Campaign) (*model.Campaign, error)
}

type Handler struct {
	generator Generator
	quotas    *quota.Manager
	store     CampaignStore
}

func NewHandler(generator Generator, quotas *quota.Manager, store CampaignStore) *Handler {
	return &Handler{
		generator: generator,
		quotas:    quotas,
		store:     store,
	}
}

// HandleGenerate - POST /api/scripts
//
// Validation and auth failures are terminal and never retried. A
// storage failure after a successful generation is logged but the
// script is still returned (best-effort persistence).
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ctx := r.Context()

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeResponse(w, &GenerateResponse{Success: false, Error: "无效的请求格式"})
		return
	}

	// 1. Input validation
	description, platform, err := ValidateRequest(&req)
	if err != nil {
		writeResponse(w, &GenerateResponse{Success: false, Error: apperr.Message(err)})
		return
	}

	// 2. Authentication
	user := session.UserFrom(ctx)
	if user == nil {
		writeResponse(w, &GenerateResponse{Success: false, Error: "请先登录"})
		return
	}

	// 3. Quota check before the expensive provider call
	status, err := h.quotas.Check(ctx, user.ID, quota.KindScript)
	if err != nil {
		writeResponse(w, &GenerateResponse{Success: false, Error: "配额检查失败"})
		return
	}
	if !status.CanUse {
		writeResponse(w, &GenerateResponse{Success: false, Error: quota.ExceededMessage(quota.KindScript, status)})
		return
	}

	// 4. Generate via the LLM
	scriptData, err := h.generator.Generate(ctx, description, platform)
	if err != nil {
		log.Printf("❌ [Script] Generation failed: %v", err)
		writeResponse(w, &GenerateResponse{Success: false, Error: apperr.Message(apperr.Wrap(apperr.TypeAPIError, err))})
		return
	}

	// 5. Count the successful use
	if err := h.quotas.Increment(ctx, user.ID, quota.KindScript); err != nil {
		log.Printf("⚠️  [Script] Quota increment failed: %v", err)
	}

	// 6. Best-effort persistence: a DB failure does not fail the request.
	campaignID := ""
	campaign, err := h.store.CreateCampaign(ctx, &model.Campaign{
		UserID:             user.ID,
		ProductDescription: description,
		Platform:           platform,
		ScriptData:         scriptData,
		Status:             model.CampaignStatusScriptGenerated,
	})
	if err != nil {
		log.Printf("❌ [DB Error] Failed to save campaign: %v", err)
	} else {
		campaignID = campaign.ID
	}

	writeResponse(w, &GenerateResponse{
		Success:    true,
		Data:       scriptData,
		CampaignID: campaignID,
	})
}

func writeResponse(w http.ResponseWriter, resp *GenerateResponse) {
	json.NewEncoder(w).Encode(resp)
}
