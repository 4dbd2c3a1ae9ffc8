package database

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/supabase-community/supabase-go"

	"fashion-ai-server/modules/common/config"
	"fashion-ai-server/modules/common/model"
)

type Client struct {
	supabase   *supabase.Client
	cfg        *config.Config
	httpClient *http.Client
}

// NewClient - Database client over Supabase Postgrest
func NewClient(cfg *config.Config) *Client {
	supabaseClient, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseServiceKey, &supabase.ClientOptions{})
	if err != nil {
		log.Printf("❌ Failed to create Supabase client: %v", err)
		return nil
	}

	return &Client{
		supabase:   supabaseClient,
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// CreateCampaign - insert a campaigns row, returning the stored record
func (c *Client) CreateCampaign(ctx context.Context, campaign *model.Campaign) (*model.Campaign, error) {
	insertData := map[string]interface{}{
		"user_id":             campaign.UserID,
		"product_description": campaign.ProductDescription,
		"platform":            campaign.Platform,
		"script_data":         campaign.ScriptData,
		"status":              campaign.Status,
	}

	data, _, err := c.supabase.From("campaigns").
		Insert(insertData, false, "", "", "").
		Execute()

	if err != nil {
		return nil, fmt.Errorf("failed to insert campaign: %w", err)
	}

	var campaigns []model.Campaign
	if err := json.Unmarshal(data, &campaigns); err != nil {
		return nil, fmt.Errorf("failed to parse campaign response: %w", err)
	}
	if len(campaigns) == 0 {
		return nil, fmt.Errorf("no campaign record returned")
	}

	log.Printf("✅ Campaign created: %s", campaigns[0].ID)
	return &campaigns[0], nil
}

// CreateGeneration - insert a pending generations row
func (c *Client) CreateGeneration(ctx context.Context, gen *model.Generation) (*model.Generation, error) {
	insertData := map[string]interface{}{
		"user_id":         gen.UserID,
		"campaign_id":     gen.CampaignID,
		"type":            gen.Type,
		"status":          gen.Status,
		"input_image_url": gen.InputImageURL,
		"progress":        gen.Progress,
		"started_at":      "now()",
	}

	data, _, err := c.supabase.From("generations").
		Insert(insertData, false, "", "", "").
		Execute()

	if err != nil {
		return nil, fmt.Errorf("failed to insert generation: %w", err)
	}

	var gens []model.Generation
	if err := json.Unmarshal(data, &gens); err != nil {
		return nil, fmt.Errorf("failed to parse generation response: %w", err)
	}
	if len(gens) == 0 {
		return nil, fmt.Errorf("no generation record returned")
	}

	log.Printf("✅ Generation created: %s (status: %s)", gens[0].ID, gens[0].Status)
	return &gens[0], nil
}

// FetchGeneration - load a generations row by id
func (c *Client) FetchGeneration(ctx context.Context, id string) (*model.Generation, error) {
	var gens []model.Generation

	data, _, err := c.supabase.From("generations").
		Select("*", "exact", false).
		Eq("id", id).
		Execute()

	if err != nil {
		return nil, fmt.Errorf("failed to query generations: %w", err)
	}

	if err := json.Unmarshal(data, &gens); err != nil {
		return nil, fmt.Errorf("failed to parse generations response: %w", err)
	}
	if len(gens) == 0 {
		return nil, fmt.Errorf("generation not found: %s", id)
	}

	return &gens[0], nil
}

// MarkGenerationProcessing - provider accepted the task asynchronously
func (c *Client) MarkGenerationProcessing(ctx context.Context, id, providerID string, progress int) error {
	return c.updateGeneration(ctx, id, map[string]interface{}{
		"status":      model.StatusProcessing,
		"provider_id": providerID,
		"progress":    progress,
	})
}

// MarkGenerationCompleted - terminal success with result image
func (c *Client) MarkGenerationCompleted(ctx context.Context, id, resultURL string) error {
	return c.updateGeneration(ctx, id, map[string]interface{}{
		"status":       model.StatusCompleted,
		"result_url":   resultURL,
		"progress":     100,
		"completed_at": "now()",
	})
}

// MarkGenerationFailed - terminal failure with error message
func (c *Client) MarkGenerationFailed(ctx context.Context, id, errorMessage string) error {
	return c.updateGeneration(ctx, id, map[string]interface{}{
		"status":        model.StatusFailed,
		"error_message": errorMessage,
		"completed_at":  "now()",
	})
}

// UpdateGenerationProgress - persist reported progress. Callers pass the
// already-clamped value; progress never regresses below what is stored.
func (c *Client) UpdateGenerationProgress(ctx context.Context, id string, progress int) error {
	return c.updateGeneration(ctx, id, map[string]interface{}{
		"progress": progress,
	})
}

func (c *Client) updateGeneration(ctx context.Context, id string, updateData map[string]interface{}) error {
	_, _, err := c.supabase.From("generations").
		Update(updateData, "", "").
		Eq("id", id).
		Execute()

	if err != nil {
		return fmt.Errorf("failed to update generation %s: %w", id, err)
	}

	log.Printf("📝 Generation %s updated: %v", id, updateData["status"])
	return nil
}

// FetchQuotaRow - today's ledger row, nil when the user has no usage yet
func (c *Client) FetchQuotaRow(ctx context.Context, userID, date string) (*model.QuotaRow, error) {
	var rows []model.QuotaRow

	data, _, err := c.supabase.From("user_quotas").
		Select("user_id, date, script_count, image_count", "exact", false).
		Eq("user_id", userID).
		Eq("date", date).
		Execute()

	if err != nil {
		return nil, fmt.Errorf("failed to query user_quotas: %w", err)
	}

	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse user_quotas response: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	return &rows[0], nil
}

// IncrementQuota - atomic upsert-and-increment via the increment_quota
// Postgres function. The increment must happen server-side in a single
// statement so concurrent requests cannot race past the counter.
func (c *Client) IncrementQuota(ctx context.Context, userID, date, kind string) error {
	rpcURL := fmt.Sprintf("%s/rest/v1/rpc/increment_quota", c.cfg.SupabaseURL)

	body, err := json.Marshal(map[string]string{
		"p_user_id": userID,
		"p_date":    date,
		"p_type":    kind,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal rpc body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", rpcURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create rpc request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.cfg.SupabaseServiceKey)
	req.Header.Set("Authorization", "Bearer "+c.cfg.SupabaseServiceKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("increment_quota rpc failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("increment_quota rpc returned status %d: %s", resp.StatusCode, string(respBody))
	}

	log.Printf("💰 Quota incremented: user=%s, type=%s, date=%s", userID, kind, date)
	return nil
}
