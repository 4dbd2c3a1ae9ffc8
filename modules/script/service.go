package script

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"fashion-ai-server/modules/common/config"
	"fashion-ai-server/modules/common/model"
)

// Service - Gemini structured-generation adapter for marketing scripts
type Service struct {
	client    *genai.Client
	modelName string
}

func NewService(cfg *config.Config) *Service {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		log.Printf("❌ [Script] Failed to create Gemini client: %v", err)
		return nil
	}

	log.Println("✅ [Script] Service initialized")
	return &Service{
		client:    client,
		modelName: cfg.GeminiModel,
	}
}

// scriptSchema - fixed output schema for the structured generation
var scriptSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"title": {
			Type:        genai.TypeString,
			Description: "A catchy title for the video",
		},
		"hook": {
			Type:        genai.TypeString,
			Description: "The first 3 seconds of the video to grab attention",
		},
		"body": {
			Type:        genai.TypeString,
			Description: "The main content describing the product features and benefits",
		},
		"callToAction": {
			Type:        genai.TypeString,
			Description: "The closing line to drive sales",
		},
		"hashtags": {
			Type:        genai.TypeArray,
			Description: "List of relevant hashtags for social media",
			Items:       &genai.Schema{Type: genai.TypeString},
		},
	},
	Required: []string{"title", "hook", "body", "callToAction", "hashtags"},
}

// Generate - produce a platform-targeted marketing script constrained
// to the script schema.
func (s *Service) Generate(ctx context.Context, productDescription, platform string) (*model.Script, error) {
	systemPrompt := fmt.Sprintf(`You are an expert fashion marketing copywriter for the Chinese market.
Create a high-conversion video script for the following product.
Platform: %s.
Tone: Energetic, persuasive, and trend-aware.
Language: Chinese (Simplified).`, platform)

	gm := s.client.GenerativeModel(s.modelName)
	gm.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}
	gm.ResponseMIMEType = "application/json"
	gm.ResponseSchema = scriptSchema

	log.Printf("📤 [Script] Calling Gemini API (platform: %s)...", platform)

	result, err := gm.GenerateContent(ctx, genai.Text("Product Description: "+productDescription))
	if err != nil {
		log.Printf("❌ [Script] Gemini API error: %v", err)
		return nil, err
	}

	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return nil, fmt.Errorf("no candidates in response")
	}

	for _, part := range result.Candidates[0].Content.Parts {
		text, ok := part.(genai.Text)
		if !ok {
			continue
		}

		var script model.Script
		if err := json.Unmarshal([]byte(text), &script); err != nil {
			return nil, fmt.Errorf("failed to parse script response: %w", err)
		}

		log.Printf("✅ [Script] Generated: %s", script.Title)
		return &script, nil
	}

	return nil, fmt.Errorf("no text part in response")
}
