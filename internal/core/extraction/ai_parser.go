package extraction

import (
	"context"
	"fmt"
	"strings"

	aiservice "recipe-pipeline/internal/core/ai/service"
	"recipe-pipeline/internal/pkg/common"

	"go.uber.org/zap"
)

// AIParser AI 輔助結構化解析器
// 文字與影像來源共用同一個回應格式；AI 不可用或解析失敗時由呼叫端退回啟發式路徑。
type AIParser struct {
	aiService *aiservice.Service
}

// NewAIParser 創建 AI 解析器
func NewAIParser(aiService *aiservice.Service) *AIParser {
	return &AIParser{aiService: aiService}
}

// Available AI 協作者是否可用
func (p *AIParser) Available() bool {
	return p.aiService != nil && p.aiService.Available()
}

// aiRecipePayload AI 回應的食譜結構
type aiRecipePayload struct {
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	Ingredients  []struct {
		Name     string   `json:"name"`
		Quantity *float64 `json:"quantity"`
		Unit     string   `json:"unit"`
		Optional bool     `json:"optional"`
	} `json:"ingredients"`
	Instructions    []string `json:"instructions"`
	PrepTimeMinutes *int     `json:"prep_time_minutes"`
	CookTimeMinutes *int     `json:"cook_time_minutes"`
	Servings        *int     `json:"servings"`
	Tags            []string `json:"tags"`
	Confidence      *float64 `json:"confidence"`
}

const recipeJSONFormat = `{
"title": "dish name",
"description": "one sentence",
"ingredients": [{"name": "flour", "quantity": 2, "unit": "cup", "optional": false}],
"instructions": ["step one", "step two"],
"prep_time_minutes": 10,
"cook_time_minutes": 20,
"servings": 4,
"tags": ["breakfast"],
"confidence": 0.9
}`

// ParseText 以 AI 解析自由文字為結構化食譜
func (p *AIParser) ParseText(ctx context.Context, text string) (*common.Recipe, error) {
	prompt := fmt.Sprintf(`Extract the recipe from the following text into JSON.
		Rules:
		1. Only use information present in the text, never invent ingredients or steps
		2. quantity must be a number or null, unit must be a short unit word or empty string
		3. Use null for any field the text does not state
		4. confidence is your own 0-1 estimate of extraction quality
		5. Return the most compact JSON possible, no markdown fence, no commentary
		Format:
		%s
		Text:
		%s`, recipeJSONFormat, text)

	return p.requestRecipe(ctx, prompt, "")
}

// ParseImage 以多模態 AI 解析食譜照片（OCR/視覺）
func (p *AIParser) ParseImage(ctx context.Context, imageData string) (*common.Recipe, error) {
	prompt := fmt.Sprintf(`Read the recipe shown in this image (a recipe card, cookbook page, screenshot or dish photo) and extract it into JSON.
		Rules:
		1. Transcribe what the image shows, never invent ingredients or steps
		2. quantity must be a number or null, unit must be a short unit word or empty string
		3. Use null for any field the image does not show
		4. confidence is your own 0-1 estimate of extraction quality
		5. Return the most compact JSON possible, no markdown fence, no commentary
		Format:
		%s`, recipeJSONFormat)

	return p.requestRecipe(ctx, prompt, imageData)
}

// requestRecipe 發出請求並解析回應（容忍 AI 回傳的非嚴格 JSON）
func (p *AIParser) requestRecipe(ctx context.Context, prompt, imageData string) (*common.Recipe, error) {
	if !p.Available() {
		return nil, common.ErrAIUnavailable
	}

	resp, err := p.aiService.ProcessRequest(ctx, prompt, imageData)
	if err != nil {
		return nil, fmt.Errorf("AI service error: %w", err)
	}
	if resp == nil || resp.Content == "" {
		return nil, fmt.Errorf("empty AI response")
	}

	content := strings.TrimSpace(resp.Content)
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start != -1 && end != -1 && end > start {
		content = content[start : end+1]
	}

	common.LogDebug("AI 回應內容 (recipe extract)",
		zap.Int("ai_response_length", len(content)),
	)

	var payload aiRecipePayload
	if err := common.ParseJSON(content, &payload); err != nil {
		// AI 偶爾漏掉鍵的引號，修補後重試一次
		if err2 := common.ParseJSON(common.QuoteJSONKeys(content), &payload); err2 != nil {
			return nil, fmt.Errorf("failed to parse AI response: %w", err)
		}
	}

	return p.toRecipe(payload), nil
}

// toRecipe 轉為領域型別並補齊信心值
func (p *AIParser) toRecipe(payload aiRecipePayload) *common.Recipe {
	recipe := &common.Recipe{
		Title:           strings.TrimSpace(payload.Title),
		Description:     strings.TrimSpace(payload.Description),
		Instructions:    []string{},
		Ingredients:     []common.Ingredient{},
		PrepTimeMinutes: payload.PrepTimeMinutes,
		CookTimeMinutes: payload.CookTimeMinutes,
		Tags:            payload.Tags,
	}

	if payload.Servings != nil && *payload.Servings > 0 {
		recipe.Servings = payload.Servings
	}

	for _, ing := range payload.Ingredients {
		name := strings.TrimSpace(ing.Name)
		if name == "" {
			continue
		}
		item := common.Ingredient{
			Name:       name,
			Quantity:   ing.Quantity,
			Unit:       strings.TrimSpace(ing.Unit),
			Optional:   ing.Optional,
			Confidence: 0.85,
		}
		if item.Quantity == nil {
			item.Confidence = 0.6
		}
		recipe.Ingredients = append(recipe.Ingredients, item)
	}

	for _, step := range payload.Instructions {
		if step = strings.TrimSpace(step); step != "" {
			recipe.Instructions = append(recipe.Instructions, step)
		}
	}

	recipe.Confidence = 0.85
	if payload.Confidence != nil && *payload.Confidence > 0 && *payload.Confidence <= 1 {
		recipe.Confidence = *payload.Confidence
	}

	return recipe
}
