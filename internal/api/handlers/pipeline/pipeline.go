package pipeline

import (
	"net/http"

	"recipe-pipeline/internal/core/extraction"
	"recipe-pipeline/internal/core/nutrition"
	"recipe-pipeline/internal/core/validation"
	"recipe-pipeline/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler 食譜管線處理程序
// import 是完整管線；extract/validate/nutrition 讓呼叫端分段執行同樣的階段。
type Handler struct {
	orchestrator *extraction.Orchestrator
	validator    *validation.Validator
	quickFixes   *validation.Generator
	engine       *nutrition.Engine
}

// NewHandler 創建管線處理程序
func NewHandler(orchestrator *extraction.Orchestrator, validator *validation.Validator, quickFixes *validation.Generator, engine *nutrition.Engine) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		validator:    validator,
		quickFixes:   quickFixes,
		engine:       engine,
	}
}

// ImportRequest 食譜匯入請求：url、text 或 file 擇一
type ImportRequest struct {
	URL  string          `json:"url,omitempty"`
	Text string          `json:"text,omitempty"`
	File *common.FileRef `json:"file,omitempty"`
}

// ValidationReport 驗證階段的回應片段
type ValidationReport struct {
	Issues             []common.ValidationIssue            `json:"issues"`
	MissingIngredients []common.MissingIngredientCandidate `json:"missing_ingredients"`
	InferredQuantities []common.InferredQuantity           `json:"inferred_quantities"`
}

// ImportResponse 完整管線回應
type ImportResponse struct {
	Recipe     *common.Recipe          `json:"recipe"`
	Provenance *common.Provenance      `json:"provenance"`
	Validation *ValidationReport       `json:"validation"`
	QuickFixes []common.QuickFixAction `json:"quick_fixes"`
	Nutrition  *common.NutritionResult `json:"nutrition"`
}

// HandleImport 執行完整匯入管線：擷取 → 驗證 ∥ 營養計算 → 快速修正
func (h *Handler) HandleImport(c *gin.Context) {
	requestID := requestID(c)

	var req ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogError("請求格式無效",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	common.LogInfo("開始處理食譜匯入請求",
		zap.String("request_id", requestID),
		zap.Bool("has_url", req.URL != ""),
		zap.Bool("has_text", req.Text != ""),
		zap.Bool("has_file", req.File != nil),
	)

	result, err := h.orchestrator.Extract(c.Request.Context(), extraction.Source{
		URL:  req.URL,
		Text: req.Text,
		File: req.File,
	})
	if err != nil {
		h.writeExtractionError(c, requestID, err)
		return
	}

	// 營養計算與驗證互不依賴，並行執行
	nutritionCh := make(chan *common.NutritionResult, 1)
	go func() {
		hints := h.engine.BuildHintMap(c.Request.Context(), result.Recipe.Ingredients)
		nutritionCh <- h.engine.ComputeNutrition(result.Recipe.Ingredients, servingsOf(result.Recipe), hints)
	}()

	report := h.validator.Validate(result.Recipe, result.SourceText)
	fixes := h.quickFixes.Generate(report, result.SourceText)
	fixes = append(fixes, h.quickFixes.GenerateExtractionErrorFixes(report.Recipe, result.SourceText)...)

	nutritionResult := <-nutritionCh

	common.LogInfo("食譜匯入完成",
		zap.String("request_id", requestID),
		zap.String("title", report.Recipe.Title),
		zap.Int("issues", len(report.Issues)),
		zap.Int("quick_fixes", len(fixes)),
	)

	c.JSON(http.StatusOK, ImportResponse{
		Recipe:     report.Recipe,
		Provenance: result.Provenance,
		Validation: &ValidationReport{
			Issues:             report.Issues,
			MissingIngredients: report.Missing,
			InferredQuantities: report.Inferred,
		},
		QuickFixes: fixes,
		Nutrition:  nutritionResult,
	})
}

// ExtractResponse 單獨擷取階段的回應
// source_text 供呼叫端後續帶回 validate 端點使用。
type ExtractResponse struct {
	Recipe     *common.Recipe     `json:"recipe"`
	Provenance *common.Provenance `json:"provenance"`
	SourceText string             `json:"source_text,omitempty"`
}

// HandleExtract 只執行擷取階段
func (h *Handler) HandleExtract(c *gin.Context) {
	requestID := requestID(c)

	var req ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogError("請求格式無效",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	result, err := h.orchestrator.Extract(c.Request.Context(), extraction.Source{
		URL:  req.URL,
		Text: req.Text,
		File: req.File,
	})
	if err != nil {
		h.writeExtractionError(c, requestID, err)
		return
	}

	common.LogInfo("擷取完成",
		zap.String("request_id", requestID),
		zap.String("method", result.Provenance.ExtractionMethod),
		zap.Float64("confidence", result.Provenance.Confidence),
	)

	c.JSON(http.StatusOK, ExtractResponse{
		Recipe:     result.Recipe,
		Provenance: result.Provenance,
		SourceText: result.SourceText,
	})
}

// ValidateRequest 單獨驗證階段的請求
type ValidateRequest struct {
	Recipe     *common.Recipe `json:"recipe" binding:"required"`
	SourceText string         `json:"source_text,omitempty"`
}

// ValidateResponse 單獨驗證階段的回應
type ValidateResponse struct {
	Recipe     *common.Recipe          `json:"recipe"`
	Validation *ValidationReport       `json:"validation"`
	QuickFixes []common.QuickFixAction `json:"quick_fixes"`
}

// HandleValidate 只執行驗證與快速修正階段
func (h *Handler) HandleValidate(c *gin.Context) {
	requestID := requestID(c)

	var req ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogError("請求格式無效",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	report := h.validator.Validate(req.Recipe, req.SourceText)
	fixes := h.quickFixes.Generate(report, req.SourceText)
	fixes = append(fixes, h.quickFixes.GenerateExtractionErrorFixes(report.Recipe, req.SourceText)...)

	common.LogInfo("驗證完成",
		zap.String("request_id", requestID),
		zap.Int("issues", len(report.Issues)),
		zap.Int("quick_fixes", len(fixes)),
	)

	c.JSON(http.StatusOK, ValidateResponse{
		Recipe: report.Recipe,
		Validation: &ValidationReport{
			Issues:             report.Issues,
			MissingIngredients: report.Missing,
			InferredQuantities: report.Inferred,
		},
		QuickFixes: fixes,
	})
}

// NutritionRequest 單獨營養計算的請求：recipe 或 ingredients 擇一
type NutritionRequest struct {
	Recipe      *common.Recipe      `json:"recipe,omitempty"`
	Ingredients []common.Ingredient `json:"ingredients,omitempty"`
	Servings    int                 `json:"servings,omitempty"`
}

// HandleNutrition 只執行營養計算階段
func (h *Handler) HandleNutrition(c *gin.Context) {
	requestID := requestID(c)

	var req NutritionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogError("請求格式無效",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	ingredients := req.Ingredients
	servings := req.Servings
	if req.Recipe != nil {
		ingredients = req.Recipe.Ingredients
		if servings == 0 {
			servings = servingsOf(req.Recipe)
		}
	}
	if len(ingredients) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Provide a recipe or an ingredient list"})
		return
	}

	hints := h.engine.BuildHintMap(c.Request.Context(), ingredients)
	result := h.engine.ComputeNutrition(ingredients, servings, hints)

	common.LogInfo("營養計算完成",
		zap.String("request_id", requestID),
		zap.Int("ingredients", len(ingredients)),
		zap.Float64("total_calories", result.Total.Calories),
	)

	c.JSON(http.StatusOK, result)
}

// writeExtractionError 擷取失敗時的統一回應
func (h *Handler) writeExtractionError(c *gin.Context, requestID string, err error) {
	if common.IsExtractionError(err) {
		common.LogWarn("擷取失敗",
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": err.Error(),
			"code":  common.ErrCodeExtractionFailed,
		})
		return
	}

	common.LogError("管線內部錯誤",
		zap.String("request_id", requestID),
		zap.Error(err),
	)
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": "Internal server error",
		"code":  common.ErrCodeInternalError,
	})
}

func requestID(c *gin.Context) string {
	id := c.GetHeader("X-Request-ID")
	if id == "" {
		id = uuid.New().String()
		c.Header("X-Request-ID", id)
	}
	return id
}

func servingsOf(recipe *common.Recipe) int {
	if recipe.Servings == nil {
		return 0
	}
	return *recipe.Servings
}
