package common

import (
	"fmt"
	"strings"
)

// SourceKind 食譜來源類型
type SourceKind string

const (
	SourceURL   SourceKind = "url"
	SourceText  SourceKind = "text"
	SourceImage SourceKind = "image"
	SourceVideo SourceKind = "video"
)

// Ingredient 食材
type Ingredient struct {
	Name       string   `json:"name"`
	Quantity   *float64 `json:"quantity,omitempty"`
	Unit       string   `json:"unit,omitempty"`
	Optional   bool     `json:"optional"`
	Confidence float64  `json:"confidence"`
	Inferred   bool     `json:"inferred"` // 數量/單位為推測而非擷取
	HasIssues  bool     `json:"has_issues"`
}

// Recipe 擷取出的食譜（審核期間可變）
type Recipe struct {
	Title           string       `json:"title"`
	Description     string       `json:"description,omitempty"`
	ImageRef        string       `json:"image_ref,omitempty"`
	Ingredients     []Ingredient `json:"ingredients"`
	Instructions    []string     `json:"instructions"`
	PrepTimeMinutes *int         `json:"prep_time_minutes,omitempty"`
	CookTimeMinutes *int         `json:"cook_time_minutes,omitempty"`
	Servings        *int         `json:"servings,omitempty"`
	Tags            []string     `json:"tags,omitempty"`
	Confidence      float64      `json:"confidence"`
}

// IsEmpty 判斷是否為完全失敗的擷取（無標題、無食材、無步驟）
func (r *Recipe) IsEmpty() bool {
	return strings.TrimSpace(r.Title) == "" && len(r.Ingredients) == 0 && len(r.Instructions) == 0
}

// Provenance 擷取來源中繼資料（由協調器產生一次，之後唯讀）
type Provenance struct {
	SourceKind       SourceKind `json:"source_kind"`
	ExtractionMethod string     `json:"extraction_method"`
	Confidence       float64    `json:"confidence"`
	ParserNotes      []string   `json:"parser_notes,omitempty"`
}

// IssueType 驗證問題類型
type IssueType string

const (
	IssueMissingIngredient  IssueType = "missing_ingredient"
	IssueQuantityMismatch   IssueType = "quantity_mismatch"
	IssueInventedIngredient IssueType = "invented_ingredient"
	IssueLowConfidence      IssueType = "low_confidence"
)

// IssueSeverity 問題嚴重度
type IssueSeverity string

const (
	SeverityLow    IssueSeverity = "low"
	SeverityMedium IssueSeverity = "medium"
	SeverityHigh   IssueSeverity = "high"
)

// ValidationIssue 驗證問題
type ValidationIssue struct {
	Type        IssueType     `json:"type"`
	Severity    IssueSeverity `json:"severity"`
	Description string        `json:"description"`
	Suggestion  string        `json:"suggestion"`
	Field       string        `json:"field,omitempty"`
}

// MissingIngredientCandidate 疑似遺漏的食材
type MissingIngredientCandidate struct {
	Name              string   `json:"name"`
	Confidence        float64  `json:"confidence"`
	Context           string   `json:"context"` // 來源文字片段
	SuggestedQuantity *float64 `json:"suggested_quantity,omitempty"`
	SuggestedUnit     string   `json:"suggested_unit,omitempty"`
}

// InferredQuantity 推測的數量
type InferredQuantity struct {
	IngredientName   string   `json:"ingredient_name"`
	OriginalQuantity *float64 `json:"original_quantity,omitempty"`
	InferredQuantity float64  `json:"inferred_quantity"`
	InferredUnit     string   `json:"inferred_unit"`
	Confidence       float64  `json:"confidence"`
	Reasoning        string   `json:"reasoning"`
}

// FixType 快速修正類型
type FixType string

const (
	FixAddIngredient    FixType = "add_ingredient"
	FixQuantity         FixType = "fix_quantity"
	FixMarkOptional     FixType = "mark_optional"
	FixRemoveIngredient FixType = "remove_ingredient"
	FixAddTime          FixType = "add_time"
	FixServings         FixType = "fix_servings"
	FixInstruction      FixType = "fix_instruction"
)

// QuickFixAction 快速修正動作
// 每次驗證重新產生；由呼叫端套用或捨棄，不做持久化。
// 動作彼此獨立，payload 內含套用所需的全部資料。
type QuickFixAction struct {
	ID      string         `json:"id"`
	Type    FixType        `json:"type"`
	Data    map[string]any `json:"data"`
	AutoFix bool           `json:"auto_fix"`
}

// NutrientRecord 每 100 克的營養紀錄
type NutrientRecord struct {
	Calories float64  `json:"calories"`
	Protein  float64  `json:"protein"`
	Carbs    float64  `json:"carbs"`
	Fats     float64  `json:"fats"`
	Fiber    float64  `json:"fiber"`
	Sugar    *float64 `json:"sugar,omitempty"`
	Sodium   *float64 `json:"sodium,omitempty"`
}

// NutritionFacts 營養數值
type NutritionFacts struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fats     float64 `json:"fats"`
	Fiber    float64 `json:"fiber"`
}

// IngredientNutrition 單一食材的營養貢獻
type IngredientNutrition struct {
	Name          string  `json:"name"`
	CanonicalName string  `json:"canonical_name"`
	Grams         float64 `json:"grams"`
	Calories      float64 `json:"calories"`
	Protein       float64 `json:"protein"`
	Carbs         float64 `json:"carbs"`
	Fats          float64 `json:"fats"`
	Fiber         float64 `json:"fiber"`
	Matched       bool    `json:"matched"`
}

// NutritionResult 營養計算結果
type NutritionResult struct {
	PerServing          NutritionFacts        `json:"per_serving"`
	Total               NutritionFacts        `json:"total"`
	IngredientBreakdown []IngredientNutrition `json:"ingredient_breakdown"`
}

// FileRef 附加檔案（影像或影音），由協作者提供位元組與 MIME 類型
type FileRef struct {
	Data     string `json:"data"` // base64 或 data URI
	MimeType string `json:"mime_type"`
	Name     string `json:"name,omitempty"`
}

// FormatIngredientLine 將食材格式化為單行文字（供 AI prompt 與記錄使用）
func FormatIngredientLine(ing Ingredient) string {
	var sb strings.Builder
	if ing.Quantity != nil {
		sb.WriteString(TrimFloat(*ing.Quantity))
		if ing.Unit != "" {
			sb.WriteString(" ")
			sb.WriteString(ing.Unit)
		}
		sb.WriteString(" ")
	}
	sb.WriteString(ing.Name)
	if ing.Optional {
		sb.WriteString(" (optional)")
	}
	return sb.String()
}

// TrimFloat 去除小數尾端多餘的零
func TrimFloat(f float64) string {
	s := fmt.Sprintf("%.2f", f)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}

// FloatPtr 回傳 float64 指標
func FloatPtr(f float64) *float64 { return &f }

// IntPtr 回傳 int 指標
func IntPtr(i int) *int { return &i }
