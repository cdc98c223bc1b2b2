package validation

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"recipe-pipeline/internal/core/nutrition"
	"recipe-pipeline/internal/pkg/common"

	"go.uber.org/zap"
)

// Config 驗證器門檻值
// 這些是啟發式參數，刻意由設定注入而非寫死（未經真實語料調校）。
type Config struct {
	LowConfidenceThreshold float64
	QuantityTolerance      float64
	MissingMinConfidence   float64
}

// DefaultConfig 預設門檻值
func DefaultConfig() Config {
	return Config{
		LowConfidenceThreshold: 0.5,
		QuantityTolerance:      0.5,
		MissingMinConfidence:   0.35,
	}
}

// Validator 食譜一致性驗證器
// 將候選食譜與來源文字互相比對；無來源文字時退化為只跑信心值檢查。
type Validator struct {
	config   Config
	synonyms *nutrition.SynonymTable
}

// NewValidator 創建一致性驗證器
func NewValidator(cfg Config, synonyms *nutrition.SynonymTable) *Validator {
	return &Validator{config: cfg, synonyms: synonyms}
}

// Report 驗證結果
type Report struct {
	Recipe   *common.Recipe                      `json:"recipe"`
	Issues   []common.ValidationIssue            `json:"issues"`
	Missing  []common.MissingIngredientCandidate `json:"missing_ingredients"`
	Inferred []common.InferredQuantity           `json:"inferred_quantities"`
}

var numberBeforePattern = regexp.MustCompile(`(\d+(?:[./]\d+)?)\s*(?:cups?|tbsp|tsp|tablespoons?|teaspoons?|oz|ounces?|lbs?|pounds?|g|grams?|kg|ml|l)?\s*$`)

// Validate 驗證候選食譜
// 回傳的是輸入的副本：原食譜不被修改，信心值降級與 has_issues 只出現在副本上。
// 同一組輸入必得同一組輸出（無隱藏隨機性）。
func (v *Validator) Validate(recipe *common.Recipe, sourceText string) *Report {
	validated := cloneRecipe(recipe)
	report := &Report{
		Recipe:   validated,
		Issues:   []common.ValidationIssue{},
		Missing:  []common.MissingIngredientCandidate{},
		Inferred: []common.InferredQuantity{},
	}

	lowerSource := strings.ToLower(sourceText)
	hasSource := strings.TrimSpace(sourceText) != ""

	if !hasSource {
		common.LogDebug("無來源文字，文字比對檢查跳過")
	}

	// 逐食材檢查
	for i := range validated.Ingredients {
		ing := &validated.Ingredients[i]

		if hasSource {
			v.checkInvented(ing, lowerSource, report)
			v.checkQuantity(ing, lowerSource, report)
		}

		// 信心值門檻檢查與來源文字無關，一律執行
		if ing.Confidence < v.config.LowConfidenceThreshold {
			ing.HasIssues = true
			report.Issues = append(report.Issues, common.ValidationIssue{
				Type:        common.IssueLowConfidence,
				Severity:    common.SeverityLow,
				Description: fmt.Sprintf("ingredient %q was extracted with low confidence (%.2f)", ing.Name, ing.Confidence),
				Suggestion:  "review the name, quantity and unit against the original source",
				Field:       "ingredients." + ing.Name,
			})
		}

		// 缺數量的食材提供推測值
		if ing.Quantity == nil {
			report.Inferred = append(report.Inferred, v.inferQuantity(ing))
		}
	}

	// 食譜層級信心值
	if validated.Confidence < v.config.LowConfidenceThreshold {
		report.Issues = append(report.Issues, common.ValidationIssue{
			Type:        common.IssueLowConfidence,
			Severity:    common.SeverityMedium,
			Description: fmt.Sprintf("overall extraction confidence is low (%.2f)", validated.Confidence),
			Suggestion:  "review the whole recipe before saving",
		})
	}

	// 遺漏食材掃描
	if hasSource {
		report.Missing = v.scanMissing(validated, sourceText, lowerSource)
		for _, cand := range report.Missing {
			report.Issues = append(report.Issues, common.ValidationIssue{
				Type:        common.IssueMissingIngredient,
				Severity:    common.SeverityMedium,
				Description: fmt.Sprintf("source mentions %q but it is not in the ingredient list", cand.Name),
				Suggestion:  "add it if the recipe actually uses it",
				Field:       "ingredients",
			})
		}
	}

	common.LogDebug("驗證完成",
		zap.Int("issues", len(report.Issues)),
		zap.Int("missing", len(report.Missing)),
		zap.Int("inferred", len(report.Inferred)),
	)

	return report
}

// checkInvented 食材名稱必須出現在來源文字中（容忍詞序差異）
func (v *Validator) checkInvented(ing *common.Ingredient, lowerSource string, report *Report) {
	if nameAppearsIn(ing.Name, lowerSource) {
		return
	}

	ing.HasIssues = true
	ing.Confidence = round2(ing.Confidence * 0.5)
	report.Issues = append(report.Issues, common.ValidationIssue{
		Type:        common.IssueInventedIngredient,
		Severity:    common.SeverityHigh,
		Description: fmt.Sprintf("ingredient %q does not appear in the source text", ing.Name),
		Suggestion:  "remove it or correct the name",
		Field:       "ingredients." + ing.Name,
	})
}

// checkQuantity 擷取數量與來源文字中鄰近提及的數量比對
func (v *Validator) checkQuantity(ing *common.Ingredient, lowerSource string, report *Report) {
	if ing.Quantity == nil {
		return
	}

	sourceQty, ok := quantityNearMention(ing.Name, lowerSource)
	if !ok || sourceQty == 0 {
		return
	}

	diff := math.Abs(*ing.Quantity-sourceQty) / sourceQty
	if diff <= v.config.QuantityTolerance {
		return
	}

	ing.HasIssues = true
	ing.Confidence = round2(ing.Confidence * 0.8)
	report.Issues = append(report.Issues, common.ValidationIssue{
		Type:        common.IssueQuantityMismatch,
		Severity:    common.SeverityMedium,
		Description: fmt.Sprintf("extracted %s %s of %q but the source mentions %s nearby", common.TrimFloat(*ing.Quantity), ing.Unit, ing.Name, common.TrimFloat(sourceQty)),
		Suggestion:  fmt.Sprintf("consider changing the quantity to %s", common.TrimFloat(sourceQty)),
		Field:       "ingredients." + ing.Name,
	})
}

// inferQuantity 為缺數量的食材推測預設值
func (v *Validator) inferQuantity(ing *common.Ingredient) common.InferredQuantity {
	name := strings.ToLower(ing.Name)
	for _, keyword := range []string{"egg", "banana", "apple", "onion", "potato", "tomato", "carrot", "lemon", "lime", "avocado"} {
		if strings.Contains(name, keyword) {
			return common.InferredQuantity{
				IngredientName:   ing.Name,
				InferredQuantity: 1,
				InferredUnit:     "piece",
				Confidence:       0.5,
				Reasoning:        "count-style ingredient with no stated quantity, assuming one piece",
			}
		}
	}
	return common.InferredQuantity{
		IngredientName:   ing.Name,
		InferredQuantity: 100,
		InferredUnit:     "g",
		Confidence:       0.3,
		Reasoning:        "no quantity in the source, defaulting to 100 g",
	}
}

// scanMissing 在來源文字中尋找未列入食材清單的食材名詞
// 以別名表為詞典掃描；誤報可接受，因為結果只作為建議呈現。
func (v *Validator) scanMissing(recipe *common.Recipe, sourceText, lowerSource string) []common.MissingIngredientCandidate {
	// 已涵蓋的標準鍵
	covered := map[string]bool{}
	for _, ing := range recipe.Ingredients {
		covered[nutrition.Canonicalize(ing.Name, nil, v.synonyms)] = true
	}

	// 別名表走訪需排序，維持輸出確定性
	aliases := v.synonyms.Aliases()
	keys := make([]string, 0, len(aliases))
	for alias := range aliases {
		keys = append(keys, alias)
	}
	sort.Strings(keys)

	seen := map[string]bool{}
	var candidates []common.MissingIngredientCandidate

	for _, alias := range keys {
		canonical := aliases[alias]
		if covered[canonical] || seen[canonical] {
			continue
		}

		idx := wordIndex(lowerSource, alias)
		if idx < 0 {
			continue
		}

		confidence := 0.4
		if len(alias) > 5 {
			confidence = 0.55
		}
		if confidence < v.config.MissingMinConfidence {
			continue
		}

		seen[canonical] = true
		cand := common.MissingIngredientCandidate{
			Name:       alias,
			Confidence: confidence,
			Context:    snippet(sourceText, idx, len(alias)),
		}
		if qty, ok := quantityBefore(lowerSource, idx); ok {
			cand.SuggestedQuantity = common.FloatPtr(qty)
		}
		candidates = append(candidates, cand)
	}

	// 依出現位置排序，讓輸出順序跟著來源文字走
	sort.SliceStable(candidates, func(i, j int) bool {
		return wordIndex(lowerSource, candidates[i].Name) < wordIndex(lowerSource, candidates[j].Name)
	})

	return candidates
}

// nameAppearsIn 名稱的所有有效字詞都出現在來源中即視為有提及（容忍詞序）
func nameAppearsIn(name, lowerSource string) bool {
	normalized := nutrition.NormalizeName(name)
	if normalized == "" {
		return true
	}
	if strings.Contains(lowerSource, normalized) {
		return true
	}

	tokens := significantTokens(normalized)
	if len(tokens) == 0 {
		return true
	}
	for _, token := range tokens {
		if !strings.Contains(lowerSource, token) {
			return false
		}
	}
	return true
}

// quantityNearMention 在名稱提及位置前方的視窗內找最後一個數字
func quantityNearMention(name, lowerSource string) (float64, bool) {
	token := longestToken(name)
	if token == "" {
		return 0, false
	}
	idx := strings.Index(lowerSource, token)
	if idx < 0 {
		return 0, false
	}

	return quantityBefore(lowerSource, idx)
}

// quantityBefore 掃描位置前方 60 字元視窗內最接近的數量
func quantityBefore(lowerSource string, idx int) (float64, bool) {
	start := idx - 60
	if start < 0 {
		start = 0
	}
	window := lowerSource[start:idx]

	m := numberBeforePattern.FindStringSubmatch(strings.TrimSpace(window))
	if m == nil {
		return 0, false
	}
	return parseNumber(m[1])
}

func parseNumber(s string) (float64, bool) {
	if strings.Contains(s, "/") {
		parts := strings.Split(s, "/")
		if len(parts) == 2 {
			num, err1 := strconv.ParseFloat(parts[0], 64)
			den, err2 := strconv.ParseFloat(parts[1], 64)
			if err1 == nil && err2 == nil && den != 0 {
				return num / den, true
			}
		}
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// wordIndex 以單詞邊界尋找別名位置；找不到回傳 -1
func wordIndex(lowerSource, alias string) int {
	idx := 0
	for {
		i := strings.Index(lowerSource[idx:], alias)
		if i < 0 {
			return -1
		}
		abs := idx + i
		beforeOK := abs == 0 || !isWordChar(lowerSource[abs-1])
		end := abs + len(alias)
		afterOK := end >= len(lowerSource) || !isWordChar(lowerSource[end]) || lowerSource[end] == 's'
		if beforeOK && afterOK {
			return abs
		}
		idx = abs + 1
	}
}

func isWordChar(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}

// snippet 擷取提及位置前後的來源片段
func snippet(sourceText string, idx, length int) string {
	start := idx - 30
	if start < 0 {
		start = 0
	}
	end := idx + length + 30
	if end > len(sourceText) {
		end = len(sourceText)
	}
	s := strings.TrimSpace(sourceText[start:end])
	return strings.Join(strings.Fields(s), " ")
}

// significantTokens 過濾短字詞與修飾詞
func significantTokens(normalized string) []string {
	var tokens []string
	for _, token := range strings.Fields(normalized) {
		if len(token) <= 2 {
			continue
		}
		switch token {
		case "fresh", "large", "small", "medium", "chopped", "diced", "minced", "sliced", "ground", "the", "and":
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens
}

func longestToken(name string) string {
	best := ""
	for _, token := range significantTokens(nutrition.NormalizeName(name)) {
		if len(token) > len(best) {
			best = token
		}
	}
	return best
}

// cloneRecipe 深拷貝：驗證不得修改呼叫端的食譜
func cloneRecipe(r *common.Recipe) *common.Recipe {
	clone := *r
	clone.Ingredients = make([]common.Ingredient, len(r.Ingredients))
	copy(clone.Ingredients, r.Ingredients)
	clone.Instructions = append([]string{}, r.Instructions...)
	if r.Tags != nil {
		clone.Tags = append([]string{}, r.Tags...)
	}
	if r.Servings != nil {
		s := *r.Servings
		clone.Servings = &s
	}
	if r.PrepTimeMinutes != nil {
		p := *r.PrepTimeMinutes
		clone.PrepTimeMinutes = &p
	}
	if r.CookTimeMinutes != nil {
		c := *r.CookTimeMinutes
		clone.CookTimeMinutes = &c
	}
	for i := range clone.Ingredients {
		if clone.Ingredients[i].Quantity != nil {
			q := *clone.Ingredients[i].Quantity
			clone.Ingredients[i].Quantity = &q
		}
	}
	return &clone
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
