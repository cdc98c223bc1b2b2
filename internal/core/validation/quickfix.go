package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"recipe-pipeline/internal/pkg/common"
)

// Generator 快速修正產生器
// 每個動作自帶套用所需的全部資料，互不依賴，套用順序不影響結果。
// 只有語意明確的修正才標記 auto_fix；任何涉及猜測的都留給使用者確認。
type Generator struct {
	config Config
}

// NewGenerator 創建快速修正產生器
func NewGenerator(cfg Config) *Generator {
	return &Generator{config: cfg}
}

var (
	servesPattern   = regexp.MustCompile(`(?i)(?:serves?|servings?|makes|yields?)\s*:?\s*(\d{1,3})\b`)
	timePattern     = regexp.MustCompile(`(?i)(prep|cook|bake|total)(?:ing|ation)?\s*time\s*:?\s*(\d{1,3})\s*(?:min(?:ute)?s?|hrs?|hours?)`)
	trailingConnect = regexp.MustCompile(`(?i)(?:\b(?:and|or|then|until|while|with|to|the|a|an|in|on|for)|,)$`)
)

// Generate 從驗證結果產生修正動作
// 動作清單由結果決定性導出；只有 ID 每次不同。
func (g *Generator) Generate(report *Report, sourceText string) []common.QuickFixAction {
	var actions []common.QuickFixAction
	lowerSource := strings.ToLower(sourceText)

	// 遺漏食材 → 加入建議（需使用者確認）
	for _, cand := range report.Missing {
		data := map[string]any{
			"name":    cand.Name,
			"context": cand.Context,
			"line": common.FormatIngredientLine(common.Ingredient{
				Name:     cand.Name,
				Quantity: cand.SuggestedQuantity,
				Unit:     cand.SuggestedUnit,
			}),
		}
		if cand.SuggestedQuantity != nil {
			data["quantity"] = *cand.SuggestedQuantity
		}
		if cand.SuggestedUnit != "" {
			data["unit"] = cand.SuggestedUnit
		}
		actions = append(actions, common.QuickFixAction{
			ID:      common.GenerateUUID(),
			Type:    common.FixAddIngredient,
			Data:    data,
			AutoFix: false,
		})
	}

	// 推測數量 → 填入建議值（推測本質上是猜，不自動套用）
	for _, inf := range report.Inferred {
		actions = append(actions, common.QuickFixAction{
			ID:   common.GenerateUUID(),
			Type: common.FixQuantity,
			Data: map[string]any{
				"ingredient": inf.IngredientName,
				"quantity":   inf.InferredQuantity,
				"unit":       inf.InferredUnit,
				"reasoning":  inf.Reasoning,
			},
			AutoFix: false,
		})
	}

	// 逐問題產生對應修正
	for _, issue := range report.Issues {
		name := strings.TrimPrefix(issue.Field, "ingredients.")
		switch issue.Type {
		case common.IssueInventedIngredient:
			actions = append(actions, common.QuickFixAction{
				ID:   common.GenerateUUID(),
				Type: common.FixRemoveIngredient,
				Data: map[string]any{
					"ingredient": name,
					"reason":     issue.Description,
				},
				AutoFix: false,
			})
		case common.IssueQuantityMismatch:
			if qty, ok := quantityNearMention(name, lowerSource); ok {
				actions = append(actions, common.QuickFixAction{
					ID:   common.GenerateUUID(),
					Type: common.FixQuantity,
					Data: map[string]any{
						"ingredient": name,
						"quantity":   qty,
						"reasoning":  "quantity mentioned near the ingredient in the source",
					},
					// 來源明講的數字，套用無歧義
					AutoFix: true,
				})
			}
		}
	}

	// 來源有明講但食譜漏掉的欄位
	actions = append(actions, g.metadataFixes(report.Recipe, sourceText)...)

	// 來源標注 optional 但食譜沒標的食材
	for _, ing := range report.Recipe.Ingredients {
		if ing.Optional {
			continue
		}
		if mentionedAsOptional(ing.Name, lowerSource) {
			actions = append(actions, common.QuickFixAction{
				ID:   common.GenerateUUID(),
				Type: common.FixMarkOptional,
				Data: map[string]any{
					"ingredient": ing.Name,
				},
				AutoFix: true,
			})
		}
	}

	return actions
}

// GenerateExtractionErrorFixes 針對擷取瑕疵產生修正
// 涵蓋驗證器不看的結構性問題：份數缺失與疑似截斷的步驟。
func (g *Generator) GenerateExtractionErrorFixes(recipe *common.Recipe, sourceText string) []common.QuickFixAction {
	var actions []common.QuickFixAction

	if recipe.Servings == nil || *recipe.Servings == 0 {
		data := map[string]any{}
		autoFix := false
		if m := servesPattern.FindStringSubmatch(sourceText); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
				data["servings"] = n
				// 來源明講份數，直接補上
				autoFix = true
			}
		}
		if _, ok := data["servings"]; !ok {
			data["servings"] = 4
			data["reasoning"] = "no serving count in the source, common default"
		}
		actions = append(actions, common.QuickFixAction{
			ID:      common.GenerateUUID(),
			Type:    common.FixServings,
			Data:    data,
			AutoFix: autoFix,
		})
	}

	for i, step := range recipe.Instructions {
		if reason, truncated := truncationReason(step); truncated {
			actions = append(actions, common.QuickFixAction{
				ID:   common.GenerateUUID(),
				Type: common.FixInstruction,
				Data: map[string]any{
					"step_index": i,
					"step":       step,
					"reason":     reason,
				},
				AutoFix: false,
			})
		}
	}

	return actions
}

// metadataFixes 份數與時間欄位的補齊
func (g *Generator) metadataFixes(recipe *common.Recipe, sourceText string) []common.QuickFixAction {
	var actions []common.QuickFixAction

	if recipe.Servings == nil {
		if m := servesPattern.FindStringSubmatch(sourceText); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
				actions = append(actions, common.QuickFixAction{
					ID:   common.GenerateUUID(),
					Type: common.FixServings,
					Data: map[string]any{
						"servings": n,
					},
					AutoFix: true,
				})
			}
		}
	}

	needTime := recipe.PrepTimeMinutes == nil || recipe.CookTimeMinutes == nil
	if needTime {
		for _, m := range timePattern.FindAllStringSubmatch(sourceText, -1) {
			kind := strings.ToLower(m[1])
			minutes, err := strconv.Atoi(m[2])
			if err != nil || minutes <= 0 {
				continue
			}
			if kind == "prep" && recipe.PrepTimeMinutes != nil {
				continue
			}
			if kind != "prep" && recipe.CookTimeMinutes != nil {
				continue
			}
			actions = append(actions, common.QuickFixAction{
				ID:   common.GenerateUUID(),
				Type: common.FixAddTime,
				Data: map[string]any{
					"kind":    kind,
					"minutes": minutes,
				},
				AutoFix: true,
			})
		}
	}

	return actions
}

// mentionedAsOptional 來源在食材提及附近是否出現 optional 字樣
func mentionedAsOptional(name, lowerSource string) bool {
	token := longestToken(name)
	if token == "" {
		return false
	}
	idx := strings.Index(lowerSource, token)
	if idx < 0 {
		return false
	}
	end := idx + len(token) + 40
	if end > len(lowerSource) {
		end = len(lowerSource)
	}
	start := idx - 20
	if start < 0 {
		start = 0
	}
	return strings.Contains(lowerSource[start:end], "optional")
}

// truncationReason 判斷步驟是否疑似被截斷
func truncationReason(step string) (string, bool) {
	trimmed := strings.TrimSpace(step)
	if trimmed == "" {
		return "empty step", true
	}
	if len(strings.Fields(trimmed)) < 3 {
		return fmt.Sprintf("step %q looks like a fragment", trimmed), true
	}
	if trailingConnect.MatchString(trimmed) {
		return fmt.Sprintf("step %q ends mid-sentence", trimmed), true
	}
	switch trimmed[len(trimmed)-1] {
	case '.', '!', '?', ')', '"', '\'':
		return "", false
	}
	// 沒有結尾標點本身不算截斷，食譜步驟常省略句號
	return "", false
}
