package nutrition

import (
	"context"
	"math"
	"time"

	aiservice "recipe-pipeline/internal/core/ai/service"
	"recipe-pipeline/internal/pkg/common"

	"go.uber.org/zap"
)

// Engine 營養計算引擎
// 純計算：相同輸入與參照表必得相同輸出，無 I/O、無隨機性。
type Engine struct {
	table     *Table
	synonyms  *SynonymTable
	aiService *aiservice.Service // 可為 nil；僅用於批次名稱正規化
}

// NewEngine 創建營養計算引擎
func NewEngine(table *Table, synonyms *SynonymTable, aiService *aiservice.Service) *Engine {
	return &Engine{
		table:     table,
		synonyms:  synonyms,
		aiService: aiService,
	}
}

// BuildHintMap 批次 AI 名稱正規化
// 整批非 optional 食材一次請求；失敗退化為空提示表（不中止擷取）。
func (e *Engine) BuildHintMap(ctx context.Context, ingredients []common.Ingredient) HintMap {
	if e.aiService == nil || !e.aiService.Available() {
		return HintMap{}
	}

	var names []string
	for _, ing := range ingredients {
		if ing.Optional {
			continue
		}
		names = append(names, ing.Name)
	}
	if len(names) == 0 {
		return HintMap{}
	}

	start := time.Now()
	resp, err := e.aiService.ProcessRequest(ctx, BuildHintPrompt(names), "")
	if err != nil {
		common.LogWarn("批次名稱正規化失敗，退化為空提示表",
			zap.Error(err),
			zap.Duration("耗時", time.Since(start)),
		)
		return HintMap{}
	}

	hints := ParseHintResponse(resp.Content, names)
	common.LogDebug("批次名稱正規化完成",
		zap.Int("輸入數", len(names)),
		zap.Int("命中數", len(hints)),
	)
	return hints
}

// ComputeNutrition 計算食譜營養
// 每個食材：標準化 → 查表 → 換算克數 → 依 克數/100 縮放。
// 查無紀錄的食材記為零貢獻（matched=false），不會中止整體計算。
func (e *Engine) ComputeNutrition(ingredients []common.Ingredient, servings int, hints HintMap) *common.NutritionResult {
	result := &common.NutritionResult{
		IngredientBreakdown: make([]common.IngredientNutrition, 0, len(ingredients)),
	}

	for _, ing := range ingredients {
		if ing.Optional {
			continue
		}

		canonical := Canonicalize(ing.Name, hints, e.synonyms)

		rec, ok := e.table.Lookup(canonical)
		if !ok {
			result.IngredientBreakdown = append(result.IngredientBreakdown, common.IngredientNutrition{
				Name:          ing.Name,
				CanonicalName: canonical,
				Matched:       false,
			})
			continue
		}

		quantity := 1.0
		if ing.Quantity != nil {
			quantity = *ing.Quantity
		}
		grams := ToGrams(quantity, ing.Unit, ing.Name)
		scale := grams / 100

		entry := common.IngredientNutrition{
			Name:          ing.Name,
			CanonicalName: canonical,
			Grams:         round1(grams),
			Calories:      math.Round(rec.Calories * scale),
			Protein:       round1(rec.Protein * scale),
			Carbs:         round1(rec.Carbs * scale),
			Fats:          round1(rec.Fats * scale),
			Fiber:         round1(rec.Fiber * scale),
			Matched:       true,
		}
		result.IngredientBreakdown = append(result.IngredientBreakdown, entry)

		result.Total.Calories += entry.Calories
		result.Total.Protein += entry.Protein
		result.Total.Carbs += entry.Carbs
		result.Total.Fats += entry.Fats
		result.Total.Fiber += entry.Fiber
	}

	result.Total = roundFacts(result.Total)

	// 每份 = 總量 / 份數（至少 1，避免除以零）
	if servings < 1 {
		servings = 1
	}
	n := float64(servings)
	result.PerServing = roundFacts(common.NutritionFacts{
		Calories: result.Total.Calories / n,
		Protein:  result.Total.Protein / n,
		Carbs:    result.Total.Carbs / n,
		Fats:     result.Total.Fats / n,
		Fiber:    result.Total.Fiber / n,
	})

	return result
}

// round1 四捨五入至一位小數
func round1(f float64) float64 {
	return math.Round(f*10) / 10
}

// roundFacts 熱量取整數，巨量營養素取一位小數
func roundFacts(f common.NutritionFacts) common.NutritionFacts {
	return common.NutritionFacts{
		Calories: math.Round(f.Calories),
		Protein:  round1(f.Protein),
		Carbs:    round1(f.Carbs),
		Fats:     round1(f.Fats),
		Fiber:    round1(f.Fiber),
	}
}
