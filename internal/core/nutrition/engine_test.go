package nutrition

import (
	"testing"

	"recipe-pipeline/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEngine() *Engine {
	return NewEngine(NewTable(defaultNutrients()), NewSynonymTable(defaultSynonyms()), nil)
}

func TestComputeNutritionSingleBanana(t *testing.T) {
	engine := testEngine()

	// 一根香蕉（120 克）：89 * 1.2 = 106.8 → 107
	result := engine.ComputeNutrition([]common.Ingredient{
		{Name: "banana", Quantity: common.FloatPtr(1), Unit: "", Confidence: 0.9},
	}, 1, nil)

	require.Len(t, result.IngredientBreakdown, 1)
	entry := result.IngredientBreakdown[0]
	assert.True(t, entry.Matched)
	assert.Equal(t, "banana", entry.CanonicalName)
	assert.InDelta(t, 120.0, entry.Grams, 0.001)
	assert.InDelta(t, 107.0, entry.Calories, 0.001)
	assert.InDelta(t, 107.0, result.Total.Calories, 0.001)
	assert.InDelta(t, 107.0, result.PerServing.Calories, 0.001)
}

func TestComputeNutritionSkipsOptional(t *testing.T) {
	engine := testEngine()

	result := engine.ComputeNutrition([]common.Ingredient{
		{Name: "flour", Quantity: common.FloatPtr(2), Unit: "cup", Confidence: 0.9},
		{Name: "honey", Quantity: common.FloatPtr(1), Unit: "tbsp", Optional: true, Confidence: 0.9},
	}, 1, nil)

	require.Len(t, result.IngredientBreakdown, 1)
	assert.Equal(t, "flour", result.IngredientBreakdown[0].CanonicalName)
	// 2 cup = 480 g → 364 * 4.8 = 1747.2 → 1747
	assert.InDelta(t, 1747.0, result.Total.Calories, 0.001)
}

func TestComputeNutritionUnmatchedIsZeroEntry(t *testing.T) {
	engine := testEngine()

	result := engine.ComputeNutrition([]common.Ingredient{
		{Name: "xyzzy essence", Quantity: common.FloatPtr(1), Unit: "tbsp", Confidence: 0.9},
	}, 2, nil)

	require.Len(t, result.IngredientBreakdown, 1)
	entry := result.IngredientBreakdown[0]
	assert.False(t, entry.Matched)
	assert.Equal(t, "xyzzy_essence", entry.CanonicalName)
	assert.Zero(t, entry.Calories)
	assert.Zero(t, result.Total.Calories)
	assert.Zero(t, result.PerServing.Calories)
}

func TestComputeNutritionPerServing(t *testing.T) {
	engine := testEngine()

	ingredients := []common.Ingredient{
		{Name: "rice", Quantity: common.FloatPtr(200), Unit: "g", Confidence: 0.9},
	}

	t.Run("divides by servings", func(t *testing.T) {
		result := engine.ComputeNutrition(ingredients, 4, nil)
		assert.InDelta(t, 260.0, result.Total.Calories, 0.001)
		assert.InDelta(t, 65.0, result.PerServing.Calories, 0.001)
	})

	t.Run("zero servings treated as one", func(t *testing.T) {
		result := engine.ComputeNutrition(ingredients, 0, nil)
		assert.InDelta(t, result.Total.Calories, result.PerServing.Calories, 0.001)
	})
}

func TestComputeNutritionMissingQuantityDefaultsToOne(t *testing.T) {
	engine := testEngine()

	result := engine.ComputeNutrition([]common.Ingredient{
		{Name: "egg", Unit: "", Confidence: 0.6},
	}, 1, nil)

	require.Len(t, result.IngredientBreakdown, 1)
	// 一顆蛋 50 克 → 155 * 0.5 = 77.5 → 78
	assert.InDelta(t, 50.0, result.IngredientBreakdown[0].Grams, 0.001)
	assert.InDelta(t, 78.0, result.IngredientBreakdown[0].Calories, 0.001)
}

func TestComputeNutritionUsesHints(t *testing.T) {
	engine := testEngine()

	hints := HintMap{"plantain": "banana"}
	result := engine.ComputeNutrition([]common.Ingredient{
		{Name: "plantain", Quantity: common.FloatPtr(100), Unit: "g", Confidence: 0.9},
	}, 1, hints)

	require.Len(t, result.IngredientBreakdown, 1)
	assert.True(t, result.IngredientBreakdown[0].Matched)
	assert.Equal(t, "banana", result.IngredientBreakdown[0].CanonicalName)
	assert.InDelta(t, 89.0, result.Total.Calories, 0.001)
}

func TestComputeNutritionDeterministic(t *testing.T) {
	engine := testEngine()
	ingredients := []common.Ingredient{
		{Name: "flour", Quantity: common.FloatPtr(2), Unit: "cup", Confidence: 0.9},
		{Name: "milk", Quantity: common.FloatPtr(1.5), Unit: "cup", Confidence: 0.9},
		{Name: "eggs", Quantity: common.FloatPtr(3), Unit: "", Confidence: 0.9},
	}

	first := engine.ComputeNutrition(ingredients, 4, nil)
	second := engine.ComputeNutrition(ingredients, 4, nil)
	assert.Equal(t, first, second)
}
