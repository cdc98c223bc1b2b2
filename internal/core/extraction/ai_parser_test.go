package extraction

import (
	"testing"

	"recipe-pipeline/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAIParserUnavailableWithoutService(t *testing.T) {
	p := NewAIParser(nil)
	assert.False(t, p.Available())
}

func TestAIParserToRecipe(t *testing.T) {
	p := NewAIParser(nil)

	t.Run("backfills confidence", func(t *testing.T) {
		payload := aiRecipePayload{
			Title: "Fried Rice",
			Ingredients: []struct {
				Name     string   `json:"name"`
				Quantity *float64 `json:"quantity"`
				Unit     string   `json:"unit"`
				Optional bool     `json:"optional"`
			}{
				{Name: "rice", Quantity: common.FloatPtr(2), Unit: "cup"},
				{Name: "soy sauce"},
			},
			Instructions: []string{"Fry the rice.", "  "},
		}

		recipe := p.toRecipe(payload)

		require.Len(t, recipe.Ingredients, 2)
		assert.InDelta(t, 0.85, recipe.Ingredients[0].Confidence, 0.001)
		// 缺數量的食材信心值較低
		assert.InDelta(t, 0.6, recipe.Ingredients[1].Confidence, 0.001)
		// 空白步驟被丟棄
		assert.Len(t, recipe.Instructions, 1)
		assert.InDelta(t, 0.85, recipe.Confidence, 0.001)
	})

	t.Run("keeps model confidence when valid", func(t *testing.T) {
		recipe := p.toRecipe(aiRecipePayload{Title: "Dish", Confidence: common.FloatPtr(0.7)})
		assert.InDelta(t, 0.7, recipe.Confidence, 0.001)
	})

	t.Run("rejects out-of-range confidence", func(t *testing.T) {
		recipe := p.toRecipe(aiRecipePayload{Title: "Dish", Confidence: common.FloatPtr(3)})
		assert.InDelta(t, 0.85, recipe.Confidence, 0.001)
	})

	t.Run("drops nameless ingredients and zero servings", func(t *testing.T) {
		zero := 0
		payload := aiRecipePayload{
			Title:    "Dish",
			Servings: &zero,
			Ingredients: []struct {
				Name     string   `json:"name"`
				Quantity *float64 `json:"quantity"`
				Unit     string   `json:"unit"`
				Optional bool     `json:"optional"`
			}{
				{Name: "   "},
			},
		}

		recipe := p.toRecipe(payload)

		assert.Empty(t, recipe.Ingredients)
		assert.Nil(t, recipe.Servings)
	})
}
