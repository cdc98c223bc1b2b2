package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSON(t *testing.T) {
	type payload struct {
		Name  string  `json:"name"`
		Count float64 `json:"count"`
	}

	t.Run("parses valid json", func(t *testing.T) {
		var p payload
		require.NoError(t, ParseJSON(`{"name": "flour", "count": 2}`, &p))
		assert.Equal(t, "flour", p.Name)
		assert.InDelta(t, 2.0, p.Count, 0.001)
	})

	t.Run("rejects trailing data", func(t *testing.T) {
		var p payload
		assert.Error(t, ParseJSON(`{"name": "flour"} extra`, &p))
	})

	t.Run("strict mode rejects unknown fields", func(t *testing.T) {
		var p payload
		assert.Error(t, ParseJSONStrict(`{"name": "flour", "bogus": 1}`, &p))
		assert.NoError(t, ParseJSON(`{"name": "flour", "bogus": 1}`, &p))
	})
}

func TestQuoteJSONKeys(t *testing.T) {
	// AI 偶爾回傳未加引號的鍵
	fixed := QuoteJSONKeys(`{title: "Pancakes", servings: 4}`)
	assert.Equal(t, `{"title": "Pancakes", "servings": 4}`, fixed)

	var p struct {
		Title    string `json:"title"`
		Servings int    `json:"servings"`
	}
	require.NoError(t, ParseJSON(fixed, &p))
	assert.Equal(t, "Pancakes", p.Title)
	assert.Equal(t, 4, p.Servings)
}

func TestFormatIngredientLine(t *testing.T) {
	assert.Equal(t, "2 cup flour", FormatIngredientLine(Ingredient{Name: "flour", Quantity: FloatPtr(2), Unit: "cup"}))
	assert.Equal(t, "3 eggs", FormatIngredientLine(Ingredient{Name: "eggs", Quantity: FloatPtr(3)}))
	assert.Equal(t, "salt", FormatIngredientLine(Ingredient{Name: "salt"}))
	assert.Equal(t, "1 tbsp honey (optional)", FormatIngredientLine(Ingredient{Name: "honey", Quantity: FloatPtr(1), Unit: "tbsp", Optional: true}))
}

func TestTrimFloat(t *testing.T) {
	assert.Equal(t, "2", TrimFloat(2.0))
	assert.Equal(t, "1.5", TrimFloat(1.5))
	assert.Equal(t, "0.25", TrimFloat(0.25))
	assert.Equal(t, "0.33", TrimFloat(1.0/3))
}

func TestRecipeIsEmpty(t *testing.T) {
	assert.True(t, (&Recipe{}).IsEmpty())
	assert.True(t, (&Recipe{Title: "  "}).IsEmpty())
	assert.False(t, (&Recipe{Title: "Soup"}).IsEmpty())
	assert.False(t, (&Recipe{Ingredients: []Ingredient{{Name: "salt"}}}).IsEmpty())
	assert.False(t, (&Recipe{Instructions: []string{"stir"}}).IsEmpty())
}
