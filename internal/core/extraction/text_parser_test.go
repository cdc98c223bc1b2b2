package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIngredientLine(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		wantName string
		wantQty  *float64
		wantUnit string
		wantOpt  bool
		wantConf float64
	}{
		{"quantity unit name", "2 cups flour", "flour", f(2), "cup", false, 0.8},
		{"of connector", "2 cups of flour", "flour", f(2), "cup", false, 0.8},
		{"mixed fraction", "1 1/2 cups milk", "milk", f(1.5), "cup", false, 0.8},
		{"plain fraction", "1/4 tsp salt", "salt", f(0.25), "tsp", false, 0.8},
		{"unicode fraction", "½ cup sugar", "sugar", f(0.5), "cup", false, 0.8},
		{"count only", "3 eggs", "eggs", f(3), "", false, 0.6},
		{"no quantity", "salt to taste", "salt to taste", nil, "", false, 0.5},
		{"optional suffix", "1 tbsp honey (optional)", "honey", f(1), "tbsp", true, 0.8},
		{"optional comma", "chili flakes, optional", "chili flakes", nil, "", true, 0.5},
		{"plural unit normalized", "200 grams rice", "rice", f(200), "g", false, 0.8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ing, ok := ParseIngredientLine(tt.line)
			require.True(t, ok)
			assert.Equal(t, tt.wantName, ing.Name)
			if tt.wantQty == nil {
				assert.Nil(t, ing.Quantity)
			} else {
				require.NotNil(t, ing.Quantity)
				assert.InDelta(t, *tt.wantQty, *ing.Quantity, 0.001)
			}
			assert.Equal(t, tt.wantUnit, ing.Unit)
			assert.Equal(t, tt.wantOpt, ing.Optional)
			assert.InDelta(t, tt.wantConf, ing.Confidence, 0.001)
		})
	}

	t.Run("empty line rejected", func(t *testing.T) {
		_, ok := ParseIngredientLine("   ")
		assert.False(t, ok)
	})

	t.Run("bare quantity rejected", func(t *testing.T) {
		_, ok := ParseIngredientLine("2")
		assert.False(t, ok)
	})
}

func TestTextParserFreeform(t *testing.T) {
	parser := NewTextParser()

	text := "Classic Pancakes\nServes 4\n2 cups flour\n3 eggs\n1 1/2 cups milk\nMix everything and cook on a hot griddle until golden."

	recipe, notes := parser.Parse(text)

	assert.Equal(t, "Classic Pancakes", recipe.Title)
	require.NotNil(t, recipe.Servings)
	assert.Equal(t, 4, *recipe.Servings)
	require.Len(t, recipe.Ingredients, 3)
	assert.Equal(t, "flour", recipe.Ingredients[0].Name)
	assert.Equal(t, "eggs", recipe.Ingredients[1].Name)
	assert.Equal(t, "milk", recipe.Ingredients[2].Name)
	require.Len(t, recipe.Instructions, 1)
	assert.Contains(t, recipe.Instructions[0], "griddle")
	// 標題+食材+步驟+份數+全數量 → 封頂 0.85
	assert.InDelta(t, 0.85, recipe.Confidence, 0.001)
	assert.Contains(t, notes, "heuristic text parse")
}

func TestTextParserSections(t *testing.T) {
	parser := NewTextParser()

	text := `Banana Bread
Prep time: 10 minutes
Cook time: 45 minutes
Makes 8

Ingredients:
- 2 cups flour
- 3 bananas
- 1/2 cup sugar

Instructions:
1. Mash the bananas.
2. Mix everything together.
3. Bake until done.`

	recipe, _ := parser.Parse(text)

	assert.Equal(t, "Banana Bread", recipe.Title)
	require.NotNil(t, recipe.Servings)
	assert.Equal(t, 8, *recipe.Servings)
	require.NotNil(t, recipe.PrepTimeMinutes)
	assert.Equal(t, 10, *recipe.PrepTimeMinutes)
	require.NotNil(t, recipe.CookTimeMinutes)
	assert.Equal(t, 45, *recipe.CookTimeMinutes)
	require.Len(t, recipe.Ingredients, 3)
	assert.Equal(t, "bananas", recipe.Ingredients[1].Name)
	assert.Len(t, recipe.Instructions, 3)
}

func TestTextParserSentenceSplit(t *testing.T) {
	parser := NewTextParser()

	// 單行文字依句切分
	recipe, _ := parser.Parse("Simple Omelette. 3 eggs. Whisk the eggs and fry in a hot pan.")

	assert.Equal(t, "Simple Omelette", recipe.Title)
	require.Len(t, recipe.Ingredients, 1)
	assert.Equal(t, "eggs", recipe.Ingredients[0].Name)
	require.Len(t, recipe.Instructions, 1)
}

func TestTextParserEmptyInput(t *testing.T) {
	parser := NewTextParser()

	recipe, notes := parser.Parse("   ")

	assert.True(t, recipe.IsEmpty())
	assert.Contains(t, notes, "empty source text")
}

func TestTextParserPartialResult(t *testing.T) {
	parser := NewTextParser()

	// 只有標題也是有效的部分結果，缺口交給下游
	recipe, _ := parser.Parse("Mystery Dish")

	assert.Equal(t, "Mystery Dish", recipe.Title)
	assert.Empty(t, recipe.Ingredients)
	assert.Less(t, recipe.Confidence, 0.5)
}

func f(v float64) *float64 { return &v }
