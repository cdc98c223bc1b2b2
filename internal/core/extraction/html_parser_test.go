package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jsonldPage = `<!DOCTYPE html>
<html><head>
<script type="application/ld+json">
{
  "@context": "https://schema.org",
  "@graph": [
    {"@type": "WebSite", "name": "Some Food Blog"},
    {
      "@type": "Recipe",
      "name": "Lemon Pasta",
      "description": "Bright and quick weeknight pasta.",
      "image": ["https://example.com/lemon-pasta.jpg"],
      "recipeIngredient": ["200 g pasta", "1 lemon", "2 tbsp olive oil"],
      "recipeInstructions": [
        {"@type": "HowToStep", "text": "Boil the pasta."},
        {"@type": "HowToStep", "text": "Toss with lemon and oil."}
      ],
      "prepTime": "PT10M",
      "cookTime": "PT1H30M",
      "recipeYield": "2 servings",
      "keywords": "pasta, quick"
    }
  ]
}
</script>
</head><body><p>scroll past fifteen ads</p></body></html>`

func TestHTMLParserJSONLD(t *testing.T) {
	parser := NewHTMLParser()

	recipe, method, _ := parser.Parse(jsonldPage)

	assert.Equal(t, "structured data (json-ld)", method)
	assert.Equal(t, "Lemon Pasta", recipe.Title)
	assert.Equal(t, "https://example.com/lemon-pasta.jpg", recipe.ImageRef)
	require.Len(t, recipe.Ingredients, 3)
	assert.Equal(t, "pasta", recipe.Ingredients[0].Name)
	// 結構化欄位的食材信心值下限
	assert.GreaterOrEqual(t, recipe.Ingredients[0].Confidence, 0.85)
	require.Len(t, recipe.Instructions, 2)
	assert.Equal(t, "Boil the pasta.", recipe.Instructions[0])
	require.NotNil(t, recipe.PrepTimeMinutes)
	assert.Equal(t, 10, *recipe.PrepTimeMinutes)
	require.NotNil(t, recipe.CookTimeMinutes)
	assert.Equal(t, 90, *recipe.CookTimeMinutes)
	require.NotNil(t, recipe.Servings)
	assert.Equal(t, 2, *recipe.Servings)
	assert.Equal(t, []string{"pasta", "quick"}, recipe.Tags)
	assert.InDelta(t, 0.9, recipe.Confidence, 0.001)
}

func TestHTMLParserMicrodata(t *testing.T) {
	parser := NewHTMLParser()

	page := `<html><body>
<div itemscope itemtype="https://schema.org/Recipe">
  <h1 itemprop="name">Tomato Soup</h1>
  <span itemprop="recipeYield">4</span>
  <li itemprop="recipeIngredient">4 tomatoes</li>
  <li itemprop="recipeIngredient">1 onion</li>
  <div itemprop="recipeInstructions">Simmer everything for 20 minutes.</div>
</div>
</body></html>`

	recipe, method, _ := parser.Parse(page)

	assert.Equal(t, "structured data (microdata)", method)
	assert.Equal(t, "Tomato Soup", recipe.Title)
	require.Len(t, recipe.Ingredients, 2)
	assert.Equal(t, "tomatoes", recipe.Ingredients[0].Name)
	assert.GreaterOrEqual(t, recipe.Ingredients[0].Confidence, 0.75)
	require.NotNil(t, recipe.Servings)
	assert.Equal(t, 4, *recipe.Servings)
	require.Len(t, recipe.Instructions, 1)
	assert.InDelta(t, 0.75, recipe.Confidence, 0.001)
}

func TestHTMLParserTextFallback(t *testing.T) {
	parser := NewHTMLParser()

	page := `<html><head><style>body { color: red; }</style></head><body>
<h1>Quick Omelette</h1>
<p>3 eggs</p>
<p>Whisk the eggs and fry in a hot pan until set.</p>
</body></html>`

	recipe, method, notes := parser.Parse(page)

	assert.Equal(t, "text fallback (stripped html)", method)
	assert.Equal(t, "Quick Omelette", recipe.Title)
	require.Len(t, recipe.Ingredients, 1)
	assert.Contains(t, notes, "no structured data found")
	// 非結構化來源的信心值封頂
	assert.LessOrEqual(t, recipe.Confidence, 0.5)
}

func TestHTMLParserEmptyJSONLDFallsThrough(t *testing.T) {
	parser := NewHTMLParser()

	// JSON-LD 存在但不是 Recipe，不應短路後面的階段
	page := `<html><head>
<script type="application/ld+json">{"@type": "Organization", "name": "Acme"}</script>
</head><body>
<div itemscope itemtype="https://schema.org/Recipe">
  <h1 itemprop="name">Fallback Dish</h1>
  <li itemprop="recipeIngredient">1 cup rice</li>
</div>
</body></html>`

	recipe, method, _ := parser.Parse(page)

	assert.Equal(t, "structured data (microdata)", method)
	assert.Equal(t, "Fallback Dish", recipe.Title)
}

func TestVisibleTextStripsScripts(t *testing.T) {
	parser := NewHTMLParser()

	text := parser.VisibleText(`<html><head><script>var x = 1;</script></head><body><p>Hello</p><p>World</p></body></html>`)

	assert.NotContains(t, text, "var x")
	assert.Contains(t, text, "Hello")
	assert.Contains(t, text, "World")
}

func TestParseISODuration(t *testing.T) {
	tests := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{"PT10M", 10, true},
		{"PT1H", 60, true},
		{"PT1H30M", 90, true},
		{"PT0M", 0, false},
		{"", 0, false},
		{"1 hour", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseISODuration(tt.in)
		assert.Equal(t, tt.wantOK, ok, tt.in)
		if tt.wantOK {
			assert.Equal(t, tt.want, got, tt.in)
		}
	}
}
