package extraction

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"recipe-pipeline/internal/pkg/common"

	"golang.org/x/net/html"
)

// HTMLParser 網頁結構化資料解析器
// 依序嘗試：JSON-LD (schema.org/Recipe) → microdata → 去標籤後走文字解析。
type HTMLParser struct {
	textParser *TextParser
}

// NewHTMLParser 創建網頁解析器
func NewHTMLParser() *HTMLParser {
	return &HTMLParser{textParser: NewTextParser()}
}

// Parse 解析 HTML，回傳候選食譜、使用的技術與備註
func (p *HTMLParser) Parse(htmlText string) (*common.Recipe, string, []string) {
	root, err := html.Parse(strings.NewReader(htmlText))
	if err != nil {
		// 無法解析 DOM 時退回純文字
		recipe, notes := p.textParser.Parse(htmlText)
		return recipe, "text fallback (unparseable html)", notes
	}

	// 第一階段：JSON-LD
	for _, block := range collectJSONLD(root) {
		if recipe, ok := parseJSONLDRecipe(block); ok {
			recipe.Confidence = 0.9
			return recipe, "structured data (json-ld)", []string{"schema.org/Recipe json-ld block"}
		}
	}

	// 第二階段：microdata
	if recipe, ok := parseMicrodata(root); ok {
		recipe.Confidence = 0.75
		return recipe, "structured data (microdata)", []string{"schema.org/Recipe microdata"}
	}

	// 第三階段：去標籤 → 文字解析
	text := extractVisibleText(root)
	recipe, notes := p.textParser.Parse(text)
	if recipe.Confidence > 0.5 {
		recipe.Confidence = 0.5
	}
	return recipe, "text fallback (stripped html)", append(notes, "no structured data found")
}

// VisibleText 去除標籤後的可見文字（供驗證器比對來源）
func (p *HTMLParser) VisibleText(htmlText string) string {
	root, err := html.Parse(strings.NewReader(htmlText))
	if err != nil {
		return htmlText
	}
	return extractVisibleText(root)
}

// collectJSONLD 收集所有 <script type="application/ld+json"> 區塊
func collectJSONLD(root *html.Node) []string {
	var blocks []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "script" {
			for _, attr := range n.Attr {
				if attr.Key == "type" && strings.EqualFold(attr.Val, "application/ld+json") {
					if n.FirstChild != nil {
						blocks = append(blocks, n.FirstChild.Data)
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return blocks
}

// jsonldRecipe schema.org/Recipe 的鬆散映射
type jsonldRecipe struct {
	Type               any    `json:"@type"`
	Name               string `json:"name"`
	Description        string `json:"description"`
	Image              any    `json:"image"`
	RecipeIngredient   []string `json:"recipeIngredient"`
	Ingredients        []string `json:"ingredients"` // 舊版欄位名
	RecipeInstructions any    `json:"recipeInstructions"`
	PrepTime           string `json:"prepTime"`
	CookTime           string `json:"cookTime"`
	RecipeYield        any    `json:"recipeYield"`
	Keywords           any    `json:"keywords"`
}

// parseJSONLDRecipe 在 JSON-LD 區塊中尋找 Recipe 物件
func parseJSONLDRecipe(block string) (*common.Recipe, bool) {
	block = strings.TrimSpace(block)

	var raw any
	if err := json.Unmarshal([]byte(block), &raw); err != nil {
		return nil, false
	}

	node := findRecipeNode(raw)
	if node == nil {
		return nil, false
	}

	// 轉回 JSON 再解到鬆散結構
	data, err := json.Marshal(node)
	if err != nil {
		return nil, false
	}
	var jr jsonldRecipe
	if err := json.Unmarshal(data, &jr); err != nil {
		return nil, false
	}

	recipe := &common.Recipe{
		Title:        strings.TrimSpace(jr.Name),
		Description:  strings.TrimSpace(jr.Description),
		Ingredients:  []common.Ingredient{},
		Instructions: []string{},
	}

	lines := jr.RecipeIngredient
	if len(lines) == 0 {
		lines = jr.Ingredients
	}
	for _, line := range lines {
		if ing, ok := ParseIngredientLine(line); ok {
			// 結構化欄位來源可信度較高
			if ing.Confidence < 0.85 {
				ing.Confidence = 0.85
			}
			recipe.Ingredients = append(recipe.Ingredients, ing)
		}
	}

	recipe.Instructions = flattenInstructions(jr.RecipeInstructions)
	recipe.ImageRef = firstImageRef(jr.Image)

	if mins, ok := parseISODuration(jr.PrepTime); ok {
		recipe.PrepTimeMinutes = common.IntPtr(mins)
	}
	if mins, ok := parseISODuration(jr.CookTime); ok {
		recipe.CookTimeMinutes = common.IntPtr(mins)
	}
	if n, ok := parseYield(jr.RecipeYield); ok {
		recipe.Servings = common.IntPtr(n)
	}
	recipe.Tags = parseKeywords(jr.Keywords)

	if recipe.IsEmpty() {
		return nil, false
	}
	return recipe, true
}

// findRecipeNode 在物件/陣列/@graph 中遞迴尋找 @type 含 Recipe 的節點
func findRecipeNode(raw any) map[string]any {
	switch v := raw.(type) {
	case map[string]any:
		if typeIsRecipe(v["@type"]) {
			return v
		}
		if graph, ok := v["@graph"]; ok {
			return findRecipeNode(graph)
		}
	case []any:
		for _, item := range v {
			if node := findRecipeNode(item); node != nil {
				return node
			}
		}
	}
	return nil
}

func typeIsRecipe(t any) bool {
	switch v := t.(type) {
	case string:
		return strings.EqualFold(v, "Recipe")
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && strings.EqualFold(s, "Recipe") {
				return true
			}
		}
	}
	return false
}

// flattenInstructions 展平 recipeInstructions（字串、HowToStep、HowToSection）
func flattenInstructions(raw any) []string {
	var steps []string
	var walk func(node any)
	walk = func(node any) {
		switch v := node.(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				steps = append(steps, s)
			}
		case []any:
			for _, item := range v {
				walk(item)
			}
		case map[string]any:
			if text, ok := v["text"].(string); ok && strings.TrimSpace(text) != "" {
				steps = append(steps, strings.TrimSpace(text))
				return
			}
			if items, ok := v["itemListElement"]; ok {
				walk(items)
			}
		}
	}
	walk(raw)
	return steps
}

func firstImageRef(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case []any:
		for _, item := range v {
			if ref := firstImageRef(item); ref != "" {
				return ref
			}
		}
	case map[string]any:
		if u, ok := v["url"].(string); ok {
			return u
		}
	}
	return ""
}

var isoDurationPattern = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?`)

// parseISODuration 解析 ISO8601 時長（PT1H30M → 90 分鐘）
func parseISODuration(s string) (int, bool) {
	m := isoDurationPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil || (m[1] == "" && m[2] == "") {
		return 0, false
	}
	mins := 0
	if m[1] != "" {
		h, _ := strconv.Atoi(m[1])
		mins += h * 60
	}
	if m[2] != "" {
		mm, _ := strconv.Atoi(m[2])
		mins += mm
	}
	if mins <= 0 {
		return 0, false
	}
	return mins, true
}

var yieldNumberPattern = regexp.MustCompile(`\d+`)

// parseYield recipeYield 可能是數字、"4" 或 "4 servings"
func parseYield(raw any) (int, bool) {
	switch v := raw.(type) {
	case float64:
		if v > 0 {
			return int(v), true
		}
	case string:
		if m := yieldNumberPattern.FindString(v); m != "" {
			if n, err := strconv.Atoi(m); err == nil && n > 0 {
				return n, true
			}
		}
	case []any:
		for _, item := range v {
			if n, ok := parseYield(item); ok {
				return n, true
			}
		}
	}
	return 0, false
}

func parseKeywords(raw any) []string {
	switch v := raw.(type) {
	case string:
		var tags []string
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
		return tags
	case []any:
		var tags []string
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				tags = append(tags, strings.TrimSpace(s))
			}
		}
		return tags
	}
	return nil
}

// parseMicrodata 解析 schema.org/Recipe microdata 標記
func parseMicrodata(root *html.Node) (*common.Recipe, bool) {
	scope := findMicrodataScope(root)
	if scope == nil {
		return nil, false
	}

	recipe := &common.Recipe{
		Ingredients:  []common.Ingredient{},
		Instructions: []string{},
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if prop := attrValue(n, "itemprop"); prop != "" {
				text := strings.TrimSpace(nodeText(n))
				switch prop {
				case "name":
					if recipe.Title == "" {
						recipe.Title = text
					}
				case "description":
					if recipe.Description == "" {
						recipe.Description = text
					}
				case "recipeIngredient", "ingredients":
					if ing, ok := ParseIngredientLine(text); ok {
						if ing.Confidence < 0.75 {
							ing.Confidence = 0.75
						}
						recipe.Ingredients = append(recipe.Ingredients, ing)
					}
				case "recipeInstructions":
					if text != "" {
						recipe.Instructions = append(recipe.Instructions, text)
					}
				case "recipeYield":
					if n, ok := parseYield(text); ok && recipe.Servings == nil {
						recipe.Servings = common.IntPtr(n)
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(scope)

	if recipe.IsEmpty() {
		return nil, false
	}
	return recipe, true
}

func findMicrodataScope(root *html.Node) *html.Node {
	var found *html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode {
			itemType := attrValue(n, "itemtype")
			if strings.Contains(itemType, "schema.org/Recipe") {
				found = n
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return found
}

func attrValue(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// nodeText 收集節點下所有文字
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}

// extractVisibleText 去除 script/style 後的頁面文字，元素之間以換行分隔
func extractVisibleText(root *html.Node) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style" || n.Data == "noscript") {
			return
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				sb.WriteString(text)
				sb.WriteString("\n")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return strings.TrimSpace(sb.String())
}
