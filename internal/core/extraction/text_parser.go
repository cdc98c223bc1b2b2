package extraction

import (
	"regexp"
	"strconv"
	"strings"

	"recipe-pipeline/internal/pkg/common"
)

// TextParser 自由文字食譜解析器
// 啟發式解析：不依賴外部服務，AI 解析失敗時的保底路徑。
type TextParser struct{}

// NewTextParser 創建自由文字解析器
func NewTextParser() *TextParser {
	return &TextParser{}
}

var (
	servingsPattern = regexp.MustCompile(`(?i)\b(?:serves?|servings?|makes|yields?|portions?)\s*:?\s*(\d{1,3})\b`)
	servingsSuffix  = regexp.MustCompile(`(?i)\b(\d{1,3})\s+servings?\b`)
	prepTimePattern = regexp.MustCompile(`(?i)\bprep(?:aration)?\s*time\s*:?\s*(\d{1,3})\s*(?:min|mins|minutes?)\b`)
	cookTimePattern = regexp.MustCompile(`(?i)\bcook(?:ing)?\s*time\s*:?\s*(\d{1,3})\s*(?:min|mins|minutes?)\b`)
	totalTimePattern = regexp.MustCompile(`(?i)\btotal\s*time\s*:?\s*(\d{1,3})\s*(?:min|mins|minutes?)\b`)

	ingredientHeader  = regexp.MustCompile(`(?i)^\s*ingredients?\s*:?\s*$`)
	instructionHeader = regexp.MustCompile(`(?i)^\s*(?:instructions?|directions?|method|steps?|preparation)\s*:?\s*$`)

	bulletPrefix  = regexp.MustCompile(`^\s*(?:[-*•·◦▪]|\d+[.)])\s*`)
	leadingNumber = regexp.MustCompile(`^\s*\d`)

	// 數量：整數、小數、分數、帶分數與 unicode 分數
	quantityPattern = regexp.MustCompile(`^\s*(\d+\s+\d+/\d+|\d+/\d+|\d*\.\d+|\d+|[½⅓⅔¼¾⅛])\s*`)
	optionalSuffix  = regexp.MustCompile(`(?i)[,(]?\s*optional\s*[)]?\s*$`)
)

// 擷取器認得的計量單位（含常見複數）
var knownUnits = map[string]string{
	"cup": "cup", "cups": "cup",
	"tbsp": "tbsp", "tablespoon": "tbsp", "tablespoons": "tbsp",
	"tsp": "tsp", "teaspoon": "tsp", "teaspoons": "tsp",
	"oz": "oz", "ounce": "oz", "ounces": "oz",
	"lb": "lb", "lbs": "lb", "pound": "lb", "pounds": "lb",
	"g": "g", "gram": "g", "grams": "g",
	"kg": "kg", "kilogram": "kg", "kilograms": "kg",
	"ml": "ml", "l": "l", "liter": "l", "liters": "l", "litre": "l", "litres": "l",
	"clove": "clove", "cloves": "clove",
	"slice": "slice", "slices": "slice",
	"piece": "piece", "pieces": "piece",
	"can": "can", "cans": "can",
	"pinch": "pinch", "dash": "dash",
}

var unicodeFractions = map[string]float64{
	"½": 0.5, "⅓": 1.0 / 3, "⅔": 2.0 / 3, "¼": 0.25, "¾": 0.75, "⅛": 0.125,
}

// Parse 解析自由文字為候選食譜
func (p *TextParser) Parse(text string) (*common.Recipe, []string) {
	notes := []string{}
	recipe := &common.Recipe{
		Ingredients:  []common.Ingredient{},
		Instructions: []string{},
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return recipe, append(notes, "empty source text")
	}

	// 全文掃描份數與時間
	if m := servingsPattern.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			recipe.Servings = common.IntPtr(n)
		}
	} else if m := servingsSuffix.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			recipe.Servings = common.IntPtr(n)
		}
	}
	if m := prepTimePattern.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			recipe.PrepTimeMinutes = common.IntPtr(n)
		}
	}
	if m := cookTimePattern.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			recipe.CookTimeMinutes = common.IntPtr(n)
		}
	} else if m := totalTimePattern.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			recipe.CookTimeMinutes = common.IntPtr(n)
		}
	}

	segments := splitSegments(text)

	// 有明確段落標題時走段落模式
	if hasSectionHeaders(segments) {
		p.parseSections(segments, recipe)
	} else {
		p.parseFreeform(segments, recipe)
	}

	recipe.Confidence = p.scoreConfidence(recipe)
	notes = append(notes, "heuristic text parse")
	if recipe.Servings == nil {
		notes = append(notes, "servings not found in source")
	}
	return recipe, notes
}

// splitSegments 切分文字：有換行依行切，單行文字改依句切
func splitSegments(text string) []string {
	var raw []string
	if strings.Contains(text, "\n") {
		raw = strings.Split(text, "\n")
	} else {
		raw = strings.Split(text, ". ")
	}

	segments := make([]string, 0, len(raw))
	for _, seg := range raw {
		seg = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(seg), "."))
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	return segments
}

func hasSectionHeaders(segments []string) bool {
	for _, seg := range segments {
		if ingredientHeader.MatchString(seg) || instructionHeader.MatchString(seg) {
			return true
		}
	}
	return false
}

// parseSections 依「Ingredients:」「Instructions:」等標題分段解析
func (p *TextParser) parseSections(segments []string, recipe *common.Recipe) {
	section := ""
	for _, seg := range segments {
		switch {
		case ingredientHeader.MatchString(seg):
			section = "ingredients"
			continue
		case instructionHeader.MatchString(seg):
			section = "instructions"
			continue
		}

		switch section {
		case "ingredients":
			line := bulletPrefix.ReplaceAllString(seg, "")
			if ing, ok := ParseIngredientLine(line); ok {
				recipe.Ingredients = append(recipe.Ingredients, ing)
			}
		case "instructions":
			step := bulletPrefix.ReplaceAllString(seg, "")
			if step != "" {
				recipe.Instructions = append(recipe.Instructions, step)
			}
		default:
			// 段落標題之前：第一行當標題，其餘當描述
			if recipe.Title == "" && !isMetadataLine(seg) {
				recipe.Title = seg
			} else if recipe.Description == "" && !isMetadataLine(seg) {
				recipe.Description = seg
			}
		}
	}
}

// parseFreeform 無段落標題的逐段分類
func (p *TextParser) parseFreeform(segments []string, recipe *common.Recipe) {
	for _, seg := range segments {
		if isMetadataLine(seg) {
			continue
		}

		stripped := bulletPrefix.ReplaceAllString(seg, "")

		// 以數量開頭的段落視為食材；逗號分隔的清單逐一解析
		if leadingNumber.MatchString(stripped) || looksLikeIngredientList(stripped) {
			parsed := false
			for _, part := range strings.Split(stripped, ",") {
				if ing, ok := ParseIngredientLine(strings.TrimSpace(part)); ok {
					recipe.Ingredients = append(recipe.Ingredients, ing)
					parsed = true
				}
			}
			if parsed {
				continue
			}
		}

		// 標題：第一個不含數字的短段
		if recipe.Title == "" && len(strings.Fields(stripped)) <= 8 && !strings.ContainsAny(stripped, "0123456789") {
			recipe.Title = stripped
			continue
		}

		// 其餘視為步驟
		if stripped != "" {
			recipe.Instructions = append(recipe.Instructions, stripped)
		}
	}
}

// isMetadataLine 份數/時間等中繼資料行（已於全文掃描處理）
func isMetadataLine(seg string) bool {
	return servingsPattern.MatchString(seg) ||
		servingsSuffix.MatchString(seg) ||
		prepTimePattern.MatchString(seg) ||
		cookTimePattern.MatchString(seg) ||
		totalTimePattern.MatchString(seg)
}

// looksLikeIngredientList 逗號清單且多數項目以數字開頭
func looksLikeIngredientList(seg string) bool {
	parts := strings.Split(seg, ",")
	if len(parts) < 2 {
		return false
	}
	numbered := 0
	for _, part := range parts {
		if leadingNumber.MatchString(strings.TrimSpace(part)) {
			numbered++
		}
	}
	return numbered*2 >= len(parts)
}

// ParseIngredientLine 解析單行食材（"2 cups flour" 形式）
func ParseIngredientLine(line string) (common.Ingredient, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return common.Ingredient{}, false
	}

	ing := common.Ingredient{Confidence: 0.5}

	// optional 標記
	if optionalSuffix.MatchString(line) {
		ing.Optional = true
		line = strings.TrimSpace(optionalSuffix.ReplaceAllString(line, ""))
	}

	// 數量
	if m := quantityPattern.FindStringSubmatch(line); m != nil {
		if qty, ok := parseQuantity(m[1]); ok {
			ing.Quantity = common.FloatPtr(qty)
			ing.Confidence = 0.6
			line = strings.TrimSpace(line[len(m[0]):])
		}
	}

	// 單位
	fields := strings.Fields(line)
	if len(fields) > 1 && ing.Quantity != nil {
		if unit, ok := knownUnits[strings.ToLower(strings.Trim(fields[0], "."))]; ok {
			ing.Unit = unit
			ing.Confidence = 0.8
			fields = fields[1:]
		}
	}

	// "of" 接續（"2 cups of flour"）
	if len(fields) > 1 && strings.EqualFold(fields[0], "of") {
		fields = fields[1:]
	}

	name := strings.TrimSpace(strings.Join(fields, " "))
	name = strings.Trim(name, ",;:")
	if name == "" {
		return common.Ingredient{}, false
	}
	ing.Name = name

	return ing, true
}

// parseQuantity 解析數量字串（含分數與帶分數）
func parseQuantity(s string) (float64, bool) {
	s = strings.TrimSpace(s)

	if v, ok := unicodeFractions[s]; ok {
		return v, true
	}

	// 帶分數 "1 1/2"
	if parts := strings.Fields(s); len(parts) == 2 && strings.Contains(parts[1], "/") {
		whole, err1 := strconv.ParseFloat(parts[0], 64)
		frac, ok := parseFraction(parts[1])
		if err1 == nil && ok {
			return whole + frac, true
		}
		return 0, false
	}

	if strings.Contains(s, "/") {
		return parseFraction(s)
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseFraction(s string) (float64, bool) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return 0, false
	}
	num, err1 := strconv.ParseFloat(parts[0], 64)
	den, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil || den == 0 {
		return 0, false
	}
	return num / den, true
}

// scoreConfidence 依擷取完整度估計整體信心值
func (p *TextParser) scoreConfidence(recipe *common.Recipe) float64 {
	score := 0.3
	if recipe.Title != "" {
		score += 0.1
	}
	if len(recipe.Ingredients) >= 2 {
		score += 0.2
	} else if len(recipe.Ingredients) == 1 {
		score += 0.1
	}
	if len(recipe.Instructions) >= 1 {
		score += 0.1
	}
	if recipe.Servings != nil {
		score += 0.1
	}

	withQty := 0
	for _, ing := range recipe.Ingredients {
		if ing.Quantity != nil {
			withQty++
		}
	}
	if len(recipe.Ingredients) > 0 && withQty == len(recipe.Ingredients) {
		score += 0.1
	}

	if score > 0.85 {
		score = 0.85
	}
	return score
}
