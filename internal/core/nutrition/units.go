package nutrition

import (
	"strings"
)

// 體積單位採密度無關的近似常數（1 cup ≈ 240 g），刻意不做密度模型。
var unitToGrams = map[string]float64{
	"g":           1,
	"gram":        1,
	"grams":       1,
	"kg":          1000,
	"kilogram":    1000,
	"kilograms":   1000,
	"ml":          1,
	"milliliter":  1,
	"milliliters": 1,
	"l":           1000,
	"liter":       1000,
	"liters":      1000,
	"cup":         240,
	"cups":        240,
	"tbsp":        15,
	"tablespoon":  15,
	"tablespoons": 15,
	"tsp":         5,
	"teaspoon":    5,
	"teaspoons":   5,
	"oz":          28.35,
	"ounce":       28.35,
	"ounces":      28.35,
	"lb":          453.6,
	"lbs":         453.6,
	"pound":       453.6,
	"pounds":      453.6,
	"pinch":       0.5,
	"dash":        0.5,
}

// 以食材名稱子字串比對的單件重量表（克）
var pieceWeights = []struct {
	keyword string
	grams   float64
}{
	{"egg", 50},
	{"banana", 120},
	{"apple", 180},
	{"onion", 110},
	{"potato", 170},
	{"tomato", 120},
	{"carrot", 60},
	{"garlic", 5},
	{"lemon", 60},
	{"lime", 45},
	{"avocado", 150},
	{"bell pepper", 120},
	{"pepper", 120},
	{"cucumber", 200},
	{"zucchini", 200},
	{"chicken breast", 170},
	{"tortilla", 45},
	{"slice", 25},
}

// 無法比對單件重量時的預設值
const defaultPieceGrams = 100

// countUnits 以「個數」計量的單位
var countUnits = map[string]bool{
	"":       true,
	"piece":  true,
	"pieces": true,
	"whole":  true,
	"pc":     true,
	"pcs":    true,
	"unit":   true,
	"units":  true,
	"item":   true,
	"items":  true,
	"count":  true,
}

// ToGrams 將 (數量, 單位, 食材名稱) 轉換為克數
// 不回傳錯誤：未知單位先試單件重量表，查無才視為已是克數。
func ToGrams(quantity float64, unit string, ingredientName string) float64 {
	u := strings.ToLower(strings.TrimSpace(unit))

	if grams, ok := unitToGrams[u]; ok {
		return quantity * grams
	}

	if countUnits[u] {
		return quantity * pieceWeight(ingredientName)
	}

	// 未知單位：名稱有單件重量就當個數計，否則視為克
	if grams, ok := pieceWeightLookup(ingredientName); ok {
		return quantity * grams
	}
	return quantity
}

// pieceWeight 依名稱子字串查單件重量
func pieceWeight(ingredientName string) float64 {
	if grams, ok := pieceWeightLookup(ingredientName); ok {
		return grams
	}
	return defaultPieceGrams
}

func pieceWeightLookup(ingredientName string) (float64, bool) {
	name := strings.ToLower(ingredientName)
	for _, pw := range pieceWeights {
		if strings.Contains(name, pw.keyword) {
			return pw.grams, true
		}
	}
	return 0, false
}
