package nutrition

import (
	"fmt"
	"os"

	"recipe-pipeline/internal/pkg/common"
)

// Table 營養參照表（每 100 克），外部擁有、唯讀
type Table struct {
	records map[string]common.NutrientRecord
}

// NewTable 以既有紀錄建表
func NewTable(records map[string]common.NutrientRecord) *Table {
	if records == nil {
		records = map[string]common.NutrientRecord{}
	}
	return &Table{records: records}
}

// Lookup 查詢標準鍵的營養紀錄
// 查無不是錯誤：營養引擎以 matched=false 處理。
func (t *Table) Lookup(canonicalKey string) (common.NutrientRecord, bool) {
	rec, ok := t.records[canonicalKey]
	return rec, ok
}

// Len 紀錄筆數
func (t *Table) Len() int {
	return len(t.records)
}

// SynonymTable 別名 → 標準鍵對照表，外部擁有、唯讀
type SynonymTable struct {
	aliases map[string]string
}

// NewSynonymTable 以既有對照建表
func NewSynonymTable(aliases map[string]string) *SynonymTable {
	if aliases == nil {
		aliases = map[string]string{}
	}
	return &SynonymTable{aliases: aliases}
}

// Exact 精確查詢
func (s *SynonymTable) Exact(normalized string) (string, bool) {
	key, ok := s.aliases[normalized]
	return key, ok
}

// Aliases 走訪所有別名（驗證器的遺漏食材掃描會用到）
func (s *SynonymTable) Aliases() map[string]string {
	return s.aliases
}

// LoadTableFile 從 JSON 檔載入營養表；路徑為空時使用內建預設表
func LoadTableFile(path string) (*Table, error) {
	if path == "" {
		return NewTable(defaultNutrients()), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read nutrient table: %w", err)
	}

	var records map[string]common.NutrientRecord
	if err := common.ParseJSONBytes(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse nutrient table: %w", err)
	}

	return NewTable(records), nil
}

// LoadSynonymFile 從 JSON 檔載入別名表；路徑為空時使用內建預設表
func LoadSynonymFile(path string) (*SynonymTable, error) {
	if path == "" {
		return NewSynonymTable(defaultSynonyms()), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read synonym table: %w", err)
	}

	var aliases map[string]string
	if err := common.ParseJSONBytes(data, &aliases); err != nil {
		return nil, fmt.Errorf("failed to parse synonym table: %w", err)
	}

	return NewSynonymTable(aliases), nil
}

// defaultNutrients 內建預設營養表（常見食材，每 100 克）
func defaultNutrients() map[string]common.NutrientRecord {
	return map[string]common.NutrientRecord{
		"flour":          {Calories: 364, Protein: 10.3, Carbs: 76.3, Fats: 1.0, Fiber: 2.7},
		"sugar":          {Calories: 387, Protein: 0, Carbs: 100, Fats: 0, Fiber: 0},
		"egg":            {Calories: 155, Protein: 13.0, Carbs: 1.1, Fats: 11.0, Fiber: 0},
		"milk":           {Calories: 61, Protein: 3.2, Carbs: 4.8, Fats: 3.3, Fiber: 0},
		"butter":         {Calories: 717, Protein: 0.9, Carbs: 0.1, Fats: 81.1, Fiber: 0},
		"olive oil":      {Calories: 884, Protein: 0, Carbs: 0, Fats: 100, Fiber: 0},
		"salt":           {Calories: 0, Protein: 0, Carbs: 0, Fats: 0, Fiber: 0},
		"banana":         {Calories: 89, Protein: 1.1, Carbs: 22.8, Fats: 0.3, Fiber: 2.6},
		"apple":          {Calories: 52, Protein: 0.3, Carbs: 13.8, Fats: 0.2, Fiber: 2.4},
		"chicken breast": {Calories: 165, Protein: 31.0, Carbs: 0, Fats: 3.6, Fiber: 0},
		"rice":           {Calories: 130, Protein: 2.7, Carbs: 28.2, Fats: 0.3, Fiber: 0.4},
		"onion":          {Calories: 40, Protein: 1.1, Carbs: 9.3, Fats: 0.1, Fiber: 1.7},
		"garlic":         {Calories: 149, Protein: 6.4, Carbs: 33.1, Fats: 0.5, Fiber: 2.1},
		"tomato":         {Calories: 18, Protein: 0.9, Carbs: 3.9, Fats: 0.2, Fiber: 1.2},
		"potato":         {Calories: 77, Protein: 2.0, Carbs: 17.5, Fats: 0.1, Fiber: 2.2},
		"carrot":         {Calories: 41, Protein: 0.9, Carbs: 9.6, Fats: 0.2, Fiber: 2.8},
		"baking powder":  {Calories: 53, Protein: 0, Carbs: 27.7, Fats: 0, Fiber: 0.2},
		"honey":          {Calories: 304, Protein: 0.3, Carbs: 82.4, Fats: 0, Fiber: 0.2},
		"cheese":         {Calories: 402, Protein: 25.0, Carbs: 1.3, Fats: 33.1, Fiber: 0},
		"beef":           {Calories: 250, Protein: 26.0, Carbs: 0, Fats: 15.0, Fiber: 0},
	}
}

// defaultSynonyms 內建預設別名表
func defaultSynonyms() map[string]string {
	return map[string]string{
		"flour":             "flour",
		"all purpose flour": "flour",
		"plain flour":       "flour",
		"wheat flour":       "flour",
		"sugar":             "sugar",
		"granulated sugar":  "sugar",
		"caster sugar":      "sugar",
		"egg":               "egg",
		"eggs":              "egg",
		"large egg":         "egg",
		"milk":              "milk",
		"whole milk":        "milk",
		"butter":            "butter",
		"unsalted butter":   "butter",
		"olive oil":         "olive oil",
		"extra virgin olive oil": "olive oil",
		"salt":              "salt",
		"sea salt":          "salt",
		"banana":            "banana",
		"bananas":           "banana",
		"apple":             "apple",
		"apples":            "apple",
		"chicken breast":    "chicken breast",
		"chicken":           "chicken breast",
		"rice":              "rice",
		"white rice":        "rice",
		"onion":             "onion",
		"onions":            "onion",
		"garlic":            "garlic",
		"garlic clove":      "garlic",
		"tomato":            "tomato",
		"tomatoes":          "tomato",
		"potato":            "potato",
		"potatoes":          "potato",
		"carrot":            "carrot",
		"carrots":           "carrot",
		"baking powder":     "baking powder",
		"honey":             "honey",
		"cheese":            "cheese",
		"cheddar":           "cheese",
		"beef":              "beef",
		"ground beef":       "beef",
	}
}
