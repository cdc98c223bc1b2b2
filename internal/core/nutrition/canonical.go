package nutrition

import (
	"regexp"
	"strings"

	"recipe-pipeline/internal/pkg/common"

	"go.uber.org/zap"
)

// HintMap 批次 AI 正規化結果：原始名稱 → 標準鍵
type HintMap map[string]string

var nonAlnumPattern = regexp.MustCompile(`[^a-z0-9 ]+`)
var spacePattern = regexp.MustCompile(`\s+`)

// NormalizeName 食材名稱正規化：小寫、去除非英數字元、收斂空白
func NormalizeName(raw string) string {
	s := strings.ToLower(raw)
	s = nonAlnumPattern.ReplaceAllString(s, " ")
	s = spacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// matchStrategy 查詢策略：(正規化名稱, 別名表) → 標準鍵
// 依序嘗試，第一個命中者勝出；全部落空時由 slug 保底，函式永不失敗。
type matchStrategy func(normalized string, synonyms *SynonymTable) (string, bool)

var strategies = []matchStrategy{
	exactMatch,
	partialMatch,
}

// exactMatch 精確比對別名表
func exactMatch(normalized string, synonyms *SynonymTable) (string, bool) {
	return synonyms.Exact(normalized)
}

// partialMatch 子字串比對：名稱包含別名或別名包含名稱
// 取最長的別名命中，降低「oil」吃掉「olive oil」這類誤配。
func partialMatch(normalized string, synonyms *SynonymTable) (string, bool) {
	best := ""
	bestKey := ""
	for alias, key := range synonyms.Aliases() {
		if strings.Contains(normalized, alias) || strings.Contains(alias, normalized) {
			if len(alias) > len(best) {
				best = alias
				bestKey = key
			}
		}
	}
	return bestKey, best != ""
}

// slugFallback 保底：空白改底線
func slugFallback(normalized string) string {
	return strings.ReplaceAll(normalized, " ", "_")
}

// Canonicalize 將原始食材名稱映射為標準鍵
// 優先序：AI 提示 → 精確別名 → 部分別名 → slug 保底。
func Canonicalize(rawName string, hints HintMap, synonyms *SynonymTable) string {
	if hint, ok := hints[rawName]; ok && hint != "" {
		return hint
	}

	normalized := NormalizeName(rawName)
	if normalized == "" {
		return slugFallback(strings.TrimSpace(rawName))
	}

	for _, strategy := range strategies {
		if key, ok := strategy(normalized, synonyms); ok {
			return key
		}
	}

	return slugFallback(normalized)
}

// hintLinePattern 解析 "original -> canonical" 形式的輸出行
var hintLinePattern = regexp.MustCompile(`^(.+?)\s*->\s*(.+)$`)

// ParseHintResponse 解析批次正規化回應
// 輸出行以大小寫不敏感的子字串包含比對回配到輸入食材；
// 對不上的行直接丟棄，不視為錯誤。
func ParseHintResponse(content string, inputs []string) HintMap {
	hints := HintMap{}

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-*• \t"))
		m := hintLinePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		original := strings.TrimSpace(m[1])
		canonical := NormalizeName(m[2])
		if original == "" || canonical == "" {
			continue
		}

		// 回配：輸出行與輸入互相包含即視為同一食材，取最長命中
		lowerOrig := strings.ToLower(original)
		best := ""
		for _, input := range inputs {
			lowerInput := strings.ToLower(input)
			if strings.Contains(lowerInput, lowerOrig) || strings.Contains(lowerOrig, lowerInput) {
				if len(input) > len(best) {
					best = input
				}
			}
		}
		if best == "" {
			common.LogDebug("正規化輸出行無法回配，丟棄",
				zap.String("line", line),
			)
			continue
		}
		hints[best] = canonical
	}

	return hints
}

// BuildHintPrompt 組裝批次正規化 prompt
func BuildHintPrompt(names []string) string {
	var sb strings.Builder
	sb.WriteString("Normalize each ingredient name to a canonical nutrition database key. ")
	sb.WriteString("Reply with one line per ingredient in the exact form: original -> canonical. ")
	sb.WriteString("Use lowercase singular english nouns. No other text.\n")
	for _, name := range names {
		sb.WriteString(name)
		sb.WriteString("\n")
	}
	return sb.String()
}
