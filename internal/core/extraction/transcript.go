package extraction

import (
	"regexp"
	"strings"
)

// 逐字稿與社群貼文常見的雜訊
var (
	urlPattern     = regexp.MustCompile(`https?://\S+|www\.\S+`)
	mentionPattern = regexp.MustCompile(`@\w+`)
	hashtagPattern = regexp.MustCompile(`#\w+`)
	bulletGlyphs   = regexp.MustCompile(`[•·◦▪▸►➤✓✔★☆]+`)
	emojiPattern   = regexp.MustCompile(`[\x{1F000}-\x{1FAFF}\x{2600}-\x{27BF}\x{FE0F}\x{200D}]`)
	multiSpace     = regexp.MustCompile(`[ \t]+`)
	multiNewline   = regexp.MustCompile(`\n{3,}`)
)

// CleanTranscript 清理逐字稿
// 去除 URL、@mentions、#hashtags、emoji 與項目符號，收斂空白。
// 清理後的逐字稿與使用者輸入的文字走同一條解析路徑。
func CleanTranscript(raw string) string {
	s := urlPattern.ReplaceAllString(raw, " ")
	s = mentionPattern.ReplaceAllString(s, " ")
	s = hashtagPattern.ReplaceAllString(s, " ")
	s = bulletGlyphs.ReplaceAllString(s, " ")
	s = emojiPattern.ReplaceAllString(s, "")

	// 逐行收斂空白，保留換行結構
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(multiSpace.ReplaceAllString(line, " "))
	}
	s = strings.Join(lines, "\n")
	s = multiNewline.ReplaceAllString(s, "\n\n")

	return strings.TrimSpace(s)
}
