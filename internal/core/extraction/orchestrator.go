package extraction

import (
	"context"
	"path"
	"strings"

	"recipe-pipeline/internal/pkg/common"

	"go.uber.org/zap"
)

// Fetcher 網頁抓取協作者介面
type Fetcher interface {
	FetchHTML(ctx context.Context, url string) (string, error)
}

// Transcriber 影音轉錄協作者介面
type Transcriber interface {
	Transcribe(ctx context.Context, file *common.FileRef) (string, error)
}

// Source 食譜來源：URL、原始文字或附加檔案擇一
type Source struct {
	URL  string          `json:"url,omitempty"`
	Text string          `json:"text,omitempty"`
	File *common.FileRef `json:"file,omitempty"`
}

// Result 擷取結果
// SourceText 是供一致性驗證比對的來源文字；影像來源沒有文字，驗證會退化為只檢查信心值。
type Result struct {
	Recipe     *common.Recipe     `json:"recipe"`
	Provenance *common.Provenance `json:"provenance"`
	SourceText string             `json:"-"`
}

// Orchestrator 來源擷取協調器
// 判別來源類型並分派到對應的擷取方法；信心值由實際執行的
// 單一方法回報，不跨方法平均。
type Orchestrator struct {
	fetcher     Fetcher
	transcriber Transcriber
	aiParser    *AIParser
	textParser  *TextParser
	htmlParser  *HTMLParser
}

// NewOrchestrator 創建來源擷取協調器
// fetcher 與 transcriber 為可選協作者，可傳 nil。
func NewOrchestrator(fetcher Fetcher, transcriber Transcriber, aiParser *AIParser) *Orchestrator {
	return &Orchestrator{
		fetcher:     fetcher,
		transcriber: transcriber,
		aiParser:    aiParser,
		textParser:  NewTextParser(),
		htmlParser:  NewHTMLParser(),
	}
}

// Extract 擷取候選食譜
// 只有兩種情況回傳錯誤：沒有可用輸入，或選定方法產出完全空白的食譜。
// 部分結果（例如有標題沒食材）照常回傳，缺口交給下游驗證標記。
func (o *Orchestrator) Extract(ctx context.Context, src Source) (*Result, error) {
	switch {
	case strings.TrimSpace(src.URL) != "":
		return o.extractFromURL(ctx, src.URL)
	case strings.TrimSpace(src.Text) != "":
		return o.extractFromText(ctx, src.Text, common.SourceText, nil)
	case src.File != nil:
		if isVideoFile(src.File) {
			return o.extractFromVideo(ctx, src.File)
		}
		return o.extractFromImage(ctx, src.File)
	default:
		return nil, common.NewExtractionError("no usable input: provide a url, text, or file")
	}
}

// extractFromURL URL 來源：協作者抓取 HTML 後走結構化解析鏈
func (o *Orchestrator) extractFromURL(ctx context.Context, url string) (*Result, error) {
	if o.fetcher == nil {
		return nil, common.NewExtractionError("page fetcher is not configured")
	}

	htmlText, err := o.fetcher.FetchHTML(ctx, url)
	if err != nil {
		common.LogWarn("網頁抓取失敗",
			zap.String("url", url),
			zap.Error(err),
		)
		return nil, common.NewExtractionError("could not fetch the page")
	}

	recipe, method, notes := o.htmlParser.Parse(htmlText)
	if recipe.IsEmpty() {
		return nil, common.NewExtractionError("no recipe found on the page")
	}

	common.LogInfo("URL 擷取完成",
		zap.String("method", method),
		zap.Int("ingredients", len(recipe.Ingredients)),
		zap.Float64("confidence", recipe.Confidence),
	)

	return &Result{
		Recipe: recipe,
		Provenance: &common.Provenance{
			SourceKind:       common.SourceURL,
			ExtractionMethod: method,
			Confidence:       recipe.Confidence,
			ParserNotes:      notes,
		},
		SourceText: o.htmlParser.VisibleText(htmlText),
	}, nil
}

// extractFromText 文字來源：先試 AI 結構化解析，失敗退回啟發式
func (o *Orchestrator) extractFromText(ctx context.Context, text string, kind common.SourceKind, extraNotes []string) (*Result, error) {
	var recipe *common.Recipe
	method := "heuristic text parse"
	notes := append([]string{}, extraNotes...)

	if o.aiParser != nil && o.aiParser.Available() {
		parsed, err := o.aiParser.ParseText(ctx, text)
		if err == nil && !parsed.IsEmpty() {
			recipe = parsed
			method = "ai structured parse"
			notes = append(notes, "parsed by ai collaborator")
		} else if err != nil {
			common.LogWarn("AI 文字解析失敗，退回啟發式解析", zap.Error(err))
			notes = append(notes, "ai parse failed, heuristic fallback")
		}
	}

	if recipe == nil {
		var parseNotes []string
		recipe, parseNotes = o.textParser.Parse(text)
		notes = append(notes, parseNotes...)
	}

	if recipe.IsEmpty() {
		return nil, common.NewExtractionError("no recipe found in the text")
	}

	common.LogInfo("文字擷取完成",
		zap.String("method", method),
		zap.Int("ingredients", len(recipe.Ingredients)),
		zap.Float64("confidence", recipe.Confidence),
	)

	return &Result{
		Recipe: recipe,
		Provenance: &common.Provenance{
			SourceKind:       kind,
			ExtractionMethod: method,
			Confidence:       recipe.Confidence,
			ParserNotes:      notes,
		},
		SourceText: text,
	}, nil
}

// extractFromImage 影像來源：多模態 AI 視覺解析
func (o *Orchestrator) extractFromImage(ctx context.Context, file *common.FileRef) (*Result, error) {
	if o.aiParser == nil || !o.aiParser.Available() {
		return nil, common.NewExtractionError("vision collaborator is not available for image sources")
	}

	recipe, err := o.aiParser.ParseImage(ctx, file.Data)
	if err != nil {
		common.LogWarn("影像解析失敗", zap.Error(err))
		return nil, common.NewExtractionError("could not read a recipe from the image")
	}
	if recipe.IsEmpty() {
		return nil, common.NewExtractionError("no recipe found in the image")
	}

	common.LogInfo("影像擷取完成",
		zap.Int("ingredients", len(recipe.Ingredients)),
		zap.Float64("confidence", recipe.Confidence),
	)

	// 影像沒有來源文字，驗證將退化為只跑信心值檢查
	return &Result{
		Recipe: recipe,
		Provenance: &common.Provenance{
			SourceKind:       common.SourceImage,
			ExtractionMethod: "ai vision parse",
			Confidence:       recipe.Confidence,
			ParserNotes:      []string{"no source text; text checks skipped downstream"},
		},
		SourceText: "",
	}, nil
}

// extractFromVideo 影音來源：協作者轉錄 → 清理 → 文字路徑
func (o *Orchestrator) extractFromVideo(ctx context.Context, file *common.FileRef) (*Result, error) {
	if o.transcriber == nil {
		return nil, common.NewExtractionError("transcription collaborator is not configured for video sources")
	}

	raw, err := o.transcriber.Transcribe(ctx, file)
	if err != nil {
		common.LogWarn("轉錄失敗", zap.Error(err))
		return nil, common.NewExtractionError("could not transcribe the video")
	}

	cleaned := CleanTranscript(raw)
	if cleaned == "" {
		return nil, common.NewExtractionError("transcript was empty after cleaning")
	}

	// 清理後的逐字稿與輸入文字走同一條路徑
	result, err := o.extractFromText(ctx, cleaned, common.SourceVideo, []string{"transcribed from video"})
	if err != nil {
		return nil, err
	}
	result.Provenance.ExtractionMethod = "transcript then " + result.Provenance.ExtractionMethod
	return result, nil
}

// isVideoFile 以 MIME 類型與副檔名判別影音檔
func isVideoFile(file *common.FileRef) bool {
	mime := strings.ToLower(file.MimeType)
	if strings.HasPrefix(mime, "video/") || strings.HasPrefix(mime, "audio/") {
		return true
	}
	if strings.HasPrefix(mime, "image/") {
		return false
	}

	switch strings.ToLower(strings.TrimPrefix(path.Ext(file.Name), ".")) {
	case "mp4", "mov", "avi", "mkv", "webm", "mp3", "m4a", "wav", "aac":
		return true
	}
	return false
}
