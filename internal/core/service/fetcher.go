package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"recipe-pipeline/internal/infrastructure/config"
	"recipe-pipeline/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// PageFetcher 網頁抓取協作者
// 管線本身不抓網頁；URL 來源的 HTML 由這個協作者取回後以純文字交給擷取器。
type PageFetcher struct {
	config *config.Config
	client *resty.Client
}

// NewPageFetcher 創建網頁抓取協作者
func NewPageFetcher(cfg *config.Config) *PageFetcher {
	client := resty.New().
		SetTimeout(cfg.Fetcher.Timeout).
		SetHeader("User-Agent", cfg.Fetcher.UserAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml")

	return &PageFetcher{
		config: cfg,
		client: client,
	}
}

// FetchHTML 抓取網頁 HTML
func (f *PageFetcher) FetchHTML(ctx context.Context, url string) (string, error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return "", fmt.Errorf("unsupported url scheme: %s", url)
	}

	resp, err := f.client.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return "", fmt.Errorf("failed to fetch page: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("page returned status %d", resp.StatusCode())
	}

	body := resp.Body()
	if int64(len(body)) > f.config.Fetcher.MaxBytes {
		common.LogWarn("網頁內容過大，截斷處理",
			zap.String("url", url),
			zap.Int("bytes", len(body)),
			zap.Int64("max_bytes", f.config.Fetcher.MaxBytes),
		)
		body = body[:f.config.Fetcher.MaxBytes]
	}

	common.LogDebug("網頁抓取完成",
		zap.String("url", url),
		zap.Int("bytes", len(body)),
	)

	return string(body), nil
}
