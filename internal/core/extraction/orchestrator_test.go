package extraction

import (
	"context"
	"errors"
	"testing"

	"recipe-pipeline/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	html string
	err  error
}

func (f *fakeFetcher) FetchHTML(ctx context.Context, url string) (string, error) {
	return f.html, f.err
}

type fakeTranscriber struct {
	transcript string
	err        error
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, file *common.FileRef) (string, error) {
	return f.transcript, f.err
}

func TestOrchestratorNoInput(t *testing.T) {
	o := NewOrchestrator(nil, nil, nil)

	_, err := o.Extract(context.Background(), Source{})

	require.Error(t, err)
	assert.True(t, common.IsExtractionError(err))
}

func TestOrchestratorTextSource(t *testing.T) {
	o := NewOrchestrator(nil, nil, nil)

	text := "Classic Pancakes\nServes 4\n2 cups flour\n3 eggs\n1 1/2 cups milk\nMix everything and cook on a hot griddle."
	result, err := o.Extract(context.Background(), Source{Text: text})

	require.NoError(t, err)
	assert.Equal(t, common.SourceText, result.Provenance.SourceKind)
	assert.Equal(t, "heuristic text parse", result.Provenance.ExtractionMethod)
	assert.Equal(t, "Classic Pancakes", result.Recipe.Title)
	assert.Len(t, result.Recipe.Ingredients, 3)
	// 驗證器要比對的來源文字就是輸入文字
	assert.Equal(t, text, result.SourceText)
	// 信心值來自實際執行的單一方法
	assert.InDelta(t, result.Recipe.Confidence, result.Provenance.Confidence, 0.001)
}

func TestOrchestratorWhitespaceTextIsNoInput(t *testing.T) {
	o := NewOrchestrator(nil, nil, nil)

	_, err := o.Extract(context.Background(), Source{Text: "   \n\t  "})

	require.Error(t, err)
	assert.True(t, common.IsExtractionError(err))
}

func TestOrchestratorURLSource(t *testing.T) {
	o := NewOrchestrator(&fakeFetcher{html: jsonldPage}, nil, nil)

	result, err := o.Extract(context.Background(), Source{URL: "https://example.com/lemon-pasta"})

	require.NoError(t, err)
	assert.Equal(t, common.SourceURL, result.Provenance.SourceKind)
	assert.Equal(t, "structured data (json-ld)", result.Provenance.ExtractionMethod)
	assert.Equal(t, "Lemon Pasta", result.Recipe.Title)
	assert.NotEmpty(t, result.SourceText)
}

func TestOrchestratorURLFetchFailure(t *testing.T) {
	o := NewOrchestrator(&fakeFetcher{err: errors.New("connection refused")}, nil, nil)

	_, err := o.Extract(context.Background(), Source{URL: "https://example.com/down"})

	require.Error(t, err)
	assert.True(t, common.IsExtractionError(err))
}

func TestOrchestratorURLWithoutFetcher(t *testing.T) {
	o := NewOrchestrator(nil, nil, nil)

	_, err := o.Extract(context.Background(), Source{URL: "https://example.com"})

	require.Error(t, err)
	assert.True(t, common.IsExtractionError(err))
}

func TestOrchestratorVideoSource(t *testing.T) {
	transcriber := &fakeTranscriber{
		transcript: "easy fried rice 🔥 #wok\n2 cups rice\n2 eggs\nFry the rice with the eggs until golden.",
	}
	o := NewOrchestrator(nil, transcriber, nil)

	result, err := o.Extract(context.Background(), Source{
		File: &common.FileRef{Data: "AAAA", MimeType: "video/mp4", Name: "friedrice.mp4"},
	})

	require.NoError(t, err)
	assert.Equal(t, common.SourceVideo, result.Provenance.SourceKind)
	assert.Equal(t, "transcript then heuristic text parse", result.Provenance.ExtractionMethod)
	assert.Contains(t, result.Provenance.ParserNotes, "transcribed from video")
	assert.Len(t, result.Recipe.Ingredients, 2)
	// 來源文字是清理後的逐字稿
	assert.NotContains(t, result.SourceText, "#wok")
}

func TestOrchestratorVideoWithoutTranscriber(t *testing.T) {
	o := NewOrchestrator(nil, nil, nil)

	_, err := o.Extract(context.Background(), Source{
		File: &common.FileRef{Data: "AAAA", MimeType: "video/mp4"},
	})

	require.Error(t, err)
	assert.True(t, common.IsExtractionError(err))
}

func TestOrchestratorImageWithoutAI(t *testing.T) {
	o := NewOrchestrator(nil, nil, nil)

	_, err := o.Extract(context.Background(), Source{
		File: &common.FileRef{Data: "AAAA", MimeType: "image/jpeg"},
	})

	require.Error(t, err)
	assert.True(t, common.IsExtractionError(err))
}

func TestIsVideoFile(t *testing.T) {
	tests := []struct {
		name string
		file common.FileRef
		want bool
	}{
		{"video mime", common.FileRef{MimeType: "video/mp4"}, true},
		{"audio mime", common.FileRef{MimeType: "audio/mpeg"}, true},
		{"image mime", common.FileRef{MimeType: "image/png"}, false},
		{"image mime beats video extension", common.FileRef{MimeType: "image/png", Name: "thumb.mp4"}, false},
		{"extension fallback", common.FileRef{Name: "clip.MOV"}, true},
		{"audio extension", common.FileRef{Name: "voiceover.m4a"}, true},
		{"unknown", common.FileRef{Name: "photo.jpg"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isVideoFile(&tt.file))
		})
	}
}
