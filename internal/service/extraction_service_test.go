package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/anime-shed/doc-extractor-go/internal/cache"
	"github.com/anime-shed/doc-extractor-go/internal/config"
	"github.com/anime-shed/doc-extractor-go/internal/preprocess"
	"github.com/anime-shed/doc-extractor-go/internal/profile"
	"github.com/anime-shed/doc-extractor-go/internal/quality"
	"github.com/anime-shed/doc-extractor-go/internal/recognition"
	"github.com/anime-shed/doc-extractor-go/internal/region"
	"github.com/anime-shed/doc-extractor-go/internal/storage"
	"github.com/anime-shed/doc-extractor-go/internal/textproc"
	"github.com/anime-shed/doc-extractor-go/internal/tile"
)

// stubEngine returns a fixed recognition result and counts invocations.
type stubEngine struct {
	text       string
	confidence float64
	calls      int64
}

func (e *stubEngine) Extract(ctx context.Context, img image.Image, req recognition.Request) (recognition.Result, error) {
	atomic.AddInt64(&e.calls, 1)
	return recognition.Result{
		Text:   e.text,
		Tokens: []recognition.Token{{Text: e.text, Confidence: e.confidence}},
	}, nil
}

func testConfig(root string) *config.Config {
	return &config.Config{
		MaxWorkers:          2,
		ConfidenceThreshold: 90,
		RecognitionTimeout:  time.Second,
		TileSize:            1024,
		TileOverlapPx:       64,
		DirectMaxDimension:  2000,
		MinRegionArea:       900,
		CacheTTL:            time.Minute,
		LocalStorageRoot:    root,
	}
}

func newTestService(t *testing.T, engine recognition.Engine, root string) ExtractionService {
	t.Helper()
	cfg := testConfig(root)

	store, err := storage.NewLocalStore(root)
	if err != nil {
		t.Fatalf("Failed to create local store: %v", err)
	}

	return NewExtractionService(
		profile.NewDefaultRegistry(),
		quality.NewAssessor(),
		preprocess.NewPreprocessor(nil),
		engine,
		region.NewDetector(nil, cfg.MinRegionArea),
		tile.NewProcessor(cfg.TileSize, cfg.TileOverlapPx, cfg.DirectMaxDimension),
		textproc.NewCorrector(),
		cache.New(cfg.CacheTTL),
		store,
		nil,
		cfg,
	)
}

func encodeTestImage(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 120, 120))
	for y := 0; y < 120; y++ {
		for x := 0; x < 120; x++ {
			if (y/10)%2 == 0 && x%5 < 3 {
				img.SetGray(x, y, color.Gray{Y: 20})
			} else {
				img.SetGray(x, y, color.Gray{Y: 225})
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestExtractFromBytes(t *testing.T) {
	engine := &stubEngine{text: "TOTAL 12.50", confidence: 95}
	svc := newTestService(t, engine, t.TempDir())

	result, err := svc.ExtractFromBytes(context.Background(), encodeTestImage(t), Request{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.Text != "TOTAL 12.50" {
		t.Errorf("Expected extracted text, got %q", result.Text)
	}
	if result.Confidence.Average != 95 {
		t.Errorf("Expected average confidence 95, got %f", result.Confidence.Average)
	}
	if result.FromCache {
		t.Error("Expected first extraction not to come from cache")
	}
	if result.DocumentKind != profile.DefaultKind {
		t.Errorf("Expected generic kind, got %q", result.DocumentKind)
	}
	if result.StrategyUsed == "" {
		t.Error("Expected a strategy name on the result")
	}
}

func TestSecondExtractionServedFromCache(t *testing.T) {
	engine := &stubEngine{text: "CACHED TEXT", confidence: 95}
	svc := newTestService(t, engine, t.TempDir())
	imageBytes := encodeTestImage(t)

	first, err := svc.ExtractFromBytes(context.Background(), imageBytes, Request{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	callsAfterFirst := atomic.LoadInt64(&engine.calls)

	second, err := svc.ExtractFromBytes(context.Background(), imageBytes, Request{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !second.FromCache {
		t.Error("Expected second extraction to come from cache")
	}
	if second.Text != first.Text {
		t.Errorf("Expected identical text, got %q vs %q", second.Text, first.Text)
	}
	if atomic.LoadInt64(&engine.calls) != callsAfterFirst {
		t.Error("Expected no engine calls on a cache hit")
	}
}

func TestDifferentKindsCachedSeparately(t *testing.T) {
	engine := &stubEngine{text: "SOME TEXT", confidence: 95}
	svc := newTestService(t, engine, t.TempDir())
	imageBytes := encodeTestImage(t)

	if _, err := svc.ExtractFromBytes(context.Background(), imageBytes, Request{DocumentKind: "receipt"}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	result, err := svc.ExtractFromBytes(context.Background(), imageBytes, Request{DocumentKind: "invoice"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.FromCache {
		t.Error("Expected a different document kind to miss the cache")
	}
}

func TestQualityFailureIsAdvisory(t *testing.T) {
	engine := &stubEngine{text: "STILL EXTRACTED", confidence: 80}
	svc := newTestService(t, engine, t.TempDir())

	// A small uniform image fails every quality check.
	img := image.NewGray(image.Rect(0, 0, 100, 100))
	for i := range img.Pix {
		img.Pix[i] = 128
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode image: %v", err)
	}

	result, err := svc.ExtractFromBytes(context.Background(), buf.Bytes(), Request{})
	if err != nil {
		t.Fatalf("Expected quality failure to be advisory, got %v", err)
	}
	if result.Quality.Passed {
		t.Error("Expected quality report to fail")
	}
	if len(result.Quality.Recommendations) == 0 {
		t.Error("Expected recommendations on the failed report")
	}
	if result.Text != "STILL EXTRACTED" {
		t.Errorf("Expected extraction to proceed, got %q", result.Text)
	}
}

func TestExpectedTextAddsAccuracyReport(t *testing.T) {
	engine := &stubEngine{text: "TOTAL 12.50", confidence: 95}
	svc := newTestService(t, engine, t.TempDir())

	result, err := svc.ExtractFromBytes(context.Background(), encodeTestImage(t),
		Request{ExpectedText: "TOTAL 12.50"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.Accuracy == nil {
		t.Fatal("Expected an accuracy report")
	}
	if result.Accuracy.MatchScore != 1.0 {
		t.Errorf("Expected perfect match score, got %f", result.Accuracy.MatchScore)
	}
}

func TestInvalidImageRejected(t *testing.T) {
	engine := &stubEngine{text: "x", confidence: 95}
	svc := newTestService(t, engine, t.TempDir())

	_, err := svc.ExtractFromBytes(context.Background(), []byte("not an image"), Request{})
	if err == nil {
		t.Fatal("Expected error for undecodable bytes")
	}
}

func TestExtractFromStore(t *testing.T) {
	root := t.TempDir()
	engine := &stubEngine{text: "FROM DISK", confidence: 92}
	svc := newTestService(t, engine, root)

	path := filepath.Join(root, "doc.png")
	if err := os.WriteFile(path, encodeTestImage(t), 0o644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	result, err := svc.ExtractFromStore(context.Background(), "doc.png", Request{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.Text != "FROM DISK" {
		t.Errorf("Expected extraction from stored document, got %q", result.Text)
	}
}

func TestExtractFromStoreMissingRef(t *testing.T) {
	engine := &stubEngine{text: "x", confidence: 95}
	svc := newTestService(t, engine, t.TempDir())

	if _, err := svc.ExtractFromStore(context.Background(), "missing.png", Request{}); err == nil {
		t.Fatal("Expected error for a missing document")
	}
}
