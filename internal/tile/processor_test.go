package tile

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"

	"github.com/anime-shed/doc-extractor-go/internal/orchestrator"
)

func fixedExtract(text string, confidence float64) ExtractFunc {
	return func(ctx context.Context, img image.Image) (orchestrator.Outcome, error) {
		return orchestrator.Outcome{
			Winner: orchestrator.Attempt{
				Strategy:      "default",
				Text:          text,
				Confidences:   []float64{confidence},
				AvgConfidence: confidence,
			},
		}, nil
	}
}

func TestSmallImageBypassesTiling(t *testing.T) {
	p := NewProcessor(100, 10, 200)

	var calls int
	var seen image.Rectangle
	extract := func(ctx context.Context, img image.Image) (orchestrator.Outcome, error) {
		calls++
		seen = img.Bounds()
		return fixedExtract("whole document", 95)(ctx, img)
	}

	img := image.NewGray(image.Rect(0, 0, 150, 150))
	out, err := p.Process(context.Background(), img, extract)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !out.Direct {
		t.Error("Expected direct processing below threshold")
	}
	if calls != 1 {
		t.Errorf("Expected 1 extract call, got %d", calls)
	}
	if seen != img.Bounds() {
		t.Errorf("Expected full image passed through, got %v", seen)
	}
	if out.Text != "whole document" {
		t.Errorf("Expected unmodified text, got %q", out.Text)
	}
	if out.TileCount != 1 {
		t.Errorf("Expected tile count 1 on bypass, got %d", out.TileCount)
	}
}

func TestLargeImageIsTiled(t *testing.T) {
	p := NewProcessor(100, 10, 200)

	var mu sync.Mutex
	var rects []image.Rectangle
	extract := func(ctx context.Context, img image.Image) (orchestrator.Outcome, error) {
		mu.Lock()
		rects = append(rects, img.Bounds())
		mu.Unlock()
		return fixedExtract("tile text", 90)(ctx, img)
	}

	img := image.NewGray(image.Rect(0, 0, 300, 300))
	out, err := p.Process(context.Background(), img, extract)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if out.Direct {
		t.Error("Expected tiled processing above threshold")
	}
	if out.TileCount != len(rects) {
		t.Errorf("Tile count %d does not match extract calls %d", out.TileCount, len(rects))
	}

	// Every pixel of the source must be covered by at least one tile.
	covered := image.Rectangle{}
	for _, r := range rects {
		if r.Dx() > 100 || r.Dy() > 100 {
			t.Errorf("Tile %v exceeds tile size", r)
		}
		covered = covered.Union(r)
	}
	if covered != img.Bounds() {
		t.Errorf("Tiles cover %v, expected %v", covered, img.Bounds())
	}
}

func TestTileFailureSkipsTile(t *testing.T) {
	p := NewProcessor(100, 10, 200)

	var calls int
	extract := func(ctx context.Context, img image.Image) (orchestrator.Outcome, error) {
		calls++
		if calls == 1 {
			return orchestrator.Outcome{}, errors.New("blank margin")
		}
		return fixedExtract("content", 88)(ctx, img)
	}

	img := image.NewGray(image.Rect(0, 0, 300, 300))
	out, err := p.Process(context.Background(), img, extract)
	if err != nil {
		t.Fatalf("Expected per-tile failure to be absorbed, got %v", err)
	}
	if len(out.Outcomes) != calls-1 {
		t.Errorf("Expected %d outcomes, got %d", calls-1, len(out.Outcomes))
	}
}

func TestStitchTextsExactOverlap(t *testing.T) {
	got := StitchTexts([]string{"alpha beta gamma", "gamma delta"})
	expected := "alpha beta gamma\ndelta"
	if got != expected {
		t.Errorf("StitchTexts = %q, expected %q", got, expected)
	}
}

func TestStitchTextsNoOverlap(t *testing.T) {
	got := StitchTexts([]string{"first tile", "second tile"})
	expected := "first tile\nsecond tile"
	if got != expected {
		t.Errorf("StitchTexts = %q, expected %q", got, expected)
	}
}

func TestStitchTextsSkipsEmpty(t *testing.T) {
	got := StitchTexts([]string{"", "  ", "only text", ""})
	if got != "only text" {
		t.Errorf("StitchTexts = %q, expected %q", got, "only text")
	}
}

func TestTrimSeamOverlapFuzzy(t *testing.T) {
	// The second tile re-read the overlap band with one character error.
	prev := "INVOICE TOTAL 123.45"
	next := "T0TAL 123.45 DUE ON RECEIPT"

	got := trimSeamOverlap(prev, next)
	if got != "DUE ON RECEIPT" {
		t.Errorf("trimSeamOverlap = %q, expected %q", got, "DUE ON RECEIPT")
	}
}

func TestTrimSeamOverlapUnrelatedTextKept(t *testing.T) {
	got := trimSeamOverlap("completely different", "unrelated continuation")
	if got != "unrelated continuation" {
		t.Errorf("Expected unrelated text kept, got %q", got)
	}
}
