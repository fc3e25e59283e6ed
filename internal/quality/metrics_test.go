package quality

import (
	"image"
	"image/color"
	"testing"
)

func TestLaplacianVariance(t *testing.T) {
	uniform := uniformImage(100, 100, color.Gray{Y: 128})
	if v := LaplacianVariance(uniform); v > 1 {
		t.Errorf("Expected near-zero variance for uniform image, got %f", v)
	}

	edges := image.NewGray(image.Rect(0, 0, 100, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			if x < 50 {
				edges.SetGray(x, y, color.Gray{Y: 0})
			} else {
				edges.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	if v := LaplacianVariance(edges); v < 100 {
		t.Errorf("Expected high variance for edge image, got %f", v)
	}
}

func TestContrastSpread(t *testing.T) {
	uniform := uniformImage(100, 100, color.Gray{Y: 128})
	if c := ContrastSpread(uniform); c > 1 {
		t.Errorf("Expected near-zero contrast for uniform image, got %f", c)
	}

	halves := checkerImage(100, 100, 50)
	if c := ContrastSpread(halves); c < 90 {
		t.Errorf("Expected near-full contrast for black/white image, got %f", c)
	}
}

func TestBrightness(t *testing.T) {
	testCases := []struct {
		name     string
		value    uint8
		expected float64
	}{
		{"dark", 20, 20},
		{"mid", 128, 128},
		{"bright", 240, 240},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			img := uniformImage(50, 50, color.Gray{Y: tc.value})
			got := Brightness(img)
			if got < tc.expected-1 || got > tc.expected+1 {
				t.Errorf("Expected brightness ~%f, got %f", tc.expected, got)
			}
		})
	}
}

func TestGrayscalePreservesBounds(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 30, 40))
	gray := Grayscale(src)
	if gray.Bounds().Dx() != 30 || gray.Bounds().Dy() != 40 {
		t.Errorf("Expected 30x40 bounds, got %v", gray.Bounds())
	}
}

func TestEstimateSkewOnUniformImage(t *testing.T) {
	// No gradients means no skew evidence; the estimate must be absent
	// rather than a fabricated angle.
	if angle := EstimateSkew(uniformImage(100, 100, color.Gray{Y: 200})); angle != nil {
		t.Errorf("Expected nil skew estimate for uniform image, got %f", *angle)
	}
}
