package preprocess

import (
	"image"
	"image/color"
	"testing"
)

func TestAdaptiveBinarizeProducesTwoLevels(t *testing.T) {
	src := textLikeImage(80, 80)
	out := AdaptiveBinarize(src, 15)

	for i, v := range out.Pix {
		if v != 0 && v != 255 {
			t.Fatalf("Expected binary output, pixel %d has value %d", i, v)
		}
	}
}

func TestAdaptiveBinarizeSeparatesInkFromBackground(t *testing.T) {
	src := textLikeImage(80, 80)
	out := AdaptiveBinarize(src, 15)

	var dark, light int
	for _, v := range out.Pix {
		if v == 0 {
			dark++
		} else {
			light++
		}
	}
	if dark == 0 {
		t.Error("Expected some foreground pixels")
	}
	if light == 0 {
		t.Error("Expected some background pixels")
	}
}

func TestAdaptiveBinarizeUniformImageIsBackground(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 50, 50))
	for i := range src.Pix {
		src.Pix[i] = 200
	}
	out := AdaptiveBinarize(src, 15)

	// With no local variation, the mean-minus-C threshold keeps everything
	// as background.
	for i, v := range out.Pix {
		if v != 255 {
			t.Fatalf("Expected all background for uniform input, pixel %d is %d", i, v)
		}
	}
}

func TestMorphCloseFillsSmallGaps(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 20, 20))
	for i := range src.Pix {
		src.Pix[i] = 255
	}
	// A horizontal stroke with a single-pixel gap.
	for x := 2; x <= 16; x++ {
		if x == 9 {
			continue
		}
		src.SetGray(x, 10, color.Gray{Y: 0})
	}

	out := MorphClose(src)
	if out.GrayAt(9, 10).Y != 0 {
		t.Error("Expected close operation to bridge the one-pixel gap")
	}
}
