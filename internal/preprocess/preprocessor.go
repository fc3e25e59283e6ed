package preprocess

import (
	"context"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"

	"github.com/anime-shed/doc-extractor-go/internal/logger"
	"github.com/anime-shed/doc-extractor-go/internal/profile"
	"github.com/anime-shed/doc-extractor-go/internal/quality"
)

// Preprocessor applies the deterministic transformation pipeline before
// recognition. Every stage returns a new image and is a no-op when its
// flag is disabled, so the whole pipeline is a pure function of
// (image, config).
type Preprocessor struct {
	matter Matter
}

// NewPreprocessor creates a preprocessor backed by the given matting
// capability. Pass NoopMatter{} when background removal is unavailable.
func NewPreprocessor(matter Matter) *Preprocessor {
	if matter == nil {
		matter = NoopMatter{}
	}
	return &Preprocessor{matter: matter}
}

// Process runs the pipeline in its fixed stage order:
// background removal, scale-up, deskew, grayscale, denoise, contrast
// enhancement, adaptive binarization, optional morphology.
func (p *Preprocessor) Process(ctx context.Context, img image.Image, cfg profile.PreprocessingConfig) image.Image {
	out := img

	if cfg.BackgroundRemoval {
		out = p.removeBackground(ctx, out)
	}
	out = scaleUp(out, cfg.MinDimensionPx)
	if cfg.Deskew {
		out = deskew(out)
	}
	out = imaging.Grayscale(out)
	if cfg.DenoiseStrength > 0 {
		out = imaging.Blur(out, cfg.DenoiseStrength)
	}
	if cfg.CLAHEEnabled {
		// Sigmoidal contrast approximates local enhancement well enough for
		// document scans while staying deterministic and allocation-light.
		out = imaging.AdjustSigmoid(out, 0.5, 6.0)
	}
	bin := AdaptiveBinarize(quality.Grayscale(out), cfg.AdaptiveBlockSize)
	if cfg.MorphologyEnabled {
		bin = MorphClose(bin)
	}
	return bin
}

// removeBackground calls the matting capability and composites the cutout
// onto a uniform light background so later binarization never sees
// transparency. A matting failure falls back to the original image.
func (p *Preprocessor) removeBackground(ctx context.Context, img image.Image) image.Image {
	fg, err := p.matter.RemoveBackground(ctx, img)
	if err != nil {
		logger.WithError(err).Warn("Background removal failed, using original image")
		return img
	}

	bounds := fg.Bounds()
	canvas := imaging.New(bounds.Dx(), bounds.Dy(), color.NRGBA{R: 245, G: 245, B: 245, A: 255})
	return imaging.Paste(canvas, fg, image.Pt(0, 0))
}

// scaleUp enlarges the image when its smaller dimension is below minDim,
// preserving the aspect ratio. Small text gains legibility for the engine.
func scaleUp(img image.Image, minDim int) image.Image {
	if minDim <= 0 {
		return img
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	smaller := w
	if h < smaller {
		smaller = h
	}
	if smaller >= minDim || smaller == 0 {
		return img
	}

	scale := float64(minDim) / float64(smaller)
	newW := int(float64(w)*scale + 0.5)
	newH := int(float64(h)*scale + 0.5)

	logger.WithFields(logrus.Fields{
		"from": bounds.Size(), "to_w": newW, "to_h": newH,
	}).Debug("Upscaling image below minimum dimension")
	return imaging.Resize(img, newW, newH, imaging.Lanczos)
}

// deskew estimates the dominant text rotation and rotates the image to
// correct it. Rotation fills the exposed corners with white so they read
// as background.
func deskew(img image.Image) image.Image {
	angle := quality.EstimateSkew(quality.Grayscale(img))
	if angle == nil || *angle == 0 {
		return img
	}
	// Below half a degree the rotation resample costs more than it helps.
	if *angle < 0.5 && *angle > -0.5 {
		return img
	}
	return imaging.Rotate(img, -*angle, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
}
