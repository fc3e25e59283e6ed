package quality

import (
	"fmt"
	"image"
	"math"

	"github.com/anime-shed/doc-extractor-go/pkg/models"
)

// Thresholds defines the pass/fail limits for a quality assessment.
type Thresholds struct {
	MinBlurScore     float64
	MinContrastScore float64
	MinDimensionPx   int

	// Advisory-only limits; they add recommendations without failing the
	// report on their own.
	MinBrightness float64
	MaxBrightness float64
	MaxSkewAngle  float64
}

// DefaultThresholds returns the thresholds used when none are configured.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinBlurScore:     50.0,
		MinContrastScore: 25.0,
		MinDimensionPx:   600,
		MinBrightness:    60.0,
		MaxBrightness:    230.0,
		MaxSkewAngle:     5.0,
	}
}

// Assessor scores input images on blur, contrast and resolution. It has no
// side effects and performs no I/O; a failed report never aborts the
// pipeline.
type Assessor struct {
	thresholds Thresholds
}

// NewAssessor creates an assessor with default thresholds.
func NewAssessor() *Assessor {
	return &Assessor{thresholds: DefaultThresholds()}
}

// NewAssessorWithThresholds creates an assessor with custom thresholds.
func NewAssessorWithThresholds(t Thresholds) *Assessor {
	return &Assessor{thresholds: t}
}

// Assess computes the quality report for img. Deterministic for a given
// image.
func (a *Assessor) Assess(img image.Image) models.QualityReport {
	bounds := img.Bounds()
	gray := Grayscale(img)

	report := models.QualityReport{
		BlurScore:     LaplacianVariance(gray),
		ContrastScore: ContrastSpread(gray),
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
	}

	minDim := report.Width
	if report.Height < minDim {
		minDim = report.Height
	}

	report.Passed = report.BlurScore >= a.thresholds.MinBlurScore &&
		report.ContrastScore >= a.thresholds.MinContrastScore &&
		minDim >= a.thresholds.MinDimensionPx

	if report.BlurScore < a.thresholds.MinBlurScore {
		report.Recommendations = append(report.Recommendations,
			"image appears blurry; hold the camera steady and refocus")
	}
	if report.ContrastScore < a.thresholds.MinContrastScore {
		report.Recommendations = append(report.Recommendations,
			"low contrast between text and background; increase lighting")
	}
	if minDim < a.thresholds.MinDimensionPx {
		report.Recommendations = append(report.Recommendations,
			fmt.Sprintf("image resolution too low (%dx%d); capture at a higher resolution",
				report.Width, report.Height))
	}

	// Advisory checks borrowed from the extended OCR readiness screen.
	brightness := Brightness(gray)
	if brightness < a.thresholds.MinBrightness {
		report.Recommendations = append(report.Recommendations,
			"image is too dark; take the photo in more light")
	} else if brightness > a.thresholds.MaxBrightness {
		report.Recommendations = append(report.Recommendations,
			"image is too bright; avoid strong sunlight or flash")
	}
	if angle := EstimateSkew(gray); angle != nil && math.Abs(*angle) > a.thresholds.MaxSkewAngle {
		report.Recommendations = append(report.Recommendations,
			fmt.Sprintf("document is tilted by about %.0f degrees; hold the camera straight", *angle))
	}

	return report
}

// Correction describes the auto-correction an assessment warrants before
// preprocessing proceeds.
type Correction struct {
	ForceBackgroundRemoval bool
	UpscaleToMinDimension  bool
}

// SuggestCorrection decides whether a failed report warrants automatic
// correction of the preprocessing configuration.
func (a *Assessor) SuggestCorrection(report models.QualityReport) Correction {
	var c Correction
	if report.Passed {
		return c
	}
	minDim := report.Width
	if report.Height < minDim {
		minDim = report.Height
	}
	if minDim < a.thresholds.MinDimensionPx {
		c.UpscaleToMinDimension = true
	}
	if report.ContrastScore < a.thresholds.MinContrastScore {
		c.ForceBackgroundRemoval = true
	}
	return c
}
