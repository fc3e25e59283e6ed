package tile

import (
	"context"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"

	"github.com/anime-shed/doc-extractor-go/internal/logger"
	"github.com/anime-shed/doc-extractor-go/internal/orchestrator"
)

// ExtractFunc runs the strategy orchestrator over one sub-image. The tile
// processor never re-implements strategy selection; it delegates every
// tile into the same orchestrator the direct path uses.
type ExtractFunc func(ctx context.Context, img image.Image) (orchestrator.Outcome, error)

// Stitched is the merged output of a tiled (or bypassed) run.
type Stitched struct {
	Text string
	// Outcomes holds the per-tile orchestrator outcomes in row-major
	// order; a single element on the bypass path.
	Outcomes  []orchestrator.Outcome
	TileCount int
	// Direct reports that tiling was bypassed entirely.
	Direct bool
}

// Processor splits oversized images into overlapping tiles so peak memory
// stays bounded regardless of input size.
type Processor struct {
	tileSize     int
	overlapPx    int
	directMaxDim int
}

// NewProcessor creates a tile processor. Images whose dimensions are both
// below directMaxDim are processed in a single orchestrator call.
func NewProcessor(tileSize, overlapPx, directMaxDim int) *Processor {
	if tileSize <= 0 {
		tileSize = 1024
	}
	if overlapPx < 0 || overlapPx >= tileSize {
		overlapPx = tileSize / 16
	}
	if directMaxDim <= 0 {
		directMaxDim = 2000
	}
	return &Processor{tileSize: tileSize, overlapPx: overlapPx, directMaxDim: directMaxDim}
}

// Process extracts text from img, tiling only when necessary. Below the
// direct-processing threshold this is a zero-overhead passthrough to a
// single extract call.
func (p *Processor) Process(ctx context.Context, img image.Image, extract ExtractFunc) (Stitched, error) {
	bounds := img.Bounds()
	if bounds.Dx() < p.directMaxDim && bounds.Dy() < p.directMaxDim {
		outcome, err := extract(ctx, img)
		if err != nil {
			return Stitched{}, err
		}
		return Stitched{
			Text:      outcome.Winner.Text,
			Outcomes:  []orchestrator.Outcome{outcome},
			TileCount: 1,
			Direct:    true,
		}, nil
	}

	grid := p.grid(bounds)
	logger.WithFields(logrus.Fields{
		"width": bounds.Dx(), "height": bounds.Dy(), "tiles": len(grid),
	}).Debug("Processing image in tiles")

	texts := make([]string, 0, len(grid))
	outcomes := make([]orchestrator.Outcome, 0, len(grid))
	for _, rect := range grid {
		sub := imaging.Crop(img, rect)
		outcome, err := extract(ctx, sub)
		if err != nil {
			// A tile with no extractable text (margins, illustrations) is
			// normal for large scans; skip it rather than failing the page.
			logger.WithError(err).WithFields(logrus.Fields{
				"tile": rect.String(),
			}).Debug("Tile produced no text")
			continue
		}
		texts = append(texts, outcome.Winner.Text)
		outcomes = append(outcomes, outcome)
	}

	return Stitched{
		Text:      StitchTexts(texts),
		Outcomes:  outcomes,
		TileCount: len(grid),
	}, nil
}

// grid partitions bounds into row-major tiles of tileSize that share
// overlapPx border pixels with their neighbors, so a character cut by one
// tile boundary appears whole in the adjacent tile.
func (p *Processor) grid(bounds image.Rectangle) []image.Rectangle {
	step := p.tileSize - p.overlapPx

	var rects []image.Rectangle
	for y := bounds.Min.Y; y < bounds.Max.Y; y += step {
		y1 := y + p.tileSize
		if y1 > bounds.Max.Y {
			y1 = bounds.Max.Y
		}
		for x := bounds.Min.X; x < bounds.Max.X; x += step {
			x1 := x + p.tileSize
			if x1 > bounds.Max.X {
				x1 = bounds.Max.X
			}
			rects = append(rects, image.Rect(x, y, x1, y1))
			if x1 == bounds.Max.X {
				break
			}
		}
		if y1 == bounds.Max.Y {
			break
		}
	}
	return rects
}

// StitchTexts joins tile texts in order, removing the duplicated run a
// shared tile border introduces at each seam.
func StitchTexts(texts []string) string {
	var b strings.Builder
	for _, t := range texts {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if b.Len() == 0 {
			b.WriteString(t)
			continue
		}
		t = trimSeamOverlap(b.String(), t)
		if t == "" {
			continue
		}
		b.WriteByte('\n')
		b.WriteString(t)
	}
	return b.String()
}
