package region

import (
	"image"
	"sort"
)

// Region is a candidate text-bearing area of a sparse document. Regions
// are consumed immediately by the orchestrator and never persisted.
type Region struct {
	Bounds image.Rectangle
	Area   int
}

// mergeThreshold is the overlap ratio (intersection area over the smaller
// box's area) above which two regions are combined.
const mergeThreshold = 0.3

// darkCutoff separates foreground ink from background in a binarized or
// grayscale input.
const darkCutoff = 128

// Strategy locates candidate regions in a grayscale image. Two
// interchangeable implementations exist: contour-based connected
// components and a blob-stability method.
type Strategy interface {
	Detect(gray *image.Gray) []Region
	Name() string
}

// Detector finds text regions, discards those below a minimum area, and
// merges overlapping survivors until a fixpoint.
type Detector struct {
	strategy Strategy
	minArea  int
}

// NewDetector builds a detector over the given strategy. A nil strategy
// defaults to contour detection.
func NewDetector(strategy Strategy, minArea int) *Detector {
	if strategy == nil {
		strategy = ContourStrategy{}
	}
	return &Detector{strategy: strategy, minArea: minArea}
}

// Detect returns the merged candidate regions of gray in scan order
// (top-to-bottom, then left-to-right).
func (d *Detector) Detect(gray *image.Gray) []Region {
	raw := d.strategy.Detect(gray)

	// Area filter happens before merging so that speckle never inflates a
	// real region's bounds.
	kept := raw[:0]
	for _, r := range raw {
		if r.Area >= d.minArea {
			kept = append(kept, r)
		}
	}

	merged := Merge(kept)
	sortScanOrder(merged)
	return merged
}

// Merge iteratively combines any two regions whose overlap ratio exceeds
// the merge threshold, until no more merges occur. Running Merge on an
// already-merged list returns it unchanged.
func Merge(regions []Region) []Region {
	out := make([]Region, len(regions))
	copy(out, regions)

	for {
		mergedAny := false
		for i := 0; i < len(out) && !mergedAny; i++ {
			for j := i + 1; j < len(out); j++ {
				if overlapRatio(out[i].Bounds, out[j].Bounds) <= mergeThreshold {
					continue
				}
				union := out[i].Bounds.Union(out[j].Bounds)
				out[i] = Region{Bounds: union, Area: union.Dx() * union.Dy()}
				out = append(out[:j], out[j+1:]...)
				mergedAny = true
				break
			}
		}
		if !mergedAny {
			return out
		}
	}
}

// overlapRatio is the intersection area relative to the smaller box's
// area. This absorbs a small box into a large one even when the IoU
// against the union would be tiny.
func overlapRatio(a, b image.Rectangle) float64 {
	inter := a.Intersect(b)
	if inter.Empty() {
		return 0
	}
	areaA := a.Dx() * a.Dy()
	areaB := b.Dx() * b.Dy()
	smaller := areaA
	if areaB < smaller {
		smaller = areaB
	}
	if smaller == 0 {
		return 0
	}
	return float64(inter.Dx()*inter.Dy()) / float64(smaller)
}

func sortScanOrder(regions []Region) {
	sort.Slice(regions, func(i, j int) bool {
		// Rows within half a region height of each other count as the same
		// band, then left-to-right within the band.
		ri, rj := regions[i].Bounds, regions[j].Bounds
		band := ri.Dy()
		if rj.Dy() < band {
			band = rj.Dy()
		}
		if diff := ri.Min.Y - rj.Min.Y; diff > band/2 || diff < -band/2 {
			return ri.Min.Y < rj.Min.Y
		}
		return ri.Min.X < rj.Min.X
	})
}
