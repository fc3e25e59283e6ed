package region

import "image"

// ContourStrategy finds connected components of dark pixels and returns
// their bounding boxes. Fast and accurate on cleanly binarized input.
type ContourStrategy struct{}

func (ContourStrategy) Name() string { return "contour" }

func (ContourStrategy) Detect(gray *image.Gray) []Region {
	return componentBoxes(gray, darkCutoff)
}

// StabilityStrategy keeps only components whose bounding boxes persist
// across several binarization thresholds. More robust than plain contours
// on noisy or unevenly lit input, at roughly three times the cost.
type StabilityStrategy struct{}

func (StabilityStrategy) Name() string { return "blob-stability" }

// stabilityThresholds are the cutoffs a component must survive. A box
// counts as stable when a matching box (overlap ratio > 0.5 both ways)
// exists at every threshold.
var stabilityThresholds = []uint8{96, 128, 160}

func (StabilityStrategy) Detect(gray *image.Gray) []Region {
	perThreshold := make([][]Region, len(stabilityThresholds))
	for i, cutoff := range stabilityThresholds {
		perThreshold[i] = componentBoxes(gray, cutoff)
	}

	var stable []Region
	for _, candidate := range perThreshold[len(perThreshold)/2] {
		persists := true
		for i, boxes := range perThreshold {
			if i == len(perThreshold)/2 {
				continue
			}
			if !hasMatch(candidate, boxes) {
				persists = false
				break
			}
		}
		if persists {
			stable = append(stable, candidate)
		}
	}
	return stable
}

func hasMatch(candidate Region, boxes []Region) bool {
	for _, b := range boxes {
		inter := candidate.Bounds.Intersect(b.Bounds)
		if inter.Empty() {
			continue
		}
		interArea := inter.Dx() * inter.Dy()
		if candidate.Area > 0 && b.Area > 0 &&
			float64(interArea)/float64(candidate.Area) > 0.5 &&
			float64(interArea)/float64(b.Area) > 0.5 {
			return true
		}
	}
	return false
}

// componentBoxes labels 4-connected components of pixels darker than
// cutoff via iterative flood fill and returns their bounding boxes.
func componentBoxes(gray *image.Gray, cutoff uint8) []Region {
	bounds := gray.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return nil
	}

	visited := make([]bool, w*h)
	dark := func(x, y int) bool {
		return gray.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y < cutoff
	}

	var regions []Region
	var stack []image.Point

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := y*w + x
			if visited[idx] || !dark(x, y) {
				continue
			}

			minX, minY, maxX, maxY := x, y, x, y
			stack = append(stack[:0], image.Pt(x, y))
			visited[idx] = true

			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]

				if p.X < minX {
					minX = p.X
				}
				if p.X > maxX {
					maxX = p.X
				}
				if p.Y < minY {
					minY = p.Y
				}
				if p.Y > maxY {
					maxY = p.Y
				}

				for _, d := range [4]image.Point{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
					nx, ny := p.X+d.X, p.Y+d.Y
					if nx < 0 || ny < 0 || nx >= w || ny >= h {
						continue
					}
					nidx := ny*w + nx
					if visited[nidx] || !dark(nx, ny) {
						continue
					}
					visited[nidx] = true
					stack = append(stack, image.Pt(nx, ny))
				}
			}

			box := image.Rect(
				bounds.Min.X+minX, bounds.Min.Y+minY,
				bounds.Min.X+maxX+1, bounds.Min.Y+maxY+1,
			)
			regions = append(regions, Region{Bounds: box, Area: box.Dx() * box.Dy()})
		}
	}
	return regions
}
