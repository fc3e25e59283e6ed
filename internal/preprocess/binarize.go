package preprocess

import "image"

// AdaptiveBinarize thresholds each pixel against the mean of its local
// block, which keeps text legible under uneven lighting where a global
// threshold washes out whole areas. blockSize must be odd; even or
// non-positive values are normalized. This is the most quality-sensitive
// stage of the pipeline and always runs last before morphology.
func AdaptiveBinarize(gray *image.Gray, blockSize int) *image.Gray {
	if blockSize < 3 {
		blockSize = 15
	}
	if blockSize%2 == 0 {
		blockSize++
	}

	bounds := gray.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	out := image.NewGray(bounds)
	if w == 0 || h == 0 {
		return out
	}

	integral := integralImage(gray)
	half := blockSize / 2

	// Local mean minus a small constant, the classic mean-C adaptive
	// threshold.
	const c = 7.0

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			x0, y0 := x-half, y-half
			x1, y1 := x+half, y+half
			if x0 < 0 {
				x0 = 0
			}
			if y0 < 0 {
				y0 = 0
			}
			if x1 >= w {
				x1 = w - 1
			}
			if y1 >= h {
				y1 = h - 1
			}

			area := float64((x1 - x0 + 1) * (y1 - y0 + 1))
			sum := integral[y1+1][x1+1] - integral[y0][x1+1] - integral[y1+1][x0] + integral[y0][x0]
			mean := float64(sum) / area

			px := gray.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y
			i := out.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)
			if float64(px) > mean-c {
				out.Pix[i] = 255
			} else {
				out.Pix[i] = 0
			}
		}
	}
	return out
}

// integralImage returns the (h+1)x(w+1) summed-area table of gray.
func integralImage(gray *image.Gray) [][]uint64 {
	bounds := gray.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	integral := make([][]uint64, h+1)
	for i := range integral {
		integral[i] = make([]uint64, w+1)
	}
	for y := 0; y < h; y++ {
		var rowSum uint64
		for x := 0; x < w; x++ {
			rowSum += uint64(gray.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y)
			integral[y+1][x+1] = integral[y][x+1] + rowSum
		}
	}
	return integral
}

// MorphClose removes speckle from a binary image with a 3x3 dilate
// followed by a 3x3 erode.
func MorphClose(bin *image.Gray) *image.Gray {
	return erode3(dilate3(bin))
}

// MorphOpen removes small foreground noise with a 3x3 erode followed by a
// 3x3 dilate.
func MorphOpen(bin *image.Gray) *image.Gray {
	return dilate3(erode3(bin))
}

// Text is dark-on-light after binarization, so dilation grows the dark
// foreground by taking the neighborhood minimum.
func dilate3(bin *image.Gray) *image.Gray {
	return neighborhood3(bin, func(best, v uint8) bool { return v < best })
}

func erode3(bin *image.Gray) *image.Gray {
	return neighborhood3(bin, func(best, v uint8) bool { return v > best })
}

func neighborhood3(bin *image.Gray, better func(best, v uint8) bool) *image.Gray {
	bounds := bin.Bounds()
	out := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			best := bin.GrayAt(x, y).Y
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if nx < bounds.Min.X || ny < bounds.Min.Y || nx >= bounds.Max.X || ny >= bounds.Max.Y {
						continue
					}
					if v := bin.GrayAt(nx, ny).Y; better(best, v) {
						best = v
					}
				}
			}
			out.Pix[out.PixOffset(x, y)] = best
		}
	}
	return out
}
