package quality

import (
	"image"
	"image/draw"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Grayscale renders img into a fresh *image.Gray.
func Grayscale(img image.Image) *image.Gray {
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	draw.Draw(gray, bounds, img, bounds.Min, draw.Src)
	return gray
}

// LaplacianVariance measures edge response across the image. Low variance
// means few sharp transitions, i.e. a blurry image.
func LaplacianVariance(gray *image.Gray) float64 {
	bounds := gray.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width < 3 || height < 3 {
		return 0
	}

	data := make([]float64, 0, (width-2)*(height-2))

	// Laplacian kernel: [0, 1, 0; 1, -4, 1; 0, 1, 0]
	for y := bounds.Min.Y + 1; y < bounds.Max.Y-1; y++ {
		for x := bounds.Min.X + 1; x < bounds.Max.X-1; x++ {
			center := float64(gray.GrayAt(x, y).Y)
			top := float64(gray.GrayAt(x, y-1).Y)
			bottom := float64(gray.GrayAt(x, y+1).Y)
			left := float64(gray.GrayAt(x-1, y).Y)
			right := float64(gray.GrayAt(x+1, y).Y)

			data = append(data, -4*center+top+bottom+left+right)
		}
	}

	if len(data) == 0 {
		return 0
	}
	return stat.Variance(data, nil)
}

// ContrastSpread scores the histogram spread of the gray channel on a
// 0-100 scale. 100 means the 5th and 95th percentiles span the full
// intensity range.
func ContrastSpread(gray *image.Gray) float64 {
	bounds := gray.Bounds()
	total := bounds.Dx() * bounds.Dy()
	if total == 0 {
		return 0
	}

	var hist [256]int
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			hist[gray.GrayAt(x, y).Y]++
		}
	}

	p5 := percentile(hist[:], total, 0.05)
	p95 := percentile(hist[:], total, 0.95)
	return float64(p95-p5) / 255.0 * 100.0
}

func percentile(hist []int, total int, q float64) int {
	target := int(math.Ceil(q * float64(total)))
	cum := 0
	for v, n := range hist {
		cum += n
		if cum >= target {
			return v
		}
	}
	return len(hist) - 1
}

// Brightness returns the mean gray level (0-255).
func Brightness(gray *image.Gray) float64 {
	bounds := gray.Bounds()
	total := bounds.Dx() * bounds.Dy()
	if total == 0 {
		return 0
	}
	data := make([]float64, 0, total)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			data = append(data, float64(gray.GrayAt(x, y).Y))
		}
	}
	return stat.Mean(data, nil)
}

// EstimateSkew estimates the dominant text rotation by fitting a line
// through strong edge pixels. Returns nil when too few edges exist to fit.
func EstimateSkew(gray *image.Gray) *float64 {
	bounds := gray.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width < 3 || height < 3 {
		return nil
	}

	var xCoords, yCoords []float64
	for y := bounds.Min.Y + 1; y < bounds.Max.Y-1; y++ {
		for x := bounds.Min.X + 1; x < bounds.Max.X-1; x++ {
			gx := sobelX(gray, x, y)
			gy := sobelY(gray, x, y)
			if math.Sqrt(float64(gx*gx+gy*gy)) > 50 {
				xCoords = append(xCoords, float64(x))
				yCoords = append(yCoords, float64(y))
			}
		}
	}

	if len(xCoords) < 10 {
		return nil
	}
	angle := fitSkewAngle(xCoords, yCoords)
	return &angle
}

func sobelX(gray *image.Gray, x, y int) int {
	return -1*int(gray.GrayAt(x-1, y-1).Y) + 1*int(gray.GrayAt(x+1, y-1).Y) +
		-2*int(gray.GrayAt(x-1, y).Y) + 2*int(gray.GrayAt(x+1, y).Y) +
		-1*int(gray.GrayAt(x-1, y+1).Y) + 1*int(gray.GrayAt(x+1, y+1).Y)
}

func sobelY(gray *image.Gray, x, y int) int {
	return -1*int(gray.GrayAt(x-1, y-1).Y) - 2*int(gray.GrayAt(x, y-1).Y) - 1*int(gray.GrayAt(x+1, y-1).Y) +
		1*int(gray.GrayAt(x-1, y+1).Y) + 2*int(gray.GrayAt(x, y+1).Y) + 1*int(gray.GrayAt(x+1, y+1).Y)
}

func fitSkewAngle(xCoords, yCoords []float64) float64 {
	meanX := stat.Mean(xCoords, nil)
	meanY := stat.Mean(yCoords, nil)

	var sumXY, sumX2 float64
	for i := range xCoords {
		dx := xCoords[i] - meanX
		dy := yCoords[i] - meanY
		sumXY += dx * dy
		sumX2 += dx * dx
	}

	if math.Abs(sumX2) < 1e-10 {
		return 0
	}

	angle := math.Atan(sumXY/sumX2) * 180 / math.Pi
	if math.IsNaN(angle) || math.IsInf(angle, 0) {
		return 0
	}

	// Normalize angle to [-45, 45]
	for angle > 45 {
		angle -= 90
	}
	for angle < -45 {
		angle += 90
	}
	return angle
}
