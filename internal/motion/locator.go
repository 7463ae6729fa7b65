package motion

import (
	"math"

	"motionplus/internal/frame"
)

// Locate computes the centre, bounding box, and per-axis standard
// deviations of the hot pixels in a binary-ish motion mask. It returns
// the located region and the hot-pixel count; count is 0 when no pixel
// in mask is set.
func Locate(mask []byte, width, height int) (frame.Location, int) {
	var loc frame.Location

	var sumX, sumY, count int64
	for y := 0; y < height; y++ {
		row := y * width
		for x := 0; x < width; x++ {
			if mask[row+x] != 0 {
				sumX += int64(x)
				sumY += int64(y)
				count++
			}
		}
	}
	if count == 0 {
		return loc, 0
	}

	cx := int(sumX / count)
	cy := int(sumY / count)
	loc.X, loc.Y = cx, cy

	var xdist, ydist int64
	for y := 0; y < height; y++ {
		row := y * width
		for x := 0; x < width; x++ {
			if mask[row+x] == 0 {
				continue
			}
			dx := int64(x - cx)
			if dx < 0 {
				dx = -dx
			}
			dy := int64(y - cy)
			if dy < 0 {
				dy = -dy
			}
			xdist += dx
			ydist += dy
		}
	}

	minX := cx - int(xdist*3/count)
	maxX := cx + int(xdist*3/count)
	minY := cy - int(ydist*3/count)
	maxY := cy + int(ydist*3/count)

	minX = clamp(minX, 0, width-1)
	maxX = clamp(maxX, 0, width-1)
	minY = clamp(minY, 0, height-1)
	maxY = clamp(maxY, 0, height-1)

	minX = alignEvenUp(minX)
	minY = alignEvenUp(minY)
	maxX = alignEvenDown(maxX)
	maxY = alignEvenDown(maxY)

	loc.MinX, loc.MaxX, loc.MinY, loc.MaxY = minX, maxX, minY, maxY
	loc.Width = maxX - minX
	loc.Height = maxY - minY

	var varX, varY float64
	for y := 0; y < height; y++ {
		row := y * width
		for x := 0; x < width; x++ {
			if mask[row+x] == 0 {
				continue
			}
			dx := float64(x - cx)
			dy := float64(y - cy)
			varX += dx * dx
			varY += dy * dy
		}
	}
	n := float64(count)
	loc.StdDevX = math.Sqrt(varX / n)
	loc.StdDevY = math.Sqrt(varY / n)

	loc.StdDevXY = stddevXY(mask, width, height, cx, cy, count)

	return loc, int(count)
}

// stddevXY computes the combined standard deviation of each hot pixel's
// Euclidean distance from the centre:
//
//	d = sqrt((x-cx)^2 + (y-cy)^2); stddev_xy = sqrt(sum((d-mean_d)^2)/(count-1))
func stddevXY(mask []byte, width, height, cx, cy int, count int64) float64 {
	if count < 2 {
		return 0
	}

	dists := make([]float64, 0, count)
	var sum float64
	for y := 0; y < height; y++ {
		row := y * width
		for x := 0; x < width; x++ {
			if mask[row+x] == 0 {
				continue
			}
			dx := float64(x - cx)
			dy := float64(y - cy)
			d := math.Sqrt(dx*dx + dy*dy)
			dists = append(dists, d)
			sum += d
		}
	}

	mean := sum / float64(len(dists))
	var sq float64
	for _, d := range dists {
		diff := d - mean
		sq += diff * diff
	}
	return math.Sqrt(sq / float64(count-1))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// alignEvenUp rounds a minimum bound up to the nearest even value, and
// alignEvenDown rounds a maximum bound down: together they shrink the
// bounding box in from both sides rather than shifting it.
func alignEvenUp(v int) int {
	return v + (v & 1)
}

func alignEvenDown(v int) int {
	return v - (v & 1)
}
