package motion

import "fmt"

// maxLabelFloodDepth bounds the explicit segment stack used by the
// connected-component labeler.
const maxLabelFloodDepth = 10000

// aboveThresholdMarker is added to a label id to mark "this blob's area
// exceeded the configured threshold". Labels never reach this value on
// their own; label() stops assigning new labels before reaching it
// instead of silently wrapping.
const aboveThresholdMarker = 32768

// DespeckleResult carries the output of running a despeckle recipe.
type DespeckleResult struct {
	Diffs         int // labelgroup_max if nonzero, else largest sub-threshold label size
	LabelSizeMax  int
	LargestLabel  int
	TotalLabels   int
	LabelsAbove   int
}

// segment is one row-span of an as-yet-unflooded region, used by the
// explicit-stack flood fill in place of recursion.
type segment struct {
	y, xl, xr, dy int
}

// Despeckle applies recipe (a string over {E,e,D,d,l}) in order to img, an
// 8-bit motion mask of width*height pixels. Erode and dilate work from a
// full-size copy of img. 'l' (labeling) must be last if present.
func Despeckle(recipe string, img []byte, width, height int, threshold int) (DespeckleResult, error) {
	scratch := make([]byte, 3*width)
	var result DespeckleResult

	for idx, op := range recipe {
		switch op {
		case 'E':
			erode(img, width, height, scratch, shapeSquare)
		case 'e':
			erode(img, width, height, scratch, shapeDiamond)
		case 'D':
			dilate(img, width, height, scratch, shapeSquare)
		case 'd':
			dilate(img, width, height, scratch, shapeDiamond)
		case 'l':
			if idx != len([]rune(recipe))-1 {
				return result, fmt.Errorf("motion: despeckle recipe %q: 'l' must be last", recipe)
			}
			result = label(img, width, height, threshold)
		default:
			return result, fmt.Errorf("motion: despeckle recipe %q: unknown operator %q", recipe, op)
		}
	}
	return result, nil
}

// shape picks the structuring element erode/dilate scan around a pixel,
// excluding the pixel itself.
type shape int

const (
	shapeSquare  shape = iota // full 3x3 block, all 8 neighbours ('E'/'D')
	shapeDiamond              // 4-connected cross, radius 1 ('e'/'d')
)

func (s shape) offsets() [][2]int {
	if s == shapeDiamond {
		return [][2]int{{0, -1}, {0, 1}, {-1, 0}, {1, 0}}
	}
	return [][2]int{
		{-1, -1}, {0, -1}, {1, -1},
		{-1, 0}, {1, 0},
		{-1, 1}, {0, 1}, {1, 1},
	}
}

// erode keeps a set pixel only if every neighbour in its structuring
// element is also set; a neighbour off the edge of the image counts as
// unset, so border pixels never survive. shapeSquare requires unanimous
// agreement across the full 3x3 block ('E'); shapeDiamond requires it
// only across the 4-connected cross ('e').
func erode(img []byte, width, height int, scratch []byte, s shape) {
	out := make([]byte, len(img))
	offsets := s.offsets()
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			idx := y*width + x
			if img[idx] == 0 {
				continue
			}
			survives := true
			for _, o := range offsets {
				nx, ny := x+o[0], y+o[1]
				if nx < 0 || nx >= width || ny < 0 || ny >= height || img[ny*width+nx] == 0 {
					survives = false
					break
				}
			}
			if survives {
				out[idx] = img[idx]
			}
		}
	}
	copy(img, out)
	_ = scratch
}

// dilate sets a pixel if it or any neighbour in its structuring element is
// set. shapeSquare looks at the full 3x3 block ('D'); shapeDiamond only
// at the 4-connected cross ('d').
func dilate(img []byte, width, height int, scratch []byte, s shape) {
	out := make([]byte, len(img))
	offsets := s.offsets()
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			idx := y*width + x
			if img[idx] != 0 {
				out[idx] = img[idx]
				continue
			}
			for _, o := range offsets {
				nx, ny := x+o[0], y+o[1]
				if nx >= 0 && nx < width && ny >= 0 && ny < height && img[ny*width+nx] != 0 {
					out[idx] = 255
					break
				}
			}
		}
	}
	copy(img, out)
	_ = scratch
}

// label performs 4-connected flood-fill connected-component labeling using
// an explicit stack of row segments. Labels are tracked in a
// separate int plane, never written back into the 8-bit motion mask, since
// label ids plus the aboveThresholdMarker offset can exceed a byte's range.
// Labels start at 2; labels whose area exceeds threshold are re-flooded to
// label+32768 to mark "above threshold", and their areas accumulate into
// the returned Diffs (labelgroup_max).
func label(img []byte, width, height int, threshold int) DespeckleResult {
	var res DespeckleResult
	labels := make([]int, len(img))
	nextLabel := 2
	labelSize := make(map[int]int)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			idx := y*width + x
			if img[idx] == 0 || labels[idx] != 0 {
				continue
			}
			if nextLabel >= aboveThresholdMarker {
				break
			}
			area := floodFill(img, labels, width, height, x, y, nextLabel)
			if area == 0 {
				continue
			}
			labelSize[nextLabel] = area
			nextLabel++
		}
	}

	res.TotalLabels = nextLabel - 2
	maxUnder := 0

	for lbl, size := range labelSize {
		if size > threshold {
			res.LabelsAbove++
			reflood(labels, lbl, lbl+aboveThresholdMarker)
			res.Diffs += size
			if size > res.LabelSizeMax {
				res.LabelSizeMax = size
				res.LargestLabel = lbl
			}
		} else if size > maxUnder {
			maxUnder = size
		}
	}

	if res.Diffs == 0 {
		res.Diffs = maxUnder
	}

	return res
}

// floodFill fills the 4-connected region containing (x0,y0) with label id
// lbl in the labels plane using an explicit segment stack capped at
// maxLabelFloodDepth, returning the region's pixel count.
func floodFill(img []byte, labels []int, width, height, x0, y0, lbl int) int {
	stack := make([]segment, 0, 64)
	stack = append(stack, segment{y: y0, xl: x0, xr: x0, dy: 1})
	stack = append(stack, segment{y: y0, xl: x0, xr: x0, dy: -1})

	count := 0
	depth := 0

	for len(stack) > 0 && depth < maxLabelFloodDepth {
		depth++
		seg := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		y := seg.y
		if y < 0 || y >= height {
			continue
		}

		xl := seg.xl
		for xl >= 0 && img[y*width+xl] != 0 && labels[y*width+xl] == 0 {
			xl--
		}
		xl++

		xr := seg.xr
		for xr < width && img[y*width+xr] != 0 && labels[y*width+xr] == 0 {
			xr++
		}
		xr--

		if xl > xr {
			continue
		}

		for x := xl; x <= xr; x++ {
			idx := y * width
			if labels[idx+x] != 0 {
				continue
			}
			labels[idx+x] = lbl
			count++
		}

		stack = append(stack, segment{y: y + seg.dy, xl: xl, xr: xr, dy: seg.dy})
		stack = append(stack, segment{y: y - seg.dy, xl: xl, xr: xr, dy: -seg.dy})
	}

	return count
}

// reflood rewrites every entry carrying label `from` to `to` in the labels
// plane.
func reflood(labels []int, from, to int) {
	for i := range labels {
		if labels[i] == from {
			labels[i] = to
		}
	}
}
