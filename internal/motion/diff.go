package motion

// smartmaskSensitivityIncr is the per-pixel-per-frame increment applied to
// smartmask_buffer whenever the current event id differs from the previous
// one. This runs every frame the condition holds, not once per event
// despite the name suggesting otherwise.
const smartmaskSensitivityIncr = 5

// Policy selects which of the four difference-engine implementations runs,
// based on whether a fixed mask is configured and whether the smart mask
// is enabled.
type Policy int

const (
	PolicyNoMask Policy = iota
	PolicyFixedMask
	PolicySmartMask
	PolicyFixedAndSmartMask
)

// SelectPolicy picks the difference-engine policy for the given config.
func SelectPolicy(smartMaskSpeed int, hasFixedMask bool) Policy {
	switch {
	case smartMaskSpeed != 0 && hasFixedMask:
		return PolicyFixedAndSmartMask
	case smartMaskSpeed != 0:
		return PolicySmartMask
	case hasFixedMask:
		return PolicyFixedMask
	default:
		return PolicyNoMask
	}
}

// DiffResult carries the statistics produced by one differencing pass.
type DiffResult struct {
	Diffs      int
	DiffsNet   int // signed net count, |diffs_net| used for diffs_ratio
	DiffsRatio int
}

// Diff runs the difference engine selected by policy over a luma plane of
// motionSize pixels, writing the motion mask into out (luma only; Diff
// writes no chroma) and returning the pixel/ratio statistics.
//
// differentEvent indicates whether the current event id differs from the
// previous one, driving the smartmask_buffer increment.
func Diff(policy Policy, ref, newImg, out []byte, fixedMask []byte, smartmaskFinal []byte, smartmaskBuffer []int, noise, thresholdRatioChange int, differentEvent bool) DiffResult {
	var res DiffResult
	motionSize := len(newImg)

	for i := 0; i < motionSize; i++ {
		d := int(ref[i]) - int(newImg[i])

		if policy == PolicyFixedMask || policy == PolicyFixedAndSmartMask {
			if fixedMask != nil {
				d = d * int(fixedMask[i]) / 255
			}
		}

		if policy == PolicySmartMask || policy == PolicyFixedAndSmartMask {
			ad := d
			if ad < 0 {
				ad = -ad
			}
			if ad > noise {
				if differentEvent {
					smartmaskBuffer[i] += smartmaskSensitivityIncr
				}
				if smartmaskFinal[i] == 0 {
					d = 0
				}
			}
		}

		ad := d
		if ad < 0 {
			ad = -ad
		}
		if ad > noise {
			out[i] = newImg[i]
			res.Diffs++
			if d > thresholdRatioChange {
				res.DiffsNet++
			} else if d < -thresholdRatioChange {
				res.DiffsNet--
			}
		} else {
			out[i] = 0
		}
	}

	net := res.DiffsNet
	if net < 0 {
		net = -net
	}
	denom := res.Diffs
	if denom < 1 {
		denom = 1
	}
	res.DiffsRatio = net * 100 / denom
	return res
}

// FastPrecheck implements an "abort early" pre-check: step through the
// plane in strides of motionsize/10000 rounded up to the nearest odd
// number, and report whether diffs already exceed threshold/2/step — a
// true result means the caller should re-run the full Diff pass.
func FastPrecheck(ref, newImg []byte, noise, threshold int) bool {
	motionSize := len(newImg)
	step := motionSize / 10000
	if step < 1 {
		step = 1
	}
	if step%2 == 0 {
		step++
	}

	limit := threshold / 2 / step
	diffs := 0
	for i := 0; i < motionSize; i += step {
		d := int(ref[i]) - int(newImg[i])
		if d < 0 {
			d = -d
		}
		if d > noise {
			diffs++
			if diffs > limit {
				return true
			}
		}
	}
	return false
}
