package motion

// ThresholdTuneLength is the sliding window size for threshold auto-tune.
const ThresholdTuneLength = 5

// NoiseTune implements the noise auto-tune: only called when not in
// motion and diffs <= threshold. It sums |ref-new|+1 and a pixel count
// across pixels where smartmaskFinal != 0, then derives a new noise floor.
// Applying NoiseTune twice with identical inputs yields the same result
// since it is a pure function of its inputs.
func NoiseTune(ref, newImg []byte, smartmaskFinal []byte, currentNoise int) int {
	sum := 0
	count := 0
	for i := range newImg {
		if smartmaskFinal != nil && smartmaskFinal[i] == 0 {
			continue
		}
		d := int(ref[i]) - int(newImg[i])
		if d < 0 {
			d = -d
		}
		sum += d + 1
		count++
	}

	if count <= 3 {
		return currentNoise
	}

	mean := sum / (count / 3)
	return 4 + (currentNoise+mean)/2
}

// ThresholdTuner maintains the sliding window used by threshold auto-tune.
type ThresholdTuner struct {
	window [ThresholdTuneLength]int
	pos    int
}

// Tune records the current diffs observation (or threshold/4 when motion
// was detected) and returns the new threshold:
//
//	overwrite current window entry; sum/(len/4), clamp to >= 2*max(window);
//	if below configured threshold, new threshold = (threshold + sum) / 2.
func (t *ThresholdTuner) Tune(diffs int, motionDetected bool, configuredThreshold int) int {
	entry := diffs
	if motionDetected {
		entry = configuredThreshold / 4
	}
	t.window[t.pos] = entry
	t.pos = (t.pos + 1) % len(t.window)

	sum := 0
	max := 0
	for _, v := range t.window {
		sum += v
		if v > max {
			max = v
		}
	}

	candidate := sum / (len(t.window) / 4)
	floor := 2 * max
	if candidate < floor {
		candidate = floor
	}

	if candidate < configuredThreshold {
		return (configuredThreshold + sum) / 2
	}
	return configuredThreshold
}

// LightswitchResult reports whether a light-switch event fired.
type LightswitchResult struct {
	Triggered  bool
	FrameSkip  int
}

// Lightswitch implements light-switch suppression: if diffs exceeds
// motionsize*percent/100, the caller should skip frameSkip frames,
// zero diffs, and reset the reference frame.
func Lightswitch(diffs, motionSize, percent, frames int) LightswitchResult {
	if percent <= 0 {
		return LightswitchResult{}
	}
	if diffs > motionSize*percent/100 {
		return LightswitchResult{Triggered: true, FrameSkip: frames}
	}
	return LightswitchResult{}
}

// MicroLightswitch implements the secondary micro-light-switch check:
// triggers a reset() when current diffs are within 1/15 of previous
// and the motion centre has moved by less than width/150 and height/150
// within a 2-second window.
func MicroLightswitch(diffs, prevDiffs, dx, dy, width, height int, elapsedSeconds float64) bool {
	if elapsedSeconds > 2 {
		return false
	}
	if prevDiffs == 0 {
		return false
	}
	delta := diffs - prevDiffs
	if delta < 0 {
		delta = -delta
	}
	if delta > prevDiffs/15 {
		return false
	}
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	return dx < width/150 && dy < height/150
}

// SmartmaskTuner owns the decaying per-pixel sensitivity map that drives
// the alg_tune_smartmask decay/accumulate cadence.
type SmartmaskTuner struct {
	Decay  []byte // smartmask: decay buffer, 0..80
	Final  []byte // smartmask_final: 0 (blocked) or 255 (passing)
	Buffer []int  // smartmask_buffer: per-pixel accumulator

	Ratio int // smartmask_ratio: tune every N frames
	Speed int // smartmask_speed: 0 disables, 1..10 decay rate
	count int // frames remaining until next tune
}

// NewSmartmaskTuner allocates a tuner for motionSize pixels.
func NewSmartmaskTuner(motionSize, speed, ratio int) *SmartmaskTuner {
	t := &SmartmaskTuner{
		Decay:  make([]byte, motionSize),
		Final:  make([]byte, motionSize),
		Buffer: make([]int, motionSize),
		Ratio:  ratio,
		Speed:  speed,
	}
	for i := range t.Final {
		t.Final[i] = 255
	}
	return t
}

// Tune runs one smartmask tuning pass if this frame's countdown has
// expired: decay each pixel by 1 (floor 0), fold in the accumulated buffer
// scaled by sensitivity = lastrate*(11-speed), clamp to [0,80], re-derive
// Final (blocked once > 20), then erode9+erode5 the final mask to remove
// single-pixel sensitivity islands.
func (t *SmartmaskTuner) Tune(width, height, lastrate int) {
	if t.Speed == 0 {
		return
	}
	if t.count > 0 {
		t.count--
		return
	}

	sensitivity := lastrate * (11 - t.Speed)
	if sensitivity <= 0 {
		sensitivity = 1
	}

	for i := range t.Decay {
		if t.Decay[i] > 0 {
			t.Decay[i]--
		}

		diff := t.Buffer[i] / sensitivity
		if diff != 0 {
			if int(t.Decay[i])+diff <= 80 {
				t.Decay[i] = byte(int(t.Decay[i]) + diff)
			} else {
				t.Decay[i] = 80
			}
			t.Buffer[i] %= sensitivity
		}

		if t.Decay[i] > 20 {
			t.Final[i] = 0
		} else {
			t.Final[i] = 255
		}
	}

	scratch := make([]byte, 3*width)
	erode(t.Final, width, height, scratch, shapeSquare)
	erode(t.Final, width, height, scratch, shapeDiamond)

	t.count = t.Ratio
}
