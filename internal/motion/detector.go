package motion

import "motionplus/internal/frame"

// Config holds the per-camera detection tunables.
type Config struct {
	Width, Height      int
	Noise              int
	NoiseTune          bool
	Threshold          int
	ThresholdMaximum   int
	ThresholdTune      bool
	ThresholdRatio     int
	ThresholdRatioChange int
	SmartMaskSpeed     int
	SmartMaskRatio     int
	LightswitchPercent int
	LightswitchFrames  int
	StaticObjectTime   int
	DespeckleRecipe    string
}

// Detector wires the reference frame, difference engine, despeckle pass,
// tuning, and locator into the single per-frame call the camera thread
// makes during its detection()/tuning() steps.
type Detector struct {
	cfg Config

	ref       *Reference
	smartmask *SmartmaskTuner
	thresh    ThresholdTuner
	fixedMask []byte
	motionOut []byte

	lastrate       int
	previousDiffs  int
	previousLoc    frame.Location
	frameSkip      int
}

// NewDetector allocates a Detector for a camera of the given geometry.
func NewDetector(cfg Config, fixedMask []byte) *Detector {
	motionSize := cfg.Width * cfg.Height
	normSize := motionSize * 3 / 2
	d := &Detector{
		cfg:       cfg,
		ref:       NewReference(normSize, motionSize),
		fixedMask: fixedMask,
		motionOut: make([]byte, motionSize),
	}
	if cfg.SmartMaskSpeed != 0 {
		d.smartmask = NewSmartmaskTuner(motionSize, cfg.SmartMaskSpeed, cfg.SmartMaskRatio)
	}
	return d
}

// ResetReference seeds the reference frame from a virgin capture. Callers
// require ref==imageVirgin and ref_dyn==0 afterward, which Reference.Reset
// guarantees directly.
func (d *Detector) ResetReference(imageVirgin []byte) {
	d.ref.Reset(imageVirgin)
}

// Result carries everything the camera thread's tuning() step needs after
// one Detect call.
type Result struct {
	Diff      DiffResult
	Despeckle DespeckleResult
	Location  frame.Location
	LocatedN  int
	Lightswitch LightswitchResult
}

// Detect runs one full detection iteration: optional frame-skip
// bookkeeping, the difference engine, despeckle, and (when diffs land
// between threshold and thresholdMaximum) locate + stddev, in the order
// the camera thread's per-iteration detection/tuning steps expect.
func (d *Detector) Detect(imageVirgin []byte, differentEvent bool) Result {
	var res Result

	if d.frameSkip > 0 {
		d.frameSkip--
		return res
	}

	policy := SelectPolicy(d.cfg.SmartMaskSpeed, d.fixedMask != nil)

	var smartmaskFinal []byte
	var smartmaskBuffer []int
	if d.smartmask != nil {
		smartmaskFinal = d.smartmask.Final
		smartmaskBuffer = d.smartmask.Buffer
	}

	ls := Lightswitch(d.previousDiffs, d.cfg.Width*d.cfg.Height, d.cfg.LightswitchPercent, d.cfg.LightswitchFrames)
	if ls.Triggered {
		d.frameSkip = ls.FrameSkip
		d.ResetReference(imageVirgin)
		d.previousDiffs = 0
		res.Lightswitch = ls
		return res
	}

	res.Diff = Diff(policy, d.ref.Y, imageVirgin, d.motionOut, d.fixedMask, smartmaskFinal, smartmaskBuffer, d.cfg.Noise, d.cfg.ThresholdRatioChange, differentEvent)

	if d.cfg.DespeckleRecipe != "" {
		var err error
		res.Despeckle, err = Despeckle(d.cfg.DespeckleRecipe, d.motionOut, d.cfg.Width, d.cfg.Height, d.cfg.Threshold)
		if err == nil && res.Despeckle.Diffs > 0 {
			res.Diff.Diffs = res.Despeckle.Diffs
		}
	}

	if d.cfg.NoiseTune && res.Diff.Diffs <= d.cfg.Threshold {
		d.cfg.Noise = NoiseTune(d.ref.Y, imageVirgin, smartmaskFinal, d.cfg.Noise)
	}

	motionDetected := res.Diff.Diffs > d.cfg.Threshold
	if d.cfg.ThresholdTune {
		d.cfg.Threshold = d.thresh.Tune(res.Diff.Diffs, motionDetected, d.cfg.Threshold)
	}

	if res.Diff.Diffs > d.cfg.Threshold && res.Diff.Diffs < d.cfg.ThresholdMaximum {
		loc, n := Locate(d.motionOut, d.cfg.Width, d.cfg.Height)
		res.Location = loc
		res.LocatedN = n
	}

	if d.smartmask != nil {
		d.smartmask.Tune(d.cfg.Width, d.cfg.Height, d.lastrate)
	}

	d.ref.Update(imageVirgin, d.motionOut, smartmaskFinal, d.cfg.Noise, d.lastrate, d.cfg.StaticObjectTime)

	d.previousDiffs = res.Diff.Diffs
	d.previousLoc = res.Location

	return res
}

// SetLastRate updates the measured frame rate used by reference-frame
// acceptance timing and smartmask sensitivity.
func (d *Detector) SetLastRate(rate int) { d.lastrate = rate }

// MotionMask returns the binary motion mask produced by the most recent
// Detect call.
func (d *Detector) MotionMask() []byte { return d.motionOut }

// PreviousDiffs returns the diffs count recorded by the previous Detect
// call (zero after a light-switch), used by the light-switch check.
func (d *Detector) PreviousDiffs() int { return d.previousDiffs }

// PreviousLocation returns the location recorded by the previous Detect
// call.
func (d *Detector) PreviousLocation() frame.Location { return d.previousLoc }

// Paused returns a zero Result, used by the camera thread when the camera
// is paused.
func Paused() Result { return Result{} }
