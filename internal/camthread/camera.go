// Package camthread runs the per-camera goroutine: a fixed ten-step
// iteration over capture, detection, tuning, overlay, the event FSM, and
// scheduled actions, then a frametiming sleep.
package camthread

import (
	"context"
	"fmt"
	"log"
	"time"

	"motionplus/internal/capture"
	"motionplus/internal/frame"
	"motionplus/internal/motion"
)

// DeviceStatus mirrors the camera-level open/closed/lost states.
type DeviceStatus int

const (
	DeviceClosed DeviceStatus = iota
	DeviceOpened
	DeviceLost
)

// Config holds the per-camera tunables the camera thread needs beyond
// detection (which owns its own motion.Config).
type Config struct {
	Device           string
	Width, Height    int
	FPS              int
	PreCapture       int
	PostCapture      int
	MinimumMotionFrames int
	EventGap         time.Duration
	MovieMaxTime     time.Duration
	DeviceTimeout    time.Duration
	EmulateMotion    bool
	SecondaryDetect  bool
}

// ActionFlags are the cross-thread signalled actions (SIGUSR1/SIGALRM
// translation, web control).
type ActionFlags struct {
	Snapshot   bool
	EventStop  bool
	Pause      bool
	RestartCam bool
}

// Hooks are the narrow side-effecting capabilities the camera thread calls
// into; concrete implementations live in internal/writer, internal/dbstub,
// internal/ptz, internal/scripts, internal/overlay, keeping camthread
// itself free of any single ecosystem dependency.
type Hooks struct {
	Writer          frame.Writer
	WritePreview    func(b *frame.Buf) error
	OnEventStart    func(eventNbr int)
	OnEventEnd      func(eventNbr int)
	CenterPTZ       func()
	SecondaryDetect func()
	DrawOverlay     func(b *frame.Buf, leftText, rightText string)
}

// Camera is one camera's capture/detect/record goroutine.
type Camera struct {
	name   string
	cfg    Config
	source capture.Source
	det    *motion.Detector
	ring   *frame.Ring
	hooks  Hooks
	log    *log.Logger

	device DeviceStatus

	detectingMotion bool
	eventStop       bool
	postcap         int
	eventCurrNbr    int
	eventPrevNbr    int
	lastMotionTime  time.Time
	movieStartTime  time.Time

	lastGoodImage []byte
	lostFrames    int

	shotsThisSecond int
	lastRateSecond  time.Time
	lastrate        int

	actions ActionFlags

	startupFramesLeft int
}

// New builds a Camera. ring must already be sized pre_capture +
// minimum_motion_frames.
func New(name string, cfg Config, source capture.Source, det *motion.Detector, ring *frame.Ring, hooks Hooks, logger *log.Logger) *Camera {
	if logger == nil {
		logger = log.Default()
	}
	return &Camera{
		name:              name,
		cfg:               cfg,
		source:            source,
		det:               det,
		ring:              ring,
		hooks:             hooks,
		log:               logger,
		startupFramesLeft: cfg.FPS, // one second of startup frames before emulate-motion/user-event fire
	}
}

// SetAction merges an externally-signalled action flag (from the
// supervisor or web control) into the camera's pending actions.
func (c *Camera) SetAction(a ActionFlags) {
	if a.Snapshot {
		c.actions.Snapshot = true
	}
	if a.EventStop {
		c.actions.EventStop = true
	}
	if a.Pause {
		c.actions.Pause = !c.actions.Pause
	}
	if a.RestartCam {
		c.actions.RestartCam = true
	}
}

// Run drives the camera thread until ctx is cancelled, executing the
// fixed ten-step iteration loop once per pass.
func (c *Camera) Run(ctx context.Context) error {
	if err := c.init(ctx); err != nil {
		return fmt.Errorf("camthread %s: init: %w", c.name, err)
	}
	defer c.source.Close()

	frameInterval := time.Second
	if c.cfg.FPS > 0 {
		frameInterval = time.Second / time.Duration(c.cfg.FPS)
	}

	for ctx.Err() == nil {
		start := time.Now()

		c.prepare()
		b := c.resetImages()
		c.captureStep(ctx, b)
		result := c.detectionStep(b)
		c.tuningStep(b, result)
		c.overlayStep(b)
		c.actionsStep(b, result)
		c.scheduleStep(b)

		c.frametiming(start, frameInterval)
	}
	return nil
}

// init opens the source and validates geometry, per step 1.
func (c *Camera) init(ctx context.Context) error {
	cfg := &capture.Config{Device: c.cfg.Device, Width: c.cfg.Width, Height: c.cfg.Height, FPS: c.cfg.FPS}
	if err := c.source.Start(ctx, cfg); err != nil {
		return err
	}
	c.device = DeviceOpened
	c.movieStartTime = time.Now()
	return nil
}

// prepare advances the monotonic rate clock, step 2.
func (c *Camera) prepare() {
	c.shotsThisSecond++
	now := time.Now()
	if now.Sub(c.lastRateSecond) >= time.Second {
		c.lastrate = c.shotsThisSecond
		c.det.SetLastRate(c.lastrate)
		c.shotsThisSecond = 0
		c.lastRateSecond = now
	}
}

// resetImages advances the ring write cursor, step 3.
func (c *Camera) resetImages() *frame.Buf {
	b := c.ring.AdvanceIn()
	b.Reset()
	b.ImageTS = time.Now()
	b.MonoTS = time.Now()
	return b
}

// captureStep runs the polymorphic capture call and the device-loss
// substitution rule of step 4.
func (c *Camera) captureStep(ctx context.Context, b *frame.Buf) {
	status := c.source.Next(ctx, b)
	switch status {
	case capture.StatusSuccess:
		c.lostFrames = 0
		c.device = DeviceOpened
		c.lastGoodImage = append(c.lastGoodImage[:0], b.ImageNorm...)
	default:
		c.lostFrames++
		timeoutFrames := int(c.cfg.DeviceTimeout.Seconds()) * maxInt(c.cfg.FPS, 1)
		if c.lostFrames <= timeoutFrames && len(c.lastGoodImage) == len(b.ImageNorm) {
			copy(b.ImageNorm, c.lastGoodImage)
		} else {
			c.source.NoImage(b, c.cfg.Width, c.cfg.Height)
			if c.lostFrames > timeoutFrames {
				c.device = DeviceLost
			}
		}
	}
}

// detectionStep runs the motion pipeline, step 5.
func (c *Camera) detectionStep(b *frame.Buf) motion.Result {
	if c.actions.Pause {
		return motion.Paused()
	}
	res := c.det.Detect(b.ImageNorm, c.detectingMotion != (c.eventCurrNbr == c.eventPrevNbr))
	b.Diffs = res.Diff.Diffs
	b.DiffsRaw = res.Diff.DiffsNet
	b.DiffsRatio = res.Diff.DiffsRatio
	b.Location = res.Location
	if res.Diff.Diffs > 0 {
		b.Flags |= frame.FlagMotion
	}
	return res
}

// tuningStep records the frame's distance from the motion centre, used by
// the preview selector; the tuning logic itself lives inside
// motion.Detector.Detect, matching step 6's ordering.
func (c *Camera) tuningStep(b *frame.Buf, res motion.Result) {
	b.CentDist = centreDistance(res.Location, c.cfg.Width, c.cfg.Height)
}

// overlayStep calls the DrawOverlay hook, if set, with empty left/right
// text, step 7; no text template is expanded here.
func (c *Camera) overlayStep(b *frame.Buf) {
	if c.hooks.DrawOverlay != nil {
		c.hooks.DrawOverlay(b, "", "")
	}
}

// actionsStep runs the event FSM, step 8.
func (c *Camera) actionsStep(b *frame.Buf, res motion.Result) {
	c.eventFSM(b)
}

// scheduleStep handles the snapshot action flag, step 9, by marking the
// frame for saving; timelapse, loopback and schedule checks are not done
// here.
func (c *Camera) scheduleStep(b *frame.Buf) {
	if c.actions.Snapshot {
		b.Flags |= frame.FlagSave
		c.actions.Snapshot = false
	}
}

// frametiming sleeps out the remainder of the configured frame interval,
// step 10.
func (c *Camera) frametiming(start time.Time, interval time.Duration) {
	elapsed := time.Since(start)
	if elapsed < interval {
		time.Sleep(interval - elapsed)
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func centreDistance(loc frame.Location, width, height int) int64 {
	dx := int64(loc.X - width/2)
	dy := int64(loc.Y - height/2)
	return dx*dx + dy*dy
}
