package camthread

import (
	"time"

	"motionplus/internal/frame"
)

// eventFSM drives the per-camera event state machine: triggering,
// post-trigger countdown, emulate_motion events, and event-end closing,
// plus the mid-event movie_max_time rotation guard.
func (c *Camera) eventFSM(b *frame.Buf) {
	now := time.Now()

	triggered := c.cfg.MinimumMotionFrames > 0 &&
		c.ring.CountMotionTail(c.cfg.MinimumMotionFrames) >= c.cfg.MinimumMotionFrames

	userEvent := c.startupFramesLeft <= 0 && c.cfg.EmulateMotion

	if c.startupFramesLeft > 0 {
		c.startupFramesLeft--
	}

	switch {
	case triggered || userEvent:
		b.Flags |= frame.FlagTrigger | frame.FlagSave
		c.ring.OrSaveAll()
		if !c.detectingMotion {
			c.movieStartTime = now
			if c.hooks.OnEventStart != nil {
				c.hooks.OnEventStart(c.eventCurrNbr)
			}
		}
		c.postcap = c.cfg.PostCapture
		c.detectingMotion = true
		c.lastMotionTime = now

	case c.detectingMotion:
		c.postcap--
		if c.postcap > 0 {
			b.Flags |= frame.FlagPostcap | frame.FlagSave
		} else {
			b.Flags |= frame.FlagPrecap
			if c.cfg.EventGap == 0 {
				c.eventStop = true
			}
		}
	}

	if c.actions.EventStop {
		c.eventStop = true
		c.actions.EventStop = false
	}

	eventExpired := c.detectingMotion && c.cfg.EventGap > 0 && now.Sub(c.lastMotionTime) >= c.cfg.EventGap

	if (c.eventStop || eventExpired) && c.eventCurrNbr == c.eventPrevNbr {
		c.closeEvent()
	}

	if c.detectingMotion && c.cfg.MovieMaxTime > 0 {
		inTail := b.Flags.Has(frame.FlagPostcap) || b.Flags.Has(frame.FlagPrecap)
		if !inTail && now.Sub(c.movieStartTime) > c.cfg.MovieMaxTime {
			if c.hooks.OnEventEnd != nil {
				c.hooks.OnEventEnd(c.eventCurrNbr)
			}
			c.movieStartTime = now
			if c.hooks.OnEventStart != nil {
				c.hooks.OnEventStart(c.eventCurrNbr)
			}
		}
	}
}

// closeEvent flushes the ring, notifies hooks, and advances the event
// counters.
func (c *Camera) closeEvent() {
	if c.hooks.Writer != nil {
		c.ring.ProcessSaved(c.hooks.Writer)
	}
	if b, ok := c.ring.Preview(); ok && c.hooks.WritePreview != nil {
		c.hooks.WritePreview(b)
	}
	if c.hooks.OnEventEnd != nil {
		c.hooks.OnEventEnd(c.eventCurrNbr)
	}
	if c.hooks.CenterPTZ != nil {
		c.hooks.CenterPTZ()
	}
	if c.cfg.SecondaryDetect && c.hooks.SecondaryDetect != nil {
		c.hooks.SecondaryDetect()
	}

	c.eventCurrNbr++
	c.eventPrevNbr = c.eventCurrNbr
	c.detectingMotion = false
	c.eventStop = false
	c.postcap = 0
}
