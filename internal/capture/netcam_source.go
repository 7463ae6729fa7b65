package capture

import (
	"context"

	"motionplus/internal/frame"
	"motionplus/internal/netcam"
)

// Netcam is the capture.Source wrapper over a netcam.Handler's published
// latest-image slot: the netcam handler runs in parallel and publishes
// frames into a latest-slot protected by a mutex, and capture() on a
// netcam source reads from that slot.
type Netcam struct {
	handler     *netcam.Handler
	lastIDSeen  int64
	width       int
	height      int
}

// NewNetcamSource wraps an already-running handler.
func NewNetcamSource(h *netcam.Handler) *Netcam {
	return &Netcam{handler: h}
}

func (n *Netcam) Start(ctx context.Context, cfg *Config) error {
	if err := ValidateGeometry(cfg.Width, cfg.Height); err != nil {
		return err
	}
	n.width, n.height = cfg.Width, cfg.Height
	return nil
}

func (n *Netcam) Next(ctx context.Context, out *frame.Buf) Status {
	id, ok := n.handler.Latest(out)
	if !ok {
		return StatusNothingNew
	}
	if id == n.lastIDSeen {
		return StatusNothingNew
	}
	n.lastIDSeen = id
	return StatusSuccess
}

func (n *Netcam) NoImage(out *frame.Buf, width, height int) {
	drawNoImage(out, width, height)
}

func (n *Netcam) Close() error { return nil }
