package netcam

import (
	"context"
	"log"
	"sync"
	"time"

	"motionplus/internal/frame"
)

// Status reflects the connection state of a netcam handler.
type Status int

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
	StatusReconnecting
)

func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusReconnecting:
		return "reconnecting"
	default:
		return "disconnected"
	}
}

// Decoder is the narrow capability the handler needs from a coded-stream
// decoder: decode one packet into a YUV420P image at the handler's
// configured resolution. Left as an interface since the decode/encode
// libraries are specified only at the boundary.
type Decoder interface {
	Decode(packet []byte) (img []byte, isKey bool, pts, dts int64, err error)
}

// Connector opens the transport (RTSP/HTTP/etc) and yields raw coded
// packets. The handler bounds Connect and ReadPacket only through ctx
// deadlines, so a Connector must honor ctx cancellation promptly; one that
// ignores ctx is not interrupted.
type Connector interface {
	Connect(ctx context.Context) error
	ReadPacket(ctx context.Context) (packet []byte, streamIdx int, err error)
	Close() error
}

// Config configures one netcam handler.
type Config struct {
	URL         string
	Passthrough bool
	Width       int
	Height      int
	UseTCP      bool
	Keepalive   bool
}

const (
	timeoutConnect    = 5 * time.Second
	timeoutSteadyRead = 10 * time.Second
	timeoutOpen       = 20 * time.Second

	reconnectImmediateRetries = 100
	reconnectBackoff          = 10 * time.Second
)

// Handler is the per-network-camera decode/publish thread. One Handler is
// started per configured netcam, plus an additional one for a high-res
// companion stream.
type Handler struct {
	cfg       Config
	connector Connector
	decoder   Decoder
	ring      *PacketRing

	publishMu sync.Mutex
	imgLatest []byte
	idnbr     int64
	status    Status

	reconnectCount int

	log *log.Logger
}

// NewHandler builds a handler. decoder may be nil when cfg.Passthrough is
// true, since no decode is performed.
func NewHandler(cfg Config, connector Connector, decoder Decoder, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{
		cfg:       cfg,
		connector: connector,
		decoder:   decoder,
		ring:      NewPacketRing(),
		log:       logger,
	}
}

// Run drives the connect/decode/publish loop until ctx is cancelled. Its
// reconnect policy is 100 immediate retries, then a 10 s backoff,
// repeating, with an interrupt-callback-style soft timeout bounding
// every blocking transport call.
func (h *Handler) Run(ctx context.Context) {
	for ctx.Err() == nil {
		h.setStatus(StatusConnecting)
		if err := h.connectWithTimeout(ctx, timeoutOpen); err != nil {
			h.log.Printf("netcam %s: connect failed: %v", h.cfg.URL, err)
			h.setStatus(StatusReconnecting)
			if !h.backoff(ctx) {
				return
			}
			continue
		}

		h.reconnectCount = 0
		h.setStatus(StatusConnected)
		h.readLoop(ctx)

		if ctx.Err() != nil {
			return
		}
		h.setStatus(StatusReconnecting)
	}
}

// readLoop reads packets until a read fails or times out, then returns so
// Run can reconnect.
func (h *Handler) readLoop(ctx context.Context) {
	for {
		packet, streamIdx, err := h.readWithTimeout(ctx, timeoutSteadyRead)
		if err != nil {
			h.connector.Close()
			return
		}
		h.publish(packet, streamIdx)
	}
}

// connectWithTimeout calls Connector.Connect with a context whose deadline
// is budget from now. The deadline is the only bound: a Connect call that
// ignores its context is not interrupted.
func (h *Handler) connectWithTimeout(ctx context.Context, budget time.Duration) error {
	cctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()
	return h.connector.Connect(cctx)
}

func (h *Handler) readWithTimeout(ctx context.Context, budget time.Duration) ([]byte, int, error) {
	rctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()
	return h.connector.ReadPacket(rctx)
}

// backoff waits according to the reconnect policy, returning false if ctx
// was cancelled while waiting.
func (h *Handler) backoff(ctx context.Context) bool {
	h.reconnectCount++
	var wait time.Duration
	if h.reconnectCount <= reconnectImmediateRetries {
		wait = 0
	} else {
		wait = reconnectBackoff
	}
	if wait == 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// publish implements the three-step publish sequence: on passthrough,
// forward straight to the packet ring; otherwise decode (the Decoder
// delivers the configured resolution; no rescale is done here) and swap
// into the latest-image slot. Either way the
// publish mutex is held while incrementing idnbr and touching shared
// state, matching netcam.publish_mutex.
func (h *Handler) publish(packet []byte, streamIdx int) {
	h.publishMu.Lock()
	defer h.publishMu.Unlock()

	h.idnbr++

	if h.cfg.Passthrough {
		isKey, pts, dts := probeKeyAndPTS(packet)
		h.ring.Append(isKey, time.Now().UnixMicro(), pts, dts, streamIdx, packet)
		return
	}

	if h.decoder == nil {
		return
	}
	img, _, _, _, err := h.decoder.Decode(packet)
	if err != nil {
		h.log.Printf("netcam %s: decode: %v", h.cfg.URL, err)
		return
	}
	h.imgLatest = img
}

// probeKeyAndPTS is a placeholder extraction point: a concrete Connector
// implementation tags key frames and timestamps out of band (container
// demuxers expose this directly); absent that metadata this falls back to
// treating every packet as a key frame, which only costs ring efficiency,
// never correctness of the dump range.
func probeKeyAndPTS(packet []byte) (isKey bool, pts, dts int64) {
	return true, time.Now().UnixMicro(), time.Now().UnixMicro()
}

func (h *Handler) setStatus(s Status) {
	h.publishMu.Lock()
	h.status = s
	h.publishMu.Unlock()
}

// Status returns the handler's current connection state.
func (h *Handler) Status() Status {
	h.publishMu.Lock()
	defer h.publishMu.Unlock()
	return h.status
}

// Ring exposes the passthrough packet ring for the movie writer's dump
// pass.
func (h *Handler) Ring() *PacketRing { return h.ring }

// Latest copies the most recently published decoded image into out,
// reporting whether one was available. This is the latest-slot protected
// by a mutex that capture.Netcam reads from.
func (h *Handler) Latest(out *frame.Buf) (idnbr int64, ok bool) {
	h.publishMu.Lock()
	defer h.publishMu.Unlock()
	if h.imgLatest == nil {
		return 0, false
	}
	out.EnsureSize(len(h.imgLatest), 0)
	copy(out.ImageNorm, h.imgLatest)
	return h.idnbr, true
}
