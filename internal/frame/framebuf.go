// Package frame owns the per-frame image buffer and the bounded ring used
// to stage pre-capture, in-motion, and post-capture frames for an event.
package frame

import "time"

// Flag is a bitset describing the role a frame plays in the event lifecycle.
type Flag uint8

const (
	// FlagTrigger marks the frame that caused an event to open or extend.
	FlagTrigger Flag = 1 << iota
	// FlagMotion marks a frame whose diff score exceeded threshold.
	FlagMotion
	// FlagSave marks a frame queued for the write pipeline.
	FlagSave
	// FlagSaved marks a frame the write pipeline has already consumed.
	FlagSaved
	// FlagPrecap marks a frame held only as pre-capture context.
	FlagPrecap
	// FlagPostcap marks a frame emitted during the post-capture tail.
	FlagPostcap
)

// Has reports whether all bits in want are set.
func (f Flag) Has(want Flag) bool { return f&want == want }

// Location describes where motion was found within a frame.
type Location struct {
	X, Y                   int
	MinX, MinY, MaxX, MaxY int
	Width, Height          int
	StdDevX, StdDevY       float64
	StdDevXY               float64
}

// Buf owns one YUV420P image plus its detection metadata. Buf is owned by
// the RingBuffer slot that holds it and is mutated only by the camera
// thread that produced it — no locking is required.
type Buf struct {
	ImageTS time.Time // wall-clock capture time
	MonoTS  time.Time // monotonic capture time, used for interval math
	Shot    int        // shot index within the current wall-clock second

	ImageNorm []byte // YUV420P at configured resolution, always present
	ImageHigh []byte // optional high-resolution YUV420P

	Diffs      int // count of pixels above noise
	DiffsRaw   int // raw signed diff count, pre-ratio
	DiffsRatio int // percent of net-signed diffs, [0,100]

	Location Location
	CentDist int64 // squared distance of centre from frame centre
	Labels   int   // total connected-component labels found

	Flags Flag
}

// Reset clears per-frame detection state while keeping the backing image
// buffers so they can be reused without reallocation.
func (b *Buf) Reset() {
	b.Diffs = 0
	b.DiffsRaw = 0
	b.DiffsRatio = 0
	b.Location = Location{}
	b.CentDist = 0
	b.Labels = 0
	b.Flags = 0
}

// EnsureSize grows ImageNorm/ImageHigh in place to the requested sizes,
// reusing the existing backing array when it is already large enough.
func (b *Buf) EnsureSize(normSize, highSize int) {
	if cap(b.ImageNorm) < normSize {
		b.ImageNorm = make([]byte, normSize)
	} else {
		b.ImageNorm = b.ImageNorm[:normSize]
	}
	if highSize <= 0 {
		b.ImageHigh = nil
		return
	}
	if cap(b.ImageHigh) < highSize {
		b.ImageHigh = make([]byte, highSize)
	} else {
		b.ImageHigh = b.ImageHigh[:highSize]
	}
}
