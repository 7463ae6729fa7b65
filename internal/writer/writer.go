// Package writer implements the frame.Writer write pipeline: picture
// output, motion-image output, and the movie muxers. The pipeline accepts
// a YUV420P frame with a timestamp and appends it to the current clip;
// the encoder itself is specified only at the interface level.
package writer

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"motionplus/internal/frame"
	"motionplus/internal/pathtmpl"
)

// PictureEncoder writes a single still image (JPEG or similar) to disk.
// Left as an interface: the concrete image codec is out of scope.
type PictureEncoder interface {
	EncodeJPEG(luma, cb, cr []byte, width, height int) ([]byte, error)
}

// MovieMuxer accepts one YUV420P frame with a timestamp and appends it to
// the currently open clip, or accepts a coded packet directly in
// passthrough mode. Implementing the muxer itself is out of scope; this
// interface is the boundary.
type MovieMuxer interface {
	PutFrame(img []byte, ts time.Time) error
	PutMotionFrame(img []byte, ts time.Time) error
}

// Config configures one camera's write pipeline.
type Config struct {
	Width, Height int

	PictureOutput       string
	PictureOutputMotion string

	TargetDir       string
	PictureFilename string
	MovieExtpipe    string
}

// Pipeline implements frame.Writer, driving the picture encoder, movie
// muxer, and (when configured) the extpipe subprocess adapter.
type Pipeline struct {
	cfg     Config
	picture PictureEncoder
	movie   MovieMuxer
	extpipe *ExtpipeWriter

	cameraID   int
	cameraName string
	eventNbr   int
}

// NewPipeline builds a write pipeline for one camera.
func NewPipeline(cfg Config, picture PictureEncoder, movie MovieMuxer, extpipe *ExtpipeWriter, cameraID int, cameraName string) *Pipeline {
	return &Pipeline{cfg: cfg, picture: picture, movie: movie, extpipe: extpipe, cameraID: cameraID, cameraName: cameraName}
}

// SetEventNbr updates the event number substituted into path templates.
func (p *Pipeline) SetEventNbr(n int) { p.eventNbr = n }

// ProcessNorm runs the picture_output policy: encode and write the frame
// as a still image if the policy says this frame qualifies. This method is
// called once per saved frame and only actually writes a file when
// PictureOutput is "on" (continuous still capture); the first/best/center
// policies instead pick a single frame per event, flushed once the event
// closes via WritePreview.
func (p *Pipeline) ProcessNorm(b *frame.Buf) error {
	if p.cfg.PictureOutput != "on" || p.picture == nil {
		return nil
	}
	return p.writePicture(b)
}

// WritePreview writes b as a still image unconditionally, for the
// first/best/center picture_output policies where only one frame per event
// is kept rather than every saved frame.
func (p *Pipeline) WritePreview(b *frame.Buf) error {
	if p.picture == nil {
		return nil
	}
	return p.writePicture(b)
}

func (p *Pipeline) writePicture(b *frame.Buf) error {
	lumaSize := p.cfg.Width * p.cfg.Height
	chromaSize := lumaSize / 4
	if len(b.ImageNorm) < lumaSize+2*chromaSize {
		return fmt.Errorf("writer: frame too small for %dx%d", p.cfg.Width, p.cfg.Height)
	}
	luma := b.ImageNorm[:lumaSize]
	cb := b.ImageNorm[lumaSize : lumaSize+chromaSize]
	cr := b.ImageNorm[lumaSize+chromaSize : lumaSize+2*chromaSize]

	data, err := p.picture.EncodeJPEG(luma, cb, cr, p.cfg.Width, p.cfg.Height)
	if err != nil {
		return fmt.Errorf("writer: encode jpeg: %w", err)
	}

	path, err := p.expandPath(p.cfg.PictureFilename, b)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("writer: mkdir %s: %w", filepath.Dir(path), err)
	}
	return os.WriteFile(path, data, 0o644)
}

func (p *Pipeline) expandPath(tmpl string, b *frame.Buf) (string, error) {
	vars := pathtmpl.Vars{
		CameraID:   p.cameraID,
		CameraName: p.cameraName,
		EventNbr:   p.eventNbr,
		Width:      p.cfg.Width,
		Height:     p.cfg.Height,
		Diffs:      b.Diffs,
	}
	rel, err := pathtmpl.Expand(tmpl, b.ImageTS, vars)
	if err != nil {
		return "", err
	}
	return filepath.Join(p.cfg.TargetDir, rel), nil
}

// PutImageNorm appends the frame to the primary movie muxer.
func (p *Pipeline) PutImageNorm(b *frame.Buf) error {
	if p.movie == nil {
		return nil
	}
	return p.movie.PutFrame(b.ImageNorm, b.ImageTS)
}

// PutImageMotion appends the frame's normal image to the motion movie
// muxer unless picture_output_motion is "off"; no separate motion image
// is passed.
func (p *Pipeline) PutImageMotion(b *frame.Buf) error {
	if p.cfg.PictureOutputMotion == "off" || p.movie == nil {
		return nil
	}
	return p.movie.PutMotionFrame(b.ImageNorm, b.ImageTS)
}

// PutImageExtpipe forwards the frame to the configured extpipe subprocess,
// when movie_extpipe names one.
func (p *Pipeline) PutImageExtpipe(b *frame.Buf) error {
	if p.extpipe == nil {
		return nil
	}
	return p.extpipe.Write(b.ImageNorm)
}

var _ frame.Writer = (*Pipeline)(nil)
