package capture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"golang.org/x/image/draw"

	"motionplus/internal/frame"
)

// File is the file-drop capture variant: it polls a directory for new
// still images and yields them as frames, the fallback path grounded on
// netcam_ftp.c's pattern of retrieving camera snapshots dropped on disk by
// an external transfer process rather than a live connection.
type File struct {
	dir       string
	pollEvery time.Duration
	seen      map[string]bool
	lastPoll  time.Time
	width     int
	height    int
}

// NewFile builds a File source watching dir for new image files.
func NewFile(dir string, pollEvery time.Duration) *File {
	if pollEvery <= 0 {
		pollEvery = time.Second
	}
	return &File{dir: dir, pollEvery: pollEvery, seen: make(map[string]bool)}
}

func (f *File) Start(ctx context.Context, cfg *Config) error {
	if err := ValidateGeometry(cfg.Width, cfg.Height); err != nil {
		return err
	}
	f.width, f.height = cfg.Width, cfg.Height

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return fmt.Errorf("capture: read dir %s: %w", f.dir, err)
	}
	for _, e := range entries {
		f.seen[e.Name()] = true
	}
	return nil
}

func (f *File) Next(ctx context.Context, out *frame.Buf) Status {
	if time.Since(f.lastPoll) < f.pollEvery {
		return StatusNothingNew
	}
	f.lastPoll = time.Now()

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return StatusFatal
	}

	var fresh []string
	for _, e := range entries {
		if e.IsDir() || f.seen[e.Name()] {
			continue
		}
		fresh = append(fresh, e.Name())
	}
	if len(fresh) == 0 {
		return StatusNothingNew
	}
	sort.Strings(fresh)
	newest := fresh[len(fresh)-1]
	for _, n := range fresh {
		f.seen[n] = true
	}

	img, err := loadAndConvert(filepath.Join(f.dir, newest), f.width, f.height)
	if err != nil {
		return StatusNothingNew
	}
	normSize := f.width * f.height * 3 / 2
	out.EnsureSize(normSize, 0)
	copy(out.ImageNorm, img)
	return StatusSuccess
}

func (f *File) NoImage(out *frame.Buf, width, height int) {
	drawNoImage(out, width, height)
}

func (f *File) Close() error { return nil }

// loadAndConvert decodes a still image and converts/scales it to a
// width x height YUV420P buffer. Decoding formats beyond what the
// standard library registers is out of scope; image/jpeg and image/png
// cover the common snapshot formats these directories receive.
func loadAndConvert(path string, width, height int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	src, _, err := decodeRegistered(f)
	if err != nil {
		return nil, err
	}

	dst := newRGBAImage(width, height)
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	return rgbaToYUV420(dst, width, height), nil
}
