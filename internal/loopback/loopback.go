// Package loopback writes decoded frames to a v4l2loopback device node so
// external tools (a browser, a second capture pipeline) can consume the
// live feed, matching the video_pipe/video_pipe_motion configuration option.
//
// The legacy VIDIOCGPICT/VIDIOCSWIN ioctls a v4l1 writer would issue are
// specific to the long-obsolete v4l1 API and have no v4l2loopback
// equivalent worth carrying forward, so only the format negotiation and
// write path are kept.
package loopback

import (
	"fmt"
	"sync"
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	v4l2BufTypeVideoOutput = 2
	v4l2FieldNone          = 1
	v4l2PixFmtYUV420       = 0x32315559

	vidiocSFmt = 0xc0cc5605
)

type v4l2PixFormat struct {
	typ          uint32
	width        uint32
	height       uint32
	pixelformat  uint32
	field        uint32
	bytesperline uint32
	sizeimage    uint32
	colorspace   uint32
	priv         uint32
}

// Writer holds an open v4l2loopback output device.
type Writer struct {
	mu            sync.Mutex
	fd            int
	width, height int
}

// Open opens device and negotiates a YUV420 output format at width x
// height. An empty device path disables loopback writing entirely
// (Write/Close become no-ops), matching the "-" autoselect convention
// falling back to "off" when no loopback device is configured.
func Open(device string, width, height int) (*Writer, error) {
	if device == "" {
		return &Writer{fd: -1}, nil
	}

	fd, err := unix.Open(device, unix.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("loopback: open %s: %w", device, err)
	}

	pfmt := v4l2PixFormat{
		typ:         v4l2BufTypeVideoOutput,
		width:       uint32(width),
		height:      uint32(height),
		pixelformat: v4l2PixFmtYUV420,
		field:       v4l2FieldNone,
	}
	if _, _, errno := syscall.Syscall(syscall.SYS_IOCTL, uintptr(fd), uintptr(vidiocSFmt), uintptr(unsafe.Pointer(&pfmt))); errno != 0 {
		unix.Close(fd)
		return nil, fmt.Errorf("loopback: VIDIOC_S_FMT on %s: %w", device, errno)
	}

	return &Writer{fd: fd, width: width, height: height}, nil
}

// Write pushes one YUV420P frame to the loopback device.
func (w *Writer) Write(img []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fd < 0 {
		return nil
	}
	_, err := unix.Write(w.fd, img)
	if err != nil {
		return fmt.Errorf("loopback: write: %w", err)
	}
	return nil
}

// Close releases the device, if one is open.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fd < 0 {
		return nil
	}
	err := unix.Close(w.fd)
	w.fd = -1
	return err
}
