package capture

import (
	"context"
	"fmt"
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"

	"motionplus/internal/frame"
)

// V4L2 ioctl numbers and format constants, lifted from the kernel
// videodev2.h layout used throughout the capture community (the same
// constant set as thinkski's frameserver).
const (
	v4l2BufTypeVideoCapture = 1
	v4l2FieldNone           = 1
	v4l2MemoryMMAP          = 1
	v4l2PixFmtYUV420        = 0x32315559 // 'YU12'

	vidiocSFmt       = 0xc0cc5605
	vidiocReqbufs    = 0xc0145608
	vidiocQuerybuf   = 0xc0445609
	vidiocQbuf       = 0xc044560f
	vidiocDqbuf      = 0xc0445611
	vidiocStreamon   = 0x40045612
	vidiocStreamoff  = 0x40045613

	v4l2BufCount = 4
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

type v4l2RequestBuffers struct {
	count    uint32
	typ      uint32
	memory   uint32
	reserved [2]uint32
}

type v4l2Timecode struct {
	typ      uint32
	flags    uint32
	frames   uint8
	seconds  uint8
	minutes  uint8
	hours    uint8
	userbits [4]uint8
}

type v4l2Timeval struct {
	tvSec  uint32
	tvUsec uint32
}

type v4l2Buffer struct {
	index     uint32
	typ       uint32
	bytesused uint32
	flags     uint32
	field     uint32
	timestamp v4l2Timeval
	timecode  v4l2Timecode
	sequence  uint32
	memory    uint32
	offset    uint32
	length    uint32
	reserved2 uint32
	reserved  uint32
}

func v4l2Ioctl(fd int, req uintptr, arg unsafe.Pointer) error {
	_, _, errno := syscall.Syscall(syscall.SYS_IOCTL, uintptr(fd), req, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

// V4L2 is the raw Video4Linux2 capture backend, grounded on the
// VIDIOC_S_FMT -> REQBUFS -> QUERYBUF -> mmap -> QBUF -> STREAMON ->
// DQBUF/QBUF sequence.
type V4L2 struct {
	fd      int
	buffers [][]byte
	width   int
	height  int
}

func NewV4L2() *V4L2 { return &V4L2{fd: -1} }

func (v *V4L2) Start(ctx context.Context, cfg *Config) error {
	if err := ValidateGeometry(cfg.Width, cfg.Height); err != nil {
		return err
	}

	fd, err := unix.Open(cfg.Device, unix.O_RDWR|unix.O_NONBLOCK, 0)
	if err != nil {
		return fmt.Errorf("capture: open %s: %w", cfg.Device, err)
	}
	v.fd = fd

	pfmt := v4l2PixFormat{
		typ:         v4l2BufTypeVideoCapture,
		width:       uint32(cfg.Width),
		height:      uint32(cfg.Height),
		pixelformat: v4l2PixFmtYUV420,
		field:       v4l2FieldNone,
	}
	if err := v4l2Ioctl(fd, vidiocSFmt, unsafe.Pointer(&pfmt)); err != nil {
		unix.Close(fd)
		return fmt.Errorf("capture: VIDIOC_S_FMT: %w", err)
	}
	cfg.Width = int(pfmt.width)
	cfg.Height = int(pfmt.height)

	req := v4l2RequestBuffers{count: v4l2BufCount, typ: v4l2BufTypeVideoCapture, memory: v4l2MemoryMMAP}
	if err := v4l2Ioctl(fd, vidiocReqbufs, unsafe.Pointer(&req)); err != nil {
		unix.Close(fd)
		return fmt.Errorf("capture: VIDIOC_REQBUFS: %w", err)
	}

	v.buffers = make([][]byte, req.count)
	for i := uint32(0); i < req.count; i++ {
		buf := v4l2Buffer{typ: v4l2BufTypeVideoCapture, memory: v4l2MemoryMMAP, index: i}
		if err := v4l2Ioctl(fd, vidiocQuerybuf, unsafe.Pointer(&buf)); err != nil {
			unix.Close(fd)
			return fmt.Errorf("capture: VIDIOC_QUERYBUF: %w", err)
		}
		data, err := unix.Mmap(fd, int64(buf.offset), int(buf.length), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
		if err != nil {
			unix.Close(fd)
			return fmt.Errorf("capture: mmap buffer %d: %w", i, err)
		}
		v.buffers[i] = data

		if err := v4l2Ioctl(fd, vidiocQbuf, unsafe.Pointer(&buf)); err != nil {
			unix.Close(fd)
			return fmt.Errorf("capture: initial VIDIOC_QBUF %d: %w", i, err)
		}
	}

	typ := uint32(v4l2BufTypeVideoCapture)
	if err := v4l2Ioctl(fd, vidiocStreamon, unsafe.Pointer(&typ)); err != nil {
		unix.Close(fd)
		return fmt.Errorf("capture: VIDIOC_STREAMON: %w", err)
	}

	v.width, v.height = cfg.Width, cfg.Height
	return nil
}

func (v *V4L2) Next(ctx context.Context, out *frame.Buf) Status {
	fds := unix.FdSet{}
	fds.Bits[v.fd/64] |= 1 << (uint(v.fd) % 64)
	tv := unix.Timeval{Sec: 1}
	n, err := unix.Select(v.fd+1, &fds, nil, nil, &tv)
	if err != nil {
		return StatusFatal
	}
	if n == 0 {
		return StatusNothingNew
	}

	buf := v4l2Buffer{typ: v4l2BufTypeVideoCapture, memory: v4l2MemoryMMAP}
	if err := v4l2Ioctl(v.fd, vidiocDqbuf, unsafe.Pointer(&buf)); err != nil {
		return StatusFatal
	}

	normSize := v.width * v.height * 3 / 2
	out.EnsureSize(normSize, 0)
	copy(out.ImageNorm, v.buffers[buf.index][:buf.bytesused])

	if err := v4l2Ioctl(v.fd, vidiocQbuf, unsafe.Pointer(&buf)); err != nil {
		return StatusFatal
	}
	return StatusSuccess
}

func (v *V4L2) NoImage(out *frame.Buf, width, height int) {
	drawNoImage(out, width, height)
}

func (v *V4L2) Close() error {
	if v.fd < 0 {
		return nil
	}
	typ := uint32(v4l2BufTypeVideoCapture)
	v4l2Ioctl(v.fd, vidiocStreamoff, unsafe.Pointer(&typ))
	for _, b := range v.buffers {
		unix.Munmap(b)
	}
	err := unix.Close(v.fd)
	v.fd = -1
	return err
}

// drawNoImage fills a frame with the fixed mid-grey placeholder pattern
// used when a camera source produces no frame.
func drawNoImage(out *frame.Buf, width, height int) {
	normSize := width * height * 3 / 2
	out.EnsureSize(normSize, 0)
	lumaSize := width * height
	for i := 0; i < lumaSize; i++ {
		out.ImageNorm[i] = 0x80
	}
	for i := lumaSize; i < normSize; i++ {
		out.ImageNorm[i] = 0x80
	}
}
