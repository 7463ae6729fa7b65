// Package overlay draws diagnostic text and boxes onto a captured frame:
// masks in debug, diff counts, and left/right text templates.
package overlay

import (
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// DrawText renders label at (x, y) in luma the way a drawLabel helper
// stamps a caption onto an RGBA frame, adapted here to operate directly
// on a YUV420P luma plane so the camera thread never needs an
// RGBA round trip for something as cheap as a caption.
func DrawText(luma []byte, width, height, x, y int, label string) {
	if y < 10 {
		y = 10
	}
	if x < 0 {
		x = 0
	}

	img := &lumaImage{pix: luma, width: width, height: height}

	textWidth := len(label) * 7
	for dy := -2; dy < 12; dy++ {
		for dx := -2; dx < textWidth+2; dx++ {
			px, py := x+dx, y+dy
			if px >= 0 && px < width && py >= 0 && py < height {
				img.Set(px, py, color.Gray{Y: 0})
			}
		}
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Gray{Y: 255}),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y + 10)},
	}
	d.DrawString(label)
}

// DrawBox outlines a rectangle in luma, used to draw the located
// motion bounding box and the fixed-mask debug overlay.
func DrawBox(luma []byte, width, height, minX, minY, maxX, maxY int, v byte) {
	for x := minX; x <= maxX && x < width; x++ {
		setPixel(luma, width, height, x, minY, v)
		setPixel(luma, width, height, x, maxY, v)
	}
	for y := minY; y <= maxY && y < height; y++ {
		setPixel(luma, width, height, minX, y, v)
		setPixel(luma, width, height, maxX, y, v)
	}
}

func setPixel(luma []byte, width, height, x, y int, v byte) {
	if x < 0 || x >= width || y < 0 || y >= height {
		return
	}
	luma[y*width+x] = v
}

// lumaImage adapts a raw luma plane to image.Image/draw.Image so
// font.Drawer can write into it without an RGBA copy.
type lumaImage struct {
	pix    []byte
	width  int
	height int
}

func (l *lumaImage) ColorModel() color.Model { return color.GrayModel }
func (l *lumaImage) Bounds() image.Rectangle { return image.Rect(0, 0, l.width, l.height) }
func (l *lumaImage) At(x, y int) color.Color {
	if x < 0 || x >= l.width || y < 0 || y >= l.height {
		return color.Gray{}
	}
	return color.Gray{Y: l.pix[y*l.width+x]}
}
func (l *lumaImage) Set(x, y int, c color.Color) {
	if x < 0 || x >= l.width || y < 0 || y >= l.height {
		return
	}
	g := color.GrayModel.Convert(c).(color.Gray)
	l.pix[y*l.width+x] = g.Y
}
