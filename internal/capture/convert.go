package capture

import (
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
)

func decodeRegistered(r io.Reader) (image.Image, string, error) {
	return image.Decode(r)
}

func newRGBAImage(width, height int) *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, width, height))
}

// rgbaToYUV420 converts an RGBA image to planar YUV420P using the BT.601
// limited-range (studio swing) coefficients, matching the colour conversion applied when
// bridging still-image snapshots into the camera pipeline.
func rgbaToYUV420(img *image.RGBA, width, height int) []byte {
	lumaSize := width * height
	chromaW, chromaH := width/2, height/2
	out := make([]byte, lumaSize+2*chromaW*chromaH)

	rgbAt := func(x, y int) (r, g, b int) {
		o := img.PixOffset(x, y)
		return int(img.Pix[o]), int(img.Pix[o+1]), int(img.Pix[o+2])
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b := rgbAt(x, y)
			out[y*width+x] = clampByte((66*r + 129*g + 25*b + 128) >> 8 + 16)
		}
	}

	uStart := lumaSize
	vStart := lumaSize + chromaW*chromaH
	for cy := 0; cy < chromaH; cy++ {
		for cx := 0; cx < chromaW; cx++ {
			r, g, b := rgbAt(cx*2, cy*2)
			u := clampByte((-38*r-74*g+112*b+128)>>8 + 128)
			v := clampByte((112*r-94*g-18*b+128)>>8 + 128)
			out[uStart+cy*chromaW+cx] = u
			out[vStart+cy*chromaW+cx] = v
		}
	}

	return out
}

func clampByte(v int) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}
