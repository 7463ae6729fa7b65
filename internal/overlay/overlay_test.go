package overlay

import (
	"image/color"
	"testing"
)

func TestDrawBoxOutlinesRectangle(t *testing.T) {
	width, height := 20, 20
	luma := make([]byte, width*height)

	DrawBox(luma, width, height, 5, 5, 10, 10, 255)

	if luma[5*width+5] != 255 {
		t.Fatal("expected the top-left corner to be set")
	}
	if luma[10*width+10] != 255 {
		t.Fatal("expected the bottom-right corner to be set")
	}
	if luma[7*width+7] != 0 {
		t.Fatal("expected the box interior to remain untouched")
	}
}

func TestDrawBoxClampsToBounds(t *testing.T) {
	width, height := 10, 10
	luma := make([]byte, width*height)
	// A box that runs off the edges should not panic or corrupt memory.
	DrawBox(luma, width, height, -5, -5, 50, 50, 255)
}

func TestDrawTextWritesIntoLumaPlane(t *testing.T) {
	width, height := 80, 40
	luma := make([]byte, width*height)

	DrawText(luma, width, height, 5, 15, "hi")

	found := false
	for _, v := range luma {
		if v != 0 {
			found = true
			break
		}
	}
	if !found {
		t.Fatal("expected DrawText to modify at least one luma byte")
	}
}

func TestLumaImageSetGet(t *testing.T) {
	width, height := 4, 4
	img := &lumaImage{pix: make([]byte, width*height), width: width, height: height}

	img.Set(2, 2, color.Gray{Y: 200})
	got := color.GrayModel.Convert(img.At(2, 2)).(color.Gray)
	if got.Y != 200 {
		t.Fatalf("At(2,2).Y = %d, want 200", got.Y)
	}
}
