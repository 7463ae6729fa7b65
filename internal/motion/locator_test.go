package motion

import "testing"

func TestLocateCentredSquare(t *testing.T) {
	width, height := 20, 20
	mask := make([]byte, width*height)

	for y := 8; y <= 11; y++ {
		for x := 8; x <= 11; x++ {
			mask[y*width+x] = 255
		}
	}

	loc, count := Locate(mask, width, height)
	if count != 16 {
		t.Fatalf("expected 16 hot pixels, got %d", count)
	}
	if loc.X < 8 || loc.X > 11 || loc.Y < 8 || loc.Y > 11 {
		t.Fatalf("centre (%d,%d) should fall within the blob", loc.X, loc.Y)
	}
	if loc.MinX > loc.X || loc.MaxX < loc.X {
		t.Fatalf("bounding box [%d,%d] should contain centre x=%d", loc.MinX, loc.MaxX, loc.X)
	}
	if loc.MinX%2 != 0 || loc.MaxX%2 != 0 {
		t.Fatal("bounding box edges must be aligned even")
	}
}

func TestLocateEmptyMask(t *testing.T) {
	width, height := 10, 10
	mask := make([]byte, width*height)
	_, count := Locate(mask, width, height)
	if count != 0 {
		t.Fatalf("expected count=0 for an all-zero mask, got %d", count)
	}
}

func TestAlignEvenShrinksFromBothSides(t *testing.T) {
	if got := alignEvenUp(5); got != 6 {
		t.Fatalf("alignEvenUp(5) = %d, want 6", got)
	}
	if got := alignEvenDown(9); got != 8 {
		t.Fatalf("alignEvenDown(9) = %d, want 8", got)
	}
	if got := alignEvenUp(6); got != 6 {
		t.Fatalf("alignEvenUp(6) = %d, want 6 (already even)", got)
	}
	if got := alignEvenDown(8); got != 8 {
		t.Fatalf("alignEvenDown(8) = %d, want 8 (already even)", got)
	}
}
