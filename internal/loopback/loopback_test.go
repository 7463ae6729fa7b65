package loopback

import "testing"

func TestOpenWithEmptyDeviceDisablesWriting(t *testing.T) {
	w, err := Open("", 640, 480)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := w.Write(make([]byte, 640*480*3/2)); err != nil {
		t.Fatalf("Write on a disabled loopback writer must be a no-op, got: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close on a disabled loopback writer must be a no-op, got: %v", err)
	}
}

func TestCloseIsIdempotentWhenDisabled(t *testing.T) {
	w, err := Open("", 320, 240)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
