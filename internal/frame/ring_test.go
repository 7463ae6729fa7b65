package frame

import "testing"

type fakeWriter struct {
	processed []int
}

func (f *fakeWriter) ProcessNorm(b *Buf) error     { f.processed = append(f.processed, b.Diffs); return nil }
func (f *fakeWriter) PutImageNorm(b *Buf) error    { return nil }
func (f *fakeWriter) PutImageMotion(b *Buf) error  { return nil }
func (f *fakeWriter) PutImageExtpipe(b *Buf) error { return nil }

func TestRingSaveSavedInvariant(t *testing.T) {
	r := NewRing(4, PictureOff)
	b := r.AdvanceIn()
	b.Flags |= FlagSave
	b.Diffs = 7

	w := &fakeWriter{}
	if err := r.ProcessSaved(w); err != nil {
		t.Fatalf("ProcessSaved: %v", err)
	}

	got := r.Slot(r.OutIndex())
	if !got.Flags.Has(FlagSaved) {
		t.Fatal("expected FlagSaved to be set after ProcessSaved")
	}
	if len(w.processed) != 1 || w.processed[0] != 7 {
		t.Fatalf("expected exactly one processed frame with diffs=7, got %v", w.processed)
	}

	// Calling ProcessSaved again must not reprocess the same frame.
	if err := r.ProcessSaved(w); err != nil {
		t.Fatalf("second ProcessSaved: %v", err)
	}
	if len(w.processed) != 1 {
		t.Fatalf("expected no reprocessing of an already-SAVED frame, got %v", w.processed)
	}
}

func TestRingPrecapInclusion(t *testing.T) {
	r := NewRing(5, PictureOff)
	for i := 0; i < 3; i++ {
		r.AdvanceIn()
	}
	r.OrSaveAll()

	for i := r.OutIndex(); ; i = (i + 1) % r.Len() {
		if !r.Slot(i).Flags.Has(FlagSave) {
			t.Fatalf("slot %d missing FlagSave after OrSaveAll", i)
		}
		if i == r.InIndex() {
			break
		}
	}
}

func TestCountMotionTail(t *testing.T) {
	r := NewRing(6, PictureOff)
	pattern := []bool{true, false, true, true}
	for _, motion := range pattern {
		b := r.AdvanceIn()
		if motion {
			b.Flags |= FlagMotion
		}
	}

	if got := r.CountMotionTail(2); got != 2 {
		t.Fatalf("CountMotionTail(2) = %d, want 2 (last two frames both motion)", got)
	}
	if got := r.CountMotionTail(4); got != 3 {
		t.Fatalf("CountMotionTail(4) = %d, want 3", got)
	}
}

func TestPreviewPolicyBest(t *testing.T) {
	r := NewRing(4, PictureBest)
	diffs := []int{3, 9, 1}
	for _, d := range diffs {
		b := r.AdvanceIn()
		b.Flags |= FlagSave
		b.Diffs = d
	}

	if err := r.ProcessSaved(&fakeWriter{}); err != nil {
		t.Fatalf("ProcessSaved: %v", err)
	}

	b, ok := r.Preview()
	if !ok {
		t.Fatal("expected a preview candidate")
	}
	if b.Diffs != 9 {
		t.Fatalf("preview diffs = %d, want 9 (the highest)", b.Diffs)
	}

	if _, ok := r.Preview(); ok {
		t.Fatal("Preview should reset selection after being read")
	}
}

func TestResizeRequiresEmptyOrFullAtTail(t *testing.T) {
	r := NewRing(3, PictureOff)
	r.AdvanceIn()
	r.AdvanceIn()
	r.AdvanceIn()
	if err := r.Resize(5); err == nil {
		t.Fatal("expected Resize to reject a ring that is neither empty nor full-at-tail")
	}
}
