package supervisor

import (
	"context"
	"sync"
	"testing"
	"time"

	"motionplus/internal/camthread"
)

type fakeCamera struct {
	mu      sync.Mutex
	actions []camthread.ActionFlags
	done    chan struct{}
}

func newFakeCamera() *fakeCamera {
	return &fakeCamera{done: make(chan struct{})}
}

func (f *fakeCamera) Run(ctx context.Context) error {
	<-ctx.Done()
	close(f.done)
	return nil
}

func (f *fakeCamera) SetAction(a camthread.ActionFlags) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, a)
}

func (f *fakeCamera) lastAction() (camthread.ActionFlags, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.actions) == 0 {
		return camthread.ActionFlags{}, false
	}
	return f.actions[len(f.actions)-1], true
}

func TestAddAndDeleteCamera(t *testing.T) {
	s := New(0, nil)
	cam := newFakeCamera()
	ctx := context.Background()

	s.AddCamera(ctx, "cam0", cam)
	s.DeleteCamera("cam0")

	select {
	case <-cam.done:
	case <-time.After(time.Second):
		t.Fatal("expected the camera goroutine to exit after DeleteCamera")
	}
}

func TestSetCameraActionTargetsOnlyNamedCamera(t *testing.T) {
	s := New(0, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	camA := newFakeCamera()
	camB := newFakeCamera()
	s.AddCamera(ctx, "a", camA)
	s.AddCamera(ctx, "b", camB)

	s.SetCameraAction("a", camthread.ActionFlags{Snapshot: true})

	if a, ok := camA.lastAction(); !ok || !a.Snapshot {
		t.Fatal("expected camera a to receive the snapshot action")
	}
	if _, ok := camB.lastAction(); ok {
		t.Fatal("expected camera b to receive no action")
	}
}

func TestBroadcastAppliesToEveryCamera(t *testing.T) {
	s := New(0, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	camA := newFakeCamera()
	camB := newFakeCamera()
	s.AddCamera(ctx, "a", camA)
	s.AddCamera(ctx, "b", camB)

	s.Broadcast(camthread.ActionFlags{EventStop: true})

	for name, cam := range map[string]*fakeCamera{"a": camA, "b": camB} {
		if a, ok := cam.lastAction(); !ok || !a.EventStop {
			t.Fatalf("expected camera %s to receive the broadcast action", name)
		}
	}
}

func TestWatchdogKillsStaleCamera(t *testing.T) {
	s := New(20*time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cam := newFakeCamera()
	s.AddCamera(ctx, "cam0", cam)

	go s.Watchdog(ctx, 5*time.Millisecond)

	select {
	case <-cam.done:
	case <-time.After(time.Second):
		t.Fatal("expected the watchdog to hard-kill a camera that never calls Touch")
	}
}

func TestTouchPreventsWatchdogKill(t *testing.T) {
	s := New(40*time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cam := newFakeCamera()
	s.AddCamera(ctx, "cam0", cam)

	stop := make(chan struct{})
	go func() {
		t := time.NewTicker(10 * time.Millisecond)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				s.Touch("cam0")
			}
		}
	}()
	go s.Watchdog(ctx, 5*time.Millisecond)

	select {
	case <-cam.done:
		close(stop)
		t.Fatal("expected Touch to keep the watchdog from killing an active camera")
	case <-time.After(150 * time.Millisecond):
		close(stop)
	}
}
