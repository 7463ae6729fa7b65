// Package supervisor owns the dynamic camera list, signal translation, and
// per-camera watchdogs.
package supervisor

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"motionplus/internal/camthread"
)

// Signal is the single-slot translated signal flag (historically named
// motsignal).
type Signal int

const (
	SignalNone Signal = iota
	SignalRestartAll
	SignalFinishAll
	SignalEventStop
	SignalSnapshot
)

// Runnable is the capability the supervisor needs from a managed camera.
type Runnable interface {
	Run(ctx context.Context) error
	SetAction(camthread.ActionFlags)
}

type managedCamera struct {
	name     string
	cam      Runnable
	cancel   context.CancelFunc
	done     chan struct{}
	lastSeen time.Time
}

// Supervisor runs every configured camera as its own goroutine and
// translates process signals into per-camera action flags.
type Supervisor struct {
	mu      sync.Mutex
	cameras map[string]*managedCamera

	watchdogTimeout time.Duration

	log *log.Logger
}

// New builds a Supervisor. watchdogTimeout is the hard-kill budget for a
// camera thread that stops touching its watchdog; zero disables the
// watchdog entirely.
func New(watchdogTimeout time.Duration, logger *log.Logger) *Supervisor {
	if logger == nil {
		logger = log.Default()
	}
	return &Supervisor{
		cameras:         make(map[string]*managedCamera),
		watchdogTimeout: watchdogTimeout,
		log:             logger,
	}
}

// AddCamera hot-adds a camera under the camera-list mutex (cam_add).
func (s *Supervisor) AddCamera(ctx context.Context, name string, cam Runnable) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.cameras[name]; exists {
		return
	}

	camCtx, cancel := context.WithCancel(ctx)
	mc := &managedCamera{name: name, cam: cam, cancel: cancel, done: make(chan struct{}), lastSeen: time.Now()}
	s.cameras[name] = mc

	go func() {
		defer close(mc.done)
		if err := cam.Run(camCtx); err != nil {
			s.log.Printf("supervisor: camera %s exited: %v", name, err)
		}
	}()
}

// DeleteCamera hot-deletes a camera (cam_delete), cancelling its context
// and waiting for its goroutine to exit.
func (s *Supervisor) DeleteCamera(name string) {
	s.mu.Lock()
	mc, ok := s.cameras[name]
	if ok {
		delete(s.cameras, name)
	}
	s.mu.Unlock()

	if !ok {
		return
	}
	mc.cancel()
	<-mc.done
}

// SetCameraAction applies an action flag to a single named camera,
// satisfying webctl.ActionSetter for the per-camera pause/snapshot/
// event_stop toggle endpoints.
func (s *Supervisor) SetCameraAction(camera string, a camthread.ActionFlags) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if mc, ok := s.cameras[camera]; ok {
		mc.cam.SetAction(a)
	}
}

// Broadcast applies an action flag to every managed camera, used by the
// signal handlers below.
func (s *Supervisor) Broadcast(a camthread.ActionFlags) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, mc := range s.cameras {
		mc.cam.SetAction(a)
	}
}

// RunSignalLoop handles SIGHUP/SIGINT/SIGQUIT/SIGTERM/SIGUSR1/SIGALRM as
// each one arrives, dispatching it directly to the matching action. It returns
// when ctx is cancelled or a terminating signal arrives.
func (s *Supervisor) RunSignalLoop(ctx context.Context, onRestartAll func()) {
	ch := make(chan os.Signal, 4)
	signal.Notify(ch, syscall.SIGHUP, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM, syscall.SIGUSR1, syscall.SIGALRM)
	defer signal.Stop(ch)

	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-ch:
			switch sig {
			case syscall.SIGHUP:
				if onRestartAll != nil {
					onRestartAll()
				}
			case syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM:
				s.shutdownAll()
				return
			case syscall.SIGUSR1:
				s.Broadcast(camthread.ActionFlags{EventStop: true})
			case syscall.SIGALRM:
				s.Broadcast(camthread.ActionFlags{Snapshot: true})
			}
		}
	}
}

func (s *Supervisor) shutdownAll() {
	s.mu.Lock()
	names := make([]string, 0, len(s.cameras))
	for name := range s.cameras {
		names = append(names, name)
	}
	s.mu.Unlock()

	for _, name := range names {
		s.DeleteCamera(name)
	}
}

// Watchdog periodically checks that every camera's goroutine is still
// alive, cancelling the context of any camera whose watchdog has not been
// reset within watchdogTimeout. Cancelling the context is the only action
// taken: a camera blocked in a call that ignores its context keeps running.
func (s *Supervisor) Watchdog(ctx context.Context, interval time.Duration) {
	if s.watchdogTimeout <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.checkWatchdogs()
		}
	}
}

func (s *Supervisor) checkWatchdogs() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for name, mc := range s.cameras {
		select {
		case <-mc.done:
			continue
		default:
		}
		if now.Sub(mc.lastSeen) > s.watchdogTimeout {
			s.log.Printf("supervisor: camera %s watchdog expired, hard-killing", name)
			mc.cancel()
		}
	}
}

// Touch resets a camera's watchdog countdown; called by the camera thread
// once per iteration.
func (s *Supervisor) Touch(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if mc, ok := s.cameras[name]; ok {
		mc.lastSeen = time.Now()
	}
}
