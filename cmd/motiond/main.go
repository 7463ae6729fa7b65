// Command motiond is the capture->detect->record daemon entry point: it
// wires configuration, the supervisor, per-camera threads, the database,
// and web control together in a single cmd/ binary.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"motionplus/internal/camthread"
	"motionplus/internal/capture"
	"motionplus/internal/dbstub"
	"motionplus/internal/frame"
	"motionplus/internal/motion"
	"motionplus/internal/supervisor"
	"motionplus/internal/webctl"
)

func main() {
	dbPath := flag.String("db", "motiond.sqlite", "path to the sqlite event database")
	v4l2Device := flag.String("v4l2", "/dev/video0", "v4l2 capture device for the default camera")
	width := flag.Int("width", 640, "capture width")
	height := flag.Int("height", 480, "capture height")
	fps := flag.Int("fps", 5, "target frames per second")
	listenAddr := flag.String("listen", ":8080", "web control listen address")
	flag.Parse()

	logger := log.New(os.Stderr, "motiond: ", log.LstdFlags|log.Lmicroseconds)

	db, err := dbstub.Open(*dbPath)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	sup := supervisor.New(30*time.Second, logger)

	auth := webctl.NewAuthenticator("admin", mustDefaultHash(), []byte("change-me"), time.Hour)
	frameStore := newFrameStore()
	srv := webctl.NewServer(auth, sup, frameStore)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	camCfg := camthread.Config{
		Device:              *v4l2Device,
		Width:               *width,
		Height:              *height,
		FPS:                 *fps,
		PreCapture:          3,
		PostCapture:         10,
		MinimumMotionFrames: 1,
		EventGap:            30 * time.Second,
		MovieMaxTime:        10 * time.Minute,
		DeviceTimeout:       5 * time.Second,
	}

	detCfg := motion.Config{
		Width:             *width,
		Height:            *height,
		Noise:             32,
		Threshold:         1500,
		ThresholdMaximum:  *width * *height * 8 / 10,
		DespeckleRecipe:   "EedD",
	}

	det := motion.NewDetector(detCfg, nil)
	ring := frame.NewRing(camCfg.PreCapture+camCfg.MinimumMotionFrames, frame.PictureBest)
	source := capture.NewV4L2()

	hooks := camthread.Hooks{
		OnEventStart: func(eventNbr int) {
			if _, err := db.EventStart("cam0", eventNbr, time.Now()); err != nil {
				logger.Printf("event start: %v", err)
			}
		},
		OnEventEnd: func(eventNbr int) {
			if err := db.EventEnd("cam0", eventNbr, time.Now(), det.PreviousDiffs()); err != nil {
				logger.Printf("event end: %v", err)
			}
		},
	}

	cam := camthread.New("cam0", camCfg, source, det, ring, hooks, logger)
	sup.AddCamera(ctx, "cam0", cam)

	httpSrv := &http.Server{Addr: *listenAddr, Handler: srv.Mux()}
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Printf("web control server: %v", err)
		}
	}()
	go func() {
		<-ctx.Done()
		httpSrv.Close()
	}()

	go sup.Watchdog(ctx, 5*time.Second)

	sup.RunSignalLoop(ctx, func() {
		logger.Printf("SIGHUP received: restart_all requested (not yet wired to a config reload)")
	})

	logger.Printf("motiond shutting down")
}

func mustDefaultHash() string {
	h, err := webctl.HashPassword("motion")
	if err != nil {
		log.Fatalf("hash default password: %v", err)
	}
	return h
}

// frameStore is a minimal in-memory FrameSource. Nothing in this binary
// calls PublishJPEG, so LatestJPEG reports no frame for any camera.
type frameStore struct {
	latest map[string][]byte
}

func newFrameStore() *frameStore { return &frameStore{latest: make(map[string][]byte)} }

func (f *frameStore) LatestJPEG(camera string) ([]byte, bool) {
	b, ok := f.latest[camera]
	return b, ok
}

func (f *frameStore) PublishJPEG(camera string, jpeg []byte) { f.latest[camera] = jpeg }
