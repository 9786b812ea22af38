package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/wastesort/wastecam/internal/display"
	"gocv.io/x/gocv"
)

// Stats counts what a run processed.
type Stats struct {
	Frames       int
	Detections   int
	DetectErrors int
	Elapsed      time.Duration
}

// FPS returns the mean frame rate over the run.
func (s Stats) FPS() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.Frames) / s.Elapsed.Seconds()
}

// stopReason says why the loop ended.
type stopReason int

const (
	keepGoing stopReason = iota
	stopQuitKey
	stopWindowClosed
	stopReadFailed
	stopCancelled
)

func (r stopReason) String() string {
	switch r {
	case stopQuitKey:
		return "quit key"
	case stopWindowClosed:
		return "window closed"
	case stopReadFailed:
		return "read failed"
	case stopCancelled:
		return "cancelled"
	default:
		return "running"
	}
}

// Run opens the camera and processes frames until a read fails, the quit key
// is pressed, the window is closed or ctx is cancelled. The camera is always
// released before the display is destroyed.
func (a *App) Run(ctx context.Context) error {
	prevPrefix := log.Prefix()
	log.SetPrefix(fmt.Sprintf("[%s] ", shortID(a.runID)))
	defer log.SetPrefix(prevPrefix)

	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("%w: %w", ErrCameraOpen, err)
	}

	var disp display.Display
	defer func() {
		if err := a.camera.Close(); err != nil {
			log.Printf("Error closing camera: %v", err)
		}
		if disp != nil {
			if err := disp.Close(); err != nil {
				log.Printf("Error closing display: %v", err)
			}
		}
	}()

	if a.openDisplay != nil {
		disp = a.openDisplay()
	}

	fmt.Fprintln(a.out, MsgRunning)

	a.mu.Lock()
	a.stats = Stats{}
	a.mu.Unlock()

	start := time.Now()
	reason := keepGoing
	for reason == keepGoing {
		select {
		case <-ctx.Done():
			reason = stopCancelled
			continue
		default:
		}

		reason = a.step(disp, start)
	}

	a.mu.Lock()
	a.stats.Elapsed = time.Since(start)
	stats := a.stats
	a.mu.Unlock()

	log.Printf("Stopped (%s): %d frames, %d detections, %d detector errors in %s (%.1f FPS)",
		reason, stats.Frames, stats.Detections, stats.DetectErrors,
		stats.Elapsed.Round(time.Millisecond), stats.FPS())
	return nil
}

// step handles one frame.
func (a *App) step(disp display.Display, start time.Time) stopReason {
	frame, err := a.camera.ReadFrame()
	if err != nil {
		fmt.Fprintln(a.out, MsgGrabFailed)
		log.Printf("Error reading frame: %v", err)
		return stopReadFailed
	}
	defer frame.Close()

	a.process(frame, start)

	if disp == nil {
		return keepGoing
	}

	if err := disp.Show(frame); err != nil {
		if errors.Is(err, display.ErrClosed) {
			return stopWindowClosed
		}
		log.Printf("Error showing frame: %v", err)
	}

	if display.IsQuitKey(disp.PollKey(PollDelayMs), display.QuitKey) {
		return stopQuitKey
	}
	if !disp.IsOpen() {
		return stopWindowClosed
	}
	return keepGoing
}

// process runs detection on frame and draws the results in place. A
// detector failure leaves the frame unannotated.
func (a *App) process(frame *gocv.Mat, start time.Time) {
	dets, err := a.detector.Detect(frame)

	a.mu.Lock()
	a.stats.Frames++
	if err != nil {
		a.stats.DetectErrors++
	} else {
		a.stats.Detections += len(dets)
	}
	fps := Stats{Frames: a.stats.Frames, Elapsed: time.Since(start)}.FPS()
	a.mu.Unlock()

	if err != nil {
		log.Printf("Error detecting objects: %v", err)
		return
	}

	if err := a.annotator.Draw(frame, dets); err != nil {
		log.Printf("Error drawing detections: %v", err)
	}
	if a.showFPS {
		if err := a.annotator.DrawFPS(frame, fps); err != nil {
			log.Printf("Error drawing FPS: %v", err)
		}
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
