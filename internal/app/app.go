// Package app runs the capture, detect, annotate and display loop.
package app

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/wastesort/wastecam/internal/annotate"
	"github.com/wastesort/wastecam/internal/capture"
	"github.com/wastesort/wastecam/internal/config"
	"github.com/wastesort/wastecam/internal/detector"
	"github.com/wastesort/wastecam/internal/display"
)

// User-facing messages printed to Output.
const (
	MsgRunning    = "Running YOLOv8... Press 'q' to quit."
	MsgGrabFailed = "Failed to grab frame."
	MsgOpenFailed = "Error: Could not open webcam."
)

// PollDelayMs is how long each iteration waits for a keypress.
const PollDelayMs = 1

// ErrCameraOpen is returned by Run when the video source cannot be opened.
var ErrCameraOpen = errors.New("could not open video source")

// Components holds the collaborators of an App.
type Components struct {
	Camera    capture.Camera
	Detector  detector.Detector
	Annotator *annotate.Annotator

	// OpenDisplay is called once the camera is open.
	OpenDisplay func() display.Display

	ShowFPS bool
	Output  io.Writer // defaults to os.Stdout
}

// App is a single detection session over one video source.
type App struct {
	camera      capture.Camera
	detector    detector.Detector
	annotator   *annotate.Annotator
	openDisplay func() display.Display
	showFPS     bool
	out         io.Writer

	runID string
	mu    sync.RWMutex
	stats Stats
}

// New creates an App from already constructed components.
func New(c Components) *App {
	out := c.Output
	if out == nil {
		out = os.Stdout
	}
	ann := c.Annotator
	if ann == nil {
		ann = annotate.New(0)
	}
	return &App{
		camera:      c.Camera,
		detector:    c.Detector,
		annotator:   ann,
		openDisplay: c.OpenDisplay,
		showFPS:     c.ShowFPS,
		out:         out,
		runID:       uuid.NewString(),
	}
}

// FromConfig builds the camera, detector, annotator and window described by cfg.
func FromConfig(cfg config.Config) (*App, error) {
	det, err := detector.NewYOLO(cfg.Detector())
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	if n := len(det.Labels()); n > 0 {
		log.Printf("Loaded model %s with %d class labels", cfg.ModelPath, n)
	} else {
		log.Printf("Loaded model %s without class labels", cfg.ModelPath)
	}

	var cam capture.Camera
	if cfg.Source != "" {
		cam = capture.NewFileSource(cfg.Source)
	} else {
		cam = capture.NewCamera(cfg.Device,
			capture.WithResolution(cfg.Width, cfg.Height),
			capture.WithFPS(cfg.FPS),
		)
	}

	title := cfg.Title
	return New(Components{
		Camera:      cam,
		Detector:    det,
		Annotator:   annotate.New(cfg.LineWidth),
		OpenDisplay: func() display.Display { return display.NewWindow(title) },
		ShowFPS:     cfg.ShowFPS,
	}), nil
}

// RunID returns the identifier used in this session's log lines.
func (a *App) RunID() string {
	return a.runID
}

// Stats returns a snapshot of the counters of the current or last run.
func (a *App) Stats() Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stats
}

// Close releases the detector.
func (a *App) Close() error {
	if a.detector == nil {
		return nil
	}
	return a.detector.Close()
}
