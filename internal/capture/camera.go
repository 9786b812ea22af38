// Package capture provides frame sources backed by GoCV (OpenCV) video capture.
package capture

import (
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// Default capture settings
const (
	DefaultFPS    = 30
	DefaultWidth  = 640
	DefaultHeight = 480
)

var (
	// ErrCameraNotOpen is returned when trying to read from a source that is not open.
	ErrCameraNotOpen = errors.New("camera is not open")
	// ErrOpenFailed is returned when the capture device could not be opened.
	ErrOpenFailed = errors.New("could not open capture device")
	// ErrReadFailed is returned when a frame could not be grabbed.
	ErrReadFailed = errors.New("failed to grab frame")
)

// Camera defines the interface for frame sources.
type Camera interface {
	Open() error
	Close() error
	ReadFrame() (*gocv.Mat, error)
	SetFPS(fps int)
	FPS() int
	IsOpen() bool
}

// Option configures a capture source before it is opened.
type Option func(*cameraImpl)

// WithResolution requests a frame size from the device.
// Non-positive values leave the device default in place.
func WithResolution(width, height int) Option {
	return func(c *cameraImpl) {
		c.width = width
		c.height = height
	}
}

// WithFPS requests a capture frame rate.
func WithFPS(fps int) Option {
	return func(c *cameraImpl) {
		if fps > 0 {
			c.fps = fps
		}
	}
}

// cameraImpl manages video capture from a device index or a file using GoCV.
type cameraImpl struct {
	source  interface{}
	capture *gocv.VideoCapture
	mu      sync.Mutex
	running bool
	fps     int
	width   int
	height  int
}

// NewCamera creates a Camera for the given device index.
// The requested resolution defaults to 640x480.
func NewCamera(deviceID int, opts ...Option) Camera {
	c := &cameraImpl{
		source: deviceID,
		fps:    DefaultFPS,
		width:  DefaultWidth,
		height: DefaultHeight,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFileSource creates a Camera that plays back a video file.
// Resolution and FPS requests are not applied to files.
func NewFileSource(path string) Camera {
	return &cameraImpl{
		source: path,
		fps:    DefaultFPS,
	}
}

// Open opens the capture source.
func (c *cameraImpl) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	capture, err := gocv.OpenVideoCapture(c.source)
	if err != nil {
		if capture != nil {
			capture.Close()
		}
		return fmt.Errorf("%w: %v", ErrOpenFailed, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return fmt.Errorf("%w: %v", ErrOpenFailed, c.source)
	}

	if _, isDevice := c.source.(int); isDevice {
		if c.width > 0 && c.height > 0 {
			capture.Set(gocv.VideoCaptureFrameWidth, float64(c.width))
			capture.Set(gocv.VideoCaptureFrameHeight, float64(c.height))
		}
		capture.Set(gocv.VideoCaptureFPS, float64(c.fps))
	}

	c.capture = capture
	c.running = true

	return nil
}

// Close closes the capture source and releases resources.
func (c *cameraImpl) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		c.running = false
		return nil
	}

	err := c.capture.Close()
	c.capture = nil
	c.running = false

	return err
}

// ReadFrame reads a single frame.
// The caller is responsible for closing the returned Mat.
func (c *cameraImpl) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok {
		mat.Close()
		return nil, ErrReadFailed
	}

	if mat.Empty() {
		mat.Close()
		return nil, fmt.Errorf("%w: empty frame", ErrReadFailed)
	}

	return &mat, nil
}

// SetFPS sets the requested frames per second.
// Values less than or equal to 0 are ignored.
func (c *cameraImpl) SetFPS(fps int) {
	if fps <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.fps = fps

	if c.capture != nil {
		c.capture.Set(gocv.VideoCaptureFPS, float64(fps))
	}
}

// FPS returns the current frames per second setting.
func (c *cameraImpl) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.fps
}

// IsOpen returns true if the source is currently open.
func (c *cameraImpl) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.running
}
