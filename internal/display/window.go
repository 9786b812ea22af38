// Package display shows frames in a desktop window and polls the keyboard.
package display

import (
	"errors"
	"sync"

	"gocv.io/x/gocv"
)

// DefaultTitle is the window title used when none is configured.
const DefaultTitle = "YOLOv8 Webcam Detection"

// QuitKey stops the detection loop.
const QuitKey = 'q'

// NoKey is returned by PollKey when nothing was pressed.
const NoKey = -1

// ErrClosed is returned when showing a frame on a closed display.
var ErrClosed = errors.New("display is closed")

// Display defines the interface for frame sinks that can report keypresses.
type Display interface {
	// Show renders frame. The frame is not retained.
	Show(frame *gocv.Mat) error

	// PollKey waits up to delayMs milliseconds for a keypress and returns
	// its code, or NoKey.
	PollKey(delayMs int) int

	// IsOpen reports whether the display can still show frames.
	IsOpen() bool

	// Close destroys the display.
	Close() error
}

// IsQuitKey reports whether a raw key code from PollKey matches quit.
// Only the low byte is compared since some platforms set modifier bits.
func IsQuitKey(key int, quit rune) bool {
	if key < 0 {
		return false
	}
	return key&0xFF == int(quit)
}

// window is a Display backed by an OpenCV HighGUI window.
type window struct {
	win    *gocv.Window
	mu     sync.Mutex
	closed bool
}

// NewWindow opens a window with the given title.
func NewWindow(title string) Display {
	if title == "" {
		title = DefaultTitle
	}
	return &window{win: gocv.NewWindow(title)}
}

func (w *window) Show(frame *gocv.Mat) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}
	if frame == nil || frame.Empty() {
		return nil
	}

	return w.win.IMShow(*frame)
}

func (w *window) PollKey(delayMs int) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return NoKey
	}
	return w.win.WaitKey(delayMs)
}

// IsOpen returns false once the user closes the window from the window manager.
// HighGUI reports a destroyed window as not visible.
func (w *window) IsOpen() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || !w.win.IsOpen() {
		return false
	}
	return w.win.GetWindowProperty(gocv.WindowPropertyVisible) >= 1
}

func (w *window) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	if !w.win.IsOpen() {
		return nil
	}
	return w.win.Close()
}
