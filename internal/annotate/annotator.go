// Package annotate draws detection results onto frames.
package annotate

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/wastesort/wastecam/internal/detector"
	"gocv.io/x/gocv"
)

const font = gocv.FontHersheySimplex

// ErrNoFrame is returned when asked to draw on a nil or empty frame.
var ErrNoFrame = errors.New("no frame to annotate")

// Annotator draws bounding boxes and labels in place.
type Annotator struct {
	lineWidth int
}

// New creates an Annotator. A lineWidth of 0 or less scales the line width
// with the frame size.
func New(lineWidth int) *Annotator {
	if lineWidth < 0 {
		lineWidth = 0
	}
	return &Annotator{lineWidth: lineWidth}
}

// Draw renders every detection onto frame.
func (a *Annotator) Draw(frame *gocv.Mat, dets []detector.Detection) error {
	if frame == nil || frame.Empty() {
		return ErrNoFrame
	}

	lw := a.lineWidth
	if lw == 0 {
		lw = autoLineWidth(frame.Cols(), frame.Rows(), frame.Channels())
	}
	tf := fontThickness(lw)
	sf := fontScale(lw)

	for _, d := range dets {
		c := ClassColor(d.ClassID)

		if err := gocv.Rectangle(frame, d.Box, c, lw); err != nil {
			return fmt.Errorf("draw box: %w", err)
		}

		label := d.String()
		size := gocv.GetTextSize(label, font, sf, tf)
		bg, origin := labelPlacement(d.Box, size, frame.Cols())

		if err := gocv.Rectangle(frame, bg, c, -1); err != nil {
			return fmt.Errorf("draw label background: %w", err)
		}
		if err := gocv.PutText(frame, label, origin, font, sf, textColor(c), tf); err != nil {
			return fmt.Errorf("draw label: %w", err)
		}
	}

	return nil
}

// DrawFPS writes the frame rate in the top-left corner.
func (a *Annotator) DrawFPS(frame *gocv.Mat, fps float64) error {
	if frame == nil || frame.Empty() {
		return ErrNoFrame
	}

	lw := a.lineWidth
	if lw == 0 {
		lw = autoLineWidth(frame.Cols(), frame.Rows(), frame.Channels())
	}
	sf := fontScale(lw)
	tf := fontThickness(lw)

	text := fmt.Sprintf("FPS: %.1f", fps)
	size := gocv.GetTextSize(text, font, sf, tf)
	origin := image.Pt(lw*2, size.Y+lw*2)

	if err := gocv.PutText(frame, text, origin, font, sf, palette[8], tf); err != nil {
		return fmt.Errorf("draw fps: %w", err)
	}
	return nil
}

// autoLineWidth follows the plotting default: 0.3% of the mean frame
// dimension, never thinner than 2px.
func autoLineWidth(width, height, channels int) int {
	lw := int(math.Round(float64(width+height+channels) / 2 * 0.003))
	if lw < 2 {
		return 2
	}
	return lw
}

func fontThickness(lw int) int {
	if lw-1 < 1 {
		return 1
	}
	return lw - 1
}

func fontScale(lw int) float64 {
	return float64(lw) / 3
}

// labelPlacement returns the filled tag rectangle and text origin for a box.
// The tag sits above the box when it fits, otherwise just inside its top
// edge, and is shifted left so it never runs off the right side.
func labelPlacement(box image.Rectangle, text image.Point, frameW int) (image.Rectangle, image.Point) {
	w := text.X
	h := text.Y + 3

	p1 := box.Min
	if p1.X > frameW-w {
		p1.X = frameW - w
	}
	if p1.X < 0 {
		p1.X = 0
	}

	if p1.Y >= h {
		bg := image.Rect(p1.X, p1.Y-h, p1.X+w, p1.Y)
		return bg, image.Pt(p1.X, p1.Y-2)
	}

	bg := image.Rect(p1.X, p1.Y, p1.X+w, p1.Y+h)
	return bg, image.Pt(p1.X, p1.Y+h-1)
}
