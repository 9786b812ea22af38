package annotate

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/wastesort/wastecam/internal/detector"
	"gocv.io/x/gocv"
)

func TestClassColor(t *testing.T) {
	if got := ClassColor(0); got != (color.RGBA{R: 0x04, G: 0x2A, B: 0xFF}) {
		t.Errorf("ClassColor(0) = %v, want 042AFF", got)
	}
	if ClassColor(3) != ClassColor(23) {
		t.Error("palette should cycle every 20 classes")
	}
	if ClassColor(-3) != ClassColor(3) {
		t.Error("negative class IDs should not panic and should map like positives")
	}
}

func TestTextColor(t *testing.T) {
	tests := []struct {
		name string
		bg   color.RGBA
		want color.RGBA
	}{
		{name: "dark blue", bg: hex(0x042AFF), want: white},
		{name: "near white", bg: hex(0xF3F3F3), want: black},
		{name: "cyan", bg: hex(0x00FFFF), want: black},
		{name: "navy", bg: hex(0x111F68), want: white},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := textColor(tt.bg); got != tt.want {
				t.Errorf("textColor(%v) = %v, want %v", tt.bg, got, tt.want)
			}
		})
	}
}

func TestAutoLineWidth(t *testing.T) {
	tests := []struct {
		w, h, ch int
		want     int
	}{
		{w: 640, h: 480, ch: 3, want: 2},
		{w: 1280, h: 720, ch: 3, want: 3},
		{w: 1920, h: 1080, ch: 3, want: 5},
		{w: 64, h: 48, ch: 3, want: 2},
	}

	for _, tt := range tests {
		if got := autoLineWidth(tt.w, tt.h, tt.ch); got != tt.want {
			t.Errorf("autoLineWidth(%d, %d, %d) = %d, want %d", tt.w, tt.h, tt.ch, got, tt.want)
		}
	}
}

func TestFontMetrics(t *testing.T) {
	if got := fontThickness(1); got != 1 {
		t.Errorf("fontThickness(1) = %d, want 1", got)
	}
	if got := fontThickness(3); got != 2 {
		t.Errorf("fontThickness(3) = %d, want 2", got)
	}
	if got := fontScale(3); got != 1 {
		t.Errorf("fontScale(3) = %v, want 1", got)
	}
}

func TestLabelPlacement(t *testing.T) {
	text := image.Pt(60, 12)

	tests := []struct {
		name       string
		box        image.Rectangle
		wantBg     image.Rectangle
		wantOrigin image.Point
	}{
		{
			name:       "above box when room",
			box:        image.Rect(100, 100, 200, 200),
			wantBg:     image.Rect(100, 85, 160, 100),
			wantOrigin: image.Pt(100, 98),
		},
		{
			name:       "inside box at top edge",
			box:        image.Rect(100, 5, 200, 200),
			wantBg:     image.Rect(100, 5, 160, 20),
			wantOrigin: image.Pt(100, 19),
		},
		{
			name:       "shifted left at right edge",
			box:        image.Rect(620, 100, 640, 200),
			wantBg:     image.Rect(580, 85, 640, 100),
			wantOrigin: image.Pt(580, 98),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bg, origin := labelPlacement(tt.box, text, 640)

			if bg != tt.wantBg {
				t.Errorf("background = %v, want %v", bg, tt.wantBg)
			}
			if origin != tt.wantOrigin {
				t.Errorf("origin = %v, want %v", origin, tt.wantOrigin)
			}
		})
	}
}

func TestNew_NegativeLineWidth(t *testing.T) {
	a := New(-4)
	if a.lineWidth != 0 {
		t.Errorf("lineWidth = %d, want 0 (auto)", a.lineWidth)
	}
}

func TestAnnotator_Draw_NoFrame(t *testing.T) {
	a := New(0)

	if err := a.Draw(nil, detector.SampleDetections()); !errors.Is(err, ErrNoFrame) {
		t.Errorf("Draw(nil) error = %v, want ErrNoFrame", err)
	}
	if err := a.DrawFPS(nil, 30); !errors.Is(err, ErrNoFrame) {
		t.Errorf("DrawFPS(nil) error = %v, want ErrNoFrame", err)
	}
}

func TestAnnotator_Draw(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	frame := blankFrame()
	defer frame.Close()

	a := New(0)
	if err := a.Draw(&frame, detector.SampleDetections()); err != nil {
		t.Fatalf("Draw() error = %v", err)
	}

	// A black frame should now have coloured pixels along the box edges.
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(frame, &gray, gocv.ColorBGRToGray)

	if gocv.CountNonZero(gray) == 0 {
		t.Error("Draw() left the frame untouched")
	}

	edge := frame.GetVecbAt(200, 40)
	want := ClassColor(0)
	if edge[0] != want.B || edge[1] != want.G || edge[2] != want.R {
		t.Errorf("left edge pixel BGR = %v, want %v", edge, want)
	}
}

func TestAnnotator_Draw_NoDetections(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	frame := blankFrame()
	defer frame.Close()

	if err := New(0).Draw(&frame, nil); err != nil {
		t.Fatalf("Draw() error = %v", err)
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(frame, &gray, gocv.ColorBGRToGray)

	if n := gocv.CountNonZero(gray); n != 0 {
		t.Errorf("Draw() with no detections changed %d pixels", n)
	}
}

func TestAnnotator_DrawFPS(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	frame := blankFrame()
	defer frame.Close()

	if err := New(0).DrawFPS(&frame, 29.97); err != nil {
		t.Fatalf("DrawFPS() error = %v", err)
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(frame, &gray, gocv.ColorBGRToGray)

	if gocv.CountNonZero(gray) == 0 {
		t.Error("DrawFPS() left the frame untouched")
	}
}

func blankFrame() gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 480, 640, gocv.MatTypeCV8UC3)
}
