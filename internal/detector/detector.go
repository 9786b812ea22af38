// Package detector runs object detection models over video frames.
package detector

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

var (
	// ErrEmptyFrame is returned when Detect is called with a nil or empty frame.
	ErrEmptyFrame = errors.New("empty frame")
	// ErrModelNotFound is returned when the model file does not exist.
	ErrModelNotFound = errors.New("model file not found")
	// ErrUnexpectedOutput is returned when the network output does not have the YOLOv8 layout.
	ErrUnexpectedOutput = errors.New("unexpected model output shape")
)

// Detection is a single detected object in frame pixel coordinates.
type Detection struct {
	Box        image.Rectangle
	ClassID    int
	Label      string
	Confidence float32
}

// String formats the detection the way it is printed on the frame.
func (d Detection) String() string {
	return fmt.Sprintf("%s %.2f", d.Label, d.Confidence)
}

// Detector defines the interface for object detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns the objects found in it,
	// sorted by confidence (highest first).
	// Returns an empty slice if nothing is detected.
	Detect(frame *gocv.Mat) ([]Detection, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for object detection.
type Config struct {
	// ModelPath is the ONNX export of the YOLOv8 model.
	ModelPath string

	// LabelsPath is a data.yaml or a newline-separated class name file.
	// When empty, classes are labelled "class<N>".
	LabelsPath string

	// ConfidenceThresh is the minimum class score kept (0.0-1.0).
	ConfidenceThresh float32

	// NMSThresh is the IoU threshold for non-maximum suppression (0.0-1.0).
	NMSThresh float32

	// InputSize is the square network input size in pixels.
	InputSize int

	// MaxDetections caps the number of detections per frame.
	MaxDetections int

	// Backend and Target select the OpenCV DNN backend ("default", "opencv",
	// "cuda", ...) and target device ("cpu", "cuda", "fp16", ...).
	Backend string
	Target  string
}

// DefaultConfig returns a Config with the same defaults as the ultralytics predictor.
func DefaultConfig() Config {
	return Config{
		ModelPath:        "Waste_Segreagtion_Project.onnx",
		ConfidenceThresh: 0.25,
		NMSThresh:        0.7,
		InputSize:        640,
		MaxDetections:    300,
		Backend:          "default",
		Target:           "cpu",
	}
}
