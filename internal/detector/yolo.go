package detector

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"sync"

	"gocv.io/x/gocv"
)

// letterboxFill is the gray used to pad frames to a square input.
var letterboxFill = color.RGBA{R: 114, G: 114, B: 114, A: 0}

// YOLODetector runs a YOLOv8 ONNX export through the OpenCV DNN module.
type YOLODetector struct {
	net    gocv.Net
	config Config
	labels Labels
	mu     sync.Mutex
}

// NewYOLO loads the model and class labels described by config.
// Zero-valued thresholds and sizes fall back to DefaultConfig.
func NewYOLO(config Config) (*YOLODetector, error) {
	config = withDefaults(config)

	if _, err := os.Stat(config.ModelPath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, config.ModelPath)
	}

	var labels Labels
	if config.LabelsPath != "" {
		l, err := LoadLabels(config.LabelsPath)
		if err != nil {
			return nil, err
		}
		labels = l
	}

	net := gocv.ReadNetFromONNX(config.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load YOLO model from %s", config.ModelPath)
	}

	if err := net.SetPreferableBackend(gocv.ParseNetBackend(config.Backend)); err != nil {
		net.Close()
		return nil, fmt.Errorf("set backend %q: %w", config.Backend, err)
	}
	if err := net.SetPreferableTarget(gocv.ParseNetTarget(config.Target)); err != nil {
		net.Close()
		return nil, fmt.Errorf("set target %q: %w", config.Target, err)
	}

	return &YOLODetector{
		net:    net,
		config: config,
		labels: labels,
	}, nil
}

func withDefaults(config Config) Config {
	def := DefaultConfig()
	if config.ConfidenceThresh <= 0 {
		config.ConfidenceThresh = def.ConfidenceThresh
	}
	if config.NMSThresh <= 0 {
		config.NMSThresh = def.NMSThresh
	}
	if config.InputSize <= 0 {
		config.InputSize = def.InputSize
	}
	if config.MaxDetections <= 0 {
		config.MaxDetections = def.MaxDetections
	}
	if config.Backend == "" {
		config.Backend = def.Backend
	}
	if config.Target == "" {
		config.Target = def.Target
	}
	return config
}

// Labels returns the class names the detector was loaded with.
func (d *YOLODetector) Labels() Labels {
	return d.labels
}

// Detect runs one forward pass over frame.
func (d *YOLODetector) Detect(frame *gocv.Mat) ([]Detection, error) {
	if frame == nil || frame.Empty() {
		return nil, ErrEmptyFrame
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	lb := newLetterbox(frame.Cols(), frame.Rows(), d.config.InputSize)

	input := gocv.NewMat()
	defer input.Close()
	if err := lb.apply(*frame, &input); err != nil {
		return nil, fmt.Errorf("letterbox: %w", err)
	}

	blob := gocv.BlobFromImage(input, 1.0/255.0, image.Pt(lb.size, lb.size), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")

	output := d.net.Forward("")
	defer output.Close()

	attrs, anchors, err := outputShape(output.Size())
	if err != nil {
		return nil, err
	}

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read output: %w", err)
	}

	cands := decodeOutput(data, attrs, anchors, lb, d.config.ConfidenceThresh)
	kept := nonMaxSuppression(cands, d.config.ConfidenceThresh, d.config.NMSThresh, d.config.MaxDetections)

	return toDetections(kept, d.labels), nil
}

// Close releases the network.
func (d *YOLODetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}

// apply resizes src into the letterbox and pads it to a square.
func (l letterbox) apply(src gocv.Mat, dst *gocv.Mat) error {
	resized := gocv.NewMat()
	defer resized.Close()

	if l.newW == l.srcW && l.newH == l.srcH {
		if err := src.CopyTo(&resized); err != nil {
			return fmt.Errorf("copy: %w", err)
		}
	} else {
		if err := gocv.Resize(src, &resized, image.Pt(l.newW, l.newH), 0, 0, gocv.InterpolationLinear); err != nil {
			return fmt.Errorf("resize: %w", err)
		}
	}

	if err := gocv.CopyMakeBorder(resized, dst, l.top, l.bottom, l.left, l.right, gocv.BorderConstant, letterboxFill); err != nil {
		return fmt.Errorf("pad: %w", err)
	}

	if dst.Cols() != l.size || dst.Rows() != l.size {
		return fmt.Errorf("letterboxed frame is %dx%d, want %dx%d", dst.Cols(), dst.Rows(), l.size, l.size)
	}
	return nil
}
