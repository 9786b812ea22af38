// Package config resolves wastecam settings from defaults, the environment
// (including .env files) and command-line flags, in that order.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/wastesort/wastecam/internal/capture"
	"github.com/wastesort/wastecam/internal/detector"
	"github.com/wastesort/wastecam/internal/display"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "WASTECAM_"

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	Device int    // camera index, 0 is the default webcam
	Source string // optional video file used instead of the camera
	Width  int
	Height int
	FPS    int // requested capture rate, devices only

	ModelPath  string
	LabelsPath string
	Confidence float64
	IoU        float64
	ImgSize    int
	Backend    string
	Target     string

	Title     string
	ShowFPS   bool
	LineWidth int
}

// Default returns the built-in settings.
func Default() Config {
	det := detector.DefaultConfig()
	return Config{
		Device:     0,
		Width:      capture.DefaultWidth,
		Height:     capture.DefaultHeight,
		FPS:        capture.DefaultFPS,
		ModelPath:  det.ModelPath,
		Confidence: float64(det.ConfidenceThresh),
		IoU:        float64(det.NMSThresh),
		ImgSize:    det.InputSize,
		Backend:    det.Backend,
		Target:     det.Target,
		Title:      display.DefaultTitle,
	}
}

// LoadDotEnv loads KEY=VALUE files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// FromEnv overlays WASTECAM_* environment variables onto base.
// Unparseable values are ignored.
func FromEnv(base Config) Config {
	c := base
	c.Device = getEnvAsInt("DEVICE", c.Device)
	c.Source = getEnv("SOURCE", c.Source)
	c.Width = getEnvAsInt("WIDTH", c.Width)
	c.Height = getEnvAsInt("HEIGHT", c.Height)
	c.FPS = getEnvAsInt("FPS", c.FPS)
	c.ModelPath = getEnv("MODEL", c.ModelPath)
	c.LabelsPath = getEnv("LABELS", c.LabelsPath)
	c.Confidence = getEnvAsFloat("CONF", c.Confidence)
	c.IoU = getEnvAsFloat("IOU", c.IoU)
	c.ImgSize = getEnvAsInt("IMGSZ", c.ImgSize)
	c.Backend = getEnv("BACKEND", c.Backend)
	c.Target = getEnv("TARGET", c.Target)
	c.Title = getEnv("TITLE", c.Title)
	c.ShowFPS = getEnvAsBool("SHOW_FPS", c.ShowFPS)
	c.LineWidth = getEnvAsInt("LINE_WIDTH", c.LineWidth)
	return c
}

// Load builds the configuration for a run: defaults, then .env, then the
// environment, then args. The result is validated.
func Load(args []string, output io.Writer) (Config, error) {
	if err := LoadDotEnv(); err != nil {
		return Config{}, err
	}

	c := FromEnv(Default())

	fset := flag.NewFlagSet("wastecam", flag.ContinueOnError)
	if output != nil {
		fset.SetOutput(output)
	}
	fset.IntVar(&c.Device, "device", c.Device, "camera device index")
	fset.StringVar(&c.Source, "source", c.Source, "video file to read instead of the camera")
	fset.IntVar(&c.Width, "width", c.Width, "requested capture width")
	fset.IntVar(&c.Height, "height", c.Height, "requested capture height")
	fset.IntVar(&c.FPS, "fps", c.FPS, "requested capture frame rate")
	fset.StringVar(&c.ModelPath, "model", c.ModelPath, "path to the YOLOv8 ONNX model")
	fset.StringVar(&c.LabelsPath, "labels", c.LabelsPath, "data.yaml or one-name-per-line class labels")
	fset.Float64Var(&c.Confidence, "conf", c.Confidence, "minimum detection confidence")
	fset.Float64Var(&c.IoU, "iou", c.IoU, "NMS IoU threshold")
	fset.IntVar(&c.ImgSize, "imgsz", c.ImgSize, "model input size")
	fset.StringVar(&c.Backend, "backend", c.Backend, "OpenCV DNN backend")
	fset.StringVar(&c.Target, "target", c.Target, "OpenCV DNN target")
	fset.StringVar(&c.Title, "title", c.Title, "window title")
	fset.BoolVar(&c.ShowFPS, "show-fps", c.ShowFPS, "draw the frame rate on the video")
	fset.IntVar(&c.LineWidth, "line-width", c.LineWidth, "box line width in pixels, 0 scales with the frame")

	if err := fset.Parse(args); err != nil {
		return Config{}, err
	}
	if fset.NArg() > 0 {
		return Config{}, fmt.Errorf("%w: unexpected arguments %v", ErrInvalid, fset.Args())
	}

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks ranges and required fields.
func (c Config) Validate() error {
	if c.ModelPath == "" {
		return fmt.Errorf("%w: model path is required", ErrInvalid)
	}
	if c.Device < 0 {
		return fmt.Errorf("%w: device index %d is negative", ErrInvalid, c.Device)
	}
	if c.Confidence <= 0 || c.Confidence > 1 {
		return fmt.Errorf("%w: conf %v is outside (0,1]", ErrInvalid, c.Confidence)
	}
	if c.IoU <= 0 || c.IoU > 1 {
		return fmt.Errorf("%w: iou %v is outside (0,1]", ErrInvalid, c.IoU)
	}
	if c.ImgSize <= 0 || c.ImgSize%32 != 0 {
		return fmt.Errorf("%w: imgsz %d must be a positive multiple of 32", ErrInvalid, c.ImgSize)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("%w: fps %d must be positive", ErrInvalid, c.FPS)
	}
	if c.Width < 0 || c.Height < 0 {
		return fmt.Errorf("%w: capture size %dx%d is negative", ErrInvalid, c.Width, c.Height)
	}
	if c.LineWidth < 0 {
		return fmt.Errorf("%w: line width %d is negative", ErrInvalid, c.LineWidth)
	}
	return nil
}

// Detector returns the detector settings.
func (c Config) Detector() detector.Config {
	det := detector.DefaultConfig()
	det.ModelPath = c.ModelPath
	det.LabelsPath = c.LabelsPath
	det.ConfidenceThresh = float32(c.Confidence)
	det.NMSThresh = float32(c.IoU)
	det.InputSize = c.ImgSize
	det.Backend = c.Backend
	det.Target = c.Target
	return det
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
