package config

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/wastesort/wastecam/internal/display"
)

func TestDefault(t *testing.T) {
	c := Default()

	if c.ModelPath != "Waste_Segreagtion_Project.onnx" {
		t.Errorf("ModelPath = %q", c.ModelPath)
	}
	if c.Device != 0 {
		t.Errorf("Device = %d, want 0", c.Device)
	}
	if c.ImgSize != 640 {
		t.Errorf("ImgSize = %d, want 640", c.ImgSize)
	}
	if c.FPS != 30 {
		t.Errorf("FPS = %d, want 30", c.FPS)
	}
	if c.Title != display.DefaultTitle {
		t.Errorf("Title = %q, want %q", c.Title, display.DefaultTitle)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Default().Validate() error = %v", err)
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("WASTECAM_DEVICE", "2")
	t.Setenv("WASTECAM_MODEL", "bins.onnx")
	t.Setenv("WASTECAM_CONF", "0.5")
	t.Setenv("WASTECAM_SHOW_FPS", "true")
	t.Setenv("WASTECAM_IMGSZ", "not-a-number")

	c := FromEnv(Default())

	if c.Device != 2 {
		t.Errorf("Device = %d, want 2", c.Device)
	}
	if c.ModelPath != "bins.onnx" {
		t.Errorf("ModelPath = %q, want bins.onnx", c.ModelPath)
	}
	if c.Confidence != 0.5 {
		t.Errorf("Confidence = %v, want 0.5", c.Confidence)
	}
	if !c.ShowFPS {
		t.Error("ShowFPS = false, want true")
	}
	if c.ImgSize != 640 {
		t.Errorf("ImgSize = %d, want default 640 for an unparseable value", c.ImgSize)
	}
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("WASTECAM_MODEL", "from-env.onnx")
	t.Setenv("WASTECAM_IOU", "0.45")

	t.Setenv("WASTECAM_FPS", "15")

	c, err := Load([]string{"-model", "from-flag.onnx", "-device", "1", "-show-fps", "-conf", "1"}, io.Discard)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if c.ModelPath != "from-flag.onnx" {
		t.Errorf("ModelPath = %q, want from-flag.onnx", c.ModelPath)
	}
	if c.IoU != 0.45 {
		t.Errorf("IoU = %v, want 0.45 from the environment", c.IoU)
	}
	if c.Device != 1 {
		t.Errorf("Device = %d, want 1", c.Device)
	}
	if !c.ShowFPS {
		t.Error("ShowFPS = false, want true")
	}
	if c.FPS != 15 {
		t.Errorf("FPS = %d, want 15 from the environment", c.FPS)
	}
	if c.Confidence != 1 {
		t.Errorf("Confidence = %v, want 1", c.Confidence)
	}
	if got := c.Detector().ConfidenceThresh; got != 1 {
		t.Errorf("Detector().ConfidenceThresh = %v, want 1", got)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		wantInvalid bool
	}{
		{name: "unknown flag", args: []string{"-nope"}},
		{name: "conf above one", args: []string{"-conf", "1.5"}, wantInvalid: true},
		{name: "conf zero", args: []string{"-conf", "0"}, wantInvalid: true},
		{name: "iou zero", args: []string{"-iou", "0"}, wantInvalid: true},
		{name: "zero fps", args: []string{"-fps", "0"}, wantInvalid: true},
		{name: "stray argument", args: []string{"extra"}, wantInvalid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.args, io.Discard)
			if err == nil {
				t.Fatalf("Load(%v) should fail", tt.args)
			}
			if tt.wantInvalid && !errors.Is(err, ErrInvalid) {
				t.Errorf("Load(%v) error = %v, want ErrInvalid", tt.args, err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{name: "empty model", modify: func(c *Config) { c.ModelPath = "" }},
		{name: "negative device", modify: func(c *Config) { c.Device = -1 }},
		{name: "negative conf", modify: func(c *Config) { c.Confidence = -0.1 }},
		{name: "zero conf", modify: func(c *Config) { c.Confidence = 0 }},
		{name: "zero iou", modify: func(c *Config) { c.IoU = 0 }},
		{name: "zero fps", modify: func(c *Config) { c.FPS = 0 }},
		{name: "iou above one", modify: func(c *Config) { c.IoU = 1.01 }},
		{name: "zero imgsz", modify: func(c *Config) { c.ImgSize = 0 }},
		{name: "imgsz not multiple of 32", modify: func(c *Config) { c.ImgSize = 500 }},
		{name: "negative width", modify: func(c *Config) { c.Width = -640 }},
		{name: "negative line width", modify: func(c *Config) { c.LineWidth = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.modify(&c)

			if err := c.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("Validate() error = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wastecam.env")
	content := "WASTECAM_TITLE=Bin Cam\nWASTECAM_DEVICE=3\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	t.Setenv("WASTECAM_TITLE", "")
	os.Unsetenv("WASTECAM_TITLE")
	t.Setenv("WASTECAM_DEVICE", "7")

	if err := LoadDotEnv(filepath.Join(dir, "missing.env"), path); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}

	c := FromEnv(Default())
	if c.Title != "Bin Cam" {
		t.Errorf("Title = %q, want Bin Cam", c.Title)
	}
	if c.Device != 7 {
		t.Errorf("Device = %d, want 7 since existing variables win", c.Device)
	}
}

func TestConfig_Detector(t *testing.T) {
	c := Default()
	c.ModelPath = "bins.onnx"
	c.LabelsPath = "data.yaml"
	c.Confidence = 0.4
	c.IoU = 0.5
	c.ImgSize = 320

	det := c.Detector()
	if det.ModelPath != "bins.onnx" || det.LabelsPath != "data.yaml" {
		t.Errorf("paths = %q, %q", det.ModelPath, det.LabelsPath)
	}
	if det.ConfidenceThresh != 0.4 || det.NMSThresh != 0.5 {
		t.Errorf("thresholds = %v, %v", det.ConfidenceThresh, det.NMSThresh)
	}
	if det.InputSize != 320 {
		t.Errorf("InputSize = %d, want 320", det.InputSize)
	}
	if det.MaxDetections != 300 {
		t.Errorf("MaxDetections = %d, want 300", det.MaxDetections)
	}
}
