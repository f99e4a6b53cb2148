// File: internal/ocr/screen.go
package ocr

import (
	"context"
	"fmt"
	"os"

	"github.com/go-vgo/robotgo"
)

// RobotScreen captures the live desktop through robotgo.
type RobotScreen struct{}

// NewRobotScreen returns a Screen backed by the local display.
func NewRobotScreen() *RobotScreen {
	return &RobotScreen{}
}

// Capture writes a full-screen PNG to a temporary file and returns its path.
func (s *RobotScreen) Capture(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f, err := os.CreateTemp("", "mimic-capture-*.png")
	if err != nil {
		return "", fmt.Errorf("creating screenshot file: %w", err)
	}
	path := f.Name()
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("closing screenshot file: %w", err)
	}

	img := robotgo.CaptureImg()
	if img == nil {
		os.Remove(path)
		return "", fmt.Errorf("capturing screen: no image returned")
	}
	if err := robotgo.Save(img, path); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("writing screenshot: %w", err)
	}
	return path, nil
}

// Size reports the primary display dimensions in pixels.
func (s *RobotScreen) Size() (int, int) {
	return robotgo.GetScreenSize()
}
