// Package ocr wraps a pluggable text-recognition backend. The model itself
// is a black box: given an image it returns text regions with bounding boxes
// and confidence, and everything downstream (locator, converter) works off
// those regions only.
package ocr

import (
	"context"
	"strings"

	"github.com/xkilldash9x/mimic-cli/api/schemas"
)

// Engine recognizes text regions in an image file.
type Engine interface {
	// Recognize returns every text region found in the image. A region with
	// empty text is never returned. Order is backend-defined.
	Recognize(ctx context.Context, imagePath string) ([]schemas.Region, error)
}

// Screen captures the live screen to an image file and reports its size.
// Replay-time location loops capture fresh screenshots through this.
type Screen interface {
	// Capture writes a full-screen screenshot to a temporary file and
	// returns its path. The caller owns the file.
	Capture(ctx context.Context) (string, error)
	Size() (width, height int)
}

// JoinedText concatenates all region texts in order, the way a plain-text
// dump of a screenshot reads.
func JoinedText(regions []schemas.Region) string {
	parts := make([]string, 0, len(regions))
	for _, r := range regions {
		if t := strings.TrimSpace(r.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}
