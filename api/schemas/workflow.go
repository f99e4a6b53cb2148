package schemas

import "time"

// Workflow is an ordered, persisted sequence of steps with metadata.
type Workflow struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Steps       []Step    `json:"steps"`
	CreatedAt   time.Time `json:"created_at"`
}

// BBox is an axis-aligned bounding box in screen pixels.
type BBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Center returns the midpoint of the box.
func (b BBox) Center() (int, int) {
	return b.X + b.Width/2, b.Y + b.Height/2
}

// Area returns the box area, never less than 1 so it can be used as a
// scoring divisor.
func (b BBox) Area() int {
	a := b.Width * b.Height
	if a < 1 {
		return 1
	}
	return a
}

// Region is one recognized text region from the OCR backend.
type Region struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	BBox       BBox    `json:"bbox"`
}
