package schemas

import "encoding/json"

// StepKind identifies the type of a normalized, replay-ready instruction.
type StepKind string

const (
	StepClick             StepKind = "click"
	StepType              StepKind = "type"
	StepWait              StepKind = "wait"
	StepHotkey            StepKind = "hotkey"
	StepScroll            StepKind = "scroll"
	StepMove              StepKind = "move"
	StepBackspace         StepKind = "backspace"
	StepAppActivate       StepKind = "app_activate"
	StepWaitForText       StepKind = "wait_for_text"
	StepWaitForTextGone   StepKind = "wait_for_text_disappear"
	StepUnknown           StepKind = "unknown"
)

// SpreadsheetContext locates a spreadsheet cell that an action targeted,
// recovered from OCR column/row headers around the click position.
type SpreadsheetContext struct {
	IsSpreadsheet bool   `json:"is_spreadsheet"`
	AppName       string `json:"app_name,omitempty"`
	Column        string `json:"column,omitempty"`
	Row           int    `json:"row,omitempty"`
	Cell          string `json:"cell,omitempty"`
}

// Step is one normalized workflow instruction. Steps are flat and
// JSON-serializable; unknown kinds preserve their raw payload so a workflow
// recorded by a newer build still round-trips.
type Step struct {
	Action      StepKind `json:"action"`
	Timestamp   float64  `json:"timestamp"`
	Description string   `json:"description"`

	AppName     string `json:"app_name,omitempty"`
	AppBundleID string `json:"app_bundle_id,omitempty"`
	AppURL      string `json:"app_url,omitempty"`
	Screenshot  string `json:"screenshot,omitempty"`

	// click / scroll / move
	X int `json:"x,omitempty"`
	Y int `json:"y,omitempty"`

	// click
	Button     MouseButton `json:"button,omitempty"`
	Clicks     int         `json:"clicks,omitempty"`
	FindByText string      `json:"find_by_text,omitempty"`

	ShiftPressed     bool `json:"shift_pressed,omitempty"`
	IsSelectionStart bool `json:"is_selection_start,omitempty"`
	SelectionEndX    int  `json:"selection_end_x,omitempty"`
	SelectionEndY    int  `json:"selection_end_y,omitempty"`

	// type; also the target phrase for wait_for_text variants.
	Text       string `json:"text,omitempty"`
	TextLength int    `json:"text_length,omitempty"`
	URL        string `json:"url,omitempty"`

	// hotkey
	Keys      []string    `json:"keys,omitempty"`
	Operation ClipboardOp `json:"operation,omitempty"`

	// scroll
	DX     float64 `json:"dx,omitempty"`
	DY     float64 `json:"dy,omitempty"`
	Amount int     `json:"amount,omitempty"`

	// wait / wait_for_text
	Duration float64 `json:"duration,omitempty"`
	Timeout  float64 `json:"timeout,omitempty"`

	Spreadsheet *SpreadsheetContext `json:"spreadsheet_context,omitempty"`
	Cell        string              `json:"cell,omitempty"`

	ContinueOnError bool `json:"continue_on_error,omitempty"`

	// Raw carries the original payload for StepUnknown.
	Raw json.RawMessage `json:"raw,omitempty"`
}
