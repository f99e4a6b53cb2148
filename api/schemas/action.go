package schemas

// ActionKind identifies the type of a raw captured input event.
type ActionKind string

const (
	ActionMove      ActionKind = "move"
	ActionClick     ActionKind = "click"
	ActionScroll    ActionKind = "scroll"
	ActionType      ActionKind = "type"
	ActionHotkey    ActionKind = "hotkey"
	ActionBackspace ActionKind = "backspace"
	ActionAppChange ActionKind = "app_change"
)

// MouseButton names a physical mouse button.
type MouseButton string

const (
	ButtonLeft   MouseButton = "left"
	ButtonRight  MouseButton = "right"
	ButtonMiddle MouseButton = "middle"
)

// Modifier names a modifier key. The cmd modifier covers both the macOS
// Command key and the Windows key.
type Modifier string

const (
	ModCmd   Modifier = "cmd"
	ModCtrl  Modifier = "ctrl"
	ModAlt   Modifier = "alt"
	ModShift Modifier = "shift"
)

// ClipboardOp tags a hotkey that performs a clipboard operation.
type ClipboardOp string

const (
	OpCopy  ClipboardOp = "copy"
	OpCut   ClipboardOp = "cut"
	OpPaste ClipboardOp = "paste"
)

// AppContext is a snapshot of the frontmost application at event time.
type AppContext struct {
	Name      string `json:"name"`
	BundleID  string `json:"bundle_id,omitempty"`
	URL       string `json:"url,omitempty"`
	IsBrowser bool   `json:"is_browser,omitempty"`
}

// Action is one observed input event, pre-normalization. Exactly one of the
// kind-specific payload groups is populated; which one is determined by Kind.
// Timestamps are monotonic seconds and are non-decreasing within the stream
// emitted by a single tracker.
type Action struct {
	Kind      ActionKind `json:"kind"`
	Timestamp float64    `json:"timestamp"`

	// move / click / scroll
	X float64 `json:"x,omitempty"`
	Y float64 `json:"y,omitempty"`

	// click
	Button     MouseButton `json:"button,omitempty"`
	ClickCount int         `json:"click_count,omitempty"`

	// shift+click range selection; SelectionEndX/Y are set on the anchor
	// click when a second qualifying shift-click closes the range.
	ShiftPressed     bool    `json:"shift_pressed,omitempty"`
	IsSelectionStart bool    `json:"is_selection_start,omitempty"`
	SelectionEndX    float64 `json:"selection_end_x,omitempty"`
	SelectionEndY    float64 `json:"selection_end_y,omitempty"`

	// scroll
	DX float64 `json:"dx,omitempty"`
	DY float64 `json:"dy,omitempty"`

	// type
	Text string `json:"text,omitempty"`

	// hotkey; Keys is ordered modifiers-first: cmd/ctrl, alt, shift, final key.
	Keys      []string    `json:"keys,omitempty"`
	Operation ClipboardOp `json:"operation,omitempty"`

	// app_change
	FromApp string `json:"from_app,omitempty"`
	ToApp   string `json:"to_app,omitempty"`

	App *AppContext `json:"app,omitempty"`

	// Spreadsheet hint captured when the event happened inside a known
	// spreadsheet application. Cell resolution happens later, during
	// conversion, from OCR regions.
	Spreadsheet *SpreadsheetContext `json:"spreadsheet_context,omitempty"`
}
