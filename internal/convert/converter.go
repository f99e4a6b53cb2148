// File: internal/convert/converter.go
// Description: Lowers raw captured actions into replay-ready workflow steps.
// Every action produces a step; compression afterwards only merges adjacent
// typing and collapses move paths, so the step count never exceeds the
// action count.

package convert

import (
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/xkilldash9x/mimic-cli/api/schemas"
	"github.com/xkilldash9x/mimic-cli/internal/config"
)

const (
	typeMergeWindow  = 3.0 // seconds between typing steps that still merge
	moveMergeWindow  = 0.5 // seconds between moves that belong to one path
	anchorMinTextLen = 2
	anchorMaxTextLen = 40
)

var urlPattern = regexp.MustCompile(`https?://\S+|www\.\S+`)

// Input is everything recorded during one session. Regions holds the OCR
// output for the screenshot at the same index; both slices may be empty.
type Input struct {
	Actions     []schemas.Action
	Screenshots []string
	Regions     [][]schemas.Region
}

// Converter turns captured actions into workflow steps.
type Converter struct {
	anchorRadius float64
	log          *zap.Logger
}

// New creates a Converter. The anchor radius bounds how far from a click an
// OCR text region may sit and still serve as its replay anchor.
func New(cfg config.LocatorConfig, logger *zap.Logger) *Converter {
	return &Converter{
		anchorRadius: cfg.AnchorRadius,
		log:          logger.Named("convert"),
	}
}

// Convert runs the full pipeline: lowering, chronological sort, typing
// merge, move-path compression.
func (c *Converter) Convert(in Input) []schemas.Step {
	if len(in.Actions) == 0 {
		c.log.Warn("No actions to convert")
		return nil
	}

	// App transitions are lowered separately; screenshot indices cover only
	// the input actions, matching how the screenshots were taken.
	var inputActions []schemas.Action
	var appChanges []schemas.Action
	for _, a := range in.Actions {
		if a.Kind == schemas.ActionAppChange {
			appChanges = append(appChanges, a)
		} else {
			inputActions = append(inputActions, a)
		}
	}

	steps := make([]schemas.Step, 0, len(in.Actions))
	for i, action := range inputActions {
		steps = append(steps, c.lower(action, in, i, len(inputActions)))
	}
	for _, change := range appChanges {
		if change.ToApp == "" {
			continue
		}
		step := schemas.Step{
			Action:      schemas.StepAppActivate,
			Timestamp:   change.Timestamp,
			Description: fmt.Sprintf("Opened/Activated: %s", change.ToApp),
			AppName:     change.ToApp,
		}
		if change.App != nil {
			step.AppBundleID = change.App.BundleID
			step.AppURL = change.App.URL
		}
		steps = append(steps, step)
	}

	sort.SliceStable(steps, func(i, j int) bool {
		return steps[i].Timestamp < steps[j].Timestamp
	})

	before := len(steps)
	steps = mergeTypingSteps(steps)
	steps = mergeMovePaths(steps)

	c.log.Info("Converted actions to steps",
		zap.Int("actions", len(in.Actions)),
		zap.Int("steps", len(steps)),
		zap.Int("merged_away", before-len(steps)))
	return steps
}

// lower converts one action into one step. It never drops an action: kinds
// it does not understand become unknown steps that keep the raw payload.
func (c *Converter) lower(action schemas.Action, in Input, index, total int) schemas.Step {
	step := schemas.Step{
		Action:    schemas.StepKind(action.Kind),
		Timestamp: action.Timestamp,
	}
	if action.App != nil {
		step.AppName = action.App.Name
		step.AppBundleID = action.App.BundleID
		step.AppURL = action.App.URL
	}

	shotIdx := screenshotIndex(index, total, len(in.Screenshots))
	if shotIdx >= 0 {
		step.Screenshot = "/screenshots/" + filepath.Base(in.Screenshots[shotIdx])
	}
	var regions []schemas.Region
	if shotIdx >= 0 && shotIdx < len(in.Regions) {
		regions = in.Regions[shotIdx]
	}

	switch action.Kind {
	case schemas.ActionMove:
		step.X, step.Y = int(action.X), int(action.Y)
		if step.AppName != "" {
			step.Description = fmt.Sprintf("Move mouse to (%d, %d) in %s", step.X, step.Y, step.AppName)
		} else {
			step.Description = fmt.Sprintf("Move mouse to (%d, %d)", step.X, step.Y)
		}

	case schemas.ActionClick:
		c.lowerClick(&step, action, regions)

	case schemas.ActionScroll:
		step.X, step.Y = int(action.X), int(action.Y)
		step.DX, step.DY = action.DX, action.DY
		step.Amount = int(action.DY * 100)
		if step.AppName != "" {
			step.Description = fmt.Sprintf("Scroll in %s", step.AppName)
		} else {
			step.Description = "Scroll"
		}

	case schemas.ActionType:
		c.lowerType(&step, action)

	case schemas.ActionHotkey:
		c.lowerHotkey(&step, action)

	case schemas.ActionBackspace:
		step.Description = "Press Backspace"

	default:
		step.Action = schemas.StepUnknown
		step.Description = fmt.Sprintf("%s action", action.Kind)
		step.X, step.Y = int(action.X), int(action.Y)
		step.Text = action.Text
		step.Keys = action.Keys
		step.DX, step.DY = action.DX, action.DY
		if raw, err := json.Marshal(action); err == nil {
			step.Raw = raw
		}
	}

	if step.Description == "" {
		step.Description = fmt.Sprintf("Action at timestamp %v", step.Timestamp)
	}
	return step
}

func (c *Converter) lowerClick(step *schemas.Step, action schemas.Action, regions []schemas.Region) {
	step.X, step.Y = int(action.X), int(action.Y)
	step.Button = action.Button
	if step.Button == "" {
		step.Button = schemas.ButtonLeft
	}
	step.Clicks = action.ClickCount
	if step.Clicks == 0 {
		step.Clicks = 1
	}

	if anchor := nearestAnchor(action.X, action.Y, regions, c.anchorRadius); anchor != "" {
		step.FindByText = truncate(anchor, 50)
	}
	if sheet := resolveCell(action, regions); sheet != nil {
		step.Spreadsheet = sheet
		step.Cell = sheet.Cell
	} else if action.Spreadsheet != nil {
		step.Spreadsheet = action.Spreadsheet
	}

	appOr := step.AppName
	if appOr == "" {
		appOr = "application"
	}

	if action.ShiftPressed {
		step.ShiftPressed = true
		if action.IsSelectionStart {
			step.IsSelectionStart = true
			step.SelectionEndX = int(action.SelectionEndX)
			step.SelectionEndY = int(action.SelectionEndY)
			step.Description = fmt.Sprintf("Shift+click selection from (%d, %d) to (%d, %d) in %s",
				step.X, step.Y, step.SelectionEndX, step.SelectionEndY, appOr)
		} else {
			step.Description = fmt.Sprintf("Shift+click at (%d, %d) in %s", step.X, step.Y, appOr)
		}
		return
	}

	switch {
	case step.Cell != "":
		sheetApp := step.AppName
		if sheetApp == "" {
			sheetApp = "spreadsheet"
		}
		switch {
		case step.Clicks == 2:
			step.Description = fmt.Sprintf("Double click on cell %s in %s", step.Cell, sheetApp)
		case step.Button == schemas.ButtonRight:
			step.Description = fmt.Sprintf("Right click on cell %s in %s", step.Cell, sheetApp)
		default:
			step.Description = fmt.Sprintf("Click on cell %s in %s", step.Cell, sheetApp)
		}
	case step.AppName != "":
		switch {
		case step.Clicks == 2:
			step.Description = fmt.Sprintf("Double click in %s", step.AppName)
		case step.Button == schemas.ButtonRight:
			step.Description = fmt.Sprintf("Right click in %s", step.AppName)
		case step.Button == schemas.ButtonMiddle:
			step.Description = fmt.Sprintf("Middle click in %s", step.AppName)
		default:
			step.Description = describeAppAction(step.AppName, schemas.ActionClick, "")
		}
	default:
		if step.Clicks == 2 {
			step.Description = fmt.Sprintf("Double click at (%d, %d)", step.X, step.Y)
		} else {
			step.Description = fmt.Sprintf("%s click at (%d, %d)", capitalize(string(step.Button)), step.X, step.Y)
		}
	}
}

func (c *Converter) lowerType(step *schemas.Step, action schemas.Action) {
	step.Text = action.Text
	step.TextLength = utf8.RuneCountInString(action.Text)
	if action.Spreadsheet != nil {
		step.Spreadsheet = action.Spreadsheet
		if action.Spreadsheet.Cell != "" {
			step.Cell = action.Spreadsheet.Cell
		}
	}

	if url := urlPattern.FindString(action.Text); url != "" {
		step.URL = url
		step.AppURL = url
	}

	switch {
	case step.Cell != "":
		sheetApp := step.AppName
		if sheetApp == "" {
			sheetApp = "spreadsheet"
		}
		step.Description = fmt.Sprintf("Type '%s' in cell %s of %s", truncate(action.Text, 30), step.Cell, sheetApp)
	case step.AppName != "":
		step.Description = describeAppAction(step.AppName, schemas.ActionType, truncate(action.Text, 30))
	default:
		step.Description = fmt.Sprintf("Type: '%s'", truncate(action.Text, 50))
	}
}

func (c *Converter) lowerHotkey(step *schemas.Step, action schemas.Action) {
	step.Keys = action.Keys
	step.Operation = action.Operation

	appOr := step.AppName
	if appOr == "" {
		appOr = "application"
	}

	switch action.Operation {
	case schemas.OpCopy:
		step.Description = fmt.Sprintf("Copy to clipboard in %s", appOr)
	case schemas.OpCut:
		step.Description = fmt.Sprintf("Cut to clipboard in %s", appOr)
	case schemas.OpPaste:
		step.Description = fmt.Sprintf("Paste from clipboard in %s", appOr)
	default:
		if step.AppName != "" {
			step.Description = describeAppAction(step.AppName, schemas.ActionHotkey, strings.Join(action.Keys, "+"))
		} else {
			step.Description = fmt.Sprintf("Press %s", strings.Join(action.Keys, "+"))
		}
	}
}

// screenshotIndex maps an action position to the screenshot whose capture
// order best matches it: identity when the counts line up, proportional
// otherwise, so late actions always pair with late frames. Returns -1 when
// there are no screenshots.
func screenshotIndex(index, total, screenshots int) int {
	if screenshots == 0 {
		return -1
	}
	idx := index
	if total > 0 && screenshots != total {
		idx = index * screenshots / total
	}
	if idx > screenshots-1 {
		idx = screenshots - 1
	}
	return idx
}

// nearestAnchor picks the OCR text closest to the click for replay-time
// re-location. Short labels beat long prose: lengths past 20 characters pay
// a distance penalty of 2 per character.
func nearestAnchor(x, y float64, regions []schemas.Region, radius float64) string {
	best := ""
	bestScore := math.Inf(1)
	for _, region := range regions {
		text := strings.TrimSpace(region.Text)
		if len(text) < anchorMinTextLen || len(text) > anchorMaxTextLen {
			continue
		}
		cx, cy := region.BBox.Center()
		dist := math.Hypot(float64(cx)-x, float64(cy)-y)
		if dist > radius {
			continue
		}
		score := dist + math.Max(0, float64(len(text)-20))*2
		if score < bestScore {
			bestScore = score
			best = text
		}
	}
	return best
}

// resolveCell recovers a spreadsheet cell reference from the OCR regions
// around a click: the nearest single-letter column header above it and the
// nearest row number to its left.
func resolveCell(action schemas.Action, regions []schemas.Region) *schemas.SpreadsheetContext {
	if action.Spreadsheet == nil || !action.Spreadsheet.IsSpreadsheet || len(regions) == 0 {
		return nil
	}
	x, y := action.X, action.Y

	bestCol, bestRow := "", 0
	colDist, rowDist := math.Inf(1), math.Inf(1)
	for _, region := range regions {
		text := strings.ToUpper(strings.TrimSpace(region.Text))
		if text == "" {
			continue
		}
		cx, cy := region.BBox.Center()

		// Column headers are single letters A-Z sitting above the click.
		if len(text) == 1 && text[0] >= 'A' && text[0] <= 'Z' && float64(region.BBox.Y) < y {
			if d := math.Abs(float64(cx) - x); d < colDist {
				colDist = d
				bestCol = text
			}
		}

		// Row numbers 1-99 sit to the left of the click.
		if n, err := strconv.Atoi(text); err == nil && n >= 1 && n <= 99 && float64(region.BBox.X) < x {
			if d := math.Abs(float64(cy) - y); d < rowDist {
				rowDist = d
				bestRow = n
			}
		}
	}

	if bestCol == "" || bestRow == 0 {
		return nil
	}
	return &schemas.SpreadsheetContext{
		IsSpreadsheet: true,
		AppName:       action.Spreadsheet.AppName,
		Column:        bestCol,
		Row:           bestRow,
		Cell:          fmt.Sprintf("%s%d", bestCol, bestRow),
	}
}

// mergeTypingSteps concatenates adjacent type steps recorded in the same
// app within the merge window. Any other step kind breaks the chain.
func mergeTypingSteps(steps []schemas.Step) []schemas.Step {
	if len(steps) == 0 {
		return steps
	}
	merged := make([]schemas.Step, 0, len(steps))
	var buffer *schemas.Step

	flush := func() {
		if buffer == nil {
			return
		}
		buffer.TextLength = utf8.RuneCountInString(buffer.Text)
		if strings.HasPrefix(buffer.Description, "Type") {
			preview := truncate(buffer.Text, 30)
			ellipsis := ""
			if utf8.RuneCountInString(buffer.Text) > 30 {
				ellipsis = "..."
			}
			buffer.Description = fmt.Sprintf("Type: '%s%s'", preview, ellipsis)
		}
		merged = append(merged, *buffer)
		buffer = nil
	}

	for _, step := range steps {
		if step.Action != schemas.StepType {
			flush()
			merged = append(merged, step)
			continue
		}
		if buffer == nil {
			s := step
			buffer = &s
			continue
		}
		sameApp := buffer.AppName == step.AppName
		closeInTime := math.Abs(step.Timestamp-buffer.Timestamp) <= typeMergeWindow
		if sameApp && closeInTime {
			buffer.Text += step.Text
			buffer.Timestamp = math.Max(buffer.Timestamp, step.Timestamp)
			if buffer.Screenshot == "" {
				buffer.Screenshot = step.Screenshot
			}
			continue
		}
		flush()
		s := step
		buffer = &s
	}
	flush()
	return merged
}

// mergeMovePaths collapses runs of consecutive move steps into their first
// and last points. A run of one is kept as-is, so compression never removes
// all movement.
func mergeMovePaths(steps []schemas.Step) []schemas.Step {
	if len(steps) == 0 {
		return steps
	}
	merged := make([]schemas.Step, 0, len(steps))
	var run []schemas.Step

	flush := func() {
		switch {
		case len(run) == 0:
		case len(run) == 1:
			merged = append(merged, run[0])
		default:
			merged = append(merged, run[0], run[len(run)-1])
		}
		run = nil
	}

	for _, step := range steps {
		if step.Action != schemas.StepMove {
			flush()
			merged = append(merged, step)
			continue
		}
		if len(run) > 0 && step.Timestamp-run[len(run)-1].Timestamp > moveMergeWindow {
			flush()
		}
		run = append(run, step)
	}
	flush()
	return merged
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
