// File: internal/capture/mouse.go
// Description: Mouse input tracking with debounce, double-click folding and
// shift-click range selection. Handlers take explicit timestamps (seconds)
// so the state machine is deterministic under test.

package capture

import (
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/xkilldash9x/mimic-cli/api/schemas"
	"github.com/xkilldash9x/mimic-cli/internal/config"
)

// MouseTracker records pointer activity. It is fed by the hook listener and
// is safe for concurrent use.
type MouseTracker struct {
	mu  sync.Mutex
	cfg config.MouseConfig
	log *zap.Logger

	apps AppProvider

	tracking bool
	actions  []schemas.Action

	// movement debounce
	hasMove    bool
	lastMoveX  float64
	lastMoveY  float64
	lastMoveTS float64

	// click state for double-click folding
	lastClickTS     float64
	lastClickX      float64
	lastClickY      float64
	lastClickButton schemas.MouseButton
	haveLastClick   bool

	// scroll debounce
	lastScrollTS float64

	// shift-click selection; anchorIdx indexes into actions, -1 when unset
	shiftDown     bool
	anchorIdx     int
	anchorTS      float64
	lastShiftUpTS float64
	haveShiftUpTS bool
}

// NewMouseTracker creates a tracker. The app provider may be nil.
func NewMouseTracker(cfg config.MouseConfig, apps AppProvider, logger *zap.Logger) *MouseTracker {
	return &MouseTracker{
		cfg:       cfg,
		log:       logger.Named("mouse"),
		apps:      apps,
		anchorIdx: -1,
	}
}

// Start resets all state and begins accepting events.
func (m *MouseTracker) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tracking {
		return
	}
	m.tracking = true
	m.actions = nil
	m.hasMove = false
	m.lastMoveTS = 0
	m.haveLastClick = false
	m.lastScrollTS = 0
	m.anchorIdx = -1
	m.anchorTS = 0
	m.haveShiftUpTS = false
	m.log.Debug("Mouse tracking started")
}

// Stop ends tracking and returns the recorded actions.
func (m *MouseTracker) Stop() []schemas.Action {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tracking = false
	out := make([]schemas.Action, len(m.actions))
	copy(out, m.actions)

	var moves, clicks, scrolls int
	for _, a := range out {
		switch a.Kind {
		case schemas.ActionMove:
			moves++
		case schemas.ActionClick:
			clicks++
		case schemas.ActionScroll:
			scrolls++
		}
	}
	m.log.Info("Mouse tracking stopped",
		zap.Int("moves", moves),
		zap.Int("clicks", clicks),
		zap.Int("scrolls", scrolls))
	return out
}

// Actions returns a snapshot of the recorded actions.
func (m *MouseTracker) Actions() []schemas.Action {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]schemas.Action, len(m.actions))
	copy(out, m.actions)
	return out
}

// SetShiftState is called by the keyboard tracker when the shift key changes.
// releaseTS is meaningful only on release.
func (m *MouseTracker) SetShiftState(pressed bool, releaseTS float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shiftDown = pressed
	if !pressed {
		m.lastShiftUpTS = releaseTS
		m.haveShiftUpTS = true
	}
}

// HandleMove records a pointer movement. The first movement is always
// recorded; later ones must clear both the cooldown and the distance gate.
func (m *MouseTracker) HandleMove(x, y, ts float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.tracking {
		return
	}

	if m.hasMove {
		if ts-m.lastMoveTS < m.cfg.MoveCooldown.Seconds() {
			return
		}
		if math.Hypot(x-m.lastMoveX, y-m.lastMoveY) < m.cfg.MoveDistancePx {
			return
		}
	}

	m.actions = append(m.actions, schemas.Action{
		Kind:      schemas.ActionMove,
		Timestamp: ts,
		X:         x,
		Y:         y,
		App:       m.appContext(),
	})
	m.hasMove = true
	m.lastMoveX, m.lastMoveY = x, y
	m.lastMoveTS = ts
}

// HandlePress acknowledges a button press. The click itself is recorded on
// release so the recording reflects where the button came up.
func (m *MouseTracker) HandlePress(x, y float64, button schemas.MouseButton, ts float64) {
	// Press position is intentionally ignored; release coordinates win.
}

// HandleRelease records a click, folding a rapid same-button click into a
// double click and maintaining the shift-click selection anchor.
func (m *MouseTracker) HandleRelease(x, y float64, button schemas.MouseButton, ts float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.tracking {
		return
	}

	shift := m.shiftDown

	// An anchor left idle past the selection timeout no longer pairs.
	if m.anchorIdx >= 0 && ts-m.anchorTS > m.cfg.SelectionTimeout.Seconds() {
		m.log.Debug("Shift-click anchor expired",
			zap.Float64("age", ts-m.anchorTS))
		m.anchorIdx = -1
	}

	// A second shift-click closes the open selection range on the anchor.
	closedSelection := false
	if shift && m.anchorIdx >= 0 && m.anchorIdx < len(m.actions) {
		m.actions[m.anchorIdx].IsSelectionStart = true
		m.actions[m.anchorIdx].SelectionEndX = x
		m.actions[m.anchorIdx].SelectionEndY = y
		m.log.Debug("Shift-click selection closed",
			zap.Float64("start_x", m.actions[m.anchorIdx].X),
			zap.Float64("start_y", m.actions[m.anchorIdx].Y),
			zap.Float64("end_x", x),
			zap.Float64("end_y", y))
		m.anchorIdx = -1
		closedSelection = true
	} else if !shift && m.anchorIdx >= 0 {
		// A plain click abandons the anchor unless shift was released only
		// a moment ago (the user may still be mid-selection).
		grace := false
		if m.haveShiftUpTS && ts-m.lastShiftUpTS <= 1.0 {
			grace = true
		}
		if !grace {
			m.anchorIdx = -1
		}
	}

	// Double-click detection against the previous release.
	isDouble := false
	clicks := 1
	if m.haveLastClick && m.lastClickButton == button {
		if ts-m.lastClickTS <= m.cfg.DoubleClickTimeout.Seconds() &&
			math.Hypot(x-m.lastClickX, y-m.lastClickY) <= m.cfg.DoubleClickPx {
			isDouble = true
			clicks = 2
		}
	}

	// Fold: drop the previous single click when it sits at the same spot.
	if isDouble && len(m.actions) > 0 {
		last := m.actions[len(m.actions)-1]
		if last.Kind == schemas.ActionClick && math.Hypot(x-last.X, y-last.Y) <= 5 {
			m.actions = m.actions[:len(m.actions)-1]
			if m.anchorIdx >= len(m.actions) {
				m.anchorIdx = -1
			}
		}
	}

	action := schemas.Action{
		Kind:       schemas.ActionClick,
		Timestamp:  ts,
		X:          x,
		Y:          y,
		Button:     button,
		ClickCount: clicks,
		App:        m.appContext(),
	}
	if shift {
		action.ShiftPressed = true
	}
	if app := action.App; app != nil && IsSpreadsheetApp(app.Name) {
		action.Spreadsheet = &schemas.SpreadsheetContext{
			IsSpreadsheet: true,
			AppName:       app.Name,
		}
	}

	m.actions = append(m.actions, action)

	// A shift-click with no open selection becomes the new anchor. The click
	// that just closed a range does not immediately open the next one.
	if shift && !closedSelection && m.anchorIdx < 0 {
		m.anchorIdx = len(m.actions) - 1
		m.anchorTS = ts
	}

	if isDouble {
		m.haveLastClick = false
	} else {
		m.haveLastClick = true
		m.lastClickTS = ts
		m.lastClickX, m.lastClickY = x, y
		m.lastClickButton = button
	}
}

// HandleScroll records a scroll once it clears the magnitude threshold and
// the cooldown.
func (m *MouseTracker) HandleScroll(x, y, dx, dy, ts float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.tracking {
		return
	}
	if math.Abs(dx)+math.Abs(dy) < m.cfg.ScrollThreshold {
		return
	}
	if ts-m.lastScrollTS < m.cfg.ScrollCooldown.Seconds() {
		return
	}
	m.actions = append(m.actions, schemas.Action{
		Kind:      schemas.ActionScroll,
		Timestamp: ts,
		X:         x,
		Y:         y,
		DX:        dx,
		DY:        dy,
		App:       m.appContext(),
	})
	m.lastScrollTS = ts
}

func (m *MouseTracker) appContext() *schemas.AppContext {
	if m.apps == nil {
		return nil
	}
	return m.apps.Current()
}
