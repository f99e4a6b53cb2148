// File: internal/capture/tracker.go
// Description: ActionTracker composes the mouse and keyboard trackers with
// the application poller and presents one chronologically merged stream.

package capture

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/mimic-cli/api/schemas"
	"github.com/xkilldash9x/mimic-cli/internal/config"
)

// ActionTracker owns the full recording pipeline for one session.
type ActionTracker struct {
	Mouse    *MouseTracker
	Keyboard *KeyboardTracker
	Apps     *AppPoller

	log *zap.Logger
	now func() float64
}

// NewActionTracker wires the two input trackers together. The shift state
// crosses from keyboard to mouse through a callback so shift-click
// selections work even though the trackers are otherwise independent.
// frontmost may be nil, in which case actions carry no app context.
func NewActionTracker(cfg config.CaptureConfig, frontmost FrontmostFunc, logger *zap.Logger) *ActionTracker {
	log := logger.Named("capture")

	var apps *AppPoller
	var provider AppProvider
	if frontmost != nil {
		apps = NewAppPoller(cfg.Apps, frontmost, log)
		provider = apps
	}

	mouse := NewMouseTracker(cfg.Mouse, provider, log)
	keyboard := NewKeyboardTracker(cfg.Keyboard, provider, log)
	keyboard.SetShiftCallback(mouse.SetShiftState)

	return &ActionTracker{
		Mouse:    mouse,
		Keyboard: keyboard,
		Apps:     apps,
		log:      log,
		now:      func() float64 { return float64(time.Now().UnixNano()) / 1e9 },
	}
}

// Start begins recording on all trackers.
func (t *ActionTracker) Start(ctx context.Context) {
	if t.Apps != nil {
		t.Apps.Start(ctx)
	}
	t.Mouse.Start()
	t.Keyboard.Start(t.now())
	t.log.Info("Action tracking started")
}

// Stop ends recording and returns every captured action sorted by
// timestamp. The sort is stable so simultaneous events keep their
// per-tracker order.
func (t *ActionTracker) Stop() []schemas.Action {
	var all []schemas.Action
	all = append(all, t.Mouse.Stop()...)
	all = append(all, t.Keyboard.Stop(t.now())...)
	if t.Apps != nil {
		all = append(all, t.Apps.Stop()...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Timestamp < all[j].Timestamp
	})
	t.log.Info("Action tracking stopped", zap.Int("actions", len(all)))
	return all
}

// Actions returns a merged snapshot without stopping the trackers.
func (t *ActionTracker) Actions() []schemas.Action {
	var all []schemas.Action
	all = append(all, t.Mouse.Actions()...)
	all = append(all, t.Keyboard.Actions()...)
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Timestamp < all[j].Timestamp
	})
	return all
}
