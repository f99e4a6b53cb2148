// File: internal/capture/hook.go
// Description: Bridges the global OS input hook into the trackers. gohook
// delivers every input event on a single channel; the listener translates
// each one and dispatches it to the mouse or keyboard tracker.

package capture

import (
	"context"
	"sync"
	"time"
	"unicode"

	hook "github.com/robotn/gohook"
	"go.uber.org/zap"

	"github.com/xkilldash9x/mimic-cli/api/schemas"
)

// specialKeys are the non-printable keys the keyboard tracker understands,
// resolved against gohook's name-to-keycode table at startup.
var specialKeys = buildSpecialKeys()

func buildSpecialKeys() map[uint16]string {
	names := map[string]string{
		"cmd":       "cmd",
		"ctrl":      "ctrl",
		"alt":       "alt",
		"shift":     "shift",
		"enter":     "enter",
		"tab":       "tab",
		"space":     "space",
		"backspace": "backspace",
		"delete":    "delete",
		"esc":       "escape",
	}
	out := make(map[uint16]string, len(names))
	for hookName, name := range names {
		if code, ok := hook.Keycode[hookName]; ok {
			out[code] = name
		}
	}
	return out
}

// HookListener runs the global input hook and feeds an ActionTracker.
// Only one listener can run per process; gohook owns a single OS hook.
type HookListener struct {
	tracker *ActionTracker
	log     *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewHookListener creates a listener bound to the tracker.
func NewHookListener(tracker *ActionTracker, logger *zap.Logger) *HookListener {
	return &HookListener{
		tracker: tracker,
		log:     logger.Named("hook"),
	}
}

// Start installs the OS hook and dispatches events until the context is
// cancelled or Stop is called.
func (h *HookListener) Start(ctx context.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.done != nil {
		return
	}

	ctx, h.cancel = context.WithCancel(ctx)
	h.done = make(chan struct{})
	go h.run(ctx, h.done)
	h.log.Info("Input hook installed")
}

// Stop tears down the OS hook and waits for the dispatch loop to exit.
func (h *HookListener) Stop() {
	h.mu.Lock()
	cancel, done := h.cancel, h.done
	h.cancel, h.done = nil, nil
	h.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	hook.End()
	<-done
	h.log.Info("Input hook removed")
}

func (h *HookListener) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	events := hook.Start()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			h.dispatch(ev)
		}
	}
}

func (h *HookListener) dispatch(ev hook.Event) {
	ts := float64(time.Now().UnixNano()) / 1e9

	switch ev.Kind {
	case hook.MouseMove, hook.MouseDrag:
		h.tracker.Mouse.HandleMove(float64(ev.X), float64(ev.Y), ts)
	case hook.MouseDown:
		h.tracker.Mouse.HandlePress(float64(ev.X), float64(ev.Y), buttonFor(ev.Button), ts)
	case hook.MouseUp:
		h.tracker.Mouse.HandleRelease(float64(ev.X), float64(ev.Y), buttonFor(ev.Button), ts)
	case hook.MouseWheel:
		dx, dy := wheelDelta(ev)
		h.tracker.Mouse.HandleScroll(float64(ev.X), float64(ev.Y), dx, dy, ts)
	case hook.KeyDown, hook.KeyHold:
		h.tracker.Keyboard.HandlePress(keyEventFor(ev), ts)
	case hook.KeyUp:
		h.tracker.Keyboard.HandleRelease(keyEventFor(ev), ts)
	}
}

func keyEventFor(ev hook.Event) KeyEvent {
	if name, ok := specialKeys[ev.Keycode]; ok {
		return KeyEvent{Name: name}
	}
	if ev.Keychar != 0 && unicode.IsPrint(ev.Keychar) {
		return KeyEvent{Char: ev.Keychar}
	}
	return KeyEvent{}
}

func buttonFor(b uint16) schemas.MouseButton {
	switch b {
	case 2:
		return schemas.ButtonRight
	case 3:
		return schemas.ButtonMiddle
	default:
		return schemas.ButtonLeft
	}
}

func wheelDelta(ev hook.Event) (dx, dy float64) {
	// Direction 3 is vertical, 4 horizontal.
	if ev.Direction == 4 {
		return float64(ev.Rotation), 0
	}
	return 0, float64(ev.Rotation)
}
