// File: internal/capture/keyboard.go
// Description: Keyboard input tracking. Printable characters accumulate in a
// buffer that flushes into type actions on interval, idle or size; key
// combinations with cmd/ctrl/alt become hotkey actions with a canonical
// modifier order.

package capture

import (
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/xkilldash9x/mimic-cli/api/schemas"
	"github.com/xkilldash9x/mimic-cli/internal/config"
)

// KeyEvent is one key transition from the OS hook. Either Char is a
// printable rune, or Name is one of the special key identifiers (cmd, ctrl,
// alt, shift, enter, tab, space, backspace, delete, escape).
type KeyEvent struct {
	Char rune
	Name string
}

// ShiftCallback notifies a peer (the mouse tracker) of shift transitions.
// releaseTS is meaningful only when pressed is false.
type ShiftCallback func(pressed bool, releaseTS float64)

// KeyboardTracker records typing and hotkeys. It is fed by the hook
// listener and is safe for concurrent use.
type KeyboardTracker struct {
	mu  sync.Mutex
	cfg config.KeyboardConfig
	log *zap.Logger

	apps    AppProvider
	onShift ShiftCallback

	tracking bool
	actions  []schemas.Action

	typed       []rune
	lastFlushTS float64
	lastCharTS  float64
	haveCharTS  bool

	modifiers map[schemas.Modifier]bool
}

// NewKeyboardTracker creates a tracker. The app provider may be nil.
func NewKeyboardTracker(cfg config.KeyboardConfig, apps AppProvider, logger *zap.Logger) *KeyboardTracker {
	return &KeyboardTracker{
		cfg:       cfg,
		log:       logger.Named("keyboard"),
		apps:      apps,
		modifiers: make(map[schemas.Modifier]bool),
	}
}

// SetShiftCallback registers the shift-state listener. Must be called
// before tracking starts.
func (k *KeyboardTracker) SetShiftCallback(cb ShiftCallback) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.onShift = cb
}

// Start resets all state and begins accepting events. startTS seeds the
// flush clock.
func (k *KeyboardTracker) Start(startTS float64) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.tracking {
		return
	}
	k.tracking = true
	k.actions = nil
	k.typed = nil
	k.lastFlushTS = startTS
	k.haveCharTS = false
	k.modifiers = make(map[schemas.Modifier]bool)
	k.log.Debug("Keyboard tracking started")
}

// Stop flushes any buffered text and returns the recorded actions. The
// flush is retried a bounded number of times in case a handler appends
// between attempts.
func (k *KeyboardTracker) Stop(ts float64) []schemas.Action {
	k.mu.Lock()
	defer k.mu.Unlock()

	for attempt := 0; attempt < 3 && len(k.typed) > 0; attempt++ {
		k.flushLocked(ts)
	}
	k.tracking = false

	out := make([]schemas.Action, len(k.actions))
	copy(out, k.actions)

	var typed, hotkeys, chars int
	for _, a := range out {
		switch a.Kind {
		case schemas.ActionType:
			typed++
			chars += len(a.Text)
		case schemas.ActionHotkey:
			hotkeys++
		}
	}
	k.log.Info("Keyboard tracking stopped",
		zap.Int("text_segments", typed),
		zap.Int("chars", chars),
		zap.Int("hotkeys", hotkeys))
	return out
}

// Actions returns a snapshot of the recorded actions.
func (k *KeyboardTracker) Actions() []schemas.Action {
	k.mu.Lock()
	defer k.mu.Unlock()
	out := make([]schemas.Action, len(k.actions))
	copy(out, k.actions)
	return out
}

// HandlePress routes one key-down event through the capture state machine.
func (k *KeyboardTracker) HandlePress(ev KeyEvent, ts float64) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if !k.tracking {
		return
	}

	// Modifier bookkeeping first. cmd/ctrl/alt going down closes the text
	// buffer so the buffered text and the coming hotkey stay ordered.
	if mod, ok := modifierFor(ev); ok {
		k.modifiers[mod] = true
		switch mod {
		case schemas.ModShift:
			if k.onShift != nil {
				k.onShift(true, 0)
			}
		default:
			k.flushLocked(ts)
		}
		return
	}

	if ev.Char != 0 {
		k.handleChar(ev.Char, ts)
		return
	}

	switch ev.Name {
	case "space":
		if k.hasNonShiftModifiers() {
			k.flushLocked(ts)
			k.recordHotkey("space", ts)
		} else {
			k.bufferChar(' ', ts)
		}
	case "backspace":
		k.flushLocked(ts)
		k.actions = append(k.actions, schemas.Action{
			Kind:      schemas.ActionBackspace,
			Timestamp: ts,
			App:       k.appContext(),
		})
	case "enter", "tab":
		k.flushLocked(ts)
		if k.hasNonShiftModifiers() {
			k.recordHotkey(ev.Name, ts)
		} else {
			k.recordBareKey(ev.Name, ts)
		}
	case "escape", "delete":
		k.flushLocked(ts)
		k.recordHotkey(ev.Name, ts)
	}
}

// HandleRelease routes one key-up event.
func (k *KeyboardTracker) HandleRelease(ev KeyEvent, ts float64) {
	k.mu.Lock()
	defer k.mu.Unlock()

	mod, ok := modifierFor(ev)
	if !ok {
		return
	}
	delete(k.modifiers, mod)
	if mod == schemas.ModShift && k.onShift != nil {
		k.onShift(false, ts)
	}
}

func (k *KeyboardTracker) handleChar(ch rune, ts float64) {
	if k.hasNonShiftModifiers() {
		k.flushLocked(ts)
		k.recordHotkey(strings.ToLower(string(ch)), ts)
		return
	}
	k.bufferChar(ch, ts)
}

func (k *KeyboardTracker) bufferChar(ch rune, ts float64) {
	k.typed = append(k.typed, ch)
	if !k.haveCharTS || len(k.typed) == 1 {
		k.lastFlushTS = ts
	}
	k.lastCharTS = ts
	k.haveCharTS = true

	switch {
	case len(k.typed) >= k.cfg.MaxBuffer:
		k.flushLocked(ts)
	case ts-k.lastFlushTS >= k.cfg.FlushInterval.Seconds():
		k.flushLocked(ts)
	case k.haveCharTS && ts-k.lastCharTS >= k.cfg.IdleTimeout.Seconds():
		k.flushLocked(ts)
	}
}

// flushLocked emits the buffered text as a type action. Callers hold the
// lock.
func (k *KeyboardTracker) flushLocked(ts float64) {
	if len(k.typed) == 0 {
		k.lastFlushTS = ts
		return
	}
	text := string(k.typed)

	action := schemas.Action{
		Kind:      schemas.ActionType,
		Timestamp: ts,
		Text:      text,
		App:       k.appContext(),
	}
	if app := action.App; app != nil && IsSpreadsheetApp(app.Name) {
		action.Spreadsheet = &schemas.SpreadsheetContext{
			IsSpreadsheet: true,
			AppName:       app.Name,
		}
	}
	k.actions = append(k.actions, action)
	k.log.Debug("Flushed typed text", zap.Int("chars", len(text)))

	k.typed = nil
	k.lastFlushTS = ts
	k.haveCharTS = false
}

// recordHotkey emits a hotkey with the currently held modifiers in
// canonical order: cmd or ctrl first, then alt, then shift, then the key.
// Combinations of c, x or v with cmd/ctrl are tagged as clipboard
// operations.
func (k *KeyboardTracker) recordHotkey(finalKey string, ts float64) {
	keys := make([]string, 0, 4)
	if k.modifiers[schemas.ModCmd] {
		keys = append(keys, string(schemas.ModCmd))
	} else if k.modifiers[schemas.ModCtrl] {
		keys = append(keys, string(schemas.ModCtrl))
	}
	if k.modifiers[schemas.ModAlt] {
		keys = append(keys, string(schemas.ModAlt))
	}
	if k.modifiers[schemas.ModShift] {
		keys = append(keys, string(schemas.ModShift))
	}
	keys = append(keys, finalKey)

	action := schemas.Action{
		Kind:      schemas.ActionHotkey,
		Timestamp: ts,
		Keys:      keys,
		App:       k.appContext(),
	}
	if k.modifiers[schemas.ModCmd] || k.modifiers[schemas.ModCtrl] {
		switch finalKey {
		case "c":
			action.Operation = schemas.OpCopy
		case "x":
			action.Operation = schemas.OpCut
		case "v":
			action.Operation = schemas.OpPaste
		}
	}
	k.actions = append(k.actions, action)
	k.log.Debug("Hotkey recorded", zap.Strings("keys", keys))
}

// recordBareKey emits enter or tab pressed without modifiers as a
// single-key hotkey.
func (k *KeyboardTracker) recordBareKey(name string, ts float64) {
	k.actions = append(k.actions, schemas.Action{
		Kind:      schemas.ActionHotkey,
		Timestamp: ts,
		Keys:      []string{name},
		App:       k.appContext(),
	})
}

func (k *KeyboardTracker) hasNonShiftModifiers() bool {
	for mod := range k.modifiers {
		if mod != schemas.ModShift {
			return true
		}
	}
	return false
}

func (k *KeyboardTracker) appContext() *schemas.AppContext {
	if k.apps == nil {
		return nil
	}
	return k.apps.Current()
}

func modifierFor(ev KeyEvent) (schemas.Modifier, bool) {
	switch ev.Name {
	case "cmd":
		return schemas.ModCmd, true
	case "ctrl":
		return schemas.ModCtrl, true
	case "alt":
		return schemas.ModAlt, true
	case "shift":
		return schemas.ModShift, true
	}
	return "", false
}
