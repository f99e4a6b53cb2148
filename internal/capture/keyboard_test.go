// File: internal/capture/keyboard_test.go
package capture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/mimic-cli/api/schemas"
	"github.com/xkilldash9x/mimic-cli/internal/config"
)

func newKeyboard(t *testing.T) *KeyboardTracker {
	t.Helper()
	cfg := config.NewDefaultConfig().Capture.Keyboard
	k := NewKeyboardTracker(cfg, nil, zaptest.NewLogger(t))
	k.Start(10.0)
	return k
}

func typeString(k *KeyboardTracker, s string, start, step float64) float64 {
	ts := start
	for _, ch := range s {
		k.HandlePress(KeyEvent{Char: ch}, ts)
		k.HandleRelease(KeyEvent{Char: ch}, ts+step/2)
		ts += step
	}
	return ts
}

func TestKeyboardTextBuffering(t *testing.T) {
	t.Run("fast typing stays buffered until stop", func(t *testing.T) {
		k := newKeyboard(t)
		typeString(k, "hi", 10.0, 0.05)
		assert.Empty(t, k.Actions())

		out := k.Stop(10.2)
		require.Len(t, out, 1)
		assert.Equal(t, schemas.ActionType, out[0].Kind)
		assert.Equal(t, "hi", out[0].Text)
	})

	t.Run("buffer flushes at max size", func(t *testing.T) {
		k := newKeyboard(t)
		typeString(k, "abcdefghij", 10.0, 0.01) // 10 chars
		actions := k.Actions()
		require.Len(t, actions, 1)
		assert.Equal(t, "abcdefghij", actions[0].Text)
	})

	t.Run("buffer flushes after the interval", func(t *testing.T) {
		k := newKeyboard(t)
		k.HandlePress(KeyEvent{Char: 'a'}, 10.0)
		k.HandlePress(KeyEvent{Char: 'b'}, 10.3) // 300ms since first char
		actions := k.Actions()
		require.Len(t, actions, 1)
		assert.Equal(t, "ab", actions[0].Text)
	})

	t.Run("space is part of typed text", func(t *testing.T) {
		k := newKeyboard(t)
		k.HandlePress(KeyEvent{Char: 'a'}, 10.0)
		k.HandlePress(KeyEvent{Name: "space"}, 10.05)
		k.HandlePress(KeyEvent{Char: 'b'}, 10.1)
		out := k.Stop(10.2)
		require.Len(t, out, 1)
		assert.Equal(t, "a b", out[0].Text)
	})

	t.Run("shifted capitals are plain text", func(t *testing.T) {
		k := newKeyboard(t)
		k.HandlePress(KeyEvent{Name: "shift"}, 10.0)
		k.HandlePress(KeyEvent{Char: 'H'}, 10.05)
		k.HandleRelease(KeyEvent{Name: "shift"}, 10.1)
		k.HandlePress(KeyEvent{Char: 'i'}, 10.15)
		out := k.Stop(10.3)
		require.Len(t, out, 1)
		assert.Equal(t, schemas.ActionType, out[0].Kind)
		assert.Equal(t, "Hi", out[0].Text)
	})
}

func TestKeyboardHotkeys(t *testing.T) {
	t.Run("cmd+c is a copy hotkey", func(t *testing.T) {
		k := newKeyboard(t)
		k.HandlePress(KeyEvent{Name: "cmd"}, 10.0)
		k.HandlePress(KeyEvent{Char: 'c'}, 10.1)
		k.HandleRelease(KeyEvent{Name: "cmd"}, 10.2)

		actions := k.Actions()
		require.Len(t, actions, 1)
		assert.Equal(t, schemas.ActionHotkey, actions[0].Kind)
		assert.Equal(t, []string{"cmd", "c"}, actions[0].Keys)
		assert.Equal(t, schemas.OpCopy, actions[0].Operation)
	})

	t.Run("ctrl+x and ctrl+v are cut and paste", func(t *testing.T) {
		k := newKeyboard(t)
		k.HandlePress(KeyEvent{Name: "ctrl"}, 10.0)
		k.HandlePress(KeyEvent{Char: 'x'}, 10.1)
		k.HandlePress(KeyEvent{Char: 'v'}, 10.2)
		k.HandleRelease(KeyEvent{Name: "ctrl"}, 10.3)

		actions := k.Actions()
		require.Len(t, actions, 2)
		assert.Equal(t, schemas.OpCut, actions[0].Operation)
		assert.Equal(t, schemas.OpPaste, actions[1].Operation)
	})

	t.Run("modifier order is canonical", func(t *testing.T) {
		k := newKeyboard(t)
		k.HandlePress(KeyEvent{Name: "shift"}, 10.0)
		k.HandlePress(KeyEvent{Name: "alt"}, 10.05)
		k.HandlePress(KeyEvent{Name: "cmd"}, 10.1)
		k.HandlePress(KeyEvent{Char: 'S'}, 10.2)

		actions := k.Actions()
		require.Len(t, actions, 1)
		assert.Equal(t, []string{"cmd", "alt", "shift", "s"}, actions[0].Keys)
	})

	t.Run("hotkey flushes buffered text first", func(t *testing.T) {
		k := newKeyboard(t)
		typeString(k, "abc", 10.0, 0.02)
		k.HandlePress(KeyEvent{Name: "cmd"}, 10.1)
		k.HandlePress(KeyEvent{Char: 's'}, 10.15)

		actions := k.Actions()
		require.Len(t, actions, 2)
		assert.Equal(t, schemas.ActionType, actions[0].Kind)
		assert.Equal(t, "abc", actions[0].Text)
		assert.Equal(t, schemas.ActionHotkey, actions[1].Kind)
		assert.Less(t, actions[0].Timestamp, actions[1].Timestamp+0.001)
	})

	t.Run("enter alone is a single-key hotkey", func(t *testing.T) {
		k := newKeyboard(t)
		k.HandlePress(KeyEvent{Name: "enter"}, 10.0)
		actions := k.Actions()
		require.Len(t, actions, 1)
		assert.Equal(t, []string{"enter"}, actions[0].Keys)
		assert.Empty(t, actions[0].Operation)
	})

	t.Run("escape carries current modifiers", func(t *testing.T) {
		k := newKeyboard(t)
		k.HandlePress(KeyEvent{Name: "escape"}, 10.0)
		actions := k.Actions()
		require.Len(t, actions, 1)
		assert.Equal(t, []string{"escape"}, actions[0].Keys)
	})
}

func TestKeyboardBackspace(t *testing.T) {
	k := newKeyboard(t)
	typeString(k, "oops", 10.0, 0.02)
	k.HandlePress(KeyEvent{Name: "backspace"}, 10.1)

	actions := k.Actions()
	require.Len(t, actions, 2)
	assert.Equal(t, schemas.ActionType, actions[0].Kind)
	assert.Equal(t, "oops", actions[0].Text)
	assert.Equal(t, schemas.ActionBackspace, actions[1].Kind)
}

func TestKeyboardShiftCallback(t *testing.T) {
	k := newKeyboard(t)
	var calls []bool
	var releaseTS float64
	k.SetShiftCallback(func(pressed bool, ts float64) {
		calls = append(calls, pressed)
		if !pressed {
			releaseTS = ts
		}
	})

	k.HandlePress(KeyEvent{Name: "shift"}, 10.0)
	k.HandleRelease(KeyEvent{Name: "shift"}, 10.4)

	require.Equal(t, []bool{true, false}, calls)
	assert.Equal(t, 10.4, releaseTS)
}

func TestKeyboardStopIsIdempotent(t *testing.T) {
	k := newKeyboard(t)
	typeString(k, "end", 10.0, 0.02)
	first := k.Stop(10.1)
	require.Len(t, first, 1)

	second := k.Stop(10.2)
	assert.Len(t, second, 1)
}
