// File: internal/capture/mouse_test.go
package capture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/mimic-cli/api/schemas"
	"github.com/xkilldash9x/mimic-cli/internal/config"
)

func newMouse(t *testing.T) *MouseTracker {
	t.Helper()
	cfg := config.NewDefaultConfig().Capture.Mouse
	m := NewMouseTracker(cfg, nil, zaptest.NewLogger(t))
	m.Start()
	return m
}

func kinds(actions []schemas.Action) []schemas.ActionKind {
	out := make([]schemas.ActionKind, len(actions))
	for i, a := range actions {
		out[i] = a.Kind
	}
	return out
}

func TestMouseMoveDebounce(t *testing.T) {
	t.Run("first move is always recorded", func(t *testing.T) {
		m := newMouse(t)
		m.HandleMove(5, 5, 10.0)
		require.Len(t, m.Actions(), 1)
		assert.Equal(t, schemas.ActionMove, m.Actions()[0].Kind)
	})

	t.Run("cooldown suppresses rapid moves", func(t *testing.T) {
		m := newMouse(t)
		m.HandleMove(0, 0, 10.0)
		m.HandleMove(500, 500, 10.05) // large distance, but inside 100ms
		assert.Len(t, m.Actions(), 1)
	})

	t.Run("distance gate suppresses small moves", func(t *testing.T) {
		m := newMouse(t)
		m.HandleMove(100, 100, 10.0)
		m.HandleMove(105, 105, 11.0) // ~7px after a full second
		assert.Len(t, m.Actions(), 1)
	})

	t.Run("qualifying move is recorded", func(t *testing.T) {
		m := newMouse(t)
		m.HandleMove(100, 100, 10.0)
		m.HandleMove(200, 100, 10.2)
		require.Len(t, m.Actions(), 2)
		assert.Equal(t, 200.0, m.Actions()[1].X)
	})

	t.Run("gating is against last recorded position", func(t *testing.T) {
		m := newMouse(t)
		m.HandleMove(0, 0, 10.0)
		m.HandleMove(4, 0, 10.2)  // suppressed, 4px
		m.HandleMove(8, 0, 10.4)  // still 8px from (0,0): suppressed
		m.HandleMove(12, 0, 10.6) // 12px from (0,0): recorded
		assert.Len(t, m.Actions(), 2)
	})
}

func TestMouseClicks(t *testing.T) {
	t.Run("click recorded on release only", func(t *testing.T) {
		m := newMouse(t)
		m.HandlePress(10, 10, schemas.ButtonLeft, 10.0)
		assert.Empty(t, m.Actions())
		m.HandleRelease(10, 10, schemas.ButtonLeft, 10.1)
		require.Len(t, m.Actions(), 1)
		a := m.Actions()[0]
		assert.Equal(t, schemas.ActionClick, a.Kind)
		assert.Equal(t, schemas.ButtonLeft, a.Button)
		assert.Equal(t, 1, a.ClickCount)
	})

	t.Run("rapid same-spot clicks fold into a double click", func(t *testing.T) {
		m := newMouse(t)
		m.HandleRelease(50, 50, schemas.ButtonLeft, 10.0)
		m.HandleRelease(52, 51, schemas.ButtonLeft, 10.3)
		actions := m.Actions()
		require.Len(t, actions, 1)
		assert.Equal(t, 2, actions[0].ClickCount)
	})

	t.Run("slow second click stays single", func(t *testing.T) {
		m := newMouse(t)
		m.HandleRelease(50, 50, schemas.ButtonLeft, 10.0)
		m.HandleRelease(50, 50, schemas.ButtonLeft, 11.0)
		actions := m.Actions()
		require.Len(t, actions, 2)
		assert.Equal(t, 1, actions[0].ClickCount)
		assert.Equal(t, 1, actions[1].ClickCount)
	})

	t.Run("distant second click stays single", func(t *testing.T) {
		m := newMouse(t)
		m.HandleRelease(50, 50, schemas.ButtonLeft, 10.0)
		m.HandleRelease(200, 200, schemas.ButtonLeft, 10.2)
		assert.Len(t, m.Actions(), 2)
	})

	t.Run("different buttons never fold", func(t *testing.T) {
		m := newMouse(t)
		m.HandleRelease(50, 50, schemas.ButtonLeft, 10.0)
		m.HandleRelease(50, 50, schemas.ButtonRight, 10.2)
		actions := m.Actions()
		require.Len(t, actions, 2)
		assert.Equal(t, 1, actions[1].ClickCount)
	})

	t.Run("fold keeps previous click when spots differ", func(t *testing.T) {
		// Second click within the 20px double-click radius but more than
		// 5px from the previous recorded click: the double click is
		// recorded without removing the single.
		m := newMouse(t)
		m.HandleRelease(50, 50, schemas.ButtonLeft, 10.0)
		m.HandleRelease(62, 50, schemas.ButtonLeft, 10.2)
		actions := m.Actions()
		require.Len(t, actions, 2)
		assert.Equal(t, 1, actions[0].ClickCount)
		assert.Equal(t, 2, actions[1].ClickCount)
	})

	t.Run("triple click does not fold a second time", func(t *testing.T) {
		m := newMouse(t)
		m.HandleRelease(50, 50, schemas.ButtonLeft, 10.0)
		m.HandleRelease(50, 50, schemas.ButtonLeft, 10.2)
		m.HandleRelease(50, 50, schemas.ButtonLeft, 10.4)
		// Double-click state resets after a fold, so the third release is
		// a fresh single click.
		actions := m.Actions()
		require.Len(t, actions, 2)
		assert.Equal(t, 2, actions[0].ClickCount)
		assert.Equal(t, 1, actions[1].ClickCount)
	})
}

func TestMouseShiftSelection(t *testing.T) {
	t.Run("second shift click closes the range on the anchor", func(t *testing.T) {
		m := newMouse(t)
		m.SetShiftState(true, 0)
		m.HandleRelease(10, 10, schemas.ButtonLeft, 10.0)
		m.HandleRelease(300, 400, schemas.ButtonLeft, 12.0)

		actions := m.Actions()
		require.Len(t, actions, 2)
		anchor := actions[0]
		assert.True(t, anchor.ShiftPressed)
		assert.True(t, anchor.IsSelectionStart)
		assert.Equal(t, 300.0, anchor.SelectionEndX)
		assert.Equal(t, 400.0, anchor.SelectionEndY)
		assert.False(t, actions[1].IsSelectionStart)
	})

	t.Run("plain click abandons the anchor after the grace period", func(t *testing.T) {
		m := newMouse(t)
		m.SetShiftState(true, 0)
		m.HandleRelease(10, 10, schemas.ButtonLeft, 10.0)
		m.SetShiftState(false, 10.5)
		m.HandleRelease(100, 100, schemas.ButtonLeft, 15.0) // well past grace

		// A later shift click starts a fresh selection instead of closing
		// the old anchor.
		m.SetShiftState(true, 0)
		m.HandleRelease(200, 200, schemas.ButtonLeft, 16.0)
		actions := m.Actions()
		require.Len(t, actions, 3)
		assert.False(t, actions[0].IsSelectionStart)
	})

	t.Run("anchor older than the selection timeout no longer pairs", func(t *testing.T) {
		m := newMouse(t)
		m.SetShiftState(true, 0)
		m.HandleRelease(10, 10, schemas.ButtonLeft, 10.0)
		// Shift is still held, but the anchor sat idle past 5s.
		m.HandleRelease(300, 400, schemas.ButtonLeft, 20.0)

		actions := m.Actions()
		require.Len(t, actions, 2)
		assert.False(t, actions[0].IsSelectionStart)

		// The late click opened a fresh selection instead.
		m.HandleRelease(500, 600, schemas.ButtonLeft, 21.0)
		actions = m.Actions()
		require.Len(t, actions, 3)
		assert.True(t, actions[1].IsSelectionStart)
		assert.Equal(t, 500.0, actions[1].SelectionEndX)
		assert.Equal(t, 600.0, actions[1].SelectionEndY)
	})

	t.Run("closing click does not reopen the selection", func(t *testing.T) {
		m := newMouse(t)
		m.SetShiftState(true, 0)
		m.HandleRelease(10, 10, schemas.ButtonLeft, 10.0)
		m.HandleRelease(300, 400, schemas.ButtonLeft, 11.0)
		// A third shift click starts a new range; the closed one keeps its
		// original end coordinates.
		m.HandleRelease(50, 60, schemas.ButtonLeft, 12.0)
		m.HandleRelease(70, 80, schemas.ButtonLeft, 13.0)

		actions := m.Actions()
		require.Len(t, actions, 4)
		assert.True(t, actions[0].IsSelectionStart)
		assert.Equal(t, 300.0, actions[0].SelectionEndX)
		assert.False(t, actions[1].IsSelectionStart)
		assert.True(t, actions[2].IsSelectionStart)
		assert.Equal(t, 70.0, actions[2].SelectionEndX)
	})

	t.Run("plain click within the grace period keeps the anchor", func(t *testing.T) {
		m := newMouse(t)
		m.SetShiftState(true, 0)
		m.HandleRelease(10, 10, schemas.ButtonLeft, 10.0)
		m.SetShiftState(false, 10.5)
		m.HandleRelease(100, 100, schemas.ButtonLeft, 10.9) // inside 1s grace

		m.SetShiftState(true, 0)
		m.HandleRelease(300, 300, schemas.ButtonLeft, 11.5)
		actions := m.Actions()
		require.Len(t, actions, 3)
		assert.True(t, actions[0].IsSelectionStart)
		assert.Equal(t, 300.0, actions[0].SelectionEndX)
	})
}

func TestMouseScroll(t *testing.T) {
	t.Run("tiny deltas are ignored", func(t *testing.T) {
		m := newMouse(t)
		m.HandleScroll(10, 10, 0.02, 0.05, 10.0)
		assert.Empty(t, m.Actions())
	})

	t.Run("cooldown suppresses bursts", func(t *testing.T) {
		m := newMouse(t)
		m.HandleScroll(10, 10, 0, 3, 10.0)
		m.HandleScroll(10, 10, 0, 3, 10.1)
		m.HandleScroll(10, 10, 0, 3, 10.3)
		actions := m.Actions()
		require.Len(t, actions, 2)
		assert.Equal(t, []schemas.ActionKind{schemas.ActionScroll, schemas.ActionScroll}, kinds(actions))
	})
}

func TestMouseStopSnapshot(t *testing.T) {
	m := newMouse(t)
	m.HandleMove(5, 5, 10.0)
	out := m.Stop()
	require.Len(t, out, 1)

	// Events after stop are dropped.
	m.HandleMove(500, 500, 20.0)
	assert.Len(t, m.Actions(), 1)
}
