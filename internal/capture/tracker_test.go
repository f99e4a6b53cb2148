// File: internal/capture/tracker_test.go
package capture

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/mimic-cli/api/schemas"
	"github.com/xkilldash9x/mimic-cli/internal/config"
)

func TestActionTrackerMerge(t *testing.T) {
	cfg := config.NewDefaultConfig().Capture
	tracker := NewActionTracker(cfg, nil, zaptest.NewLogger(t))
	tracker.Start(context.Background())

	// Interleave mouse and keyboard activity out of arrival order. The
	// enter press flushes the buffered text, so both keyboard actions are
	// stamped 13.0 and keep their per-tracker order through the stable
	// sort.
	tracker.Keyboard.HandlePress(KeyEvent{Char: 'a'}, 11.0)
	tracker.Mouse.HandleMove(10, 10, 10.0)
	tracker.Mouse.HandleRelease(10, 10, schemas.ButtonLeft, 12.0)
	tracker.Keyboard.HandlePress(KeyEvent{Name: "enter"}, 13.0)

	actions := tracker.Stop()
	require.Len(t, actions, 4)
	assert.Equal(t, schemas.ActionMove, actions[0].Kind)
	assert.Equal(t, schemas.ActionClick, actions[1].Kind)
	assert.Equal(t, schemas.ActionType, actions[2].Kind)
	assert.Equal(t, schemas.ActionHotkey, actions[3].Kind)
	assert.Equal(t, "a", actions[2].Text)

	for i := 1; i < len(actions); i++ {
		assert.LessOrEqual(t, actions[i-1].Timestamp, actions[i].Timestamp)
	}
}

func TestActionTrackerShiftWiring(t *testing.T) {
	cfg := config.NewDefaultConfig().Capture
	tracker := NewActionTracker(cfg, nil, zaptest.NewLogger(t))
	tracker.Start(context.Background())

	// Shift held on the keyboard must mark mouse clicks.
	tracker.Keyboard.HandlePress(KeyEvent{Name: "shift"}, 10.0)
	tracker.Mouse.HandleRelease(50, 50, schemas.ButtonLeft, 10.5)
	tracker.Keyboard.HandleRelease(KeyEvent{Name: "shift"}, 11.0)

	actions := tracker.Stop()
	require.Len(t, actions, 1)
	assert.True(t, actions[0].ShiftPressed)
}

func TestAppPoller(t *testing.T) {
	defer goleak.VerifyNone(t)

	t.Run("records initial app and transitions", func(t *testing.T) {
		var flip atomic.Bool
		query := func() (*schemas.AppContext, error) {
			if flip.Load() {
				return &schemas.AppContext{Name: "Safari", IsBrowser: true}, nil
			}
			return &schemas.AppContext{Name: "Finder"}, nil
		}

		cfg := config.AppsConfig{PollInterval: 5 * time.Millisecond}
		p := NewAppPoller(cfg, query, zaptest.NewLogger(t))
		p.Start(context.Background())

		require.Eventually(t, func() bool {
			cur := p.Current()
			return cur != nil && cur.Name == "Finder"
		}, time.Second, time.Millisecond)

		flip.Store(true)
		require.Eventually(t, func() bool {
			cur := p.Current()
			return cur != nil && cur.Name == "Safari"
		}, time.Second, time.Millisecond)

		changes := p.Stop()
		require.Len(t, changes, 2)
		assert.Equal(t, "", changes[0].FromApp)
		assert.Equal(t, "Finder", changes[0].ToApp)
		assert.Equal(t, "Finder", changes[1].FromApp)
		assert.Equal(t, "Safari", changes[1].ToApp)
		assert.True(t, changes[1].App.IsBrowser)
	})

	t.Run("query failures are tolerated", func(t *testing.T) {
		var calls atomic.Int32
		query := func() (*schemas.AppContext, error) {
			calls.Add(1)
			return nil, errors.New("no workspace")
		}

		cfg := config.AppsConfig{PollInterval: 5 * time.Millisecond}
		p := NewAppPoller(cfg, query, zaptest.NewLogger(t))
		p.Start(context.Background())

		require.Eventually(t, func() bool { return calls.Load() > 2 }, time.Second, time.Millisecond)
		assert.Nil(t, p.Current())
		assert.Empty(t, p.Stop())
	})

	t.Run("stop is idempotent", func(t *testing.T) {
		query := func() (*schemas.AppContext, error) {
			return &schemas.AppContext{Name: "Finder"}, nil
		}
		p := NewAppPoller(config.AppsConfig{PollInterval: 5 * time.Millisecond}, query, zaptest.NewLogger(t))
		p.Start(context.Background())
		first := p.Stop()
		second := p.Stop()
		assert.Equal(t, first, second)
	})
}

func TestIsSpreadsheetApp(t *testing.T) {
	assert.True(t, IsSpreadsheetApp("Microsoft Excel"))
	assert.True(t, IsSpreadsheetApp("Numbers"))
	assert.True(t, IsSpreadsheetApp("Google Sheets - Budget"))
	assert.False(t, IsSpreadsheetApp("Safari"))
}
