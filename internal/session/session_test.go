// File: internal/session/session_test.go

package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/mimic-cli/api/schemas"
	"github.com/xkilldash9x/mimic-cli/internal/config"
	"github.com/xkilldash9x/mimic-cli/internal/ocr"
)

type fakeHook struct {
	started int
	stopped int
}

func (f *fakeHook) Start(context.Context) { f.started++ }
func (f *fakeHook) Stop()                 { f.stopped++ }

type fakeScreen struct {
	dir   string
	count int
}

func (f *fakeScreen) Capture(ctx context.Context) (string, error) {
	f.count++
	path := filepath.Join(f.dir, fmt.Sprintf("shot-%d.png", f.count))
	if err := os.WriteFile(path, []byte("png"), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func (f *fakeScreen) Size() (int, int) { return 1920, 1080 }

type fakeEngine struct {
	regions []schemas.Region
}

func (f *fakeEngine) Recognize(context.Context, string) ([]schemas.Region, error) {
	return f.regions, nil
}

func newSession(t *testing.T, screen *fakeScreen, engine *fakeEngine) (*Session, *fakeHook) {
	t.Helper()
	cfg := config.NewDefaultConfig()
	var sc ocr.Screen
	if screen != nil {
		sc = screen
	}
	var en ocr.Engine
	if engine != nil {
		en = engine
	}
	s := New(cfg, sc, en, nil, zaptest.NewLogger(t))
	hook := &fakeHook{}
	s.hook = hook
	return s, hook
}

func TestStartStopLifecycle(t *testing.T) {
	defer goleak.VerifyNone(t)

	s, hook := newSession(t, nil, nil)
	require.NoError(t, s.Start(context.Background()))
	assert.Error(t, s.Start(context.Background()), "second start is rejected")

	wf, err := s.Stop("empty run")
	require.NoError(t, err)
	assert.Equal(t, 1, hook.started)
	assert.Equal(t, 1, hook.stopped)
	assert.NotEmpty(t, wf.ID)
	assert.Equal(t, "empty run", wf.Name)
	assert.Empty(t, wf.Steps)
	assert.False(t, wf.CreatedAt.IsZero())
}

func TestStopWithoutStart(t *testing.T) {
	s, _ := newSession(t, nil, nil)
	_, err := s.Stop("x")
	assert.Error(t, err)
}

func TestCapturedClickBecomesAnchoredStep(t *testing.T) {
	defer goleak.VerifyNone(t)

	screen := &fakeScreen{dir: t.TempDir()}
	engine := &fakeEngine{regions: []schemas.Region{
		{Text: "Submit", Confidence: 0.9, BBox: schemas.BBox{X: 90, Y: 90, Width: 60, Height: 20}},
	}}
	s, _ := newSession(t, screen, engine)
	require.NoError(t, s.Start(context.Background()))

	s.tracker.Mouse.HandlePress(100, 100, schemas.ButtonLeft, 1.0)
	s.tracker.Mouse.HandleRelease(100, 100, schemas.ButtonLeft, 1.05)
	assert.Equal(t, 1, s.ActionCount())

	// Take the frame the snapshot loop would have captured.
	s.snapshot(context.Background())

	wf, err := s.Stop("one click")
	require.NoError(t, err)
	require.Len(t, wf.Steps, 1)

	step := wf.Steps[0]
	assert.Equal(t, schemas.StepClick, step.Action)
	assert.Equal(t, "Submit", step.FindByText)
	assert.Equal(t, "/screenshots/shot-1.png", step.Screenshot)

	// The session cleans up its screenshot files once converted.
	_, statErr := os.Stat(filepath.Join(screen.dir, "shot-1.png"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestSnapshotSurvivesEngineAbsence(t *testing.T) {
	defer goleak.VerifyNone(t)

	screen := &fakeScreen{dir: t.TempDir()}
	s, _ := newSession(t, screen, nil)
	require.NoError(t, s.Start(context.Background()))

	s.tracker.Mouse.HandlePress(10, 10, schemas.ButtonLeft, 1.0)
	s.tracker.Mouse.HandleRelease(10, 10, schemas.ButtonLeft, 1.05)
	s.snapshot(context.Background())

	wf, err := s.Stop("no ocr")
	require.NoError(t, err)
	require.Len(t, wf.Steps, 1)
	assert.Empty(t, wf.Steps[0].FindByText)
	assert.Equal(t, "/screenshots/shot-1.png", wf.Steps[0].Screenshot)
}
