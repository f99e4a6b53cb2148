// File: internal/session/session.go
// Description: A recording session owns the input trackers, the OS hook and
// the screenshot loop, and turns everything captured into a workflow when
// stopped.

package session

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/mimic-cli/api/schemas"
	"github.com/xkilldash9x/mimic-cli/internal/capture"
	"github.com/xkilldash9x/mimic-cli/internal/config"
	"github.com/xkilldash9x/mimic-cli/internal/convert"
	"github.com/xkilldash9x/mimic-cli/internal/ocr"
)

// stopTimeout bounds how long Stop waits for the screenshot loop to drain.
const stopTimeout = 5 * time.Second

// inputSource is the OS hook surface; swapped for a fake in tests since the
// real hook needs an interactive display.
type inputSource interface {
	Start(ctx context.Context)
	Stop()
}

// Session records one capture run. Construct with New, call Start once, then
// Stop to receive the converted workflow.
type Session struct {
	cfg  *config.Config
	log  *zap.Logger
	conv *convert.Converter

	tracker *capture.ActionTracker
	hook    inputSource
	screen  ocr.Screen
	engine  ocr.Engine

	mu      sync.Mutex
	shots   []string
	regions [][]schemas.Region
	started bool

	cancel context.CancelFunc
	group  *errgroup.Group
}

// New builds a session. screen and engine are optional: without a screen no
// screenshots are taken, and without an engine screenshots carry no OCR
// regions (so converted clicks get no text anchors). frontmost may be nil.
func New(cfg *config.Config, screen ocr.Screen, engine ocr.Engine, frontmost capture.FrontmostFunc, logger *zap.Logger) *Session {
	log := logger.Named("session")
	tracker := capture.NewActionTracker(cfg.Capture, frontmost, logger)
	return &Session{
		cfg:     cfg,
		log:     log,
		conv:    convert.New(cfg.Locator, logger),
		tracker: tracker,
		hook:    capture.NewHookListener(tracker, logger),
		screen:  screen,
		engine:  engine,
	}
}

// Start installs the input hook and begins tracking.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("session already started")
	}
	s.started = true

	ctx, s.cancel = context.WithCancel(ctx)
	s.tracker.Start(ctx)
	s.hook.Start(ctx)

	s.group, ctx = errgroup.WithContext(ctx)
	if s.screen != nil {
		s.group.Go(func() error {
			s.snapshotLoop(ctx)
			return nil
		})
	}
	s.log.Info("Recording session started")
	return nil
}

// snapshotLoop captures at most one screenshot per tick whenever new actions
// have been recorded since the last capture, so the converter has a frame to
// pair with each action.
func (s *Session) snapshotLoop(ctx context.Context) {
	interval := s.cfg.Capture.Apps.PollInterval
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			behind := len(s.tracker.Actions()) > len(s.shots)
			s.mu.Unlock()
			if behind {
				s.snapshot(ctx)
			}
		}
	}
}

func (s *Session) snapshot(ctx context.Context) {
	path, err := s.screen.Capture(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.log.Warn("Screenshot capture failed", zap.Error(err))
		}
		return
	}

	var regions []schemas.Region
	if s.engine != nil {
		regions, err = s.engine.Recognize(ctx, path)
		if err != nil {
			s.log.Warn("Screenshot recognition failed", zap.Error(err))
			regions = nil
		}
	}

	s.mu.Lock()
	s.shots = append(s.shots, path)
	s.regions = append(s.regions, regions)
	s.mu.Unlock()
}

// Stop tears down the hook and trackers, converts the captured actions and
// returns the resulting workflow. Screenshot files are removed once
// converted; only their names survive in the steps.
func (s *Session) Stop(name string) (schemas.Workflow, error) {
	s.mu.Lock()
	if !s.started || s.cancel == nil {
		s.mu.Unlock()
		return schemas.Workflow{}, fmt.Errorf("session not started")
	}
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	s.hook.Stop()
	cancel()

	waited := make(chan struct{})
	go func() {
		_ = s.group.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-time.After(stopTimeout):
		s.log.Warn("Screenshot loop did not stop in time")
	}

	actions := s.tracker.Stop()

	s.mu.Lock()
	shots, regions := s.shots, s.regions
	s.shots, s.regions = nil, nil
	s.mu.Unlock()

	steps := s.conv.Convert(convert.Input{
		Actions:     actions,
		Screenshots: shots,
		Regions:     regions,
	})
	for _, path := range shots {
		os.Remove(path)
	}

	wf := schemas.Workflow{
		ID:        uuid.NewString(),
		Name:      name,
		Steps:     steps,
		CreatedAt: time.Now().UTC(),
	}
	s.log.Info("Recording session stopped",
		zap.String("workflow_id", wf.ID),
		zap.Int("actions", len(actions)),
		zap.Int("steps", len(steps)))
	return wf, nil
}

// ActionCount reports how many actions have been captured so far.
func (s *Session) ActionCount() int {
	return len(s.tracker.Actions())
}
