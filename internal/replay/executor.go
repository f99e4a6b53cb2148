// File: internal/replay/executor.go
// Description: Replays a workflow step by step. Each step runs through a
// bounded retry loop over classified outcomes; failures on steps marked
// continue_on_error degrade to warnings, anything else aborts the run.
// Exactly one terminal event (completed, stopped or error) is emitted per
// run.

package replay

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/mimic-cli/api/schemas"
	"github.com/xkilldash9x/mimic-cli/internal/config"
	"github.com/xkilldash9x/mimic-cli/internal/locator"
)

const (
	clickPause  = 300 * time.Millisecond
	typePause   = 200 * time.Millisecond
	hotkeyPause = 300 * time.Millisecond
	scrollPause = 200 * time.Millisecond
	idlePause   = 300 * time.Millisecond
	preClick    = 200 * time.Millisecond

	defaultWaitSeconds     = 1.0
	defaultTextWaitSeconds = 10.0
)

// TextFinder is the slice of the locator the executor needs. Satisfied by
// *locator.Locator.
type TextFinder interface {
	ClickText(ctx context.Context, phrase string, button schemas.MouseButton, timeout time.Duration, retries int) (locator.ClickResult, error)
	WaitForText(ctx context.Context, phrase string, timeout time.Duration) locator.FindResult
	WaitForTextDisappear(ctx context.Context, phrase string, timeout time.Duration) bool
}

// Executor replays workflows against a control surface.
type Executor struct {
	surface Surface
	finder  TextFinder
	guard   *Guard
	cfg     config.ReplayConfig
	loc     config.LocatorConfig
	log     *zap.Logger

	// pause is replaced in tests to keep them fast.
	pause func(ctx context.Context, d time.Duration) error
}

// NewExecutor creates an Executor. finder may be nil; text-anchored steps
// then fall back to coordinates or fail.
func NewExecutor(surface Surface, finder TextFinder, guard *Guard, cfg config.ReplayConfig, loc config.LocatorConfig, logger *zap.Logger) (*Executor, error) {
	if surface == nil {
		return nil, errors.New("surface cannot be nil")
	}
	if guard == nil {
		return nil, errors.New("guard cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &Executor{
		surface: surface,
		finder:  finder,
		guard:   guard,
		cfg:     cfg,
		loc:     loc,
		log:     logger.Named("replay"),
		pause:   sleepCtx,
	}, nil
}

// Run executes every step of the workflow in order, emitting progress on
// the events channel. Run is synchronous and closes events before
// returning; callers consume the channel from another goroutine. The
// returned error is nil only for a completed run.
func (e *Executor) Run(ctx context.Context, wf *schemas.Workflow, events chan<- schemas.ExecEvent) error {
	defer close(events)

	e.guard.Reset()
	total := len(wf.Steps)
	e.log.Info("Starting workflow replay",
		zap.String("workflow", wf.Name),
		zap.Int("steps", total))

	for i, step := range wf.Steps {
		if e.guard.ShouldStop() || ctx.Err() != nil {
			e.log.Warn("Replay stopped", zap.Int("step", i))
			events <- schemas.ExecEvent{Kind: schemas.EventStopped, Step: i}
			return ErrStopped
		}

		events <- schemas.ExecEvent{Kind: schemas.EventProgress, Step: i + 1, Total: total, Message: step.Description}
		e.log.Info("Executing step",
			zap.Int("step", i+1),
			zap.String("action", string(step.Action)),
			zap.String("description", step.Description))

		if err := e.executeWithRetry(ctx, step); err != nil {
			if errors.Is(err, ErrFailSafe) {
				events <- schemas.ExecEvent{Kind: schemas.EventError, Step: i + 1, Message: err.Error()}
				return err
			}
			if errors.Is(err, ErrStopped) || errors.Is(err, context.Canceled) {
				events <- schemas.ExecEvent{Kind: schemas.EventStopped, Step: i}
				return ErrStopped
			}
			if step.ContinueOnError {
				e.log.Warn("Step failed, continuing",
					zap.Int("step", i+1),
					zap.Error(err))
				events <- schemas.ExecEvent{Kind: schemas.EventWarning, Step: i + 1, Message: err.Error()}
				continue
			}
			events <- schemas.ExecEvent{Kind: schemas.EventError, Step: i + 1, Message: err.Error()}
			return err
		}
	}

	e.log.Info("Workflow replay completed", zap.String("workflow", wf.Name))
	events <- schemas.ExecEvent{Kind: schemas.EventCompleted, Total: total}
	return nil
}

type outcome int

const (
	outcomeOK outcome = iota
	outcomeRetry
	outcomeFatal
)

func classify(err error) outcome {
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, ErrFailSafe),
		errors.Is(err, ErrStopped),
		errors.Is(err, ErrBlocked),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return outcomeFatal
	default:
		return outcomeRetry
	}
}

// executeWithRetry drives one step through the retry loop. Retriable
// failures repeat up to MaxRetries with a fixed delay; fatal ones surface
// immediately.
func (e *Executor) executeWithRetry(ctx context.Context, step schemas.Step) error {
	for attempt := 0; ; attempt++ {
		err := e.dispatch(ctx, step)
		switch classify(err) {
		case outcomeOK:
			return nil
		case outcomeFatal:
			return err
		case outcomeRetry:
			if attempt >= e.cfg.MaxRetries {
				return fmt.Errorf("step failed after %d retries: %w", e.cfg.MaxRetries, err)
			}
			e.log.Warn("Step failed, retrying",
				zap.Int("attempt", attempt+1),
				zap.Int("max_retries", e.cfg.MaxRetries),
				zap.Error(err))
			if perr := e.pause(ctx, e.cfg.RetryDelay); perr != nil {
				return perr
			}
		}
	}
}

// dispatch runs one step once. The fail-safe and the safety gate are
// checked before anything touches the surface.
func (e *Executor) dispatch(ctx context.Context, step schemas.Step) error {
	if err := e.checkFailSafe(); err != nil {
		return err
	}
	if e.guard.ShouldStop() {
		return ErrStopped
	}
	if err := e.guard.ValidateStep(step); err != nil {
		return err
	}

	switch step.Action {
	case schemas.StepClick:
		if err := e.doClick(ctx, step); err != nil {
			return err
		}
		return e.pause(ctx, clickPause)

	case schemas.StepType:
		if step.Text == "" {
			e.log.Warn("Type step without text")
			return nil
		}
		if err := e.surface.TypeText(step.Text, e.cfg.TypeInterval); err != nil {
			return err
		}
		return e.pause(ctx, typePause)

	case schemas.StepWait:
		d := step.Duration
		if d <= 0 {
			d = defaultWaitSeconds
		}
		return e.pause(ctx, time.Duration(d*float64(time.Second)))

	case schemas.StepWaitForText:
		return e.doWaitForText(ctx, step, false)

	case schemas.StepWaitForTextGone:
		return e.doWaitForText(ctx, step, true)

	case schemas.StepHotkey:
		if err := e.doHotkey(step); err != nil {
			return err
		}
		return e.pause(ctx, hotkeyPause)

	case schemas.StepBackspace:
		if err := e.surface.KeyTap("backspace"); err != nil {
			return err
		}
		return e.pause(ctx, typePause)

	case schemas.StepScroll:
		if err := e.doScroll(ctx, step); err != nil {
			return err
		}
		return e.pause(ctx, scrollPause)

	case schemas.StepMove:
		x, y := e.clamp(step.X, step.Y)
		return e.surface.MoveSmooth(x, y, e.cfg.MoveDuration)

	case schemas.StepAppActivate:
		if err := e.surface.ActivateApp(step.AppName, step.AppBundleID); err != nil {
			return err
		}
		return e.pause(ctx, clickPause)

	default:
		// Unknown steps are a recorded no-op: wait briefly and move on.
		e.log.Warn("Unknown step action", zap.String("action", string(step.Action)))
		return e.pause(ctx, idlePause)
	}
}

func (e *Executor) doClick(ctx context.Context, step schemas.Step) error {
	if step.FindByText != "" && e.finder == nil {
		e.log.Warn("No text finder configured, clicking recorded coordinates",
			zap.String("text", step.FindByText))
	}
	if step.FindByText != "" && e.finder != nil {
		timeout := e.loc.FindTimeout
		if step.Timeout > 0 {
			timeout = time.Duration(step.Timeout * float64(time.Second))
		}
		res, err := e.finder.ClickText(ctx, step.FindByText, step.Button, timeout, e.loc.ClickRetries)
		if err != nil {
			return err
		}
		if !res.Success {
			return fmt.Errorf("could not find text %q on screen", step.FindByText)
		}
		return nil
	}

	x, y := e.clamp(step.X, step.Y)
	if err := e.surface.MoveSmooth(x, y, e.cfg.MoveDuration); err != nil {
		return err
	}
	if err := e.pause(ctx, preClick); err != nil {
		return err
	}
	return e.surface.Click(step.Button, step.Clicks == 2)
}

func (e *Executor) doWaitForText(ctx context.Context, step schemas.Step, disappear bool) error {
	phrase := step.Text
	if phrase == "" {
		phrase = step.FindByText
	}
	if phrase == "" {
		e.log.Warn("Text wait step without a phrase")
		return nil
	}
	if e.finder == nil {
		return errors.New("no text finder available")
	}

	timeout := time.Duration(defaultTextWaitSeconds * float64(time.Second))
	if step.Timeout > 0 {
		timeout = time.Duration(step.Timeout * float64(time.Second))
	}

	if disappear {
		if !e.finder.WaitForTextDisappear(ctx, phrase, timeout) {
			return fmt.Errorf("text %q did not disappear within %s", phrase, timeout)
		}
		return nil
	}
	if res := e.finder.WaitForText(ctx, phrase, timeout); !res.Found {
		return fmt.Errorf("text %q did not appear within %s", phrase, timeout)
	}
	return nil
}

func (e *Executor) doHotkey(step schemas.Step) error {
	if len(step.Keys) == 0 {
		e.log.Warn("Hotkey step without keys")
		return nil
	}
	final := step.Keys[len(step.Keys)-1]
	mods := step.Keys[:len(step.Keys)-1]
	e.log.Debug("Pressing hotkey", zap.String("combo", strings.Join(step.Keys, "+")))
	return e.surface.KeyTap(final, mods...)
}

func (e *Executor) doScroll(ctx context.Context, step schemas.Step) error {
	amount := step.Amount
	if amount == 0 && step.DY != 0 {
		amount = int(step.DY * 100)
	}
	if step.X != 0 || step.Y != 0 {
		x, y := e.clamp(step.X, step.Y)
		if err := e.surface.MoveSmooth(x, y, 300*time.Millisecond); err != nil {
			return err
		}
	}
	return e.surface.Scroll(amount)
}

// checkFailSafe aborts when the pointer sits in a screen corner.
func (e *Executor) checkFailSafe() error {
	if !e.guard.FailSafeEnabled() {
		return nil
	}
	w, h := e.surface.ScreenSize()
	x, y := e.surface.Location()
	atEdgeX := x <= 0 || x >= w-1
	atEdgeY := y <= 0 || y >= h-1
	if atEdgeX && atEdgeY {
		return ErrFailSafe
	}
	return nil
}

// clamp keeps coordinates on screen.
func (e *Executor) clamp(x, y int) (int, int) {
	w, h := e.surface.ScreenSize()
	if x < 0 {
		x = 0
	} else if x > w-1 {
		x = w - 1
	}
	if y < 0 {
		y = 0
	} else if y > h-1 {
		y = h - 1
	}
	return x, y
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
