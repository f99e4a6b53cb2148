// File: internal/replay/control.go
// Description: The OS control surface used during replay. The Surface
// interface keeps the executor testable; the robotgo implementation is the
// one real step dispatch talks to.

package replay

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/go-vgo/robotgo"

	"github.com/xkilldash9x/mimic-cli/api/schemas"
)

// Surface abstracts the mouse, keyboard and screen operations a replay
// needs. Implementations are not required to be concurrency-safe; the
// executor serializes all calls.
type Surface interface {
	ScreenSize() (width, height int)
	Location() (x, y int)
	MoveSmooth(x, y int, duration time.Duration) error
	Click(button schemas.MouseButton, double bool) error
	TypeText(text string, interval time.Duration) error
	KeyTap(key string, modifiers ...string) error
	Scroll(amount int) error
	ActivateApp(name, bundleID string) error
}

// RobotSurface drives the real desktop through robotgo.
type RobotSurface struct{}

// NewRobotSurface returns the production control surface.
func NewRobotSurface() *RobotSurface {
	return &RobotSurface{}
}

func (s *RobotSurface) ScreenSize() (int, int) {
	return robotgo.GetScreenSize()
}

func (s *RobotSurface) Location() (int, int) {
	return robotgo.Location()
}

func (s *RobotSurface) MoveSmooth(x, y int, duration time.Duration) error {
	robotgo.MoveSmooth(x, y, 1.0, duration.Seconds()*10)
	return nil
}

func (s *RobotSurface) Click(button schemas.MouseButton, double bool) error {
	name := "left"
	switch button {
	case schemas.ButtonRight:
		name = "right"
	case schemas.ButtonMiddle:
		name = "center"
	}
	robotgo.Click(name, double)
	return nil
}

func (s *RobotSurface) TypeText(text string, interval time.Duration) error {
	robotgo.TypeStrDelay(text, int(interval.Milliseconds()))
	return nil
}

func (s *RobotSurface) KeyTap(key string, modifiers ...string) error {
	mods := make([]interface{}, len(modifiers))
	for i, mod := range modifiers {
		mods[i] = robotgoModifier(mod)
	}
	return robotgo.KeyTap(key, mods...)
}

func (s *RobotSurface) Scroll(amount int) error {
	robotgo.Scroll(0, amount)
	return nil
}

// ActivateApp brings the target application to the foreground. On macOS it
// goes through AppleScript, preferring the bundle identifier; elsewhere it
// falls back to robotgo's window activation.
func (s *RobotSurface) ActivateApp(name, bundleID string) error {
	if runtime.GOOS == "darwin" {
		script := fmt.Sprintf(`tell application %q to activate`, name)
		if bundleID != "" {
			script = fmt.Sprintf(`tell application id %q to activate`, bundleID)
		}
		if err := exec.Command("osascript", "-e", script).Run(); err != nil {
			return fmt.Errorf("activating %s: %w", name, err)
		}
		return nil
	}
	if err := robotgo.ActiveName(name); err != nil {
		return fmt.Errorf("activating %s: %w", name, err)
	}
	return nil
}

// robotgoModifier translates the recorded modifier names into the ones
// robotgo understands.
func robotgoModifier(mod string) string {
	switch strings.ToLower(mod) {
	case "cmd", "command", "super":
		return "command"
	case "ctrl", "control":
		return "control"
	case "alt", "option":
		return "alt"
	case "shift":
		return "shift"
	}
	return mod
}
