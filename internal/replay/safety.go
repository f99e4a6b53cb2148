// File: internal/replay/safety.go
// Description: Pre-dispatch safety gate for replay. Holds the cooperative
// stop flag, blocks typed text containing sensitive keywords and clicks
// inside excluded screen regions.

package replay

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/xkilldash9x/mimic-cli/api/schemas"
	"github.com/xkilldash9x/mimic-cli/internal/config"
)

var (
	// ErrFailSafe means the user yanked the pointer into a screen corner;
	// the run aborts regardless of continue_on_error.
	ErrFailSafe = errors.New("fail-safe triggered: pointer moved to screen corner")

	// ErrStopped means a cooperative stop was requested.
	ErrStopped = errors.New("execution stopped")

	// ErrBlocked means the safety gate refused a step.
	ErrBlocked = errors.New("step blocked by safety policy")
)

// Guard is the safety gate consulted before every step. All methods are
// safe for concurrent use; RequestStop is expected to arrive from another
// goroutine.
type Guard struct {
	log      *zap.Logger
	keywords []string
	failSafe bool

	stopped atomic.Bool

	mu       sync.Mutex
	excluded []schemas.BBox
}

// NewGuard builds a Guard from the safety configuration.
func NewGuard(cfg config.SafetyConfig, logger *zap.Logger) *Guard {
	keywords := make([]string, len(cfg.SensitiveKeywords))
	for i, kw := range cfg.SensitiveKeywords {
		keywords[i] = strings.ToLower(kw)
	}
	return &Guard{
		log:      logger.Named("safety"),
		keywords: keywords,
		failSafe: cfg.FailSafe,
	}
}

// Reset clears the stop flag for a fresh run. Excluded regions persist.
func (g *Guard) Reset() {
	g.stopped.Store(false)
}

// RequestStop asks the executor to stop before the next step.
func (g *Guard) RequestStop() {
	g.stopped.Store(true)
	g.log.Info("Stop requested")
}

// ShouldStop reports whether a stop has been requested.
func (g *Guard) ShouldStop() bool {
	return g.stopped.Load()
}

// FailSafeEnabled reports whether the corner fail-safe is active.
func (g *Guard) FailSafeEnabled() bool {
	return g.failSafe
}

// AddExcludedRegion registers a screen region clicks must avoid.
func (g *Guard) AddExcludedRegion(region schemas.BBox) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.excluded = append(g.excluded, region)
}

// PositionSafe reports whether the coordinates fall outside every excluded
// region.
func (g *Guard) PositionSafe(x, y int) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, r := range g.excluded {
		if x >= r.X && x <= r.X+r.Width && y >= r.Y && y <= r.Y+r.Height {
			g.log.Warn("Position is inside an excluded region",
				zap.Int("x", x), zap.Int("y", y))
			return false
		}
	}
	return true
}

// ValidateStep vets one step before dispatch. A nil return means the step
// may run; otherwise the error wraps ErrBlocked with the refusal reason.
func (g *Guard) ValidateStep(step schemas.Step) error {
	if step.Action == schemas.StepType {
		lower := strings.ToLower(step.Text)
		for _, kw := range g.keywords {
			if strings.Contains(lower, kw) {
				g.log.Warn("Blocked sensitive text input", zap.String("keyword", kw))
				return fmt.Errorf("%w: typed text matches sensitive keyword %q", ErrBlocked, kw)
			}
		}
	}

	if step.Action == schemas.StepClick && step.FindByText == "" {
		if !g.PositionSafe(step.X, step.Y) {
			return fmt.Errorf("%w: click at (%d, %d) is inside an excluded region", ErrBlocked, step.X, step.Y)
		}
	}
	return nil
}
