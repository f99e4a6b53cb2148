// File: internal/capture/apps.go
// Description: Frontmost-application polling. Trackers stamp each recorded
// action with the app that was frontmost when it happened, and the poller
// emits an app_change action whenever the frontmost app flips.

package capture

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/mimic-cli/api/schemas"
	"github.com/xkilldash9x/mimic-cli/internal/config"
)

// spreadsheetApps are matched as lowercase substrings of the app name.
var spreadsheetApps = []string{"excel", "numbers", "libreoffice calc", "google sheets"}

// IsSpreadsheetApp reports whether the named application is a known
// spreadsheet, in which case clicks and typing get a spreadsheet hint
// that conversion later resolves to a cell reference.
func IsSpreadsheetApp(name string) bool {
	lower := strings.ToLower(name)
	for _, s := range spreadsheetApps {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// AppProvider answers "what is the frontmost application right now".
// Implementations must be safe for concurrent use; a nil snapshot means
// the frontmost app could not be determined.
type AppProvider interface {
	Current() *schemas.AppContext
}

// FrontmostFunc queries the OS for the frontmost application. It runs on
// the poller goroutine only.
type FrontmostFunc func() (*schemas.AppContext, error)

// AppPoller samples the frontmost application at a fixed interval and
// records a transition action each time it changes. It also serves as the
// AppProvider for the input trackers, returning the last sample without
// touching the OS.
type AppPoller struct {
	mu      sync.Mutex
	cfg     config.AppsConfig
	log     *zap.Logger
	query   FrontmostFunc
	now     func() float64
	current *schemas.AppContext
	changes []schemas.Action
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewAppPoller creates a poller around the given frontmost query.
func NewAppPoller(cfg config.AppsConfig, query FrontmostFunc, logger *zap.Logger) *AppPoller {
	return &AppPoller{
		cfg:   cfg,
		log:   logger.Named("apps"),
		query: query,
		now:   func() float64 { return float64(time.Now().UnixNano()) / 1e9 },
	}
}

// Start records the initial frontmost app and begins polling. It is a
// no-op when already running.
func (p *AppPoller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done != nil {
		return
	}

	p.changes = nil
	p.current = nil
	if app, err := p.query(); err == nil && app != nil {
		p.current = app
		p.changes = append(p.changes, schemas.Action{
			Kind:      schemas.ActionAppChange,
			Timestamp: p.now(),
			ToApp:     app.Name,
			App:       app,
		})
		p.log.Info("Initial frontmost application", zap.String("app", app.Name))
	} else if err != nil {
		p.log.Warn("Could not determine frontmost application", zap.Error(err))
	}

	ctx, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})
	go p.run(ctx, p.done)
}

// Stop halts polling and returns the recorded app-change actions.
func (p *AppPoller) Stop() []schemas.Action {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]schemas.Action, len(p.changes))
	copy(out, p.changes)
	p.log.Info("Application tracking stopped", zap.Int("transitions", len(out)))
	return out
}

// Current returns the most recent frontmost-application sample.
func (p *AppPoller) Current() *schemas.AppContext {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return nil
	}
	snapshot := *p.current
	return &snapshot
}

func (p *AppPoller) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.sample()
		}
	}
}

func (p *AppPoller) sample() {
	app, err := p.query()
	if err != nil {
		p.log.Debug("Frontmost query failed", zap.Error(err))
		return
	}
	if app == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current != nil && p.current.Name == app.Name {
		return
	}

	change := schemas.Action{
		Kind:      schemas.ActionAppChange,
		Timestamp: p.now(),
		ToApp:     app.Name,
		App:       app,
	}
	if p.current != nil {
		change.FromApp = p.current.Name
	}
	p.changes = append(p.changes, change)
	p.log.Info("Frontmost application changed",
		zap.String("from", change.FromApp),
		zap.String("to", change.ToApp))
	p.current = app
}
