// File: internal/locator/locator.go
// Description: Fuzzy text location over OCR output. Used at conversion time
// to attach a textual anchor to a click, and again at replay time to
// re-locate that anchor when pixel coordinates have shifted.

package locator

import (
	"context"
	"errors"
	"os"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/mimic-cli/api/schemas"
	"github.com/xkilldash9x/mimic-cli/internal/config"
	"github.com/xkilldash9x/mimic-cli/internal/ocr"
)

// Pointer is the minimal mouse surface ClickText needs. The replay control
// surface satisfies it.
type Pointer interface {
	MoveSmooth(x, y int, duration time.Duration) error
	Click(button schemas.MouseButton, double bool) error
}

// MatchCandidate is a transient scoring record; it is never persisted.
type MatchCandidate struct {
	Region schemas.Region
	Score  int
}

// FindResult is the structured outcome of a text search. A miss is a
// result with Found=false, not an error, so callers decide policy.
type FindResult struct {
	Found      bool
	BBox       schemas.BBox
	CenterX    int
	CenterY    int
	Text       string
	Confidence float64
}

// ClickResult reports a find-and-click cycle.
type ClickResult struct {
	Success    bool
	ClickedX   int
	ClickedY   int
	Text       string
	Confidence float64
}

// Locator finds text on screen through the OCR adapter.
type Locator struct {
	engine  ocr.Engine
	screen  ocr.Screen
	pointer Pointer
	cfg     config.LocatorConfig
	log     *zap.Logger
}

// New creates a Locator. The pointer may be nil when only FindText-style
// queries are needed (e.g. during conversion).
func New(engine ocr.Engine, screen ocr.Screen, pointer Pointer, cfg config.LocatorConfig, logger *zap.Logger) (*Locator, error) {
	if engine == nil {
		return nil, errors.New("ocr engine cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &Locator{
		engine:  engine,
		screen:  screen,
		pointer: pointer,
		cfg:     cfg,
		log:     logger.Named("locator"),
	}, nil
}

// Locate scores every region against the phrase and returns the qualifying
// candidates best-first. The ordering is deterministic: identical inputs
// always produce the identical ordering.
//
// A region qualifies if the trimmed, case-insensitive phrase is a substring
// of its text, or at least one phrase token appears in it. The score is
//
//	(2 if full match else 1)*1000 + tokenHits*100 + floor(conf*10) + min(area/1000, 100)
//
// with ties broken by confidence, then area, both descending.
func Locate(phrase string, regions []schemas.Region) []MatchCandidate {
	search := strings.ToLower(strings.TrimSpace(phrase))
	if search == "" {
		return nil
	}
	tokens := strings.Fields(search)

	var matches []MatchCandidate
	for _, region := range regions {
		text := strings.TrimSpace(region.Text)
		if text == "" {
			continue
		}
		lower := strings.ToLower(text)

		fullPhrase := strings.Contains(lower, search)
		tokenHits := 0
		for _, tok := range tokens {
			if strings.Contains(lower, tok) {
				tokenHits++
			}
		}
		if !fullPhrase && tokenHits == 0 {
			continue
		}

		base := 1
		if fullPhrase {
			base = 2
		}
		areaBias := region.BBox.Area() / 1000
		if areaBias > 100 {
			areaBias = 100
		}
		score := base*1000 + tokenHits*100 + int(region.Confidence*10) + areaBias
		matches = append(matches, MatchCandidate{Region: region, Score: score})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		if matches[i].Region.Confidence != matches[j].Region.Confidence {
			return matches[i].Region.Confidence > matches[j].Region.Confidence
		}
		return matches[i].Region.BBox.Area() > matches[j].Region.BBox.Area()
	})
	return matches
}

// FindInRegions returns the best match for the phrase within a fixed region
// set, without touching the screen.
func FindInRegions(phrase string, regions []schemas.Region) FindResult {
	candidates := Locate(phrase, regions)
	if len(candidates) == 0 {
		return FindResult{}
	}
	best := candidates[0].Region
	cx, cy := best.BBox.Center()
	return FindResult{
		Found:      true,
		BBox:       best.BBox,
		CenterX:    cx,
		CenterY:    cy,
		Text:       best.Text,
		Confidence: best.Confidence,
	}
}

// FindText captures fresh screenshots in a loop until the phrase is found
// or the timeout elapses. Capture or recognition errors end the loop early;
// either way a miss comes back as Found=false.
func (l *Locator) FindText(ctx context.Context, phrase string, timeout time.Duration) FindResult {
	if l.screen == nil {
		l.log.Warn("FindText called without a screen source", zap.String("phrase", phrase))
		return FindResult{}
	}

	deadline := time.Now().Add(timeout)
	for {
		if err := ctx.Err(); err != nil {
			return FindResult{}
		}

		shot, err := l.screen.Capture(ctx)
		if err != nil {
			l.log.Warn("Screen capture failed during text search", zap.String("phrase", phrase), zap.Error(err))
			return FindResult{}
		}
		regions, err := l.engine.Recognize(ctx, shot)
		os.Remove(shot)
		if err != nil {
			l.log.Warn("OCR failed during text search", zap.String("phrase", phrase), zap.Error(err))
			return FindResult{}
		}

		if res := FindInRegions(phrase, regions); res.Found {
			return res
		}

		if time.Now().Add(l.cfg.CheckInterval).After(deadline) {
			return FindResult{}
		}
		select {
		case <-ctx.Done():
			return FindResult{}
		case <-time.After(l.cfg.CheckInterval):
		}
	}
}

// WaitForText blocks until the phrase appears on screen or the timeout
// elapses.
func (l *Locator) WaitForText(ctx context.Context, phrase string, timeout time.Duration) FindResult {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if res := l.FindText(ctx, phrase, l.cfg.CheckInterval); res.Found {
			return res
		}
		select {
		case <-ctx.Done():
			return FindResult{}
		case <-time.After(l.cfg.CheckInterval):
		}
	}
	return FindResult{}
}

// WaitForTextDisappear blocks until the phrase is no longer on screen.
// It returns false if the phrase was still visible when the timeout elapsed.
func (l *Locator) WaitForTextDisappear(ctx context.Context, phrase string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if res := l.FindText(ctx, phrase, l.cfg.CheckInterval); !res.Found {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(l.cfg.CheckInterval):
		}
	}
	return false
}

// ClickText runs the whole find-and-click cycle up to retries times: find
// the phrase, move the pointer to the match's bounding-box center, click.
func (l *Locator) ClickText(ctx context.Context, phrase string, button schemas.MouseButton, timeout time.Duration, retries int) (ClickResult, error) {
	if l.pointer == nil {
		return ClickResult{}, errors.New("locator has no pointer surface")
	}
	if retries <= 0 {
		retries = l.cfg.ClickRetries
	}
	if button == "" {
		button = schemas.ButtonLeft
	}

	for attempt := 1; attempt <= retries; attempt++ {
		l.log.Debug("Searching for text to click",
			zap.String("phrase", phrase),
			zap.Int("attempt", attempt),
			zap.Int("retries", retries))

		res := l.FindText(ctx, phrase, timeout)
		if res.Found {
			if err := l.pointer.MoveSmooth(res.CenterX, res.CenterY, 300*time.Millisecond); err != nil {
				return ClickResult{}, err
			}
			select {
			case <-ctx.Done():
				return ClickResult{}, ctx.Err()
			case <-time.After(100 * time.Millisecond):
			}
			if err := l.pointer.Click(button, false); err != nil {
				return ClickResult{}, err
			}
			l.log.Info("Clicked text anchor",
				zap.String("phrase", phrase),
				zap.Int("x", res.CenterX),
				zap.Int("y", res.CenterY))
			return ClickResult{
				Success:    true,
				ClickedX:   res.CenterX,
				ClickedY:   res.CenterY,
				Text:       res.Text,
				Confidence: res.Confidence,
			}, nil
		}

		if attempt < retries {
			select {
			case <-ctx.Done():
				return ClickResult{}, ctx.Err()
			case <-time.After(500 * time.Millisecond):
			}
		}
	}
	return ClickResult{}, nil
}
