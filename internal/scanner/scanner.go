// Package scanner runs the two-phase capture loop: a low-frequency
// trigger watch that looks for the inventory screen, and a
// high-frequency tooltip scan around the cursor once it is open.
package scanner

import (
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/corona10/goimagehash"

	"github.com/arclens/arclens/internal/capture"
	"github.com/arclens/arclens/internal/config"
	"github.com/arclens/arclens/internal/errors"
	"github.com/arclens/arclens/internal/fuzzy"
	"github.com/arclens/arclens/internal/ocr"
	"github.com/arclens/arclens/internal/preprocess"
	"github.com/arclens/arclens/internal/store"
	"github.com/arclens/arclens/internal/syncx"
	"github.com/arclens/arclens/internal/tooltip"
)

// State is the scanner's lifecycle phase.
type State int

const (
	// StateIdle scans the trigger regions at a relaxed cadence.
	StateIdle State = iota
	// StateActive scans the tooltip area every tick.
	StateActive
	// StatePaused keeps the goroutine alive but does no capture work.
	StatePaused
	// StateStopped is terminal.
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

const (
	// maxHashDistance is the pHash Hamming distance under which two
	// tooltip frames count as the same image.
	maxHashDistance = 3

	errorBackoff  = time.Second
	pausedPoll    = 100 * time.Millisecond
	eventsBufSize = 16
)

// Stats counts scanner activity since start.
type Stats struct {
	TriggerScans  int
	TooltipScans  int
	ItemsDetected int
	ItemsFound    int
	LastItem      string
	LastItemTime  time.Time
}

// Event is a message for the presentation layer.
type Event interface {
	eventKind() string
}

// StatusEvent announces a scanner phase change.
type StatusEvent struct {
	Status string `json:"status"`
}

func (StatusEvent) eventKind() string { return "status" }

// RecommendationEvent carries a detected item and its database verdict.
type RecommendationEvent struct {
	Name  string      `json:"name"`
	Item  *store.Item `json:"item,omitempty"`
	Found bool        `json:"found"`
}

func (RecommendationEvent) eventKind() string { return "recommendation" }

// Lookuper resolves a recognized name to a recommendation.
type Lookuper interface {
	Lookup(name string) (*store.Item, error)
}

// Resolver optionally rewrites a recommendation, e.g. against the
// user's station levels.
type Resolver func(store.Item) store.Item

// Scanner owns the background scan goroutine.
type Scanner struct {
	cfg      *config.Config
	capturer capture.Capturer
	engine   ocr.Engine
	db       Lookuper
	resolve  Resolver

	events chan Event
	stats  *syncx.RWGuard[Stats]

	mu            sync.Mutex
	state         State
	running       bool
	lastShownName string
	lastShownTime time.Time
	triggerTick   int
	lastHash      *goimagehash.ImageHash
	lastParsed    string
	screen        image.Point

	stop chan struct{}
	done chan struct{}

	now func() time.Time
}

// New wires a scanner. resolve may be nil.
func New(cfg *config.Config, capturer capture.Capturer, engine ocr.Engine, db Lookuper, resolve Resolver) *Scanner {
	return &Scanner{
		cfg:      cfg,
		capturer: capturer,
		engine:   engine,
		db:       db,
		resolve:  resolve,
		events:   make(chan Event, eventsBufSize),
		stats:    syncx.NewGuard(Stats{}),
		state:    StateIdle,
		now:      time.Now,
	}
}

// Events is the channel the overlay server consumes. Sends never
// block; events are dropped when the consumer falls behind.
func (s *Scanner) Events() <-chan Event { return s.events }

// State returns the current lifecycle phase.
func (s *Scanner) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot returns a copy of the activity counters.
func (s *Scanner) Snapshot() Stats { return s.stats.Get() }

// Start launches the scan goroutine. Calling Start on a running
// scanner is a no-op.
func (s *Scanner) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	if s.done != nil {
		// A previous Stop may have timed out with its goroutine still
		// draining. Reassigning the channels under it would race.
		select {
		case <-s.done:
		default:
			s.mu.Unlock()
			slog.Warn("previous scan goroutine still running, start refused")
			return
		}
	}
	s.running = true
	s.state = StateIdle
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	s.mu.Unlock()

	if size, err := s.capturer.ScreenSize(); err != nil {
		slog.Warn("screen size query failed", "error", err)
	} else {
		s.mu.Lock()
		s.screen = size
		s.mu.Unlock()
	}

	go s.run()
	slog.Info("scanner started")
}

// Stop halts the goroutine and waits up to two intervals for it to
// exit. Safe to call more than once.
func (s *Scanner) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.state = StateStopped
	close(s.stop)
	done := s.done
	s.mu.Unlock()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		slog.Warn("scan goroutine did not stop in time")
	}
	slog.Info("scanner stopped")
}

// Pause suspends capture work without ending the goroutine.
func (s *Scanner) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateIdle || s.state == StateActive {
		s.state = StatePaused
		slog.Info("scanner paused")
	}
}

// Resume returns a paused scanner to trigger watching.
func (s *Scanner) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StatePaused {
		s.state = StateIdle
		slog.Info("scanner resumed")
	}
}

func (s *Scanner) run() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	defer close(done)

	for {
		switch s.State() {
		case StateStopped:
			return
		case StatePaused:
			if !s.sleep(pausedPoll) {
				return
			}
		case StateIdle:
			if err := s.idleTick(); err != nil {
				s.reportError(err)
				if !s.sleep(errorBackoff) {
					return
				}
			}
		case StateActive:
			if err := s.activeTick(); err != nil {
				s.reportError(err)
				if !s.sleep(errorBackoff) {
					return
				}
			}
		}
	}
}

// idleTick performs one trigger scan and promotes to Active on a hit.
func (s *Scanner) idleTick() error {
	s.emit(StatusEvent{Status: "scanning"})

	hit, err := s.checkTrigger()
	s.stats.Write(func(st *Stats) { st.TriggerScans++ })
	if err != nil {
		return err
	}

	if hit {
		s.setState(StateIdle, StateActive)
		s.emit(StatusEvent{Status: "active"})
		slog.Info("trigger detected, tooltip scan active", "word", config.TriggerWord)
		return nil
	}
	s.sleep(s.cfg.TriggerScanInterval)
	return nil
}

// activeTick re-validates the trigger every few ticks, then scans the
// tooltip area at the cursor.
func (s *Scanner) activeTick() error {
	s.mu.Lock()
	s.triggerTick++
	recheck := s.cfg.TriggerRecheckEvery > 0 && s.triggerTick%s.cfg.TriggerRecheckEvery == 0
	s.mu.Unlock()

	if recheck {
		hit, err := s.checkTrigger()
		if err != nil {
			return err
		}
		if !hit {
			s.setState(StateActive, StateIdle)
			s.emit(StatusEvent{Status: "scanning"})
			slog.Info("trigger gone, returning to idle")
			return nil
		}
	}

	name, err := s.scanTooltip()
	s.stats.Write(func(st *Stats) { st.TooltipScans++ })
	if err != nil {
		return err
	}
	if name != "" {
		s.handleName(name)
	}

	s.sleep(s.cfg.TooltipScanInterval)
	return nil
}

// checkTrigger OCRs each configured trigger region and reports whether
// any of them reads as the trigger word. Stops at the first hit.
func (s *Scanner) checkTrigger() (bool, error) {
	for _, region := range s.cfg.TriggerRegions {
		if !region.Valid() {
			continue
		}
		img, err := s.capturer.CaptureRegion(region.Bounds())
		if err != nil {
			slog.Debug("trigger capture failed, using blank frame", "error", err)
			img = capture.Blank(region.Width, region.Height)
		}
		processed := preprocess.Trigger(img)
		s.dumpDebugFrame("trigger", processed)
		res, err := s.engine.Recognize(processed, ocr.PageSingleLine, ocr.UppercaseWhitelist)
		if err != nil {
			// A failed recognition means nothing readable in this
			// region, not a broken loop. Only unexpected failures
			// reach the error backoff.
			if !errors.IsRecoverable(err) {
				return false, err
			}
			slog.Debug("trigger recognition failed, treating as empty", "error", err)
			continue
		}
		if fuzzy.Match(res.Text, config.TriggerWord) {
			return true, nil
		}
	}
	return false, nil
}

// scanTooltip captures around the cursor and extracts an item name,
// "" when the frame holds none.
func (s *Scanner) scanTooltip() (string, error) {
	cursor, err := s.capturer.CursorPosition()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	screen := s.screen
	s.mu.Unlock()
	if screen.X == 0 || screen.Y == 0 {
		screen = image.Pt(1<<15, 1<<15)
	}

	rect := s.cfg.TooltipCapture.ResolveAt(cursor, screen)
	img, err := s.capturer.CaptureRegion(rect)
	if err != nil {
		slog.Debug("tooltip capture failed, using blank frame", "error", err)
		img = capture.Blank(rect.Dx(), rect.Dy())
	}

	if s.shouldSkipFrame(img) {
		return "", nil
	}

	processed := preprocess.Tooltip(img)
	s.dumpDebugFrame("tooltip", processed)
	res, err := s.engine.Recognize(processed, ocr.PageBlock, "")
	if err != nil {
		if !errors.IsRecoverable(err) {
			return "", err
		}
		slog.Debug("tooltip recognition failed, treating as empty", "error", err)
		res = ocr.Result{}
	}

	name := tooltip.ParseName(res.RawText)
	s.mu.Lock()
	s.lastParsed = name
	s.mu.Unlock()
	return name, nil
}

// shouldSkipFrame skips OCR when the frame is nearly identical to the
// previous one and that frame yielded no name. A repeat of a frame
// that did yield a name is still processed so the cooldown window is
// measured against real sightings.
func (s *Scanner) shouldSkipFrame(img image.Image) bool {
	hash, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.lastHash
	s.lastHash = hash
	if prev == nil || s.lastParsed != "" {
		return false
	}

	dist, err := prev.Distance(hash)
	if err != nil {
		return false
	}
	if dist <= maxHashDistance {
		slog.Debug("skipping unchanged tooltip frame", "distance", dist)
		return true
	}
	return false
}

// handleName applies the cooldown policy, looks the item up, and
// publishes a recommendation.
func (s *Scanner) handleName(name string) {
	now := s.now()

	s.mu.Lock()
	if name == s.lastShownName && now.Sub(s.lastShownTime) < s.cfg.Cooldown {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	s.stats.Write(func(st *Stats) {
		st.ItemsDetected++
		st.LastItem = name
		st.LastItemTime = now
	})

	item, err := s.db.Lookup(name)
	if err != nil {
		slog.Error("recommendation lookup failed", "name", name, "error", err)
		item = nil
	}
	if item != nil {
		if s.resolve != nil {
			resolved := s.resolve(*item)
			item = &resolved
		}
		s.stats.Write(func(st *Stats) { st.ItemsFound++ })
		slog.Debug("item matched", "name", name, "action", item.Action)
	} else {
		slog.Debug("unknown item", "name", name)
	}

	s.emit(RecommendationEvent{Name: name, Item: item, Found: item != nil})

	s.mu.Lock()
	s.lastShownName = name
	s.lastShownTime = now
	s.mu.Unlock()
}

func (s *Scanner) setState(from, to State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == from {
		s.state = to
	}
}

func (s *Scanner) reportError(err error) {
	slog.Error("scan tick failed", "error", err)
	s.emit(StatusEvent{Status: "error"})
}

// emit publishes without blocking; a full channel drops the event.
func (s *Scanner) emit(ev Event) {
	select {
	case s.events <- ev:
	default:
		slog.Debug("event channel full, dropping", "kind", ev.eventKind())
	}
}

// dumpDebugFrame saves a preprocessed frame so capture regions can be
// calibrated against what the engine actually sees.
func (s *Scanner) dumpDebugFrame(prefix string, img image.Image) {
	if !s.cfg.DebugMode || s.cfg.DebugOutputDir == "" {
		return
	}
	if err := os.MkdirAll(s.cfg.DebugOutputDir, 0o755); err != nil {
		slog.Debug("debug dir unavailable", "dir", s.cfg.DebugOutputDir, "error", err)
		return
	}
	path := filepath.Join(s.cfg.DebugOutputDir, fmt.Sprintf("%s_%d.png", prefix, s.now().UnixMilli()))
	f, err := os.Create(path)
	if err != nil {
		slog.Debug("debug frame create failed", "path", path, "error", err)
		return
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		slog.Debug("debug frame encode failed", "path", path, "error", err)
	}
}

// sleep waits for d or until Stop, reporting false on stop.
func (s *Scanner) sleep(d time.Duration) bool {
	if d <= 0 {
		return true
	}
	s.mu.Lock()
	stop := s.stop
	s.mu.Unlock()
	select {
	case <-stop:
		return false
	case <-time.After(d):
		return true
	}
}
