// Package gesture turns decoded tracking events into pointer and gesture
// calls on the window manager's Emitter.
//
// The Engine keeps one PointerSource per touch or wand id and is not safe
// for concurrent use: the transport calls Handle and Sweep from a single
// event loop, which is also where Emitter callbacks run.
package gesture

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/banshee-data/wallinput/internal/monitoring"
	"github.com/banshee-data/wallinput/internal/omicron"
	"github.com/banshee-data/wallinput/internal/smoothing"
	"github.com/banshee-data/wallinput/internal/timeutil"
)

// Stats counts what the engine did with the events it was given.
type Stats struct {
	Handled   int64
	Dropped   int64
	Coalesced int64
	OffScreen int64
	Stuck     int64
}

// Engine is the per-source gesture state machine.
type Engine struct {
	cfg      EngineConfig
	emitter  Emitter
	resolver TargetResolver
	clock    timeutil.Clock
	excluded map[string]bool
	buttons  []omicron.Flag

	touches map[uint32]*PointerSource
	groups  map[uint32]*TouchGroup
	wands   map[uint32]*PointerSource

	stats Stats
}

// NewEngine creates an engine emitting to emitter. Zero durations and
// thresholds in cfg are replaced by their defaults.
func NewEngine(cfg EngineConfig, emitter Emitter, clock timeutil.Clock) *Engine {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	if cfg.StuckTouchInterval <= 0 {
		cfg.StuckTouchInterval = DefaultStuckTouchInterval
	}
	if cfg.Policy.NonCriticalDelay == 0 {
		cfg.Policy.NonCriticalDelay = DefaultNonCriticalDelay
	}
	if cfg.Policy.BigTouchSize <= 0 {
		cfg.Policy.BigTouchSize = DefaultBigTouchSize
	}
	if cfg.Policy.ZoomScale == 0 {
		cfg.Policy.ZoomScale = DefaultZoomScale
	}
	if cfg.WandScrollStep == 0 {
		cfg.WandScrollStep = DefaultWandScrollStep
	}
	if cfg.Buttons == nil {
		cfg.Buttons = DefaultButtonMap()
	}
	if cfg.Smoother == (SmootherParams{}) {
		cfg.Smoother = SmootherParams{
			Frequency: smoothing.DefaultFrequency,
			MinCutoff: smoothing.DefaultMinCutoff,
			Beta:      smoothing.DefaultBeta,
			DCutoff:   smoothing.DefaultDCutoff,
		}
	}

	e := &Engine{
		cfg:      cfg,
		emitter:  emitter,
		clock:    clock,
		excluded: make(map[string]bool, len(cfg.Policy.ExcludedApps)),
		buttons:  cfg.Buttons.ordered(),
		touches:  make(map[uint32]*PointerSource),
		groups:   make(map[uint32]*TouchGroup),
		wands:    make(map[uint32]*PointerSource),
	}
	if r, ok := emitter.(TargetResolver); ok {
		e.resolver = r
	}
	for _, app := range cfg.Policy.ExcludedApps {
		e.excluded[strings.ToLower(app)] = true
	}
	return e
}

// SweepInterval is the period at which Sweep should run.
func (e *Engine) SweepInterval() time.Duration {
	return e.cfg.StuckTouchInterval
}

// Stats returns the counters accumulated so far.
func (e *Engine) Stats() Stats {
	return e.stats
}

// Touch returns the live state of a touch id.
func (e *Engine) Touch(sourceID uint32) (*PointerSource, bool) {
	s, ok := e.touches[sourceID]
	return s, ok
}

// Wand returns the live state of a wand id.
func (e *Engine) Wand(sourceID uint32) (*PointerSource, bool) {
	s, ok := e.wands[sourceID]
	return s, ok
}

// Group returns the multi-touch group led by a primary touch.
func (e *Engine) Group(primary uint32) (*TouchGroup, bool) {
	g, ok := e.groups[primary]
	return g, ok
}

// Sources returns every live touch and wand ordered by address.
func (e *Engine) Sources() []*PointerSource {
	out := make([]*PointerSource, 0, len(e.touches)+len(e.wands))
	for _, s := range e.touches {
		out = append(out, s)
	}
	for _, s := range e.wands {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ActiveTouches is the number of touches currently tracked.
func (e *Engine) ActiveTouches() int {
	return len(e.touches)
}

// Handle processes one decoded event. Events for disabled channels, unknown
// services and records missing their identifying fields are dropped.
func (e *Engine) Handle(ev omicron.TrackingEvent) {
	if !ev.Has(omicron.FieldSourceID | omicron.FieldServiceType | omicron.FieldType | omicron.FieldFlags) {
		e.stats.Dropped++
		return
	}
	now := e.clock.Now()

	switch {
	case ev.ServiceType == omicron.ServicePointer && e.cfg.TouchEnabled:
		e.handleTouch(ev, now)
	case ev.ServiceType == omicron.ServiceWand && e.cfg.WandEnabled:
		e.handleWand(ev, now)
	case ev.ServiceType == omicron.ServiceMocap && e.cfg.MocapEnabled:
		e.handleMocap(ev)
	default:
		e.stats.Dropped++
		return
	}
	e.stats.Handled++
}

// Sweep removes touches that have not been updated within the stuck-touch
// interval and hides their pointers. It returns the number removed.
func (e *Engine) Sweep() int {
	now := e.clock.Now()
	removed := 0
	for sid, src := range e.touches {
		idle := now.Sub(src.LastUpdate)
		if idle <= e.cfg.StuckTouchInterval {
			continue
		}
		monitoring.Logf("gesture: removing stuck touch %s (idle %v)", src.ID, idle)
		e.emitter.HidePointer(src.ID)
		delete(e.touches, sid)
		delete(e.groups, sid)
		removed++
	}
	e.stats.Stuck += int64(removed)
	return removed
}

// throttle admits at most one non-critical update per window.
type throttle struct {
	last time.Time
}

func (t *throttle) allow(now time.Time, window time.Duration) bool {
	if window <= 0 {
		return true
	}
	if !t.last.IsZero() && now.Sub(t.last) < window {
		return false
	}
	t.last = now
	return true
}

func (e *Engine) allow(t *throttle, now time.Time) bool {
	if t.allow(now, e.cfg.Policy.NonCriticalDelay) {
		return true
	}
	e.stats.Coalesced++
	return false
}

func (e *Engine) isExcluded(x, y float64) bool {
	if e.resolver == nil || len(e.excluded) == 0 {
		return false
	}
	return e.excluded[strings.ToLower(e.resolver.AppAt(x, y))]
}

func touchAddress(id uint32) string { return fmt.Sprintf("touch:%d", id) }
func wandAddress(id uint32) string  { return fmt.Sprintf("wand:%d", id) }
func mocapAddress(id uint32) string { return fmt.Sprintf("mocap:%d", id) }
