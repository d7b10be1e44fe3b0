package gesture

import (
	"time"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/wallinput/internal/geometry"
	"github.com/banshee-data/wallinput/internal/omicron"
	"github.com/banshee-data/wallinput/internal/smoothing"
)

func (e *Engine) wand(ev omicron.TrackingEvent, now time.Time) *PointerSource {
	if src, ok := e.wands[ev.SourceID]; ok {
		return src
	}
	sp := e.cfg.Smoother
	src := &PointerSource{
		ID:       wandAddress(ev.SourceID),
		SourceID: ev.SourceID,
		Kind:     "wand",
		X:        e.cfg.Wall.Width / 2,
		Y:        e.cfg.Wall.Height / 2,
		Visible:  true,
		filter:   smoothing.NewFilter2D(sp.Frequency, sp.MinCutoff, sp.Beta, sp.DCutoff),
	}
	src.AnchorX, src.AnchorY = src.X, src.Y
	src.LastUpdate = now
	e.wands[ev.SourceID] = src

	e.emitter.CreatePointer(src.ID)
	e.emitter.ShowPointer(src.ID, e.wandShowOptions(ev.SourceID))
	return src
}

func (e *Engine) wandShowOptions(sid uint32) ShowOptions {
	style := e.cfg.WandStyles[sid]
	if style.Label == "" {
		style.Label = wandAddress(sid)
	}
	return ShowOptions{Label: style.Label, Color: style.Color, SourceType: "wand"}
}

func (e *Engine) handleWand(ev omicron.TrackingEvent, now time.Time) {
	src := e.wand(ev, now)
	src.LastUpdate = now
	prev, cur := src.Flags, ev.Flags

	forwarded := false
	var dx, dy float64
	if f, ok := e.cfg.Buttons.Flag(ActionMovePointerHold); ok && f.In(cur) {
		if e.updateWandPosition(src, ev, now) && e.allow(&src.move, now) {
			dx, dy = src.X-src.AnchorX, src.Y-src.AnchorY
			src.AnchorX, src.AnchorY = src.X, src.Y
			e.emitter.PointerPosition(src.ID, src.X, src.Y)
			forwarded = true
		}
	}

	// A held button keeps the mode it was pressed in, so a mode toggle
	// mid-hold still closes the scroll or key it opened.
	if src.pressMode == nil {
		src.pressMode = make(map[omicron.Flag]Mode)
	}
	for _, f := range e.buttons {
		a := e.cfg.Buttons[f]
		was, is := f.In(prev), f.In(cur)
		switch {
		case is && !was:
			src.pressMode[f] = src.Mode
			e.wandPress(src, a)
		case is && was:
			e.wandHold(src, a, src.pressMode[f], now, forwarded, dx, dy)
		case was:
			e.wandRelease(src, a, src.pressMode[f])
			delete(src.pressMode, f)
		}
	}
	src.Flags = cur
}

// updateWandPosition recomputes the pointer from the wand pose. It reports
// whether the pointer moved; off-screen poses leave it where it was.
func (e *Engine) updateWandPosition(src *PointerSource, ev omicron.TrackingEvent, now time.Time) bool {
	if !ev.Has(omicron.FieldPosition | omicron.FieldOrientation) {
		return false
	}
	pos := r3.Vec{X: float64(ev.Position.X), Y: float64(ev.Position.Y), Z: float64(ev.Position.Z)}
	q := quat.Number{
		Real: float64(ev.Orientation.W),
		Imag: float64(ev.Orientation.X),
		Jmag: float64(ev.Orientation.Y),
		Kmag: float64(ev.Orientation.Z),
	}
	p := geometry.Resolve(pos, q, e.cfg.Wall)
	if !p.OnScreen() {
		e.stats.OffScreen++
		return false
	}
	nx, ny := src.filter.Filter(p.X, p.Y, now)
	x, y := e.cfg.Wall.ToPixels(geometry.Point{X: nx, Y: ny})
	if x == src.X && y == src.Y {
		return false
	}
	src.X, src.Y = x, y
	return true
}

func (e *Engine) wandPress(src *PointerSource, a Action) {
	id, x, y := src.ID, src.X, src.Y
	app := src.Mode == ModeApp
	switch a {
	case ActionClickDrag:
		src.Pressed = true
		src.Button = ButtonLeft
		e.emitter.PointerPress(id, x, y, ButtonLeft)
	case ActionMenu:
		e.emitter.PointerPress(id, x, y, ButtonRight)
	case ActionShowHide:
		if src.Visible {
			e.emitter.HidePointer(id)
		} else {
			e.emitter.ShowPointer(id, e.wandShowOptions(src.SourceID))
		}
		src.Visible = !src.Visible
	case ActionScaleUp, ActionScaleDown:
		if app {
			e.emitter.KeyDown(id, x, y, scaleKey(a))
			return
		}
		e.emitter.PointerScrollStart(id, x, y)
		e.emitter.PointerScroll(id, e.scaleWheel(a))
	case ActionMaximize:
		if app {
			e.emitter.KeyPress(id, x, y, KeyEnter)
			return
		}
		e.emitter.PointerDblClick(id, x, y)
	case ActionPrevious:
		e.emitter.KeyDown(id, x, y, KeyArrowLeft)
	case ActionNext:
		e.emitter.KeyDown(id, x, y, KeyArrowRight)
	case ActionPlay:
		e.emitter.KeyPress(id, x, y, KeySpace)
	case ActionToggleMode:
		if app {
			src.Mode = ModeWindow
			src.Class = ClassNone
		} else {
			src.Mode = ModeApp
			src.Class = ClassAppMode
		}
		e.emitter.ChangeInteractionMode(id)
	}
}

func (e *Engine) wandHold(src *PointerSource, a Action, mode Mode, now time.Time, moved bool, dx, dy float64) {
	switch a {
	case ActionClickDrag:
		if moved {
			e.emitter.PointerMove(src.ID, src.X, src.Y, MoveDelta{DeltaX: dx, DeltaY: dy, Button: ButtonLeft})
		}
	case ActionScaleUp, ActionScaleDown:
		if mode == ModeWindow && e.allow(&src.scroll, now) {
			e.emitter.PointerScroll(src.ID, e.scaleWheel(a))
		}
	}
}

func (e *Engine) wandRelease(src *PointerSource, a Action, mode Mode) {
	id, x, y := src.ID, src.X, src.Y
	switch a {
	case ActionClickDrag:
		src.Pressed = false
		e.emitter.PointerRelease(id, x, y, ButtonLeft)
	case ActionMenu:
		e.emitter.PointerRelease(id, x, y, ButtonRight)
	case ActionScaleUp, ActionScaleDown:
		if mode == ModeApp {
			e.emitter.KeyUp(id, x, y, scaleKey(a))
			return
		}
		e.emitter.PointerScrollEnd(id)
	case ActionPrevious:
		e.emitter.KeyUp(id, x, y, KeyArrowLeft)
	case ActionNext:
		e.emitter.KeyUp(id, x, y, KeyArrowRight)
	case ActionMovePointerHold:
		src.filter.Reset()
	}
}

// scaleWheel is negative for scale up, matching a zoom-in wheel.
func (e *Engine) scaleWheel(a Action) float64 {
	if a == ActionScaleUp {
		return -e.cfg.WandScrollStep
	}
	return e.cfg.WandScrollStep
}

func scaleKey(a Action) int {
	if a == ActionScaleUp {
		return KeyArrowUp
	}
	return KeyArrowDown
}
