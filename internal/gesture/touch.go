package gesture

import (
	"time"

	"github.com/banshee-data/wallinput/internal/monitoring"
	"github.com/banshee-data/wallinput/internal/omicron"
)

// Zoom phases carried in the fourth float of a zoom record.
const (
	zoomStart  = 1
	zoomUpdate = 2
	zoomEnd    = 3
)

// touchPayload is the FloatArray attached to touch records:
//
//	[0] contact width, [1] contact height
//	zoom:        [2] zoom delta, [3] phase
//	multi-touch: [2] finger count n, then n × (id, x, y)
type touchPayload struct {
	width, height float64
	zoomDelta     float64
	zoomPhase     int
	children      map[uint32]point
}

func (e *Engine) parseTouchPayload(ev omicron.TrackingEvent) touchPayload {
	var p touchPayload
	f := ev.Floats()
	if len(f) >= 2 {
		p.width, p.height = float64(f[0]), float64(f[1])
	}
	if ev.Type == omicron.EventZoom {
		if len(f) >= 4 {
			p.zoomDelta = float64(f[2])
			p.zoomPhase = int(f[3])
		}
		return p
	}
	if omicron.FlagMultiTouch.In(ev.Flags) && len(f) >= 3 {
		n := int(f[2])
		p.children = make(map[uint32]point, n)
		for i := 0; i < n; i++ {
			base := 3 + 3*i
			if base+2 >= len(f) {
				break
			}
			x, y := e.touchPixels(float64(f[base+1]), float64(f[base+2]))
			p.children[uint32(f[base])] = point{X: x, Y: y}
		}
	}
	return p
}

func (e *Engine) touchPixels(nx, ny float64) (float64, float64) {
	return nx*e.cfg.Wall.Width + e.cfg.TouchOffsetX, ny*e.cfg.Wall.Height + e.cfg.TouchOffsetY
}

func (e *Engine) handleTouch(ev omicron.TrackingEvent, now time.Time) {
	switch ev.Type {
	case omicron.EventDown:
		e.touchDown(ev, now)
	case omicron.EventMove:
		e.touchMove(ev, now)
	case omicron.EventUp:
		e.touchUp(ev, now)
	case omicron.EventZoom:
		e.touchZoom(ev, now)
	}
}

// register returns the source for a touch, creating it at (x, y) on first
// sighting.
func (e *Engine) register(sid uint32, x, y float64, now time.Time) *PointerSource {
	if src, ok := e.touches[sid]; ok {
		return src
	}
	src := &PointerSource{
		ID:       touchAddress(sid),
		SourceID: sid,
		Kind:     "touch",
		X:        x,
		Y:        y,
		AnchorX:  x,
		AnchorY:  y,
		Excluded: e.isExcluded(x, y),
	}
	src.LastUpdate = now
	e.touches[sid] = src
	return src
}

func (e *Engine) updateGroup(sid uint32, p touchPayload) *TouchGroup {
	if p.children == nil {
		return e.groups[sid]
	}
	g, ok := e.groups[sid]
	if !ok {
		g = &TouchGroup{Primary: sid, Children: make(map[uint32]point)}
		e.groups[sid] = g
	}
	g.merge(p.children)
	return g
}

func (e *Engine) touchDown(ev omicron.TrackingEvent, now time.Time) {
	x, y := e.touchPixels(float64(ev.Position.X), float64(ev.Position.Y))
	src := e.register(ev.SourceID, x, y, now)
	src.X, src.Y = x, y
	src.AnchorX, src.AnchorY = x, y
	src.Flags = ev.Flags
	src.LastUpdate = now
	e.updateGroup(ev.SourceID, e.parseTouchPayload(ev))

	e.emitter.PointerPosition(src.ID, x, y)
	src.move.last = now

	pol := e.cfg.Policy
	flags := ev.Flags
	single := omicron.FlagSingleTouch.In(flags)
	double := omicron.FlagDoubleClick.In(flags)

	switch {
	case src.Excluded:
		if single || double {
			e.press(src, ButtonLeft)
		}
	case double && pol.DoubleClickMaximize:
		e.emitter.PointerDblClick(src.ID, x, y)
	case omicron.FlagFiveFingerHold.In(flags) && pol.FiveFingerClose:
		e.emitter.KeyPress(src.ID, x, y, KeyDelete)
	case omicron.FlagThreeFingerHold.In(flags) && pol.ThreeFingerRightClick:
		e.press(src, ButtonRight)
	case single || double:
		e.press(src, ButtonLeft)
	}
}

func (e *Engine) press(src *PointerSource, b Button) {
	src.Pressed = true
	src.Button = b
	e.emitter.PointerPress(src.ID, src.X, src.Y, b)
}

// touchPosition computes where a touch update should place the pointer:
// the group centroid for a two-finger window drag, with drag exaggeration
// applied in window mode.
func (e *Engine) touchPosition(src *PointerSource, ev omicron.TrackingEvent, g *TouchGroup) (float64, float64) {
	x, y := e.touchPixels(float64(ev.Position.X), float64(ev.Position.Y))
	if src.Excluded {
		return x, y
	}
	pol := e.cfg.Policy
	if pol.TwoFingerWindowDrag && g != nil && g.Size() == 2 {
		if cx, cy, ok := g.Centroid(); ok {
			x, y = cx, cy
			src.Class = ClassMove
		}
	}
	if src.Mode == ModeWindow && src.Pressed && pol.DragAcceleration != 0 {
		x += (x - src.AnchorX) * pol.DragAcceleration
		y += (y - src.AnchorY) * pol.DragAcceleration
	}
	return x, y
}

func (e *Engine) touchMove(ev omicron.TrackingEvent, now time.Time) {
	raw, rawY := e.touchPixels(float64(ev.Position.X), float64(ev.Position.Y))
	src := e.register(ev.SourceID, raw, rawY, now)
	src.LastUpdate = now
	src.Flags = ev.Flags
	if src.Class == ClassZoom {
		return
	}

	g := e.updateGroup(ev.SourceID, e.parseTouchPayload(ev))
	src.X, src.Y = e.touchPosition(src, ev, g)
	if e.allow(&src.move, now) {
		e.emitter.PointerPosition(src.ID, src.X, src.Y)
	}
}

func (e *Engine) touchUp(ev omicron.TrackingEvent, now time.Time) {
	src, ok := e.touches[ev.SourceID]
	if !ok {
		return
	}
	p := e.parseTouchPayload(ev)
	if src.Class == ClassZoom {
		e.endZoom(src)
	} else if ev.Has(omicron.FieldPosition) {
		src.X, src.Y = e.touchPosition(src, ev, e.groups[ev.SourceID])
	}

	pol := e.cfg.Policy
	big := omicron.FlagBigTouch.In(ev.Flags) || p.width > pol.BigTouchSize || p.height > pol.BigTouchSize
	if big && pol.BigTouchPushToBack && !src.Excluded {
		e.emitter.PointerSendToBack(src.ID, src.X, src.Y)
	}
	e.release(src)
}

func (e *Engine) release(src *PointerSource) {
	b := src.Button
	if b == "" {
		b = ButtonLeft
	}
	e.emitter.PointerRelease(src.ID, src.X, src.Y, b)
	delete(e.touches, src.SourceID)
	delete(e.groups, src.SourceID)
}

func (e *Engine) touchZoom(ev omicron.TrackingEvent, now time.Time) {
	x, y := e.touchPixels(float64(ev.Position.X), float64(ev.Position.Y))
	src := e.register(ev.SourceID, x, y, now)
	src.LastUpdate = now

	if !e.cfg.Policy.TwoFingerZoom || src.Excluded {
		src.X, src.Y = x, y
		if e.allow(&src.move, now) {
			e.emitter.PointerPosition(src.ID, x, y)
		}
		return
	}

	p := e.parseTouchPayload(ev)
	switch p.zoomPhase {
	case zoomStart:
		src.X, src.Y = x, y
		e.startZoom(src)
	case zoomUpdate:
		if src.Class != ClassZoom {
			src.X, src.Y = x, y
			e.startZoom(src)
		}
		wheel := src.pendingWheel - p.zoomDelta*e.cfg.Policy.ZoomScale
		if e.allow(&src.scroll, now) {
			e.emitter.PointerScroll(src.ID, wheel)
			src.pendingWheel = 0
		} else {
			src.pendingWheel = wheel
		}
	case zoomEnd:
		src.X, src.Y = x, y
		if src.Class == ClassZoom {
			e.endZoom(src)
		}
		e.release(src)
	default:
		monitoring.Debugf("gesture: %s zoom with unknown phase %d", src.ID, p.zoomPhase)
	}
}

func (e *Engine) startZoom(src *PointerSource) {
	if src.Class == ClassZoom {
		return
	}
	src.Class = ClassZoom
	src.pendingWheel = 0
	e.emitter.PointerScrollStart(src.ID, src.X, src.Y)
}

func (e *Engine) endZoom(src *PointerSource) {
	if src.pendingWheel != 0 {
		e.emitter.PointerScroll(src.ID, src.pendingWheel)
		src.pendingWheel = 0
	}
	e.emitter.PointerScrollEnd(src.ID)
	src.Class = ClassNone
}
