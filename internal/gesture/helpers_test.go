package gesture

import (
	"testing"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/wallinput/internal/geometry"
	"github.com/banshee-data/wallinput/internal/omicron"
	"github.com/banshee-data/wallinput/internal/timeutil"
)

const (
	wallW = 1920.0
	wallH = 1080.0
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type appAt func(x, y float64) string

func (f appAt) AppAt(x, y float64) string { return f(x, y) }

type recorder struct {
	calls []DisplayPointer
}

func (r *recorder) send(p DisplayPointer) { r.calls = append(r.calls, p) }

func (r *recorder) kinds() []Kind {
	out := make([]Kind, len(r.calls))
	for i, c := range r.calls {
		out[i] = c.Kind
	}
	return out
}

func (r *recorder) reset() { r.calls = nil }

func testConfig() EngineConfig {
	return EngineConfig{
		TouchEnabled: true,
		WandEnabled:  true,
		MocapEnabled: true,
		Wall: geometry.Wall{
			Width:  wallW,
			Height: wallH,
			Kind:   geometry.Planar,
			Planar: geometry.PlanarParams{Origin: r3.Vec{Y: 1}, Width: 4, Height: 2},
		},
		Policy: DefaultPolicy(),
	}
}

type harness struct {
	engine *Engine
	rec    *recorder
	clock  *timeutil.MockClock
}

func newHarness(t *testing.T, cfg EngineConfig, resolver TargetResolver) *harness {
	t.Helper()
	rec := &recorder{}
	clock := timeutil.NewMockClock(epoch)
	return &harness{
		engine: NewEngine(cfg, NewPointerStream(rec.send, resolver), clock),
		rec:    rec,
		clock:  clock,
	}
}

const identified = omicron.FieldSourceID | omicron.FieldServiceType | omicron.FieldType | omicron.FieldFlags

func touchEvent(typ omicron.EventType, sid uint32, x, y float32, flags omicron.Flag, payload ...float32) omicron.TrackingEvent {
	ev := omicron.TrackingEvent{
		SourceID:    sid,
		ServiceType: omicron.ServicePointer,
		Type:        typ,
		Flags:       uint32(flags),
		Position:    omicron.Vec3{X: x, Y: y},
		Present:     identified | omicron.FieldPosition,
	}
	if len(payload) > 0 {
		ev = ev.WithPayload(omicron.FloatPayload(payload...))
	}
	return ev
}

func zoomEvent(sid uint32, delta float32, phase int) omicron.TrackingEvent {
	return touchEvent(omicron.EventZoom, sid, 0.5, 0.5, 0, 10, 10, delta, float32(phase))
}

// wandEvent builds a wand record pointing straight at the wall from x
// meters right of its center.
func wandEvent(sid uint32, x float32, flags omicron.Flag) omicron.TrackingEvent {
	return omicron.TrackingEvent{
		SourceID:    sid,
		ServiceType: omicron.ServiceWand,
		Type:        omicron.EventUpdate,
		Flags:       uint32(flags),
		Position:    omicron.Vec3{X: x, Y: 1, Z: 2},
		Orientation: omicron.Quat{W: 1},
		Present:     identified | omicron.FieldPosition | omicron.FieldOrientation,
	}
}
