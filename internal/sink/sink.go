// Package sink carries the gesture engine's DisplayPointer stream to the
// window manager.
package sink

import (
	"fmt"

	"github.com/banshee-data/wallinput/internal/gesture"
	"github.com/banshee-data/wallinput/internal/monitoring"
)

// Sink delivers DisplayPointer records. Send is called from the event loop
// and must not block.
type Sink interface {
	Send(p gesture.DisplayPointer)
	Close() error
}

// Log writes every record through monitoring.Logf.
type Log struct{}

// Send logs p.
func (Log) Send(p gesture.DisplayPointer) {
	monitoring.Logf("%s", Describe(p))
}

// Close is a no-op.
func (Log) Close() error { return nil }

// Describe renders p as a single log line.
func Describe(p gesture.DisplayPointer) string {
	s := fmt.Sprintf("pointer %s %s", p.Source, p.Kind)
	switch p.Kind {
	case gesture.KindScroll:
		s += fmt.Sprintf(" wheel=%g", p.WheelDelta)
	case gesture.KindScrollEnd, gesture.KindHide, gesture.KindCreate, gesture.KindMode:
	case gesture.KindShow:
		s += fmt.Sprintf(" label=%q color=%q", p.Label, p.Color)
	case gesture.KindMocap:
		joints := 0
		if p.Mocap != nil {
			joints = len(p.Mocap.Skeleton)
		}
		s += fmt.Sprintf(" (%.2f, %.2f) joints=%d", p.X, p.Y, joints)
	default:
		s += fmt.Sprintf(" (%.0f, %.0f)", p.X, p.Y)
	}
	if p.Button != "" {
		s += " button=" + string(p.Button)
	}
	if p.Code != 0 {
		s += fmt.Sprintf(" code=%d", p.Code)
	}
	return s
}

// Func adapts a function to Sink.
type Func func(p gesture.DisplayPointer)

// Send calls f.
func (f Func) Send(p gesture.DisplayPointer) { f(p) }

// Close is a no-op.
func (Func) Close() error { return nil }
