package gesture

import (
	"time"

	"github.com/banshee-data/wallinput/internal/omicron"
	"github.com/banshee-data/wallinput/internal/smoothing"
)

// Classification is the gesture a source is currently performing.
type Classification int

const (
	ClassNone Classification = iota
	ClassZoom
	ClassMove
	ClassAppMode
)

func (c Classification) String() string {
	switch c {
	case ClassZoom:
		return "zoom"
	case ClassMove:
		return "move"
	case ClassAppMode:
		return "app"
	default:
		return "none"
	}
}

// Mode is a wand interaction mode.
type Mode int

const (
	ModeWindow Mode = iota
	ModeApp
)

func (m Mode) String() string {
	if m == ModeApp {
		return "app"
	}
	return "window"
}

// PointerSource is the mutable state of one touch or wand.
type PointerSource struct {
	ID       string
	SourceID uint32
	Kind     string

	X, Y       float64
	AnchorX    float64
	AnchorY    float64
	Flags      uint32
	Class      Classification
	Mode       Mode
	Visible    bool
	Button     Button
	Pressed    bool
	Excluded   bool
	LastUpdate time.Time

	move         throttle
	scroll       throttle
	pendingWheel float64
	pressMode    map[omicron.Flag]Mode

	filter *smoothing.Filter2D
}

// TouchGroup aggregates the fingers of a multi-touch gesture under its
// primary touch.
type TouchGroup struct {
	Primary  uint32
	Children map[uint32]point
}

type point struct {
	X, Y float64
}

// merge replaces the membership with the given children, dropping any that
// are no longer reported.
func (g *TouchGroup) merge(children map[uint32]point) {
	for id := range g.Children {
		if _, ok := children[id]; !ok {
			delete(g.Children, id)
		}
	}
	for id, p := range children {
		g.Children[id] = p
	}
}

// Size is the number of fingers in the group.
func (g *TouchGroup) Size() int {
	return len(g.Children)
}

// Centroid is the mean finger position.
func (g *TouchGroup) Centroid() (float64, float64, bool) {
	if len(g.Children) == 0 {
		return 0, 0, false
	}
	var sx, sy float64
	for _, p := range g.Children {
		sx += p.X
		sy += p.Y
	}
	n := float64(len(g.Children))
	return sx / n, sy / n, true
}
