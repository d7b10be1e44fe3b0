package gesture

import (
	"time"

	"github.com/banshee-data/wallinput/internal/geometry"
)

// Defaults applied by NewEngine to zero-valued settings.
const (
	DefaultStuckTouchInterval = 500 * time.Millisecond
	DefaultNonCriticalDelay   = 10 * time.Millisecond
	DefaultBigTouchSize       = 150
	DefaultZoomScale          = 500
	DefaultWandScrollStep     = 32
)

// Policy holds the touch gesture toggles and thresholds.
type Policy struct {
	DoubleClickMaximize   bool
	ThreeFingerRightClick bool
	TwoFingerWindowDrag   bool
	TwoFingerZoom         bool
	FiveFingerClose       bool
	BigTouchPushToBack    bool
	// BigTouchSize is the contact width or height (touch-frame units) above
	// which a release counts as a big touch.
	BigTouchSize float64
	// NonCriticalDelay is the minimum spacing between forwarded move and
	// scroll updates of one source. Negative disables coalescing.
	NonCriticalDelay time.Duration
	// DragAcceleration scales the displacement from the drag anchor in
	// window mode. Zero disables exaggeration.
	DragAcceleration float64
	// ZoomScale converts a middleware zoom delta into a wheel delta.
	ZoomScale float64
	// ExcludedApps are applications that receive raw touch events only.
	ExcludedApps []string
}

// DefaultPolicy returns the stock touch policy.
func DefaultPolicy() Policy {
	return Policy{
		DoubleClickMaximize:   true,
		ThreeFingerRightClick: true,
		TwoFingerWindowDrag:   false,
		TwoFingerZoom:         true,
		FiveFingerClose:       false,
		BigTouchPushToBack:    true,
		BigTouchSize:          DefaultBigTouchSize,
		NonCriticalDelay:      DefaultNonCriticalDelay,
		ZoomScale:             DefaultZoomScale,
	}
}

// WandStyle is the on-screen appearance of one wand.
type WandStyle struct {
	Label string
	Color string
}

// SmootherParams configure the one-euro filter applied to wand positions.
type SmootherParams struct {
	Frequency float64
	MinCutoff float64
	Beta      float64
	DCutoff   float64
}

// EngineConfig is everything the engine reads at construction.
type EngineConfig struct {
	TouchEnabled bool
	WandEnabled  bool
	MocapEnabled bool

	Wall geometry.Wall
	// TouchOffsetX and TouchOffsetY shift touch positions in pixels.
	TouchOffsetX float64
	TouchOffsetY float64

	Policy             Policy
	StuckTouchInterval time.Duration

	Buttons        ButtonMap
	WandStyles     map[uint32]WandStyle
	WandScrollStep float64
	Smoother       SmootherParams
}
