package gesture

import "github.com/banshee-data/wallinput/internal/omicron"

// Button identifies the logical mouse button of a press or release.
type Button string

const (
	ButtonLeft  Button = "left"
	ButtonRight Button = "right"
)

// Key codes sent by wand buttons and multi-finger policies.
const (
	KeyEnter      = 13
	KeySpace      = 32
	KeyArrowLeft  = 37
	KeyArrowUp    = 38
	KeyArrowRight = 39
	KeyArrowDown  = 40
	KeyDelete     = 46
)

// ShowOptions describe how the window manager draws a pointer.
type ShowOptions struct {
	Label      string
	Color      string
	SourceType string
}

// MoveDelta accompanies a drag.
type MoveDelta struct {
	DeltaX float64
	DeltaY float64
	Button Button
}

// Skeleton maps joint names to tracker-space positions.
type Skeleton map[string]omicron.Vec3

// MocapInput is forwarded for every motion-capture record. Skeleton is nil
// unless the record carried a full joint set.
type MocapInput struct {
	Position omicron.Vec3
	Skeleton Skeleton
}

// Emitter is the callback boundary implemented by the window manager side.
// Coordinates are absolute display pixels.
type Emitter interface {
	CreatePointer(id string)
	ShowPointer(id string, opts ShowOptions)
	HidePointer(id string)
	PointerPress(id string, x, y float64, button Button)
	PointerMove(id string, x, y float64, delta MoveDelta)
	PointerPosition(id string, x, y float64)
	PointerRelease(id string, x, y float64, button Button)
	PointerScrollStart(id string, x, y float64)
	PointerScroll(id string, wheelDelta float64)
	PointerScrollEnd(id string)
	PointerDblClick(id string, x, y float64)
	PointerSendToBack(id string, x, y float64)
	KeyDown(id string, x, y float64, code int)
	KeyUp(id string, x, y float64, code int)
	KeyPress(id string, x, y float64, code int)
	ChangeInteractionMode(id string)
	MocapInput(id string, input MocapInput)
}

// TargetResolver is optionally implemented by an Emitter that can name the
// application under a display position. It enables the touch exclusion list.
type TargetResolver interface {
	AppAt(x, y float64) string
}
