package gesture

// Kind is the type of a DisplayPointer record.
type Kind string

const (
	KindCreate      Kind = "create"
	KindShow        Kind = "show"
	KindHide        Kind = "hide"
	KindPress       Kind = "press"
	KindMove        Kind = "move"
	KindPosition    Kind = "position"
	KindRelease     Kind = "release"
	KindScrollStart Kind = "scrollStart"
	KindScroll      Kind = "scroll"
	KindScrollEnd   Kind = "scrollEnd"
	KindDblClick    Kind = "dblclick"
	KindSendToBack  Kind = "sendToBack"
	KindKeyDown     Kind = "keyDown"
	KindKeyUp       Kind = "keyUp"
	KindKeyPress    Kind = "keyPress"
	KindMode        Kind = "mode"
	KindMocap       Kind = "mocap"
)

// DisplayPointer is one emitter call flattened into a value, the form sinks
// serialise to the window manager.
type DisplayPointer struct {
	Source     string      `json:"source"`
	Kind       Kind        `json:"kind"`
	X          float64     `json:"x"`
	Y          float64     `json:"y"`
	Button     Button      `json:"button,omitempty"`
	DeltaX     float64     `json:"deltaX,omitempty"`
	DeltaY     float64     `json:"deltaY,omitempty"`
	WheelDelta float64     `json:"wheelDelta,omitempty"`
	Code       int         `json:"code,omitempty"`
	Label      string      `json:"label,omitempty"`
	Color      string      `json:"color,omitempty"`
	SourceType string      `json:"sourceType,omitempty"`
	Mocap      *MocapInput `json:"mocap,omitempty"`
}

// PointerStream implements Emitter by handing every call to a function as a
// DisplayPointer.
type PointerStream struct {
	send     func(DisplayPointer)
	resolver TargetResolver
}

// NewPointerStream creates a PointerStream. resolver may be nil.
func NewPointerStream(send func(DisplayPointer), resolver TargetResolver) *PointerStream {
	return &PointerStream{send: send, resolver: resolver}
}

// AppAt delegates to the configured resolver.
func (s *PointerStream) AppAt(x, y float64) string {
	if s.resolver == nil {
		return ""
	}
	return s.resolver.AppAt(x, y)
}

func (s *PointerStream) CreatePointer(id string) {
	s.send(DisplayPointer{Source: id, Kind: KindCreate})
}

func (s *PointerStream) ShowPointer(id string, opts ShowOptions) {
	s.send(DisplayPointer{Source: id, Kind: KindShow, Label: opts.Label, Color: opts.Color, SourceType: opts.SourceType})
}

func (s *PointerStream) HidePointer(id string) {
	s.send(DisplayPointer{Source: id, Kind: KindHide})
}

func (s *PointerStream) PointerPress(id string, x, y float64, button Button) {
	s.send(DisplayPointer{Source: id, Kind: KindPress, X: x, Y: y, Button: button})
}

func (s *PointerStream) PointerMove(id string, x, y float64, delta MoveDelta) {
	s.send(DisplayPointer{Source: id, Kind: KindMove, X: x, Y: y, DeltaX: delta.DeltaX, DeltaY: delta.DeltaY, Button: delta.Button})
}

func (s *PointerStream) PointerPosition(id string, x, y float64) {
	s.send(DisplayPointer{Source: id, Kind: KindPosition, X: x, Y: y})
}

func (s *PointerStream) PointerRelease(id string, x, y float64, button Button) {
	s.send(DisplayPointer{Source: id, Kind: KindRelease, X: x, Y: y, Button: button})
}

func (s *PointerStream) PointerScrollStart(id string, x, y float64) {
	s.send(DisplayPointer{Source: id, Kind: KindScrollStart, X: x, Y: y})
}

func (s *PointerStream) PointerScroll(id string, wheelDelta float64) {
	s.send(DisplayPointer{Source: id, Kind: KindScroll, WheelDelta: wheelDelta})
}

func (s *PointerStream) PointerScrollEnd(id string) {
	s.send(DisplayPointer{Source: id, Kind: KindScrollEnd})
}

func (s *PointerStream) PointerDblClick(id string, x, y float64) {
	s.send(DisplayPointer{Source: id, Kind: KindDblClick, X: x, Y: y})
}

func (s *PointerStream) PointerSendToBack(id string, x, y float64) {
	s.send(DisplayPointer{Source: id, Kind: KindSendToBack, X: x, Y: y})
}

func (s *PointerStream) KeyDown(id string, x, y float64, code int) {
	s.send(DisplayPointer{Source: id, Kind: KindKeyDown, X: x, Y: y, Code: code})
}

func (s *PointerStream) KeyUp(id string, x, y float64, code int) {
	s.send(DisplayPointer{Source: id, Kind: KindKeyUp, X: x, Y: y, Code: code})
}

func (s *PointerStream) KeyPress(id string, x, y float64, code int) {
	s.send(DisplayPointer{Source: id, Kind: KindKeyPress, X: x, Y: y, Code: code})
}

func (s *PointerStream) ChangeInteractionMode(id string) {
	s.send(DisplayPointer{Source: id, Kind: KindMode})
}

func (s *PointerStream) MocapInput(id string, input MocapInput) {
	in := input
	s.send(DisplayPointer{Source: id, Kind: KindMocap, X: float64(input.Position.X), Y: float64(input.Position.Y), Mocap: &in})
}
