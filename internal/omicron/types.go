package omicron

import "math"

// ServiceType identifies the middleware service that produced an event.
type ServiceType uint32

const (
	ServicePointer    ServiceType = 0
	ServiceMocap      ServiceType = 1
	ServiceKeyboard   ServiceType = 2
	ServiceController ServiceType = 3
	ServiceUI         ServiceType = 4
	ServiceGeneric    ServiceType = 5
	ServiceBrain      ServiceType = 6
	ServiceWand       ServiceType = 7
	ServiceAudio      ServiceType = 8
	ServiceSpeech     ServiceType = 9
	ServiceImage      ServiceType = 10
)

func (s ServiceType) String() string {
	switch s {
	case ServicePointer:
		return "pointer"
	case ServiceMocap:
		return "mocap"
	case ServiceKeyboard:
		return "keyboard"
	case ServiceController:
		return "controller"
	case ServiceUI:
		return "ui"
	case ServiceGeneric:
		return "generic"
	case ServiceBrain:
		return "brain"
	case ServiceWand:
		return "wand"
	case ServiceAudio:
		return "audio"
	case ServiceSpeech:
		return "speech"
	case ServiceImage:
		return "image"
	default:
		return "unknown"
	}
}

// EventType is the per-record action code.
type EventType uint32

const (
	EventSelect      EventType = 0
	EventToggle      EventType = 1
	EventChangeValue EventType = 2
	EventUpdate      EventType = 3
	EventMove        EventType = 4
	EventDown        EventType = 5
	EventUp          EventType = 6
	EventTrace       EventType = 7
	EventUntrace     EventType = 8
	EventClick       EventType = 9
	EventDoubleClick EventType = 10
	EventMoveLeft    EventType = 11
	EventMoveRight   EventType = 12
	EventMoveUp      EventType = 13
	EventMoveDown    EventType = 14
	EventZoom        EventType = 15
	EventSplitStart  EventType = 16
	EventSplitEnd    EventType = 17
	EventSplit       EventType = 18
	EventRotateStart EventType = 19
	EventRotateEnd   EventType = 20
	EventRotate      EventType = 21
	EventNull        EventType = 22
)

// Flag is a bit in the record's flags word.
type Flag uint32

const (
	FlagButton1        Flag = 1 << 0
	FlagButton2        Flag = 1 << 1
	FlagButton3        Flag = 1 << 2
	FlagSpecialButton1 Flag = 1 << 3
	FlagSpecialButton2 Flag = 1 << 4
	FlagSpecialButton3 Flag = 1 << 5
	FlagButton4        Flag = 1 << 6
	FlagButton5        Flag = 1 << 7
	FlagButton6        Flag = 1 << 8
	FlagButton7        Flag = 1 << 9
	FlagButtonUp       Flag = 1 << 10
	FlagButtonDown     Flag = 1 << 11
	FlagButtonLeft     Flag = 1 << 12
	FlagButtonRight    Flag = 1 << 13
	FlagProcessed      Flag = 1 << 14
	FlagUser           Flag = 1 << 18

	// Touch gesture flags set by the middleware's gesture manager.
	FlagSingleTouch     Flag = FlagUser << 1
	FlagBigTouch        Flag = FlagUser << 2
	FlagFiveFingerHold  Flag = FlagUser << 3
	FlagFiveFingerSwipe Flag = FlagUser << 4
	FlagThreeFingerHold Flag = FlagUser << 5
	FlagSingleClick     Flag = FlagUser << 6
	FlagDoubleClick     Flag = FlagUser << 7
	FlagMultiTouch      Flag = FlagUser << 8
)

// In reports whether all bits of f are set in flags.
func (f Flag) In(flags uint32) bool {
	return flags&uint32(f) == uint32(f) && f != 0
}

// ExtraDataType describes the layout of the payload after the header.
type ExtraDataType uint32

const (
	ExtraDataNull         ExtraDataType = 0
	ExtraDataFloatArray   ExtraDataType = 1
	ExtraDataIntArray     ExtraDataType = 2
	ExtraDataVector3Array ExtraDataType = 3
	ExtraDataString       ExtraDataType = 4
	ExtraDataKinectSpeech ExtraDataType = 5
)

// ExtraDataSize returns the payload length in bytes implied by the extra
// data type and item count. Unknown types carry no payload. Sizes too large
// for a 32-bit int saturate at math.MaxInt32.
func ExtraDataSize(t ExtraDataType, items uint32) int {
	var width uint64
	switch t {
	case ExtraDataFloatArray, ExtraDataIntArray:
		width = 4
	case ExtraDataVector3Array:
		width = 12
	case ExtraDataString, ExtraDataKinectSpeech:
		width = 1
	default:
		return 0
	}
	if n := uint64(items) * width; n <= math.MaxInt32 {
		return int(n)
	}
	return math.MaxInt32
}

// flagNames maps the names accepted in configuration to button flags.
var flagNames = map[string]Flag{
	"Button1":        FlagButton1,
	"Button2":        FlagButton2,
	"Button3":        FlagButton3,
	"SpecialButton1": FlagSpecialButton1,
	"SpecialButton2": FlagSpecialButton2,
	"SpecialButton3": FlagSpecialButton3,
	"Button4":        FlagButton4,
	"Button5":        FlagButton5,
	"Button6":        FlagButton6,
	"Button7":        FlagButton7,
	"ButtonUp":       FlagButtonUp,
	"ButtonDown":     FlagButtonDown,
	"ButtonLeft":     FlagButtonLeft,
	"ButtonRight":    FlagButtonRight,
}

// ParseFlag resolves a button flag by its configuration name.
func ParseFlag(name string) (Flag, bool) {
	f, ok := flagNames[name]
	return f, ok
}
