package gesture

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/wallinput/internal/omicron"
)

func TestWand_FirstSightingCreatesAndShows(t *testing.T) {
	cfg := testConfig()
	cfg.WandStyles = map[uint32]WandStyle{1: {Label: "Red wand", Color: "#ff0000"}}
	h := newHarness(t, cfg, nil)

	h.engine.Handle(wandEvent(1, 0, 0))
	h.engine.Handle(wandEvent(2, 0, 0))

	want := []DisplayPointer{
		{Source: "wand:1", Kind: KindCreate},
		{Source: "wand:1", Kind: KindShow, Label: "Red wand", Color: "#ff0000", SourceType: "wand"},
		{Source: "wand:2", Kind: KindCreate},
		{Source: "wand:2", Kind: KindShow, Label: "wand:2", SourceType: "wand"},
	}
	if diff := cmp.Diff(want, h.rec.calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
	src, ok := h.engine.Wand(1)
	require.True(t, ok)
	assert.Equal(t, wallW/2, src.X)
	assert.True(t, src.Visible)
}

func TestWand_PositionOnlyWhileHoldHeld(t *testing.T) {
	h := newHarness(t, testConfig(), nil)

	h.engine.Handle(wandEvent(1, 1, 0))
	assert.Equal(t, []Kind{KindCreate, KindShow}, h.rec.kinds(), "pose ignored without hold")
	h.rec.reset()

	h.clock.Advance(20 * time.Millisecond)
	h.engine.Handle(wandEvent(1, 1, omicron.FlagButton5))

	assert.Equal(t, []DisplayPointer{{Source: "wand:1", Kind: KindPosition, X: 1440, Y: 540}}, h.rec.calls)
}

func TestWand_ClickDrag(t *testing.T) {
	h := newHarness(t, testConfig(), nil)
	hold := omicron.FlagButton5
	drag := omicron.FlagButton3

	h.engine.Handle(wandEvent(1, 1, hold))
	h.clock.Advance(20 * time.Millisecond)
	h.engine.Handle(wandEvent(1, 1, hold|drag))

	src, _ := h.engine.Wand(1)
	assert.True(t, src.Pressed)
	assert.Contains(t, h.rec.calls, DisplayPointer{Source: "wand:1", Kind: KindPress, X: src.X, Y: src.Y, Button: ButtonLeft})

	anchor := src.AnchorX
	h.rec.reset()
	h.clock.Advance(20 * time.Millisecond)
	h.engine.Handle(wandEvent(1, 0, hold|drag))

	require.Equal(t, []Kind{KindPosition, KindMove}, h.rec.kinds())
	move := h.rec.calls[1]
	assert.Equal(t, ButtonLeft, move.Button)
	assert.Less(t, move.DeltaX, 0.0)
	assert.InDelta(t, src.X-anchor, move.DeltaX, 1e-9)
	assert.Greater(t, src.X, wallW/2, "smoothing lags the jump")

	h.rec.reset()
	h.clock.Advance(20 * time.Millisecond)
	h.engine.Handle(wandEvent(1, 0, 0))
	assert.Equal(t, []Kind{KindRelease}, h.rec.kinds())
	assert.False(t, src.Pressed)
}

func TestWand_OffScreenPoseKeepsPointer(t *testing.T) {
	h := newHarness(t, testConfig(), nil)

	ev := wandEvent(1, 0, omicron.FlagButton5)
	ev.Orientation = omicron.Quat{Y: 1}
	h.engine.Handle(ev)

	assert.Equal(t, []Kind{KindCreate, KindShow}, h.rec.kinds())
	assert.Equal(t, int64(1), h.engine.Stats().OffScreen)
}

func TestWand_ScaleInWindowMode(t *testing.T) {
	h := newHarness(t, testConfig(), nil)

	h.engine.Handle(wandEvent(1, 0, omicron.FlagButtonUp))
	h.clock.Advance(20 * time.Millisecond)
	h.engine.Handle(wandEvent(1, 0, omicron.FlagButtonUp))
	h.clock.Advance(5 * time.Millisecond)
	h.engine.Handle(wandEvent(1, 0, omicron.FlagButtonUp))
	h.engine.Handle(wandEvent(1, 0, 0))

	want := []DisplayPointer{
		{Source: "wand:1", Kind: KindCreate},
		{Source: "wand:1", Kind: KindShow, Label: "wand:1", SourceType: "wand"},
		{Source: "wand:1", Kind: KindScrollStart, X: 960, Y: 540},
		{Source: "wand:1", Kind: KindScroll, WheelDelta: -DefaultWandScrollStep},
		{Source: "wand:1", Kind: KindScroll, WheelDelta: -DefaultWandScrollStep},
		{Source: "wand:1", Kind: KindScrollEnd},
	}
	if diff := cmp.Diff(want, h.rec.calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestWand_ToggleModeSwitchesBindings(t *testing.T) {
	h := newHarness(t, testConfig(), nil)
	h.engine.Handle(wandEvent(1, 0, 0))
	h.rec.reset()

	h.engine.Handle(wandEvent(1, 0, omicron.FlagButton7))
	src, _ := h.engine.Wand(1)
	assert.Equal(t, ModeApp, src.Mode)
	assert.Equal(t, ClassAppMode, src.Class)

	h.engine.Handle(wandEvent(1, 0, 0))
	h.engine.Handle(wandEvent(1, 0, omicron.FlagButtonDown))
	h.engine.Handle(wandEvent(1, 0, 0))
	h.engine.Handle(wandEvent(1, 0, omicron.FlagButton4))
	h.engine.Handle(wandEvent(1, 0, 0))

	want := []DisplayPointer{
		{Source: "wand:1", Kind: KindMode},
		{Source: "wand:1", Kind: KindKeyDown, X: 960, Y: 540, Code: KeyArrowDown},
		{Source: "wand:1", Kind: KindKeyUp, X: 960, Y: 540, Code: KeyArrowDown},
		{Source: "wand:1", Kind: KindKeyPress, X: 960, Y: 540, Code: KeyEnter},
	}
	if diff := cmp.Diff(want, h.rec.calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}

	h.rec.reset()
	h.engine.Handle(wandEvent(1, 0, omicron.FlagButton7))
	h.engine.Handle(wandEvent(1, 0, omicron.FlagButton4))
	assert.Equal(t, []Kind{KindMode, KindDblClick}, h.rec.kinds())
	assert.Equal(t, ModeWindow, src.Mode)
	assert.Equal(t, ClassNone, src.Class)
}

func TestWand_ScaleHeldAcrossModeToggle(t *testing.T) {
	h := newHarness(t, testConfig(), nil)

	h.engine.Handle(wandEvent(1, 0, omicron.FlagButtonUp))
	h.engine.Handle(wandEvent(1, 0, omicron.FlagButtonUp|omicron.FlagButton7))
	h.engine.Handle(wandEvent(1, 0, 0))

	src, _ := h.engine.Wand(1)
	assert.Equal(t, ModeApp, src.Mode)
	assert.Equal(t, []Kind{
		KindCreate, KindShow,
		KindScrollStart, KindScroll,
		KindMode, KindScroll,
		KindScrollEnd,
	}, h.rec.kinds())

	h.rec.reset()
	h.engine.Handle(wandEvent(1, 0, omicron.FlagButtonUp))
	h.engine.Handle(wandEvent(1, 0, 0))
	assert.Equal(t, []Kind{KindKeyDown, KindKeyUp}, h.rec.kinds())
}

func TestWand_ShowHideToggles(t *testing.T) {
	cfg := testConfig()
	cfg.WandStyles = map[uint32]WandStyle{1: {Label: "Blue", Color: "#0000ff"}}
	h := newHarness(t, cfg, nil)
	h.engine.Handle(wandEvent(1, 0, 0))
	h.rec.reset()

	h.engine.Handle(wandEvent(1, 0, omicron.FlagButton1))
	h.engine.Handle(wandEvent(1, 0, omicron.FlagButton1))
	h.engine.Handle(wandEvent(1, 0, 0))
	h.engine.Handle(wandEvent(1, 0, omicron.FlagButton1))

	want := []DisplayPointer{
		{Source: "wand:1", Kind: KindHide},
		{Source: "wand:1", Kind: KindShow, Label: "Blue", Color: "#0000ff", SourceType: "wand"},
	}
	if diff := cmp.Diff(want, h.rec.calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
	src, _ := h.engine.Wand(1)
	assert.True(t, src.Visible)
}

func TestWand_KeyActions(t *testing.T) {
	tests := []struct {
		name string
		flag omicron.Flag
		want []DisplayPointer
	}{
		{"menu", omicron.FlagButton2, []DisplayPointer{
			{Source: "wand:1", Kind: KindPress, X: 960, Y: 540, Button: ButtonRight},
			{Source: "wand:1", Kind: KindRelease, X: 960, Y: 540, Button: ButtonRight},
		}},
		{"previous", omicron.FlagButtonLeft, []DisplayPointer{
			{Source: "wand:1", Kind: KindKeyDown, X: 960, Y: 540, Code: KeyArrowLeft},
			{Source: "wand:1", Kind: KindKeyUp, X: 960, Y: 540, Code: KeyArrowLeft},
		}},
		{"next", omicron.FlagButtonRight, []DisplayPointer{
			{Source: "wand:1", Kind: KindKeyDown, X: 960, Y: 540, Code: KeyArrowRight},
			{Source: "wand:1", Kind: KindKeyUp, X: 960, Y: 540, Code: KeyArrowRight},
		}},
		{"play", omicron.FlagSpecialButton1, []DisplayPointer{
			{Source: "wand:1", Kind: KindKeyPress, X: 960, Y: 540, Code: KeySpace},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, testConfig(), nil)
			h.engine.Handle(wandEvent(1, 0, 0))
			h.rec.reset()

			h.engine.Handle(wandEvent(1, 0, tt.flag))
			h.engine.Handle(wandEvent(1, 0, tt.flag))
			h.engine.Handle(wandEvent(1, 0, 0))

			if diff := cmp.Diff(tt.want, h.rec.calls); diff != "" {
				t.Errorf("calls mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWand_RemappedButtons(t *testing.T) {
	cfg := testConfig()
	buttons, err := DefaultButtonMap().Remap(map[string]string{"clickDrag": "Button1"})
	require.NoError(t, err)
	cfg.Buttons = buttons
	h := newHarness(t, cfg, nil)
	h.engine.Handle(wandEvent(1, 0, 0))
	h.rec.reset()

	h.engine.Handle(wandEvent(1, 0, omicron.FlagButton3))
	assert.Empty(t, h.rec.calls, "old binding is gone")

	h.engine.Handle(wandEvent(1, 0, omicron.FlagButton1))
	assert.Equal(t, []Kind{KindPress}, h.rec.kinds())
}

func TestWand_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.WandEnabled = false
	h := newHarness(t, cfg, nil)

	h.engine.Handle(wandEvent(1, 0, omicron.FlagButton3))

	assert.Empty(t, h.rec.calls)
	_, ok := h.engine.Wand(1)
	assert.False(t, ok)
}

func mocapEvent(sid uint32, joints int) omicron.TrackingEvent {
	vs := make([]omicron.Vec3, joints)
	for i := range vs {
		vs[i] = omicron.Vec3{X: float32(i), Y: 1, Z: -float32(i)}
	}
	ev := omicron.TrackingEvent{
		SourceID:    sid,
		ServiceType: omicron.ServiceMocap,
		Type:        omicron.EventUpdate,
		Position:    omicron.Vec3{X: 0.5, Y: 1.5, Z: 2},
		Present:     identified | omicron.FieldPosition,
	}
	return ev.WithPayload(omicron.VectorPayload(vs...))
}

func TestMocap_FullSkeleton(t *testing.T) {
	h := newHarness(t, testConfig(), nil)

	h.engine.Handle(mocapEvent(9, JointCount))

	require.Len(t, h.rec.calls, 1)
	call := h.rec.calls[0]
	assert.Equal(t, KindMocap, call.Kind)
	assert.Equal(t, "mocap:9", call.Source)
	require.NotNil(t, call.Mocap)
	assert.Equal(t, omicron.Vec3{X: 0.5, Y: 1.5, Z: 2}, call.Mocap.Position)
	require.Len(t, call.Mocap.Skeleton, JointCount)
	assert.Equal(t, omicron.Vec3{X: 0, Y: 1, Z: 0}, call.Mocap.Skeleton["head"])
	assert.Equal(t, omicron.Vec3{X: 28, Y: 1, Z: -28}, call.Mocap.Skeleton["rightHandTip"])
}

func TestMocap_PartialSkeletonForwardsPositionOnly(t *testing.T) {
	for _, n := range []int{0, 3, JointCount + 1} {
		h := newHarness(t, testConfig(), nil)
		h.engine.Handle(mocapEvent(9, n))

		require.Len(t, h.rec.calls, 1)
		assert.Nil(t, h.rec.calls[0].Mocap.Skeleton, "joints=%d", n)
	}
}

func TestMocap_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.MocapEnabled = false
	h := newHarness(t, cfg, nil)

	h.engine.Handle(mocapEvent(9, JointCount))

	assert.Empty(t, h.rec.calls)
	assert.Equal(t, int64(1), h.engine.Stats().Dropped)
}
