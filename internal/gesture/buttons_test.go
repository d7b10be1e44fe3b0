package gesture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/wallinput/internal/omicron"
)

func TestParseAction(t *testing.T) {
	for a, name := range actionNames {
		got, ok := ParseAction(name)
		assert.True(t, ok, name)
		assert.Equal(t, a, got)
		assert.Equal(t, name, a.String())
	}
	_, ok := ParseAction("explode")
	assert.False(t, ok)
	assert.Equal(t, "action(99)", Action(99).String())
}

func TestButtonMap_Remap(t *testing.T) {
	base := DefaultButtonMap()

	m, err := base.Remap(map[string]string{"menu": "Button6", "play": "Button2"})
	require.NoError(t, err)

	assert.Equal(t, ActionMenu, m[omicron.FlagButton6])
	assert.Equal(t, ActionPlay, m[omicron.FlagButton2])
	_, ok := m[omicron.FlagSpecialButton1]
	assert.False(t, ok, "play moved off its default button")

	f, ok := m.Flag(ActionMenu)
	require.True(t, ok)
	assert.Equal(t, omicron.FlagButton6, f)

	assert.Equal(t, ActionMenu, base[omicron.FlagButton2], "receiver is not modified")
}

func TestButtonMap_RemapErrors(t *testing.T) {
	_, err := DefaultButtonMap().Remap(map[string]string{"fly": "Button1"})
	assert.ErrorContains(t, err, `unknown wand action "fly"`)

	_, err = DefaultButtonMap().Remap(map[string]string{"menu": "Button99"})
	assert.ErrorContains(t, err, `unknown wand button "Button99"`)

	for i := 0; i < 20; i++ {
		_, err = DefaultButtonMap().Remap(map[string]string{"menu": "Button6", "play": "Button6"})
		require.Error(t, err)
		assert.Equal(t, `wand actions "menu" and "play" both mapped to Button6`, err.Error())
	}
}

func TestButtonMap_Ordered(t *testing.T) {
	flags := DefaultButtonMap().ordered()
	require.Len(t, flags, 11)
	for i := 1; i < len(flags); i++ {
		assert.Less(t, flags[i-1], flags[i])
	}
	assert.Equal(t, omicron.FlagButton1, flags[0])
}

func TestPointerStream_AppAt(t *testing.T) {
	s := NewPointerStream(func(DisplayPointer) {}, nil)
	assert.Equal(t, "", s.AppAt(1, 2))

	s = NewPointerStream(func(DisplayPointer) {}, appAt(func(x, y float64) string { return "viewer" }))
	assert.Equal(t, "viewer", s.AppAt(1, 2))
}

func TestTouchGroup_Centroid(t *testing.T) {
	g := &TouchGroup{Primary: 1, Children: map[uint32]point{}}
	_, _, ok := g.Centroid()
	assert.False(t, ok)

	g.merge(map[uint32]point{1: {X: 0, Y: 0}, 2: {X: 10, Y: 20}})
	x, y, ok := g.Centroid()
	require.True(t, ok)
	assert.Equal(t, 5.0, x)
	assert.Equal(t, 10.0, y)
}
