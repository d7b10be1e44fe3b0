package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/wallinput/internal/config"
	"github.com/banshee-data/wallinput/internal/gesture"
	"github.com/banshee-data/wallinput/internal/monitoring"
	"github.com/banshee-data/wallinput/internal/omicron"
	"github.com/banshee-data/wallinput/internal/sink"
)

func init() {
	monitoring.SetLogger(nil)
}

func touch(typ omicron.EventType, sid uint32) []byte {
	return omicron.Encode(omicron.TrackingEvent{
		SourceID:    sid,
		ServiceType: omicron.ServicePointer,
		Type:        typ,
		Position:    omicron.Vec3{X: 0.5, Y: 0.5},
	})
}

func TestReplayer_SweepsOnCaptureTime(t *testing.T) {
	cfg, err := config.EmptyConfig().EngineConfig()
	require.NoError(t, err)

	var got []gesture.DisplayPointer
	r := newReplayer(cfg, sink.Func(func(p gesture.DisplayPointer) { got = append(got, p) }))

	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r.packet(touch(omicron.EventDown, 1), start)
	assert.Equal(t, start, r.clock.Now())

	got = nil
	r.packet(touch(omicron.EventMove, 2), start.Add(time.Second))

	assert.Equal(t, start.Add(time.Second), r.clock.Now())
	assert.Contains(t, got, gesture.DisplayPointer{Source: "touch:1", Kind: gesture.KindHide})
	assert.Equal(t, int64(1), r.stats().Stuck)
	assert.Equal(t, int64(2), r.stats().Handled)
	assert.Equal(t, 2, r.records)
}

func TestReplayer_OutOfOrderTimestamps(t *testing.T) {
	cfg, err := config.EmptyConfig().EngineConfig()
	require.NoError(t, err)
	r := newReplayer(cfg, sink.Func(func(gesture.DisplayPointer) {}))

	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r.packet(touch(omicron.EventDown, 1), start)
	r.packet(touch(omicron.EventMove, 1), start.Add(-time.Second))

	assert.Equal(t, start, r.clock.Now())
	assert.Equal(t, int64(0), r.stats().Stuck)
}

func TestReplayer_NoPackets(t *testing.T) {
	r := newReplayer(gesture.EngineConfig{}, sink.Log{})
	assert.Equal(t, gesture.Stats{}, r.stats())
}
