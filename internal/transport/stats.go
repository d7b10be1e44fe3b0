package transport

import (
	"fmt"
	"sync"
	"time"

	"github.com/banshee-data/wallinput/internal/monitoring"
	"github.com/banshee-data/wallinput/internal/timeutil"
)

// PacketStats counts traffic between log intervals. It is safe for
// concurrent use by the readers and the event loop.
type PacketStats struct {
	mu        sync.Mutex
	clock     timeutil.Clock
	packets   int64
	bytes     int64
	dropped   int64
	decoded   int64
	partial   int64
	lastReset time.Time
}

// Snapshot is one interval of PacketStats.
type Snapshot struct {
	Packets  int64
	Bytes    int64
	Dropped  int64
	Decoded  int64
	Partial  int64
	Duration time.Duration
}

// NewPacketStats creates PacketStats timed by clock.
func NewPacketStats(clock timeutil.Clock) *PacketStats {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &PacketStats{clock: clock, lastReset: clock.Now()}
}

// AddPacket records a received datagram or frame.
func (ps *PacketStats) AddPacket(bytes int) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.packets++
	ps.bytes += int64(bytes)
}

// AddDropped records a packet discarded because the event loop was behind.
func (ps *PacketStats) AddDropped() {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.dropped++
}

// AddDecoded records a decoded record; partial marks a truncated one.
func (ps *PacketStats) AddDecoded(partial bool) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.decoded++
	if partial {
		ps.partial++
	}
}

// GetAndReset returns the current interval and starts a new one.
func (ps *PacketStats) GetAndReset() Snapshot {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	now := ps.clock.Now()
	s := Snapshot{
		Packets:  ps.packets,
		Bytes:    ps.bytes,
		Dropped:  ps.dropped,
		Decoded:  ps.decoded,
		Partial:  ps.partial,
		Duration: now.Sub(ps.lastReset),
	}
	ps.packets, ps.bytes, ps.dropped, ps.decoded, ps.partial = 0, 0, 0, 0, 0
	ps.lastReset = now
	return s
}

// LogStats logs the interval's rates if anything arrived.
func (ps *PacketStats) LogStats() {
	s := ps.GetAndReset()
	if s.Packets == 0 && s.Dropped == 0 {
		return
	}
	secs := s.Duration.Seconds()
	if secs <= 0 {
		secs = 1
	}
	msg := fmt.Sprintf("Tracker stats (/sec): %.1f packets, %.1f KB, %s records",
		float64(s.Packets)/secs, float64(s.Bytes)/secs/1024, FormatWithCommas(s.Decoded))
	if s.Partial > 0 {
		msg += fmt.Sprintf(", %d partial", s.Partial)
	}
	if s.Dropped > 0 {
		msg += fmt.Sprintf(", %d dropped", s.Dropped)
	}
	monitoring.Logf("%s", msg)
}

// FormatWithCommas formats a number with thousands separators.
func FormatWithCommas(n int64) string {
	str := fmt.Sprintf("%d", n)
	neg := ""
	if n < 0 {
		neg, str = "-", str[1:]
	}
	if len(str) <= 3 {
		return neg + str
	}

	result := ""
	for i, char := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result += ","
		}
		result += string(char)
	}
	return neg + result
}
