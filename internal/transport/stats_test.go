package transport

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/banshee-data/wallinput/internal/monitoring"
	"github.com/banshee-data/wallinput/internal/timeutil"
)

func TestPacketStats_LogStats(t *testing.T) {
	var lines []string
	monitoring.SetLogger(func(format string, v ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, v...))
	})
	defer monitoring.SetLogger(nil)

	clock := timeutil.NewMockClock(time.Unix(0, 0))
	ps := NewPacketStats(clock)

	ps.LogStats()
	assert.Empty(t, lines, "quiet intervals are not logged")

	for i := 0; i < 20; i++ {
		ps.AddPacket(512)
		ps.AddDecoded(i%10 == 0)
	}
	ps.AddDropped()
	clock.Advance(10 * time.Second)
	ps.LogStats()

	assert.Equal(t, []string{"Tracker stats (/sec): 2.0 packets, 1.0 KB, 20 records, 2 partial, 1 dropped"}, lines)

	s := ps.GetAndReset()
	assert.Equal(t, Snapshot{}, s)
}

func TestFormatWithCommas(t *testing.T) {
	tests := map[int64]string{
		0:        "0",
		999:      "999",
		1000:     "1,000",
		1234567:  "1,234,567",
		-9876543: "-9,876,543",
	}
	for n, want := range tests {
		assert.Equal(t, want, FormatWithCommas(n))
	}
}
