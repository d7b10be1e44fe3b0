package replay

import (
	"bytes"
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/wallinput/internal/monitoring"
	"github.com/banshee-data/wallinput/internal/omicron"
)

func init() {
	monitoring.SetLogger(nil)
}

var captureStart = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type capturedPacket struct {
	dstPort uint16
	payload []byte
	offset  time.Duration
}

func udpFrame(t *testing.T, dstPort uint16, payload []byte) []byte {
	t.Helper()
	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0x02, 0, 0, 0, 0, 1},
		DstMAC:       net.HardwareAddr{0x02, 0, 0, 0, 0, 2},
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    net.IPv4(10, 0, 0, 1),
		DstIP:    net.IPv4(10, 0, 0, 2),
	}
	udp := &layers.UDP{SrcPort: 28001, DstPort: layers.UDPPort(dstPort)}
	require.NoError(t, udp.SetNetworkLayerForChecksum(ip))

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	require.NoError(t, gopacket.SerializeLayers(buf, opts, eth, ip, udp, gopacket.Payload(payload)))
	return buf.Bytes()
}

func writeCapture(t *testing.T, packets ...capturedPacket) []byte {
	t.Helper()
	var out bytes.Buffer
	w := pcapgo.NewWriter(&out)
	require.NoError(t, w.WriteFileHeader(65536, layers.LinkTypeEthernet))
	for _, p := range packets {
		data := udpFrame(t, p.dstPort, p.payload)
		ci := gopacket.CaptureInfo{
			Timestamp:     captureStart.Add(p.offset),
			CaptureLength: len(data),
			Length:        len(data),
		}
		require.NoError(t, w.WritePacket(ci, data))
	}
	return out.Bytes()
}

func record(sid uint32) []byte {
	return omicron.Encode(omicron.TrackingEvent{SourceID: sid, ServiceType: omicron.ServiceWand, Type: omicron.EventUpdate})
}

func TestRead_FiltersByPort(t *testing.T) {
	capture := writeCapture(t,
		capturedPacket{30005, record(1), 0},
		capturedPacket{5353, []byte("mdns"), 5 * time.Millisecond},
		capturedPacket{30005, record(2), 20 * time.Millisecond},
	)

	var got []uint32
	res, err := Read(context.Background(), bytes.NewReader(capture), Options{Port: 30005}, func(p []byte, _ time.Time) {
		got = append(got, omicron.Decode(p).SourceID)
	})
	require.NoError(t, err)

	assert.Equal(t, []uint32{1, 2}, got)
	assert.Equal(t, Result{Packets: 3, Matched: 2, Bytes: 2 * omicron.HeaderSize, Span: 20 * time.Millisecond}, res)
}

func TestRead_AnyPort(t *testing.T) {
	capture := writeCapture(t,
		capturedPacket{30005, record(1), 0},
		capturedPacket{5353, []byte("mdns"), time.Millisecond},
	)

	res, err := Read(context.Background(), bytes.NewReader(capture), Options{}, func([]byte, time.Time) {})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Matched)
}

func TestRead_PacesByCaptureTime(t *testing.T) {
	capture := writeCapture(t,
		capturedPacket{30005, record(1), 0},
		capturedPacket{30005, record(2), 40 * time.Millisecond},
	)

	var stamps []time.Time
	start := time.Now()
	_, err := Read(context.Background(), bytes.NewReader(capture), Options{Port: 30005, Speed: 2}, func(_ []byte, ts time.Time) {
		stamps = append(stamps, ts)
	})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	assert.Equal(t, []time.Time{captureStart, captureStart.Add(40 * time.Millisecond)}, stamps)
}

func TestRead_Cancelled(t *testing.T) {
	capture := writeCapture(t,
		capturedPacket{30005, record(1), 0},
		capturedPacket{30005, record(2), time.Hour},
	)
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	_, err := Read(ctx, bytes.NewReader(capture), Options{Port: 30005, Speed: 1}, func([]byte, time.Time) {
		calls++
		cancel()
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestRead_InvalidCapture(t *testing.T) {
	_, err := Read(context.Background(), bytes.NewReader([]byte("definitely not a pcap file")), Options{}, nil)
	assert.ErrorContains(t, err, "invalid pcap capture")

	_, err = Read(context.Background(), bytes.NewReader(nil), Options{}, nil)
	assert.ErrorContains(t, err, "failed to read capture header")
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.pcap")
	require.NoError(t, os.WriteFile(path, writeCapture(t, capturedPacket{30005, record(7), 0}), 0644))

	var got []uint32
	res, err := ReadFile(context.Background(), path, Options{Port: 30005}, func(p []byte, _ time.Time) {
		got = append(got, omicron.Decode(p).SourceID)
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Matched)
	assert.Equal(t, []uint32{7}, got)

	_, err = ReadFile(context.Background(), filepath.Join(t.TempDir(), "missing.pcap"), Options{}, nil)
	assert.ErrorContains(t, err, "failed to open capture")
}
