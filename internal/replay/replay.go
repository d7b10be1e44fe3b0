// Package replay feeds captured middleware traffic back through the
// decoder and gesture engine.
//
// Captures are read with the pure-Go pcapgo readers (classic pcap and
// pcapng), so no libpcap is needed.
package replay

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"github.com/banshee-data/wallinput/internal/monitoring"
	"github.com/banshee-data/wallinput/internal/timeutil"
)

const pcapngMagic = 0x0A0D0D0A

// Handler receives the UDP payload of each matching packet.
type Handler func(payload []byte, captured time.Time)

// Options control a replay.
type Options struct {
	// Port keeps only UDP packets sent to this destination port. Zero
	// keeps every UDP packet.
	Port int
	// Speed paces delivery by capture timestamps: 1 is real time, 2 twice
	// as fast. Zero delivers as fast as possible.
	Speed float64
	Clock timeutil.Clock
}

// Result summarises a replay.
type Result struct {
	Packets int
	Matched int
	Bytes   int
	// Span is the capture time between the first and last matched packet.
	Span time.Duration
}

type packetReader interface {
	ReadPacketData() ([]byte, gopacket.CaptureInfo, error)
	LinkType() layers.LinkType
}

// ReadFile replays a capture file.
func ReadFile(ctx context.Context, path string, opts Options, handler Handler) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to open capture %s: %w", path, err)
	}
	defer f.Close()

	res, err := Read(ctx, f, opts, handler)
	if err != nil {
		return res, fmt.Errorf("%s: %w", path, err)
	}
	monitoring.Logf("replay: %s: %d/%d packets matched udp port %d (%d bytes, %v of capture)",
		path, res.Matched, res.Packets, opts.Port, res.Bytes, res.Span)
	return res, nil
}

// Read replays a pcap or pcapng stream.
func Read(ctx context.Context, r io.Reader, opts Options, handler Handler) (Result, error) {
	if opts.Clock == nil {
		opts.Clock = timeutil.RealClock{}
	}
	src, err := newPacketReader(r)
	if err != nil {
		return Result{}, err
	}

	var (
		res         Result
		first, last time.Time
	)
	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		data, ci, err := src.ReadPacketData()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, fmt.Errorf("failed to read packet %d: %w", res.Packets+1, err)
		}
		res.Packets++

		payload, ok := udpPayload(data, src.LinkType(), opts.Port)
		if !ok {
			continue
		}

		if first.IsZero() {
			first = ci.Timestamp
		} else if opts.Speed > 0 {
			if err := wait(ctx, opts.Clock, time.Duration(float64(ci.Timestamp.Sub(last))/opts.Speed)); err != nil {
				return res, err
			}
		}
		last = ci.Timestamp

		res.Matched++
		res.Bytes += len(payload)
		handler(payload, ci.Timestamp)
	}
	if !first.IsZero() {
		res.Span = last.Sub(first)
	}
	return res, nil
}

func newPacketReader(r io.Reader) (packetReader, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(4)
	if err != nil {
		return nil, fmt.Errorf("failed to read capture header: %w", err)
	}
	if binary.LittleEndian.Uint32(magic) == pcapngMagic {
		ng, err := pcapgo.NewNgReader(br, pcapgo.DefaultNgReaderOptions)
		if err != nil {
			return nil, fmt.Errorf("invalid pcapng capture: %w", err)
		}
		return ng, nil
	}
	pr, err := pcapgo.NewReader(br)
	if err != nil {
		return nil, fmt.Errorf("invalid pcap capture: %w", err)
	}
	return pr, nil
}

// udpPayload extracts the UDP payload of a packet sent to port.
func udpPayload(data []byte, link layers.LinkType, port int) ([]byte, bool) {
	packet := gopacket.NewPacket(data, link, gopacket.DecodeOptions{Lazy: true, NoCopy: true})
	udp, ok := packet.Layer(layers.LayerTypeUDP).(*layers.UDP)
	if !ok {
		return nil, false
	}
	if port != 0 && int(udp.DstPort) != port {
		return nil, false
	}
	if len(udp.Payload) == 0 {
		return nil, false
	}
	return udp.Payload, true
}

func wait(ctx context.Context, clock timeutil.Clock, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := clock.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C():
		return nil
	}
}
