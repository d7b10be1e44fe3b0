// omicron-replay feeds a pcap capture of tracker traffic through the gesture
// engine and logs the pointer stream it produces.
//
// The engine runs on capture time, so coalescing and the stuck-touch sweep
// behave as they did when the capture was taken regardless of -speed.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/banshee-data/wallinput/internal/config"
	"github.com/banshee-data/wallinput/internal/gesture"
	"github.com/banshee-data/wallinput/internal/monitoring"
	"github.com/banshee-data/wallinput/internal/omicron"
	"github.com/banshee-data/wallinput/internal/replay"
	"github.com/banshee-data/wallinput/internal/sink"
	"github.com/banshee-data/wallinput/internal/timeutil"
)

var (
	pcapFile   = flag.String("pcap", "", "Capture file to replay (pcap or pcapng)")
	configPath = flag.String("config", "", "Path to a JSON config file (defaults are used when empty)")
	port       = flag.Int("port", 0, "UDP destination port to replay (default: data_port from the config)")
	speed      = flag.Float64("speed", 0, "Replay speed multiplier (0 = as fast as possible, 1 = real time)")
	verbose    = flag.Bool("verbose", false, "Log per-event traces")
)

func main() {
	flag.Parse()
	if *pcapFile == "" {
		log.Fatal("-pcap is required")
	}
	monitoring.SetVerbose(*verbose)

	cfg := config.EmptyConfig()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadConfig(*configPath); err != nil {
			log.Fatalf("config: %v", err)
		}
	}
	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *port == 0 {
		*port = cfg.GetDataPort()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := newReplayer(engineCfg, sink.Log{})
	res, err := replay.ReadFile(ctx, *pcapFile, replay.Options{Port: *port, Speed: *speed}, r.packet)
	if err != nil {
		log.Fatalf("replay: %v", err)
	}

	st := r.stats()
	log.Printf("replayed %d records from %d packets: handled=%d dropped=%d coalesced=%d offscreen=%d stuck=%d",
		r.records, res.Matched, st.Handled, st.Dropped, st.Coalesced, st.OffScreen, st.Stuck)
}

// replayer drives an engine on a clock that follows capture timestamps. The
// engine is created at the first packet so its clock starts at capture time.
type replayer struct {
	cfg       gesture.EngineConfig
	out       sink.Sink
	engine    *gesture.Engine
	clock     *timeutil.MockClock
	nextSweep time.Time
	records   int
}

func newReplayer(cfg gesture.EngineConfig, out sink.Sink) *replayer {
	return &replayer{cfg: cfg, out: out}
}

func (r *replayer) packet(payload []byte, captured time.Time) {
	if r.engine == nil {
		r.clock = timeutil.NewMockClock(captured)
		r.engine = gesture.NewEngine(r.cfg, gesture.NewPointerStream(r.out.Send, nil), r.clock)
		r.nextSweep = captured.Add(r.engine.SweepInterval())
	} else if now := r.clock.Now(); captured.After(now) {
		r.clock.Advance(captured.Sub(now))
	}

	if now := r.clock.Now(); !now.Before(r.nextSweep) {
		r.engine.Sweep()
		r.nextSweep = now.Add(r.engine.SweepInterval())
	}

	r.engine.Handle(omicron.Decode(payload))
	r.records++
}

func (r *replayer) stats() gesture.Stats {
	if r.engine == nil {
		return gesture.Stats{}
	}
	return r.engine.Stats()
}
