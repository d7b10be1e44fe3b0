package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/wallinput/internal/config"
	"github.com/banshee-data/wallinput/internal/gesture"
	"github.com/banshee-data/wallinput/internal/monitoring"
	"github.com/banshee-data/wallinput/internal/sink"
	"github.com/banshee-data/wallinput/internal/transport"
	"github.com/banshee-data/wallinput/internal/version"
)

var (
	configPath  = flag.String("config", "", "Path to a JSON config file (defaults are used when empty)")
	sinkType    = flag.String("sink", "", "Override sink_type from the config: log, websocket or mqtt")
	verbose     = flag.Bool("verbose", false, "Log per-event traces")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println("wallinput", version.String())
		return
	}
	monitoring.SetVerbose(*verbose)

	cfg, err := loadConfig(*configPath, *sinkType)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	out, err := openSink(ctx, cfg)
	if err != nil {
		log.Fatalf("sink: %v", err)
	}

	stream := gesture.NewPointerStream(out.Send, targetResolver(out, engineCfg.Policy.ExcludedApps))
	engine := gesture.NewEngine(engineCfg, stream, nil)
	mgr := transport.NewManager(transportConfig(cfg), engine)

	log.Printf("wallinput %s: %dx%d %s wall, tracker %s:%d (%s), sink %s",
		version.String(), cfg.GetTotalWidth(), cfg.GetTotalHeight(), cfg.GetWallType(),
		cfg.GetServerHost(), cfg.GetControlPort(), cfg.GetTransportMode(), cfg.GetSinkType())

	runErr := mgr.Run(ctx)

	st := engine.Stats()
	log.Printf("shutdown: handled=%d dropped=%d coalesced=%d offscreen=%d stuck=%d",
		st.Handled, st.Dropped, st.Coalesced, st.OffScreen, st.Stuck)
	if err := out.Close(); err != nil {
		log.Printf("sink close: %v", err)
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Printf("transport stopped: %v", runErr)
		os.Exit(1)
	}
}

// loadConfig reads path, or starts from defaults when path is empty, and
// applies the -sink override.
func loadConfig(path, sinkOverride string) (*config.Config, error) {
	cfg := config.EmptyConfig()
	if path != "" {
		var err error
		if cfg, err = config.LoadConfig(path); err != nil {
			return nil, err
		}
	}
	if sinkOverride != "" {
		cfg.SinkType = &sinkOverride
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func transportConfig(cfg *config.Config) transport.Config {
	return transport.Config{
		Host:              cfg.GetServerHost(),
		ControlPort:       cfg.GetControlPort(),
		DataPort:          cfg.GetDataPort(),
		Mode:              cfg.GetTransportMode(),
		Flags:             cfg.ClientFlags(),
		ReconnectInterval: cfg.GetReconnectInterval(),
		StatsInterval:     cfg.GetStatsInterval(),
	}
}

// targetResolver returns out when it can name the application under a
// position, which is what makes excluded_apps take effect.
func targetResolver(out sink.Sink, excludedApps []string) gesture.TargetResolver {
	r, ok := out.(gesture.TargetResolver)
	if !ok {
		if len(excludedApps) > 0 {
			log.Printf("Warning: excluded_apps is set but the %T sink cannot report window layout; the list has no effect", out)
		}
		return nil
	}
	return r
}

func openSink(ctx context.Context, cfg *config.Config) (sink.Sink, error) {
	switch t := cfg.GetSinkType(); t {
	case config.SinkLog:
		return sink.Log{}, nil
	case config.SinkWebSocket:
		return sink.NewWebSocket(ctx, sink.WebSocketConfig{
			URL:       cfg.GetWebSocketURL(),
			QueueSize: cfg.GetSinkQueueSize(),
		}), nil
	case config.SinkMQTT:
		return sink.NewMQTT(sink.MQTTConfig{
			Broker:      cfg.GetMQTTBroker(),
			TopicPrefix: cfg.GetMQTTTopicPrefix(),
		})
	default:
		return nil, fmt.Errorf("unknown sink type %q", t)
	}
}
