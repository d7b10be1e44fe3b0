// Package config loads the wall-input service configuration.
//
// The file is flat JSON. Every field is optional: nil pointers fall back to
// the defaults returned by the Get* accessors, so partial files are safe.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/wallinput/internal/geometry"
	"github.com/banshee-data/wallinput/internal/gesture"
	"github.com/banshee-data/wallinput/internal/omicron"
)

// ExamplePath is the annotated example shipped with the repository.
const ExamplePath = "config/wallinput.example.json"

// Transport modes.
const (
	TransportUDP    = "udp"
	TransportStream = "stream"
)

// Sink types.
const (
	SinkLog       = "log"
	SinkWebSocket = "websocket"
	SinkMQTT      = "mqtt"
)

// Wall types.
const (
	WallPlanar      = "planar"
	WallCylindrical = "cylindrical"
)

// WandConfig is the appearance of one wand, keyed by source id.
type WandConfig struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

// Config is the root configuration.
type Config struct {
	// Channels
	TouchEnabled *bool `json:"touch_enabled,omitempty"`
	WandEnabled  *bool `json:"wand_enabled,omitempty"`
	MocapEnabled *bool `json:"mocap_enabled,omitempty"`

	// Middleware connection
	ServerHost        *string `json:"server_host,omitempty"`
	ControlPort       *int    `json:"control_port,omitempty"`
	DataPort          *int    `json:"data_port,omitempty"`
	TransportMode     *string `json:"transport_mode,omitempty"`      // "udp" or "stream"
	ReconnectInterval *string `json:"reconnect_interval,omitempty"` // duration string like "15s"
	StatsInterval     *string `json:"stats_interval,omitempty"`

	// Display
	ResolutionWidth  *int     `json:"resolution_width,omitempty"`
	ResolutionHeight *int     `json:"resolution_height,omitempty"`
	LayoutColumns    *int     `json:"layout_columns,omitempty"`
	LayoutRows       *int     `json:"layout_rows,omitempty"`
	WallType         *string  `json:"wall_type,omitempty"`
	WallOriginX      *float64 `json:"wall_origin_x,omitempty"`
	WallOriginY      *float64 `json:"wall_origin_y,omitempty"`
	WallOriginZ      *float64 `json:"wall_origin_z,omitempty"`
	WallWidth        *float64 `json:"wall_width,omitempty"`
	WallHeight       *float64 `json:"wall_height,omitempty"`
	CylinderRadius   *float64 `json:"cylinder_radius,omitempty"`
	DoorOffset       *float64 `json:"door_offset,omitempty"` // radians
	BandBottom       *float64 `json:"band_bottom,omitempty"`
	BandTop          *float64 `json:"band_top,omitempty"`
	BandTolerance    *float64 `json:"band_tolerance,omitempty"`
	TouchOffsetX     *float64 `json:"touch_offset_x,omitempty"`
	TouchOffsetY     *float64 `json:"touch_offset_y,omitempty"`

	// Gesture policy
	DoubleClickMaximize   *bool    `json:"double_click_maximize,omitempty"`
	ThreeFingerRightClick *bool    `json:"three_finger_right_click,omitempty"`
	TwoFingerWindowDrag   *bool    `json:"two_finger_window_drag,omitempty"`
	TwoFingerZoom         *bool    `json:"two_finger_zoom,omitempty"`
	FiveFingerClose       *bool    `json:"five_finger_close,omitempty"`
	BigTouchPushToBack    *bool    `json:"big_touch_push_to_back,omitempty"`
	BigTouchSize          *float64 `json:"big_touch_size,omitempty"`
	NonCriticalDelay      *string  `json:"non_critical_delay,omitempty"` // "0" or negative disables
	DragAcceleration      *float64 `json:"drag_acceleration,omitempty"`
	ZoomScale             *float64 `json:"zoom_scale,omitempty"`
	StuckTouchInterval    *string  `json:"stuck_touch_interval,omitempty"`
	ExcludedApps          []string `json:"excluded_apps,omitempty"`

	// Wands
	WandButtons    map[string]string     `json:"wand_buttons,omitempty"` // action name -> button name
	Wands          map[uint32]WandConfig `json:"wands,omitempty"`
	WandScrollStep *float64              `json:"wand_scroll_step,omitempty"`

	// Smoothing
	SmoothingFrequency *float64 `json:"smoothing_frequency,omitempty"`
	SmoothingMinCutoff *float64 `json:"smoothing_min_cutoff,omitempty"`
	SmoothingBeta      *float64 `json:"smoothing_beta,omitempty"`
	SmoothingDCutoff   *float64 `json:"smoothing_d_cutoff,omitempty"`

	// Output
	SinkType        *string `json:"sink_type,omitempty"`
	WebSocketURL    *string `json:"websocket_url,omitempty"`
	MQTTBroker      *string `json:"mqtt_broker,omitempty"`
	MQTTTopicPrefix *string `json:"mqtt_topic_prefix,omitempty"`
	SinkQueueSize   *int    `json:"sink_queue_size,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyConfig returns a Config with every field unset.
func EmptyConfig() *Config {
	return &Config{}
}

// LoadConfig loads a Config from a JSON file. The path must have a .json
// extension and the file must be under 1MB.
func LoadConfig(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the values that are set.
func (c *Config) Validate() error {
	for name, p := range map[string]*int{"control_port": c.ControlPort, "data_port": c.DataPort} {
		if p != nil && (*p <= 0 || *p > 65535) {
			return fmt.Errorf("%s must be between 1 and 65535, got %d", name, *p)
		}
	}
	for name, p := range map[string]*int{
		"resolution_width":  c.ResolutionWidth,
		"resolution_height": c.ResolutionHeight,
		"layout_columns":    c.LayoutColumns,
		"layout_rows":       c.LayoutRows,
	} {
		if p != nil && *p <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, *p)
		}
	}

	if c.TransportMode != nil {
		switch *c.TransportMode {
		case TransportUDP, TransportStream:
		default:
			return fmt.Errorf("transport_mode must be %q or %q, got %q", TransportUDP, TransportStream, *c.TransportMode)
		}
	}
	if c.WallType != nil {
		switch *c.WallType {
		case WallPlanar, WallCylindrical:
		default:
			return fmt.Errorf("wall_type must be %q or %q, got %q", WallPlanar, WallCylindrical, *c.WallType)
		}
	}
	if c.SinkType != nil {
		switch *c.SinkType {
		case SinkLog, SinkWebSocket, SinkMQTT:
		default:
			return fmt.Errorf("unknown sink_type %q", *c.SinkType)
		}
	}

	for name, p := range map[string]*string{
		"reconnect_interval":   c.ReconnectInterval,
		"stats_interval":       c.StatsInterval,
		"non_critical_delay":   c.NonCriticalDelay,
		"stuck_touch_interval": c.StuckTouchInterval,
	} {
		if p != nil && *p != "" {
			if _, err := time.ParseDuration(*p); err != nil {
				return fmt.Errorf("invalid %s '%s': %w", name, *p, err)
			}
		}
	}

	if c.GetBandBottom() >= c.GetBandTop() {
		return fmt.Errorf("band_bottom (%g) must be below band_top (%g)", c.GetBandBottom(), c.GetBandTop())
	}
	if c.CylinderRadius != nil && *c.CylinderRadius <= 0 {
		return fmt.Errorf("cylinder_radius must be positive, got %f", *c.CylinderRadius)
	}
	if c.WallWidth != nil && *c.WallWidth <= 0 {
		return fmt.Errorf("wall_width must be positive, got %f", *c.WallWidth)
	}
	if c.WallHeight != nil && *c.WallHeight <= 0 {
		return fmt.Errorf("wall_height must be positive, got %f", *c.WallHeight)
	}
	if c.BigTouchSize != nil && *c.BigTouchSize < 0 {
		return fmt.Errorf("big_touch_size must be non-negative, got %f", *c.BigTouchSize)
	}
	if c.SinkQueueSize != nil && *c.SinkQueueSize <= 0 {
		return fmt.Errorf("sink_queue_size must be positive, got %d", *c.SinkQueueSize)
	}
	if _, err := gesture.DefaultButtonMap().Remap(c.WandButtons); err != nil {
		return fmt.Errorf("wand_buttons: %w", err)
	}
	return nil
}

func getDuration(p *string, def time.Duration) time.Duration {
	if p == nil || *p == "" {
		return def
	}
	d, err := time.ParseDuration(*p)
	if err != nil {
		return def
	}
	return d
}

func getFloat(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

func getBool(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

func getInt(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func getString(p *string, def string) string {
	if p == nil || *p == "" {
		return def
	}
	return *p
}

// GetTouchEnabled returns touch_enabled or the default (true).
func (c *Config) GetTouchEnabled() bool { return getBool(c.TouchEnabled, true) }

// GetWandEnabled returns wand_enabled or the default (true).
func (c *Config) GetWandEnabled() bool { return getBool(c.WandEnabled, true) }

// GetMocapEnabled returns mocap_enabled or the default (false).
func (c *Config) GetMocapEnabled() bool { return getBool(c.MocapEnabled, false) }

// GetServerHost returns the middleware host.
func (c *Config) GetServerHost() string { return getString(c.ServerHost, "localhost") }

// GetControlPort returns the middleware's TCP control port.
func (c *Config) GetControlPort() int { return getInt(c.ControlPort, 28000) }

// GetDataPort returns the local port the middleware streams to.
func (c *Config) GetDataPort() int { return getInt(c.DataPort, 30005) }

// GetTransportMode returns "udp" or "stream".
func (c *Config) GetTransportMode() string { return getString(c.TransportMode, TransportUDP) }

// GetReconnectInterval returns the fixed control-channel retry period.
func (c *Config) GetReconnectInterval() time.Duration {
	return getDuration(c.ReconnectInterval, 15*time.Second)
}

// GetStatsInterval returns how often packet stats are logged.
func (c *Config) GetStatsInterval() time.Duration {
	return getDuration(c.StatsInterval, time.Minute)
}

// GetTotalWidth returns the display width in pixels: tile resolution times
// layout columns.
func (c *Config) GetTotalWidth() int {
	return getInt(c.ResolutionWidth, 1920) * getInt(c.LayoutColumns, 1)
}

// GetTotalHeight returns the display height in pixels.
func (c *Config) GetTotalHeight() int {
	return getInt(c.ResolutionHeight, 1080) * getInt(c.LayoutRows, 1)
}

// GetWallType returns "planar" or "cylindrical".
func (c *Config) GetWallType() string { return getString(c.WallType, WallPlanar) }

// GetBandBottom returns the lower edge of the cylinder's usable band.
func (c *Config) GetBandBottom() float64 { return getFloat(c.BandBottom, 0.3) }

// GetBandTop returns the upper edge of the cylinder's usable band.
func (c *Config) GetBandTop() float64 { return getFloat(c.BandTop, 2.3) }

// GetNonCriticalDelay returns the coalescing window. An explicit zero
// disables coalescing.
func (c *Config) GetNonCriticalDelay() time.Duration {
	d := getDuration(c.NonCriticalDelay, gesture.DefaultNonCriticalDelay)
	if d <= 0 {
		return -1
	}
	return d
}

// GetStuckTouchInterval returns the watchdog interval.
func (c *Config) GetStuckTouchInterval() time.Duration {
	return getDuration(c.StuckTouchInterval, gesture.DefaultStuckTouchInterval)
}

// GetSinkType returns the configured sink.
func (c *Config) GetSinkType() string { return getString(c.SinkType, SinkLog) }

// GetWebSocketURL returns the window manager's websocket endpoint.
func (c *Config) GetWebSocketURL() string {
	return getString(c.WebSocketURL, "ws://localhost:9090/input")
}

// GetMQTTBroker returns the MQTT broker URL.
func (c *Config) GetMQTTBroker() string { return getString(c.MQTTBroker, "tcp://localhost:1883") }

// GetMQTTTopicPrefix returns the topic prefix for published pointers.
func (c *Config) GetMQTTTopicPrefix() string { return getString(c.MQTTTopicPrefix, "wallinput") }

// GetSinkQueueSize returns the outbound queue length of network sinks.
func (c *Config) GetSinkQueueSize() int { return getInt(c.SinkQueueSize, 256) }

// ClientFlags returns the handshake flags for the enabled channels.
func (c *Config) ClientFlags() omicron.ClientFlag {
	return omicron.ClientFlagsFor(c.GetTouchEnabled(), c.GetMocapEnabled(), c.GetWandEnabled())
}

// Wall builds the display geometry.
func (c *Config) Wall() geometry.Wall {
	w := geometry.Wall{
		Width:  float64(c.GetTotalWidth()),
		Height: float64(c.GetTotalHeight()),
		Kind:   geometry.Planar,
		Planar: geometry.PlanarParams{
			Origin: r3.Vec{
				X: getFloat(c.WallOriginX, 0),
				Y: getFloat(c.WallOriginY, 1.5),
				Z: getFloat(c.WallOriginZ, 0),
			},
			Width:  getFloat(c.WallWidth, 4),
			Height: getFloat(c.WallHeight, 2.25),
		},
		Cylinder: geometry.CylinderParams{
			Radius:     getFloat(c.CylinderRadius, 3.2),
			DoorOffset: getFloat(c.DoorOffset, 0),
			BandBottom: c.GetBandBottom(),
			BandTop:    c.GetBandTop(),
			Tolerance:  getFloat(c.BandTolerance, 0.05),
		},
	}
	if c.GetWallType() == WallCylindrical {
		w.Kind = geometry.Cylindrical
	}
	return w
}

// Policy builds the touch gesture policy.
func (c *Config) Policy() gesture.Policy {
	def := gesture.DefaultPolicy()
	return gesture.Policy{
		DoubleClickMaximize:   getBool(c.DoubleClickMaximize, def.DoubleClickMaximize),
		ThreeFingerRightClick: getBool(c.ThreeFingerRightClick, def.ThreeFingerRightClick),
		TwoFingerWindowDrag:   getBool(c.TwoFingerWindowDrag, def.TwoFingerWindowDrag),
		TwoFingerZoom:         getBool(c.TwoFingerZoom, def.TwoFingerZoom),
		FiveFingerClose:       getBool(c.FiveFingerClose, def.FiveFingerClose),
		BigTouchPushToBack:    getBool(c.BigTouchPushToBack, def.BigTouchPushToBack),
		BigTouchSize:          getFloat(c.BigTouchSize, def.BigTouchSize),
		NonCriticalDelay:      c.GetNonCriticalDelay(),
		DragAcceleration:      getFloat(c.DragAcceleration, def.DragAcceleration),
		ZoomScale:             getFloat(c.ZoomScale, def.ZoomScale),
		ExcludedApps:          append([]string(nil), c.ExcludedApps...),
	}
}

// EngineConfig builds the gesture engine configuration.
func (c *Config) EngineConfig() (gesture.EngineConfig, error) {
	buttons, err := gesture.DefaultButtonMap().Remap(c.WandButtons)
	if err != nil {
		return gesture.EngineConfig{}, fmt.Errorf("wand_buttons: %w", err)
	}
	styles := make(map[uint32]gesture.WandStyle, len(c.Wands))
	for id, w := range c.Wands {
		styles[id] = gesture.WandStyle{Label: w.Label, Color: w.Color}
	}
	return gesture.EngineConfig{
		TouchEnabled:       c.GetTouchEnabled(),
		WandEnabled:        c.GetWandEnabled(),
		MocapEnabled:       c.GetMocapEnabled(),
		Wall:               c.Wall(),
		TouchOffsetX:       getFloat(c.TouchOffsetX, 0),
		TouchOffsetY:       getFloat(c.TouchOffsetY, 0),
		Policy:             c.Policy(),
		StuckTouchInterval: c.GetStuckTouchInterval(),
		Buttons:            buttons,
		WandStyles:         styles,
		WandScrollStep:     getFloat(c.WandScrollStep, gesture.DefaultWandScrollStep),
		Smoother: gesture.SmootherParams{
			Frequency: getFloat(c.SmoothingFrequency, 60),
			MinCutoff: getFloat(c.SmoothingMinCutoff, 1),
			Beta:      getFloat(c.SmoothingBeta, 0.007),
			DCutoff:   getFloat(c.SmoothingDCutoff, 1),
		},
	}, nil
}
