package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/wallinput/internal/geometry"
	"github.com/banshee-data/wallinput/internal/gesture"
	"github.com/banshee-data/wallinput/internal/omicron"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestEmptyConfigDefaults(t *testing.T) {
	cfg := EmptyConfig()

	if !cfg.GetTouchEnabled() || !cfg.GetWandEnabled() || cfg.GetMocapEnabled() {
		t.Errorf("unexpected channel defaults: touch=%v wand=%v mocap=%v",
			cfg.GetTouchEnabled(), cfg.GetWandEnabled(), cfg.GetMocapEnabled())
	}
	if got := cfg.GetReconnectInterval(); got != 15*time.Second {
		t.Errorf("GetReconnectInterval() = %v, want 15s", got)
	}
	if got := cfg.GetNonCriticalDelay(); got != 10*time.Millisecond {
		t.Errorf("GetNonCriticalDelay() = %v, want 10ms", got)
	}
	if got := cfg.GetStuckTouchInterval(); got != 500*time.Millisecond {
		t.Errorf("GetStuckTouchInterval() = %v, want 500ms", got)
	}
	assert.Equal(t, "localhost", cfg.GetServerHost())
	assert.Equal(t, 28000, cfg.GetControlPort())
	assert.Equal(t, 30005, cfg.GetDataPort())
	assert.Equal(t, TransportUDP, cfg.GetTransportMode())
	assert.Equal(t, SinkLog, cfg.GetSinkType())
	assert.Equal(t, 1920, cfg.GetTotalWidth())
	assert.Equal(t, 1080, cfg.GetTotalHeight())
	assert.Equal(t, omicron.ClientPointer|omicron.ClientWand, cfg.ClientFlags())
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, "wall.json", `{
  "mocap_enabled": true,
  "control_port": 27000,
  "resolution_width": 2560,
  "layout_columns": 3,
  "layout_rows": 2,
  "wall_type": "cylindrical",
  "door_offset": 0.5,
  "non_critical_delay": "25ms",
  "excluded_apps": ["Chrome"],
  "wands": {"3": {"label": "Red", "color": "#f00"}},
  "wand_buttons": {"menu": "Button6"}
}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.True(t, cfg.GetMocapEnabled())
	assert.Equal(t, 27000, cfg.GetControlPort())
	assert.Equal(t, 7680, cfg.GetTotalWidth())
	assert.Equal(t, 2160, cfg.GetTotalHeight())
	assert.Equal(t, 25*time.Millisecond, cfg.GetNonCriticalDelay())
	assert.Equal(t, omicron.ClientPointer|omicron.ClientMocap|omicron.ClientWand, cfg.ClientFlags())

	w := cfg.Wall()
	assert.Equal(t, geometry.Cylindrical, w.Kind)
	assert.Equal(t, 0.5, w.Cylinder.DoorOffset)
	assert.Equal(t, 7680.0, w.Width)

	ec, err := cfg.EngineConfig()
	require.NoError(t, err)
	assert.Equal(t, gesture.ActionMenu, ec.Buttons[omicron.FlagButton6])
	assert.Equal(t, gesture.WandStyle{Label: "Red", Color: "#f00"}, ec.WandStyles[3])
	assert.Equal(t, []string{"Chrome"}, ec.Policy.ExcludedApps)
	assert.True(t, ec.Policy.DoubleClickMaximize, "unset policy keeps its default")
	assert.Equal(t, 25*time.Millisecond, ec.Policy.NonCriticalDelay)
}

func TestLoadConfig_Example(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("..", "..", ExamplePath))
	require.NoError(t, err)
	assert.Equal(t, SinkWebSocket, cfg.GetSinkType())
	assert.Equal(t, 7680, cfg.GetTotalWidth())

	_, err = cfg.EngineConfig()
	assert.NoError(t, err)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		body    string
		wantErr string
	}{
		{"extension", "wall.yaml", `{}`, "must have .json extension"},
		{"syntax", "wall.json", `{"control_port": }`, "failed to parse config JSON"},
		{"port", "wall.json", `{"data_port": 70000}`, "data_port must be between 1 and 65535"},
		{"transport", "wall.json", `{"transport_mode": "carrier-pigeon"}`, "transport_mode must be"},
		{"wall", "wall.json", `{"wall_type": "dome"}`, "wall_type must be"},
		{"duration", "wall.json", `{"stuck_touch_interval": "soon"}`, "invalid stuck_touch_interval"},
		{"band", "wall.json", `{"band_bottom": 2, "band_top": 1}`, "band_bottom"},
		{"layout", "wall.json", `{"layout_rows": 0}`, "layout_rows must be positive"},
		{"sink", "wall.json", `{"sink_type": "fax"}`, "unknown sink_type"},
		{"button", "wall.json", `{"wand_buttons": {"menu": "Trigger"}}`, "wand_buttons"},
		{"button conflict", "wall.json", `{"wand_buttons": {"menu": "Button6", "play": "Button6"}}`, `"menu" and "play" both mapped to Button6`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.file, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadConfig_TooLarge(t *testing.T) {
	body := `{"excluded_apps": ["` + strings.Repeat("x", 1<<20) + `"]}`
	_, err := LoadConfig(writeConfig(t, "big.json", body))
	assert.ErrorContains(t, err, "config file too large")
}

func TestLoadConfig_Missing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorContains(t, err, "failed to stat config file")
}

func TestNonCriticalDelayZeroDisables(t *testing.T) {
	cfg := &Config{NonCriticalDelay: ptrString("0")}
	assert.Less(t, cfg.GetNonCriticalDelay(), time.Duration(0))
}

func TestPolicyOverrides(t *testing.T) {
	cfg := &Config{
		TwoFingerWindowDrag: ptrBool(true),
		DoubleClickMaximize: ptrBool(false),
		BigTouchSize:        ptrFloat64(80),
		ControlPort:         ptrInt(1234),
	}
	require.NoError(t, cfg.Validate())

	p := cfg.Policy()
	assert.True(t, p.TwoFingerWindowDrag)
	assert.False(t, p.DoubleClickMaximize)
	assert.Equal(t, 80.0, p.BigTouchSize)
	assert.Equal(t, float64(gesture.DefaultZoomScale), p.ZoomScale)
}
