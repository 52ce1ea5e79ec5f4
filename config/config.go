// Package config loads the graphview YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"graphview/graph"
	"graphview/model"
	"graphview/simulation"
)

// FileName is the default configuration file name.
const FileName = "graphview.yaml"

// ErrInvalidConfig is returned when config validation fails
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all graphview configuration
type Config struct {
	Graph      GraphConfig      `yaml:"graph"`
	Thumbnail  ThumbnailConfig  `yaml:"thumbnail"`
	Simulation SimulationConfig `yaml:"simulation"`
	Log        LogConfig        `yaml:"log"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// GraphConfig holds the rendering and interaction switches
type GraphConfig struct {
	ShowLabel     bool          `yaml:"show_label"`
	ShowEdge      bool          `yaml:"show_edge"`
	EnableDrag    bool          `yaml:"enable_drag"`
	EnableZoomPan bool          `yaml:"enable_zoom_pan"`
	SettleDelay   time.Duration `yaml:"settle_delay" validate:"gt=0"`
	Center        bool          `yaml:"center"`
	Width         int           `yaml:"width" validate:"gt=0"`
	Height        int           `yaml:"height" validate:"gt=0"`

	Node  model.NodeOptions            `yaml:"node"`
	Types map[string]model.NodeOptions `yaml:"types"`
}

// ThumbnailConfig holds minimap settings
type ThumbnailConfig struct {
	Open      bool    `yaml:"open"`
	Size      int     `yaml:"size" validate:"gte=16"`
	ZoomRatio float64 `yaml:"zoom_ratio" validate:"gt=0"`
}

// SimulationConfig tunes the force layout
type SimulationConfig struct {
	AlphaDecay    float64       `yaml:"alpha_decay" validate:"gt=0,lt=1"`
	VelocityDecay float64       `yaml:"velocity_decay" validate:"gt=0,lte=1"`
	Charge        float64       `yaml:"charge"`
	CollideRadius float64       `yaml:"collide_radius" validate:"gte=0"`
	LinkDistance  float64       `yaml:"link_distance" validate:"gte=0"`
	TickInterval  time.Duration `yaml:"tick_interval" validate:"gt=0"`
	// Ticks is how many steps non-interactive renders run before drawing.
	Ticks int `yaml:"ticks" validate:"gte=0"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level       string `yaml:"level" validate:"oneof=debug info warn error"`
	Development bool   `yaml:"development"`
}

// MetricsConfig holds the Prometheus endpoint settings
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Addr      string `yaml:"addr" validate:"required_if=Enabled true"`
	Namespace string `yaml:"namespace" validate:"required"`
}

// DefaultConfig returns configuration with the built-in defaults.
func DefaultConfig() *Config {
	params := simulation.DefaultParams()
	return &Config{
		Graph: GraphConfig{
			ShowLabel:     true,
			ShowEdge:      true,
			EnableDrag:    true,
			EnableZoomPan: true,
			SettleDelay:   graph.DefaultSettleDelay,
			Center:        true,
			Width:         800,
			Height:        600,
			Node:          model.DefaultNodeOptions(),
		},
		Thumbnail: ThumbnailConfig{
			Size:      160,
			ZoomRatio: 5,
		},
		Simulation: SimulationConfig{
			AlphaDecay:    params.AlphaDecay,
			VelocityDecay: params.VelocityDecay,
			Charge:        params.Charge,
			CollideRadius: params.CollideRadius,
			LinkDistance:  params.LinkDistance,
			TickInterval:  params.TickInterval,
			Ticks:         300,
		},
		Log: LogConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Addr:      ":9090",
			Namespace: "graphview",
		},
	}
}

// Load reads config from path on top of the defaults. An empty path or a
// missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML on top of the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks that config values are valid.
func Validate(cfg *Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	msgs := make([]string, 0, len(fields))
	for _, fe := range fields {
		path := fe.Namespace()
		if i := strings.IndexByte(path, '.'); i >= 0 {
			path = path[i+1:]
		}
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		msgs = append(msgs, fmt.Sprintf("%s must satisfy %s, got %v", path, rule, fe.Value()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
}

// GraphOptions converts the graph section into orchestrator options.
func (c *Config) GraphOptions() graph.Options {
	g := c.Graph
	return graph.Options{
		ShowLabel:     g.ShowLabel,
		ShowEdge:      g.ShowEdge,
		EnableDrag:    g.EnableDrag,
		EnableZoomPan: g.EnableZoomPan,
		SettleDelay:   g.SettleDelay,
		NodeOptions:   model.DefaultNodeOptions().Extend(g.Node),
		TypeOptions:   g.Types,
	}
}

// SimulationParams converts the simulation section into layout parameters.
func (c *Config) SimulationParams() simulation.Params {
	p := simulation.DefaultParams()
	s := c.Simulation
	p.AlphaDecay = s.AlphaDecay
	p.VelocityDecay = s.VelocityDecay
	p.Charge = s.Charge
	p.CollideRadius = s.CollideRadius
	p.LinkDistance = s.LinkDistance
	p.TickInterval = s.TickInterval
	return p
}
