package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/spf13/viper"
)

type Mode string

const (
	ModeVanishing Mode = "vanishing"
	ModeLine      Mode = "line"

	DefaultConfigPath string = "config.json"
	DefaultEndpoint   string = "http://127.0.0.1:5000/detect-vanishing"
	DefaultFormField  string = "image"

	EnvPrefix = "VPDETECT"
)

var ModesList = [...]string{
	string(ModeVanishing),
	string(ModeLine),
}

// NotFoundText is the message shown when the service finds nothing.
func (m Mode) NotFoundText() string {
	if m == ModeLine {
		return "No line found."
	}
	return "No vanishing point found."
}

type Config struct {
	mu sync.RWMutex

	Endpoint         string `json:"endpoint" mapstructure:"endpoint"`
	Mode             Mode   `json:"mode" mapstructure:"mode"`
	FormField        string `json:"form_field" mapstructure:"form_field"`
	RequestTimeoutMs int    `json:"request_timeout_ms" mapstructure:"request_timeout_ms"`

	MarkerRadius int    `json:"marker_radius" mapstructure:"marker_radius"`
	StrokeWidth  int    `json:"stroke_width" mapstructure:"stroke_width"`
	MarkerColor  string `json:"marker_color" mapstructure:"marker_color"`
	LineColor    string `json:"line_color" mapstructure:"line_color"`

	LogLevel  string `json:"log_level" mapstructure:"log_level"`
	LogFormat string `json:"log_format" mapstructure:"log_format"`
}

func (c *Config) GetEndpoint() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Endpoint
}

func (c *Config) SetEndpoint(endpoint string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Endpoint = endpoint
}

func (c *Config) GetMode() Mode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Mode
}

func (c *Config) SetMode(mode Mode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Mode = mode
}

func (c *Config) GetMarkerRadius() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.MarkerRadius
}

func (c *Config) SetMarkerRadius(radius int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.MarkerRadius = radius
}

func (c *Config) GetStrokeWidth() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.StrokeWidth
}

func (c *Config) SetStrokeWidth(width int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.StrokeWidth = width
}

func (c *Config) GetRequestTimeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Duration(c.RequestTimeoutMs) * time.Millisecond
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var errs []string

	if err := ValidateEndpoint(c.Endpoint); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Mode != ModeVanishing && c.Mode != ModeLine {
		errs = append(errs, fmt.Sprintf("mode must be %q or %q, got %q", ModeVanishing, ModeLine, c.Mode))
	}
	if c.FormField == "" {
		errs = append(errs, "form_field is required")
	}
	if c.RequestTimeoutMs < 0 {
		errs = append(errs, "request_timeout_ms must not be negative")
	}
	if c.MarkerRadius <= 0 {
		errs = append(errs, "marker_radius must be positive")
	}
	if c.StrokeWidth <= 0 {
		errs = append(errs, "stroke_width must be positive")
	}
	if _, err := colorful.Hex(c.MarkerColor); err != nil {
		errs = append(errs, fmt.Sprintf("marker_color must be #RRGGBB, got %q", c.MarkerColor))
	}
	if _, err := colorful.Hex(c.LineColor); err != nil {
		errs = append(errs, fmt.Sprintf("line_color must be #RRGGBB, got %q", c.LineColor))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ValidateEndpoint accepts absolute http, https, ws and wss URLs.
func ValidateEndpoint(endpoint string) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("endpoint is not a valid url: %w", err)
	}
	switch u.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return fmt.Errorf("endpoint scheme must be http, https, ws or wss, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("endpoint %q has no host", endpoint)
	}
	return nil
}

func (c *Config) Save(path string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}

func (c *Config) SaveByDefault() error {
	return c.Save(DefaultConfigPath)
}

// LoadConfigFile layers defaults, the optional JSON file at path and
// VPDETECT_* environment variables, in that order.
func LoadConfigFile(path string) (*Config, error) {
	v := viper.New()

	def := NewDefaultConfig()
	v.SetDefault("endpoint", def.Endpoint)
	v.SetDefault("mode", string(def.Mode))
	v.SetDefault("form_field", def.FormField)
	v.SetDefault("request_timeout_ms", def.RequestTimeoutMs)
	v.SetDefault("marker_radius", def.MarkerRadius)
	v.SetDefault("stroke_width", def.StrokeWidth)
	v.SetDefault("marker_color", def.MarkerColor)
	v.SetDefault("line_color", def.LineColor)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("log_format", def.LogFormat)

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	// VPDETECT_ENDPOINT -> endpoint
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Mode = Mode(strings.ToLower(string(cfg.Mode)))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func NewDefaultConfig() *Config {
	return &Config{
		Endpoint:         DefaultEndpoint,
		Mode:             ModeVanishing,
		FormField:        DefaultFormField,
		RequestTimeoutMs: 0,
		MarkerRadius:     12,
		StrokeWidth:      3,
		MarkerColor:      "#ff0000",
		LineColor:        "#ff0000",
		LogLevel:         "info",
		LogFormat:        "text",
	}
}
