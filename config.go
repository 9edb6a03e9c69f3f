package rgbafan

import (
	"encoding"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env"
	"github.com/jazz-g/framework-rgbafan/internal/anim"
	"github.com/jazz-g/framework-rgbafan/internal/led"
	"github.com/jazz-g/framework-rgbafan/internal/ledvis"
	"github.com/jazz-g/framework-rgbafan/internal/transport"
	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the configuration for the rgbafan daemon. Zero values are
// replaced by their defaults.
type Config struct {
	// Mode is the animation mode.
	Mode anim.Mode `toml:"mode" yaml:"mode"`
	// Colors are the colors of the animation. There can't be more colors
	// than LEDs. go-toml doesn't decode slices of text types, so ParseConfig
	// reads the TOML colors separately.
	Colors []led.RGBColor `toml:"-" yaml:"colors"`
	// NumLEDs is the number of LEDs on the fan.
	NumLEDs int `toml:"num_leds" yaml:"num_leds"`

	Timing     TimingConfig     `toml:"timing" yaml:"timing"`
	Visualizer VisualizerConfig `toml:"visualizer" yaml:"visualizer"`
	Transport  TransportConfig  `toml:"transport" yaml:"transport"`
}

// TimingConfig is the pacing of the animations.
type TimingConfig struct {
	// Tick is the frame interval of the smoothspin and audio-reactive modes.
	Tick Duration `toml:"tick" yaml:"tick"`
	// Refresh is how often the solid mode rewrites its color.
	Refresh Duration `toml:"refresh" yaml:"refresh"`
	// Blink is how long each blink frame is shown.
	Blink Duration `toml:"blink" yaml:"blink"`
	// SpinPeriod is the number of ticks per rotation of the spin.
	SpinPeriod int `toml:"spin_period" yaml:"spin_period"`
}

// VisualizerConfig is the configuration for the audio-reactive mode.
type VisualizerConfig struct {
	// Pipe is the named pipe that raw PCM is read from.
	Pipe string `toml:"pipe" yaml:"pipe"`
	// ReadSize is the number of bytes read from the pipe per tick.
	ReadSize int `toml:"read_size" yaml:"read_size"`
	// Silence is how long the pipe may be quiet before spinning instead.
	Silence Duration `toml:"silence" yaml:"silence"`
	// Decay fades the LEDs between FFT windows.
	Decay float64 `toml:"decay" yaml:"decay"`
	// Flip draws the bass on the last LED instead of the first.
	Flip bool `toml:"flip" yaml:"flip"`
}

// TransportConfig selects and configures where frames are written.
type TransportConfig struct {
	Kind          transport.Kind `toml:"kind" yaml:"kind"`
	Device        string         `toml:"device" yaml:"device"`
	Baud          int            `toml:"baud" yaml:"baud"`
	SPIPort       string         `toml:"spi_port" yaml:"spi_port"`
	SPIFreqKHz    int            `toml:"spi_freq_khz" yaml:"spi_freq_khz"`
	Addr          string         `toml:"addr" yaml:"addr"`
	FrameworkTool string         `toml:"framework_tool" yaml:"framework_tool"`
}

// DefaultConfig returns the configuration of the Framework Laptop's 8-LED
// fan. It has no mode or colors.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

func (c *Config) setDefaults() {
	animDefaults := anim.DefaultConfig()
	visDefaults := ledvis.DefaultConfig()
	transportDefaults := transport.DefaultConfig()

	setDefault(&c.NumLEDs, animDefaults.NumLEDs)

	setDefault(&c.Timing.Tick, Duration(animDefaults.TickInterval))
	setDefault(&c.Timing.Refresh, Duration(animDefaults.RefreshInterval))
	setDefault(&c.Timing.Blink, Duration(animDefaults.BlinkInterval))
	setDefault(&c.Timing.SpinPeriod, animDefaults.SpinPeriod)

	setDefault(&c.Visualizer.Pipe, visDefaults.PipePath)
	setDefault(&c.Visualizer.ReadSize, visDefaults.ReadSize)
	setDefault(&c.Visualizer.Silence, Duration(visDefaults.Silence))
	setDefault(&c.Visualizer.Decay, visDefaults.Decay)

	setDefault(&c.Transport.Kind, transportDefaults.Kind)
	setDefault(&c.Transport.Device, transportDefaults.Device)
	setDefault(&c.Transport.Baud, transportDefaults.Baud)
	setDefault(&c.Transport.SPIFreqKHz, transportDefaults.SPIFreqKHz)
	setDefault(&c.Transport.Addr, transportDefaults.Addr)
	setDefault(&c.Transport.FrameworkTool, transportDefaults.FrameworkTool)
}

func setDefault[T comparable](v *T, def T) {
	var zero T
	if *v == zero {
		*v = def
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.NumLEDs <= 0 {
		return errors.Errorf("invalid number of LEDs %d", c.NumLEDs)
	}
	if c.Mode == "" {
		return errors.New("no animation mode given")
	}
	if _, err := anim.ParseMode(string(c.Mode)); err != nil {
		return err
	}
	if len(c.Colors) == 0 {
		return errors.Wrapf(anim.ErrNoColors, "mode %s", c.Mode)
	}
	if len(c.Colors) > c.NumLEDs {
		return errors.Wrapf(anim.ErrTooManyColors, "%d colors for %d LEDs", len(c.Colors), c.NumLEDs)
	}
	if c.Timing.SpinPeriod < 0 {
		return errors.Errorf("invalid spin period %d", c.Timing.SpinPeriod)
	}

	vis := c.visualizerConfig()
	if err := vis.Validate(); err != nil {
		return errors.Wrap(err, "invalid visualizer config")
	}

	var kind transport.Kind
	if err := kind.UnmarshalText([]byte(c.Transport.Kind)); err != nil {
		return err
	}

	return nil
}

// AnimationConfig returns the configuration of the animation state machine.
func (c *Config) AnimationConfig() anim.Config {
	cfg := anim.DefaultConfig()
	cfg.NumLEDs = c.NumLEDs
	cfg.TickInterval = time.Duration(c.Timing.Tick)
	cfg.RefreshInterval = time.Duration(c.Timing.Refresh)
	cfg.BlinkInterval = time.Duration(c.Timing.Blink)
	cfg.SpinPeriod = c.Timing.SpinPeriod
	cfg.Visualizer = c.visualizerConfig()
	return cfg
}

// TransportConfig returns the configuration of the transport.
func (c *Config) TransportConfig() transport.Config {
	return transport.Config{
		Kind:          c.Transport.Kind,
		FrameworkTool: c.Transport.FrameworkTool,
		Device:        c.Transport.Device,
		Baud:          c.Transport.Baud,
		SPIPort:       c.Transport.SPIPort,
		SPIFreqKHz:    c.Transport.SPIFreqKHz,
		Addr:          c.Transport.Addr,
	}
}

func (c *Config) visualizerConfig() ledvis.Config {
	cfg := ledvis.DefaultConfig()
	cfg.PipePath = c.Visualizer.Pipe
	cfg.ReadSize = c.Visualizer.ReadSize
	cfg.Silence = time.Duration(c.Visualizer.Silence)
	cfg.Decay = c.Visualizer.Decay
	cfg.Flip = c.Visualizer.Flip
	return cfg
}

// envConfig holds the settings that can be overridden from the environment.
type envConfig struct {
	Mode      string `env:"RGBAFAN_MODE"`
	Pipe      string `env:"RGBAFAN_PIPE"`
	Transport string `env:"RGBAFAN_TRANSPORT"`
	Device    string `env:"RGBAFAN_DEVICE"`
}

// ApplyEnv overrides the configuration with the RGBAFAN_* environment
// variables that are set.
func (c *Config) ApplyEnv() error {
	var e envConfig
	if err := env.Parse(&e); err != nil {
		return errors.Wrap(err, "failed to parse environment")
	}

	if e.Mode != "" {
		if err := c.Mode.UnmarshalText([]byte(e.Mode)); err != nil {
			return errors.Wrap(err, "invalid RGBAFAN_MODE")
		}
	}
	if e.Pipe != "" {
		c.Visualizer.Pipe = e.Pipe
	}
	if e.Transport != "" {
		if err := c.Transport.Kind.UnmarshalText([]byte(e.Transport)); err != nil {
			return errors.Wrap(err, "invalid RGBAFAN_TRANSPORT")
		}
	}
	if e.Device != "" {
		c.Transport.Device = e.Device
	}

	return nil
}

// Duration is a duration that can be parsed from TOML and YAML as text, such
// as "16ms".
type Duration time.Duration

var (
	_ encoding.TextUnmarshaler = (*Duration)(nil)
	_ encoding.TextMarshaler   = (*Duration)(nil)
)

func (d *Duration) UnmarshalText(text []byte) error {
	duration, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(duration)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// ConfigFormat is the format of a configuration file.
type ConfigFormat string

const (
	TOMLFormat ConfigFormat = "toml"
	YAMLFormat ConfigFormat = "yaml"
)

// ParseConfig parses a configuration from a reader. Missing values are filled
// in with their defaults.
func ParseConfig(r io.Reader, format ConfigFormat) (*Config, error) {
	var config Config

	switch format {
	case TOMLFormat:
		tree, err := toml.LoadReader(r)
		if err != nil {
			return nil, errors.Wrap(err, "failed to decode TOML")
		}
		if err := tree.Unmarshal(&config); err != nil {
			return nil, errors.Wrap(err, "failed to decode TOML")
		}
		if v := tree.Get("colors"); v != nil {
			colors, err := parseColorList(v)
			if err != nil {
				return nil, errors.Wrap(err, "failed to decode TOML")
			}
			config.Colors = colors
		}
	case YAMLFormat:
		if err := yaml.NewDecoder(r).Decode(&config); err != nil && err != io.EOF {
			return nil, errors.Wrap(err, "failed to decode YAML")
		}
	default:
		return nil, errors.Errorf("unknown config format %q", format)
	}

	// Decoders may assign string kinds directly, skipping UnmarshalText.
	if config.Mode != "" {
		if err := config.Mode.UnmarshalText([]byte(config.Mode)); err != nil {
			return nil, err
		}
	}
	if config.Transport.Kind != "" {
		if err := config.Transport.Kind.UnmarshalText([]byte(config.Transport.Kind)); err != nil {
			return nil, err
		}
	}

	config.setDefaults()
	return &config, nil
}

// parseColorList converts a decoded TOML array of hex strings.
func parseColorList(v interface{}) ([]led.RGBColor, error) {
	var values []interface{}
	switch v := v.(type) {
	case []interface{}:
		values = v
	case []string:
		for _, s := range v {
			values = append(values, s)
		}
	default:
		return nil, errors.Errorf("colors must be an array, got %T", v)
	}

	colors := make([]led.RGBColor, len(values))
	for i, value := range values {
		s, ok := value.(string)
		if !ok {
			return nil, errors.Errorf("colors[%d] must be a string, got %T", i, value)
		}
		c, err := led.ParseHex(s)
		if err != nil {
			return nil, errors.Wrapf(err, "colors[%d]", i)
		}
		colors[i] = c
	}
	return colors, nil
}

// LoadConfig reads the configuration file at path. The format is picked from
// the file extension: .toml, .yaml or .yml.
func LoadConfig(path string) (*Config, error) {
	var format ConfigFormat
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		format = TOMLFormat
	case ".yaml", ".yml":
		format = YAMLFormat
	default:
		return nil, errors.Errorf("unknown config file extension %q", filepath.Ext(path))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open config file")
	}
	defer f.Close()

	return ParseConfig(f, format)
}
