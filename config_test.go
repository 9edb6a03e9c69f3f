package rgbafan

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jazz-g/framework-rgbafan/internal/anim"
	"github.com/jazz-g/framework-rgbafan/internal/led"
	"github.com/jazz-g/framework-rgbafan/internal/ledvis"
	"github.com/jazz-g/framework-rgbafan/internal/transport"
	"github.com/pkg/errors"
)

const testTOML = `
mode = "blink"
colors = ["ff0000", "#0000ff"]

[timing]
blink = "500ms"

[visualizer]
flip = true

[transport]
kind = "serial"
device = "/dev/ttyUSB0"
`

const testYAML = `
mode: blink
colors: ["ff0000", "#0000ff"]
timing:
  blink: 500ms
visualizer:
  flip: true
transport:
  kind: serial
  device: /dev/ttyUSB0
`

func expectedTestConfig() *Config {
	cfg := DefaultConfig()
	cfg.Mode = anim.BlinkMode
	cfg.Colors = []led.RGBColor{{R: 255, G: 0, B: 0}, {R: 0, G: 0, B: 255}}
	cfg.Timing.Blink = Duration(500 * time.Millisecond)
	cfg.Visualizer.Flip = true
	cfg.Transport.Kind = transport.SerialKind
	cfg.Transport.Device = "/dev/ttyUSB0"
	return cfg
}

func TestParseConfig(t *testing.T) {
	tests := []struct {
		name   string
		format ConfigFormat
		input  string
	}{
		{"toml", TOMLFormat, testTOML},
		{"yaml", YAMLFormat, testYAML},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg, err := ParseConfig(strings.NewReader(test.input), test.format)
			if err != nil {
				t.Fatal("failed to parse config:", err)
			}
			assertEq(t, expectedTestConfig(), cfg)

			if err := cfg.Validate(); err != nil {
				t.Fatal("config is invalid:", err)
			}
		})
	}
}

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig(strings.NewReader(""), YAMLFormat)
	if err != nil {
		t.Fatal(err)
	}

	assertEq(t, 8, cfg.NumLEDs)
	assertEq(t, Duration(16*time.Millisecond), cfg.Timing.Tick)
	assertEq(t, Duration(10*time.Second), cfg.Timing.Refresh)
	assertEq(t, Duration(992*time.Millisecond), cfg.Timing.Blink)
	assertEq(t, 310, cfg.Timing.SpinPeriod)
	assertEq(t, ledvis.DefaultPipePath, cfg.Visualizer.Pipe)
	assertEq(t, transport.FrameworkKind, cfg.Transport.Kind)
}

func TestParseConfigMPDAlias(t *testing.T) {
	cfg, err := ParseConfig(strings.NewReader(`mode = "mpd"`), TOMLFormat)
	if err != nil {
		t.Fatal(err)
	}
	assertEq(t, anim.AudioReactiveMode, cfg.Mode)
}

func TestParseConfigTOMLColors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []led.RGBColor
		err   bool
	}{
		{"single", `colors = ["ff0000"]`, []led.RGBColor{{R: 255, G: 0, B: 0}}, false},
		{"short and prefixed", `colors = ["#0f0", "0000ff", "#abcdef"]`, []led.RGBColor{{R: 0, G: 255, B: 0}, {R: 0, G: 0, B: 255}, {R: 0xab, G: 0xcd, B: 0xef}}, false},
		{"bad hex", `colors = ["ff0000", "zz0000"]`, nil, true},
		{"not a string", `colors = [16711680]`, nil, true},
		{"not an array", `colors = "ff0000"`, nil, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg, err := ParseConfig(strings.NewReader("mode = \"solid\"\n"+test.input+"\n"), TOMLFormat)
			if test.err {
				if err == nil {
					t.Fatalf("expected an error, got colors %v", cfg.Colors)
				}
				return
			}
			if err != nil {
				t.Fatal("failed to parse config:", err)
			}
			assertEq(t, test.want, cfg.Colors)
		})
	}
}

func TestParseConfigErrors(t *testing.T) {
	tests := []struct {
		name   string
		format ConfigFormat
		input  string
	}{
		{"unknown mode", TOMLFormat, `mode = "rainbow"`},
		{"bad color", TOMLFormat, `colors = ["red"]`},
		{"bad duration", YAMLFormat, "timing:\n  tick: soon\n"},
		{"unknown transport", YAMLFormat, "transport:\n  kind: usb\n"},
		{"unknown format", "ini", ""},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := ParseConfig(strings.NewReader(test.input), test.format)
			if err == nil {
				t.Fatal("expected a parse error")
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	for name, content := range map[string]string{
		"rgbafan.toml": testTOML,
		"rgbafan.yml":  testYAML,
		"rgbafan.YAML": testYAML,
	} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}

		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("failed to load %s: %v", name, err)
		}
		assertEq(t, expectedTestConfig(), cfg)
	}

	if _, err := LoadConfig(filepath.Join(dir, "rgbafan.ini")); err == nil {
		t.Fatal("expected an error for an unknown extension")
	}
	if _, err := LoadConfig(filepath.Join(dir, "missing.toml")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("RGBAFAN_MODE", "mpd")
	t.Setenv("RGBAFAN_PIPE", "/run/mpd/visualizer.fifo")
	t.Setenv("RGBAFAN_TRANSPORT", "text")
	t.Setenv("RGBAFAN_DEVICE", "")

	cfg := DefaultConfig()
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatal("failed to apply environment:", err)
	}

	expect := DefaultConfig()
	expect.Mode = anim.AudioReactiveMode
	expect.Visualizer.Pipe = "/run/mpd/visualizer.fifo"
	expect.Transport.Kind = transport.TextKind
	assertEq(t, expect, cfg)

	t.Setenv("RGBAFAN_TRANSPORT", "usb")
	if err := cfg.ApplyEnv(); err == nil {
		t.Fatal("expected an error for an unknown transport")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		err    error
	}{
		{"no mode", func(c *Config) { c.Mode = "" }, nil},
		{"no colors", func(c *Config) { c.Colors = nil }, anim.ErrNoColors},
		{"too many colors", func(c *Config) { c.Colors = make([]led.RGBColor, 9) }, anim.ErrTooManyColors},
		{"unknown transport", func(c *Config) { c.Transport.Kind = "usb" }, nil},
		{"bad decay", func(c *Config) { c.Visualizer.Decay = 2 }, nil},
		{"negative spin period", func(c *Config) { c.Timing.SpinPeriod = -1 }, nil},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := expectedTestConfig()
			test.modify(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected a validation error")
			}
			if test.err != nil && !errors.Is(err, test.err) {
				t.Fatalf("got error %v, want %v", err, test.err)
			}
		})
	}
}

func TestDurationText(t *testing.T) {
	var d Duration
	if err := d.UnmarshalText([]byte("1m30s")); err != nil {
		t.Fatal(err)
	}
	assertEq(t, Duration(90*time.Second), d)

	b, err := d.MarshalText()
	if err != nil {
		t.Fatal(err)
	}
	assertEq(t, "1m30s", string(b))
}

func assertEq[T any](t *testing.T, expected, actual T, opts ...cmp.Option) {
	t.Helper()

	if diff := cmp.Diff(expected, actual, opts...); diff != "" {
		t.Errorf("unexpected diff (-want +got):\n%s", diff)
	}
}
