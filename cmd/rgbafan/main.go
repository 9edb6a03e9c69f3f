package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	rgbafan "github.com/jazz-g/framework-rgbafan"
	"github.com/jazz-g/framework-rgbafan/internal/anim"
	"github.com/jazz-g/framework-rgbafan/internal/led"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"
)

var (
	configPath = ""
	transport  = ""
	verbose    = false
)

var errUsage = errors.New("no animation mode given")

func init() {
	pflag.StringVarP(&configPath, "config", "c", configPath, "configuration file (.toml, .yaml or .yml)")
	pflag.StringVarP(&transport, "transport", "t", transport, "transport: framework, serial, spi, preview or text")
	pflag.BoolVarP(&verbose, "verbose", "v", verbose, "verbose logging")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] MODE [COLOR...]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "MODE is one of %v (or mpd).\n", anim.Modes)
		fmt.Fprintf(os.Stderr, "COLOR is a hex color such as ff0000.\n\n")
		pflag.PrintDefaults()
	}
}

func main() {
	log.SetFlags(0)
	pflag.Parse()

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000",
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, logger); err != nil {
		cancel()
		if errors.Is(err, errUsage) {
			pflag.Usage()
			os.Exit(2)
		}
		log.Fatal(err)
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := readConfig()
	if err != nil {
		return err
	}

	d, err := rgbafan.NewDaemon(cfg, logger)
	if err != nil {
		return err
	}

	if err := d.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("daemon failed: %w", err)
	}

	return nil
}

// readConfig layers the configuration file, the environment, the flags and
// the positional arguments, in increasing order of precedence.
func readConfig() (*rgbafan.Config, error) {
	cfg := rgbafan.DefaultConfig()
	if configPath != "" {
		c, err := rgbafan.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = c
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	if transport != "" {
		if err := cfg.Transport.Kind.UnmarshalText([]byte(transport)); err != nil {
			return nil, err
		}
	}

	args := pflag.Args()
	if len(args) > 0 {
		if err := cfg.Mode.UnmarshalText([]byte(args[0])); err != nil {
			return nil, err
		}
	}
	if len(args) > 1 {
		colors := make([]led.RGBColor, 0, len(args)-1)
		for _, arg := range args[1:] {
			c, err := led.ParseHex(arg)
			if err != nil {
				return nil, err
			}
			colors = append(colors, c)
		}
		cfg.Colors = colors
	}

	if cfg.Mode == "" {
		return nil, errUsage
	}

	return cfg, nil
}
