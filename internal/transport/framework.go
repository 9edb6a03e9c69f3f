package transport

import (
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/jazz-g/framework-rgbafan/internal/led"
	"github.com/pkg/errors"
)

// Framework sets the fan LEDs through the embedded controller using
// framework_tool. Each frame is one invocation:
//
//	framework_tool --rgbkbd 0 0xRRGGBB 0xRRGGBB ...
type Framework struct {
	tool   string
	logger *slog.Logger

	// run is swapped out in tests.
	run func(name string, args ...string) ([]byte, error)
}

// NewFramework creates a Framework transport calling the given tool.
func NewFramework(tool string, logger *slog.Logger) *Framework {
	return &Framework{
		tool:   tool,
		logger: logger,
		run:    runCommand,
	}
}

// Write sets every LED starting at index 0.
func (f *Framework) Write(leds led.LEDs) error {
	args := frameworkArgs(leds)

	out, err := f.run(f.tool, args...)
	if err != nil {
		return errors.Wrapf(err, "%s failed: %s", f.tool, strings.TrimSpace(string(out)))
	}

	f.logger.Debug(
		"wrote frame to embedded controller",
		"leds", leds.String())
	return nil
}

// Close does nothing. The controller keeps showing the last frame.
func (f *Framework) Close() error {
	return nil
}

func frameworkArgs(leds led.LEDs) []string {
	args := make([]string, 0, 2+len(leds))
	args = append(args, "--rgbkbd", "0")
	for _, c := range leds {
		args = append(args, fmt.Sprintf("0x%06X", c.Uint32()))
	}
	return args
}

func runCommand(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).CombinedOutput()
}
