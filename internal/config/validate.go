package config

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"go.uber.org/multierr"
)

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid config")

// Validate reports every unusable setting.
func (c *Config) Validate() error {
	var err error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			err = multierr.Append(err, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
		}
	}

	check(c.Bake.Width > 0, "bake.width must be positive, got %d", c.Bake.Width)
	check(c.Bake.Workers >= 0, "bake.workers must not be negative, got %d", c.Bake.Workers)
	check(oneOf(c.Bake.Schedule, "bands", "faces"), "bake.schedule %q", c.Bake.Schedule)
	check(c.Bake.Epsilon >= 0, "bake.epsilon must not be negative")
	check(oneOf(c.Bake.PositionOrigin, "zero", "bbox_min"), "bake.position_origin %q", c.Bake.PositionOrigin)

	check(c.Align.Tolerance > 0, "align.tolerance must be positive")
	check(c.Align.Window > 0, "align.window must be positive, got %d", c.Align.Window)
	check(c.Align.WarnForcedRatio >= 0 && c.Align.WarnForcedRatio <= 1,
		"align.warn_forced_ratio must be in [0,1], got %g", c.Align.WarnForcedRatio)
	if _, perr := ParseColor(c.Align.UnmatchedColor); perr != nil {
		check(false, "align.unmatched_color: %v", perr)
	}

	check(oneOf(strings.ToLower(c.Output.Format), "png", "bmp", "tiff", "tif", "tga"),
		"output.format %q", c.Output.Format)

	check(oneOf(c.Input.MissingColor, "uniform", "random"), "input.missing_color %q", c.Input.MissingColor)
	if _, perr := ParseColor(c.Input.FillColor); perr != nil {
		check(false, "input.fill_color: %v", perr)
	}

	check(oneOf(c.Logging.Level, "debug", "info", "warn", "error"), "logging.level %q", c.Logging.Level)
	check(oneOf(c.Logging.Format, "console", "json"), "logging.format %q", c.Logging.Format)

	return err
}

func oneOf(s string, allowed ...string) bool {
	for _, a := range allowed {
		if s == a {
			return true
		}
	}
	return false
}

// ParseColor parses "#rrggbb" or "#rrggbbaa". Alpha defaults to 255.
func ParseColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 && len(hex) != 8 {
		return color.RGBA{}, fmt.Errorf("color %q: want #rrggbb or #rrggbbaa", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("color %q: %w", s, err)
	}
	if len(hex) == 6 {
		v = v<<8 | 0xFF
	}
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
