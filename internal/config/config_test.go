package config

import (
	"bytes"
	"errors"
	"flag"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Test bake defaults
	if cfg.Bake.Width != 1024 {
		t.Errorf("expected width 1024, got %d", cfg.Bake.Width)
	}
	if cfg.Bake.Schedule != "bands" {
		t.Errorf("expected schedule bands, got %s", cfg.Bake.Schedule)
	}
	if cfg.Bake.PositionOrigin != "zero" {
		t.Errorf("expected position origin zero, got %s", cfg.Bake.PositionOrigin)
	}

	// Test align defaults
	if cfg.Align.Tolerance != 0.001 {
		t.Errorf("expected tolerance 0.001, got %f", cfg.Align.Tolerance)
	}
	if cfg.Align.Window != 50 {
		t.Errorf("expected window 50, got %d", cfg.Align.Window)
	}

	// Test output defaults
	if cfg.Output.Format != "png" {
		t.Errorf("expected format png, got %s", cfg.Output.Format)
	}
	if cfg.Output.FlipV {
		t.Error("expected flip_v to be false by default")
	}

	// Test logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, FileName)

	yamlContent := `
bake:
  width: 2048
  workers: 4
  schedule: faces
  position_origin: bbox_min

align:
  tolerance: 0.01
  window: 80
  unmatched_color: "#00ff00"

output:
  dir: out
  name: bunny
  format: tga
  flip_v: true

input:
  missing_color: random
  random_seed: 42

logging:
  level: "debug"
  format: json
  log_file: "bake.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Bake.Width != 2048 {
		t.Errorf("expected width 2048, got %d", cfg.Bake.Width)
	}
	if cfg.Bake.Workers != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.Bake.Workers)
	}
	if cfg.Bake.Schedule != "faces" {
		t.Errorf("expected schedule faces, got %s", cfg.Bake.Schedule)
	}
	if cfg.Bake.PositionOrigin != "bbox_min" {
		t.Errorf("expected origin bbox_min, got %s", cfg.Bake.PositionOrigin)
	}
	// Unset keys keep their defaults
	if cfg.Bake.Epsilon != 1e-12 {
		t.Errorf("expected default epsilon, got %g", cfg.Bake.Epsilon)
	}

	if cfg.Align.Window != 80 {
		t.Errorf("expected window 80, got %d", cfg.Align.Window)
	}
	if cfg.Align.UnmatchedColor != "#00ff00" {
		t.Errorf("expected unmatched color #00ff00, got %s", cfg.Align.UnmatchedColor)
	}

	if cfg.Output.Name != "bunny" || cfg.Output.Format != "tga" || !cfg.Output.FlipV {
		t.Errorf("unexpected output config: %+v", cfg.Output)
	}

	if cfg.Input.MissingColor != "random" || cfg.Input.RandomSeed != 42 {
		t.Errorf("unexpected input config: %+v", cfg.Input)
	}

	if cfg.Logging.Format != "json" {
		t.Errorf("expected json log format, got %s", cfg.Logging.Format)
	}
	if cfg.Logging.LogFile != "bake.log" {
		t.Errorf("expected log file 'bake.log', got %s", cfg.Logging.LogFile)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("loaded config should be valid: %v", err)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
bake:
  width: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	err := loadFromFile(cfg, configPath)
	if err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	err := loadFromFile(cfg, "/nonexistent/path/texbake.yaml")
	if err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	if err := os.WriteFile(FileName, []byte("bake:\n  width: 64\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if path := findConfigFile(); path == "" {
		t.Errorf("expected to find %s in current directory", FileName)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"zero width", func(c *Config) { c.Bake.Width = 0 }, "bake.width"},
		{"negative workers", func(c *Config) { c.Bake.Workers = -1 }, "bake.workers"},
		{"bad schedule", func(c *Config) { c.Bake.Schedule = "tiles" }, "bake.schedule"},
		{"bad origin", func(c *Config) { c.Bake.PositionOrigin = "center" }, "bake.position_origin"},
		{"zero tolerance", func(c *Config) { c.Align.Tolerance = 0 }, "align.tolerance"},
		{"zero window", func(c *Config) { c.Align.Window = 0 }, "align.window"},
		{"ratio above one", func(c *Config) { c.Align.WarnForcedRatio = 2 }, "align.warn_forced_ratio"},
		{"bad unmatched color", func(c *Config) { c.Align.UnmatchedColor = "magenta" }, "align.unmatched_color"},
		{"bad format", func(c *Config) { c.Output.Format = "webp" }, "output.format"},
		{"empty format", func(c *Config) { c.Output.Format = "" }, "output.format"},
		{"bad fallback", func(c *Config) { c.Input.MissingColor = "none" }, "input.missing_color"},
		{"bad fill color", func(c *Config) { c.Input.FillColor = "#12" }, "input.fill_color"},
		{"bad level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("expected error to mention %s, got %v", tt.field, err)
			}
		})
	}
}

func TestValidateFormatNames(t *testing.T) {
	for _, format := range []string{"png", "BMP", "tiff", "tif", "tga"} {
		cfg := Default()
		cfg.Output.Format = format
		if err := cfg.Validate(); err != nil {
			t.Errorf("format %q should be valid: %v", format, err)
		}
	}
}

func TestValidateReportsAll(t *testing.T) {
	cfg := Default()
	cfg.Bake.Width = -5
	cfg.Align.Window = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "bake.width") || !strings.Contains(msg, "align.window") {
		t.Errorf("expected both problems reported, got %v", err)
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.RGBA
		wantErr bool
	}{
		{"#ff00ff", color.RGBA{255, 0, 255, 255}, false},
		{"808080", color.RGBA{128, 128, 128, 255}, false},
		{"#01020304", color.RGBA{1, 2, 3, 4}, false},
		{"#zzzzzz", color.RGBA{}, true},
		{"#fff", color.RGBA{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColor(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseColor(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseColor(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestApplyFlags(t *testing.T) {
	var f Flags
	fs := flag.NewFlagSet("bake", flag.ContinueOnError)
	f.Register(fs)
	f.RegisterBake(fs)
	f.RegisterAlign(fs)

	args := []string{
		"-debug", "-width", "512", "-workers", "2", "-schedule", "faces",
		"-origin", "bbox_min", "-tolerance", "0.005", "-window", "10",
		"-o", "maps", "-name", "cube", "-format", "bmp", "-flip-v", "-random-colors",
	}
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse: %v", err)
	}

	cfg := Default()
	f.apply(cfg)

	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Bake.Width != 512 || cfg.Bake.Workers != 2 || cfg.Bake.Schedule != "faces" {
		t.Errorf("unexpected bake config: %+v", cfg.Bake)
	}
	if cfg.Bake.PositionOrigin != "bbox_min" {
		t.Errorf("expected origin bbox_min, got %s", cfg.Bake.PositionOrigin)
	}
	if cfg.Align.Tolerance != 0.005 || cfg.Align.Window != 10 {
		t.Errorf("unexpected align config: %+v", cfg.Align)
	}
	if cfg.Output.Dir != "maps" || cfg.Output.Name != "cube" || cfg.Output.Format != "bmp" || !cfg.Output.FlipV {
		t.Errorf("unexpected output config: %+v", cfg.Output)
	}
	if cfg.Input.MissingColor != "random" {
		t.Errorf("expected random fallback, got %s", cfg.Input.MissingColor)
	}
}

func TestApplyFlagsZeroValues(t *testing.T) {
	cfg := Default()
	(&Flags{}).apply(cfg)

	if *cfg != *Default() {
		t.Errorf("empty flags changed config: %+v", cfg)
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, FileName)

	yamlContent := `
bake:
  width: 256
  workers: 3
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(&Flags{ConfigPath: configPath, Width: 128})
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Width should be from flag (128), not file (256)
	if cfg.Bake.Width != 128 {
		t.Errorf("expected width 128 from flag, got %d", cfg.Bake.Width)
	}
	// Workers should be from file (3) since no flag override
	if cfg.Bake.Workers != 3 {
		t.Errorf("expected 3 workers from file, got %d", cfg.Bake.Workers)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(configPath, []byte("bake:\n  schedule: spiral\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	if _, err := Load(&Flags{ConfigPath: configPath}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", FileName)

	cfg := Default()
	cfg.Bake.Width = 300
	cfg.Output.FlipV = true
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("loading saved config: %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", loaded, cfg)
	}

	var buf bytes.Buffer
	if err := cfg.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !strings.Contains(buf.String(), "width: 300") {
		t.Errorf("expected YAML to contain width, got:\n%s", buf.String())
	}
}
