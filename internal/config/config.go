// Package config handles texbake configuration loading and management.
package config

// Config holds all texbake settings.
type Config struct {
	Bake    BakeConfig    `yaml:"bake"`
	Align   AlignConfig   `yaml:"align"`
	Output  OutputConfig  `yaml:"output"`
	Input   InputConfig   `yaml:"input"`
	Logging LoggingConfig `yaml:"logging"`
}

// BakeConfig holds rasterizer settings.
type BakeConfig struct {
	Width    int     `yaml:"width"`    // Texture side length in texels
	Workers  int     `yaml:"workers"`  // 0 uses every CPU
	Schedule string  `yaml:"schedule"` // bands | faces
	Epsilon  float64 `yaml:"epsilon"`  // Minimum UV double-area
	// PositionOrigin is "zero" to encode raw positions or "bbox_min" to encode
	// positions relative to the bounding-box minimum.
	PositionOrigin string `yaml:"position_origin"`
}

// AlignConfig holds correspondence search settings.
type AlignConfig struct {
	Tolerance       float64 `yaml:"tolerance"`
	Window          int     `yaml:"window"`
	UnmatchedColor  string  `yaml:"unmatched_color"`
	WarnForcedRatio float64 `yaml:"warn_forced_ratio"`
}

// OutputConfig holds texture output settings.
type OutputConfig struct {
	Dir    string `yaml:"dir"`
	Name   string `yaml:"name"`   // Empty uses the source file name
	Format string `yaml:"format"` // png | bmp | tiff | tga
	FlipV  bool   `yaml:"flip_v"`
}

// InputConfig holds fallbacks for missing mesh attributes.
type InputConfig struct {
	MissingColor string `yaml:"missing_color"` // uniform | random
	FillColor    string `yaml:"fill_color"`
	RandomSeed   uint64 `yaml:"random_seed"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	Format  string `yaml:"format"` // console | json
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Bake: BakeConfig{
			Width:          1024,
			Workers:        0,
			Schedule:       "bands",
			Epsilon:        1e-12,
			PositionOrigin: "zero",
		},
		Align: AlignConfig{
			Tolerance:       0.001,
			Window:          50,
			UnmatchedColor:  "#ff00ff",
			WarnForcedRatio: 0.01,
		},
		Output: OutputConfig{
			Dir:    ".",
			Format: "png",
		},
		Input: InputConfig{
			MissingColor: "uniform",
			FillColor:    "#808080",
			RandomSeed:   1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
