package config

import "flag"

// Flags holds command-line overrides. Zero values leave the loaded config
// untouched.
type Flags struct {
	ConfigPath string
	Debug      bool
	LogFile    string

	Width    int
	Workers  int
	Schedule string
	Origin   string

	Tolerance float64
	Window    int

	OutDir string
	Name   string
	Format string
	FlipV  bool

	RandomColors bool
}

// Register binds the global flags to fs.
func (f *Flags) Register(fs *flag.FlagSet) {
	fs.StringVar(&f.ConfigPath, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.LogFile, "log-file", "", "Also write logs to this file")
}

// RegisterBake binds rasterizer and output flags to fs.
func (f *Flags) RegisterBake(fs *flag.FlagSet) {
	fs.IntVar(&f.Width, "width", 0, "Texture width in texels")
	fs.IntVar(&f.Workers, "workers", 0, "Parallel workers (1 = sequential)")
	fs.StringVar(&f.Schedule, "schedule", "", "Work split: bands or faces")
	fs.StringVar(&f.Origin, "origin", "", "Position origin: zero or bbox_min")
	fs.StringVar(&f.OutDir, "o", "", "Output directory")
	fs.StringVar(&f.Name, "name", "", "Output base name")
	fs.StringVar(&f.Format, "format", "", "Image format: png, bmp, tiff or tga")
	fs.BoolVar(&f.FlipV, "flip-v", false, "Put v=1 at the top of the image")
	fs.BoolVar(&f.RandomColors, "random-colors", false, "Use random colors when the mesh has none")
}

// RegisterAlign binds correspondence search flags to fs.
func (f *Flags) RegisterAlign(fs *flag.FlagSet) {
	fs.Float64Var(&f.Tolerance, "tolerance", 0, "Match tolerance (Manhattan distance)")
	fs.IntVar(&f.Window, "window", 0, "Candidates probed per vertex")
}

// apply applies CLI flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.LogFile != "" {
		cfg.Logging.LogFile = f.LogFile
	}
	if f.Width > 0 {
		cfg.Bake.Width = f.Width
	}
	if f.Workers > 0 {
		cfg.Bake.Workers = f.Workers
	}
	if f.Schedule != "" {
		cfg.Bake.Schedule = f.Schedule
	}
	if f.Origin != "" {
		cfg.Bake.PositionOrigin = f.Origin
	}
	if f.Tolerance > 0 {
		cfg.Align.Tolerance = f.Tolerance
	}
	if f.Window > 0 {
		cfg.Align.Window = f.Window
	}
	if f.OutDir != "" {
		cfg.Output.Dir = f.OutDir
	}
	if f.Name != "" {
		cfg.Output.Name = f.Name
	}
	if f.Format != "" {
		cfg.Output.Format = f.Format
	}
	if f.FlipV {
		cfg.Output.FlipV = true
	}
	if f.RandomColors {
		cfg.Input.MissingColor = "random"
	}
}
