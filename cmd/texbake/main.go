// texbake bakes per-vertex mesh colors, normals and positions into UV
// textures.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/Faultbox/texbake/internal/config"
	"github.com/Faultbox/texbake/internal/logger"
	"github.com/Faultbox/texbake/internal/pipeline"
	"github.com/Faultbox/texbake/pkg/mesh"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "bake":
		cmdBake(args)
	case "align":
		cmdAlign(args)
	case "info":
		cmdInfo(args)
	case "config":
		cmdConfig(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`texbake - bake vertex attributes into UV textures

Usage:
  texbake <command> [options]

Commands:
  bake <source> [unwrapped.obj]   Bake color, normal and position maps
  align <source> <target>         Transfer vertex colors between indexings
  info <mesh>                     Show mesh information
  config                          Print the effective configuration

Examples:
  texbake bake scan.obj
  texbake bake -width 2048 -o maps scan.ply scan_unwrapped.obj
  texbake align -csv colors.csv scan.ply scan_unwrapped.obj
  texbake config -save`)
}

// loadConfig parses args into fs and loads the config with its overrides.
func loadConfig(fs *flag.FlagSet, flags *config.Flags, args []string) *config.Config {
	fs.Parse(args)

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func fatal(msg string, err error) {
	logger.Error(msg, zap.Error(err))
	logger.Sync()
	os.Exit(1)
}

func cmdBake(args []string) {
	var flags config.Flags
	fs := flag.NewFlagSet("bake", flag.ExitOnError)
	flags.Register(fs)
	flags.RegisterBake(fs)
	flags.RegisterAlign(fs)
	cfg := loadConfig(fs, &flags, args)
	defer logger.Sync()

	if fs.NArg() < 1 || fs.NArg() > 2 {
		fmt.Fprintln(os.Stderr, "Usage: texbake bake [options] <source> [unwrapped.obj]")
		os.Exit(1)
	}

	req := pipeline.Request{Source: fs.Arg(0), Unwrapped: fs.Arg(1)}
	rep, err := pipeline.Bake(cfg, req)
	if err != nil {
		fatal("bake failed", err)
	}

	fmt.Println(rep.Paths.Color)
	fmt.Println(rep.Paths.Normal)
	fmt.Println(rep.Paths.Position)
}

func cmdAlign(args []string) {
	var flags config.Flags
	fs := flag.NewFlagSet("align", flag.ExitOnError)
	flags.Register(fs)
	flags.RegisterAlign(fs)
	csvPath := fs.String("csv", "", "Write target vertex colors to a CSV file")
	cfg := loadConfig(fs, &flags, args)
	defer logger.Sync()

	if fs.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "Usage: texbake align [options] <source> <target>")
		os.Exit(1)
	}

	res, target, err := pipeline.AlignFiles(cfg, fs.Arg(0), fs.Arg(1))
	if err != nil {
		fatal("align failed", err)
	}

	fmt.Printf("Targets:      %d\n", len(res.Colors))
	fmt.Printf("Forced:       %d (%.2f%%)\n", res.Forced, 100*res.ForcedRatio())
	fmt.Printf("Unmatched:    %d\n", res.Unmatched)
	fmt.Printf("Max distance: %g\n", res.MaxDistance)

	if *csvPath != "" {
		if err := writeCSV(*csvPath, target); err != nil {
			fatal("writing csv", err)
		}
		fmt.Printf("Wrote %s\n", *csvPath)
	}
}

// writeCSV dumps one row per vertex: index, position and color.
func writeCSV(path string, m *mesh.Mesh) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"index", "x", "y", "z", "r", "g", "b"}); err != nil {
		return err
	}
	ftoa := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	for i, p := range m.Positions {
		c := m.Colors.RGBA(i)
		row := []string{
			strconv.Itoa(i), ftoa(p.X), ftoa(p.Y), ftoa(p.Z),
			strconv.Itoa(int(c.R)), strconv.Itoa(int(c.G)), strconv.Itoa(int(c.B)),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func cmdInfo(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: texbake info <mesh>")
		os.Exit(1)
	}

	s, err := pipeline.Inspect(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Mesh:       %s (%s)\n", args[0], s.Format)
	fmt.Printf("Vertices:   %d (%d referenced)\n", s.Vertices, s.Referenced)
	fmt.Printf("Faces:      %d\n", s.Faces)
	if s.Colors > 0 {
		fmt.Printf("Colors:     %d channels\n", s.Colors)
	} else {
		fmt.Println("Colors:     none")
	}
	fmt.Printf("Normals:    %t\n", s.Normals)
	if s.UVVertices > 0 {
		fmt.Printf("UVs:        %d unwrapped vertices\n", s.UVVertices)
	} else {
		fmt.Println("UVs:        none")
	}
	if !s.Bounds.Empty() {
		b := s.Bounds
		fmt.Printf("Bounds:     (%g, %g, %g) - (%g, %g, %g)\n", b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z)
		fmt.Printf("Max extent: %g\n", b.MaxExtent())
	}
}

func cmdConfig(args []string) {
	var flags config.Flags
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	flags.Register(fs)
	save := fs.Bool("save", false, "Save to the user config directory")
	cfg := loadConfig(fs, &flags, args)

	if *save {
		if err := cfg.Save(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Saved %s\n", config.ConfigDir())
		return
	}
	if err := cfg.Write(os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
