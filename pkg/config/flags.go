package config

import (
	"fmt"
	"io"

	"github.com/spf13/pflag"
)

// Flags are the command line overrides of the configuration.
type Flags struct {
	fs   *pflag.FlagSet
	Path string
	// file is the config file found by Load.
	file string

	debug          bool
	source, filter string
	mode           string
	width, height  int
	fps            float64
	port           int
	overlay        bool
	frames         int
}

func NewFlags(name string) *Flags {
	f := &Flags{fs: pflag.NewFlagSet(name, pflag.ContinueOnError)}
	f.fs.SetOutput(io.Discard)
	d := Default()
	f.fs.StringVarP(&f.Path, "conf", "c", "", "config file path")
	f.fs.BoolVarP(&f.debug, "debug", "d", false, "debug logging")
	f.fs.StringVar(&f.source, "source", d.Capture.Source, "capture source [camera, pattern]")
	f.fs.StringVar(&f.filter, "filter", d.Filter.Backend, "filter backend")
	f.fs.StringVar(&f.mode, "mode", d.Filter.Mode, "initial filter mode [edges, raw]")
	f.fs.IntVar(&f.width, "width", d.Capture.Width, "capture width")
	f.fs.IntVar(&f.height, "height", d.Capture.Height, "capture height")
	f.fs.Float64Var(&f.fps, "fps", d.Capture.Fps, "capture frame rate")
	f.fs.IntVar(&f.port, "monitoring.port", d.Monitoring.Port, "monitoring server port")
	f.fs.BoolVar(&f.overlay, "overlay", d.Render.Overlay, "draw statistics over the video")
	f.fs.IntVar(&f.frames, "frames", 0, "stop after that many frames (pattern source)")
	return f
}

func (f *Flags) Parse(args []string) error { return f.fs.Parse(args) }

func (f *Flags) Usage() string {
	return fmt.Sprintf("Usage of %v:\n%v", f.fs.Name(), f.fs.FlagUsages())
}

// File returns the path of the loaded config file, empty if none.
func (f *Flags) File() string { return f.file }

// Apply overrides the configuration with the flags set by the user.
func (f *Flags) Apply(c *Config) {
	f.fs.Visit(func(fl *pflag.Flag) {
		switch fl.Name {
		case "debug":
			c.Debug = f.debug
		case "source":
			c.Capture.Source = f.source
		case "filter":
			c.Filter.Backend = f.filter
		case "mode":
			c.Filter.Mode = f.mode
		case "width":
			c.Capture.Width = f.width
		case "height":
			c.Capture.Height = f.height
		case "fps":
			c.Capture.Fps = f.fps
		case "monitoring.port":
			c.Monitoring.Port = f.port
		case "overlay":
			c.Render.Overlay = f.overlay
		case "frames":
			c.Capture.Frames = f.frames
		}
	})
}

// Load reads the configuration file and the environment and then
// overrides them with the flags.
func (f *Flags) Load() (Config, error) {
	path := f.Path
	if f.file != "" {
		path = f.file
	}
	conf, file, err := Load(path)
	if err != nil {
		return conf, fmt.Errorf("config %v: %w", path, err)
	}
	f.file = file
	f.Apply(&conf)
	return conf, conf.Validate()
}

// Parse loads the configuration for the command line args.
// The returned flags are kept for reloads and usage.
func Parse(name string, args []string) (Config, *Flags, error) {
	f := NewFlags(name)
	if err := f.Parse(args); err != nil {
		return Config{}, f, err
	}
	conf, err := f.Load()
	return conf, f, err
}
