// Package cli parses the command line and configuration file of heatgrid.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/twpayne/go-heatgrid"
)

const (
	DefaultPath   = "Voronoi.csv"
	DefaultComma  = ','
	DefaultWidth  = 6.4
	DefaultHeight = 4.8
)

// An ExitError is an error with an exit code.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Message
}

// A Config is a complete heatgrid configuration.
type Config struct {
	Path          string
	Comma         rune
	ColorMap      string
	Interpolation heatgrid.Interpolation
	Scale         int
	VMin          *float64
	VMax          *float64
	Output        string
	Raw           bool
	Width         float64 // Figure width in inches.
	Height        float64 // Figure height in inches.
	LogFormat     string
	LogLevel      slog.Level
}

// hclConfigFile is the structure of a configuration file.
type hclConfigFile struct {
	View *hclView `hcl:"view,block"`
}

type hclView struct {
	Comma         *string  `hcl:"comma,optional"`
	ColorMap      *string  `hcl:"colormap,optional"`
	Interpolation *string  `hcl:"interpolation,optional"`
	Scale         *int     `hcl:"scale,optional"`
	VMin          *float64 `hcl:"vmin,optional"`
	VMax          *float64 `hcl:"vmax,optional"`
	Output        *string  `hcl:"output,optional"`
	Raw           *bool    `hcl:"raw,optional"`
	Width         *float64 `hcl:"width,optional"`
	Height        *float64 `hcl:"height,optional"`
}

// optionalFloat is a flag.Value for a float that may be unset.
type optionalFloat struct {
	value *float64
}

func (f *optionalFloat) Set(s string) error {
	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	f.value = &value
	return nil
}

func (f *optionalFloat) String() string {
	if f == nil || f.value == nil {
		return ""
	}
	return strconv.FormatFloat(*f.value, 'g', -1, 64)
}

// Parse parses args. getenv is used to look up environment variables. It
// returns the config, whether the program should exit cleanly, and any error.
func Parse(args []string, output io.Writer, getenv func(string) string) (*Config, bool, error) {
	flagSet := flag.NewFlagSet("heatgrid", flag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.Usage = func() {
		fmt.Fprint(output, `heatgrid - display a grid of numbers as a heat map.

Usage:
  heatgrid [options] [PATH]

Arguments:
  PATH
    Path to a CSV or GeoTIFF grid. Defaults to $HEATGRID_PATH or Voronoi.csv.

Options:
`)
		flagSet.PrintDefaults()
	}

	configFlag := flagSet.String("config", getenv("HEATGRID_CONFIG"), "Path to an HCL configuration file.")
	commaFlag := flagSet.String("comma", string(DefaultComma), "CSV field delimiter. Use '\\t' for tab.")
	colorMapFlag := flagSet.String("colormap", heatgrid.DefaultColorMapName, "Color map. Options: '"+strings.Join(heatgrid.ColorMapNames(), "', '")+"'.")
	interpolationFlag := flagSet.String("interpolation", heatgrid.InterpolationNearest.String(), "Interpolation. Options: 'nearest' or 'bilinear'.")
	scaleFlag := flagSet.Int("scale", 1, "Pixels per cell along each axis.")
	var vMinFlag, vMaxFlag optionalFloat
	flagSet.Var(&vMinFlag, "vmin", "Value mapped to the low end of the color map. Defaults to the grid's minimum.")
	flagSet.Var(&vMaxFlag, "vmax", "Value mapped to the high end of the color map. Defaults to the grid's maximum.")
	outputFlag := flagSet.String("output", "", "Write the image to this file instead of opening a window.")
	rawFlag := flagSet.Bool("raw", false, "Write or show the raster without axes.")
	widthFlag := flagSet.Float64("width", DefaultWidth, "Figure width in inches.")
	heightFlag := flagSet.Float64("height", DefaultHeight, "Figure height in inches.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		// The flag package has already reported the error.
		return nil, false, &ExitError{Code: 2}
	}
	if flagSet.NArg() > 1 {
		return nil, false, &ExitError{Code: 2, Message: "too many arguments"}
	}

	config := &Config{
		Path:     DefaultPath,
		Comma:    DefaultComma,
		ColorMap: heatgrid.DefaultColorMapName,
		Scale:    1,
		Width:    DefaultWidth,
		Height:   DefaultHeight,
	}
	interpolation := heatgrid.InterpolationNearest.String()
	comma := string(DefaultComma)

	if *configFlag != "" {
		view, err := parseConfigFile(*configFlag)
		if err != nil {
			return nil, false, &ExitError{Code: 2, Message: err.Error()}
		}
		if view != nil {
			setIfNotNil(&comma, view.Comma)
			setIfNotNil(&config.ColorMap, view.ColorMap)
			setIfNotNil(&interpolation, view.Interpolation)
			setIfNotNil(&config.Scale, view.Scale)
			setIfNotNil(&config.Output, view.Output)
			setIfNotNil(&config.Raw, view.Raw)
			setIfNotNil(&config.Width, view.Width)
			setIfNotNil(&config.Height, view.Height)
			config.VMin = view.VMin
			config.VMax = view.VMax
		}
	}

	if path := getenv("HEATGRID_PATH"); path != "" {
		config.Path = path
	}
	if flagSet.NArg() == 1 {
		config.Path = flagSet.Arg(0)
	}

	flagSet.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "comma":
			comma = *commaFlag
		case "colormap":
			config.ColorMap = *colorMapFlag
		case "interpolation":
			interpolation = *interpolationFlag
		case "scale":
			config.Scale = *scaleFlag
		case "vmin":
			config.VMin = vMinFlag.value
		case "vmax":
			config.VMax = vMaxFlag.value
		case "output":
			config.Output = *outputFlag
		case "raw":
			config.Raw = *rawFlag
		case "width":
			config.Width = *widthFlag
		case "height":
			config.Height = *heightFlag
		}
	})

	var err error
	if config.Comma, err = parseComma(comma); err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	if config.Interpolation, err = heatgrid.ParseInterpolation(interpolation); err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	if _, err := heatgrid.NewColorMap(config.ColorMap); err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	if config.Scale < 1 {
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("%d: invalid scale", config.Scale)}
	}
	if config.Width <= 0 || config.Height <= 0 {
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("%gx%g: invalid figure size", config.Width, config.Height)}
	}
	for name, value := range map[string]*float64{"vmin": config.VMin, "vmax": config.VMax} {
		if value != nil && (math.IsNaN(*value) || math.IsInf(*value, 0)) {
			return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("%s %g: must be finite", name, *value)}
		}
	}
	if config.VMin != nil && config.VMax != nil && *config.VMin > *config.VMax {
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("vmin %g greater than vmax %g", *config.VMin, *config.VMax)}
	}

	switch config.LogFormat = strings.ToLower(*logFormatFlag); config.LogFormat {
	case "text", "json":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}
	if err := config.LogLevel.UnmarshalText([]byte(*logLevelFlag)); err != nil {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	return config, false, nil
}

// NewLogger returns a new logger writing to w as configured by c.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	handlerOptions := &slog.HandlerOptions{
		Level: c.LogLevel,
	}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOptions))
	}
	return slog.New(slog.NewTextHandler(w, handlerOptions))
}

// parseConfigFile parses the configuration file at filename.
func parseConfigFile(filename string) (*hclView, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse config file %s: %w", filename, diags)
	}

	var configFile hclConfigFile
	if diags := gohcl.DecodeBody(hclFile.Body, nil, &configFile); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode config file %s: %w", filename, diags)
	}
	return configFile.View, nil
}

// parseComma parses a CSV field delimiter, which must be a single character.
func parseComma(s string) (rune, error) {
	if s == `\t` {
		return '\t', nil
	}
	comma, size := utf8.DecodeRuneInString(s)
	switch {
	case size != len(s) || comma == utf8.RuneError:
		return 0, fmt.Errorf("%q: invalid comma: must be a single character", s)
	case comma == '\r' || comma == '\n' || comma == '"':
		return 0, fmt.Errorf("%q: invalid comma", s)
	}
	return comma, nil
}

func setIfNotNil[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
