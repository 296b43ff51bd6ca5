// Package config reads the settings of the commands from the
// environment, optionally seeded by a .env file, and lets
// command line flags override them.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the rendering settings.
type Config struct {
	Style  string // style document, for the style driven command
	Data   string // shapefile of the states, without extension
	Output string
	Format string // image format, deduced from Output when empty
	Width  int
	Height int
	Zoom   float64
}

// Defaults are the settings used when nothing is configured.
var Defaults = Config{
	Style:  "style.xml",
	Data:   "../data/statesp020",
	Output: "cali.png",
	Width:  1080,
	Height: 680,
	Zoom:   1.15,
}

// Get returns the value of the environment variable key, or
// fallback when it is unset or empty.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s: %w", key, err)
	}
	return n, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s: %w", key, err)
	}
	return f, nil
}

// Load loads the given .env files, when present (".env" if none is given),
// then reads the CALI_* variables on top of base.
// Variables already set in the environment win over the files.
func Load(base Config, envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		_ = godotenv.Load(file)
	}

	c := base
	c.Style = Get("CALI_STYLE", base.Style)
	c.Data = Get("CALI_DATA", base.Data)
	c.Output = Get("CALI_OUTPUT", base.Output)
	c.Format = Get("CALI_FORMAT", base.Format)
	var err error
	if c.Width, err = getInt("CALI_WIDTH", base.Width); err != nil {
		return c, err
	}
	if c.Height, err = getInt("CALI_HEIGHT", base.Height); err != nil {
		return c, err
	}
	if c.Zoom, err = getFloat("CALI_ZOOM", base.Zoom); err != nil {
		return c, err
	}
	return c, nil
}

// RegisterFlags binds the settings to flags of fs, using
// the current values as defaults.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Style, "style", c.Style, "style document")
	fs.StringVar(&c.Data, "data", c.Data, "states shapefile, without extension")
	fs.StringVar(&c.Output, "o", c.Output, "output file")
	fs.StringVar(&c.Format, "format", c.Format, "output format: png, jpeg, tiff, bmp or pdf (default from the output extension)")
	fs.IntVar(&c.Width, "width", c.Width, "map width in pixels")
	fs.IntVar(&c.Height, "height", c.Height, "map height in pixels")
	fs.Float64Var(&c.Zoom, "zoom", c.Zoom, "zoom factor applied around the extent")
}

// Validate checks the settings are usable.
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("config: invalid map size %dx%d", c.Width, c.Height)
	}
	if c.Zoom <= 0 {
		return fmt.Errorf("config: invalid zoom factor %g", c.Zoom)
	}
	if c.Output == "" {
		return fmt.Errorf("config: missing output file")
	}
	return nil
}
