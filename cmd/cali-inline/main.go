// Command cali-inline draws the same map as cali, with
// every style declared in code instead of a style document.
//
//	cali-inline [flags] <install_dir>
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/benoitkugler/okmap/carto"
	"github.com/benoitkugler/okmap/fontengine"
	"github.com/benoitkugler/okmap/internal/calimap"
	"github.com/benoitkugler/okmap/internal/config"
	"github.com/benoitkugler/okmap/internal/logger"
)

// faceName labels the peaks; it is the face of calimap.DefaultFont.
const faceName = "DejaVu Sans Book"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) (code int) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintln(stderr, "### Unknown exception.")
			code = 1
		}
	}()
	carto.SetLogger(logger.Setup(stderr))

	defaults := config.Defaults
	defaults.Output = "cali-inline.png"
	cfg, cfgErr := config.Load(defaults)
	fs := flag.NewFlagSet("cali-inline", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfg.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stdout, "usage: cali-inline <install_dir>")
		return 0
	}
	if cfgErr != nil {
		fmt.Fprintf(stderr, "### error: %s\n", cfgErr)
		return 1
	}

	if err := render(cfg, fs.Arg(0)); err != nil {
		if carto.IsConfigError(err) {
			fmt.Fprintf(stderr, "### Configuration error: %s\n", err)
		} else {
			fmt.Fprintf(stderr, "### error: %s\n", err)
		}
		return 1
	}
	return 0
}

func render(cfg config.Config, installDir string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	fonts := fontengine.New()
	calimap.LoadFonts(fonts, installDir)

	m := carto.NewMap(cfg.Width, cfg.Height)
	m.Fonts = fonts
	m.SetBackground(calimap.Background)

	if err := calimap.InlineStyles(m, faceName); err != nil {
		return err
	}
	if err := calimap.Setup(m, cfg.Data, cfg.Zoom); err != nil {
		return err
	}
	return calimap.Save(m, cfg.Output, cfg.Format)
}
