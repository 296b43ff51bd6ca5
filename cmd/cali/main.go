// Command cali draws the state of California and some of its
// fourteeners, with the styles of style.xml.
//
//	cali [flags] <install_dir>
//
// Fonts are read from <install_dir>/fonts. Settings may also be given
// with CALI_* environment variables or a .env file.
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

	cfg, cfgErr := config.Load(config.Defaults)
	fs := flag.NewFlagSet("cali", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfg.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stdout, "usage: cali <install_dir>")
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

	if err := carto.LoadMap(m, cfg.Style, true); err != nil {
		return err
	}
	if err := calimap.Setup(m, cfg.Data, cfg.Zoom); err != nil {
		return err
	}
	return calimap.Save(m, cfg.Output, cfg.Format)
}
