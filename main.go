package main

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"github.com/vyPal/cstmt/lib/diag"
	"github.com/vyPal/cstmt/lib/parser"
	"github.com/vyPal/cstmt/lib/project"
)

const Version = "0.3.0"

var commands []*cli.Command

func newApp() *cli.App {
	return &cli.App{
		Name:                   "cstmt",
		Usage:                  "Parse C statements and blocks with clang-style error recovery",
		Version:                Version,
		EnableBashCompletion:   true,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Trace parser recovery decisions on stderr",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "The path to " + project.FileName,
			},
			&cli.IntFlag{
				Name:  "max-depth",
				Usage: "Maximum statement and expression nesting, negative for unbounded",
			},
			&cli.IntFlag{
				Name:  "max-errors",
				Usage: "Stop reporting after this many diagnostics per file",
			},
		},
		Commands: commands,
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func logger(c *cli.Context) *slog.Logger {
	if !c.Bool("verbose") {
		return nil
	}
	return slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// loadConfig reads the project file named by --config, or the one in the
// working directory. A missing file is not an error unless it was named.
func loadConfig(c *cli.Context) (*project.Config, error) {
	dir := "."
	if p := c.String("config"); p != "" {
		dir = filepath.Dir(p)
		if filepath.Base(p) != project.FileName {
			return nil, errors.Errorf("config file must be named %s", project.FileName)
		}
	}
	conf, err := project.Load(dir)
	if os.IsNotExist(err) && c.String("config") == "" {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := conf.CheckVersion(Version); err != nil {
		return nil, err
	}
	return conf, nil
}

// setup resolves the source files and parser options for a command. Files on
// the command line win over the project's sources; flags win over its
// parser settings.
func setup(c *cli.Context) ([]string, parser.Options, *project.Config, error) {
	conf, err := loadConfig(c)
	if err != nil {
		return nil, parser.Options{}, nil, cli.Exit(color.RedString("Error reading project: %s", err), 1)
	}

	opts := parser.Options{Logger: logger(c)}
	if conf != nil {
		opts.MaxDepth = conf.Parser.MaxDepth
		opts.MaxErrors = conf.Parser.MaxErrors
	}
	if c.IsSet("max-depth") {
		opts.MaxDepth = c.Int("max-depth")
	}
	if c.IsSet("max-errors") {
		opts.MaxErrors = c.Int("max-errors")
	}

	files := c.Args().Slice()
	if len(files) == 0 && conf != nil {
		if files, err = conf.SourceFiles(); err != nil {
			return nil, opts, conf, cli.Exit(color.RedString("Error: %s", err), 1)
		}
	}
	if len(files) == 0 {
		return nil, opts, conf, cli.Exit(color.RedString("Error: No file specified"), 1)
	}
	return files, opts, conf, nil
}

// printDiagnostics writes diagnostics the way a C compiler does.
func printDiagnostics(w io.Writer, bag *diag.Bag) {
	for _, d := range bag.Sorted() {
		fmt.Fprintf(w, "%s: %s %s\n", d.Pos, color.RedString("error:"), d.Message())
	}
	if n := bag.Truncated(); n > 0 {
		fmt.Fprintf(w, "%s too many errors emitted, %d more not shown\n", color.YellowString("note:"), n)
	}
}
