package main

import (
	"io"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"github.com/vyPal/cstmt/lib/ast"
	"github.com/vyPal/cstmt/lib/diag"
	"github.com/vyPal/cstmt/lib/parser"
)

func init() {
	commands = append(commands,
		&cli.Command{
			Name:      "check",
			Usage:     "Parse C files and report syntax errors",
			Category:  "parse",
			ArgsUsage: "[files...]",
			Action:    check,
		},
		&cli.Command{
			Name:      "dump",
			Usage:     "Print the syntax tree of a C file as S-expressions",
			Category:  "parse",
			ArgsUsage: "[file]",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "source",
					Aliases: []string{"s"},
					Usage:   "Parse a string instead of a file",
				},
			},
			Action: dump,
		},
	)
}

// checkFiles parses every file and prints its diagnostics to w. It returns
// the number of diagnostics.
func checkFiles(w io.Writer, files []string, opts parser.Options) (int, error) {
	total := 0
	for _, f := range files {
		_, bag, err := parser.ParseFile(f, opts)
		if err != nil {
			return total, errors.Wrap(err, f)
		}
		printDiagnostics(w, bag)
		total += bag.Len()
	}
	return total, nil
}

func check(c *cli.Context) error {
	files, opts, _, err := setup(c)
	if err != nil {
		return err
	}
	n, err := checkFiles(c.App.ErrWriter, files, opts)
	if err != nil {
		return cli.Exit(color.RedString("Error: %s", err), 1)
	}
	if n > 0 {
		return cli.Exit(color.RedString("%d error(s) generated.", n), 1)
	}
	return nil
}

func dump(c *cli.Context) error {
	opts := parser.Options{Logger: logger(c), MaxDepth: c.Int("max-depth"), MaxErrors: c.Int("max-errors")}

	var (
		tu  *ast.TranslationUnit
		bag *diag.Bag
		err error
	)
	if src := c.String("source"); src != "" {
		tu, bag, err = parser.ParseString("<source>", src, opts)
	} else if f := c.Args().First(); f != "" {
		tu, bag, err = parser.ParseFile(f, opts)
	} else {
		return cli.Exit(color.RedString("Error: No file specified"), 1)
	}
	if err != nil {
		return cli.Exit(color.RedString("Error: %s", err), 1)
	}

	if err := ast.Fprint(c.App.Writer, tu); err != nil {
		return err
	}
	printDiagnostics(c.App.ErrWriter, bag)
	if bag.HasErrors() {
		return cli.Exit("", 1)
	}
	return nil
}
