package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"github.com/vyPal/cstmt/lib/cache"
	"github.com/vyPal/cstmt/lib/compiler"
	"github.com/vyPal/cstmt/lib/parser"
)

func init() {
	commands = append(commands, &cli.Command{
		Name:      "build",
		Usage:     "Lower C files to LLVM IR",
		Category:  "compile",
		ArgsUsage: "[files...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "The directory for the generated .ll files",
			},
			&cli.BoolFlag{
				Name:  "no-cache",
				Usage: "Rebuild every file even when it has not changed",
			},
			&cli.StringFlag{
				Name:  "cache-dir",
				Usage: "Where to keep the build cache",
			},
		},
		Action: build,
	})
}

type buildResult struct {
	Source string
	Output string
	Cached bool
}

type builder struct {
	outDir string
	opts   parser.Options
	cache  *cache.Cache // nil disables caching

	mu    sync.Mutex // guards diags
	diags io.Writer
}

func (b *builder) outputPath(src string) string {
	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	return filepath.Join(b.outDir, base+".ll")
}

func (b *builder) buildFile(src, sum string) (buildResult, error) {
	res := buildResult{Source: src, Output: b.outputPath(src)}
	if b.cache != nil && b.cache.Fresh(src, sum, res.Output) {
		res.Cached = true
		return res, nil
	}

	tu, bag, err := parser.ParseFile(src, b.opts)
	if err != nil {
		return res, err
	}
	if bag.HasErrors() {
		b.mu.Lock()
		printDiagnostics(b.diags, bag)
		b.mu.Unlock()
		return res, errors.Errorf("%s: %d syntax error(s)", src, bag.Len())
	}

	comp := compiler.NewCompiler()
	if err := comp.Compile(tu); err != nil {
		return res, err
	}
	if err := os.WriteFile(res.Output, []byte(comp.Module.String()), 0644); err != nil {
		return res, errors.Wrapf(err, "writing %s", res.Output)
	}
	if b.cache != nil {
		b.cache.Record(src, sum, res.Output)
	}
	return res, nil
}

// claimOutputs drops repeated sources and fails when two different sources
// would be written to the same output file.
func (b *builder) claimOutputs(files []string) ([]string, error) {
	owner := make(map[string]string, len(files))
	unique := files[:0:0]
	for _, f := range files {
		out := b.outputPath(f)
		if prev, ok := owner[out]; ok {
			if filepath.Clean(prev) == filepath.Clean(f) {
				continue
			}
			return nil, errors.Errorf("%s and %s would both be written to %s", prev, f, out)
		}
		owner[out] = f
		unique = append(unique, f)
	}
	return unique, nil
}

// run builds files concurrently. Every failure is printed; the returned
// error only summarizes them.
func (b *builder) run(files []string) ([]buildResult, error) {
	files, err := b.claimOutputs(files)
	if err != nil {
		return nil, err
	}

	var sums map[string]string
	if b.cache != nil {
		if sums, err = cache.Sums(files, Version); err != nil {
			return nil, err
		}
	}

	var wg sync.WaitGroup
	results := make([]buildResult, len(files))
	errs := make(chan error, len(files))
	for i, f := range files {
		wg.Add(1)
		go func(i int, f string) {
			defer wg.Done()
			res, err := b.buildFile(f, sums[f])
			if err != nil {
				if b.cache != nil {
					b.cache.Forget(f)
				}
				errs <- err
				return
			}
			results[i] = res
		}(i, f)
	}
	wg.Wait()
	close(errs)

	if b.cache != nil {
		if err := b.cache.Save(); err != nil {
			return nil, err
		}
	}

	failed := 0
	for err := range errs {
		failed++
		fmt.Fprintf(b.diags, "%s %s\n", color.RedString("error:"), err)
	}
	if failed > 0 {
		return nil, errors.Errorf("%d of %d file(s) failed to build", failed, len(files))
	}
	return results, nil
}

func build(c *cli.Context) error {
	files, opts, conf, err := setup(c)
	if err != nil {
		return err
	}

	outDir := c.String("output")
	if outDir == "" && conf != nil {
		outDir = conf.OutputDir()
	}
	if outDir == "" {
		outDir = "."
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return cli.Exit(color.RedString("Error creating output directory: %s", err), 1)
	}

	b := &builder{outDir: outDir, opts: opts, diags: c.App.ErrWriter}
	if !c.Bool("no-cache") {
		dir := c.String("cache-dir")
		if dir == "" {
			if dir, err = cache.DefaultDir(); err != nil {
				return cli.Exit(color.RedString("Error locating cache: %s", err), 1)
			}
		}
		if b.cache, err = cache.Open(dir); err != nil {
			return cli.Exit(color.RedString("Error opening cache: %s", err), 1)
		}
	}

	results, err := b.run(files)
	if err != nil {
		return cli.Exit(color.RedString("Error: %s", err), 1)
	}
	for _, r := range results {
		if r.Cached {
			fmt.Fprintf(c.App.Writer, "%s is up to date\n", r.Output)
		} else {
			fmt.Fprintf(c.App.Writer, "wrote %s\n", color.GreenString(r.Output))
		}
	}
	return nil
}
