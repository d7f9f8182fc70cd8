package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"github.com/vyPal/cstmt/lib/parser"
)

func init() {
	commands = append(commands, &cli.Command{
		Name:      "watch",
		Usage:     "Re-check C files every time they are saved",
		Category:  "parse",
		ArgsUsage: "[files...]",
		Action:    watch,
	})
}

func recheck(w io.Writer, file string, opts parser.Options) {
	n, err := checkFiles(w, []string{file}, opts)
	if err != nil {
		fmt.Fprintf(w, "%s %s\n", color.RedString("error:"), err)
		return
	}
	fmt.Fprintf(w, "%s: %d diagnostic(s)\n", file, n)
}

// watchFiles checks files once, then again after every write, until ctx is
// done. Directories are watched rather than files so that editors which
// save by renaming are still seen.
func watchFiles(ctx context.Context, w io.Writer, files []string, opts parser.Options) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "starting file watcher")
	}
	defer watcher.Close()

	watched := make(map[string]string)
	dirs := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return err
		}
		watched[abs] = f
		if dir := filepath.Dir(abs); !dirs[dir] {
			if err := watcher.Add(dir); err != nil {
				return errors.Wrapf(err, "watching %s", dir)
			}
			dirs[dir] = true
		}
	}

	for _, f := range files {
		recheck(w, f, opts)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if f, ok := watched[filepath.Clean(ev.Name)]; ok {
				recheck(w, f, opts)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(w, "%s %s\n", color.YellowString("warning:"), err)
		}
	}
}

func watch(c *cli.Context) error {
	files, opts, _, err := setup(c)
	if err != nil {
		return err
	}
	if err := watchFiles(c.Context, c.App.ErrWriter, files, opts); err != nil {
		return cli.Exit(color.RedString("Error: %s", err), 1)
	}
	return nil
}
