package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
	"github.com/vyPal/cstmt/lib/project"
	"github.com/vyPal/cstmt/util"
)

const helloSource = `int printf(const char *, ...);

int main(void) {
	printf("Hello, world!\n");
	return 0;
}
`

func init() {
	commands = append(commands, &cli.Command{
		Name:      "init",
		Usage:     "Create a " + project.FileName + " and a starter source file",
		Category:  "project",
		ArgsUsage: "[dir]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "name",
				Aliases: []string{"n"},
				Usage:   "The name of the project",
			},
			&cli.BoolFlag{
				Name:    "force",
				Aliases: []string{"f"},
				Usage:   "Overwrite an existing " + project.FileName + " without asking",
			},
		},
		Action: initProject,
	})
}

func initProject(c *cli.Context) error {
	rootDir := c.Args().First()
	if rootDir == "" {
		rootDir = "."
	}
	srcDir := filepath.Join(rootDir, "src")
	if err := os.MkdirAll(srcDir, 0755); err != nil {
		return cli.Exit(color.RedString("Error creating %s: %s", srcDir, err), 1)
	}

	name := c.String("name")
	if name == "" {
		abs, err := filepath.Abs(rootDir)
		if err != nil {
			return err
		}
		name = filepath.Base(abs)
	}

	var conf project.Config
	conf.CreateDefault(name)
	confPath := filepath.Join(rootDir, project.FileName)
	wrote, err := conf.Save(confPath, c.Bool("force"), func(prompt string) bool {
		return util.Prompter{In: os.Stdin, Out: c.App.Writer}.YN(prompt, false)
	})
	if err != nil {
		return cli.Exit(color.RedString("Error: %s", err), 1)
	}
	if wrote {
		fmt.Fprintln(c.App.Writer, "Created", confPath)
	}

	mainPath := filepath.Join(srcDir, "main.c")
	if _, err := os.Stat(mainPath); os.IsNotExist(err) {
		if err := os.WriteFile(mainPath, []byte(helloSource), 0644); err != nil {
			return cli.Exit(color.RedString("Error: %s", err), 1)
		}
		fmt.Fprintln(c.App.Writer, "Created", mainPath)
	}
	return nil
}
