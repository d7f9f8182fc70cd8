package util

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Prompter asks yes/no questions on a terminal.
type Prompter struct {
	In  io.Reader
	Out io.Writer
}

// YN returns def when the answer is empty or input is exhausted.
func (p Prompter) YN(prompt string, def bool) bool {
	if def {
		fmt.Fprintf(p.Out, "%s (Y/n): ", prompt)
	} else {
		fmt.Fprintf(p.Out, "%s (y/N): ", prompt)
	}

	response, err := bufio.NewReader(p.In).ReadString('\n')
	if err != nil && response == "" {
		return def
	}

	response = strings.TrimSpace(response)
	if response == "" {
		return def
	}
	return strings.ToLower(response) == "y"
}
