package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/felixgeelhaar/notewise/internal/infrastructure/cli"
)

func main() {
	os.Exit(run(os.Stderr))
}

func run(stderr io.Writer) int {
	err := cli.Execute()
	if err == nil {
		return 0
	}
	var cliErr *cli.CLIError
	if errors.As(err, &cliErr) {
		if cliErr.Hint != "" {
			_, _ = fmt.Fprintf(stderr, "Hint: %s\n", cliErr.Hint)
		}
		return cliErr.ExitCode
	}
	return 1
}
