package main

import (
	"fmt"
	"os"

	"github.com/pablasso/newsdesk/internal/cli"
	"github.com/pablasso/newsdesk/internal/tui"
	"github.com/pablasso/newsdesk/internal/version"
)

func main() {
	args := os.Args[1:]

	// Subcommands and CLI flags route to cobra; otherwise launch the board.
	if isCLI(args) {
		if err := cli.Execute(); err != nil {
			os.Exit(1)
		}
		return
	}

	res, err := parseArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if res.ShowVersion {
		fmt.Println("newsdesk " + version.String())
		return
	}

	if err := tui.Run(res.Options); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
