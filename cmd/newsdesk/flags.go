package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/pablasso/newsdesk/internal/task"
	"github.com/pablasso/newsdesk/internal/tui"
)

// Flags the board accepts on its own. Anything else is a CLI invocation.
var (
	boardValueFlags = map[string]bool{"api-url": true, "status": true, "config": true}
	boardBoolFlags  = map[string]bool{"version": true, "v": true}
)

type parseResult struct {
	Options     tui.Options
	ShowVersion bool
}

// isCLI reports whether args name a subcommand or a flag only the CLI knows,
// so they are handed to cobra instead of starting the board.
func isCLI(args []string) bool {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") || arg == "-" || arg == "--" {
			return true
		}
		name, _, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		switch {
		case boardValueFlags[name]:
			if !hasValue {
				i++
			}
		case boardBoolFlags[name]:
		default:
			return true
		}
	}
	return false
}

func parseArgs(args []string) (parseResult, error) {
	fs := flag.NewFlagSet("newsdesk", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	apiURL := fs.String("api-url", "", "CRM backend URL (overrides config)")
	status := fs.String("status", "", "Only show tasks in this stage")
	configFile := fs.String("config", "", "Config file to use instead of ~/.newsdesk/config.yaml")
	showVersion := fs.Bool("version", false, "Show version information")
	showVersionShort := fs.Bool("v", false, "Show version information")

	usage := func() string {
		var b strings.Builder
		fmt.Fprintln(&b, "Usage: newsdesk [flags]")
		fmt.Fprintln(&b, "       newsdesk <command> [flags]")
		fmt.Fprintln(&b, "")
		fmt.Fprintln(&b, "Without a command newsdesk opens the interactive board.")
		fmt.Fprintln(&b, "Run 'newsdesk --help' for the list of commands.")
		fmt.Fprintln(&b, "")
		fmt.Fprintln(&b, "Flags:")
		fs.SetOutput(&b)
		fs.PrintDefaults()
		fs.SetOutput(io.Discard)
		return b.String()
	}

	if err := fs.Parse(args); err != nil {
		return parseResult{}, fmt.Errorf("%v\n\n%s", err, usage())
	}

	if fs.NArg() > 0 {
		return parseResult{}, fmt.Errorf("positional args are not supported\n\n%s", usage())
	}

	if *showVersion || *showVersionShort {
		return parseResult{ShowVersion: true}, nil
	}

	opts := tui.Options{
		APIURL:     *apiURL,
		ConfigFile: *configFile,
	}
	if *status != "" {
		s, err := task.ParseStatus(*status)
		if err != nil {
			return parseResult{}, fmt.Errorf("%v\n\n%s", err, usage())
		}
		opts.Status = s
	}

	return parseResult{Options: opts}, nil
}
