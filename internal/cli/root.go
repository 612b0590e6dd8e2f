package cli

import (
	"github.com/pablasso/newsdesk/internal/app"
	"github.com/pablasso/newsdesk/internal/version"
	"github.com/spf13/cobra"
)

// env carries the global flags and the lazily built dependencies of one run.
type env struct {
	opts app.Options
	app  *app.App

	// newApp builds the dependencies; tests point HomeDir/WorkDir at temp dirs.
	newApp func(app.Options) (*app.App, error)
}

func (e *env) load() (*app.App, error) {
	if e.app != nil {
		return e.app, nil
	}
	a, err := e.newApp(e.opts)
	if err != nil {
		return nil, err
	}
	e.app = a
	return a, nil
}

func newRootCmd(e *env) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "newsdesk",
		Short:         "Terminal client for the newsroom CRM",
		Long:          `newsdesk manages editorial tasks on the CRM pipeline board. Run it without arguments for the interactive board.`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&e.opts.ConfigFile, "config", "", "config file (default ~/.newsdesk/config.yaml)")
	flags.StringVar(&e.opts.APIURL, "api-url", "", "backend base URL")
	flags.StringVar(&e.opts.LogLevel, "log-level", "", "log level: trace|debug|info|warn|error")
	flags.StringVar(&e.opts.LogFormat, "log-format", "", "log format: console|json|pretty")

	rootCmd.AddCommand(
		newInitCmd(e),
		newLoginCmd(e),
		newLogoutCmd(e),
		newWhoamiCmd(e),
		newTasksCmd(e),
		newBoardCmd(e),
		newStatsCmd(e),
		newClientsCmd(e),
		newMediaCmd(e),
		newWatchCmd(e),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd(&env{newApp: app.New}).Execute()
}
