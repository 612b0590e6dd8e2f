package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pablasso/newsdesk/internal/config"
	"github.com/spf13/cobra"
)

func newInitCmd(e *env) *cobra.Command {
	var global bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Long:  "Creates .newsdesk/config.yaml in the current directory, or in your home directory with --global.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if global {
				home := e.opts.HomeDir
				if home == "" {
					h, err := os.UserHomeDir()
					if err != nil {
						return fmt.Errorf("failed to resolve home directory: %w", err)
					}
					home = h
				}
				path = config.GlobalConfigPath(home)
			} else {
				dir := e.opts.WorkDir
				if dir == "" {
					wd, err := os.Getwd()
					if err != nil {
						return fmt.Errorf("failed to resolve working directory: %w", err)
					}
					dir = wd
				}
				path = config.ProjectConfigPath(dir)
			}

			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("config already exists: %s", path)
			}
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
			}
			if err := config.WriteDefault(path); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Wrote", path)
			fmt.Fprintln(out, "\nNext steps:")
			fmt.Fprintln(out, "  1. Set api_url to your CRM backend")
			fmt.Fprintln(out, "  2. Run: newsdesk login --username <email> --password-stdin")
			return nil
		},
	}

	cmd.Flags().BoolVar(&global, "global", false, "write ~/.newsdesk/config.yaml instead")
	return cmd
}
