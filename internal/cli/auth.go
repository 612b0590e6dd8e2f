package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newLoginCmd(e *env) *cobra.Command {
	var (
		username      string
		password      string
		passwordStdin bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the access token",
		Long:  `Sign in to the CRM backend. The token is saved to the token file and used by every other command.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" {
				return errors.New("--username is required")
			}
			if passwordStdin {
				if password != "" {
					return errors.New("--password and --password-stdin are mutually exclusive")
				}
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("failed to read password from stdin: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}
			if password == "" {
				return errors.New("a password is required (use --password or --password-stdin)")
			}

			a, err := e.load()
			if err != nil {
				return err
			}

			token, err := a.API.Login(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			if err := a.Tokens.Save(token); err != nil {
				return err
			}

			me, err := a.API.Me(cmd.Context())
			if err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Logged in.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s <%s>\n", me.FullName(), me.Email)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	return cmd
}

func newLogoutCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.load()
			if err != nil {
				return err
			}
			if err := a.Tokens.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func newWhoamiCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.load()
			if err != nil {
				return err
			}
			me, err := a.API.Me(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s <%s>\n", me.FullName(), me.Email)
			if me.Role != "" {
				fmt.Fprintf(out, "Role: %s\n", me.Role)
			}
			return nil
		},
	}
}
