package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newClientsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "clients",
		Short: "List clients",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.load()
			if err != nil {
				return err
			}
			clients, err := a.API.ListClients(cmd.Context())
			if err != nil {
				return err
			}
			if len(clients) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No clients.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tCOMPANY\tPOSITION\t")
			for _, c := range clients {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n", c.ID, c.FullName(), orDash(c.Company), orDash(c.Position))
			}
			return w.Flush()
		},
	}
}

func newMediaCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "media",
		Short: "List media outlets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.load()
			if err != nil {
				return err
			}
			media, err := a.API.ListMedia(cmd.Context())
			if err != nil {
				return err
			}
			if len(media) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No media.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tLANGUAGE\tCATEGORY\t")
			for _, m := range media {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n", m.ID, m.Name, orDash(string(m.Language)), orDash(m.Category))
			}
			return w.Flush()
		},
	}
}
