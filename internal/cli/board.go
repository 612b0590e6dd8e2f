package cli

import (
	"time"

	"github.com/pablasso/newsdesk/internal/board"
	"github.com/spf13/cobra"
)

func newBoardCmd(e *env) *cobra.Command {
	var filters filterFlags

	cmd := &cobra.Command{
		Use:   "board",
		Short: "Print tasks grouped by pipeline stage",
		Long:  `Print the pipeline board. Within each stage overdue tasks (marked !) come first, then the longest waiting.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := filters.build()
			if err != nil {
				return err
			}
			a, err := e.load()
			if err != nil {
				return err
			}

			s := a.NewStore()
			if err := s.Load(cmd.Context(), f); err != nil {
				return err
			}
			return printBoard(cmd.OutOrStdout(), s.Board(time.Now()))
		},
	}

	filters.register(cmd)
	return cmd
}

func newStatsCmd(e *env) *cobra.Command {
	var filters filterFlags

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print task counts per stage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := filters.build()
			if err != nil {
				return err
			}
			a, err := e.load()
			if err != nil {
				return err
			}

			s := a.NewStore()
			if err := s.Load(cmd.Context(), f); err != nil {
				return err
			}
			return printSummary(cmd.OutOrStdout(), board.Summarize(s.Board(time.Now())))
		},
	}

	filters.register(cmd)
	return cmd
}
