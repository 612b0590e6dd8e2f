package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/pablasso/newsdesk/internal/app"
	"github.com/pablasso/newsdesk/internal/board"
	"github.com/pablasso/newsdesk/internal/realtime"
	"github.com/pablasso/newsdesk/internal/store"
	"github.com/pablasso/newsdesk/internal/task"
	"github.com/spf13/cobra"
)

func newWatchCmd(e *env) *cobra.Command {
	var filters filterFlags

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the board live and print counts on every change",
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

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return watch(ctx, a, f, cmd.OutOrStdout())
		},
	}

	filters.register(cmd)
	return cmd
}

// watch loads the board, then keeps it in sync over the board socket and
// reprints the summary after every store change until ctx is done.
func watch(ctx context.Context, a *app.App, filters task.Filters, out io.Writer) error {
	s := a.NewStore()
	if err := s.Load(ctx, filters); err != nil {
		return err
	}

	changed := make(chan struct{}, 1)
	unsubscribe := s.Subscribe(func(store.Event) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	states := make(chan realtime.State, 8)
	syncer := a.NewSyncer(s)
	client, err := a.NewRealtime(realtime.Fanout(
		syncer,
		realtime.Handlers{State: func(st realtime.State) {
			select {
			case states <- st:
			default:
			}
		}},
	))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go syncer.Run(ctx)
	done := make(chan error, 1)
	go func() { done <- client.Run(ctx) }()

	printSnapshot(out, s)
	for {
		select {
		case <-ctx.Done():
			cancel()
			<-done
			return nil
		case st := <-states:
			fmt.Fprintf(out, "[%s] realtime %s\n", time.Now().Format(time.TimeOnly), st)
		case <-changed:
			printSnapshot(out, s)
		}
	}
}

func printSnapshot(out io.Writer, s *store.Store) {
	fmt.Fprintf(out, "\n[%s] board updated\n", time.Now().Format(time.TimeOnly))
	printSummary(out, board.Summarize(s.Board(time.Now())))
}
