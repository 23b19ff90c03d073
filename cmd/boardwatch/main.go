// Command boardwatch follows one board live: it prints the board, then
// every change other members make to it.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dalemusser/kanbanhub/internal/app/boardsync"
	"github.com/dalemusser/kanbanhub/internal/app/realtime"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		server  string
		token   string
		verbose bool
	)
	cmd := &cobra.Command{
		Use:   "boardwatch BOARD_ID",
		Short: "Follow a KanbanHub board in real time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			boardID, err := primitive.ObjectIDFromHex(args[0])
			if err != nil {
				return fmt.Errorf("invalid board id %q", args[0])
			}
			if token == "" {
				token = os.Getenv("KANBANHUB_TOKEN")
			}
			if token == "" {
				return fmt.Errorf("a token is required (--token or KANBANHUB_TOKEN)")
			}

			logger := zap.NewNop()
			if verbose {
				if logger, err = zap.NewDevelopment(); err != nil {
					return err
				}
			}
			defer func() { _ = logger.Sync() }()

			out := cmd.OutOrStdout()
			client := boardsync.NewClient(server, token, logger)
			cache := boardsync.NewCache(boardID, client, logger)
			if err := cache.Load(cmd.Context()); err != nil {
				return err
			}
			printBoard(out, cache)

			client.OnFrame = func(f realtime.Frame, o boardsync.Outcome) {
				if o == boardsync.Ignored && f.Event != realtime.EventUserJoined && f.Event != realtime.EventUserLeft {
					return
				}
				fmt.Fprintf(out, "-- %s (%s)\n", f.Event, o)
				if o != boardsync.Ignored {
					printBoard(out, cache)
				}
			}
			err = client.Subscribe(cmd.Context(), cache)
			if err == context.Canceled {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&server, "server", "http://localhost:8080", "KanbanHub base URL")
	cmd.Flags().StringVar(&token, "token", "", "access token (defaults to $KANBANHUB_TOKEN)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log connection activity")
	return cmd
}

func printBoard(w io.Writer, c *boardsync.Cache) {
	b := c.Board()
	s := c.Stats()
	fmt.Fprintf(w, "%s  [%d cards: %d todo, %d in progress, %d done]\n", b.Title, s.Total, s.Todo, s.InProgress, s.Done)
	for _, l := range c.Lists() {
		fmt.Fprintf(w, "  %s\n", l.Title)
		for _, card := range l.Cards {
			fmt.Fprintf(w, "    %3d  %-8s %s\n", card.Order, card.Priority, card.Title)
		}
	}
}
