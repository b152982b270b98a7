package eventscmd

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/MakeNowJust/heredoc"
	"github.com/jeroenvanmaanen/dendrite/cli/internal/clifactory"
	"github.com/jeroenvanmaanen/dendrite/client"
	"github.com/jeroenvanmaanen/dendrite/codec"
	"github.com/jeroenvanmaanen/dendrite/event"
	"github.com/jeroenvanmaanen/dendrite/example/greeting"
	"github.com/logrusorgru/aurora"
	"github.com/spf13/cobra"
)

// New returns the events command.
func New(f *clifactory.Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "events <aggregate-id>",
		Short: "List the events of an aggregate",
		Long: heredoc.Doc(`
			List the events of an aggregate in sequence order. Payloads of
			known types are decoded, other payloads are shown by size.
		`),
		Example: heredoc.Doc(`
			$ dendrite events xxx
		`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := f.Connect(f.Context)
			if err != nil {
				return err
			}

			events, err := client.NewGateway(conn).QueryEvents(f.Context, args[0])
			if err != nil {
				return err
			}

			if len(events) == 0 {
				cmd.Println(aurora.Yellow(fmt.Sprintf("No events for aggregate %q.", args[0])).String())
				return nil
			}

			return Render(cmd, greeting.Codecs(), events)
		},
	}
}

// Render writes events as a table to the output of cmd.
func Render(cmd *cobra.Command, reg *codec.Registry, events []event.Event) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 2, 1, ' ', 0)
	fmt.Fprintln(w, "SEQ\tTYPE\tTIME\tPAYLOAD")
	for _, evt := range events {
		fmt.Fprintf(
			w, "%d\t%s\t%s\t%s\n",
			evt.AggregateSequenceNumber,
			evt.Payload.Type,
			evt.Time().UTC().Format(time.RFC3339),
			payload(reg, evt.Payload),
		)
	}
	return w.Flush()
}

func payload(reg *codec.Registry, obj codec.SerializedObject) string {
	v, err := reg.Unmarshal(obj)
	if errors.Is(err, codec.ErrNotFound) {
		return fmt.Sprintf("<%d bytes>", len(obj.Data))
	}
	if err != nil {
		return aurora.Red(err).String()
	}
	return fmt.Sprintf("%+v", v)
}
