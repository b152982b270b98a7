package rootcmd

import (
	"github.com/MakeNowJust/heredoc"
	"github.com/jeroenvanmaanen/dendrite/cli/internal/clifactory"
	"github.com/jeroenvanmaanen/dendrite/cli/internal/cmd/eventscmd"
	"github.com/jeroenvanmaanen/dendrite/cli/internal/cmd/greetcmd"
	"github.com/jeroenvanmaanen/dendrite/cli/internal/cmd/servecmd"
	"github.com/jeroenvanmaanen/dendrite/cli/internal/cmd/workercmd"
	"github.com/spf13/cobra"
)

// New returns the root command.
func New(f *clifactory.Factory) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "dendrite",
		Short:         "dendrite CLI",
		SilenceErrors: true,
		SilenceUsage:  true,
		Example: heredoc.Doc(`
			$ dendrite serve
			$ dendrite worker
			$ dendrite greet World
			$ dendrite events xxx
		`),
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return f.Close()
		},
	}

	cmd.PersistentFlags().StringVar(
		&f.Address,
		"connect",
		f.Address,
		"Server address",
	)

	cmd.PersistentFlags().DurationVarP(
		&f.ConnectTimeout,
		"connect-timeout", "t",
		f.ConnectTimeout,
		"Timeout for connecting to the server",
	)

	cmd.PersistentFlags().BoolVar(&f.Debug, "debug", f.Debug, "Log debug messages")

	cmd.AddCommand(
		servecmd.New(f),
		workercmd.New(f),
		greetcmd.New(f),
		eventscmd.New(f),
	)

	return cmd
}
