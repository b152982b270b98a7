package greetcmd

import (
	"strings"

	"github.com/MakeNowJust/heredoc"
	"github.com/jeroenvanmaanen/dendrite/cli/internal/cliargs"
	"github.com/jeroenvanmaanen/dendrite/cli/internal/clifactory"
	"github.com/jeroenvanmaanen/dendrite/client"
	"github.com/jeroenvanmaanen/dendrite/example/greeting"
	"github.com/logrusorgru/aurora"
	"github.com/spf13/cobra"
)

// New returns the greet command.
func New(f *clifactory.Factory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "greet <message>",
		Short: "Send greetings",
		Long: heredoc.Doc(`
			Send a greeting to the greeting aggregate and print the
			acknowledgement. Greetings are only recorded between "greet record"
			and "greet stop".
		`),
		Example: heredoc.Doc(`
			$ dendrite greet record
			$ dendrite greet World
			$ dendrite greet list
		`),
		Args: cobra.MatchAll(
			cliargs.MinimumN(1, "Must provide a message."),
			cliargs.NotBlank("Message must not be blank."),
		),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := gateway(f)
			if err != nil {
				return err
			}
			msg, err := greeting.Greet(f.Context, g, strings.Join(args, " "))
			if err != nil {
				return err
			}
			cmd.Println(aurora.Green(msg).String())
			return nil
		},
	}

	cmd.AddCommand(recordCmd(f), stopCmd(f), listCmd(f))

	return cmd
}

func recordCmd(f *clifactory.Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "record",
		Short: "Start recording greetings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			g, err := gateway(f)
			if err != nil {
				return err
			}
			if err := greeting.Record(f.Context, g); err != nil {
				return err
			}
			cmd.Println(aurora.Green("Recording greetings.").String())
			return nil
		},
	}
}

func stopCmd(f *clifactory.Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop recording greetings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			g, err := gateway(f)
			if err != nil {
				return err
			}
			if err := greeting.Stop(f.Context, g); err != nil {
				return err
			}
			cmd.Println(aurora.Green("Stopped recording greetings.").String())
			return nil
		},
	}
}

func listCmd(f *clifactory.Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the recorded greetings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			g, err := gateway(f)
			if err != nil {
				return err
			}
			greetings, err := greeting.Greetings(f.Context, g)
			if err != nil {
				return err
			}
			for _, g := range greetings {
				cmd.Println(g)
			}
			return nil
		},
	}
}

func gateway(f *clifactory.Factory) (*client.Gateway, error) {
	conn, err := f.Connect(f.Context)
	if err != nil {
		return nil, err
	}
	return client.NewGateway(conn), nil
}
