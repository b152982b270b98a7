package workercmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/MakeNowJust/heredoc"
	"github.com/jeroenvanmaanen/dendrite/aggregate"
	"github.com/jeroenvanmaanen/dendrite/cli/internal/clifactory"
	"github.com/jeroenvanmaanen/dendrite/client"
	"github.com/jeroenvanmaanen/dendrite/command/cmdworker"
	"github.com/jeroenvanmaanen/dendrite/example/greeting"
	"github.com/spf13/cobra"
)

// New returns the worker command.
func New(f *clifactory.Factory) *cobra.Command {
	var cfg struct {
		component string
		batchSize int
		queueSize int
		strict    bool
	}

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run a command worker for the greeting aggregate",
		Long: heredoc.Doc(`
			Subscribe to the commands of the greeting aggregate and handle them
			until interrupted.

			Defaults are read from DENDRITE_CLIENT_ID, DENDRITE_COMPONENT,
			DENDRITE_BATCH_SIZE, and DENDRITE_QUEUE_SIZE.
		`),
		Example: heredoc.Doc(`
			$ dendrite worker
			$ dendrite worker --batch-size 10 --connect localhost:8124
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := f.Logger()

			conn, err := f.Connect(f.Context)
			if err != nil {
				return err
			}

			var regOpts []aggregate.Option
			if cfg.strict {
				regOpts = append(regOpts, aggregate.Strict())
			}
			reg := aggregate.NewRegistry(regOpts...)
			if err := reg.Insert(greeting.New()); err != nil {
				return fmt.Errorf("register greeting aggregate: %w", err)
			}

			pipeline, err := aggregate.NewPipeline(reg, client.NewEventStore(conn), aggregate.Logger(log))
			if err != nil {
				return err
			}

			opts := []cmdworker.Option{
				cmdworker.ClientID(conn.ClientID),
				cmdworker.Logger(log),
			}
			if cmd.Flags().Changed("component") {
				opts = append(opts, cmdworker.ComponentName(cfg.component))
			}
			if cmd.Flags().Changed("batch-size") {
				opts = append(opts, cmdworker.BatchSize(cfg.batchSize))
			}
			if cmd.Flags().Changed("queue-size") {
				opts = append(opts, cmdworker.QueueSize(cfg.queueSize))
			}

			err = cmdworker.New(conn, pipeline, opts...).Run(f.Context)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&cfg.component, "component", cmdworker.DefaultComponentName, "Component name of the worker")
	cmd.Flags().IntVar(&cfg.batchSize, "batch-size", cmdworker.DefaultBatchSize, "Number of permits granted at once")
	cmd.Flags().IntVar(&cfg.queueSize, "queue-size", cmdworker.DefaultQueueSize, "Capacity of the response queue")
	cmd.Flags().BoolVar(&cfg.strict, "strict", false, "Reject commands that are handled by more than one aggregate")

	return cmd
}
