package servecmd

import (
	"github.com/MakeNowJust/heredoc"
	"github.com/jeroenvanmaanen/dendrite/cli/internal/clifactory"
	"github.com/jeroenvanmaanen/dendrite/internal/env"
	"github.com/jeroenvanmaanen/dendrite/server"
	"github.com/logrusorgru/aurora"
	"github.com/spf13/cobra"
)

// New returns the serve command.
func New(f *clifactory.Factory) *cobra.Command {
	var cfg struct {
		port    uint16
		store   string
		publish bool
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the command router and event store",
		Long: heredoc.Doc(`
			Run a server that routes commands to subscribed workers and serves
			an event store.

			The event store is selected with --store. The connection settings
			of the stores are read from the environment:

				postgres  POSTGRES_EVENTSTORE
				mongo     MONGO_URL
				redis     REDIS_URL

			With --publish, appended events are also published to NATS at
			NATS_URL.
		`),
		Example: heredoc.Doc(`
			$ dendrite serve
			$ POSTGRES_EVENTSTORE=postgres://localhost:5432 dendrite serve --store postgres
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := f.Logger()

			store, closeStore, err := openStore(f.Context, cfg.store, cfg.publish, log)
			if err != nil {
				return err
			}
			defer closeStore()

			opts := []server.ServeOption{server.Port(cfg.port)}
			if f.TestListener != nil {
				opts = append(opts, server.Listener(f.TestListener))
			}

			cmd.Println(aurora.Green(heredoc.Docf(`
				Serving on port %d.

				Store:   %s
				Publish: %v
			`, cfg.port, cfg.store, cfg.publish)).String())

			return server.New(store, server.Logger(log)).Serve(f.Context, opts...)
		},
	}

	cmd.Flags().Uint16VarP(&cfg.port, "port", "p", server.DefaultPort, "Port to listen on")
	cmd.Flags().StringVar(&cfg.store, "store", env.StringOr("DENDRITE_STORE", Memory), "Event store: memory, postgres, mongo, or redis")
	cmd.Flags().BoolVar(&cfg.publish, "publish", env.Bool("DENDRITE_PUBLISH"), "Publish appended events to NATS")

	return cmd
}
