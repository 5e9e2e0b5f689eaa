package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"offercube/api"
	"offercube/config"
	"offercube/logger"
	"offercube/manager"
	"offercube/node"
	"offercube/offer"
	"offercube/store"
	"offercube/task"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the offercube server",
	Long: `offercube serve command.

The serve command starts the HTTP API and the manager loop, which
periodically evaluates pending tasks against the stored offers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := loadConfig()
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("address"); addr != "" {
			conf.Server.Address = addr
		}
		if launch, _ := cmd.Flags().GetBool("launch"); launch {
			conf.Manager.Launch = true
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, conf)
	},
}

func serve(ctx context.Context, conf config.Config) error {
	log := logger.New("serve")

	db, err := store.Open(conf.Store)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	var launcher task.Launcher
	if conf.Manager.Launch {
		d, err := task.NewDocker()
		if err != nil {
			return err
		}
		launcher = d
	}

	m, err := manager.New(conf, db, launcher)
	if err != nil {
		return err
	}

	if conf.Manager.OffersFile != "" {
		offers, err := offer.Load(conf.Manager.OffersFile)
		if err != nil {
			return err
		}
		for _, o := range offers {
			if err := m.AddOffer(o); err != nil {
				return err
			}
		}
		log.Info("loaded offers", "file", conf.Manager.OffersFile, "count", len(offers))
	}
	if conf.Manager.LocalOffer {
		o, err := node.LocalOffer(offer.AnyRole)
		if err != nil {
			return err
		}
		if err := m.AddOffer(o); err != nil {
			return err
		}
	}

	go m.Run(ctx)

	return api.New(conf.Server.Address, m).Start(ctx)
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("address", "a", "", "Address to listen on, overrides server.address")
	serveCmd.Flags().Bool("launch", false, "Launch matched tasks with docker")
}
